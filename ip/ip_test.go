package ip

import (
	"errors"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cidr(t *testing.T, s string) net.Addr {
	t.Helper()
	ip, ipnet, err := net.ParseCIDR(s)
	require.NoError(t, err)
	ipnet.IP = ip
	return ipnet
}

func withAddrs(t *testing.T, addrs []net.Addr, err error) {
	t.Helper()
	orig := interfaceAddrs
	interfaceAddrs = func() ([]net.Addr, error) { return addrs, err }
	t.Cleanup(func() { interfaceAddrs = orig })
}

func TestHostLocalIP(t *testing.T) {
	withAddrs(t, []net.Addr{cidr(t, "127.0.0.1/8"), cidr(t, "fe80::1/64"), cidr(t, "192.168.1.10/24"), cidr(t, "203.0.113.7/24")}, nil)
	got, err := hostLocalIP()
	require.NoError(t, err)
	assert.Equal(t, "203.0.113.7", got, "public address preferred")

	withAddrs(t, []net.Addr{cidr(t, "127.0.0.1/8"), cidr(t, "10.0.0.5/8")}, nil)
	got, err = hostLocalIP()
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.5", got)

	withAddrs(t, []net.Addr{cidr(t, "127.0.0.1/8")}, nil)
	_, err = hostLocalIP()
	assert.Error(t, err)

	withAddrs(t, nil, errors.New("boom"))
	_, err = hostLocalIP()
	assert.ErrorContains(t, err, "boom")
}

func TestIsUsableIPv4(t *testing.T) {
	assert.True(t, IsUsableIPv4("10.0.0.5"))
	assert.True(t, IsUsableIPv4("8.8.8.8"))
	assert.False(t, IsUsableIPv4("127.0.0.1"))
	assert.False(t, IsUsableIPv4("0.0.0.0"))
	assert.False(t, IsUsableIPv4("::1"))
	assert.False(t, IsUsableIPv4("not-an-ip"))
}

func TestDiscoverLocalIP(t *testing.T) {
	t.Setenv(HostIPEnv, "192.168.50.4")
	got, err := DiscoverLocalIP()
	require.NoError(t, err)
	assert.Equal(t, "192.168.50.4", got)

	t.Setenv(HostIPEnv, "localhost")
	_, err = DiscoverLocalIP()
	assert.Error(t, err)

	t.Setenv(HostIPEnv, "")
	withAddrs(t, []net.Addr{cidr(t, "172.16.0.9/12")}, nil)
	got, err = DiscoverLocalIP()
	require.NoError(t, err)
	assert.Equal(t, "172.16.0.9", got)
}
