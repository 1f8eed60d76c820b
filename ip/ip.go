package ip

import (
	"fmt"
	"net"
	"os"

	"github.com/pkg/errors"
)

// HostIPEnv overrides address discovery, e.g. when the node has several NICs.
const HostIPEnv = "XMSTACK_HOST_IP"

// interfaceAddrs is swapped in tests.
var interfaceAddrs = net.InterfaceAddrs

// hostLocalIP returns the first non-loopback IPv4 address of the host,
// preferring a global unicast address over a private or link-local one.
func hostLocalIP() (string, error) {
	addrs, err := interfaceAddrs()
	if err != nil {
		return "", errors.Wrap(err, "failed to get interface addresses")
	}

	var fallback string
	for _, addr := range addrs {
		ipnet, ok := addr.(*net.IPNet)
		if !ok || ipnet.IP.IsLoopback() {
			continue
		}
		ipv4 := ipnet.IP.To4()
		if ipv4 == nil {
			continue
		}
		if ipv4.IsGlobalUnicast() && !ipv4.IsPrivate() {
			return ipv4.String(), nil
		}
		if fallback == "" && (ipv4.IsPrivate() || ipv4.IsLinkLocalUnicast()) {
			fallback = ipv4.String()
		}
	}
	if fallback != "" {
		return fallback, nil
	}
	return "", errors.New("no suitable local IPv4 address found")
}

// IsUsableIPv4 reports whether s is a non-loopback, non-unspecified IPv4 address.
func IsUsableIPv4(s string) bool {
	ip := net.ParseIP(s)
	return ip != nil && ip.To4() != nil && !ip.IsLoopback() && !ip.IsUnspecified()
}

// DiscoverLocalIP returns the address operators reach the node on. The
// XMSTACK_HOST_IP environment variable wins when it holds a usable IPv4.
func DiscoverLocalIP() (string, error) {
	if envIP := os.Getenv(HostIPEnv); envIP != "" {
		if IsUsableIPv4(envIP) {
			return envIP, nil
		}
		return "", fmt.Errorf("%s=%q is not a usable IPv4 address", HostIPEnv, envIP)
	}
	localIP, err := hostLocalIP()
	if err != nil {
		return "", fmt.Errorf("failed to discover local IP: %w", err)
	}
	return localIP, nil
}
