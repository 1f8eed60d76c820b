// Package kube applies manifests to the local k0s cluster and reports
// workload rollout progress.
package kube

import (
	"fmt"
	"os"
	"path/filepath"

	"k8s.io/apimachinery/pkg/api/meta"
	"k8s.io/client-go/discovery/cached/memory"
	"k8s.io/client-go/dynamic"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/restmapper"
	"k8s.io/client-go/tools/clientcmd"
	"k8s.io/client-go/util/homedir"

	"github.com/mensylisir/xmstack/common"
)

// K0sAdminKubeconfig is where a k0s controller writes its admin kubeconfig.
const K0sAdminKubeconfig = "/var/lib/k0s/pki/admin.conf"

// Client bundles the API clients manifest apply and rollout checks need.
type Client struct {
	dynamic      dynamic.Interface
	mapper       meta.ResettableRESTMapper
	clientset    kubernetes.Interface
	fieldManager string
}

// NewClient assembles a Client from existing interfaces; tests pass fakes.
func NewClient(dyn dynamic.Interface, mapper meta.RESTMapper, clientset kubernetes.Interface, fieldManager string) *Client {
	if fieldManager == "" {
		fieldManager = common.DefaultFieldManager
	}
	return &Client{
		dynamic:      dyn,
		mapper:       resettable(mapper),
		clientset:    clientset,
		fieldManager: fieldManager,
	}
}

// NewForConfig creates a Client talking to the cluster described by config.
// Resource mappings are discovered lazily and cached in memory.
func NewForConfig(config *rest.Config, fieldManager string) (*Client, error) {
	clientset, err := kubernetes.NewForConfig(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create kubernetes client: %w", err)
	}
	dyn, err := dynamic.NewForConfig(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create dynamic client: %w", err)
	}
	mapper := restmapper.NewDeferredDiscoveryRESTMapper(memory.NewMemCacheClient(clientset.Discovery()))
	return NewClient(dyn, mapper, clientset, fieldManager), nil
}

// BuildRestConfig resolves a kubeconfig the way operators expect on a k0s node:
//   - the explicit path when given
//   - KUBECONFIG
//   - ~/.kube/config
//   - the k0s admin kubeconfig
//   - in-cluster configuration
func BuildRestConfig(kubeconfig string) (*rest.Config, error) {
	if kubeconfig == "" {
		kubeconfig = os.Getenv("KUBECONFIG")
	}
	if kubeconfig == "" {
		for _, candidate := range []string{filepath.Join(homedir.HomeDir(), ".kube", "config"), K0sAdminKubeconfig} {
			if _, err := os.Stat(candidate); err == nil {
				kubeconfig = candidate
				break
			}
		}
	}

	if kubeconfig == "" {
		config, err := rest.InClusterConfig()
		if err != nil {
			return nil, fmt.Errorf("no kubeconfig found and in-cluster config unavailable: %w", err)
		}
		return config, nil
	}
	config, err := clientcmd.BuildConfigFromFlags("", kubeconfig)
	if err != nil {
		return nil, fmt.Errorf("failed to build kube config from %s: %w", kubeconfig, err)
	}
	return config, nil
}

// Clientset exposes the typed client.
func (c *Client) Clientset() kubernetes.Interface {
	return c.clientset
}

// FieldManager returns the server-side apply field owner.
func (c *Client) FieldManager() string {
	return c.fieldManager
}

type nopResetMapper struct {
	meta.RESTMapper
}

func (nopResetMapper) Reset() {}

func resettable(m meta.RESTMapper) meta.ResettableRESTMapper {
	if r, ok := m.(meta.ResettableRESTMapper); ok {
		return r
	}
	return nopResetMapper{m}
}
