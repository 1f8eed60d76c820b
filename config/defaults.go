package config

import (
	"path/filepath"

	"github.com/mensylisir/xmstack/common"
)

const (
	DefaultAPIVersion       = "xmstack.io/v1alpha1"
	KindConsole             = "Console"
	DefaultNamespace        = "default"
	DefaultPollIntervalSecs = 2
	DefaultReadinessTimeout = 300 // seconds
	DefaultImageCacheSubdir = "images"
)

// Workload kinds a readiness clause may wait for.
const (
	WorkloadDeployment  = "Deployment"
	WorkloadStatefulSet = "StatefulSet"
	WorkloadDaemonSet   = "DaemonSet"
)

// Component actions a step may name.
const (
	ActionDeploy  = "deploy"
	ActionCleanup = "cleanup"
)

// SetDefaults fills in the optional fields of cfg in place.
// It runs after parsing and before validation.
func SetDefaults(cfg *ConsoleConfig) {
	if cfg == nil {
		return
	}
	if cfg.APIVersion == "" {
		cfg.APIVersion = DefaultAPIVersion
	}

	s := &cfg.Spec.Settings
	if s.PollInterval == 0 {
		s.PollInterval = DefaultPollIntervalSecs
	}
	if s.ImageCacheDir == "" {
		s.ImageCacheDir = filepath.Join(common.GetTmpDir(), DefaultImageCacheSubdir)
	}
	if s.ImageImportCommand == "" {
		s.ImageImportCommand = common.ImageImportCmdTpl
	}
	if s.FieldManager == "" {
		s.FieldManager = common.DefaultFieldManager
	}
	if cfg.Spec.Variables == nil {
		cfg.Spec.Variables = map[string]string{}
	}

	for i := range cfg.Spec.Components {
		c := &cfg.Spec.Components[i]
		if c.Namespace == "" {
			c.Namespace = DefaultNamespace
		}
		if c.Readiness != nil && c.Readiness.Timeout == 0 {
			c.Readiness.Timeout = DefaultReadinessTimeout
		}
	}
}
