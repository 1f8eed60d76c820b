package config

import (
	"io/fs"
	"time"

	"github.com/mensylisir/xmstack/common"
)

// ConsoleConfig is the top-level configuration document.
type ConsoleConfig struct {
	APIVersion string       `yaml:"apiVersion"`
	Kind       string       `yaml:"kind"`
	Metadata   MetadataSpec `yaml:"metadata"`
	Spec       ConsoleSpec  `yaml:"spec"`

	// baseDir anchors relative manifest globs; it is the directory of the
	// loaded file, or the working directory for the embedded default.
	baseDir string
	// manifests is set for the embedded default, whose globs resolve in
	// the manifests compiled into the binary.
	manifests fs.FS
}

// MetadataSpec defines metadata for the console configuration.
type MetadataSpec struct {
	Name string `yaml:"name"`
}

// ConsoleSpec holds the menu sections and the component catalog.
type ConsoleSpec struct {
	Settings   SettingsSpec      `yaml:"settings"`
	Variables  map[string]string `yaml:"variables,omitempty"`
	Sections   []SectionSpec     `yaml:"sections"`
	Components []ComponentSpec   `yaml:"components,omitempty"`
}

// SettingsSpec tunes how steps and components are executed.
type SettingsSpec struct {
	PollInterval       int    `yaml:"pollInterval,omitempty"` // seconds
	ImageCacheDir      string `yaml:"imageCacheDir,omitempty"`
	ImageImportCommand string `yaml:"imageImportCommand,omitempty"` // printf template, %s is the archive path
	FieldManager       string `yaml:"fieldManager,omitempty"`
	Kubeconfig         string `yaml:"kubeconfig,omitempty"`
}

// SectionSpec is one entry of the main menu.
type SectionSpec struct {
	Name  string     `yaml:"name"`
	Icon  string     `yaml:"icon,omitempty"`
	Steps []StepSpec `yaml:"steps"`
}

// StepSpec is one entry of a section: either a shell command or a catalog
// component run in-process with the session's configuration.
type StepSpec struct {
	Name       string          `yaml:"name"`
	Command    string          `yaml:"command,omitempty"`
	Sudo       bool            `yaml:"sudo,omitempty"`
	Component  string          `yaml:"component,omitempty"`
	Action     string          `yaml:"action,omitempty"` // deploy (default) or cleanup
	Validation *ValidationSpec `yaml:"validation,omitempty"`
}

// ValidationSpec is a readiness poll attached to a step.
type ValidationSpec struct {
	Command        string `yaml:"command"`
	Timeout        int    `yaml:"timeout"` // seconds, 0 means a single attempt
	SuccessMessage string `yaml:"successMessage,omitempty"`
}

// ComponentSpec describes one deployable third-party image.
type ComponentSpec struct {
	Name          string         `yaml:"name"`
	Description   string         `yaml:"description,omitempty"`
	Namespace     string         `yaml:"namespace,omitempty"`
	Image         ImageSpec      `yaml:"image,omitempty"`
	Manifests     []string       `yaml:"manifests,omitempty"`
	Prerequisites []string       `yaml:"prerequisites,omitempty"`
	Readiness     *ReadinessSpec `yaml:"readiness,omitempty"`
	Access        []string       `yaml:"access,omitempty"`
	SudoImport    bool           `yaml:"sudoImport,omitempty"`
}

// ImageSpec names the image transferred into the cluster runtime.
type ImageSpec struct {
	Ref  string `yaml:"ref,omitempty"`
	Pull bool   `yaml:"pull,omitempty"` // pull when missing from the local docker daemon
}

// ReadinessSpec is either a shell command or a workload rollout to wait for.
type ReadinessSpec struct {
	Command string `yaml:"command,omitempty"`
	Kind    string `yaml:"kind,omitempty"`
	Name    string `yaml:"name,omitempty"`
	Timeout int    `yaml:"timeout,omitempty"` // seconds
}

// BaseDir returns the directory relative manifest globs are resolved against.
func (c *ConsoleConfig) BaseDir() string {
	return c.baseDir
}

// ManifestFS returns the file system of the built-in manifests, or nil
// when manifest globs resolve on disk under BaseDir.
func (c *ConsoleConfig) ManifestFS() fs.FS {
	return c.manifests
}

// SectionByName returns the named section.
func (c *ConsoleConfig) SectionByName(name string) (SectionSpec, bool) {
	for _, s := range c.Spec.Sections {
		if s.Name == name {
			return s, true
		}
	}
	return SectionSpec{}, false
}

// ComponentByName returns the named component.
func (c *ConsoleConfig) ComponentByName(name string) (ComponentSpec, bool) {
	for _, comp := range c.Spec.Components {
		if comp.Name == name {
			return comp, true
		}
	}
	return ComponentSpec{}, false
}

// Interval returns the poll interval as a duration.
func (s SettingsSpec) Interval() time.Duration {
	if s.PollInterval <= 0 {
		return common.DefaultPollInterval
	}
	return time.Duration(s.PollInterval) * time.Second
}

// TimeoutDuration returns the validation timeout as a duration.
func (v ValidationSpec) TimeoutDuration() time.Duration {
	return time.Duration(v.Timeout) * time.Second
}

// TimeoutDuration returns the readiness timeout as a duration.
func (r ReadinessSpec) TimeoutDuration() time.Duration {
	return time.Duration(r.Timeout) * time.Second
}
