package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mensylisir/xmstack/common"
)

const sampleConsoleYAML = `
apiVersion: xmstack.io/v1alpha1
kind: Console
metadata:
  name: test-console
spec:
  settings:
    pollInterval: 5
    kubeconfig: "${XMSTACK_TEST_KUBECONFIG}"
  variables:
    hostIP: 10.0.0.5
  sections:
    - name: Basics
      icon: "*"
      steps:
        - name: A
          command: "true"
        - name: B
          command: "echo $HOME ${XMSTACK_TEST_UNSET}"
          validation:
            command: "kubectl get pods"
            timeout: 30
            successMessage: "pods are up"
  components:
    - name: kafka
      image:
        ref: docker.io/bitnami/kafka:3.6
      manifests: ["kafka/*.yaml"]
      readiness:
        kind: StatefulSet
        name: kafka
      access: ["${{ .hostIP }}:30092"]
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "console.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoader_Load(t *testing.T) {
	t.Setenv("XMSTACK_TEST_KUBECONFIG", "/etc/k0s/admin.conf")
	path := writeConfig(t, sampleConsoleYAML)

	cfg, err := NewLoader(path).Load()
	require.NoError(t, err)

	assert.Equal(t, "test-console", cfg.Metadata.Name)
	assert.Equal(t, filepath.Dir(path), cfg.BaseDir())
	assert.Equal(t, "/etc/k0s/admin.conf", cfg.Spec.Settings.Kubeconfig)
	assert.Equal(t, 5, cfg.Spec.Settings.PollInterval)
	assert.Equal(t, common.ImageImportCmdTpl, cfg.Spec.Settings.ImageImportCommand)
	assert.Equal(t, common.DefaultFieldManager, cfg.Spec.Settings.FieldManager)

	require.Len(t, cfg.Spec.Sections, 1)
	steps := cfg.Spec.Sections[0].Steps
	require.Len(t, steps, 2)
	assert.Nil(t, steps[0].Validation)
	assert.Equal(t, "echo $HOME ${XMSTACK_TEST_UNSET}", steps[1].Command, "unset and bare references stay for the shell")
	require.NotNil(t, steps[1].Validation)
	assert.Equal(t, 30, steps[1].Validation.Timeout)
	assert.Equal(t, "pods are up", steps[1].Validation.SuccessMessage)

	kafka, ok := cfg.ComponentByName("kafka")
	require.True(t, ok)
	assert.Equal(t, DefaultNamespace, kafka.Namespace)
	require.NotNil(t, kafka.Readiness)
	assert.Equal(t, DefaultReadinessTimeout, kafka.Readiness.Timeout)
	assert.Equal(t, filepath.Dir(path), cfg.BaseDir())
	assert.Nil(t, cfg.ManifestFS(), "a file configuration reads manifests from disk")

	_, ok = cfg.SectionByName("Basics")
	assert.True(t, ok)
	_, ok = cfg.SectionByName("nope")
	assert.False(t, ok)
}

func TestLoader_EnvFile(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("XMSTACK_TEST_FROM_DOTENV=/from/dotenv\n"), 0o644))
	t.Cleanup(func() { os.Unsetenv("XMSTACK_TEST_FROM_DOTENV") })

	content := strings.Replace(sampleConsoleYAML, "${XMSTACK_TEST_KUBECONFIG}", "${XMSTACK_TEST_FROM_DOTENV}", 1)
	cfg, err := NewLoader(writeConfig(t, content), WithEnvFile(envFile)).Load()
	require.NoError(t, err)
	assert.Equal(t, "/from/dotenv", cfg.Spec.Settings.Kubeconfig)

	_, err = NewLoader(writeConfig(t, content), WithEnvFile(filepath.Join(dir, "missing.env"))).Load()
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrConfig))
}

func TestLoader_EmbeddedDefault(t *testing.T) {
	dir := t.TempDir()
	cfg, err := NewLoader("", WithWorkDir(dir)).Load()
	require.NoError(t, err)

	assert.Equal(t, KindConsole, cfg.Kind)
	assert.Equal(t, dir, cfg.BaseDir())
	assert.NotEmpty(t, cfg.Spec.Sections)
	assert.NotEmpty(t, cfg.Spec.Components)
	require.NotNil(t, cfg.ManifestFS())
	for _, c := range cfg.Spec.Components {
		require.NotEmpty(t, c.Manifests, c.Name)
		for _, pattern := range c.Manifests {
			matches, err := doublestar.Glob(cfg.ManifestFS(), pattern, doublestar.WithFilesOnly())
			require.NoError(t, err)
			assert.NotEmpty(t, matches, "%s ships %s", c.Name, pattern)
		}
	}
}

func TestLoader_Errors(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		contains []string
	}{
		{
			name:     "empty",
			content:  "  \n",
			contains: []string{"empty"},
		},
		{
			name:     "malformed yaml",
			content:  "kind: [Console",
			contains: []string{"unmarshal"},
		},
		{
			name:     "unknown field",
			content:  "kind: Console\nmetadata: {name: x}\nspec: {sectons: []}\n",
			contains: []string{"sectons"},
		},
		{
			name: "wrong kind and missing name",
			content: `
kind: Cluster
spec:
  sections: [{name: S, steps: [{name: a, command: "true"}]}]
`,
			contains: []string{"kind must be 'Console'", "metadata.name is required"},
		},
		{
			name: "bad steps",
			content: `
kind: Console
metadata: {name: x}
spec:
  sections:
    - name: S
      steps:
        - name: a
          command: "  "
        - command: "true"
        - name: c
          command: "true"
          validation: {command: "", timeout: -1}
    - name: S
      steps: []
`,
			contains: []string{
				"step[0] 'a': command or component is required",
				"step[1]: name is required",
				"validation.command is required",
				"validation.timeout must not be negative",
				"duplicate section name 'S'",
				"has no steps",
			},
		},
		{
			name: "bad components",
			content: `
kind: Console
metadata: {name: x}
spec:
  components:
    - name: a
    - name: b
      manifests: [b.yaml]
      readiness: {command: "true", kind: Deployment, name: b}
    - name: b
      manifests: [b.yaml]
      readiness: {kind: CronJob, name: b}
    - name: d
      manifests: [d.yaml]
      readiness: {timeout: 10}
`,
			contains: []string{
				"component 'a': needs an image.ref",
				"both a command and a workload",
				"duplicate component name 'b'",
				"unsupported readiness.kind 'CronJob'",
				"readiness needs a command or a kind and name",
			},
		},
		{
			name: "bad component steps",
			content: `
kind: Console
metadata: {name: x}
spec:
  sections:
    - name: S
      steps:
        - {name: a, component: kafka}
        - {name: b, component: redis}
        - {name: c, component: kafka, action: restart}
        - {name: d, component: kafka, command: "true"}
        - {name: e, command: "true", action: cleanup}
        - {name: f, component: kafka, sudo: true}
  components:
    - name: kafka
      image: {ref: bitnami/kafka:3.6}
`,
			contains: []string{
				"unknown component 'redis'",
				"unknown action 'restart'",
				"'d': names both a command and a component",
				"'e': action applies to components only",
				"'f': sudo applies to commands only",
			},
		},
		{
			name: "nothing to do",
			content: `
kind: Console
metadata: {name: x}
spec:
  settings: {imageImportCommand: "k0s ctr images import"}
`,
			contains: []string{"at least one section or component", "must contain %s"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewLoader(writeConfig(t, tt.content)).Load()
			require.Error(t, err)
			assert.True(t, errors.Is(err, common.ErrConfig), err.Error())
			for _, want := range tt.contains {
				assert.Contains(t, err.Error(), want)
			}
		})
	}
}

func TestLoader_MissingFile(t *testing.T) {
	_, err := NewLoader(filepath.Join(t.TempDir(), "nope.yaml")).Load()
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrConfig))
}

func TestSettingsInterval(t *testing.T) {
	assert.Equal(t, common.DefaultPollInterval, SettingsSpec{}.Interval())
	assert.Equal(t, 7*common.DefaultPollInterval/2, SettingsSpec{PollInterval: 7}.Interval())
}

func TestExpandEnv(t *testing.T) {
	t.Setenv("XMSTACK_TEST_A", "alpha")
	assert.Equal(t, "alpha-$XMSTACK_TEST_A-${XMSTACK_TEST_NOPE}", ExpandEnv("${XMSTACK_TEST_A}-$XMSTACK_TEST_A-${XMSTACK_TEST_NOPE}"))
}
