package config

import (
	"bytes"
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/mensylisir/xmstack/common"
)

//go:embed default.yaml
var defaultConsole []byte

// The default catalog's globs ("manifests/<component>/*.yaml") resolve here.
//
//go:embed manifests
var defaultManifests embed.FS

// DefaultConsole returns the configuration compiled into the binary.
func DefaultConsole() []byte {
	return append([]byte(nil), defaultConsole...)
}

// Loader reads, expands, defaults and validates a ConsoleConfig.
type Loader struct {
	filePath string
	envFile  string
	workDir  string
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithEnvFile loads a dotenv file into the process environment before the
// configuration is expanded. Variables already set are not overridden.
func WithEnvFile(path string) LoaderOption {
	return func(l *Loader) {
		l.envFile = path
	}
}

// WithWorkDir sets the base directory reported for the embedded
// configuration.
func WithWorkDir(dir string) LoaderOption {
	return func(l *Loader) {
		l.workDir = dir
	}
}

// NewLoader creates a loader for filePath. An empty path selects the
// embedded default configuration.
func NewLoader(filePath string, opts ...LoaderOption) *Loader {
	l := &Loader{filePath: filePath}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load returns a fully defaulted and validated configuration. Every failure
// wraps common.ErrConfig.
func (l *Loader) Load() (*ConsoleConfig, error) {
	if l.envFile != "" {
		if err := godotenv.Load(l.envFile); err != nil {
			return nil, fmt.Errorf("%w: failed to load env file '%s': %v", common.ErrConfig, l.envFile, err)
		}
	}

	var (
		content   []byte
		baseDir   string
		source    string
		manifests fs.FS
	)
	if l.filePath == "" {
		content = defaultConsole
		manifests = defaultManifests
		source = "<embedded>"
		baseDir = l.workDir
		if baseDir == "" {
			wd, err := os.Getwd()
			if err != nil {
				return nil, fmt.Errorf("%w: failed to determine working directory: %v", common.ErrConfig, err)
			}
			baseDir = wd
		}
	} else {
		data, err := os.ReadFile(l.filePath)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to read config file '%s': %v", common.ErrConfig, l.filePath, err)
		}
		content = data
		source = l.filePath
		abs, err := filepath.Abs(l.filePath)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to resolve config path '%s': %v", common.ErrConfig, l.filePath, err)
		}
		baseDir = filepath.Dir(abs)
	}

	cfg, err := Parse(content, baseDir)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", source, err)
	}
	cfg.manifests = manifests
	return cfg, nil
}

// Parse decodes, expands, defaults and validates a configuration document.
func Parse(content []byte, baseDir string) (*ConsoleConfig, error) {
	if len(bytes.TrimSpace(content)) == 0 {
		return nil, fmt.Errorf("%w: configuration is empty", common.ErrConfig)
	}

	expanded := ExpandEnv(string(content))
	dec := yaml.NewDecoder(bytes.NewReader([]byte(expanded)))
	dec.KnownFields(true)

	var cfg ConsoleConfig
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("%w: failed to unmarshal config YAML: %v", common.ErrConfig, err)
	}
	cfg.baseDir = baseDir

	SetDefaults(&cfg)
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

var envRefPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// ExpandEnv replaces ${VAR} with the value of VAR from the environment.
// References to unset variables and the bare $VAR form are left alone so
// they reach the shell untouched.
func ExpandEnv(s string) string {
	return envRefPattern.ReplaceAllStringFunc(s, func(ref string) string {
		name := envRefPattern.FindStringSubmatch(ref)[1]
		if v, ok := os.LookupEnv(name); ok {
			return v
		}
		return ref
	})
}
