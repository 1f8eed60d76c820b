package runtime

// CliArgs holds the global command-line flags. The cobra commands bind
// their persistent flags to one instance and read it when they run.
type CliArgs struct {
	ConfigPath      string // empty selects the embedded console configuration
	EnvFile         string
	LogLevel        string
	LogDir          string // file logging is enabled when set
	Verbose         bool
	Kubeconfig      string // overrides spec.settings.kubeconfig
	WorkDir         string
	MetricsTextfile string // written when the command finishes
	NoColor         bool
}

// NewCliArgs creates a new instance of CliArgs with default values.
func NewCliArgs() *CliArgs {
	return &CliArgs{
		LogLevel: "info",
	}
}
