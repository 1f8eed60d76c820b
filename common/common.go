package common

import (
	"io/fs"
	"path/filepath"
	"time"
)

const (
	AppName    = "xmstack"
	TmpDirBase = "/tmp/"
)

func GetTmpDir() string {
	return filepath.Join(TmpDirBase, AppName) + "/"
}

// Log field keys. The logger formatter prints them in this order.
const (
	SequenceName  = "Sequence"
	SectionName   = "Section"
	StepName      = "Step"
	ComponentName = "Component"
	RunID         = "run_id"
)

const (
	// FileMode0755 represents rwxr-xr-x
	FileMode0755 fs.FileMode = 0755
	// FileMode0644 represents rw-r--r--
	FileMode0644 fs.FileMode = 0644
	// FileMode0600 represents rw-------
	FileMode0600 fs.FileMode = 0600
)

const (
	// DefaultShell interprets every configured command string.
	DefaultShell = "/bin/sh"
	// SudoCmdTpl wraps a command so it runs with superuser privileges.
	// Example: fmt.Sprintf(SudoCmdTpl, escapedCommand)
	SudoCmdTpl = "sudo -E /bin/sh -c \"%s\""
	// ImageImportCmdTpl imports a saved image archive into the k0s containerd.
	// Example: fmt.Sprintf(ImageImportCmdTpl, "/var/cache/xmstack/images/kafka.tar")
	ImageImportCmdTpl = "k0s ctr images import %s"
)

const (
	// DefaultPollInterval is the fixed sleep between two readiness checks.
	DefaultPollInterval = 2 * time.Second
	// DefaultValidationTimeout applies to component readiness clauses that omit a timeout.
	DefaultValidationTimeout = 300 * time.Second
	// DefaultFieldManager owns the fields written by server-side apply.
	DefaultFieldManager = AppName
)

// OperationState is the outcome recorded for one step of a sequence.
type OperationState int

const (
	StatePending OperationState = iota // 0
	StateRunning                       // 1
	StateSuccess                       // 2
	StateFailed                        // 3
	StateSkipped                       // 4
)

func (s OperationState) String() string {
	switch s {
	case StatePending:
		return "Pending"
	case StateRunning:
		return "Running"
	case StateSuccess:
		return "Success"
	case StateFailed:
		return "Failed"
	case StateSkipped:
		return "Skipped"
	default:
		return "Unknown"
	}
}

const (
	NanosPerMicrosecond int64 = 1000
	NanosPerMillisecond int64 = 1000 * NanosPerMicrosecond
	NanosPerSecond      int64 = 1000 * NanosPerMillisecond
)
