package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"time"

	rotatelogs "github.com/lestrrat-go/file-rotatelogs"
	"github.com/rifflock/lfshook"
	"github.com/sirupsen/logrus"

	"github.com/mensylisir/xmstack/common"
)

// Log is the global logger instance of XMLog.
var Log *XMLog

func init() {
	Log = &XMLog{Logger: newConsoleLogger(os.Stderr, false, logrus.InfoLevel)}
}

// XMLog wraps logrus.Logger with helpers that scope entries to the
// sequence context (section, step, component).
type XMLog struct {
	*logrus.Logger
}

var defaultFieldsOrder = []string{
	common.SequenceName, common.SectionName, common.StepName, common.ComponentName, common.RunID,
}

// InitGlobalLogger replaces the global Log. With an empty outputPath logs go
// to stderr; otherwise they go to a daily-rotated file under outputPath.
func InitGlobalLogger(outputPath string, verbose bool, defaultLevel logrus.Level) error {
	l, err := newXMLog(outputPath, verbose, defaultLevel)
	if err != nil {
		return err
	}
	Log = l
	return nil
}

func newXMLog(outputPath string, verbose bool, defaultLevel logrus.Level) (*XMLog, error) {
	level := defaultLevel
	if verbose {
		level = logrus.DebugLevel
	}
	if outputPath == "" {
		return &XMLog{Logger: newConsoleLogger(os.Stderr, verbose, level)}, nil
	}

	if err := os.MkdirAll(outputPath, common.FileMode0755); err != nil {
		return nil, fmt.Errorf("failed to create log output directory %s: %w", outputPath, err)
	}
	logFilePath := filepath.Join(outputPath, common.AppName+".log")
	writer, err := rotatelogs.New(
		logFilePath+".%Y%m%d",
		rotatelogs.WithLinkName(logFilePath),
		rotatelogs.WithMaxAge(7*24*time.Hour),
		rotatelogs.WithRotationTime(24*time.Hour),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize rotatelogs for %s: %w", logFilePath, err)
	}

	logger := logrus.New()
	logger.SetLevel(level)
	logger.SetReportCaller(true)
	fileFormatter := &Formatter{
		TimestampFormat:        "2006-01-02 15:04:05.000 MST",
		NoColors:               true,
		DisplayLevelName:       ShowAll,
		FieldsDisplayWithOrder: defaultFieldsOrder,
		CustomCallerFormatter: func(frame *runtime.Frame) string {
			return fmt.Sprintf("[%s:%d]", filepath.Base(frame.File), frame.Line)
		},
	}
	logger.SetFormatter(fileFormatter)

	logWriters := lfshook.WriterMap{}
	for _, l := range logrus.AllLevels {
		if logger.IsLevelEnabled(l) {
			logWriters[l] = writer
		}
	}
	logger.Hooks.Add(lfshook.NewHook(logWriters, fileFormatter))
	// The hook owns the file; the operator's terminal is left to step output.
	logger.SetOutput(io.Discard)

	return &XMLog{Logger: logger}, nil
}

func newConsoleLogger(out io.Writer, verbose bool, level logrus.Level) *logrus.Logger {
	display := ShowAboveWarn
	if verbose {
		display = ShowAll
	}
	logger := logrus.New()
	logger.SetLevel(level)
	logger.SetOutput(out)
	logger.SetFormatter(&Formatter{
		TimestampFormat:        "15:04:05",
		DisplayLevelName:       display,
		DisableCaller:          true,
		FieldsDisplayWithOrder: defaultFieldsOrder,
	})
	return logger
}

// ForRun returns the root entry of one console session.
func (xl *XMLog) ForRun(runID string) *logrus.Entry {
	return xl.WithField(common.RunID, runID)
}

// ForSection scopes entry to a section.
func ForSection(entry *logrus.Entry, section string) *logrus.Entry {
	return entry.WithField(common.SectionName, section)
}

// ForStep scopes entry to a step, recording its position in the sequence.
func ForStep(entry *logrus.Entry, step string, index, total int) *logrus.Entry {
	return entry.WithFields(logrus.Fields{
		common.StepName: step,
		"step_index":    fmt.Sprintf("%d/%d", index+1, total),
	})
}

// ForComponent scopes entry to a catalog component.
func ForComponent(entry *logrus.Entry, component string) *logrus.Entry {
	return entry.WithField(common.ComponentName, component)
}

// Discard returns an entry that drops everything. Handy for tests and for
// callers that have no logger of their own.
func Discard() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}
