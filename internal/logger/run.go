package logger

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	// DefaultFilePrefix is the file name prefix of run logs.
	DefaultFilePrefix = "workstation_setup"

	// FileTimestampLayout is the timestamp layout embedded into run log file names.
	FileTimestampLayout = "20060102_150405"

	// LineTimestampLayout is the timestamp layout of every log line.
	LineTimestampLayout = "2006-01-02 15:04:05"

	// logFileMode is the permission of newly created run logs.
	logFileMode os.FileMode = 0o644
)

// errDirectoryRequired is returned when the log directory is not set.
var errDirectoryRequired = errors.New("log directory must be provided")

// RunLogOptions controls where and how a run log is created.
type RunLogOptions struct {
	// Directory is the folder that receives the log file, usually the user's home.
	Directory string
	// Prefix is prepended to the file name, DefaultFilePrefix when empty.
	Prefix string
	// Started is the run start time used in the file name.
	Started time.Time
	// Level is the minimum level written to both destinations.
	Level zapcore.Level
	// Console receives a copy of every line, os.Stdout when nil.
	Console io.Writer
}

// RunLog is a logger bound to one provisioning run.
// Every entry is written both to the console and to the run log file.
type RunLog struct {
	// Logger writes to the console and to the file.
	Logger *zap.SugaredLogger
	// Path is the absolute location of the log file.
	Path string

	file *os.File
}

// RunLogPath returns the log file path for a run started at the provided time.
func RunLogPath(directory, prefix string, started time.Time) string {
	if prefix == "" {
		prefix = DefaultFilePrefix
	}

	name := fmt.Sprintf("%s_%s.log", prefix, started.Format(FileTimestampLayout))

	return filepath.Join(directory, name)
}

// NewRunLog opens the run log file in append mode and builds a logger writing to it.
func NewRunLog(opts RunLogOptions) (*RunLog, error) {
	if opts.Directory == "" {
		return nil, errDirectoryRequired
	}

	if opts.Started.IsZero() {
		opts.Started = time.Now()
	}

	console := opts.Console
	if console == nil {
		console = os.Stdout
	}

	path := RunLogPath(opts.Directory, opts.Prefix, opts.Started)

	file, err := os.OpenFile(filepath.Clean(path), os.O_CREATE|os.O_APPEND|os.O_WRONLY, logFileMode)
	if err != nil {
		return nil, fmt.Errorf("open run log: %w", err)
	}

	level := zap.NewAtomicLevelAt(opts.Level)
	encoder := newLineEncoder()

	core := zapcore.NewTee(
		zapcore.NewCore(encoder, zapcore.Lock(zapcore.AddSync(console)), level),
		zapcore.NewCore(encoder.Clone(), zapcore.AddSync(file), level),
	)

	return &RunLog{
		Logger: zap.New(core).Sugar(),
		Path:   path,
		file:   file,
	}, nil
}

// Close flushes buffered entries and releases the log file.
func (r *RunLog) Close() error {
	if r == nil || r.file == nil {
		return nil
	}

	// Sync on a console writer can fail for terminals, the file close result is what matters.
	_ = r.Logger.Sync()

	err := r.file.Close()
	r.file = nil

	return err
}
