package system

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/kballard/go-shellquote"
	"go.uber.org/zap"
)

// CommandExecutor abstracts command execution for testability.
type CommandExecutor interface {
	// Execute runs a command to completion and returns its combined output.
	// A non-zero exit status is returned as *CommandError.
	Execute(ctx context.Context, name string, args ...string) ([]byte, error)

	// LookPath searches for an executable in PATH.
	LookPath(name string) (string, error)
}

// CommandError describes a command that ran and failed.
type CommandError struct {
	// Command is the shell-quoted command line.
	Command string
	// Output is the trimmed combined output.
	Output string
	// Err is the process error, usually *exec.ExitError.
	Err error
}

func (e *CommandError) Error() string {
	if e.Output == "" {
		return fmt.Sprintf("%s: %v", e.Command, e.Err)
	}

	return fmt.Sprintf("%s: %v: %s", e.Command, e.Err, lastLine(e.Output))
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// Option configures an OSExecutor.
type Option func(*OSExecutor)

// WithTimeout bounds each command. Zero or negative means no limit.
func WithTimeout(timeout time.Duration) Option {
	return func(e *OSExecutor) {
		e.timeout = timeout
	}
}

// WithLogger sets the logger receiving debug lines for every command.
func WithLogger(log *zap.SugaredLogger) Option {
	return func(e *OSExecutor) {
		if log != nil {
			e.log = log
		}
	}
}

// WithEnv appends KEY=VALUE pairs to the environment of every command.
func WithEnv(env ...string) Option {
	return func(e *OSExecutor) {
		e.env = append(e.env, env...)
	}
}

// OSExecutor implements CommandExecutor using real OS processes.
type OSExecutor struct {
	timeout time.Duration
	log     *zap.SugaredLogger
	env     []string
}

// NewExecutor creates an executor running real commands.
func NewExecutor(opts ...Option) *OSExecutor {
	e := &OSExecutor{
		log: zap.NewNop().Sugar(),
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Execute runs the command and waits for it. Without a timeout a hanging command blocks the caller.
func (e *OSExecutor) Execute(ctx context.Context, name string, args ...string) ([]byte, error) {
	ctx, cancel := e.commandContext(ctx)
	defer cancel()

	commandLine := CommandLine(name, args...)
	e.log.Debugf("Running %s", commandLine)

	cmd := exec.CommandContext(ctx, name, args...)
	if len(e.env) > 0 {
		cmd.Env = append(cmd.Environ(), e.env...)
	}

	output, err := cmd.CombinedOutput()
	if err != nil {
		return output, &CommandError{
			Command: commandLine,
			Output:  strings.TrimSpace(string(output)),
			Err:     err,
		}
	}

	return output, nil
}

// LookPath searches for an executable in PATH.
func (e *OSExecutor) LookPath(name string) (string, error) {
	return exec.LookPath(name)
}

// commandContext returns a context with the executor's timeout if configured,
// otherwise a cancellable child context without a deadline.
func (e *OSExecutor) commandContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if e.timeout <= 0 {
		return context.WithCancel(ctx)
	}

	return context.WithTimeout(ctx, e.timeout)
}

// CommandLine renders a command as a shell-quoted string.
func CommandLine(name string, args ...string) string {
	return shellquote.Join(append([]string{name}, args...)...)
}

func lastLine(output string) string {
	output = strings.TrimSpace(output)
	if i := strings.LastIndexByte(output, '\n'); i >= 0 {
		return output[i+1:]
	}

	return output
}
