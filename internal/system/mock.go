package system

import (
	"context"
	"os/exec"
	"sync"
)

// MockExecutor implements CommandExecutor for testing.
type MockExecutor struct {
	mu sync.Mutex

	// Commands records all executed commands for verification.
	Commands []MockCommand

	// Responses maps shell-quoted command lines to responses.
	// Key format: "command arg1 arg2..." as produced by CommandLine.
	Responses map[string]MockResponse

	// DefaultResponse is used when no matching response is found.
	DefaultResponse MockResponse

	// Paths maps executable names to LookPath results. Missing names are not found.
	Paths map[string]string
}

// MockCommand records an executed command.
type MockCommand struct {
	Name string
	Args []string
}

// Line returns the command as CommandLine renders it.
func (c MockCommand) Line() string {
	return CommandLine(c.Name, c.Args...)
}

// MockResponse defines the response for a command.
type MockResponse struct {
	Output []byte
	Err    error
}

// NewMockExecutor creates a new MockExecutor.
func NewMockExecutor() *MockExecutor {
	return &MockExecutor{
		Commands:  make([]MockCommand, 0),
		Responses: make(map[string]MockResponse),
		Paths:     make(map[string]string),
	}
}

// AddResponse adds a response for an exact command line.
// A non-nil err is wrapped into *CommandError like a real failed process.
func (m *MockExecutor) AddResponse(commandLine string, output []byte, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err != nil {
		err = &CommandError{Command: commandLine, Output: string(output), Err: err}
	}

	m.Responses[commandLine] = MockResponse{Output: output, Err: err}
}

// AddPath makes LookPath resolve name to path.
func (m *MockExecutor) AddPath(name, path string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Paths[name] = path
}

func (m *MockExecutor) Execute(_ context.Context, name string, args ...string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Commands = append(m.Commands, MockCommand{Name: name, Args: append([]string(nil), args...)})

	if resp, ok := m.Responses[CommandLine(name, args...)]; ok {
		return resp.Output, resp.Err
	}

	return m.DefaultResponse.Output, m.DefaultResponse.Err
}

func (m *MockExecutor) LookPath(name string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if path, ok := m.Paths[name]; ok {
		return path, nil
	}

	return "", &exec.Error{Name: name, Err: exec.ErrNotFound}
}

// Lines returns every executed command line in order.
func (m *MockExecutor) Lines() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	lines := make([]string, 0, len(m.Commands))
	for _, c := range m.Commands {
		lines = append(lines, c.Line())
	}

	return lines
}
