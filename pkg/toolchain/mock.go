package toolchain

import (
	"context"
	"fmt"
	"sync"
)

// Mock records commands instead of running them. Exit codes and start
// failures are scripted per command name.
type Mock struct {
	mu       sync.Mutex
	calls    []Command
	codes    map[string]int
	failures map[string]error
	hooks    map[string]func(Command)
}

// NewMock creates a mock runner where every command succeeds.
func NewMock() *Mock {
	return &Mock{
		codes:    make(map[string]int),
		failures: make(map[string]error),
		hooks:    make(map[string]func(Command)),
	}
}

// SetExitCode makes commands named name exit with code.
func (m *Mock) SetExitCode(name string, code int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.codes[name] = code
}

// SetError makes commands named name fail to start.
func (m *Mock) SetError(name string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[name] = err
}

// OnRun registers fn to be called when a command named name runs, before
// its exit code is returned. Useful to simulate build outputs.
func (m *Mock) OnRun(name string, fn func(Command)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hooks[name] = fn
}

// Run records cmd and returns the scripted result.
func (m *Mock) Run(ctx context.Context, cmd Command) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	m.calls = append(m.calls, cmd)
	hook := m.hooks[cmd.Name]
	code := m.codes[cmd.Name]
	failure := m.failures[cmd.Name]
	m.mu.Unlock()

	if hook != nil {
		hook(cmd)
	}
	if failure != nil {
		return fmt.Errorf("failed to run %s: %w", cmd.Name, failure)
	}
	if code != 0 {
		return &ExitError{Command: cmd.Name, Code: code}
	}
	return nil
}

// Calls returns the commands run so far.
func (m *Mock) Calls() []Command {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Command, len(m.calls))
	copy(out, m.calls)
	return out
}
