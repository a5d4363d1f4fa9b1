package toolchain

import "context"

// Runner executes external toolchain commands (real or mocked).
type Runner interface {
	Run(ctx context.Context, cmd Command) error
}

// Ensure Exec implements Runner.
var _ Runner = (*Exec)(nil)

// Ensure Mock implements Runner.
var _ Runner = (*Mock)(nil)
