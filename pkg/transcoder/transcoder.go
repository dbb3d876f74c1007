// Package transcoder defines the contract with the engine that executes a
// compiled filter graph and produces output media bytes.
package transcoder

import "context"

// ExecSpec describes one engine run.
type ExecSpec struct {
	// Args is the argument list describing the filter graph, stream mapping
	// and codec/container parameters.
	Args []string

	// ExpectedDuration of the output in seconds; 0 means unknown, in which
	// case no progress is reported.
	ExpectedDuration float64

	// Progress receives raw completion fractions. Reports may regress or
	// exceed 1.0 near completion; presentation-level smoothing is the
	// caller's job.
	Progress func(fraction float64)

	// Log receives engine log lines as they are emitted.
	Log func(line string)
}

// Engine stages input bytes, executes processing runs and hands back output
// bytes. Implementations own a private staging area; names passed to
// WriteInput/ReadOutput/DeleteFile are relative to it.
type Engine interface {
	// Load performs the one-time initialization. Idempotent; concurrent
	// callers all observe the result of a single initialization.
	Load(ctx context.Context) error

	WriteInput(ctx context.Context, name string, data []byte) error
	Execute(ctx context.Context, spec ExecSpec) error
	ReadOutput(ctx context.Context, name string) ([]byte, error)

	// DeleteFile removes a staged file. Best-effort cleanup helper.
	DeleteFile(ctx context.Context, name string) error
}
