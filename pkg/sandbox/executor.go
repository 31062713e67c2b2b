// Package sandbox implements the SandboxedExecutor capability: an
// ephemeral, network-denied environment used to validate untrusted
// generated rule code. The interface shape and its deterministic error
// codes are grounded on core/pkg/runtime/sandbox/sandbox.go's Sandbox
// interface and SandboxError type from the teacher repo, generalized
// from "run a compiled pack" to "run a short program with stdin/stdout".
package sandbox

import (
	"context"
	"fmt"
	"time"
)

// Handle identifies one ephemeral sandbox instance across its
// create/run/destroy lifecycle.
type Handle struct {
	ID string
}

// RunResult carries the outcome of one program execution inside a
// sandbox handle.
type RunResult struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// Executor is the SandboxedExecutor capability contract (spec.md §4.2).
// Implementations must guarantee destruction of every handle on all
// exit paths, including cancellation, and must never leak handles on
// infrastructure failure.
type Executor interface {
	// CreateEphemeral provisions a fresh, network-denied sandbox.
	CreateEphemeral(ctx context.Context) (Handle, error)

	// Run executes program in handle's sandbox with optional stdin,
	// enforcing timeout. It does not destroy the handle.
	Run(ctx context.Context, h Handle, program string, stdin string, timeout time.Duration) (RunResult, error)

	// Destroy tears down a sandbox handle. Safe to call more than once.
	Destroy(ctx context.Context, h Handle) error
}

// Deterministic error codes for sandbox-level (infrastructure) failures,
// mirroring the teacher's ErrCompute* convention.
const (
	ErrCreateFailed  = "ERR_SANDBOX_CREATE_FAILED"
	ErrRunTransport  = "ERR_SANDBOX_RUN_TRANSPORT"
	ErrDestroyFailed = "ERR_SANDBOX_DESTROY_FAILED"
	ErrTimeout       = "ERR_SANDBOX_TIMEOUT"
)

// Error is a deterministic, typed infrastructure error. RuleValidator
// maps any Error into ValidationOutcome{Kind: InfrastructureError}.
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}
