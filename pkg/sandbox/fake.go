package sandbox

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// FakeExecutor is a canned-response test double for Executor. spec.md §9
// calls for exactly this: tests substitute in-memory fakes rather than
// hitting a real Daytona account.
type FakeExecutor struct {
	mu sync.Mutex

	// Responses is consumed in order by successive Run calls. If
	// exhausted, the last entry repeats.
	Responses []RunResult
	// Errors: if Errors[i] is non-nil, Run returns that error instead
	// of a Responses entry for call i.
	Errors []error

	CreateErr  error
	DestroyErr error

	calls      int
	Created    int
	Destroyed  int
	LastProgram string
	LastStdin   string
}

func (f *FakeExecutor) CreateEphemeral(ctx context.Context) (Handle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.CreateErr != nil {
		return Handle{}, f.CreateErr
	}
	f.Created++
	return Handle{ID: fmt.Sprintf("fake-%d", f.Created)}, nil
}

func (f *FakeExecutor) Run(ctx context.Context, h Handle, program string, stdin string, timeout time.Duration) (RunResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	idx := f.calls
	f.calls++
	f.LastProgram = program
	f.LastStdin = stdin

	if idx < len(f.Errors) && f.Errors[idx] != nil {
		return RunResult{}, f.Errors[idx]
	}

	if len(f.Responses) == 0 {
		return RunResult{ExitCode: 0}, nil
	}
	if idx >= len(f.Responses) {
		idx = len(f.Responses) - 1
	}
	return f.Responses[idx], nil
}

func (f *FakeExecutor) Destroy(ctx context.Context, h Handle) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Destroyed++
	return f.DestroyErr
}
