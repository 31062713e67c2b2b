// Package runner implements the LocalRunner capability: fast,
// non-isolated execution of already-validated rule code against a live
// evaluation payload (spec.md §4.10).
package runner

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"time"

	"warden/pkg/domain"
)

// DefaultTimeout is LocalRunner's per-call timeout (spec.md §5).
const DefaultTimeout = 10 * time.Second

// Payload is what LocalRunner marshals to JSON on the rule process's
// stdin.
type Payload struct {
	Employee  domain.Employee `json:"employee"`
	Security  domain.Security `json:"security"`
	TradeDate string          `json:"trade_date"`
}

// Result is the single JSON line LocalRunner expects back on stdout.
type Result struct {
	Allowed         bool   `json:"allowed"`
	Reason          string `json:"reason,omitempty"`
	PolicyReference string `json:"policy_ref,omitempty"`
}

// LocalRunner shells out to a configured Python interpreter to execute
// validated rule code (teacher idiom: capabilities.StdioMCPClient's
// exec.CommandContext + stdin pipe, generalized to a request/response
// round trip instead of fire-and-forget).
//
// Rules have already passed sandbox validation; LocalRunner trades the
// sandbox's isolation for throughput at steady-state evaluation time.
type LocalRunner struct {
	// Bin is the primary interpreter binary (PYTHON_BIN). Fallbacks is
	// tried in order if Bin is empty or not found on PATH.
	Bin       string
	Fallbacks []string
	Timeout   time.Duration
}

// NewLocalRunner builds a runner. An empty bin falls back to the
// python3/python chain.
func NewLocalRunner(bin string, timeout time.Duration) *LocalRunner {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &LocalRunner{Bin: bin, Fallbacks: []string{"python3", "python"}, Timeout: timeout}
}

func (r *LocalRunner) resolveBinary() (string, error) {
	candidates := make([]string, 0, len(r.Fallbacks)+1)
	if r.Bin != "" {
		candidates = append(candidates, r.Bin)
	}
	candidates = append(candidates, r.Fallbacks...)

	var lastErr error
	for _, candidate := range candidates {
		path, err := exec.LookPath(candidate)
		if err == nil {
			return path, nil
		}
		lastErr = err
	}
	return "", fmt.Errorf("no python interpreter found (tried %v): %w", candidates, lastErr)
}

// Run executes code against payload and returns the parsed Result. The
// rule's single callable is located by name first ("rule"), falling
// back to the first callable defined in the module — same documented
// ambiguity as the sandbox validator (spec.md §9).
func (r *LocalRunner) Run(ctx context.Context, code string, payload Payload) (Result, error) {
	bin, err := r.resolveBinary()
	if err != nil {
		return Result{}, fmt.Errorf("local runner: %w", err)
	}

	runCtx, cancel := context.WithTimeout(ctx, r.Timeout)
	defer cancel()

	script := buildRunnerScript(code)

	stdinJSON, err := json.Marshal(payload)
	if err != nil {
		return Result{}, fmt.Errorf("local runner: encode payload: %w", err)
	}

	cmd := exec.CommandContext(runCtx, bin, "-c", script)
	cmd.Stdin = bytes.NewReader(stdinJSON)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err = cmd.Run()
	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		return Result{}, fmt.Errorf("local runner: timed out after %s", r.Timeout)
	}
	if err != nil {
		return Result{}, fmt.Errorf("local runner: exit error: %w, output: %s", err, combinedOutput(stdout, stderr))
	}

	var result Result
	if err := json.Unmarshal(bytes.TrimSpace(stdout.Bytes()), &result); err != nil {
		return Result{}, fmt.Errorf("local runner: non-JSON output: %w, output: %s", err, stdout.String())
	}
	return result, nil
}

func combinedOutput(stdout, stderr bytes.Buffer) string {
	return stdout.String() + stderr.String()
}

const runnerScriptTemplate = `
import sys, json, base64, inspect

code = base64.b64decode("%s").decode("utf-8")
ns = {}
exec(code, ns)

fn = ns.get("rule")
if fn is None or not callable(fn):
    for v in ns.values():
        if callable(v) and getattr(v, "__module__", None) != "builtins":
            fn = v
            break

payload = json.loads(sys.stdin.read())
result = fn(payload["employee"], payload["security"], payload["trade_date"])
print(json.dumps(result))
`

func buildRunnerScript(code string) string {
	encoded := base64.StdEncoding.EncodeToString([]byte(code))
	return fmt.Sprintf(runnerScriptTemplate, encoded)
}
