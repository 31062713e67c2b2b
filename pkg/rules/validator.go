package rules

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"warden/pkg/domain"
	"warden/pkg/sandbox"
)

// Validation timeouts from spec.md §5.
const (
	SyntaxPhaseTimeout     = 60 * time.Second
	FunctionalPhaseTimeout = 120 * time.Second
)

const (
	outputStartSentinel = "__RULE_OUTPUT__"
	outputEndSentinel   = "__RULE_OUTPUT_END__"
	syntaxOKSentinel    = "__SYNTAX_OK__"
)

// RuleValidator drives a two-phase validation — parse-check, then a
// functional run against the canonical fixture — through a
// sandbox.Executor, returning a typed ValidationOutcome.
type RuleValidator struct {
	screener *StaticScreener
	executor sandbox.Executor
}

// NewRuleValidator builds a validator. A nil screener falls back to the
// default denylist.
func NewRuleValidator(screener *StaticScreener, executor sandbox.Executor) *RuleValidator {
	if screener == nil {
		screener = NewStaticScreener(nil)
	}
	return &RuleValidator{screener: screener, executor: executor}
}

// Validate runs the full screen → syntax → functional pipeline for one
// candidate rule's code.
func (v *RuleValidator) Validate(ctx context.Context, code string) ValidationOutcome {
	// 1. Static screen. On reject, never touch the sandbox.
	if res := v.screener.Screen(code); !res.OK {
		return ValidationOutcome{Kind: OutcomeSecurityRejected, Pattern: res.Pattern}
	}

	// 2. Provision an ephemeral sandbox handle for the remaining phases.
	handle, err := v.executor.CreateEphemeral(ctx)
	if err != nil {
		return infraOutcome(err)
	}
	defer func() { _ = v.executor.Destroy(ctx, handle) }()

	// 3. Syntax phase.
	syntaxProgram := buildSyntaxCheckProgram(code)
	syntaxResult, err := v.executor.Run(ctx, handle, syntaxProgram, "", SyntaxPhaseTimeout)
	if err != nil {
		return infraOutcome(err)
	}
	if syntaxResult.ExitCode != 0 || !strings.Contains(syntaxResult.Stdout, syntaxOKSentinel) {
		detail := strings.TrimSpace(syntaxResult.Stderr)
		if detail == "" {
			detail = strings.TrimSpace(syntaxResult.Stdout)
		}
		if detail == "" {
			detail = "rule code failed to parse"
		}
		return ValidationOutcome{Kind: OutcomeSyntaxError, Detail: detail}
	}

	// 4. Functional phase against the canonical fixture.
	tradeDate := time.Now().UTC().Format("2006-01-02")
	employee, security := CanonicalFixture(tradeDate)
	functionalProgram, err := buildFunctionalCheckProgram(code, employee, security, tradeDate)
	if err != nil {
		return ValidationOutcome{Kind: OutcomeInfrastructureError, Detail: "failed to build functional test program: " + err.Error()}
	}

	functionalResult, err := v.executor.Run(ctx, handle, functionalProgram, "", FunctionalPhaseTimeout)
	if err != nil {
		return infraOutcome(err)
	}

	// 5. Inspect exit code and sentinel output.
	if functionalResult.ExitCode != 0 {
		detail := strings.TrimSpace(functionalResult.Stderr)
		if detail == "" {
			detail = strings.TrimSpace(functionalResult.Stdout)
		}
		return ValidationOutcome{Kind: OutcomeRuntimeError, Detail: detail}
	}

	payload, ok := extractSentinelPayload(functionalResult.Stdout)
	if !ok {
		return ValidationOutcome{Kind: OutcomeContractViolation, Detail: "rule output missing __RULE_OUTPUT__ sentinel markers"}
	}

	var result domain.RuleExecutionResult
	var raw map[string]any
	if err := json.Unmarshal([]byte(payload), &raw); err != nil {
		return ValidationOutcome{Kind: OutcomeContractViolation, Detail: "rule output is not valid JSON: " + err.Error()}
	}
	if _, hasAllowed := raw["allowed"].(bool); !hasAllowed {
		return ValidationOutcome{Kind: OutcomeContractViolation, Detail: "rule output missing boolean \"allowed\" field"}
	}
	if err := json.Unmarshal([]byte(payload), &result); err != nil {
		return ValidationOutcome{Kind: OutcomeContractViolation, Detail: "rule output does not match the result contract: " + err.Error()}
	}

	return ValidationOutcome{Kind: OutcomePassed, TestOutput: payload}
}

func infraOutcome(err error) ValidationOutcome {
	if sbErr, ok := err.(*sandbox.Error); ok {
		return ValidationOutcome{Kind: OutcomeInfrastructureError, Detail: sbErr.Error()}
	}
	return ValidationOutcome{Kind: OutcomeInfrastructureError, Detail: err.Error()}
}

func extractSentinelPayload(stdout string) (string, bool) {
	start := strings.Index(stdout, outputStartSentinel)
	if start == -1 {
		return "", false
	}
	start += len(outputStartSentinel)
	end := strings.Index(stdout[start:], outputEndSentinel)
	if end == -1 {
		return "", false
	}
	return strings.TrimSpace(stdout[start : start+end]), true
}

// buildSyntaxCheckProgram embeds code (base64, to sidestep any
// shell/quoting pitfalls per spec.md §4.3) into a small Python program
// that parses it as source and emits a sentinel on success.
func buildSyntaxCheckProgram(code string) string {
	encoded := base64.StdEncoding.EncodeToString([]byte(code))
	return fmt.Sprintf(`import ast, base64, sys
src = base64.b64decode(%q).decode("utf-8")
try:
    ast.parse(src)
except SyntaxError as e:
    print("SYNTAX_ERROR: " + str(e), file=sys.stderr)
    sys.exit(1)
print(%q)
`, encoded, syntaxOKSentinel)
}

// buildFunctionalCheckProgram embeds code plus the canonical fixture
// (also base64) into a program that dedents the rule body, executes it
// in a fresh namespace, locates the first callable defined (spec.md §9:
// this is an inherited, possibly-surprising behavior, not "fixed" here),
// and invokes it with (employee, security, trade_date).
func buildFunctionalCheckProgram(code string, employee domain.Employee, security domain.Security, tradeDate string) (string, error) {
	employeeJSON, err := json.Marshal(employee)
	if err != nil {
		return "", err
	}
	securityJSON, err := json.Marshal(security)
	if err != nil {
		return "", err
	}

	codeB64 := base64.StdEncoding.EncodeToString([]byte(code))
	employeeB64 := base64.StdEncoding.EncodeToString(employeeJSON)
	securityB64 := base64.StdEncoding.EncodeToString(securityJSON)

	return fmt.Sprintf(`import base64, json, sys, textwrap

src = base64.b64decode(%q).decode("utf-8")
src = textwrap.dedent(src)

namespace = {}
try:
    exec(compile(src, "<rule>", "exec"), namespace)
except Exception as e:
    print("RUNTIME_ERROR: " + str(e), file=sys.stderr)
    sys.exit(1)

rule_fn = None
for name, value in namespace.items():
    if name.startswith("__"):
        continue
    if callable(value):
        rule_fn = value
        break

if rule_fn is None:
    print("RUNTIME_ERROR: no callable defined in rule code", file=sys.stderr)
    sys.exit(1)

employee = json.loads(base64.b64decode(%q).decode("utf-8"))
security = json.loads(base64.b64decode(%q).decode("utf-8"))
trade_date = %q

try:
    result = rule_fn(employee, security, trade_date)
except Exception as e:
    print("RUNTIME_ERROR: " + str(e), file=sys.stderr)
    sys.exit(1)

print(%q)
print(json.dumps(result))
print(%q)
`, codeB64, employeeB64, securityB64, tradeDate, outputStartSentinel, outputEndSentinel), nil
}
