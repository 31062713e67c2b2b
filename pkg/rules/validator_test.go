package rules_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"warden/pkg/rules"
	"warden/pkg/sandbox"
)

func TestRuleValidator_SecurityRejectedNeverTouchesSandbox(t *testing.T) {
	exec := &sandbox.FakeExecutor{}
	v := rules.NewRuleValidator(nil, exec)

	outcome := v.Validate(context.Background(), "import os\nos.system('ls')\n")

	assert.Equal(t, rules.OutcomeSecurityRejected, outcome.Kind)
	assert.Equal(t, 0, exec.Created)
}

func TestRuleValidator_SyntaxErrorFromSandbox(t *testing.T) {
	exec := &sandbox.FakeExecutor{
		Responses: []sandbox.RunResult{
			{ExitCode: 1, Stderr: "SYNTAX_ERROR: invalid syntax"},
		},
	}
	v := rules.NewRuleValidator(nil, exec)

	outcome := v.Validate(context.Background(), "def rule(:\n")

	assert.Equal(t, rules.OutcomeSyntaxError, outcome.Kind)
	assert.Contains(t, outcome.Detail, "invalid syntax")
	assert.Equal(t, 1, exec.Destroyed)
}

func TestRuleValidator_ContractViolationMissingSentinels(t *testing.T) {
	exec := &sandbox.FakeExecutor{
		Responses: []sandbox.RunResult{
			{ExitCode: 0, Stdout: "__SYNTAX_OK__"},
			{ExitCode: 0, Stdout: "no sentinel here"},
		},
	}
	v := rules.NewRuleValidator(nil, exec)

	outcome := v.Validate(context.Background(), "def rule(employee, security, trade_date):\n    return {'allowed': True}\n")

	assert.Equal(t, rules.OutcomeContractViolation, outcome.Kind)
}

func TestRuleValidator_ContractViolationMissingAllowedField(t *testing.T) {
	exec := &sandbox.FakeExecutor{
		Responses: []sandbox.RunResult{
			{ExitCode: 0, Stdout: "__SYNTAX_OK__"},
			{ExitCode: 0, Stdout: "__RULE_OUTPUT__\n{\"reason\": \"no allowed key\"}\n__RULE_OUTPUT_END__"},
		},
	}
	v := rules.NewRuleValidator(nil, exec)

	outcome := v.Validate(context.Background(), "def rule(employee, security, trade_date):\n    return {'reason': 'x'}\n")

	assert.Equal(t, rules.OutcomeContractViolation, outcome.Kind)
}

func TestRuleValidator_Passes(t *testing.T) {
	exec := &sandbox.FakeExecutor{
		Responses: []sandbox.RunResult{
			{ExitCode: 0, Stdout: "__SYNTAX_OK__"},
			{ExitCode: 0, Stdout: "__RULE_OUTPUT__\n{\"allowed\": true}\n__RULE_OUTPUT_END__"},
		},
	}
	v := rules.NewRuleValidator(nil, exec)

	outcome := v.Validate(context.Background(), "def rule(employee, security, trade_date):\n    return {'allowed': True}\n")

	assert.True(t, outcome.Passed())
	assert.Contains(t, outcome.TestOutput, "\"allowed\": true")
}

func TestRuleValidator_InfrastructureErrorOnCreateFailure(t *testing.T) {
	exec := &sandbox.FakeExecutor{CreateErr: &sandbox.Error{Code: sandbox.ErrCreateFailed, Message: "quota exceeded"}}
	v := rules.NewRuleValidator(nil, exec)

	outcome := v.Validate(context.Background(), "def rule(employee, security, trade_date):\n    return {'allowed': True}\n")

	assert.Equal(t, rules.OutcomeInfrastructureError, outcome.Kind)
	assert.Contains(t, outcome.Detail, "quota exceeded")
}
