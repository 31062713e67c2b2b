// Package rules holds the compliance rule data model and the
// generate-validate-refine machinery that turns a DraftRule into a
// validated Rule: the static screener, the feedback composer, and the
// bounded refinement loop and ingestion pipeline that drive them.
package rules

import "time"

// DraftRule is a candidate rule as emitted by a RuleGenerator, before it
// has been through the RefinementLoop.
type DraftRule struct {
	RuleID          string   `json:"rule_id"`
	RuleName        string   `json:"rule_name"`
	Description     string   `json:"description"`
	PolicyReference string   `json:"policy_reference"`
	AppliesToRoles  []string `json:"applies_to_roles"`
	Code            string   `json:"code"`

	// GenerationAttempt is stamped by the RefinementLoop; it is not part
	// of the generator's output contract.
	GenerationAttempt int `json:"generation_attempt,omitempty"`
}

// Valid reports whether the draft satisfies the minimal invariants
// spec.md §3 requires before it is worth validating at all.
func (d DraftRule) Valid() bool {
	return d.RuleID != "" && d.Code != ""
}

// OutcomeKind discriminates a ValidationOutcome. Exactly one kind
// applies to any given outcome.
type OutcomeKind string

const (
	OutcomePassed              OutcomeKind = "PASSED"
	OutcomeSecurityRejected    OutcomeKind = "SECURITY_REJECTED"
	OutcomeSyntaxError         OutcomeKind = "SYNTAX_ERROR"
	OutcomeRuntimeError        OutcomeKind = "RUNTIME_ERROR"
	OutcomeContractViolation   OutcomeKind = "CONTRACT_VIOLATION"
	OutcomeInfrastructureError OutcomeKind = "INFRASTRUCTURE_ERROR"
)

// ValidationOutcome is the result of one RuleValidator pass. Only the
// field matching Kind is meaningful; the others are zero.
type ValidationOutcome struct {
	Kind OutcomeKind

	// Passed
	TestOutput string

	// SecurityRejected
	Pattern string

	// SyntaxError, RuntimeError, ContractViolation, InfrastructureError
	Detail string
}

// Passed reports whether the outcome represents a successful validation.
func (o ValidationOutcome) Passed() bool {
	return o.Kind == OutcomePassed
}

// ConsolidatedError renders a single human-readable message for a failed
// outcome, used to build the next generation attempt's prior_failure.error.
func (o ValidationOutcome) ConsolidatedError() string {
	switch o.Kind {
	case OutcomePassed:
		return ""
	case OutcomeSecurityRejected:
		return "rejected by static screener: pattern " + o.Pattern
	case OutcomeSyntaxError, OutcomeRuntimeError, OutcomeContractViolation, OutcomeInfrastructureError:
		return o.Detail
	default:
		return "unknown validation failure"
	}
}

// ValidationAttempt is an immutable record of one RuleValidator pass
// against a candidate rule within a single RefinementLoop run.
type ValidationAttempt struct {
	AttemptNumber       int       `json:"attempt_number"`
	Passed              bool      `json:"passed"`
	Error               string    `json:"error,omitempty"`
	TestOutput          string    `json:"test_output,omitempty"`
	FeedbackToGenerator string    `json:"feedback_to_generator,omitempty"`
	Timestamp           time.Time `json:"timestamp"`
}

// Rule is a DraftRule that has completed the RefinementLoop: either it
// passed validation, or the loop exhausted its attempt budget.
type Rule struct {
	RuleID             string              `json:"rule_id"`
	RuleName           string              `json:"rule_name"`
	Description        string              `json:"description"`
	PolicyReference    string              `json:"policy_reference"`
	AppliesToRoles     []string            `json:"applies_to_roles"`
	Code               string              `json:"code"`
	Active             bool                `json:"active"`
	GenerationAttempt  int                 `json:"generation_attempt"`
	ValidationHistory  []ValidationAttempt `json:"validation_history"`
}

// Passed reports whether the rule's last validation attempt succeeded —
// the invariant required before a Rule may be persisted in a bundle.
func (r Rule) Passed() bool {
	if len(r.ValidationHistory) == 0 {
		return false
	}
	return r.ValidationHistory[len(r.ValidationHistory)-1].Passed
}

// RulesBundle is the per-firm persisted container of validated rules.
type RulesBundle struct {
	FirmName        string    `json:"firm_name"`
	PolicyVersion   string    `json:"policy_version"`
	LastUpdated     time.Time `json:"last_updated"`
	TotalIterations int       `json:"total_iterations"`
	Rules           []Rule    `json:"rules"`
}
