// Package generator implements the RuleGenerator capability: producing
// structured draft rules from policy text, optionally revising a single
// failing rule from prior validator feedback.
package generator

import "context"

// PriorFailure carries the context of a rule that failed validation, so
// the generator can revise it instead of starting over (spec.md §4.4).
type PriorFailure struct {
	Code       string
	Error      string
	TestOutput string
}

// GenerationRequest is the input to Generator.Generate.
type GenerationRequest struct {
	PolicyText   string
	FirmName     string
	PriorFailure *PriorFailure
}

// DraftRule mirrors rules.DraftRule's shape without importing the rules
// package, so generator has no dependency on the refinement machinery
// that consumes it — only the reverse.
type DraftRule struct {
	RuleID          string   `json:"rule_id"`
	RuleName        string   `json:"rule_name"`
	Description     string   `json:"description"`
	PolicyReference string   `json:"policy_reference"`
	AppliesToRoles  []string `json:"applies_to_roles"`
	Code            string   `json:"code"`
}

// Generator is the RuleGenerator capability contract (spec.md §4.4).
// When request.PriorFailure is present, callers use only the first
// element of the returned slice (revision of the single failing rule).
type Generator interface {
	Generate(ctx context.Context, request GenerationRequest) ([]DraftRule, error)
}
