package rules

import (
	"context"
	"time"

	"warden/pkg/generator"
)

// DefaultMaxAttempts is the default RefinementLoop attempt budget
// (spec.md §4.6).
const DefaultMaxAttempts = 5

// RefinementResult is the outcome of one RefinementLoop.Refine call.
type RefinementResult struct {
	Validated  bool
	Rule       Rule
	Iterations int
}

// RefinementLoop drives the bounded generate → validate → feedback →
// regenerate iteration for a single draft rule (spec.md §4.6).
type RefinementLoop struct {
	validator    *RuleValidator
	gen          generator.Generator
	maxAttempts  int
}

// NewRefinementLoop builds a loop. maxAttempts <= 0 uses DefaultMaxAttempts.
func NewRefinementLoop(validator *RuleValidator, gen generator.Generator, maxAttempts int) *RefinementLoop {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	return &RefinementLoop{validator: validator, gen: gen, maxAttempts: maxAttempts}
}

// Refine runs the bounded iteration described in spec.md §4.6. It
// terminates in at most maxAttempts validator calls.
func (l *RefinementLoop) Refine(ctx context.Context, draft DraftRule, policyText, firmName string) RefinementResult {
	current := draft
	history := make([]ValidationAttempt, 0, l.maxAttempts)

	for attempt := 1; attempt <= l.maxAttempts; attempt++ {
		current.GenerationAttempt = attempt

		outcome := l.validator.Validate(ctx, current.Code)

		va := ValidationAttempt{
			AttemptNumber: attempt,
			Passed:        outcome.Passed(),
			Timestamp:     time.Now().UTC(),
		}
		if !outcome.Passed() {
			va.Error = outcome.ConsolidatedError()
			va.FeedbackToGenerator = ComposeFeedback(outcome)
		} else {
			va.TestOutput = outcome.TestOutput
		}
		history = append(history, va)

		if outcome.Passed() {
			return RefinementResult{
				Validated: true,
				Rule:      toRule(current, history, true),
				Iterations: attempt,
			}
		}

		if attempt == l.maxAttempts {
			break
		}

		req := generator.GenerationRequest{
			PolicyText: policyText,
			FirmName:   firmName,
			PriorFailure: &generator.PriorFailure{
				Code:       current.Code,
				Error:      va.Error,
				TestOutput: outcome.TestOutput,
			},
		}

		drafts, err := l.gen.Generate(ctx, req)
		if err != nil || len(drafts) == 0 {
			// Unrecoverable: the generator gave us nothing to retry with.
			break
		}

		revised := drafts[0]
		// Preserve identity and accumulated history across iterations
		// (spec.md §4.6's rationale: stable rule_id, 1:1 regeneration).
		current = DraftRule{
			RuleID:          current.RuleID,
			RuleName:        revised.RuleName,
			Description:     revised.Description,
			PolicyReference: revised.PolicyReference,
			AppliesToRoles:  revised.AppliesToRoles,
			Code:            revised.Code,
		}
	}

	return RefinementResult{
		Validated:  false,
		Rule:       toRule(current, history, false),
		Iterations: len(history),
	}
}

func toRule(d DraftRule, history []ValidationAttempt, active bool) Rule {
	return Rule{
		RuleID:            d.RuleID,
		RuleName:          d.RuleName,
		Description:       d.Description,
		PolicyReference:   d.PolicyReference,
		AppliesToRoles:    d.AppliesToRoles,
		Code:              d.Code,
		Active:            active,
		GenerationAttempt: d.GenerationAttempt,
		ValidationHistory: history,
	}
}
