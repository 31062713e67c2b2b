package rules

import "strings"

// ComposeFeedback translates a failed ValidationOutcome into
// natural-language guidance for the next generation attempt. It is a
// pure function: no state, no classifier, just a mapping from outcome
// kind to a guided hint. Multiple hints (there is at most one per
// outcome, but future outcome kinds may carry more than one signal)
// concatenate with a single space.
func ComposeFeedback(outcome ValidationOutcome) string {
	var hints []string

	switch outcome.Kind {
	case OutcomeSyntaxError:
		hints = append(hints, "Fix syntax issues: "+outcome.Detail)
	case OutcomeRuntimeError:
		hints = append(hints, "Runtime failure: "+outcome.Detail)
	case OutcomeContractViolation:
		hints = append(hints, "Logical/test failure: "+outcome.Detail)
	case OutcomeSecurityRejected:
		hints = append(hints, "Security violation: forbidden pattern \""+outcome.Pattern+"\" found in generated code")
	default:
		if detail := outcome.ConsolidatedError(); detail != "" {
			hints = append(hints, "General validation error: "+detail)
		}
	}

	if len(hints) == 0 {
		hints = append(hints, "Validation failed for an unspecified reason; please regenerate the rule carefully.")
	}

	return strings.Join(hints, " ")
}
