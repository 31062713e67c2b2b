package generator

import "context"

// FakeGenerator is a canned-response test double, per spec.md §9's
// explicit call for in-memory generator fakes in tests.
type FakeGenerator struct {
	// Responses is consumed in order by successive Generate calls. If
	// exhausted, the last entry repeats.
	Responses [][]DraftRule
	Errors    []error

	calls        int
	LastRequests []GenerationRequest
}

func (f *FakeGenerator) Generate(ctx context.Context, request GenerationRequest) ([]DraftRule, error) {
	idx := f.calls
	f.calls++
	f.LastRequests = append(f.LastRequests, request)

	if idx < len(f.Errors) && f.Errors[idx] != nil {
		return nil, f.Errors[idx]
	}
	if len(f.Responses) == 0 {
		return nil, nil
	}
	if idx >= len(f.Responses) {
		idx = len(f.Responses) - 1
	}
	return f.Responses[idx], nil
}
