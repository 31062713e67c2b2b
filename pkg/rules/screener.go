package rules

import "strings"

// DefaultDenylist is the canonical set of substrings that mark a
// generated rule body as an obvious attempt to escape the sandbox:
// process/OS access, dynamic imports, or stdio mutation. Matching is
// case-insensitive. This is deliberately a coarse pre-filter, not a
// security boundary — the sandbox is the real one (spec.md §4.1).
var DefaultDenylist = []string{
	"import os",
	"import subprocess",
	"from subprocess",
	"open(",
	"exec(",
	"eval(",
	"__import__",
	"os.system",
	"sys.stdout",
	"sys.stderr",
}

// StaticScreener rejects generated code containing forbidden syntactic
// patterns before it ever reaches the sandbox, so obviously unsafe
// drafts fail cheaply without paying for sandbox provisioning.
type StaticScreener struct {
	denylist []string
}

// NewStaticScreener builds a screener over the given denylist. A nil or
// empty list falls back to DefaultDenylist.
func NewStaticScreener(denylist []string) *StaticScreener {
	if len(denylist) == 0 {
		denylist = DefaultDenylist
	}
	return &StaticScreener{denylist: denylist}
}

// ScreenResult is the outcome of a single Screen call.
type ScreenResult struct {
	OK      bool
	Pattern string
}

// Screen scans code case-insensitively for any denylisted substring.
// The first match wins; the caller does not need every match, only
// enough to compose feedback and reject.
func (s *StaticScreener) Screen(code string) ScreenResult {
	lower := strings.ToLower(code)
	for _, pattern := range s.denylist {
		if strings.Contains(lower, strings.ToLower(pattern)) {
			return ScreenResult{OK: false, Pattern: pattern}
		}
	}
	return ScreenResult{OK: true}
}
