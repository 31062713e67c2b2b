package rules

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/width"
)

var foldCase = cases.Fold()

// NormalizeFirmKey collapses a firm name into the stable, storage-safe
// key spec.md §4.8/§8 requires: fold to lowercase (Unicode-aware case
// folding, with full-width forms folded to their ASCII equivalents),
// trim, and collapse internal whitespace runs to a single underscore.
//
// normalize("ACME Corp") == normalize("acme   corp") == "acme_corp".
func NormalizeFirmKey(firmName string) string {
	folded := foldCase.String(width.Fold.String(firmName))
	folded = strings.TrimSpace(folded)
	if folded == "" {
		return ""
	}

	var b strings.Builder
	inSpace := false
	for _, r := range folded {
		if isSpace(r) {
			inSpace = true
			continue
		}
		if inSpace {
			b.WriteByte('_')
			inSpace = false
		}
		b.WriteRune(r)
	}
	return b.String()
}

func isSpace(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\r', '\v', '\f':
		return true
	default:
		return false
	}
}
