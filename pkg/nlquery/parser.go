// Package nlquery implements the natural-language query extractor
// (spec.md §1's "opaque extractor returning {ticker, action?,
// trade_date?}"): a minimal heuristic parser, not a model-backed one,
// since the spec treats this purely as an interface boundary.
package nlquery

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// ParsedQuery is the extractor's output contract.
type ParsedQuery struct {
	Ticker    string `json:"ticker"`
	Action    string `json:"action,omitempty"`
	TradeDate string `json:"trade_date,omitempty"`
}

// ErrParseFailed surfaces as the API layer's PARSE_ERROR.
var ErrParseFailed = fmt.Errorf("unable to extract a ticker from query")

var tickerPattern = regexp.MustCompile(`\b[A-Z]{1,5}\b`)

var actionWords = map[string]string{
	"buy":  "buy",
	"sell": "sell",
	"hold": "hold",
	"short": "short",
}

// knownCompanyNames maps a few common company names to tickers, since
// real queries say "Apple" more often than "AAPL".
var knownCompanyNames = map[string]string{
	"apple":     "AAPL",
	"microsoft": "MSFT",
	"google":    "GOOGL",
	"alphabet":  "GOOGL",
	"amazon":    "AMZN",
	"tesla":     "TSLA",
	"nvidia":    "NVDA",
	"meta":      "META",
	"gamestop":  "GME",
}

// Extractor is the nlquery capability contract.
type Extractor interface {
	Extract(query string) (ParsedQuery, error)
}

// HeuristicExtractor is a simple keyword-matching implementation:
// first match a known company name (case-insensitive word boundary),
// else fall back to an all-caps token that looks like a ticker symbol.
type HeuristicExtractor struct{}

// NewHeuristicExtractor builds the default extractor.
func NewHeuristicExtractor() *HeuristicExtractor {
	return &HeuristicExtractor{}
}

func (e *HeuristicExtractor) Extract(query string) (ParsedQuery, error) {
	lower := strings.ToLower(query)

	var ticker string
	for name, sym := range knownCompanyNames {
		if regexp.MustCompile(`\b` + name + `\b`).MatchString(lower) {
			ticker = sym
			break
		}
	}
	if ticker == "" {
		if match := tickerPattern.FindString(query); match != "" {
			ticker = match
		}
	}
	if ticker == "" {
		return ParsedQuery{}, ErrParseFailed
	}

	var action string
	for word, verb := range actionWords {
		if strings.Contains(lower, word) {
			action = verb
			break
		}
	}

	return ParsedQuery{Ticker: ticker, Action: action}, nil
}

// DefaultTradeDate returns today's date in UTC, YYYY-MM-DD (spec.md §6:
// "trade_date defaults to the parsed-query date, else today").
func DefaultTradeDate() string {
	return time.Now().UTC().Format("2006-01-02")
}
