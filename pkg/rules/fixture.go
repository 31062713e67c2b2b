package rules

import "warden/pkg/domain"

// CanonicalFixture is the fixed employee/security/date input the
// RuleValidator's functional phase invokes every candidate rule with
// (spec.md §4.3). It is a smoke test, not a proof of correctness — a
// rule can pass this fixture and still misbehave on other inputs
// (spec.md §9); that is accepted as-is, not treated as a defect here.
func CanonicalFixture(tradeDate string) (domain.Employee, domain.Security) {
	restricted := []string{"AAPL", "TSLA", "MSFT", "GOOGL"}

	employee := domain.Employee{
		ID:                "fixture-analyst",
		Role:              "analyst",
		Tier:              intPtr(2),
		RestrictedTickers: restricted,
		CoverageStocks:    restricted,
		ActiveDeals: []domain.Deal{
			{Ticker: "TSLA", DealType: "IPO"},
		},
	}

	security := domain.Security{
		Ticker:          "TSLA",
		RequestedAction: "buy",
		EarningsDate:    "2025-11-20",
		MarketCap:       floatPtr(1e9),
		IsCovered:       boolPtr(true),
	}

	_ = tradeDate
	return employee, security
}

func intPtr(v int) *int          { return &v }
func floatPtr(v float64) *float64 { return &v }
func boolPtr(v bool) *bool        { return &v }
