// Package evaluator implements the ComplianceEvaluator capability:
// resolving a firm's persisted rules against a trade query and
// aggregating a ComplianceVerdict (spec.md §4.9).
package evaluator

import (
	"context"
	"fmt"

	"warden/pkg/domain"
	"warden/pkg/rules"
	"warden/pkg/runner"
)

// ComplianceVerdict is the aggregated result of evaluating one trade
// query against a firm's RulesBundle.
type ComplianceVerdict struct {
	Allowed      bool     `json:"allowed"`
	Reasons      []string `json:"reasons"`
	PolicyRefs   []string `json:"policy_refs"`
	RulesChecked []string `json:"rules_checked"`
}

// BundleSource is the subset of RulesStore the evaluator needs, e.g.
// *store.CachedStore or any store.Store implementation.
type BundleSource interface {
	Load(ctx context.Context, firmName string) (rules.RulesBundle, bool, error)
}

// Runner is the subset of LocalRunner's contract the evaluator needs.
type Runner interface {
	Run(ctx context.Context, code string, payload runner.Payload) (runner.Result, error)
}

// ComplianceEvaluator evaluates one trade query against one firm's
// rules bundle.
type ComplianceEvaluator struct {
	store  BundleSource
	runner Runner
}

// NewComplianceEvaluator builds an evaluator.
func NewComplianceEvaluator(store BundleSource, runner Runner) *ComplianceEvaluator {
	return &ComplianceEvaluator{store: store, runner: runner}
}

// Evaluate runs spec.md §4.9's algorithm: load the firm's bundle, walk
// rules in stored order, skip inactive/non-applicable rules, run every
// applicable rule (no short-circuit), and aggregate.
func (e *ComplianceEvaluator) Evaluate(ctx context.Context, firmName string, employee domain.Employee, security domain.Security, tradeDate string) (ComplianceVerdict, error) {
	bundle, ok, err := e.store.Load(ctx, firmName)
	if err != nil {
		return ComplianceVerdict{}, fmt.Errorf("load rules bundle: %w", err)
	}
	if !ok {
		// Absence of policy is not a denial.
		return ComplianceVerdict{Allowed: true, Reasons: []string{}, PolicyRefs: []string{}, RulesChecked: []string{}}, nil
	}

	verdict := ComplianceVerdict{Allowed: true, Reasons: []string{}, PolicyRefs: []string{}, RulesChecked: []string{}}

	for _, rule := range bundle.Rules {
		if !rule.Active {
			continue
		}
		if len(rule.AppliesToRoles) > 0 && !containsExact(rule.AppliesToRoles, employee.Role) {
			continue
		}

		verdict.RulesChecked = append(verdict.RulesChecked, rule.RuleName)

		result, err := e.runner.Run(ctx, rule.Code, runner.Payload{
			Employee:  employee,
			Security:  security,
			TradeDate: tradeDate,
		})
		if err != nil {
			verdict.Allowed = false
			verdict.Reasons = append(verdict.Reasons, fmt.Sprintf("Rule %s execution failed: %v", rule.RuleName, err))
			verdict.PolicyRefs = append(verdict.PolicyRefs, rule.PolicyReference)
			continue
		}

		if !result.Allowed {
			verdict.Allowed = false
			if result.Reason != "" {
				verdict.Reasons = append(verdict.Reasons, result.Reason)
			}
			verdict.PolicyRefs = append(verdict.PolicyRefs, rule.PolicyReference)
		}
	}

	return verdict, nil
}

func containsExact(roles []string, role string) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}
