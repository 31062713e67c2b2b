package rules

import (
	"context"
	"log/slog"

	"warden/pkg/generator"
)

// Store is the subset of the RulesStore capability IngestionPipeline
// needs: persist a freshly-assembled bundle. Defined here (rather than
// imported from pkg/store) to avoid a store -> rules -> store import
// cycle; pkg/store.Store satisfies it structurally.
type Store interface {
	Save(ctx context.Context, firmName string, accepted []Rule, totalIterations int) (RulesBundle, error)
}

// IngestionPipeline orchestrates initial generation, runs each draft
// through a RefinementLoop, assembles a RulesBundle, and persists it
// (spec.md §4.7).
type IngestionPipeline struct {
	gen     generator.Generator
	loop    *RefinementLoop
	store   Store
	logger  *slog.Logger
}

// NewIngestionPipeline builds a pipeline. A nil logger falls back to
// slog.Default().
func NewIngestionPipeline(gen generator.Generator, loop *RefinementLoop, store Store, logger *slog.Logger) *IngestionPipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &IngestionPipeline{gen: gen, loop: loop, store: store, logger: logger}
}

// Ingest converts policy text into a persisted RulesBundle. Drafts that
// never validate are dropped silently from the bundle (but logged); a
// bundle with zero accepted rules is still persisted, meaning "no
// restrictions" (spec.md §4.7).
func (p *IngestionPipeline) Ingest(ctx context.Context, policyText, firmName string) (RulesBundle, error) {
	initialDrafts, err := p.gen.Generate(ctx, generator.GenerationRequest{
		PolicyText: policyText,
		FirmName:   firmName,
	})
	if err != nil {
		return RulesBundle{}, err
	}

	accepted := make([]Rule, 0, len(initialDrafts))
	totalIterations := 0

	// Drafts are refined and persisted sequentially and in
	// generator-returned order (spec.md §5): downstream rule filtering
	// assumes stable ordering, and concurrent sandbox provisioning would
	// multiply infrastructure cost with no correctness gain at typical
	// policy sizes.
	for _, gd := range initialDrafts {
		draft := DraftRule{
			RuleID:          gd.RuleID,
			RuleName:        gd.RuleName,
			Description:     gd.Description,
			PolicyReference: gd.PolicyReference,
			AppliesToRoles:  gd.AppliesToRoles,
			Code:            gd.Code,
		}
		if !draft.Valid() {
			p.logger.WarnContext(ctx, "dropping malformed draft rule", "firm_name", firmName, "rule_id", draft.RuleID)
			continue
		}

		result := p.loop.Refine(ctx, draft, policyText, firmName)
		totalIterations += result.Iterations

		if !result.Validated {
			p.logger.WarnContext(ctx, "rule failed to validate within attempt budget, dropping",
				"firm_name", firmName, "rule_id", draft.RuleID, "iterations", result.Iterations)
			continue
		}

		accepted = append(accepted, result.Rule)
	}

	return p.store.Save(ctx, firmName, accepted, totalIterations)
}
