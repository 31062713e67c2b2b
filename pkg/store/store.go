// Package store implements the RulesStore capability: persistence of a
// firm's RulesBundle behind a pluggable backend (flat file, Postgres,
// S3), fronted by an optional in-memory/Redis read-through cache.
package store

import (
	"context"
	"fmt"
	"time"

	"warden/pkg/rules"
)

// Store is the RulesStore capability contract (spec.md §4.8). Save
// replaces the firm's entire bundle (no partial update, per spec.md
// §1's non-goals); Load returns (bundle, false, nil) when the firm has
// never ingested a policy.
type Store interface {
	Save(ctx context.Context, firmName string, accepted []rules.Rule, totalIterations int) (rules.RulesBundle, error)
	Load(ctx context.Context, firmName string) (rules.RulesBundle, bool, error)
}

// BuildBundle stamps a RulesBundle the way every backend's Save does:
// policy_version is a YYYY-MM stamp of save time, last_updated is the
// full timestamp (spec.md §4.3 / §6).
func BuildBundle(firmName string, accepted []rules.Rule, totalIterations int, savedAt time.Time) rules.RulesBundle {
	return rules.RulesBundle{
		FirmName:        firmName,
		PolicyVersion:   savedAt.Format("2006-01"),
		LastUpdated:     savedAt,
		TotalIterations: totalIterations,
		Rules:           accepted,
	}
}

// ErrNotFound is returned by backends that distinguish "not found" from
// other errors; Store.Load callers should prefer the bool return
// instead of matching on this.
var ErrNotFound = fmt.Errorf("rules bundle not found")
