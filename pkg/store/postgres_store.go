package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"warden/pkg/rules"
)

// PostgresStore implements Store against a rules_bundles table keyed by
// normalized firm name, storing the rule list as a JSONB column rather
// than normalizing it across tables: the bundle is always read and
// written whole (spec.md §1's non-goals rule out partial update), so
// there is nothing a relational schema would buy here.
//
// Expected schema:
//
//	CREATE TABLE rules_bundles (
//	    firm_key         TEXT PRIMARY KEY,
//	    firm_name        TEXT NOT NULL,
//	    policy_version   TEXT NOT NULL,
//	    last_updated     TIMESTAMPTZ NOT NULL,
//	    total_iterations INTEGER NOT NULL,
//	    rules            JSONB NOT NULL
//	);
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore wraps an already-open *sql.DB.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Save(ctx context.Context, firmName string, accepted []rules.Rule, totalIterations int) (rules.RulesBundle, error) {
	bundle := BuildBundle(firmName, accepted, totalIterations, time.Now().UTC())

	rulesJSON, err := json.Marshal(bundle.Rules)
	if err != nil {
		return rules.RulesBundle{}, fmt.Errorf("encode rules for storage: %w", err)
	}

	query := `
		INSERT INTO rules_bundles (firm_key, firm_name, policy_version, last_updated, total_iterations, rules)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (firm_key) DO UPDATE SET
			policy_version   = EXCLUDED.policy_version,
			last_updated     = EXCLUDED.last_updated,
			total_iterations = EXCLUDED.total_iterations,
			rules            = EXCLUDED.rules
	`
	_, err = s.db.ExecContext(ctx, query,
		rules.NormalizeFirmKey(firmName), bundle.FirmName, bundle.PolicyVersion,
		bundle.LastUpdated, bundle.TotalIterations, rulesJSON)
	if err != nil {
		return rules.RulesBundle{}, fmt.Errorf("persist rules bundle: %w", err)
	}

	return bundle, nil
}

func (s *PostgresStore) Load(ctx context.Context, firmName string) (rules.RulesBundle, bool, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT firm_name, policy_version, last_updated, total_iterations, rules FROM rules_bundles WHERE firm_key = $1",
		rules.NormalizeFirmKey(firmName))

	var bundle rules.RulesBundle
	var rulesJSON []byte
	err := row.Scan(&bundle.FirmName, &bundle.PolicyVersion, &bundle.LastUpdated, &bundle.TotalIterations, &rulesJSON)
	if err == sql.ErrNoRows {
		return rules.RulesBundle{}, false, nil
	}
	if err != nil {
		return rules.RulesBundle{}, false, fmt.Errorf("load rules bundle: %w", err)
	}

	if err := json.Unmarshal(rulesJSON, &bundle.Rules); err != nil {
		return rules.RulesBundle{}, false, fmt.Errorf("decode stored rules: %w", err)
	}
	return bundle, true, nil
}
