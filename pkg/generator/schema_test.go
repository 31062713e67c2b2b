package generator_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"warden/pkg/generator"
)

const validDraftJSON = `[{
  "rule_id": "no_restricted_tickers",
  "rule_name": "No Restricted Tickers",
  "description": "blocks trades in an employee's restricted list",
  "policy_reference": "section 2.1",
  "applies_to_roles": [],
  "code": "def rule(employee, security, trade_date):\n    return {'allowed': True}\n"
}]`

func TestSchemaValidator_ParsesCleanArray(t *testing.T) {
	v := generator.NewSchemaValidator()

	drafts, err := v.ParseAndValidate(validDraftJSON)

	require.NoError(t, err)
	require.Len(t, drafts, 1)
	assert.Equal(t, "no_restricted_tickers", drafts[0].RuleID)
}

func TestSchemaValidator_ExtractsArrayFromProseWrapping(t *testing.T) {
	v := generator.NewSchemaValidator()
	wrapped := "Here is the rule you asked for:\n\n" + validDraftJSON + "\n\nLet me know if you need changes."

	drafts, err := v.ParseAndValidate(wrapped)

	require.NoError(t, err)
	require.Len(t, drafts, 1)
}

func TestSchemaValidator_RejectsMissingRequiredField(t *testing.T) {
	v := generator.NewSchemaValidator()
	missing := `[{"rule_name": "No ID Rule", "description": "x", "policy_reference": "x", "applies_to_roles": [], "code": "pass"}]`

	_, err := v.ParseAndValidate(missing)

	assert.Error(t, err)
}

func TestSchemaValidator_ToleratesAbsentSchemaVersion(t *testing.T) {
	v := generator.NewSchemaValidator()

	_, err := v.ParseAndValidate(validDraftJSON)

	assert.NoError(t, err)
}

func TestSchemaValidator_RejectsIncompatibleSchemaVersion(t *testing.T) {
	v := generator.NewSchemaValidator()
	incompatible := `[{
  "schema_version": "2.0.0",
  "rule_id": "r1", "rule_name": "R1", "description": "x",
  "policy_reference": "x", "applies_to_roles": [], "code": "pass"
}]`

	_, err := v.ParseAndValidate(incompatible)

	assert.Error(t, err)
}
