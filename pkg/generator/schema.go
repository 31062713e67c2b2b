package generator

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

// draftRuleSchema is the rule-code JSON Schema generated output must
// satisfy (spec.md §6). schema_version is advisory metadata the
// generator may omit; when present it is checked against
// supportedSchemaRange rather than required to match exactly, so a
// vendor prompt change that bumps a patch version doesn't start
// rejecting otherwise-valid output.
const draftRuleSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["rule_id", "rule_name", "description", "policy_reference", "applies_to_roles", "code"],
  "properties": {
    "schema_version": {"type": "string"},
    "rule_id": {"type": "string", "minLength": 1},
    "rule_name": {"type": "string", "minLength": 1},
    "description": {"type": "string"},
    "policy_reference": {"type": "string"},
    "applies_to_roles": {"type": "array", "items": {"type": "string"}},
    "code": {"type": "string", "minLength": 1}
  }
}`

// supportedSchemaRange is the range of generator schema_version values
// this adapter accepts. Bump the upper bound when draftRuleSchema gains
// fields the rest of the pipeline knows how to use.
const supportedSchemaRange = ">= 1.0.0, < 2.0.0"

// SchemaValidator validates raw generator output text against
// draftRuleSchema and an optional schema_version compatibility check.
type SchemaValidator struct {
	schema *jsonschema.Schema
	dmaRange *semver.Constraints
}

// NewSchemaValidator compiles draftRuleSchema once. Panics on a
// compile error, which can only happen if draftRuleSchema itself is
// malformed — a programmer error, not a runtime condition.
func NewSchemaValidator() *SchemaValidator {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("draft_rule.json", strings.NewReader(draftRuleSchema)); err != nil {
		panic(fmt.Sprintf("generator: invalid embedded schema: %v", err))
	}
	schema, err := compiler.Compile("draft_rule.json")
	if err != nil {
		panic(fmt.Sprintf("generator: schema compile failed: %v", err))
	}
	constraints, err := semver.NewConstraint(supportedSchemaRange)
	if err != nil {
		panic(fmt.Sprintf("generator: invalid schema_version constraint: %v", err))
	}
	return &SchemaValidator{schema: schema, dmaRange: constraints}
}

type rawDraft struct {
	SchemaVersion string `json:"schema_version"`
}

// ParseAndValidate extracts a JSON array of draft rules from vendor
// response text (tolerating a leading/trailing prose wrapper some
// models add despite instructions), validates each element against
// draftRuleSchema, and checks any schema_version field against
// supportedSchemaRange.
func (v *SchemaValidator) ParseAndValidate(text string) ([]DraftRule, error) {
	arrayText, err := extractJSONArray(text)
	if err != nil {
		return nil, err
	}

	var raw []json.RawMessage
	if err := json.Unmarshal([]byte(arrayText), &raw); err != nil {
		return nil, fmt.Errorf("generator output is not a JSON array: %w", err)
	}

	drafts := make([]DraftRule, 0, len(raw))
	for i, item := range raw {
		var asAny interface{}
		if err := json.Unmarshal(item, &asAny); err != nil {
			return nil, fmt.Errorf("element %d: invalid JSON: %w", i, err)
		}
		if err := v.schema.Validate(asAny); err != nil {
			return nil, fmt.Errorf("element %d failed schema validation: %w", i, err)
		}

		var rv rawDraft
		_ = json.Unmarshal(item, &rv)
		if rv.SchemaVersion != "" {
			sv, err := semver.NewVersion(rv.SchemaVersion)
			if err != nil {
				return nil, fmt.Errorf("element %d: invalid schema_version %q: %w", i, rv.SchemaVersion, err)
			}
			if !v.dmaRange.Check(sv) {
				return nil, fmt.Errorf("element %d: schema_version %q outside supported range %s", i, rv.SchemaVersion, supportedSchemaRange)
			}
		}

		var draft DraftRule
		if err := json.Unmarshal(item, &draft); err != nil {
			return nil, fmt.Errorf("element %d: decode failed after validation: %w", i, err)
		}
		drafts = append(drafts, draft)
	}
	return drafts, nil
}

// extractJSONArray trims any prose surrounding the first top-level
// JSON array in s, by locating the first '[' and its matching ']'.
func extractJSONArray(s string) (string, error) {
	start := strings.IndexByte(s, '[')
	if start < 0 {
		return "", fmt.Errorf("no JSON array found in generator output")
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				return s[start : i+1], nil
			}
		}
	}
	return "", fmt.Errorf("unterminated JSON array in generator output")
}
