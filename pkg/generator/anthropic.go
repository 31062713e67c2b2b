package generator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const defaultAnthropicBaseURL = "https://api.anthropic.com"
const defaultModel = "claude-sonnet-4-5"

// AnthropicConfig configures the HTTP adapter to the Anthropic Messages
// API (ANTHROPIC_API_KEY, per spec.md §6). No Anthropic SDK appears
// anywhere in the retrieved example pack; every vendor-API adapter in
// the teacher (core/pkg/config.go's LLMServiceURL) is a plain
// net/http.Client call against a chat-completions-shaped endpoint, so
// that is the idiom followed here rather than pulling in an SDK no
// example repo uses.
type AnthropicConfig struct {
	BaseURL    string
	APIKey     string
	Model      string
	HTTPClient *http.Client
}

// AnthropicGenerator implements Generator against the Anthropic
// Messages API, requesting a fixed-schema JSON array of draft rules and
// validating the response with the schema gate in schema.go.
type AnthropicGenerator struct {
	cfg      AnthropicConfig
	validate *SchemaValidator
}

// NewAnthropicGenerator builds a Generator backed by the Anthropic API.
func NewAnthropicGenerator(cfg AnthropicConfig, validate *SchemaValidator) *AnthropicGenerator {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultAnthropicBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 90 * time.Second}
	}
	if validate == nil {
		validate = NewSchemaValidator()
	}
	return &AnthropicGenerator{cfg: cfg, validate: validate}
}

type messagesRequest struct {
	Model       string          `json:"model"`
	MaxTokens   int             `json:"max_tokens"`
	Temperature float64         `json:"temperature"`
	System      string          `json:"system"`
	Messages    []chatMessage   `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

func (g *AnthropicGenerator) Generate(ctx context.Context, request GenerationRequest) ([]DraftRule, error) {
	reqBody := messagesRequest{
		Model:       g.cfg.Model,
		MaxTokens:   4096,
		Temperature: 0, // pinned to minimum for reproducibility, per spec.md §4.4
		System:      systemPrompt(),
		Messages: []chatMessage{
			{Role: "user", Content: userPrompt(request)},
		},
	}
	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("encode generation request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.cfg.BaseURL+"/v1/messages", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", g.cfg.APIKey)
	httpReq.Header.Set("anthropic-version", "2023-06-01")

	resp, err := g.cfg.HTTPClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("generation request transport error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("generator vendor returned status %d", resp.StatusCode)
	}

	var parsed messagesResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("malformed generation response: %w", err)
	}

	var text strings.Builder
	for _, block := range parsed.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}

	drafts, err := g.validate.ParseAndValidate(text.String())
	if err != nil {
		return nil, fmt.Errorf("generator output failed schema validation: %w", err)
	}
	return drafts, nil
}

// systemPrompt communicates the Employee/Security schema and the
// enforcement conventions a generated rule must respect (spec.md §4.4):
// restricted_tickers is absolute, coverage_stocks require pre-approval,
// tier 1 is the most restricted tier.
func systemPrompt() string {
	return strings.TrimSpace(`
You are generating executable compliance rules for an investment firm's
trading-restriction policy. Respond with a JSON array of rule objects
matching exactly this schema, and nothing else:

[{
  "rule_id": "snake_case_identifier",
  "rule_name": "Human readable name",
  "description": "what the rule checks",
  "policy_reference": "citation into the source policy text",
  "applies_to_roles": ["role strings, empty array means universal"],
  "code": "Python source defining exactly one callable rule(employee, security, trade_date) -> {allowed: bool, reason?: str, policy_ref?: str}, using only the Python standard library"
}]

Conventions the generated code must honor:
- employee.restricted_tickers is an absolute bar: trading any listed
  ticker is never allowed regardless of action.
- employee.coverage_stocks require pre-approval before any trade.
- employee.tier is an integer restriction level; tier 1 is the MOST
  restricted, higher numbers are progressively less restricted.
`)
}

func userPrompt(request GenerationRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Firm: %s\n\nPolicy text:\n%s\n", request.FirmName, request.PolicyText)
	if request.PriorFailure != nil {
		fmt.Fprintf(&b, `
The following rule failed validation. Revise it to fix the problem
while preserving its original intent. Return exactly one rule in the
array.

Previous code:
%s

Validation error:
%s

Test output (if any):
%s
`, request.PriorFailure.Code, request.PriorFailure.Error, request.PriorFailure.TestOutput)
	}
	return b.String()
}
