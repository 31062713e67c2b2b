package generator_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"warden/pkg/generator"
)

func TestAnthropicGenerator_GeneratesFromMessagesResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-api-key"))

		resp := map[string]interface{}{
			"content": []map[string]string{
				{"type": "text", "text": validDraftJSON},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	gen := generator.NewAnthropicGenerator(generator.AnthropicConfig{
		BaseURL: server.URL,
		APIKey:  "test-key",
	}, generator.NewSchemaValidator())

	drafts, err := gen.Generate(context.Background(), generator.GenerationRequest{
		FirmName:   "Acme Corp",
		PolicyText: "no trading restricted tickers",
	})

	require.NoError(t, err)
	require.Len(t, drafts, 1)
	assert.Equal(t, "no_restricted_tickers", drafts[0].RuleID)
}

func TestAnthropicGenerator_VendorErrorStatusPropagates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	gen := generator.NewAnthropicGenerator(generator.AnthropicConfig{
		BaseURL: server.URL,
		APIKey:  "test-key",
	}, generator.NewSchemaValidator())

	_, err := gen.Generate(context.Background(), generator.GenerationRequest{FirmName: "Acme", PolicyText: "x"})

	assert.Error(t, err)
}

func TestAnthropicGenerator_PriorFailureIncludedInPrompt(t *testing.T) {
	var capturedBody map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&capturedBody)
		resp := map[string]interface{}{
			"content": []map[string]string{{"type": "text", "text": validDraftJSON}},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	gen := generator.NewAnthropicGenerator(generator.AnthropicConfig{BaseURL: server.URL, APIKey: "k"}, generator.NewSchemaValidator())

	_, err := gen.Generate(context.Background(), generator.GenerationRequest{
		FirmName:   "Acme",
		PolicyText: "x",
		PriorFailure: &generator.PriorFailure{
			Code:  "def rule(): pass",
			Error: "SYNTAX_ERROR: bad",
		},
	})
	require.NoError(t, err)

	messages := capturedBody["messages"].([]interface{})
	userMsg := messages[0].(map[string]interface{})["content"].(string)
	assert.Contains(t, userMsg, "SYNTAX_ERROR: bad")
}
