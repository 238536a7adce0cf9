package narrative

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gyaneshwarpardhi/kycguard/internal/record"
)

func completionServer(t *testing.T, content string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)

		var req map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "gpt-4o", req["model"])
		format, _ := req["response_format"].(map[string]any)
		assert.Equal(t, "json_object", format["type"])

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":     "chatcmpl-1",
			"object": "chat.completion",
			"model":  "gpt-4o",
			"choices": []map[string]any{{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]any{"role": "assistant", "content": content},
			}},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestOpenAIExtractor(t *testing.T) {
	srv := completionServer(t, "```json\n{\"age\": 44, \"inheritance\": \"true\"}\n```")
	ex := NewOpenAIExtractor(OpenAIConfig{
		Provider: ProviderOpenAI,
		APIKey:   "test",
		BaseURL:  srv.URL + "/v1",
		Model:    "gpt-4o",
	})

	f, err := ex.Extract(context.Background(), record.ClientDescription{SummaryNote: "Married banker."})
	require.NoError(t, err)
	assert.Equal(t, Text("44"), f.Age)
	inherited, ok := f.Inheritance.Bool()
	assert.True(t, ok)
	assert.True(t, inherited)
}

func TestOpenAIExtractorMalformed(t *testing.T) {
	srv := completionServer(t, "Sorry, I cannot help with that.")
	ex := NewOpenAIExtractor(OpenAIConfig{APIKey: "test", BaseURL: srv.URL + "/v1", Model: "gpt-4o"})

	_, err := ex.Extract(context.Background(), record.ClientDescription{})
	assert.ErrorIs(t, err, ErrMalformedOutput)
}
