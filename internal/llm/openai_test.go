// internal/llm/openai_test.go
package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"bi-training-pipeline/internal/common/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLLMConfig(baseURL string) config.LLMConfig {
	return config.LLMConfig{
		BaseURL:     baseURL,
		APIKey:      "test-key",
		Model:       "gpt-4o-mini",
		Temperature: 0.1,
		MaxTokens:   2048,
		Timeout:     5000,
		MaxRetries:  3,
	}
}

func TestOpenAIClient_Complete(t *testing.T) {
	var gotReq map[string]interface{}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"id":     "chatcmpl-test",
			"object": "chat.completion",
			"model":  "gpt-4o-mini",
			"choices": []map[string]interface{}{
				{
					"index": 0,
					"message": map[string]interface{}{
						"role":    "assistant",
						"content": `{"intent": "intents_discovery", "discovery_results": []}`,
					},
					"finish_reason": "stop",
				},
			},
		})
	}))
	defer server.Close()

	client, err := NewOpenAIClient(testLLMConfig(server.URL + "/v1"))
	require.NoError(t, err)

	content, err := client.Complete(context.Background(), "Analyze this question")
	require.NoError(t, err)
	assert.Contains(t, content, "intents_discovery")

	// Request carries the system framing and JSON mode.
	messages, ok := gotReq["messages"].([]interface{})
	require.True(t, ok)
	require.Len(t, messages, 2)
	first := messages[0].(map[string]interface{})
	assert.Equal(t, "system", first["role"])
	assert.Equal(t, SystemPrompt, first["content"])

	respFormat, ok := gotReq["response_format"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "json_object", respFormat["type"])
}

func TestOpenAIClient_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": {"message": "rate limited"}}`, http.StatusTooManyRequests)
	}))
	defer server.Close()

	client, err := NewOpenAIClient(testLLMConfig(server.URL + "/v1"))
	require.NoError(t, err)

	_, err = client.Complete(context.Background(), "Analyze this question")
	assert.Error(t, err)
}

func TestNewOpenAIClient_RequiresAPIKey(t *testing.T) {
	cfg := testLLMConfig("")
	cfg.APIKey = ""

	_, err := NewOpenAIClient(cfg)
	assert.Error(t, err)
}
