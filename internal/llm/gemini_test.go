package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGemini(t *testing.T, handler http.HandlerFunc) *geminiClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := newGeminiClient(Config{APIKey: "test-key"})
	require.NoError(t, err)

	gemini, ok := client.(*geminiClient)
	require.True(t, ok)
	gemini.baseURL = server.URL
	return gemini
}

func geminiBody(text string) map[string]any {
	return map[string]any{
		"candidates": []map[string]any{
			{
				"content": map[string]any{
					"parts": []map[string]string{{"text": text}},
					"role":  "model",
				},
				"finishReason": "STOP",
			},
		},
	}
}

func TestGeminiGenerate(t *testing.T) {
	var gotPath string
	var gotRequest map[string]any

	client := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotRequest))
		require.NoError(t, json.NewEncoder(w).Encode(geminiBody(`["Deal 1"]`)))
	})

	text, err := client.Generate(context.Background(), "find deals")
	require.NoError(t, err)
	assert.Equal(t, `["Deal 1"]`, text)
	assert.Equal(t, "/models/gemini-pro:generateContent", gotPath)

	contents, ok := gotRequest["contents"].([]any)
	require.True(t, ok)
	require.Len(t, contents, 1)
}

func TestGeminiGenerateAPIError(t *testing.T) {
	client := newTestGemini(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error": {"message": "quota exceeded"}}`, http.StatusTooManyRequests)
	})

	_, err := client.Generate(context.Background(), "find deals")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 429")
}

func TestGeminiGenerateNoCandidates(t *testing.T) {
	client := newTestGemini(t, func(w http.ResponseWriter, _ *http.Request) {
		require.NoError(t, json.NewEncoder(w).Encode(map[string]any{"candidates": []any{}}))
	})

	_, err := client.Generate(context.Background(), "find deals")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no candidates")
}

func TestGeminiRequiresAPIKey(t *testing.T) {
	_, err := newGeminiClient(Config{})
	require.Error(t, err)
}

func TestGeminiContextCancellation(t *testing.T) {
	client := newTestGemini(t, func(w http.ResponseWriter, _ *http.Request) {
		require.NoError(t, json.NewEncoder(w).Encode(geminiBody("late")))
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.Generate(ctx, "find deals")
	require.Error(t, err)
}
