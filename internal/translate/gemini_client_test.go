package translate

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lingolens/translate-gateway/internal/config"
)

func testConfig(apiURL string) *config.Config {
	return &config.Config{
		TranslateAPIKey:            "test-key",
		TranslateAPIURL:            apiURL,
		TranslateModel:             "gemini-2.0-flash",
		RequestTimeoutSeconds:      5,
		CircuitBreakerMaxFailures:  5,
		CircuitBreakerResetTimeout: 30,
	}
}

func TestGeminiClient_Translate(t *testing.T) {
	var captured geminiRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/gemini-2.0-flash:generateContent", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-goog-api-key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))

		json.NewEncoder(w).Encode(geminiResponse{
			Candidates: []struct {
				Content geminiContent `json:"content"`
			}{
				{Content: geminiContent{Parts: []geminiPart{{Text: "Hello\n"}}}},
			},
		})
	}))
	defer server.Close()

	client := NewGeminiClient(testConfig(server.URL))

	got, err := client.Translate(context.Background(), Request{
		SourceText: "こんにちは",
		LanguageA:  "ja",
		LanguageB:  "en",
	})
	require.NoError(t, err)
	assert.Equal(t, "Hello", got, "response text is trimmed")

	// The system instruction pins the model to translation-only output
	require.NotNil(t, captured.SystemInstruction)
	require.NotEmpty(t, captured.SystemInstruction.Parts)
	instruction := captured.SystemInstruction.Parts[0].Text
	assert.Contains(t, instruction, "ja")
	assert.Contains(t, instruction, "en")
	assert.Contains(t, instruction, "translated text only")

	require.Len(t, captured.Contents, 1)
	assert.Equal(t, "こんにちは", captured.Contents[0].Parts[0].Text)
}

func TestGeminiClient_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"code":429,"message":"quota exceeded"}}`))
	}))
	defer server.Close()

	client := NewGeminiClient(testConfig(server.URL))

	_, err := client.Translate(context.Background(), Request{SourceText: "こんにちは", LanguageA: "ja", LanguageB: "en"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota exceeded")
}

func TestGeminiClient_NoCandidates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"candidates":[]}`))
	}))
	defer server.Close()

	client := NewGeminiClient(testConfig(server.URL))

	_, err := client.Translate(context.Background(), Request{SourceText: "こんにちは", LanguageA: "ja", LanguageB: "en"})
	assert.Error(t, err)
}

func TestGeminiClient_CircuitOpensAfterRepeatedFailures(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	cfg := testConfig(server.URL)
	cfg.CircuitBreakerMaxFailures = 2
	client := NewGeminiClient(cfg)

	req := Request{SourceText: "こんにちは", LanguageA: "ja", LanguageB: "en"}
	for i := 0; i < 4; i++ {
		_, err := client.Translate(context.Background(), req)
		require.Error(t, err)
	}

	// The last two calls failed fast without hitting the server
	assert.Equal(t, 2, requests)
}
