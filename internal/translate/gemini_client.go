package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/lingolens/translate-gateway/internal/config"
	"github.com/lingolens/translate-gateway/internal/observability"
	"github.com/lingolens/translate-gateway/internal/resilience"
)

// GeminiClient implements Translator using a Gemini-style generative API.
// A system instruction constrains the model to output only the translated
// text, so responses can be used verbatim as display strings.
type GeminiClient struct {
	apiKey     string
	apiURL     string
	model      string
	httpClient *http.Client
	breaker    *resilience.CircuitBreaker
}

// geminiRequest is the request payload for the generateContent endpoint
type geminiRequest struct {
	SystemInstruction *geminiContent  `json:"systemInstruction,omitempty"`
	Contents          []geminiContent `json:"contents"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

// geminiResponse is the subset of the response payload we consume
type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// NewGeminiClient creates a translation client from service configuration
func NewGeminiClient(cfg *config.Config) *GeminiClient {
	return &GeminiClient{
		apiKey: cfg.TranslateAPIKey,
		apiURL: strings.TrimRight(cfg.TranslateAPIURL, "/"),
		model:  cfg.TranslateModel,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.RequestTimeoutSeconds) * time.Second,
		},
		breaker: resilience.NewCircuitBreaker(
			"translate",
			cfg.CircuitBreakerMaxFailures,
			time.Duration(cfg.CircuitBreakerResetTimeout)*time.Second,
		),
	}
}

// Translate sends the text to the translation model and returns the bare
// translated string
func (c *GeminiClient) Translate(ctx context.Context, req Request) (string, error) {
	var translated string

	err := c.breaker.Call(func() error {
		out, err := c.translate(ctx, req)
		if err != nil {
			return err
		}
		translated = out
		return nil
	})

	observability.UpdateCircuitBreakerState("translate", int(c.breaker.GetState()))
	if err != nil {
		observability.IncrementCircuitBreakerFailures("translate")
		return "", err
	}
	return translated, nil
}

func (c *GeminiClient) translate(ctx context.Context, req Request) (string, error) {
	instruction := fmt.Sprintf(
		"You are a translator between %s and %s. Detect which of the two languages the input is in and translate it to the other. Respond with the translated text only, nothing else.",
		req.LanguageA, req.LanguageB,
	)

	payload := geminiRequest{
		SystemInstruction: &geminiContent{Parts: []geminiPart{{Text: instruction}}},
		Contents:          []geminiContent{{Parts: []geminiPart{{Text: req.SourceText}}}},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/%s:generateContent", c.apiURL, c.model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("failed to call translation API: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	var parsed geminiResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("failed to parse response (status %d): %w", resp.StatusCode, err)
	}

	if resp.StatusCode != http.StatusOK {
		if parsed.Error != nil {
			return "", fmt.Errorf("translation API returned status %d: %s", resp.StatusCode, parsed.Error.Message)
		}
		return "", fmt.Errorf("translation API returned status %d", resp.StatusCode)
	}

	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("translation API returned no candidates")
	}

	translated := strings.TrimSpace(parsed.Candidates[0].Content.Parts[0].Text)
	if translated == "" {
		return "", fmt.Errorf("translation API returned empty text")
	}
	return translated, nil
}
