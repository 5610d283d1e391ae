package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/lingolens/translate-gateway/internal/config"
	"github.com/lingolens/translate-gateway/internal/observability"
	"github.com/lingolens/translate-gateway/internal/resilience"
)

const (
	cartesiaAPIURL     = "https://api.cartesia.ai/v1/tts"
	cartesiaSampleRate = 24000
)

// CartesiaClient implements Synthesizer using Cartesia's TTS API
type CartesiaClient struct {
	apiKey       string
	apiURL       string
	defaultVoice string
	modelID      string
	httpClient   *http.Client
	breaker      *resilience.CircuitBreaker
}

// cartesiaRequest is the request payload for the Cartesia TTS API
type cartesiaRequest struct {
	Text         string `json:"text"`
	VoiceID      string `json:"voice_id"`
	ModelID      string `json:"model_id,omitempty"`
	OutputFormat string `json:"output_format,omitempty"`
	SampleRate   int    `json:"sample_rate,omitempty"`
}

// NewCartesiaClient creates a new Cartesia TTS client
func NewCartesiaClient(cfg *config.Config) *CartesiaClient {
	return &CartesiaClient{
		apiKey:       cfg.CartesiaAPIKey,
		apiURL:       cartesiaAPIURL,
		defaultVoice: cfg.CartesiaVoiceID,
		modelID:      cfg.CartesiaModelID,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.RequestTimeoutSeconds) * time.Second,
		},
		breaker: resilience.NewCircuitBreaker(
			"cartesia",
			cfg.CircuitBreakerMaxFailures,
			time.Duration(cfg.CircuitBreakerResetTimeout)*time.Second,
		),
	}
}

// Synthesize converts text to PCM audio
func (c *CartesiaClient) Synthesize(ctx context.Context, text, voice string) (*Audio, error) {
	if voice == "" {
		voice = c.defaultVoice
	}

	var audio *Audio
	err := c.breaker.Call(func() error {
		out, err := c.synthesize(ctx, text, voice)
		if err != nil {
			return err
		}
		audio = out
		return nil
	})

	observability.UpdateCircuitBreakerState("cartesia", int(c.breaker.GetState()))
	if err != nil {
		observability.IncrementCircuitBreakerFailures("cartesia")
		return nil, err
	}
	return audio, nil
}

func (c *CartesiaClient) synthesize(ctx context.Context, text, voice string) (*Audio, error) {
	reqBody := cartesiaRequest{
		Text:         text,
		VoiceID:      voice,
		ModelID:      c.modelID,
		OutputFormat: "pcm",
		SampleRate:   cartesiaSampleRate,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call cartesia API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("cartesia API returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read cartesia audio: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("cartesia returned empty audio")
	}

	return &Audio{
		Data:       data,
		SampleRate: cartesiaSampleRate,
		Channels:   1,
		Encoding:   "pcm_s16le",
	}, nil
}
