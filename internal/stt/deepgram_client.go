package stt

import (
	"bytes"
	"context"
	"fmt"
	"time"

	restv1api "github.com/deepgram/deepgram-go-sdk/v3/pkg/api/listen/v1/rest"
	interfaces "github.com/deepgram/deepgram-go-sdk/v3/pkg/client/interfaces"
	listenClient "github.com/deepgram/deepgram-go-sdk/v3/pkg/client/listen"

	"github.com/lingolens/translate-gateway/internal/config"
	"github.com/lingolens/translate-gateway/internal/observability"
	"github.com/lingolens/translate-gateway/internal/resilience"
)

// DeepgramClient implements Transcriber using Deepgram's prerecorded REST API
type DeepgramClient struct {
	client  *restv1api.Client
	model   string
	lang    string
	breaker *resilience.CircuitBreaker
}

// NewDeepgramClient creates a Deepgram prerecorded transcription client
func NewDeepgramClient(cfg *config.Config) *DeepgramClient {
	rest := listenClient.NewREST(cfg.DeepgramAPIKey, &interfaces.ClientOptions{})

	return &DeepgramClient{
		client: restv1api.New(rest),
		model:  cfg.DeepgramModel,
		lang:   cfg.DeepgramLanguage,
		breaker: resilience.NewCircuitBreaker(
			"deepgram",
			cfg.CircuitBreakerMaxFailures,
			time.Duration(cfg.CircuitBreakerResetTimeout)*time.Second,
		),
	}
}

// Transcribe sends the utterance audio to Deepgram and returns the best
// alternative of the first channel
func (d *DeepgramClient) Transcribe(ctx context.Context, audio []byte, mimeHint string) (*Transcription, error) {
	if len(audio) == 0 {
		return nil, fmt.Errorf("no audio to transcribe")
	}

	options := &interfaces.PreRecordedTranscriptionOptions{
		Model:       d.model,
		Language:    d.lang,
		Punctuate:   true,
		SmartFormat: true,
	}

	var result *Transcription
	err := d.breaker.Call(func() error {
		// Deepgram sniffs the container itself; mimeHint only aids logging
		resp, err := d.client.FromStream(ctx, bytes.NewReader(audio), options)
		if err != nil {
			return fmt.Errorf("deepgram transcription failed: %w", err)
		}

		if len(resp.Results.Channels) == 0 || len(resp.Results.Channels[0].Alternatives) == 0 {
			return fmt.Errorf("deepgram returned no transcription alternatives")
		}

		alt := resp.Results.Channels[0].Alternatives[0]
		result = &Transcription{
			Text:       alt.Transcript,
			Confidence: alt.Confidence,
			Duration:   resp.Metadata.Duration,
		}
		return nil
	})

	observability.UpdateCircuitBreakerState("deepgram", int(d.breaker.GetState()))
	if err != nil {
		observability.IncrementCircuitBreakerFailures("deepgram")
		return nil, err
	}

	logger := observability.GetLogger()
	logger.Debug().
		Str("mime_hint", mimeHint).
		Float64("confidence", result.Confidence).
		Msg("Transcription complete")
	return result, nil
}
