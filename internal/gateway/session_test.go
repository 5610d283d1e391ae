package gateway

import (
	"context"
	"encoding/base64"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lingolens/translate-gateway/internal/cache"
	"github.com/lingolens/translate-gateway/internal/config"
	"github.com/lingolens/translate-gateway/internal/stt"
	"github.com/lingolens/translate-gateway/internal/translate"
	"github.com/lingolens/translate-gateway/internal/tts"
)

type stubTranslator struct{}

func (stubTranslator) Translate(ctx context.Context, req translate.Request) (string, error) {
	switch req.SourceText {
	case "こんにちは":
		return "Hello", nil
	case "ありがとう":
		return "Thank you", nil
	}
	return "translated", nil
}

type stubTranscriber struct{}

func (stubTranscriber) Transcribe(ctx context.Context, audio []byte, mimeHint string) (*stt.Transcription, error) {
	return &stt.Transcription{Text: "ありがとう", Confidence: 0.9}, nil
}

type stubSynthesizer struct{}

func (stubSynthesizer) Synthesize(ctx context.Context, text, voice string) (*tts.Audio, error) {
	return &tts.Audio{Data: []byte("pcm:" + text), SampleRate: 24000, Channels: 1}, nil
}

func testGatewayConfig() *config.Config {
	return &config.Config{
		SourceLanguage:        "ja",
		TargetLanguage:        "en",
		CooldownSeconds:       5,
		RequestTimeoutSeconds: 5,
		CartesiaVoiceID:       "test-voice",
	}
}

func dialTestSession(t *testing.T) *websocket.Conn {
	t.Helper()

	svcs := Services{
		Translator:  stubTranslator{},
		Transcriber: stubTranscriber{},
		Synthesizer: stubSynthesizer{},
		Cache:       cache.New(time.Hour),
	}

	server := httptest.NewServer(HandleLiveWS(testGatewayConfig(), svcs))
	t.Cleanup(server.Close)

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/streams/live"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	return conn
}

// readUntil discards messages until one with the wanted event arrives
func readUntil(t *testing.T, conn *websocket.Conn, event string) ServerMessage {
	t.Helper()
	for {
		var msg ServerMessage
		require.NoError(t, conn.ReadJSON(&msg), "waiting for %q", event)
		if msg.Event == event {
			return msg
		}
	}
}

func TestSession_TextEventTranslated(t *testing.T) {
	conn := dialTestSession(t)

	require.NoError(t, conn.WriteJSON(ClientMessage{Event: EventText, Text: "こんにちは"}))

	msg := readUntil(t, conn, EventTranslation)
	assert.Equal(t, "こんにちは", msg.SourceText)
	assert.Equal(t, "Hello", msg.TranslatedText)
}

func TestSession_NonJapaneseTextCleared(t *testing.T) {
	conn := dialTestSession(t)

	require.NoError(t, conn.WriteJSON(ClientMessage{Event: EventText, Text: "hello world"}))

	readUntil(t, conn, EventCleared)
}

func TestSession_VoiceFlow(t *testing.T) {
	conn := dialTestSession(t)

	require.NoError(t, conn.WriteJSON(ClientMessage{Event: EventVoiceStart, MimeHint: "audio/wav"}))
	require.NoError(t, conn.WriteJSON(ClientMessage{
		Event:   EventVoiceAudio,
		Payload: base64.StdEncoding.EncodeToString([]byte("fake-audio")),
	}))
	require.NoError(t, conn.WriteJSON(ClientMessage{Event: EventVoiceStop}))

	// The stage stream walks the whole pipeline
	var stages []string
	for {
		var msg ServerMessage
		require.NoError(t, conn.ReadJSON(&msg))
		if msg.Event == EventStage {
			stages = append(stages, msg.Stage)
			if msg.Stage == "playing" {
				break
			}
		}
	}
	assert.Equal(t, []string{"recording", "transcribing", "translating", "synthesizing", "playing"}, stages)

	msg := readUntil(t, conn, EventAudio)
	assert.NotEmpty(t, msg.UtteranceID)
	decoded, err := base64.StdEncoding.DecodeString(msg.Payload)
	require.NoError(t, err)
	assert.Equal(t, []byte("pcm:Thank you"), decoded)

	require.NoError(t, conn.WriteJSON(ClientMessage{Event: EventPlaybackDone}))
	stage := readUntil(t, conn, EventStage)
	assert.Equal(t, "idle", stage.Stage)
}

func TestSession_VoiceStartWhileBusy(t *testing.T) {
	conn := dialTestSession(t)

	require.NoError(t, conn.WriteJSON(ClientMessage{Event: EventVoiceStart, MimeHint: "audio/wav"}))
	readUntil(t, conn, EventStage)

	require.NoError(t, conn.WriteJSON(ClientMessage{Event: EventVoiceStart, MimeHint: "audio/wav"}))
	msg := readUntil(t, conn, EventStatus)
	assert.Equal(t, "recorder unavailable", msg.Message)
}
