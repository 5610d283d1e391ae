package gateway

// ClientMessage is the envelope for every message a client sends on the
// live stream
type ClientMessage struct {
	// Event is one of: text, voice_start, voice_audio, voice_stop,
	// playback_done, end_session
	Event string `json:"event"`

	// Text carries recognized OCR frame text for "text" events
	Text string `json:"text,omitempty"`

	// Payload carries base64-encoded audio for "voice_audio" events
	Payload string `json:"payload,omitempty"`

	// MimeHint describes the audio container for "voice_start" events
	MimeHint string `json:"mimeHint,omitempty"`
}

// ServerMessage is the envelope for every message the gateway sends back
type ServerMessage struct {
	// Event is one of: translation, cleared, status, stage, audio
	Event string `json:"event"`

	SourceText     string `json:"sourceText,omitempty"`
	TranslatedText string `json:"translatedText,omitempty"`

	// Message is a user-visible status line for "status" events
	Message string `json:"message,omitempty"`

	// Stage is the voice pipeline stage for "stage" events
	Stage string `json:"stage,omitempty"`

	// Payload carries base64-encoded synthesized audio for "audio" events
	Payload     string `json:"payload,omitempty"`
	SampleRate  int    `json:"sampleRate,omitempty"`
	UtteranceID string `json:"utteranceId,omitempty"`
}

// Client event names
const (
	EventText         = "text"
	EventVoiceStart   = "voice_start"
	EventVoiceAudio   = "voice_audio"
	EventVoiceStop    = "voice_stop"
	EventPlaybackDone = "playback_done"
	EventEndSession   = "end_session"
)

// Server event names
const (
	EventTranslation = "translation"
	EventCleared     = "cleared"
	EventStatus      = "status"
	EventStage       = "stage"
	EventAudio       = "audio"
)
