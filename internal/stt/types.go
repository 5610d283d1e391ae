package stt

import "context"

// Transcription is the result of transcribing one finished utterance
type Transcription struct {
	// Text is the transcribed text
	Text string

	// Confidence is the confidence score (0.0 to 1.0) if available
	Confidence float64

	// Duration is the audio duration in seconds, if reported
	Duration float64
}

// Transcriber is the interface for speech-to-text clients. The gateway
// receives complete utterance audio from the client, so transcription is a
// single request/response call rather than a stream.
type Transcriber interface {
	// Transcribe converts recorded audio into text. mimeHint describes the
	// container ("audio/wav", "audio/webm", ...) when the caller knows it.
	Transcribe(ctx context.Context, audio []byte, mimeHint string) (*Transcription, error)
}
