package tts

import "context"

// Audio is synthesized speech ready to hand back to the client
type Audio struct {
	Data       []byte // Raw audio data
	SampleRate int    // Sample rate in Hz
	Channels   int    // Number of channels (1 for mono)
	Encoding   string // e.g. "pcm_s16le"
}

// Synthesizer is the interface for text-to-speech clients
type Synthesizer interface {
	// Synthesize converts text to audio using the given voice profile.
	// An empty voice falls back to the configured default.
	Synthesize(ctx context.Context, text, voice string) (*Audio, error)
}
