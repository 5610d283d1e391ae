package dispatch

import "time"

// Source identifies which flow produced a text event
type Source string

const (
	// SourceOCR marks text recognized from live camera frames
	SourceOCR Source = "ocr"

	// SourceVoice marks text transcribed from a finished voice utterance
	SourceVoice Source = "voice"
)

// TextEvent is one timestamped piece of recognized text. Events are created
// per source callback and never persisted beyond the dispatch path.
type TextEvent struct {
	Text       string
	Source     Source
	ObservedAt time.Time
}
