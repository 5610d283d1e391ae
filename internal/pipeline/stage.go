package pipeline

import "fmt"

// Stage is one step in the life of a voice utterance
type Stage string

const (
	StageIdle         Stage = "idle"
	StageRecording    Stage = "recording"
	StageTranscribing Stage = "transcribing"
	StageTranslating  Stage = "translating"
	StageSynthesizing Stage = "synthesizing"
	StagePlaying      Stage = "playing"
	StageFailed       Stage = "failed"
)

type stageEvent string

const (
	eventStart        stageEvent = "start"
	eventStop         stageEvent = "stop"
	eventTranscribed  stageEvent = "transcribed"
	eventTranslated   stageEvent = "translated"
	eventSkipped      stageEvent = "skipped"
	eventSynthesized  stageEvent = "synthesized"
	eventPlaybackDone stageEvent = "playback_done"
	eventFail         stageEvent = "fail"
	eventReset        stageEvent = "reset"
)

// transition is the single source of truth for legal stage changes. Anything
// not listed here is an invalid transition and returns an error instead of
// silently moving the machine.
func transition(current Stage, ev stageEvent) (Stage, error) {
	switch current {
	case StageIdle:
		if ev == eventStart {
			return StageRecording, nil
		}
	case StageRecording:
		if ev == eventStop {
			return StageTranscribing, nil
		}
	case StageTranscribing:
		switch ev {
		case eventTranscribed:
			return StageTranslating, nil
		case eventFail:
			return StageFailed, nil
		}
	case StageTranslating:
		switch ev {
		case eventTranslated:
			return StageSynthesizing, nil
		case eventSkipped:
			// Filtered or throttled text completes the utterance here
			return StageIdle, nil
		case eventFail:
			return StageFailed, nil
		}
	case StageSynthesizing:
		switch ev {
		case eventSynthesized:
			return StagePlaying, nil
		case eventFail:
			return StageFailed, nil
		}
	case StagePlaying:
		if ev == eventPlaybackDone {
			return StageIdle, nil
		}
	case StageFailed:
		if ev == eventReset {
			return StageIdle, nil
		}
	default:
		return current, fmt.Errorf("unknown stage %q", current)
	}
	return current, fmt.Errorf("invalid transition: %s --(%s)--> ?", current, ev)
}
