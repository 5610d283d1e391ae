package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransition_HappyPath(t *testing.T) {
	steps := []struct {
		ev   stageEvent
		want Stage
	}{
		{eventStart, StageRecording},
		{eventStop, StageTranscribing},
		{eventTranscribed, StageTranslating},
		{eventTranslated, StageSynthesizing},
		{eventSynthesized, StagePlaying},
		{eventPlaybackDone, StageIdle},
	}

	current := StageIdle
	for _, step := range steps {
		next, err := transition(current, step.ev)
		require.NoError(t, err, "from %s on %s", current, step.ev)
		assert.Equal(t, step.want, next)
		current = next
	}
}

func TestTransition_SkipCompletesAtTranslating(t *testing.T) {
	next, err := transition(StageTranslating, eventSkipped)
	require.NoError(t, err)
	assert.Equal(t, StageIdle, next)
}

func TestTransition_FailureAndReset(t *testing.T) {
	for _, from := range []Stage{StageTranscribing, StageTranslating, StageSynthesizing} {
		next, err := transition(from, eventFail)
		require.NoError(t, err, "fail from %s", from)
		assert.Equal(t, StageFailed, next)
	}

	next, err := transition(StageFailed, eventReset)
	require.NoError(t, err)
	assert.Equal(t, StageIdle, next)
}

func TestTransition_IllegalMovesRejected(t *testing.T) {
	illegal := []struct {
		from Stage
		ev   stageEvent
	}{
		{StageIdle, eventStop},
		{StageIdle, eventFail},
		{StageRecording, eventStart},
		{StageRecording, eventTranslated},
		{StageTranslating, eventSynthesized},
		{StageTranslating, eventPlaybackDone},
		{StagePlaying, eventFail},
		{StagePlaying, eventStart},
		{StageFailed, eventStart},
	}

	for _, tt := range illegal {
		_, err := transition(tt.from, tt.ev)
		assert.Error(t, err, "expected %s --(%s)--> to be rejected", tt.from, tt.ev)
	}
}
