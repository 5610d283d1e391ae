package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/lingolens/translate-gateway/internal/dispatch"
	"github.com/lingolens/translate-gateway/internal/observability"
	"github.com/lingolens/translate-gateway/internal/stt"
	"github.com/lingolens/translate-gateway/internal/tts"
)

// ErrBusy is returned when a new utterance is started while the current one
// is still past Idle
var ErrBusy = errors.New("an utterance is already in progress")

// Utterance is one end-to-end voice unit of work: recorded audio through
// transcription and translation to synthesized reply audio
type Utterance struct {
	ID          string
	Audio       []byte
	MimeHint    string
	Transcript  string
	Translation string
}

// Callbacks deliver pipeline output downstream. Each field is optional, and
// implementations must tolerate firing after the session has gone away.
type Callbacks struct {
	// OnStageChanged fires on every stage transition
	OnStageChanged func(stage Stage)

	// OnStatus reports a user-visible status message
	OnStatus func(message string)

	// OnAudio delivers synthesized reply audio for playback
	OnAudio func(u *Utterance, audio *tts.Audio)
}

// Options configures a Chain
type Options struct {
	Transcriber stt.Transcriber
	Dispatcher  *dispatch.Dispatcher
	Synthesizer tts.Synthesizer

	// Voice is the synthesis voice profile; empty uses the client default
	Voice string

	Callbacks Callbacks
	Logger    zerolog.Logger

	// StageTimeout bounds each of the transcription and synthesis calls
	StageTimeout time.Duration
}

// Chain sequences the three dependent external calls of the voice flow:
// transcribe, translate, synthesize. One utterance is in flight at a time;
// every transition goes through the stage table, so an utterance can only
// move forward or fail to Idle.
type Chain struct {
	transcriber stt.Transcriber
	dispatcher  *dispatch.Dispatcher
	synthesizer tts.Synthesizer
	voice       string
	callbacks   Callbacks
	logger      zerolog.Logger
	timeout     time.Duration

	mu      sync.Mutex
	stage   Stage
	current *Utterance
}

// NewChain creates a Chain in the Idle stage
func NewChain(opts Options) *Chain {
	if opts.StageTimeout <= 0 {
		opts.StageTimeout = 30 * time.Second
	}
	return &Chain{
		transcriber: opts.Transcriber,
		dispatcher:  opts.Dispatcher,
		synthesizer: opts.Synthesizer,
		voice:       opts.Voice,
		callbacks:   opts.Callbacks,
		logger:      opts.Logger,
		timeout:     opts.StageTimeout,
		stage:       StageIdle,
	}
}

// Stage returns the current pipeline stage
func (c *Chain) Stage() Stage {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stage
}

// StartRecording begins a new utterance. Fails with ErrBusy while the
// current utterance is past Idle.
func (c *Chain) StartRecording(mimeHint string) (*Utterance, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stage != StageIdle {
		return nil, ErrBusy
	}

	next, err := transition(c.stage, eventStart)
	if err != nil {
		return nil, err
	}

	c.current = &Utterance{
		ID:       uuid.New().String(),
		MimeHint: mimeHint,
	}
	c.setStageLocked(next)
	return c.current, nil
}

// AppendAudio adds a chunk of recorded audio to the current utterance
func (c *Chain) AppendAudio(chunk []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stage != StageRecording || c.current == nil {
		return fmt.Errorf("no recording in progress")
	}
	c.current.Audio = append(c.current.Audio, chunk...)
	return nil
}

// StopRecording ends the recording and kicks off the asynchronous
// transcribe -> translate -> synthesize sequence. Concurrent stop triggers
// are idempotent: only the first one transitions, the rest are no-ops.
func (c *Chain) StopRecording() {
	c.mu.Lock()
	if c.stage != StageRecording || c.current == nil {
		c.mu.Unlock()
		return
	}

	next, err := transition(c.stage, eventStop)
	if err != nil {
		c.mu.Unlock()
		return
	}
	u := c.current
	c.setStageLocked(next)
	c.mu.Unlock()

	go c.process(u)
}

// PlaybackFinished returns the chain to Idle once the client has played the
// synthesized audio. Recording is not re-armed automatically.
func (c *Chain) PlaybackFinished() {
	c.mu.Lock()
	defer c.mu.Unlock()

	next, err := transition(c.stage, eventPlaybackDone)
	if err != nil {
		return
	}
	c.current = nil
	c.setStageLocked(next)
}

// EndSession force-stops a recording in progress, treated as a stop signal.
// Any in-flight stage is left to complete; its callbacks must cope with the
// session being gone.
func (c *Chain) EndSession() {
	c.StopRecording()
}

// process drives one utterance through the external stages. Each failure
// surfaces a status message and lands the machine back at Idle; nothing is
// retried.
func (c *Chain) process(u *Utterance) {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	// Transcribing
	start := time.Now()
	transcription, err := c.transcriber.Transcribe(ctx, u.Audio, u.MimeHint)
	observability.RecordSTT(start, err == nil)
	if err != nil {
		c.fail("transcription failed", err)
		return
	}
	u.Transcript = transcription.Text

	if !c.advance(eventTranscribed) {
		return
	}

	// Translating: the same filter/cache/limiter logic as the frame flow,
	// scoped to this pipeline's own dispatcher instance
	translated, err := c.dispatcher.TranslateOnce(ctx, u.Transcript)
	switch {
	case errors.Is(err, dispatch.ErrFiltered):
		c.skip("")
		return
	case errors.Is(err, dispatch.ErrRateLimited):
		c.skip("translation throttled, try again shortly")
		return
	case err != nil:
		c.fail("translation failed", err)
		return
	}
	u.Translation = translated

	if !c.advance(eventTranslated) {
		return
	}

	// Synthesizing
	start = time.Now()
	audio, err := c.synthesizer.Synthesize(ctx, u.Translation, c.voice)
	observability.RecordTTS(start, err == nil)
	if err != nil {
		c.fail("speech synthesis failed", err)
		return
	}

	if !c.advance(eventSynthesized) {
		return
	}
	observability.RecordUtterance("completed")

	if c.callbacks.OnAudio != nil {
		c.callbacks.OnAudio(u, audio)
	}
}

// advance applies one stage event, reporting whether the machine moved
func (c *Chain) advance(ev stageEvent) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	next, err := transition(c.stage, ev)
	if err != nil {
		c.logger.Error().Err(err).Msg("Stage transition rejected")
		return false
	}
	c.setStageLocked(next)
	return true
}

// skip completes the utterance at Translating without synthesis
func (c *Chain) skip(statusMsg string) {
	if statusMsg != "" && c.callbacks.OnStatus != nil {
		c.callbacks.OnStatus(statusMsg)
	}
	observability.RecordUtterance("skipped")

	c.mu.Lock()
	defer c.mu.Unlock()
	next, err := transition(c.stage, eventSkipped)
	if err != nil {
		c.logger.Error().Err(err).Msg("Stage transition rejected")
		return
	}
	c.current = nil
	c.setStageLocked(next)
}

// fail surfaces the failure and returns the machine to Idle through Failed
func (c *Chain) fail(statusMsg string, err error) {
	c.logger.Warn().Err(err).Str("stage", string(c.Stage())).Msg("Utterance stage failed")
	if c.callbacks.OnStatus != nil {
		c.callbacks.OnStatus(statusMsg)
	}
	observability.RecordError("stage_failed", "pipeline")
	observability.RecordUtterance("failed")

	c.mu.Lock()
	defer c.mu.Unlock()

	next, terr := transition(c.stage, eventFail)
	if terr != nil {
		c.logger.Error().Err(terr).Msg("Stage transition rejected")
		return
	}
	c.setStageLocked(next)

	next, terr = transition(c.stage, eventReset)
	if terr != nil {
		c.logger.Error().Err(terr).Msg("Stage transition rejected")
		return
	}
	c.current = nil
	c.setStageLocked(next)
}

// setStageLocked updates the stage and fires the callback; c.mu must be held
func (c *Chain) setStageLocked(next Stage) {
	c.stage = next
	if c.callbacks.OnStageChanged != nil {
		c.callbacks.OnStageChanged(next)
	}
}
