package dispatch

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/lingolens/translate-gateway/internal/cache"
	"github.com/lingolens/translate-gateway/internal/observability"
	"github.com/lingolens/translate-gateway/internal/ratelimit"
	"github.com/lingolens/translate-gateway/internal/textfilter"
	"github.com/lingolens/translate-gateway/internal/translate"
)

var (
	// ErrFiltered means the text did not qualify for translation. Expected
	// and silent on the event path.
	ErrFiltered = errors.New("text not eligible for translation")

	// ErrRateLimited means the request was suppressed by the in-flight guard
	// or the cooldown. Expected and silent on the event path.
	ErrRateLimited = errors.New("translation request suppressed")
)

// Callbacks deliver dispatcher output downstream. Each field is optional.
// Callbacks may fire after the consumer has gone away (there is no
// cancellation of in-flight translation calls), so implementations must
// tolerate a missing display target.
type Callbacks struct {
	// OnTranslation delivers a finished or cached translation
	OnTranslation func(sourceText, translatedText string)

	// OnCleared asks the consumer to clear any displayed translation. Fired
	// when OCR text stops qualifying for translation.
	OnCleared func()

	// OnStatus reports a user-visible status message
	OnStatus func(message string)
}

// Options configures a Dispatcher
type Options struct {
	Filter     *textfilter.Filter
	Cache      *cache.Cache
	Limiter    *ratelimit.Limiter
	Translator translate.Translator

	// LanguageA and LanguageB are the deployment's two-language set
	LanguageA string
	LanguageB string

	Callbacks Callbacks
	Logger    zerolog.Logger

	// RequestTimeout bounds each external translation call
	RequestTimeout time.Duration

	// RedispatchLatest re-evaluates the newest dropped text once the
	// in-flight request resolves, skipping the cooldown but not the
	// single-flight guard. Off by default: the continuous source will
	// supersede dropped text on its own.
	RedispatchLatest bool

	// Now overrides the clock, for tests
	Now func() time.Time
}

// Dispatcher sits between a noisy text source and the rate-limited
// translation service. It consults the filter, the cache, and the limiter
// synchronously, issues at most one external call per cooldown window, and
// drops everything else. Dropped events are never replayed; the next
// incoming event gets the fresh opportunity.
type Dispatcher struct {
	filter     *textfilter.Filter
	cache      *cache.Cache
	limiter    *ratelimit.Limiter
	translator translate.Translator
	langA      string
	langB      string
	callbacks  Callbacks
	logger     zerolog.Logger
	timeout    time.Duration
	redispatch bool
	now        func() time.Time

	mu            sync.Mutex
	latestDropped string
}

// New creates a Dispatcher
func New(opts Options) *Dispatcher {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 30 * time.Second
	}
	return &Dispatcher{
		filter:     opts.Filter,
		cache:      opts.Cache,
		limiter:    opts.Limiter,
		translator: opts.Translator,
		langA:      opts.LanguageA,
		langB:      opts.LanguageB,
		callbacks:  opts.Callbacks,
		logger:     opts.Logger,
		timeout:    opts.RequestTimeout,
		redispatch: opts.RedispatchLatest,
		now:        opts.Now,
	}
}

// Handle processes one incoming text event. It never blocks: the filter,
// cache, and limiter checks run inline and the external call, if any, is
// scheduled on its own goroutine.
func (d *Dispatcher) Handle(event TextEvent) {
	if !d.filter.ShouldTranslate(event.Text) {
		observability.RecordEventDropped("filtered")
		if event.Source == SourceOCR && d.callbacks.OnCleared != nil {
			d.callbacks.OnCleared()
		}
		return
	}

	now := d.now()
	if translated, ok := d.cache.Lookup(event.Text, now); ok {
		d.deliver(event.Text, translated)
		return
	}

	if !d.limiter.TryAcquire(now) {
		observability.RecordEventDropped("rate_limited")
		if d.redispatch {
			d.mu.Lock()
			d.latestDropped = event.Text
			d.mu.Unlock()
		}
		return
	}

	go d.dispatch(event.Text)
}

// TranslateOnce runs the same filter/cache/limiter logic synchronously and
// returns the translation. The voice pipeline calls this per utterance, where
// the next stage needs the result in hand. Returns ErrFiltered or
// ErrRateLimited when no call was warranted.
func (d *Dispatcher) TranslateOnce(ctx context.Context, text string) (string, error) {
	if !d.filter.ShouldTranslate(text) {
		observability.RecordEventDropped("filtered")
		return "", ErrFiltered
	}

	now := d.now()
	if translated, ok := d.cache.Lookup(text, now); ok {
		d.deliver(text, translated)
		return translated, nil
	}

	if !d.limiter.TryAcquire(now) {
		observability.RecordEventDropped("rate_limited")
		return "", ErrRateLimited
	}
	defer d.limiter.Release()

	translated, err := d.callTranslator(ctx, text)
	if err != nil {
		return "", err
	}

	d.cache.Store(text, translated, d.now())
	d.deliver(text, translated)
	return translated, nil
}

// dispatch owns the limiter slot and must release it on every path
func (d *Dispatcher) dispatch(text string) {
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	translated, err := d.callTranslator(ctx, text)
	if err != nil {
		d.logger.Warn().Err(err).Msg("Translation request failed")
		observability.RecordError("translation_failed", "dispatch")
		d.limiter.Release()
		if d.callbacks.OnStatus != nil {
			d.callbacks.OnStatus("translation failed")
		}
		d.redispatchLatest()
		return
	}

	// Store before releasing so a racing event finds the cache populated
	d.cache.Store(text, translated, d.now())
	d.limiter.Release()
	d.deliver(text, translated)
	d.redispatchLatest()
}

func (d *Dispatcher) callTranslator(ctx context.Context, text string) (string, error) {
	start := time.Now()
	translated, err := d.translator.Translate(ctx, translate.Request{
		SourceText: text,
		LanguageA:  d.langA,
		LanguageB:  d.langB,
	})
	observability.RecordTranslate(start, err == nil)
	return translated, err
}

// redispatchLatest gives the newest dropped text a second look after the
// in-flight request resolved. The stash is cleared first, so the chain
// terminates after at most one follow-up call.
func (d *Dispatcher) redispatchLatest() {
	if !d.redispatch {
		return
	}

	d.mu.Lock()
	text := d.latestDropped
	d.latestDropped = ""
	d.mu.Unlock()
	if text == "" {
		return
	}

	now := d.now()
	if translated, ok := d.cache.Lookup(text, now); ok {
		d.deliver(text, translated)
		return
	}
	if !d.limiter.TryAcquireIgnoringCooldown(now) {
		return
	}
	go d.dispatch(text)
}

func (d *Dispatcher) deliver(sourceText, translatedText string) {
	if d.callbacks.OnTranslation != nil {
		d.callbacks.OnTranslation(sourceText, translatedText)
	}
}
