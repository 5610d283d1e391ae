package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Session metrics
	activeSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "translate_gateway_active_sessions",
		Help: "Number of active streaming sessions",
	})

	totalSessions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "translate_gateway_sessions_total",
		Help: "Total number of streaming sessions handled",
	})

	// Dispatch metrics
	eventsDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "translate_gateway_events_dropped_total",
		Help: "Text events that did not reach the translation service",
	}, []string{"reason"}) // reason: "filtered" or "rate_limited"

	cacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "translate_gateway_cache_lookups_total",
		Help: "Translation cache lookups",
	}, []string{"result"}) // result: "hit" or "miss"

	cacheEntries = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "translate_gateway_cache_entries",
		Help: "Entries currently held by the translation cache",
	})

	// Translation metrics
	translateRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "translate_gateway_translate_requests_total",
		Help: "Total number of translation requests",
	}, []string{"status"})

	translateLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "translate_gateway_translate_latency_seconds",
		Help:    "Translation request latency in seconds",
		Buckets: []float64{0.1, 0.25, 0.5, 1.0, 2.0, 5.0, 10.0},
	})

	// STT metrics
	sttRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "translate_gateway_stt_requests_total",
		Help: "Total number of transcription requests",
	}, []string{"status"})

	sttLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "translate_gateway_stt_latency_seconds",
		Help:    "Transcription latency in seconds",
		Buckets: []float64{0.1, 0.25, 0.5, 1.0, 2.0, 5.0},
	})

	// TTS metrics
	ttsRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "translate_gateway_tts_requests_total",
		Help: "Total number of speech synthesis requests",
	}, []string{"status"})

	ttsLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "translate_gateway_tts_latency_seconds",
		Help:    "Speech synthesis latency in seconds",
		Buckets: []float64{0.1, 0.25, 0.5, 1.0, 2.0, 5.0},
	})

	// Voice pipeline metrics
	utterances = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "translate_gateway_utterances_total",
		Help: "Voice utterances by terminal outcome",
	}, []string{"outcome"}) // outcome: "completed", "skipped", "failed"

	// Error metrics
	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "translate_gateway_errors_total",
		Help: "Total number of errors",
	}, []string{"type", "component"})

	// Circuit breaker metrics
	circuitBreakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "translate_gateway_circuit_breaker_state",
		Help: "Circuit breaker state (0=closed, 1=open, 2=half-open)",
	}, []string{"service"})

	circuitBreakerFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "translate_gateway_circuit_breaker_failures_total",
		Help: "Total circuit breaker failures",
	}, []string{"service"})
)

// RecordSessionStart records the start of a streaming session
func RecordSessionStart() {
	activeSessions.Inc()
	totalSessions.Inc()
}

// RecordSessionEnd records the end of a streaming session
func RecordSessionEnd() {
	activeSessions.Dec()
}

// RecordEventDropped records a text event suppressed before dispatch
func RecordEventDropped(reason string) {
	eventsDropped.WithLabelValues(reason).Inc()
}

// RecordCacheLookup records a cache hit or miss
func RecordCacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	cacheLookups.WithLabelValues(result).Inc()
}

// SetCacheEntries updates the cache size gauge
func SetCacheEntries(n int) {
	cacheEntries.Set(float64(n))
}

// RecordTranslate records the outcome and latency of a translation request
func RecordTranslate(start time.Time, success bool) {
	translateLatency.Observe(time.Since(start).Seconds())
	translateRequests.WithLabelValues(statusLabel(success)).Inc()
}

// RecordSTT records the outcome and latency of a transcription request
func RecordSTT(start time.Time, success bool) {
	sttLatency.Observe(time.Since(start).Seconds())
	sttRequests.WithLabelValues(statusLabel(success)).Inc()
}

// RecordTTS records the outcome and latency of a synthesis request
func RecordTTS(start time.Time, success bool) {
	ttsLatency.Observe(time.Since(start).Seconds())
	ttsRequests.WithLabelValues(statusLabel(success)).Inc()
}

// RecordUtterance records the terminal outcome of a voice utterance
func RecordUtterance(outcome string) {
	utterances.WithLabelValues(outcome).Inc()
}

// RecordError records an error
func RecordError(errorType, component string) {
	errorsTotal.WithLabelValues(errorType, component).Inc()
}

// UpdateCircuitBreakerState updates circuit breaker state metric
func UpdateCircuitBreakerState(service string, state int) {
	circuitBreakerState.WithLabelValues(service).Set(float64(state))
}

// IncrementCircuitBreakerFailures increments circuit breaker failure counter
func IncrementCircuitBreakerFailures(service string) {
	circuitBreakerFailures.WithLabelValues(service).Inc()
}

func statusLabel(success bool) string {
	if success {
		return "success"
	}
	return "error"
}
