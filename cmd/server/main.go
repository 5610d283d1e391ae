package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lingolens/translate-gateway/internal/cache"
	"github.com/lingolens/translate-gateway/internal/config"
	"github.com/lingolens/translate-gateway/internal/gateway"
	"github.com/lingolens/translate-gateway/internal/observability"
	"github.com/lingolens/translate-gateway/internal/stt"
	"github.com/lingolens/translate-gateway/internal/textfilter"
	"github.com/lingolens/translate-gateway/internal/translate"
	"github.com/lingolens/translate-gateway/internal/tts"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		// Use fmt for fatal errors before logger is initialized
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize structured logger
	observability.InitLogger(cfg.LogLevel, cfg.LogPretty)
	logger := observability.GetLogger()

	logger.Info().
		Str("port", cfg.Port).
		Str("language_pair", cfg.SourceLanguage+"-"+cfg.TargetLanguage).
		Str("log_level", cfg.LogLevel).
		Bool("metrics_enabled", cfg.MetricsEnabled).
		Msg("Translate Gateway Service starting")

	// Script ranges: built-in Hiragana/Katakana/CJK unless overridden
	scriptRanges := textfilter.DefaultScriptRanges()
	if cfg.ScriptRangesFile != "" {
		scriptRanges, err = textfilter.LoadScriptRanges(cfg.ScriptRangesFile)
		if err != nil {
			logger.Fatal().Err(err).Str("path", cfg.ScriptRangesFile).Msg("Failed to load script ranges")
		}
		logger.Info().Int("ranges", len(scriptRanges)).Msg("Loaded script ranges override")
	}

	// Shared translation cache with its background janitor
	translationCache := cache.New(time.Duration(cfg.CacheTTLSeconds) * time.Second)
	janitorCtx, stopJanitor := context.WithCancel(context.Background())
	defer stopJanitor()
	go translationCache.RunJanitor(janitorCtx, time.Duration(cfg.CacheCleanupIntervalSeconds)*time.Second)

	services := gateway.Services{
		Translator:   translate.NewGeminiClient(cfg),
		Transcriber:  stt.NewDeepgramClient(cfg),
		Synthesizer:  tts.NewCartesiaClient(cfg),
		Cache:        translationCache,
		ScriptRanges: scriptRanges,
	}

	// Create HTTP server
	mux := http.NewServeMux()

	// Live streaming endpoint for OCR text and voice utterances
	mux.HandleFunc("/streams/live", gateway.HandleLiveWS(cfg, services))

	// Health check endpoint
	mux.HandleFunc("/health", observability.HealthCheckHandler())

	// Readiness endpoint
	var checks []observability.Check
	if cfg.TranslatorHealthGRPCAddr != "" {
		checks = append(checks, observability.Check{
			Name: "translator",
			Probe: func(ctx context.Context) (bool, error) {
				return translate.ProbeGRPCHealth(ctx, cfg.TranslatorHealthGRPCAddr)
			},
		})
	}
	mux.HandleFunc("/ready", observability.ReadinessHandler(checks...))

	// Metrics endpoint (Prometheus)
	if cfg.MetricsEnabled {
		mux.Handle("/metrics", promhttp.Handler())
		logger.Info().Msg("Prometheus metrics enabled at /metrics")
	}

	// Create HTTP server with timeouts
	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info().
			Str("port", cfg.Port).
			Str("endpoint", fmt.Sprintf("ws://localhost:%s/streams/live", cfg.Port)).
			Msg("Server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	logger.Info().Msg("Server exited gracefully")
}
