package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all configuration for the translate gateway service
type Config struct {
	// Server configuration
	Port string `envconfig:"PORT" default:"8080"`

	// Translation API configuration
	TranslateAPIKey string `envconfig:"TRANSLATE_API_KEY" required:"true"`
	TranslateAPIURL string `envconfig:"TRANSLATE_API_URL" default:"https://generativelanguage.googleapis.com/v1beta/models"`
	TranslateModel  string `envconfig:"TRANSLATE_MODEL" default:"gemini-2.0-flash"`

	// Language pair for the deployment; translation direction is detected per text
	SourceLanguage string `envconfig:"SOURCE_LANGUAGE" default:"ja"` // Language code (ja, en, es, etc.)
	TargetLanguage string `envconfig:"TARGET_LANGUAGE" default:"en"`

	// Deepgram STT API configuration (voice flow)
	DeepgramAPIKey   string `envconfig:"DEEPGRAM_API_KEY" required:"true"`
	DeepgramModel    string `envconfig:"DEEPGRAM_MODEL" default:"nova-2"` // nova-2, enhanced, base
	DeepgramLanguage string `envconfig:"DEEPGRAM_LANGUAGE" default:"ja"`

	// Cartesia TTS API configuration (voice flow)
	CartesiaAPIKey  string `envconfig:"CARTESIA_API_KEY" required:"true"`
	CartesiaVoiceID string `envconfig:"CARTESIA_VOICE_ID" default:"sonic-english"` // Voice ID for Cartesia
	CartesiaModelID string `envconfig:"CARTESIA_MODEL_ID" default:"sonic"`         // Model ID (sonic, etc.)

	// Dispatch configuration
	CooldownSeconds             int  `envconfig:"COOLDOWN_SECONDS" default:"5"`                 // Minimum spacing between translation requests
	CacheTTLSeconds             int  `envconfig:"CACHE_TTL_SECONDS" default:"3600"`             // Cached translation time-to-live
	CacheCleanupIntervalSeconds int  `envconfig:"CACHE_CLEANUP_INTERVAL_SECONDS" default:"300"` // Janitor sweep interval
	RedispatchLatest            bool `envconfig:"REDISPATCH_LATEST" default:"false"`            // Re-evaluate newest dropped text once the in-flight request resolves
	RequestTimeoutSeconds       int  `envconfig:"REQUEST_TIMEOUT_SECONDS" default:"30"`         // Per external call

	// Script filter configuration. When unset, the built-in
	// Hiragana/Katakana/CJK ranges gate the OCR flow.
	ScriptRangesFile string `envconfig:"SCRIPT_RANGES_FILE" default:""`

	// Resilience configuration
	CircuitBreakerMaxFailures  int `envconfig:"CIRCUIT_BREAKER_MAX_FAILURES" default:"5"`   // Failures before opening circuit
	CircuitBreakerResetTimeout int `envconfig:"CIRCUIT_BREAKER_RESET_TIMEOUT" default:"30"` // Seconds before attempting recovery

	// Optional gRPC health endpoint of a self-hosted translator front, probed by /ready
	TranslatorHealthGRPCAddr string `envconfig:"TRANSLATOR_HEALTH_GRPC_ADDR" default:""`

	// Observability configuration
	LogLevel       string `envconfig:"LOG_LEVEL" default:"info"`       // Log level: debug, info, warn, error
	LogPretty      bool   `envconfig:"LOG_PRETTY" default:"false"`     // Pretty print logs (for development)
	MetricsEnabled bool   `envconfig:"METRICS_ENABLED" default:"true"` // Enable Prometheus metrics
}

// Load reads configuration from environment variables
// It first attempts to load from .env file if it exists, then from environment
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	return LoadFromEnv()
}

// LoadFromEnv loads configuration directly from environment variables
// without attempting to load .env file (useful for containerized deployments)
func LoadFromEnv() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks field combinations the envconfig tags cannot express
func (c *Config) Validate() error {
	if c.TranslateAPIKey == "" {
		return fmt.Errorf("TRANSLATE_API_KEY is required")
	}
	if c.DeepgramAPIKey == "" {
		return fmt.Errorf("DEEPGRAM_API_KEY is required")
	}
	if c.CartesiaAPIKey == "" {
		return fmt.Errorf("CARTESIA_API_KEY is required")
	}
	if c.SourceLanguage == c.TargetLanguage {
		return fmt.Errorf("SOURCE_LANGUAGE and TARGET_LANGUAGE must differ (both %q)", c.SourceLanguage)
	}
	if c.CooldownSeconds < 0 {
		return fmt.Errorf("COOLDOWN_SECONDS must not be negative")
	}
	if c.CacheTTLSeconds <= 0 {
		return fmt.Errorf("CACHE_TTL_SECONDS must be positive")
	}
	if c.CacheCleanupIntervalSeconds <= 0 {
		return fmt.Errorf("CACHE_CLEANUP_INTERVAL_SECONDS must be positive")
	}
	return nil
}

// GetEnv returns the value of an environment variable or a default value
func GetEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
