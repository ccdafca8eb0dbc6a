package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds everything the client needs at runtime. Defaults mirror
// the production widget: 800 px image bound, JPEG quality 70, 5 s of
// silence before capture auto-stops.
type Config struct {
	WebhookURL  string `yaml:"webhook_url"`
	FeedbackURL string `yaml:"feedback_url"`

	MaxImageWidth int `yaml:"max_image_width"`
	JPEGQuality   int `yaml:"jpeg_quality"`

	SilenceTimeout time.Duration `yaml:"silence_timeout"`
	RequestTimeout time.Duration `yaml:"request_timeout"`

	// Speech capture
	WhisperEndpoint string        `yaml:"whisper_endpoint"`
	Language        string        `yaml:"language"`
	SampleRate      int           `yaml:"sample_rate"`
	CaptureWindow   time.Duration `yaml:"capture_window"`

	UseMockGateway bool `yaml:"use_mock_gateway"`

	// Address for the local webhook stub (assistente stub).
	StubAddr string `yaml:"stub_addr"`
}

func defaults() *Config {
	return &Config{
		WebhookURL:      "https://chat-tdsoft.duckdns.org/webhook/chat-assistente",
		FeedbackURL:     "https://chat-tdsoft.duckdns.org/webhook/feedback",
		MaxImageWidth:   800,
		JPEGQuality:     70,
		SilenceTimeout:  5 * time.Second,
		RequestTimeout:  60 * time.Second,
		WhisperEndpoint: "http://localhost:7070/inference",
		Language:        "pt-BR",
		SampleRate:      16000,
		CaptureWindow:   2 * time.Second,
		StubAddr:        ":8080",
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getIntEnv(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func getBoolEnv(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v == "1" || v == "true" || v == "TRUE"
}

func getDurationEnv(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	// plain integers are taken as milliseconds, matching the widget's
	// SILENCE_TIMEOUT=5000 convention
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Millisecond
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	return def
}

// Load builds the config from defaults, an optional YAML file named by
// ASSISTENTE_CONFIG, a .env file when present, and environment
// variables, in increasing order of precedence.
func Load() (*Config, error) {
	// .env is optional; ignore when missing
	_ = godotenv.Load()

	cfg := defaults()

	if path := os.Getenv("ASSISTENTE_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	cfg.WebhookURL = getEnv("ASSISTENTE_WEBHOOK_URL", cfg.WebhookURL)
	cfg.FeedbackURL = getEnv("ASSISTENTE_FEEDBACK_URL", cfg.FeedbackURL)
	cfg.MaxImageWidth = getIntEnv("ASSISTENTE_MAX_IMAGE_WIDTH", cfg.MaxImageWidth)
	cfg.JPEGQuality = getIntEnv("ASSISTENTE_JPEG_QUALITY", cfg.JPEGQuality)
	cfg.SilenceTimeout = getDurationEnv("ASSISTENTE_SILENCE_TIMEOUT", cfg.SilenceTimeout)
	cfg.RequestTimeout = getDurationEnv("ASSISTENTE_REQUEST_TIMEOUT", cfg.RequestTimeout)
	cfg.WhisperEndpoint = getEnv("ASSISTENTE_WHISPER_ENDPOINT", cfg.WhisperEndpoint)
	cfg.Language = getEnv("ASSISTENTE_LANGUAGE", cfg.Language)
	cfg.SampleRate = getIntEnv("ASSISTENTE_SAMPLE_RATE", cfg.SampleRate)
	cfg.CaptureWindow = getDurationEnv("ASSISTENTE_CAPTURE_WINDOW", cfg.CaptureWindow)
	cfg.UseMockGateway = getBoolEnv("ASSISTENTE_MOCK", cfg.UseMockGateway)
	cfg.StubAddr = getEnv("ASSISTENTE_STUB_ADDR", cfg.StubAddr)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.WebhookURL == "" {
		return fmt.Errorf("webhook URL must be set")
	}
	if c.FeedbackURL == "" {
		return fmt.Errorf("feedback URL must be set")
	}
	if c.MaxImageWidth <= 0 {
		return fmt.Errorf("max image width must be positive, got %d", c.MaxImageWidth)
	}
	if c.JPEGQuality <= 0 || c.JPEGQuality > 100 {
		return fmt.Errorf("jpeg quality must be in (0,100], got %d", c.JPEGQuality)
	}
	if c.SilenceTimeout <= 0 {
		return fmt.Errorf("silence timeout must be positive")
	}
	return nil
}
