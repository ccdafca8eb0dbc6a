package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/tdsoft/chat-assistente/internal/config"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.MaxImageWidth != 800 {
		t.Fatalf("expected default max width 800, got %d", cfg.MaxImageWidth)
	}
	if cfg.JPEGQuality != 70 {
		t.Fatalf("expected default quality 70, got %d", cfg.JPEGQuality)
	}
	if cfg.SilenceTimeout != 5*time.Second {
		t.Fatalf("expected default silence timeout 5s, got %s", cfg.SilenceTimeout)
	}
}

func TestEnvOverridesAndMillisecondConvention(t *testing.T) {
	t.Setenv("ASSISTENTE_WEBHOOK_URL", "http://localhost:9999/hook")
	t.Setenv("ASSISTENTE_SILENCE_TIMEOUT", "2500")
	t.Setenv("ASSISTENTE_REQUEST_TIMEOUT", "30s")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.WebhookURL != "http://localhost:9999/hook" {
		t.Fatalf("env override lost: %q", cfg.WebhookURL)
	}
	if cfg.SilenceTimeout != 2500*time.Millisecond {
		t.Fatalf("plain integers are milliseconds, got %s", cfg.SilenceTimeout)
	}
	if cfg.RequestTimeout != 30*time.Second {
		t.Fatalf("duration strings pass through, got %s", cfg.RequestTimeout)
	}
}

func TestYAMLFileThenEnvPrecedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "assistente.yaml")
	data := []byte("max_image_width: 640\njpeg_quality: 50\n")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config file: %v", err)
	}

	t.Setenv("ASSISTENTE_CONFIG", path)
	t.Setenv("ASSISTENTE_JPEG_QUALITY", "90")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.MaxImageWidth != 640 {
		t.Fatalf("yaml value lost, got %d", cfg.MaxImageWidth)
	}
	if cfg.JPEGQuality != 90 {
		t.Fatalf("env must beat yaml, got %d", cfg.JPEGQuality)
	}
}

func TestValidationRejectsBadQuality(t *testing.T) {
	t.Setenv("ASSISTENTE_JPEG_QUALITY", "150")

	if _, err := config.Load(); err == nil {
		t.Fatal("expected validation error for quality > 100")
	}
}
