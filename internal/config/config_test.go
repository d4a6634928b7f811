package config

import (
	"os"
	"path/filepath"
	"testing"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		ConfigFileEnv, "API_BASE_URL", "API_REQUEST_TIMEOUT_SECONDS", "API_RETRY_MAX_ATTEMPTS",
		"VIEWER_PLATFORM", "ALLOW_VIDEO_UPLOADS", "UPLOAD_COMPLETE_DELAY_MS", "JOURNAL_DSN", "NATS_URL",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.APIBaseURL != "http://localhost:3000" {
		t.Fatalf("unexpected base url %q", cfg.APIBaseURL)
	}
	if cfg.APIRequestTimeoutSeconds != 30 || cfg.APIRetryMaxAttempts != 1 {
		t.Fatalf("unexpected api defaults: timeout=%d attempts=%d", cfg.APIRequestTimeoutSeconds, cfg.APIRetryMaxAttempts)
	}
	if cfg.UploadCompleteDelayMS != 1500 || cfg.AllowVideoUploads || !cfg.PDFInspectEnabled {
		t.Fatalf("unexpected upload defaults: %+v", cfg)
	}
	if cfg.JournalDSN != "" || cfg.NATSURL != "" {
		t.Fatalf("expected optional backends disabled by default")
	}
}

func TestLoadFileOverlayWithEnvPrecedence(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "docshelf.yaml")
	content := "api_base_url: http://files.internal:3000/\napi_retry_max_attempts: 3\nallow_video_uploads: true\nviewer_platform: android\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv(ConfigFileEnv, path)
	t.Setenv("API_RETRY_MAX_ATTEMPTS", "2")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.APIBaseURL != "http://files.internal:3000" {
		t.Fatalf("expected file base url without trailing slash, got %q", cfg.APIBaseURL)
	}
	if cfg.APIRetryMaxAttempts != 2 {
		t.Fatalf("expected env to win, got %d", cfg.APIRetryMaxAttempts)
	}
	if !cfg.AllowVideoUploads || cfg.ViewerPlatform != "android" {
		t.Fatalf("expected file values, got %+v", cfg)
	}
}

func TestLoadRejectsBrokenFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "broken.yaml")
	if err := os.WriteFile(path, []byte("api_base_url: [unterminated"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv(ConfigFileEnv, path)

	if _, err := Load(); err == nil {
		t.Fatalf("expected parse error")
	}
}
