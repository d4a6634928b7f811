package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// ConfigFileEnv names an optional YAML file. Its keys are the lower-case
// environment variable names; a set environment variable always wins.
const ConfigFileEnv = "DOCSHELF_CONFIG"

type Config struct {
	APIBaseURL               string
	APIRequestTimeoutSeconds int
	APIRetryMaxAttempts      int
	APIRetryInitialBackoffMS int
	APIRetryMaxBackoffMS     int
	APIBreakerEnabled        bool

	LogLevel string

	ViewerPlatform    string
	ViewerProxyPrefix string

	AllowVideoUploads      bool
	PDFInspectEnabled      bool
	UploadCompleteDelayMS  int
	JournalDSN             string
	JournalMemoryMaxRecord int

	NATSURL           string
	NATSSubjectPrefix string

	MetricsAddr string
}

func Load() (Config, error) {
	file, err := readFile(os.Getenv(ConfigFileEnv))
	if err != nil {
		return Config{}, err
	}
	src := source{file: file}

	return Config{
		APIBaseURL:               strings.TrimRight(src.str("API_BASE_URL", "http://localhost:3000"), "/"),
		APIRequestTimeoutSeconds: src.int("API_REQUEST_TIMEOUT_SECONDS", 30),
		APIRetryMaxAttempts:      src.int("API_RETRY_MAX_ATTEMPTS", 1),
		APIRetryInitialBackoffMS: src.int("API_RETRY_INITIAL_BACKOFF_MS", 200),
		APIRetryMaxBackoffMS:     src.int("API_RETRY_MAX_BACKOFF_MS", 2000),
		APIBreakerEnabled:        src.bool("API_BREAKER_ENABLED", true),

		LogLevel: src.str("LOG_LEVEL", "info"),

		ViewerPlatform:    src.str("VIEWER_PLATFORM", ""),
		ViewerProxyPrefix: src.str("VIEWER_PROXY_PREFIX", ""),

		AllowVideoUploads:      src.bool("ALLOW_VIDEO_UPLOADS", false),
		PDFInspectEnabled:      src.bool("PDF_INSPECT_ENABLED", true),
		UploadCompleteDelayMS:  src.int("UPLOAD_COMPLETE_DELAY_MS", 1500),
		JournalDSN:             src.str("JOURNAL_DSN", ""),
		JournalMemoryMaxRecord: src.int("JOURNAL_MEMORY_MAX_RECORDS", 500),

		NATSURL:           src.str("NATS_URL", ""),
		NATSSubjectPrefix: src.str("NATS_SUBJECT_PREFIX", "docshelf"),

		MetricsAddr: src.str("METRICS_ADDR", ""),
	}, nil
}

func readFile(path string) (map[string]string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var values map[string]any
	if err := yaml.Unmarshal(raw, &values); err != nil {
		return nil, fmt.Errorf("parse config file %s: %w", path, err)
	}
	out := make(map[string]string, len(values))
	for key, value := range values {
		if value == nil {
			continue
		}
		out[strings.ToUpper(strings.TrimSpace(key))] = fmt.Sprint(value)
	}
	return out, nil
}

type source struct {
	file map[string]string
}

func (s source) lookup(key string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return s.file[key]
}

func (s source) str(key, fallback string) string {
	v := s.lookup(key)
	if v == "" {
		return fallback
	}
	return v
}

func (s source) int(key string, fallback int) int {
	v := s.lookup(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return fallback
	}
	return n
}

func (s source) bool(key string, fallback bool) bool {
	v := s.lookup(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		return fallback
	}
	return parsed
}
