package logging

import (
	"bytes"
	"encoding/json"
	"testing"
)

func TestNewJSONLoggerFiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONLogger(&buf, "docshelf", "warn")

	logger.Info("upload_finished", "file", "a.pdf")
	logger.Warn("file_list_refresh_failed", "operation", "upload")

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	if len(lines) != 1 {
		t.Fatalf("expected only the warning, got %d lines: %s", len(lines), buf.String())
	}
	var record map[string]any
	if err := json.Unmarshal(lines[0], &record); err != nil {
		t.Fatalf("decode log line: %v", err)
	}
	if record["msg"] != "file_list_refresh_failed" || record["service"] != "docshelf" {
		t.Fatalf("unexpected record: %v", record)
	}
}

func TestParseLevelOffSilencesErrors(t *testing.T) {
	var buf bytes.Buffer
	NewJSONLogger(&buf, "docshelf", "off").Error("boom")
	if buf.Len() != 0 {
		t.Fatalf("expected no output, got %s", buf.String())
	}
}
