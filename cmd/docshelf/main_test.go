package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
)

const filesJSON = `[
	{"id":"1","title":"Budget","originalname":"budget.pdf","filename":"budget-1.pdf","size":2048,"uploadDate":"2026-01-02T10:00:00Z","fileType":"pdf","extractedText":"Quarterly budget review for the platform team"},
	{"id":2,"title":"","originalname":"demo.mp4","filename":"demo-2.mp4","size":5242880,"uploadDate":"2026-01-03T10:00:00Z","fileType":"video"}
]`

func setTestEnv(t *testing.T, baseURL string) {
	t.Helper()
	t.Setenv("DOCSHELF_CONFIG", "")
	t.Setenv("API_BASE_URL", baseURL)
	t.Setenv("LOG_LEVEL", "off")
	t.Setenv("PDF_INSPECT_ENABLED", "false")
	t.Setenv("JOURNAL_DSN", "")
	t.Setenv("NATS_URL", "")
	t.Setenv("METRICS_ADDR", "")
	t.Setenv("UPLOAD_COMPLETE_DELAY_MS", "10")
}

func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestRunHelpAndUnknownCommand(t *testing.T) {
	code, out, _ := runCLI(t)
	if code != 0 || !strings.Contains(out, "upload [-title T] <path>") {
		t.Fatalf("expected usage on stdout, code=%d out=%q", code, out)
	}

	code, _, errOut := runCLI(t, "frobnicate")
	if code != 2 || !strings.Contains(errOut, `unknown command "frobnicate"`) {
		t.Fatalf("expected exit 2 for unknown command, code=%d stderr=%q", code, errOut)
	}
}

func TestRunListPrintsTable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/files" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, filesJSON)
	}))
	defer server.Close()
	setTestEnv(t, server.URL)

	code, out, errOut := runCLI(t, "list")
	if code != 0 {
		t.Fatalf("expected success, code=%d stderr=%q", code, errOut)
	}
	for _, want := range []string{"ID", "Budget", "demo.mp4", "2.00 KB", "5.00 MB"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestRunSearchShowsSnippets(t *testing.T) {
	var gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("query")
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `[{"id":"1","title":"Budget","originalname":"budget.pdf","size":10,"fileType":"pdf","extractedText":"Quarterly budget review"}]`)
	}))
	defer server.Close()
	setTestEnv(t, server.URL)

	code, out, errOut := runCLI(t, "search", "budget", "review")
	if code != 0 {
		t.Fatalf("expected success, code=%d stderr=%q", code, errOut)
	}
	if gotQuery != "budget review" {
		t.Fatalf("unexpected query %q", gotQuery)
	}
	if !strings.Contains(out, "1: ") || !strings.Contains(out, "budget review") {
		t.Fatalf("expected snippet in output:\n%s", out)
	}
}

func TestRunGetMissingFileReportsMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()
	setTestEnv(t, server.URL)

	code, _, errOut := runCLI(t, "get", "404")
	if code != 1 {
		t.Fatalf("expected exit 1, got %d", code)
	}
	if !strings.Contains(errOut, "error: Failed to fetch file") {
		t.Fatalf("expected fallback message, got %q", errOut)
	}
}

func TestRunGetPrintsJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/files/1" {
			http.NotFound(w, r)
			return
		}
		_, _ = io.WriteString(w, `{"id":"1","title":"Budget","originalname":"budget.pdf","size":10,"fileType":"pdf"}`)
	}))
	defer server.Close()
	setTestEnv(t, server.URL)

	code, out, errOut := runCLI(t, "get", "1")
	if code != 0 {
		t.Fatalf("expected success, code=%d stderr=%q", code, errOut)
	}
	var decoded map[string]any
	if err := json.Unmarshal([]byte(out), &decoded); err != nil {
		t.Fatalf("expected json output: %v\n%s", err, out)
	}
	if decoded["title"] != "Budget" {
		t.Fatalf("unexpected record %v", decoded)
	}
}

func TestRunUsageErrors(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()
	setTestEnv(t, server.URL)

	for _, args := range [][]string{{"get"}, {"delete", "1", "2"}, {"upload"}, {"export"}} {
		code, _, errOut := runCLI(t, args...)
		if code != 2 || !strings.Contains(errOut, "usage: docshelf") {
			t.Fatalf("args %v: expected usage error, code=%d stderr=%q", args, code, errOut)
		}
	}
}

func TestRunUploadShowsProgress(t *testing.T) {
	var uploads atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/upload":
			if err := r.ParseMultipartForm(1 << 20); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			if r.FormValue("title") != "Q1 report.pdf" {
				http.Error(w, `{"message":"bad title"}`, http.StatusBadRequest)
				return
			}
			uploads.Add(1)
			_, _ = io.WriteString(w, `{"file":{"id":"7","title":"Q1 report.pdf","originalname":"report.pdf","size":64,"fileType":"pdf"}}`)
		case r.Method == http.MethodGet && r.URL.Path == "/files":
			_, _ = io.WriteString(w, `[{"id":"7","title":"Q1 report.pdf","originalname":"report.pdf","size":64,"fileType":"pdf"}]`)
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()
	setTestEnv(t, server.URL)

	path := filepath.Join(t.TempDir(), "report.pdf")
	content := "%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\nendobj\ntrailer\n<< /Root 1 0 R >>\n%%EOF\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	code, out, errOut := runCLI(t, "upload", "-title", "Q1 report", path)
	if code != 0 {
		t.Fatalf("expected success, code=%d stderr=%q", code, errOut)
	}
	if uploads.Load() != 1 {
		t.Fatalf("expected one upload request, got %d", uploads.Load())
	}
	if !strings.Contains(out, "uploaded Q1 report.pdf as 7") {
		t.Fatalf("unexpected stdout %q", out)
	}
	if !strings.Contains(errOut, "uploading report.pdf") || !strings.Contains(errOut, "100%") {
		t.Fatalf("expected progress on stderr, got %q", errOut)
	}
}

func TestRunUploadRejectsNonPDF(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()
	setTestEnv(t, server.URL)

	path := filepath.Join(t.TempDir(), "notes.txt")
	if err := os.WriteFile(path, []byte("plain text notes\n"), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	code, _, errOut := runCLI(t, "upload", path)
	if code != 1 || !strings.Contains(errOut, "Please select a PDF file.") {
		t.Fatalf("expected type rejection, code=%d stderr=%q", code, errOut)
	}
}

func TestRunExportWritesWorkbook(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, filesJSON)
	}))
	defer server.Close()
	setTestEnv(t, server.URL)

	out := filepath.Join(t.TempDir(), "files.xlsx")
	code, stdout, errOut := runCLI(t, "export", "-o", out, "-history")
	if code != 0 {
		t.Fatalf("expected success, code=%d stderr=%q", code, errOut)
	}
	if !strings.Contains(stdout, "wrote 2 files") {
		t.Fatalf("unexpected stdout %q", stdout)
	}
	info, err := os.Stat(out)
	if err != nil || info.Size() == 0 {
		t.Fatalf("expected workbook at %s: %v", out, err)
	}
}

func TestRunWatchRequiresEvents(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()
	setTestEnv(t, server.URL)

	code, _, errOut := runCLI(t, "watch")
	if code != 1 || !strings.Contains(errOut, "Set NATS_URL") {
		t.Fatalf("expected watch to require NATS, code=%d stderr=%q", code, errOut)
	}
}
