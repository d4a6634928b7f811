package filesapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

const requestIDHeader = "X-Request-Id"

const (
	opListFiles   = "list files"
	opSearchFiles = "search files"
	opGetFile     = "get file"
	opDeleteFile  = "delete file"
	opUploadFile  = "upload file"
)

// fallbackMessages are shown when the service reports an error without a
// message of its own.
var fallbackMessages = map[string]string{
	opListFiles:   "Failed to fetch files",
	opSearchFiles: "Search failed",
	opGetFile:     "Failed to fetch file",
	opDeleteFile:  "Delete failed",
	opUploadFile:  "Upload failed",
}

func (c *Client) getJSON(ctx context.Context, path string, out any, operation string) error {
	ctx, cancel := context.WithTimeout(ctx, c.requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("create %s request: %w", operation, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &TransportError{Operation: operation, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return newHTTPStatusError(operation, resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", operation, err)
	}
	return nil
}

// HTTPStatusError is a non-2xx answer from the file service.
type HTTPStatusError struct {
	Operation  string
	StatusCode int
	Status     string
	Body       string
	// ServerMessage is the "message" (or "error") field of a JSON error body.
	ServerMessage string
}

func newHTTPStatusError(operation string, resp *http.Response) *HTTPStatusError {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
	statusErr := &HTTPStatusError{
		Operation:  operation,
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Body:       strings.TrimSpace(string(body)),
	}

	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if json.Unmarshal(body, &payload) == nil {
		statusErr.ServerMessage = strings.TrimSpace(payload.Message)
		if statusErr.ServerMessage == "" {
			statusErr.ServerMessage = strings.TrimSpace(payload.Error)
		}
	}
	return statusErr
}

func (e *HTTPStatusError) Error() string {
	if e == nil {
		return "files api status error"
	}
	if e.Body == "" {
		return fmt.Sprintf("files api %s status: %s", e.Operation, e.Status)
	}
	return fmt.Sprintf("files api %s status: %s: %s", e.Operation, e.Status, e.Body)
}

// UserMessage prefers the server's own message.
func (e *HTTPStatusError) UserMessage() string {
	if e.ServerMessage != "" {
		return e.ServerMessage
	}
	if msg, ok := fallbackMessages[e.Operation]; ok {
		return msg
	}
	return e.Error()
}

// TransportError is a request that never got an HTTP answer.
type TransportError struct {
	Operation string
	Err       error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("files api %s request: %v", e.Operation, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// UserMessage is the transport failure itself, else the operation fallback.
func (e *TransportError) UserMessage() string {
	if e.Err != nil {
		if msg := strings.TrimSpace(e.Err.Error()); msg != "" {
			return msg
		}
	}
	return fallbackMessages[e.Operation]
}

// requestIDTransport tags every request with an X-Request-Id and logs the
// exchange.
type requestIDTransport struct {
	next   http.RoundTripper
	logger *slog.Logger
}

func (t *requestIDTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	requestID := strings.TrimSpace(req.Header.Get(requestIDHeader))
	if requestID == "" {
		requestID = uuid.NewString()
		req = req.Clone(req.Context())
		req.Header.Set(requestIDHeader, requestID)
	}

	start := time.Now()
	resp, err := t.next.RoundTrip(req)

	attrs := []any{
		"request_id", requestID,
		"method", req.Method,
		"path", req.URL.Path,
		"duration_ms", float64(time.Since(start).Microseconds()) / 1000.0,
	}
	switch {
	case err != nil:
		t.logger.Warn("api_request", append(attrs, "error", err)...)
	case resp.StatusCode >= 500:
		t.logger.Error("api_request", append(attrs, "status", resp.StatusCode)...)
	case resp.StatusCode >= 400:
		t.logger.Warn("api_request", append(attrs, "status", resp.StatusCode)...)
	default:
		t.logger.Debug("api_request", append(attrs, "status", resp.StatusCode)...)
	}
	return resp, err
}
