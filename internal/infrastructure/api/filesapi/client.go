package filesapi

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/kirillkom/docshelf/internal/core/domain"
	"github.com/kirillkom/docshelf/internal/infrastructure/resilience"
)

const DefaultRequestTimeout = 30 * time.Second

type Options struct {
	// RequestTimeout bounds every call except uploads.
	RequestTimeout time.Duration
	// Executor retries idempotent GETs. Nil means a single attempt.
	Executor *resilience.Executor
	// Transport is the base round tripper, http.DefaultTransport when nil.
	Transport http.RoundTripper
	Logger    *slog.Logger
}

// Client talks to the file service: /files, /search, /upload and
// /files/:id, with stored content under /uploads/.
type Client struct {
	baseURL        string
	httpClient     *http.Client
	requestTimeout time.Duration
	executor       *resilience.Executor
}

func New(baseURL string, opts Options) *Client {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	base := opts.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	timeout := opts.RequestTimeout
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		// No client timeout: uploads run as long as their context allows.
		httpClient:     &http.Client{Transport: &requestIDTransport{next: base, logger: logger}},
		requestTimeout: timeout,
		executor:       opts.Executor,
	}
}

func (c *Client) ListFiles(ctx context.Context) ([]domain.UploadedFile, error) {
	files, err := resilience.Run(ctx, c.executor, "list_files", func(ctx context.Context) ([]domain.UploadedFile, error) {
		var out []domain.UploadedFile
		err := c.getJSON(ctx, "/files", &out, opListFiles)
		return out, err
	}, classifyAPIError)
	if err != nil {
		return nil, wrapAPIError(opListFiles, err)
	}
	if files == nil {
		files = []domain.UploadedFile{}
	}
	return files, nil
}

func (c *Client) SearchFiles(ctx context.Context, query string) ([]domain.UploadedFile, error) {
	path := "/search?query=" + url.QueryEscape(query)
	files, err := resilience.Run(ctx, c.executor, "search_files", func(ctx context.Context) ([]domain.UploadedFile, error) {
		var out []domain.UploadedFile
		err := c.getJSON(ctx, path, &out, opSearchFiles)
		return out, err
	}, classifyAPIError)
	if err != nil {
		return nil, wrapAPIError(opSearchFiles, err)
	}
	if files == nil {
		files = []domain.UploadedFile{}
	}
	return files, nil
}

func (c *Client) GetFile(ctx context.Context, id domain.FileID) (*domain.UploadedFile, error) {
	path := "/files/" + url.PathEscape(id.String())
	file, err := resilience.Run(ctx, c.executor, "get_file", func(ctx context.Context) (*domain.UploadedFile, error) {
		var out domain.UploadedFile
		if err := c.getJSON(ctx, path, &out, opGetFile); err != nil {
			return nil, err
		}
		return &out, nil
	}, classifyAPIError)
	if err != nil {
		return nil, wrapAPIError(opGetFile, err)
	}
	return file, nil
}

// DeleteFile is never retried.
func (c *Client) DeleteFile(ctx context.Context, id domain.FileID) error {
	ctx, cancel := context.WithTimeout(ctx, c.requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.baseURL+"/files/"+url.PathEscape(id.String()), nil)
	if err != nil {
		return fmt.Errorf("create %s request: %w", opDeleteFile, err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return wrapAPIError(opDeleteFile, &TransportError{Operation: opDeleteFile, Err: err})
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return wrapAPIError(opDeleteFile, newHTTPStatusError(opDeleteFile, resp))
	}
	return nil
}

// FileURL is where the service serves the stored content of filename.
func (c *Client) FileURL(filename string) string {
	return c.baseURL + "/uploads/" + url.PathEscape(filename)
}
