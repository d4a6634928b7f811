package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/docshelf/internal/core/domain"
	"github.com/kirillkom/docshelf/internal/core/ports"
)

const DefaultCompleteDisplayDelay = 1500 * time.Millisecond

type UploadControllerConfig struct {
	// CompleteDisplayDelay is how long the complete state is shown before the
	// controller returns to idle.
	CompleteDisplayDelay time.Duration
	// OnComplete runs once the complete state has been shown.
	OnComplete func(domain.UploadedFile)
	// OnProgress receives stats after every progress sample.
	OnProgress func(TransferStats)
}

type UploadSnapshot struct {
	State domain.UploadState `json:"state"`
	File  *domain.LocalFile  `json:"file,omitempty"`
	Title string             `json:"title,omitempty"`
	Stats TransferStats      `json:"stats"`
	Error string             `json:"error,omitempty"`
}

// UploadController drives a single upload attempt at a time:
// idle -> selecting -> selected -> uploading -> complete | failed.
// A failed attempt keeps the selected file so it can be retried; a complete
// one returns to idle after CompleteDisplayDelay.
type UploadController struct {
	registry ports.FileRegistry
	picker   ports.FilePicker
	journal  ports.TransferJournal
	observer ports.TransferObserver
	logger   *slog.Logger
	cfg      UploadControllerConfig
	now      func() time.Time

	mu         sync.Mutex
	state      domain.UploadState
	file       *domain.LocalFile
	title      string
	estimator  Estimator
	lastErr    error
	generation uint64
	resetTimer *time.Timer
}

func NewUploadController(
	registry ports.FileRegistry,
	picker ports.FilePicker,
	journal ports.TransferJournal,
	observer ports.TransferObserver,
	logger *slog.Logger,
	cfg UploadControllerConfig,
) *UploadController {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.CompleteDisplayDelay < 0 {
		cfg.CompleteDisplayDelay = 0
	}
	return &UploadController{
		registry: registry,
		picker:   picker,
		journal:  journal,
		observer: observer,
		logger:   logger,
		cfg:      cfg,
		now:      time.Now,
		state:    domain.UploadIdle,
	}
}

func (c *UploadController) Snapshot() UploadSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	snap := UploadSnapshot{
		State: c.state,
		Title: c.title,
		Stats: c.estimator.Stats(),
	}
	if c.file != nil {
		file := *c.file
		snap.File = &file
	}
	if c.lastErr != nil {
		snap.Error = domain.Message(c.lastErr)
	}
	return snap
}

// Select resolves path through the picker and makes it the file to upload.
func (c *UploadController) Select(ctx context.Context, path string) (domain.LocalFile, error) {
	c.mu.Lock()
	if c.state == domain.UploadUploading || c.state == domain.UploadSelecting {
		c.mu.Unlock()
		return domain.LocalFile{}, domain.ErrUploadInProgress
	}
	c.stopResetLocked()
	prev := c.state
	if prev == domain.UploadComplete {
		prev = domain.UploadIdle
	}
	c.state = domain.UploadSelecting
	c.mu.Unlock()

	file, err := c.picker.Pick(ctx, path)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.state = prev
		c.lastErr = err
		return domain.LocalFile{}, err
	}
	c.file = &file
	c.state = domain.UploadSelected
	c.estimator.Reset()
	c.lastErr = nil
	return file, nil
}

func (c *UploadController) SetTitle(title string) {
	c.mu.Lock()
	c.title = title
	c.mu.Unlock()
}

// Clear drops the selection and progress state.
func (c *UploadController) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == domain.UploadUploading || c.state == domain.UploadSelecting {
		return domain.ErrUploadInProgress
	}
	c.resetLocked()
	return nil
}

// Upload submits the selected file. Cancelling ctx aborts the transfer.
func (c *UploadController) Upload(ctx context.Context) (*domain.UploadedFile, error) {
	c.mu.Lock()
	if c.state == domain.UploadUploading || c.state == domain.UploadSelecting {
		c.mu.Unlock()
		return nil, domain.ErrUploadInProgress
	}
	if c.file == nil || (c.state != domain.UploadSelected && c.state != domain.UploadFailed) {
		c.mu.Unlock()
		return nil, domain.WrapError(domain.ErrInvalidInput, "upload", errors.New("no file selected"))
	}
	c.state = domain.UploadUploading
	c.estimator.Reset()
	c.lastErr = nil
	c.generation++
	generation := c.generation
	file := *c.file
	title := uploadTitle(c.title, file)
	c.mu.Unlock()

	started := c.now()
	onProgress := func(sample domain.ProgressSample) {
		c.mu.Lock()
		stats := c.estimator.Observe(sample, c.now().Sub(started))
		c.mu.Unlock()
		if c.cfg.OnProgress != nil {
			c.cfg.OnProgress(stats)
		}
	}

	created, err := c.registry.UploadFile(ctx, file, title, onProgress)
	elapsed := c.now().Sub(started)
	if err != nil {
		c.mu.Lock()
		c.state = domain.UploadFailed
		c.estimator.Reset()
		c.lastErr = err
		c.mu.Unlock()

		status := domain.TransferFailed
		if ctx.Err() != nil || errors.Is(err, context.Canceled) {
			status = domain.TransferCanceled
		}
		c.record(ctx, file, nil, status, err, elapsed, TransferStats{})
		return nil, err
	}

	c.mu.Lock()
	stats := c.estimator.Finalize(file.Size, elapsed)
	c.state = domain.UploadComplete
	done := *created
	c.resetTimer = time.AfterFunc(c.cfg.CompleteDisplayDelay, func() {
		c.finishComplete(generation, done)
	})
	c.mu.Unlock()

	if c.cfg.OnProgress != nil {
		c.cfg.OnProgress(stats)
	}
	c.record(ctx, file, created, domain.TransferComplete, nil, elapsed, stats)
	return created, nil
}

func (c *UploadController) finishComplete(generation uint64, file domain.UploadedFile) {
	c.mu.Lock()
	if c.generation != generation || c.state != domain.UploadComplete {
		c.mu.Unlock()
		return
	}
	c.resetLocked()
	onComplete := c.cfg.OnComplete
	c.mu.Unlock()

	if onComplete != nil {
		onComplete(file)
	}
}

func (c *UploadController) resetLocked() {
	c.stopResetLocked()
	c.state = domain.UploadIdle
	c.file = nil
	c.title = ""
	c.estimator.Reset()
	c.lastErr = nil
}

func (c *UploadController) stopResetLocked() {
	if c.resetTimer != nil {
		c.resetTimer.Stop()
		c.resetTimer = nil
	}
}

func (c *UploadController) record(
	ctx context.Context,
	file domain.LocalFile,
	created *domain.UploadedFile,
	status domain.TransferStatus,
	uploadErr error,
	elapsed time.Duration,
	stats TransferStats,
) {
	bytes := int64(0)
	if status == domain.TransferComplete {
		bytes = file.Size
	}
	if c.observer != nil {
		c.observer.ObserveUpload(status, bytes, stats.Mbps)
	}

	attrs := []any{
		"file", file.Name,
		"size", file.Size,
		"status", status,
		"duration_ms", float64(elapsed.Microseconds()) / 1000.0,
	}
	if uploadErr != nil {
		c.logger.Warn("upload_finished", append(attrs, "error", domain.Message(uploadErr))...)
	} else {
		c.logger.Info("upload_finished", append(attrs, "bandwidth_mbps", stats.Bandwidth)...)
	}

	if c.journal == nil {
		return
	}
	entry := domain.TransferRecord{
		ID:            uuid.NewString(),
		Name:          file.Name,
		Size:          file.Size,
		Status:        status,
		Bytes:         bytes,
		Duration:      elapsed,
		BandwidthMbps: stats.Bandwidth,
		StartedAt:     c.now().Add(-elapsed).UTC(),
	}
	if created != nil {
		entry.FileID = created.ID
	}
	if uploadErr != nil {
		entry.Error = domain.Message(uploadErr)
	}
	// The upload context may already be cancelled; the journal write must
	// still happen.
	if err := c.journal.Record(context.WithoutCancel(ctx), entry); err != nil {
		c.logger.Warn("transfer_journal_write_failed", "file", file.Name, "error", err)
	}
}

// uploadTitle derives the title sent with the upload: the trimmed user title
// with the file's extension appended, or "" to keep the original name.
func uploadTitle(title string, file domain.LocalFile) string {
	title = strings.TrimSpace(title)
	if title == "" {
		return ""
	}
	ext := ".pdf"
	if file.FileType() != domain.FileTypePDF {
		ext = filepath.Ext(file.Name)
	}
	if ext == "" || strings.HasSuffix(strings.ToLower(title), strings.ToLower(ext)) {
		return title
	}
	return fmt.Sprintf("%s%s", title, ext)
}
