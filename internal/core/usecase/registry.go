package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/kirillkom/docshelf/internal/core/domain"
	"github.com/kirillkom/docshelf/internal/core/ports"
)

const defaultUploadMimeType = "application/pdf"

// Registry holds the client-side list of uploaded files. Every mutating
// operation re-reads the full list from the server; the list is only ever
// replaced whole.
type Registry struct {
	api    ports.FileAPI
	picker ports.FilePicker
	events ports.EventPublisher
	logger *slog.Logger

	mu    sync.RWMutex
	files []domain.UploadedFile
}

func NewRegistry(
	api ports.FileAPI,
	picker ports.FilePicker,
	events ports.EventPublisher,
	logger *slog.Logger,
) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		api:    api,
		picker: picker,
		events: events,
		logger: logger,
	}
}

func (r *Registry) Files() []domain.UploadedFile {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]domain.UploadedFile(nil), r.files...)
}

func (r *Registry) FetchFiles(ctx context.Context) ([]domain.UploadedFile, error) {
	files, err := r.api.ListFiles(ctx)
	if err != nil {
		return nil, err
	}
	files = dedupeByID(files)

	r.mu.Lock()
	r.files = files
	r.mu.Unlock()
	return append([]domain.UploadedFile(nil), files...), nil
}

func (r *Registry) SearchFiles(ctx context.Context, query string) ([]domain.UploadedFile, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "search files", errors.New("query is empty"))
	}
	return r.api.SearchFiles(ctx, query)
}

func (r *Registry) UploadFile(
	ctx context.Context,
	file domain.LocalFile,
	title string,
	onProgress domain.ProgressFunc,
) (*domain.UploadedFile, error) {
	body, err := r.picker.Open(ctx, file)
	if err != nil {
		return nil, fmt.Errorf("open local file: %w", err)
	}
	defer body.Close()

	mimeType := file.MimeType
	if mimeType == "" {
		mimeType = defaultUploadMimeType
	}

	created, err := r.api.UploadFile(ctx, ports.UploadRequest{
		Name:     file.Name,
		MimeType: mimeType,
		Size:     file.Size,
		Title:    strings.TrimSpace(title),
		Body:     body,
	}, onProgress)
	if err != nil {
		return nil, err
	}

	if _, err := r.FetchFiles(ctx); err != nil {
		r.logger.Warn("file_list_refresh_failed",
			"operation", "upload",
			"file_id", created.ID,
			"error", err,
		)
		r.prepend(*created)
	}

	r.publish(ctx, domain.FileUploaded, created.ID, created.DisplayName())
	return created, nil
}

func (r *Registry) DeleteFile(ctx context.Context, id domain.FileID) error {
	if strings.TrimSpace(id.String()) == "" {
		return domain.WrapError(domain.ErrInvalidInput, "delete file", errors.New("file id is required"))
	}
	if err := r.api.DeleteFile(ctx, id); err != nil {
		return err
	}

	if _, err := r.FetchFiles(ctx); err != nil {
		r.logger.Warn("file_list_refresh_failed",
			"operation", "delete",
			"file_id", id,
			"error", err,
		)
		r.remove(id)
	}

	r.publish(ctx, domain.FileDeleted, id, "")
	return nil
}

func (r *Registry) GetFileByID(ctx context.Context, id domain.FileID) (*domain.UploadedFile, error) {
	if strings.TrimSpace(id.String()) == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "get file", errors.New("file id is required"))
	}
	return r.api.GetFile(ctx, id)
}

func (r *Registry) prepend(file domain.UploadedFile) {
	r.mu.Lock()
	defer r.mu.Unlock()
	next := make([]domain.UploadedFile, 0, len(r.files)+1)
	next = append(next, file)
	for _, f := range r.files {
		if f.ID != file.ID {
			next = append(next, f)
		}
	}
	r.files = next
}

func (r *Registry) remove(id domain.FileID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.files = removeByID(r.files, id)
}

func (r *Registry) publish(ctx context.Context, kind domain.FileEventType, id domain.FileID, name string) {
	if r.events == nil {
		return
	}
	event := domain.FileEvent{
		Type:   kind,
		FileID: id,
		Name:   name,
		At:     time.Now().UTC(),
	}
	if err := r.events.PublishFileEvent(ctx, event); err != nil {
		r.logger.Warn("file_event_publish_failed", "type", kind, "file_id", id, "error", err)
	}
}

func dedupeByID(files []domain.UploadedFile) []domain.UploadedFile {
	seen := make(map[domain.FileID]struct{}, len(files))
	out := make([]domain.UploadedFile, 0, len(files))
	for _, f := range files {
		if _, ok := seen[f.ID]; ok {
			continue
		}
		seen[f.ID] = struct{}{}
		out = append(out, f)
	}
	return out
}

func removeByID(files []domain.UploadedFile, id domain.FileID) []domain.UploadedFile {
	out := make([]domain.UploadedFile, 0, len(files))
	for _, f := range files {
		if f.ID != id {
			out = append(out, f)
		}
	}
	return out
}
