package usecase

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"

	"github.com/kirillkom/docshelf/internal/core/domain"
	"github.com/kirillkom/docshelf/internal/core/ports"
)

type apiFake struct {
	mu sync.Mutex

	files       []domain.UploadedFile
	listErr     error
	listCalls   int
	searchHits  []domain.UploadedFile
	searchErr   error
	searchQuery string
	uploadErr   error
	uploaded    ports.UploadRequest
	uploadBody  string
	samples     []domain.ProgressSample
	uploadHook  func(ctx context.Context) error
	deleteErr   error
	getErr      error
}

func (f *apiFake) ListFiles(context.Context) ([]domain.UploadedFile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]domain.UploadedFile(nil), f.files...), nil
}

func (f *apiFake) SearchFiles(_ context.Context, query string) ([]domain.UploadedFile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.searchQuery = query
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return append([]domain.UploadedFile(nil), f.searchHits...), nil
}

func (f *apiFake) UploadFile(ctx context.Context, req ports.UploadRequest, onProgress domain.ProgressFunc) (*domain.UploadedFile, error) {
	raw, err := io.ReadAll(req.Body)
	if err != nil {
		return nil, err
	}
	if f.uploadHook != nil {
		if err := f.uploadHook(ctx); err != nil {
			return nil, err
		}
	}
	for _, s := range f.samples {
		onProgress(s)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploaded = req
	f.uploadBody = string(raw)
	if f.uploadErr != nil {
		return nil, f.uploadErr
	}
	created := domain.UploadedFile{
		ID:           domain.FileID("new-" + req.Name),
		Title:        req.Title,
		OriginalName: req.Name,
		Filename:     req.Name,
		Size:         int64(len(raw)),
		FileType:     domain.FileTypePDF,
	}
	f.files = append([]domain.UploadedFile{created}, f.files...)
	return &created, nil
}

func (f *apiFake) GetFile(_ context.Context, id domain.FileID) (*domain.UploadedFile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	for _, file := range f.files {
		if file.ID == id {
			copyFile := file
			return &copyFile, nil
		}
	}
	return nil, domain.WrapError(domain.ErrFileNotFound, "get file", errors.New(id.String()))
}

func (f *apiFake) DeleteFile(_ context.Context, id domain.FileID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.files = removeByID(f.files, id)
	return nil
}

func (f *apiFake) FileURL(filename string) string {
	return "http://files.test/uploads/" + filename
}

type pickerFake struct {
	content string
	err     error
}

func (p pickerFake) Pick(_ context.Context, path string) (domain.LocalFile, error) {
	if p.err != nil {
		return domain.LocalFile{}, p.err
	}
	return domain.LocalFile{
		Path:     path,
		Name:     path,
		Size:     int64(len(p.content)),
		MimeType: "application/pdf",
	}, nil
}

func (p pickerFake) Open(context.Context, domain.LocalFile) (io.ReadCloser, error) {
	return io.NopCloser(strings.NewReader(p.content)), nil
}

type eventsFake struct {
	mu     sync.Mutex
	events []domain.FileEvent
}

func (e *eventsFake) PublishFileEvent(_ context.Context, event domain.FileEvent) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, event)
	return nil
}

type journalFake struct {
	mu      sync.Mutex
	records []domain.TransferRecord
}

func (j *journalFake) Record(_ context.Context, record domain.TransferRecord) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.records = append(j.records, record)
	return nil
}

func (j *journalFake) Recent(context.Context, int) ([]domain.TransferRecord, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]domain.TransferRecord(nil), j.records...), nil
}

func pdfRecord(id, title string) domain.UploadedFile {
	return domain.UploadedFile{
		ID:           domain.FileID(id),
		Title:        title,
		OriginalName: title + ".pdf",
		Filename:     id + "-" + title + ".pdf",
		Size:         1024,
		FileType:     domain.FileTypePDF,
	}
}
