package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/kirillkom/docshelf/internal/core/domain"
)

func TestFetchFilesReplacesListAndDropsDuplicateIDs(t *testing.T) {
	api := &apiFake{files: []domain.UploadedFile{
		pdfRecord("1", "a"),
		pdfRecord("2", "b"),
		pdfRecord("1", "dup"),
	}}
	reg := NewRegistry(api, pickerFake{}, nil, nil)

	files, err := reg.FetchFiles(context.Background())
	if err != nil {
		t.Fatalf("FetchFiles() error = %v", err)
	}
	if len(files) != 2 || files[0].Title != "a" || files[1].Title != "b" {
		t.Fatalf("unexpected files: %+v", files)
	}
	if len(reg.Files()) != 2 {
		t.Fatalf("expected stored list of 2, got %d", len(reg.Files()))
	}
}

func TestFetchFilesErrorKeepsPreviousList(t *testing.T) {
	api := &apiFake{files: []domain.UploadedFile{pdfRecord("1", "a")}}
	reg := NewRegistry(api, pickerFake{}, nil, nil)
	if _, err := reg.FetchFiles(context.Background()); err != nil {
		t.Fatalf("FetchFiles() error = %v", err)
	}

	api.listErr = domain.WrapError(domain.ErrServer, "list files", domain.UserError("Failed to fetch files"))
	_, err := reg.FetchFiles(context.Background())
	if err == nil {
		t.Fatalf("expected error")
	}
	if domain.Message(err) != "Failed to fetch files" {
		t.Fatalf("unexpected message: %q", domain.Message(err))
	}
	if len(reg.Files()) != 1 {
		t.Fatalf("expected previous list to survive, got %+v", reg.Files())
	}
}

func TestUploadFileRefreshesListAndPublishesEvent(t *testing.T) {
	api := &apiFake{
		files:   []domain.UploadedFile{pdfRecord("1", "a")},
		samples: []domain.ProgressSample{{Loaded: 2, Total: 4}, {Loaded: 4, Total: 4}},
	}
	events := &eventsFake{}
	reg := NewRegistry(api, pickerFake{content: "%PDF"}, events, nil)

	var seen []domain.ProgressSample
	created, err := reg.UploadFile(context.Background(), domain.LocalFile{Name: "report.pdf", Size: 4}, " Q1 report.pdf ", func(s domain.ProgressSample) {
		seen = append(seen, s)
	})
	if err != nil {
		t.Fatalf("UploadFile() error = %v", err)
	}
	if created.ID != "new-report.pdf" {
		t.Fatalf("unexpected created record: %+v", created)
	}
	if api.uploaded.Title != "Q1 report.pdf" || api.uploaded.MimeType != "application/pdf" {
		t.Fatalf("unexpected upload request: %+v", api.uploaded)
	}
	if api.uploadBody != "%PDF" {
		t.Fatalf("unexpected body: %q", api.uploadBody)
	}
	if len(seen) != 2 {
		t.Fatalf("expected 2 progress samples, got %d", len(seen))
	}

	files := reg.Files()
	if len(files) != 2 || files[0].ID != created.ID {
		t.Fatalf("expected refreshed list with new record first, got %+v", files)
	}
	if len(events.events) != 1 || events.events[0].Type != domain.FileUploaded {
		t.Fatalf("expected uploaded event, got %+v", events.events)
	}
}

func TestUploadFilePrependsWhenRefreshFails(t *testing.T) {
	api := &apiFake{}
	reg := NewRegistry(api, pickerFake{content: "x"}, nil, nil)
	api.listErr = errors.New("connection reset")

	created, err := reg.UploadFile(context.Background(), domain.LocalFile{Name: "a.pdf", Size: 1}, "", nil)
	if err != nil {
		t.Fatalf("UploadFile() error = %v", err)
	}
	files := reg.Files()
	if len(files) != 1 || files[0].ID != created.ID {
		t.Fatalf("expected optimistic insert, got %+v", files)
	}
}

func TestUploadFileSurfacesServerMessage(t *testing.T) {
	api := &apiFake{uploadErr: domain.WrapError(domain.ErrServer, "upload", domain.UserError("Only PDF files are allowed"))}
	reg := NewRegistry(api, pickerFake{content: "x"}, nil, nil)

	_, err := reg.UploadFile(context.Background(), domain.LocalFile{Name: "a.txt", Size: 1}, "", nil)
	if err == nil {
		t.Fatalf("expected error")
	}
	if domain.Message(err) != "Only PDF files are allowed" {
		t.Fatalf("unexpected message: %q", domain.Message(err))
	}
	if api.listCalls != 0 {
		t.Fatalf("expected no refresh after failed upload")
	}
}

func TestSearchFilesRejectsBlankQueryAndTrims(t *testing.T) {
	api := &apiFake{searchHits: []domain.UploadedFile{pdfRecord("3", "invoice")}}
	reg := NewRegistry(api, pickerFake{}, nil, nil)

	if _, err := reg.SearchFiles(context.Background(), "   "); !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}

	hits, err := reg.SearchFiles(context.Background(), "  invoice ")
	if err != nil {
		t.Fatalf("SearchFiles() error = %v", err)
	}
	if api.searchQuery != "invoice" || len(hits) != 1 {
		t.Fatalf("unexpected search: query=%q hits=%+v", api.searchQuery, hits)
	}
	if len(reg.Files()) != 0 {
		t.Fatalf("search must not mutate the stored list")
	}
}

func TestDeleteFileRefetchesAndKeepsStateOnFailure(t *testing.T) {
	api := &apiFake{files: []domain.UploadedFile{pdfRecord("1", "a"), pdfRecord("2", "b")}}
	events := &eventsFake{}
	reg := NewRegistry(api, pickerFake{}, events, nil)
	if _, err := reg.FetchFiles(context.Background()); err != nil {
		t.Fatalf("FetchFiles() error = %v", err)
	}

	if err := reg.DeleteFile(context.Background(), "1"); err != nil {
		t.Fatalf("DeleteFile() error = %v", err)
	}
	if files := reg.Files(); len(files) != 1 || files[0].ID != "2" {
		t.Fatalf("unexpected files after delete: %+v", files)
	}
	if len(events.events) != 1 || events.events[0].Type != domain.FileDeleted {
		t.Fatalf("expected deleted event, got %+v", events.events)
	}

	api.deleteErr = errors.New("Delete failed")
	if err := reg.DeleteFile(context.Background(), "2"); err == nil || !strings.Contains(err.Error(), "Delete failed") {
		t.Fatalf("expected delete failure, got %v", err)
	}
	if len(reg.Files()) != 1 {
		t.Fatalf("expected state unchanged after failed delete")
	}
}

func TestGetFileByIDNotFound(t *testing.T) {
	reg := NewRegistry(&apiFake{}, pickerFake{}, nil, nil)
	_, err := reg.GetFileByID(context.Background(), "missing")
	if !domain.IsKind(err, domain.ErrFileNotFound) {
		t.Fatalf("expected ErrFileNotFound, got %v", err)
	}
	if _, err := reg.GetFileByID(context.Background(), ""); !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for empty id, got %v", err)
	}
}

func TestConcurrentCallsKeepTheirOwnOutcome(t *testing.T) {
	api := &apiFake{
		files:     []domain.UploadedFile{pdfRecord("1", "a")},
		searchErr: errors.New("Search failed"),
	}
	reg := NewRegistry(api, pickerFake{}, nil, nil)
	ctx := context.Background()

	fetch := Go(ctx, reg.FetchFiles)
	search := Go(ctx, func(ctx context.Context) ([]domain.UploadedFile, error) {
		return reg.SearchFiles(ctx, "x")
	})

	if _, err := fetch.Wait(ctx); err != nil {
		t.Fatalf("fetch error = %v", err)
	}
	if _, err := search.Wait(ctx); err == nil {
		t.Fatalf("expected search error")
	}
	if fetch.Status() != CallSucceeded || fetch.Err() != nil {
		t.Fatalf("fetch status leaked from search: %s %v", fetch.Status(), fetch.Err())
	}
	if search.Status() != CallFailed {
		t.Fatalf("expected search failed, got %s", search.Status())
	}
}
