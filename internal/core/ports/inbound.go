package ports

import (
	"context"

	"github.com/kirillkom/docshelf/internal/core/domain"
)

// FileRegistry is the inbound contract for the client-side file list.
type FileRegistry interface {
	Files() []domain.UploadedFile
	FetchFiles(ctx context.Context) ([]domain.UploadedFile, error)
	SearchFiles(ctx context.Context, query string) ([]domain.UploadedFile, error)
	UploadFile(ctx context.Context, file domain.LocalFile, title string, onProgress domain.ProgressFunc) (*domain.UploadedFile, error)
	DeleteFile(ctx context.Context, id domain.FileID) error
	GetFileByID(ctx context.Context, id domain.FileID) (*domain.UploadedFile, error)
}

// PDFViewer resolves the URL an embedded viewer should load for a record.
type PDFViewer interface {
	OpenPDF(ctx context.Context, id domain.FileID) (*domain.ViewerSource, error)
}
