package ports

import (
	"context"
	"io"

	"github.com/kirillkom/docshelf/internal/core/domain"
)

// UploadRequest is a multipart upload as handed to the file API.
type UploadRequest struct {
	Name     string
	MimeType string
	Size     int64
	Title    string
	Body     io.Reader
}

// FileAPI is the remote file service.
type FileAPI interface {
	ListFiles(ctx context.Context) ([]domain.UploadedFile, error)
	SearchFiles(ctx context.Context, query string) ([]domain.UploadedFile, error)
	UploadFile(ctx context.Context, req UploadRequest, onProgress domain.ProgressFunc) (*domain.UploadedFile, error)
	GetFile(ctx context.Context, id domain.FileID) (*domain.UploadedFile, error)
	DeleteFile(ctx context.Context, id domain.FileID) error
	FileLocator
}

// FileLocator builds the direct URL of a stored file.
type FileLocator interface {
	FileURL(filename string) string
}

// FilePicker resolves and validates a local file chosen for upload.
type FilePicker interface {
	Pick(ctx context.Context, path string) (domain.LocalFile, error)
	Open(ctx context.Context, file domain.LocalFile) (io.ReadCloser, error)
}

// DocumentInspector checks that a local file really is a document of its
// declared type and reports page counts.
type DocumentInspector interface {
	Inspect(ctx context.Context, file domain.LocalFile) (pages int, err error)
}

// ViewerStrategy maps a direct file URL to the URL an embedded viewer loads.
type ViewerStrategy interface {
	SourceURL(fileURL string) string
}

// TransferJournal keeps a local history of upload attempts.
type TransferJournal interface {
	Record(ctx context.Context, record domain.TransferRecord) error
	Recent(ctx context.Context, limit int) ([]domain.TransferRecord, error)
}

// EventPublisher announces file lifecycle events to other clients.
type EventPublisher interface {
	PublishFileEvent(ctx context.Context, event domain.FileEvent) error
}

// TransferObserver receives upload outcome observations.
type TransferObserver interface {
	ObserveUpload(status domain.TransferStatus, bytes int64, bandwidthMbps float64)
}
