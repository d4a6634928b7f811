package localfs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/kirillkom/docshelf/internal/core/domain"
	"github.com/kirillkom/docshelf/internal/core/ports"
)

const pdfMimeType = "application/pdf"

type Options struct {
	// AllowVideo admits video/* files next to PDFs.
	AllowVideo bool
	// Inspector, when set, must accept every picked PDF.
	Inspector ports.DocumentInspector
}

// Picker hands back local files chosen for upload.
type Picker struct {
	opts Options
}

func NewPicker(opts Options) *Picker {
	return &Picker{opts: opts}
}

func (p *Picker) Pick(ctx context.Context, path string) (domain.LocalFile, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return domain.LocalFile{}, domain.WrapError(domain.ErrInvalidInput, "pick file", domain.UserError("No file selected."))
	}

	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return domain.LocalFile{}, domain.WrapError(domain.ErrInvalidInput, "pick file", domain.UserError("File does not exist: "+path))
	}
	if err != nil {
		return domain.LocalFile{}, fmt.Errorf("stat file: %w", err)
	}
	if info.IsDir() {
		return domain.LocalFile{}, domain.WrapError(domain.ErrInvalidInput, "pick file", domain.UserError(path+" is a directory"))
	}

	mimeType, err := detectMimeType(path)
	if err != nil {
		return domain.LocalFile{}, err
	}

	file := domain.LocalFile{
		Path:     path,
		Name:     filepath.Base(path),
		Size:     info.Size(),
		MimeType: mimeType,
	}

	switch file.FileType() {
	case domain.FileTypePDF:
		if p.opts.Inspector != nil {
			pages, err := p.opts.Inspector.Inspect(ctx, file)
			if err != nil {
				return domain.LocalFile{}, domain.WrapError(domain.ErrUnsupportedType, "pick file", err)
			}
			file.Pages = pages
		}
	case domain.FileTypeVideo:
		if !p.opts.AllowVideo {
			return domain.LocalFile{}, domain.WrapError(domain.ErrUnsupportedType, "pick file", domain.UserError("Please select a PDF file."))
		}
	default:
		msg := "Please select a PDF file."
		if p.opts.AllowVideo {
			msg = "Please select a PDF or video file."
		}
		return domain.LocalFile{}, domain.WrapError(domain.ErrUnsupportedType, "pick file", domain.UserError(msg))
	}
	return file, nil
}

func (p *Picker) Open(_ context.Context, file domain.LocalFile) (io.ReadCloser, error) {
	f, err := os.Open(file.Path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	return f, nil
}

// detectMimeType sniffs the content first and falls back to the extension
// when the content is not conclusive.
func detectMimeType(path string) (string, error) {
	detected, err := mimetype.DetectFile(path)
	if err != nil {
		return "", fmt.Errorf("detect mime type: %w", err)
	}
	if detected.Is(pdfMimeType) {
		return pdfMimeType, nil
	}
	if sniffed := baseMimeType(detected.String()); strings.HasPrefix(sniffed, "video/") {
		return sniffed, nil
	}

	if byExt := baseMimeType(mime.TypeByExtension(strings.ToLower(filepath.Ext(path)))); byExt != "" {
		if byExt == pdfMimeType {
			// A .pdf name without a PDF header is not a PDF.
			return baseMimeType(detected.String()), nil
		}
		return byExt, nil
	}
	return baseMimeType(detected.String()), nil
}

func baseMimeType(value string) string {
	mediaType, _, err := mime.ParseMediaType(value)
	if err != nil {
		return strings.TrimSpace(value)
	}
	return mediaType
}
