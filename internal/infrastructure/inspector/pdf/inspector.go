package pdf

import (
	"context"
	"errors"
	"fmt"
	"os"

	lpdf "github.com/ledongthuc/pdf"

	"github.com/kirillkom/docshelf/internal/core/domain"
)

// Inspector opens picked PDFs with a real parser so a renamed or truncated
// file is refused before any bytes are sent.
type Inspector struct{}

func NewInspector() *Inspector {
	return &Inspector{}
}

func (i *Inspector) Inspect(ctx context.Context, file domain.LocalFile) (pages int, err error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	f, err := os.Open(file.Path)
	if err != nil {
		return 0, fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return 0, fmt.Errorf("stat pdf: %w", err)
	}

	// The parser panics on some malformed cross-reference tables.
	defer func() {
		if r := recover(); r != nil {
			pages = 0
			err = invalidPDF(fmt.Errorf("parse pdf: %v", r))
		}
	}()

	reader, err := lpdf.NewReader(f, info.Size())
	if errors.Is(err, lpdf.ErrInvalidPassword) {
		// Encrypted: still a PDF, page count unknown.
		return 0, nil
	}
	if err != nil {
		return 0, invalidPDF(err)
	}

	pages = reader.NumPage()
	if pages <= 0 {
		return 0, invalidPDF(errors.New("pdf has no pages"))
	}
	return pages, nil
}

func invalidPDF(cause error) error {
	return fmt.Errorf("%w: %w", domain.UserError("This file is not a valid PDF."), cause)
}
