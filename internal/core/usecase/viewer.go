package usecase

import (
	"context"
	"errors"
	"net/url"
	"strings"

	"github.com/kirillkom/docshelf/internal/core/domain"
	"github.com/kirillkom/docshelf/internal/core/ports"
)

// DefaultProxyPrefix wraps a file URL in a public document viewer for
// platforms that cannot render PDFs inline.
const DefaultProxyPrefix = "https://docs.google.com/gview?embedded=true&url="

type DirectViewer struct{}

func (DirectViewer) SourceURL(fileURL string) string {
	return fileURL
}

type ProxyViewer struct {
	Prefix string
}

func (v ProxyViewer) SourceURL(fileURL string) string {
	prefix := v.Prefix
	if prefix == "" {
		prefix = DefaultProxyPrefix
	}
	return prefix + url.QueryEscape(fileURL)
}

// ViewerForPlatform picks the viewer strategy for the given client platform.
func ViewerForPlatform(platform string) ports.ViewerStrategy {
	switch strings.ToLower(strings.TrimSpace(platform)) {
	case "android":
		return ProxyViewer{}
	default:
		return DirectViewer{}
	}
}

type ViewerResolver struct {
	registry ports.FileRegistry
	locator  ports.FileLocator
	strategy ports.ViewerStrategy
}

func NewViewerResolver(registry ports.FileRegistry, locator ports.FileLocator, strategy ports.ViewerStrategy) *ViewerResolver {
	if strategy == nil {
		strategy = DirectViewer{}
	}
	return &ViewerResolver{
		registry: registry,
		locator:  locator,
		strategy: strategy,
	}
}

// OpenPDF fetches the record and refuses anything that is not a PDF before a
// viewer URL is produced.
func (v *ViewerResolver) OpenPDF(ctx context.Context, id domain.FileID) (*domain.ViewerSource, error) {
	file, err := v.registry.GetFileByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if file.FileType != domain.FileTypePDF {
		return nil, domain.WrapError(domain.ErrUnsupportedType, "open pdf", domain.UserError("This file is not a PDF."))
	}
	if strings.TrimSpace(file.Filename) == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "open pdf", errors.New("file has no stored filename"))
	}

	fileURL := v.locator.FileURL(file.Filename)
	return &domain.ViewerSource{
		File:      *file,
		FileURL:   fileURL,
		SourceURL: v.strategy.SourceURL(fileURL),
	}, nil
}
