package usecase

import (
	"context"
	"strings"
	"sync"
	"unicode"

	"github.com/kirillkom/docshelf/internal/core/domain"
	"github.com/kirillkom/docshelf/internal/core/ports"
)

const (
	snippetLeadRunes  = 30
	snippetTrailRunes = 100
)

// SearchView holds the transient result list shown for the current query.
// An empty query means "show everything" and yields the full registry list.
type SearchView struct {
	registry ports.FileRegistry

	mu      sync.Mutex
	seq     uint64
	query   string
	results []domain.UploadedFile
}

func NewSearchView(registry ports.FileRegistry) *SearchView {
	return &SearchView{registry: registry}
}

func (v *SearchView) Search(ctx context.Context, query string) ([]domain.UploadedFile, error) {
	query = strings.TrimSpace(query)

	v.mu.Lock()
	v.seq++
	seq := v.seq
	v.mu.Unlock()

	var (
		results []domain.UploadedFile
		err     error
	)
	if query == "" {
		results = v.registry.Files()
		if len(results) == 0 {
			results, err = v.registry.FetchFiles(ctx)
		}
	} else {
		results, err = v.registry.SearchFiles(ctx, query)
	}
	if err != nil {
		return nil, err
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	// A newer search started while this one was in flight; its results win.
	if seq == v.seq {
		v.query = query
		v.results = append([]domain.UploadedFile(nil), results...)
	}
	return results, nil
}

func (v *SearchView) Query() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.query
}

func (v *SearchView) Results() []domain.UploadedFile {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]domain.UploadedFile(nil), v.results...)
}

// Delete removes the file on the server and drops it from the held results.
func (v *SearchView) Delete(ctx context.Context, id domain.FileID) error {
	if err := v.registry.DeleteFile(ctx, id); err != nil {
		return err
	}
	v.mu.Lock()
	v.results = removeByID(v.results, id)
	v.mu.Unlock()
	return nil
}

// Snippet returns the extracted text around the first case-insensitive match
// of query, or "" when the text does not contain it.
func Snippet(file domain.UploadedFile, query string) string {
	query = strings.TrimSpace(query)
	if query == "" || file.ExtractedText == "" {
		return ""
	}
	text := []rune(file.ExtractedText)
	idx := indexFold(text, []rune(query))
	if idx < 0 {
		return ""
	}
	start := idx - snippetLeadRunes
	if start < 0 {
		start = 0
	}
	end := idx + snippetTrailRunes
	if end > len(text) {
		end = len(text)
	}
	return "..." + string(text[start:end]) + "..."
}

func indexFold(text, needle []rune) int {
	if len(needle) == 0 || len(needle) > len(text) {
		return -1
	}
outer:
	for i := 0; i+len(needle) <= len(text); i++ {
		for j, r := range needle {
			if unicode.ToLower(text[i+j]) != unicode.ToLower(r) {
				continue outer
			}
		}
		return i
	}
	return -1
}
