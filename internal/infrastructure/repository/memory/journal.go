package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/kirillkom/docshelf/internal/core/domain"
)

const defaultRecentLimit = 20

// Journal keeps transfer history for the lifetime of the process. It is used
// when no database is configured.
type Journal struct {
	mu      sync.RWMutex
	max     int
	records []domain.TransferRecord
}

// NewJournal keeps at most max records; max <= 0 means 500.
func NewJournal(max int) *Journal {
	if max <= 0 {
		max = 500
	}
	return &Journal{max: max}
}

func (j *Journal) Record(_ context.Context, record domain.TransferRecord) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.records = append(j.records, record)
	if over := len(j.records) - j.max; over > 0 {
		j.records = append([]domain.TransferRecord(nil), j.records[over:]...)
	}
	return nil
}

func (j *Journal) Recent(_ context.Context, limit int) ([]domain.TransferRecord, error) {
	if limit <= 0 {
		limit = defaultRecentLimit
	}

	j.mu.RLock()
	out := append([]domain.TransferRecord(nil), j.records...)
	j.mu.RUnlock()

	sort.SliceStable(out, func(a, b int) bool {
		return out[a].StartedAt.After(out[b].StartedAt)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
