package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/kirillkom/docshelf/internal/core/domain"
)

const defaultRecentLimit = 20

// JournalRepository stores the history of upload attempts.
type JournalRepository struct {
	db *sql.DB
}

func NewJournalRepository(db *sql.DB) *JournalRepository {
	return &JournalRepository{db: db}
}

func (r *JournalRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Several CLI processes may start against the same database.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026101701)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS upload_transfers (
	id TEXT PRIMARY KEY,
	file_id TEXT NOT NULL DEFAULT '',
	name TEXT NOT NULL,
	size BIGINT NOT NULL DEFAULT 0,
	status TEXT NOT NULL,
	error_message TEXT NOT NULL DEFAULT '',
	bytes BIGINT NOT NULL DEFAULT 0,
	duration_ms BIGINT NOT NULL DEFAULT 0,
	bandwidth_mbps TEXT NOT NULL DEFAULT '',
	started_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_upload_transfers_started_at ON upload_transfers(started_at DESC);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

func (r *JournalRepository) Record(ctx context.Context, record domain.TransferRecord) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO upload_transfers (
	id, file_id, name, size, status, error_message, bytes, duration_ms, bandwidth_mbps, started_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
ON CONFLICT (id) DO NOTHING
`,
		record.ID, record.FileID.String(), record.Name, record.Size, string(record.Status), record.Error,
		record.Bytes, record.Duration.Milliseconds(), record.BandwidthMbps, record.StartedAt,
	)
	if err != nil {
		return fmt.Errorf("insert transfer: %w", err)
	}
	return nil
}

// Recent returns the newest attempts first.
func (r *JournalRepository) Recent(ctx context.Context, limit int) ([]domain.TransferRecord, error) {
	if limit <= 0 {
		limit = defaultRecentLimit
	}

	rows, err := r.db.QueryContext(ctx, `
SELECT id, file_id, name, size, status, error_message, bytes, duration_ms, bandwidth_mbps, started_at
FROM upload_transfers
ORDER BY started_at DESC
LIMIT $1
`, limit)
	if err != nil {
		return nil, fmt.Errorf("query transfers: %w", err)
	}
	defer rows.Close()

	records := make([]domain.TransferRecord, 0, limit)
	for rows.Next() {
		var (
			rec        domain.TransferRecord
			fileID     string
			status     string
			durationMS int64
		)
		if err := rows.Scan(
			&rec.ID, &fileID, &rec.Name, &rec.Size, &status, &rec.Error,
			&rec.Bytes, &durationMS, &rec.BandwidthMbps, &rec.StartedAt,
		); err != nil {
			return nil, fmt.Errorf("scan transfer: %w", err)
		}
		rec.FileID = domain.FileID(fileID)
		rec.Status = domain.TransferStatus(status)
		rec.Duration = time.Duration(durationMS) * time.Millisecond
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transfers: %w", err)
	}
	return records, nil
}
