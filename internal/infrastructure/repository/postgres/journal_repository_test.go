package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/kirillkom/docshelf/internal/core/domain"
)

func TestJournalEnsureSchemaUsesAdvisoryLock(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer db.Close()

	repo := NewJournalRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("SELECT pg_advisory_xact_lock").
		WithArgs(int64(2026101701)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS upload_transfers").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	if err := repo.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("EnsureSchema() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestJournalRecordStoresDurationInMilliseconds(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer db.Close()

	started := time.Date(2026, 10, 17, 9, 30, 0, 0, time.UTC)
	mock.ExpectExec("INSERT INTO upload_transfers").
		WithArgs("tr-1", "42", "q1.pdf", int64(2048), "complete", "", int64(2048), int64(1500), "0.01", started).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = NewJournalRepository(db).Record(context.Background(), domain.TransferRecord{
		ID:            "tr-1",
		FileID:        "42",
		Name:          "q1.pdf",
		Size:          2048,
		Status:        domain.TransferComplete,
		Bytes:         2048,
		Duration:      1500 * time.Millisecond,
		BandwidthMbps: "0.01",
		StartedAt:     started,
	})
	if err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestJournalRecentDefaultsLimit(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer db.Close()

	started := time.Date(2026, 10, 17, 9, 30, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "file_id", "name", "size", "status", "error_message", "bytes", "duration_ms", "bandwidth_mbps", "started_at"}).
		AddRow("tr-2", "", "big.pdf", int64(10), "failed", "File too large", int64(0), int64(250), "", started).
		AddRow("tr-1", "42", "q1.pdf", int64(2048), "complete", "", int64(2048), int64(1500), "0.01", started.Add(-time.Minute))

	mock.ExpectQuery("FROM upload_transfers").
		WithArgs(defaultRecentLimit).
		WillReturnRows(rows)

	records, err := NewJournalRepository(db).Recent(context.Background(), 0)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].Status != domain.TransferFailed || records[0].Error != "File too large" || records[0].Duration != 250*time.Millisecond {
		t.Fatalf("unexpected first record: %+v", records[0])
	}
	if records[1].FileID != "42" {
		t.Fatalf("unexpected file id %q", records[1].FileID)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
