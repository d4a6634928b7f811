package xlsx

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/kirillkom/docshelf/internal/core/domain"
)

const (
	filesSheet     = "Files"
	transfersSheet = "Transfers"
)

var (
	fileHeader     = []any{"ID", "Title", "Original name", "Type", "Size (bytes)", "Uploaded", "Snippet"}
	transferHeader = []any{"Started", "Name", "Status", "Size (bytes)", "Duration (s)", "Bandwidth (Mbps)", "File ID", "Error"}
)

// WriteReport renders the file list, and the transfer history when there is
// any, as an xlsx workbook.
func WriteReport(w io.Writer, files []domain.UploadedFile, transfers []domain.TransferRecord) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", filesSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}

	rows := make([][]any, 0, len(files))
	for _, file := range files {
		rows = append(rows, []any{
			file.ID.String(),
			file.DisplayName(),
			file.OriginalName,
			string(file.FileType),
			file.Size,
			formatTime(file.UploadDate),
			file.Snippet,
		})
	}
	if err := writeSheet(f, filesSheet, fileHeader, rows, bold); err != nil {
		return err
	}

	if len(transfers) > 0 {
		if _, err := f.NewSheet(transfersSheet); err != nil {
			return fmt.Errorf("create sheet %s: %w", transfersSheet, err)
		}
		rows = rows[:0]
		for _, rec := range transfers {
			rows = append(rows, []any{
				formatTime(rec.StartedAt),
				rec.Name,
				string(rec.Status),
				rec.Size,
				rec.Duration.Seconds(),
				rec.BandwidthMbps,
				rec.FileID.String(),
				rec.Error,
			})
		}
		if err := writeSheet(f, transfersSheet, transferHeader, rows, bold); err != nil {
			return err
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeSheet(f *excelize.File, sheet string, header []any, rows [][]any, headerStyle int) error {
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("write %s header: %w", sheet, err)
	}
	last, err := excelize.CoordinatesToCellName(len(header), 1)
	if err != nil {
		return fmt.Errorf("header range: %w", err)
	}
	if err := f.SetCellStyle(sheet, "A1", last, headerStyle); err != nil {
		return fmt.Errorf("style %s header: %w", sheet, err)
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("row cell: %w", err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+1, err)
		}
	}

	if err := f.SetColWidth(sheet, "A", "H", 18); err != nil {
		return fmt.Errorf("set %s column width: %w", sheet, err)
	}
	return nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
