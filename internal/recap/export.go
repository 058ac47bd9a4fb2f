package recap

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/eduai/lkpd/internal/model"
)

const (
	ContentTypeCSV  = "text/csv"
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

func record(r model.RecapRow) []string {
	return []string{
		r.Name,
		strconv.FormatFloat(r.Score, 'f', -1, 64),
		r.Status,
		formatTime(r.SubmittedAt),
		r.Feedback,
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

// WriteCSV writes the header row followed by one record per row.
func WriteCSV(w io.Writer, rows []model.RecapRow, labels Labels) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(labels.Headers); err != nil {
		return err
	}
	for _, r := range rows {
		if err := cw.Write(record(r)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteXLSX writes a single-sheet workbook with the same columns as WriteCSV.
// Scores are stored as numbers.
func WriteXLSX(w io.Writer, rows []model.RecapRow, labels Labels) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := labels.SheetTitle
	if sheet == "" {
		sheet = DefaultLabels().SheetTitle
	}
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("name sheet: %w", err)
	}

	header := make([]any, len(labels.Headers))
	for i, h := range labels.Headers {
		header[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := []any{r.Name, r.Score, r.Status, formatTime(r.SubmittedAt), r.Feedback}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
