package report

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/xuri/excelize/v2"
	"wing-sales-extractor/internal/types"
)

// SheetName is the single worksheet of an exported workbook
const SheetName = "Sheet1"

// ContentTypeXLSX is the MIME type of exported workbooks
const ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// XLSXFilename names the export for a date range, e.g. sales_20240301_20240307.xlsx
func XLSXFilename(start, end time.Time) string {
	return fmt.Sprintf("sales_%s_%s.xlsx", start.Format("20060102"), end.Format("20060102"))
}

// WriteXLSX writes table as a one-sheet workbook: a header row of column
// labels followed by one row per date. Every cell is written as a string.
func WriteXLSX(w io.Writer, table types.ResultTable) error {
	f := excelize.NewFile()
	defer f.Close()

	sw, err := f.NewStreamWriter(SheetName)
	if err != nil {
		return fmt.Errorf("failed to create sheet writer: %w", err)
	}

	if err := sw.SetRow("A1", toRow(types.ColumnLabels())); err != nil {
		return fmt.Errorf("failed to write header row: %w", err)
	}
	for i := range table.Rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, toRow(table.Rows[i].Values())); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+1, err)
		}
	}
	if err := sw.Flush(); err != nil {
		return fmt.Errorf("failed to flush sheet: %w", err)
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// XLSXBytes returns the workbook for table as an in-memory buffer
func XLSXBytes(table types.ResultTable) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteXLSX(&buf, table); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// SaveXLSX writes the workbook for table to path, creating parent directories
func SaveXLSX(path string, table types.ResultTable) error {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}
	data, err := XLSXBytes(table)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ReadXLSX reads the first sheet of a workbook back as rows of strings
func ReadXLSX(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}
	return rows, nil
}

func toRow(values []string) []interface{} {
	row := make([]interface{}, len(values))
	for i, v := range values {
		row[i] = v
	}
	return row
}
