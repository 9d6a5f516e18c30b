package infra

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"
)

// SheetTable is a titled grid exported as a single-sheet workbook.
type SheetTable struct {
	Sheet   string
	Title   string
	Columns []string
	Rows    [][]string
	Totals  []string
}

// WriteXLSX renders t as an .xlsx file.
func WriteXLSX(t SheetTable) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := t.Sheet
	if sheet == "" {
		sheet = "Sheet1"
	}
	if sheet != "Sheet1" {
		if err := f.SetSheetName("Sheet1", sheet); err != nil {
			return nil, fmt.Errorf("xlsx: rename sheet: %w", err)
		}
	}

	row := 1
	if t.Title != "" {
		if err := f.SetCellValue(sheet, "A1", t.Title); err != nil {
			return nil, fmt.Errorf("xlsx: title: %w", err)
		}
		row = 3
	}

	write := func(values []string) error {
		for i, v := range values {
			cell, err := excelize.CoordinatesToCellName(i+1, row)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return err
			}
		}
		row++
		return nil
	}

	if err := write(t.Columns); err != nil {
		return nil, fmt.Errorf("xlsx: header: %w", err)
	}
	for _, r := range t.Rows {
		if err := write(r); err != nil {
			return nil, fmt.Errorf("xlsx: row %d: %w", row, err)
		}
	}
	if len(t.Totals) > 0 {
		row++
		if err := write(t.Totals); err != nil {
			return nil, fmt.Errorf("xlsx: totals: %w", err)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("xlsx: write: %w", err)
	}
	return buf.Bytes(), nil
}
