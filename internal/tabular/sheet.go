// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package tabular reads and writes the spreadsheet files that hand rows from
// one pipeline stage to the next.
//
// Every file holds a single worksheet whose first row is the header. Readers
// look columns up by header name, so column order is not significant.
package tabular

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"
)

// sheetName is the worksheet written to every file.
const sheetName = "Sheet1"

// MaxCellChars is the longest string a single cell can hold.
const MaxCellChars = excelize.TotalCellChars

// Sheet is an in-memory worksheet: a header row and string cells.
type Sheet struct {
	Header []string
	Rows   [][]string
}

// Col returns the index of the named column or an error if absent.
func (s *Sheet) Col(name string) (int, error) {
	for i, h := range s.Header {
		if h == name {
			return i, nil
		}
	}
	return -1, fmt.Errorf("missing column %q", name)
}

// Cell returns row r, column c, or "" for cells past the end of a short row.
func (s *Sheet) Cell(r, c int) string {
	if c < 0 || c >= len(s.Rows[r]) {
		return ""
	}
	return s.Rows[r][c]
}

// Write saves header and rows to path as an xlsx workbook. Cells may be any
// value excelize accepts; nil leaves the cell empty. The file is written to a
// temporary name in the same directory and renamed into place.
func Write(path string, header []string, rows [][]any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	hdr := make([]any, len(header))
	for i, h := range header {
		hdr[i] = h
	}
	if err := f.SetSheetRow(sheetName, "A1", &hdr); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		r := row
		if err := f.SetSheetRow(sheetName, cell, &r); err != nil {
			return fmt.Errorf("writing row %d: %w", i+1, err)
		}
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".tabular-*.xlsx")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()
	tmp.Close()

	if err := f.SaveAs(tmpPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("saving %s: %w", path, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}

// Read loads the first worksheet of the workbook at path.
func Read(path string) (*Sheet, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%s has no worksheets", path)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%s has no header row", path)
	}
	return &Sheet{Header: rows[0], Rows: rows[1:]}, nil
}
