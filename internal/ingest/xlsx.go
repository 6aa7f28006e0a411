package ingest

import (
	"fmt"
	"io"
	"slices"

	"github.com/xuri/excelize/v2"

	"github.com/JonMunkholm/wrangle/internal/table"
)

// SheetNames lists the sheets of a workbook in workbook order.
func SheetNames(r io.Reader) ([]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()
	return f.GetSheetList(), nil
}

// LoadXLSX reads one sheet of a workbook. The first row is the header.
// When sheet is empty the workbook must hold exactly one sheet.
func LoadXLSX(r io.Reader, sheet string) (*table.Table, string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, "", fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	switch {
	case len(sheets) == 0:
		return nil, "", ErrEmptyFile
	case sheet == "" && len(sheets) > 1:
		return nil, "", fmt.Errorf("%w (sheets: %v)", ErrSheetRequired, sheets)
	case sheet == "":
		sheet = sheets[0]
	case !slices.Contains(sheets, sheet):
		return nil, "", fmt.Errorf("%w: %q", ErrSheetNotFound, sheet)
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, sheet, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	// Skip leading blank rows so that a sheet starting lower down still
	// finds its header.
	for len(rows) > 0 && blankTail(rows[0]) {
		rows = rows[1:]
	}
	if len(rows) == 0 {
		return nil, sheet, ErrEmptyFile
	}
	t, err := FromRecords(rows)
	if err != nil {
		return nil, sheet, fmt.Errorf("sheet %q: %w", sheet, err)
	}
	return t, sheet, nil
}
