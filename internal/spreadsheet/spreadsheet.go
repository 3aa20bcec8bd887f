// Package spreadsheet writes tabular data as xlsx workbooks.
package spreadsheet

import (
	"fmt"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"centrifuge/internal/fileutil"
)

const sheetName = "Sheet1"

// WriteTable writes a single-sheet workbook to path: the header on the first
// row, data rows below, every cell a string. Parent directories are created
// as needed.
func WriteTable(path string, header []string, rows [][]string) error {
	if err := fileutil.EnsureDir(filepath.Dir(path)); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	book := excelize.NewFile()
	defer book.Close()

	if err := setRow(book, 1, header); err != nil {
		return err
	}
	for i, row := range rows {
		if err := setRow(book, i+2, row); err != nil {
			return err
		}
	}
	if err := book.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook %s: %w", filepath.Base(path), err)
	}
	return nil
}

func setRow(book *excelize.File, rowIndex int, cells []string) error {
	cell, err := excelize.CoordinatesToCellName(1, rowIndex)
	if err != nil {
		return err
	}
	values := make([]any, len(cells))
	for i, v := range cells {
		values[i] = v
	}
	if err := book.SetSheetRow(sheetName, cell, &values); err != nil {
		return fmt.Errorf("write row %d: %w", rowIndex, err)
	}
	return nil
}

// ReadTable loads the first sheet of a workbook back into header and rows.
// Used by tests and the aggregate report reader.
func ReadTable(path string) (header []string, rows [][]string, err error) {
	book, err := excelize.OpenFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open workbook %s: %w", filepath.Base(path), err)
	}
	defer book.Close()

	all, err := book.GetRows(sheetName)
	if err != nil {
		return nil, nil, fmt.Errorf("read workbook %s: %w", filepath.Base(path), err)
	}
	if len(all) == 0 {
		return nil, nil, nil
	}
	return all[0], all[1:], nil
}
