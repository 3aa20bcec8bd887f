package instrument

import (
	"errors"
	"fmt"
	"strings"
)

// ErrEmptyData marks a data block with no usable rows.
var ErrEmptyData = errors.New("data block is empty")

// Table is a parsed tabular block: a header row plus data rows, all cells
// kept as strings.
type Table struct {
	Header []string
	Rows   [][]string
}

// ParseData interprets the lines after the data marker as a tab-delimited
// table. The instruments emit decimal commas; these are normalized to
// decimal points before splitting. The first non-blank line is the header;
// a row wider than the header is a parse error.
func ParseData(lines []string) (*Table, error) {
	var rows [][]string
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		normalized := strings.ReplaceAll(line, ",", ".")
		rows = append(rows, strings.Split(normalized, "\t"))
	}
	if len(rows) == 0 {
		return nil, ErrEmptyData
	}

	table := &Table{Header: rows[0]}
	width := len(table.Header)
	for i, row := range rows[1:] {
		if len(row) > width {
			return nil, fmt.Errorf("data row %d has %d fields, header has %d", i+2, len(row), width)
		}
		for len(row) < width {
			row = append(row, "")
		}
		table.Rows = append(table.Rows, row)
	}
	return table, nil
}

// LineTable converts an unstructured export into a table: every line is
// tab-split with empty fragments dropped, rows are padded to the widest row,
// and generic Column_<n> headers are assigned. Returns nil when no line
// yields any cell.
func LineTable(lines []string) *Table {
	var rows [][]string
	maxCols := 0
	for _, line := range lines {
		var parts []string
		for _, part := range strings.Split(line, "\t") {
			trimmed := strings.TrimSpace(part)
			if trimmed != "" {
				parts = append(parts, trimmed)
			}
		}
		if len(parts) == 0 {
			continue
		}
		if len(parts) > maxCols {
			maxCols = len(parts)
		}
		rows = append(rows, parts)
	}
	if len(rows) == 0 {
		return nil
	}

	header := make([]string, maxCols)
	for i := range header {
		header[i] = fmt.Sprintf("Column_%d", i+1)
	}
	for i, row := range rows {
		for len(row) < maxCols {
			row = append(row, "")
		}
		rows[i] = row
	}
	return &Table{Header: header, Rows: rows}
}
