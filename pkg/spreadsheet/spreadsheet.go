// Package spreadsheet reads the first sheet of an .xlsx workbook into rows keyed
// by the header labels of its first row.
package spreadsheet

import (
	"fmt"
	"io"
	"strings"

	apperrors "github.com/rendezvous-csd/rendezvous-api/pkg/errors"
	"github.com/xuri/excelize/v2"
)

// Row is one data row: an ordered set of header keys and the cell value under each.
// Keys holds the encounter order; Values is keyed by the same labels.
type Row struct {
	Line   int // 1-based line in the sheet, header included
	Keys   []string
	Values map[string]string
}

// Ordered returns the row's values in the given key order
func (r Row) Ordered(keys []string) []string {
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = r.Values[k]
	}
	return out
}

// Sheet is the parsed content of a workbook's first sheet
type Sheet struct {
	Name    string
	Headers []string
	Rows    []Row
}

// unnamedKey labels cells that sit to the right of the last header
func unnamedKey(col int) string {
	return fmt.Sprintf("__EMPTY_%d", col)
}

// Parse reads the first sheet of the workbook in r.
// Blank rows are skipped. Trailing cells missing from a row read as "".
func Parse(r io.Reader) (*Sheet, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, apperrors.ParseError(fmt.Sprintf("not a readable xlsx workbook: %v", err))
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, apperrors.ParseError("workbook has no sheets")
	}
	name := sheets[0]

	grid, err := f.GetRows(name)
	if err != nil {
		return nil, apperrors.ParseError(fmt.Sprintf("failed to read sheet %q: %v", name, err))
	}

	headerLine := -1
	for i, cells := range grid {
		if !blank(cells) {
			headerLine = i
			break
		}
	}
	if headerLine < 0 {
		return nil, apperrors.ParseError("missing header row")
	}

	headers, err := parseHeader(grid[headerLine])
	if err != nil {
		return nil, err
	}

	sheet := &Sheet{Name: name, Headers: headers}
	for i := headerLine + 1; i < len(grid); i++ {
		cells := grid[i]
		if blank(cells) {
			continue
		}
		sheet.Rows = append(sheet.Rows, buildRow(i+1, headers, cells))
	}

	return sheet, nil
}

func parseHeader(cells []string) ([]string, error) {
	// trailing blank header cells are not columns
	last := len(cells) - 1
	for last >= 0 && strings.TrimSpace(cells[last]) == "" {
		last--
	}

	headers := make([]string, 0, last+1)
	seen := make(map[string]bool, last+1)
	for col := 0; col <= last; col++ {
		label := strings.TrimSpace(cells[col])
		if label == "" {
			return nil, apperrors.ParseError(fmt.Sprintf("blank header in column %d", col+1))
		}
		if seen[label] {
			return nil, apperrors.ParseError(fmt.Sprintf("duplicate header %q", label))
		}
		seen[label] = true
		headers = append(headers, label)
	}

	return headers, nil
}

func buildRow(line int, headers, cells []string) Row {
	row := Row{
		Line:   line,
		Keys:   make([]string, 0, len(headers)),
		Values: make(map[string]string, len(headers)),
	}

	for col, key := range headers {
		var value string
		if col < len(cells) {
			value = cells[col]
		}
		row.Keys = append(row.Keys, key)
		row.Values[key] = value
	}

	for col := len(headers); col < len(cells); col++ {
		if strings.TrimSpace(cells[col]) == "" {
			continue
		}
		key := unnamedKey(col + 1)
		row.Keys = append(row.Keys, key)
		row.Values[key] = cells[col]
	}

	return row
}

func blank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
