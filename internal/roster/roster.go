// Package roster reads the employee roster workbook.
package roster

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/daviddao/permmatch/internal/types"
)

// DefaultColumn is the header of the combined name and ID column.
const DefaultColumn = "员工名字工号"

// ErrColumnNotFound is returned when the roster has no employee column.
var ErrColumnNotFound = errors.New("roster column not found")

// Options select the sheet and column to read.
type Options struct {
	Sheet  string // empty means the first sheet
	Column string // empty means DefaultColumn
}

// Roster is a parsed roster sheet.
type Roster struct {
	Sheet     string
	Headers   []string
	Column    int // index of the employee column in Headers
	Employees []types.Employee
}

// Load opens the workbook at path and parses the roster.
func Load(path string, opts Options) (*Roster, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open roster %s: %w", path, err)
	}
	defer f.Close()
	return parse(f, opts)
}

// Read parses a roster workbook from r.
func Read(r io.Reader, opts Options) (*Roster, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open roster: %w", err)
	}
	defer f.Close()
	return parse(f, opts)
}

func parse(f *excelize.File, opts Options) (*Roster, error) {
	sheet := opts.Sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, errors.New("roster workbook has no sheets")
		}
		sheet = sheets[0]
	}
	column := opts.Column
	if column == "" {
		column = DefaultColumn
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("sheet %q: %w: %s", sheet, ErrColumnNotFound, column)
	}

	headers := make([]string, len(rows[0]))
	col := -1
	for i, h := range rows[0] {
		headers[i] = strings.TrimSpace(h)
		if col < 0 && headers[i] == column {
			col = i
		}
	}
	if col < 0 {
		return nil, fmt.Errorf("sheet %q: %w: %s", sheet, ErrColumnNotFound, column)
	}

	r := &Roster{Sheet: sheet, Headers: headers, Column: col}
	for i, row := range rows[1:] {
		if blank(row) {
			continue
		}
		cells := make([]string, len(headers))
		copy(cells, row)
		raw := strings.TrimSpace(cells[col])
		name, id := ParseEntry(raw)
		r.Employees = append(r.Employees, types.Employee{
			Name:    name,
			ID:      id,
			Row:     i + 2, // 1-based, after the header row
			Raw:     raw,
			Columns: cells,
		})
	}
	return r, nil
}

// Value returns the cell of emp under header, or "".
func (r *Roster) Value(emp types.Employee, header string) string {
	for i, h := range r.Headers {
		if h == header && i < len(emp.Columns) {
			return emp.Columns[i]
		}
	}
	return ""
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
