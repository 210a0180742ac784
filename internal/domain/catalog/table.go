// Package catalog holds the vendor catalog table model and the price adjustment
// applied to it. Decoders in the parser subpackage produce a Table; Adjust
// derives the marked-up "New Price" column from it.
package catalog

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ColumnType is the declared type of a column, inferred by the decoder.
type ColumnType string

const (
	ColumnString ColumnType = "string"
	ColumnNumber ColumnType = "number"
)

// Column describes one table column
type Column struct {
	Name string
	Type ColumnType
}

// Row holds one cell per column, in column order
type Row []string

// Table is a rectangular catalog: ordered unique columns and ordered rows.
// Every row has exactly len(Columns) cells.
type Table struct {
	Columns []Column
	Rows    []Row
}

// NewTable builds a table from a header and raw records. Header names are made
// unique, records are padded to the header width, and column types are inferred
// from the cell contents. A record wider than the header is rejected.
func NewTable(header []string, records [][]string) (*Table, error) {
	names := UniqueHeaders(header)

	t := &Table{
		Columns: make([]Column, len(names)),
		Rows:    make([]Row, 0, len(records)),
	}
	for i, name := range names {
		t.Columns[i] = Column{Name: name, Type: ColumnString}
	}

	for i, record := range records {
		if len(record) > len(names) {
			return nil, fmt.Errorf("row %d has %d fields, header has %d", i+1, len(record), len(names))
		}
		row := make(Row, len(names))
		copy(row, record)
		t.Rows = append(t.Rows, row)
	}

	t.InferTypes()
	return t, nil
}

// UniqueHeaders names empty header cells "Unnamed: <index>" and suffixes
// repeated names with ".1", ".2", ... in order of appearance. Other names are
// kept verbatim, surrounding whitespace included.
func UniqueHeaders(header []string) []string {
	names := make([]string, len(header))
	seen := make(map[string]int, len(header))
	taken := make(map[string]bool, len(header))
	for _, h := range header {
		taken[h] = true
	}

	for i, h := range header {
		name := h
		if name == "" {
			name = fmt.Sprintf("Unnamed: %d", i)
		}
		if n, ok := seen[name]; ok {
			base := name
			for {
				n++
				name = fmt.Sprintf("%s.%d", base, n)
				if !taken[name] {
					break
				}
			}
			seen[base] = n
		} else {
			seen[name] = 0
		}
		taken[name] = true
		names[i] = name
	}
	return names
}

// InferTypes marks a column as a number when every non-blank cell parses as a
// decimal and at least one cell is non-blank.
func (t *Table) InferTypes() {
	for col := range t.Columns {
		numeric := false
		for _, row := range t.Rows {
			v := strings.TrimSpace(row[col])
			if v == "" {
				continue
			}
			if _, err := decimal.NewFromString(v); err != nil {
				numeric = false
				break
			}
			numeric = true
		}
		if numeric {
			t.Columns[col].Type = ColumnNumber
		} else {
			t.Columns[col].Type = ColumnString
		}
	}
}

// ColumnIndex returns the position of the column with the exact given name, or -1
func (t *Table) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// HasColumn reports whether a column with the exact given name exists
func (t *Table) HasColumn(name string) bool {
	return t.ColumnIndex(name) >= 0
}

// ColumnNames returns the column names in order
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// Value returns the cell of row i in the named column.
func (t *Table) Value(i int, name string) (string, bool) {
	col := t.ColumnIndex(name)
	if col < 0 || i < 0 || i >= len(t.Rows) {
		return "", false
	}
	return t.Rows[i][col], true
}

// Column returns all cells of the named column in row order.
func (t *Table) Column(name string) ([]string, bool) {
	col := t.ColumnIndex(name)
	if col < 0 {
		return nil, false
	}
	values := make([]string, len(t.Rows))
	for i, row := range t.Rows {
		values[i] = row[col]
	}
	return values, true
}

// Clone returns a deep copy of the table
func (t *Table) Clone() *Table {
	c := &Table{
		Columns: make([]Column, len(t.Columns)),
		Rows:    make([]Row, len(t.Rows)),
	}
	copy(c.Columns, t.Columns)
	for i, row := range t.Rows {
		c.Rows[i] = append(Row(nil), row...)
	}
	return c
}

// Records returns the header followed by every row, ready for a CSV writer.
func (t *Table) Records() [][]string {
	records := make([][]string, 0, len(t.Rows)+1)
	records = append(records, t.ColumnNames())
	for _, row := range t.Rows {
		records = append(records, append([]string(nil), row...))
	}
	return records
}

// Len returns the number of data rows
func (t *Table) Len() int {
	return len(t.Rows)
}
