package tabular

import (
	"fmt"
	"strings"

	xe "github.com/opst/tabserve/pkg/errors"
)

type ColumnType int

const (
	// every value in the column is missing, so the type cannot be told.
	Unknown ColumnType = iota
	Numeric
	Nominal
	String
)

func (t ColumnType) String() string {
	switch t {
	case Numeric:
		return "numeric"
	case Nominal:
		return "nominal"
	case String:
		return "string"
	default:
		return "unknown"
	}
}

type Column struct {
	Name string
	Type ColumnType
}

func (c Column) String() string {
	return fmt.Sprintf("%s (%s)", c.Name, c.Type)
}

// Frame is an immutable table: named, typed columns and rows of values.
//
// Each row has exactly as many values as columns.
type Frame struct {
	columns []Column
	rows    [][]Value
	index   map[string]int
}

// NewFrame creates a Frame.
//
// Column names should be unique, and each row should have len(columns) values.
// Otherwise, it returns an error wrapping ErrMalformedPayload.
//
// Given slices are copied.
func NewFrame(columns []Column, rows [][]Value) (*Frame, error) {
	index := make(map[string]int, len(columns))
	for i, c := range columns {
		if _, ok := index[c.Name]; ok {
			return nil, xe.Wrapf(xe.ErrMalformedPayload, `column "%s" is declared twice`, c.Name)
		}
		index[c.Name] = i
	}

	cols := make([]Column, len(columns))
	copy(cols, columns)

	rs := make([][]Value, len(rows))
	for nth, r := range rows {
		if len(r) != len(cols) {
			return nil, xe.Wrapf(
				xe.ErrMalformedPayload,
				"row %d has %d values, but %d columns are declared", nth, len(r), len(cols),
			)
		}
		row := make([]Value, len(r))
		copy(row, r)
		rs[nth] = row
	}

	return &Frame{columns: cols, rows: rs, index: index}, nil
}

func (f *Frame) NumColumns() int {
	return len(f.columns)
}

func (f *Frame) NumRows() int {
	return len(f.rows)
}

func (f *Frame) Columns() []Column {
	cols := make([]Column, len(f.columns))
	copy(cols, f.columns)
	return cols
}

func (f *Frame) Column(i int) Column {
	return f.columns[i]
}

// Index returns position of the named column.
func (f *Frame) Index(name string) (int, bool) {
	i, ok := f.index[name]
	return i, ok
}

func (f *Frame) Value(row, col int) Value {
	return f.rows[row][col]
}

// Row returns a copy of the nth row.
func (f *Frame) Row(nth int) []Value {
	r := make([]Value, len(f.rows[nth]))
	copy(r, f.rows[nth])
	return r
}

func (f *Frame) String() string {
	sb := new(strings.Builder)
	for i, c := range f.columns {
		if i != 0 {
			sb.WriteString(",")
		}
		sb.WriteString(c.String())
	}
	sb.WriteString("\n")
	for _, r := range f.rows {
		for i, v := range r {
			if i != 0 {
				sb.WriteString(",")
			}
			sb.WriteString(v.String())
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
