package tabular

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	xe "github.com/opst/tabserve/pkg/errors"
)

// NullSentinel is the text treated as a missing value (compared case-insensitively,
// ignoring surrounding spaces).
const NullSentinel = "null"

// payload in the wire format:
//
//	{"columns": ["a", "b"], "data": [[1, "x"], [2, null]]}
type payload struct {
	Columns []any   `json:"columns"`
	Data    [][]any `json:"data"`
}

type predictions struct {
	Columns []string `json:"columns"`
	Data    [][]any  `json:"data"`
}

// Decode reads a payload in the wire format into a Frame.
//
// Values are normalized into text first: JSON null and the null sentinel become
// missing. Then each column is typed as Numeric when all of its non-missing values
// are numbers, as Nominal otherwise (unless opts says), or Unknown when it has no
// values.
//
// When columns or data are absent or empty, it returns an error wrapping
// ErrMalformedPayload.
func Decode(body []byte, opts Options) (*Frame, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	p := payload{}
	if err := dec.Decode(&p); err != nil {
		return nil, xe.Wrap(xe.ErrMalformedPayload, "payload is not a tabular JSON", err)
	}
	if len(p.Columns) == 0 {
		return nil, xe.Wrapf(xe.ErrMalformedPayload, "no column names declared in payload")
	}
	if len(p.Data) == 0 {
		return nil, xe.Wrapf(xe.ErrMalformedPayload, "no data rows in payload")
	}

	names := make([]string, len(p.Columns))
	for nth, c := range p.Columns {
		n, missing, err := toText(c)
		if err != nil || missing {
			return nil, xe.Wrapf(xe.ErrMalformedPayload, "column name #%d is not a name: %v", nth, c)
		}
		names[nth] = n
	}

	// text form of cells. nil = missing.
	cells := make([][]*string, len(p.Data))
	for r, row := range p.Data {
		if len(row) != len(names) {
			return nil, xe.Wrapf(
				xe.ErrMalformedPayload,
				"row %d has %d values, but %d columns are declared", r, len(row), len(names),
			)
		}
		cells[r] = make([]*string, len(row))
		for c, v := range row {
			s, missing, err := toText(v)
			if err != nil {
				return nil, xe.Wrap(
					xe.ErrMalformedPayload,
					fmt.Sprintf(`value at row %d, column "%s"`, r, names[c]), err,
				)
			}
			if missing {
				continue
			}
			cells[r][c] = &s
		}
	}

	return build(names, cells, opts)
}

// Encode writes the frame in the wire format.
//
// Columns are written in the order of the frame. Missing values are written as null.
func Encode(f *Frame) ([]byte, error) {
	out := predictions{
		Columns: make([]string, f.NumColumns()),
		Data:    make([][]any, f.NumRows()),
	}
	for i, c := range f.columns {
		out.Columns[i] = c.Name
	}
	for r, row := range f.rows {
		out.Data[r] = make([]any, len(row))
		for c, v := range row {
			out.Data[r][c] = v.any()
		}
	}
	return json.Marshal(out)
}

// EncodePredictions writes prediction vectors in the wire format.
//
// Each vector should have len(columns) elements. NaN is written as null.
func EncodePredictions(columns []string, preds [][]float64) ([]byte, error) {
	out := predictions{
		Columns: columns,
		Data:    make([][]any, len(preds)),
	}
	if out.Columns == nil {
		out.Columns = []string{}
	}
	for r, p := range preds {
		if len(p) != len(columns) {
			return nil, fmt.Errorf(
				"prediction for row %d has %d values, but %d columns are declared",
				r, len(p), len(columns),
			)
		}
		row := make([]any, len(p))
		for c, v := range p {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				row[c] = nil
			} else {
				row[c] = v
			}
		}
		out.Data[r] = row
	}
	return json.Marshal(out)
}

// FromRecords builds a Frame from records of text, like rows of a CSV file.
//
// Empty cells and the null sentinel are missing. Columns are typed as Decode does.
func FromRecords(names []string, records [][]string, opts Options) (*Frame, error) {
	if len(names) == 0 {
		return nil, xe.Wrapf(xe.ErrMalformedPayload, "no column names")
	}
	cells := make([][]*string, len(records))
	for r, rec := range records {
		if len(rec) != len(names) {
			return nil, xe.Wrapf(
				xe.ErrMalformedPayload,
				"record %d has %d values, but %d columns are declared", r, len(rec), len(names),
			)
		}
		cells[r] = make([]*string, len(rec))
		for c, text := range rec {
			t := strings.TrimSpace(text)
			if t == "" || strings.EqualFold(t, NullSentinel) {
				continue
			}
			cells[r][c] = &text
		}
	}
	return build(names, cells, opts)
}

// build types columns and converts cells (nil = missing) into values.
func build(names []string, cells [][]*string, opts Options) (*Frame, error) {
	columns := make([]Column, len(names))
	for c, name := range names {
		typ, ok := opts.forced(name)
		if !ok {
			typ = infer(cells, c)
		}
		columns[c] = Column{Name: name, Type: typ}
	}

	rows := make([][]Value, len(cells))
	for r, row := range cells {
		rows[r] = make([]Value, len(row))
		for c, s := range row {
			switch {
			case s == nil:
				rows[r][c] = MissingValue()
			case columns[c].Type == Numeric:
				f, _ := parseNumber(*s)
				rows[r][c] = NumberValue(f)
			default:
				rows[r][c] = TextValue(*s)
			}
		}
	}

	return NewFrame(columns, rows)
}

// toText converts a decoded JSON scalar into text.
//
// missing is true for null and for the null sentinel.
func toText(v any) (text string, missing bool, err error) {
	switch x := v.(type) {
	case nil:
		return "", true, nil
	case json.Number:
		text = x.String()
	case string:
		text = x
	case bool:
		text = strconv.FormatBool(x)
	case float64:
		text = strconv.FormatFloat(x, 'g', -1, 64)
	default:
		return "", false, fmt.Errorf("%v is not a scalar", v)
	}

	if strings.EqualFold(strings.TrimSpace(text), NullSentinel) {
		return "", true, nil
	}
	return text, false, nil
}

func parseNumber(s string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return math.NaN(), false
	}
	return f, true
}

func infer(cells [][]*string, col int) ColumnType {
	typ := Unknown
	for _, row := range cells {
		s := row[col]
		if s == nil {
			continue
		}
		if _, ok := parseNumber(*s); !ok {
			return Nominal
		}
		typ = Numeric
	}
	return typ
}
