package schema

import (
	"fmt"
	"math"
	"strings"

	xe "github.com/opst/tabserve/pkg/errors"
	"github.com/opst/tabserve/pkg/tabular"
)

type ProblemKind int

const (
	// the attribute has no column with the same name in the input.
	NoMatch ProblemKind = iota

	// the input column has a type incompatible with the attribute.
	TypeMismatch
)

func (k ProblemKind) String() string {
	switch k {
	case NoMatch:
		return "no match"
	case TypeMismatch:
		return "type mismatch"
	default:
		return "unknown"
	}
}

type Problem struct {
	Attribute string
	Kind      ProblemKind
	Detail    string
}

func (p Problem) String() string {
	return p.Detail
}

// MismatchError reports every problem found while aligning input with a schema.
type MismatchError struct {
	Problems []Problem
}

func (e *MismatchError) Error() string {
	sb := new(strings.Builder)
	sb.WriteString(xe.ErrSchemaMismatch.Error())
	sb.WriteString(": input to model matching problems:")
	for _, p := range e.Problems {
		sb.WriteString("\n")
		sb.WriteString(p.Detail)
	}
	return sb.String()
}

func (e *MismatchError) Is(target error) bool {
	return target == xe.ErrSchemaMismatch
}

// Aligned is input rows reshaped to a Schema.
//
// Each row is a []float64 in the attribute order of the schema.
// Missing values are NaN. Values of nominal attributes are the position of the label
// in Attribute.Values; labels not in Values are missing.
//
// Values of string attributes are positions in a dictionary kept per Aligned: it
// starts with Attribute.Values and is extended with each new text in row order.
// Text recovers the string for a position.
type Aligned struct {
	frame  *tabular.Frame
	target *Schema

	// source[i] is the column in frame for the i-th attribute, or -1.
	source []int

	// dictionaries of string attributes, by attribute index. nil for other types.
	texts [][]string
	codes []map[string]int
}

// Align maps columns of frame onto attributes of target by name.
//
// # Args
//
// - frame: input data. Columns not in target are ignored.
//
// - target: schema which the model is trained with.
//
// # Returns
//
// - *Aligned: rows of frame in the attribute order of target.
// The class attribute of target is always missing in them.
//
// - error: *MismatchError with all problems found. Every attribute is checked before it fails.
func Align(frame *tabular.Frame, target *Schema) (*Aligned, error) {
	problems := []Problem{}
	source := make([]int, target.NumAttributes())

	for i, attr := range target.attributes {
		source[i] = -1
		if i == target.classIndex {
			continue
		}

		col, ok := frame.Index(attr.Name)
		if !ok {
			problems = append(problems, Problem{
				Attribute: attr.Name,
				Kind:      NoMatch,
				Detail: fmt.Sprintf(
					"Model attribute '%s' does not seem to have a match in the incoming data!",
					attr.Name,
				),
			})
			continue
		}

		incoming := frame.Column(col)
		if !compatible(incoming.Type, attr.Type) {
			problems = append(problems, Problem{
				Attribute: attr.Name,
				Kind:      TypeMismatch,
				Detail: fmt.Sprintf(
					"Type mismatch between model attribute '%s' and incoming attribute '%s'",
					attr, incoming,
				),
			})
			continue
		}
		source[i] = col
	}

	if len(problems) != 0 {
		return nil, &MismatchError{Problems: problems}
	}

	a := &Aligned{
		frame:  frame,
		target: target,
		source: source,
		texts:  make([][]string, len(source)),
		codes:  make([]map[string]int, len(source)),
	}
	for i, attr := range target.attributes {
		if attr.Type != String {
			continue
		}
		a.texts[i] = append([]string{}, attr.Values...)
		a.codes[i] = make(map[string]int, len(attr.Values))
		for n, v := range attr.Values {
			if _, ok := a.codes[i][v]; !ok {
				a.codes[i][v] = n
			}
		}
		if source[i] < 0 {
			continue
		}
		for nth := 0; nth < frame.NumRows(); nth++ {
			s, ok := frame.Value(nth, source[i]).Str()
			if !ok {
				continue
			}
			if _, ok := a.codes[i][s]; !ok {
				a.codes[i][s] = len(a.texts[i])
				a.texts[i] = append(a.texts[i], s)
			}
		}
	}
	return a, nil
}

func compatible(in tabular.ColumnType, attr AttributeType) bool {
	switch in {
	case tabular.Unknown:
		return true
	case tabular.Numeric:
		return attr == Numeric
	case tabular.Nominal:
		return attr == Nominal
	case tabular.String:
		return attr == String
	default:
		return false
	}
}

func (a *Aligned) Schema() *Schema {
	return a.target
}

func (a *Aligned) Len() int {
	return a.frame.NumRows()
}

// Row returns the nth input row, shaped to the schema.
func (a *Aligned) Row(nth int) []float64 {
	row := make([]float64, len(a.source))
	for i, col := range a.source {
		if col < 0 {
			row[i] = math.NaN()
			continue
		}
		row[i] = a.encode(i, a.frame.Value(nth, col))
	}
	return row
}

// Value returns the input value for the i-th attribute of the nth row, as given.
//
// It is missing for the class attribute and for attributes with no input column.
func (a *Aligned) Value(nth, i int) tabular.Value {
	col := a.source[i]
	if col < 0 {
		return tabular.MissingValue()
	}
	return a.frame.Value(nth, col)
}

// Text returns the string which code stands for in rows of the i-th attribute.
//
// ok is false when the attribute is not a string attribute or code is not in its
// dictionary.
func (a *Aligned) Text(i int, code float64) (s string, ok bool) {
	texts := a.texts[i]
	if texts == nil || math.IsNaN(code) || code < 0 || float64(len(texts)) <= code {
		return "", false
	}
	return texts[int(code)], true
}

// Each calls fn with every aligned row in order. It stops at the first error.
func (a *Aligned) Each(fn func(nth int, row []float64) error) error {
	for nth := 0; nth < a.Len(); nth++ {
		if err := fn(nth, a.Row(nth)); err != nil {
			return err
		}
	}
	return nil
}

func (a *Aligned) encode(i int, v tabular.Value) float64 {
	attr := a.target.attributes[i]
	switch attr.Type {
	case Numeric:
		f, _ := v.Float()
		return f
	case String:
		s, ok := v.Str()
		if !ok {
			return math.NaN()
		}
		if code, ok := a.codes[i][s]; ok {
			return float64(code)
		}
		return math.NaN()
	default:
		s, ok := v.Str()
		if !ok {
			return math.NaN()
		}
		if idx := attr.IndexOf(s); 0 <= idx {
			return float64(idx)
		}
		return math.NaN()
	}
}
