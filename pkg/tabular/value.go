package tabular

import (
	"math"
	"strconv"
)

type ValueKind int

const (
	Missing ValueKind = iota
	Number
	Text
)

func (k ValueKind) String() string {
	switch k {
	case Missing:
		return "missing"
	case Number:
		return "number"
	case Text:
		return "text"
	default:
		return "unknown"
	}
}

// Value is a cell of Frame.
//
// Zero value is missing.
type Value struct {
	kind ValueKind
	num  float64
	text string
}

func MissingValue() Value {
	return Value{kind: Missing}
}

// NumberValue returns a numeric Value.
//
// NaN and infinities are not representable in the wire format, so they become missing.
func NumberValue(f float64) Value {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return MissingValue()
	}
	return Value{kind: Number, num: f}
}

func TextValue(s string) Value {
	return Value{kind: Text, text: s}
}

func (v Value) Kind() ValueKind {
	return v.kind
}

func (v Value) IsMissing() bool {
	return v.kind == Missing
}

// Float returns numeric value. ok is false unless the value is a Number.
func (v Value) Float() (f float64, ok bool) {
	if v.kind != Number {
		return math.NaN(), false
	}
	return v.num, true
}

// Str returns text value. ok is false unless the value is a Text.
func (v Value) Str() (s string, ok bool) {
	if v.kind != Text {
		return "", false
	}
	return v.text, true
}

func (v Value) String() string {
	switch v.kind {
	case Number:
		return strconv.FormatFloat(v.num, 'g', -1, 64)
	case Text:
		return v.text
	default:
		return "?"
	}
}

func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case Number:
		return v.num == o.num
	case Text:
		return v.text == o.text
	default:
		return true
	}
}

// wire representation of the value, for encoding/json.
func (v Value) any() any {
	switch v.kind {
	case Number:
		return v.num
	case Text:
		return v.text
	default:
		return nil
	}
}
