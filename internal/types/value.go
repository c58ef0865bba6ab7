// =============================================================================
// Sheet to XML Converter - Cell Values
// =============================================================================
//
// Cells are typed exactly once, when the spreadsheet is loaded. Every later
// stage works on this closed set of kinds instead of inspecting raw strings:
//
//   Empty   : missing / blank cell
//   Integer : whole number
//   Float   : fractional number
//   Date    : calendar date (with optional time of day)
//   Text    : anything else
//
// =============================================================================

package types

import (
	"strconv"
	"strings"
	"time"
)

// Kind identifies which variant a Value holds.
type Kind int

const (
	KindEmpty Kind = iota
	KindInteger
	KindFloat
	KindDate
	KindText
)

// String returns the lower-case name of the kind.
func (k Kind) String() string {
	switch k {
	case KindInteger:
		return "integer"
	case KindFloat:
		return "float"
	case KindDate:
		return "date"
	case KindText:
		return "text"
	default:
		return "empty"
	}
}

// DateLayout is the canonical date rendering used in every output document.
const DateLayout = "2006-01-02"

// dateTimeLayout is used when a date value carries a time of day.
const dateTimeLayout = "2006-01-02 15:04:05"

// Value is a single typed cell. The zero value is Empty.
type Value struct {
	kind Kind
	i    int64
	f    float64
	t    time.Time
	s    string
}

// Empty returns the empty value.
func Empty() Value { return Value{} }

// Int returns an Integer value.
func Int(i int64) Value { return Value{kind: KindInteger, i: i} }

// Float returns a Float value.
func Float(f float64) Value { return Value{kind: KindFloat, f: f} }

// Date returns a Date value.
func Date(t time.Time) Value { return Value{kind: KindDate, t: t} }

// Text returns a Text value. Blank strings collapse to Empty so that a
// missing cell has exactly one representation.
func Text(s string) Value {
	if strings.TrimSpace(s) == "" {
		return Empty()
	}
	return Value{kind: KindText, s: s}
}

// Kind reports the variant held by v.
func (v Value) Kind() Kind { return v.kind }

// IsEmpty reports whether v is the Empty variant.
func (v Value) IsEmpty() bool { return v.kind == KindEmpty }

// Int returns the integer payload. Only meaningful for KindInteger.
func (v Value) Int() int64 { return v.i }

// Float returns the float payload. Only meaningful for KindFloat.
func (v Value) Float() float64 { return v.f }

// Time returns the date payload. Only meaningful for KindDate.
func (v Value) Time() time.Time { return v.t }

// Text returns the text payload. Only meaningful for KindText.
func (v Value) Text() string { return v.s }

// String renders the value directly, without any schema type applied.
func (v Value) String() string {
	switch v.kind {
	case KindInteger:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return strconv.FormatFloat(v.f, 'f', -1, 64)
	case KindDate:
		if hasClock(v.t) {
			return v.t.Format(dateTimeLayout)
		}
		return v.t.Format(DateLayout)
	case KindText:
		return v.s
	default:
		return ""
	}
}

// Equal reports whether two values hold the same variant and payload.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindInteger:
		return v.i == o.i
	case KindFloat:
		return v.f == o.f
	case KindDate:
		return v.t.Equal(o.t)
	case KindText:
		return v.s == o.s
	default:
		return true
	}
}

func hasClock(t time.Time) bool {
	h, m, s := t.Clock()
	return h != 0 || m != 0 || s != 0 || t.Nanosecond() != 0
}
