// =============================================================================
// Sheet to XML Converter - Value Conversion
// =============================================================================
//
// This module converts typed cell values to the text written into XML
// elements, according to the field type declared in the schema.
//
// CONVERSION RULES:
//   integer : whole numbers as digits; fractions are truncated toward zero
//   float   : shortest decimal rendering (no exponent, no trailing zeros)
//   date    : YYYY-MM-DD
//   text    : the value's own rendering
//
// An empty cell converts to "" for every type. A value that cannot be read
// as the requested type is a ConversionError, which aborts the run.
//
// =============================================================================

package transform

import (
	"errors"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/sheet2xml/internal/types"
)

var (
	errNotNumber = errors.New("not a number")
	errNotDate   = errors.New("not a recognizable date")
	errNotFinite = errors.New("not a finite number")
	errDateValue = errors.New("date cells cannot be converted to numbers")
)

// dateLayouts are tried in order when a text cell is converted to a date.
// Day-first wins for slashed dates: "03/04/2024" is 3 April 2024.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006/01/02",
	"02/01/2006",
	"01/02/2006",
	"20060102",
}

// =============================================================================
// CONVERSION
// =============================================================================

// Convert renders v as text for a field of type t.
//
// PARAMETERS:
//   - v: The typed cell value.
//   - t: The field type declared in the schema.
//
// RETURNS:
//   - The element text.
//   - A *types.ConversionError when v cannot be read as t. Field and Row are
//     left for the caller to fill in (Row is -1).
func Convert(v types.Value, t types.FieldType) (string, error) {
	if v.IsEmpty() {
		return "", nil
	}

	var (
		out string
		err error
	)

	switch t {

	// =========================================================================
	// INTEGER
	// =========================================================================

	case types.FieldInteger:
		// EXAMPLE:
		//   Integer(7)   -> "7"
		//   Float(-3.7)  -> "-3"
		//   Text(" 12 ") -> "12"
		//   Text("4.9")  -> "4"
		out, err = toInteger(v)

	// =========================================================================
	// FLOAT
	// =========================================================================

	case types.FieldFloat:
		// EXAMPLE:
		//   Integer(3)    -> "3"
		//   Float(10.5)   -> "10.5"
		//   Float(0.1)    -> "0.1"
		//   Text("2.50")  -> "2.5"
		out, err = toFloat(v)

	// =========================================================================
	// DATE
	// =========================================================================

	case types.FieldDate:
		// EXAMPLE:
		//   Date(2024-01-15 00:00)  -> "2024-01-15"
		//   Text("15/01/2024")      -> "2024-01-15"
		//   Integer(45306)          -> "2024-01-15"  (Excel serial day)
		out, err = toDate(v)

	default:
		out = v.String()
	}

	if err != nil {
		return "", &types.ConversionError{Row: -1, Value: v.String(), Type: t, Err: err}
	}
	return out, nil
}

func toInteger(v types.Value) (string, error) {
	switch v.Kind() {
	case types.KindInteger:
		return strconv.FormatInt(v.Int(), 10), nil
	case types.KindFloat:
		d, err := finite(v.Float())
		if err != nil {
			return "", err
		}
		return d.Truncate(0).String(), nil
	case types.KindText:
		d, err := decimal.NewFromString(strings.TrimSpace(v.Text()))
		if err != nil {
			return "", errNotNumber
		}
		return d.Truncate(0).String(), nil
	default:
		return "", errDateValue
	}
}

func toFloat(v types.Value) (string, error) {
	switch v.Kind() {
	case types.KindInteger:
		return decimal.NewFromInt(v.Int()).String(), nil
	case types.KindFloat:
		d, err := finite(v.Float())
		if err != nil {
			return "", err
		}
		return d.String(), nil
	case types.KindText:
		d, err := decimal.NewFromString(strings.TrimSpace(v.Text()))
		if err != nil {
			return "", errNotNumber
		}
		return d.String(), nil
	default:
		return "", errDateValue
	}
}

func toDate(v types.Value) (string, error) {
	switch v.Kind() {
	case types.KindDate:
		return v.Time().Format(types.DateLayout), nil
	case types.KindInteger:
		return serialDate(float64(v.Int()))
	case types.KindFloat:
		return serialDate(v.Float())
	default:
		t, ok := ParseDate(v.Text())
		if !ok {
			return "", errNotDate
		}
		return t.Format(types.DateLayout), nil
	}
}

// ParseDate parses s with each of the accepted date layouts in turn.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// serialDate interprets n as an Excel serial day in the 1900 date system.
func serialDate(n float64) (string, error) {
	if _, err := finite(n); err != nil {
		return "", err
	}
	if n <= 0 {
		return "", errNotDate
	}
	t, err := excelize.ExcelDateToTime(n, false)
	if err != nil {
		return "", errNotDate
	}
	return t.Format(types.DateLayout), nil
}

func finite(f float64) (decimal.Decimal, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return decimal.Decimal{}, errNotFinite
	}
	return decimal.NewFromFloat(f), nil
}
