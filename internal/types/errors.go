// =============================================================================
// Sheet to XML Converter - Error Kinds
// =============================================================================
//
// ERROR KINDS:
//   ParseError      : the schema file is unreadable or malformed (fatal)
//   LoadError       : the spreadsheet is unreadable or malformed (fatal)
//   ConversionError : a cell does not fit its declared schema type (fatal)
//   IOError         : writing an output file or the archive failed (fatal)
//
// Validation failures are not errors: they are reported per document and the
// run continues.
//
// =============================================================================

package types

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedFormat is returned for spreadsheet extensions we cannot read.
	ErrUnsupportedFormat = errors.New("unsupported spreadsheet format")

	// ErrNoHeader is returned when a sheet has no header row.
	ErrNoHeader = errors.New("sheet has no header row")

	// ErrColumnNotFound is returned when a schema field has no matching column.
	ErrColumnNotFound = errors.New("column not found")

	// ErrRecordElementNotFound is returned when the schema lacks the record element.
	ErrRecordElementNotFound = errors.New("record element not found in schema")
)

// ParseError reports a schema that could not be read or understood.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse schema %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// LoadError reports a spreadsheet that could not be read or understood.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load spreadsheet %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// ConversionError reports a cell that cannot be coerced to its field type.
type ConversionError struct {
	// Field is the schema field (column) name.
	Field string

	// Row is the 0-based row within the chunk being built. -1 when unknown.
	Row int

	// Value is the raw cell rendering.
	Value string

	// Type is the declared field type.
	Type FieldType

	Err error
}

func (e *ConversionError) Error() string {
	msg := fmt.Sprintf("cannot convert %q to %s", e.Value, e.Type)
	if e.Field != "" {
		msg = fmt.Sprintf("field %q: %s", e.Field, msg)
	}
	if e.Row >= 0 {
		msg = fmt.Sprintf("row %d, %s", e.Row, msg)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ConversionError) Unwrap() error { return e.Err }

// IOError reports a failed filesystem or archive operation.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }
