// =============================================================================
// Sheet to XML Converter - Shared Types
// =============================================================================
//
// This package contains shared types used across multiple modules to avoid
// import cycles. Types defined here are used by:
//   - loader / xlsxparser / csvparser (produce Tables)
//   - schema (produces Fields)
//   - transform (converts Values)
//   - converter / xmlwriter (consume all of the above)
//
// =============================================================================

package types

// =============================================================================
// METADATA
// =============================================================================

// Metadata column names. Their first-row values describe the whole document
// and are emitted in this order inside the metadata block.
const (
	MetaCreated = "created"
	MetaAuthor  = "author"
	MetaVersion = "version"
)

// MetadataKeys lists the metadata keys in output order.
var MetadataKeys = []string{MetaCreated, MetaAuthor, MetaVersion}

// Metadata holds the document-level fields extracted from the first data row.
type Metadata struct {
	// Created is the creation date formatted as YYYY-MM-DD.
	Created string `yaml:"created"`

	// Author is the rendered author cell.
	Author string `yaml:"author"`

	// Version is the rendered version cell.
	Version string `yaml:"version"`
}

// Get returns the metadata value for key, or "" for unknown keys.
func (m Metadata) Get(key string) string {
	switch key {
	case MetaCreated:
		return m.Created
	case MetaAuthor:
		return m.Author
	case MetaVersion:
		return m.Version
	}
	return ""
}

// =============================================================================
// FIELD SCHEMA
// =============================================================================

// FieldType is the conversion rule declared for a record field.
type FieldType int

const (
	// FieldText is the fallback for every declared type not listed below.
	FieldText FieldType = iota

	// FieldInteger covers xs:int, xs:integer, xs:long and friends.
	FieldInteger

	// FieldFloat covers xs:decimal, xs:float and xs:double.
	FieldFloat

	// FieldDate covers xs:date.
	FieldDate
)

// String returns the lower-case name of the field type.
func (t FieldType) String() string {
	switch t {
	case FieldInteger:
		return "integer"
	case FieldFloat:
		return "float"
	case FieldDate:
		return "date"
	default:
		return "text"
	}
}

// Field is one child element of the record element, in schema order.
type Field struct {
	// Name is the element name, which is also the source column name.
	Name string

	// Type is the conversion rule derived from XSDType.
	Type FieldType

	// XSDType is the declared type as written in the schema (e.g. "xs:int").
	// Empty for elements declared without a type.
	XSDType string
}

// FieldNames returns the names of fields in order.
func FieldNames(fields []Field) []string {
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.Name
	}
	return names
}
