package xmlwriter

import (
	"bytes"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/ginjaninja78/sheet2xml/internal/types"
)

// =============================================================================
// XSD GENERATION (STARTER SCHEMA FROM A SPREADSHEET)
// =============================================================================

// elementName matches column names usable as XML element names.
var elementName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9._-]*$`)

// GenerateXSD writes a starter schema for documents built from t.
//
// PARAMETERS:
//   - t: A loaded table. Metadata columns are described by the metadata block
//     and are not repeated as record fields.
//   - opts: The element names to declare.
//
// RETURNS:
//   - The XSD document as a byte slice.
//   - The columns left out because they are not valid element names.
//   - An error if no column can become a record field.
//
// TYPE INFERENCE:
//   A column whose cells are all integers becomes xs:integer, all numbers
//   xs:decimal, all dates xs:date. Anything else, including any column with
//   a blank cell, becomes xs:string so every generated document validates.
func GenerateXSD(t *types.Table, opts Options) ([]byte, []string, error) {
	opts = opts.withDefaults()

	var fields []string
	var skipped []string
	for _, column := range t.Columns {
		if isMetadataKey(column) {
			continue
		}
		if !elementName.MatchString(column) || strings.HasPrefix(strings.ToLower(column), "xml") {
			skipped = append(skipped, column)
			continue
		}
		fields = append(fields, column)
	}
	if len(fields) == 0 {
		return nil, skipped, errors.New("no column can be used as a record field")
	}

	var buffer bytes.Buffer

	buffer.WriteString(`<?xml version="1.0" encoding="UTF-8"?>
<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema">
`)

	// Root element with the metadata block and the repeated record.
	fmt.Fprintf(&buffer, `  <xs:element name="%s">
    <xs:complexType>
      <xs:sequence>
        <xs:element name="%s">
          <xs:complexType>
            <xs:sequence>
`, opts.Root, opts.Meta)

	for _, key := range types.MetadataKeys {
		writeXSDElement(&buffer, key, "xs:string", 7)
	}

	fmt.Fprintf(&buffer, `            </xs:sequence>
          </xs:complexType>
        </xs:element>
        <xs:element name="%s" minOccurs="0" maxOccurs="unbounded">
          <xs:complexType>
            <xs:sequence>
`, opts.Record)

	for _, column := range fields {
		writeXSDElement(&buffer, column, getXSDType(t, column), 7)
	}

	buffer.WriteString(`            </xs:sequence>
          </xs:complexType>
        </xs:element>
      </xs:sequence>
    </xs:complexType>
  </xs:element>
</xs:schema>
`)

	return buffer.Bytes(), skipped, nil
}

// writeXSDElement writes an XSD element definition.
func writeXSDElement(buffer *bytes.Buffer, name, xsdType string, indentLevel int) {
	indent := strings.Repeat("  ", indentLevel)
	fmt.Fprintf(buffer, "%s<xs:element name=\"%s\" type=\"%s\"/>\n", indent, escapeXML(name), xsdType)
}

// getXSDType infers the XSD type of a column from its cells.
func getXSDType(t *types.Table, column string) string {
	col := t.ColumnIndex(column)
	if t.Len() == 0 {
		return "xs:string"
	}

	kinds := make(map[types.Kind]bool)
	for _, row := range t.Rows {
		kinds[row[col].Kind()] = true
	}

	switch {
	case kinds[types.KindEmpty], kinds[types.KindText]:
		return "xs:string"
	case kinds[types.KindDate] && len(kinds) == 1:
		return "xs:date"
	case kinds[types.KindDate]:
		return "xs:string"
	case kinds[types.KindFloat]:
		return "xs:decimal"
	default:
		return "xs:integer"
	}
}

// isMetadataKey reports whether column is one of the metadata columns.
func isMetadataKey(column string) bool {
	for _, key := range types.MetadataKeys {
		if column == key {
			return true
		}
	}
	return false
}
