// =============================================================================
// Sheet to XML Converter - XML Writer Module
// =============================================================================
//
// This module builds one XML document per chunk of spreadsheet rows.
//
// XML STRUCTURE:
//   The generated XML follows this nesting pattern:
//
//   <?xml version="1.0" encoding="UTF-8"?>
//   <Root>                               <!-- Root element -->
//     <meta>                             <!-- Metadata block, always present -->
//       <created>2024-01-05</created>
//       <author>ana</author>
//       <version/>                       <!-- Empty values self-close -->
//     </meta>
//     <Item>                             <!-- One record per row -->
//       <id>7</id>                       <!-- Fields in schema order -->
//       <name>Ann</name>
//       <joined>2024-03-01</joined>
//     </Item>
//   </Root>
//
// CUSTOMIZATION:
//   - Element names come from Options (root_element, meta_element and
//     record_element in the configuration file).
//   - Set Options.Namespace to put the document in the schema's target
//     namespace.
//
// =============================================================================

package xmlwriter

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"

	"github.com/ginjaninja78/sheet2xml/internal/transform"
	"github.com/ginjaninja78/sheet2xml/internal/types"
)

// =============================================================================
// XML GENERATION OPTIONS
// =============================================================================

// Options contains options for XML generation.
type Options struct {
	// Root is the document element name.
	// Default: "Root"
	Root string

	// Meta is the metadata block element name.
	// Default: "meta"
	Meta string

	// Record is the element written once per row.
	// Default: "Item"
	Record string

	// Indent is the string used for indentation.
	// Default: "  " (two spaces)
	Indent string

	// Namespace, when set, is declared as the default namespace on the root.
	Namespace string
}

// DefaultOptions returns the default generation options.
func DefaultOptions() Options {
	return Options{
		Root:   "Root",
		Meta:   "meta",
		Record: "Item",
		Indent: "  ",
	}
}

// withDefaults fills unset names from DefaultOptions.
func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Root == "" {
		o.Root = d.Root
	}
	if o.Meta == "" {
		o.Meta = d.Meta
	}
	if o.Record == "" {
		o.Record = d.Record
	}
	if o.Indent == "" {
		o.Indent = d.Indent
	}
	return o
}

// =============================================================================
// MAIN BUILD FUNCTION
// =============================================================================

// Build generates the XML document for one chunk.
//
// PARAMETERS:
//   - chunk: The chunk's rows. It may carry more columns than fields; they
//     are dropped.
//   - meta: The metadata block values, shared by all documents of a run.
//   - fields: The record fields in schema order.
//   - opts: The generation options.
//
// RETURNS:
//   - The XML document as UTF-8 bytes, with declaration and indentation.
//   - An error wrapping types.ErrColumnNotFound if a field has no column, or
//     a *types.ConversionError if a cell does not fit its field type.
func Build(chunk *types.Table, meta types.Metadata, fields []types.Field, opts Options) ([]byte, error) {
	opts = opts.withDefaults()

	// Reorder the chunk to exactly the schema's fields.
	ordered, err := chunk.Select(types.FieldNames(fields))
	if err != nil {
		return nil, fmt.Errorf("failed to order columns by schema: %w", err)
	}

	doc := &XMLDocument{XMLName: xml.Name{Local: opts.Root}}
	if opts.Namespace != "" {
		doc.Attributes = append(doc.Attributes, xml.Attr{
			Name:  xml.Name{Local: "xmlns"},
			Value: opts.Namespace,
		})
	}

	doc.Children = append(doc.Children, buildMetaElement(meta, opts.Meta))

	for r, row := range ordered.Rows {
		record, err := buildRecordElement(row, fields, opts.Record)
		if err != nil {
			var ce *types.ConversionError
			if errors.As(err, &ce) {
				ce.Row = r
			}
			return nil, err
		}
		doc.Children = append(doc.Children, record)
	}

	return marshalWithIndent(doc, opts.Indent), nil
}

// =============================================================================
// XML DOCUMENT BUILDING
// =============================================================================

// XMLDocument represents the root of the XML document.
type XMLDocument struct {
	XMLName    xml.Name
	Attributes []xml.Attr
	Children   []XMLElement
}

// XMLElement represents a generic XML element.
type XMLElement struct {
	XMLName    xml.Name
	Attributes []xml.Attr   `xml:",attr"`
	Value      string       `xml:",chardata"`
	Children   []XMLElement `xml:",any"`
}

// buildMetaElement constructs the metadata block.
//
// STRUCTURE:
//
//	<meta>
//	  <created>2024-01-05</created>
//	  <author>ana</author>
//	  <version>1.2</version>
//	</meta>
func buildMetaElement(meta types.Metadata, name string) XMLElement {
	element := XMLElement{XMLName: xml.Name{Local: name}}
	for _, key := range types.MetadataKeys {
		element.Children = append(element.Children, createSimpleElement(key, meta.Get(key)))
	}
	return element
}

// buildRecordElement constructs one record from a row already in field order.
func buildRecordElement(row []types.Value, fields []types.Field, name string) (XMLElement, error) {
	element := XMLElement{XMLName: xml.Name{Local: name}}

	for i, field := range fields {
		text, err := transform.Convert(row[i], field.Type)
		if err != nil {
			var ce *types.ConversionError
			if errors.As(err, &ce) {
				ce.Field = field.Name
			}
			return XMLElement{}, err
		}
		element.Children = append(element.Children, createSimpleElement(field.Name, text))
	}

	return element, nil
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// createSimpleElement creates a simple XML element with a text value.
func createSimpleElement(name, value string) XMLElement {
	return XMLElement{
		XMLName: xml.Name{Local: name},
		Value:   value,
	}
}

// marshalWithIndent writes the declaration and the document with indentation.
//
// A record with no fields is written as <Item/>, like any other element
// without content.
func marshalWithIndent(doc *XMLDocument, indent string) []byte {
	var buffer bytes.Buffer

	buffer.WriteString(xml.Header)

	root := XMLElement{
		XMLName:    doc.XMLName,
		Attributes: doc.Attributes,
		Children:   doc.Children,
	}
	writeElement(&buffer, root, indent, 0)

	return buffer.Bytes()
}

// writeElement writes an XML element to the buffer with indentation.
func writeElement(buffer *bytes.Buffer, element XMLElement, indent string, level int) {
	for i := 0; i < level; i++ {
		buffer.WriteString(indent)
	}

	buffer.WriteString("<")
	buffer.WriteString(element.XMLName.Local)

	for _, attr := range element.Attributes {
		fmt.Fprintf(buffer, " %s=\"%s\"", attr.Name.Local, escapeXML(attr.Value))
	}

	if len(element.Children) == 0 && element.Value == "" {
		buffer.WriteString("/>\n")
		return
	}

	buffer.WriteString(">")

	if len(element.Children) == 0 {
		buffer.WriteString(escapeXML(element.Value))
	} else {
		buffer.WriteString("\n")

		for _, child := range element.Children {
			writeElement(buffer, child, indent, level+1)
		}

		for i := 0; i < level; i++ {
			buffer.WriteString(indent)
		}
	}

	buffer.WriteString("</")
	buffer.WriteString(element.XMLName.Local)
	buffer.WriteString(">\n")
}

// escapeXML escapes special characters for XML.
//
// Carriage returns and tabs are written as character references so a parser
// reads back the same text; other control characters are not allowed in XML
// 1.0 and are dropped.
func escapeXML(s string) string {
	var buffer bytes.Buffer

	for _, r := range s {
		switch r {
		case '&':
			buffer.WriteString("&amp;")
		case '<':
			buffer.WriteString("&lt;")
		case '>':
			buffer.WriteString("&gt;")
		case '"':
			buffer.WriteString("&quot;")
		case '\'':
			buffer.WriteString("&apos;")
		case '\r':
			buffer.WriteString("&#xD;")
		case '\t':
			buffer.WriteString("&#x9;")
		case '\n':
			buffer.WriteRune(r)
		default:
			if r < 0x20 || r == 0xFFFE || r == 0xFFFF {
				continue
			}
			buffer.WriteRune(r)
		}
	}

	return buffer.String()
}
