package schema

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/sheet2xml/internal/types"
)

const recordSchema = `<?xml version="1.0" encoding="UTF-8"?>
<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema">
  <xs:element name="Root">
    <xs:complexType>
      <xs:sequence>
        <xs:element name="meta">
          <xs:complexType>
            <xs:sequence>
              <xs:element name="created" type="xs:string" minOccurs="0"/>
              <xs:element name="author" type="xs:string" minOccurs="0"/>
              <xs:element name="version" type="xs:string" minOccurs="0"/>
            </xs:sequence>
          </xs:complexType>
        </xs:element>
        <xs:element name="Item" maxOccurs="unbounded" minOccurs="0">
          <xs:complexType>
            <xs:sequence>
              <xs:element name="id" type="xs:int"/>
              <xs:element name="region" type="xs:string"/>
              <xs:element name="amount" type="xs:decimal"/>
              <xs:element name="date" type="xs:date"/>
              <xs:element name="code" type="CodeType"/>
            </xs:sequence>
          </xs:complexType>
        </xs:element>
      </xs:sequence>
    </xs:complexType>
  </xs:element>
  <xs:simpleType name="CodeType">
    <xs:restriction base="xs:string">
      <xs:pattern value="[A-Z]{2}[0-9]+"/>
      <xs:maxLength value="8"/>
    </xs:restriction>
  </xs:simpleType>
</xs:schema>`

func TestParseBytes_RecordFields(t *testing.T) {
	s, err := ParseBytes([]byte(recordSchema))
	require.NoError(t, err)

	fields, err := s.RecordFields("Item")
	require.NoError(t, err)

	assert.Equal(t, []string{"id", "region", "amount", "date", "code"}, types.FieldNames(fields))
	assert.Equal(t, types.FieldInteger, fields[0].Type)
	assert.Equal(t, types.FieldText, fields[1].Type)
	assert.Equal(t, types.FieldFloat, fields[2].Type)
	assert.Equal(t, types.FieldDate, fields[3].Type)
	assert.Equal(t, types.FieldText, fields[4].Type)
	assert.Equal(t, "xs:int", fields[0].XSDType)
	assert.Equal(t, "CodeType", fields[4].XSDType)
}

func TestParseBytes_Structure(t *testing.T) {
	s, err := ParseBytes([]byte(recordSchema))
	require.NoError(t, err)

	root := s.Global("Root")
	require.NotNil(t, root)
	require.NotNil(t, root.Complex)
	assert.Equal(t, Sequence, root.Complex.Compositor)
	require.Len(t, root.Complex.Particles, 2)

	item := root.Complex.Particles[1]
	assert.Equal(t, "Item", item.Name)
	assert.Equal(t, 0, item.MinOccurs)
	assert.Equal(t, Unbounded, item.MaxOccurs)
	assert.True(t, item.Repeats())

	code := item.Complex.Particles[4]
	require.NotNil(t, code.Simple)
	assert.Equal(t, "string", code.Simple.Builtin)
	require.NotNil(t, code.Simple.Facets.MaxLength)
	assert.Equal(t, 8, *code.Simple.Facets.MaxLength)
	require.Len(t, code.Simple.Facets.Patterns, 1)
	assert.True(t, code.Simple.Facets.Patterns[0].MatchString("AB12"))
	assert.False(t, code.Simple.Facets.Patterns[0].MatchString("xAB12"))
}

func TestRecordFields_NamedComplexTypeAndRef(t *testing.T) {
	doc := `<xsd:schema xmlns:xsd="http://www.w3.org/2001/XMLSchema">
  <xsd:element name="Row" type="RowType"/>
  <xsd:element name="Root">
    <xsd:complexType>
      <xsd:sequence>
        <xsd:element ref="Row" maxOccurs="unbounded"/>
      </xsd:sequence>
    </xsd:complexType>
  </xsd:element>
  <xsd:complexType name="RowType">
    <xsd:all>
      <xsd:element name="qty" type="xsd:nonNegativeInteger"/>
      <xsd:element name="price" type="xsd:double"/>
    </xsd:all>
  </xsd:complexType>
</xsd:schema>`

	s, err := ParseBytes([]byte(doc))
	require.NoError(t, err)

	fields, err := s.RecordFields("Row")
	require.NoError(t, err)
	assert.Equal(t, []string{"qty", "price"}, types.FieldNames(fields))
	assert.Equal(t, types.FieldInteger, fields[0].Type)
	assert.Equal(t, types.FieldFloat, fields[1].Type)

	ref := s.Global("Root").Complex.Particles[0]
	assert.Equal(t, "Row", ref.Name)
	assert.Equal(t, Unbounded, ref.MaxOccurs)
	assert.Same(t, s.Global("Row").Complex, ref.Complex)
}

func TestRecordFields_Missing(t *testing.T) {
	s, err := ParseBytes([]byte(recordSchema))
	require.NoError(t, err)

	_, err = s.RecordFields("Record")
	require.Error(t, err)

	var pe *types.ParseError
	assert.True(t, errors.As(err, &pe))
	assert.True(t, errors.Is(err, types.ErrRecordElementNotFound))
}

func TestRecordFields_NoChildren(t *testing.T) {
	doc := `<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema">
  <xs:element name="Item" type="xs:string"/>
</xs:schema>`

	s, err := ParseBytes([]byte(doc))
	require.NoError(t, err)

	_, err = s.RecordFields("Item")
	assert.True(t, errors.Is(err, types.ErrRecordElementNotFound))
}

func TestParseBytes_Errors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"not xml", `this is not xml`},
		{"truncated", `<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema"><xs:element name="a">`},
		{"wrong namespace", `<schema xmlns="urn:other"><element name="a"/></schema>`},
		{"unknown type", `<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema"><xs:element name="a" type="Nope"/></xs:schema>`},
		{"unknown builtin", `<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema"><xs:element name="a" type="xs:nope"/></xs:schema>`},
		{"dangling ref", `<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema"><xs:element name="a"><xs:complexType><xs:sequence><xs:element ref="b"/></xs:sequence></xs:complexType></xs:element></xs:schema>`},
		{"bad occurs", `<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema"><xs:element name="a"><xs:complexType><xs:sequence><xs:element name="b" minOccurs="3" maxOccurs="1"/></xs:sequence></xs:complexType></xs:element></xs:schema>`},
		{"bad pattern", `<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema"><xs:simpleType name="t"><xs:restriction base="xs:string"><xs:pattern value="(["/></xs:restriction></xs:simpleType></xs:schema>`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseBytes([]byte(tt.doc))
			require.Error(t, err)
			var pe *types.ParseError
			assert.True(t, errors.As(err, &pe))
		})
	}
}

func TestParse_FileAndMissingFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "schema.xsd")
	require.NoError(t, os.WriteFile(path, []byte(recordSchema), 0o644))

	fields, s, err := ReadFields(path, "Item")
	require.NoError(t, err)
	assert.Equal(t, path, s.Path)
	assert.Len(t, fields, 5)

	_, err = Parse(filepath.Join(dir, "missing.xsd"))
	var pe *types.ParseError
	require.True(t, errors.As(err, &pe))
	assert.Contains(t, pe.Path, "missing.xsd")
}

func TestFieldTypeFor(t *testing.T) {
	assert.Equal(t, types.FieldInteger, FieldTypeFor("int"))
	assert.Equal(t, types.FieldInteger, FieldTypeFor("unsignedShort"))
	assert.Equal(t, types.FieldFloat, FieldTypeFor("decimal"))
	assert.Equal(t, types.FieldFloat, FieldTypeFor("double"))
	assert.Equal(t, types.FieldDate, FieldTypeFor("date"))
	assert.Equal(t, types.FieldText, FieldTypeFor("dateTime"))
	assert.Equal(t, types.FieldText, FieldTypeFor("boolean"))
}
