package xmlwriter

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/sheet2xml/internal/schema"
	"github.com/ginjaninja78/sheet2xml/internal/types"
	"github.com/ginjaninja78/sheet2xml/internal/validation"
)

const peopleSchema = `<?xml version="1.0" encoding="UTF-8"?>
<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema">
  <xs:element name="Root">
    <xs:complexType>
      <xs:sequence>
        <xs:element name="meta">
          <xs:complexType>
            <xs:sequence>
              <xs:element name="created" type="xs:string"/>
              <xs:element name="author" type="xs:string"/>
              <xs:element name="version" type="xs:string"/>
            </xs:sequence>
          </xs:complexType>
        </xs:element>
        <xs:element name="Item" minOccurs="0" maxOccurs="unbounded">
          <xs:complexType>
            <xs:sequence>
              <xs:element name="id" type="xs:int"/>
              <xs:element name="name" type="xs:string"/>
              <xs:element name="joined" type="xs:date"/>
            </xs:sequence>
          </xs:complexType>
        </xs:element>
      </xs:sequence>
    </xs:complexType>
  </xs:element>
</xs:schema>`

func peopleFields(t *testing.T) ([]types.Field, *schema.Schema) {
	t.Helper()
	s, err := schema.ParseBytes([]byte(peopleSchema))
	require.NoError(t, err)
	fields, err := s.RecordFields("Item")
	require.NoError(t, err)
	return fields, s
}

// peopleTable has the schema's columns in a different order, plus one extra.
func peopleTable() *types.Table {
	tbl := types.NewTable([]string{"joined", "name", "note", "id"})
	tbl.Append([]types.Value{types.Text("2024-03-01"), types.Text("Ann"), types.Text("x"), types.Text("7")})
	tbl.Append([]types.Value{types.Text("2024-03-05"), types.Text("Bo"), types.Empty(), types.Text("8")})
	return tbl
}

func TestBuild_Document(t *testing.T) {
	fields, _ := peopleFields(t)
	meta := types.Metadata{Created: "2024-01-05", Author: "ana"}

	doc, err := Build(peopleTable(), meta, fields, DefaultOptions())
	require.NoError(t, err)

	want := `<?xml version="1.0" encoding="UTF-8"?>
<Root>
  <meta>
    <created>2024-01-05</created>
    <author>ana</author>
    <version/>
  </meta>
  <Item>
    <id>7</id>
    <name>Ann</name>
    <joined>2024-03-01</joined>
  </Item>
  <Item>
    <id>8</id>
    <name>Bo</name>
    <joined>2024-03-05</joined>
  </Item>
</Root>
`
	assert.Equal(t, want, string(doc))
	assert.NotContains(t, string(doc), "note")
}

func TestBuild_ValidatesAgainstSourceSchema(t *testing.T) {
	fields, s := peopleFields(t)

	doc, err := Build(peopleTable(), types.Metadata{}, fields, DefaultOptions())
	require.NoError(t, err)

	result := validation.New(s).Validate(doc)
	assert.True(t, result.Valid, result.Summary())
}

func TestBuild_EmptyCellsAreEmptyElements(t *testing.T) {
	fields := []types.Field{
		{Name: "n", Type: types.FieldInteger},
		{Name: "d", Type: types.FieldDate},
		{Name: "s", Type: types.FieldText},
	}
	tbl := types.NewTable([]string{"n", "d", "s"})
	tbl.Append([]types.Value{types.Empty(), types.Empty(), types.Empty()})

	doc, err := Build(tbl, types.Metadata{}, fields, DefaultOptions())
	require.NoError(t, err)
	assert.Contains(t, string(doc), "    <n/>\n    <d/>\n    <s/>\n")
}

func TestBuild_ConvertsTypedValues(t *testing.T) {
	fields := []types.Field{
		{Name: "qty", Type: types.FieldInteger},
		{Name: "price", Type: types.FieldFloat},
		{Name: "day", Type: types.FieldDate},
		{Name: "label", Type: types.FieldText},
	}
	tbl := types.NewTable([]string{"qty", "price", "day", "label"})
	tbl.Append([]types.Value{
		types.Float(3.9),
		types.Float(10.5),
		types.Date(time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)),
		types.Text(`Tom & "Jerry" <co>`),
	})

	doc, err := Build(tbl, types.Metadata{}, fields, DefaultOptions())
	require.NoError(t, err)

	out := string(doc)
	assert.Contains(t, out, "<qty>3</qty>")
	assert.Contains(t, out, "<price>10.5</price>")
	assert.Contains(t, out, "<day>2024-01-15</day>")
	assert.Contains(t, out, "<label>Tom &amp; &quot;Jerry&quot; &lt;co&gt;</label>")
}

func TestBuild_ConversionError(t *testing.T) {
	fields, _ := peopleFields(t)
	tbl := peopleTable()
	tbl.SetCell(1, "id", types.Text("abc"))

	_, err := Build(tbl, types.Metadata{}, fields, DefaultOptions())
	require.Error(t, err)

	var ce *types.ConversionError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "id", ce.Field)
	assert.Equal(t, 1, ce.Row)
	assert.Equal(t, "abc", ce.Value)
	assert.Equal(t, types.FieldInteger, ce.Type)
}

func TestBuild_MissingColumn(t *testing.T) {
	fields := []types.Field{{Name: "id"}, {Name: "zone"}}

	_, err := Build(peopleTable(), types.Metadata{}, fields, DefaultOptions())
	assert.ErrorIs(t, err, types.ErrColumnNotFound)
}

func TestBuild_CustomNamesAndNamespace(t *testing.T) {
	tbl := types.NewTable([]string{"id"})
	tbl.Append([]types.Value{types.Int(1)})

	opts := Options{Root: "Lote", Meta: "cabecera", Record: "Fila", Namespace: "urn:example:lote"}
	doc, err := Build(tbl, types.Metadata{}, []types.Field{{Name: "id"}}, opts)
	require.NoError(t, err)

	out := string(doc)
	assert.Contains(t, out, `<Lote xmlns="urn:example:lote">`)
	assert.Contains(t, out, "  <cabecera>\n")
	assert.Contains(t, out, "  <Fila>\n    <id>1</id>\n  </Fila>\n")
	assert.True(t, strings.HasSuffix(out, "</Lote>\n"))
}

func TestBuild_NoRows(t *testing.T) {
	fields, s := peopleFields(t)

	doc, err := Build(types.NewTable([]string{"id", "name", "joined"}), types.Metadata{}, fields, DefaultOptions())
	require.NoError(t, err)
	assert.NotContains(t, string(doc), "<Item")
	assert.True(t, validation.New(s).Validate(doc).Valid)
}

func TestEscapeXML(t *testing.T) {
	assert.Equal(t, "a&amp;b", escapeXML("a&b"))
	assert.Equal(t, "&apos;x&apos;", escapeXML("'x'"))
	assert.Equal(t, "l1\nl2&#xD;", escapeXML("l1\nl2\r"))
	assert.Equal(t, "ab", escapeXML("a\x00\x1bb"))
}
