package xmlwriter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/sheet2xml/internal/schema"
	"github.com/ginjaninja78/sheet2xml/internal/types"
	"github.com/ginjaninja78/sheet2xml/internal/validation"
)

func salesTable() *types.Table {
	day := func(d int) types.Value { return types.Date(time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC)) }

	tbl := types.NewTable([]string{"id", "region", "amount", "date", "note", "created", "Unnamed: 6"})
	tbl.Append([]types.Value{types.Int(1), types.Text("East"), types.Float(10.5), day(1), types.Text("a"), types.Empty(), types.Empty()})
	tbl.Append([]types.Value{types.Int(2), types.Text("West"), types.Int(3), day(2), types.Empty(), types.Empty(), types.Empty()})
	return tbl
}

func TestGenerateXSD_InfersTypes(t *testing.T) {
	xsd, skipped, err := GenerateXSD(salesTable(), DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, []string{"Unnamed: 6"}, skipped)

	s, err := schema.ParseBytes(xsd)
	require.NoError(t, err)
	fields, err := s.RecordFields("Item")
	require.NoError(t, err)

	assert.Equal(t, []types.Field{
		{Name: "id", Type: types.FieldInteger, XSDType: "xs:integer"},
		{Name: "region", Type: types.FieldText, XSDType: "xs:string"},
		{Name: "amount", Type: types.FieldFloat, XSDType: "xs:decimal"},
		{Name: "date", Type: types.FieldDate, XSDType: "xs:date"},
		{Name: "note", Type: types.FieldText, XSDType: "xs:string"},
	}, fields)
}

func TestGenerateXSD_RoundTrip(t *testing.T) {
	tbl := salesTable()

	xsd, _, err := GenerateXSD(tbl, DefaultOptions())
	require.NoError(t, err)
	s, err := schema.ParseBytes(xsd)
	require.NoError(t, err)
	fields, err := s.RecordFields("Item")
	require.NoError(t, err)

	doc, err := Build(tbl, types.Metadata{Created: "2024-01-01"}, fields, DefaultOptions())
	require.NoError(t, err)

	result := validation.New(s).Validate(doc)
	assert.True(t, result.Valid, result.Summary())
}

func TestGenerateXSD_CustomNames(t *testing.T) {
	opts := Options{Root: "Lote", Meta: "cabecera", Record: "Fila"}
	xsd, _, err := GenerateXSD(salesTable(), opts)
	require.NoError(t, err)

	s, err := schema.ParseBytes(xsd)
	require.NoError(t, err)
	require.NotNil(t, s.Global("Lote"))
	_, err = s.RecordFields("Fila")
	assert.NoError(t, err)
}

func TestGenerateXSD_NoUsableColumns(t *testing.T) {
	tbl := types.NewTable([]string{"created", "1st"})

	_, skipped, err := GenerateXSD(tbl, DefaultOptions())
	assert.Error(t, err)
	assert.Equal(t, []string{"1st"}, skipped)
}

func TestGetXSDType(t *testing.T) {
	tbl := types.NewTable([]string{"c"})
	assert.Equal(t, "xs:string", getXSDType(tbl, "c"), "no rows")

	tbl.Append([]types.Value{types.Date(time.Now())})
	tbl.Append([]types.Value{types.Int(1)})
	assert.Equal(t, "xs:string", getXSDType(tbl, "c"), "dates mixed with numbers")
}
