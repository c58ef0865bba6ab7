package converter

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/sheet2xml/internal/types"
)

func regionTable(regions ...string) *types.Table {
	t := types.NewTable([]string{"id", "region"})
	for i, r := range regions {
		t.Append([]types.Value{types.Int(int64(i + 1)), types.Text(r)})
	}
	return t
}

func ids(t *types.Table) []string {
	out := make([]string, t.Len())
	for i := range t.Rows {
		out[i] = t.Cell(i, "id").String()
	}
	return out
}

func TestPartition_Ungrouped(t *testing.T) {
	tbl := regionTable("east", "east", "west")

	chunks, skipped, err := Partition(tbl, "", 0, "datos")
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Zero(t, skipped)
	assert.Equal(t, "datos", chunks[0].Label)
	assert.Equal(t, 0, chunks[0].Index)
	assert.Equal(t, []string{"1", "2", "3"}, ids(chunks[0].Table))
	assert.Equal(t, "datos.xml", chunks[0].FileName())
}

func TestPartition_MaxRecords(t *testing.T) {
	tbl := regionTable("a", "b")

	chunks, _, err := Partition(tbl, "", 1, "datos")
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	assert.Equal(t, "datos.xml", chunks[0].FileName())
	assert.Equal(t, "datos_1.xml", chunks[1].FileName())
	assert.Equal(t, []string{"1"}, ids(chunks[0].Table))
	assert.Equal(t, []string{"2"}, ids(chunks[1].Table))
}

func TestPartition_Grouped(t *testing.T) {
	tbl := regionTable("east", "east", "west")

	chunks, skipped, err := Partition(tbl, "region", 0, "datos")
	require.NoError(t, err)
	assert.Zero(t, skipped)
	require.Len(t, chunks, 2)

	assert.Equal(t, "east", chunks[0].Label)
	assert.Equal(t, []string{"1", "2"}, ids(chunks[0].Table))
	assert.Equal(t, "west", chunks[1].Label)
	assert.Equal(t, []string{"3"}, ids(chunks[1].Table))
	assert.Equal(t, "east.xml", chunks[0].FileName())
	assert.Equal(t, "west.xml", chunks[1].FileName())
}

func TestPartition_GroupsByVariantAndValue(t *testing.T) {
	tbl := types.NewTable([]string{"id", "region"})
	tbl.Append([]types.Value{types.Int(1), types.Int(1)})
	tbl.Append([]types.Value{types.Int(2), types.Text("1")})
	tbl.Append([]types.Value{types.Int(3), types.Int(1)})

	chunks, _, err := Partition(tbl, "region", 0, "datos")
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	assert.Equal(t, []string{"1", "3"}, ids(chunks[0].Table))
	assert.Equal(t, []string{"2"}, ids(chunks[1].Table))
	assert.Equal(t, "1", chunks[0].Label)
	assert.Equal(t, "1", chunks[1].Label)
}

func TestPartition_GroupedFirstEncounteredOrder(t *testing.T) {
	tbl := regionTable("west", "east", "west", "north", "east")

	chunks, _, err := Partition(tbl, "region", 0, "datos")
	require.NoError(t, err)

	var labels []string
	for _, c := range chunks {
		labels = append(labels, c.Label)
	}
	assert.Equal(t, []string{"west", "east", "north"}, labels)
	assert.Equal(t, []string{"1", "3"}, ids(chunks[0].Table))
	assert.Equal(t, []string{"2", "5"}, ids(chunks[1].Table))
}

func TestPartition_GroupedAndChunked(t *testing.T) {
	tbl := regionTable("east", "west", "east", "east", "west")

	chunks, _, err := Partition(tbl, "region", 2, "datos")
	require.NoError(t, err)

	var names []string
	for _, c := range chunks {
		names = append(names, c.FileName())
	}
	assert.Equal(t, []string{"east.xml", "east_1.xml", "west.xml"}, names)
	assert.Equal(t, []string{"1", "3"}, ids(chunks[0].Table))
	assert.Equal(t, []string{"4"}, ids(chunks[1].Table))
	assert.Equal(t, []string{"2", "5"}, ids(chunks[2].Table))
}

func TestPartition_EmptyGroupingValuesAreSkipped(t *testing.T) {
	tbl := regionTable("east", "", "east", "  ")

	chunks, skipped, err := Partition(tbl, "region", 0, "datos")
	require.NoError(t, err)
	assert.Equal(t, 2, skipped)
	require.Len(t, chunks, 1)
	assert.Equal(t, []string{"1", "3"}, ids(chunks[0].Table))
}

func TestPartition_NumericGroupKeys(t *testing.T) {
	tbl := types.NewTable([]string{"id", "year"})
	tbl.Append([]types.Value{types.Int(1), types.Int(2023)})
	tbl.Append([]types.Value{types.Int(2), types.Int(2024)})
	tbl.Append([]types.Value{types.Int(3), types.Int(2023)})

	chunks, _, err := Partition(tbl, "year", 0, "datos")
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	assert.Equal(t, "2023.xml", chunks[0].FileName())
	assert.Equal(t, []string{"1", "3"}, ids(chunks[0].Table))
}

func TestPartition_EmptyTable(t *testing.T) {
	tbl := regionTable()

	chunks, _, err := Partition(tbl, "", 10, "datos")
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, 0, chunks[0].Table.Len())

	chunks, _, err = Partition(tbl, "region", 10, "datos")
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestPartition_UnknownColumn(t *testing.T) {
	_, _, err := Partition(regionTable("a"), "zone", 0, "datos")
	assert.True(t, errors.Is(err, types.ErrColumnNotFound))
}

// Chunks of a group concatenate back to the group, and none is larger than
// the limit.
func TestPartition_ChunksReconstructGroups(t *testing.T) {
	regions := []string{"a", "b", "a", "c", "a", "b", "a", "a", "c", "b", "a"}
	tbl := regionTable(regions...)

	for n := 1; n <= len(regions)+1; n++ {
		t.Run(fmt.Sprintf("max=%d", n), func(t *testing.T) {
			chunks, _, err := Partition(tbl, "region", n, "datos")
			require.NoError(t, err)

			rebuilt := map[string][]string{}
			lastIndex := map[string]int{}
			for _, c := range chunks {
				assert.LessOrEqual(t, c.Table.Len(), n)
				assert.Positive(t, c.Table.Len())
				if prev, ok := lastIndex[c.Label]; ok {
					assert.Equal(t, prev+1, c.Index)
				} else {
					assert.Equal(t, 0, c.Index)
				}
				lastIndex[c.Label] = c.Index
				rebuilt[c.Label] = append(rebuilt[c.Label], ids(c.Table)...)
			}

			want := map[string][]string{}
			for i, r := range regions {
				want[r] = append(want[r], fmt.Sprint(i+1))
			}
			assert.Equal(t, want, rebuilt)
		})
	}
}

func TestResolveColumn(t *testing.T) {
	tbl := regionTable("a")

	tests := []struct {
		name     string
		column   string
		byNumber bool
		want     string
		wantErr  bool
	}{
		{name: "no grouping", column: "", want: ""},
		{name: "by name", column: "region", want: "region"},
		{name: "unknown name", column: "zone", wantErr: true},
		{name: "by number", column: "2", byNumber: true, want: "region"},
		{name: "first column", column: "1", byNumber: true, want: "id"},
		{name: "zero", column: "0", byNumber: true, wantErr: true},
		{name: "too large", column: "3", byNumber: true, wantErr: true},
		{name: "not a number", column: "two", byNumber: true, wantErr: true},
		{name: "number as name", column: "2", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveColumn(tbl, tt.column, tt.byNumber)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestChunk_FileNameSanitizesSeparators(t *testing.T) {
	c := Chunk{Label: `north/east\x`, Index: 2}
	assert.Equal(t, "north_east_x_2.xml", c.FileName())
}
