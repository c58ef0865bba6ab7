package converter

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ginjaninja78/sheet2xml/internal/types"
)

// =============================================================================
// CHUNK STRUCTURE
// =============================================================================

// Chunk is a contiguous slice of one group's rows. Each chunk becomes one
// output document.
type Chunk struct {
	// Table holds the chunk's rows, in original order, with all columns of
	// the loaded table.
	Table *types.Table

	// Label is the group's key, or the input base name when ungrouped.
	Label string

	// Index counts the chunks of one label, starting at 0.
	Index int
}

// FileName returns the output file name of the chunk:
//
//	{label}.xml     for the first chunk of a label
//	{label}_N.xml   for the following ones
//
// Path separators in the label are replaced with "_".
func (c Chunk) FileName() string {
	name := strings.NewReplacer("/", "_", `\`, "_").Replace(c.Label)
	if c.Index > 0 {
		name += "_" + strconv.Itoa(c.Index)
	}
	return name + ".xml"
}

// =============================================================================
// GROUPING COLUMN
// =============================================================================

// ResolveColumn turns the user's grouping column argument into a column name.
//
// PARAMETERS:
//   - t: The loaded table.
//   - column: A column name, or a 1-based column position when byNumber is
//     set. Empty means no grouping.
//   - byNumber: Interpret column as a position.
//
// RETURNS:
//   - The column name ("" for no grouping).
//   - An error if the column does not exist.
func ResolveColumn(t *types.Table, column string, byNumber bool) (string, error) {
	if column == "" {
		return "", nil
	}

	if byNumber {
		n, err := strconv.Atoi(strings.TrimSpace(column))
		if err != nil {
			return "", fmt.Errorf("column position %q is not a number", column)
		}
		if n < 1 || n > len(t.Columns) {
			return "", fmt.Errorf("column position %d is out of range (1-%d)", n, len(t.Columns))
		}
		return t.Columns[n-1], nil
	}

	if !t.HasColumn(column) {
		return "", fmt.Errorf("%w: grouping column %q (available: %s)",
			types.ErrColumnNotFound, column, strings.Join(t.Columns, ", "))
	}
	return column, nil
}

// =============================================================================
// PARTITIONING
// =============================================================================

// groupKey identifies one group.
type groupKey struct {
	kind  types.Kind
	value string
}

// Partition splits the table into chunks.
//
// PARAMETERS:
//   - t: The loaded table.
//   - groupColumn: The grouping column, or "" to keep the table whole.
//   - maxRecords: The maximum rows per chunk. Zero or less means no limit.
//   - baseName: The label used when the table is not grouped.
//
// RETURNS:
//   - The chunks, groups in first-encountered order, chunks of one group in
//     row order.
//   - The number of rows dropped because their grouping value was empty.
//   - An error if groupColumn does not exist.
//
// GROUPING LOGIC:
//   Rows whose grouping cells hold the same variant and value belong to the
//   same group: Integer 1 and Text "1" are two groups, even though both are
//   labelled "1". An ungrouped table always yields at least one chunk, even when it
//   has no rows; a grouped empty table yields none.
func Partition(t *types.Table, groupColumn string, maxRecords int, baseName string) ([]Chunk, int, error) {
	if groupColumn == "" {
		return split(t, baseName, maxRecords), 0, nil
	}

	col := t.ColumnIndex(groupColumn)
	if col < 0 {
		return nil, 0, fmt.Errorf("%w: grouping column %q", types.ErrColumnNotFound, groupColumn)
	}

	// Group rows by the grouping value, keeping the order of first occurrence.
	groups := make(map[groupKey]*types.Table)
	groupOrder := []groupKey{}
	skipped := 0

	for _, row := range t.Rows {
		if row[col].IsEmpty() {
			skipped++
			continue
		}
		key := groupKey{kind: row[col].Kind(), value: row[col].String()}
		group, exists := groups[key]
		if !exists {
			group = types.NewTable(t.Columns)
			groups[key] = group
			groupOrder = append(groupOrder, key)
		}
		group.Rows = append(group.Rows, row)
	}

	var chunks []Chunk
	for _, key := range groupOrder {
		chunks = append(chunks, split(groups[key], key.value, maxRecords)...)
	}
	return chunks, skipped, nil
}

// split slices one group into contiguous chunks of at most maxRecords rows.
func split(group *types.Table, label string, maxRecords int) []Chunk {
	if maxRecords <= 0 || group.Len() <= maxRecords {
		return []Chunk{{Table: group, Label: label}}
	}

	chunks := make([]Chunk, 0, (group.Len()+maxRecords-1)/maxRecords)
	for start := 0; start < group.Len(); start += maxRecords {
		end := min(start+maxRecords, group.Len())
		chunks = append(chunks, Chunk{
			Table: group.Slice(start, end),
			Label: label,
			Index: len(chunks),
		})
	}
	return chunks
}
