// =============================================================================
// Sheet to XML Converter - CSV Parser Module
// =============================================================================
//
// This module reads delimited text exports of a spreadsheet. It handles:
//   - Configurable single-character delimiters (comma, semicolon, tab, ...)
//   - Quoted fields with embedded delimiters and newlines
//   - Rows of uneven length
//   - A UTF-8 byte order mark, as written by spreadsheet "Save as CSV"
//
// CSV carries no type information, so every non-blank cell loads as Text.
// The value converter turns text into numbers and dates as the schema asks.
//
// =============================================================================

package csvparser

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/ginjaninja78/sheet2xml/internal/types"
)

const bom = "\ufeff"

// =============================================================================
// PARSER FUNCTIONS
// =============================================================================

// Parse reads the CSV file at path.
//
// PARAMETERS:
//   - filePath: The path to the CSV file.
//   - delimiter: The field separator. Empty means comma.
//
// RETURNS:
//   - The table, header row excluded.
//   - An error if the file cannot be read or parsed, or has no header row.
func Parse(filePath, delimiter string) (*types.Table, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	return ParseReader(file, delimiter)
}

// ParseReader reads CSV data from r.
func ParseReader(r io.Reader, delimiter string) (*types.Table, error) {
	csvReader := csv.NewReader(bufio.NewReader(r))
	if err := configureReader(csvReader, delimiter); err != nil {
		return nil, err
	}

	allRows, err := csvReader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}

	if len(allRows) > 0 && len(allRows[0]) > 0 {
		allRows[0][0] = strings.TrimPrefix(allRows[0][0], bom)
	}

	grid := make([][]types.Value, len(allRows))
	for i, row := range allRows {
		cells := make([]types.Value, len(row))
		for j, raw := range row {
			cells[j] = types.Text(strings.TrimSpace(raw))
		}
		grid[i] = cells
	}

	return types.TableFromGrid(grid)
}

// configureReader applies the delimiter and the lenient parsing options.
func configureReader(reader *csv.Reader, delimiter string) error {
	switch {
	case delimiter == "":
		reader.Comma = ','
	case utf8.RuneCountInString(delimiter) == 1:
		reader.Comma, _ = utf8.DecodeRuneInString(delimiter)
	default:
		return fmt.Errorf("delimiter must be a single character, got %q", delimiter)
	}

	// Allow a variable number of fields per row; short rows are padded.
	reader.FieldsPerRecord = -1

	// Allow quotes that don't follow strict CSV rules.
	reader.LazyQuotes = true

	reader.TrimLeadingSpace = true
	return nil
}
