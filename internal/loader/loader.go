// =============================================================================
// Sheet to XML Converter - Table Loader
// =============================================================================
//
// This module turns an input spreadsheet into a typed table plus the
// document metadata, whatever the file format:
//
//   .xlsx / .xlsm : xlsxparser.Parse        (excelize)
//   .xls          : xlsxparser.ParseLegacy  (xlsReader)
//   .csv          : csvparser.Parse         (encoding/csv)
//
// METADATA:
//   The optional columns "created", "author" and "version" describe the
//   whole document. Their values are taken from the first data row and then
//   cleared from that row, so they are not repeated as record data.
//
// =============================================================================

package loader

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ginjaninja78/sheet2xml/internal/csvparser"
	"github.com/ginjaninja78/sheet2xml/internal/transform"
	"github.com/ginjaninja78/sheet2xml/internal/types"
	"github.com/ginjaninja78/sheet2xml/internal/xlsxparser"
)

// Options tune how a spreadsheet is read.
type Options struct {
	// Sheet selects a worksheet by name. Empty means the first sheet.
	// Ignored for CSV.
	Sheet string

	// CSVDelimiter is the field separator for CSV files. Empty means comma.
	CSVDelimiter string
}

// Sheet is a loaded spreadsheet.
type Sheet struct {
	// Table holds the data rows, metadata cells already cleared.
	Table *types.Table

	// BaseName is the input file name without directory and extension. It
	// names the output files of an ungrouped run.
	BaseName string

	// Metadata holds the values extracted from the first data row.
	Metadata types.Metadata
}

// Load reads the spreadsheet at path.
//
// RETURNS:
//   - The loaded Sheet.
//   - A *types.LoadError if the format is unsupported, the file cannot be
//     read, or it has no header row.
func Load(path string, opts Options) (*Sheet, error) {
	ext := strings.ToLower(filepath.Ext(path))

	var (
		table *types.Table
		err   error
	)
	switch ext {
	case ".xlsx", ".xlsm":
		table, err = xlsxparser.Parse(path, opts.Sheet)
	case ".xls":
		table, err = xlsxparser.ParseLegacy(path, opts.Sheet)
	case ".csv":
		table, err = csvparser.Parse(path, opts.CSVDelimiter)
	default:
		err = fmt.Errorf("%w: %q", types.ErrUnsupportedFormat, ext)
	}
	if err != nil {
		return nil, &types.LoadError{Path: path, Err: err}
	}

	return &Sheet{
		Table:    table,
		BaseName: BaseName(path),
		Metadata: ExtractMetadata(table),
	}, nil
}

// BaseName returns the file name of path without its extension.
func BaseName(path string) string {
	name := filepath.Base(path)
	return strings.TrimSuffix(name, filepath.Ext(name))
}

// ExtractMetadata reads the metadata columns from the first row and clears
// those cells. Rows other than the first are left untouched. Missing columns
// and an empty table give "" values.
func ExtractMetadata(t *types.Table) types.Metadata {
	var meta types.Metadata
	if t.Len() == 0 {
		return meta
	}

	if t.HasColumn(types.MetaCreated) {
		meta.Created = createdDate(t.Cell(0, types.MetaCreated))
		t.SetCell(0, types.MetaCreated, types.Empty())
	}
	if t.HasColumn(types.MetaAuthor) {
		meta.Author = t.Cell(0, types.MetaAuthor).String()
		t.SetCell(0, types.MetaAuthor, types.Empty())
	}
	if t.HasColumn(types.MetaVersion) {
		meta.Version = t.Cell(0, types.MetaVersion).String()
		t.SetCell(0, types.MetaVersion, types.Empty())
	}
	return meta
}

// createdDate renders the creation date as YYYY-MM-DD. Values that are not
// dates are kept as written.
func createdDate(v types.Value) string {
	s, err := transform.Convert(v, types.FieldDate)
	if err != nil {
		return v.String()
	}
	return s
}
