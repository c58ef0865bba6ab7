// =============================================================================
// Sheet to XML Converter - XLSX Parser
// =============================================================================
//
// This module reads one worksheet of an .xlsx / .xlsm workbook into a typed
// table. Cells are typed from what the workbook itself records:
//
//   | Stored as                          | Loaded as                     |
//   |------------------------------------|-------------------------------|
//   | shared / inline / formula string   | Text                          |
//   | boolean                            | Text "True" / "False"         |
//   | number with a date number format   | Date (1900 or 1904 system)    |
//   | number written without a fraction  | Integer                       |
//   | any other number                   | Float                         |
//   | ISO 8601 date cell (t="d")         | Date                          |
//   | blank                              | Empty                         |
//
// The legacy .xls format is handled in legacy.go.
//
// =============================================================================

package xlsxparser

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/sheet2xml/internal/types"
)

// =============================================================================
// PARSER FUNCTIONS
// =============================================================================

// Parse reads a worksheet of the workbook at path.
//
// PARAMETERS:
//   - path: The .xlsx or .xlsm file.
//   - sheet: The worksheet name. Empty selects the first sheet.
//
// RETURNS:
//   - The typed table, header row excluded.
//   - An error if the workbook cannot be opened, the sheet does not exist or
//     it has no header row.
func Parse(path, sheet string) (*types.Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	return ParseFile(f, sheet)
}

// ParseFile reads a worksheet of an already opened workbook.
func ParseFile(f *excelize.File, sheet string) (*types.Table, error) {
	name, err := resolveSheet(f, sheet)
	if err != nil {
		return nil, err
	}

	r := &sheetReader{
		f:        f,
		sheet:    name,
		date1904: date1904(f),
		isDate:   make(map[int]bool),
	}

	rows, err := f.GetRows(name, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read rows of sheet %q: %w", name, err)
	}

	grid := make([][]types.Value, len(rows))
	for i, row := range rows {
		cells := make([]types.Value, len(row))
		for j, raw := range row {
			v, err := r.cell(i, j, raw)
			if err != nil {
				return nil, err
			}
			cells[j] = v
		}
		grid[i] = cells
	}

	return types.TableFromGrid(grid)
}

// resolveSheet returns the requested sheet name, or the first sheet.
func resolveSheet(f *excelize.File, sheet string) (string, error) {
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return "", fmt.Errorf("workbook has no sheets")
	}
	if sheet == "" {
		return sheets[0], nil
	}
	for _, name := range sheets {
		if name == sheet {
			return name, nil
		}
	}
	return "", fmt.Errorf("sheet %q not found (available: %s)", sheet, strings.Join(sheets, ", "))
}

func date1904(f *excelize.File) bool {
	props, err := f.GetWorkbookProps()
	if err != nil || props.Date1904 == nil {
		return false
	}
	return *props.Date1904
}

// =============================================================================
// CELL TYPING
// =============================================================================

type sheetReader struct {
	f        *excelize.File
	sheet    string
	date1904 bool

	// isDate caches the date check per style ID.
	isDate map[int]bool
}

// cell types the raw value found at (row, col), both 0-based.
func (r *sheetReader) cell(row, col int, raw string) (types.Value, error) {
	if strings.TrimSpace(raw) == "" {
		return types.Empty(), nil
	}

	ref, err := excelize.CoordinatesToCellName(col+1, row+1)
	if err != nil {
		return types.Empty(), err
	}

	kind, err := r.f.GetCellType(r.sheet, ref)
	if err != nil {
		return types.Empty(), fmt.Errorf("failed to read cell %s: %w", ref, err)
	}

	switch kind {
	case excelize.CellTypeBool:
		if raw == "1" || strings.EqualFold(raw, "true") {
			return types.Text("True"), nil
		}
		return types.Text("False"), nil

	case excelize.CellTypeDate:
		if t, ok := parseISO(raw); ok {
			return types.Date(t), nil
		}
		return types.Text(raw), nil

	case excelize.CellTypeUnset, excelize.CellTypeNumber:
		return r.number(ref, raw)

	default:
		// Shared, inline and formula strings, and error values like #N/A.
		return types.Text(raw), nil
	}
}

func (r *sheetReader) number(ref, raw string) (types.Value, error) {
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return types.Text(raw), nil
	}

	dated, err := r.dateStyled(ref)
	if err != nil {
		return types.Empty(), err
	}
	if dated {
		t, err := excelize.ExcelDateToTime(f, r.date1904)
		if err == nil {
			return types.Date(t), nil
		}
	}

	if !strings.ContainsAny(raw, ".eE") && f == math.Trunc(f) {
		if i, err := strconv.ParseInt(raw, 10, 64); err == nil {
			return types.Int(i), nil
		}
	}
	return types.Float(f), nil
}

func (r *sheetReader) dateStyled(ref string) (bool, error) {
	styleID, err := r.f.GetCellStyle(r.sheet, ref)
	if err != nil {
		return false, fmt.Errorf("failed to read style of cell %s: %w", ref, err)
	}
	if dated, ok := r.isDate[styleID]; ok {
		return dated, nil
	}

	dated := false
	if style, err := r.f.GetStyle(styleID); err == nil && style != nil {
		dated = IsDateFormat(style.NumFmt, style.CustomNumFmt)
	}
	r.isDate[styleID] = dated
	return dated, nil
}

// IsDateFormat reports whether a number format displays a date or time.
//
// Built-in formats 14-22, 27-36, 45-47 and 50-58 are date/time formats. A
// custom format is a date format when, outside quoted text and bracketed
// sections, it contains a year or day token.
func IsDateFormat(numFmt int, custom *string) bool {
	if custom != nil && *custom != "" {
		return customDateFormat(*custom)
	}
	switch {
	case numFmt >= 14 && numFmt <= 22,
		numFmt >= 27 && numFmt <= 36,
		numFmt >= 45 && numFmt <= 47,
		numFmt >= 50 && numFmt <= 58:
		return true
	}
	return false
}

func customDateFormat(format string) bool {
	var (
		quoted  bool
		bracket bool
		escaped bool
	)
	for _, c := range strings.ToLower(format) {
		switch {
		case escaped:
			escaped = false
		case c == '\\':
			escaped = true
		case c == '"':
			quoted = !quoted
		case quoted:
		case c == '[':
			bracket = true
		case c == ']':
			bracket = false
		case bracket:
		case c == 'y' || c == 'd':
			return true
		}
	}
	return false
}

// parseISO parses the ISO 8601 value of a t="d" cell.
func parseISO(raw string) (time.Time, bool) {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
