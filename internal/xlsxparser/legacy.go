package xlsxparser

import (
	"bytes"
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/shakinm/xlsReader/xls"
	"github.com/shakinm/xlsReader/xls/record"
	"github.com/shakinm/xlsReader/xls/structure"

	"github.com/ginjaninja78/sheet2xml/internal/types"
)

// =============================================================================
// LEGACY .XLS SUPPORT
// =============================================================================
// BIFF workbooks expose no number formats through the reader, so date cells
// load as their serial number. Date fields still convert correctly because
// the value converter reads numbers as Excel serial days.

// ParseLegacy reads a worksheet of the .xls workbook at path.
//
// PARAMETERS:
//   - path: The .xls file.
//   - sheet: The worksheet name. Empty selects the first sheet.
func ParseLegacy(path, sheet string) (*types.Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read workbook: %w", err)
	}

	wb, err := xls.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}

	var names []string
	for i := 0; i < wb.GetNumberSheets(); i++ {
		s, err := wb.GetSheet(i)
		if err != nil || s == nil {
			continue
		}
		names = append(names, s.GetName())
		if sheet != "" && s.GetName() != sheet {
			continue
		}

		rows := s.GetRows()
		grid := make([][]types.Value, len(rows))
		for r, row := range rows {
			grid[r] = legacyValues(row.GetCols())
		}
		return types.TableFromGrid(grid)
	}

	if len(names) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	return nil, fmt.Errorf("sheet %q not found (available: %s)", sheet, strings.Join(names, ", "))
}

// legacyValues types the cells of one BIFF row.
func legacyValues(cols []structure.CellData) []types.Value {
	out := make([]types.Value, len(cols))
	for i, col := range cols {
		out[i] = legacyValue(col)
	}
	return out
}

// legacyValue maps one BIFF cell record to a Value. Number and RK records are
// numbers; booleans become "True"/"False" and error cells keep their "#..."
// text, the same as in .xlsx workbooks. Everything else is text.
func legacyValue(col structure.CellData) types.Value {
	switch c := col.(type) {
	case *record.Number:
		return legacyNumber(c.GetFloat64())
	case *record.Rk:
		return legacyNumber(c.GetFloat64())
	case *record.BoolErr:
		switch s := c.GetString(); s {
		case "TRUE":
			return types.Text("True")
		case "FALSE":
			return types.Text("False")
		case "#NUM!!":
			return types.Text("#NUM!")
		default:
			return types.Text(s)
		}
	}
	return types.Text(col.GetString())
}

func legacyNumber(f float64) types.Value {
	if f == math.Trunc(f) && math.Abs(f) < 1<<53 {
		return types.Int(int64(f))
	}
	return types.Float(f)
}
