// =============================================================================
// Sheet to XML Converter - Main Entry Point
// =============================================================================
//
// USAGE:
//   sheet2xml [column]   - Convert the configured spreadsheet to XML files
//   sheet2xml schema     - Write a starter XSD for a spreadsheet
//   sheet2xml version    - Display the application version
//
// ARCHITECTURE:
//   - cmd/           : CLI command definitions (Cobra)
//   - internal/      : Core logic (loading, grouping, XML building, validation)
//   - pkg/utils/     : Output directory, archive and report writing
//
// =============================================================================

package main

import (
	"github.com/ginjaninja78/sheet2xml/cmd"
)

func main() {
	cmd.Execute()
}
