// =============================================================================
// Sheet to XML Converter - Conversion Flags and Runner
// =============================================================================
//
// This file defines the flags of the conversion (the root command) and the
// function that runs it.
//
// COMMAND USAGE:
//   sheet2xml [column] [flags]
//
// FLAGS:
//   --max_records : Maximum rows per document (0 = no limit)
//   --by_number   : Read column as a 1-based position
//   --excel       : Input spreadsheet (overrides excel_file)
//   --xsd         : Schema file (overrides xsd_file)
//   --sheet       : Worksheet name (overrides sheet)
//   --output-dir  : Output directory (overrides output_dir)
//   --archive     : Zip archive path (overrides archive_file)
//   --log-level   : debug, info, warn or error (overrides log_level)
//   --report      : Write conversion_report.yaml next to the archive
//
// =============================================================================

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/sheet2xml/internal/converter"
	"github.com/ginjaninja78/sheet2xml/pkg/utils"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

// maxRecords limits the rows written to one document.
var maxRecords int

// byNumber interprets the column argument as a position.
var byNumber bool

// writeReport enables the YAML run report.
var writeReport bool

// =============================================================================
// INITIALIZATION
// =============================================================================

func init() {
	flags := rootCmd.Flags()

	flags.IntVar(&maxRecords, "max_records", 0, "Maximum number of rows per XML file (0 means no limit)")
	flags.BoolVar(&byNumber, "by_number", false, "Interpret the column argument as a 1-based column number")
	flags.BoolVar(&writeReport, "report", false, "Write a YAML run report next to the archive")

	// Configuration overrides. Empty defaults leave the configured value in
	// place; the built-in defaults are listed in the help text.
	flags.String("excel", "", "Input spreadsheet (default datos.xlsx)")
	flags.String("xsd", "", "XSD schema file (default schema.xsd)")
	flags.String("sheet", "", "Worksheet name (default: first sheet)")
	flags.String("output-dir", "", "Directory for the generated XML files; wiped on every run (default xml)")
	flags.String("archive", "", "Zip archive for the generated files (default xml_files.zip)")
	flags.String("log-level", "", "Log level: debug, info, warn, error (default info)")
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

// runProcess runs one conversion.
func runProcess(cmd *cobra.Command, args []string) error {
	if maxRecords < 0 {
		return fmt.Errorf("--max_records must not be negative, got %d", maxRecords)
	}

	var column string
	if len(args) == 1 {
		column = args[0]
	}
	if byNumber && column == "" {
		return fmt.Errorf("--by_number needs a column argument")
	}

	cfg, log, err := initConfig(cmd)
	if err != nil {
		return err
	}

	files := utils.NewFileManager(nil, cfg.OutputDir, cfg.ArchiveFile)

	summary, err := converter.New(cfg, files, log).Run(converter.Options{
		Column:     column,
		ByNumber:   byNumber,
		MaxRecords: maxRecords,
		Report:     writeReport,
	})
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), converter.SummaryLine(summary))
	return nil
}
