// =============================================================================
// Sheet to XML Converter - Schema Command
// =============================================================================
//
// This file defines the 'schema' command, which writes a starter XSD for a
// spreadsheet. The XSD declares one record field per column with a type
// inferred from the cells, and can be edited before the first conversion.
//
// COMMAND USAGE:
//   sheet2xml schema [--excel FILE] [--sheet NAME] [--out FILE] [--force]
//
// =============================================================================

package cmd

import (
	"fmt"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/ginjaninja78/sheet2xml/internal/loader"
	"github.com/ginjaninja78/sheet2xml/internal/xmlwriter"
)

// schemaOut is where the generated XSD is written. Empty means xsd_file.
var schemaOut string

// schemaForce allows overwriting an existing file.
var schemaForce bool

// schemaCmd represents the 'schema' command.
var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Generate a starter XSD schema from a spreadsheet",
	Long: `Read the spreadsheet and write an XSD describing the documents sheet2xml
would build from it. Columns holding only integers become xs:integer, only
numbers xs:decimal, only dates xs:date; every other column is xs:string.
Columns whose names are not valid XML element names are left out.`,
	Args: cobra.NoArgs,
	RunE: runSchema,
}

func init() {
	rootCmd.AddCommand(schemaCmd)

	schemaCmd.Flags().String("excel", "", "Input spreadsheet (default datos.xlsx)")
	schemaCmd.Flags().String("sheet", "", "Worksheet name (default: first sheet)")
	schemaCmd.Flags().StringVar(&schemaOut, "out", "", "Output XSD file (default: the configured xsd_file)")
	schemaCmd.Flags().BoolVar(&schemaForce, "force", false, "Overwrite the output file if it exists")
}

// runSchema generates and writes the starter schema.
func runSchema(cmd *cobra.Command, args []string) error {
	cfg, log, err := initConfig(cmd)
	if err != nil {
		return err
	}

	out := schemaOut
	if out == "" {
		out = cfg.XSDFile
	}

	fs := afero.NewOsFs()
	if exists, _ := afero.Exists(fs, out); exists && !schemaForce {
		return fmt.Errorf("%s already exists (use --force to overwrite)", out)
	}

	sheet, err := loader.Load(cfg.ExcelFile, loader.Options{
		Sheet:        cfg.Sheet,
		CSVDelimiter: cfg.CSVDelimiter,
	})
	if err != nil {
		return err
	}

	xsd, skipped, err := xmlwriter.GenerateXSD(sheet.Table, xmlwriter.Options{
		Root:   cfg.RootElement,
		Meta:   cfg.MetaElement,
		Record: cfg.RecordElement,
	})
	for _, column := range skipped {
		log.Warn("column is not a valid element name, left out of the schema", "column", column)
	}
	if err != nil {
		return fmt.Errorf("failed to generate schema: %w", err)
	}

	if err := afero.WriteFile(fs, out, xsd, 0o644); err != nil {
		return fmt.Errorf("failed to write schema %s: %w", out, err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Schema written to %s\n", out)
	return nil
}
