// =============================================================================
// Sheet to XML Converter - Root Command
// =============================================================================
//
// This file defines the root command for the Cobra CLI. Run without a
// subcommand, the root command performs the conversion.
//
// COBRA CLI STRUCTURE:
//   rootCmd (sheet2xml [column])   convert the spreadsheet
//   ├── schemaCmd (sheet2xml schema) write a starter XSD for a spreadsheet
//   └── versionCmd (sheet2xml version)
//
// CONFIGURATION:
//   The root command is responsible for:
//   1. Setting up global flags (--config, --verbose)
//   2. Initializing the configuration (see initConfig)
//   3. Setting up logging
//
// =============================================================================

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/sheet2xml/internal/config"
	"github.com/ginjaninja78/sheet2xml/internal/logger"
)

// =============================================================================
// GLOBAL VARIABLES
// =============================================================================

// cfgFile holds the path to the configuration file.
// Empty means config.json in the working directory, if present.
var cfgFile string

// verbose enables debug logging when set to true.
var verbose bool

// =============================================================================
// ROOT COMMAND DEFINITION
// =============================================================================

// rootCmd represents the base command. Called without a subcommand it runs
// the conversion.
var rootCmd = &cobra.Command{
	Use:   "sheet2xml [column]",
	Short: "Sheet to XML Converter - Turn spreadsheet rows into validated XML files",
	Long: `sheet2xml converts the rows of a spreadsheet (.xlsx, .xlsm, .xls or .csv)
into XML documents shaped by an XSD schema, validates every document against
that schema, and bundles them into a zip archive.

The optional column argument groups rows by that column's value: one set of
documents is written per group. With --by_number the column is given by its
1-based position instead of its name.

Example Usage:
  sheet2xml                              # One document for the whole sheet
  sheet2xml region                       # One document per region
  sheet2xml 3 --by_number                # Group by the third column
  sheet2xml region --max_records 500     # At most 500 rows per document
  sheet2xml --config ./other.json        # Use another configuration file`,

	Args: cobra.MaximumNArgs(1),

	// Errors are printed once by Execute.
	SilenceErrors: true,
	SilenceUsage:  true,

	RunE: runProcess,
}

// =============================================================================
// EXECUTE FUNCTION
// =============================================================================

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// =============================================================================
// INITIALIZATION
// =============================================================================

func init() {
	// ==========================================================================
	// PERSISTENT FLAGS
	// ==========================================================================

	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		"",
		"Path to the configuration file, JSON or YAML (default is config.json if present)",
	)

	rootCmd.PersistentFlags().BoolVarP(
		&verbose,
		"verbose",
		"v",
		false,
		"Enable verbose output for debugging",
	)
}

// initConfig resolves the configuration for cmd and builds the logger.
//
// Flags changed on cmd override environment variables, which override the
// configuration file, which overrides the built-in defaults.
func initConfig(cmd *cobra.Command) (*config.Config, logger.Logger, error) {
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return nil, nil, err
	}

	level := cfg.LogLevel
	if verbose {
		level = "debug"
	}
	log := logger.New(logger.Config{Level: level, Output: cmd.ErrOrStderr()})

	log.Debug("configuration loaded",
		"excel_file", cfg.ExcelFile,
		"xsd_file", cfg.XSDFile,
		"output_dir", cfg.OutputDir,
		"archive_file", cfg.ArchiveFile)

	return cfg, log, nil
}
