// =============================================================================
// Sheet to XML Converter - Configuration Module
// =============================================================================
//
// This module loads the run configuration. Values are resolved with the
// following precedence (highest first):
//
//   1. Command-line flags   (--excel, --xsd, --output-dir, ...)
//   2. Environment          (SHEET2XML_EXCEL_FILE, SHEET2XML_XSD_FILE, ...)
//   3. Configuration file   (config.json by default; JSON or YAML)
//   4. Built-in defaults
//
// CONFIGURATION FILE EXAMPLE (config.json):
//   {
//     "excel_file": "datos.xlsx",
//     "xsd_file": "schema.xsd"
//   }
//
// =============================================================================

package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/ginjaninja78/sheet2xml/pkg/utils"
)

// EnvPrefix is the prefix for environment overrides.
const EnvPrefix = "SHEET2XML"

// DefaultConfigFile is used when --config is not given.
const DefaultConfigFile = "config.json"

// =============================================================================
// CONFIGURATION STRUCTURE
// =============================================================================

// Config holds the settings for one conversion run.
type Config struct {
	// =========================================================================
	// INPUT SETTINGS
	// =========================================================================

	// ExcelFile is the input spreadsheet (.xlsx, .xlsm, .xls or .csv).
	// Default: "datos.xlsx"
	ExcelFile string `mapstructure:"excel_file" yaml:"excel_file"`

	// XSDFile is the XML Schema every generated document is checked against.
	// Default: "schema.xsd"
	XSDFile string `mapstructure:"xsd_file" yaml:"xsd_file"`

	// Sheet selects a worksheet by name. Empty means the first sheet.
	Sheet string `mapstructure:"sheet" yaml:"sheet"`

	// CSVDelimiter is the field separator for .csv inputs.
	// Default: ","
	CSVDelimiter string `mapstructure:"csv_delimiter" yaml:"csv_delimiter"`

	// =========================================================================
	// OUTPUT SETTINGS
	// =========================================================================

	// OutputDir receives the generated XML files. It is wiped on every run.
	// Default: "xml"
	OutputDir string `mapstructure:"output_dir" yaml:"output_dir"`

	// ArchiveFile is the zip bundling all generated files.
	// Default: "xml_files.zip"
	ArchiveFile string `mapstructure:"archive_file" yaml:"archive_file"`

	// =========================================================================
	// DOCUMENT SHAPE
	// =========================================================================

	// RootElement names the document element. Default: "Root"
	RootElement string `mapstructure:"root_element" yaml:"root_element"`

	// MetaElement names the metadata block. Default: "meta"
	MetaElement string `mapstructure:"meta_element" yaml:"meta_element"`

	// RecordElement names one record, and is the element looked up in the
	// schema to derive the field list. Default: "Item"
	RecordElement string `mapstructure:"record_element" yaml:"record_element"`

	// =========================================================================
	// LOGGING SETTINGS
	// =========================================================================

	// LogLevel controls verbosity: "debug", "info", "warn", "error".
	// Default: "info"
	LogLevel string `mapstructure:"log_level" yaml:"log_level"`

	// ConfigFile is the configuration file that was read, if any. It is never
	// read from the configuration itself.
	ConfigFile string `mapstructure:"-" yaml:"-"`
}

// defaults lists every key with its built-in value. Keeping all keys here
// also makes environment overrides visible to Unmarshal.
var defaults = map[string]any{
	"excel_file":     "datos.xlsx",
	"xsd_file":       "schema.xsd",
	"sheet":          "",
	"csv_delimiter":  ",",
	"output_dir":     "xml",
	"archive_file":   "xml_files.zip",
	"root_element":   "Root",
	"meta_element":   "meta",
	"record_element": "Item",
	"log_level":      "info",
}

// flagKeys maps command-line flag names to configuration keys.
var flagKeys = map[string]string{
	"excel":      "excel_file",
	"xsd":        "xsd_file",
	"sheet":      "sheet",
	"output-dir": "output_dir",
	"archive":    "archive_file",
	"log-level":  "log_level",
}

// =============================================================================
// CONFIGURATION LOADING
// =============================================================================

// Load resolves the configuration.
//
// PARAMETERS:
//   - path: The configuration file. Empty means DefaultConfigFile.
//   - flags: Optional flag set whose changed flags override everything else.
//
// RETURNS:
//   - The resolved Config.
//   - An error if an explicitly named file is missing or any file is malformed.
//
// A missing DefaultConfigFile is not an error: the defaults are used.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	applyDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("failed to bind flag %s: %w", name, err)
				}
			}
		}
	}

	explicit := path != ""
	if !explicit {
		path = DefaultConfigFile
	}

	if _, err := os.Stat(path); err == nil {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	} else if explicit || !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.ConfigFile = v.ConfigFileUsed()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Default returns the built-in configuration.
func Default() *Config {
	v := viper.New()
	applyDefaults(v)

	var cfg Config
	// Unmarshal of plain defaults cannot fail.
	_ = v.Unmarshal(&cfg)
	return &cfg
}

// applyDefaults registers the built-in value of every key.
func applyDefaults(v *viper.Viper) {
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
}

// Validate checks that required settings are present and that wiping
// output_dir cannot delete the inputs or the working directory.
func (c *Config) Validate() error {
	required := map[string]string{
		"excel_file":     c.ExcelFile,
		"xsd_file":       c.XSDFile,
		"output_dir":     c.OutputDir,
		"archive_file":   c.ArchiveFile,
		"root_element":   c.RootElement,
		"meta_element":   c.MetaElement,
		"record_element": c.RecordElement,
	}
	for key, value := range required {
		if strings.TrimSpace(value) == "" {
			return fmt.Errorf("%s must not be empty", key)
		}
	}
	if len([]rune(c.CSVDelimiter)) > 1 {
		return fmt.Errorf("csv_delimiter must be a single character, got %q", c.CSVDelimiter)
	}
	if err := utils.CheckOutputDir(c.OutputDir, c.ExcelFile, c.XSDFile, c.ConfigFile); err != nil {
		return fmt.Errorf("output_dir: %w", err)
	}
	return nil
}
