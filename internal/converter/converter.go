// =============================================================================
// Sheet to XML Converter - Converter Module
// =============================================================================
//
// This module contains the conversion pipeline. It runs once per invocation,
// from reading the schema to writing the archive.
//
// CONVERSION PIPELINE:
//   1. Read the XSD schema and extract the record fields
//   2. Load the spreadsheet (table, base name, metadata)
//   3. Group and chunk the rows
//   4. Prepare the output directory (wiped once per run)
//   5. For every chunk: build the document, validate it, write it
//   6. Bundle the written files into the zip archive
//   7. Optionally write the run report
//
// ERRORS:
//   Schema, load, conversion and I/O errors abort the run. A document that
//   fails validation is reported and still written and archived.
//
// =============================================================================

package converter

import (
	"fmt"
	"strings"
	"time"

	"github.com/ginjaninja78/sheet2xml/internal/config"
	"github.com/ginjaninja78/sheet2xml/internal/loader"
	"github.com/ginjaninja78/sheet2xml/internal/logger"
	"github.com/ginjaninja78/sheet2xml/internal/schema"
	"github.com/ginjaninja78/sheet2xml/internal/types"
	"github.com/ginjaninja78/sheet2xml/internal/validation"
	"github.com/ginjaninja78/sheet2xml/internal/xmlwriter"
	"github.com/ginjaninja78/sheet2xml/pkg/utils"
)

// =============================================================================
// RUN OPTIONS
// =============================================================================

// Options are the per-invocation settings given on the command line.
type Options struct {
	// Column is the grouping column name, or its 1-based position when
	// ByNumber is set. Empty means no grouping.
	Column string

	// ByNumber interprets Column as a position.
	ByNumber bool

	// MaxRecords limits the rows per document. Zero means no limit.
	MaxRecords int

	// Report writes the YAML run report next to the archive.
	Report bool
}

// =============================================================================
// CONVERTER STRUCTURE
// =============================================================================

// Converter runs the conversion pipeline.
type Converter struct {
	cfg    *config.Config
	files  *utils.FileManager
	logger logger.Logger
}

// New creates a new Converter.
//
// PARAMETERS:
//   - cfg: The resolved configuration (input paths and element names).
//   - files: Where documents, the archive and the report are written.
//   - log: The logger. Nil discards everything.
func New(cfg *config.Config, files *utils.FileManager, log logger.Logger) *Converter {
	if log == nil {
		log = logger.Discard()
	}
	return &Converter{cfg: cfg, files: files, logger: log}
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

// Run executes the conversion pipeline.
//
// RETURNS:
//   - The run summary, also used for the report.
//   - The first aborting error: *types.ParseError, *types.LoadError,
//     *types.ConversionError (wrapped with the document name),
//     *types.IOError, or a grouping column error.
func (c *Converter) Run(opts Options) (*utils.RunSummary, error) {
	summary := &utils.RunSummary{
		RunID:      utils.NewRunID(),
		StartTime:  time.Now(),
		InputFile:  c.cfg.ExcelFile,
		SchemaFile: c.cfg.XSDFile,
		MaxRecords: opts.MaxRecords,
		OutputDir:  c.files.OutputDir,
		Archive:    c.files.ArchivePath,
	}
	log := c.logger.With("run", summary.RunID[:8])

	// =========================================================================
	// STEP 1: READ SCHEMA
	// =========================================================================
	// The record element's children give the column order and the value
	// conversion rule of every field.

	fields, xsd, err := schema.ReadFields(c.cfg.XSDFile, c.cfg.RecordElement)
	if err != nil {
		return nil, err
	}
	validator := validation.New(xsd)

	log.Debug("schema loaded", "file", c.cfg.XSDFile, "fields", strings.Join(types.FieldNames(fields), ","))

	// =========================================================================
	// STEP 2: LOAD SPREADSHEET
	// =========================================================================

	sheet, err := loader.Load(c.cfg.ExcelFile, loader.Options{
		Sheet:        c.cfg.Sheet,
		CSVDelimiter: c.cfg.CSVDelimiter,
	})
	if err != nil {
		return nil, err
	}
	summary.TotalRows = sheet.Table.Len()
	summary.Metadata = sheet.Metadata

	// Every schema field needs a column.
	if _, err := sheet.Table.Select(types.FieldNames(fields)); err != nil {
		return nil, &types.LoadError{Path: c.cfg.ExcelFile, Err: err}
	}

	log.Info("spreadsheet loaded", "file", c.cfg.ExcelFile, "rows", sheet.Table.Len(), "columns", len(sheet.Table.Columns))

	// =========================================================================
	// STEP 3: GROUP AND CHUNK
	// =========================================================================
	// Grouping uses the loaded table, so the grouping column does not have to
	// be a schema field.

	column, err := ResolveColumn(sheet.Table, opts.Column, opts.ByNumber)
	if err != nil {
		return nil, err
	}
	summary.GroupColumn = column

	chunks, skipped, err := Partition(sheet.Table, column, opts.MaxRecords, sheet.BaseName)
	if err != nil {
		return nil, err
	}
	summary.SkippedRows = skipped

	if skipped > 0 {
		log.Warn("rows with an empty grouping value were skipped", "column", column, "rows", skipped)
	}
	log.Debug("rows partitioned", "column", column, "documents", len(chunks))

	// =========================================================================
	// STEP 4: PREPARE OUTPUT DIRECTORY
	// =========================================================================

	dir, err := c.files.PrepareOutputDir(c.cfg.ExcelFile, c.cfg.XSDFile, c.cfg.ConfigFile)
	if err != nil {
		return nil, err
	}

	// =========================================================================
	// STEP 5: BUILD, VALIDATE AND WRITE EACH DOCUMENT
	// =========================================================================

	xmlOpts := xmlwriter.Options{
		Root:      c.cfg.RootElement,
		Meta:      c.cfg.MetaElement,
		Record:    c.cfg.RecordElement,
		Namespace: xsd.TargetNamespace,
	}

	var paths []string
	written := make(map[string]bool)

	for _, chunk := range chunks {
		name := chunk.FileName()

		doc, err := xmlwriter.Build(chunk.Table, sheet.Metadata, fields, xmlOpts)
		if err != nil {
			return nil, fmt.Errorf("failed to build %s: %w", name, err)
		}

		result := validator.Validate(doc)
		c.report(log, name, result)

		path, err := c.files.WriteDocument(dir, name, doc)
		if err != nil {
			return nil, err
		}

		// Two labels can map to the same file name; the later document wins.
		if written[path] {
			log.Warn("file name already used, previous document overwritten", "file", name, "group", chunk.Label)
		} else {
			written[path] = true
			paths = append(paths, path)
		}

		info := utils.DocumentInfo{
			File:   name,
			Label:  chunk.Label,
			Index:  chunk.Index,
			Rows:   chunk.Table.Len(),
			Valid:  result.Valid,
			Errors: result.Errors,
		}
		summary.Documents = append(summary.Documents, info)
		if result.Valid {
			summary.ValidDocuments++
		} else {
			summary.InvalidDocuments++
		}
	}

	// =========================================================================
	// STEP 6: ARCHIVE
	// =========================================================================

	if err := c.files.CreateArchive(paths); err != nil {
		return nil, err
	}

	summary.EndTime = time.Now()
	summary.Duration = summary.EndTime.Sub(summary.StartTime).String()

	// =========================================================================
	// STEP 7: REPORT
	// =========================================================================

	if opts.Report {
		path, err := c.files.WriteSummaryLog(summary)
		if err != nil {
			return nil, err
		}
		log.Info("report written", "file", path)
	}

	log.Info("conversion finished",
		"documents", len(summary.Documents),
		"valid", summary.ValidDocuments,
		"invalid", summary.InvalidDocuments)

	return summary, nil
}

// report logs the validation outcome of one document.
func (c *Converter) report(log logger.Logger, name string, result validation.Result) {
	if result.Valid {
		log.Info("document is valid", "file", name)
		return
	}

	log.Warn("document is not valid", "file", name, "errors", len(result.Errors))
	for _, msg := range result.Errors {
		log.Warn(msg, "file", name)
	}
}

// SummaryLine is the final message of a successful run.
func SummaryLine(s *utils.RunSummary) string {
	return fmt.Sprintf("All XML files saved in %s and archived in %s", s.OutputDir, s.Archive)
}
