// =============================================================================
// Sheet to XML Converter - File Manager Utility
// =============================================================================
//
// This module owns every write the converter makes:
//   - Output directory setup (wiped and recreated once per run)
//   - Writing generated documents
//   - Bundling the documents into a zip archive
//   - The optional YAML run report
//
// All access goes through an afero.Fs: the OS filesystem in production, an
// in-memory one in tests. Every failure is returned as a *types.IOError.
//
// =============================================================================

package utils

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/ginjaninja78/sheet2xml/internal/types"
)

// ReportFileName is the run report written next to the archive.
const ReportFileName = "conversion_report.yaml"

// ErrUnsafeOutputDir is returned when wiping the output directory would
// delete the working directory or one of the run's own inputs.
var ErrUnsafeOutputDir = errors.New("output directory would delete a protected path")

// =============================================================================
// FILE MANAGER
// =============================================================================

// FileManager handles file operations for the converter.
type FileManager struct {
	// Fs is the filesystem everything is written to.
	Fs afero.Fs

	// OutputDir is the directory where documents are written.
	OutputDir string

	// ArchivePath is the zip file bundling the documents.
	ArchivePath string
}

// NewFileManager creates a new FileManager. A nil fs means the OS filesystem.
func NewFileManager(fs afero.Fs, outputDir, archivePath string) *FileManager {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &FileManager{
		Fs:          fs,
		OutputDir:   outputDir,
		ArchivePath: archivePath,
	}
}

// OutputDir is a prepared, initially empty output directory. It is only
// obtained from PrepareOutputDir.
type OutputDir struct {
	path string
}

// Path returns the directory path.
func (d OutputDir) Path() string { return d.path }

// =============================================================================
// DIRECTORY MANAGEMENT
// =============================================================================

// PrepareOutputDir deletes the output directory with everything in it and
// creates it again, empty.
//
// PARAMETERS:
//   - protected: Paths that must survive the wipe, such as the input
//     spreadsheet and the schema. The working directory is always protected.
//
// RETURNS:
//   - A handle to pass to WriteDocument.
//   - An error if the directory overlaps a protected path, or cannot be
//     removed or created.
func (fm *FileManager) PrepareOutputDir(protected ...string) (OutputDir, error) {
	if err := CheckOutputDir(fm.OutputDir, protected...); err != nil {
		return OutputDir{}, &types.IOError{Op: "remove directory", Path: fm.OutputDir, Err: err}
	}
	if err := fm.Fs.RemoveAll(fm.OutputDir); err != nil {
		return OutputDir{}, &types.IOError{Op: "remove directory", Path: fm.OutputDir, Err: err}
	}
	if err := fm.Fs.MkdirAll(fm.OutputDir, 0o755); err != nil {
		return OutputDir{}, &types.IOError{Op: "create directory", Path: fm.OutputDir, Err: err}
	}
	return OutputDir{path: fm.OutputDir}, nil
}

// CheckOutputDir returns an error wrapping ErrUnsafeOutputDir when outputDir
// is, or contains, the working directory or any of the protected paths.
// Empty protected paths are ignored.
func CheckOutputDir(outputDir string, protected ...string) error {
	out, err := filepath.Abs(outputDir)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", outputDir, err)
	}

	if wd, err := os.Getwd(); err == nil && within(out, wd) {
		return fmt.Errorf("%w: %s contains the working directory", ErrUnsafeOutputDir, outputDir)
	}
	for _, p := range protected {
		if p == "" {
			continue
		}
		abs, err := filepath.Abs(p)
		if err != nil {
			return fmt.Errorf("failed to resolve %s: %w", p, err)
		}
		if within(out, abs) {
			return fmt.Errorf("%w: %s contains %s", ErrUnsafeOutputDir, outputDir, p)
		}
	}
	return nil
}

// within reports whether path is dir or lies below it. Both are absolute.
func within(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

// =============================================================================
// DOCUMENTS
// =============================================================================

// WriteDocument writes one generated document into dir.
//
// PARAMETERS:
//   - dir: The prepared output directory.
//   - name: The file name, e.g. "east_1.xml".
//   - data: The document bytes.
//
// RETURNS:
//   - The path of the written file.
//   - An error if writing fails.
//
// A file of the same name written earlier in the run is overwritten.
func (fm *FileManager) WriteDocument(dir OutputDir, name string, data []byte) (string, error) {
	if dir.path == "" {
		return "", &types.IOError{Op: "write", Path: name, Err: fmt.Errorf("output directory was not prepared")}
	}

	path := filepath.Join(dir.path, name)
	if err := afero.WriteFile(fm.Fs, path, data, 0o644); err != nil {
		return "", &types.IOError{Op: "write", Path: path, Err: err}
	}
	return path, nil
}

// =============================================================================
// FILE ARCHIVAL
// =============================================================================

// CreateArchive writes the zip archive containing the given files. Each entry
// is named after the file's base name.
//
// RETURNS:
//   - An error if any file cannot be read or the archive cannot be written.
//     The archive is removed on failure.
func (fm *FileManager) CreateArchive(paths []string) (err error) {
	if dir := filepath.Dir(fm.ArchivePath); dir != "." {
		if err := fm.Fs.MkdirAll(dir, 0o755); err != nil {
			return &types.IOError{Op: "create directory", Path: dir, Err: err}
		}
	}

	file, err := fm.Fs.Create(fm.ArchivePath)
	if err != nil {
		return &types.IOError{Op: "create archive", Path: fm.ArchivePath, Err: err}
	}
	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			err = &types.IOError{Op: "close archive", Path: fm.ArchivePath, Err: cerr}
		}
		if err != nil {
			_ = fm.Fs.Remove(fm.ArchivePath)
		}
	}()

	zw := zip.NewWriter(file)
	for _, path := range paths {
		if err := fm.addToArchive(zw, path); err != nil {
			return err
		}
	}
	if err := zw.Close(); err != nil {
		return &types.IOError{Op: "write archive", Path: fm.ArchivePath, Err: err}
	}
	return nil
}

// addToArchive copies one file into the archive under its base name.
func (fm *FileManager) addToArchive(zw *zip.Writer, path string) error {
	src, err := fm.Fs.Open(path)
	if err != nil {
		return &types.IOError{Op: "open", Path: path, Err: err}
	}
	defer src.Close()

	modified := time.Now()
	if info, err := src.Stat(); err == nil {
		modified = info.ModTime()
	}

	entry, err := zw.CreateHeader(&zip.FileHeader{
		Name:     filepath.Base(path),
		Method:   zip.Deflate,
		Modified: modified,
	})
	if err != nil {
		return &types.IOError{Op: "add to archive", Path: path, Err: err}
	}
	if _, err := io.Copy(entry, src); err != nil {
		return &types.IOError{Op: "add to archive", Path: path, Err: err}
	}
	return nil
}

// =============================================================================
// RUN REPORT
// =============================================================================

// RunSummary contains summary information about a conversion run.
type RunSummary struct {
	RunID     string    `yaml:"run_id"`
	StartTime time.Time `yaml:"start_time"`
	EndTime   time.Time `yaml:"end_time"`
	Duration  string    `yaml:"duration"`

	InputFile   string `yaml:"input_file"`
	SchemaFile  string `yaml:"schema_file"`
	GroupColumn string `yaml:"group_column,omitempty"`
	MaxRecords  int    `yaml:"max_records,omitempty"`

	TotalRows   int            `yaml:"total_rows"`
	SkippedRows int            `yaml:"skipped_rows"`
	Metadata    types.Metadata `yaml:"metadata"`

	OutputDir        string         `yaml:"output_dir"`
	Archive          string         `yaml:"archive"`
	ValidDocuments   int            `yaml:"valid_documents"`
	InvalidDocuments int            `yaml:"invalid_documents"`
	Documents        []DocumentInfo `yaml:"documents"`
}

// DocumentInfo describes one generated document.
type DocumentInfo struct {
	File   string   `yaml:"file"`
	Label  string   `yaml:"label"`
	Index  int      `yaml:"index"`
	Rows   int      `yaml:"rows"`
	Valid  bool     `yaml:"valid"`
	Errors []string `yaml:"errors,omitempty"`
}

// WriteSummaryLog writes the run report as YAML next to the archive.
//
// RETURNS:
//   - The path to the report.
//   - An error if writing fails.
func (fm *FileManager) WriteSummaryLog(summary *RunSummary) (string, error) {
	path := filepath.Join(filepath.Dir(fm.ArchivePath), ReportFileName)

	data, err := yaml.Marshal(summary)
	if err != nil {
		return "", &types.IOError{Op: "encode report", Path: path, Err: err}
	}
	if err := afero.WriteFile(fm.Fs, path, data, 0o644); err != nil {
		return "", &types.IOError{Op: "write", Path: path, Err: err}
	}
	return path, nil
}

// =============================================================================
// UTILITY FUNCTIONS
// =============================================================================

// NewRunID returns a random identifier for one conversion run.
func NewRunID() string {
	return uuid.New().String()
}
