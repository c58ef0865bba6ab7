package utils

import (
	"archive/zip"
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/ginjaninja78/sheet2xml/internal/types"
)

func TestPrepareOutputDir_WipesPreviousRun(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "xml/old.xml", []byte("<old/>"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "xml/nested/stale.xml", []byte("<old/>"), 0o644))

	fm := NewFileManager(fs, "xml", "xml_files.zip")
	dir, err := fm.PrepareOutputDir()
	require.NoError(t, err)
	assert.Equal(t, "xml", dir.Path())

	entries, err := afero.ReadDir(fs, "xml")
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestPrepareOutputDir_RefusesProtectedPaths(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "data/people.csv", []byte("id\n1\n"), 0o644))

	fm := NewFileManager(fs, "data", "xml_files.zip")
	_, err := fm.PrepareOutputDir("data/people.csv")

	var ioErr *types.IOError
	require.True(t, errors.As(err, &ioErr))
	assert.ErrorIs(t, err, ErrUnsafeOutputDir)

	exists, err := afero.Exists(fs, "data/people.csv")
	require.NoError(t, err)
	assert.True(t, exists, "protected file survives")
}

func TestCheckOutputDir(t *testing.T) {
	tests := []struct {
		name      string
		outputDir string
		protected []string
		wantErr   bool
	}{
		{name: "separate directory", outputDir: "xml", protected: []string{"datos.xlsx", "schema.xsd"}},
		{name: "empty protected path ignored", outputDir: "xml", protected: []string{""}},
		{name: "shared name prefix", outputDir: "xml", protected: []string{"xml_in/datos.xlsx"}},
		{name: "working directory", outputDir: ".", wantErr: true},
		{name: "parent of working directory", outputDir: "..", wantErr: true},
		{name: "holds an input", outputDir: "in", protected: []string{"in/datos.xlsx"}, wantErr: true},
		{name: "is an input", outputDir: "schema.xsd", protected: []string{"schema.xsd"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckOutputDir(tt.outputDir, tt.protected...)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnsafeOutputDir)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestWriteDocument(t *testing.T) {
	fs := afero.NewMemMapFs()
	fm := NewFileManager(fs, "out/xml", "out/xml_files.zip")

	dir, err := fm.PrepareOutputDir()
	require.NoError(t, err)

	path, err := fm.WriteDocument(dir, "east.xml", []byte("<Root/>"))
	require.NoError(t, err)
	assert.Equal(t, "out/xml/east.xml", path)

	data, err := afero.ReadFile(fs, path)
	require.NoError(t, err)
	assert.Equal(t, "<Root/>", string(data))
}

func TestWriteDocument_RequiresPreparedDir(t *testing.T) {
	fm := NewFileManager(afero.NewMemMapFs(), "xml", "xml_files.zip")

	_, err := fm.WriteDocument(OutputDir{}, "a.xml", nil)
	var ioErr *types.IOError
	assert.True(t, errors.As(err, &ioErr))
}

func TestCreateArchive_EntriesUseBaseNames(t *testing.T) {
	fs := afero.NewMemMapFs()
	fm := NewFileManager(fs, "run/xml", "run/bundle/xml_files.zip")

	dir, err := fm.PrepareOutputDir()
	require.NoError(t, err)

	docs := map[string]string{"east.xml": "<e/>", "east_1.xml": "<e1/>", "west.xml": "<w/>"}
	var paths []string
	for _, name := range []string{"east.xml", "east_1.xml", "west.xml"} {
		p, err := fm.WriteDocument(dir, name, []byte(docs[name]))
		require.NoError(t, err)
		paths = append(paths, p)
	}

	require.NoError(t, fm.CreateArchive(paths))

	data, err := afero.ReadFile(fs, "run/bundle/xml_files.zip")
	require.NoError(t, err)
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	var names []string
	for _, f := range zr.File {
		names = append(names, f.Name)
		rc, err := f.Open()
		require.NoError(t, err)
		content, err := io.ReadAll(rc)
		rc.Close()
		require.NoError(t, err)
		assert.Equal(t, docs[f.Name], string(content))
	}
	assert.Equal(t, []string{"east.xml", "east_1.xml", "west.xml"}, names)
}

func TestCreateArchive_MissingFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	fm := NewFileManager(fs, "xml", "xml_files.zip")

	err := fm.CreateArchive([]string{"xml/missing.xml"})
	var ioErr *types.IOError
	require.True(t, errors.As(err, &ioErr))
	assert.Equal(t, "xml/missing.xml", ioErr.Path)

	exists, _ := afero.Exists(fs, "xml_files.zip")
	assert.False(t, exists, "a failed archive is removed")
}

func TestCreateArchive_ReadOnlyFs(t *testing.T) {
	fm := NewFileManager(afero.NewReadOnlyFs(afero.NewMemMapFs()), "xml", "xml_files.zip")

	err := fm.CreateArchive(nil)
	var ioErr *types.IOError
	require.True(t, errors.As(err, &ioErr))
	assert.Equal(t, "create archive", ioErr.Op)
}

func TestWriteSummaryLog(t *testing.T) {
	fs := afero.NewMemMapFs()
	fm := NewFileManager(fs, "out/xml", "out/xml_files.zip")

	summary := &RunSummary{
		RunID:     "run-1",
		InputFile: "datos.xlsx",
		TotalRows: 3,
		Metadata:  types.Metadata{Author: "ana"},
		Documents: []DocumentInfo{
			{File: "east.xml", Label: "east", Rows: 2, Valid: true},
			{File: "west.xml", Label: "west", Rows: 1, Errors: []string{"line 3: bad"}},
		},
	}

	path, err := fm.WriteSummaryLog(summary)
	require.NoError(t, err)
	assert.Equal(t, "out/"+ReportFileName, path)

	data, err := afero.ReadFile(fs, path)
	require.NoError(t, err)

	var decoded RunSummary
	require.NoError(t, yaml.Unmarshal(data, &decoded))
	assert.Equal(t, "run-1", decoded.RunID)
	assert.Equal(t, "ana", decoded.Metadata.Author)
	require.Len(t, decoded.Documents, 2)
	assert.Equal(t, []string{"line 3: bad"}, decoded.Documents[1].Errors)
}

func TestNewRunID(t *testing.T) {
	a, b := NewRunID(), NewRunID()
	assert.Len(t, a, 36)
	assert.NotEqual(t, a, b)
}
