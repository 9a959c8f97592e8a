package exporter

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"regscrape/internal/config"
	"regscrape/internal/logger"
	"regscrape/internal/models"
	"regscrape/pkg/metadata"
)

func newExporter(t *testing.T) (*Exporter, string) {
	t.Helper()

	dir := t.TempDir()

	cfg := config.Default()
	cfg.Scraper.Output.Dir = filepath.Join(dir, "files")

	at := time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC)

	return New(cfg, logger.Discard()).WithClock(func() time.Time { return at }), cfg.Scraper.Output.Dir
}

func sample() *models.Dataset {
	return &models.Dataset{
		Columns: []string{"id", "url", "title", "penalty"},
		Rows: [][]string{
			{"1", "https://www.nab.gov.pk/press/new.asp?1", "Plea bargain approved", "Rs. 5 million"},
			{"2", "https://www.nab.gov.pk/press/new.asp?2", "Reference filed", "N/A"},
		},
	}
}

func TestExport_PathAndContent(t *testing.T) {
	e, dir := newExporter(t)

	path, err := e.Export(sample(), "nab", false)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "nab_20240305.xlsx"), path)

	got, err := Read(path)
	require.NoError(t, err)

	assert.Equal(t, sample().Columns, got.Columns)
	assert.Equal(t, sample().Rows, got.Rows)

	require.NoError(t, Verify(path))
}

func TestExport_IDWrittenAsNumber(t *testing.T) {
	e, _ := newExporter(t)

	path, err := e.Export(sample(), "nab", false)
	require.NoError(t, err)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	raw, err := f.GetCellValue(SheetName, "A2", excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	assert.Equal(t, "1", raw)

	props, err := f.GetDocProps()
	require.NoError(t, err)

	meta, err := metadata.Extract(props.Description)
	require.NoError(t, err)
	assert.Equal(t, "nab", meta.Source)
	assert.Equal(t, 2, meta.Rows)
	assert.False(t, meta.Translated)
}

func TestExport_TranslatedPrefix(t *testing.T) {
	e, dir := newExporter(t)

	path, err := e.Export(sample(), "gob", true)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "translated_gob_20240305.xlsx"), path)
}

func TestExport_HeaderOnly(t *testing.T) {
	e, _ := newExporter(t)

	path, err := e.Export(&models.Dataset{Columns: []string{"id", "url", "name"}}, "fsrc", false)
	require.NoError(t, err)

	got, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "url", "name"}, got.Columns)
	assert.Empty(t, got.Rows)
}

func TestExport_TruncatesLongCells(t *testing.T) {
	e, _ := newExporter(t)

	ds := sample()
	ds.Rows[0][2] = strings.Repeat("á", MaxCellLength+100)

	path, err := e.Export(ds, "nab", false)
	require.NoError(t, err)

	got, err := Read(path)
	require.NoError(t, err)
	assert.Len(t, []rune(got.Rows[0][2]), MaxCellLength)

	require.NoError(t, Verify(path), "hash covers the written, truncated text")
}

func TestExport_Overwrites(t *testing.T) {
	e, _ := newExporter(t)

	_, err := e.Export(sample(), "nab", false)
	require.NoError(t, err)

	ds := sample()
	ds.Rows = ds.Rows[:1]

	path, err := e.Export(ds, "nab", false)
	require.NoError(t, err)

	got, err := Read(path)
	require.NoError(t, err)
	assert.Len(t, got.Rows, 1)
}

func TestVerify_DetectsEditedWorkbook(t *testing.T) {
	e, _ := newExporter(t)

	path, err := e.Export(sample(), "nab", false)
	require.NoError(t, err)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	require.NoError(t, f.SetCellValue(SheetName, "C2", "edited"))
	require.NoError(t, f.Save())
	require.NoError(t, f.Close())

	err = Verify(path)
	assert.True(t, errors.Is(err, metadata.ErrHashMismatch), "got %v", err)
}
