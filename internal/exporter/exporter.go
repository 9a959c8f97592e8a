// Package exporter writes datasets to dated xlsx workbooks.
package exporter

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"

	"regscrape/internal/config"
	"regscrape/internal/logger"
	"regscrape/internal/models"
	"regscrape/pkg/metadata"
	"regscrape/pkg/utils"
)

const (
	// SheetName is the single sheet every workbook carries.
	SheetName = "Sheet1"
	// MaxCellLength is the longest text a spreadsheet cell holds.
	MaxCellLength = 32767
	// TranslatedPrefix marks the translated copy of a source's workbook.
	TranslatedPrefix = "translated_"
)

// ErrEmptyHeader is returned when a workbook has no header row.
var ErrEmptyHeader = errors.New("workbook has no header row")

// Exporter writes workbooks under the configured output directory.
type Exporter struct {
	cfg *config.Config
	log *logger.Logger
	now func() time.Time
}

// New creates an exporter.
func New(cfg *config.Config, log *logger.Logger) *Exporter {
	return &Exporter{cfg: cfg, log: log, now: time.Now}
}

// WithClock replaces the clock used to date file names.
func (e *Exporter) WithClock(now func() time.Time) *Exporter {
	e.now = now

	return e
}

// Path returns where a workbook for name would be written today.
func (e *Exporter) Path(name string, translated bool) string {
	prefix := ""
	if translated {
		prefix = TranslatedPrefix
	}

	return e.cfg.GetOutputPath(prefix, name, e.now())
}

// Export writes ds as files/<name>_<YYYYMMDD>.xlsx, or with the translated_
// prefix, replacing any file of the same name. The id column is written as
// numbers and the workbook description carries the metadata block.
func (e *Exporter) Export(ds *models.Dataset, name string, translated bool) (string, error) {
	path := e.Path(name, translated)

	if err := e.ExportTo(ds, path, name, translated); err != nil {
		return "", err
	}

	return path, nil
}

// ExportTo writes ds to an explicit path, stamping name as the source.
func (e *Exporter) ExportTo(ds *models.Dataset, path, name string, translated bool) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	rows := make([][]string, len(ds.Rows))
	for i, row := range ds.Rows {
		rows[i] = make([]string, len(row))
		for j, cell := range row {
			rows[i][j] = utils.TruncateString(cell, MaxCellLength)
		}
	}

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			e.log.Warn("failed to close workbook", "path", path, "error", err)
		}
	}()

	if err := writeSheet(f, ds.Columns, rows); err != nil {
		return err
	}

	if err := f.SetDocProps(&excelize.DocProperties{
		Title:       name,
		Creator:     "regscrape",
		Description: metadata.Sign(name, translated, ds.Columns, rows),
	}); err != nil {
		return fmt.Errorf("failed to set workbook properties: %w", err)
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook %s: %w", path, err)
	}

	e.log.Info(fmt.Sprintf("💾 Saved %d rows to %s", len(rows), path))

	return nil
}

func writeSheet(f *excelize.File, columns []string, rows [][]string) error {
	sw, err := f.NewStreamWriter(SheetName)
	if err != nil {
		return fmt.Errorf("failed to open sheet writer: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	header := make([]any, len(columns))
	for i, c := range columns {
		header[i] = excelize.Cell{StyleID: headerStyle, Value: c}
	}

	if err := sw.SetRow("A1", header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	idIdx := -1

	for i, c := range columns {
		if c == models.ColumnID {
			idIdx = i
		}
	}

	for r, row := range rows {
		values := make([]any, len(row))
		for i, cell := range row {
			values[i] = cell

			if i == idIdx {
				if n, err := strconv.Atoi(cell); err == nil {
					values[i] = n
				}
			}
		}

		axis, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return fmt.Errorf("failed to address row %d: %w", r+2, err)
		}

		if err := sw.SetRow(axis, values); err != nil {
			return fmt.Errorf("failed to write row %d: %w", r+2, err)
		}
	}

	if err := sw.Flush(); err != nil {
		return fmt.Errorf("failed to flush sheet: %w", err)
	}

	return nil
}

// Read loads a workbook written by Export back into a dataset.
func Read(path string) (*models.Dataset, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook %s: %w", path, err)
	}
	defer f.Close()

	all, err := f.GetRows(SheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	if len(all) == 0 {
		return nil, ErrEmptyHeader
	}

	ds := &models.Dataset{Columns: all[0]}

	for _, row := range all[1:] {
		// trailing empty cells are not stored
		padded := make([]string, len(ds.Columns))
		copy(padded, row)
		ds.Rows = append(ds.Rows, padded)
	}

	return ds, nil
}

// Verify checks a workbook's cells against the hash in its description.
func Verify(path string) error {
	ds, err := Read(path)
	if err != nil {
		return err
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return fmt.Errorf("failed to open workbook %s: %w", path, err)
	}
	defer f.Close()

	props, err := f.GetDocProps()
	if err != nil {
		return fmt.Errorf("failed to read workbook properties: %w", err)
	}

	if _, err := metadata.Verify(props.Description, ds.Columns, ds.Rows); err != nil {
		return fmt.Errorf("workbook %s: %w", path, err)
	}

	return nil
}
