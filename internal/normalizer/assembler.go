package normalizer

import (
	"strconv"
	"strings"

	"regscrape/internal/models"
)

// NormalizeColumnName lowercases a header and replaces spaces with underscores.
func NormalizeColumnName(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "_")
}

// hasSemanticName rejects blank headers and the "Unnamed: n" placeholders
// produced by headerless table cells.
func hasSemanticName(name string) bool {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return false
	}

	return !strings.HasPrefix(strings.ToLower(trimmed), "unnamed")
}

// cleanValue maps empty and "none" values to the sentinel.
func cleanValue(v string) string {
	trimmed := strings.TrimSpace(v)
	if trimmed == "" || strings.EqualFold(trimmed, "none") {
		return models.Sentinel
	}

	return v
}

// Assemble turns records into a dataset: unnamed columns are dropped, empty
// values become the sentinel, ids run 1..N in record order, headers are
// snake-cased and id, url lead the remaining columns in first-seen order.
// Assembling the records of an assembled dataset yields the same dataset.
func Assemble(records []*models.Record) *models.Dataset {
	columns := []string{models.ColumnID, models.ColumnURL}
	pos := map[string]int{models.ColumnID: 0, models.ColumnURL: 1}

	for _, r := range records {
		for _, f := range r.Fields() {
			if !hasSemanticName(f.Name) {
				continue
			}

			name := NormalizeColumnName(f.Name)
			if _, ok := pos[name]; !ok {
				pos[name] = len(columns)
				columns = append(columns, name)
			}
		}
	}

	ds := &models.Dataset{
		Columns: columns,
		Rows:    make([][]string, len(records)),
	}

	for i, r := range records {
		row := make([]string, len(columns))
		for j := range row {
			row[j] = models.Sentinel
		}

		for _, f := range r.Fields() {
			if !hasSemanticName(f.Name) {
				continue
			}

			p := pos[NormalizeColumnName(f.Name)]
			// Headers that collapse to the same name keep the first real value.
			if row[p] == models.Sentinel {
				row[p] = cleanValue(f.Value)
			}
		}

		row[0] = strconv.Itoa(i + 1)
		ds.Rows[i] = row
	}

	return ds
}
