package normalizer

import (
	"regscrape/internal/models"
)

// Cleaner rewrites one cell value.
type Cleaner func(string) string

// DateCleaner parses dates with the given format.
func DateCleaner(f DateFormat) Cleaner {
	return func(s string) string {
		return ParseDate(s, f)
	}
}

// URLListCleaner resolves a pipe-joined link list against origin.
func URLListCleaner(origin string) Cleaner {
	return func(s string) string {
		return ResolveURLs(s, origin)
	}
}

// Rule describes one column operation. Column names are the snake-cased
// names produced by Assemble. Exactly one of Drop, Rename or Clean/Derive
// is expected per rule.
type Rule struct {
	Column string
	// Drop removes the column.
	Drop bool
	// Rename moves the column's values to another name, merging into an
	// existing column when one is already present.
	Rename string
	// Clean is applied in order to every non-sentinel cell.
	Clean []Cleaner
	// Derive writes the cleaned values to this column instead of Column.
	Derive string
}

// Transformer applies column rules to an assembled dataset.
type Transformer struct {
	rules []Rule
}

// NewTransformer creates a transformer for the rules, applied in order.
func NewTransformer(rules []Rule) *Transformer {
	return &Transformer{rules: rules}
}

// Transform returns a transformed copy of ds.
func (t *Transformer) Transform(ds *models.Dataset) *models.Dataset {
	out := ds.Clone()

	for _, rule := range t.rules {
		idx := out.Index(rule.Column)
		if idx < 0 || isLeadingColumn(rule.Column) {
			continue
		}

		switch {
		case rule.Drop:
			dropColumn(out, idx)
		case rule.Rename != "":
			renameColumn(out, idx, rule.Rename)
		default:
			target := idx
			if rule.Derive != "" {
				target = ensureColumn(out, rule.Derive)
			}

			for _, row := range out.Rows {
				row[target] = applyCleaners(row[idx], rule.Clean)
			}
		}
	}

	fillSentinels(out)

	return out
}

func isLeadingColumn(name string) bool {
	return name == models.ColumnID
}

func applyCleaners(v string, cleaners []Cleaner) string {
	if v == models.Sentinel {
		return v
	}

	for _, c := range cleaners {
		v = c(v)
		if v == models.Sentinel {
			break
		}
	}

	return v
}

func dropColumn(ds *models.Dataset, idx int) {
	ds.Columns = append(ds.Columns[:idx:idx], ds.Columns[idx+1:]...)
	for i, row := range ds.Rows {
		ds.Rows[i] = append(row[:idx:idx], row[idx+1:]...)
	}
}

func renameColumn(ds *models.Dataset, idx int, name string) {
	name = NormalizeColumnName(name)

	existing := ds.Index(name)
	if existing < 0 {
		ds.Columns[idx] = name
		return
	}

	for _, row := range ds.Rows {
		if row[existing] == models.Sentinel {
			row[existing] = row[idx]
		}
	}

	dropColumn(ds, idx)
}

func ensureColumn(ds *models.Dataset, name string) int {
	if idx := ds.Index(name); idx >= 0 {
		return idx
	}

	ds.Columns = append(ds.Columns, name)
	for i := range ds.Rows {
		ds.Rows[i] = append(ds.Rows[i], models.Sentinel)
	}

	return len(ds.Columns) - 1
}

// fillSentinels replaces cells emptied by cleaning.
func fillSentinels(ds *models.Dataset) {
	for _, row := range ds.Rows {
		for j := range row {
			row[j] = cleanValue(row[j])
		}
	}
}
