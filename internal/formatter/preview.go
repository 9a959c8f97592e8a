// Package formatter renders dataset previews as aligned markdown tables.
package formatter

import (
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"

	"regscrape/internal/models"
)

// DefaultCellWidth caps a preview cell's display width.
const DefaultCellWidth = 40

// Preview renders the header and the first maxRows rows of ds as a markdown
// table. Body cells wider than cellWidth are truncated by display width.
// A trailing line reports hidden rows.
func Preview(ds *models.Dataset, maxRows, cellWidth int) string {
	if ds == nil || len(ds.Columns) == 0 {
		return ""
	}

	if cellWidth <= 0 {
		cellWidth = DefaultCellWidth
	}

	shown := ds.Len()
	if maxRows >= 0 && shown > maxRows {
		shown = maxRows
	}

	table := make([][]string, 0, shown+1)
	table = append(table, fit(ds.Columns, 0))

	for _, row := range ds.Rows[:shown] {
		table = append(table, fit(row, cellWidth))
	}

	lines := processTable(table)

	if hidden := ds.Len() - shown; hidden > 0 {
		lines = append(lines, "... "+strconv.Itoa(hidden)+" more rows")
	}

	return strings.Join(lines, "\n")
}

func fit(cells []string, width int) []string {
	out := make([]string, len(cells))
	for i, c := range cells {
		c = strings.Join(strings.Fields(c), " ")
		c = strings.ReplaceAll(c, "|", `\|`)

		if width > 0 {
			c = runewidth.Truncate(c, width, "…")
		}

		out[i] = c
	}

	return out
}

// processTable pads a header row plus body rows to common display widths
// and inserts the separator row.
func processTable(table [][]string) []string {
	colCount := 0
	for _, row := range table {
		if len(row) > colCount {
			colCount = len(row)
		}
	}

	colWidths := make([]int, colCount)

	for _, row := range table {
		for i := 0; i < len(row); i++ {
			if width := runewidth.StringWidth(row[i]); width > colWidths[i] {
				colWidths[i] = width
			}
		}
	}

	// Ensure min width for separator (usually 3 dashes "---")
	for i := range colWidths {
		if colWidths[i] < 3 {
			colWidths[i] = 3
		}
	}

	result := make([]string, 0, len(table)+1)

	for i, row := range table {
		result = append(result, renderRow(row, colWidths))

		if i == 0 {
			sep := make([]string, colCount)
			for j := range sep {
				sep[j] = strings.Repeat("-", colWidths[j])
			}

			result = append(result, renderRow(sep, colWidths))
		}
	}

	return result
}

func renderRow(row []string, colWidths []int) string {
	var sb strings.Builder

	sb.WriteString("|")

	for j, width := range colWidths {
		content := ""
		if j < len(row) {
			content = row[j]
		}

		sb.WriteString(" ")
		sb.WriteString(content)

		// Pad with spaces based on display width
		if padding := width - runewidth.StringWidth(content); padding > 0 {
			sb.WriteString(strings.Repeat(" ", padding))
		}

		sb.WriteString(" |")
	}

	return sb.String()
}
