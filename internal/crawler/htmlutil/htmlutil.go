// Package htmlutil holds goquery helpers shared by the extraction steps.
package htmlutil

import (
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"regscrape/internal/models"
)

// Text returns the text of the selection, or the sentinel when nothing matched.
func Text(sel *goquery.Selection) string {
	if sel.Length() == 0 {
		return models.Sentinel
	}

	return sel.Text()
}

// Attr returns the first element's attribute, or the sentinel.
func Attr(sel *goquery.Selection, name string) string {
	if v, ok := sel.Attr(name); ok {
		return v
	}

	return models.Sentinel
}

// Attrs returns the attribute of every matched element that has it.
func Attrs(sel *goquery.Selection, name string) []string {
	var out []string

	sel.Each(func(_ int, s *goquery.Selection) {
		if v, ok := s.Attr(name); ok {
			out = append(out, v)
		}
	})

	return out
}

// TextNodes returns every non-blank descendant text node of the selection
// in document order, joined by sep. It returns the sentinel when there are none.
func TextNodes(sel *goquery.Selection, sep string) string {
	var parts []string

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			if strings.TrimSpace(n.Data) != "" {
				parts = append(parts, n.Data)
			}

			return
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	for _, n := range sel.Nodes {
		walk(n)
	}

	if len(parts) == 0 {
		return models.Sentinel
	}

	return strings.Join(parts, sep)
}

// ReadTables turns every matched <table> into records, one per body row,
// keyed by the header cells. Header cells come from <thead>, or from the
// first row when it holds <th> cells. Blank headers get "Unnamed: i"
// names so assembly can drop them.
func ReadTables(sel *goquery.Selection) []*models.Record {
	var records []*models.Record

	sel.Each(func(_ int, table *goquery.Selection) {
		records = append(records, readTable(table)...)
	})

	return records
}

func readTable(table *goquery.Selection) []*models.Record {
	rows := table.Find("tr")
	if rows.Length() == 0 {
		return nil
	}

	var headers []string

	bodyStart := 0

	if head := table.Find("thead tr").Last(); head.Length() > 0 {
		headers = cellTexts(head.Find("th, td"))
		bodyStart = table.Find("thead tr").Length()
	} else if first := rows.First(); first.Find("th").Length() > 0 {
		headers = cellTexts(first.Find("th, td"))
		bodyStart = 1
	}

	var records []*models.Record

	rows.Slice(bodyStart, rows.Length()).Each(func(_ int, row *goquery.Selection) {
		cells := cellTexts(row.Find("td, th"))
		if len(cells) == 0 {
			return
		}

		rec := models.NewRecord()
		names := columnNames(headers, len(cells))

		for i, value := range cells {
			rec.Set(names[i], value)
		}

		records = append(records, rec)
	})

	return records
}

// columnNames names n cells from headers. A repeated header gets a ".1",
// ".2", ... suffix so every cell keeps its own column.
func columnNames(headers []string, n int) []string {
	names := make([]string, n)
	seen := make(map[string]bool, n)
	repeats := make(map[string]int, n)

	for i := range n {
		base := headerAt(headers, i)
		name := base

		for seen[name] {
			repeats[base]++
			name = base + "." + strconv.Itoa(repeats[base])
		}

		seen[name] = true
		names[i] = name
	}

	return names
}

func headerAt(headers []string, i int) string {
	if i < len(headers) && headers[i] != "" {
		return headers[i]
	}

	return "Unnamed: " + strconv.Itoa(i)
}

func cellTexts(cells *goquery.Selection) []string {
	out := make([]string, 0, cells.Length())

	cells.Each(func(_ int, c *goquery.Selection) {
		out = append(out, strings.TrimSpace(c.Text()))
	})

	return out
}
