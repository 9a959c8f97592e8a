package htmlutil

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"regscrape/internal/models"
)

func doc(t *testing.T, body string) *goquery.Document {
	t.Helper()

	d, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	require.NoError(t, err)

	return d
}

func TestTextAndAttr(t *testing.T) {
	d := doc(t, `<div><a href="/x">Link</a></div>`)

	assert.Equal(t, "Link", Text(d.Find("a")))
	assert.Equal(t, models.Sentinel, Text(d.Find("span")))
	assert.Equal(t, "/x", Attr(d.Find("a"), "href"))
	assert.Equal(t, models.Sentinel, Attr(d.Find("a"), "title"))
}

func TestAttrs(t *testing.T) {
	d := doc(t, `<div><a href="/a">a</a><a>no href</a><a href="/b">b</a></div>`)

	assert.Equal(t, []string{"/a", "/b"}, Attrs(d.Find("a"), "href"))
	assert.Empty(t, Attrs(d.Find("span"), "href"))
}

func TestTextNodes(t *testing.T) {
	d := doc(t, `<table><tr><td>First <b>bold</b>
		<span> </span>last</td></tr></table>`)

	assert.Equal(t, "First |bold|last", TextNodes(d.Find("td"), "|"))
	assert.Equal(t, models.Sentinel, TextNodes(d.Find("span"), " "))
}

func TestReadTables_HeaderRow(t *testing.T) {
	d := doc(t, `
<table class="article_table mb10">
  <tr><th>No.</th><th>Company</th><th></th></tr>
  <tr><td>1</td><td>ACME Ltd</td><td>x</td></tr>
  <tr><td>2</td><td>Globex</td><td>y</td></tr>
</table>`)

	recs := ReadTables(d.Find("table"))
	require.Len(t, recs, 2)

	assert.Equal(t, "ACME Ltd", recs[0].Value("Company"))
	assert.Equal(t, "2", recs[1].Value("No."))
	assert.Equal(t, "y", recs[1].Value("Unnamed: 2"))
}

func TestReadTables_TheadAndMultipleTables(t *testing.T) {
	d := doc(t, `
<table id="tablepress-1">
  <thead><tr><th>Resolución</th><th>Monto</th></tr></thead>
  <tbody><tr><td>R-1</td><td>B/. 1,000</td></tr></tbody>
</table>
<table id="tablepress-2">
  <thead><tr><th>Resolución</th><th>Artículo</th></tr></thead>
  <tbody><tr><td>R-2</td><td>Art. 5</td></tr></tbody>
</table>`)

	recs := ReadTables(d.Find("table[id*=tablepress]"))
	require.Len(t, recs, 2)

	assert.Equal(t, "B/. 1,000", recs[0].Value("Monto"))
	assert.Equal(t, "Art. 5", recs[1].Value("Artículo"))
	assert.Equal(t, models.Sentinel, recs[1].Value("Monto"))
}

func TestReadTables_NoHeader(t *testing.T) {
	d := doc(t, `<table><tr><td>a</td><td>b</td></tr></table>`)

	recs := ReadTables(d.Find("table"))
	require.Len(t, recs, 1)
	assert.Equal(t, "a", recs[0].Value("Unnamed: 0"))
}

func TestReadTables_RepeatedHeadersKeepEveryCell(t *testing.T) {
	d := doc(t, `
<table>
  <tr><th>Name</th><th>Amount</th><th>Amount</th><th>Name.1</th><th>Amount</th></tr>
  <tr><td>Acme</td><td>100</td><td>200</td><td>Acme Ltd</td><td>300</td></tr>
</table>`)

	recs := ReadTables(d.Find("table"))
	require.Len(t, recs, 1)

	names := make([]string, 0, recs[0].Len())
	for _, f := range recs[0].Fields() {
		names = append(names, f.Name)
	}

	assert.Equal(t, []string{"Name", "Amount", "Amount.1", "Name.1", "Amount.2"}, names)
	assert.Equal(t, "100", recs[0].Value("Amount"))
	assert.Equal(t, "200", recs[0].Value("Amount.1"))
	assert.Equal(t, "300", recs[0].Value("Amount.2"))
	assert.Equal(t, "Acme Ltd", recs[0].Value("Name.1"))
}
