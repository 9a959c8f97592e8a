package sources

import (
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"regscrape/internal/crawler"
	"regscrape/internal/crawler/htmlutil"
	"regscrape/internal/models"
	"regscrape/internal/normalizer"
)

const nabBase = "https://www.nab.gov.pk/press/"

// nab crawls the National Accountability Bureau press releases: a paginated
// listing whose NEXT button carries the next page in its onclick handler.
func nab() *Definition {
	return &Definition{
		Name:        "nab",
		OutputName:  "nab",
		Description: "NAB Pakistan press releases with penalty amounts",
		Requests:    []crawler.Request{get(nabBase + "press_release2.asp?curpage=1")},
		StartStep:   stepListing,
		StartKind:   crawler.KindListing,
		Headers: browserHeaders(map[string]string{
			"Upgrade-Insecure-Requests": "1",
		}),
		Cookies: map[string]string{
			"cookiesession1":       "678B2994F9BB3EC9EB8EE3B73BB89580",
			"ASPSESSIONIDCAQDASSQ": "MDLDHMBDJKKDPDCOHNIEFGOK",
		},
		Date: normalizer.DateFormats["nab"],
		Steps: func(Env) map[string]crawler.Step {
			return map[string]crawler.Step{
				stepListing: nabListing,
				stepDetail:  nabDetail,
			}
		},
		Schema: func(env Env) normalizer.Schema {
			return normalizer.Schema{
				Required: []string{"date", "title", "description"},
				Rules: []normalizer.Rule{
					{Column: "date", Clean: []normalizer.Cleaner{normalizer.CollapseWhitespace, normalizer.DateCleaner(env.Date)}},
					{Column: "title", Clean: []normalizer.Cleaner{normalizer.CollapseWhitespace, normalizer.TrimLabel("Title:")}},
					{Column: "description", Clean: collapse},
					{Column: "description", Derive: "penalty", Clean: []normalizer.Cleaner{normalizer.ExtractMonetaryMentions}},
				},
			}
		},
	}
}

func nabListing(_ context.Context, page *crawler.Page, _ crawler.Task) (crawler.Yield, error) {
	doc, err := page.Document()
	if err != nil {
		return crawler.Yield{}, err
	}

	var y crawler.Yield

	for _, href := range htmlutil.Attrs(doc.Find(`a[href*="new.asp"]`), "href") {
		y.Tasks = append(y.Tasks, crawler.Detail(normalizer.ResolveURL(href, nabBase), stepDetail))
	}

	if next := nabNextPage(doc); next != "" {
		y.Tasks = append(y.Tasks, crawler.Listing(nabBase+next, stepListing))
	}

	return y, nil
}

// nabNextPage reads "location.href='press_release2.asp?curpage=2'" style handlers.
func nabNextPage(doc *goquery.Document) string {
	onclick, ok := doc.Find(`input[value="NEXT"]`).First().Attr("onclick")
	if !ok {
		return ""
	}

	parts := strings.Split(onclick, "'")
	if len(parts) < 3 {
		return ""
	}

	return strings.TrimSpace(parts[len(parts)-2])
}

func nabDetail(_ context.Context, page *crawler.Page, _ crawler.Task) (crawler.Yield, error) {
	doc, err := page.Document()
	if err != nil {
		return crawler.Yield{}, err
	}

	rows := doc.Find(`table#table2 tr`)
	cell := func(i int) string {
		if i >= rows.Length() {
			return models.Sentinel
		}

		return htmlutil.TextNodes(rows.Eq(i), " ")
	}

	rec := models.NewRecord(
		"date", cell(0),
		"title", cell(1),
		"description", cell(2),
		"url", page.URL,
	)

	return crawler.Yield{Records: []*models.Record{rec}}, nil
}
