package sources

import (
	"context"
	"strings"

	"regscrape/internal/crawler"
	"regscrape/internal/crawler/htmlutil"
	"regscrape/internal/models"
	"regscrape/internal/normalizer"
)

const fsrcOrigin = "https://www.fsrc.kn"

// fsrc crawls the St Kitts and Nevis FSRC public warnings. The listing is a
// form POST that asks for every warning on one page.
func fsrc() *Definition {
	return &Definition{
		Name:        "fsrc",
		OutputName:  "fsrc",
		Description: "FSRC St Kitts and Nevis public warnings",
		Requests: []crawler.Request{
			formPost(fsrcOrigin+"/warnings", "limit=0&filter_order=&filter_order_Dir=&limitstart=&task="),
		},
		StartStep: stepListing,
		StartKind: crawler.KindListing,
		Headers: browserHeaders(map[string]string{
			"Origin":  fsrcOrigin,
			"Referer": fsrcOrigin + "/warnings",
		}),
		Cookies: map[string]string{
			"9e7ac264f51aaccdec61120f27e0e8d5": "73e32280598b5960d9cddfee9d4fd8cb",
		},
		Date: normalizer.DateFormats["fsrc"],
		Steps: func(Env) map[string]crawler.Step {
			return map[string]crawler.Step{
				stepListing: fsrcListing,
				stepDetail:  fsrcDetail,
			}
		},
		Schema: func(env Env) normalizer.Schema {
			return normalizer.Schema{
				Required: []string{"name", "date", "description"},
				Rules: []normalizer.Rule{
					{Column: "date", Clean: []normalizer.Cleaner{normalizer.CollapseWhitespace, normalizer.DateCleaner(env.Date)}},
					{Column: "name", Clean: []normalizer.Cleaner{normalizer.StripPunctuation, normalizer.CollapseWhitespace}},
					{Column: "additional_urls", Clean: []normalizer.Cleaner{normalizer.CollapseWhitespace, normalizer.URLListCleaner(fsrcOrigin)}},
					{Column: "description", Clean: collapse},
				},
			}
		},
	}
}

func fsrcListing(_ context.Context, page *crawler.Page, _ crawler.Task) (crawler.Yield, error) {
	doc, err := page.Document()
	if err != nil {
		return crawler.Yield{}, err
	}

	var y crawler.Yield

	for _, href := range htmlutil.Attrs(doc.Find(`td[headers="categorylist_header_title"] > a`), "href") {
		y.Tasks = append(y.Tasks, crawler.Detail(normalizer.ResolveURL(href, fsrcOrigin), stepDetail))
	}

	return y, nil
}

func fsrcDetail(_ context.Context, page *crawler.Page, _ crawler.Task) (crawler.Yield, error) {
	doc, err := page.Document()
	if err != nil {
		return crawler.Yield{}, err
	}

	body := doc.Find(`div[itemprop="articleBody"]`)

	links := models.Sentinel
	if hrefs := htmlutil.Attrs(body.ChildrenFiltered("a"), "href"); len(hrefs) > 0 {
		links = strings.Join(hrefs, "|")
	}

	rec := models.NewRecord(
		"name", htmlutil.Text(doc.Find(`h2[itemprop="headline"]`).First()),
		"date", htmlutil.Text(doc.Find(`time[itemprop="datePublished"]`).First()),
		"description", htmlutil.TextNodes(body, " "),
		"additional_urls", links,
		"url", page.URL,
	)

	return crawler.Yield{Records: []*models.Record{rec}}, nil
}
