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

const (
	tcontasOrigin = "https://www.tcontas.pt"

	stepYearly    = "yearly"
	stepDecisions = "decisions"
)

// tcontas crawls the Portuguese Court of Auditors decisions. The index lists
// yearly pages; a yearly page mixes PDF items, which are records, with
// links to further decision lists.
func tcontas() *Definition {
	return &Definition{
		Name:        "tcontas",
		OutputName:  "tcontas",
		Description: "Tribunal de Contas (Portugal) decisions",
		Requests: []crawler.Request{
			get(tcontasOrigin + "/pt-pt/ProdutosTC/Decisoes/Pages/Decisoes-do-Tribunal-de-Contas.aspx"),
		},
		StartStep: stepListing,
		StartKind: crawler.KindListing,
		Headers:   browserHeaders(nil),
		Date:      normalizer.DateFormats["tcontas"],
		Translation: &Translation{
			From:    "pt",
			To:      "en",
			Columns: []string{"title", "information", "description"},
			Workers: 10,
			Rules:   collapseAll("date", "title", "pdf_url", "information", "description"),
		},
		Steps: func(Env) map[string]crawler.Step {
			return map[string]crawler.Step{
				stepListing:   tcontasIndex,
				stepYearly:    tcontasYearly,
				stepDecisions: tcontasDecisions,
			}
		},
		Schema: func(env Env) normalizer.Schema {
			rules := []normalizer.Rule{
				{Column: "date", Clean: []normalizer.Cleaner{normalizer.CollapseWhitespace, normalizer.DateCleaner(env.Date)}},
			}

			return normalizer.Schema{
				Required: []string{"title", "pdf_url", "date", "information", "description"},
				Rules:    append(rules, collapseAll("title", "pdf_url", "information", "description")...),
			}
		},
	}
}

func tcontasIndex(_ context.Context, page *crawler.Page, _ crawler.Task) (crawler.Yield, error) {
	doc, err := page.Document()
	if err != nil {
		return crawler.Yield{}, err
	}

	var y crawler.Yield

	for _, href := range htmlutil.Attrs(doc.Find(`div.tc-item a`), "href") {
		y.Tasks = append(y.Tasks, crawler.Listing(normalizer.ResolveURL(href, tcontasOrigin), stepYearly))
	}

	return y, nil
}

func tcontasYearly(_ context.Context, page *crawler.Page, _ crawler.Task) (crawler.Yield, error) {
	doc, err := page.Document()
	if err != nil {
		return crawler.Yield{}, err
	}

	var y crawler.Yield

	doc.Find(`div.tc-item`).Each(func(_ int, item *goquery.Selection) {
		link := normalizer.ResolveURL(htmlutil.Attr(item.Find("a").First(), "href"), tcontasOrigin)

		if strings.Contains(link, ".pdf") {
			y.Records = append(y.Records, tcontasItem(page.URL, item))

			return
		}

		if link != models.Sentinel {
			y.Tasks = append(y.Tasks, crawler.Listing(link, stepDecisions))
		}
	})

	return y, nil
}

func tcontasDecisions(_ context.Context, page *crawler.Page, _ crawler.Task) (crawler.Yield, error) {
	doc, err := page.Document()
	if err != nil {
		return crawler.Yield{}, err
	}

	var y crawler.Yield

	doc.Find(`div.tc-item`).Each(func(_ int, item *goquery.Selection) {
		y.Records = append(y.Records, tcontasItem(page.URL, item))
	})

	return y, nil
}

func tcontasItem(pageURL string, item *goquery.Selection) *models.Record {
	anchor := item.Find("header a")
	info := item.Find("footer span.tc-item-info")

	return models.NewRecord(
		"url", pageURL,
		"title", htmlutil.TextNodes(anchor, " "),
		"pdf_url", normalizer.ResolveURL(htmlutil.Attr(anchor.First(), "href"), tcontasOrigin),
		"date", htmlutil.TextNodes(info.ChildrenFiltered("span.tc-date"), ""),
		"information", htmlutil.TextNodes(info.ChildrenFiltered("span.tc-info"), " "),
		"description", htmlutil.TextNodes(item.Find("p"), " "),
	)
}
