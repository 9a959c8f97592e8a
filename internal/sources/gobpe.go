package sources

import (
	"context"
	"fmt"
	"strings"

	"regscrape/internal/crawler"
	"regscrape/internal/crawler/htmlutil"
	"regscrape/internal/models"
	"regscrape/internal/normalizer"
)

const (
	gobpeOrigin = "https://www.gob.pe"
	gobpeSheets = 10
)

// gobpeSearch is the busquedas.json response shape.
type gobpeSearch struct {
	Data struct {
		Attributes struct {
			Results []struct {
				URL         string `json:"url"`
				Publication string `json:"publication"`
			} `json:"results"`
		} `json:"attributes"`
	} `json:"data"`
}

// gobpe crawls OEFA sanction news from the gob.pe search API. The
// publication date comes in Spanish and is machine translated before parsing.
func gobpe() *Definition {
	requests := make([]crawler.Request, 0, gobpeSheets)
	for sheet := 1; sheet <= gobpeSheets; sheet++ {
		requests = append(requests, get(fmt.Sprintf(
			"%s/busquedas.json?contenido=noticias&institucion=oefa&sheet=%d&sort_by=none&term=Sanction",
			gobpeOrigin, sheet,
		)))
	}

	return &Definition{
		Name:        "gobpe",
		OutputName:  "gob",
		Description: "OEFA (Peru) sanction news",
		Requests:    requests,
		StartStep:   stepListing,
		StartKind:   crawler.KindListing,
		Headers: browserHeaders(map[string]string{
			"Accept":  "*/*",
			"Referer": gobpeOrigin + "/institucion/oefa/buscador?contenido=noticias&institucion=oefa&sort_by=none&term=Sanction",
		}),
		Date: normalizer.DateFormats["gobpe"],
		Translation: &Translation{
			From:    "es",
			To:      "en",
			Headers: true,
			Workers: 10,
			Rules:   collapseAll("title", "description"),
		},
		Steps: func(env Env) map[string]crawler.Step {
			return map[string]crawler.Step{
				stepListing: gobpeListing,
				stepDetail:  gobpeDetail(env),
			}
		},
		Schema: func(env Env) normalizer.Schema {
			return normalizer.Schema{
				Required: []string{"date", "title", "description"},
				Rules: []normalizer.Rule{
					{Column: "date", Clean: []normalizer.Cleaner{normalizer.DateCleaner(env.Date), normalizer.CollapseWhitespace}},
					{Column: "title", Clean: collapse},
					{Column: "description", Clean: collapse},
				},
			}
		},
	}
}

func gobpeListing(_ context.Context, page *crawler.Page, _ crawler.Task) (crawler.Yield, error) {
	var search gobpeSearch
	if err := page.DecodeJSON(&search); err != nil {
		return crawler.Yield{}, err
	}

	var y crawler.Yield

	for _, result := range search.Data.Attributes.Results {
		href := gobpeHref(result.URL)
		if href == "" {
			continue
		}

		y.Tasks = append(y.Tasks, crawler.Detail(gobpeOrigin+href, stepDetail, "publication", result.Publication))
	}

	return y, nil
}

// gobpeHref pulls the path out of the anchor markup the API returns in "url".
func gobpeHref(markup string) string {
	parts := strings.Split(markup, `href="`)
	href, _, _ := strings.Cut(parts[len(parts)-1], `">`)

	return strings.TrimSpace(href)
}

func gobpeDetail(env Env) crawler.Step {
	return func(ctx context.Context, page *crawler.Page, task crawler.Task) (crawler.Yield, error) {
		doc, err := page.Document()
		if err != nil {
			return crawler.Yield{}, err
		}

		rec := models.NewRecord(
			"url", page.URL,
			"date", gobpeDate(ctx, env, task.Value("publication")),
			"title", htmlutil.TextNodes(doc.Find(`h1[class="text-3xl md:text-4xl leading-9 font-extrabold"]`).First(), " "),
			"description", htmlutil.TextNodes(doc.Find(`section[class="body"]`), " "),
		)

		return crawler.Yield{Records: []*models.Record{rec}}, nil
	}
}

// gobpeDate translates the Spanish publication date to English so the
// English layouts can parse it.
func gobpeDate(ctx context.Context, env Env, publication string) string {
	if env.Lookup == nil || publication == models.Sentinel || strings.TrimSpace(publication) == "" {
		return models.Sentinel
	}

	translated, err := env.Lookup.Lookup(ctx, publication, "auto", "en")
	if err != nil {
		env.Log.Warn("date translation failed", "publication", publication, "error", err)

		return models.Sentinel
	}

	return translated
}
