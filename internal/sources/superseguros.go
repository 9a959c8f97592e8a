package sources

import (
	"context"

	"regscrape/internal/crawler"
	"regscrape/internal/crawler/htmlutil"
	"regscrape/internal/normalizer"
)

// superseguros reads the sanctions tables of the Panama insurance
// superintendency. Older tables use different headers for the same data,
// which the rename rules fold together.
func superseguros() *Definition {
	return &Definition{
		Name:        "superseguros",
		OutputName:  "superseguros",
		Description: "Superintendencia de Seguros (Panama) sanctioned insurers",
		Requests: []crawler.Request{
			get("https://www.superseguros.gob.pa/sancion/companias-de-seguros/"),
		},
		StartStep: stepListing,
		StartKind: crawler.KindListing,
		Headers:   browserHeaders(nil),
		Translation: &Translation{
			From:    "es",
			To:      "en",
			Headers: true,
			Workers: 10,
		},
		Steps: func(Env) map[string]crawler.Step {
			return map[string]crawler.Step{stepListing: supersegurosListing}
		},
		Schema: func(Env) normalizer.Schema {
			return normalizer.Schema{
				Required: []string{"denominación", "resolución", "monto"},
				Rules: []normalizer.Rule{
					{Column: "artículo", Rename: "disposición_legal_infringida"},
					{Column: "titulo_de_la_falta", Rename: "descripción_de_la_falta"},
					{Column: "denominación", Clean: []normalizer.Cleaner{normalizer.StripPunctuation, normalizer.CollapseWhitespace}},
					{Column: "resolución", Clean: collapse},
					{Column: "monto", Clean: []normalizer.Cleaner{normalizer.RemoveSpaces, normalizer.CollapseWhitespace}},
					{Column: "disposición_legal_infringida", Clean: collapse},
					{Column: "descripción_de_la_falta", Clean: collapse},
				},
			}
		},
	}
}

func supersegurosListing(_ context.Context, page *crawler.Page, _ crawler.Task) (crawler.Yield, error) {
	doc, err := page.Document()
	if err != nil {
		return crawler.Yield{}, err
	}

	records := htmlutil.ReadTables(doc.Find(`table[id*="tablepress"]`))
	for _, rec := range records {
		rec.Set("url", page.URL)
	}

	return crawler.Yield{Records: records}, nil
}
