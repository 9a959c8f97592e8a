package sources

import (
	"context"

	"regscrape/internal/crawler"
	"regscrape/internal/crawler/htmlutil"
	"regscrape/internal/normalizer"
)

const (
	umucyoOrigin = "https://www.umucyo.gov.rw"
	umucyoURL    = umucyoOrigin + "/um/ubl/moveUmUblBlacLstComListPubBlacklisted.do"
	umucyoBody   = "menuId=&isBack=&currentPageNo=1&langCode=en&searchConditions=&chifNid=&seqno=&tin=" +
		"&reportFilePath=https%3A%2F%2Fwww.umucyo.gov.rw%2Freport%2FUMUBLBlaclstLstRpt.crf" +
		"&reportViewUrl=https%3A%2F%2Fwww.umucyo.gov.rw%2Frt%2FCmReportView.jsp" +
		"&reportSystem=um&reportFileName=Black-list_List&searchSuplrNm=" +
		"&fromSanctDt=&fromSanctDtBtw=&endSanctDt=&endSanctDtBtw=&recordCountPerPage=1000"
)

// umucyo reads the Rwanda e-procurement supplier blacklist, one table row
// per record.
func umucyo() *Definition {
	return &Definition{
		Name:        "umucyo",
		OutputName:  "umucyo",
		Description: "Rwanda public procurement blacklisted suppliers",
		Requests:    []crawler.Request{formPost(umucyoURL, umucyoBody)},
		StartStep:   stepListing,
		StartKind:   crawler.KindListing,
		Headers: browserHeaders(map[string]string{
			"Origin":  umucyoOrigin,
			"Referer": umucyoURL,
		}),
		Date: normalizer.DateFormats["umucyo"],
		Steps: func(Env) map[string]crawler.Step {
			return map[string]crawler.Step{stepListing: umucyoListing}
		},
		Schema: func(env Env) normalizer.Schema {
			return normalizer.Schema{
				Required: []string{"company", "owner", "reason", "start_date", "end_date"},
				Rules: []normalizer.Rule{
					{Column: "no.", Drop: true},
					{Column: "company", Clean: []normalizer.Cleaner{normalizer.StripPunctuation, normalizer.CollapseWhitespace}},
					{Column: "owner", Clean: []normalizer.Cleaner{normalizer.CollapseWhitespace, normalizer.Transliterate}},
					{Column: "reason", Clean: collapse},
					{Column: "start_date", Clean: []normalizer.Cleaner{normalizer.CollapseWhitespace, normalizer.DateCleaner(env.Date)}},
					{Column: "end_date", Clean: []normalizer.Cleaner{normalizer.CollapseWhitespace, normalizer.DateCleaner(env.Date)}},
				},
			}
		},
	}
}

func umucyoListing(_ context.Context, page *crawler.Page, _ crawler.Task) (crawler.Yield, error) {
	doc, err := page.Document()
	if err != nil {
		return crawler.Yield{}, err
	}

	records := htmlutil.ReadTables(doc.Find(`table[class="article_table mb10"]`).First())
	for _, rec := range records {
		rec.Set("url", umucyoURL)
	}

	return crawler.Yield{Records: records}, nil
}
