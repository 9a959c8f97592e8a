package sources

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	"regscrape/internal/crawler"
	"regscrape/internal/models"
	"regscrape/internal/normalizer"
)

const momgovURL = "https://www.mom.gov.sg/api/v2/Rows?app_name=employers-convicted-employment-act" +
	"&per_page=1000&page=1&order=&orderby=&q=&contentType=application%2Fjson%3B%20charset%3Dutf-8" +
	"&dataType=json&crossDomain=true"

// momgovRows is the Rows API envelope.
type momgovRows struct {
	Response struct {
		Rows []map[string]any `json:"rows"`
	} `json:"response"`
}

// momgov reads the Singapore Ministry of Manpower list of employers
// convicted under the Employment Act. Every row object is flattened into
// one record.
func momgov() *Definition {
	return &Definition{
		Name:        "momgov",
		OutputName:  "momgov",
		Description: "MOM Singapore employers convicted under the Employment Act",
		Requests:    []crawler.Request{get(momgovURL)},
		StartStep:   stepListing,
		StartKind:   crawler.KindListing,
		Headers: browserHeaders(map[string]string{
			"Accept":           "*/*",
			"Referer":          "https://www.mom.gov.sg/employment-practices/employers-convicted-under-employment-act",
			"X-Requested-With": "XMLHttpRequest",
		}),
		Cookies: map[string]string{
			"shell#lang":           "en",
			"mom-onboarding-shown": "yes",
		},
		Steps: func(Env) map[string]crawler.Step {
			return map[string]crawler.Step{stepListing: momgovListing}
		},
		Schema: func(Env) normalizer.Schema {
			return normalizer.Schema{}
		},
	}
}

func momgovListing(_ context.Context, page *crawler.Page, _ crawler.Task) (crawler.Yield, error) {
	dec := json.NewDecoder(bytes.NewReader(page.Body))
	dec.UseNumber()

	var rows momgovRows
	if err := dec.Decode(&rows); err != nil {
		return crawler.Yield{}, fmt.Errorf("failed to decode JSON from %s: %w", page.URL, err)
	}

	records := make([]*models.Record, 0, len(rows.Response.Rows))

	for _, row := range rows.Response.Rows {
		rec := &models.Record{}
		flatten(rec, "", row)
		rec.Set("url", page.URL)
		records = append(records, rec)
	}

	return crawler.Yield{Records: records}, nil
}

// flatten writes nested objects as prefix_key fields in sorted key order.
// Arrays are kept as their JSON text.
func flatten(rec *models.Record, prefix string, obj map[string]any) {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	for _, k := range keys {
		name := k
		if prefix != "" {
			name = prefix + "_" + k
		}

		switch v := obj[k].(type) {
		case map[string]any:
			flatten(rec, name, v)
		case nil:
			rec.Set(name, models.Sentinel)
		case string:
			rec.Set(name, v)
		case json.Number:
			rec.Set(name, v.String())
		case bool:
			rec.Set(name, strconv.FormatBool(v))
		default:
			raw, err := json.Marshal(v)
			if err != nil {
				rec.Set(name, models.Sentinel)

				continue
			}

			rec.Set(name, string(raw))
		}
	}
}
