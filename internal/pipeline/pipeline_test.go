package pipeline

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"regscrape/internal/config"
	"regscrape/internal/crawler"
	"regscrape/internal/crawler/htmlutil"
	"regscrape/internal/exporter"
	"regscrape/internal/logger"
	"regscrape/internal/models"
	"regscrape/internal/normalizer"
	"regscrape/internal/sources"
)

// bulletinServer serves two listing pages of three notices each. The second
// page has no next link unless cyclic is set, in which case it links back to
// the first.
func bulletinServer(t *testing.T, cyclic bool) (*httptest.Server, *atomic.Int64) {
	t.Helper()

	var hits atomic.Int64

	mux := http.NewServeMux()
	mux.HandleFunc("/list", func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)

		page := r.URL.Query().Get("page")
		first, next := 1, "2"

		if page == "2" {
			first, next = 4, "1"
		}

		var b strings.Builder

		b.WriteString("<html><body><ul>")

		for i := first; i < first+3; i++ {
			fmt.Fprintf(&b, `<li><a class="notice" href="/notice/%d">Notice %d</a></li>`, i, i)
		}

		b.WriteString("</ul>")

		if page != "2" || cyclic {
			fmt.Fprintf(&b, `<a class="next" href="/list?page=%s">next</a>`, next)
		}

		b.WriteString("</body></html>")

		_, _ = w.Write([]byte(b.String()))
	})
	mux.HandleFunc("/notice/", func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)

		n := strings.TrimPrefix(r.URL.Path, "/notice/")
		fmt.Fprintf(w, `<html><body><h1>Aviso  %s</h1><p class="date">0%s/03/2024</p></body></html>`, n, n)
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	return server, &hits
}

func bulletin(origin string, required ...string) *sources.Definition {
	listing := func(_ context.Context, page *crawler.Page, _ crawler.Task) (crawler.Yield, error) {
		doc, err := page.Document()
		if err != nil {
			return crawler.Yield{}, err
		}

		var y crawler.Yield

		doc.Find("a.notice").Each(func(_ int, s *goquery.Selection) {
			y.Tasks = append(y.Tasks, crawler.Detail(normalizer.ResolveURL(htmlutil.Attr(s, "href"), page.URL), "detail"))
		})

		if next := htmlutil.Attr(doc.Find("a.next"), "href"); next != models.Sentinel {
			y.Tasks = append(y.Tasks, crawler.Listing(normalizer.ResolveURL(next, page.URL), "listing"))
		}

		return y, nil
	}

	detail := func(_ context.Context, page *crawler.Page, _ crawler.Task) (crawler.Yield, error) {
		doc, err := page.Document()
		if err != nil {
			return crawler.Yield{}, err
		}

		return crawler.Yield{Records: []*models.Record{models.NewRecord(
			"url", page.URL,
			"title", htmlutil.Text(doc.Find("h1")),
			"date", htmlutil.Text(doc.Find("p.date")),
		)}}, nil
	}

	return &sources.Definition{
		Name:        "bulletin",
		OutputName:  "bulletin",
		Description: "test bulletin",
		Requests:    []crawler.Request{{URL: origin + "/list?page=1", Method: http.MethodGet}},
		StartStep:   "listing",
		StartKind:   crawler.KindListing,
		Date:        normalizer.DateFormats["umucyo"],
		Translation: &sources.Translation{From: "es", To: "en", Columns: []string{"title"}, Workers: 2},
		Steps: func(sources.Env) map[string]crawler.Step {
			return map[string]crawler.Step{"listing": listing, "detail": detail}
		},
		Schema: func(env sources.Env) normalizer.Schema {
			return normalizer.Schema{
				Required: append([]string{"title", "date"}, required...),
				Rules: []normalizer.Rule{
					{Column: "title", Clean: []normalizer.Cleaner{normalizer.CollapseWhitespace}},
					{Column: "date", Clean: []normalizer.Cleaner{normalizer.DateCleaner(env.Date)}},
				},
			}
		},
	}
}

// upper is a translation backend that upper-cases text.
type upper struct {
	calls atomic.Int64
}

func (u *upper) Translate(_ context.Context, text, _, _ string) (string, error) {
	u.calls.Add(1)

	return strings.ToUpper(text), nil
}

func newRunner(t *testing.T, def *sources.Definition, backend *upper, opts ...Option) (*Runner, string) {
	t.Helper()

	dir := t.TempDir()

	cfg := config.Default()
	cfg.Scraper.Output.Dir = dir
	cfg.Scraper.Retry.MaxAttempts = 1
	cfg.Scraper.Retry.TimeoutSec = 5

	registry := sources.NewRegistry()
	registry.Register(def)

	at := time.Date(2024, 3, 5, 9, 0, 0, 0, time.UTC)
	e := exporter.New(cfg, logger.Discard()).WithClock(func() time.Time { return at })

	opts = append([]Option{WithExporter(e), WithTranslator(backend)}, opts...)

	return NewRunner(cfg, registry, logger.Discard(), opts...), dir
}

func TestRun_EndToEnd(t *testing.T) {
	server, hits := bulletinServer(t, false)
	backend := &upper{}

	runner, dir := newRunner(t, bulletin(server.URL), backend, WithoutTranslation())

	report, err := runner.Run(context.Background(), "bulletin")
	require.NoError(t, err)

	assert.Equal(t, 6, report.Rows)
	assert.Equal(t, 2, report.Crawl.Listings)
	assert.Equal(t, 6, report.Crawl.Details)
	assert.Zero(t, report.Crawl.Duplicates)
	assert.EqualValues(t, 8, hits.Load(), "pagination stops at the page without a next link")
	assert.Nil(t, report.Translation)
	assert.Zero(t, backend.calls.Load())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "exactly one workbook")
	assert.Equal(t, "bulletin_20240305.xlsx", entries[0].Name())

	ds, err := exporter.Read(report.Output)
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "url", "title", "date"}, ds.Columns)
	assert.Equal(t, []string{"1", "2", "3", "4", "5", "6"}, ds.Column("id"))
	assert.Equal(t, []string{"1", server.URL + "/notice/1", "Aviso 1", "2024-03-01"}, ds.Rows[0])
	assert.Equal(t, server.URL+"/notice/6", ds.Rows[5][1])

	require.NoError(t, exporter.Verify(report.Output))
}

func TestRun_PaginationCycleIsDeduplicated(t *testing.T) {
	server, hits := bulletinServer(t, true)

	runner, dir := newRunner(t, bulletin(server.URL), &upper{}, WithoutTranslation())

	report, err := runner.Run(context.Background(), "bulletin")
	require.NoError(t, err)

	assert.Equal(t, 6, report.Rows)
	assert.Equal(t, 2, report.Crawl.Listings)
	assert.Equal(t, 1, report.Crawl.Duplicates)
	assert.EqualValues(t, 8, hits.Load(), "the cycle back to page one is not fetched")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	ds, err := exporter.Read(report.Output)
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2", "3", "4", "5", "6"}, ds.Column("id"))
}

func TestRun_TranslatedExport(t *testing.T) {
	server, _ := bulletinServer(t, false)
	backend := &upper{}

	runner, dir := newRunner(t, bulletin(server.URL), backend)

	report, err := runner.Run(context.Background(), "bulletin")
	require.NoError(t, err)

	require.NotNil(t, report.Translation)
	assert.Equal(t, 6, report.Translation.Translated)
	assert.EqualValues(t, 6, backend.calls.Load(), "only the title column is translated")
	assert.Equal(t, filepath.Join(dir, "translated_bulletin_20240305.xlsx"), report.TranslatedPath)

	original, err := exporter.Read(report.Output)
	require.NoError(t, err)
	assert.Equal(t, "Aviso 1", original.Rows[0][2])

	translated, err := exporter.Read(report.TranslatedPath)
	require.NoError(t, err)
	assert.Equal(t, "AVISO 1", translated.Rows[0][2])
	assert.Equal(t, "2024-03-01", translated.Rows[0][3])
}

func TestRun_MissingColumn(t *testing.T) {
	server, _ := bulletinServer(t, false)

	runner, dir := newRunner(t, bulletin(server.URL, "penalty"), &upper{}, WithoutTranslation())

	_, err := runner.Run(context.Background(), "bulletin")
	require.Error(t, err)
	assert.True(t, errors.Is(err, normalizer.ErrMissingColumn), "got %v", err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "nothing is exported for a failed assembly")
}

func TestRunAll_ContinuesPastFailures(t *testing.T) {
	server, _ := bulletinServer(t, false)

	runner, _ := newRunner(t, bulletin(server.URL), &upper{}, WithoutTranslation())

	reports, err := runner.RunAll(context.Background(), []string{"nope", "bulletin"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, sources.ErrUnknownSource))
	require.Len(t, reports, 1)
	assert.Equal(t, "bulletin", reports[0].Source)
}

func TestRun_Cancelled(t *testing.T) {
	server, _ := bulletinServer(t, false)

	runner, _ := newRunner(t, bulletin(server.URL), &upper{}, WithoutTranslation())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := runner.Run(ctx, "bulletin")
	assert.ErrorIs(t, err, context.Canceled)
}
