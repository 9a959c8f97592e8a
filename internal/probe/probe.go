// Package probe checks candidate source URLs for reachability and anti-bot
// measures before a scraper is written for them.
package probe

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"regscrape/internal/crawler"
	"regscrape/internal/logger"
	"regscrape/internal/models"
	"regscrape/pkg/utils"
)

// DefaultURLs are the candidate sources surveyed so far.
var DefaultURLs = []string{
	"https://www.sbp.org.pk/circulars/index.asp",
	"https://www.secp.gov.pk/media-center/press-releases/",
	"https://www.nab.gov.pk/press/press_release2.asp?curpage=2",
	"https://www.superseguros.gob.pa/sancion/companias-de-seguros/",
	"https://www.gob.pe/institucion/oefa/buscador?term=Sanction&institucion=oefa&topic_id=&contenido=noticias&sort_by=none",
	"https://www.gob.pe/689-relacion-de-proveedores-sancionados-para-contratar-con-elestado",
	"https://www.insurance.gov.ph/notice-to-the-public/",
	"http://www.amlc.gov.ph/advisories/amlc-advisory",
	"https://www.tcontas.pt/pt-pt/ProdutosTC/Decisoes/Pages/Decisoes-do-Tribunal-de-Contas.aspx",
	"https://www.politiaromana.ro/en/most-wanted",
	"http://www.onjn.gov.ro/home/lista-neagra",
	"https://integritate.eu/comunicate-de-presa/",
	"https://www.umucyo.gov.rw/um/ubl/moveUmUblBlacLstComListPubBlacklisted.do",
	"https://www.fsrc.kn/warnings",
	"https://fsaseychelles.sc/media-corner/regulatory-updates",
	"https://www.mom.gov.sg/employment-practices/employers-convicted-under-employment-act#/",
	"https://www.mas.gov.sg/investor-alert-list",
	"https://www.police.gov.sg/Media-Room/News/",
	"https://www.cccs.gov.sg/cases-and-commitments/public-register/abuse-of-dominance",
	"https://nbs.sk/en/financial-market-supervision-practical-info/warnings/warning-list-of-non-authorized-business-activities-of-entities/",
	"https://www.antimon.gov.sk/news/?csrt=12240206745515518130",
	"https://www.policija.si/eng/wanted-persons?view=tiraliceseznam",
	"https://www.bde.es/wbe/en/entidades-profesionales/supervisadas/sanciones-impuestas-banco-espana/",
	"https://www.poderjudicial.es/cgpj/es/Poder-Judicial/Audiencia-Nacional/Noticias-Judiciales/",
}

// Result is what one URL check found.
type Result struct {
	URL           string
	StatusCode    int
	ResponseTime  time.Duration
	ContentLength int
	ContentType   string
	Captcha       bool
	RobotsTxt     bool
	CSRFToken     bool
	Cloudflare    bool
	// Err is set when no response arrived at all.
	Err error
}

// Prober checks URLs through a fetcher.
type Prober struct {
	fetcher crawler.Fetcher
	workers int
	log     *logger.Logger
}

// New creates a prober that runs up to workers checks at once.
func New(fetcher crawler.Fetcher, workers int, log *logger.Logger) *Prober {
	if workers < 1 {
		workers = 1
	}

	return &Prober{fetcher: fetcher, workers: workers, log: log}
}

// Check fetches url once and inspects the response. Non-2xx responses are
// still inspected.
func (p *Prober) Check(ctx context.Context, url string) Result {
	res := Result{URL: url}

	start := time.Now()
	page, err := p.fetcher.Fetch(ctx, crawler.Request{URL: url, Method: http.MethodGet})
	res.ResponseTime = time.Since(start)

	if page == nil {
		res.Err = err
		p.log.Warn("probe failed", "url", url, "error", err)

		return res
	}

	inspect(&res, page)

	p.log.Info(fmt.Sprintf("🔎 %s → %d in %v", url, res.StatusCode, res.ResponseTime.Round(time.Millisecond)),
		"captcha", res.Captcha, "robots", res.RobotsTxt, "csrf", res.CSRFToken, "cloudflare", res.Cloudflare)

	return res
}

func inspect(res *Result, page *crawler.Page) {
	body := strings.ToLower(string(page.Body))

	res.StatusCode = page.StatusCode
	res.ContentLength = len(page.Body)
	res.ContentType = "Unknown"

	if ct := page.Header.Get("Content-Type"); ct != "" {
		res.ContentType = ct
	}

	res.Captcha = strings.Contains(body, "captcha")
	res.RobotsTxt = strings.Contains(strings.ToLower(page.URL), "robots.txt")
	res.CSRFToken = strings.Contains(body, "csrf")
	res.Cloudflare = page.Header.Get("Cf-Ray") != ""
}

// CheckAll checks every URL, keeping input order in the results.
func (p *Prober) CheckAll(ctx context.Context, urls []string) ([]Result, error) {
	results := make([]Result, len(urls))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)

	for i, url := range urls {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			results[i] = p.Check(gctx, url)

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, fmt.Errorf("probe interrupted: %w", err)
	}

	return results, nil
}

// Columns of the probe report.
var Columns = []string{
	models.ColumnID, models.ColumnURL, "status_code", "response_time", "content_length", "content_type",
	"captcha_detected", "robots_txt_detected", "csrf_token_detected", "cloudflare_detected", "error_message",
}

// Dataset turns results into an exportable table. Failed checks report
// "Error" as their status and leave the measurements missing.
func Dataset(results []Result) *models.Dataset {
	ds := &models.Dataset{Columns: Columns}

	for i, r := range results {
		row := []string{strconv.Itoa(i + 1), r.URL}

		if r.Err != nil {
			row = append(row, "Error")
			for range len(Columns) - 4 {
				row = append(row, models.Sentinel)
			}

			ds.Rows = append(ds.Rows, append(row, r.Err.Error()))

			continue
		}

		row = append(row,
			strconv.Itoa(r.StatusCode),
			strconv.FormatFloat(r.ResponseTime.Seconds(), 'f', 2, 64),
			strconv.Itoa(r.ContentLength),
			r.ContentType,
			yesNo(r.Captcha),
			yesNo(r.RobotsTxt),
			yesNo(r.CSRFToken),
			yesNo(r.Cloudflare),
			models.Sentinel,
		)

		ds.Rows = append(ds.Rows, row)
	}

	return ds
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}

	return "No"
}

// ErrInvalidURL is returned by ReadURLs for a line that is not an http(s) URL.
var ErrInvalidURL = errors.New("invalid url")

// ReadURLs reads one URL per line, skipping blanks and # comments.
func ReadURLs(r io.Reader) ([]string, error) {
	var (
		urls   []string
		lineNo int
	)

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		lineNo++

		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if !utils.IsValidURL(line) {
			return nil, fmt.Errorf("%w on line %d: %q", ErrInvalidURL, lineNo, line)
		}

		urls = append(urls, line)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read url list: %w", err)
	}

	return urls, nil
}
