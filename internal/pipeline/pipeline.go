// Package pipeline runs one source end to end: crawl, assemble, export and
// the optional translated export.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"regscrape/internal/config"
	"regscrape/internal/crawler"
	"regscrape/internal/exporter"
	"regscrape/internal/formatter"
	"regscrape/internal/logger"
	"regscrape/internal/normalizer"
	"regscrape/internal/retry"
	"regscrape/internal/sources"
	"regscrape/internal/translator"
)

// FetcherFactory builds the fetcher for one bound source.
type FetcherFactory func(b *sources.Binding) crawler.Fetcher

// Report is the outcome of one source run.
type Report struct {
	Source         string
	Output         string
	TranslatedPath string
	Rows           int
	Columns        int
	Crawl          crawler.Stats
	Translation    *translator.Stats
	Duration       time.Duration
}

// Runner executes source runs against a configuration.
type Runner struct {
	cfg         *config.Config
	registry    *sources.Registry
	exporter    *exporter.Exporter
	log         *logger.Logger
	fetchers    FetcherFactory
	backend     translator.Translator
	retryOpts   []retry.Option
	noTranslate bool
}

// Option configures a Runner.
type Option func(*Runner)

// WithFetcherFactory replaces the HTTP fetcher.
func WithFetcherFactory(f FetcherFactory) Option {
	return func(r *Runner) {
		r.fetchers = f
	}
}

// WithTranslator replaces the translation backend.
func WithTranslator(t translator.Translator) Option {
	return func(r *Runner) {
		r.backend = t
	}
}

// WithExporter replaces the workbook exporter.
func WithExporter(e *exporter.Exporter) Option {
	return func(r *Runner) {
		r.exporter = e
	}
}

// WithRetryOptions tunes the translation retrier.
func WithRetryOptions(opts ...retry.Option) Option {
	return func(r *Runner) {
		r.retryOpts = append(r.retryOpts, opts...)
	}
}

// WithoutTranslation skips the translated export for every source.
func WithoutTranslation() Option {
	return func(r *Runner) {
		r.noTranslate = true
	}
}

// NewRunner creates a runner. Without options it fetches over HTTP and
// translates through the configured Google endpoint.
func NewRunner(cfg *config.Config, registry *sources.Registry, log *logger.Logger, opts ...Option) *Runner {
	r := &Runner{
		cfg:      cfg,
		registry: registry,
		log:      log,
	}

	for _, opt := range opts {
		opt(r)
	}

	if r.exporter == nil {
		r.exporter = exporter.New(cfg, log)
	}

	if r.backend == nil {
		r.backend = translator.NewGoogleClient(cfg.Scraper.Translation)
	}

	if r.fetchers == nil {
		r.fetchers = r.httpFetcher
	}

	return r
}

func (r *Runner) httpFetcher(b *sources.Binding) crawler.Fetcher {
	var opts []crawler.FetcherOption
	if b.CloudflareBypass {
		opts = append(opts, crawler.WithCloudflareBypass())
	}

	return crawler.NewHTTPFetcher(r.cfg.Scraper.Retry, r.log.With("source", b.Name), opts...)
}

// RunAll runs the named sources in order. A failing source does not stop
// the others; their errors are joined. Cancellation stops the loop.
func (r *Runner) RunAll(ctx context.Context, names []string) ([]*Report, error) {
	var (
		reports []*Report
		errs    []error
	)

	for _, name := range names {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)

			break
		}

		report, err := r.Run(ctx, name)
		if err != nil {
			r.log.Error(fmt.Sprintf("❌ %s failed", name), "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", name, err))

			continue
		}

		reports = append(reports, report)
	}

	return reports, errors.Join(errs...)
}

// Run crawls one source and writes its workbooks.
func (r *Runner) Run(ctx context.Context, name string) (*Report, error) {
	start := time.Now()

	def, err := r.registry.Get(name)
	if err != nil {
		return nil, err
	}

	srcCfg, _ := r.cfg.Source(name)
	log := r.log.With("source", name)

	tcfg := r.cfg.Scraper.Translation
	service := translator.NewService(r.backend, tcfg.Retry, tcfg.Workers, log, r.retryOpts...)

	b := def.Bind(srcCfg, sources.Env{Lookup: service, Log: log})

	log.Info(fmt.Sprintf("🚀 Crawling %s (%d start requests)", def.Description, len(b.Source.Seeds)))

	res, err := crawler.NewDriver(r.fetchers(b), log).Run(ctx, b.Source)
	if err != nil {
		return nil, fmt.Errorf("crawl interrupted: %w", err)
	}

	ds, err := normalizer.NewProcessor(b.Schema).Process(res.Records)
	if err != nil {
		return nil, err
	}

	log.Info(fmt.Sprintf("📋 Assembled %d rows x %d columns\n%s",
		ds.Len(), len(ds.Columns), formatter.Preview(ds, r.cfg.Scraper.Output.PreviewRows, formatter.DefaultCellWidth)))

	path, err := r.exporter.Export(ds, b.OutputName, false)
	if err != nil {
		return nil, fmt.Errorf("export failed: %w", err)
	}

	report := &Report{
		Source:  name,
		Output:  path,
		Rows:    ds.Len(),
		Columns: len(ds.Columns),
		Crawl:   res.Stats,
	}

	if b.Translation != nil && !r.noTranslate {
		tr := b.Translation

		translated, stats, err := service.TranslateDataset(ctx, ds, translator.Options{
			Source:  tr.From,
			Target:  tr.To,
			Columns: tr.Columns,
			Headers: tr.Headers,
			Workers: tr.Workers,
		})
		if err != nil {
			return nil, fmt.Errorf("translation interrupted: %w", err)
		}

		log.Info(fmt.Sprintf("🌐 %s", stats))

		translated = normalizer.NewTransformer(tr.Rules).Transform(translated)

		tpath, err := r.exporter.Export(translated, b.OutputName, true)
		if err != nil {
			return nil, fmt.Errorf("translated export failed: %w", err)
		}

		report.TranslatedPath = tpath
		report.Translation = &stats
	}

	report.Duration = time.Since(start)
	log.Info(fmt.Sprintf("✨ %s done in %v", name, report.Duration.Round(time.Millisecond)))

	return report, nil
}
