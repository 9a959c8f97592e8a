// Package translator machine-translates dataset cells with a bounded worker
// pool, retrying each cell under randomized exponential backoff.
package translator

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"regscrape/internal/config"
	"regscrape/internal/logger"
	"regscrape/internal/models"
	"regscrape/internal/normalizer"
	"regscrape/internal/retry"
)

// Translator translates a single text.
type Translator interface {
	Translate(ctx context.Context, text, source, target string) (string, error)
}

// Options selects what a dataset translation touches.
type Options struct {
	Source string
	Target string
	// Columns limits cell translation to these columns; empty means every
	// column.
	Columns []string
	// Headers also translates the column names.
	Headers bool
	// Workers bounds concurrent translations; zero uses the service default.
	Workers int
}

// Stats summarizes a dataset translation.
type Stats struct {
	Jobs       int
	Translated int
	Failed     int
	Skipped    int
	Attempts   int
	Duration   time.Duration
}

func (s Stats) String() string {
	return fmt.Sprintf("Jobs: %d, %d translated, %d kept original, %d skipped | %d attempts in %.2fs",
		s.Jobs, s.Translated, s.Failed, s.Skipped, s.Attempts, s.Duration.Seconds())
}

// job is one cell to translate; row -1 addresses a header.
type job struct {
	text string
	row  int
	col  int
}

// Service translates datasets and single values through a backend.
type Service struct {
	backend Translator
	retrier *retry.Retrier
	workers int
	log     *logger.Logger
}

// NewService creates a translation service.
func NewService(backend Translator, policy config.RetryPolicy, workers int, log *logger.Logger, opts ...retry.Option) *Service {
	if workers < 1 {
		workers = 1
	}

	opts = append([]retry.Option{retry.WithNotify(func(err error, attempt int, wait time.Duration) {
		log.Debug("translation attempt failed", "attempt", attempt, "wait", wait, "error", err)
	})}, opts...)

	return &Service{
		backend: backend,
		retrier: retry.New(policy, opts...),
		workers: workers,
		log:     log,
	}
}

// Lookup translates one value with retries.
func (s *Service) Lookup(ctx context.Context, text, source, target string) (string, error) {
	var out string

	res := s.retrier.Do(ctx, func(ctx context.Context) error {
		translated, err := s.backend.Translate(ctx, text, source, target)
		if err != nil {
			return err
		}

		out = translated

		return nil
	})
	if res.Exhausted() {
		return "", fmt.Errorf("translation failed after %d attempts: %w", res.Attempts, res.Err)
	}

	return out, nil
}

// TranslateDataset returns a translated copy of ds. The input is never
// modified. Sentinel and blank cells pass through, the id and url columns are
// never touched, and a cell whose retries are exhausted keeps its original
// text. Only context cancellation makes it fail.
func (s *Service) TranslateDataset(ctx context.Context, ds *models.Dataset, opts Options) (*models.Dataset, Stats, error) {
	start := time.Now()
	out := ds.Clone()

	jobs, skipped := planJobs(out, opts)

	workers := opts.Workers
	if workers < 1 {
		workers = s.workers
	}

	s.log.Info(fmt.Sprintf("🌐 Translating %d cells (%s→%s) with %d workers", len(jobs), opts.Source, opts.Target, workers))

	var translated, failed, attempts atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for _, j := range jobs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			var value string

			res := s.retrier.Do(gctx, func(ctx context.Context) error {
				v, err := s.backend.Translate(ctx, j.text, opts.Source, opts.Target)
				if err != nil {
					return err
				}

				value = v

				return nil
			})

			attempts.Add(int64(res.Attempts))

			if res.Exhausted() {
				if err := gctx.Err(); err != nil {
					return err
				}

				failed.Add(1)
				s.log.Warn("keeping original text", "row", j.row, "column", j.col, "attempts", res.Attempts, "error", res.Err)

				return nil
			}

			translated.Add(1)

			// each job owns exactly one cell
			if j.row < 0 {
				out.Columns[j.col] = normalizer.NormalizeColumnName(value)
			} else {
				out.Rows[j.row][j.col] = value
			}

			return nil
		})
	}

	err := g.Wait()

	stats := Stats{
		Jobs:       len(jobs),
		Translated: int(translated.Load()),
		Failed:     int(failed.Load()),
		Skipped:    skipped,
		Attempts:   int(attempts.Load()),
		Duration:   time.Since(start),
	}

	if err != nil {
		return nil, stats, fmt.Errorf("translation interrupted: %w", err)
	}

	if opts.Headers {
		dedupeColumns(out)
	}

	s.log.Info(fmt.Sprintf("✅ Translation done: %s", stats))

	return out, stats, nil
}

// planJobs lists the cells to translate and counts the ones passed through.
func planJobs(ds *models.Dataset, opts Options) ([]job, int) {
	cols := targetColumns(ds, opts.Columns)

	var (
		jobs    []job
		skipped int
	)

	if opts.Headers {
		for col, name := range ds.Columns {
			if isLeading(name) {
				continue
			}

			jobs = append(jobs, job{text: name, row: -1, col: col})
		}
	}

	for row, cells := range ds.Rows {
		for _, col := range cols {
			if !translatable(cells[col]) {
				skipped++

				continue
			}

			jobs = append(jobs, job{text: cells[col], row: row, col: col})
		}
	}

	return jobs, skipped
}

func targetColumns(ds *models.Dataset, names []string) []int {
	var cols []int

	if len(names) == 0 {
		for i, name := range ds.Columns {
			if !isLeading(name) {
				cols = append(cols, i)
			}
		}

		return cols
	}

	for _, name := range names {
		if idx := ds.Index(name); idx >= 0 && !isLeading(name) {
			cols = append(cols, idx)
		}
	}

	return cols
}

func isLeading(name string) bool {
	return name == models.ColumnID || name == models.ColumnURL
}

func translatable(v string) bool {
	v = strings.TrimSpace(v)

	return v != "" && !strings.EqualFold(v, models.Sentinel)
}

// dedupeColumns suffixes translated headers that collide.
func dedupeColumns(ds *models.Dataset) {
	seen := make(map[string]int, len(ds.Columns))

	for i, name := range ds.Columns {
		seen[name]++
		if n := seen[name]; n > 1 {
			ds.Columns[i] = name + "_" + strconv.Itoa(n)
		}
	}
}
