package crawler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"regscrape/internal/logger"
	"regscrape/internal/models"
)

// Driver errors.
var (
	ErrNoSeeds     = errors.New("source has no start requests")
	ErrUnknownStep = errors.New("unknown step")
)

// Phase is the lifecycle state of one crawl run.
type Phase int

// Crawl phases, in order.
const (
	PhaseSeeding Phase = iota
	PhaseListing
	PhaseDetail
	PhaseDraining
	PhaseClosed
)

func (p Phase) String() string {
	switch p {
	case PhaseSeeding:
		return "seeding"
	case PhaseListing:
		return "listing"
	case PhaseDetail:
		return "detail"
	case PhaseDraining:
		return "draining"
	default:
		return "closed"
	}
}

// Stats counts what happened during a run.
type Stats struct {
	Listings       int
	Details        int
	Failed         int
	StepErrors     int
	DroppedRecords int
	DroppedTasks   int
	Duplicates     int
	Skipped        int
	Attempts       AttemptStats
}

// Fetched returns the number of tasks that were fetched.
func (s Stats) Fetched() int {
	return s.Listings + s.Details
}

// Result is what a closed run hands over.
type Result struct {
	Records []*models.Record
	Stats   Stats
	// Log is the per-fetch attempt log.
	Log []AttemptResult
}

// Driver runs crawls one task at a time.
type Driver struct {
	fetcher Fetcher
	log     *logger.Logger
	sleep   func(ctx context.Context, d time.Duration) error
}

// NewDriver creates a driver that fetches through fetcher.
func NewDriver(fetcher Fetcher, log *logger.Logger) *Driver {
	return &Driver{
		fetcher: fetcher,
		log:     log,
		sleep:   sleepContext,
	}
}

// run is the state owned by one Run call.
type run struct {
	src      *Source
	frontier *Frontier
	records  []*models.Record
	stats    Stats
	phase    Phase
	closed   bool
	log      *logger.Logger
}

func (r *run) transition(p Phase) {
	if r.phase == p {
		return
	}

	r.log.Debug("phase change", "from", r.phase, "to", p)
	r.phase = p
}

// close moves the run to Closed. Only the first call has effect.
func (r *run) close() bool {
	if r.closed {
		return false
	}

	r.transition(PhaseDraining)
	r.transition(PhaseClosed)
	r.closed = true

	return true
}

func (r *run) enqueue(tasks []Task) {
	for _, t := range tasks {
		if !r.frontier.Push(t) {
			r.log.Debug("skipping already queued listing", "url", t.Request.URL)
		}
	}
}

// Run crawls src until the frontier is empty and returns everything the
// steps produced. Fetch and step failures abandon only their own branch.
// A cancelled context closes the run early; the partial result is returned
// together with the context error.
func (d *Driver) Run(ctx context.Context, src *Source) (*Result, error) {
	if len(src.Seeds) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoSeeds, src.Name)
	}

	for _, seed := range src.Seeds {
		if _, ok := src.Steps[seed.Step]; !ok {
			return nil, fmt.Errorf("%w %q in %s seeds", ErrUnknownStep, seed.Step, src.Name)
		}
	}

	r := &run{
		src:      src,
		frontier: NewFrontier(),
		phase:    PhaseSeeding,
		log:      d.log.With("source", src.Name),
	}

	r.enqueue(src.Seeds)
	r.log.Info(fmt.Sprintf("🌱 Seeded %d start requests", r.frontier.Len()))

	var runErr error

	fetched := 0

	for r.frontier.Len() > 0 {
		if err := ctx.Err(); err != nil {
			runErr = err

			break
		}

		if src.MaxTasks > 0 && fetched >= src.MaxTasks {
			r.transition(PhaseDraining)
			r.stats.Skipped = r.frontier.Len()
			r.log.Warn("task limit reached, dropping pending tasks", "limit", src.MaxTasks, "pending", r.stats.Skipped)

			break
		}

		task, _ := r.frontier.Pop()

		if fetched > 0 && src.Delay > 0 {
			if err := d.sleep(ctx, src.Delay); err != nil {
				runErr = err

				break
			}
		}

		fetched++

		d.process(ctx, r, task)
	}

	r.close()

	r.stats.Duplicates = r.frontier.Duplicates()
	r.stats.Attempts = r.frontier.GetAttemptStats()

	r.frontier.LogAttemptSummary(r.log)
	r.log.Info(fmt.Sprintf("🏁 Crawl closed: %d records from %d pages", len(r.records), r.stats.Fetched()))

	return &Result{
		Records: r.records,
		Stats:   r.stats,
		Log:     r.frontier.Attempts(),
	}, runErr
}

func (d *Driver) process(ctx context.Context, r *run, task Task) {
	if task.Kind == KindDetail {
		r.transition(PhaseDetail)
	} else {
		r.transition(PhaseListing)
	}

	step, ok := r.src.Steps[task.Step]
	if !ok {
		r.stats.StepErrors++
		r.log.Error("no step registered", "step", task.Step, "url", task.Request.URL)

		return
	}

	req := r.src.prepare(task.Request)

	page, err := d.fetcher.Fetch(ctx, req)
	if err != nil {
		status := 0
		if page != nil {
			status = page.StatusCode
		}

		r.frontier.RecordAttempt(req.URL, task.Step, false, err, status, 0)
		r.stats.Failed++
		r.log.Error("fetch failed, abandoning branch", "url", req.URL, "step", task.Step, "error", err)

		return
	}

	r.frontier.RecordAttempt(req.URL, task.Step, true, nil, page.StatusCode, page.Duration)

	if task.Kind == KindDetail {
		r.stats.Details++
	} else {
		r.stats.Listings++
	}

	y, err := step(ctx, page, task)
	if err != nil {
		r.stats.StepErrors++
		r.log.Error("step failed, abandoning branch", "url", page.URL, "step", task.Step, "error", err)

		return
	}

	if task.Kind == KindDetail {
		y = r.clampDetail(task, y)
	}

	r.records = append(r.records, y.Records...)
	r.enqueue(y.Tasks)
}

// clampDetail keeps at most one record and no tasks from a detail step.
func (r *run) clampDetail(task Task, y Yield) Yield {
	if len(y.Records) <= 1 && len(y.Tasks) == 0 {
		return y
	}

	extraRecords := 0
	if len(y.Records) > 1 {
		extraRecords = len(y.Records) - 1
	}

	r.stats.DroppedRecords += extraRecords
	r.stats.DroppedTasks += len(y.Tasks)
	r.log.Warn("detail step produced extra output, dropping it",
		"url", task.Request.URL,
		"extra_records", extraRecords,
		"tasks", len(y.Tasks),
	)

	return Yield{Records: y.Records[:min(1, len(y.Records))]}
}
