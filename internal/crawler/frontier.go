package crawler

import (
	"fmt"
	"time"

	"regscrape/internal/logger"
)

// AttemptResult records the outcome of one fetched task.
type AttemptResult struct {
	Timestamp  time.Time
	URL        string
	Step       string
	Error      string
	Duration   time.Duration
	StatusCode int
	Success    bool
}

// Frontier is the FIFO queue of pending tasks plus the attempt log.
type Frontier struct {
	queue      []Task
	seen       map[string]bool
	attempts   []AttemptResult
	duplicates int
}

// NewFrontier creates an empty frontier.
func NewFrontier() *Frontier {
	return &Frontier{
		seen: make(map[string]bool),
	}
}

// Push enqueues a task. Listing tasks whose request was already queued in
// this run are dropped so pagination cycles terminate; Push reports whether
// the task was accepted.
func (f *Frontier) Push(t Task) bool {
	if t.Kind == KindListing {
		key := t.Request.Fingerprint()
		if f.seen[key] {
			f.duplicates++

			return false
		}

		f.seen[key] = true
	}

	f.queue = append(f.queue, t)

	return true
}

// Pop removes the oldest task.
func (f *Frontier) Pop() (Task, bool) {
	if len(f.queue) == 0 {
		return Task{}, false
	}

	t := f.queue[0]
	f.queue[0] = Task{}
	f.queue = f.queue[1:]

	return t, true
}

// Len returns the number of pending tasks.
func (f *Frontier) Len() int {
	return len(f.queue)
}

// Duplicates returns how many listing tasks were rejected as already seen.
func (f *Frontier) Duplicates() int {
	return f.duplicates
}

// RecordAttempt records the result of a fetch.
func (f *Frontier) RecordAttempt(url, step string, success bool, err error, statusCode int, duration time.Duration) {
	errMsg := ""
	if err != nil {
		errMsg = err.Error()
	}

	f.attempts = append(f.attempts, AttemptResult{
		Timestamp:  time.Now(),
		URL:        url,
		Step:       step,
		Error:      errMsg,
		Duration:   duration,
		StatusCode: statusCode,
		Success:    success,
	})
}

// Attempts returns the attempt log in fetch order.
func (f *Frontier) Attempts() []AttemptResult {
	out := make([]AttemptResult, len(f.attempts))
	copy(out, f.attempts)

	return out
}

// GetAttemptStats returns statistics about fetch attempts.
func (f *Frontier) GetAttemptStats() AttemptStats {
	stats := AttemptStats{
		StepAttempts: make(map[string]int),
	}

	for _, result := range f.attempts {
		stats.TotalAttempts++
		stats.StepAttempts[result.Step]++

		if result.Success {
			stats.SuccessfulAttempts++
		} else {
			stats.FailedAttempts++
		}

		stats.TotalDuration += result.Duration
	}

	return stats
}

// AttemptStats contains statistics about fetch attempts.
type AttemptStats struct {
	StepAttempts       map[string]int
	TotalAttempts      int
	SuccessfulAttempts int
	FailedAttempts     int
	TotalDuration      time.Duration
}

// String returns a string representation of attempt stats.
func (s AttemptStats) String() string {
	return fmt.Sprintf(
		"Attempts: %d total, %d success, %d failed | %.2fs fetching",
		s.TotalAttempts,
		s.SuccessfulAttempts,
		s.FailedAttempts,
		s.TotalDuration.Seconds(),
	)
}

// LogAttemptSummary logs failed fetches and the overall stats.
func (f *Frontier) LogAttemptSummary(l *logger.Logger) {
	l.Info("📊 Fetch Attempt Summary:")

	for i, result := range f.attempts {
		if result.Success {
			l.Debug(fmt.Sprintf("%d. ✅ %s [%s] (%.2fs)", i+1, result.URL, result.Step, result.Duration.Seconds()))

			continue
		}

		l.Info(fmt.Sprintf("%d. ❌ %s [%s] %s", i+1, result.URL, result.Step, result.Error))
	}

	l.Info(fmt.Sprintf("Overall: %s", f.GetAttemptStats()))
}
