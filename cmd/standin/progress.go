package main

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"

	"standin/internal/jobs"
)

// progressTracker aggregates per-job completion fractions into one terminal
// progress bar. Jobs start flowing before the walk finishes, so updates are
// buffered until attach learns the job count and creates the bar.
type progressTracker struct {
	out *os.File

	mu        sync.Mutex
	fractions map[string]float64
	done      int
	total     int
	bar       *progressbar.ProgressBar
}

// newProgressTracker returns a tracker when out is an interactive terminal,
// nil otherwise. Callers treat nil as "log lines instead of a bar".
func newProgressTracker(out *os.File) *progressTracker {
	if out == nil {
		return nil
	}
	fd := out.Fd()
	if !isatty.IsTerminal(fd) && !isatty.IsCygwinTerminal(fd) {
		return nil
	}
	return &progressTracker{out: out, fractions: make(map[string]float64)}
}

func (t *progressTracker) jobProgress(job *jobs.Job, fraction float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.fractions[job.ID] = fraction
	t.refreshLocked()
}

func (t *progressTracker) jobDone(job *jobs.Job, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.fractions[job.ID] = 1
	t.done++
	t.refreshLocked()
}

// attach sizes the bar once the number of submitted jobs is known.
func (t *progressTracker) attach(total int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.total = total
	t.bar = progressbar.NewOptions64(int64(total)*100,
		progressbar.OptionSetWriter(t.out),
		progressbar.OptionSetDescription(describeProgress(t.done, total)),
		progressbar.OptionSetWidth(30),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionClearOnFinish(),
	)
	t.refreshLocked()
}

func (t *progressTracker) finish() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.bar != nil {
		_ = t.bar.Finish()
		t.bar = nil
	}
}

func (t *progressTracker) refreshLocked() {
	if t.bar == nil {
		return
	}
	var sum float64
	for _, fraction := range t.fractions {
		sum += fraction
	}
	t.bar.Describe(describeProgress(t.done, t.total))
	_ = t.bar.Set64(int64(sum * 100))
}

func describeProgress(done, total int) string {
	return fmt.Sprintf("Transcoding proxies (%d/%d)", done, total)
}
