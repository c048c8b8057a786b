package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"standin/internal/logging"
	"standin/internal/services"
)

// Runner executes one kind of job. progress receives fractions in [0, 1] as
// the tool reports them; a runner with no progress signal may never call it.
type Runner interface {
	Run(ctx context.Context, job *Job, progress func(float64)) error
}

const defaultQueueDepth = 64

// Queue runs jobs on a fixed pool of workers and journals their outcomes.
// Submit feeds the pool, Drain closes it and waits. The zero value is not
// usable; construct with NewQueue.
type Queue struct {
	runners  map[Kind]Runner
	store    *Store
	logger   *slog.Logger
	pending  chan *Job
	wg       sync.WaitGroup
	started  sync.Once
	workers  int
	failures atomic.Int64

	// OnProgress, when set before Start, receives progress updates. It is
	// called from worker goroutines.
	OnProgress func(job *Job, fraction float64)
	// OnDone, when set before Start, runs after each job finishes or is
	// abandoned. It is called from worker goroutines.
	OnDone func(job *Job, err error)
}

// NewQueue builds a queue with the given worker count. A nil store disables
// the history journal.
func NewQueue(workers int, runners map[Kind]Runner, store *Store, logger *slog.Logger) *Queue {
	if workers < 1 {
		workers = 1
	}
	return &Queue{
		runners: runners,
		store:   store,
		logger:  logging.NewComponentLogger(logger, "queue"),
		pending: make(chan *Job, defaultQueueDepth),
		workers: workers,
	}
}

// Start launches the worker pool. Only the first call has any effect.
func (q *Queue) Start(ctx context.Context) {
	q.started.Do(func() {
		for i := 0; i < q.workers; i++ {
			q.wg.Add(1)
			go q.worker(ctx)
		}
	})
}

// Submit hands a job to the pool, assigning an ID when the job has none.
// It blocks while the queue is full and fails once ctx is done. Submit must
// not be called after Drain.
func (q *Queue) Submit(ctx context.Context, job *Job) error {
	if job == nil {
		return errors.New("jobs: nil job")
	}
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	select {
	case q.pending <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Drain closes the queue to new jobs and waits for in-flight work to finish.
func (q *Queue) Drain() {
	close(q.pending)
	q.wg.Wait()
}

// Failures reports how many jobs have failed or been abandoned so far.
func (q *Queue) Failures() int64 {
	return q.failures.Load()
}

func (q *Queue) worker(ctx context.Context) {
	defer q.wg.Done()
	for job := range q.pending {
		if err := ctx.Err(); err != nil {
			q.abandon(job, err)
			continue
		}
		q.run(ctx, job)
	}
}

// abandon disposes of a job that will never run because the context ended
// before a worker picked it up.
func (q *Queue) abandon(job *Job, cause error) {
	q.failures.Add(1)
	// The placeholder was created at dispatch time; removing it lets a later
	// pass dispatch this clip again instead of seeing it permanently pending.
	if job.Dest != "" {
		_ = os.Remove(job.Dest)
	}
	q.logger.Warn("job abandoned",
		logging.String(logging.FieldJobID, job.ID),
		logging.String("label", job.Label),
		logging.Error(cause))
	if q.OnDone != nil {
		q.OnDone(job, cause)
	}
}

func (q *Queue) run(ctx context.Context, job *Job) {
	ctx = services.WithJobID(ctx, job.ID)
	logger := q.logger.With(
		logging.String(logging.FieldJobID, job.ID),
		logging.String(logging.FieldKind, string(job.Kind)))

	if err := q.store.MarkStarted(ctx, job); err != nil {
		logger.WarnContext(ctx, "failed to journal job start", logging.Error(err))
	}
	logger.InfoContext(ctx, "job started",
		logging.String("label", job.Label),
		logging.String(logging.FieldDest, job.Dest))

	started := time.Now()
	runErr := q.execute(ctx, job)
	err := runErr
	if err == nil && job.Action != nil {
		err = job.Action.OnSuccess(ctx)
	}
	elapsed := time.Since(started).Round(time.Millisecond)

	if journalErr := q.store.MarkFinished(ctx, job.ID, err); journalErr != nil {
		logger.WarnContext(ctx, "failed to journal job finish", logging.Error(journalErr))
	}
	if runErr != nil && job.Dest != "" {
		// The tool exited without finishing its output; removing the
		// placeholder lets the clip be dispatched again.
		_ = os.Remove(job.Dest)
	}
	if err != nil {
		q.failures.Add(1)
		logger.ErrorContext(ctx, "job failed",
			logging.Error(err),
			logging.Duration("elapsed", elapsed))
	} else {
		logger.InfoContext(ctx, "job completed",
			logging.Duration("elapsed", elapsed))
	}
	if q.OnDone != nil {
		q.OnDone(job, err)
	}
}

func (q *Queue) execute(ctx context.Context, job *Job) error {
	runner, ok := q.runners[job.Kind]
	if !ok {
		return fmt.Errorf("no runner for job kind %q", job.Kind)
	}
	return runner.Run(ctx, job, func(fraction float64) {
		if q.OnProgress != nil {
			q.OnProgress(job, fraction)
		}
	})
}
