package jobs

import (
	"context"
	"time"
)

// Kind selects the external tool that executes a job.
type Kind string

const (
	KindFFmpeg Kind = "ffmpeg"
	KindMelt   Kind = "melt"
)

// Action runs after a job's process exits successfully. The queue invokes it
// on a worker goroutine, so implementations must be safe to call there.
type Action interface {
	// OnSuccess finalizes the job's output.
	OnSuccess(ctx context.Context) error
	// Describe returns a short label for logs and history.
	Describe() string
}

// Job describes one transcode for the queue to run.
type Job struct {
	ID    string
	Label string
	Kind  Kind
	Args  []string
	// Dest is the file the job writes, a pending proxy path.
	Dest string
	// Duration is the source running time, used to turn encoder timestamps
	// into a completion percentage. Zero when unknown.
	Duration time.Duration
	Action   Action
}

// Status records how far a job got.
type Status string

const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Record is the persisted form of a job in the history journal.
type Record struct {
	ID           string
	Label        string
	Kind         Kind
	Dest         string
	Args         []string
	Status       Status
	ErrorMessage string
	StartedAt    time.Time
	FinishedAt   time.Time
}
