package melt

import (
	"context"
	"os/exec"
	"strings"

	"standin/internal/jobs"
	"standin/internal/services"
)

var commandContext = exec.CommandContext

// Option configures the runner.
type Option func(*Runner)

// WithBinary overrides the default binary name.
func WithBinary(binary string) Option {
	return func(r *Runner) {
		if binary != "" {
			r.binary = binary
		}
	}
}

// Runner renders still image proxies through the melt binary.
type Runner struct {
	binary string
}

// New constructs a runner using defaults.
func New(opts ...Option) *Runner {
	runner := &Runner{binary: "melt"}
	for _, opt := range opts {
		opt(runner)
	}
	return runner
}

const tailLimit = 8

// Run executes melt with the job's arguments. Still renders produce a single
// frame, so no intermediate progress is reported; the callback fires once on
// completion.
func (r *Runner) Run(ctx context.Context, job *jobs.Job, progress func(float64)) error {
	cmd := commandContext(ctx, r.binary, job.Args...) //nolint:gosec
	output, err := cmd.CombinedOutput()
	if err != nil {
		return services.Wrap(services.ErrExternalTool, "melt", "render still", lastLines(output, tailLimit), err)
	}
	if progress != nil {
		progress(1)
	}
	return nil
}

var _ jobs.Runner = (*Runner)(nil)

// lastLines condenses tool output to its final non-empty lines for error
// reporting.
func lastLines(output []byte, limit int) string {
	lines := strings.Split(strings.TrimSpace(string(output)), "\n")
	kept := make([]string, 0, limit)
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		kept = append(kept, line)
	}
	if len(kept) == 0 {
		return "tool produced no diagnostic output"
	}
	if len(kept) > limit {
		kept = kept[len(kept)-limit:]
	}
	return strings.Join(kept, " | ")
}
