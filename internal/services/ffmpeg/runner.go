package ffmpeg

import (
	"bufio"
	"context"
	"os/exec"
	"strconv"
	"strings"
	"time"

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

// Runner executes ffmpeg transcodes for the job queue.
type Runner struct {
	binary string
}

// New constructs a runner using defaults.
func New(opts ...Option) *Runner {
	runner := &Runner{binary: "ffmpeg"}
	for _, opt := range opts {
		opt(runner)
	}
	return runner
}

const tailLimit = 8

// Run launches ffmpeg with the job's arguments plus a machine-readable
// progress stream on stdout. Progress fractions come from comparing encoder
// timestamps against the job's source duration; with an unknown duration only
// the final end-of-stream update is reported.
func (r *Runner) Run(ctx context.Context, job *jobs.Job, progress func(float64)) error {
	args := append([]string{"-nostats", "-progress", "pipe:1"}, job.Args...)
	cmd := commandContext(ctx, r.binary, args...) //nolint:gosec
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return services.Wrap(services.ErrIO, "ffmpeg", "transcode", "stdout pipe", err)
	}
	cmd.Stderr = cmd.Stdout
	if err := cmd.Start(); err != nil {
		return services.Wrap(services.ErrExternalTool, "ffmpeg", "transcode", "start "+r.binary, err)
	}

	parser := newProgressParser(job.Duration)
	tail := newTailRing(tailLimit)
	scanner := bufio.NewScanner(stdout)
	// -loglevel verbose can emit very long lines.
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		isProgress, updated := parser.Consume(line)
		if updated && progress != nil {
			progress(parser.Fraction())
		}
		if !isProgress {
			tail.Add(line)
		}
	}
	scanErr := scanner.Err()

	if err := cmd.Wait(); err != nil {
		return services.Wrap(services.ErrExternalTool, "ffmpeg", "transcode", tail.Summary(), err)
	}
	if scanErr != nil {
		return services.Wrap(services.ErrIO, "ffmpeg", "transcode", "read tool output", scanErr)
	}
	return nil
}

var _ jobs.Runner = (*Runner)(nil)

// progressParser interprets ffmpeg's -progress key=value stream. The stream
// shares a pipe with the log output, so Consume also identifies which lines
// belong to it.
type progressParser struct {
	total    time.Duration
	fraction float64
}

func newProgressParser(total time.Duration) *progressParser {
	return &progressParser{total: total}
}

// Fraction returns the most recent completion fraction in [0, 1].
func (p *progressParser) Fraction() float64 {
	return p.fraction
}

// Consume reads one output line. It reports whether the line belongs to the
// progress stream and whether it changed the completion fraction.
func (p *progressParser) Consume(line string) (isProgress, updated bool) {
	key, value, ok := strings.Cut(strings.TrimSpace(line), "=")
	if !ok {
		return false, false
	}
	value = strings.TrimSpace(value)
	switch key {
	case "out_time_us", "out_time_ms":
		// Both keys carry microseconds.
		us, err := strconv.ParseInt(value, 10, 64)
		if err != nil || us < 0 || p.total <= 0 {
			return true, false
		}
		p.fraction = clampFraction(time.Duration(us) * time.Microsecond, p.total)
		return true, true
	case "progress":
		if value == "end" {
			p.fraction = 1
			return true, true
		}
		return true, false
	case "frame", "fps", "bitrate", "total_size", "out_time", "dup_frames", "drop_frames", "speed":
		return true, false
	}
	if strings.HasPrefix(key, "stream_") && strings.HasSuffix(key, "_q") {
		return true, false
	}
	return false, false
}

func clampFraction(elapsed, total time.Duration) float64 {
	fraction := float64(elapsed) / float64(total)
	if fraction < 0 {
		return 0
	}
	if fraction > 1 {
		return 1
	}
	return fraction
}

// tailRing keeps the last few non-empty log lines so a failure can be
// reported with its context instead of the whole transcript.
type tailRing struct {
	lines []string
	limit int
}

func newTailRing(limit int) *tailRing {
	return &tailRing{limit: limit}
}

func (t *tailRing) Add(line string) {
	line = strings.TrimSpace(line)
	if line == "" {
		return
	}
	t.lines = append(t.lines, line)
	if len(t.lines) > t.limit {
		t.lines = t.lines[len(t.lines)-t.limit:]
	}
}

func (t *tailRing) Summary() string {
	if len(t.lines) == 0 {
		return "tool produced no diagnostic output"
	}
	return strings.Join(t.lines, " | ")
}
