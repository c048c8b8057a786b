package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync/atomic"
	"syscall"

	"github.com/spf13/cobra"

	"standin/internal/config"
	"standin/internal/deps"
	"standin/internal/jobs"
	"standin/internal/logging"
	"standin/internal/media"
	"standin/internal/media/ffprobe"
	"standin/internal/project"
	"standin/internal/proxy"
	"standin/internal/services"
	"standin/internal/services/ffmpeg"
	"standin/internal/services/melt"
	"standin/internal/textutil"
)

func newGenerateCommand(ctx *cliContext) *cobra.Command {
	var filePath string
	var replace bool

	cmd := &cobra.Command{
		Use:   "generate [project.mlt]",
		Short: "Generate missing proxies for a project or a single media file",
		Long: `Generate walks a project document, probes each clip, and transcodes
proxy files for every clip large enough to benefit. Clips whose proxy already
exists are linked in place. With --file, one media file is proxied without a
project.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(filePath) == "" && len(args) == 0 {
				return fmt.Errorf("a project file or --file is required")
			}
			if strings.TrimSpace(filePath) != "" && len(args) > 0 {
				return fmt.Errorf("a project file and --file are mutually exclusive")
			}

			runCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()
			runCtx = services.WithOperation(runCtx, "generate")

			if len(args) == 1 {
				return runGenerateProject(runCtx, cmd, ctx, args[0])
			}
			return runGenerateFile(runCtx, cmd, ctx, filePath, replace)
		},
	}

	cmd.Flags().StringVar(&filePath, "file", "", "Proxy a single media file instead of a project")
	cmd.Flags().BoolVar(&replace, "replace", false, "With --file, retarget the probed object at the finished proxy")
	return cmd
}

// countingSubmitter forwards to the queue while counting accepted jobs, so the
// command knows how much work the walk produced.
type countingSubmitter struct {
	queue     *jobs.Queue
	submitted atomic.Int64
}

func (s *countingSubmitter) Submit(ctx context.Context, job *jobs.Job) error {
	if err := s.queue.Submit(ctx, job); err != nil {
		return err
	}
	s.submitted.Add(1)
	return nil
}

func runGenerateProject(runCtx context.Context, cmd *cobra.Command, ctx *cliContext, projectArg string) error {
	projectPath, err := config.ExpandPath(projectArg)
	if err != nil {
		return err
	}
	doc, err := project.Load(projectPath)
	if err != nil {
		return err
	}

	session, err := newGenerateSession(runCtx, ctx, doc.Dir())
	if err != nil {
		return err
	}
	defer session.close()

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Project: %s (%s)\n", textutil.DisplayTitle(projectPath), filepath.Base(projectPath))

	visits, walkErr := session.manager.Walk(runCtx, doc.Root)
	submitted := int(session.submitter.submitted.Load())
	session.awaitQueue(submitted)

	failures := int(session.queue.Failures())
	fmt.Fprintf(out, "Checked %d clips, queued %d proxy jobs, %d failed\n", visits, submitted, failures)
	if walkErr != nil {
		return walkErr
	}
	if failures > 0 {
		return fmt.Errorf("%d of %d proxy jobs failed", failures, submitted)
	}
	return nil
}

func runGenerateFile(runCtx context.Context, cmd *cobra.Command, ctx *cliContext, fileArg string, replace bool) error {
	mediaPath, err := config.ExpandPath(fileArg)
	if err != nil {
		return err
	}
	if _, err := os.Stat(mediaPath); err != nil {
		return fmt.Errorf("inspect media file: %w", err)
	}

	session, err := newGenerateSession(runCtx, ctx, "")
	if err != nil {
		return err
	}
	defer session.close()

	obj := media.NewObject(map[string]string{
		media.PropResource: mediaPath,
		media.PropService:  serviceForFile(mediaPath),
	})
	linked, err := session.manager.GenerateIfMissing(runCtx, obj, replace)
	submitted := int(session.submitter.submitted.Load())
	session.awaitQueue(submitted)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	id := proxy.Resolve(obj)
	if linked {
		fmt.Fprintf(out, "Proxy already exists: %s\n", obj.Get(media.PropResource))
		return nil
	}
	if submitted == 0 {
		fmt.Fprintln(out, "No proxy needed (source below proxy threshold or already pending)")
		return nil
	}
	if failures := session.queue.Failures(); failures > 0 {
		return fmt.Errorf("proxy job failed; check the log for tool output")
	}
	if finalPath, ok := session.paths.FindFinal(id); ok {
		fmt.Fprintf(out, "Proxy ready: %s\n", finalPath)
	}
	return nil
}

// generateSession owns the shared machinery of a generate run: the run lock,
// the job journal, the queue with its runners, and the lifecycle manager.
type generateSession struct {
	cfg       *config.Config
	paths     proxy.Paths
	lock      *jobs.Lock
	store     *jobs.Store
	queue     *jobs.Queue
	submitter *countingSubmitter
	manager   *proxy.Manager
	tracker   *progressTracker
}

func newGenerateSession(runCtx context.Context, ctx *cliContext, projectDir string) (*generateSession, error) {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return nil, err
	}

	tracker := newProgressTracker(os.Stderr)
	logger, err := ctx.logger(tracker != nil)
	if err != nil {
		return nil, err
	}

	if cfg.Encode.UseHardware && len(cfg.Encode.Hardware) == 0 {
		encoders, err := deps.DetectHardwareEncoders(runCtx, cfg.FFmpegBinary(), config.KnownHardwareEncoders)
		if err != nil {
			logger.Warn("hardware encoder detection failed", logging.Error(err))
		} else {
			cfg.Encode.Hardware = encoders
			logger.Info("hardware encoders detected", logging.Any("encoders", encoders))
		}
	}

	paths := proxy.NewPaths(cfg, projectDir)
	dir, err := paths.Dir()
	if err != nil {
		return nil, fmt.Errorf("resolve proxy directory: %w", err)
	}
	lock, err := jobs.AcquireLock(dir)
	if err != nil {
		return nil, err
	}

	store, err := jobs.Open(cfg.Jobs.History)
	if err != nil {
		lock.Release()
		return nil, err
	}

	runners := map[jobs.Kind]jobs.Runner{
		jobs.KindFFmpeg: ffmpeg.New(ffmpeg.WithBinary(cfg.FFmpegBinary())),
		jobs.KindMelt:   melt.New(melt.WithBinary(cfg.MeltBinary())),
	}
	queue := jobs.NewQueue(cfg.Jobs.Concurrency, runners, store, logger)
	if tracker != nil {
		queue.OnProgress = tracker.jobProgress
		queue.OnDone = tracker.jobDone
	}
	queue.Start(runCtx)

	submitter := &countingSubmitter{queue: queue}
	loader := ffprobe.NewLoader(cfg.FFprobeBinary())
	manager := proxy.NewManager(cfg, paths, submitter, loader, logger)

	return &generateSession{
		cfg:       cfg,
		paths:     paths,
		lock:      lock,
		store:     store,
		queue:     queue,
		submitter: submitter,
		manager:   manager,
		tracker:   tracker,
	}, nil
}

// awaitQueue blocks until all submitted jobs have finished, driving the
// progress bar when one is attached.
func (s *generateSession) awaitQueue(submitted int) {
	if s.tracker != nil && submitted > 0 {
		s.tracker.attach(submitted)
	}
	s.queue.Drain()
	if s.tracker != nil {
		s.tracker.finish()
	}
}

func (s *generateSession) close() {
	s.store.Close()
	s.lock.Release()
}

// serviceForFile guesses the producer service for a standalone media file the
// way the editor would assign it on import.
func serviceForFile(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png", ".jpg", ".jpeg", ".gif", ".bmp", ".tif", ".tiff", ".webp":
		return "qimage"
	default:
		return "avformat"
	}
}
