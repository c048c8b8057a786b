package proxy

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"standin/internal/config"
	"standin/internal/fileutil"
	"standin/internal/jobs"
	"standin/internal/logging"
	"standin/internal/media"
	"standin/internal/services"
)

// Submitter accepts transcode jobs for asynchronous execution.
type Submitter interface {
	Submit(ctx context.Context, job *jobs.Job) error
}

// MetadataLoader fills in meta.media.* properties for a producer when the
// document did not carry them.
type MetadataLoader interface {
	Load(ctx context.Context, obj *media.Object) error
}

// Manager drives the per-producer proxy lifecycle. All decisions are made
// from the injected config and paths; the manager reads no global state.
type Manager struct {
	cfg      *config.Config
	paths    Paths
	queue    Submitter
	metadata MetadataLoader
	logger   *slog.Logger
}

// NewManager wires a lifecycle manager. metadata may be nil, in which case
// producers missing probe data simply never qualify for dispatch.
func NewManager(cfg *config.Config, paths Paths, queue Submitter, metadata MetadataLoader, logger *slog.Logger) *Manager {
	return &Manager{
		cfg:      cfg,
		paths:    paths,
		queue:    queue,
		metadata: metadata,
		logger:   logging.NewComponentLogger(logger, "lifecycle"),
	}
}

// GenerateIfMissing brings one producer under proxy management. When the
// finished proxy already exists, the producer is retargeted at it and true
// is returned. When a generation is pending, or the source does not qualify,
// nothing happens. Otherwise a pending marker is created and a transcode job
// submitted; the producer is updated later through the job's action, so the
// return value is still false.
func (m *Manager) GenerateIfMissing(ctx context.Context, obj *media.Object, replace bool) (bool, error) {
	if !m.cfg.Proxy.Enabled || !obj.Valid() {
		return false, nil
	}
	if obj.GetInt(media.PropDisableProxy) != 0 || obj.GetInt(media.PropIsProxy) != 0 {
		return false, nil
	}
	if !media.IsAVFormat(obj) && !media.IsValidImage(obj) {
		return false, nil
	}

	logger := logging.WithContext(ctx, m.logger)
	id := Resolve(obj)
	if finalPath, ok := m.paths.FindFinal(id); ok {
		obj.Update(func(props map[string]string) {
			props[media.PropIsProxy] = "1"
			props[media.PropOriginalResource] = props[media.PropResource]
			props[media.PropResource] = finalPath
		})
		logger.Info("linked existing proxy",
			logging.String(logging.FieldHash, id.Hash),
			logging.String(logging.FieldDest, finalPath))
		return true, nil
	}
	if pendingPath, ok := m.paths.FindPending(id); ok {
		logger.Debug("proxy generation already pending",
			logging.String(logging.FieldHash, id.Hash),
			logging.String(logging.FieldDest, pendingPath))
		return false, nil
	}

	if err := m.ensureMetadata(ctx, obj); err != nil {
		return false, err
	}
	resolution := Resolution(m.cfg)
	threshold := Threshold(resolution)
	width := obj.GetInt(media.PropMetaWidth)
	height := obj.GetInt(media.PropMetaHeight)
	logger.Debug("proxy threshold check",
		logging.String(logging.FieldSource, EffectiveResource(obj)),
		logging.Int("width", width),
		logging.Int("height", height),
		logging.Int("threshold", threshold))
	if width <= threshold || height <= threshold {
		return false, nil
	}
	return false, m.dispatch(ctx, obj, id, resolution, replace)
}

// ensureMetadata probes the source when its dimensions are not already known.
func (m *Manager) ensureMetadata(ctx context.Context, obj *media.Object) error {
	if obj.Has(media.PropMetaWidth) && obj.Has(media.PropMetaHeight) {
		return nil
	}
	if m.metadata == nil {
		return nil
	}
	return m.metadata.Load(ctx, obj)
}

func (m *Manager) dispatch(ctx context.Context, obj *media.Object, id Identity, resolution int, replace bool) error {
	logger := logging.WithContext(ctx, m.logger)
	dir, err := m.paths.Dir()
	if err != nil {
		return services.Wrap(services.ErrIO, "proxy", "dispatch", "resolve proxy directory", err)
	}
	pendingPath := filepath.Join(dir, id.PendingName)
	// The marker must exist before the job does, so any concurrent pass sees
	// Pending instead of re-dispatching the same hash.
	if err := fileutil.TouchExclusive(pendingPath); err != nil {
		if errors.Is(err, fileutil.ErrMarkerExists) {
			logger.Debug("pending marker appeared concurrently",
				logging.String(logging.FieldHash, id.Hash))
			return nil
		}
		return services.Wrap(services.ErrIO, "proxy", "dispatch", "create pending marker", err)
	}

	job := m.buildJob(obj, id, resolution, pendingPath, replace)
	if err := m.queue.Submit(ctx, job); err != nil {
		os.Remove(pendingPath)
		return services.Wrap(services.ErrIO, "proxy", "dispatch", "submit transcode job", err)
	}
	logger.Info("queued proxy job",
		logging.String(logging.FieldJobID, job.ID),
		logging.String(logging.FieldHash, id.Hash),
		logging.String(logging.FieldKind, id.Kind.String()),
		logging.String(logging.FieldSource, EffectiveResource(obj)),
		logging.String(logging.FieldDest, pendingPath))
	return nil
}

func (m *Manager) buildJob(obj *media.Object, id Identity, resolution int, pendingPath string, replace bool) *jobs.Job {
	var kind jobs.Kind
	var args []string
	if id.Kind == KindImage {
		kind = jobs.KindMelt
		args = BuildImageArgs(obj, resolution, pendingPath)
	} else {
		kind = jobs.KindFFmpeg
		args = BuildVideoArgs(obj, EncodeOptions{
			Resolution:  resolution,
			FullRange:   obj.Get(media.PropMetaColorRange) == "full",
			Scan:        ScanAutomatic,
			UseHardware: m.cfg.Encode.UseHardware,
			Hardware:    m.cfg.Encode.Hardware,
			Dest:        pendingPath,
		})
	}

	var action jobs.Action
	if replace {
		action = &ReplaceAction{Object: obj, PendingPath: pendingPath}
	} else {
		action = &FinalizeAction{PendingPath: pendingPath}
	}
	return &jobs.Job{
		ID:       uuid.NewString(),
		Label:    "Make proxy for " + filepath.Base(EffectiveResource(obj)),
		Kind:     kind,
		Args:     args,
		Dest:     pendingPath,
		Duration: time.Duration(obj.GetFloat(media.PropMetaDuration) * float64(time.Second)),
		Action:   action,
	}
}
