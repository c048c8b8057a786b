package proxy

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"standin/internal/config"
	"standin/internal/jobs"
	"standin/internal/logging"
	"standin/internal/media"
)

type fakeQueue struct {
	jobs      []*jobs.Job
	submitErr error
	onSubmit  func(job *jobs.Job)
}

func (q *fakeQueue) Submit(ctx context.Context, job *jobs.Job) error {
	if q.onSubmit != nil {
		q.onSubmit(job)
	}
	if q.submitErr != nil {
		return q.submitErr
	}
	q.jobs = append(q.jobs, job)
	return nil
}

type fakeLoader struct {
	width, height string
	err           error
	calls         int
}

func (l *fakeLoader) Load(ctx context.Context, obj *media.Object) error {
	l.calls++
	if l.err != nil {
		return l.err
	}
	obj.Set(media.PropMetaWidth, l.width)
	obj.Set(media.PropMetaHeight, l.height)
	return nil
}

func testManager(t *testing.T) (*Manager, *fakeQueue, *config.Config) {
	t.Helper()
	cfg := config.Default()
	cfg.Proxy.Folder = filepath.Join(t.TempDir(), "global")
	cfg.Proxy.UseProjectFolder = false
	if err := os.MkdirAll(cfg.Proxy.Folder, 0o755); err != nil {
		t.Fatal(err)
	}
	queue := &fakeQueue{}
	m := NewManager(&cfg, NewPaths(&cfg, ""), queue, nil, logging.NewNop())
	return m, queue, &cfg
}

func qualifyingVideo(resource string) *media.Object {
	return media.NewObject(map[string]string{
		media.PropResource:   resource,
		media.PropService:    "avformat",
		media.PropVideoIndex: "0",
		media.PropAudioIndex: "1",
		media.PropMetaWidth:  "1920",
		media.PropMetaHeight: "1080",
	})
}

func TestGenerateSkipsWhenDisabled(t *testing.T) {
	m, queue, cfg := testManager(t)
	cfg.Proxy.Enabled = false

	updated, err := m.GenerateIfMissing(context.Background(), qualifyingVideo("/clips/a.mov"), false)
	if err != nil || updated {
		t.Fatalf("disabled proxying: updated=%v err=%v", updated, err)
	}
	if len(queue.jobs) != 0 {
		t.Fatal("disabled proxying should not dispatch")
	}
}

func TestGenerateSkipsFlaggedObjects(t *testing.T) {
	m, queue, _ := testManager(t)
	ctx := context.Background()

	invalid := media.NewObject(map[string]string{media.PropService: "avformat"})
	if updated, err := m.GenerateIfMissing(ctx, invalid, false); err != nil || updated {
		t.Errorf("invalid object: updated=%v err=%v", updated, err)
	}

	disabled := qualifyingVideo("/clips/a.mov")
	disabled.SetInt(media.PropDisableProxy, 1)
	if updated, err := m.GenerateIfMissing(ctx, disabled, false); err != nil || updated {
		t.Errorf("disabled object: updated=%v err=%v", updated, err)
	}

	proxied := qualifyingVideo("/clips/a.mov")
	proxied.SetInt(media.PropIsProxy, 1)
	if updated, err := m.GenerateIfMissing(ctx, proxied, false); err != nil || updated {
		t.Errorf("already proxied object: updated=%v err=%v", updated, err)
	}

	if len(queue.jobs) != 0 {
		t.Fatal("no dispatch expected for flagged objects")
	}
}

func TestGenerateSkipsUnsupportedServices(t *testing.T) {
	m, queue, _ := testManager(t)
	ctx := context.Background()

	for _, service := range []string{"color", "timewarp", "tone"} {
		obj := media.NewObject(map[string]string{
			media.PropResource:   "/clips/a.mov",
			media.PropService:    service,
			media.PropMetaWidth:  "1920",
			media.PropMetaHeight: "1080",
		})
		if updated, err := m.GenerateIfMissing(ctx, obj, false); err != nil || updated {
			t.Errorf("service %q: updated=%v err=%v", service, updated, err)
		}
	}
	if len(queue.jobs) != 0 {
		t.Fatal("unsupported services should not dispatch")
	}
}

func TestGenerateLinksExistingProxy(t *testing.T) {
	m, queue, cfg := testManager(t)
	obj := qualifyingVideo("/clips/a.mov")
	id := Resolve(obj)
	finalPath := filepath.Join(cfg.Proxy.Folder, id.FileName)
	if err := os.WriteFile(finalPath, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	updated, err := m.GenerateIfMissing(context.Background(), obj, false)
	if err != nil {
		t.Fatalf("GenerateIfMissing: %v", err)
	}
	if !updated {
		t.Fatal("existing proxy should report updated")
	}
	if got := obj.Get(media.PropResource); got != finalPath {
		t.Errorf("resource = %q, want %q", got, finalPath)
	}
	if got := obj.Get(media.PropOriginalResource); got != "/clips/a.mov" {
		t.Errorf("original resource = %q", got)
	}
	if obj.GetInt(media.PropIsProxy) != 1 {
		t.Error("proxy marker not set")
	}
	if len(queue.jobs) != 0 {
		t.Fatal("cache hit should not dispatch")
	}

	// A second invocation sees the proxy marker and leaves everything alone.
	snapshot := obj.Snapshot()
	updated, err = m.GenerateIfMissing(context.Background(), obj, false)
	if err != nil || updated {
		t.Fatalf("second call: updated=%v err=%v", updated, err)
	}
	for k, v := range snapshot {
		if got := obj.Get(k); got != v {
			t.Errorf("property %q changed on second call: %q != %q", k, got, v)
		}
	}
	if len(queue.jobs) != 0 {
		t.Fatal("second call dispatched a job")
	}
}

func TestGenerateLinkPrefersProjectFolder(t *testing.T) {
	cfg := config.Default()
	base := t.TempDir()
	cfg.Proxy.Folder = filepath.Join(base, "global")
	project := filepath.Join(base, "project")
	for _, dir := range []string{cfg.Proxy.Folder, filepath.Join(project, "proxies")} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatal(err)
		}
	}
	queue := &fakeQueue{}
	m := NewManager(&cfg, NewPaths(&cfg, project), queue, nil, logging.NewNop())

	obj := qualifyingVideo("/clips/a.mov")
	id := Resolve(obj)
	projectPath := filepath.Join(project, "proxies", id.FileName)
	if err := os.WriteFile(projectPath, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(cfg.Proxy.Folder, id.FileName), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	updated, err := m.GenerateIfMissing(context.Background(), obj, false)
	if err != nil || !updated {
		t.Fatalf("updated=%v err=%v", updated, err)
	}
	if got := obj.Get(media.PropResource); got != projectPath {
		t.Errorf("resource = %q, want project-local %q", got, projectPath)
	}
}

func TestGeneratePendingBlocksDispatch(t *testing.T) {
	m, queue, cfg := testManager(t)
	obj := qualifyingVideo("/clips/a.mov")
	id := Resolve(obj)
	if err := os.WriteFile(filepath.Join(cfg.Proxy.Folder, id.PendingName), nil, 0o644); err != nil {
		t.Fatal(err)
	}

	updated, err := m.GenerateIfMissing(context.Background(), obj, false)
	if err != nil || updated {
		t.Fatalf("updated=%v err=%v", updated, err)
	}
	if len(queue.jobs) != 0 {
		t.Fatal("pending marker should block dispatch")
	}
	if obj.Has(media.PropIsProxy) {
		t.Error("pending state should not flag the object")
	}
}

func TestGenerateDispatchCreatesMarkerBeforeSubmit(t *testing.T) {
	m, queue, cfg := testManager(t)
	obj := qualifyingVideo("/clips/a.mov")
	obj.Set(media.PropMetaDuration, "12.5")
	id := Resolve(obj)
	pendingPath := filepath.Join(cfg.Proxy.Folder, id.PendingName)

	markerSeen := false
	queue.onSubmit = func(job *jobs.Job) {
		if _, err := os.Stat(job.Dest); err == nil {
			markerSeen = true
		}
	}

	updated, err := m.GenerateIfMissing(context.Background(), obj, false)
	if err != nil {
		t.Fatalf("GenerateIfMissing: %v", err)
	}
	if updated {
		t.Fatal("dispatch should not report updated")
	}
	if len(queue.jobs) != 1 {
		t.Fatalf("expected one job, got %d", len(queue.jobs))
	}
	if !markerSeen {
		t.Error("pending marker must exist before the job is submitted")
	}

	job := queue.jobs[0]
	if job.Kind != jobs.KindFFmpeg {
		t.Errorf("kind = %q", job.Kind)
	}
	if job.Dest != pendingPath {
		t.Errorf("dest = %q, want %q", job.Dest, pendingPath)
	}
	if job.Label != "Make proxy for a.mov" {
		t.Errorf("label = %q", job.Label)
	}
	if job.ID == "" {
		t.Error("job id not assigned")
	}
	if job.Duration != 12500*time.Millisecond {
		t.Errorf("duration = %v", job.Duration)
	}
	if _, ok := job.Action.(*FinalizeAction); !ok {
		t.Errorf("action = %T, want finalize", job.Action)
	}
	if job.Args[len(job.Args)-1] != pendingPath {
		t.Errorf("args should end with dest: %v", job.Args)
	}
}

func TestGenerateReplaceAttachesReplaceAction(t *testing.T) {
	m, queue, _ := testManager(t)
	obj := qualifyingVideo("/clips/a.mov")

	if _, err := m.GenerateIfMissing(context.Background(), obj, true); err != nil {
		t.Fatalf("GenerateIfMissing: %v", err)
	}
	if len(queue.jobs) != 1 {
		t.Fatalf("expected one job, got %d", len(queue.jobs))
	}
	action, ok := queue.jobs[0].Action.(*ReplaceAction)
	if !ok {
		t.Fatalf("action = %T, want replace", queue.jobs[0].Action)
	}
	if action.Object != obj {
		t.Error("replace action should capture the originating object")
	}
}

func TestGenerateSmallSourceNeverDispatches(t *testing.T) {
	m, queue, _ := testManager(t)
	ctx := context.Background()

	tests := []struct {
		width, height string
		dispatch      bool
	}{
		{"640", "480", false},
		{"702", "702", false},
		{"1920", "702", false},
		{"702", "1080", false},
		{"703", "703", true},
	}
	for _, tt := range tests {
		queue.jobs = nil
		obj := qualifyingVideo("/clips/" + tt.width + "x" + tt.height + ".mov")
		obj.Set(media.PropMetaWidth, tt.width)
		obj.Set(media.PropMetaHeight, tt.height)
		if _, err := m.GenerateIfMissing(ctx, obj, false); err != nil {
			t.Fatalf("%sx%s: %v", tt.width, tt.height, err)
		}
		if got := len(queue.jobs) == 1; got != tt.dispatch {
			t.Errorf("%sx%s: dispatched=%v, want %v", tt.width, tt.height, got, tt.dispatch)
		}
	}
}

func TestGenerateImageDispatchesMeltJob(t *testing.T) {
	m, queue, _ := testManager(t)
	obj := media.NewObject(map[string]string{
		media.PropResource:   "/stills/big.png",
		media.PropService:    "qimage",
		media.PropMetaWidth:  "4000",
		media.PropMetaHeight: "3000",
	})

	if _, err := m.GenerateIfMissing(context.Background(), obj, false); err != nil {
		t.Fatalf("GenerateIfMissing: %v", err)
	}
	if len(queue.jobs) != 1 {
		t.Fatalf("expected one job, got %d", len(queue.jobs))
	}
	job := queue.jobs[0]
	if job.Kind != jobs.KindMelt {
		t.Errorf("kind = %q", job.Kind)
	}
	if !strings.HasSuffix(job.Dest, ".pending.jpg") {
		t.Errorf("dest = %q", job.Dest)
	}
	if job.Args[0] != "-verbose" || job.Args[2] != "square_pal" {
		t.Errorf("unexpected melt args: %v", job.Args)
	}
}

func TestGenerateSubmitFailureRemovesMarker(t *testing.T) {
	m, queue, cfg := testManager(t)
	queue.submitErr = errors.New("queue closed")
	obj := qualifyingVideo("/clips/a.mov")
	id := Resolve(obj)

	_, err := m.GenerateIfMissing(context.Background(), obj, false)
	if err == nil {
		t.Fatal("expected submit error to propagate")
	}
	if _, statErr := os.Stat(filepath.Join(cfg.Proxy.Folder, id.PendingName)); !os.IsNotExist(statErr) {
		t.Error("failed submit should remove the pending marker")
	}
}

func TestGenerateProbesWhenDimensionsMissing(t *testing.T) {
	m, queue, _ := testManager(t)
	loader := &fakeLoader{width: "1920", height: "1080"}
	m.metadata = loader

	obj := media.NewObject(map[string]string{
		media.PropResource:   "/clips/a.mov",
		media.PropService:    "avformat",
		media.PropVideoIndex: "0",
		media.PropAudioIndex: "1",
	})
	if _, err := m.GenerateIfMissing(context.Background(), obj, false); err != nil {
		t.Fatalf("GenerateIfMissing: %v", err)
	}
	if loader.calls != 1 {
		t.Errorf("loader calls = %d", loader.calls)
	}
	if len(queue.jobs) != 1 {
		t.Fatal("probed dimensions should qualify for dispatch")
	}

	// Known dimensions skip the probe entirely.
	loader.calls = 0
	queue.jobs = nil
	known := qualifyingVideo("/clips/b.mov")
	if _, err := m.GenerateIfMissing(context.Background(), known, false); err != nil {
		t.Fatal(err)
	}
	if loader.calls != 0 {
		t.Errorf("probe should be skipped, calls = %d", loader.calls)
	}
}

func TestGenerateProbeFailurePropagates(t *testing.T) {
	m, queue, _ := testManager(t)
	m.metadata = &fakeLoader{err: errors.New("ffprobe missing")}

	obj := media.NewObject(map[string]string{
		media.PropResource: "/clips/a.mov",
		media.PropService:  "avformat",
	})
	if _, err := m.GenerateIfMissing(context.Background(), obj, false); err == nil {
		t.Fatal("expected probe error")
	}
	if len(queue.jobs) != 0 {
		t.Fatal("probe failure should not dispatch")
	}
}
