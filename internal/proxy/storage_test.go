package proxy

import (
	"os"
	"path/filepath"
	"testing"

	"standin/internal/config"
)

func testPaths(t *testing.T) (Paths, string, string) {
	t.Helper()
	base := t.TempDir()
	project := filepath.Join(base, "project")
	global := filepath.Join(base, "global")
	for _, dir := range []string{project, global} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatal(err)
		}
	}
	cfg := config.Default()
	cfg.Proxy.Folder = global
	cfg.Proxy.UseProjectFolder = true
	return NewPaths(&cfg, project), project, global
}

func TestDirCreatesProjectSubfolder(t *testing.T) {
	paths, project, _ := testPaths(t)

	dir, err := paths.Dir()
	if err != nil {
		t.Fatalf("Dir: %v", err)
	}
	want := filepath.Join(project, "proxies")
	if dir != want {
		t.Fatalf("Dir = %q, want %q", dir, want)
	}
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		t.Fatalf("proxies subfolder not created: %v", err)
	}
}

func TestDirFallsBackToGlobal(t *testing.T) {
	paths, _, global := testPaths(t)

	paths.UseProjectFolder = false
	if dir, err := paths.Dir(); err != nil || dir != global {
		t.Errorf("preference off: dir = %q, err = %v", dir, err)
	}

	paths.UseProjectFolder = true
	paths.ProjectDir = ""
	if dir, err := paths.Dir(); err != nil || dir != global {
		t.Errorf("no project: dir = %q, err = %v", dir, err)
	}

	paths.ProjectDir = filepath.Join(global, "does-not-exist")
	if dir, err := paths.Dir(); err != nil || dir != global {
		t.Errorf("missing project dir: dir = %q, err = %v", dir, err)
	}
}

func TestFindConsultsProjectThenGlobal(t *testing.T) {
	paths, project, global := testPaths(t)
	id := Resolve(videoObject("/clips/a.mov"))

	if _, ok := paths.FindFinal(id); ok {
		t.Fatal("found proxy before any file written")
	}

	globalPath := filepath.Join(global, id.FileName)
	if err := os.WriteFile(globalPath, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if got, ok := paths.FindFinal(id); !ok || got != globalPath {
		t.Fatalf("global lookup = %q, %v", got, ok)
	}

	projectPath := filepath.Join(project, "proxies", id.FileName)
	if err := os.MkdirAll(filepath.Dir(projectPath), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(projectPath, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if got, ok := paths.FindFinal(id); !ok || got != projectPath {
		t.Fatalf("project should win: %q, %v", got, ok)
	}
}

func TestFindChecksProjectFolderEvenWhenPreferenceIsOff(t *testing.T) {
	paths, project, _ := testPaths(t)
	paths.UseProjectFolder = false
	id := Resolve(videoObject("/clips/a.mov"))

	projectPath := filepath.Join(project, "proxies", id.FileName)
	if err := os.MkdirAll(filepath.Dir(projectPath), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(projectPath, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if got, ok := paths.FindFinal(id); !ok || got != projectPath {
		t.Fatalf("project-local file should still be found: %q, %v", got, ok)
	}
}

func TestStateOfPrecedence(t *testing.T) {
	paths, _, global := testPaths(t)
	id := Resolve(videoObject("/clips/a.mov"))

	if got := paths.StateOf(id); got != StateAbsent {
		t.Fatalf("state = %v, want absent", got)
	}

	pendingPath := filepath.Join(global, id.PendingName)
	if err := os.WriteFile(pendingPath, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if got := paths.StateOf(id); got != StatePending {
		t.Fatalf("state = %v, want pending", got)
	}

	finalPath := filepath.Join(global, id.FileName)
	if err := os.WriteFile(finalPath, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	// A finished file outranks a leftover marker.
	if got := paths.StateOf(id); got != StateProxied {
		t.Fatalf("state = %v, want proxied", got)
	}
}
