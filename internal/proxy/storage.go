package proxy

import (
	"os"
	"path/filepath"

	"standin/internal/config"
	"standin/internal/fileutil"
)

// Subfolder is the directory created under a project folder for
// project-local proxies.
const Subfolder = "proxies"

// State describes where a producer's proxy stands.
type State int

const (
	// StateAbsent means neither the final nor the pending file exists.
	StateAbsent State = iota
	// StatePending means a generation marker exists; a job is or was in flight.
	StatePending
	// StateProxied means the finished proxy file exists.
	StateProxied
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateProxied:
		return "proxied"
	default:
		return "absent"
	}
}

// Paths resolves proxy storage for one project context. New files go to a
// single write directory, but lookups consult the project-local folder even
// when the preference points writes at the global one, so flipping the
// setting never orphans existing proxies.
type Paths struct {
	// ProjectDir is the folder of the open project, empty when unsaved.
	ProjectDir string
	// GlobalDir is the configured fallback proxy folder.
	GlobalDir string
	// UseProjectFolder prefers a proxies/ subfolder under ProjectDir for
	// newly generated files.
	UseProjectFolder bool
}

// NewPaths builds the storage view for a project directory, which may be
// empty when no project is saved.
func NewPaths(cfg *config.Config, projectDir string) Paths {
	p := Paths{ProjectDir: projectDir}
	if cfg != nil {
		p.GlobalDir = cfg.Proxy.Folder
		p.UseProjectFolder = cfg.Proxy.UseProjectFolder
	}
	return p
}

// Dir returns the directory new proxy files are written to, creating the
// project-local subfolder on demand.
func (p Paths) Dir() (string, error) {
	if p.UseProjectFolder && p.ProjectDir != "" {
		if info, err := os.Stat(p.ProjectDir); err == nil && info.IsDir() {
			sub := filepath.Join(p.ProjectDir, Subfolder)
			if err := os.MkdirAll(sub, 0o755); err != nil {
				return "", err
			}
			return sub, nil
		}
	}
	return p.GlobalDir, nil
}

// FindFinal returns the full path of the finished proxy when it exists in
// either candidate directory, project-local first.
func (p Paths) FindFinal(id Identity) (string, bool) {
	return p.find(id.FileName)
}

// FindPending returns the full path of the pending marker when it exists.
func (p Paths) FindPending(id Identity) (string, bool) {
	return p.find(id.PendingName)
}

// StateOf computes the lifecycle state for a proxy identity.
func (p Paths) StateOf(id Identity) State {
	if _, ok := p.FindFinal(id); ok {
		return StateProxied
	}
	if _, ok := p.FindPending(id); ok {
		return StatePending
	}
	return StateAbsent
}

func (p Paths) find(name string) (string, bool) {
	for _, dir := range p.candidates() {
		full := filepath.Join(dir, name)
		if fileutil.Exists(full) {
			return full, true
		}
	}
	return "", false
}

func (p Paths) candidates() []string {
	var dirs []string
	if p.ProjectDir != "" {
		dirs = append(dirs, filepath.Join(p.ProjectDir, Subfolder))
	}
	if p.GlobalDir != "" {
		dirs = append(dirs, p.GlobalDir)
	}
	return dirs
}
