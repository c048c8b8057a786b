package preflight

import (
	"context"
	"path/filepath"

	"standin/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes all applicable preflight checks for the given config.
// Checks are only run when the corresponding feature is enabled.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result

	// Proxy storage directory (always checked)
	results = append(results, CheckDirectoryAccess("Proxy directory", cfg.Proxy.Folder))

	// Job history database directory (when history is enabled)
	if cfg.Jobs.History != "" {
		results = append(results, CheckDirectoryAccess("Job history directory", filepath.Dir(cfg.Jobs.History)))
	}

	// Hardware encoders (when hardware encoding is enabled)
	if cfg.Encode.UseHardware {
		results = append(results, CheckHardwareEncodersFromConfig(ctx, cfg))
	}

	return results
}
