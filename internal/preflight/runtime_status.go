package preflight

import (
	"context"
	"fmt"
	"strings"
	"time"

	"standin/internal/config"
	"standin/internal/deps"
)

// CheckHardwareEncodersFromConfig evaluates hardware encoder status from
// config and the installed ffmpeg build.
func CheckHardwareEncodersFromConfig(ctx context.Context, cfg *config.Config) Result {
	const name = "Hardware encoders"

	if cfg == nil {
		return Result{Name: name, Detail: "Unknown"}
	}
	if !cfg.Encode.UseHardware {
		return Result{Name: name, Passed: true, Detail: "Disabled"}
	}

	candidates := cfg.Encode.Hardware
	if len(candidates) == 0 {
		candidates = config.KnownHardwareEncoders
	}

	checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	found, err := deps.DetectHardwareEncoders(checkCtx, cfg.FFmpegBinary(), candidates)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("detection failed (%v)", err)}
	}
	if len(found) == 0 {
		return Result{Name: name, Detail: "none of the configured encoders are available; jobs will fall back to libx264"}
	}
	return Result{Name: name, Passed: true, Detail: strings.Join(found, ", ")}
}
