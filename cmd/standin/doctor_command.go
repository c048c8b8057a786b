package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"standin/internal/config"
	"standin/internal/deps"
	"standin/internal/preflight"
)

func newDoctorCommand(ctx *cliContext) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check dependencies, directories, and hardware encoders",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			problems := 0
			warnings := 0

			printSection(out, "Dependencies", colorize)
			for _, status := range preflight.CheckSystemDeps(cfg) {
				printDepLine(out, status, colorize)
				if !status.Available {
					if status.Optional {
						warnings++
					} else {
						problems++
					}
				}
			}

			printSection(out, "Directories", colorize)
			for _, result := range preflight.RunAll(cmd.Context(), cfg) {
				if result.Name == "Hardware encoders" {
					continue
				}
				kind := statusOK
				if !result.Passed {
					kind = statusError
					problems++
				}
				printStatusLine(out, result.Name, kind, result.Detail, colorize)
			}

			printSection(out, "Hardware encoders", colorize)
			printHardwareReport(cmd.Context(), out, cfg, colorize)

			switch {
			case problems > 0:
				return fmt.Errorf("doctor found %d problem(s)", problems)
			case warnings > 0:
				fmt.Fprintf(out, "\nAll required checks passed, %d warning(s).\n", warnings)
			default:
				fmt.Fprintln(out, "\nAll checks passed.")
			}
			return nil
		},
	}
}

// printHardwareReport probes the installed ffmpeg for every known hardware
// encoder, not just the configured ones, so the report is useful before
// encode.use_hardware is switched on.
func printHardwareReport(ctx context.Context, out io.Writer, cfg *config.Config, colorize bool) {
	detectCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	found, err := deps.DetectHardwareEncoders(detectCtx, cfg.FFmpegBinary(), config.KnownHardwareEncoders)
	switch {
	case err != nil:
		printStatusLine(out, "Detection", statusWarn, fmt.Sprintf("failed (%v)", err), colorize)
	case len(found) == 0:
		printStatusLine(out, "Available", statusWarn, "none; video proxies will use libx264", colorize)
	default:
		printStatusLine(out, "Available", statusOK, strings.Join(found, ", "), colorize)
	}
	printPlainLine(out, "Enabled in config", yesNo(cfg.Encode.UseHardware))
	if cfg.Encode.UseHardware && len(cfg.Encode.Hardware) > 0 {
		printPlainLine(out, "Configured", strings.Join(cfg.Encode.Hardware, ", "))
	}
}
