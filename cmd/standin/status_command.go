package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"standin/internal/deps"
	"standin/internal/preflight"
	"standin/internal/proxy"
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiBlue   = "\x1b[34m"

	statusLabelWidth = 20
	statusIndent     = "  "
)

func newStatusCommand(ctx *cliContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show configuration, proxy store usage, and dependency health",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			printSection(out, "Configuration", colorize)
			printPlainLine(out, "Config file", ctx.configPath)
			printPlainLine(out, "Proxy enabled", yesNo(cfg.Proxy.Enabled))
			printPlainLine(out, "Proxy folder", cfg.Proxy.Folder)
			printPlainLine(out, "Project proxies", yesNo(cfg.Proxy.UseProjectFolder))
			resolution := proxy.Resolution(cfg)
			printPlainLine(out, "Preview scale", fmt.Sprintf("%dp (proxy above %dpx)", resolution, proxy.Threshold(resolution)))
			printPlainLine(out, "Hardware encoding", yesNo(cfg.Encode.UseHardware))
			printPlainLine(out, "Job concurrency", fmt.Sprintf("%d", cfg.Jobs.Concurrency))
			history := cfg.Jobs.History
			if strings.TrimSpace(history) == "" {
				history = "disabled"
			}
			printPlainLine(out, "Job history", history)

			logger, err := ctx.logger(false)
			if err != nil {
				return err
			}
			cache := proxy.NewCache(cfg.Proxy.Folder, logger)
			stats, err := cache.Stats(cmd.Context())
			printSection(out, "Proxy store", colorize)
			if err != nil {
				printStatusLine(out, "Store", statusError, err.Error(), colorize)
			} else {
				printPlainLine(out, "Proxies", fmt.Sprintf("%d (%d pending), %s", stats.Entries, stats.Pending, humanBytes(stats.TotalBytes)))
				printPlainLine(out, "Disk free", fmt.Sprintf("%s (%.1f%%)", humanBytes(int64(stats.FreeBytes)), stats.FreeRatio*100))
			}

			printSection(out, "Dependencies", colorize)
			for _, status := range preflight.CheckSystemDeps(cfg) {
				printDepLine(out, status, colorize)
			}
			return nil
		},
	}
}

type statusKind int

const (
	statusOK statusKind = iota
	statusWarn
	statusError
)

func printSection(out io.Writer, title string, colorize bool) {
	line := fmt.Sprintf("== %s ==", title)
	if colorize {
		line = ansiBlue + line + ansiReset
	}
	fmt.Fprintln(out, line)
}

func printPlainLine(out io.Writer, label, value string) {
	fmt.Fprintf(out, "%s%-*s %s\n", statusIndent, statusLabelWidth, label+":", value)
}

func printStatusLine(out io.Writer, label string, kind statusKind, message string, colorize bool) {
	text := fmt.Sprintf("[%s] %s", statusKindLabel(kind), message)
	line := fmt.Sprintf("%s%-*s %s", statusIndent, statusLabelWidth, label+":", text)
	if colorize {
		line = statusKindColor(kind) + line + ansiReset
	}
	fmt.Fprintln(out, line)
}

func printDepLine(out io.Writer, status deps.Status, colorize bool) {
	switch {
	case status.Available:
		printStatusLine(out, status.Name, statusOK, status.Command, colorize)
	case status.Optional:
		printStatusLine(out, status.Name, statusWarn, status.Detail+" (optional)", colorize)
	default:
		printStatusLine(out, status.Name, statusError, status.Detail, colorize)
	}
}

func statusKindLabel(kind statusKind) string {
	switch kind {
	case statusOK:
		return "OK"
	case statusWarn:
		return "WARN"
	default:
		return "ERROR"
	}
}

func statusKindColor(kind statusKind) string {
	switch kind {
	case statusOK:
		return ansiGreen
	case statusWarn:
		return ansiYellow
	default:
		return ansiRed
	}
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
