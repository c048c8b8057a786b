package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"standin/internal/config"
	"standin/internal/proxy"
	"standin/internal/textutil"
)

const defaultStaleTTL = 24 * time.Hour

func newCacheCommand(ctx *cliContext) *cobra.Command {
	var dirFlag string

	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and maintain the proxy store",
	}
	cacheCmd.PersistentFlags().StringVar(&dirFlag, "dir", "", "Proxy directory to operate on (default: the configured folder)")

	cacheCmd.AddCommand(newCacheListCommand(ctx, &dirFlag))
	cacheCmd.AddCommand(newCacheCleanCommand(ctx, &dirFlag))
	cacheCmd.AddCommand(newCacheClearCommand(ctx, &dirFlag))

	return cacheCmd
}

func openCache(ctx *cliContext, dirFlag *string) (*proxy.Cache, error) {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return nil, err
	}
	dir := cfg.Proxy.Folder
	if dirFlag != nil && strings.TrimSpace(*dirFlag) != "" {
		if dir, err = config.ExpandPath(*dirFlag); err != nil {
			return nil, err
		}
	}
	logger, err := ctx.logger(false)
	if err != nil {
		return nil, err
	}
	return proxy.NewCache(dir, logger), nil
}

func newCacheListCommand(ctx *cliContext, dirFlag *string) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List proxy files and store usage",
		RunE: func(cmd *cobra.Command, args []string) error {
			cache, err := openCache(ctx, dirFlag)
			if err != nil {
				return err
			}
			entries, err := cache.List()
			if err != nil {
				return err
			}
			stats, err := cache.Stats(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Store: %s\n", cache.Root())
			fmt.Fprintf(out, "Usage: %d proxies (%d pending), %s; disk %.1f%% free\n",
				stats.Entries, stats.Pending, humanBytes(stats.TotalBytes), stats.FreeRatio*100)
			if len(entries) == 0 {
				fmt.Fprintln(out, "No proxy files")
				return nil
			}

			rows := make([][]string, 0, len(entries))
			for _, entry := range entries {
				rows = append(rows, []string{
					shortHash(entry.Hash),
					entry.Kind,
					textutil.Ternary(entry.Pending, "pending", "ready"),
					humanBytes(entry.SizeBytes),
					stamp(entry.ModifiedAt),
				})
			}
			renderTable(out, []string{"HASH", "KIND", "STATE", "SIZE", "MODIFIED"}, rows, 3)
			return nil
		},
	}
}

func newCacheCleanCommand(ctx *cliContext, dirFlag *string) *cobra.Command {
	var ttl time.Duration

	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Remove pending markers older than the stale threshold",
		Long: `Clean removes pending proxy files whose last write is older than --stale.
A running encoder keeps refreshing its output, so only markers left behind by
a crashed or killed run are removed. Finished proxies are never touched.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cache, err := openCache(ctx, dirFlag)
			if err != nil {
				return err
			}
			removed, err := cache.CleanStale(cmd.Context(), ttl)
			if err != nil {
				return err
			}
			if removed == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No stale pending markers")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d stale pending markers\n", removed)
			return nil
		},
	}
	cmd.Flags().DurationVar(&ttl, "stale", defaultStaleTTL, "Age after which a pending marker counts as stale")
	return cmd
}

func newCacheClearCommand(ctx *cliContext, dirFlag *string) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove every proxy file from the store",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !force {
				return fmt.Errorf("cache clear removes all proxies; re-run with --force to confirm")
			}
			cache, err := openCache(ctx, dirFlag)
			if err != nil {
				return err
			}
			removed, err := cache.Clear(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d proxy files from %s\n", removed, cache.Root())
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Confirm removing every proxy file")
	return cmd
}

func shortHash(hash string) string {
	if len(hash) > 12 {
		return hash[:12]
	}
	return hash
}
