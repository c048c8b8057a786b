package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"standin/internal/jobs"
)

func newJobsCommand(ctx *cliContext) *cobra.Command {
	var limit int

	jobsCmd := &cobra.Command{
		Use:   "jobs",
		Short: "Show recent transcode jobs from the journal",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openJournal(ctx)
			if err != nil {
				return err
			}
			if store == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "Job history is disabled (set jobs.history in the config)")
				return nil
			}
			defer store.Close()

			records, err := store.Recent(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(records) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No recorded jobs")
				return nil
			}

			rows := make([][]string, 0, len(records))
			for _, record := range records {
				rows = append(rows, []string{
					stamp(record.StartedAt),
					record.Label,
					string(record.Kind),
					string(record.Status),
					jobElapsed(record),
					record.ErrorMessage,
				})
			}
			renderTable(cmd.OutOrStdout(),
				[]string{"STARTED", "LABEL", "KIND", "STATUS", "TOOK", "ERROR"}, rows, 4)
			return nil
		},
	}
	jobsCmd.Flags().IntVar(&limit, "limit", 20, "Maximum journal rows to show (0 for all)")

	jobsCmd.AddCommand(newJobsClearCommand(ctx))
	return jobsCmd
}

func newJobsClearCommand(ctx *cliContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete all journal records",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openJournal(ctx)
			if err != nil {
				return err
			}
			if store == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "Job history is disabled; nothing to clear")
				return nil
			}
			defer store.Close()

			removed, err := store.Clear(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d journal records\n", removed)
			return nil
		},
	}
}

func openJournal(ctx *cliContext) (*jobs.Store, error) {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return nil, err
	}
	return jobs.Open(cfg.Jobs.History)
}

func jobElapsed(record jobs.Record) string {
	if record.FinishedAt.IsZero() || record.StartedAt.IsZero() {
		return ""
	}
	elapsed := record.FinishedAt.Sub(record.StartedAt)
	if elapsed < 0 {
		return ""
	}
	if elapsed < time.Second {
		return elapsed.Round(time.Millisecond).String()
	}
	return elapsed.Round(time.Second).String()
}
