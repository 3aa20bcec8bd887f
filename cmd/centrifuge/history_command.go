package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"centrifuge/internal/config"
	"centrifuge/internal/history"
	"centrifuge/internal/runner"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded scan and sort runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withRunner(nil, func(_ *config.Config, store *history.Store, _ *runner.Runner) error {
				runs, err := store.List(cmd.Context(), limit)
				if err != nil {
					return err
				}
				if jsonOutput {
					return writeJSON(cmd, map[string]any{"runs": runs})
				}

				rows := make([][]string, 0, len(runs))
				for _, run := range runs {
					completed := ""
					if run.CompletedAt != nil {
						completed = run.CompletedAt.Local().Format(time.DateTime)
					}
					rows = append(rows, []string{
						run.ID,
						run.Kind,
						run.Status,
						run.FolderName,
						run.StartedAt.Local().Format(time.DateTime),
						completed,
					})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"ID", "Kind", "Status", "Folder", "Started", "Completed"},
					rows, nil))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit machine-readable JSON output")
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of runs to list")

	cmd.AddCommand(newHistoryLogsCommand(ctx))
	return cmd
}

func newHistoryLogsCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "logs <run-id>",
		Short: "Show the progress log of one run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withRunner(nil, func(_ *config.Config, store *history.Store, _ *runner.Runner) error {
				logs, err := store.RunLogs(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if jsonOutput {
					return writeJSON(cmd, map[string]any{"logs": logs})
				}
				for _, entry := range logs {
					fmt.Fprintf(cmd.OutOrStdout(), "%s [%s] %s\n",
						entry.CreatedAt.Local().Format(time.DateTime), entry.Severity, entry.Message)
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit machine-readable JSON output")
	return cmd
}
