package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"centrifuge/internal/config"
	"centrifuge/internal/history"
	"centrifuge/internal/report"
	"centrifuge/internal/runner"
)

func newScanCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "scan [folder]",
		Short: "Find orphaned capture files and move them into the isolation folder",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var sink report.Sink
			if !jsonOutput {
				sink = newProgressSink(cmd.OutOrStdout())
			}
			return ctx.withRunner(sink, func(cfg *config.Config, _ *history.Store, r *runner.Runner) error {
				root := cfg.Paths.DataDir
				if len(args) == 1 {
					root = resolveFolder(cfg, args[0])
				}

				runID, result, err := r.Scan(cmd.Context(), root)
				if err != nil {
					return err
				}
				if jsonOutput {
					return writeJSON(cmd, map[string]any{"task_id": runID, "result": result})
				}

				isolation := result.TargetFolder
				if isolation == "" {
					isolation = "(none)"
				}
				rows := [][]string{
					{"Orphans found", strconv.Itoa(result.Found)},
					{"Capture files examined", strconv.Itoa(result.Processed)},
					{"Folders checked", strconv.Itoa(result.FoldersChecked)},
					{"Isolation folder", isolation},
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"Metric", "Value"}, rows,
					[]columnAlignment{alignLeft, alignRight}))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit machine-readable JSON output")
	return cmd
}
