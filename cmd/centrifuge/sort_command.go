package main

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"centrifuge/internal/config"
	"centrifuge/internal/history"
	"centrifuge/internal/report"
	"centrifuge/internal/runner"
)

func newSortCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool
	var outputDir string

	cmd := &cobra.Command{
		Use:   "sort [folder]",
		Short: "Classify instrument exports and write partitioned xlsx workbooks",
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

				runID, outcome, err := r.Sort(cmd.Context(), root, outputDir)
				if err != nil {
					return err
				}
				if jsonOutput {
					return writeJSON(cmd, map[string]any{"task_id": runID, "result": outcome})
				}

				rep := outcome.Report
				rows := [][]string{
					{"Files processed", strconv.Itoa(rep.Total)},
					{"Structured", strconv.Itoa(rep.Structured)},
					{"Unstructured", strconv.Itoa(rep.Unstructured)},
					{"Incomplete", strconv.Itoa(rep.Incomplete)},
					{"Read errors", strconv.Itoa(rep.ReadErrors)},
					{"Write errors", strconv.Itoa(rep.WriteErrors)},
					{"Output folder", outcome.OutputFolder},
				}
				out := cmd.OutOrStdout()
				fmt.Fprintln(out, renderTable(
					[]string{"Metric", "Value"}, rows,
					[]columnAlignment{alignLeft, alignRight}))

				if len(rep.Categories) > 0 {
					keys := make([]string, 0, len(rep.Categories))
					for key := range rep.Categories {
						keys = append(keys, key)
					}
					sort.Strings(keys)
					catRows := make([][]string, 0, len(keys))
					for _, key := range keys {
						catRows = append(catRows, []string{key, strconv.Itoa(rep.Categories[key])})
					}
					fmt.Fprintln(out, renderTable(
						[]string{"Category", "Files"}, catRows,
						[]columnAlignment{alignLeft, alignRight}))
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit machine-readable JSON output")
	cmd.Flags().StringVar(&outputDir, "output", "", "Write results under this folder instead of the mirrored results folder")
	return cmd
}
