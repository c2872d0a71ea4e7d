package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"graft/internal/format"
	"graft/internal/report"
)

var mergeFlags struct {
	skipReport bool
}

var mergeCmd = &cobra.Command{
	Use:   "merge",
	Short: "Merge pending run files into the cumulative summary",
	Long: "Consumes the run-*.json files left behind by finished test processes,\n" +
		"merges their events into summary.json, deletes the consumed files and\n" +
		"re-renders the HTML report.\n\n" +
		"Safe to invoke concurrently: the summary is rewritten under a file lock\n" +
		"and merging the same events twice is a no-op.",
	Args: cobra.NoArgs,
	RunE: runMerge,
}

func init() {
	mergeCmd.Flags().BoolVar(&mergeFlags.skipReport, "skip-report", false, "Merge without re-rendering the HTML report")
}

func runMerge(cmd *cobra.Command, _ []string) error {
	reportPath := ""
	if !mergeFlags.skipReport {
		reportPath = filepath.Join(cfg.ReportsDir, report.ReportFilename)
	}

	res, err := report.Aggregate(cmd.Context(), cfg.ReportsDir, reportPath)
	if err != nil {
		return err
	}

	tbl := format.NewTable(format.ASCII)
	tbl.Header("Metric", "Value")
	tbl.Columns(
		format.ColumnConfig{Number: 1, Align: format.AlignLeft},
		format.ColumnConfig{Number: 2, Align: format.AlignRight},
	)
	tbl.Row("Run files read", res.RunsRead)
	tbl.Row("Events merged", res.Merged)
	tbl.Row("Duplicates skipped", res.Duplicates)
	tbl.Row("Run files deleted", res.FilesDeleted)
	tbl.Row("Total attempts", res.Summary.TotalHealingAttempts)
	tbl.Row("Healed", res.Summary.SuccessfulHealing)
	tbl.Row("Failed", res.Summary.FailedHealing)

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "=== Merge ===")
	fmt.Fprintln(out, tbl.String())
	if res.ReportPath != "" {
		fmt.Fprintf(out, "Report: %s\n", res.ReportPath)
	}
	return nil
}
