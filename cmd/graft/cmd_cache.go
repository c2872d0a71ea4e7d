package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"graft/internal/format"
	"graft/internal/report"
)

var cacheFlags struct {
	format string
}

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Print the live locator mappings",
	Long: "Shows the original-to-healed mappings a new test process seeds its\n" +
		"candidate cache from: every successfully healed locator in the summary,\n" +
		"last healing wins.",
	Args: cobra.NoArgs,
	RunE: runCache,
}

func init() {
	cacheCmd.Flags().StringVar(&cacheFlags.format, "format", "ascii", "Output format: ascii or markdown")
}

func runCache(cmd *cobra.Command, _ []string) error {
	mode, err := format.ParseMode(cacheFlags.format)
	if err != nil {
		return err
	}

	sum, err := report.ReadSummary(cfg.ReportsDir)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if sum == nil {
		fmt.Fprintln(out, "No summary yet; the cache starts empty.")
		return nil
	}
	mappings := sum.LiveMappings()
	if len(mappings) == 0 {
		fmt.Fprintln(out, "No live mappings; the cache starts empty.")
		return nil
	}

	tbl := format.NewTable(mode)
	tbl.Header("Original", "Healed")
	tbl.Columns(
		format.ColumnConfig{Number: 1, Align: format.AlignLeft, MaxWidth: 60},
		format.ColumnConfig{Number: 2, Align: format.AlignLeft, MaxWidth: 60},
	)
	for _, m := range mappings {
		tbl.Row(m.OriginalLocator, m.HealedLocator)
	}
	fmt.Fprintln(out, tbl.String())
	fmt.Fprintf(out, "%d live mapping(s)\n", len(mappings))
	return nil
}
