package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"graft/internal/format"
	"graft/internal/report"
)

var reportFlags struct {
	format string
	html   string
}

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print the cumulative healing summary",
	Long: "Prints the merged healing summary: attempt counts plus the full change\n" +
		"log, newest first. Use --html to also write the standalone HTML report.",
	Args: cobra.NoArgs,
	RunE: runReport,
}

func init() {
	f := reportCmd.Flags()
	f.StringVar(&reportFlags.format, "format", "ascii", "Output format: ascii or markdown")
	f.StringVar(&reportFlags.html, "html", "", "Also write the HTML report to this path")
}

func runReport(cmd *cobra.Command, _ []string) error {
	mode, err := format.ParseMode(reportFlags.format)
	if err != nil {
		return err
	}

	sum, err := report.ReadSummary(cfg.ReportsDir)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if sum == nil {
		fmt.Fprintf(out, "No summary at %s yet. Run 'graft merge' after a test run.\n",
			filepath.Join(cfg.ReportsDir, report.SummaryFilename))
		return nil
	}

	fmt.Fprint(out, report.FormatSummary(sum, mode))

	if reportFlags.html != "" {
		html, err := report.RenderHTML(sum)
		if err != nil {
			return err
		}
		if err := os.WriteFile(reportFlags.html, html, 0644); err != nil {
			return fmt.Errorf("write html report: %w", err)
		}
		fmt.Fprintf(out, "HTML report: %s\n", reportFlags.html)
	}
	return nil
}
