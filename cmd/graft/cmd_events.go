package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"graft/internal/format"
	"graft/internal/report"
)

var eventsFlags struct {
	test    string
	locator string
	failed  bool
	limit   int
	format  string
}

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "List healing events from the cumulative summary",
	Long: "Lists individual healing events, newest first. Filters narrow by test\n" +
		"name substring, original locator substring, or failures only.",
	Args: cobra.NoArgs,
	RunE: runEvents,
}

func init() {
	f := eventsCmd.Flags()
	f.StringVar(&eventsFlags.test, "test", "", "Only events whose test name contains this substring")
	f.StringVar(&eventsFlags.locator, "locator", "", "Only events whose original locator contains this substring")
	f.BoolVar(&eventsFlags.failed, "failed", false, "Only events where healing failed")
	f.IntVar(&eventsFlags.limit, "limit", 20, "Maximum events to show, 0 for all")
	f.StringVar(&eventsFlags.format, "format", "ascii", "Output format: ascii or markdown")
}

func runEvents(cmd *cobra.Command, _ []string) error {
	mode, err := format.ParseMode(eventsFlags.format)
	if err != nil {
		return err
	}

	sum, err := report.ReadSummary(cfg.ReportsDir)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if sum == nil || len(sum.Changes) == 0 {
		fmt.Fprintln(out, "No healing events recorded.")
		return nil
	}

	var matched []report.Event
	for _, ev := range sum.Changes {
		if eventsFlags.test != "" && !strings.Contains(ev.TestName, eventsFlags.test) {
			continue
		}
		if eventsFlags.locator != "" && !strings.Contains(ev.OriginalLocator, eventsFlags.locator) {
			continue
		}
		if eventsFlags.failed && ev.Success {
			continue
		}
		matched = append(matched, ev)
	}
	if len(matched) == 0 {
		fmt.Fprintln(out, "No events match the filters.")
		return nil
	}

	// Changes are stored in merge order; keep the newest N for display.
	shown := matched
	if eventsFlags.limit > 0 && len(matched) > eventsFlags.limit {
		shown = matched[len(matched)-eventsFlags.limit:]
	}

	fmt.Fprintln(out, report.FormatEvents(shown, mode))
	if len(shown) < len(matched) {
		fmt.Fprintf(out, "Showing %d of %d matching events.\n", len(shown), len(matched))
	}
	return nil
}
