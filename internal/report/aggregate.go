package report

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	"golang.org/x/sync/errgroup"

	"graft/internal/logging"
)

// readLimit bounds concurrent run-file reads during aggregation.
const readLimit = 8

// AggregateResult reports what one aggregation pass did.
type AggregateResult struct {
	Summary      *Summary
	RunsRead     int
	Merged       int
	Duplicates   int
	FilesDeleted int
	ReportPath   string
}

// Aggregate merges every run-scoped file under dir into the cumulative
// summary, rewrites it, deletes the consumed files and the stale rendered
// report, and renders a fresh one at reportPath (skipped when empty).
//
// The whole read-modify-write cycle holds an advisory file lock so that
// aggregators racing from parallel workers cannot lose each other's merges.
// Identity-key dedup makes the merge idempotent: if a prior pass crashed
// after writing the summary but before deleting its inputs, re-reading the
// same run file adds nothing.
func Aggregate(ctx context.Context, dir, reportPath string) (*AggregateResult, error) {
	logger := logging.New("aggregator")

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create reports dir: %w", err)
	}

	lock := flock.New(filepath.Join(dir, "summary.lock"))
	if err := lock.Lock(); err != nil {
		return nil, fmt.Errorf("acquire summary lock: %w", err)
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			logger.Warn("failed to release summary lock", "error", err)
		}
	}()

	names, err := ListRunFiles(dir)
	if err != nil {
		return nil, err
	}

	// Read run files concurrently; a corrupt or vanished file is consumed
	// as empty rather than blocking the merge.
	batches := make([][]Event, len(names))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(readLimit)
	for i, name := range names {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			data, err := os.ReadFile(filepath.Join(dir, name))
			if err != nil {
				logger.Warn("skipping unreadable run file", "file", name, "error", err)
				return nil
			}
			var events []Event
			if err := json.Unmarshal(data, &events); err != nil {
				logger.Warn("skipping malformed run file", "file", name, "error", err)
				return nil
			}
			batches[i] = events
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	summary, err := ReadSummary(dir)
	if err != nil {
		logger.Warn("cumulative summary unreadable, starting empty", "error", err)
	}
	if summary == nil {
		summary = &Summary{}
	}

	res := &AggregateResult{Summary: summary, RunsRead: len(names)}
	for _, events := range batches {
		added := summary.Merge(events)
		res.Merged += added
		res.Duplicates += len(events) - added
	}
	summary.Recount()

	if err := WriteArtifact(dir, SummaryFilename, summary); err != nil {
		return nil, err
	}

	for _, name := range names {
		if err := os.Remove(filepath.Join(dir, name)); err != nil {
			logger.Warn("failed to delete consumed run file", "file", name, "error", err)
			continue
		}
		res.FilesDeleted++
	}

	if reportPath != "" {
		// Drop the stale render first: if rendering fails, an outdated
		// report must not survive next to the new summary.
		if err := os.Remove(reportPath); err != nil && !os.IsNotExist(err) {
			logger.Warn("failed to delete stale report", "path", reportPath, "error", err)
		}
		html, err := RenderHTML(summary)
		if err != nil {
			return nil, fmt.Errorf("render report: %w", err)
		}
		if err := os.WriteFile(reportPath, html, 0644); err != nil {
			return nil, fmt.Errorf("write report: %w", err)
		}
		res.ReportPath = reportPath
	}

	logger.Info("aggregation complete",
		"runs", res.RunsRead, "merged", res.Merged, "duplicates", res.Duplicates,
		"attempts", summary.TotalHealingAttempts, "succeeded", summary.SuccessfulHealing)
	return res, nil
}
