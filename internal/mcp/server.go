// Package mcp exposes the healing artifacts over the Model Context Protocol
// so coding agents can inspect summaries, trigger merges and pre-check
// locator candidates without shelling out to the CLI.
package mcp

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"graft/internal/config"
	"graft/internal/locator"
	"graft/internal/report"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// DefaultEventLimit caps healing_events responses unless the caller asks for
// more.
var DefaultEventLimit = 20

// Server wraps the MCP SDK server over the reports directory.
type Server struct {
	MCPServer *sdkmcp.Server

	cfg *config.Config
}

// NewServer creates an MCP server exposing the healing summary, event log,
// cache mappings, the aggregator and the locator grammar.
func NewServer(cfg *config.Config) *Server {
	if cfg == nil {
		cfg = config.Default()
	}
	s := &Server{cfg: cfg}
	s.MCPServer = sdkmcp.NewServer(
		&sdkmcp.Implementation{Name: "graft", Version: "dev"},
		nil,
	)
	s.registerTools()
	return s
}

func (s *Server) registerTools() {
	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "healing_summary",
		Description: "Get the cumulative healing summary: totals, success/failure split, last update time.",
	}, s.handleHealingSummary)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "healing_events",
		Description: "List healing events from the cumulative summary, newest first, with optional filters.",
	}, s.handleHealingEvents)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "cache_mappings",
		Description: "List the live original→healed locator mappings, exactly what a new run seeds its cache from.",
	}, s.handleCacheMappings)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "merge_runs",
		Description: "Merge pending run files into the cumulative summary and re-render the HTML report.",
	}, s.handleMergeRuns)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "parse_locator",
		Description: "Check a locator expression against the healing grammar. Returns the canonical form or the rejection reason.",
	}, s.handleParseLocator)
}

// --- Tool input/output types ---

type healingSummaryInput struct{}

type healingSummaryOutput struct {
	Exists               bool   `json:"exists"`
	TotalTests           int    `json:"total_tests"`
	TotalHealingAttempts int    `json:"total_healing_attempts"`
	SuccessfulHealing    int    `json:"successful_healing"`
	FailedHealing        int    `json:"failed_healing"`
	Timestamp            string `json:"timestamp,omitempty"`
	SummaryPath          string `json:"summary_path"`
}

type healingEventsInput struct {
	Test    string `json:"test,omitempty" jsonschema:"substring match on the test name"`
	Locator string `json:"locator,omitempty" jsonschema:"substring match on the original locator"`
	Failed  bool   `json:"failed,omitempty" jsonschema:"only events where healing failed"`
	Limit   int    `json:"limit,omitempty" jsonschema:"max events to return (default 20)"`
}

type healingEventsOutput struct {
	Events []report.Event `json:"events"`
	Shown  int            `json:"shown"`
	Total  int            `json:"total"`
}

type cacheMappingsInput struct{}

type cacheMappingsOutput struct {
	Mappings []report.Mapping `json:"mappings"`
	Total    int              `json:"total"`
}

type mergeRunsInput struct {
	SkipReport bool `json:"skip_report,omitempty" jsonschema:"merge without re-rendering the HTML report"`
}

type mergeRunsOutput struct {
	RunsRead             int    `json:"runs_read"`
	Merged               int    `json:"merged"`
	Duplicates           int    `json:"duplicates"`
	FilesDeleted         int    `json:"files_deleted"`
	TotalHealingAttempts int    `json:"total_healing_attempts"`
	ReportPath           string `json:"report_path,omitempty"`
}

type parseLocatorInput struct {
	Expression string `json:"expression" jsonschema:"locator expression to check"`
}

type parseLocatorOutput struct {
	Valid     bool   `json:"valid"`
	Kind      string `json:"kind,omitempty"`
	Value     string `json:"value,omitempty"`
	Name      string `json:"name,omitempty"`
	Exact     bool   `json:"exact,omitempty"`
	Canonical string `json:"canonical,omitempty"`
	Error     string `json:"error,omitempty"`
}

// --- Tool handlers ---

func (s *Server) handleHealingSummary(_ context.Context, _ *sdkmcp.CallToolRequest, _ healingSummaryInput) (*sdkmcp.CallToolResult, healingSummaryOutput, error) {
	out := healingSummaryOutput{
		SummaryPath: filepath.Join(s.cfg.ReportsDir, report.SummaryFilename),
	}
	sum, err := report.ReadSummary(s.cfg.ReportsDir)
	if err != nil {
		return nil, healingSummaryOutput{}, fmt.Errorf("healing_summary: %w", err)
	}
	if sum == nil {
		return nil, out, nil
	}
	out.Exists = true
	out.TotalTests = sum.TotalTests
	out.TotalHealingAttempts = sum.TotalHealingAttempts
	out.SuccessfulHealing = sum.SuccessfulHealing
	out.FailedHealing = sum.FailedHealing
	out.Timestamp = sum.Timestamp
	return nil, out, nil
}

func (s *Server) handleHealingEvents(_ context.Context, _ *sdkmcp.CallToolRequest, input healingEventsInput) (*sdkmcp.CallToolResult, healingEventsOutput, error) {
	sum, err := report.ReadSummary(s.cfg.ReportsDir)
	if err != nil {
		return nil, healingEventsOutput{}, fmt.Errorf("healing_events: %w", err)
	}
	if sum == nil {
		return nil, healingEventsOutput{Events: []report.Event{}}, nil
	}

	var matched []report.Event
	for _, ev := range sum.Changes {
		if input.Test != "" && !strings.Contains(ev.TestName, input.Test) {
			continue
		}
		if input.Locator != "" && !strings.Contains(ev.OriginalLocator, input.Locator) {
			continue
		}
		if input.Failed && ev.Success {
			continue
		}
		matched = append(matched, ev)
	}

	limit := input.Limit
	if limit <= 0 {
		limit = DefaultEventLimit
	}

	// Newest first: changes are stored in merge order.
	out := healingEventsOutput{Total: len(matched), Events: []report.Event{}}
	for i := len(matched) - 1; i >= 0 && len(out.Events) < limit; i-- {
		out.Events = append(out.Events, matched[i])
	}
	out.Shown = len(out.Events)
	return nil, out, nil
}

func (s *Server) handleCacheMappings(_ context.Context, _ *sdkmcp.CallToolRequest, _ cacheMappingsInput) (*sdkmcp.CallToolResult, cacheMappingsOutput, error) {
	sum, err := report.ReadSummary(s.cfg.ReportsDir)
	if err != nil {
		return nil, cacheMappingsOutput{}, fmt.Errorf("cache_mappings: %w", err)
	}
	out := cacheMappingsOutput{Mappings: []report.Mapping{}}
	if sum != nil {
		out.Mappings = sum.LiveMappings()
		out.Total = len(out.Mappings)
	}
	return nil, out, nil
}

func (s *Server) handleMergeRuns(ctx context.Context, _ *sdkmcp.CallToolRequest, input mergeRunsInput) (*sdkmcp.CallToolResult, mergeRunsOutput, error) {
	reportPath := ""
	if !input.SkipReport {
		reportPath = filepath.Join(s.cfg.ReportsDir, report.ReportFilename)
	}
	res, err := report.Aggregate(ctx, s.cfg.ReportsDir, reportPath)
	if err != nil {
		return nil, mergeRunsOutput{}, fmt.Errorf("merge_runs: %w", err)
	}
	return nil, mergeRunsOutput{
		RunsRead:             res.RunsRead,
		Merged:               res.Merged,
		Duplicates:           res.Duplicates,
		FilesDeleted:         res.FilesDeleted,
		TotalHealingAttempts: res.Summary.TotalHealingAttempts,
		ReportPath:           res.ReportPath,
	}, nil
}

func (s *Server) handleParseLocator(_ context.Context, _ *sdkmcp.CallToolRequest, input parseLocatorInput) (*sdkmcp.CallToolResult, parseLocatorOutput, error) {
	loc, err := locator.Parse(input.Expression)
	if err != nil {
		return nil, parseLocatorOutput{Valid: false, Error: err.Error()}, nil
	}
	return nil, parseLocatorOutput{
		Valid:     true,
		Kind:      loc.Kind.String(),
		Value:     loc.Value,
		Name:      loc.Name,
		Exact:     loc.Exact,
		Canonical: loc.String(),
	}, nil
}
