package mcp_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"graft/internal/config"
	mcpserver "graft/internal/mcp"
	"graft/internal/report"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

func TestMain(m *testing.M) {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelError,
	})))
	os.Exit(m.Run())
}

func newTestServer(t *testing.T) (*mcpserver.Server, *config.Config) {
	t.Helper()
	cfg := config.Default()
	cfg.ReportsDir = t.TempDir()
	return mcpserver.NewServer(cfg), cfg
}

func connectInMemory(t *testing.T, ctx context.Context, srv *mcpserver.Server) *sdkmcp.ClientSession {
	t.Helper()
	t1, t2 := sdkmcp.NewInMemoryTransports()
	serverSession, err := srv.MCPServer.Connect(ctx, t1, nil)
	if err != nil {
		t.Fatalf("server.Connect: %v", err)
	}
	t.Cleanup(func() { serverSession.Close() })

	client := sdkmcp.NewClient(&sdkmcp.Implementation{Name: "test-client", Version: "v0.0.1"}, nil)
	session, err := client.Connect(ctx, t2, nil)
	if err != nil {
		t.Fatalf("client.Connect: %v", err)
	}
	t.Cleanup(func() { session.Close() })
	return session
}

func callTool(t *testing.T, ctx context.Context, session *sdkmcp.ClientSession, name string, args map[string]any) map[string]any {
	t.Helper()
	res, err := session.CallTool(ctx, &sdkmcp.CallToolParams{
		Name:      name,
		Arguments: args,
	})
	if err != nil {
		t.Fatalf("CallTool(%s): %v", name, err)
	}
	if res.IsError {
		for _, c := range res.Content {
			if tc, ok := c.(*sdkmcp.TextContent); ok {
				t.Fatalf("CallTool(%s) returned error: %s", name, tc.Text)
			}
		}
		t.Fatalf("CallTool(%s) returned error", name)
	}
	result := make(map[string]any)
	for _, c := range res.Content {
		if tc, ok := c.(*sdkmcp.TextContent); ok {
			if err := json.Unmarshal([]byte(tc.Text), &result); err != nil {
				t.Fatalf("unmarshal tool result: %v (text: %s)", err, tc.Text)
			}
			return result
		}
	}
	t.Fatalf("no text content in tool result")
	return nil
}

// writeSummary stores a summary with consistent counts in the reports dir.
func writeSummary(t *testing.T, cfg *config.Config, events ...report.Event) {
	t.Helper()
	sum := &report.Summary{Changes: events}
	sum.Recount()
	if err := report.WriteArtifact(cfg.ReportsDir, report.SummaryFilename, sum); err != nil {
		t.Fatalf("write summary: %v", err)
	}
}

func TestServer_ToolDiscovery(t *testing.T) {
	srv, _ := newTestServer(t)
	ctx := context.Background()
	session := connectInMemory(t, ctx, srv)

	tools, err := session.ListTools(ctx, nil)
	if err != nil {
		t.Fatalf("ListTools: %v", err)
	}

	want := map[string]bool{
		"healing_summary": false,
		"healing_events":  false,
		"cache_mappings":  false,
		"merge_runs":      false,
		"parse_locator":   false,
	}
	for _, tool := range tools.Tools {
		if _, ok := want[tool.Name]; ok {
			want[tool.Name] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("tool %q not found in ListTools", name)
		}
	}
}

func TestServer_HealingSummary_NoSummaryYet(t *testing.T) {
	srv, cfg := newTestServer(t)
	ctx := context.Background()
	session := connectInMemory(t, ctx, srv)

	res := callTool(t, ctx, session, "healing_summary", nil)
	if exists, _ := res["exists"].(bool); exists {
		t.Fatalf("expected exists=false on fresh dir, got %v", res)
	}
	wantPath := filepath.Join(cfg.ReportsDir, report.SummaryFilename)
	if got, _ := res["summary_path"].(string); got != wantPath {
		t.Errorf("summary_path = %q, want %q", got, wantPath)
	}
}

func TestServer_HealingSummary_ReportsCounts(t *testing.T) {
	srv, cfg := newTestServer(t)
	writeSummary(t, cfg,
		report.Event{Timestamp: "t1", TestName: "checkout", OriginalLocator: "#a", HealedLocator: "byText('A')", Success: true},
		report.Event{Timestamp: "t2", TestName: "checkout", OriginalLocator: "#b", Success: false},
		report.Event{Timestamp: "t3", TestName: "login", OriginalLocator: "#c", HealedLocator: "byText('C')", Success: true},
	)

	ctx := context.Background()
	session := connectInMemory(t, ctx, srv)
	res := callTool(t, ctx, session, "healing_summary", nil)

	if exists, _ := res["exists"].(bool); !exists {
		t.Fatalf("expected exists=true, got %v", res)
	}
	if got, _ := res["total_tests"].(float64); got != 2 {
		t.Errorf("total_tests = %v, want 2", got)
	}
	if got, _ := res["total_healing_attempts"].(float64); got != 3 {
		t.Errorf("total_healing_attempts = %v, want 3", got)
	}
	if got, _ := res["successful_healing"].(float64); got != 2 {
		t.Errorf("successful_healing = %v, want 2", got)
	}
	if got, _ := res["failed_healing"].(float64); got != 1 {
		t.Errorf("failed_healing = %v, want 1", got)
	}
}

func TestServer_HealingSummary_CorruptFileIsToolError(t *testing.T) {
	srv, cfg := newTestServer(t)
	path := filepath.Join(cfg.ReportsDir, report.SummaryFilename)
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatalf("write corrupt summary: %v", err)
	}

	ctx := context.Background()
	session := connectInMemory(t, ctx, srv)

	res, err := session.CallTool(ctx, &sdkmcp.CallToolParams{Name: "healing_summary"})
	if err != nil {
		t.Fatalf("expected tool error, got transport error: %v", err)
	}
	if !res.IsError {
		t.Fatal("expected IsError=true for corrupt summary")
	}
}

func TestServer_HealingEvents_NewestFirstWithLimit(t *testing.T) {
	srv, cfg := newTestServer(t)
	writeSummary(t, cfg,
		report.Event{Timestamp: "t1", TestName: "a", OriginalLocator: "#one", Success: true},
		report.Event{Timestamp: "t2", TestName: "b", OriginalLocator: "#two", Success: true},
		report.Event{Timestamp: "t3", TestName: "c", OriginalLocator: "#three", Success: false},
	)

	ctx := context.Background()
	session := connectInMemory(t, ctx, srv)
	res := callTool(t, ctx, session, "healing_events", map[string]any{"limit": 2})

	if got, _ := res["total"].(float64); got != 3 {
		t.Errorf("total = %v, want 3", got)
	}
	if got, _ := res["shown"].(float64); got != 2 {
		t.Errorf("shown = %v, want 2", got)
	}
	events, _ := res["events"].([]any)
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
	first, _ := events[0].(map[string]any)
	if first["originalLocator"] != "#three" {
		t.Errorf("first event = %v, want newest (#three)", first["originalLocator"])
	}
}

func TestServer_HealingEvents_Filters(t *testing.T) {
	srv, cfg := newTestServer(t)
	writeSummary(t, cfg,
		report.Event{Timestamp: "t1", TestName: "checkout flow", OriginalLocator: "#pay", Success: true},
		report.Event{Timestamp: "t2", TestName: "checkout flow", OriginalLocator: "#cancel", Success: false},
		report.Event{Timestamp: "t3", TestName: "login", OriginalLocator: "#pay-later", Success: false},
	)

	ctx := context.Background()
	session := connectInMemory(t, ctx, srv)

	res := callTool(t, ctx, session, "healing_events", map[string]any{"test": "checkout", "failed": true})
	events, _ := res["events"].([]any)
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1: %v", len(events), res)
	}
	ev, _ := events[0].(map[string]any)
	if ev["originalLocator"] != "#cancel" {
		t.Errorf("event = %v, want #cancel", ev["originalLocator"])
	}

	res = callTool(t, ctx, session, "healing_events", map[string]any{"locator": "#pay"})
	if got, _ := res["total"].(float64); got != 2 {
		t.Errorf("locator filter total = %v, want 2", got)
	}
}

func TestServer_HealingEvents_EmptyDirYieldsEmptyList(t *testing.T) {
	srv, _ := newTestServer(t)
	ctx := context.Background()
	session := connectInMemory(t, ctx, srv)

	res := callTool(t, ctx, session, "healing_events", nil)
	events, ok := res["events"].([]any)
	if !ok {
		t.Fatalf("expected events array, got %v", res["events"])
	}
	if len(events) != 0 {
		t.Errorf("got %d events, want 0", len(events))
	}
}

func TestServer_CacheMappings_LastWriteWins(t *testing.T) {
	srv, cfg := newTestServer(t)
	writeSummary(t, cfg,
		report.Event{Timestamp: "t1", TestName: "a", OriginalLocator: "#save", HealedLocator: "byText('Save')", Success: true},
		report.Event{Timestamp: "t2", TestName: "a", OriginalLocator: "#save", HealedLocator: "byRole('button', {name: 'Save'})", Success: true},
		report.Event{Timestamp: "t3", TestName: "b", OriginalLocator: "#exhausted", Success: false},
	)

	ctx := context.Background()
	session := connectInMemory(t, ctx, srv)
	res := callTool(t, ctx, session, "cache_mappings", nil)

	if got, _ := res["total"].(float64); got != 1 {
		t.Fatalf("total = %v, want 1: %v", got, res)
	}
	mappings, _ := res["mappings"].([]any)
	m, _ := mappings[0].(map[string]any)
	if m["originalLocator"] != "#save" {
		t.Errorf("originalLocator = %v, want #save", m["originalLocator"])
	}
	if m["healedLocator"] != "byRole('button', {name: 'Save'})" {
		t.Errorf("healedLocator = %v, want the later healing", m["healedLocator"])
	}
}

func TestServer_MergeRuns_ConsumesRunFiles(t *testing.T) {
	srv, cfg := newTestServer(t)

	rec := report.NewRecorder(cfg.ReportsDir)
	rec.Record(report.Event{Timestamp: "t1", TestName: "checkout", OriginalLocator: "#a", HealedLocator: "byText('A')", Success: true})
	rec.Record(report.Event{Timestamp: "t2", TestName: "checkout", OriginalLocator: "#b", Success: false})
	if _, err := rec.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}

	ctx := context.Background()
	session := connectInMemory(t, ctx, srv)

	res := callTool(t, ctx, session, "merge_runs", map[string]any{"skip_report": true})
	if got, _ := res["runs_read"].(float64); got != 1 {
		t.Errorf("runs_read = %v, want 1", got)
	}
	if got, _ := res["merged"].(float64); got != 2 {
		t.Errorf("merged = %v, want 2", got)
	}
	if got, _ := res["files_deleted"].(float64); got != 1 {
		t.Errorf("files_deleted = %v, want 1", got)
	}
	if got, _ := res["total_healing_attempts"].(float64); got != 2 {
		t.Errorf("total_healing_attempts = %v, want 2", got)
	}
	if path, ok := res["report_path"].(string); ok && path != "" {
		t.Errorf("report_path = %q, want empty with skip_report", path)
	}

	// Run files are consumed: a second merge reads nothing and changes nothing.
	res = callTool(t, ctx, session, "merge_runs", map[string]any{"skip_report": true})
	if got, _ := res["runs_read"].(float64); got != 0 {
		t.Errorf("second merge runs_read = %v, want 0", got)
	}
	if got, _ := res["total_healing_attempts"].(float64); got != 2 {
		t.Errorf("second merge total = %v, want 2", got)
	}
}

func TestServer_MergeRuns_RendersReport(t *testing.T) {
	srv, cfg := newTestServer(t)

	rec := report.NewRecorder(cfg.ReportsDir)
	rec.Record(report.Event{Timestamp: "t1", TestName: "checkout", OriginalLocator: "#a", HealedLocator: "byText('A')", Success: true})
	if _, err := rec.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}

	ctx := context.Background()
	session := connectInMemory(t, ctx, srv)
	res := callTool(t, ctx, session, "merge_runs", nil)

	wantPath := filepath.Join(cfg.ReportsDir, report.ReportFilename)
	if got, _ := res["report_path"].(string); got != wantPath {
		t.Fatalf("report_path = %q, want %q", got, wantPath)
	}
	if _, err := os.Stat(wantPath); err != nil {
		t.Errorf("rendered report missing: %v", err)
	}
}

func TestServer_ParseLocator_CanonicalForm(t *testing.T) {
	srv, _ := newTestServer(t)
	ctx := context.Background()
	session := connectInMemory(t, ctx, srv)

	res := callTool(t, ctx, session, "parse_locator", map[string]any{
		"expression": "getByRole('button', { name: 'Send', exact: true })",
	})
	if valid, _ := res["valid"].(bool); !valid {
		t.Fatalf("expected valid=true, got %v", res)
	}
	if res["kind"] != "role" {
		t.Errorf("kind = %v, want role", res["kind"])
	}
	if res["value"] != "button" {
		t.Errorf("value = %v, want button", res["value"])
	}
	if res["name"] != "Send" {
		t.Errorf("name = %v, want Send", res["name"])
	}
	if exact, _ := res["exact"].(bool); !exact {
		t.Error("expected exact=true")
	}
	if res["canonical"] != "byRole('button', {name: 'Send', exact: true})" {
		t.Errorf("canonical = %v", res["canonical"])
	}
}

func TestServer_ParseLocator_RejectsUnknownConstructor(t *testing.T) {
	srv, _ := newTestServer(t)
	ctx := context.Background()
	session := connectInMemory(t, ctx, srv)

	res := callTool(t, ctx, session, "parse_locator", map[string]any{
		"expression": "byMagic('send')",
	})
	if valid, _ := res["valid"].(bool); valid {
		t.Fatalf("expected valid=false, got %v", res)
	}
	if msg, _ := res["error"].(string); msg == "" {
		t.Error("expected a rejection reason")
	}
}
