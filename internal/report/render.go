package report

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	"time"

	"graft/internal/format"
)

// ReportFilename is the rendered artifact inside the reports dir.
const ReportFilename = "healing-report.html"

const reportTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Locator Healing Report</title>
<style>
body { font-family: -apple-system, "Segoe UI", Roboto, sans-serif; margin: 2rem; color: #1f2328; }
h1 { font-size: 1.4rem; }
.generated { color: #59636e; font-size: 0.85rem; }
.stats { display: flex; gap: 2rem; margin: 1rem 0 1.5rem; }
.stat .num { font-size: 1.6rem; font-weight: 600; display: block; }
.stat .label { color: #59636e; font-size: 0.8rem; text-transform: uppercase; }
table { border-collapse: collapse; width: 100%; font-size: 0.9rem; }
th, td { border: 1px solid #d1d9e0; padding: 0.4rem 0.6rem; text-align: left; vertical-align: top; }
th { background: #f6f8fa; }
code { font-family: ui-monospace, monospace; font-size: 0.85em; }
tr.ok td.outcome { color: #1a7f37; font-weight: 600; }
tr.fail td.outcome { color: #d1242f; font-weight: 600; }
.empty { color: #59636e; font-style: italic; }
</style>
</head>
<body>
<h1>Locator Healing Report</h1>
<p class="generated">Generated {{.Generated}}</p>
<div class="stats">
<div class="stat"><span class="num">{{.TotalTests}}</span><span class="label">tests touched</span></div>
<div class="stat"><span class="num">{{.TotalHealingAttempts}}</span><span class="label">healing attempts</span></div>
<div class="stat"><span class="num">{{.SuccessfulHealing}}</span><span class="label">healed</span></div>
<div class="stat"><span class="num">{{.FailedHealing}}</span><span class="label">failed</span></div>
</div>
{{if .Rows}}<table id="changes">
<thead><tr><th>Time</th><th>Test</th><th>Original locator</th><th>Healed locator</th><th>Outcome</th><th>Duration</th><th>Attempted</th></tr></thead>
<tbody>
{{range .Rows}}<tr class="{{if .Success}}ok{{else}}fail{{end}}"><td>{{.Time}}</td><td>{{.TestName}}</td><td><code>{{.Original}}</code></td><td><code>{{.Healed}}</code></td><td class="outcome">{{.Outcome}}</td><td>{{.Duration}}</td><td>{{.Attempted}}</td></tr>
{{end}}</tbody>
</table>{{else}}<p class="empty">No healing activity recorded.</p>{{end}}
</body>
</html>
`

var reportTmpl = template.Must(template.New("report").Parse(reportTemplate))

type reportRow struct {
	Time      string
	TestName  string
	Original  string
	Healed    string
	Success   bool
	Outcome   string
	Duration  string
	Attempted int
}

type reportView struct {
	Generated            string
	TotalTests           int
	TotalHealingAttempts int
	SuccessfulHealing    int
	FailedHealing        int
	Rows                 []reportRow
}

// RenderHTML produces the full report document from a summary. The document
// is derived entirely from the summary and regenerated whole on every
// aggregation; nothing is patched incrementally.
func RenderHTML(s *Summary) ([]byte, error) {
	view := reportView{
		Generated:            shortStamp(s.Timestamp),
		TotalTests:           s.TotalTests,
		TotalHealingAttempts: s.TotalHealingAttempts,
		SuccessfulHealing:    s.SuccessfulHealing,
		FailedHealing:        s.FailedHealing,
	}
	// Newest first.
	for i := len(s.Changes) - 1; i >= 0; i-- {
		e := s.Changes[i]
		healed := e.HealedLocator
		outcome := "healed"
		if !e.Success {
			healed = "—"
			outcome = "failed"
		}
		view.Rows = append(view.Rows, reportRow{
			Time:      shortStamp(e.Timestamp),
			TestName:  e.TestName,
			Original:  e.OriginalLocator,
			Healed:    healed,
			Success:   e.Success,
			Outcome:   outcome,
			Duration:  format.FmtMillis(e.HealingDurationMs),
			Attempted: len(e.AttemptedLocators),
		})
	}

	var buf bytes.Buffer
	if err := reportTmpl.Execute(&buf, view); err != nil {
		return nil, fmt.Errorf("execute report template: %w", err)
	}
	return buf.Bytes(), nil
}

// FormatSummary renders the summary counts plus the event table for the CLI.
func FormatSummary(s *Summary, mode format.Mode) string {
	var b strings.Builder

	counts := format.NewTable(mode)
	counts.Header("Tests", "Attempts", "Healed", "Failed", "Updated")
	counts.Row(s.TotalTests, s.TotalHealingAttempts, s.SuccessfulHealing, s.FailedHealing, shortStamp(s.Timestamp))
	b.WriteString(counts.String())
	b.WriteString("\n")

	if len(s.Changes) > 0 {
		b.WriteString("\n")
		b.WriteString(FormatEvents(s.Changes, mode))
		b.WriteString("\n")
	}
	return b.String()
}

// FormatEvents renders events as a table, newest first.
func FormatEvents(events []Event, mode format.Mode) string {
	tbl := format.NewTable(mode)
	tbl.Header("Time", "Test", "Original", "Healed", "OK", "Duration")
	tbl.Columns(
		format.ColumnConfig{Number: 2, MaxWidth: 32},
		format.ColumnConfig{Number: 3, MaxWidth: 40},
		format.ColumnConfig{Number: 4, MaxWidth: 40},
		format.ColumnConfig{Number: 6, Align: format.AlignRight},
	)
	for i := len(events) - 1; i >= 0; i-- {
		e := events[i]
		tbl.Row(
			shortStamp(e.Timestamp),
			e.TestName,
			e.OriginalLocator,
			e.HealedLocator,
			format.BoolMark(e.Success),
			format.FmtMillis(e.HealingDurationMs),
		)
	}
	return tbl.String()
}

// shortStamp trims an RFC3339Nano stamp down to second precision for
// display. Unparseable stamps pass through untouched.
func shortStamp(ts string) string {
	t, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		return ts
	}
	return t.Format("2006-01-02 15:04:05")
}
