// Package report owns the healing history: the per-run event log, the
// cumulative summary and its merge protocol, and the rendered report.
package report

import "time"

// Event is one concluded healing attempt. It is immutable once created;
// merges never modify events, only deduplicate them.
type Event struct {
	Timestamp         string   `json:"timestamp"`
	TestName          string   `json:"testName"`
	OriginalLocator   string   `json:"originalLocator"`
	HealedLocator     string   `json:"healedLocator"`
	ErrorMessage      string   `json:"errorMessage"`
	Success           bool     `json:"success"`
	AttemptedLocators []string `json:"attemptedLocators"`
	HealingDurationMs int64    `json:"healingDurationMs"`
}

// Identity is the deduplication key: two events with equal identity are the
// same occurrence regardless of their other fields.
type Identity struct {
	Timestamp       string
	OriginalLocator string
}

// Key returns the event's identity.
func (e Event) Key() Identity {
	return Identity{Timestamp: e.Timestamp, OriginalLocator: e.OriginalLocator}
}

// NowUTC is the timestamp format events carry. Nanosecond precision keeps
// identity keys distinct for attempts on the same locator in quick
// succession.
func NowUTC() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}
