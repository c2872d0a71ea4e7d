package report

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"graft/internal/logging"
)

// Recorder accumulates the healing events of one test process. Flush writes
// them to a run-scoped file at process end; the aggregator later consumes
// and deletes that file.
type Recorder struct {
	dir string

	mu     sync.Mutex
	events []Event
}

// NewRecorder returns a recorder that flushes into dir.
func NewRecorder(dir string) *Recorder {
	return &Recorder{dir: dir}
}

// Record appends one event.
func (r *Recorder) Record(ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

// Len reports how many events are pending.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

// Events returns a copy of the pending events in record order.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Flush writes the pending events to a uniquely named run file and clears
// them, so a second Flush is a no-op. Nothing is written when no event was
// recorded; the returned path is empty in that case.
//
// The name combines a nanosecond timestamp with a UUID: wall-clock
// milliseconds alone collide under rapid repeated runs.
func (r *Recorder) Flush() (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.events) == 0 {
		return "", nil
	}

	name := fmt.Sprintf("%s%d-%s%s", runFilePrefix, time.Now().UnixNano(), uuid.New().String(), runFileSuffix)
	if err := WriteArtifact(r.dir, name, r.events); err != nil {
		return "", err
	}

	logging.New("recorder").Info("flushed run report", "file", name, "events", len(r.events))
	r.events = nil
	return filepath.Join(r.dir, name), nil
}
