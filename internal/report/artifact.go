package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const (
	// SummaryFilename is the cumulative summary inside the reports dir.
	SummaryFilename = "summary.json"

	runFilePrefix = "run-"
	runFileSuffix = ".json"
)

// ReadArtifact reads a typed JSON artifact. A missing file returns (nil, nil)
// so callers can treat absence as empty state.
func ReadArtifact[T any](dir, filename string) (*T, error) {
	data, err := os.ReadFile(filepath.Join(dir, filename))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read %s: %w", filename, err)
	}
	var result T
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("parse %s: %w", filename, err)
	}
	return &result, nil
}

// WriteArtifact writes a typed JSON artifact, creating the directory first.
func WriteArtifact(dir, filename string, data any) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	raw, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", filename, err)
	}
	if err := os.WriteFile(filepath.Join(dir, filename), raw, 0644); err != nil {
		return fmt.Errorf("write %s: %w", filename, err)
	}
	return nil
}

// ReadSummary loads the cumulative summary. Absent file → (nil, nil).
func ReadSummary(dir string) (*Summary, error) {
	return ReadArtifact[Summary](dir, SummaryFilename)
}

// ListRunFiles returns the run-scoped file names under dir in name order.
// Names start with a nanosecond timestamp, so name order is arrival order.
func ListRunFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("list run files: %w", err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if strings.HasPrefix(name, runFilePrefix) && strings.HasSuffix(name, runFileSuffix) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}
