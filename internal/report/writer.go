package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Writer persists reports as JSON files in a results directory.
type Writer struct {
	dir string
}

// NewWriter creates a Writer rooted at dir. The directory is created on
// first write.
func NewWriter(dir string) *Writer {
	return &Writer{dir: dir}
}

// Write persists r and returns the file path. The file name embeds the
// session ID and the session end time so successive runs never collide.
func (w *Writer) Write(r Report) (string, error) {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", fmt.Errorf("report: create results dir %q: %w", w.dir, err)
	}

	name := fmt.Sprintf("interview_results_%s_%s.json",
		r.Metadata.SessionID, r.Metadata.EndedAt.Format("20060102_150405"))
	path := filepath.Join(w.dir, name)

	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", fmt.Errorf("report: marshal %s: %w", r.Metadata.SessionID, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("report: write %q: %w", path, err)
	}
	return path, nil
}

// Read loads a previously written report. Used by the analytics trend view
// and by tests.
func Read(path string) (Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Report{}, fmt.Errorf("report: read %q: %w", path, err)
	}
	var r Report
	if err := json.Unmarshal(data, &r); err != nil {
		return Report{}, fmt.Errorf("report: parse %q: %w", path, err)
	}
	return r, nil
}
