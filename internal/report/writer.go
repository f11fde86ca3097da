// Package report materializes enriched batches as immutable,
// date-partitioned JSON artifacts, and maintains the lighter per-queue
// summary files used for trend display.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"magpie/internal/record"
	"magpie/internal/registry"
	"magpie/internal/tms"
	"magpie/internal/track"
)

// Envelope is the top-level shape of a report artifact. The Value casing
// is load-bearing: the visualization front end reads data.Value.
type Envelope struct {
	Data EnvelopeData `json:"data"`
}

// EnvelopeData wraps the record list.
type EnvelopeData struct {
	Value []record.ExecutionRecord `json:"Value"`
}

// Writer persists report artifacts under a reports directory.
type Writer struct {
	Dir    string
	Logger *slog.Logger
}

func (w *Writer) logger() *slog.Logger {
	if w.Logger != nil {
		return w.Logger
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Write stores the enriched record list for one queue execution and then
// marks the execution processed in the queue's tracker. The artifact path
// is deterministic from queue name and execution start, so a crash
// between write and mark is recovered by the next run re-writing the same
// file before marking. Write-before-mark, never the reverse.
func (w *Writer) Write(queue registry.WorkQueue, exec tms.QueueExecution, records []record.ExecutionRecord, tracker *track.Tracker) (string, error) {
	start := executionStart(exec)
	dir := filepath.Join(w.Dir, start.Format("2006-01-02"))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("report: create date dir: %w", err)
	}

	name := fmt.Sprintf("%s_%s.json", SanitizeName(queue.Name), start.Format("15-04-05"))
	path := filepath.Join(dir, name)

	if records == nil {
		records = []record.ExecutionRecord{}
	}
	data, err := json.MarshalIndent(Envelope{Data: EnvelopeData{Value: records}}, "", "  ")
	if err != nil {
		return "", fmt.Errorf("report: marshal %s: %w", name, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("report: write %s: %w", path, err)
	}

	w.logger().Info("report written", "queue", queue.StandardName, "execution", exec.Key,
		"records", len(records), "path", path)

	if err := tracker.Record(exec.Key); err != nil {
		return path, fmt.Errorf("report: mark processed: %w", err)
	}
	return path, nil
}

// executionStart returns the execution's start time in UTC. The platform
// always reports one; the zero fallback keeps a malformed listing entry
// from crashing the writer.
func executionStart(exec tms.QueueExecution) time.Time {
	if exec.StartedAt != nil {
		return exec.StartedAt.Time().UTC()
	}
	return time.Now().UTC()
}

var unsafeNameChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// SanitizeName replaces filesystem-hostile characters with underscores.
func SanitizeName(s string) string {
	return unsafeNameChars.ReplaceAllString(s, "_")
}
