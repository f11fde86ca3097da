package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"magpie/internal/record"
	"magpie/internal/registry"
	"magpie/internal/tms"
)

// Summary is one execution's aggregate statistics, as stored in the
// queue's trend file. QueueID carries the execution key; that is the id
// the dedup-on-prepend check matches against.
type Summary struct {
	QueueID    string `json:"queueId"`
	Date       string `json:"date"`
	TotalTests int    `json:"totalTests"`
	Passed     int    `json:"passed"`
	Failed     int    `json:"failed"`
	PassedRate int    `json:"passedRate"`
	Duration   string `json:"duration"`
}

// Summarize computes the statistics for one execution. An execution with
// zero records yields the all-zero summary with a 00:00:00 duration.
func Summarize(exec tms.QueueExecution, records []record.ExecutionRecord) Summary {
	s := Summary{
		QueueID:  exec.Key,
		Duration: "00:00:00",
	}
	if exec.StartedAt != nil {
		s.Date = exec.StartedAt.Time().UTC().Format("2006-01-02 15:04:05")
	}
	if len(records) == 0 {
		return s
	}

	for _, rec := range records {
		switch rec.Outcome {
		case record.OutcomePassed:
			s.Passed++
		case record.OutcomeFailed:
			s.Failed++
		}
	}
	s.TotalTests = len(records)
	s.PassedRate = s.Passed * 100 / s.TotalTests

	if exec.StartedAt != nil && exec.FinishedAt != nil {
		s.Duration = record.FormatDuration(exec.FinishedAt.Time().Sub(exec.StartedAt.Time()))
	}
	return s
}

// SummaryStore maintains the per-queue trend files. This store is
// independent of the dedup tracker and the lookup cache: its only dedup
// is the "already present in the output array" check below.
type SummaryStore struct {
	Dir string
}

// Path returns the queue's trend file path.
func (s *SummaryStore) Path(queue registry.WorkQueue) string {
	name := strings.ToLower(queue.StandardName) + "-queue-results.json"
	return filepath.Join(s.Dir, name)
}

// ExistingIDs returns the execution keys already present in the queue's
// trend file, so the caller can avoid re-fetching their results.
func (s *SummaryStore) ExistingIDs(queue registry.WorkQueue) (map[string]bool, error) {
	data, err := os.ReadFile(s.Path(queue))
	if os.IsNotExist(err) {
		return map[string]bool{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("report: read summary %s: %w", s.Path(queue), err)
	}
	var existing []Summary
	if err := json.Unmarshal(data, &existing); err != nil {
		return nil, fmt.Errorf("report: parse summary %s: %w", s.Path(queue), err)
	}
	ids := make(map[string]bool, len(existing))
	for _, e := range existing {
		ids[e.QueueID] = true
	}
	return ids, nil
}

// Prepend inserts the given summaries (newest first) at the head of the
// queue's trend array, skipping executions already present. Returns how
// many entries were added.
func (s *SummaryStore) Prepend(queue registry.WorkQueue, entries []Summary) (int, error) {
	path := s.Path(queue)

	var existing []Summary
	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		// first run for this queue
	case err != nil:
		return 0, fmt.Errorf("report: read summary %s: %w", path, err)
	default:
		if err := json.Unmarshal(data, &existing); err != nil {
			return 0, fmt.Errorf("report: parse summary %s: %w", path, err)
		}
	}

	present := make(map[string]bool, len(existing))
	for _, e := range existing {
		present[e.QueueID] = true
	}

	var fresh []Summary
	for _, e := range entries {
		if present[e.QueueID] {
			continue
		}
		present[e.QueueID] = true
		fresh = append(fresh, e)
	}
	if len(fresh) == 0 {
		return 0, nil
	}

	merged := append(fresh, existing...)
	out, err := json.MarshalIndent(merged, "", "  ")
	if err != nil {
		return 0, fmt.Errorf("report: marshal summary: %w", err)
	}
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return 0, fmt.Errorf("report: create dir: %w", err)
	}
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return 0, fmt.Errorf("report: write summary %s: %w", path, err)
	}
	return len(fresh), nil
}
