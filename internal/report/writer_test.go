package report

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"magpie/internal/record"
	"magpie/internal/registry"
	"magpie/internal/tms"
	"magpie/internal/track"
)

func epoch(t *testing.T, s string) *record.EpochMillis {
	t.Helper()
	tm, err := time.Parse(time.RFC3339, s)
	if err != nil {
		t.Fatal(err)
	}
	e := record.EpochMillis(tm)
	return &e
}

func finQueue() registry.WorkQueue {
	return registry.WorkQueue{
		Name:            "Finance Regression",
		StandardName:    "FIN",
		StoreStatusFile: "fin-processed.txt",
	}
}

func TestWriter_Write(t *testing.T) {
	dir := t.TempDir()
	w := &Writer{Dir: dir}
	tracker, err := track.Open(filepath.Join(dir, "fin-processed.txt"))
	if err != nil {
		t.Fatal(err)
	}

	exec := tms.QueueExecution{Key: "1003", StartedAt: epoch(t, "2026-08-30T14:03:22Z")}
	records := []record.ExecutionRecord{
		{ID: "r-1", TestName: "t1", Status: "SUCCESS", Outcome: record.OutcomePassed},
	}

	path, err := w.Write(finQueue(), exec, records, tracker)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}

	want := filepath.Join(dir, "2026-08-30", "Finance_Regression_14-03-22.json")
	if path != want {
		t.Errorf("path: got %q, want %q", path, want)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		t.Fatalf("artifact not valid JSON: %v", err)
	}
	if len(env.Data.Value) != 1 || env.Data.Value[0].TestName != "t1" {
		t.Errorf("unexpected artifact: %+v", env)
	}

	// Write-before-mark: the tracker carries the key once Write returns.
	if !tracker.Has("1003") {
		t.Error("execution key not recorded after write")
	}
}

func TestWriter_Write_EmptyBatch(t *testing.T) {
	dir := t.TempDir()
	w := &Writer{Dir: dir}
	tracker, err := track.Open(filepath.Join(dir, "fin-processed.txt"))
	if err != nil {
		t.Fatal(err)
	}

	exec := tms.QueueExecution{Key: "1004", StartedAt: epoch(t, "2026-08-30T09:00:00Z")}
	path, err := w.Write(finQueue(), exec, nil, tracker)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		t.Fatal(err)
	}
	if env.Data.Value == nil || len(env.Data.Value) != 0 {
		t.Errorf("empty batch must serialize an empty Value array, got %s", data)
	}
}

func TestWriter_Write_DeterministicOverwrite(t *testing.T) {
	dir := t.TempDir()
	w := &Writer{Dir: dir}
	tracker, err := track.Open(filepath.Join(dir, "fin-processed.txt"))
	if err != nil {
		t.Fatal(err)
	}

	exec := tms.QueueExecution{Key: "1003", StartedAt: epoch(t, "2026-08-30T14:03:22Z")}
	p1, err := w.Write(finQueue(), exec, nil, tracker)
	if err != nil {
		t.Fatal(err)
	}
	// Re-driving the same execution (crash-recovery path) hits the same file.
	p2, err := w.Write(finQueue(), exec, nil, tracker)
	if err != nil {
		t.Fatal(err)
	}
	if p1 != p2 {
		t.Errorf("filenames must be deterministic: %q vs %q", p1, p2)
	}
	if tracker.Len() != 1 {
		t.Errorf("re-drive must not duplicate tracker entries, got %d", tracker.Len())
	}
}

func TestSanitizeName(t *testing.T) {
	if got := SanitizeName("Finance / Regression: EU*"); got != "Finance_Regression_EU_" {
		t.Errorf("got %q", got)
	}
}
