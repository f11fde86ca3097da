// Package track keeps the per-queue record of execution keys that have
// already been collected. The store is a newline-separated text file,
// newest key first, so operators inspecting it see recent activity at
// the top. The tracker only grows; nothing is ever removed.
package track

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Tracker is a durable set of processed execution keys for one queue.
// Single-writer: concurrent runs against the same queue are not supported.
type Tracker struct {
	path string
	keys []string
	seen map[string]bool
}

// Open loads the tracker at path. A missing file means nothing has been
// processed yet.
func Open(path string) (*Tracker, error) {
	t := &Tracker{path: path, seen: make(map[string]bool)}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return t, nil
	}
	if err != nil {
		return nil, fmt.Errorf("track: read %s: %w", path, err)
	}

	for _, line := range strings.Split(string(data), "\n") {
		key := strings.TrimSpace(line)
		if key == "" || t.seen[key] {
			continue
		}
		t.keys = append(t.keys, key)
		t.seen[key] = true
	}
	return t, nil
}

// Has reports whether the execution key has already been processed.
func (t *Tracker) Has(key string) bool {
	return t.seen[key]
}

// Len returns the number of tracked keys.
func (t *Tracker) Len() int { return len(t.keys) }

// Record marks the execution key as processed, prepending it to the store
// and rewriting the file. Recording an already-present key is a no-op.
func (t *Tracker) Record(key string) error {
	if key == "" {
		return fmt.Errorf("track: empty execution key")
	}
	if t.seen[key] {
		return nil
	}

	t.keys = append([]string{key}, t.keys...)
	t.seen[key] = true
	return t.flush()
}

// flush writes the full key list via a temp file and rename, so a crash
// mid-write never truncates the store.
func (t *Tracker) flush() error {
	if err := os.MkdirAll(filepath.Dir(t.path), 0o755); err != nil {
		return fmt.Errorf("track: create dir: %w", err)
	}

	content := strings.Join(t.keys, "\n") + "\n"
	tmp := t.path + ".tmp"
	if err := os.WriteFile(tmp, []byte(content), 0o644); err != nil {
		return fmt.Errorf("track: write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, t.path); err != nil {
		return fmt.Errorf("track: rename %s: %w", tmp, err)
	}
	return nil
}
