// Package registry loads the static work-queue configuration: the set of
// logical projects whose test executions the collector gathers, each with
// its own dedup tracker file. The registry is loaded once at startup and
// read-only afterwards.
package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// WorkQueue is one configured unit of collection.
type WorkQueue struct {
	// Name is the display name, matched against the platform's queue
	// definitions and used (sanitized) in report filenames.
	Name string `json:"name" yaml:"name"`
	// StandardName is the stable identifier used for summary files.
	StandardName string `json:"standardName" yaml:"standardName"`
	// StoreStatusFile is the dedup tracker filename, relative to the
	// reports directory.
	StoreStatusFile string `json:"storeStatusFile" yaml:"storeStatusFile"`
}

// Registry is the parsed queue registry file.
type Registry struct {
	Queues []WorkQueue `json:"queues" yaml:"queues"`
}

// LoadFromPath reads a registry file (YAML or JSON) and returns the parsed
// queue list. Format is detected by extension (.yaml/.yml → YAML, .json →
// JSON) or by content (first non-whitespace char).
func LoadFromPath(path string) ([]WorkQueue, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read registry: %w", err)
	}
	return Load(data, filepath.Ext(path))
}

// Load parses a registry from bytes. ext is the file extension (e.g.
// ".json", ".yaml") for format hint; empty = detect from content.
func Load(data []byte, ext string) ([]WorkQueue, error) {
	ext = strings.ToLower(ext)
	if ext == ".yml" {
		ext = ".yaml"
	}

	var reg Registry
	switch {
	case ext == ".yaml":
		if err := yaml.Unmarshal(data, &reg); err != nil {
			return nil, fmt.Errorf("parse registry yaml: %w", err)
		}
	case ext == ".json":
		if err := json.Unmarshal(data, &reg); err != nil {
			return nil, fmt.Errorf("parse registry json: %w", err)
		}
	case strings.HasPrefix(strings.TrimSpace(string(data)), "{"):
		if err := json.Unmarshal(data, &reg); err != nil {
			return nil, fmt.Errorf("parse registry json: %w", err)
		}
	default:
		if err := yaml.Unmarshal(data, &reg); err != nil {
			return nil, fmt.Errorf("parse registry yaml: %w", err)
		}
	}

	if err := validate(reg.Queues); err != nil {
		return nil, err
	}
	return reg.Queues, nil
}

func validate(queues []WorkQueue) error {
	if len(queues) == 0 {
		return fmt.Errorf("registry: no queues configured")
	}
	seen := make(map[string]bool, len(queues))
	for i, q := range queues {
		if q.Name == "" {
			return fmt.Errorf("registry: queue %d: name is required", i)
		}
		if q.StandardName == "" {
			return fmt.Errorf("registry: queue %q: standardName is required", q.Name)
		}
		if q.StoreStatusFile == "" {
			return fmt.Errorf("registry: queue %q: storeStatusFile is required", q.Name)
		}
		if seen[q.StandardName] {
			return fmt.Errorf("registry: duplicate standardName %q", q.StandardName)
		}
		seen[q.StandardName] = true
	}
	return nil
}
