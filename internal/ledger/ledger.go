// Package ledger reads the sprint status ledger (sprint-status.yaml), a
// key-to-status mapping maintained alongside the planning documents.
package ledger

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// FileName is the ledger's file name inside the implementation artifacts directory.
const FileName = "sprint-status.yaml"

// Entry is one development_status row. In the file an entry is either a bare
// status string or a mapping with status and beads_id.
type Entry struct {
	Key       string `yaml:"-"`
	Status    string `yaml:"status"`
	TrackerID string `yaml:"beads_id,omitempty"`
}

// UnmarshalYAML accepts both the scalar and the mapping form.
func (e *Entry) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		e.Status = node.Value
		return nil
	case yaml.MappingNode:
		type plain Entry
		var p plain
		if err := node.Decode(&p); err != nil {
			return err
		}
		e.Status, e.TrackerID = p.Status, p.TrackerID
		return nil
	}
	return fmt.Errorf("line %d: ledger entry must be a string or a mapping", node.Line)
}

// Ledger is the decoded development_status section.
type Ledger struct {
	Path    string
	Entries []Entry // in file order
}

type ledgerFile struct {
	DevelopmentStatus yaml.Node `yaml:"development_status"`
}

// Parse decodes ledger YAML, keeping development_status in file order.
func Parse(data []byte) (*Ledger, error) {
	var f ledgerFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", FileName, err)
	}

	l := &Ledger{}
	node := &f.DevelopmentStatus
	switch {
	case node.Kind == 0, node.Tag == "!!null":
		return l, nil
	case node.Kind != yaml.MappingNode:
		return nil, fmt.Errorf("failed to parse %s: line %d: development_status must be a mapping", FileName, node.Line)
	}

	seen := make(map[string]bool, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		key := node.Content[i].Value
		if seen[key] {
			return nil, fmt.Errorf("failed to parse %s: line %d: duplicate key %q", FileName, node.Content[i].Line, key)
		}
		seen[key] = true

		var entry Entry
		if err := node.Content[i+1].Decode(&entry); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %s: %w", FileName, key, err)
		}
		entry.Key = key
		l.Entries = append(l.Entries, entry)
	}
	return l, nil
}

// Load reads the ledger at path. A missing file yields (nil, nil).
func Load(path string) (*Ledger, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- path comes from project configuration
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", FileName, err)
	}
	l, err := Parse(data)
	if err != nil {
		return nil, err
	}
	l.Path = path
	return l, nil
}

// Tracked reports whether an entry describes a story that is reconciled.
// Epic rollups and retrospectives are bookkeeping rows only.
func Tracked(key string) bool {
	return !strings.HasPrefix(key, "epic-") && !strings.HasSuffix(key, "-retrospective")
}
