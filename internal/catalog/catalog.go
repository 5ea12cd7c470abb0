// Package catalog loads the agent catalog from disk.
// The catalog is a read-only input: a run snapshots it once and never
// mutates it.
package catalog

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/Schrodinger0/codex-flow-sub001/pkg/models"
)

// catalogFile is the on-disk YAML shape of the catalog.
type catalogFile struct {
	Agents []catalogEntry `yaml:"agents"`
}

type catalogEntry struct {
	ID           string   `yaml:"id"`
	Name         string   `yaml:"name"`
	Capabilities []string `yaml:"capabilities"`
	Default      bool     `yaml:"default"`
}

// Load reads a YAML catalog file into an ordered list of descriptors.
// Entries without an ID are rejected; duplicate IDs are rejected.
func Load(path string) ([]models.AgentDescriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return Parse(data)
}

// Parse decodes catalog YAML bytes.
func Parse(data []byte) ([]models.AgentDescriptor, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if len(file.Agents) == 0 {
		return nil, fmt.Errorf("catalog has no agents")
	}

	seen := make(map[string]bool, len(file.Agents))
	descriptors := make([]models.AgentDescriptor, 0, len(file.Agents))
	for i, entry := range file.Agents {
		if entry.ID == "" {
			return nil, fmt.Errorf("catalog entry %d has no id", i)
		}
		if seen[entry.ID] {
			return nil, fmt.Errorf("duplicate catalog id %q", entry.ID)
		}
		seen[entry.ID] = true
		descriptors = append(descriptors, models.AgentDescriptor{
			ID:           entry.ID,
			Name:         entry.Name,
			Capabilities: models.Capabilities{Core: entry.Capabilities},
			Default:      entry.Default,
		})
	}
	return descriptors, nil
}

// Default returns a built-in catalog used when no catalog file exists.
// It covers the canonical roles the rule-based selector knows about.
func Default() []models.AgentDescriptor {
	return []models.AgentDescriptor{
		{ID: "architect", Name: "Architect", Capabilities: models.Capabilities{Core: []string{"architecture", "design", "planning"}}},
		{ID: "backend-engineer", Name: "Backend Engineer", Capabilities: models.Capabilities{Core: []string{"api", "backend", "server", "database"}}},
		{ID: "frontend-coder", Name: "Frontend Coder", Capabilities: models.Capabilities{Core: []string{"frontend", "ui", "component"}}},
		{ID: "docs-writer", Name: "Docs Writer", Capabilities: models.Capabilities{Core: []string{"docs", "documentation", "readme"}}},
		{ID: "tester", Name: "Tester", Capabilities: models.Capabilities{Core: []string{"test", "testing", "validation"}}},
		{ID: "generalist", Name: "Generalist", Capabilities: models.Capabilities{Core: []string{"general"}}, Default: true},
	}
}
