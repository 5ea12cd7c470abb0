package selector

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Schrodinger0/codex-flow-sub001/internal/backend"
	"github.com/Schrodinger0/codex-flow-sub001/pkg/models"
)

// Delegated defers selection to a generative backend, falling back to the
// heuristic strategy when the backend errors, returns unparseable output,
// or selects nothing usable. There is no retry at this layer: the backend's
// answer is not schema-validated, so a retry has nothing precise to correct.
type Delegated struct {
	generator backend.Generator
	fallback  Heuristic
}

// NewDelegated creates the delegated strategy on top of a generator.
func NewDelegated(generator backend.Generator) *Delegated {
	return &Delegated{generator: generator}
}

// Name identifies the strategy.
func (*Delegated) Name() string { return "delegated" }

const selectPromptFmt = `You are an agent selector. Given a goal and an agent catalog,
choose between %d and %d agents best suited to the goal.

Goal: %s

Catalog (JSON):
%s

Respond with ONLY a JSON array of objects shaped like
[{"id": "<catalog id>", "reason": "<why this agent>"}]. No prose.`

// Select issues one structured request and validates the response against
// the catalog. Any failure degrades silently to the heuristic strategy.
func (d *Delegated) Select(ctx context.Context, goal string, catalog []models.AgentDescriptor, bounds Bounds) ([]models.SelectedAgent, error) {
	bounds = bounds.normalize()
	if len(catalog) == 0 {
		return nil, fmt.Errorf("delegated selection: empty catalog")
	}

	selected, ok := d.tryGenerate(ctx, goal, catalog, bounds)
	if !ok {
		return d.fallback.Select(ctx, goal, catalog, bounds)
	}
	return selected, nil
}

func (d *Delegated) tryGenerate(ctx context.Context, goal string, catalog []models.AgentDescriptor, bounds Bounds) ([]models.SelectedAgent, bool) {
	if d.generator == nil {
		return nil, false
	}

	catalogJSON, err := json.Marshal(catalog)
	if err != nil {
		return nil, false
	}

	raw, err := d.generator.Generate(ctx, fmt.Sprintf(selectPromptFmt, bounds.Min, bounds.Max, goal, catalogJSON))
	if err != nil {
		return nil, false
	}

	payload := backend.ExtractJSONArray(raw)
	if payload == "" {
		return nil, false
	}

	var candidates []models.SelectedAgent
	if err := json.Unmarshal([]byte(payload), &candidates); err != nil {
		return nil, false
	}

	known := make(map[string]bool, len(catalog))
	for _, d := range catalog {
		known[d.ID] = true
	}

	var selected []models.SelectedAgent
	seen := make(map[string]bool)
	for _, c := range candidates {
		if len(selected) >= bounds.Max {
			break
		}
		if !known[c.ID] || seen[c.ID] {
			continue
		}
		seen[c.ID] = true
		if c.Reason == "" {
			c.Reason = "selected by delegated backend"
		}
		selected = append(selected, c)
	}

	if len(selected) < bounds.Min {
		return nil, false
	}
	return selected, true
}
