package selector

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/Schrodinger0/codex-flow-sub001/pkg/models"
)

// Heuristic scores catalog entries by goal-token overlap.
type Heuristic struct{}

// Name identifies the strategy.
func (Heuristic) Name() string { return "heuristic" }

type scoredAgent struct {
	descriptor models.AgentDescriptor
	score      int
	matched    []string
}

// Select tokenizes the goal and scores each entry by how many tokens appear
// as substrings of its id, name and core capabilities, with a +1 bonus for
// default-flagged entries. Ties break on identifier order. When nothing
// scores positively, the first Min catalog entries are returned with a
// generic reason.
func (h Heuristic) Select(_ context.Context, goal string, catalog []models.AgentDescriptor, bounds Bounds) ([]models.SelectedAgent, error) {
	bounds = bounds.normalize()
	if len(catalog) == 0 {
		return nil, fmt.Errorf("heuristic selection: empty catalog")
	}

	tokens := tokenize(goal)
	scored := make([]scoredAgent, 0, len(catalog))
	for _, d := range catalog {
		text := searchText(d)
		sa := scoredAgent{descriptor: d}
		for _, token := range tokens {
			if strings.Contains(text, token) {
				sa.score++
				sa.matched = append(sa.matched, token)
			}
		}
		if d.Default {
			sa.score++
		}
		scored = append(scored, sa)
	}

	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].score != scored[j].score {
			return scored[i].score > scored[j].score
		}
		return scored[i].descriptor.ID < scored[j].descriptor.ID
	})

	var selected []models.SelectedAgent
	for _, sa := range scored {
		if sa.score <= 0 || len(selected) >= bounds.Max {
			break
		}
		selected = append(selected, models.SelectedAgent{
			ID:     sa.descriptor.ID,
			Reason: h.reason(sa),
		})
	}

	// Nothing matched: fall back to the head of the catalog.
	if len(selected) == 0 {
		for i := 0; i < len(catalog) && i < bounds.Min; i++ {
			selected = append(selected, models.SelectedAgent{
				ID:     catalog[i].ID,
				Reason: "fallback: no capability overlap with the goal",
			})
		}
		return selected, nil
	}

	// Backfill below Min from the remaining ranking.
	if len(selected) < bounds.Min {
		chosen := make(map[string]bool, len(selected))
		for _, s := range selected {
			chosen[s.ID] = true
		}
		for _, sa := range scored {
			if len(selected) >= bounds.Min {
				break
			}
			if chosen[sa.descriptor.ID] {
				continue
			}
			selected = append(selected, models.SelectedAgent{
				ID:     sa.descriptor.ID,
				Reason: "fallback: filling minimum selection size",
			})
		}
	}

	return selected, nil
}

func (Heuristic) reason(sa scoredAgent) string {
	if len(sa.matched) == 0 {
		return "default agent for general goals"
	}
	return fmt.Sprintf("capability match on: %s", strings.Join(sa.matched, ", "))
}
