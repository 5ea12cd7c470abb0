package selector

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/Schrodinger0/codex-flow-sub001/pkg/models"
)

// roleRule maps goal text to one canonical role. Rules are evaluated
// independently; several may match the same goal.
type roleRule struct {
	role       string
	pattern    *regexp.Regexp
	indicators []string
}

// defaultRoleRules covers the canonical roles: architecture, backend/API,
// frontend/UI, documentation and testing.
func defaultRoleRules() []roleRule {
	return []roleRule{
		{
			role:       "architecture",
			pattern:    regexp.MustCompile(`(?i)\b(architecture|architect|design|structure|blueprint)\b`),
			indicators: []string{"architect", "architecture", "design"},
		},
		{
			role:       "backend",
			pattern:    regexp.MustCompile(`(?i)\b(api|backend|server|endpoint|database|service)\b`),
			indicators: []string{"backend", "api", "server"},
		},
		{
			role:       "frontend",
			pattern:    regexp.MustCompile(`(?i)\b(frontend|ui|interface|component|page|view)\b`),
			indicators: []string{"frontend", "ui", "coder"},
		},
		{
			role:       "documentation",
			pattern:    regexp.MustCompile(`(?i)\b(docs?|documentation|readme|guide)\b`),
			indicators: []string{"docs", "doc", "writer"},
		},
		{
			role:       "testing",
			pattern:    regexp.MustCompile(`(?i)\b(test|tests|testing|validate|validation|qa)\b`),
			indicators: []string{"test", "tester", "qa", "validation"},
		},
	}
}

// Rules is the deterministic rule-based strategy. Identical inputs always
// produce identical selections.
type Rules struct {
	rules    []roleRule
	backfill Heuristic
}

// NewRules creates the rule-based strategy with the default rule set.
func NewRules() *Rules {
	return &Rules{rules: defaultRoleRules()}
}

// Name identifies the strategy.
func (*Rules) Name() string { return "rules" }

// Select evaluates every rule against the goal, maps matched roles to
// catalog identifiers, truncates to bounds.Max, and backfills below
// bounds.Min from heuristic output (excluding already-chosen identifiers,
// preserving heuristic ranking order).
func (r *Rules) Select(ctx context.Context, goal string, catalog []models.AgentDescriptor, bounds Bounds) ([]models.SelectedAgent, error) {
	bounds = bounds.normalize()
	if len(catalog) == 0 {
		return nil, fmt.Errorf("rule selection: empty catalog")
	}

	var selected []models.SelectedAgent
	chosen := make(map[string]bool)
	for _, rule := range r.rules {
		if len(selected) >= bounds.Max {
			break
		}
		if !rule.pattern.MatchString(goal) {
			continue
		}
		d, ok := findRoleAgent(catalog, rule.indicators)
		if !ok || chosen[d.ID] {
			continue
		}
		chosen[d.ID] = true
		selected = append(selected, models.SelectedAgent{
			ID:     d.ID,
			Reason: fmt.Sprintf("rule match for %s role", rule.role),
		})
	}

	if len(selected) >= bounds.Min {
		return selected, nil
	}

	// Backfill from heuristic ranking.
	ranked, err := r.backfill.Select(ctx, goal, catalog, Bounds{Min: bounds.Min, Max: len(catalog)})
	if err != nil {
		return nil, err
	}
	for _, candidate := range ranked {
		if len(selected) >= bounds.Min {
			break
		}
		if chosen[candidate.ID] {
			continue
		}
		chosen[candidate.ID] = true
		candidate.Reason = "heuristic backfill: " + candidate.Reason
		selected = append(selected, candidate)
	}
	return selected, nil
}

// findRoleAgent returns the first catalog entry whose id, name or
// capabilities contain one of the role's indicator substrings.
func findRoleAgent(catalog []models.AgentDescriptor, indicators []string) (models.AgentDescriptor, bool) {
	for _, d := range catalog {
		text := searchText(d)
		for _, indicator := range indicators {
			if strings.Contains(text, indicator) {
				return d, true
			}
		}
	}
	return models.AgentDescriptor{}, false
}
