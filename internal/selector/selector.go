// Package selector chooses agents from the catalog for a goal.
// Three strategies implement one interface: heuristic scoring, deterministic
// rule matching, and delegation to a generative backend.
package selector

import (
	"context"
	"strings"
	"unicode"

	"github.com/Schrodinger0/codex-flow-sub001/pkg/models"
)

// Bounds limits how many agents a selection may return.
type Bounds struct {
	// Min is the lower bound on selected agents.
	Min int
	// Max is the upper bound on selected agents.
	Max int
}

// DefaultBounds returns the standard selection bounds.
func DefaultBounds() Bounds {
	return Bounds{Min: 2, Max: 5}
}

// normalize applies defaults for unset or inverted bounds.
func (b Bounds) normalize() Bounds {
	if b.Min <= 0 {
		b.Min = 2
	}
	if b.Max <= 0 {
		b.Max = 5
	}
	if b.Max < b.Min {
		b.Max = b.Min
	}
	return b
}

// Strategy selects agents from a catalog for a goal.
type Strategy interface {
	// Name identifies the strategy in logs and events.
	Name() string
	// Select returns between bounds.Min and bounds.Max agents drawn from
	// the catalog, each with a non-empty reason.
	Select(ctx context.Context, goal string, catalog []models.AgentDescriptor, bounds Bounds) ([]models.SelectedAgent, error)
}

// tokenize lowercases the goal and splits it on non-alphanumeric runes.
func tokenize(goal string) []string {
	return strings.FieldsFunc(strings.ToLower(goal), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// searchText concatenates the descriptor fields used for token matching.
func searchText(d models.AgentDescriptor) string {
	parts := []string{d.ID, d.Name}
	parts = append(parts, d.Capabilities.Core...)
	return strings.ToLower(strings.Join(parts, " "))
}
