// Package scenario converts a validated planning artifact into the fixed
// 3-phase executable schedule, bucketed by agent role alias.
package scenario

import (
	"strings"

	"github.com/Schrodinger0/codex-flow-sub001/pkg/models"
)

// aliasRules maps role-indicative id substrings to aliases, in priority
// order. Identifiers matching nothing keep their raw id as alias.
var aliasRules = []struct {
	alias      string
	indicators []string
}{
	{"architect", []string{"architect"}},
	{"backend", []string{"backend"}},
	{"coder", []string{"coder", "frontend"}},
	{"docs", []string{"docs", "doc"}},
	{"tester", []string{"test"}},
	{"validator", []string{"valid"}},
	{"scaffold", []string{"scaffold"}},
}

// Alias derives the role alias for an agent identifier.
func Alias(agentID string) string {
	id := strings.ToLower(agentID)
	for _, rule := range aliasRules {
		for _, indicator := range rule.indicators {
			if strings.Contains(id, indicator) {
				return rule.alias
			}
		}
	}
	return agentID
}

// maxObjectivesPerOrder caps how many of an order's objectives appear in
// the Execute phase.
const maxObjectivesPerOrder = 2

// Compose builds the schedule. It always returns exactly three phases,
// independent of plan size: the plan skeleton is a planning artifact, the
// scenario is a presentation/execution artifact derived from it.
func Compose(title string, agents []models.SelectedAgent, plan []models.Task, orders []models.Order) models.Scenario {
	why := make(map[string]string, len(agents))
	for _, agent := range agents {
		why[agent.ID] = agent.Reason
	}

	planTask := title
	if planTask == "" {
		planTask = "define architecture and constraints"
	}

	execute := make(map[string][]string)
	for _, order := range orders {
		alias := Alias(order.AgentID)
		objectives := order.Objectives
		if len(objectives) > maxObjectivesPerOrder {
			objectives = objectives[:maxObjectivesPerOrder]
		}
		if len(objectives) == 0 {
			objectives = []string{"carry out assigned work for " + order.AgentID}
		}
		execute[alias] = append(execute[alias], objectives...)
	}

	return models.Scenario{
		Title: title,
		Why:   why,
		Phases: []models.Phase{
			{
				Name:     models.PhasePlan,
				Parallel: false,
				Tasks:    map[string][]string{"architect": {planTask}},
			},
			{
				Name:     models.PhaseExecute,
				Parallel: true,
				Tasks:    execute,
			},
			{
				Name:     models.PhaseTestValidate,
				Parallel: true,
				Tasks: map[string][]string{
					"tester":    {"run the test suite and report failures"},
					"validator": {"validate outputs against expected results"},
				},
			},
		},
	}
}
