package decomposer

import (
	"context"
	"fmt"
	"strings"

	"github.com/Schrodinger0/codex-flow-sub001/pkg/models"
)

// Heuristic emits the fixed plan skeleton and one generic order per
// selected agent.
type Heuristic struct{}

// Name identifies the strategy.
func (Heuristic) Name() string { return "heuristic" }

// Decompose builds the 3-node skeleton and a generic order per agent.
func (Heuristic) Decompose(_ context.Context, goal string, selected []models.SelectedAgent, _ []models.AgentDescriptor) (models.PlanningArtifact, error) {
	orders := make([]models.Order, 0, len(selected))
	for _, agent := range selected {
		orders = append(orders, models.Order{
			OrderID: newOrderID(),
			AgentID: agent.ID,
			Objectives: []string{
				fmt.Sprintf("Advance the goal: %s", goal),
			},
			Constraints:     []string{"Stay within the scope of the stated goal"},
			ExpectedOutputs: []string{"A summary of completed work"},
			Handoff:         []string{},
		})
	}

	return models.PlanningArtifact{
		Agents: bindOrders(selected, orders),
		Plan:   skeletonPlan(goal),
		Orders: orders,
	}, nil
}

// Rules emits the same skeleton but picks objectives by matching each
// agent identifier against role-indicative substrings.
type Rules struct{}

// Name identifies the strategy.
func (Rules) Name() string { return "rules" }

// roleObjective pairs id substrings with the objectives issued to agents
// in that role. Evaluated in order; first match wins.
var roleObjectives = []struct {
	indicators []string
	objectives func(goal string) []string
	outputs    []string
}{
	{
		indicators: []string{"architect", "architecture"},
		objectives: func(goal string) []string {
			return []string{
				fmt.Sprintf("Propose architecture for %s", goal),
				"Define module boundaries and interfaces",
			}
		},
		outputs: []string{"Architecture outline", "Interface definitions"},
	},
	{
		indicators: []string{"backend", "api", "server"},
		objectives: func(goal string) []string {
			return []string{
				fmt.Sprintf("Implement backend services for %s", goal),
				"Expose the required API endpoints",
			}
		},
		outputs: []string{"Working backend endpoints"},
	},
	{
		indicators: []string{"frontend", "coder", "ui"},
		objectives: func(goal string) []string {
			return []string{
				fmt.Sprintf("Build the user-facing parts of %s", goal),
				"Wire the UI to the backend API",
			}
		},
		outputs: []string{"Functional UI components"},
	},
	{
		indicators: []string{"docs", "doc", "writer"},
		objectives: func(goal string) []string {
			return []string{
				fmt.Sprintf("Document %s", goal),
				"Keep the README current with the implementation",
			}
		},
		outputs: []string{"Updated documentation"},
	},
	{
		indicators: []string{"test", "tester", "qa", "valid"},
		objectives: func(goal string) []string {
			return []string{
				fmt.Sprintf("Write tests covering %s", goal),
				"Report gaps between behavior and expectations",
			}
		},
		outputs: []string{"Test suite", "Validation report"},
	},
}

// Decompose builds the skeleton plan with role-matched orders.
func (Rules) Decompose(_ context.Context, goal string, selected []models.SelectedAgent, _ []models.AgentDescriptor) (models.PlanningArtifact, error) {
	orders := make([]models.Order, 0, len(selected))
	for _, agent := range selected {
		objectives, outputs := objectivesForAgent(agent.ID, goal)
		orders = append(orders, models.Order{
			OrderID:         newOrderID(),
			AgentID:         agent.ID,
			Objectives:      objectives,
			Constraints:     []string{"Stay within the scope of the stated goal"},
			ExpectedOutputs: outputs,
			Handoff:         []string{},
		})
	}

	return models.PlanningArtifact{
		Agents: bindOrders(selected, orders),
		Plan:   skeletonPlan(goal),
		Orders: orders,
	}, nil
}

// objectivesForAgent matches the agent id against role indicators and
// returns that role's objectives, or a generic objective when no role
// matches.
func objectivesForAgent(agentID, goal string) (objectives, outputs []string) {
	id := strings.ToLower(agentID)
	for _, role := range roleObjectives {
		for _, indicator := range role.indicators {
			if strings.Contains(id, indicator) {
				return role.objectives(goal), role.outputs
			}
		}
	}
	return []string{fmt.Sprintf("Advance the goal: %s", goal)},
		[]string{"A summary of completed work"}
}
