// Package decomposer turns a goal and a set of selected agents into a
// planning artifact: a task dependency graph plus per-agent orders.
package decomposer

import (
	"context"

	"github.com/google/uuid"

	"github.com/Schrodinger0/codex-flow-sub001/pkg/models"
)

// Strategy produces a planning artifact for a goal.
type Strategy interface {
	// Name identifies the strategy in logs and events.
	Name() string
	// Decompose returns the plan and orders for the goal. The returned
	// artifact always satisfies Validate; strategies that cannot
	// guarantee that internally must fall back to one that can.
	Decompose(ctx context.Context, goal string, selected []models.SelectedAgent, catalog []models.AgentDescriptor) (models.PlanningArtifact, error)
}

// Task IDs of the fixed plan skeleton.
const (
	skeletonPlanID = "plan"
	skeletonExecID = "execute"
	skeletonTestID = "test-validate"
)

// skeletonPlan returns the fixed 3-node plan: Plan -> Execute ->
// Test&Validate, with the latter two parallelizable.
func skeletonPlan(goal string) []models.Task {
	return []models.Task{
		{ID: skeletonPlanID, Title: "Plan: " + goal, DependsOn: []string{}},
		{ID: skeletonExecID, Title: "Execute: " + goal, DependsOn: []string{skeletonPlanID}, Parallelizable: true},
		{ID: skeletonTestID, Title: "Test & validate: " + goal, DependsOn: []string{skeletonExecID}, Parallelizable: true},
	}
}

// bindOrders sets the order back-references on a copy of the selected
// agents, matching orders by agent id.
func bindOrders(selected []models.SelectedAgent, orders []models.Order) []models.SelectedAgent {
	byAgent := make(map[string]string, len(orders))
	for _, o := range orders {
		if _, dup := byAgent[o.AgentID]; !dup {
			byAgent[o.AgentID] = o.OrderID
		}
	}
	bound := make([]models.SelectedAgent, len(selected))
	copy(bound, selected)
	for i := range bound {
		bound[i].OrderID = byAgent[bound[i].ID]
	}
	return bound
}

// newOrderID returns a fresh order identifier.
func newOrderID() string {
	return "order-" + uuid.New().String()
}
