// Package dag structurally verifies a planning artifact: dependency
// references must close over the plan, orders must reference selected
// agents, and the dependency relation must be acyclic.
package dag

import (
	"errors"
	"fmt"

	"github.com/Schrodinger0/codex-flow-sub001/pkg/models"
)

// ErrCycleDetected indicates a circular dependency among plan tasks.
var ErrCycleDetected = errors.New("cycle_detected")

// Result is the outcome of validating one artifact.
type Result struct {
	// OK is true when the artifact passed every check.
	OK bool
	// Err holds the first failing check's error, nil when OK.
	Err error
}

// Validate runs the checks in order: dependency closure, agent references,
// then the topological cycle check. The first failing check's error wins.
func Validate(artifact models.PlanningArtifact) Result {
	if err := checkDependencyClosure(artifact.Plan); err != nil {
		return Result{Err: err}
	}
	if err := checkAgentReferences(artifact.Agents, artifact.Orders); err != nil {
		return Result{Err: err}
	}
	if err := checkAcyclic(artifact.Plan); err != nil {
		return Result{Err: err}
	}
	return Result{OK: true}
}

// checkDependencyClosure verifies every dependsOn reference resolves to a
// task in the plan.
func checkDependencyClosure(plan []models.Task) error {
	ids := make(map[string]bool, len(plan))
	for _, task := range plan {
		ids[task.ID] = true
	}
	for _, task := range plan {
		for _, dep := range task.DependsOn {
			if !ids[dep] {
				return fmt.Errorf("unknown_dep:%s", dep)
			}
		}
	}
	return nil
}

// checkAgentReferences verifies every order names a selected agent. With
// an empty selection the check is skipped: there is nothing to reference
// against.
func checkAgentReferences(agents []models.SelectedAgent, orders []models.Order) error {
	if len(agents) == 0 {
		return nil
	}
	selected := make(map[string]bool, len(agents))
	for _, a := range agents {
		selected[a.ID] = true
	}
	for _, order := range orders {
		if !selected[order.AgentID] {
			return fmt.Errorf("unknown_agent:%s", order.AgentID)
		}
	}
	return nil
}

// checkAcyclic runs Kahn's algorithm: build adjacency from each task to
// its dependents, seed a queue with zero-in-degree nodes, and dequeue
// while decrementing dependents. Fewer dequeued nodes than total nodes
// means a cycle.
func checkAcyclic(plan []models.Task) error {
	dependents := make(map[string][]string, len(plan))
	inDegree := make(map[string]int, len(plan))
	for _, task := range plan {
		inDegree[task.ID] = len(task.DependsOn)
		for _, dep := range task.DependsOn {
			dependents[dep] = append(dependents[dep], task.ID)
		}
	}

	var queue []string
	for _, task := range plan {
		if inDegree[task.ID] == 0 {
			queue = append(queue, task.ID)
		}
	}

	visited := 0
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		visited++
		for _, next := range dependents[id] {
			inDegree[next]--
			if inDegree[next] == 0 {
				queue = append(queue, next)
			}
		}
	}

	if visited < len(plan) {
		return ErrCycleDetected
	}
	return nil
}

// TopologicalOrder returns plan task IDs in an order consistent with every
// dependsOn edge. It fails with ErrCycleDetected on cyclic plans and with
// an unknown_dep error on unresolved references.
func TopologicalOrder(plan []models.Task) ([]string, error) {
	if err := checkDependencyClosure(plan); err != nil {
		return nil, err
	}

	dependents := make(map[string][]string, len(plan))
	inDegree := make(map[string]int, len(plan))
	for _, task := range plan {
		inDegree[task.ID] = len(task.DependsOn)
		for _, dep := range task.DependsOn {
			dependents[dep] = append(dependents[dep], task.ID)
		}
	}

	var queue []string
	for _, task := range plan {
		if inDegree[task.ID] == 0 {
			queue = append(queue, task.ID)
		}
	}

	order := make([]string, 0, len(plan))
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		order = append(order, id)
		for _, next := range dependents[id] {
			inDegree[next]--
			if inDegree[next] == 0 {
				queue = append(queue, next)
			}
		}
	}

	if len(order) < len(plan) {
		return nil, ErrCycleDetected
	}
	return order, nil
}
