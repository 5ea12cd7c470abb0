package decomposer

import (
	"fmt"

	"github.com/Schrodinger0/codex-flow-sub001/pkg/models"
)

// ValidationResult reports whether a decomposition satisfies the schema.
type ValidationResult struct {
	// OK is true when the decomposition is structurally usable.
	OK bool
	// Err describes the first failure found, empty when OK.
	Err string
}

// Validate checks the schema of a decomposition: the plan must be
// non-empty, every dependency must resolve to a task in the same plan, and
// every order must carry a non-empty agent id. It reports a result and
// never panics. Cycle detection among declared references is the DAG
// validator's job, not this one's.
func Validate(plan []models.Task, orders []models.Order) ValidationResult {
	if len(plan) == 0 {
		return invalid("plan is empty")
	}

	ids := make(map[string]bool, len(plan))
	for i, task := range plan {
		if task.ID == "" {
			return invalid(fmt.Sprintf("plan[%d] has no id", i))
		}
		if ids[task.ID] {
			return invalid(fmt.Sprintf("duplicate task id %q", task.ID))
		}
		ids[task.ID] = true
	}

	for _, task := range plan {
		for _, dep := range task.DependsOn {
			if !ids[dep] {
				return invalid(fmt.Sprintf("task %q depends on unknown task %q", task.ID, dep))
			}
		}
	}

	for i, order := range orders {
		if order.AgentID == "" {
			return invalid(fmt.Sprintf("orders[%d] has no agent_id", i))
		}
	}

	return ValidationResult{OK: true}
}

func invalid(msg string) ValidationResult {
	return ValidationResult{OK: false, Err: msg}
}
