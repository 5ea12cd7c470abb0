package models

// Task is a single node in a plan's dependency graph.
type Task struct {
	// ID is unique within the plan.
	ID string `json:"id"`
	// Title is the short description of the task.
	Title string `json:"title"`
	// DependsOn lists task IDs that must complete before this task.
	// Every referenced ID must exist in the same plan.
	DependsOn []string `json:"dependsOn"`
	// Parallelizable indicates the task may run alongside its siblings.
	Parallelizable bool `json:"parallelizable"`
}

// Order is the concrete directive set handed to one selected agent.
type Order struct {
	// OrderID is the unique identifier of this order.
	OrderID string `json:"order_id"`
	// AgentID is the selected agent this order is addressed to.
	AgentID string `json:"agent_id"`
	// Objectives is the ordered list of goals for the agent.
	Objectives []string `json:"objectives"`
	// Constraints lists restrictions the agent must honor.
	Constraints []string `json:"constraints"`
	// ExpectedOutputs lists the artifacts the agent should produce.
	ExpectedOutputs []string `json:"expected_outputs"`
	// Handoff lists follow-up notes for downstream agents.
	Handoff []string `json:"handoff"`
}

// PlanningArtifact is the immutable output of one planning run: the chosen
// agents, the task dependency graph, and the per-agent orders.
type PlanningArtifact struct {
	// Agents are the selected agents for this run.
	Agents []SelectedAgent `json:"agents"`
	// Plan is the ordered list of tasks forming the dependency graph.
	Plan []Task `json:"plan"`
	// Orders holds one directive set per selected agent.
	Orders []Order `json:"orders"`
}
