package models

// ExecutionResult records the outcome of one execution adapter invocation.
// Results are created once and appended downstream, never mutated.
type ExecutionResult struct {
	// Alias is the role alias the task was bucketed under.
	Alias string `json:"alias"`
	// AgentID is the identifier of the agent that ran the task.
	AgentID string `json:"agentId"`
	// Task is the task description that was executed.
	Task string `json:"task"`
	// OK reports whether the chosen execution path succeeded.
	OK bool `json:"ok"`
	// MS is the wall-clock duration of the timeout wrapper, in milliseconds.
	MS int64 `json:"ms"`
	// Engine names the execution path that ran (remote runtime or simulation).
	Engine string `json:"engine"`
	// Summary is a one-line human-readable outcome.
	Summary string `json:"summary"`
	// Output is the structured payload produced by the execution path.
	Output map[string]any `json:"output,omitempty"`
}
