// Package models defines the shared data model for codex-flow planning runs.
package models

// Capabilities describes what an agent in the catalog can do.
type Capabilities struct {
	// Core is the ordered list of capability keywords for this agent.
	Core []string `json:"core"`
}

// AgentDescriptor is a single catalog entry describing an available agent.
// Descriptors are read-only inputs: loaded once per run and never mutated.
type AgentDescriptor struct {
	// ID is the unique identifier for this agent within the catalog.
	ID string `json:"id"`
	// Name is an optional human-readable name.
	Name string `json:"name,omitempty"`
	// Capabilities lists what this agent is good at.
	Capabilities Capabilities `json:"capabilities"`
	// Default marks the agent as a general-purpose fallback choice.
	Default bool `json:"default,omitempty"`
}

// SelectedAgent is one agent chosen by the selector for a run.
type SelectedAgent struct {
	// ID is the catalog identifier of the chosen agent.
	ID string `json:"id"`
	// Reason explains why this agent was selected.
	Reason string `json:"reason"`
	// OrderID back-references the order issued to this agent, if any.
	OrderID string `json:"order_id,omitempty"`
}

// AgentDefinition is the execution-time view of an agent handed to the
// execution adapter. It carries the runtime policy knobs that the catalog
// descriptor does not.
type AgentDefinition struct {
	// ID is the agent identifier. A definition without an ID is rejected
	// by the adapter's admission check.
	ID string `json:"id"`
	// Alias is the role-derived label used to bucket results.
	Alias string `json:"alias,omitempty"`
	// AllowedTools restricts which tool capabilities tasks may request.
	// Empty means unrestricted.
	AllowedTools []string `json:"allowed_tools,omitempty"`
	// RedactKeys lists payload keys that must be redacted before the
	// result is shared with the memory store.
	RedactKeys []string `json:"redact_keys,omitempty"`
}
