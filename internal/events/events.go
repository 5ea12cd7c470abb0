// Package events provides the append-only event log for planning and
// execution lifecycles. Each record is a self-contained JSON line so that
// concurrent writers can interleave lines without corrupting readers.
package events

import "time"

// Kind identifies the type of an event record.
type Kind string

const (
	// KindTaskStarted marks the start of a task execution.
	KindTaskStarted Kind = "task_started"
	// KindTaskComplete marks the end of a task execution.
	KindTaskComplete Kind = "task_complete"
	// KindPolicyViolation marks a task rejected by the tool policy.
	KindPolicyViolation Kind = "policy_violation"
	// KindSelectorGenerated marks a completed agent selection.
	KindSelectorGenerated Kind = "selector_generated"
	// KindDecomposerGenerated marks a completed decomposition.
	KindDecomposerGenerated Kind = "decomposer_generated"
	// KindDAGValid marks a planning artifact that passed validation.
	KindDAGValid Kind = "dag_valid"
	// KindDecomposerInvalid marks a delegated decomposition that failed
	// schema validation.
	KindDecomposerInvalid Kind = "decomposer_invalid"
	// KindTelemetry carries an execution telemetry record.
	KindTelemetry Kind = "telemetry"
)

// Event is one record in the event log.
type Event struct {
	// TS is the event timestamp in RFC3339Nano.
	TS string `json:"ts"`
	// Kind is the event type.
	Kind Kind `json:"kind"`
	// Alias is the role alias, when the event concerns one task.
	Alias string `json:"alias,omitempty"`
	// AgentID is the related agent identifier, if any.
	AgentID string `json:"agent_id,omitempty"`
	// TaskID is the related task identifier, if any.
	TaskID string `json:"task_id,omitempty"`
	// Task is the task description, if any.
	Task string `json:"task,omitempty"`
	// OK carries the success flag for completion events.
	OK *bool `json:"ok,omitempty"`
	// MS is the duration in milliseconds for completion and telemetry.
	MS int64 `json:"ms,omitempty"`
	// Engine names the execution path for telemetry records.
	Engine string `json:"engine,omitempty"`
	// Error carries failure detail, if any.
	Error string `json:"error,omitempty"`
	// Detail carries kind-specific extra fields.
	Detail map[string]any `json:"detail,omitempty"`
}

// New returns an event of the given kind stamped with the current time.
func New(kind Kind) Event {
	return Event{TS: time.Now().UTC().Format(time.RFC3339Nano), Kind: kind}
}

// Sink receives event records. Implementations must be safe for use by
// concurrent goroutines.
type Sink interface {
	Emit(event Event)
}

// NopSink discards all events.
type NopSink struct{}

// Emit discards the event.
func (NopSink) Emit(Event) {}
