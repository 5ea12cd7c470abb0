// Package executor runs one task for one agent under a deadline, with a
// remote compute path and a deterministic local-simulation fallback. Each
// invocation is independent and stateless with respect to its siblings;
// the only shared surfaces are the append-only event log and memory store.
package executor

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/Schrodinger0/codex-flow-sub001/internal/events"
	"github.com/Schrodinger0/codex-flow-sub001/internal/memory"
	"github.com/Schrodinger0/codex-flow-sub001/pkg/models"
)

// DefaultTaskTimeout bounds the remote-runtime call when no override is
// supplied.
const DefaultTaskTimeout = 600000 * time.Millisecond

// Engine names for ExecutionResult.Engine.
const (
	EngineRemote     = "remote"
	EngineSimulation = "simulation"
	EnginePolicy     = "policy"
)

// Task is one unit of work handed to ExecuteTask.
type Task struct {
	// ID is the task identifier, unique within the run.
	ID string `json:"id"`
	// Type optionally discriminates the simulation path ("review",
	// "architecture"). Empty types are classified from the description.
	Type string `json:"type,omitempty"`
	// Description is the task text.
	Description string `json:"description"`
	// Tools lists the tool capabilities the task requests.
	Tools []string `json:"tools,omitempty"`
}

// Options tunes a single ExecuteTask call.
type Options struct {
	// StrictTools enables the tool policy check.
	StrictTools bool
	// Timeout overrides the default remote deadline when positive.
	Timeout time.Duration
	// RemoteEndpoint overrides the executor's configured endpoint.
	RemoteEndpoint string
	// SessionKey is the memory session the redacted result is appended
	// under. Defaults to the agent's alias.
	SessionKey string
}

// Executor is the execution adapter.
type Executor struct {
	events    events.Sink
	memory    memory.Store
	workspace *Workspace

	remoteEndpoint string
	timeout        time.Duration
	verbose        bool
	client         *http.Client
}

// New creates an executor. sink and store may be nil, in which case events
// and memory appends are dropped. workspace may be nil to skip payload
// persistence.
func New(sink events.Sink, store memory.Store, workspace *Workspace) *Executor {
	if sink == nil {
		sink = events.NopSink{}
	}
	return &Executor{
		events:    sink,
		memory:    store,
		workspace: workspace,
		timeout:   DefaultTaskTimeout,
		client:    &http.Client{},
	}
}

// WithRemote configures the default remote compute endpoint.
func (e *Executor) WithRemote(endpoint string) *Executor {
	e.remoteEndpoint = endpoint
	return e
}

// WithTimeout sets the default per-task deadline.
func (e *Executor) WithTimeout(d time.Duration) *Executor {
	if d > 0 {
		e.timeout = d
	}
	return e
}

// WithVerbose surfaces remote-fallback warnings on stderr.
func (e *Executor) WithVerbose(verbose bool) *Executor {
	e.verbose = verbose
	return e
}

// Admit checks the one unrecoverable precondition: an agent definition
// must carry a non-empty identifier. Callers must not proceed on error.
func Admit(def models.AgentDefinition) error {
	if strings.TrimSpace(def.ID) == "" {
		return fmt.Errorf("agent definition missing id")
	}
	return nil
}

// ExecuteTask runs one task and returns exactly one ExecutionResult. The
// returned error is non-nil only for the admission precondition; every
// execution outcome, including policy rejection and remote failure, is
// reported through the result itself.
func (e *Executor) ExecuteTask(ctx context.Context, def models.AgentDefinition, task Task, opts Options) (models.ExecutionResult, error) {
	if err := Admit(def); err != nil {
		return models.ExecutionResult{}, err
	}

	alias := def.Alias
	if alias == "" {
		alias = def.ID
	}
	start := time.Now()

	if opts.StrictTools && len(def.AllowedTools) > 0 {
		if disallowed := disallowedTools(task.Tools, def.AllowedTools); len(disallowed) > 0 {
			result := models.ExecutionResult{
				Alias:   alias,
				AgentID: def.ID,
				Task:    task.Description,
				OK:      false,
				MS:      time.Since(start).Milliseconds(),
				Engine:  EnginePolicy,
				Summary: "Disallowed tool(s): " + strings.Join(disallowed, ", "),
			}
			event := events.New(events.KindPolicyViolation)
			event.Alias = alias
			event.AgentID = def.ID
			event.TaskID = task.ID
			event.Task = task.Description
			event.Error = result.Summary
			e.events.Emit(event)
			return result, nil
		}
	}

	if e.workspace != nil {
		if err := e.workspace.WriteInput(alias, task.ID, task); err != nil && e.verbose {
			color.New(color.FgYellow).Fprintf(os.Stderr, "warn: workspace input write failed: %v\n", err)
		}
	}

	started := events.New(events.KindTaskStarted)
	started.Alias = alias
	started.AgentID = def.ID
	started.TaskID = task.ID
	started.Task = task.Description
	e.events.Emit(started)

	ok, engine, summary, output := e.run(ctx, task, opts)

	result := models.ExecutionResult{
		Alias:   alias,
		AgentID: def.ID,
		Task:    task.Description,
		OK:      ok,
		MS:      time.Since(start).Milliseconds(),
		Engine:  engine,
		Summary: summary,
		Output:  output,
	}

	if e.workspace != nil {
		if err := e.workspace.WriteResult(alias, task.ID, result); err != nil && e.verbose {
			color.New(color.FgYellow).Fprintf(os.Stderr, "warn: workspace result write failed: %v\n", err)
		}
	}

	if e.memory != nil {
		sessionKey := opts.SessionKey
		if sessionKey == "" {
			sessionKey = alias
		}
		entry := memory.Entry{
			"alias":   result.Alias,
			"agentId": result.AgentID,
			"task":    result.Task,
			"ok":      result.OK,
			"ms":      result.MS,
			"engine":  result.Engine,
			"summary": result.Summary,
			"output":  result.Output,
		}
		if err := e.memory.Append(ctx, sessionKey, entry, def.RedactKeys); err != nil && e.verbose {
			color.New(color.FgYellow).Fprintf(os.Stderr, "warn: memory append failed: %v\n", err)
		}
	}

	complete := events.New(events.KindTaskComplete)
	complete.Alias = alias
	complete.AgentID = def.ID
	complete.TaskID = task.ID
	complete.OK = &result.OK
	complete.MS = result.MS
	e.events.Emit(complete)

	telemetry := events.New(events.KindTelemetry)
	telemetry.Alias = alias
	telemetry.AgentID = def.ID
	telemetry.TaskID = task.ID
	telemetry.Engine = result.Engine
	telemetry.MS = result.MS
	e.events.Emit(telemetry)

	if e.workspace != nil {
		e.workspace.Prune(alias)
	}

	return result, nil
}

// run picks the execution path: a reachable remote runtime under the
// deadline, otherwise local simulation. The deadline is propagated to the
// remote call only; simulation runs to completion regardless of the
// context's state.
func (e *Executor) run(ctx context.Context, task Task, opts Options) (ok bool, engine, summary string, output map[string]any) {
	endpoint := opts.RemoteEndpoint
	if endpoint == "" {
		endpoint = e.remoteEndpoint
	}

	if endpoint != "" {
		timeout := e.timeout
		if opts.Timeout > 0 {
			timeout = opts.Timeout
		}
		remoteCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		remote, err := e.runRemote(remoteCtx, endpoint, task)
		if err == nil {
			return remote.OK, EngineRemote, remote.Summary, remote.Output
		}
		if e.verbose {
			color.New(color.FgYellow).Fprintf(os.Stderr, "warn: remote runtime failed, falling back to simulation: %v\n", err)
		}
	}

	sim := Simulate(task)
	return sim.OK, EngineSimulation, sim.Summary, sim.Output
}

// disallowedTools returns the requested tools absent from the allow list,
// sorted for deterministic summaries.
func disallowedTools(requested, allowed []string) []string {
	allowedSet := make(map[string]bool, len(allowed))
	for _, tool := range allowed {
		allowedSet[strings.ToLower(tool)] = true
	}
	var disallowed []string
	for _, tool := range requested {
		if !allowedSet[strings.ToLower(tool)] {
			disallowed = append(disallowed, tool)
		}
	}
	sort.Strings(disallowed)
	return disallowed
}
