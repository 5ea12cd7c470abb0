// Package pipeline drives one end-to-end planning run: select agents,
// decompose the goal, validate the plan graph, compose the scenario, then
// execute its phases. Parallel phases fan tasks out concurrently; the core
// imposes no worker pool beyond that.
package pipeline

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"unicode"

	"github.com/Schrodinger0/codex-flow-sub001/internal/dag"
	"github.com/Schrodinger0/codex-flow-sub001/internal/decomposer"
	"github.com/Schrodinger0/codex-flow-sub001/internal/events"
	"github.com/Schrodinger0/codex-flow-sub001/internal/executor"
	"github.com/Schrodinger0/codex-flow-sub001/internal/ledger"
	"github.com/Schrodinger0/codex-flow-sub001/internal/memory"
	"github.com/Schrodinger0/codex-flow-sub001/internal/scenario"
	"github.com/Schrodinger0/codex-flow-sub001/internal/selector"
	"github.com/Schrodinger0/codex-flow-sub001/pkg/models"
)

// RunSummary is the outcome of one pipeline run.
type RunSummary struct {
	// RunID is the ledger identifier, empty when no ledger is attached.
	RunID string
	// Goal is the run's input goal.
	Goal string
	// Artifact is the planning artifact produced by decomposition.
	Artifact models.PlanningArtifact
	// DAGValid reports whether the artifact passed graph validation.
	DAGValid bool
	// DAGError carries the first validation failure, empty when valid.
	DAGError string
	// Scenario is the composed 3-phase schedule. A best-effort scenario
	// is produced even when validation fails.
	Scenario models.Scenario
	// Results holds one entry per executed task.
	Results []models.ExecutionResult
	// OK is true when the graph validated and every task succeeded.
	OK bool
}

// Pipeline wires the planning components to the execution adapter.
type Pipeline struct {
	selector   selector.Strategy
	decomposer decomposer.Strategy
	executor   *executor.Executor

	events      events.Sink
	memory      memory.Store
	ledger      *ledger.Ledger
	bounds      selector.Bounds
	definitions map[string]models.AgentDefinition
	strictTools bool
}

// New creates a pipeline from its three required components. Events,
// memory, and the ledger are attached via the With setters.
func New(sel selector.Strategy, dec decomposer.Strategy, exec *executor.Executor) *Pipeline {
	return &Pipeline{
		selector:   sel,
		decomposer: dec,
		executor:   exec,
		events:     events.NopSink{},
		bounds:     selector.DefaultBounds(),
	}
}

// WithEvents attaches an event sink.
func (p *Pipeline) WithEvents(sink events.Sink) *Pipeline {
	if sink != nil {
		p.events = sink
	}
	return p
}

// WithMemory attaches the memory store used for per-alias sessions.
func (p *Pipeline) WithMemory(store memory.Store) *Pipeline {
	p.memory = store
	return p
}

// WithLedger attaches the audit ledger.
func (p *Pipeline) WithLedger(l *ledger.Ledger) *Pipeline {
	p.ledger = l
	return p
}

// WithBounds overrides the selection bounds.
func (p *Pipeline) WithBounds(b selector.Bounds) *Pipeline {
	p.bounds = b
	return p
}

// WithDefinitions supplies execution-time agent definitions keyed by agent
// id. Agents without a definition get a bare one derived from their id.
func (p *Pipeline) WithDefinitions(defs map[string]models.AgentDefinition) *Pipeline {
	p.definitions = defs
	return p
}

// WithStrictTools enables tool policy enforcement during execution.
func (p *Pipeline) WithStrictTools(strict bool) *Pipeline {
	p.strictTools = strict
	return p
}

// Run executes one full planning run for the goal against the catalog.
func (p *Pipeline) Run(ctx context.Context, goal string, catalog []models.AgentDescriptor) (*RunSummary, error) {
	summary := &RunSummary{Goal: goal}

	if p.ledger != nil {
		runID, err := p.ledger.BeginRun(goal)
		if err != nil {
			return nil, fmt.Errorf("beginning ledger run: %w", err)
		}
		summary.RunID = runID
	}

	selected, err := p.selector.Select(ctx, goal, catalog, p.bounds)
	if err != nil {
		return nil, fmt.Errorf("selecting agents: %w", err)
	}
	selEvent := events.New(events.KindSelectorGenerated)
	selEvent.Detail = map[string]any{"strategy": p.selector.Name(), "count": len(selected)}
	p.events.Emit(selEvent)

	artifact, err := p.decomposer.Decompose(ctx, goal, selected, catalog)
	if err != nil {
		return nil, fmt.Errorf("decomposing goal: %w", err)
	}
	summary.Artifact = artifact
	decEvent := events.New(events.KindDecomposerGenerated)
	decEvent.Detail = map[string]any{"strategy": p.decomposer.Name(), "tasks": len(artifact.Plan), "orders": len(artifact.Orders)}
	p.events.Emit(decEvent)

	if result := dag.Validate(artifact); result.OK {
		summary.DAGValid = true
		p.events.Emit(events.New(events.KindDAGValid))
	} else {
		summary.DAGError = result.Err.Error()
	}

	// A best-effort scenario is composed even from an invalid artifact:
	// planning failures are logged, not fatal.
	summary.Scenario = scenario.Compose(goal, artifact.Agents, artifact.Plan, artifact.Orders)

	if p.ledger != nil {
		if err := p.ledger.SaveArtifact(summary.RunID, ledger.ArtifactPlanning, artifact); err != nil {
			return nil, fmt.Errorf("saving planning artifact: %w", err)
		}
		if err := p.ledger.SaveArtifact(summary.RunID, ledger.ArtifactScenario, summary.Scenario); err != nil {
			return nil, fmt.Errorf("saving scenario artifact: %w", err)
		}
	}

	summary.Results = p.executePhases(ctx, summary)

	summary.OK = summary.DAGValid
	for _, result := range summary.Results {
		if !result.OK {
			summary.OK = false
		}
	}

	if p.ledger != nil {
		for _, result := range summary.Results {
			if err := p.ledger.SaveResult(summary.RunID, result); err != nil {
				return nil, fmt.Errorf("saving result: %w", err)
			}
		}
		if err := p.ledger.FinishRun(summary.RunID, summary.OK); err != nil {
			return nil, fmt.Errorf("finishing ledger run: %w", err)
		}
	}

	return summary, nil
}

// executePhases runs the scenario phase by phase. Serial phases run tasks
// in order; parallel phases dispatch every task concurrently and wait.
func (p *Pipeline) executePhases(ctx context.Context, summary *RunSummary) []models.ExecutionResult {
	agentByAlias := make(map[string]string, len(summary.Artifact.Orders))
	for _, order := range summary.Artifact.Orders {
		alias := scenario.Alias(order.AgentID)
		if _, seen := agentByAlias[alias]; !seen {
			agentByAlias[alias] = order.AgentID
		}
	}

	sessions := make(map[string]string)
	defer func() {
		if p.memory == nil {
			return
		}
		for _, id := range sessions {
			p.memory.EndSession(ctx, id)
		}
	}()

	var (
		mu      sync.Mutex
		results []models.ExecutionResult
	)

	for _, phase := range summary.Scenario.Phases {
		type unit struct {
			alias   string
			session string
			task    executor.Task
		}
		// Sessions are opened here, before any fan-out, so concurrent
		// tasks never touch the session map.
		var units []unit
		for alias, tasks := range phase.Tasks {
			session := p.session(ctx, alias, sessions)
			for i, description := range tasks {
				units = append(units, unit{
					alias:   alias,
					session: session,
					task: executor.Task{
						ID:          fmt.Sprintf("%s-%s-%d", slug(phase.Name), alias, i),
						Description: description,
					},
				})
			}
		}

		run := func(u unit) {
			def := p.definition(u.alias, agentByAlias)
			opts := executor.Options{
				StrictTools: p.strictTools,
				SessionKey:  u.session,
			}
			result, err := p.executor.ExecuteTask(ctx, def, u.task, opts)
			if err != nil {
				result = models.ExecutionResult{
					Alias:   u.alias,
					AgentID: def.ID,
					Task:    u.task.Description,
					Summary: err.Error(),
				}
			}
			mu.Lock()
			results = append(results, result)
			mu.Unlock()
		}

		if phase.Parallel {
			var wg sync.WaitGroup
			for _, u := range units {
				wg.Add(1)
				go func(u unit) {
					defer wg.Done()
					run(u)
				}(u)
			}
			wg.Wait()
		} else {
			for _, u := range units {
				run(u)
			}
		}
	}

	return results
}

// definition resolves the execution-time definition for an alias: the
// configured definition of the agent behind the alias when one exists,
// otherwise a bare definition named after the alias itself (fixed-phase
// aliases like tester and validator may not be in the selection).
func (p *Pipeline) definition(alias string, agentByAlias map[string]string) models.AgentDefinition {
	agentID, ok := agentByAlias[alias]
	if !ok {
		agentID = alias
	}
	if def, ok := p.definitions[agentID]; ok {
		def.Alias = alias
		return def
	}
	return models.AgentDefinition{ID: agentID, Alias: alias}
}

// session lazily opens one memory session per alias. Sessions are not
// mutually excluded across concurrent tasks of the same alias; appends are
// individually atomic records.
func (p *Pipeline) session(ctx context.Context, alias string, sessions map[string]string) string {
	if p.memory == nil {
		return ""
	}
	if id, ok := sessions[alias]; ok {
		return id
	}
	id, err := p.memory.BeginSession(ctx, alias)
	if err != nil {
		return alias
	}
	sessions[alias] = id
	return id
}

func slug(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else if b.Len() > 0 && !strings.HasSuffix(b.String(), "-") {
			b.WriteRune('-')
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
