package decomposer

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Schrodinger0/codex-flow-sub001/internal/backend"
	"github.com/Schrodinger0/codex-flow-sub001/internal/events"
	"github.com/Schrodinger0/codex-flow-sub001/pkg/models"
)

// Delegated defers decomposition to a generative backend. The response is
// schema-validated; an invalid response earns exactly one retry with the
// validation error appended to the prompt, after which the strategy
// degrades to heuristic decomposition. This bounded retry-then-fallback
// chain is the resilience mechanism for unreliable backends.
type Delegated struct {
	generator backend.Generator
	sink      events.Sink
	fallback  Heuristic
}

// NewDelegated creates the delegated strategy. sink may be nil.
func NewDelegated(generator backend.Generator, sink events.Sink) *Delegated {
	if sink == nil {
		sink = events.NopSink{}
	}
	return &Delegated{generator: generator, sink: sink}
}

// Name identifies the strategy.
func (*Delegated) Name() string { return "delegated" }

const decomposePromptFmt = `You are a planning decomposer. Break the goal into a task
dependency graph and one order per selected agent.

Goal: %s

Selected agents (JSON):
%s

Respond with ONLY a JSON object shaped like:
{
  "plan": [{"id": "t1", "title": "...", "dependsOn": [], "parallelizable": false}],
  "orders": [{"order_id": "o1", "agent_id": "<selected id>", "objectives": ["..."],
              "constraints": [], "expected_outputs": [], "handoff": []}]
}
Every dependsOn entry must reference a task id present in the plan.
Every order must name one of the selected agents. No prose.%s`

// generated is the JSON shape demanded from the backend.
type generated struct {
	Plan   []models.Task  `json:"plan"`
	Orders []models.Order `json:"orders"`
}

// Decompose issues one generation, validates it, retries once with the
// validation error on failure, and finally falls back to the heuristic
// strategy.
func (d *Delegated) Decompose(ctx context.Context, goal string, selected []models.SelectedAgent, catalog []models.AgentDescriptor) (models.PlanningArtifact, error) {
	if d.generator == nil {
		return d.fallback.Decompose(ctx, goal, selected, catalog)
	}

	agentsJSON, err := json.Marshal(selected)
	if err != nil {
		return d.fallback.Decompose(ctx, goal, selected, catalog)
	}

	hint := ""
	for attempt := 0; attempt < 2; attempt++ {
		prompt := fmt.Sprintf(decomposePromptFmt, goal, agentsJSON, hint)
		artifact, verr, err := d.generateOnce(ctx, prompt, selected)
		if err != nil {
			// Backend unreachable or output unusable; no point retrying
			// with the same conditions.
			break
		}
		if verr == "" {
			return artifact, nil
		}

		event := events.New(events.KindDecomposerInvalid)
		event.Error = verr
		event.Detail = map[string]any{"attempt": attempt + 1, "backend": d.generator.Name()}
		d.sink.Emit(event)

		hint = fmt.Sprintf("\n\nYour previous response was invalid: %s. Correct it.", verr)
	}

	return d.fallback.Decompose(ctx, goal, selected, catalog)
}

// generateOnce performs one backend call. It returns a non-empty verr when
// the output parsed but failed schema validation, and err when the call or
// parse failed outright.
func (d *Delegated) generateOnce(ctx context.Context, prompt string, selected []models.SelectedAgent) (models.PlanningArtifact, string, error) {
	raw, err := d.generator.Generate(ctx, prompt)
	if err != nil {
		return models.PlanningArtifact{}, "", err
	}

	payload := backend.ExtractJSONObject(raw)
	if payload == "" {
		return models.PlanningArtifact{}, "", fmt.Errorf("no JSON object in response")
	}

	var out generated
	if err := json.Unmarshal([]byte(payload), &out); err != nil {
		return models.PlanningArtifact{}, "", fmt.Errorf("unmarshal response: %w", err)
	}

	if result := Validate(out.Plan, out.Orders); !result.OK {
		return models.PlanningArtifact{}, result.Err, nil
	}

	for i := range out.Orders {
		if out.Orders[i].OrderID == "" {
			out.Orders[i].OrderID = newOrderID()
		}
	}

	return models.PlanningArtifact{
		Agents: bindOrders(selected, out.Orders),
		Plan:   out.Plan,
		Orders: out.Orders,
	}, "", nil
}
