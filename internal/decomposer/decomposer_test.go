package decomposer

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/Schrodinger0/codex-flow-sub001/internal/events"
	"github.com/Schrodinger0/codex-flow-sub001/pkg/models"
)

func selectedAgents() []models.SelectedAgent {
	return []models.SelectedAgent{
		{ID: "architect", Reason: "design"},
		{ID: "backend-engineer", Reason: "api"},
		{ID: "tester", Reason: "tests"},
	}
}

func TestHeuristicDecomposeSkeleton(t *testing.T) {
	artifact, err := Heuristic{}.Decompose(context.Background(), "ship the feature", selectedAgents(), nil)
	if err != nil {
		t.Fatalf("Decompose() error = %v", err)
	}

	if len(artifact.Plan) != 3 {
		t.Fatalf("plan has %d tasks, want 3", len(artifact.Plan))
	}
	if artifact.Plan[0].ID != skeletonPlanID || len(artifact.Plan[0].DependsOn) != 0 {
		t.Errorf("first task = %+v, want root plan node", artifact.Plan[0])
	}
	if artifact.Plan[1].DependsOn[0] != skeletonPlanID || !artifact.Plan[1].Parallelizable {
		t.Errorf("execute task = %+v, want dep on plan and parallelizable", artifact.Plan[1])
	}
	if artifact.Plan[2].DependsOn[0] != skeletonExecID || !artifact.Plan[2].Parallelizable {
		t.Errorf("test task = %+v, want dep on execute and parallelizable", artifact.Plan[2])
	}

	if len(artifact.Orders) != 3 {
		t.Fatalf("orders = %d, want one per agent", len(artifact.Orders))
	}
	for i, order := range artifact.Orders {
		if order.OrderID == "" {
			t.Errorf("orders[%d] has no order_id", i)
		}
		if order.AgentID == "" {
			t.Errorf("orders[%d] has no agent_id", i)
		}
	}

	// Back-references bind agents to their orders.
	for _, agent := range artifact.Agents {
		if agent.OrderID == "" {
			t.Errorf("agent %q has no order back-reference", agent.ID)
		}
	}
}

func TestHeuristicAndRulesSatisfyValidate(t *testing.T) {
	strategies := []Strategy{Heuristic{}, Rules{}}
	for _, s := range strategies {
		t.Run(s.Name(), func(t *testing.T) {
			artifact, err := s.Decompose(context.Background(), "any goal at all", selectedAgents(), nil)
			if err != nil {
				t.Fatalf("Decompose() error = %v", err)
			}
			if result := Validate(artifact.Plan, artifact.Orders); !result.OK {
				t.Errorf("Validate() failed for %s output: %s", s.Name(), result.Err)
			}
		})
	}
}

func TestRulesObjectivesMatchRole(t *testing.T) {
	artifact, err := Rules{}.Decompose(context.Background(), "the billing service", selectedAgents(), nil)
	if err != nil {
		t.Fatalf("Decompose() error = %v", err)
	}

	byAgent := make(map[string]models.Order)
	for _, order := range artifact.Orders {
		byAgent[order.AgentID] = order
	}

	if obj := byAgent["architect"].Objectives[0]; !strings.Contains(obj, "architecture") {
		t.Errorf("architect objective = %q, want architecture role objective", obj)
	}
	if obj := byAgent["backend-engineer"].Objectives[0]; !strings.Contains(obj, "backend") {
		t.Errorf("backend objective = %q, want backend role objective", obj)
	}
	if obj := byAgent["tester"].Objectives[0]; !strings.Contains(obj, "tests") {
		t.Errorf("tester objective = %q, want testing role objective", obj)
	}
}

func TestRulesUnmatchedAgentGetsGenericObjective(t *testing.T) {
	artifact, err := Rules{}.Decompose(context.Background(), "goal", []models.SelectedAgent{{ID: "mystery-agent", Reason: "r"}}, nil)
	if err != nil {
		t.Fatalf("Decompose() error = %v", err)
	}
	if obj := artifact.Orders[0].Objectives[0]; !strings.Contains(obj, "Advance the goal") {
		t.Errorf("objective = %q, want generic objective", obj)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		plan    []models.Task
		orders  []models.Order
		wantOK  bool
		wantErr string
	}{
		{
			name:   "valid",
			plan:   []models.Task{{ID: "a"}, {ID: "b", DependsOn: []string{"a"}}},
			orders: []models.Order{{OrderID: "o1", AgentID: "x"}},
			wantOK: true,
		},
		{
			name:    "empty plan",
			plan:    nil,
			wantOK:  false,
			wantErr: "plan is empty",
		},
		{
			name:    "unknown dependency",
			plan:    []models.Task{{ID: "a", DependsOn: []string{"zzz"}}},
			wantOK:  false,
			wantErr: "unknown task",
		},
		{
			name:    "self reference is undeclared here",
			plan:    []models.Task{{ID: "a", DependsOn: []string{"a"}}},
			wantOK:  true, // declared reference; cycle detection is the DAG validator's job
		},
		{
			name:    "order missing agent",
			plan:    []models.Task{{ID: "a"}},
			orders:  []models.Order{{OrderID: "o1"}},
			wantOK:  false,
			wantErr: "agent_id",
		},
		{
			name:    "duplicate task id",
			plan:    []models.Task{{ID: "a"}, {ID: "a"}},
			wantOK:  false,
			wantErr: "duplicate",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Validate(tt.plan, tt.orders)
			if result.OK != tt.wantOK {
				t.Fatalf("Validate() OK = %v, want %v (err=%q)", result.OK, tt.wantOK, result.Err)
			}
			if !tt.wantOK && !strings.Contains(result.Err, tt.wantErr) {
				t.Errorf("Validate() err = %q, want it to contain %q", result.Err, tt.wantErr)
			}
		})
	}
}

// scriptedGenerator returns queued responses in order.
type scriptedGenerator struct {
	responses []string
	err       error
	calls     int
}

func (s *scriptedGenerator) Name() string { return "scripted" }

func (s *scriptedGenerator) Generate(context.Context, string) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	if s.calls <= len(s.responses) {
		return s.responses[s.calls-1], nil
	}
	return "", errors.New("no more scripted responses")
}

const validGeneration = `{
  "plan": [
    {"id": "t1", "title": "Lay groundwork", "dependsOn": [], "parallelizable": false},
    {"id": "t2", "title": "Build it", "dependsOn": ["t1"], "parallelizable": true}
  ],
  "orders": [
    {"order_id": "o1", "agent_id": "architect", "objectives": ["design"], "constraints": [], "expected_outputs": [], "handoff": []}
  ]
}`

const undeclaredDepGeneration = `{
  "plan": [{"id": "t1", "title": "Broken", "dependsOn": ["ghost"], "parallelizable": false}],
  "orders": [{"order_id": "o1", "agent_id": "architect", "objectives": [], "constraints": [], "expected_outputs": [], "handoff": []}]
}`

func TestDelegatedDecomposeValidFirstTry(t *testing.T) {
	gen := &scriptedGenerator{responses: []string{validGeneration}}
	d := NewDelegated(gen, nil)

	artifact, err := d.Decompose(context.Background(), "goal", selectedAgents(), nil)
	if err != nil {
		t.Fatalf("Decompose() error = %v", err)
	}
	if gen.calls != 1 {
		t.Errorf("backend called %d times, want 1", gen.calls)
	}
	if len(artifact.Plan) != 2 || artifact.Plan[1].ID != "t2" {
		t.Errorf("plan = %+v, want the generated 2-task plan", artifact.Plan)
	}
}

func TestDelegatedRetriesOnceThenSucceeds(t *testing.T) {
	rec := &events.Recorder{}
	gen := &scriptedGenerator{responses: []string{undeclaredDepGeneration, validGeneration}}
	d := NewDelegated(gen, rec)

	artifact, err := d.Decompose(context.Background(), "goal", selectedAgents(), nil)
	if err != nil {
		t.Fatalf("Decompose() error = %v", err)
	}
	if gen.calls != 2 {
		t.Errorf("backend called %d times, want 2 (one retry)", gen.calls)
	}
	if len(artifact.Plan) != 2 {
		t.Errorf("plan size = %d, want the retried valid plan", len(artifact.Plan))
	}
	if got := rec.ByKind(events.KindDecomposerInvalid); len(got) != 1 {
		t.Errorf("decomposer_invalid events = %d, want 1", len(got))
	}
}

func TestDelegatedFallsBackAfterSecondInvalid(t *testing.T) {
	rec := &events.Recorder{}
	gen := &scriptedGenerator{responses: []string{undeclaredDepGeneration, undeclaredDepGeneration}}
	d := NewDelegated(gen, rec)

	artifact, err := d.Decompose(context.Background(), "goal", selectedAgents(), nil)
	if err != nil {
		t.Fatalf("Decompose() error = %v", err)
	}
	if gen.calls != 2 {
		t.Errorf("backend called %d times, want exactly 2", gen.calls)
	}
	// Heuristic fallback: the skeleton plan.
	if len(artifact.Plan) != 3 {
		t.Errorf("plan size = %d, want heuristic skeleton of 3", len(artifact.Plan))
	}
	if result := Validate(artifact.Plan, artifact.Orders); !result.OK {
		t.Errorf("fallback artifact fails Validate: %s", result.Err)
	}
	if got := rec.ByKind(events.KindDecomposerInvalid); len(got) != 2 {
		t.Errorf("decomposer_invalid events = %d, want 2", len(got))
	}
}

func TestDelegatedFallsBackOnBackendError(t *testing.T) {
	gen := &scriptedGenerator{err: errors.New("unreachable")}
	d := NewDelegated(gen, nil)

	artifact, err := d.Decompose(context.Background(), "goal", selectedAgents(), nil)
	if err != nil {
		t.Fatalf("Decompose() error = %v", err)
	}
	if gen.calls != 1 {
		t.Errorf("backend called %d times, want 1 (errors are not retried)", gen.calls)
	}
	if len(artifact.Plan) != 3 {
		t.Errorf("plan size = %d, want heuristic skeleton", len(artifact.Plan))
	}
}
