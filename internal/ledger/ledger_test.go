package ledger

import (
	"path/filepath"
	"testing"

	"github.com/Schrodinger0/codex-flow-sub001/pkg/models"
)

func openTestLedger(t *testing.T) *Ledger {
	t.Helper()
	l, err := Open(filepath.Join(t.TempDir(), "codexflow.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { l.Close() })
	if err := l.Migrate(); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	return l
}

func TestMigrateIsIdempotent(t *testing.T) {
	l := openTestLedger(t)
	if err := l.Migrate(); err != nil {
		t.Fatalf("second Migrate() error = %v", err)
	}
}

func TestRunLifecycle(t *testing.T) {
	l := openTestLedger(t)

	runID, err := l.BeginRun("ship the billing service")
	if err != nil {
		t.Fatalf("BeginRun() error = %v", err)
	}

	run, err := l.GetRun(runID)
	if err != nil {
		t.Fatalf("GetRun() error = %v", err)
	}
	if run.Goal != "ship the billing service" || run.Status != RunStatusRunning {
		t.Errorf("run = %+v", run)
	}
	if run.FinishedAt != nil {
		t.Error("new run already has finished_at")
	}

	if err := l.FinishRun(runID, true); err != nil {
		t.Fatalf("FinishRun() error = %v", err)
	}
	run, err = l.GetRun(runID)
	if err != nil {
		t.Fatalf("GetRun() after finish error = %v", err)
	}
	if run.Status != RunStatusDone || run.FinishedAt == nil {
		t.Errorf("finished run = %+v", run)
	}
}

func TestFinishRunFailed(t *testing.T) {
	l := openTestLedger(t)
	runID, err := l.BeginRun("goal")
	if err != nil {
		t.Fatalf("BeginRun() error = %v", err)
	}
	if err := l.FinishRun(runID, false); err != nil {
		t.Fatalf("FinishRun() error = %v", err)
	}
	run, err := l.GetRun(runID)
	if err != nil {
		t.Fatalf("GetRun() error = %v", err)
	}
	if run.Status != RunStatusFailed {
		t.Errorf("status = %q, want failed", run.Status)
	}
}

func TestArtifactRoundTrip(t *testing.T) {
	l := openTestLedger(t)
	runID, err := l.BeginRun("goal")
	if err != nil {
		t.Fatalf("BeginRun() error = %v", err)
	}

	artifact := models.PlanningArtifact{
		Agents: []models.SelectedAgent{{ID: "architect", Reason: "design"}},
		Plan:   []models.Task{{ID: "plan", Title: "Plan"}},
		Orders: []models.Order{{OrderID: "o1", AgentID: "architect", Objectives: []string{"design it"}}},
	}
	if err := l.SaveArtifact(runID, ArtifactPlanning, artifact); err != nil {
		t.Fatalf("SaveArtifact() error = %v", err)
	}

	var loaded models.PlanningArtifact
	if err := l.Artifact(runID, ArtifactPlanning, &loaded); err != nil {
		t.Fatalf("Artifact() error = %v", err)
	}
	if len(loaded.Agents) != 1 || loaded.Agents[0].ID != "architect" {
		t.Errorf("loaded artifact = %+v", loaded)
	}
	if loaded.Orders[0].Objectives[0] != "design it" {
		t.Errorf("loaded orders = %+v", loaded.Orders)
	}
}

func TestSaveAndListResults(t *testing.T) {
	l := openTestLedger(t)
	runID, err := l.BeginRun("goal")
	if err != nil {
		t.Fatalf("BeginRun() error = %v", err)
	}

	first := models.ExecutionResult{
		Alias: "backend", AgentID: "backend-engineer", Task: "build endpoints",
		OK: true, MS: 42, Engine: "simulation", Summary: "done",
		Output: map[string]any{"echo": "build endpoints"},
	}
	second := models.ExecutionResult{
		Alias: "tester", AgentID: "tester", Task: "run tests",
		OK: false, MS: 7, Engine: "remote", Summary: "2 failures",
	}
	for _, r := range []models.ExecutionResult{first, second} {
		if err := l.SaveResult(runID, r); err != nil {
			t.Fatalf("SaveResult() error = %v", err)
		}
	}

	results, err := l.Results(runID)
	if err != nil {
		t.Fatalf("Results() error = %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("results = %d, want 2", len(results))
	}
	if results[0].Alias != "backend" || !results[0].OK || results[0].MS != 42 {
		t.Errorf("results[0] = %+v", results[0])
	}
	if results[0].Output["echo"] != "build endpoints" {
		t.Errorf("results[0].Output = %v", results[0].Output)
	}
	if results[1].OK || results[1].Engine != "remote" {
		t.Errorf("results[1] = %+v", results[1])
	}
}
