package executor

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Schrodinger0/codex-flow-sub001/internal/events"
	"github.com/Schrodinger0/codex-flow-sub001/internal/memory"
	"github.com/Schrodinger0/codex-flow-sub001/pkg/models"
)

// recordingStore captures memory appends for assertions.
type recordingStore struct {
	mu      sync.Mutex
	appends []memory.Entry
	keys    []string
}

func (r *recordingStore) BeginSession(_ context.Context, alias string) (string, error) {
	return memory.NewSessionID(alias), nil
}

func (r *recordingStore) Append(_ context.Context, sessionKey string, entry memory.Entry, redactKeys []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.appends = append(r.appends, memory.Redact(entry, redactKeys))
	r.keys = append(r.keys, sessionKey)
	return nil
}

func (r *recordingStore) Window(context.Context, string, int) ([]memory.Entry, error) {
	return nil, nil
}

func (r *recordingStore) EndSession(context.Context, string) error { return nil }

func TestAdmit(t *testing.T) {
	if err := Admit(models.AgentDefinition{ID: "backend"}); err != nil {
		t.Errorf("Admit(valid) error = %v", err)
	}
	if err := Admit(models.AgentDefinition{}); err == nil {
		t.Error("Admit() accepted a definition without an id")
	}
	if err := Admit(models.AgentDefinition{ID: "   "}); err == nil {
		t.Error("Admit() accepted a blank id")
	}
}

func TestExecuteTaskRejectsUnadmittedDefinition(t *testing.T) {
	e := New(nil, nil, nil)
	if _, err := e.ExecuteTask(context.Background(), models.AgentDefinition{}, Task{ID: "t"}, Options{}); err == nil {
		t.Fatal("ExecuteTask() accepted a definition without an id")
	}
}

func TestPolicyViolation(t *testing.T) {
	rec := &events.Recorder{}
	e := New(rec, nil, nil)

	def := models.AgentDefinition{ID: "reader", Alias: "docs", AllowedTools: []string{"Read"}}
	task := Task{ID: "t1", Description: "change the config", Tools: []string{"Write", "Read"}}

	result, err := e.ExecuteTask(context.Background(), def, task, Options{StrictTools: true})
	if err != nil {
		t.Fatalf("ExecuteTask() error = %v", err)
	}
	if result.OK {
		t.Error("result.OK = true, want policy rejection")
	}
	if !strings.Contains(result.Summary, "Disallowed tool") {
		t.Errorf("summary = %q, want it to name the disallowed tools", result.Summary)
	}
	if !strings.Contains(result.Summary, "Write") {
		t.Errorf("summary = %q, want the tool named", result.Summary)
	}
	if result.Engine != EnginePolicy {
		t.Errorf("engine = %q, want %q", result.Engine, EnginePolicy)
	}

	if got := rec.ByKind(events.KindPolicyViolation); len(got) != 1 {
		t.Errorf("policy_violation events = %d, want 1", len(got))
	}
	if got := rec.ByKind(events.KindTaskStarted); len(got) != 0 {
		t.Error("task_started emitted despite policy rejection")
	}
}

func TestPolicyAllowsPermittedTools(t *testing.T) {
	def := models.AgentDefinition{ID: "reader", AllowedTools: []string{"Read"}}
	task := Task{ID: "t1", Description: "summarize", Tools: []string{"read"}}

	result, err := New(nil, nil, nil).ExecuteTask(context.Background(), def, task, Options{StrictTools: true})
	if err != nil {
		t.Fatalf("ExecuteTask() error = %v", err)
	}
	if !result.OK {
		t.Errorf("result = %+v, want simulation success for allowed tools", result)
	}
}

func TestExecuteTaskRemote(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"ok": true, "summary": "remote did it", "output": {"artifact": "x"}}`))
	}))
	defer server.Close()

	rec := &events.Recorder{}
	store := &recordingStore{}
	e := New(rec, store, nil).WithRemote(server.URL)

	def := models.AgentDefinition{ID: "backend-engineer", Alias: "backend"}
	result, err := e.ExecuteTask(context.Background(), def, Task{ID: "t1", Description: "build the endpoint"}, Options{})
	if err != nil {
		t.Fatalf("ExecuteTask() error = %v", err)
	}

	if !result.OK || result.Engine != EngineRemote {
		t.Errorf("result = %+v, want remote success", result)
	}
	if result.Summary != "remote did it" {
		t.Errorf("summary = %q", result.Summary)
	}
	if result.MS < 0 {
		t.Errorf("ms = %d, want non-negative wrapper duration", result.MS)
	}

	// Lifecycle: started, complete, telemetry, in order.
	all := rec.Events()
	if len(all) != 3 {
		t.Fatalf("events = %d, want 3", len(all))
	}
	wantKinds := []events.Kind{events.KindTaskStarted, events.KindTaskComplete, events.KindTelemetry}
	for i, kind := range wantKinds {
		if all[i].Kind != kind {
			t.Errorf("event[%d].Kind = %q, want %q", i, all[i].Kind, kind)
		}
	}
	if complete := rec.ByKind(events.KindTaskComplete)[0]; complete.OK == nil || !*complete.OK {
		t.Error("task_complete missing ok flag")
	}
	if telemetry := rec.ByKind(events.KindTelemetry)[0]; telemetry.Engine != EngineRemote {
		t.Errorf("telemetry engine = %q", telemetry.Engine)
	}

	// The result reached memory under the alias session.
	if len(store.appends) != 1 || store.keys[0] != "backend" {
		t.Fatalf("memory appends = %v keys = %v", store.appends, store.keys)
	}
	if store.appends[0]["engine"] != EngineRemote {
		t.Errorf("memory entry = %v", store.appends[0])
	}
}

func TestExecuteTaskFallsBackToSimulation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	e := New(nil, nil, nil).WithRemote(server.URL)
	result, err := e.ExecuteTask(context.Background(), models.AgentDefinition{ID: "a"}, Task{ID: "t", Description: "do the thing"}, Options{})
	if err != nil {
		t.Fatalf("ExecuteTask() error = %v", err)
	}
	if result.Engine != EngineSimulation {
		t.Errorf("engine = %q, want simulation fallback after remote error", result.Engine)
	}
	if !result.OK {
		t.Errorf("result = %+v, want the fallback's own success", result)
	}
}

func TestExecuteTaskRemoteTimeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer server.Close()
	defer close(release)

	e := New(nil, nil, nil).WithRemote(server.URL)
	start := time.Now()
	result, err := e.ExecuteTask(context.Background(), models.AgentDefinition{ID: "a"}, Task{ID: "t", Description: "slow"}, Options{Timeout: 50 * time.Millisecond})
	if err != nil {
		t.Fatalf("ExecuteTask() error = %v", err)
	}
	if time.Since(start) > 5*time.Second {
		t.Fatal("deadline was not enforced")
	}
	if result.Engine != EngineSimulation {
		t.Errorf("engine = %q, want simulation after remote deadline expiry", result.Engine)
	}
}

func TestExecuteTaskRedactsMemory(t *testing.T) {
	store := &recordingStore{}
	e := New(nil, store, nil)

	def := models.AgentDefinition{ID: "a", RedactKeys: []string{"echo"}}
	if _, err := e.ExecuteTask(context.Background(), def, Task{ID: "t", Description: "secret goal"}, Options{}); err != nil {
		t.Fatalf("ExecuteTask() error = %v", err)
	}

	output := store.appends[0]["output"].(map[string]any)
	if output["echo"] != memory.RedactionMarker {
		t.Errorf("memory output = %v, want echo redacted", output)
	}
}

func TestExecuteTaskWritesWorkspace(t *testing.T) {
	root := t.TempDir()
	ws, err := NewWorkspace(root, 0)
	if err != nil {
		t.Fatalf("NewWorkspace() error = %v", err)
	}
	e := New(nil, nil, ws)

	def := models.AgentDefinition{ID: "backend-engineer", Alias: "backend"}
	if _, err := e.ExecuteTask(context.Background(), def, Task{ID: "t1", Description: "d"}, Options{}); err != nil {
		t.Fatalf("ExecuteTask() error = %v", err)
	}

	for _, name := range []string{"input.json", "result.json"} {
		path := filepath.Join(root, "backend", "t1", name)
		if _, err := os.Stat(path); err != nil {
			t.Errorf("workspace missing %s: %v", name, err)
		}
	}
}

func TestWorkspacePrune(t *testing.T) {
	root := t.TempDir()
	ws, err := NewWorkspace(root, 2)
	if err != nil {
		t.Fatalf("NewWorkspace() error = %v", err)
	}

	for i, id := range []string{"t1", "t2", "t3", "t4"} {
		if err := ws.WriteInput("backend", id, map[string]any{"seq": i}); err != nil {
			t.Fatalf("WriteInput(%s) error = %v", id, err)
		}
		// Distinct mtimes so prune ordering is deterministic.
		mod := time.Now().Add(time.Duration(i-4) * time.Minute)
		os.Chtimes(filepath.Join(root, "backend", id), mod, mod)
	}

	ws.Prune("backend")

	entries, err := os.ReadDir(filepath.Join(root, "backend"))
	if err != nil {
		t.Fatalf("ReadDir() error = %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("kept %d workspaces, want 2", len(entries))
	}
	names := []string{entries[0].Name(), entries[1].Name()}
	for _, want := range []string{"t3", "t4"} {
		found := false
		for _, name := range names {
			if name == want {
				found = true
			}
		}
		if !found {
			t.Errorf("pruned the newest workspaces: kept %v", names)
		}
	}
}

func TestSimulateReview(t *testing.T) {
	path := filepath.Join(t.TempDir(), "code.go")
	content := strings.Join([]string{
		"package main",
		"// TODO: tighten this up",
		"func main() { fmt.Println(\"hi\") }",
		strings.Repeat("x", 130),
	}, "\n")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	sim := Simulate(Task{Description: "Review " + path})
	if !sim.OK {
		t.Fatalf("Simulate() = %+v, want ok", sim)
	}
	if sim.Output["lines"] != 4 {
		t.Errorf("lines = %v, want 4", sim.Output["lines"])
	}
	if sim.Output["long_lines"] != 1 {
		t.Errorf("long_lines = %v, want 1", sim.Output["long_lines"])
	}
	if sim.Output["todo_markers"] != 1 {
		t.Errorf("todo_markers = %v, want 1", sim.Output["todo_markers"])
	}
	if sim.Output["debug_prints"] != 1 {
		t.Errorf("debug_prints = %v, want 1", sim.Output["debug_prints"])
	}
}

func TestSimulateReviewMissingFile(t *testing.T) {
	sim := Simulate(Task{Type: "review", Description: "Review /nonexistent/file.go"})
	if sim.OK {
		t.Error("Simulate() ok for unreadable file")
	}
	if !strings.Contains(sim.Summary, "cannot read") {
		t.Errorf("summary = %q", sim.Summary)
	}
}

func TestSimulateArchitecture(t *testing.T) {
	sim := Simulate(Task{Description: "Propose architecture for the billing service"})
	if !sim.OK {
		t.Fatalf("Simulate() = %+v, want ok", sim)
	}
	if sim.Output["topic"] != "the billing service" {
		t.Errorf("topic = %v", sim.Output["topic"])
	}
	layers, ok := sim.Output["layers"].([]string)
	if !ok || len(layers) != 4 {
		t.Errorf("layers = %v, want 4 fixed layers", sim.Output["layers"])
	}
}

func TestSimulateGenericEcho(t *testing.T) {
	sim := Simulate(Task{Description: "just do something unusual"})
	if !sim.OK || sim.Output["echo"] != "just do something unusual" {
		t.Errorf("Simulate() = %+v, want echo", sim)
	}
}

func TestSimulateIsDeterministic(t *testing.T) {
	task := Task{Description: "Propose architecture for caching"}
	first := Simulate(task)
	second := Simulate(task)
	if first.Summary != second.Summary {
		t.Errorf("simulation not deterministic: %q vs %q", first.Summary, second.Summary)
	}
}
