package router

import (
	"reflect"
	"testing"
)

func TestRouteTask(t *testing.T) {
	r := New()
	tests := []struct {
		name       string
		text       string
		wantStage  string
		wantAgents []string
	}{
		{
			name:       "architecture goal",
			text:       "Propose architecture for the billing service",
			wantStage:  "plan",
			wantAgents: []string{"architect"},
		},
		{
			name:       "backend goal",
			text:       "Add an API endpoint for invoices",
			wantStage:  "execute",
			wantAgents: []string{"backend-engineer"},
		},
		{
			name:       "testing goal",
			text:       "Improve test coverage for the parser",
			wantStage:  "test",
			wantAgents: []string{"tester"},
		},
		{
			name:       "mixed goal unions candidates",
			text:       "Design architecture and build API with tests",
			wantStage:  "plan",
			wantAgents: []string{"architect", "backend-engineer", "tester"},
		},
		{
			name:      "no match",
			text:      "hello world",
			wantStage: "execute",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := r.RouteTask(tt.text)
			if got.Stage != tt.wantStage {
				t.Errorf("RouteTask(%q).Stage = %q, want %q", tt.text, got.Stage, tt.wantStage)
			}
			if !reflect.DeepEqual(got.Candidates, tt.wantAgents) {
				t.Errorf("RouteTask(%q).Candidates = %v, want %v", tt.text, got.Candidates, tt.wantAgents)
			}
		})
	}
}

func TestRouteFiles(t *testing.T) {
	r := New()
	tests := []struct {
		name       string
		paths      []string
		wantAgents []string
	}{
		{
			name:       "go files route to backend",
			paths:      []string{"internal/server/handler.go"},
			wantAgents: []string{"backend-engineer"},
		},
		{
			name:       "test files route to tester and backend",
			paths:      []string{"internal/server/handler_test.go"},
			wantAgents: []string{"backend-engineer", "tester"},
		},
		{
			name:       "markdown routes to docs",
			paths:      []string{"README.md"},
			wantAgents: []string{"docs-writer"},
		},
		{
			name:       "frontend component",
			paths:      []string{"src/components/Button.tsx"},
			wantAgents: []string{"frontend-coder"},
		},
		{
			name:  "unknown extension",
			paths: []string{"data.bin"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := r.RouteFiles(tt.paths)
			if !reflect.DeepEqual(got.Candidates, tt.wantAgents) {
				t.Errorf("RouteFiles(%v).Candidates = %v, want %v", tt.paths, got.Candidates, tt.wantAgents)
			}
		})
	}
}

func TestRouteTaskDeterministic(t *testing.T) {
	r := New()
	text := "Design architecture and build API with tests"
	first := r.RouteTask(text)
	for i := 0; i < 10; i++ {
		if got := r.RouteTask(text); !reflect.DeepEqual(got, first) {
			t.Fatalf("RouteTask not deterministic: %v vs %v", got, first)
		}
	}
}
