// Package router maps free text or file paths to candidate agent
// identifiers. It is a cheap pre-filter for the selector, not an
// authoritative choice.
package router

import (
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// Decision is the router's suggestion for a piece of work.
type Decision struct {
	// Stage is the suggested scenario stage for the work.
	Stage string `json:"stage"`
	// Candidates lists agent identifiers likely suited to the work.
	Candidates []string `json:"candidates"`
}

// rule maps a text pattern and/or file globs to an agent and a stage.
type rule struct {
	pattern *regexp.Regexp
	globs   []string
	agentID string
	stage   string
}

// Router evaluates routing rules against text and file paths.
type Router struct {
	rules []rule
}

// New creates a Router with the default rule set.
func New() *Router {
	return &Router{rules: defaultRules()}
}

func defaultRules() []rule {
	return []rule{
		{
			pattern: regexp.MustCompile(`(?i)\b(architecture|architect|design|adr|diagram)\b`),
			globs:   []string{"docs/adr/*", "*.puml"},
			agentID: "architect",
			stage:   "plan",
		},
		{
			pattern: regexp.MustCompile(`(?i)\b(api|endpoint|server|backend|database|migration|handler)\b`),
			globs:   []string{"*.go", "*.sql", "internal/*", "cmd/*"},
			agentID: "backend-engineer",
			stage:   "execute",
		},
		{
			pattern: regexp.MustCompile(`(?i)\b(frontend|ui|component|css|page|react|view)\b`),
			globs:   []string{"*.tsx", "*.jsx", "*.css", "*.vue", "src/components/*"},
			agentID: "frontend-coder",
			stage:   "execute",
		},
		{
			pattern: regexp.MustCompile(`(?i)\b(docs?|readme|documentation|changelog|guide)\b`),
			globs:   []string{"*.md", "docs/*"},
			agentID: "docs-writer",
			stage:   "execute",
		},
		{
			pattern: regexp.MustCompile(`(?i)\b(test|tests|testing|coverage|regression|e2e)\b`),
			globs:   []string{"*_test.go", "*.spec.ts", "*.test.js", "tests/*"},
			agentID: "tester",
			stage:   "test",
		},
	}
}

// RouteTask matches the text against the keyword rules and returns the
// union of matched candidates. With no match the stage is "execute" and
// the candidate list is empty.
func (r *Router) RouteTask(text string) Decision {
	decision := Decision{Stage: "execute"}
	seen := make(map[string]bool)
	for _, rl := range r.rules {
		if rl.pattern == nil || !rl.pattern.MatchString(text) {
			continue
		}
		if !seen[rl.agentID] {
			seen[rl.agentID] = true
			decision.Candidates = append(decision.Candidates, rl.agentID)
		}
		// The earliest matching rule decides the stage.
		if len(decision.Candidates) == 1 {
			decision.Stage = rl.stage
		}
	}
	return decision
}

// RouteFiles matches each path's base name and slash-relative form against
// the glob rules. Candidates are deduplicated and sorted for determinism.
func (r *Router) RouteFiles(paths []string) Decision {
	decision := Decision{Stage: "execute"}
	seen := make(map[string]bool)
	for _, path := range paths {
		normalized := filepath.ToSlash(path)
		base := filepath.Base(normalized)
		for _, rl := range r.rules {
			if !matchAny(rl.globs, normalized, base) {
				continue
			}
			if !seen[rl.agentID] {
				seen[rl.agentID] = true
				decision.Candidates = append(decision.Candidates, rl.agentID)
			}
		}
	}
	sort.Strings(decision.Candidates)
	return decision
}

func matchAny(globs []string, fullPath, base string) bool {
	for _, glob := range globs {
		target := base
		if strings.Contains(glob, "/") {
			target = fullPath
		}
		if ok, _ := filepath.Match(glob, target); ok {
			return true
		}
	}
	return false
}
