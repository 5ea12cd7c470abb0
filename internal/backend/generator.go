// Package backend provides the generative backends used by the delegated
// selection and decomposition strategies. Backends share one interface so
// callers can try them in priority order and fall back on failure.
package backend

import (
	"context"
	"errors"
	"strings"
)

// ErrNoBackend indicates no generative backend is configured or reachable.
var ErrNoBackend = errors.New("no generative backend available")

// Generator produces a text completion for a prompt. Implementations must
// honor context cancellation.
type Generator interface {
	// Name identifies the backend in logs and telemetry.
	Name() string
	// Generate returns the raw model output for the prompt.
	Generate(ctx context.Context, prompt string) (string, error)
}

// ExtractJSONArray returns the first top-level JSON array embedded in the
// text, or an empty string when none exists. Models often wrap JSON in
// prose or code fences.
func ExtractJSONArray(text string) string {
	start := strings.Index(text, "[")
	end := strings.LastIndex(text, "]")
	if start == -1 || end == -1 || end <= start {
		return ""
	}
	return text[start : end+1]
}

// ExtractJSONObject returns the first top-level JSON object embedded in the
// text, or an empty string when none exists.
func ExtractJSONObject(text string) string {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end == -1 || end <= start {
		return ""
	}
	return text[start : end+1]
}
