// Package memory provides the append-only per-alias memory store that
// execution results flow into. Two interchangeable implementations exist:
// a local file-per-alias JSONL store and a networked Redis sliding-window
// store with TTL eviction.
package memory

import (
	"context"
	"strings"

	"github.com/google/uuid"
)

// RedactionMarker replaces values of keys named by an agent's redaction
// policy before an entry leaves the process.
const RedactionMarker = "[redacted]"

// Entry is one memory record. Entries are self-contained: readers must be
// able to parse each independently of its neighbors.
type Entry = map[string]any

// Store is the memory collaborator. Appends are ordered per session key
// within one process; concurrent writers from other processes may
// interleave whole records but never corrupt them.
type Store interface {
	// BeginSession opens a session for the alias and returns its id.
	BeginSession(ctx context.Context, alias string) (string, error)
	// Append adds one entry under the session key, with the named keys
	// redacted recursively.
	Append(ctx context.Context, sessionKey string, entry Entry, redactKeys []string) error
	// Window returns up to limit entries for the session key, oldest
	// first.
	Window(ctx context.Context, sessionKey string, limit int) ([]Entry, error)
	// EndSession closes the session. Entries remain readable afterward.
	EndSession(ctx context.Context, sessionID string) error
}

// NewSessionID mints a session identifier scoped to an alias.
func NewSessionID(alias string) string {
	return alias + "-" + uuid.NewString()
}

// Redact returns a deep copy of entry with every value whose key is in
// redactKeys replaced by the redaction marker. Nested maps and slices are
// walked recursively; the input is never mutated.
func Redact(entry Entry, redactKeys []string) Entry {
	if len(redactKeys) == 0 {
		return entry
	}
	blocked := make(map[string]bool, len(redactKeys))
	for _, key := range redactKeys {
		blocked[strings.ToLower(key)] = true
	}
	redacted, _ := redactValue(entry, blocked).(Entry)
	return redacted
}

func redactValue(value any, blocked map[string]bool) any {
	switch v := value.(type) {
	case map[string]any:
		out := make(map[string]any, len(v))
		for key, inner := range v {
			if blocked[strings.ToLower(key)] {
				out[key] = RedactionMarker
				continue
			}
			out[key] = redactValue(inner, blocked)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, inner := range v {
			out[i] = redactValue(inner, blocked)
		}
		return out
	default:
		return value
	}
}
