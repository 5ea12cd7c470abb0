package events

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Log is a file-backed Sink writing line-delimited JSON records.
// Appends within one process are ordered by call sequence; across processes
// lines may interleave but each line stays independently parseable.
type Log struct {
	mu   sync.Mutex
	file *os.File
}

// OpenLog opens (or creates) an append-only event log at path.
// Parent directories are created as needed.
func OpenLog(path string) (*Log, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("open event log: %w", err)
	}
	return &Log{file: f}, nil
}

// Emit appends one event as a single JSON line. Marshal or write failures
// are swallowed: the event log is diagnostics, not control flow.
func (l *Log) Emit(event Event) {
	if l == nil || l.file == nil {
		return
	}
	data, err := json.Marshal(event)
	if err != nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.file.Write(append(data, '\n'))
}

// Close closes the underlying file. Safe to call on a nil log.
func (l *Log) Close() error {
	if l == nil || l.file == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.file.Close()
}

// Recorder is an in-memory Sink for tests and run summaries.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// Emit stores the event.
func (r *Recorder) Emit(event Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

// Events returns a copy of all recorded events.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// ByKind returns recorded events of the given kind, in order.
func (r *Recorder) ByKind(kind Kind) []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Event
	for _, e := range r.events {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}
