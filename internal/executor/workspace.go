package executor

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// Workspace persists per-(alias, task) payloads: one directory per pair,
// holding the task input and the execution output as independent records.
type Workspace struct {
	root      string
	retention int
}

// NewWorkspace creates a workspace rooted at dir. retention caps how many
// task directories are kept per alias; <= 0 keeps everything.
func NewWorkspace(dir string, retention int) (*Workspace, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating workspace root: %w", err)
	}
	return &Workspace{root: dir, retention: retention}, nil
}

// WriteInput persists the task payload before execution.
func (w *Workspace) WriteInput(alias, taskID string, payload any) error {
	return w.write(alias, taskID, "input.json", payload)
}

// WriteResult persists the execution output next to its input.
func (w *Workspace) WriteResult(alias, taskID string, payload any) error {
	return w.write(alias, taskID, "result.json", payload)
}

func (w *Workspace) write(alias, taskID, name string, payload any) error {
	dir := w.taskDir(alias, taskID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating task workspace: %w", err)
	}
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding workspace payload: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
		return fmt.Errorf("writing workspace payload: %w", err)
	}
	return nil
}

// Prune removes the oldest task directories for an alias beyond the
// retention cap. Pruning is opportunistic: failures are ignored.
func (w *Workspace) Prune(alias string) {
	if w.retention <= 0 {
		return
	}
	aliasDir := filepath.Join(w.root, sanitize(alias))
	entries, err := os.ReadDir(aliasDir)
	if err != nil {
		return
	}

	type stamped struct {
		name string
		mod  int64
	}
	var dirs []stamped
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		dirs = append(dirs, stamped{name: entry.Name(), mod: info.ModTime().UnixNano()})
	}
	if len(dirs) <= w.retention {
		return
	}

	sort.Slice(dirs, func(i, j int) bool { return dirs[i].mod < dirs[j].mod })
	for _, dir := range dirs[:len(dirs)-w.retention] {
		os.RemoveAll(filepath.Join(aliasDir, dir.name))
	}
}

func (w *Workspace) taskDir(alias, taskID string) string {
	return filepath.Join(w.root, sanitize(alias), sanitize(taskID))
}

func sanitize(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		switch r {
		case '/', '\\', ':', '.':
			out = append(out, '_')
		default:
			out = append(out, r)
		}
	}
	return string(out)
}
