package memory

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// FileStore is the local memory implementation: one append-only JSONL file
// per session key under a root directory. Each line is a complete entry,
// so partially-written neighbors from other processes cannot corrupt
// records already on disk.
type FileStore struct {
	dir string

	mu sync.Mutex
}

var _ Store = (*FileStore)(nil)

// NewFileStore creates a file store rooted at dir, creating it if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating memory dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// BeginSession mints a session id for the alias. The file store keeps no
// session state; the id only namespaces subsequent appends.
func (s *FileStore) BeginSession(_ context.Context, alias string) (string, error) {
	return NewSessionID(alias), nil
}

// Append writes one redacted entry as a JSON line to the session's file.
func (s *FileStore) Append(_ context.Context, sessionKey string, entry Entry, redactKeys []string) error {
	line, err := json.Marshal(Redact(entry, redactKeys))
	if err != nil {
		return fmt.Errorf("encoding memory entry: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.OpenFile(s.path(sessionKey), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening memory file: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("appending memory entry: %w", err)
	}
	return nil
}

// Window returns up to limit entries for the session key, oldest first.
// Unparseable lines are skipped rather than failing the read, so a torn
// write from a concurrent process cannot poison the whole window.
func (s *FileStore) Window(_ context.Context, sessionKey string, limit int) ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.Open(s.path(sessionKey))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening memory file: %w", err)
	}
	defer f.Close()

	var entries []Entry
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for scanner.Scan() {
		var entry Entry
		if err := json.Unmarshal(scanner.Bytes(), &entry); err != nil {
			continue
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading memory file: %w", err)
	}

	if limit > 0 && len(entries) > limit {
		entries = entries[len(entries)-limit:]
	}
	return entries, nil
}

// EndSession is a no-op: the file persists for later windows.
func (s *FileStore) EndSession(context.Context, string) error { return nil }

// path maps a session key to its file, flattening separators so a key
// cannot escape the root directory.
func (s *FileStore) path(sessionKey string) string {
	safe := strings.NewReplacer("/", "_", "\\", "_", "..", "_").Replace(sessionKey)
	return filepath.Join(s.dir, safe+".jsonl")
}
