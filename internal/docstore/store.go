// Package docstore persists JSON documents as individual files with
// atomic-replace writes serialized per path. A reader at any instant sees
// either the old complete document or the new complete one, never a partial
// file; that is the only cross-process guarantee. Lost updates between
// concurrent read-modify-write cycles across processes remain possible and
// resolve last-rename-wins.
package docstore

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Store reads and writes JSON documents. The zero value is not usable; use New.
type Store struct {
	locks *pathLocks
}

// New creates a document store.
func New() *Store {
	return &Store{locks: newPathLocks()}
}

// Read parses the file at path as JSON into a generic value.
func (s *Store) Read(path string) (any, error) {
	var v any
	if err := s.ReadInto(path, &v); err != nil {
		return nil, err
	}
	return v, nil
}

// ReadInto parses the file at path as JSON into out. Fails with
// NotFoundError when the file is missing, EmptyDocumentError when its
// trimmed content is zero-length, and ParseError on malformed JSON.
func (s *Store) ReadInto(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return NotFoundError{Path: path}
		}
		return fmt.Errorf("failed to read document %s: %w", path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return EmptyDocumentError{Path: path}
	}
	if err := json.Unmarshal(data, out); err != nil {
		return ParseError{Path: path, Diagnostic: err.Error()}
	}
	return nil
}

// Write serializes value as pretty-printed JSON and atomically replaces the
// file at path. Concurrent writes to the same path execute one at a time in
// call order; writes to different paths proceed in parallel.
func (s *Store) Write(path string, value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal document %s: %w", path, err)
	}
	data = append(data, '\n')

	return s.locks.withLock(path, func() error {
		return writeFileAtomic(path, data, 0644)
	})
}

// writeFileAtomic writes data to a unique temp sibling in the target's
// directory, flushes it, then renames it over the destination. The temp name
// carries pid and timestamp so concurrent writers from separate processes
// never collide on it.
func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	tmp := filepath.Join(dir, fmt.Sprintf(".%s.%d.%d.tmp", filepath.Base(path), os.Getpid(), time.Now().UnixNano()))
	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_EXCL, perm)
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp) // no-op after a successful rename

	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("failed to write temp file: %w", err)
	}

	// Best-effort durability; rename correctness does not depend on it.
	_ = f.Sync()

	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to rename temp file to %s: %w", path, err)
	}
	return nil
}
