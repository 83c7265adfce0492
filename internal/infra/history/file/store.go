package file

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/bryanwahyu/marine-vision/internal/domain/history"
)

// Store persists the history log as one JSON file named after the
// namespace key. Writes go through a temp file and rename, so a reader in
// this process never sees a partial log. Other processes writing the same
// file are not coordinated with.
type Store struct {
	path string
	mu   sync.Mutex
}

// New creates dir if needed. namespace defaults to history.Namespace.
func New(dir, namespace string) (*Store, error) {
	if namespace == "" {
		namespace = history.Namespace
	}
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create history dir: %w", err)
	}
	return &Store{path: filepath.Join(dir, namespace+".json")}, nil
}

// Path of the backing file.
func (s *Store) Path() string { return s.path }

func (s *Store) Append(ctx context.Context, e history.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current := s.readLocked()
	return s.writeLocked(history.Prepend(current, e))
}

func (s *Store) List(ctx context.Context) ([]history.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readLocked(), nil
}

func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeLocked([]history.Entry{})
}

// readLocked never fails: missing or corrupt data reads as an empty log.
func (s *Store) readLocked() []history.Entry {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			log.Printf("history read failed path=%s error=%v", s.path, err)
		}
		return []history.Entry{}
	}
	entries, err := history.Decode(raw)
	if err != nil {
		log.Printf("history corrupt, treating as empty path=%s error=%v", s.path, err)
	}
	return entries
}

func (s *Store) writeLocked(entries []history.Entry) error {
	data, err := history.Encode(entries)
	if err != nil {
		return fmt.Errorf("encode history: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write history: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace history: %w", err)
	}
	return nil
}
