package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

type fileEntry struct {
	Value     string    `json:"value"`
	ExpiresAt time.Time `json:"expires_at"`
}

// FileStore keeps entries in a single JSON document readable only by the
// current user. Every write rewrites the whole document through a rename, so
// a multi-key SetMany or Delete lands at once.
type FileStore struct {
	path string
	mu   sync.Mutex
	now  func() time.Time
}

func NewFileStore(path string) (*FileStore, error) {
	if path == "" {
		var err error
		path, err = DefaultFilePath()
		if err != nil {
			return nil, err
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create session directory: %w", err)
	}
	return &FileStore{path: path, now: time.Now}, nil
}

// DefaultFilePath is ~/.config/afribook/session.json or the platform equivalent.
func DefaultFilePath() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve config dir: %w", err)
	}
	return filepath.Join(base, "afribook", "session.json"), nil
}

func (s *FileStore) Path() string {
	return s.path
}

func (s *FileStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.load()
	if err != nil {
		return "", false, err
	}
	entry, ok := entries[key]
	if !ok || !s.now().Before(entry.ExpiresAt) {
		return "", false, nil
	}
	return entry.Value, true, nil
}

func (s *FileStore) SetMany(_ context.Context, values map[string]string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.loadForWrite()
	if err != nil {
		return err
	}
	expiresAt := s.now().Add(ttl).UTC()
	for k, v := range values {
		entries[k] = fileEntry{Value: v, ExpiresAt: expiresAt}
	}
	return s.save(entries)
}

func (s *FileStore) Delete(_ context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.loadForWrite()
	if err != nil {
		return err
	}
	for _, k := range keys {
		delete(entries, k)
	}
	return s.save(entries)
}

// loadForWrite is load for writers: an unreadable document is replaced
// rather than preserved.
func (s *FileStore) loadForWrite() (map[string]fileEntry, error) {
	entries, err := s.load()
	if errors.Is(err, ErrUnreadable) {
		return map[string]fileEntry{}, nil
	}
	return entries, err
}

func (s *FileStore) Close() error {
	return nil
}

func (s *FileStore) load() (map[string]fileEntry, error) {
	entries := map[string]fileEntry{}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return entries, nil
		}
		return nil, fmt.Errorf("read session file: %w", err)
	}
	if len(data) == 0 {
		return entries, nil
	}
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("%w: decode session file: %v", ErrUnreadable, err)
	}

	now := s.now()
	for k, e := range entries {
		if !now.Before(e.ExpiresAt) {
			delete(entries, k)
		}
	}
	return entries, nil
}

func (s *FileStore) save(entries map[string]fileEntry) error {
	if len(entries) == 0 {
		if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("remove session file: %w", err)
		}
		return nil
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("encode session file: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".session-*.json")
	if err != nil {
		return fmt.Errorf("create temp session file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write session file: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod session file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close session file: %w", err)
	}
	return os.Rename(tmpName, s.path)
}
