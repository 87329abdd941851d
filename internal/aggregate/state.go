package aggregate

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// StateStore persists the last processed event time in unix milliseconds.
type StateStore interface {
	Load(ctx context.Context) (uint64, bool, error)
	Save(ctx context.Context, ts uint64) error
}

// NamedStateBackend keeps one cursor per name, so several window sizes
// can share a table or a file.
type NamedStateBackend interface {
	LoadState(ctx context.Context, name string) (uint64, bool, error)
	SaveState(ctx context.Context, name string, ts uint64) error
}

// NamedStateStore is the StateStore for a single cursor of a backend.
type NamedStateStore struct {
	Backend NamedStateBackend
	Name    string
}

func (s *NamedStateStore) Load(ctx context.Context) (uint64, bool, error) {
	if s == nil || s.Backend == nil {
		return 0, false, nil
	}
	return s.Backend.LoadState(ctx, s.Name)
}

func (s *NamedStateStore) Save(ctx context.Context, ts uint64) error {
	if s == nil || s.Backend == nil {
		return nil
	}
	return s.Backend.SaveState(ctx, s.Name, ts)
}

// FileStateBackend stores cursors in a local JSON file keyed by name.
type FileStateBackend struct {
	Path string
	mu   sync.Mutex
}

type cursorRecord struct {
	LastProcessed uint64 `json:"last_processed_ms"`
	UpdatedAt     string `json:"updated_at"`
}

func (f *FileStateBackend) LoadState(_ context.Context, name string) (uint64, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	cursors, err := f.read()
	if err != nil {
		return 0, false, err
	}
	rec, ok := cursors[name]
	return rec.LastProcessed, ok, nil
}

func (f *FileStateBackend) SaveState(_ context.Context, name string, ts uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	cursors, err := f.read()
	if err != nil {
		return err
	}
	cursors[name] = cursorRecord{LastProcessed: ts, UpdatedAt: time.Now().UTC().Format(time.RFC3339Nano)}

	data, err := json.MarshalIndent(cursors, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}
	if dir := filepath.Dir(f.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create state dir: %w", err)
		}
	}
	tmp := f.Path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write state tmp: %w", err)
	}
	return os.Rename(tmp, f.Path)
}

func (f *FileStateBackend) read() (map[string]cursorRecord, error) {
	cursors := make(map[string]cursorRecord)
	data, err := os.ReadFile(f.Path)
	if os.IsNotExist(err) {
		return cursors, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read state: %w", err)
	}
	if err := json.Unmarshal(data, &cursors); err != nil {
		return nil, fmt.Errorf("parse state: %w", err)
	}
	return cursors, nil
}
