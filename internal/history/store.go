// Package history persists the log of batch rename/move operations.
package history

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tidy-app/tidy/pkg/types"
)

// storeVersion is the current on-disk schema version. Files written before
// versioning carry 0 and are upgraded on read.
const storeVersion = 1

// DefaultMaxEntries caps the log when no prune config is given.
const DefaultMaxEntries = 500

// ErrNotFound is returned as a typed error for unknown operation ids.
type ErrNotFound struct {
	ID string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("no history entry with id %q", e.ID)
}

// PruneConfig bounds the log by count and age. Zero values mean unbounded
// for that dimension.
type PruneConfig struct {
	MaxEntries int `json:"maxEntries"`
	MaxAgeDays int `json:"maxAgeDays"`
}

// QueryOptions filters history reads. Limit 0 means all entries.
type QueryOptions struct {
	Limit int
	Type  types.OperationType
}

type storeFile struct {
	Version    int                           `json:"version"`
	Entries    []types.OperationHistoryEntry `json:"entries"`
	LastPruned string                        `json:"lastPruned,omitempty"`
}

// Store is a file-backed operation log. Entries are kept newest-first.
// All mutations are locked read-modify-write against the backing file, so
// a crash mid-write never corrupts the last complete state.
type Store struct {
	mu       sync.Mutex
	filePath string
	now      func() time.Time
}

func New(filePath string) *Store {
	return &Store{filePath: filePath, now: time.Now}
}

func (s *Store) load() (storeFile, error) {
	var sf storeFile

	data, err := os.ReadFile(s.filePath)
	if os.IsNotExist(err) {
		return storeFile{Version: storeVersion}, nil
	}
	if err != nil {
		return sf, err
	}

	if err := json.Unmarshal(data, &sf); err != nil {
		return sf, fmt.Errorf("history file corrupt: %w", err)
	}
	return migrate(sf), nil
}

// migrate upgrades older on-disk versions in place. Version 0 predates the
// version field; its entries are already shape-compatible.
func migrate(sf storeFile) storeFile {
	if sf.Version < storeVersion {
		sf.Version = storeVersion
	}
	return sf
}

func (s *Store) save(sf storeFile) error {
	if err := os.MkdirAll(filepath.Dir(s.filePath), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(sf, "", "  ")
	if err != nil {
		return err
	}

	// Atomic write: write to temp file then rename
	tmpFile := s.filePath + ".tmp"
	if err := os.WriteFile(tmpFile, data, 0644); err != nil {
		return err
	}
	if err := os.Rename(tmpFile, s.filePath); err != nil {
		os.Remove(tmpFile)
		return err
	}
	return nil
}

// Record appends an entry at the head of the log. A missing id or
// timestamp is filled in; the log is trimmed to DefaultMaxEntries.
func (s *Store) Record(entry types.OperationHistoryEntry) (types.OperationHistoryEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sf, err := s.load()
	if err != nil {
		return types.OperationHistoryEntry{}, err
	}

	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.Timestamp == "" {
		entry.Timestamp = s.now().UTC().Format(time.RFC3339)
	}
	entry.FileCount = len(entry.Files)

	sf.Entries = append([]types.OperationHistoryEntry{entry}, sf.Entries...)
	if len(sf.Entries) > DefaultMaxEntries {
		sf.Entries = sf.Entries[:DefaultMaxEntries]
	}

	if err := s.save(sf); err != nil {
		return types.OperationHistoryEntry{}, err
	}
	return entry, nil
}

// Prune removes entries beyond the count or age limits and stamps
// lastPruned. Pruning an already-pruned log removes nothing.
func (s *Store) Prune(cfg PruneConfig) (removed int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sf, err := s.load()
	if err != nil {
		return 0, err
	}

	before := len(sf.Entries)
	if cfg.MaxEntries > 0 && len(sf.Entries) > cfg.MaxEntries {
		sf.Entries = sf.Entries[:cfg.MaxEntries]
	}
	if cfg.MaxAgeDays > 0 {
		cutoff := s.now().AddDate(0, 0, -cfg.MaxAgeDays)
		kept := sf.Entries[:0]
		for _, e := range sf.Entries {
			ts, err := time.Parse(time.RFC3339, e.Timestamp)
			if err != nil || !ts.Before(cutoff) {
				kept = append(kept, e)
			}
		}
		sf.Entries = kept
	}

	sf.LastPruned = s.now().UTC().Format(time.RFC3339)
	if err := s.save(sf); err != nil {
		return 0, err
	}
	return before - len(sf.Entries), nil
}

// Query returns entries newest-first, optionally filtered by operation
// type and capped at a limit.
func (s *Store) Query(opts QueryOptions) ([]types.OperationHistoryEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sf, err := s.load()
	if err != nil {
		return nil, err
	}

	var out []types.OperationHistoryEntry
	for _, e := range sf.Entries {
		if opts.Type != "" && e.OperationType != opts.Type {
			continue
		}
		out = append(out, e)
		if opts.Limit > 0 && len(out) == opts.Limit {
			break
		}
	}
	return out, nil
}

// Get returns the entry with the given id.
func (s *Store) Get(id string) (types.OperationHistoryEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sf, err := s.load()
	if err != nil {
		return types.OperationHistoryEntry{}, err
	}
	for _, e := range sf.Entries {
		if e.ID == id {
			return e, nil
		}
	}
	return types.OperationHistoryEntry{}, &ErrNotFound{ID: id}
}

// SetUndoneAt stamps an entry as undone. Fails if the entry is missing or
// already stamped.
func (s *Store) SetUndoneAt(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sf, err := s.load()
	if err != nil {
		return err
	}
	for i := range sf.Entries {
		if sf.Entries[i].ID != id {
			continue
		}
		if sf.Entries[i].UndoneAt != nil {
			return fmt.Errorf("entry %q already undone at %s", id, *sf.Entries[i].UndoneAt)
		}
		ts := s.now().UTC().Format(time.RFC3339)
		sf.Entries[i].UndoneAt = &ts
		return s.save(sf)
	}
	return &ErrNotFound{ID: id}
}

// Clear removes every entry.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.save(storeFile{Version: storeVersion})
}

// LastPruned returns the timestamp of the most recent prune, if any.
func (s *Store) LastPruned() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sf, err := s.load()
	if err != nil {
		return "", err
	}
	return sf.LastPruned, nil
}
