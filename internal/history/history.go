// Package history keeps a bounded JSON log of past runs inside the git directory.
package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// DefaultLimit is the number of records kept
const DefaultLimit = 100

// Record is the persisted outcome of one run
type Record struct {
	RunID     string    `json:"runId"`
	Trigger   string    `json:"trigger"`
	Status    string    `json:"status"`
	StartedAt time.Time `json:"startedAt"`
	EndedAt   time.Time `json:"endedAt"`
	CommitSHA string    `json:"commitSha,omitempty"`
	Message   string    `json:"message,omitempty"`
	Pushed    bool      `json:"pushed,omitempty"`
	Phase     string    `json:"phase,omitempty"`
	Error     string    `json:"error,omitempty"`
	FeedItems int       `json:"feedItems,omitempty"`
}

// Duration returns how long the run took
func (r Record) Duration() time.Duration {
	return r.EndedAt.Sub(r.StartedAt)
}

// Store is the history file of one repository
type Store struct {
	path  string
	limit int
	mu    sync.Mutex
}

// Path returns the history file location for a git directory
func Path(gitDir string) string {
	return filepath.Join(gitDir, "arkfeed", "history.json")
}

// NewStore opens the history kept under gitDir
func NewStore(gitDir string) *Store {
	return &Store{path: Path(gitDir), limit: DefaultLimit}
}

// WithLimit changes how many records are kept
func (s *Store) WithLimit(limit int) *Store {
	s.limit = limit
	return s
}

func (s *Store) read() ([]Record, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read history: %w", err)
	}

	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to parse history %s: %w", s.path, err)
	}
	return records, nil
}

// Append adds a record, dropping the oldest beyond the limit
func (s *Store) Append(rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.read()
	if err != nil {
		return err
	}
	records = append(records, rec)
	if len(records) > s.limit {
		records = records[len(records)-s.limit:]
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal history: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0750); err != nil {
		return fmt.Errorf("failed to create history directory: %w", err)
	}
	return writeAtomic(s.path, data)
}

// writeAtomic replaces path through a temp file and rename
func writeAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("failed to write history: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to replace history: %w", err)
	}
	return nil
}

// List returns up to n records, newest first. n <= 0 returns all of them.
func (s *Store) List(n int) ([]Record, error) {
	s.mu.Lock()
	records, err := s.read()
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	out := make([]Record, 0, len(records))
	for i := len(records) - 1; i >= 0; i-- {
		out = append(out, records[i])
		if n > 0 && len(out) == n {
			break
		}
	}
	return out, nil
}

// Last returns the newest record, or nil when there is none
func (s *Store) Last() (*Record, error) {
	records, err := s.List(1)
	if err != nil || len(records) == 0 {
		return nil, err
	}
	return &records[0], nil
}
