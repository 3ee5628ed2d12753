package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Document file names inside the data directory.
const (
	DatabaseFile     = "db.json"
	DistributionFile = "knowledge_distributed_map.json"
	ProgressFile     = "cur_progress.json"
	EventLogFile     = "events.db"
)

// ErrNotFound is returned when a concept, course or reference does not resolve.
var ErrNotFound = errors.New("not found")

// Store is the flat-file knowledge store: the primary document (profile and
// courses), the derived distribution index and the progress document.
//
// Every operation reads and writes whole documents. Writes go to a temp
// file that is renamed over the target, and mu serializes read-modify-write
// cycles within a process. Two processes sharing a data directory are not
// supported.
type Store struct {
	dir              string
	databasePath     string
	distributionPath string
	progressPath     string

	mu sync.Mutex
}

// Open returns a Store rooted at dir, creating the directory if needed.
// Missing documents are not created until the first write.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &Store{
		dir:              dir,
		databasePath:     filepath.Join(dir, DatabaseFile),
		distributionPath: filepath.Join(dir, DistributionFile),
		progressPath:     filepath.Join(dir, ProgressFile),
	}, nil
}

// Dir returns the data directory.
func (s *Store) Dir() string {
	return s.dir
}

// EventLogPath returns the default SQLite event log location for this store.
func (s *Store) EventLogPath() string {
	return filepath.Join(s.dir, EventLogFile)
}

// DefaultDataDir resolves the data directory in priority order:
// 1. CHEATSHEET_DATA_DIR environment variable
// 2. $XDG_DATA_HOME/cheatsheet
// 3. ~/.local/share/cheatsheet
func DefaultDataDir() (string, error) {
	if p := os.Getenv("CHEATSHEET_DATA_DIR"); p != "" {
		return p, nil
	}

	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		dataHome = filepath.Join(home, ".local", "share")
	}

	return filepath.Join(dataHome, "cheatsheet"), nil
}

// EnsureDir creates the parent directory of path if it doesn't exist.
func EnsureDir(path string) error {
	return os.MkdirAll(filepath.Dir(path), 0o755)
}
