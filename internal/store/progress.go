package store

import (
	"fmt"
	"log/slog"
)

func (s *Store) loadProgress() *Progress {
	p := NewProgress()
	if _, err := readJSON(s.progressPath, p); err != nil {
		slog.Warn("progress document unreadable, starting empty", "path", s.progressPath, "error", err)
		return NewProgress()
	}
	p.normalize()
	return p
}

// LoadProgress returns the progress document. A missing or corrupt
// document yields an empty one.
func (s *Store) LoadProgress() *Progress {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadProgress()
}

// ProgressEntry returns the entry for ref, if any.
func (s *Store) ProgressEntry(ref string) (ProgressEntry, bool) {
	return s.LoadProgress().Get(ref)
}

// UpdateProgress applies fn to the entry for ref and persists the result.
// fn receives the zero entry and false when ref has no entry yet.
func (s *Store) UpdateProgress(ref string, fn func(entry ProgressEntry, exists bool) ProgressEntry) (ProgressEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.loadProgress()
	cur, exists := p.Get(ref)
	next := fn(cur, exists)
	p.Set(ref, next)

	if err := writeJSON(s.progressPath, p); err != nil {
		return ProgressEntry{}, fmt.Errorf("save progress: %w", err)
	}
	next, _ = p.Get(ref)
	return next, nil
}

// ResetProgress discards all progress.
func (s *Store) ResetProgress() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return writeJSON(s.progressPath, NewProgress())
}
