package ingest

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/abhisek/cheatsheet/internal/knowledge"
	"github.com/abhisek/cheatsheet/internal/metrics"
	"github.com/abhisek/cheatsheet/internal/store"
)

// TimestampLayout is how imported concepts are stamped: UTC with
// microseconds and a Z suffix.
const TimestampLayout = "2006-01-02T15:04:05.000000Z"

// SaveResult reports what happened to a batch of candidates.
type SaveResult struct {
	AddedCount   int    `json:"added_count"`
	SkippedCount int    `json:"skipped_count"`
	CourseName   string `json:"course_name"`
}

// Saver stores accepted candidates and refreshes the distribution.
type Saver struct {
	store       *store.Store
	distributor *knowledge.Distributor
	metrics     *metrics.Metrics
	now         func() time.Time
}

// NewSaver creates a Saver. m may be nil.
func NewSaver(s *store.Store, d *knowledge.Distributor, m *metrics.Metrics) *Saver {
	return &Saver{store: s, distributor: d, metrics: m, now: time.Now}
}

// WithClock returns a copy of the Saver that stamps concepts with now.
func (s *Saver) WithClock(now func() time.Time) *Saver {
	cp := *s
	cp.now = now
	return &cp
}

// Save adds candidates to course. Every concept in the batch gets the same
// timestamp. Duplicates by title and candidates without a title are
// skipped.
func (s *Saver) Save(course string, candidates []Candidate) (SaveResult, error) {
	result := SaveResult{CourseName: course}
	timestamp := s.now().UTC().Format(TimestampLayout)

	for _, c := range candidates {
		title := strings.TrimSpace(c.Title)
		if title == "" {
			result.SkippedCount++
			continue
		}
		_, added, err := s.store.CreateConcept(course, title, []string{c.Content}, timestamp)
		if err != nil {
			return result, fmt.Errorf("save concept %q: %w", title, err)
		}
		if added {
			result.AddedCount++
		} else {
			result.SkippedCount++
		}
	}

	if _, err := s.distributor.Distribute(); err != nil {
		return result, fmt.Errorf("redistribute: %w", err)
	}

	s.metrics.RecordIngest(result.AddedCount, result.SkippedCount)
	slog.Info("concepts saved", "course", course, "added", result.AddedCount, "skipped", result.SkippedCount)
	return result, nil
}
