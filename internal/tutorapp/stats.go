package tutorapp

import (
	"context"
	"fmt"

	"github.com/abhisek/cheatsheet/internal/store"
)

// Stats summarises the learner's state across the stores.
type Stats struct {
	Courses      int     `json:"courses"`
	Concepts     int     `json:"concepts"`
	Today        int     `json:"today"`
	ShortTerm    int     `json:"short_term"`
	LongTerm     int     `json:"long_term"`
	Evaluated    int     `json:"evaluated"`
	Due          int     `json:"due"`
	AvgFreshness float64 `json:"avg_freshness"`

	// Evaluations is filled from the event log when one is configured.
	Evaluations *store.EvaluationStats `json:"evaluations,omitempty"`
}

// StatsSource reports aggregate evaluation history.
type StatsSource interface {
	EvaluationStats(ctx context.Context) (store.EvaluationStats, error)
}

// Stats computes the learner summary. Due counts the references the
// policy would still act on: evaluated concepts below the remediation
// threshold plus active concepts never quizzed.
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	courses, err := s.Store.Courses()
	if err != nil {
		return Stats{}, err
	}
	all, err := s.Store.AllConcepts()
	if err != nil {
		return Stats{}, err
	}
	dist, err := s.Store.LoadDistribution()
	if err != nil {
		return Stats{}, fmt.Errorf("load distribution: %w", err)
	}
	prog := s.Store.LoadProgress()

	st := Stats{
		Courses:   len(courses),
		Concepts:  len(all),
		Today:     len(dist.Today),
		ShortTerm: len(dist.ShortTerm),
		LongTerm:  len(dist.LongTerm),
		Evaluated: prog.Len(),
	}

	var sum float64
	for _, ref := range prog.Refs() {
		entry, _ := prog.Get(ref)
		sum += entry.Freshness
		if entry.Freshness < s.Policy.RemediationThreshold {
			st.Due++
		}
	}
	if st.Evaluated > 0 {
		st.AvgFreshness = sum / float64(st.Evaluated)
	}
	for _, ref := range dist.Active() {
		if _, ok := prog.Get(ref); !ok {
			st.Due++
		}
	}

	if src, ok := s.events.(StatsSource); ok {
		ev, err := src.EvaluationStats(ctx)
		if err != nil {
			return Stats{}, fmt.Errorf("evaluation stats: %w", err)
		}
		st.Evaluations = &ev
	}
	return st, nil
}
