package knowledge

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/abhisek/cheatsheet/internal/store"
)

// Distributor rebuilds the age index over every stored concept.
type Distributor struct {
	store *store.Store
	now   func() time.Time
}

// NewDistributor creates a Distributor reading the wall clock.
func NewDistributor(s *store.Store) *Distributor {
	return &Distributor{store: s, now: time.Now}
}

// WithClock replaces the clock, for tests.
func (d *Distributor) WithClock(now func() time.Time) *Distributor {
	d.now = now
	return d
}

// Distribute buckets every concept by age and persists the result,
// replacing the previous distribution. Concepts without a usable
// timestamp are left out of every bucket.
func (d *Distributor) Distribute() (store.Distribution, error) {
	concepts, err := d.store.AllConcepts()
	if err != nil {
		return store.Distribution{}, fmt.Errorf("load concepts: %w", err)
	}

	now := d.now().UTC()
	dist := store.Distribution{
		Today:     []string{},
		ShortTerm: []string{},
		LongTerm:  []string{},
	}

	for _, rc := range concepts {
		ts := rc.Concept.Timestamp
		if ts == "" {
			continue
		}
		created, ok := ParseTimestamp(ts)
		if !ok {
			slog.Warn("skipping concept with unparseable timestamp", "ref", rc.Ref, "timestamp", ts)
			continue
		}

		switch Classify(now.Sub(created)) {
		case BucketToday:
			dist.Today = append(dist.Today, rc.Ref)
		case BucketShortTerm:
			dist.ShortTerm = append(dist.ShortTerm, rc.Ref)
		default:
			dist.LongTerm = append(dist.LongTerm, rc.Ref)
		}
	}

	if err := d.store.SaveDistribution(dist); err != nil {
		return store.Distribution{}, fmt.Errorf("save distribution: %w", err)
	}
	return dist, nil
}

// Search returns the references to study: TODAY then SHORT_TERM from the
// persisted distribution, or every stored concept when both are empty.
func (d *Distributor) Search() ([]string, error) {
	dist, err := d.store.LoadDistribution()
	if err != nil {
		return nil, err
	}
	if refs := dist.Active(); len(refs) > 0 {
		return refs, nil
	}
	return d.store.AllConceptRefs()
}
