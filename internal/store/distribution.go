package store

// LoadDistribution returns the persisted distribution. A missing document
// yields empty buckets.
func (s *Store) LoadDistribution() (Distribution, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var d Distribution
	if _, err := readJSON(s.distributionPath, &d); err != nil {
		return Distribution{}, err
	}
	d.normalize()
	return d, nil
}

// SaveDistribution replaces the persisted distribution.
func (s *Store) SaveDistribution(d Distribution) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	d.normalize()
	return writeJSON(s.distributionPath, d)
}
