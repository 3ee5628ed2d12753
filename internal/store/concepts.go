package store

import (
	"fmt"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

func (s *Store) loadDatabase() (*database, error) {
	db := newDatabase()
	if _, err := readJSON(s.databasePath, db); err != nil {
		return nil, err
	}
	db.normalize()
	return db, nil
}

func (s *Store) saveDatabase(db *database) error {
	return writeJSON(s.databasePath, db)
}

// AddConcept inserts c into course, creating the course on first use. It
// returns false without writing when the course already has a concept
// with the same title (case-insensitive) or the same ID.
func (s *Store) AddConcept(course string, c Concept) (bool, error) {
	if c.ID == "" {
		return false, fmt.Errorf("concept ID is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	db, err := s.loadDatabase()
	if err != nil {
		return false, err
	}

	concepts := courseOf(db, course)
	if hasTitle(concepts, c.Title) {
		return false, nil
	}
	if _, exists := concepts.Get(c.ID); exists {
		return false, nil
	}

	concepts.Set(c.ID, c)
	if err := s.saveDatabase(db); err != nil {
		return false, err
	}
	return true, nil
}

// CreateConcept checks for a duplicate title, generates the next ID and
// inserts the concept in one locked read-modify-write. It returns false
// when the title already exists in the course.
func (s *Store) CreateConcept(course, title string, content []string, timestamp string) (Concept, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	db, err := s.loadDatabase()
	if err != nil {
		return Concept{}, false, err
	}

	concepts := courseOf(db, course)
	if hasTitle(concepts, title) {
		return Concept{}, false, nil
	}

	c := Concept{
		ID:        NextConceptID(course, timestamp, keys(concepts)),
		Title:     title,
		Content:   content,
		Timestamp: timestamp,
	}
	concepts.Set(c.ID, c)

	if err := s.saveDatabase(db); err != nil {
		return Concept{}, false, err
	}
	return c, true, nil
}

// GetConcept resolves a COURSES/<course>/<id> reference. Malformed or
// unknown references report false.
func (s *Store) GetConcept(ref string) (Concept, bool, error) {
	course, id, ok := ParseRef(ref)
	if !ok {
		return Concept{}, false, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	db, err := s.loadDatabase()
	if err != nil {
		return Concept{}, false, err
	}

	concepts, ok := db.Courses.Get(course)
	if !ok {
		return Concept{}, false, nil
	}
	c, ok := concepts.Get(id)
	if !ok {
		return Concept{}, false, nil
	}
	c.ID = id
	return c, true, nil
}

// CheckDuplicate reports whether course already holds a concept titled
// title, compared case-insensitively.
func (s *Store) CheckDuplicate(course, title string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	db, err := s.loadDatabase()
	if err != nil {
		return false, err
	}
	concepts, ok := db.Courses.Get(course)
	if !ok {
		return false, nil
	}
	return hasTitle(concepts, title), nil
}

// GenerateConceptID returns the next ID for a concept created at timestamp.
// The result is only stable until the next write; use CreateConcept to
// generate and insert atomically.
func (s *Store) GenerateConceptID(course, timestamp string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	db, err := s.loadDatabase()
	if err != nil {
		return "", err
	}
	var existing []string
	if concepts, ok := db.Courses.Get(course); ok {
		existing = keys(concepts)
	}
	return NextConceptID(course, timestamp, existing), nil
}

// Courses returns course names in creation order.
func (s *Store) Courses() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	db, err := s.loadDatabase()
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, db.Courses.Len())
	for pair := db.Courses.Oldest(); pair != nil; pair = pair.Next() {
		names = append(names, pair.Key)
	}
	return names, nil
}

// Course returns the concepts of one course in insertion order.
func (s *Store) Course(name string) ([]Concept, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	db, err := s.loadDatabase()
	if err != nil {
		return nil, err
	}
	concepts, ok := db.Courses.Get(name)
	if !ok {
		return nil, fmt.Errorf("course %q: %w", name, ErrNotFound)
	}

	out := make([]Concept, 0, concepts.Len())
	for pair := concepts.Oldest(); pair != nil; pair = pair.Next() {
		c := pair.Value
		c.ID = pair.Key
		out = append(out, c)
	}
	return out, nil
}

// AllConcepts returns every concept of every course, courses and concepts
// in insertion order.
func (s *Store) AllConcepts() ([]RefConcept, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	db, err := s.loadDatabase()
	if err != nil {
		return nil, err
	}

	var out []RefConcept
	for course := db.Courses.Oldest(); course != nil; course = course.Next() {
		for pair := course.Value.Oldest(); pair != nil; pair = pair.Next() {
			c := pair.Value
			c.ID = pair.Key
			out = append(out, RefConcept{
				Ref:     FormatRef(course.Key, pair.Key),
				Course:  course.Key,
				Concept: c,
			})
		}
	}
	return out, nil
}

// AllConceptRefs returns the reference of every stored concept.
func (s *Store) AllConceptRefs() ([]string, error) {
	all, err := s.AllConcepts()
	if err != nil {
		return nil, err
	}
	refs := make([]string, len(all))
	for i, rc := range all {
		refs[i] = rc.Ref
	}
	return refs, nil
}

// SetConceptFreshness records the latest freshness on the concept record.
func (s *Store) SetConceptFreshness(ref string, freshness float64) error {
	course, id, ok := ParseRef(ref)
	if !ok {
		return fmt.Errorf("concept %q: %w", ref, ErrNotFound)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	db, err := s.loadDatabase()
	if err != nil {
		return err
	}
	concepts, ok := db.Courses.Get(course)
	if !ok {
		return fmt.Errorf("concept %q: %w", ref, ErrNotFound)
	}
	c, ok := concepts.Get(id)
	if !ok {
		return fmt.Errorf("concept %q: %w", ref, ErrNotFound)
	}
	c.Freshness = freshness
	concepts.Set(id, c)
	return s.saveDatabase(db)
}

// UserProfile returns the stored learner profile.
func (s *Store) UserProfile() (UserProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	db, err := s.loadDatabase()
	if err != nil {
		return UserProfile{}, err
	}
	return db.UserProfile, nil
}

// SaveUserProfile replaces the learner profile.
func (s *Store) SaveUserProfile(p UserProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	db, err := s.loadDatabase()
	if err != nil {
		return err
	}
	p.normalize()
	db.UserProfile = p
	return s.saveDatabase(db)
}

// courseOf returns the concepts of course, creating an empty course.
func courseOf(db *database, course string) *courseConcepts {
	concepts, ok := db.Courses.Get(course)
	if !ok || concepts == nil {
		concepts = orderedmap.New[string, Concept]()
		db.Courses.Set(course, concepts)
	}
	return concepts
}

func hasTitle(concepts *courseConcepts, title string) bool {
	want := strings.ToLower(title)
	for pair := concepts.Oldest(); pair != nil; pair = pair.Next() {
		if strings.ToLower(pair.Value.Title) == want {
			return true
		}
	}
	return false
}

func keys(concepts *courseConcepts) []string {
	out := make([]string, 0, concepts.Len())
	for pair := concepts.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, pair.Key)
	}
	return out
}
