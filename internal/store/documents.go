package store

import (
	"encoding/json"
	"fmt"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Concept is a unit of learnable material within a course. ID is the map
// key in the primary document and is not serialized with the record.
type Concept struct {
	ID        string   `json:"-"`
	Title     string   `json:"title"`
	Content   []string `json:"content"`
	Timestamp string   `json:"timestamp"`
	Freshness float64  `json:"freshness"`
}

// Description returns the canonical description, the first content entry.
func (c Concept) Description() string {
	if len(c.Content) == 0 {
		return ""
	}
	return c.Content[0]
}

// UnmarshalJSON accepts content as either a list or a single string.
func (c *Concept) UnmarshalJSON(data []byte) error {
	var raw struct {
		Title     string          `json:"title"`
		Content   json.RawMessage `json:"content"`
		Timestamp string          `json:"timestamp"`
		Freshness float64         `json:"freshness"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	c.Title = raw.Title
	c.Timestamp = raw.Timestamp
	c.Freshness = raw.Freshness
	c.Content = nil

	trimmed := strings.TrimSpace(string(raw.Content))
	switch {
	case trimmed == "" || trimmed == "null":
	case strings.HasPrefix(trimmed, "\""):
		var s string
		if err := json.Unmarshal(raw.Content, &s); err != nil {
			return fmt.Errorf("concept content: %w", err)
		}
		c.Content = []string{s}
	default:
		if err := json.Unmarshal(raw.Content, &c.Content); err != nil {
			return fmt.Errorf("concept content: %w", err)
		}
	}
	return nil
}

// MarshalJSON always writes content as a list.
func (c Concept) MarshalJSON() ([]byte, error) {
	content := c.Content
	if content == nil {
		content = []string{}
	}
	return json.Marshal(struct {
		Title     string   `json:"title"`
		Content   []string `json:"content"`
		Timestamp string   `json:"timestamp"`
		Freshness float64  `json:"freshness"`
	}{c.Title, content, c.Timestamp, c.Freshness})
}

// RefConcept pairs a concept with its reference.
type RefConcept struct {
	Ref     string
	Course  string
	Concept Concept
}

// UserProfile describes the learner.
type UserProfile struct {
	Major      string   `json:"major"`
	CareerGoal string   `json:"career_goal"`
	Profile    []string `json:"profile"`
}

func (p *UserProfile) normalize() {
	if p.Profile == nil {
		p.Profile = []string{}
	}
}

// courseConcepts maps concept ID to concept in insertion order.
type courseConcepts = orderedmap.OrderedMap[string, Concept]

// database is the primary document. Course and concept order follow
// insertion, which the distribution and search results inherit.
type database struct {
	UserProfile UserProfile                                     `json:"USER_PROFILE"`
	Courses     *orderedmap.OrderedMap[string, *courseConcepts] `json:"COURSES"`
}

func newDatabase() *database {
	db := &database{}
	db.normalize()
	return db
}

func (db *database) normalize() {
	db.UserProfile.normalize()
	if db.Courses == nil {
		db.Courses = orderedmap.New[string, *courseConcepts]()
	}
	for pair := db.Courses.Oldest(); pair != nil; pair = pair.Next() {
		if pair.Value == nil {
			pair.Value = orderedmap.New[string, Concept]()
		}
	}
}

// Distribution is the derived age index: concept references bucketed by
// how long ago the concept was created.
type Distribution struct {
	Today     []string `json:"TODAY"`
	ShortTerm []string `json:"SHORT_TERM"`
	LongTerm  []string `json:"LONG_TERM"`
}

// Active returns the references eligible for scheduling: TODAY followed
// by SHORT_TERM.
func (d Distribution) Active() []string {
	active := make([]string, 0, len(d.Today)+len(d.ShortTerm))
	active = append(active, d.Today...)
	return append(active, d.ShortTerm...)
}

// Len returns the number of distributed references.
func (d Distribution) Len() int {
	return len(d.Today) + len(d.ShortTerm) + len(d.LongTerm)
}

func (d *Distribution) normalize() {
	if d.Today == nil {
		d.Today = []string{}
	}
	if d.ShortTerm == nil {
		d.ShortTerm = []string{}
	}
	if d.LongTerm == nil {
		d.LongTerm = []string{}
	}
}

// ProgressEntry is the learning state of one concept.
type ProgressEntry struct {
	Freshness float64  `json:"freshness"`
	Log       []string `json:"log"`
}

// Attempts returns the number of recorded evaluations.
func (e ProgressEntry) Attempts() int {
	return len(e.Log)
}

// Progress is the progress document. Entries keep the order in which
// concepts were first evaluated.
type Progress struct {
	Feedback *orderedmap.OrderedMap[string, ProgressEntry] `json:"AI_FEEDBACK"`
}

// NewProgress returns an empty progress document.
func NewProgress() *Progress {
	p := &Progress{}
	p.normalize()
	return p
}

func (p *Progress) normalize() {
	if p.Feedback == nil {
		p.Feedback = orderedmap.New[string, ProgressEntry]()
	}
	for pair := p.Feedback.Oldest(); pair != nil; pair = pair.Next() {
		if pair.Value.Log == nil {
			pair.Value.Log = []string{}
		}
	}
}

// Get returns the entry for ref.
func (p *Progress) Get(ref string) (ProgressEntry, bool) {
	if p == nil || p.Feedback == nil {
		return ProgressEntry{}, false
	}
	return p.Feedback.Get(ref)
}

// Set inserts or replaces the entry for ref. A replaced entry keeps its
// original position.
func (p *Progress) Set(ref string, e ProgressEntry) {
	p.normalize()
	if e.Log == nil {
		e.Log = []string{}
	}
	p.Feedback.Set(ref, e)
}

// Refs returns the concept references in insertion order.
func (p *Progress) Refs() []string {
	if p == nil || p.Feedback == nil {
		return nil
	}
	refs := make([]string, 0, p.Feedback.Len())
	for pair := p.Feedback.Oldest(); pair != nil; pair = pair.Next() {
		refs = append(refs, pair.Key)
	}
	return refs
}

// Len returns the number of entries.
func (p *Progress) Len() int {
	if p == nil || p.Feedback == nil {
		return 0
	}
	return p.Feedback.Len()
}
