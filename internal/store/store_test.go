package store

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	return s
}

func TestEmptyStore(t *testing.T) {
	s := openTestStore(t)

	courses, err := s.Courses()
	require.NoError(t, err)
	assert.Empty(t, courses)

	d, err := s.LoadDistribution()
	require.NoError(t, err)
	assert.Equal(t, 0, d.Len())
	assert.NotNil(t, d.Today)

	p := s.LoadProgress()
	assert.Equal(t, 0, p.Len())

	profile, err := s.UserProfile()
	require.NoError(t, err)
	assert.Equal(t, []string{}, profile.Profile)
}

func TestCreateConceptGeneratesSequentialIDs(t *testing.T) {
	s := openTestStore(t)
	ts := "2025-01-15T10:00:00Z"

	c1, ok, err := s.CreateConcept("Biology", "Cell Division", []string{"Mitosis splits a cell."}, ts)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "bi-2025-01-15-001", c1.ID)

	c2, ok, err := s.CreateConcept("Biology", "Osmosis", []string{"Water crosses membranes."}, ts)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "bi-2025-01-15-002", c2.ID)

	_, ok, err = s.CreateConcept("Biology", "cell division", []string{"dup"}, ts)
	require.NoError(t, err)
	assert.False(t, ok, "title match is case-insensitive")

	refs, err := s.AllConceptRefs()
	require.NoError(t, err)
	assert.Equal(t, []string{
		"COURSES/Biology/bi-2025-01-15-001",
		"COURSES/Biology/bi-2025-01-15-002",
	}, refs)
}

func TestGetConcept(t *testing.T) {
	s := openTestStore(t)
	added, err := s.AddConcept("Chemistry", Concept{
		ID:        "ch-2025-02-01-001",
		Title:     "Covalent Bond",
		Content:   []string{"Atoms share electron pairs."},
		Timestamp: "2025-02-01T08:00:00Z",
	})
	require.NoError(t, err)
	require.True(t, added)

	c, ok, err := s.GetConcept("COURSES/Chemistry/ch-2025-02-01-001")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Covalent Bond", c.Title)
	assert.Equal(t, "Atoms share electron pairs.", c.Description())
	assert.Equal(t, "ch-2025-02-01-001", c.ID)

	for _, ref := range []string{
		"COURSES/Chemistry/missing",
		"COURSES/Physics/ch-2025-02-01-001",
		"Chemistry/ch-2025-02-01-001",
		"OTHER/Chemistry/ch-2025-02-01-001",
		"COURSES/Chemistry/ch-2025-02-01-001/extra",
	} {
		_, ok, err := s.GetConcept(ref)
		require.NoError(t, err)
		assert.False(t, ok, ref)
	}
}

func TestAddConceptRejectsDuplicates(t *testing.T) {
	s := openTestStore(t)
	c := Concept{ID: "ma-2025-01-01-001", Title: "Limits", Content: []string{"x"}, Timestamp: "2025-01-01T00:00:00Z"}

	added, err := s.AddConcept("Math", c)
	require.NoError(t, err)
	assert.True(t, added)

	added, err = s.AddConcept("Math", c)
	require.NoError(t, err)
	assert.False(t, added, "same ID")

	c.ID = "ma-2025-01-01-002"
	c.Title = "LIMITS"
	added, err = s.AddConcept("Math", c)
	require.NoError(t, err)
	assert.False(t, added, "same title")

	dup, err := s.CheckDuplicate("Math", "limits")
	require.NoError(t, err)
	assert.True(t, dup)

	dup, err = s.CheckDuplicate("Physics", "limits")
	require.NoError(t, err)
	assert.False(t, dup)

	// Rejected inserts leave the file untouched.
	reopened, err := Open(s.Dir())
	require.NoError(t, err)
	math, err := reopened.Course("Math")
	require.NoError(t, err)
	require.Len(t, math, 1)
	assert.Equal(t, "ma-2025-01-01-001", math[0].ID)
	assert.Equal(t, "Limits", math[0].Title)
}

func TestAddConceptKeepsExistingID(t *testing.T) {
	s := openTestStore(t)
	orig := Concept{ID: "ph-2025-01-01-001", Title: "Inertia", Content: []string{"first"}, Timestamp: "2025-01-01T00:00:00Z"}
	added, err := s.AddConcept("Physics", orig)
	require.NoError(t, err)
	require.True(t, added)

	// A different title under an existing ID is not an overwrite.
	added, err = s.AddConcept("Physics", Concept{ID: orig.ID, Title: "Momentum", Content: []string{"second"}, Timestamp: orig.Timestamp})
	require.NoError(t, err)
	assert.False(t, added)

	c, ok, err := s.GetConcept("COURSES/Physics/" + orig.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Inertia", c.Title)
	assert.Equal(t, []string{"first"}, c.Content)
}

func TestSameTitleInAnotherCourse(t *testing.T) {
	s := openTestStore(t)
	ts := "2025-01-01T00:00:00Z"

	_, ok, err := s.CreateConcept("Math", "Limits", []string{"x"}, ts)
	require.NoError(t, err)
	require.True(t, ok)

	c, ok, err := s.CreateConcept("Physics", "limits", []string{"y"}, ts)
	require.NoError(t, err)
	assert.True(t, ok, "duplicate detection is per course")
	assert.Equal(t, "limits", c.Title)

	added, err := s.AddConcept("Chemistry", Concept{ID: "ch-2025-01-01-001", Title: "LIMITS", Timestamp: ts})
	require.NoError(t, err)
	assert.True(t, added)

	reopened, err := Open(s.Dir())
	require.NoError(t, err)
	for _, course := range []string{"Math", "Physics", "Chemistry"} {
		concepts, err := reopened.Course(course)
		require.NoError(t, err)
		assert.Len(t, concepts, 1, course)
	}
}

func TestCoursesKeepInsertionOrder(t *testing.T) {
	s := openTestStore(t)
	ts := "2025-03-01T00:00:00Z"
	for _, course := range []string{"Zoology", "Algebra", "Music"} {
		_, _, err := s.CreateConcept(course, "Intro", []string{"c"}, ts)
		require.NoError(t, err)
	}

	// Reopen to prove order survives the round trip through disk.
	s2, err := Open(s.Dir())
	require.NoError(t, err)
	courses, err := s2.Courses()
	require.NoError(t, err)
	assert.Equal(t, []string{"Zoology", "Algebra", "Music"}, courses)

	_, err = s2.Course("Nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLegacyStringContent(t *testing.T) {
	dir := t.TempDir()
	doc := `{
  "USER_PROFILE": {"major": "CS", "career_goal": "SRE", "profile": ["likes Go"]},
  "COURSES": {
    "Networks": {
      "ne-2024-12-01-001": {"title": "TCP", "content": "Reliable byte stream.", "timestamp": "2024-12-01T00:00:00Z", "freshness": 0}
    }
  }
}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, DatabaseFile), []byte(doc), 0o644))

	s, err := Open(dir)
	require.NoError(t, err)

	c, ok, err := s.GetConcept("COURSES/Networks/ne-2024-12-01-001")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []string{"Reliable byte stream."}, c.Content)

	profile, err := s.UserProfile()
	require.NoError(t, err)
	assert.Equal(t, "CS", profile.Major)

	// A write normalizes content to a list.
	require.NoError(t, s.SetConceptFreshness("COURSES/Networks/ne-2024-12-01-001", 0.4))
	raw, err := os.ReadFile(filepath.Join(dir, DatabaseFile))
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"content": [`)
	assert.True(t, strings.HasSuffix(string(raw), "\n"))
}

func TestCorruptDatabaseIsAnError(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, DatabaseFile), []byte("{not json"), 0o644))

	s, err := Open(dir)
	require.NoError(t, err)
	_, err = s.Courses()
	assert.Error(t, err)
}

func TestUpdateProgress(t *testing.T) {
	s := openTestStore(t)
	refA := "COURSES/Bio/bi-2025-01-01-001"
	refB := "COURSES/Bio/bi-2025-01-01-002"

	add := func(ref string, f float64, line string) {
		_, err := s.UpdateProgress(ref, func(e ProgressEntry, _ bool) ProgressEntry {
			e.Freshness = f
			e.Log = append(e.Log, line)
			return e
		})
		require.NoError(t, err)
	}

	add(refB, 0.9, "first b")
	add(refA, 0.5, "first a")
	add(refB, 0.6, "second b")

	p := s.LoadProgress()
	assert.Equal(t, []string{refB, refA}, p.Refs())

	e, ok := s.ProgressEntry(refB)
	require.True(t, ok)
	assert.Equal(t, 0.6, e.Freshness)
	assert.Equal(t, []string{"first b", "second b"}, e.Log)
	assert.Equal(t, 2, e.Attempts())

	require.NoError(t, s.ResetProgress())
	assert.Equal(t, 0, s.LoadProgress().Len())
}

func TestCorruptProgressStartsEmpty(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ProgressFile), []byte("garbage"), 0o644))

	s, err := Open(dir)
	require.NoError(t, err)
	assert.Equal(t, 0, s.LoadProgress().Len())
}

func TestDistributionRoundTrip(t *testing.T) {
	s := openTestStore(t)
	d := Distribution{
		Today:     []string{"COURSES/A/a-1"},
		ShortTerm: []string{"COURSES/A/a-2"},
	}
	require.NoError(t, s.SaveDistribution(d))

	got, err := s.LoadDistribution()
	require.NoError(t, err)
	assert.Equal(t, []string{"COURSES/A/a-1"}, got.Today)
	assert.Equal(t, []string{"COURSES/A/a-2"}, got.ShortTerm)
	assert.Equal(t, []string{}, got.LongTerm)
	assert.Equal(t, []string{"COURSES/A/a-1", "COURSES/A/a-2"}, got.Active())

	raw, err := os.ReadFile(filepath.Join(s.Dir(), DistributionFile))
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"LONG_TERM": []`)
}

func TestProfileSave(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.SaveUserProfile(UserProfile{Major: "Physics", CareerGoal: "Research"}))

	p, err := s.UserProfile()
	require.NoError(t, err)
	assert.Equal(t, "Physics", p.Major)
	assert.Equal(t, "Research", p.CareerGoal)
	assert.Equal(t, []string{}, p.Profile)
}

func TestEventLog(t *testing.T) {
	l, err := OpenEventLog(filepath.Join(t.TempDir(), EventLogFile))
	require.NoError(t, err)
	t.Cleanup(func() { l.Close() })
	ctx := context.Background()

	require.NoError(t, l.AppendLLMRequest(ctx, LLMRequestEventData{
		Provider: "mock", Model: "mock", Purpose: "evaluate",
		InputTokens: 10, OutputTokens: 5, LatencyMs: 20, Success: true,
		RequestBody: "req", ResponseBody: "resp",
	}))
	require.NoError(t, l.AppendLLMRequest(ctx, LLMRequestEventData{
		Provider: "mock", Model: "mock", Purpose: "quiz",
		InputTokens: 30, OutputTokens: 7, LatencyMs: 40, Success: false,
		ErrorMessage: "boom",
	}))
	require.NoError(t, l.AppendEvaluation(ctx, EvaluationEventData{
		Ref: "COURSES/A/a-1", Score: 80, Correct: true, Freshness: 0.8,
	}))
	require.NoError(t, l.AppendEvaluation(ctx, EvaluationEventData{
		Ref: "COURSES/A/a-1", Score: 40, Freshness: 0.6,
	}))

	events, err := l.QueryLLMEvents(ctx, QueryOpts{})
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "quiz", events[0].Purpose, "newest first")
	assert.False(t, events[0].Success)
	assert.Equal(t, "boom", events[0].ErrorMessage)
	assert.Less(t, events[1].Sequence, events[0].Sequence)

	filtered, err := l.QueryLLMEvents(ctx, QueryOpts{Purpose: "evaluate", Limit: 5})
	require.NoError(t, err)
	require.Len(t, filtered, 1)

	e, err := l.GetLLMEvent(ctx, filtered[0].ID)
	require.NoError(t, err)
	require.NotNil(t, e)
	assert.Equal(t, "req", e.RequestBody)
	assert.Equal(t, "resp", e.ResponseBody)

	missing, err := l.GetLLMEvent(ctx, 9999)
	require.NoError(t, err)
	assert.Nil(t, missing)

	byPurpose, err := l.LLMUsageByPurpose(ctx)
	require.NoError(t, err)
	assert.Len(t, byPurpose, 2)

	byModel, err := l.LLMUsageByModel(ctx)
	require.NoError(t, err)
	require.Len(t, byModel, 1)
	assert.Equal(t, 2, byModel[0].Calls)
	assert.Equal(t, 40, byModel[0].InputTokens)

	st, err := l.EvaluationStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, st.Total)
	assert.Equal(t, 1, st.Correct)
	assert.InDelta(t, 60.0, st.AvgScore, 0.001)
	assert.Equal(t, 1, st.Concepts)
}

func TestQueryLLMEventsFilters(t *testing.T) {
	l, err := OpenEventLog(filepath.Join(t.TempDir(), EventLogFile))
	require.NoError(t, err)
	t.Cleanup(func() { l.Close() })
	ctx := context.Background()

	start := time.Now()
	for _, purpose := range []string{"quiz", "evaluate", "quiz", "feedback", "quiz"} {
		require.NoError(t, l.AppendLLMRequest(ctx, LLMRequestEventData{
			Provider: "mock", Model: "mock", Purpose: purpose, Success: true,
		}))
	}

	all, err := l.QueryLLMEvents(ctx, QueryOpts{})
	require.NoError(t, err)
	require.Len(t, all, 5)
	first, last := all[4].Sequence, all[0].Sequence

	between, err := l.QueryLLMEvents(ctx, QueryOpts{After: first, Before: last})
	require.NoError(t, err)
	require.Len(t, between, 3)
	for _, e := range between {
		assert.Greater(t, e.Sequence, first)
		assert.Less(t, e.Sequence, last)
	}

	quizzes, err := l.QueryLLMEvents(ctx, QueryOpts{Purpose: "quiz", After: first, Limit: 1})
	require.NoError(t, err)
	require.Len(t, quizzes, 1)
	assert.Equal(t, last, quizzes[0].Sequence)

	inWindow, err := l.QueryLLMEvents(ctx, QueryOpts{From: start.Add(-time.Second), To: time.Now().Add(time.Second)})
	require.NoError(t, err)
	assert.Len(t, inWindow, 5)

	future, err := l.QueryLLMEvents(ctx, QueryOpts{From: time.Now().Add(time.Hour)})
	require.NoError(t, err)
	assert.Empty(t, future)

	byPurpose, err := l.LLMUsageByPurpose(ctx)
	require.NoError(t, err)
	require.Len(t, byPurpose, 3)
	assert.Equal(t, "quiz", byPurpose[0].Purpose, "most calls first")
	assert.Equal(t, 3, byPurpose[0].Calls)
	assert.Equal(t, "evaluate", byPurpose[1].Purpose, "ties ordered by name")
}

func TestEvaluationStatsEmpty(t *testing.T) {
	l, err := OpenEventLog(filepath.Join(t.TempDir(), EventLogFile))
	require.NoError(t, err)
	t.Cleanup(func() { l.Close() })

	st, err := l.EvaluationStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, EvaluationStats{}, st)
}

func TestPragmasApplied(t *testing.T) {
	l, err := OpenEventLog(filepath.Join(t.TempDir(), EventLogFile))
	require.NoError(t, err)
	t.Cleanup(func() { l.Close() })

	tests := []struct {
		pragma string
		want   string
	}{
		{"journal_mode", "wal"},
		{"foreign_keys", "1"},
		{"synchronous", "1"}, // NORMAL = 1
	}

	for _, tt := range tests {
		var got string
		if err := l.DB().QueryRow("PRAGMA " + tt.pragma).Scan(&got); err != nil {
			t.Errorf("PRAGMA %s: %v", tt.pragma, err)
			continue
		}
		if got != tt.want {
			t.Errorf("PRAGMA %s = %q, want %q", tt.pragma, got, tt.want)
		}
	}
}
