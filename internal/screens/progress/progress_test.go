package progress

import (
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/cheatsheet/internal/llm"
	"github.com/abhisek/cheatsheet/internal/store"
	"github.com/abhisek/cheatsheet/internal/tutorapp"
)

func newTestScreen(t *testing.T) (*ProgressScreen, *store.Store, string) {
	t.Helper()
	s, err := store.Open(t.TempDir())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	c, _, err := s.CreateConcept("Operating Systems", "Paging", []string{"Fixed-size pages."}, "2025-08-11T10:00:00Z")
	if err != nil {
		t.Fatalf("create concept: %v", err)
	}
	ref := store.FormatRef("Operating Systems", c.ID)
	svc := tutorapp.New(tutorapp.Options{Store: s, Provider: llm.NewMockProvider()})
	return New(svc), s, ref
}

func TestLoadRows(t *testing.T) {
	_, s, ref := newTestScreen(t)

	if _, err := s.UpdateProgress(ref, func(e store.ProgressEntry, _ bool) store.ProgressEntry {
		e.Freshness = 0.4
		e.Log = append(e.Log, "[Pitfall] Confuses pages with frames.")
		return e
	}); err != nil {
		t.Fatalf("update progress: %v", err)
	}
	if _, err := s.UpdateProgress("COURSES/Gone/x", func(e store.ProgressEntry, _ bool) store.ProgressEntry {
		e.Freshness = 1
		return e
	}); err != nil {
		t.Fatalf("update progress: %v", err)
	}

	rows, err := LoadRows(s)
	if err != nil {
		t.Fatalf("LoadRows: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0].Title != "Paging" || rows[0].Course != "Operating Systems" {
		t.Errorf("unexpected first row: %+v", rows[0])
	}
	if rows[1].Title != "COURSES/Gone/x" {
		t.Errorf("removed concept should keep its ref as title, got %q", rows[1].Title)
	}
}

func TestProgressScreen_View(t *testing.T) {
	scr, s, ref := newTestScreen(t)

	view := scr.View(100, 30)
	if !strings.Contains(view, "Loading") {
		t.Errorf("expected loading view, got %q", view)
	}

	scr.Update(scr.Init()())
	if !strings.Contains(scr.View(100, 30), "Nothing evaluated yet") {
		t.Error("expected empty state")
	}

	if _, err := s.UpdateProgress(ref, func(e store.ProgressEntry, _ bool) store.ProgressEntry {
		e.Freshness = 0.9
		e.Log = append(e.Log, "[Concept] Solid on page tables.")
		return e
	}); err != nil {
		t.Fatalf("update progress: %v", err)
	}
	scr.Update(scr.Init()())

	view = scr.View(100, 30)
	if !strings.Contains(view, "Paging") || !strings.Contains(view, "90%") {
		t.Errorf("expected row for Paging at 90%%, got %q", view)
	}

	scr.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
	if !strings.Contains(scr.View(100, 30), "Solid on page tables") {
		t.Error("expected learning log after Enter")
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"Paging", 10, "Paging"},
		{"Virtual memory", 8, "Virtual…"},
		{"Ünïcødé", 4, "Ünï…"},
		{"abc", 1, "…"},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.n); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
		}
	}
}
