package app

import (
	"testing"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/cheatsheet/internal/llm"
	"github.com/abhisek/cheatsheet/internal/router"
	"github.com/abhisek/cheatsheet/internal/screen"
	"github.com/abhisek/cheatsheet/internal/screens/home"
	"github.com/abhisek/cheatsheet/internal/store"
	"github.com/abhisek/cheatsheet/internal/tutorapp"
	"github.com/abhisek/cheatsheet/internal/ui/layout"
)

type stubScreen struct {
	back bool
}

func (s *stubScreen) Init() tea.Cmd                           { return nil }
func (s *stubScreen) Update(tea.Msg) (screen.Screen, tea.Cmd) { return s, nil }
func (s *stubScreen) View(int, int) string                    { return "stub" }
func (s *stubScreen) Title() string                           { return "Stub" }
func (s *stubScreen) HandlesBack() bool                       { return s.back }

func newTestService(t *testing.T) *tutorapp.Service {
	t.Helper()
	s, err := store.Open(t.TempDir())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	return tutorapp.New(tutorapp.Options{Store: s, Provider: llm.NewMockProvider()})
}

func TestEscPopsUnlessScreenHandlesBack(t *testing.T) {
	svc := newTestService(t)

	m := newAppModel(Options{Service: svc, Initial: func(*tutorapp.Service) screen.Screen {
		return &stubScreen{back: false}
	}})
	_, cmd := m.Update(tea.KeyPressMsg{Code: tea.KeyEscape})
	if cmd == nil {
		t.Fatal("expected pop command")
	}
	if _, ok := cmd().(router.PopScreenMsg); !ok {
		t.Error("expected PopScreenMsg")
	}

	m = newAppModel(Options{Service: svc, Initial: func(*tutorapp.Service) screen.Screen {
		return &stubScreen{back: true}
	}})
	_, cmd = m.Update(tea.KeyPressMsg{Code: tea.KeyEscape})
	if cmd != nil {
		if _, ok := cmd().(router.PopScreenMsg); ok {
			t.Error("screen handling back must not be popped")
		}
	}
}

func TestStatsUpdateHeader(t *testing.T) {
	m := newAppModel(Options{Service: newTestService(t)})

	updated, _ := m.Update(home.StatsMsg{Stats: tutorapp.Stats{Concepts: 4, Due: 2, AvgFreshness: 0.5}})
	got := updated.(AppModel).stats
	want := layout.HeaderStats{Concepts: 4, Due: 2, AvgFreshness: 0.5}
	if got != want {
		t.Errorf("header stats = %+v, want %+v", got, want)
	}
}

func TestView(t *testing.T) {
	m := newAppModel(Options{Service: newTestService(t)})
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	am := updated.(AppModel)
	if am.width != 100 || am.height != 30 {
		t.Fatalf("size = %dx%d, want 100x30", am.width, am.height)
	}
	_ = am.View()
}
