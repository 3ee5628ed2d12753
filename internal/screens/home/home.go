package home

import (
	"context"
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/cheatsheet/internal/router"
	"github.com/abhisek/cheatsheet/internal/screen"
	progressscreen "github.com/abhisek/cheatsheet/internal/screens/progress"
	"github.com/abhisek/cheatsheet/internal/screens/study"
	"github.com/abhisek/cheatsheet/internal/tutorapp"
	"github.com/abhisek/cheatsheet/internal/ui/components"
	"github.com/abhisek/cheatsheet/internal/ui/theme"
)

const title = `┏━╸╻ ╻┏━╸┏━┓╺┳╸┏━┓╻ ╻┏━╸┏━╸╺┳╸
┃  ┣━┫┣╸ ┣━┫ ┃ ┗━┓┣━┫┣╸ ┣╸  ┃
┗━╸╹ ╹┗━╸╹ ╹ ╹ ┗━┛╹ ╹┗━╸┗━╸ ╹ `

// StatsMsg carries freshly computed learner stats. The app model also
// listens for it to update the header.
type StatsMsg struct {
	Stats tutorapp.Stats
	Err   error
}

// HomeScreen is the root menu.
type HomeScreen struct {
	svc   *tutorapp.Service
	menu  components.Menu
	stats tutorapp.Stats
	err   error
}

var _ screen.Screen = (*HomeScreen)(nil)

// New creates the home screen.
func New(svc *tutorapp.Service) *HomeScreen {
	items := []components.MenuItem{
		{Label: "STUDY", Hint: "quiz what is due", Action: func() tea.Cmd {
			return func() tea.Msg { return router.PushScreenMsg{Screen: study.New(svc)} }
		}},
		{Label: "PROGRESS", Hint: "freshness per concept", Action: func() tea.Cmd {
			return func() tea.Msg { return router.PushScreenMsg{Screen: progressscreen.New(svc)} }
		}},
		{Label: "QUIT", Action: func() tea.Cmd { return tea.Quit }},
	}
	return &HomeScreen{svc: svc, menu: components.NewMenu(items)}
}

func (h *HomeScreen) Init() tea.Cmd {
	return LoadStats(h.svc)
}

// Refresh reloads stats when the screen becomes active again.
func (h *HomeScreen) Refresh() tea.Cmd {
	return LoadStats(h.svc)
}

// LoadStats computes learner stats off the UI goroutine.
func LoadStats(svc *tutorapp.Service) tea.Cmd {
	return func() tea.Msg {
		st, err := svc.Stats(context.Background())
		return StatsMsg{Stats: st, Err: err}
	}
}

func (h *HomeScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	if sm, ok := msg.(StatsMsg); ok {
		h.stats, h.err = sm.Stats, sm.Err
		return h, nil
	}
	var cmd tea.Cmd
	h.menu, cmd = h.menu.Update(msg)
	return h, cmd
}

func (h *HomeScreen) View(width, height int) string {
	center := lipgloss.NewStyle().Width(width).Align(lipgloss.Center)

	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(center.Foreground(theme.Primary).Bold(true).Render(title))
	b.WriteString("\n\n")

	if h.err != nil {
		b.WriteString(center.Foreground(theme.Error).Render("Could not load stats: " + h.err.Error()))
	} else {
		b.WriteString(center.Foreground(theme.TextDim).Render(fmt.Sprintf(
			"%d concepts in %d courses   today %d · short-term %d · long-term %d",
			h.stats.Concepts, h.stats.Courses, h.stats.Today, h.stats.ShortTerm, h.stats.LongTerm)))
		if h.stats.Concepts == 0 {
			b.WriteString("\n\n")
			b.WriteString(center.Foreground(theme.Accent).Render("No concepts yet. Run `cheatsheet import <course> <file.pdf>` to add some."))
		}
	}
	b.WriteString("\n\n")

	menu := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(theme.Border).
		Padding(1, 3).
		Render(h.menu.View())
	b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, menu))
	return b.String()
}

func (h *HomeScreen) Title() string {
	return "Home"
}
