// Package progress lists every evaluated concept with its freshness and
// learning log.
package progress

import (
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/cheatsheet/internal/screen"
	"github.com/abhisek/cheatsheet/internal/store"
	"github.com/abhisek/cheatsheet/internal/tutorapp"
	"github.com/abhisek/cheatsheet/internal/ui/components"
	"github.com/abhisek/cheatsheet/internal/ui/layout"
	"github.com/abhisek/cheatsheet/internal/ui/theme"
)

// Row is one evaluated concept.
type Row struct {
	Ref    string
	Course string
	Title  string
	Entry  store.ProgressEntry
}

type rowsLoadedMsg struct {
	Rows []Row
	Err  error
}

// ProgressScreen shows progress in evaluation order.
type ProgressScreen struct {
	svc       *tutorapp.Service
	threshold float64
	rows      []Row
	selected  int
	expanded  bool
	loaded    bool
	errMsg    string
}

var _ screen.Screen = (*ProgressScreen)(nil)
var _ screen.KeyHintProvider = (*ProgressScreen)(nil)

// New creates a ProgressScreen.
func New(svc *tutorapp.Service) *ProgressScreen {
	return &ProgressScreen{svc: svc, threshold: svc.Policy.RemediationThreshold}
}

func (s *ProgressScreen) Init() tea.Cmd {
	svc := s.svc
	return func() tea.Msg {
		rows, err := LoadRows(svc.Store)
		return rowsLoadedMsg{Rows: rows, Err: err}
	}
}

// LoadRows joins the progress document with concept titles. Entries whose
// concept was removed keep their reference as title.
func LoadRows(s *store.Store) ([]Row, error) {
	prog := s.LoadProgress()
	rows := make([]Row, 0, prog.Len())
	for _, ref := range prog.Refs() {
		entry, _ := prog.Get(ref)
		row := Row{Ref: ref, Title: ref, Entry: entry}
		course, _, _ := store.ParseRef(ref)
		row.Course = course
		c, ok, err := s.GetConcept(ref)
		if err != nil {
			return nil, err
		}
		if ok {
			row.Title = c.Title
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (s *ProgressScreen) Title() string {
	return "Progress"
}

func (s *ProgressScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "↑↓", Description: "Navigate"},
		{Key: "Enter", Description: "Learning log"},
		{Key: "Esc", Description: "Back"},
	}
}

func (s *ProgressScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case rowsLoadedMsg:
		s.loaded = true
		if msg.Err != nil {
			s.errMsg = msg.Err.Error()
			return s, nil
		}
		s.rows = msg.Rows
	case tea.KeyMsg:
		switch msg.String() {
		case "up", "k":
			if s.selected > 0 {
				s.selected--
			}
		case "down", "j":
			if s.selected < len(s.rows)-1 {
				s.selected++
			}
		case "enter":
			s.expanded = !s.expanded
		}
	}
	return s, nil
}

func (s *ProgressScreen) View(width, height int) string {
	center := lipgloss.NewStyle().Width(width).Align(lipgloss.Center)
	switch {
	case !s.loaded:
		return center.Foreground(theme.TextDim).Render("\n\nLoading progress...")
	case s.errMsg != "":
		return center.Foreground(theme.Error).Render("\n\nError: " + s.errMsg)
	case len(s.rows) == 0:
		return center.Foreground(theme.TextDim).Render("\n\nNothing evaluated yet. Start a study session first.")
	}

	listWidth := min(width-6, 90)
	titleWidth := listWidth / 3
	barWidth := listWidth - titleWidth - 12

	var b strings.Builder
	b.WriteString("\n")
	used := 1
	start := max(0, s.selected-(height-4)/2)
	for i := start; i < len(s.rows); i++ {
		if used >= height-2 {
			break
		}
		row := s.rows[i]
		prefix := "  "
		style := lipgloss.NewStyle().Foreground(theme.Text)
		if i == s.selected {
			prefix = "▸ "
			style = style.Foreground(theme.Primary).Bold(true)
		}
		title := truncate(row.Title, titleWidth-2)
		bar := components.NewFreshnessBar(row.Entry.Freshness, s.threshold, barWidth)
		line := style.Render(fmt.Sprintf("%s%-*s", prefix, titleWidth, title)) + bar.View() +
			lipgloss.NewStyle().Foreground(theme.TextDim).Render(fmt.Sprintf("  ×%d", row.Entry.Attempts()))
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, line))
		b.WriteString("\n")
		used++

		if i == s.selected && s.expanded {
			log := s.renderLog(row, listWidth-4)
			b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, log))
			b.WriteString("\n")
			used += lipgloss.Height(log)
		}
	}
	return b.String()
}

func (s *ProgressScreen) renderLog(row Row, width int) string {
	dim := lipgloss.NewStyle().Foreground(theme.TextDim)
	var b strings.Builder
	b.WriteString(dim.Render(row.Course + " · " + row.Ref))
	if len(row.Entry.Log) == 0 {
		b.WriteString("\n" + dim.Render("(no log entries)"))
	}
	for i, line := range row.Entry.Log {
		b.WriteString("\n")
		b.WriteString(lipgloss.NewStyle().Width(width).Foreground(theme.Text).
			Render(fmt.Sprintf("%d. %s", i+1, line)))
	}
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(theme.Border).
		Padding(0, 1).
		Render(b.String())
}

func truncate(s string, n int) string {
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	if n == 1 {
		return "…"
	}
	return string(r[:n-1]) + "…"
}
