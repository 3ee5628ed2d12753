package summary

import (
	"context"
	"fmt"
	"slices"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/cheatsheet/internal/quizgen"
	"github.com/abhisek/cheatsheet/internal/router"
	"github.com/abhisek/cheatsheet/internal/screen"
	"github.com/abhisek/cheatsheet/internal/tutorapp"
	"github.com/abhisek/cheatsheet/internal/ui/layout"
	"github.com/abhisek/cheatsheet/internal/ui/theme"
)

// Result is the tally of one study session.
type Result struct {
	Answered   int
	Correct    int
	TotalScore int

	// Refs lists the concepts quizzed, in first-seen order.
	Refs []string
}

// Touched reports whether ref was quizzed in the session.
func (r Result) Touched(ref string) bool {
	return slices.Contains(r.Refs, ref)
}

// AvgScore returns the mean score, or 0 before any answer.
func (r Result) AvgScore() float64 {
	if r.Answered == 0 {
		return 0
	}
	return float64(r.TotalScore) / float64(r.Answered)
}

type explanationsMsg struct {
	Explanations []quizgen.Explanation
	Err          error
}

// SummaryScreen shows the session tally and a recap of every active
// concept.
type SummaryScreen struct {
	svc          *tutorapp.Service
	result       Result
	explanations []quizgen.Explanation
	loaded       bool
	err          error
	offset       int
}

var _ screen.Screen = (*SummaryScreen)(nil)
var _ screen.KeyHintProvider = (*SummaryScreen)(nil)

// New creates a SummaryScreen. svc may be nil, in which case no recap is
// loaded.
func New(svc *tutorapp.Service, result Result) *SummaryScreen {
	return &SummaryScreen{svc: svc, result: result, loaded: svc == nil}
}

func (s *SummaryScreen) Init() tea.Cmd {
	if s.svc == nil {
		return nil
	}
	svc := s.svc
	return func() tea.Msg {
		ex, err := svc.Summary(context.Background())
		return explanationsMsg{Explanations: ex, Err: err}
	}
}

func (s *SummaryScreen) Title() string {
	return "Session Summary"
}

func (s *SummaryScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "↑↓", Description: "Scroll"},
		{Key: "Enter", Description: "Home"},
		{Key: "Esc", Description: "Home"},
	}
}

func (s *SummaryScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case explanationsMsg:
		s.explanations, s.err, s.loaded = msg.Explanations, msg.Err, true
	case tea.KeyMsg:
		switch msg.String() {
		case "enter", "esc":
			return s, func() tea.Msg { return router.PopToRootMsg{} }
		case "up", "k":
			if s.offset > 0 {
				s.offset--
			}
		case "down", "j":
			if s.offset < len(s.explanations)-1 {
				s.offset++
			}
		}
	}
	return s, nil
}

func (s *SummaryScreen) View(width, height int) string {
	center := lipgloss.NewStyle().Width(width).Align(lipgloss.Center)
	textWidth := min(width-8, 76)

	var b strings.Builder
	b.WriteString(center.Foreground(theme.Primary).Bold(true).Render("Session complete!"))
	b.WriteString("\n\n")

	r := s.result
	if r.Answered == 0 {
		b.WriteString(center.Foreground(theme.TextDim).Render("No questions answered this time."))
	} else {
		b.WriteString(center.Foreground(theme.Text).Render(fmt.Sprintf(
			"Answered: %d        Correct: %d        Avg score: %.0f        Concepts: %d",
			r.Answered, r.Correct, r.AvgScore(), len(r.Refs))))
	}
	b.WriteString("\n\n")

	divider := lipgloss.NewStyle().Foreground(theme.Border).Render(strings.Repeat("─", max(textWidth, 0)))
	b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center,
		lipgloss.NewStyle().Foreground(theme.TextDim).Render("Recap")))
	b.WriteString("\n")
	b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, divider))
	b.WriteString("\n\n")

	switch {
	case !s.loaded:
		b.WriteString(center.Foreground(theme.TextDim).Render("Writing your recap..."))
		return b.String()
	case s.err != nil:
		b.WriteString(center.Foreground(theme.Error).Render("Could not build recap: " + s.err.Error()))
		return b.String()
	case len(s.explanations) == 0:
		b.WriteString(center.Foreground(theme.TextDim).Render("Nothing to recap."))
		return b.String()
	}

	used := lipgloss.Height(b.String())
	for i, ex := range s.explanations[s.offset:] {
		titleStyle := lipgloss.NewStyle().Foreground(theme.Secondary).Bold(true)
		if s.result.Touched(ex.Ref) {
			titleStyle = titleStyle.Foreground(theme.Success)
		}
		entry := titleStyle.Render(ex.Title) + "\n" +
			lipgloss.NewStyle().Width(textWidth).Foreground(theme.Text).Render(ex.Explanation)
		h := lipgloss.Height(entry) + 1
		if i > 0 && used+h > height {
			break
		}
		used += h
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, lipgloss.NewStyle().Width(textWidth).Render(entry)))
		b.WriteString("\n\n")
	}
	return b.String()
}
