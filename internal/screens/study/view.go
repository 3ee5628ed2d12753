package study

import (
	"fmt"
	"image/color"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/cheatsheet/internal/quizgen"
	"github.com/abhisek/cheatsheet/internal/ui/components"
	"github.com/abhisek/cheatsheet/internal/ui/theme"
)

func (s *StudyScreen) View(width, height int) string {
	switch {
	case s.errMsg != "":
		return renderError(width, s.errMsg)
	case s.confirmQuit:
		return renderQuitConfirm(width)
	case s.phase == phaseLoading:
		return renderCentered(width, theme.TextDim, "\n\n\n  Picking what to study next...")
	case s.phase == phaseFeedback:
		return s.renderFeedback(width)
	}
	return s.renderQuestion(width)
}

func (s *StudyScreen) renderQuestion(width int) string {
	q := s.quiz
	if q == nil {
		return ""
	}
	textWidth := min(width-8, 76)

	var b strings.Builder
	b.WriteString(s.renderInfoLine(width))

	prompt := lipgloss.NewStyle().Width(textWidth).Foreground(theme.Text).Bold(true).Render(q.Question.Prompt())
	b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, prompt))
	b.WriteString("\n\n")

	if s.isShortAnswer() {
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, "Answer: "+s.input.View()))
	} else {
		block := s.choice.View(nil)
		if s.choice.Multi {
			block += lipgloss.NewStyle().Foreground(theme.TextDim).Render("\nSelect all that apply")
		}
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center,
			lipgloss.NewStyle().Width(textWidth).Render(block)))
	}

	if s.phase == phaseGrading {
		b.WriteString("\n\n")
		b.WriteString(renderCentered(width, theme.TextDim, "Grading..."))
	}
	if s.notice != "" {
		b.WriteString("\n\n")
		b.WriteString(renderCentered(width, theme.Error, s.notice))
	}
	return b.String()
}

func (s *StudyScreen) renderInfoLine(width int) string {
	left := lipgloss.NewStyle().
		Foreground(theme.Secondary).
		Bold(true).
		Render("  " + s.quiz.Concept.Title)

	reason := s.decision.Reason
	if s.quiz.Fallback {
		reason += " (offline question)"
	}
	right := lipgloss.NewStyle().
		Foreground(theme.TextDim).
		Render(fmt.Sprintf("Q %d  %s %d", s.result.Answered+1,
			lipgloss.NewStyle().Foreground(theme.Success).Render("✓"), s.result.Correct))

	line := left
	if pad := width - lipgloss.Width(left) - lipgloss.Width(right) - 4; pad > 0 {
		line += strings.Repeat(" ", pad) + right
	}

	var b strings.Builder
	b.WriteString(line)
	b.WriteString("\n")
	b.WriteString(lipgloss.NewStyle().Foreground(theme.TextDim).Italic(true).Render("  " + reason))
	b.WriteString("\n")
	b.WriteString(lipgloss.NewStyle().Foreground(theme.Border).Render(strings.Repeat("─", max(width-4, 0))))
	b.WriteString("\n\n")
	return b.String()
}

func (s *StudyScreen) renderFeedback(width int) string {
	out := s.outcome
	textWidth := min(width-8, 76)
	block := lipgloss.NewStyle().Width(textWidth)

	var b strings.Builder
	b.WriteString("\n")

	verdict := lipgloss.NewStyle().Foreground(theme.Error).Bold(true).Render(fmt.Sprintf("Not quite  (%d/100)", out.Evaluation.Score))
	if out.Evaluation.IsCorrect {
		verdict = lipgloss.NewStyle().Foreground(theme.Success).Bold(true).Render(fmt.Sprintf("Correct!  (%d/100)", out.Evaluation.Score))
	}
	b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, verdict))
	b.WriteString("\n\n")

	if s.quiz != nil {
		var detail string
		switch q := s.quiz.Question.(type) {
		case quizgen.SingleChoice, quizgen.MultiChoice:
			detail = s.choice.View(correctOptions(q))
		case quizgen.ShortAnswer:
			detail = lipgloss.NewStyle().Foreground(theme.TextDim).Render("Expected: ") + q.ExpectedAnswer
		}
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, block.Render(detail)))
		b.WriteString("\n")
	}

	if out.Feedback != "" {
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center,
			block.Foreground(theme.Text).Render(out.Feedback)))
		b.WriteString("\n\n")
	}
	if out.Evaluation.Feedback != "" {
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center,
			block.Foreground(theme.TextDim).Render(out.Evaluation.Feedback)))
		b.WriteString("\n\n")
	}

	if out.Progress != nil {
		bar := components.NewFreshnessBar(out.Progress.Freshness, s.svc.Policy.RemediationThreshold, textWidth)
		bar.Label = "Freshness"
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, bar.View()))
		b.WriteString("\n\n")
	}

	next := "Next: " + out.NextDecision.Reason
	b.WriteString(renderCentered(width, theme.Accent, next))
	b.WriteString("\n\n")
	b.WriteString(renderCentered(width, theme.TextDim, "Press any key to continue..."))
	return b.String()
}

// correctOptions returns the right option indices of a choice question.
func correctOptions(q quizgen.Question) map[int]bool {
	out := map[int]bool{}
	switch v := q.(type) {
	case quizgen.SingleChoice:
		out[v.Answer] = true
	case quizgen.MultiChoice:
		for _, i := range v.Answers {
			out[i] = true
		}
	}
	return out
}

func renderQuitConfirm(width int) string {
	var b strings.Builder
	b.WriteString("\n\n\n")
	b.WriteString(lipgloss.NewStyle().Width(width).Align(lipgloss.Center).Foreground(theme.Text).Bold(true).
		Render("End session now?"))
	b.WriteString("\n")
	b.WriteString(renderCentered(width, theme.TextDim, "Answers so far are already saved."))
	b.WriteString("\n\n")
	b.WriteString(renderCentered(width, theme.Success, "[Y] Yes, show summary"))
	b.WriteString("\n")
	b.WriteString(renderCentered(width, theme.Primary, "[N] No, keep going"))
	return b.String()
}

func renderError(width int, msg string) string {
	return renderCentered(width, theme.Error, fmt.Sprintf("\n\n\n  Error: %s\n\n  Press any key to go back.", msg))
}

func renderCentered(width int, fg color.Color, text string) string {
	return lipgloss.NewStyle().Width(width).Align(lipgloss.Center).Foreground(fg).Render(text)
}
