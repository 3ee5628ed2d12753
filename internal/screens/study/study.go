// Package study is the interactive quiz loop: decide, ask, grade, repeat
// until the policy concludes.
package study

import (
	"context"
	"errors"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/cheatsheet/internal/quizgen"
	"github.com/abhisek/cheatsheet/internal/router"
	"github.com/abhisek/cheatsheet/internal/screen"
	"github.com/abhisek/cheatsheet/internal/screens/summary"
	"github.com/abhisek/cheatsheet/internal/tutor"
	"github.com/abhisek/cheatsheet/internal/tutorapp"
	"github.com/abhisek/cheatsheet/internal/ui/components"
	"github.com/abhisek/cheatsheet/internal/ui/layout"
)

type phase int

const (
	phaseLoading phase = iota
	phaseQuestion
	phaseGrading
	phaseFeedback
)

// StudyScreen runs one study session.
type StudyScreen struct {
	svc *tutorapp.Service

	phase       phase
	confirmQuit bool
	errMsg      string
	notice      string

	quiz     *quizgen.Quiz
	decision tutor.Decision
	choice   components.Choice
	input    components.TextInput
	outcome  *tutorapp.AnswerOutcome

	result summary.Result
}

var _ screen.Screen = (*StudyScreen)(nil)
var _ screen.KeyHintProvider = (*StudyScreen)(nil)
var _ screen.BackHandler = (*StudyScreen)(nil)

// New creates a study screen over svc.
func New(svc *tutorapp.Service) *StudyScreen {
	return &StudyScreen{svc: svc}
}

// Init redistributes the knowledge map and fetches the first quiz.
func (s *StudyScreen) Init() tea.Cmd {
	svc := s.svc
	return func() tea.Msg {
		if _, err := svc.StartSession(); err != nil {
			return quizReadyMsg{Err: err}
		}
		quiz, d, err := svc.NextQuiz(context.Background())
		return quizReadyMsg{Quiz: quiz, Decision: d, Err: err}
	}
}

func (s *StudyScreen) Title() string {
	return "Study"
}

// HandlesBack keeps Esc inside the session so leaving can be confirmed.
func (s *StudyScreen) HandlesBack() bool {
	return s.errMsg == ""
}

func (s *StudyScreen) KeyHints() []layout.KeyHint {
	switch {
	case s.errMsg != "":
		return []layout.KeyHint{{Key: "any key", Description: "Back"}}
	case s.confirmQuit:
		return []layout.KeyHint{
			{Key: "Y", Description: "End session"},
			{Key: "N", Description: "Keep going"},
		}
	case s.phase == phaseFeedback:
		return []layout.KeyHint{{Key: "any key", Description: "Continue"}}
	case s.phase == phaseQuestion && s.quiz != nil:
		switch s.quiz.Question.Kind() {
		case tutor.QuizMultiChoice:
			return []layout.KeyHint{
				{Key: "1-6/Space", Description: "Toggle"},
				{Key: "Enter", Description: "Submit"},
				{Key: "Esc", Description: "End"},
			}
		case tutor.QuizSingleChoice:
			return []layout.KeyHint{
				{Key: "1-6", Description: "Answer"},
				{Key: "↑↓ Enter", Description: "Select"},
				{Key: "Esc", Description: "End"},
			}
		}
		return []layout.KeyHint{
			{Key: "Enter", Description: "Submit"},
			{Key: "Esc", Description: "End"},
		}
	}
	return []layout.KeyHint{{Key: "Esc", Description: "End"}}
}

func (s *StudyScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case quizReadyMsg:
		return s.handleQuizReady(msg)
	case answeredMsg:
		return s.handleAnswered(msg)
	case tea.KeyMsg:
		return s.handleKey(msg)
	}

	if s.phase == phaseQuestion && s.isShortAnswer() && !s.confirmQuit {
		var cmd tea.Cmd
		s.input, cmd = s.input.Update(msg)
		return s, cmd
	}
	return s, nil
}

func (s *StudyScreen) handleQuizReady(msg quizReadyMsg) (screen.Screen, tea.Cmd) {
	if msg.Err != nil {
		s.errMsg = msg.Err.Error()
		return s, nil
	}
	s.decision = msg.Decision
	if msg.Quiz == nil {
		return s, s.finish()
	}

	s.quiz = msg.Quiz
	s.outcome = nil
	s.phase = phaseQuestion
	switch q := msg.Quiz.Question.(type) {
	case quizgen.SingleChoice:
		s.choice = components.NewChoice(q.Options, false)
	case quizgen.MultiChoice:
		s.choice = components.NewChoice(q.Options, true)
	default:
		s.input = components.NewTextInput("Type your answer...", 1000)
		return s, s.input.Init()
	}
	return s, nil
}

func (s *StudyScreen) handleAnswered(msg answeredMsg) (screen.Screen, tea.Cmd) {
	if errors.Is(msg.Err, quizgen.ErrInvalidAnswer) {
		s.phase = phaseQuestion
		s.notice = msg.Err.Error()
		if !s.isShortAnswer() {
			s.choice = components.NewChoice(s.choice.Options, s.choice.Multi)
		}
		return s, nil
	}
	if msg.Err != nil {
		s.errMsg = msg.Err.Error()
		return s, nil
	}
	out := msg.Outcome
	s.outcome = &out
	s.phase = phaseFeedback
	s.result.Answered++
	s.result.TotalScore += out.Evaluation.Score
	if out.Evaluation.IsCorrect {
		s.result.Correct++
	}
	if !s.result.Touched(s.quiz.Ref) {
		s.result.Refs = append(s.result.Refs, s.quiz.Ref)
	}
	return s, nil
}

func (s *StudyScreen) handleKey(msg tea.KeyMsg) (screen.Screen, tea.Cmd) {
	key := msg.String()

	if s.errMsg != "" {
		return s, func() tea.Msg { return router.PopScreenMsg{} }
	}

	if s.confirmQuit {
		switch key {
		case "y", "Y":
			s.confirmQuit = false
			return s, s.finish()
		case "n", "N", "esc":
			s.confirmQuit = false
		}
		return s, nil
	}

	switch s.phase {
	case phaseLoading, phaseGrading:
		if key == "esc" {
			s.confirmQuit = true
		}
		return s, nil

	case phaseFeedback:
		if s.outcome != nil && s.outcome.NextDecision.Concludes() {
			return s, s.finish()
		}
		s.phase = phaseLoading
		s.quiz = nil
		return s, s.nextQuiz()

	case phaseQuestion:
		if key == "esc" {
			s.confirmQuit = true
			return s, nil
		}
		if s.isShortAnswer() {
			if key == "enter" {
				if answer := s.input.Value(); answer != "" {
					return s, s.submit(answer)
				}
				return s, nil
			}
			var cmd tea.Cmd
			s.input, cmd = s.input.Update(msg)
			return s, cmd
		}
		s.choice, _ = s.choice.Update(msg)
		if s.choice.Submitted {
			return s, s.submit(s.choice.Input())
		}
	}
	return s, nil
}

func (s *StudyScreen) isShortAnswer() bool {
	return s.quiz != nil && s.quiz.Question.Kind() == tutor.QuizShortAnswer
}

// submit grades input asynchronously.
func (s *StudyScreen) submit(input string) tea.Cmd {
	s.phase = phaseGrading
	s.notice = ""
	svc, quiz := s.svc, s.quiz
	return func() tea.Msg {
		out, err := svc.Answer(context.Background(), quiz, input)
		return answeredMsg{Outcome: out, Err: err}
	}
}

func (s *StudyScreen) nextQuiz() tea.Cmd {
	svc := s.svc
	return func() tea.Msg {
		quiz, d, err := svc.NextQuiz(context.Background())
		return quizReadyMsg{Quiz: quiz, Decision: d, Err: err}
	}
}

// finish replaces the session with its summary.
func (s *StudyScreen) finish() tea.Cmd {
	result := s.result
	svc := s.svc
	return func() tea.Msg {
		return router.ReplaceScreenMsg{Screen: summary.New(svc, result)}
	}
}
