package study

import (
	"github.com/abhisek/cheatsheet/internal/quizgen"
	"github.com/abhisek/cheatsheet/internal/tutor"
	"github.com/abhisek/cheatsheet/internal/tutorapp"
)

// quizReadyMsg carries the next decision and, unless the session
// concluded, the quiz it asked for.
type quizReadyMsg struct {
	Quiz     *quizgen.Quiz
	Decision tutor.Decision
	Err      error
}

// answeredMsg is sent once an answer has been graded and recorded.
type answeredMsg struct {
	Outcome tutorapp.AnswerOutcome
	Err     error
}
