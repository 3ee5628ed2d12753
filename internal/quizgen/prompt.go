package quizgen

import (
	"bytes"
	"text/template"

	"github.com/abhisek/cheatsheet/internal/store"
	"github.com/abhisek/cheatsheet/internal/tutor"
)

const systemPrompt = "You are an educational quiz generator. Create high-quality assessment questions."

const explainSystemPrompt = "You are a patient tutor who explains concepts clearly and concisely."

type promptData struct {
	Title   string
	Content string
}

var singleChoiceTemplate = template.Must(template.New("single-choice").Parse(`Create a single-choice quiz question for this concept:

Title: {{.Title}}
Content: {{.Content}}

Generate a JSON response with:
{
    "question": "<question text>",
    "options": ["<option A>", "<option B>", "<option C>", "<option D>"],
    "correct_answer": <index 0-3>
}

Make sure one option is clearly correct and others are plausible but incorrect.`))

var multiChoiceTemplate = template.Must(template.New("multi-choice").Parse(`Create a multiple-choice quiz question for this concept:

Title: {{.Title}}
Content: {{.Content}}

Generate a JSON response with:
{
    "question": "<question text>",
    "options": ["<option A>", "<option B>", "<option C>", "<option D>"],
    "correct_answer": [<indices of correct options>]
}

Make sure 2-3 options are correct and others are incorrect.`))

var shortAnswerTemplate = template.Must(template.New("short-answer").Parse(`Create a short-answer quiz question for this concept:

Title: {{.Title}}
Content: {{.Content}}

Generate a JSON response with:
{
    "question": "<question text>",
    "expected_answer": "<expected answer>"
}

The question should test deep understanding.`))

var explainTemplate = template.Must(template.New("explain").Parse(`Write a short recap (3-5 sentences) of this concept for a student reviewing it.

Title: {{.Title}}
Content: {{.Description}}

Explain the core idea in plain language and give one concrete example. Reply with the recap text only.`))

func buildQuizPrompt(c store.Concept, kind tutor.QuizType) (string, error) {
	t := singleChoiceTemplate
	switch kind {
	case tutor.QuizMultiChoice:
		t = multiChoiceTemplate
	case tutor.QuizShortAnswer:
		t = shortAnswerTemplate
	}
	return render(t, promptData{Title: c.Title, Content: c.Description()})
}

func render(t *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
