package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/abhisek/cheatsheet/internal/llm"
	"github.com/abhisek/cheatsheet/internal/progress"
	"github.com/abhisek/cheatsheet/internal/quizgen"
	"github.com/abhisek/cheatsheet/internal/store"
	"github.com/abhisek/cheatsheet/internal/tutorapp"
)

const extractedConcepts = `[{"title": "Paging", "content": "Memory is split into fixed-size pages."}, {"title": "Swapping", "content": "Pages move between RAM and disk."}]`

func respond(req llm.Request) llm.MockResponse {
	switch req.Schema {
	case progress.EvaluationSchema:
		return llm.MockText(`{"score": 90, "is_correct": true, "feedback": "graded"}`)
	case quizgen.SingleChoiceSchema:
		return llm.MockText(`{"question": "Pick one", "options": ["right", "wrong"], "correct_answer": 0}`)
	case quizgen.MultiChoiceSchema:
		return llm.MockText(`{"question": "Pick some", "options": ["a", "b", "c"], "correct_answer": [0, 2]}`)
	case quizgen.ShortAnswerSchema:
		return llm.MockText(`{"question": "Explain", "expected_answer": "an explanation"}`)
	}
	if len(req.Messages) > 0 && len(req.Messages[0].Attachments) > 0 {
		return llm.MockText("```json\n" + extractedConcepts + "\n```")
	}
	return llm.MockText("[Concept] Learner is getting there.")
}

func newTestService(t *testing.T, titles ...string) (*tutorapp.Service, []string) {
	t.Helper()
	s, err := store.Open(t.TempDir())
	require.NoError(t, err)

	ts := time.Now().UTC().Format(time.RFC3339)
	var refs []string
	for _, title := range titles {
		c, ok, err := s.CreateConcept("Operating Systems", title, []string{title + " in brief."}, ts)
		require.NoError(t, err)
		require.True(t, ok)
		refs = append(refs, store.FormatRef("Operating Systems", c.ID))
	}

	mock := llm.NewMockProvider()
	mock.Respond = respond
	return tutorapp.New(tutorapp.Options{Store: s, Provider: mock}), refs
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}
