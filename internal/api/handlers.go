package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/abhisek/cheatsheet/internal/ingest"
	"github.com/abhisek/cheatsheet/internal/quizgen"
	"github.com/abhisek/cheatsheet/internal/store"
	"github.com/abhisek/cheatsheet/internal/tutor"
	"github.com/abhisek/cheatsheet/internal/tutorapp"
)

const (
	msgNoFile          = "No file provided"
	msgNoFileSelected  = "No file selected"
	msgOnlyPDF         = "Only PDF files are allowed"
	msgCourseRequired  = "Course name is required"
	msgNoConcepts      = "No concepts provided"
	msgNoConceptsFound = "No concepts found"
	msgMissingData     = "Missing required data"
)

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func handleUpload(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, deps.MaxUploadBytes)
		if err := r.ParseMultipartForm(deps.MaxUploadBytes); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				writeError(w, http.StatusRequestEntityTooLarge, "File too large")
				return
			}
			writeError(w, http.StatusBadRequest, msgNoFile)
			return
		}

		file, header, err := r.FormFile("file")
		if err != nil {
			// A part with an empty filename is parsed as a plain value.
			if r.MultipartForm != nil && len(r.MultipartForm.Value["file"]) > 0 {
				writeError(w, http.StatusBadRequest, msgNoFileSelected)
				return
			}
			writeError(w, http.StatusBadRequest, msgNoFile)
			return
		}
		defer file.Close()

		if header.Filename == "" {
			writeError(w, http.StatusBadRequest, msgNoFileSelected)
			return
		}
		if !ingest.IsPDFName(header.Filename) {
			writeError(w, http.StatusBadRequest, msgOnlyPDF)
			return
		}

		data, err := io.ReadAll(file)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}

		ex, err := deps.Service.Extractor.Extract(r.Context(), ingest.Document{Filename: header.Filename, Data: data})
		if errors.Is(err, ingest.ErrNotPDF) {
			writeError(w, http.StatusBadRequest, msgOnlyPDF)
			return
		}
		if err != nil {
			slog.Error("upload extraction failed", "request_id", RequestIDFrom(r.Context()), "file", header.Filename, "error", err)
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, ex)
	}
}

func handleCourses(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		courses, err := deps.Service.Store.Courses()
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "courses": courses})
	}
}

type saveConceptsRequest struct {
	CourseName string             `json:"course_name"`
	Concepts   []ingest.Candidate `json:"concepts"`
}

func handleSaveConcepts(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req saveConceptsRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		req.CourseName = strings.TrimSpace(req.CourseName)
		if req.CourseName == "" {
			writeError(w, http.StatusBadRequest, msgCourseRequired)
			return
		}
		if len(req.Concepts) == 0 {
			writeError(w, http.StatusBadRequest, msgNoConcepts)
			return
		}

		res, err := deps.Service.Saver.Save(req.CourseName, req.Concepts)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, struct {
			Success bool `json:"success"`
			ingest.SaveResult
		}{true, res})
	}
}

type generateQuizzesRequest struct {
	NumQuizzes int `json:"num_quizzes"`
}

func handleGenerateQuizzes(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req generateQuizzesRequest
		if r.ContentLength != 0 && !decodeJSON(w, r, &req) {
			return
		}
		if req.NumQuizzes <= 0 {
			req.NumQuizzes = deps.DefaultQuizCount
		}

		quizzes, err := deps.Service.GenerateQuizzes(r.Context(), req.NumQuizzes)
		if errors.Is(err, tutorapp.ErrNoConcepts) {
			writeError(w, http.StatusNotFound, msgNoConceptsFound)
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if quizzes == nil {
			quizzes = []*quizgen.Quiz{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "quizzes": quizzes, "count": len(quizzes)})
	}
}

type evaluateAnswerRequest struct {
	UserAnswer string          `json:"user_answer"`
	ConceptRef string          `json:"concept_ref"`
	Concept    json.RawMessage `json:"concept,omitempty"`
}

func handleEvaluateAnswer(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req evaluateAnswerRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		if strings.TrimSpace(req.UserAnswer) == "" || req.ConceptRef == "" {
			writeError(w, http.StatusBadRequest, msgMissingData)
			return
		}

		out, err := deps.Service.EvaluateAndDecide(r.Context(), req.UserAnswer, req.ConceptRef)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, struct {
			Success bool `json:"success"`
			tutorapp.EvaluationOutcome
		}{true, out})
	}
}

func handleSystemPrompt(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data, err := deps.Service.Distributor.SystemPrompt()
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "prompt_data": data})
	}
}

func handleProgress(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "progress": deps.Service.Store.LoadProgress()})
	}
}

func handleDistribute(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		dist, err := deps.Service.Distributor.Distribute()
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "distribution": dist})
	}
}

func handleNext(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		quiz, d, err := deps.Service.NextQuiz(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, struct {
			Success  bool           `json:"success"`
			Decision tutor.Decision `json:"decision"`
			Quiz     *quizgen.Quiz  `json:"quiz,omitempty"`
		}{true, d, quiz})
	}
}

type explainRequest struct {
	ConceptRef string `json:"concept_ref"`
}

func handleExplain(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req explainRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		if req.ConceptRef == "" {
			writeError(w, http.StatusBadRequest, msgMissingData)
			return
		}
		ex := deps.Service.Generator.Explain(r.Context(), req.ConceptRef)
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "explanation": ex})
	}
}

func handleSession(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		lc, err := deps.Service.StartSession()
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, struct {
			Success bool `json:"success"`
			tutorapp.LearningContext
		}{true, lc})
	}
}

func handleGetProfile(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := deps.Service.Store.UserProfile()
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "profile": p})
	}
}

func handlePutProfile(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var p store.UserProfile
		if !decodeJSON(w, r, &p) {
			return
		}
		if err := deps.Service.Store.SaveUserProfile(p); err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		saved, err := deps.Service.Store.UserProfile()
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "profile": saved})
	}
}

// decodeJSON reads a bounded JSON body into v, writing a 400 on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodySize)
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("encode response failed", "error", err)
	}
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

