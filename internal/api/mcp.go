package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/abhisek/cheatsheet/internal/ingest"
	"github.com/abhisek/cheatsheet/internal/progress"
	"github.com/abhisek/cheatsheet/internal/store"
	"github.com/abhisek/cheatsheet/internal/tutor"
	"github.com/abhisek/cheatsheet/internal/tutorapp"
)

// NewMCPServer registers the tutoring and concept-store tools.
func NewMCPServer(svc *tutorapp.Service, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"cheatsheet",
		version,
		server.WithToolCapabilities(true),
		server.WithInstructions("cheatsheet: spaced-repetition tutor over your course concepts. Call decideNext, then generate the question it names, then evaluateAnswer and updateFreshnessAndLog."),
		server.WithRecovery(),
	)

	conceptID := mcp.WithString("concept_id", mcp.Description("Concept reference, COURSES/<course>/<id>"), mcp.Required())

	s.AddTool(mcp.NewTool("distributeData",
		mcp.WithDescription("Rebuild the knowledge distribution (TODAY, SHORT_TERM, LONG_TERM) from concept ages."),
	), mcpDistribute(svc))

	s.AddTool(mcp.NewTool("databaseSearch",
		mcp.WithDescription("Return the concept references to study: TODAY and SHORT_TERM, or every concept when both are empty."),
		mcp.WithString("input_prompt", mcp.Description("The learner's intent (currently informational)")),
	), mcpSearch(svc))

	s.AddTool(mcp.NewTool("getCurProgress",
		mcp.WithDescription("Return the progress document: freshness and learning log per concept."),
	), mcpProgress(svc))

	s.AddTool(mcp.NewTool("getSystemPrompt",
		mcp.WithDescription("Return the resolved distribution and user profile for seeding a tutoring conversation."),
	), mcpSystemPrompt(svc))

	s.AddTool(mcp.NewTool("evaluateAnswer",
		mcp.WithDescription("Grade a learner answer against a concept. Returns score, is_correct and feedback."),
		mcp.WithString("user_answer", mcp.Description("The learner's answer"), mcp.Required()),
		mcp.WithString("correct_answer", mcp.Description("Optional expected answer (unused; the concept is the reference)")),
		conceptID,
	), mcpEvaluate(svc))

	s.AddTool(mcp.NewTool("updateFreshnessAndLog",
		mcp.WithDescription("Fold an evaluation into the concept's freshness and append a learning-log line."),
		conceptID,
		mcp.WithNumber("score", mcp.Description("Score from 0 to 100"), mcp.Required()),
		mcp.WithBoolean("is_correct", mcp.Description("Whether the answer was correct")),
		mcp.WithString("feedback", mcp.Description("Evaluator feedback")),
	), mcpUpdateFreshness(svc))

	s.AddTool(mcp.NewTool("decideNext",
		mcp.WithDescription("Decide the next tutoring step from the current progress and distribution."),
	), mcpDecideNext(svc))

	s.AddTool(mcp.NewTool("generateExplaination",
		mcp.WithDescription("Produce a recap of a concept."),
		conceptID,
	), mcpExplain(svc))

	for _, qt := range []tutor.QuizType{tutor.QuizSingleChoice, tutor.QuizMultiChoice, tutor.QuizShortAnswer} {
		s.AddTool(mcp.NewTool(string(tutor.ActionFor(qt)),
			mcp.WithDescription(fmt.Sprintf("Create a %s question for a concept.", qt)),
			conceptID,
		), mcpGenerateQuiz(svc, qt))
	}

	s.AddTool(mcp.NewTool("getCourses",
		mcp.WithDescription("List course names in insertion order."),
	), mcpCourses(svc))

	s.AddTool(mcp.NewTool("addConcept",
		mcp.WithDescription("Add a concept to a course. Duplicate titles are rejected."),
		mcp.WithString("course_name", mcp.Description("Course name"), mcp.Required()),
		mcp.WithString("title", mcp.Description("Concept title"), mcp.Required()),
		mcp.WithString("content", mcp.Description("One to three sentences describing the concept"), mcp.Required()),
		mcp.WithString("timestamp", mcp.Description("ISO-8601 creation time; defaults to now")),
	), mcpAddConcept(svc))

	s.AddTool(mcp.NewTool("getConcept",
		mcp.WithDescription("Resolve a concept reference."),
		conceptID,
	), mcpGetConcept(svc))

	s.AddTool(mcp.NewTool("generateConceptId",
		mcp.WithDescription("Return the next free concept ID for a course and timestamp."),
		mcp.WithString("course_name", mcp.Description("Course name"), mcp.Required()),
		mcp.WithString("timestamp", mcp.Description("ISO-8601 timestamp"), mcp.Required()),
	), mcpGenerateConceptID(svc))

	s.AddTool(mcp.NewTool("checkDuplicate",
		mcp.WithDescription("Report whether a course already has a concept with this title (case-insensitive)."),
		mcp.WithString("course_name", mcp.Description("Course name"), mcp.Required()),
		mcp.WithString("title", mcp.Description("Concept title"), mcp.Required()),
	), mcpCheckDuplicate(svc))

	return s
}

// ServeMCP runs s over stdio until ctx is cancelled or in closes.
func ServeMCP(ctx context.Context, s *server.MCPServer, in io.Reader, out io.Writer) error {
	err := server.NewStdioServer(s).Listen(ctx, in, out)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func mcpDistribute(svc *tutorapp.Service) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		dist, err := svc.Distributor.Distribute()
		if err != nil {
			return mcpError(fmt.Sprintf("distribute failed: %v", err)), nil
		}
		return mcpJSON(dist)
	}
}

func mcpSearch(svc *tutorapp.Service) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		refs, err := svc.Distributor.Search()
		if err != nil {
			return mcpError(fmt.Sprintf("search failed: %v", err)), nil
		}
		if refs == nil {
			refs = []string{}
		}
		return mcpJSON(refs)
	}
}

func mcpProgress(svc *tutorapp.Service) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return mcpJSON(svc.Store.LoadProgress())
	}
}

func mcpSystemPrompt(svc *tutorapp.Service) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		data, err := svc.Distributor.SystemPrompt()
		if err != nil {
			return mcpError(fmt.Sprintf("system prompt failed: %v", err)), nil
		}
		return mcpJSON(data)
	}
}

func mcpEvaluate(svc *tutorapp.Service) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		answer, err := req.RequireString("user_answer")
		if err != nil {
			return mcpError("user_answer is required"), nil
		}
		ref, err := req.RequireString("concept_id")
		if err != nil {
			return mcpError("concept_id is required"), nil
		}
		return mcpJSON(svc.Evaluator.Evaluate(ctx, answer, ref))
	}
}

func mcpUpdateFreshness(svc *tutorapp.Service) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		ref, err := req.RequireString("concept_id")
		if err != nil {
			return mcpError("concept_id is required"), nil
		}
		score, err := req.RequireFloat("score")
		if err != nil {
			return mcpError("score is required"), nil
		}

		result := progress.Result{
			Score:     int(score + 0.5),
			IsCorrect: req.GetBool("is_correct", false),
			Feedback:  req.GetString("feedback", ""),
		}
		entry, err := svc.Recorder.UpdateFreshnessAndLog(ctx, ref, result)
		if errors.Is(err, store.ErrNotFound) {
			return mcpError(fmt.Sprintf("concept %s not found", ref)), nil
		}
		if err != nil {
			return mcpError(fmt.Sprintf("update failed: %v", err)), nil
		}
		return mcpJSON(entry)
	}
}

func mcpDecideNext(svc *tutorapp.Service) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		d, err := svc.Decide()
		if err != nil {
			return mcpError(fmt.Sprintf("decide failed: %v", err)), nil
		}
		return mcpJSON(d)
	}
}

func mcpExplain(svc *tutorapp.Service) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		ref, err := req.RequireString("concept_id")
		if err != nil {
			return mcpError("concept_id is required"), nil
		}
		return mcpJSON(svc.Generator.Explain(ctx, ref))
	}
}

func mcpGenerateQuiz(svc *tutorapp.Service, qt tutor.QuizType) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		ref, err := req.RequireString("concept_id")
		if err != nil {
			return mcpError("concept_id is required"), nil
		}
		quiz, err := svc.Generator.Generate(ctx, ref, qt)
		if errors.Is(err, store.ErrNotFound) {
			return mcpError(fmt.Sprintf("concept %s not found", ref)), nil
		}
		if err != nil {
			return mcpError(fmt.Sprintf("quiz generation failed: %v", err)), nil
		}
		return mcpJSON(quiz)
	}
}

func mcpCourses(svc *tutorapp.Service) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		courses, err := svc.Store.Courses()
		if err != nil {
			return mcpError(fmt.Sprintf("list courses failed: %v", err)), nil
		}
		return mcpJSON(courses)
	}
}

func mcpAddConcept(svc *tutorapp.Service) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		course, err := req.RequireString("course_name")
		if err != nil {
			return mcpError("course_name is required"), nil
		}
		title, err := req.RequireString("title")
		if err != nil {
			return mcpError("title is required"), nil
		}
		content, err := req.RequireString("content")
		if err != nil {
			return mcpError("content is required"), nil
		}
		timestamp := req.GetString("timestamp", time.Now().UTC().Format(ingest.TimestampLayout))

		c, added, err := svc.Store.CreateConcept(course, title, []string{content}, timestamp)
		if err != nil {
			return mcpError(fmt.Sprintf("add concept failed: %v", err)), nil
		}
		out := map[string]any{"added": added}
		if added {
			out["concept_id"] = store.FormatRef(course, c.ID)
			if _, err := svc.Distributor.Distribute(); err != nil {
				return mcpError(fmt.Sprintf("concept added but distribute failed: %v", err)), nil
			}
		}
		return mcpJSON(out)
	}
}

func mcpGetConcept(svc *tutorapp.Service) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		ref, err := req.RequireString("concept_id")
		if err != nil {
			return mcpError("concept_id is required"), nil
		}
		c, ok, err := svc.Store.GetConcept(ref)
		if err != nil {
			return mcpError(fmt.Sprintf("get concept failed: %v", err)), nil
		}
		if !ok {
			return mcpText("null"), nil
		}
		return mcpJSON(c)
	}
}

func mcpGenerateConceptID(svc *tutorapp.Service) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		course, err := req.RequireString("course_name")
		if err != nil {
			return mcpError("course_name is required"), nil
		}
		timestamp, err := req.RequireString("timestamp")
		if err != nil {
			return mcpError("timestamp is required"), nil
		}
		id, err := svc.Store.GenerateConceptID(course, timestamp)
		if err != nil {
			return mcpError(fmt.Sprintf("generate id failed: %v", err)), nil
		}
		return mcpText(id), nil
	}
}

func mcpCheckDuplicate(svc *tutorapp.Service) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		course, err := req.RequireString("course_name")
		if err != nil {
			return mcpError("course_name is required"), nil
		}
		title, err := req.RequireString("title")
		if err != nil {
			return mcpError("title is required"), nil
		}
		dup, err := svc.Store.CheckDuplicate(course, title)
		if err != nil {
			return mcpError(fmt.Sprintf("check duplicate failed: %v", err)), nil
		}
		return mcpJSON(dup)
	}
}

func mcpJSON(v any) (*mcp.CallToolResult, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return mcpError(fmt.Sprintf("failed to marshal result: %v", err)), nil
	}
	return mcpText(string(b)), nil
}

func mcpText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

func mcpError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}
