package api

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/abhisek/cheatsheet/internal/store"
	"github.com/abhisek/cheatsheet/internal/tutor"
)

func makeCallToolRequest(name string, args map[string]interface{}) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	}
}

func toolText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if len(result.Content) == 0 {
		t.Fatal("no content in result")
	}
	tc, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("expected TextContent, got %T", result.Content[0])
	}
	return tc.Text
}

func callTool(t *testing.T, handler server.ToolHandlerFunc, name string, args map[string]interface{}) string {
	t.Helper()
	result, err := handler(context.Background(), makeCallToolRequest(name, args))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected tool error: %s", toolText(t, result))
	}
	return toolText(t, result)
}

func TestNewMCPServer_RegistersTools(t *testing.T) {
	svc, _ := newTestService(t)
	s := NewMCPServer(svc, "test")

	want := []string{
		"distributeData", "databaseSearch", "getCurProgress", "getSystemPrompt",
		"evaluateAnswer", "updateFreshnessAndLog", "decideNext", "generateExplaination",
		"generateQue_singleChoice", "generateQue_multiChoice", "generateQue_shortAnswer",
		"getCourses", "addConcept", "getConcept", "generateConceptId", "checkDuplicate",
	}
	tools := s.ListTools()
	if len(tools) != len(want) {
		t.Fatalf("expected %d tools, got %d", len(want), len(tools))
	}
	for _, name := range want {
		if _, ok := tools[name]; !ok {
			t.Errorf("tool %q not registered", name)
		}
	}
}

func TestMCPTool_StudyLoop(t *testing.T) {
	svc, refs := newTestService(t, "Paging", "Swapping")

	text := callTool(t, mcpDistribute(svc), "distributeData", nil)
	var dist store.Distribution
	if err := json.Unmarshal([]byte(text), &dist); err != nil {
		t.Fatalf("failed to parse distribution: %v", err)
	}
	if len(dist.Today) != 2 {
		t.Fatalf("expected 2 concepts in TODAY, got %v", dist.Today)
	}

	text = callTool(t, mcpSearch(svc), "databaseSearch", map[string]interface{}{"input_prompt": "study"})
	var active []string
	if err := json.Unmarshal([]byte(text), &active); err != nil {
		t.Fatalf("failed to parse search result: %v", err)
	}
	if len(active) != 2 || active[0] != refs[0] {
		t.Fatalf("unexpected search result: %v", active)
	}

	text = callTool(t, mcpDecideNext(svc), "decideNext", nil)
	var d tutor.Decision
	if err := json.Unmarshal([]byte(text), &d); err != nil {
		t.Fatalf("failed to parse decision: %v", err)
	}
	if d.Decision != tutor.ActionSingleChoice || d.Target() != refs[0] {
		t.Fatalf("unexpected decision: %+v", d)
	}

	text = callTool(t, mcpGenerateQuiz(svc, d.QuizType()), string(d.Decision), map[string]interface{}{"concept_id": d.Target()})
	if !strings.Contains(text, `"type":"single_choice"`) {
		t.Fatalf("expected single choice quiz, got: %s", text)
	}

	text = callTool(t, mcpEvaluate(svc), "evaluateAnswer", map[string]interface{}{
		"user_answer": "fixed-size pages",
		"concept_id":  refs[0],
	})
	var eval struct {
		Score     int    `json:"score"`
		IsCorrect bool   `json:"is_correct"`
		Feedback  string `json:"feedback"`
	}
	if err := json.Unmarshal([]byte(text), &eval); err != nil {
		t.Fatalf("failed to parse evaluation: %v", err)
	}
	if eval.Score != 90 || !eval.IsCorrect {
		t.Fatalf("unexpected evaluation: %+v", eval)
	}

	text = callTool(t, mcpUpdateFreshness(svc), "updateFreshnessAndLog", map[string]interface{}{
		"concept_id": refs[0],
		"score":      float64(eval.Score),
		"is_correct": eval.IsCorrect,
		"feedback":   eval.Feedback,
	})
	var entry store.ProgressEntry
	if err := json.Unmarshal([]byte(text), &entry); err != nil {
		t.Fatalf("failed to parse progress entry: %v", err)
	}
	if entry.Freshness != 0.9 || len(entry.Log) != 1 {
		t.Fatalf("unexpected progress entry: %+v", entry)
	}

	text = callTool(t, mcpProgress(svc), "getCurProgress", nil)
	if !strings.Contains(text, refs[0]) {
		t.Fatalf("expected progress to mention %s, got: %s", refs[0], text)
	}

	text = callTool(t, mcpDecideNext(svc), "decideNext", nil)
	if err := json.Unmarshal([]byte(text), &d); err != nil {
		t.Fatalf("failed to parse decision: %v", err)
	}
	if d.Target() != refs[1] {
		t.Fatalf("expected %s next, got %+v", refs[1], d)
	}
}

func TestMCPTool_UpdateFreshness_UnknownConcept(t *testing.T) {
	svc, _ := newTestService(t, "Paging")

	result, err := mcpUpdateFreshness(svc)(context.Background(), makeCallToolRequest("updateFreshnessAndLog", map[string]interface{}{
		"concept_id": "COURSES/Operating Systems/missing",
		"score":      50.0,
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.IsError {
		t.Fatalf("expected tool error, got: %s", toolText(t, result))
	}
	if svc.Store.LoadProgress().Len() != 0 {
		t.Fatal("unknown concept must not be recorded")
	}
}

func TestMCPTool_MissingArguments(t *testing.T) {
	svc, _ := newTestService(t)

	tests := []struct {
		name    string
		handler server.ToolHandlerFunc
		args    map[string]interface{}
	}{
		{"evaluateAnswer", mcpEvaluate(svc), map[string]interface{}{"concept_id": "x"}},
		{"updateFreshnessAndLog", mcpUpdateFreshness(svc), map[string]interface{}{"concept_id": "x"}},
		{"generateExplaination", mcpExplain(svc), nil},
		{"generateQue_shortAnswer", mcpGenerateQuiz(svc, tutor.QuizShortAnswer), nil},
		{"addConcept", mcpAddConcept(svc), map[string]interface{}{"course_name": "Networks"}},
		{"checkDuplicate", mcpCheckDuplicate(svc), map[string]interface{}{"title": "TCP"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := tt.handler(context.Background(), makeCallToolRequest(tt.name, tt.args))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !result.IsError {
				t.Fatalf("expected tool error, got: %s", toolText(t, result))
			}
		})
	}
}

func TestMCPTool_GenerateQuiz_UnknownConcept(t *testing.T) {
	svc, _ := newTestService(t)

	result, err := mcpGenerateQuiz(svc, tutor.QuizMultiChoice)(context.Background(),
		makeCallToolRequest("generateQue_multiChoice", map[string]interface{}{"concept_id": "COURSES/Nope/x"}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.IsError {
		t.Fatalf("expected tool error, got: %s", toolText(t, result))
	}
}

func TestMCPTool_ConceptStore(t *testing.T) {
	svc, _ := newTestService(t)
	const ts = "2025-08-11T10:00:00Z"

	id := callTool(t, mcpGenerateConceptID(svc), "generateConceptId", map[string]interface{}{
		"course_name": "Networks",
		"timestamp":   ts,
	})
	if id != "ne-2025-08-11-001" {
		t.Fatalf("unexpected id: %s", id)
	}

	text := callTool(t, mcpAddConcept(svc), "addConcept", map[string]interface{}{
		"course_name": "Networks",
		"title":       "TCP",
		"content":     "A reliable byte stream.",
		"timestamp":   ts,
	})
	var added struct {
		Added     bool   `json:"added"`
		ConceptID string `json:"concept_id"`
	}
	if err := json.Unmarshal([]byte(text), &added); err != nil {
		t.Fatalf("failed to parse add result: %v", err)
	}
	if !added.Added || added.ConceptID != "COURSES/Networks/ne-2025-08-11-001" {
		t.Fatalf("unexpected add result: %+v", added)
	}

	text = callTool(t, mcpAddConcept(svc), "addConcept", map[string]interface{}{
		"course_name": "Networks",
		"title":       "tcp",
		"content":     "duplicate",
	})
	if text != `{"added":false}` {
		t.Fatalf("expected duplicate to be rejected, got: %s", text)
	}

	if got := callTool(t, mcpCheckDuplicate(svc), "checkDuplicate", map[string]interface{}{
		"course_name": "Networks",
		"title":       "Tcp",
	}); got != "true" {
		t.Fatalf("expected duplicate, got: %s", got)
	}

	text = callTool(t, mcpGetConcept(svc), "getConcept", map[string]interface{}{"concept_id": added.ConceptID})
	if !strings.Contains(text, `"title":"TCP"`) {
		t.Fatalf("unexpected concept: %s", text)
	}
	if got := callTool(t, mcpGetConcept(svc), "getConcept", map[string]interface{}{"concept_id": "garbage"}); got != "null" {
		t.Fatalf("expected null for malformed ref, got: %s", got)
	}

	if got := callTool(t, mcpCourses(svc), "getCourses", nil); got != `["Networks"]` {
		t.Fatalf("unexpected courses: %s", got)
	}

	text = callTool(t, mcpSystemPrompt(svc), "getSystemPrompt", nil)
	if !strings.Contains(text, "TCP") {
		t.Fatalf("expected system prompt to resolve TCP, got: %s", text)
	}
}

func TestMCPTool_Explain(t *testing.T) {
	svc, refs := newTestService(t, "Paging")

	text := callTool(t, mcpExplain(svc), "generateExplaination", map[string]interface{}{"concept_id": refs[0]})
	if !strings.Contains(text, `"title":"Paging"`) {
		t.Fatalf("unexpected explanation: %s", text)
	}

	text = callTool(t, mcpExplain(svc), "generateExplaination", map[string]interface{}{"concept_id": "COURSES/Nope/x"})
	if text != `{"explanation":"No explanation available"}` {
		t.Fatalf("unexpected explanation for missing concept: %s", text)
	}
}
