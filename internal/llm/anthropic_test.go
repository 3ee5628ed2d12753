package llm

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type messagesServer struct {
	status int
	reply  string
	last   map[string]any
}

func (m *messagesServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	m.last = nil
	_ = json.NewDecoder(r.Body).Decode(&m.last)
	w.Header().Set("Content-Type", "application/json")
	if m.status != 0 {
		w.WriteHeader(m.status)
		json.NewEncoder(w).Encode(map[string]any{
			"type":  "error",
			"error": map[string]any{"type": "api_error", "message": "nope"},
		})
		return
	}
	json.NewEncoder(w).Encode(map[string]any{
		"id":          "msg_1",
		"type":        "message",
		"role":        "assistant",
		"content":     []map[string]any{{"type": "text", "text": m.reply}},
		"model":       "claude-haiku-4-5-20251001",
		"stop_reason": "end_turn",
		"usage":       map[string]any{"input_tokens": 900, "output_tokens": 40},
	})
}

// blocks returns the content blocks of the first message of the last request.
func (m *messagesServer) blocks(t *testing.T) []map[string]any {
	t.Helper()
	msgs, ok := m.last["messages"].([]any)
	require.True(t, ok, "request has no messages: %v", m.last)
	require.NotEmpty(t, msgs)
	content := msgs[0].(map[string]any)["content"].([]any)
	out := make([]map[string]any, len(content))
	for i, b := range content {
		out[i] = b.(map[string]any)
	}
	return out
}

func newTestAnthropic(t *testing.T, reply string) (*AnthropicProvider, *messagesServer) {
	t.Helper()
	ms := &messagesServer{reply: reply}
	srv := httptest.NewServer(ms)
	t.Cleanup(srv.Close)

	client := anthropic.NewClient(
		option.WithAPIKey("k"),
		option.WithBaseURL(srv.URL),
		option.WithMaxRetries(0),
	)
	return &AnthropicProvider{client: &client, model: resolveModel("claude-haiku", anthropicModels)}, ms
}

func TestAnthropicSendsPDFAsDocumentBlock(t *testing.T) {
	p, ms := newTestAnthropic(t, fencedGrade)

	resp, err := p.Generate(context.Background(), pdfRequest)
	require.NoError(t, err)
	assert.JSONEq(t, wantGrade, string(resp.Content))
	assert.Equal(t, Usage{InputTokens: 900, OutputTokens: 40, TotalTokens: 940}, resp.Usage)
	assert.Equal(t, "claude-haiku-4-5-20251001", ms.last["model"])

	blocks := ms.blocks(t)
	require.Len(t, blocks, 2, "document then prompt")
	assert.Equal(t, "document", blocks[0]["type"])
	assert.Equal(t, "a.pdf", blocks[0]["title"])
	assert.Equal(t, map[string]any{
		"type":       "base64",
		"media_type": "application/pdf",
		"data":       base64.StdEncoding.EncodeToString([]byte("%PDF-1.4")),
	}, blocks[0]["source"])
	assert.Equal(t, map[string]any{"type": "text", "text": "hi"}, blocks[1])
}

func TestAnthropicSendsOtherFilesAsTextDocuments(t *testing.T) {
	p, ms := newTestAnthropic(t, "Noted.")

	_, err := p.Generate(context.Background(), Request{Messages: []Message{{
		Role:        RoleUser,
		Content:     "summarize",
		Attachments: []Attachment{{Filename: "notes.txt", MIMEType: "text/plain", Text: "paging notes"}},
	}}})
	require.NoError(t, err)

	blocks := ms.blocks(t)
	require.Len(t, blocks, 2)
	assert.Equal(t, "document", blocks[0]["type"])
	assert.Equal(t, "notes.txt", blocks[0]["title"])
	source := blocks[0]["source"].(map[string]any)
	assert.Equal(t, "text", source["type"])
	assert.Equal(t, "paging notes", source["data"])
}

func TestAnthropicRejectsReplyWithoutJSON(t *testing.T) {
	p, _ := newTestAnthropic(t, "I'd rather not grade that.")

	_, err := p.Generate(context.Background(), Request{Schema: gradeSchema, Messages: []Message{{Role: RoleUser, Content: "x"}}})
	var invalid *ErrInvalidResponse
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "I'd rather not grade that.", string(invalid.Content))
}

func TestAnthropicErrorMapping(t *testing.T) {
	p, ms := newTestAnthropic(t, "")
	req := Request{Messages: []Message{{Role: RoleUser, Content: "x"}}}

	ms.status = http.StatusTooManyRequests
	_, err := p.Generate(context.Background(), req)
	var rl *ErrRateLimit
	assert.ErrorAs(t, err, &rl)

	ms.status = http.StatusInternalServerError
	_, err = p.Generate(context.Background(), req)
	var down *ErrProviderUnavailable
	assert.ErrorAs(t, err, &down)
}

func TestAnthropicRequiresKey(t *testing.T) {
	_, err := NewAnthropicProvider(AnthropicConfig{Model: "claude-sonnet"})
	assert.Error(t, err)
}
