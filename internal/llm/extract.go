package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrNoJSON is returned by ExtractJSON when the text holds no balanced
// JSON object or array.
var ErrNoJSON = errors.New("no JSON value found in completion")

// ExtractJSON returns the first balanced JSON object or array found in a
// completion. A fenced code block is searched first when present.
//
// This is a lossy boundary: surrounding prose is discarded and only the
// first candidate span is considered. Callers treat a failure as a signal
// to use their fallback value.
func ExtractJSON(text string) (json.RawMessage, error) {
	if fenced, ok := fencedBlock(text); ok {
		if span, ok := balancedSpan(fenced); ok {
			return json.RawMessage(span), nil
		}
	}
	if span, ok := balancedSpan(text); ok {
		return json.RawMessage(span), nil
	}
	return nil, ErrNoJSON
}

// fencedBlock returns the body of the first ``` fence, skipping an
// optional language tag on the opening line.
func fencedBlock(text string) (string, bool) {
	start := strings.Index(text, "```")
	if start < 0 {
		return "", false
	}
	rest := text[start+3:]
	if nl := strings.IndexByte(rest, '\n'); nl >= 0 && !strings.ContainsAny(rest[:nl], "{[") {
		rest = rest[nl+1:]
	}
	end := strings.Index(rest, "```")
	if end < 0 {
		return "", false
	}
	return rest[:end], true
}

// balancedSpan scans for the first '{' or '[' and returns the span up to
// its matching closer. Brackets inside JSON strings are ignored.
func balancedSpan(text string) (string, bool) {
	for i := 0; i < len(text); i++ {
		if text[i] != '{' && text[i] != '[' {
			continue
		}
		if end, ok := matchClose(text, i); ok {
			span := text[i : end+1]
			if json.Valid([]byte(span)) {
				return span, true
			}
		}
	}
	return "", false
}

func matchClose(text string, open int) (int, bool) {
	var stack []byte
	inString := false
	escaped := false

	for i := open; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			inString = true
		case '{':
			stack = append(stack, '}')
		case '[':
			stack = append(stack, ']')
		case '}', ']':
			if len(stack) == 0 || stack[len(stack)-1] != c {
				return 0, false
			}
			stack = stack[:len(stack)-1]
			if len(stack) == 0 {
				return i, true
			}
		}
	}
	return 0, false
}

// finalizeContent turns raw completion text into Response content. With a
// schema, the JSON value is extracted and validated; without one, the text
// is passed through unchanged.
func finalizeContent(schema *Schema, text string) (json.RawMessage, error) {
	if schema == nil {
		return json.RawMessage(text), nil
	}

	raw, err := ExtractJSON(text)
	if err != nil {
		return nil, &ErrInvalidResponse{
			Schema:  schema.Name,
			Content: json.RawMessage(text),
			Err:     fmt.Errorf("extract JSON: %w", err),
		}
	}
	if err := validateResponse(schema, raw); err != nil {
		return nil, err
	}
	return raw, nil
}

// trimCompletion strips whitespace and wrapping quotes from a free-text
// completion.
func trimCompletion(s string) string {
	s = strings.TrimSpace(s)
	s = strings.Trim(s, `"`)
	return strings.TrimSpace(s)
}
