// Package ingest turns uploaded documents into concepts.
package ingest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/abhisek/cheatsheet/internal/llm"
	"github.com/abhisek/cheatsheet/internal/metrics"
	"github.com/abhisek/cheatsheet/internal/store"
)

const warnUnparseable = "Could not parse JSON response"

// Document is an uploaded file.
type Document struct {
	Filename string
	Data     []byte
}

// Candidate is a concept proposed by extraction, not yet saved.
type Candidate struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// UnmarshalJSON accepts content as a string or a list of strings.
func (c *Candidate) UnmarshalJSON(data []byte) error {
	var concept store.Concept
	if err := json.Unmarshal(data, &concept); err != nil {
		return err
	}
	c.Title = strings.TrimSpace(concept.Title)
	c.Content = strings.TrimSpace(strings.Join(concept.Content, " "))
	return nil
}

// Extraction is the outcome of analyzing one document. A completion that
// could not be parsed still succeeds, with no concepts and a warning.
type Extraction struct {
	Success    bool        `json:"success"`
	Concepts   []Candidate `json:"concepts"`
	Filename   string      `json:"filename"`
	RawContent string      `json:"raw_content,omitempty"`
	Warning    string      `json:"warning,omitempty"`
}

// ExtractorConfig holds configuration for document analysis.
type ExtractorConfig struct {
	MaxTokens   int
	Temperature float64
}

// DefaultExtractorConfig returns the extraction defaults.
func DefaultExtractorConfig() ExtractorConfig {
	return ExtractorConfig{
		MaxTokens:   4000,
		Temperature: 0.3,
	}
}

// Extractor asks the LLM for the key concepts of a document.
type Extractor struct {
	provider llm.Provider
	cfg      ExtractorConfig
	metrics  *metrics.Metrics
}

// NewExtractor creates an Extractor. m may be nil.
func NewExtractor(provider llm.Provider, cfg ExtractorConfig, m *metrics.Metrics) *Extractor {
	return &Extractor{provider: provider, cfg: cfg, metrics: m}
}

// Extract analyzes doc. Non-PDF input is ErrNotPDF and a failed model
// call is returned as an error.
func (e *Extractor) Extract(ctx context.Context, doc Document) (Extraction, error) {
	if !IsPDFName(doc.Filename) || !bytes.HasPrefix(doc.Data, []byte("%PDF-")) {
		return Extraction{}, ErrNotPDF
	}

	text, err := extractText(doc.Data)
	if err != nil {
		slog.Warn("local PDF text extraction failed", "file", doc.Filename, "error", err)
	}

	ctx = llm.WithPurpose(ctx, llm.PurposeExtract)
	resp, err := e.provider.Generate(ctx, llm.Request{
		Messages: []llm.Message{{
			Role:    llm.RoleUser,
			Content: extractionPrompt,
			Attachments: []llm.Attachment{{
				Filename: doc.Filename,
				MIMEType: PDFMIMEType,
				Data:     doc.Data,
				Text:     text,
			}},
		}},
		MaxTokens:   e.cfg.MaxTokens,
		Temperature: e.cfg.Temperature,
	})
	if err != nil {
		return Extraction{}, fmt.Errorf("extract concepts from %s: %w", doc.Filename, err)
	}

	raw := string(resp.Content)
	concepts, err := parseCandidates(raw)
	if err != nil {
		slog.Warn("could not parse extracted concepts", "file", doc.Filename, "error", err)
		e.metrics.RecordFallback("extract-concepts")
		return Extraction{
			Success:    true,
			Concepts:   []Candidate{},
			Filename:   doc.Filename,
			RawContent: raw,
			Warning:    warnUnparseable,
		}, nil
	}

	return Extraction{Success: true, Concepts: concepts, Filename: doc.Filename}, nil
}

func parseCandidates(text string) ([]Candidate, error) {
	raw, err := llm.ExtractJSON(text)
	if err != nil {
		return nil, err
	}
	var out []Candidate
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("concept list: %w", err)
	}
	if out == nil {
		out = []Candidate{}
	}
	return out, nil
}

const extractionPrompt = `Please analyze this document and extract the key concepts, topics, and important information.

Return the result in JSON format as a list of concepts. Each concept should have:
- "title": A concise title for the concept (2-5 words)
- "content": A clear description or explanation of the concept (1-3 sentences)

Format the response as a valid JSON array like this:
[
    {
        "title": "title of the concept",
        "content": "description of the concept"
    },
    {
        "title": "title of the concept",
        "content": "description of the concept"
    }
]

Extract 5-15 key concepts depending on the document length and complexity. Focus on the most important and useful information.`
