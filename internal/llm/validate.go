package llm

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// schemas holds compiled schemas by Schema.Name. Names are fixed per
// package (quiz-single-choice, answer-evaluation, ...), so the cache
// stays small.
var schemas = &schemaCache{compiled: make(map[string]*jsonschema.Schema)}

type schemaCache struct {
	mu       sync.Mutex
	compiled map[string]*jsonschema.Schema
}

func (c *schemaCache) get(s *Schema) (*jsonschema.Schema, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if compiled, ok := c.compiled[s.Name]; ok {
		return compiled, nil
	}

	def, err := decodeJSON(s.Definition)
	if err != nil {
		return nil, fmt.Errorf("schema definition: %w", err)
	}
	url := "mem://" + s.Name + ".json"
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(url, def); err != nil {
		return nil, err
	}
	compiled, err := compiler.Compile(url)
	if err != nil {
		return nil, err
	}
	c.compiled[s.Name] = compiled
	return compiled, nil
}

// decodeJSON round-trips v into the value model jsonschema validates,
// where numbers stay json.Number.
func decodeJSON(v any) (any, error) {
	raw, ok := v.(json.RawMessage)
	if !ok {
		b, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		raw = b
	}
	return jsonschema.UnmarshalJSON(bytes.NewReader(raw))
}

// validateResponse checks raw against schema. A nil schema accepts anything.
func validateResponse(schema *Schema, raw json.RawMessage) error {
	if schema == nil {
		return nil
	}
	invalid := func(err error) error {
		return &ErrInvalidResponse{Schema: schema.Name, Content: raw, Err: err}
	}

	value, err := decodeJSON(raw)
	if err != nil {
		return invalid(fmt.Errorf("decode: %w", err))
	}
	compiled, err := schemas.get(schema)
	if err != nil {
		return invalid(fmt.Errorf("compile schema: %w", err))
	}
	if err := compiled.Validate(value); err != nil {
		return invalid(err)
	}
	return nil
}
