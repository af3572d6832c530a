package llm

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// compiled holds compiled schemas keyed by Schema.Name.
var compiled sync.Map // map[string]*jsonschema.Schema

// validateResponse checks raw against schema. A nil schema accepts
// anything.
func validateResponse(schema *Schema, raw json.RawMessage) error {
	if schema == nil {
		return nil
	}

	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return &ErrInvalidResponse{Content: raw, Err: fmt.Errorf("invalid JSON: %w", err)}
	}

	s, err := compileSchema(schema)
	if err != nil {
		return fmt.Errorf("schema %q: %w", schema.Name, err)
	}
	if err := s.Validate(v); err != nil {
		return &ErrInvalidResponse{Content: raw, Err: fmt.Errorf("schema validation failed: %w", err)}
	}
	return nil
}

func compileSchema(schema *Schema) (*jsonschema.Schema, error) {
	if s, ok := compiled.Load(schema.Name); ok {
		return s.(*jsonschema.Schema), nil
	}

	// jsonschema wants decoded JSON values, not Go maps of arbitrary types.
	def, err := json.Marshal(schema.Definition)
	if err != nil {
		return nil, fmt.Errorf("marshal definition: %w", err)
	}
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(def))
	if err != nil {
		return nil, fmt.Errorf("parse definition: %w", err)
	}

	url := "schema://" + schema.Name + ".json"
	c := jsonschema.NewCompiler()
	if err := c.AddResource(url, doc); err != nil {
		return nil, fmt.Errorf("add resource: %w", err)
	}
	s, err := c.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("compile: %w", err)
	}
	compiled.Store(schema.Name, s)
	return s, nil
}
