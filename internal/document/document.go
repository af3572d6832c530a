// Package document parses template source into an order-preserving YAML
// tree and serializes it back to text.
package document

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// ParseError reports malformed template source.
type ParseError struct {
	Line    int
	Message string
	Err     error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return e.Message
}

func (e *ParseError) Unwrap() error { return e.Err }

// Document is a parsed template. The root is always a mapping.
type Document struct {
	root *yaml.Node
}

// Parse decodes src. Empty source, multiple documents and non-mapping roots
// are rejected.
func Parse(src string) (*Document, error) {
	if strings.TrimSpace(src) == "" {
		return nil, &ParseError{Message: "template is empty"}
	}
	dec := yaml.NewDecoder(strings.NewReader(src))
	var doc yaml.Node
	if err := dec.Decode(&doc); err != nil {
		return nil, newParseError(err)
	}
	var extra yaml.Node
	if err := dec.Decode(&extra); err == nil {
		return nil, &ParseError{Line: extra.Line, Message: "template must contain a single document"}
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, &ParseError{Message: "template is empty"}
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, &ParseError{Line: root.Line, Message: fmt.Sprintf("template root must be a mapping, got %s", KindName(root))}
	}
	return &Document{root: root}, nil
}

func newParseError(err error) *ParseError {
	var te *yaml.TypeError
	if errors.As(err, &te) && len(te.Errors) > 0 {
		return &ParseError{Message: te.Errors[0], Err: err}
	}
	return &ParseError{Message: strings.TrimPrefix(err.Error(), "yaml: "), Err: err}
}

// Root returns the top-level mapping node.
func (d *Document) Root() *yaml.Node { return d.root }

// Get walks nested mapping keys. It returns nil when any step is missing or
// is not a mapping.
func (d *Document) Get(path ...string) *yaml.Node {
	n := d.root
	for _, key := range path {
		n = MapValue(n, key)
		if n == nil {
			return nil
		}
	}
	return n
}

// Has reports whether the top-level key is present.
func (d *Document) Has(key string) bool {
	return MapValue(d.root, key) != nil
}

// Marshal serializes the whole tree back to text, keeping key order and
// scalar styles.
func (d *Document) Marshal() (string, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(d.root); err != nil {
		return "", fmt.Errorf("serialize template: %w", err)
	}
	if err := enc.Close(); err != nil {
		return "", fmt.Errorf("serialize template: %w", err)
	}
	return buf.String(), nil
}

// Text returns the string form of path, accepting either a scalar or a
// mapping with a "text" key.
func (d *Document) Text(path ...string) (string, bool) {
	n := d.Get(path...)
	if n == nil {
		return "", false
	}
	if n.Kind == yaml.MappingNode {
		n = MapValue(n, "text")
		if n == nil {
			return "", false
		}
	}
	if n.Kind != yaml.ScalarNode || IsNull(n) {
		return "", false
	}
	return n.Value, true
}
