package document

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Pair is one key/value entry of a mapping node.
type Pair struct {
	Key   string
	Value *yaml.Node
}

// Pairs returns the entries of a mapping node in source order.
func Pairs(n *yaml.Node) []Pair {
	n = resolve(n)
	if n == nil || n.Kind != yaml.MappingNode {
		return nil
	}
	out := make([]Pair, 0, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		out = append(out, Pair{Key: n.Content[i].Value, Value: resolve(n.Content[i+1])})
	}
	return out
}

// MapValue looks up key in a mapping node.
func MapValue(n *yaml.Node, key string) *yaml.Node {
	n = resolve(n)
	if n == nil || n.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		if n.Content[i].Value == key {
			return resolve(n.Content[i+1])
		}
	}
	return nil
}

// ScalarString returns the raw text of a scalar value under key.
func ScalarString(n *yaml.Node, key string) (string, bool) {
	v := MapValue(n, key)
	if v == nil || v.Kind != yaml.ScalarNode || IsNull(v) {
		return "", false
	}
	return v.Value, true
}

// Items returns the elements of a sequence node.
func Items(n *yaml.Node) []*yaml.Node {
	n = resolve(n)
	if n == nil || n.Kind != yaml.SequenceNode {
		return nil
	}
	out := make([]*yaml.Node, len(n.Content))
	for i, c := range n.Content {
		out[i] = resolve(c)
	}
	return out
}

// IsNull reports an explicit or empty null scalar.
func IsNull(n *yaml.Node) bool {
	return n == nil || n.Kind == yaml.ScalarNode && n.ShortTag() == "!!null"
}

// IsString reports whether n is a scalar that decodes to a string.
func IsString(n *yaml.Node) bool {
	return n != nil && n.Kind == yaml.ScalarNode && n.ShortTag() == "!!str"
}

// Scalar decodes a scalar node into a Go value: int, float64, bool, string
// or nil.
func Scalar(n *yaml.Node) (any, error) {
	n = resolve(n)
	if n == nil || n.Kind != yaml.ScalarNode {
		return nil, fmt.Errorf("expected a scalar, got %s", KindName(n))
	}
	var v any
	if err := n.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}

// Decode converts any node into plain Go values.
func Decode(n *yaml.Node) (any, error) {
	if n == nil {
		return nil, nil
	}
	var v any
	if err := n.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}

// KindName names the shape of a node for diagnostics.
func KindName(n *yaml.Node) string {
	n = resolve(n)
	if n == nil {
		return "nothing"
	}
	switch n.Kind {
	case yaml.MappingNode:
		return "mapping"
	case yaml.SequenceNode:
		return "list"
	case yaml.ScalarNode:
		switch n.ShortTag() {
		case "!!str":
			return "string"
		case "!!int":
			return "integer"
		case "!!float":
			return "number"
		case "!!bool":
			return "boolean"
		case "!!null":
			return "null"
		}
		return "scalar"
	}
	return "node"
}

func resolve(n *yaml.Node) *yaml.Node {
	for n != nil && n.Kind == yaml.AliasNode {
		n = n.Alias
	}
	return n
}
