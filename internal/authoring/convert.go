package authoring

import (
	"bytes"
	"math"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// toYAML renders a draft as a template document. Keys come out in the
// order authors write them.
func toYAML(d draftOutput) (string, error) {
	root := mapping()

	if len(d.Parameters) > 0 {
		params := mapping()
		for _, p := range d.Parameters {
			put(params, p.Name, parameterNode(p))
		}
		put(root, "parameters", params)
	}

	if len(d.Constraints) > 0 {
		list := sequence()
		for _, c := range d.Constraints {
			item := mapping()
			put(item, "expr", text(c.Expr))
			if c.Message != "" {
				put(item, "message", text(c.Message))
			}
			list.Content = append(list.Content, item)
		}
		put(root, "constraints", list)
	}

	put(root, "question", textBlock(d.Question))

	answers := sequence()
	for _, a := range d.Answers {
		item := mapping()
		kind := a.Kind
		if kind == "" {
			kind = "text"
		}
		put(item, kind, text(a.Value))
		if a.Correct {
			put(item, "correct", plain("true"))
		}
		answers.Content = append(answers.Content, item)
	}
	put(root, "answers", answers)

	if strings.TrimSpace(d.Solution) != "" {
		put(root, "solution", textBlock(d.Solution))
	}
	if src := strings.TrimSpace(d.Diagram); src != "" {
		n := text(src + "\n")
		n.Style = yaml.LiteralStyle
		put(root, "diagram", n)
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{root}}); err != nil {
		return "", err
	}
	if err := enc.Close(); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func parameterNode(p parameterOutput) *yaml.Node {
	n := mapping()
	put(n, "type", plain(p.Type))
	switch p.Type {
	case "int":
		put(n, "min", plain(number(math.Round(p.Min))))
		put(n, "max", plain(number(math.Round(p.Max))))
	case "float":
		put(n, "min", plain(number(p.Min)))
		put(n, "max", plain(number(p.Max)))
	case "choice":
		values := sequence()
		values.Style = yaml.FlowStyle
		for _, v := range p.Values {
			values.Content = append(values.Content, scalar(v))
		}
		put(n, "values", values)
	case "literal":
		put(n, "value", scalar(p.Value))
	default:
		put(n, "value", text(p.Value))
	}
	return n
}

func number(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func mapping() *yaml.Node  { return &yaml.Node{Kind: yaml.MappingNode} }
func sequence() *yaml.Node { return &yaml.Node{Kind: yaml.SequenceNode} }

func put(m *yaml.Node, key string, v *yaml.Node) {
	m.Content = append(m.Content, plain(key), v)
}

// plain lets the value resolve to whatever YAML type it spells.
func plain(v string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Value: v}
}

// text always stays a string; the encoder quotes it when needed.
func text(v string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: v}
}

// scalar keeps numbers numeric and everything else a string.
func scalar(v string) *yaml.Node {
	if _, err := strconv.ParseFloat(v, 64); err == nil {
		return plain(v)
	}
	return text(v)
}

// textBlock is a {text: ...} mapping.
func textBlock(v string) *yaml.Node {
	n := mapping()
	put(n, "text", text(strings.TrimSpace(v)))
	return n
}
