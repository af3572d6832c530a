package engine

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/qforge/qforge/internal/diagram"
	"github.com/qforge/qforge/internal/document"
)

// renderDiagram renders the substituted diagram field. Source text goes
// through the line language; a mapping is a structured element spec.
func (e *Engine) renderDiagram(doc *document.Document, res *Result) {
	n := doc.Get("diagram")
	if n == nil || document.IsNull(n) {
		return
	}

	switch n.Kind {
	case yaml.ScalarNode:
		if !document.IsString(n) {
			return
		}
		res.Diagram.Raw = n.Value
		c := e.diagrams.Compose(n.Value)
		for _, s := range c.Skipped {
			e.log.Debug("diagram line skipped", "line", s.Line, "text", s.Text, "reason", s.Reason)
			res.warn(KindDiagramLineSkipped, fmt.Sprintf("diagram line %d skipped (%s): %s", s.Line, s.Reason, s.Text))
		}
		res.Diagram.SVG = c.SVG

	case yaml.MappingNode:
		if raw, err := yaml.Marshal(n); err == nil {
			res.Diagram.Raw = strings.TrimSpace(string(raw))
		}
		spec, err := diagram.DecodeSpec(n)
		if err != nil {
			res.warn(KindDiagramElement, err.Error())
			return
		}
		svg, warnings := diagram.RenderSpec(spec)
		for _, w := range warnings {
			e.log.Debug("diagram element skipped", "kind", w.Kind, "message", w.Message)
			res.warn(KindDiagramElement, w.Message)
		}
		res.Diagram.SVG = svg
	}
}
