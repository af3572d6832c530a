// Package app is the terminal previewer: it renders a template, shows the
// question with its answers, and rerolls or reloads on key presses.
package app

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/qforge/qforge/internal/engine"
	"github.com/qforge/qforge/internal/service"
	"github.com/qforge/qforge/internal/ui/layout"
	"github.com/qforge/qforge/internal/ui/theme"
)

// Renderer renders template text. *service.Service implements it.
type Renderer interface {
	Render(ctx context.Context, src string, seed *int64, templateID string) *service.Rendered
}

// Options configures the previewer.
type Options struct {
	Renderer Renderer

	// Load returns the current template text. It is called on start and
	// again on every reload, so edits to a file show up without restarting.
	Load func(ctx context.Context) (string, error)

	// Title is shown in the header, typically the file name or template id.
	Title string

	// TemplateID is recorded with each render; empty for files.
	TemplateID string

	// Seed pins the first render. Nil picks a fresh seed.
	Seed *int64
}

type renderedMsg struct {
	Result *service.Rendered
	Err    error
}

type sourceMsg struct {
	Source string
	Result *service.Rendered
}

// Model is the root Bubble Tea model.
type Model struct {
	opts   Options
	source string
	seed   *int64
	result *service.Rendered
	errMsg string

	showParams   bool
	showSolution bool
	editingSeed  bool
	seedInput    textinput.Model
	scroll       int

	width  int
	height int
}

// New creates the previewer model.
func New(opts Options) Model {
	ti := textinput.New()
	ti.Placeholder = "seed"
	ti.CharLimit = 19

	return Model{
		opts:      opts,
		seed:      opts.Seed,
		seedInput: ti,
	}
}

func (m Model) Init() tea.Cmd {
	return m.reload()
}

// reload reads the template again and renders it with the current seed.
func (m Model) reload() tea.Cmd {
	opts, seed := m.opts, m.seed
	return func() tea.Msg {
		ctx := context.Background()
		src, err := opts.Load(ctx)
		if err != nil {
			return renderedMsg{Err: err}
		}
		return sourceMsg{Source: src, Result: opts.Renderer.Render(ctx, src, seed, opts.TemplateID)}
	}
}

// render renders the loaded source with seed; nil asks for a new one.
func (m Model) render(seed *int64) tea.Cmd {
	opts, src := m.opts, m.source
	return func() tea.Msg {
		return renderedMsg{Result: opts.Renderer.Render(context.Background(), src, seed, opts.TemplateID)}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case sourceMsg:
		m.source = msg.Source
		m.apply(msg.Result)
		return m, nil

	case renderedMsg:
		if msg.Err != nil {
			m.errMsg = msg.Err.Error()
			return m, nil
		}
		m.apply(msg.Result)
		return m, nil

	case tea.KeyMsg:
		if m.editingSeed {
			return m.updateSeedInput(msg)
		}
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "r", "enter":
			return m, m.render(nil)
		case "l":
			return m, m.reload()
		case "s":
			m.editingSeed = true
			m.seedInput.SetValue("")
			return m, m.seedInput.Focus()
		case "p":
			m.showParams = !m.showParams
			return m, nil
		case "v":
			m.showSolution = !m.showSolution
			return m, nil
		case "up", "k":
			if m.scroll > 0 {
				m.scroll--
			}
			return m, nil
		case "down", "j":
			m.scroll++
			return m, nil
		}
	}
	return m, nil
}

func (m *Model) apply(res *service.Rendered) {
	m.result = res
	m.errMsg = ""
	m.scroll = 0
	if res != nil {
		seed := res.Seed
		m.seed = &seed
	}
}

func (m Model) updateSeedInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.editingSeed = false
		m.seedInput.Blur()
		return m, nil
	case "enter":
		n, err := strconv.ParseInt(strings.TrimSpace(m.seedInput.Value()), 10, 64)
		if err != nil || n < 1 {
			m.errMsg = fmt.Sprintf("invalid seed %q", m.seedInput.Value())
			return m, nil
		}
		m.editingSeed = false
		m.seedInput.Blur()
		return m, m.render(&n)
	}

	// Digits only.
	if key := msg.String(); len(key) == 1 && (key[0] < '0' || key[0] > '9') {
		return m, nil
	}
	var cmd tea.Cmd
	m.seedInput, cmd = m.seedInput.Update(msg)
	return m, cmd
}

// KeyHints lists the footer bindings for the current mode.
func (m Model) KeyHints() []layout.KeyHint {
	if m.editingSeed {
		return []layout.KeyHint{
			{Key: "Enter", Description: "Render"},
			{Key: "Esc", Description: "Cancel"},
		}
	}
	return []layout.KeyHint{
		{Key: "r", Description: "Reroll"},
		{Key: "s", Description: "Seed"},
		{Key: "l", Description: "Reload"},
		{Key: "p", Description: "Params"},
		{Key: "v", Description: "Solution"},
		{Key: "q", Description: "Quit"},
	}
}

func (m Model) status() string {
	if m.result == nil {
		return ""
	}
	return fmt.Sprintf("seed %d  attempts %d", m.result.Seed, m.result.Attempts)
}

func (m Model) View() tea.View {
	v := tea.NewView("")
	v.AltScreen = true

	if m.width == 0 || m.height == 0 {
		return v
	}
	if layout.IsTooSmall(m.width, m.height) {
		v.SetContent(layout.RenderMinSizeMessage(m.width, m.height))
		return v
	}

	header := layout.RenderHeader(m.opts.Title, m.status(), m.width)
	footer := layout.RenderFooter(m.KeyHints(), m.width)

	lines := strings.Split(m.body(m.width-2), "\n")
	if m.scroll < len(lines) {
		lines = lines[m.scroll:]
	}

	v.SetContent(layout.RenderFrame(header, strings.Join(lines, "\n"), footer, m.width, m.height))
	return v
}

// body renders everything between header and footer.
func (m Model) body(width int) string {
	var b strings.Builder

	if m.editingSeed {
		b.WriteString(theme.Label.Render("Seed: ") + m.seedInput.View() + "\n\n")
	}
	if m.errMsg != "" {
		b.WriteString(theme.Failure.Render("Error: "+m.errMsg) + "\n\n")
	}
	if m.result == nil {
		if m.errMsg == "" {
			b.WriteString(theme.Hint.Render("Rendering..."))
		}
		return b.String()
	}

	res := m.result
	wrap := lipgloss.NewStyle().Width(max(width-4, 10))

	if !res.Success {
		b.WriteString(theme.Failure.Render("Render failed") + "\n")
		writeIssues(&b, res.Errors, theme.Failure)
		b.WriteString("\n")
	}

	if res.Question.Text != "" {
		b.WriteString(theme.Label.Render("Question") + "\n")
		b.WriteString(theme.Card.Render(wrap.Render(res.Question.Text)) + "\n")
	}

	if res.Answer != nil {
		b.WriteString(theme.Label.Render("Answer") + "\n")
		b.WriteString("  " + theme.Correct.Render(res.Answer.Text) + "\n")
	}
	if len(res.Answers) > 0 {
		b.WriteString(theme.Label.Render("Answers") + "\n")
		for i, a := range res.Answers {
			b.WriteString(answerLine(i, a) + "\n")
		}
	}

	if m.showSolution && res.Solution.Text != "" {
		b.WriteString("\n" + theme.Label.Render("Solution") + "\n")
		b.WriteString(theme.Card.Render(wrap.Render(res.Solution.Text)) + "\n")
	}

	if res.Diagram.Raw != "" {
		b.WriteString("\n" + theme.Label.Render("Diagram") + "\n")
		b.WriteString(theme.Hint.Render(fmt.Sprintf("  %d bytes of SVG from:", len(res.Diagram.SVG))) + "\n")
		for _, line := range strings.Split(strings.TrimRight(res.Diagram.Raw, "\n"), "\n") {
			b.WriteString("  " + theme.Body.Render(line) + "\n")
		}
	}

	if m.showParams && len(res.Parameters) > 0 {
		b.WriteString("\n" + theme.Label.Render("Parameters") + "\n")
		for _, p := range res.Parameters {
			b.WriteString(fmt.Sprintf("  %s = %s\n", p.Name, p.Value.String()))
		}
	}

	if len(res.Warnings) > 0 {
		b.WriteString("\n" + theme.Warning.Render("Warnings") + "\n")
		writeIssues(&b, res.Warnings, theme.Warning)
	}

	return b.String()
}

func answerLine(i int, a engine.Answer) string {
	label := fmt.Sprintf("  %c) %s", 'A'+rune(i%26), a.Text)
	if a.Correct {
		return theme.Correct.Render(label + "  ✓")
	}
	return theme.Distractor.Render(label)
}

func writeIssues(b *strings.Builder, issues []engine.Issue, style lipgloss.Style) {
	for _, is := range issues {
		b.WriteString("  " + style.Render(fmt.Sprintf("[%s] %s", is.Kind, is.Message)) + "\n")
	}
}

// Run starts the previewer.
func Run(opts Options) error {
	p := tea.NewProgram(New(opts))
	_, err := p.Run()
	return err
}
