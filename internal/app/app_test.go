package app

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"

	"github.com/qforge/qforge/internal/engine"
	"github.com/qforge/qforge/internal/service"
)

const tmpl = `
parameters:
  a: {min: 2, max: 9}
question:
  text: "What is {{a}} + 10?"
answers:
  - {int: "{{a}} + 10", correct: true}
  - {int: "{{a}} + 11"}
solution:
  text: "Add ten to {{a}}."
`

func keyPress(r rune) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: r, Text: string(r)}
}

func specialKey(code rune) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: code}
}

func testModel(t *testing.T, src string, seed *int64) Model {
	t.Helper()
	eng, err := engine.New(engine.DefaultConfig())
	if err != nil {
		t.Fatalf("engine.New: %v", err)
	}
	return New(Options{
		Renderer: &service.Service{Engine: eng},
		Load:     func(context.Context) (string, error) { return src, nil },
		Title:    "sum.yaml",
		Seed:     seed,
	})
}

// step feeds msg to m and runs the returned command once.
func step(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, cmd := m.Update(msg)
	m = next.(Model)
	if cmd == nil {
		return m
	}
	next, _ = m.Update(cmd())
	return next.(Model)
}

func started(t *testing.T, seed int64) Model {
	t.Helper()
	m := testModel(t, tmpl, &seed)
	next, _ := m.Update(m.Init()())
	return next.(Model)
}

func TestInit_RendersWithSeed(t *testing.T) {
	m := started(t, 42)
	if m.result == nil {
		t.Fatal("expected a result after init")
	}
	if !m.result.Success {
		t.Fatalf("render failed: %v", m.result.Errors)
	}
	if m.result.Seed != 42 {
		t.Errorf("Seed = %d, want 42", m.result.Seed)
	}
	if m.source != tmpl {
		t.Error("expected source to be kept for rerolls")
	}
}

func TestInit_LoadError(t *testing.T) {
	m := New(Options{
		Load: func(context.Context) (string, error) { return "", errors.New("no such file") },
	})
	next, _ := m.Update(m.Init()())
	m = next.(Model)
	if m.errMsg != "no such file" {
		t.Errorf("errMsg = %q", m.errMsg)
	}
	if !strings.Contains(m.body(80), "no such file") {
		t.Error("expected error in body")
	}
}

func TestBody_ShowsQuestionAndAnswers(t *testing.T) {
	m := started(t, 7)
	body := m.body(80)
	a, _ := m.result.Parameters.Get("a")
	if !strings.Contains(body, "What is "+a.String()+" + 10?") {
		t.Errorf("question missing from body:\n%s", body)
	}
	for _, ans := range m.result.Answers {
		if !strings.Contains(body, ans.Text) {
			t.Errorf("answer %q missing from body", ans.Text)
		}
	}
	if strings.Contains(body, "Add ten") {
		t.Error("solution should be hidden by default")
	}
}

func TestToggles(t *testing.T) {
	m := started(t, 7)

	m = step(t, m, keyPress('v'))
	if !strings.Contains(m.body(80), "Add ten to") {
		t.Error("expected solution after v")
	}

	m = step(t, m, keyPress('p'))
	if !strings.Contains(m.body(80), "a = ") {
		t.Error("expected parameters after p")
	}

	m = step(t, m, keyPress('p'))
	if strings.Contains(m.body(80), "Parameters") {
		t.Error("expected parameters hidden after second p")
	}
}

func TestReroll_ProducesNewRender(t *testing.T) {
	m := started(t, 42)
	_, cmd := m.Update(keyPress('r'))
	if cmd == nil {
		t.Fatal("expected render command on r")
	}
	msg, ok := cmd().(renderedMsg)
	if !ok {
		t.Fatal("expected renderedMsg")
	}
	if msg.Result == nil || !msg.Result.Success {
		t.Fatal("expected successful reroll")
	}
}

func TestSeedEntry(t *testing.T) {
	m := started(t, 42)

	m = step(t, m, keyPress('s'))
	if !m.editingSeed {
		t.Fatal("expected seed input after s")
	}

	// Letters are ignored while editing.
	m = step(t, m, keyPress('x'))
	for _, r := range "123" {
		m = step(t, m, keyPress(r))
	}
	if m.seedInput.Value() != "123" {
		t.Fatalf("seed input = %q, want 123", m.seedInput.Value())
	}

	m = step(t, m, specialKey(tea.KeyEnter))
	if m.editingSeed {
		t.Error("expected seed input closed after enter")
	}
	if m.result.Seed != 123 {
		t.Errorf("Seed = %d, want 123", m.result.Seed)
	}
}

func TestSeedEntry_Cancel(t *testing.T) {
	m := started(t, 42)
	m = step(t, m, keyPress('s'))
	m = step(t, m, specialKey(tea.KeyEscape))
	if m.editingSeed {
		t.Error("expected seed input closed after esc")
	}
	if m.result.Seed != 42 {
		t.Errorf("Seed = %d, want 42", m.result.Seed)
	}
}

func TestReload_KeepsSeed(t *testing.T) {
	m := started(t, 42)
	first := m.result.Question.Text

	m = step(t, m, keyPress('l'))
	if m.result.Seed != 42 {
		t.Errorf("Seed = %d, want 42 after reload", m.result.Seed)
	}
	if m.result.Question.Text != first {
		t.Errorf("question changed on reload: %q vs %q", m.result.Question.Text, first)
	}
}

func TestFailedRender_ShowsErrors(t *testing.T) {
	seed := int64(1)
	m := testModel(t, "question: [unclosed", &seed)
	next, _ := m.Update(m.Init()())
	m = next.(Model)
	if m.result == nil || m.result.Success {
		t.Fatal("expected failed render")
	}
	if !strings.Contains(m.body(80), "Render failed") {
		t.Error("expected failure banner")
	}
}

func TestQuit(t *testing.T) {
	m := started(t, 42)
	_, cmd := m.Update(keyPress('q'))
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected tea.QuitMsg")
	}
}

func TestKeyHints(t *testing.T) {
	m := started(t, 42)
	if len(m.KeyHints()) != 6 {
		t.Errorf("expected 6 hints, got %d", len(m.KeyHints()))
	}
	m = step(t, m, keyPress('s'))
	if len(m.KeyHints()) != 2 {
		t.Errorf("expected 2 hints while editing seed, got %d", len(m.KeyHints()))
	}
}

func TestView_Sizes(t *testing.T) {
	m := started(t, 42)
	next, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	m = next.(Model)
	_ = m.View()

	next, _ = m.Update(tea.WindowSizeMsg{Width: 20, Height: 5})
	m = next.(Model)
	_ = m.View()
}
