// Package theme holds the lipgloss styles shared by the terminal previewer.
package theme

import (
	"charm.land/lipgloss/v2"
)

// Palette
var (
	Primary   = lipgloss.Color("#6366F1") // Indigo
	Secondary = lipgloss.Color("#0EA5E9") // Sky
	Accent    = lipgloss.Color("#F59E0B") // Amber
	Success   = lipgloss.Color("#22C55E")
	Error     = lipgloss.Color("#EF4444")
	Text      = lipgloss.Color("#F8FAFC")
	TextDim   = lipgloss.Color("#94A3B8")
	BgCard    = lipgloss.Color("#1E293B")
	Border    = lipgloss.Color("#334155")
)

// Typography
var (
	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(Primary)

	Label = lipgloss.NewStyle().
		Foreground(Secondary).
		Bold(true)

	Body = lipgloss.NewStyle().
		Foreground(Text)

	Hint = lipgloss.NewStyle().
		Foreground(TextDim).
		Italic(true)
)

// Card frames a section of the render.
var Card = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(Border).
	Padding(0, 1)

// Answer and issue states
var (
	Correct = lipgloss.NewStyle().
		Foreground(Success).
		Bold(true)

	Distractor = lipgloss.NewStyle().
			Foreground(Text)

	Warning = lipgloss.NewStyle().
		Foreground(Accent)

	Failure = lipgloss.NewStyle().
		Foreground(Error).
		Bold(true)
)
