// Package layout composes the previewer frame: header, body and key hints.
package layout

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/qforge/qforge/internal/ui/theme"
)

const (
	MinWidth  = 60
	MinHeight = 16
)

// KeyHint represents a key binding hint shown in the footer.
type KeyHint struct {
	Key         string
	Description string
}

// IsTooSmall returns true if the terminal is below minimum size.
func IsTooSmall(width, height int) bool {
	return width < MinWidth || height < MinHeight
}

// RenderMinSizeMessage renders the "terminal too small" message.
func RenderMinSizeMessage(width, height int) string {
	return lipgloss.NewStyle().
		Align(lipgloss.Center).
		Foreground(theme.Text).
		Width(width).
		Height(height).
		Render(fmt.Sprintf(
			"Terminal too small!\n\nPlease resize to at\nleast %d x %d\n\nCurrent: %d x %d",
			MinWidth, MinHeight, width, height,
		))
}

// RenderHeader renders the header bar: product name, title and a status
// string on the right (seed and attempts in the previewer).
func RenderHeader(title, status string, width int) string {
	left := lipgloss.NewStyle().
		Foreground(theme.Primary).
		Bold(true).
		Render("qforge")
	center := lipgloss.NewStyle().
		Foreground(theme.Text).
		Render(title)
	right := lipgloss.NewStyle().
		Foreground(theme.Accent).
		Render(status)

	innerWidth := max(width-4, 0)
	leftLen := lipgloss.Width(left)
	centerLen := lipgloss.Width(center)
	rightLen := lipgloss.Width(right)

	leftGap := max((innerWidth-centerLen)/2-leftLen, 1)
	rightGap := max(innerWidth-leftLen-leftGap-centerLen-rightLen, 1)

	content := left + strings.Repeat(" ", leftGap) + center + strings.Repeat(" ", rightGap) + right

	return lipgloss.NewStyle().
		Width(width).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(theme.Border).
		Render(content)
}

// RenderFooter renders the footer with key hints.
func RenderFooter(hints []KeyHint, width int) string {
	parts := make([]string, 0, len(hints))
	for _, h := range hints {
		part := lipgloss.NewStyle().Foreground(theme.Text).Bold(true).Render(h.Key) +
			" " +
			lipgloss.NewStyle().Foreground(theme.TextDim).Render(h.Description)
		parts = append(parts, part)
	}

	return lipgloss.NewStyle().
		Width(width).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(theme.Border).
		Render("  " + strings.Join(parts, "   "))
}

// RenderFrame composes the full frame. Content taller than the space
// between header and footer is cut from the bottom.
func RenderFrame(header, content, footer string, width, height int) string {
	contentHeight := max(height-lipgloss.Height(header)-lipgloss.Height(footer), 0)

	lines := strings.Split(content, "\n")
	if len(lines) > contentHeight {
		lines = lines[:contentHeight]
	}

	body := lipgloss.NewStyle().
		Width(width).
		Height(contentHeight).
		Render(strings.Join(lines, "\n"))

	return header + "\n" + body + "\n" + footer
}
