package cli

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
)

// defaultWrapWidth is the column at which rendered answers wrap.
const defaultWrapWidth = 100

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	confirmStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

// Renderer turns markdown answers into terminal output.
// A raw renderer passes text through untouched.
type Renderer struct {
	term *glamour.TermRenderer
}

// NewRenderer creates a renderer. raw disables markdown styling.
func NewRenderer(raw bool, width int) (*Renderer, error) {
	if raw {
		return &Renderer{}, nil
	}

	term, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil, err
	}
	return &Renderer{term: term}, nil
}

// Render returns styled markdown, or the input itself when styling is off or fails.
func (r *Renderer) Render(markdown string) string {
	if r.term == nil {
		return markdown
	}

	out, err := r.term.Render(markdown)
	if err != nil {
		return markdown
	}
	return strings.TrimRight(out, "\n")
}
