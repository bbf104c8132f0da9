package analysis

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214"))
	boxStyle    = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("214")).
			Padding(0, 1)
)

// Format renders suggestions as a bordered report for the terminal.
// An empty list renders as the empty string.
func Format(suggestions []string) string {
	if len(suggestions) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString(headerStyle.Render("Plan review"))
	for _, s := range suggestions {
		b.WriteString("\n• ")
		b.WriteString(s)
	}
	return boxStyle.Render(b.String())
}
