package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Pane colors follow selection order: purple, teal, green, orange.
var paneColors = []lipgloss.Color{
	lipgloss.Color("#a78bfa"),
	lipgloss.Color("#2dd4bf"),
	lipgloss.Color("#4ade80"),
	lipgloss.Color("#fb923c"),
}

func paneColor(index int) lipgloss.Color {
	if index < 0 {
		index = 0
	}
	return paneColors[index%len(paneColors)]
}

func fragmentStyle(index int) lipgloss.Style {
	return lipgloss.NewStyle().Bold(true).Foreground(paneColor(index))
}

func consumedStyle(index int) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color("#0f0f0f")).Background(paneColor(index))
}

// renderLines styles every line on its own so lipgloss does not pad
// multi-line text into a block.
func renderLines(style lipgloss.Style, text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if line == "" {
			continue
		}
		lines[i] = style.Render(line)
	}
	return strings.Join(lines, "\n")
}

var (
	titleStyle         = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205")).Underline(true)
	sectionHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("81"))
	errorStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	successStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#a3be8c"))
	helperStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	taglineStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#ffb38a")).Italic(true)
	markerStyle        = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#ffd166"))
	statusBarStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#0f0f0f")).Background(lipgloss.Color("#8ecae6")).Padding(0, 1)
	keyStyle           = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#0f0f0f")).Background(lipgloss.Color("#ffd166")).Padding(0, 1)
	keyDescStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#e0def4"))
	legendBoxStyle     = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#56526e")).Padding(0, 1)
	paneBoxStyle       = lipgloss.NewStyle().Border(lipgloss.RoundedBorder())
	compositionStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#7f5af0"))
	currentLineStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#0f0f0f")).Background(lipgloss.Color("#8ecae6"))
	selectionLineStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#0f0f0f")).Background(lipgloss.Color("#bde0fe"))
	activeBadgeStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#ffd166"))
)
