package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"github.com/csheth/versestudio/internal/llm"
	"github.com/csheth/versestudio/internal/notes"
	"github.com/csheth/versestudio/internal/studio"
)

func (m *model) View() string {
	switch m.stage {
	case stageLibrary:
		return m.viewLibrary()
	case stageStudio, stageEdit:
		return m.viewStudio()
	case stageActions:
		return joinNonEmpty([]string{m.viewActions(), m.footerView()})
	case stageActionResult:
		return joinNonEmpty([]string{m.viewActionResult(), m.footerView()})
	case stageAnalysis:
		return joinNonEmpty([]string{m.viewAnalysis(), m.footerView()})
	default:
		return ""
	}
}

func (m *model) heroView() string {
	return lipgloss.JoinVertical(
		lipgloss.Left,
		titleStyle.Render("VerseStudio"),
		taglineStyle.Render(heroTagline),
	)
}

func (m *model) viewLibrary() string {
	parts := []string{m.heroView(), sectionHeaderStyle.Render("Lyric Library")}
	visible := notes.Lyrics(m.library)
	switch {
	case !m.libraryLoaded:
		parts = append(parts, helperStyle.Render(m.spinner.View()+" loading…"))
	case len(visible) == 0:
		parts = append(parts, helperStyle.Render("No versions found."))
	default:
		parts = append(parts, m.libraryList(visible))
	}
	if m.helpVisible {
		parts = append(parts, m.keyLegendView(m.keys.libraryLegend()))
	}
	return joinNonEmpty(append(parts, m.footerView()))
}

func (m *model) libraryList(visible []notes.Note) string {
	selected := map[string]int{}
	for idx, id := range m.session.PaneIDs() {
		selected[id] = idx
	}
	window := m.height - 10
	if window < 5 {
		window = 5
	}
	start := 0
	if m.libraryCursor >= window {
		start = m.libraryCursor - window + 1
	}
	end := min(start+window, len(visible))
	lines := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		note := visible[i]
		box := "[ ]"
		if idx, ok := selected[note.ID]; ok {
			box = lipgloss.NewStyle().Foreground(paneColor(idx)).Render("[●]")
		}
		label := trimmedTitle(note.Title, 60)
		if label == "" {
			label = "(untitled)"
		}
		line := fmt.Sprintf("%s %s", box, label)
		if !note.UpdatedAt.IsZero() {
			line += helperStyle.Render("  " + note.UpdatedAt.Format("2006-01-02"))
		}
		if i == m.libraryCursor {
			line = currentLineStyle.Render("▸") + " " + line
		} else {
			line = "  " + line
		}
		lines = append(lines, line)
	}
	if end < len(visible) {
		lines = append(lines, helperStyle.Render(fmt.Sprintf("  … %d more", len(visible)-end)))
	}
	return strings.Join(lines, "\n")
}

func (m *model) viewStudio() string {
	parts := []string{m.paneGrid()}
	if m.stage == stageEdit {
		parts = append(parts, joinNonEmpty([]string{
			sectionHeaderStyle.Render("Edit Composition"),
			m.editor.View(),
			helperStyle.Render("ctrl+s apply • esc cancel"),
		}))
	} else {
		header := sectionHeaderStyle.Render("Composition")
		parts = append(parts, header, compositionStyle.Render(m.composition.View()))
	}
	if m.helpVisible {
		parts = append(parts, m.keyLegendView(m.keys.studioLegend()))
	}
	return joinNonEmpty(append(parts, m.footerView()))
}

func (m *model) paneGrid() string {
	if len(m.panes) == 0 {
		return helperStyle.Render("None of the saved versions could be found. Press q to pick again.")
	}
	boxes := make([]string, 0, len(m.panes))
	for i, p := range m.panes {
		title := trimmedTitle(p.title, max(m.layout.paneWidth-4, 8))
		color := paneColor(p.colorIndex)
		header := lipgloss.NewStyle().Bold(true).Foreground(color).Render(title)
		if p.id == m.activePane {
			header += activeBadgeStyle.Render(" ●")
		}
		style := paneBoxStyle.BorderForeground(color)
		if i == m.focus {
			style = style.BorderStyle(lipgloss.ThickBorder())
		}
		boxes = append(boxes, style.Render(lipgloss.JoinVertical(lipgloss.Left, header, p.viewport.View())))
	}
	rows := make([]string, 0, m.layout.rows)
	for start := 0; start < len(boxes); start += m.layout.columns {
		end := min(start+m.layout.columns, len(boxes))
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, boxes[start:end]...))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func (m *model) viewActions() string {
	lines := []string{sectionHeaderStyle.Render("Quick Actions")}
	for idx, action := range llm.Actions {
		label := "  " + action.Label()
		if idx == m.actionCursor {
			label = currentLineStyle.Render("▸ " + action.Label())
		}
		lines = append(lines, label)
	}
	hint := "Enter to run on the composition, Esc to cancel."
	if m.actionBusy {
		hint = fmt.Sprintf("%s %s…", m.spinner.View(), m.action.Label())
	}
	lines = append(lines, "", helperStyle.Render(hint))
	return legendBoxStyle.Render(strings.Join(lines, "\n"))
}

func (m *model) viewActionResult() string {
	width := max(m.layout.compositionWidth, 40)
	hint := "Enter replaces the composition • y copies • Esc discards"
	if m.action == llm.ActionSummarize {
		hint = "y copies • Esc closes"
	}
	return joinNonEmpty([]string{
		sectionHeaderStyle.Render(m.action.Label()),
		wordwrap.String(m.actionResult, width),
		helperStyle.Render(hint),
	})
}

func (m *model) viewAnalysis() string {
	if m.analysis == nil {
		return helperStyle.Render("No analysis yet.")
	}
	a := m.analysis
	var b strings.Builder
	b.WriteString(sectionHeaderStyle.Render("Rhyme & Meter"))
	b.WriteString("\n")
	fmt.Fprintf(&b, "Lines: %d • Rhymed: %d", a.Stats.TotalLines, a.Stats.RhymedLines)
	if a.Stats.RhymeScheme != "" {
		fmt.Fprintf(&b, " • Scheme: %s", a.Stats.RhymeScheme)
	}
	b.WriteString("\n")
	if a.Meter.Pattern != "" {
		fmt.Fprintf(&b, "Meter: %s\n", a.Meter.Pattern)
	}
	if len(a.Meter.Syllables) > 0 {
		shown := a.Meter.Syllables
		if len(shown) > syllablePreview {
			shown = shown[:syllablePreview]
		}
		counts := make([]string, 0, len(shown))
		for _, n := range shown {
			counts = append(counts, fmt.Sprint(n))
		}
		line := "Syllables: " + strings.Join(counts, " ")
		if extra := len(a.Meter.Syllables) - len(shown); extra > 0 {
			line += fmt.Sprintf(" … and %d more", extra)
		}
		b.WriteString(line + "\n")
	}
	if len(a.Meter.Suggestions) > 0 {
		b.WriteString("\n" + sectionHeaderStyle.Render("Suggestions") + "\n")
		for _, s := range a.Meter.Suggestions {
			b.WriteString("• " + s + "\n")
		}
	}
	if len(a.Rhymes) > 0 {
		b.WriteString("\n" + sectionHeaderStyle.Render("Rhymes") + "\n")
		for i, r := range a.Rhymes {
			if i == rhymePreview {
				fmt.Fprintf(&b, "… and %d more\n", len(a.Rhymes)-rhymePreview)
				break
			}
			pairs := make([]string, 0, len(r.RhymeWith))
			for _, p := range r.RhymeWith {
				if p.Type != "" {
					pairs = append(pairs, fmt.Sprintf("%s (%s)", p.Word, p.Type))
				} else {
					pairs = append(pairs, p.Word)
				}
			}
			fmt.Fprintf(&b, "line %d: %s ↔ %s\n", r.Line, r.Word, strings.Join(pairs, ", "))
		}
	}
	b.WriteString("\n" + helperStyle.Render("Esc to return to the studio."))
	return wordwrap.String(b.String(), max(m.width-horizontalPadding, 40))
}

func (m *model) footerView() string {
	parts := []string{m.sessionMeterView()}
	if m.errorMessage != "" {
		parts = append(parts, errorStyle.Render(m.errorMessage))
	}
	if m.infoMessage != "" {
		parts = append(parts, successStyle.Render(m.infoMessage))
	}
	if !m.helpVisible {
		parts = append(parts, helperStyle.Render("? shows all keys"))
	}
	return joinNonEmpty(parts)
}

func (m *model) sessionMeterView() string {
	items := []string{}
	if m.session.Active() {
		c := m.session.Coordinator()
		sync := "Sync off"
		if c.Enabled() {
			sync = fmt.Sprintf("Sync %s", c.Mode())
		}
		items = append(items,
			"STUDIO",
			sync,
			fmt.Sprintf("Panes %d/%d", len(m.panes), studio.MaxPanes),
			fmt.Sprintf("Auto# %s", onOff(m.session.AutoNumber())),
		)
		if m.mode == modeHighlight {
			items = append(items, "HIGHLIGHT")
		}
		if p := m.activeTitle(); p != "" {
			items = append(items, "● "+p)
		}
	} else {
		items = append(items,
			"LIBRARY",
			fmt.Sprintf("Selected %d/%d", len(m.session.PaneIDs()), studio.MaxPanes),
		)
	}
	if m.config.LLM != nil {
		items = append(items, "LLM "+m.config.LLM.Name())
	} else {
		items = append(items, "LLM off")
	}
	items = append(items, m.jobStatusBadges()...)
	return statusBarStyle.Render(strings.Join(items, "  •  "))
}

func (m *model) activeTitle() string {
	for _, p := range m.panes {
		if p.id == m.activePane {
			return trimmedTitle(p.title, 24)
		}
	}
	return ""
}

func (m *model) keyLegendView(bindings []key.Binding) string {
	const columns = 3
	cells := make([]string, 0, len(bindings))
	for _, b := range bindings {
		help := b.Help()
		if help.Key == "" {
			continue
		}
		cells = append(cells, fmt.Sprintf("%s %s", keyStyle.Render(help.Key), keyDescStyle.Render(help.Desc)))
	}
	cols := make([][]string, columns)
	for i, cell := range cells {
		cols[i%columns] = append(cols[i%columns], cell)
	}
	rendered := make([]string, 0, columns)
	for _, col := range cols {
		rendered = append(rendered, lipgloss.NewStyle().PaddingRight(3).Render(strings.Join(col, "\n")))
	}
	return legendBoxStyle.Render(lipgloss.JoinHorizontal(lipgloss.Top, rendered...))
}
