package tui

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/muesli/reflow/wordwrap"

	"github.com/csheth/versestudio/internal/compose"
	"github.com/csheth/versestudio/internal/llm"
	"github.com/csheth/versestudio/internal/scrollsync"
	"github.com/csheth/versestudio/internal/studio"
)

// paneView is one source version on screen. It must stay on the heap: the
// surface keeps a pointer to its viewport.
type paneView struct {
	id         string
	title      string
	content    string
	colorIndex int
	viewport   viewport.Model
	surface    *scrollsync.ViewportSurface
	layout     scrollsync.Layout
	cursor     int
	anchor     int
	selecting  bool
}

var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;]*m`)

func stripANSI(s string) string {
	return ansiPattern.ReplaceAllString(s, "")
}

func (m *model) rebuildPanes() {
	for _, p := range m.panes {
		p.surface.Detach()
	}
	sessionPanes := m.session.Panes()
	m.panes = make([]*paneView, 0, len(sessionPanes))
	m.layout.Update(m.width, m.height, len(sessionPanes))
	for _, sp := range sessionPanes {
		p := &paneView{
			id:         sp.ID,
			title:      sp.Title,
			content:    sp.Content,
			colorIndex: sp.ColorIndex,
		}
		p.viewport = viewport.New(m.layout.paneWidth, m.layout.paneHeight)
		p.viewport.MouseWheelEnabled = true
		p.surface = scrollsync.NewViewportSurface(&p.viewport)
		m.session.Attach(p.id, p.surface)
		m.panes = append(m.panes, p)
	}
	if m.focus >= len(m.panes) {
		m.focus = 0
	}
	m.resize()
}

func (m *model) focusedPane() *paneView {
	if m.focus < 0 || m.focus >= len(m.panes) {
		return nil
	}
	return m.panes[m.focus]
}

// renderPane redraws consumed highlights plus the cursor and selection rows.
func (m *model) renderPane(p *paneView) {
	rendered := m.session.Tracker().Render(p.id, func(text string, colorIndex int) string {
		return consumedStyle(colorIndex).Render(text)
	})
	focused := m.focusedPane() == p
	lines := strings.Split(rendered, "\n")
	start, end := p.selectionRange()
	for i, line := range lines {
		switch {
		case !focused:
		case p.selecting && i >= start && i <= end:
			lines[i] = selectionLineStyle.Render(orSpace(stripANSI(line)))
		case i == p.cursor:
			lines[i] = currentLineStyle.Render(orSpace(stripANSI(line)))
		}
	}
	p.layout = p.surface.SetContent(strings.Join(lines, "\n"))
}

func (m *model) renderPanes() {
	for _, p := range m.panes {
		m.renderPane(p)
	}
}

func orSpace(line string) string {
	if line == "" {
		return " "
	}
	return line
}

func (p *paneView) lineCount() int {
	return len(splitLinesPreserve(p.content))
}

func (p *paneView) selectionRange() (int, int) {
	if !p.selecting {
		return p.cursor, p.cursor
	}
	if p.anchor <= p.cursor {
		return p.anchor, p.cursor
	}
	return p.cursor, p.anchor
}

// selectedText returns the selected source lines and the byte offset of the
// first one.
func (p *paneView) selectedText() (string, int) {
	lines := splitLinesPreserve(p.content)
	start, end := p.selectionRange()
	if start < 0 || end >= len(lines) {
		return "", -1
	}
	return strings.Join(lines[start:end+1], "\n"), lineOffset(p.content, start)
}

func (m *model) moveCursor(delta int) {
	p := m.focusedPane()
	if p == nil {
		return
	}
	next := p.cursor + delta
	if next < 0 {
		next = 0
	}
	if last := p.lineCount() - 1; next > last {
		next = last
	}
	p.cursor = next
	m.renderPane(p)
	m.ensureCursorVisible(p)
}

func (m *model) ensureCursorVisible(p *paneView) {
	if p.cursor >= len(p.layout.LineStarts) {
		return
	}
	line := p.layout.LineStarts[p.cursor]
	before := p.viewport.YOffset
	switch {
	case line < p.viewport.YOffset:
		p.viewport.SetYOffset(line)
	case line >= p.viewport.YOffset+p.viewport.Height:
		p.viewport.SetYOffset(line - p.viewport.Height + 1)
	}
	if p.viewport.YOffset != before {
		m.session.Scroll(p.id)
	}
}

func (m *model) scrollFocused(delta int) {
	p := m.focusedPane()
	if p == nil {
		return
	}
	before := p.viewport.YOffset
	if delta > 0 {
		p.viewport.HalfViewDown()
	} else {
		p.viewport.HalfViewUp()
	}
	if p.viewport.YOffset == before {
		return
	}
	top := p.layout.SourceLine(p.viewport.YOffset)
	bottom := p.layout.SourceLine(p.viewport.YOffset + p.viewport.Height - 1)
	if p.cursor < top {
		p.cursor = top
	} else if p.cursor > bottom {
		p.cursor = bottom
	}
	m.renderPane(p)
	m.session.Scroll(p.id)
}

func (m *model) setFocus(index int) {
	if len(m.panes) == 0 {
		return
	}
	prev := m.focusedPane()
	m.focus = (index + len(m.panes)) % len(m.panes)
	if prev != nil {
		prev.selecting = false
		m.renderPane(prev)
	}
	m.mode = modeNormal
	m.renderPane(m.focusedPane())
}

func (m *model) renderComposition() {
	var b strings.Builder
	for _, segment := range m.session.Buffer().Segments() {
		switch seg := segment.(type) {
		case compose.Fragment:
			b.WriteString(renderLines(fragmentStyle(seg.ColorIndex), seg.Value))
		case compose.SectionMarker:
			b.WriteString(markerStyle.Render(seg.Text()))
		default:
			b.WriteString(segment.Text())
		}
	}
	text := b.String()
	if strings.TrimSpace(text) == "" {
		text = helperStyle.Render("Select lines in a version and press enter to start your song.")
	}
	m.composition.SetContent(wordwrap.String(text, m.composition.Width))
}

func (m *model) handleStudioKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	k := m.keys
	switch {
	case key.Matches(msg, k.Close):
		if m.mode == modeHighlight {
			m.exitHighlight()
			m.setInfo("Highlight mode disabled.")
			return m, nil
		}
		m.closeStudio()
		return m, nil
	case key.Matches(msg, k.NextPane):
		m.setFocus(m.focus + 1)
	case key.Matches(msg, k.PrevPane):
		m.setFocus(m.focus - 1)
	case key.Matches(msg, k.Down):
		m.moveCursor(1)
	case key.Matches(msg, k.Up):
		m.moveCursor(-1)
	case key.Matches(msg, k.HalfDown):
		m.scrollFocused(1)
	case key.Matches(msg, k.HalfUp):
		m.scrollFocused(-1)
	case key.Matches(msg, k.Highlight):
		m.toggleHighlight()
	case key.Matches(msg, k.Add):
		m.addSelection()
	case key.Matches(msg, k.Drop):
		m.pushNotice(m.session.RemoveLastFragment())
		m.renderPanes()
		m.renderComposition()
	case key.Matches(msg, k.Copy):
		m.copySelection()
	case key.Matches(msg, k.Verse):
		m.insertSection(compose.Verse)
	case key.Matches(msg, k.Chorus):
		m.insertSection(compose.Chorus)
	case key.Matches(msg, k.Bridge):
		m.insertSection(compose.Bridge)
	case key.Matches(msg, k.AutoNumber):
		enabled := !m.session.AutoNumber()
		m.session.SetAutoNumber(enabled)
		m.setInfo(fmt.Sprintf("Auto numbering %s.", onOff(enabled)))
	case key.Matches(msg, k.Newline):
		m.session.AppendNewline()
		m.renderComposition()
		m.composition.GotoBottom()
	case key.Matches(msg, k.Edit):
		return m, m.startEdit()
	case key.Matches(msg, k.Save):
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		m.pushNotice(m.session.SaveNow(ctx))
		cancel()
	case key.Matches(msg, k.ToggleSync):
		c := m.session.Coordinator()
		c.SetEnabled(!c.Enabled())
		m.setInfo(fmt.Sprintf("Scroll sync %s.", onOff(c.Enabled())))
	case key.Matches(msg, k.CycleMode):
		c := m.session.Coordinator()
		c.SetMode(c.Mode().Next())
		m.setInfo(fmt.Sprintf("Sync mode: %s.", c.Mode()))
	case key.Matches(msg, k.Rhyme):
		return m, m.startAnalysis()
	case key.Matches(msg, k.Actions):
		m.openActions()
	case key.Matches(msg, k.Export):
		return m, m.startExport()
	case key.Matches(msg, k.Help):
		m.helpVisible = !m.helpVisible
	}
	return m, nil
}

func (m *model) toggleHighlight() {
	p := m.focusedPane()
	if p == nil {
		return
	}
	if m.mode == modeHighlight {
		m.exitHighlight()
		m.setInfo("Highlight mode disabled.")
		return
	}
	m.mode = modeHighlight
	p.selecting = true
	p.anchor = p.cursor
	m.renderPane(p)
	m.setInfo("Highlight mode: move with j/k, enter adds, y copies, esc cancels.")
}

func (m *model) exitHighlight() {
	m.mode = modeNormal
	if p := m.focusedPane(); p != nil {
		p.selecting = false
		m.renderPane(p)
	}
}

func (m *model) addSelection() {
	p := m.focusedPane()
	if p == nil {
		return
	}
	text, offset := p.selectedText()
	notice := m.session.AddSelection(p.id, text, offset)
	m.pushNotice(notice)
	if notice.Kind == studio.NoticeError {
		return
	}
	m.exitHighlight()
	m.renderComposition()
	m.composition.GotoBottom()
}

func (m *model) copySelection() {
	text := ""
	if p := m.focusedPane(); p != nil && m.mode == modeHighlight {
		text, _ = p.selectedText()
	}
	if strings.TrimSpace(text) == "" {
		text = m.session.Content()
	}
	if strings.TrimSpace(text) == "" {
		m.setError("Nothing to copy yet.")
		return
	}
	if err := m.config.Clipboard(text); err != nil {
		m.logger.Printf("[clipboard] copy failed: %v", err)
		m.setError(fmt.Sprintf("Copy failed: %v", err))
		return
	}
	m.setInfo("Copied to clipboard.")
}

func (m *model) insertSection(kind compose.SectionKind) {
	marker := m.session.InsertSection(kind)
	m.renderComposition()
	m.composition.GotoBottom()
	m.setInfo(fmt.Sprintf("Inserted %s.", marker.Text()))
}

func (m *model) startEdit() tea.Cmd {
	m.editor.SetValue(m.session.Content())
	m.stage = stageEdit
	m.setInfo("Editing composition. ctrl+s applies, esc cancels.")
	return m.editor.Focus()
}

func (m *model) handleEditKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.ApplyEdit):
		notice := m.session.Edit(m.editor.Value())
		m.pushNotice(notice)
		if notice.Kind == studio.NoticeError {
			return m, nil
		}
		m.editor.Blur()
		m.stage = stageStudio
		m.renderComposition()
		return m, nil
	case key.Matches(msg, m.keys.CancelEdit):
		m.editor.Blur()
		m.stage = stageStudio
		m.setInfo("Edit canceled.")
		return m, nil
	}
	var cmd tea.Cmd
	m.editor, cmd = m.editor.Update(msg)
	return m, cmd
}

func (m *model) startAnalysis() tea.Cmd {
	if m.config.LLM == nil {
		m.setError("Configure an LLM provider to analyze rhymes.")
		return nil
	}
	if m.analysisBusy {
		m.setInfo("Rhyme analysis already running…")
		return nil
	}
	lyrics, err := m.session.CombinedLyrics()
	if err != nil {
		m.setError(fmt.Sprintf("Cannot analyze: %v.", err))
		return nil
	}
	m.analysisBusy = true
	m.setInfo("Analyzing rhymes & meter…")
	return m.jobBus.Start(jobKindAnalyze, rhymeAnalysisJob(m.sessionSeq, m.config.LLM, lyrics))
}

func (m *model) openActions() {
	if m.config.LLM == nil {
		m.setError("Configure an LLM provider to use quick actions.")
		return
	}
	if strings.TrimSpace(m.session.Content()) == "" {
		m.setError("Add some lines to the composition first.")
		return
	}
	m.actionCursor = 0
	m.stage = stageActions
}

func (m *model) handleActionsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if m.actionCursor > 0 {
			m.actionCursor--
		}
	case "down", "j":
		if m.actionCursor < len(llm.Actions)-1 {
			m.actionCursor++
		}
	case "esc", "q":
		m.stage = stageStudio
	case "enter":
		if m.actionBusy {
			return m, nil
		}
		action := llm.Actions[m.actionCursor]
		content := m.session.Content()
		m.actionBusy = true
		m.action = action
		m.setInfo(fmt.Sprintf("%s…", action.Label()))
		return m, m.jobBus.Start(jobKindAction, quickActionJob(m.sessionSeq, m.config.LLM, action, content, content))
	}
	return m, nil
}

// handleActionResultKey applies or discards a quick action result. Summaries
// are read-only; rewrites replace the composition.
func (m *model) handleActionResultKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		if m.action == llm.ActionSummarize {
			m.setInfo("Summaries are read-only. Press y to copy.")
			return m, nil
		}
		m.session.Replace(m.actionResult)
		m.renderPanes()
		m.renderComposition()
		m.stage = stageStudio
		m.setInfo(fmt.Sprintf("%s applied.", m.action.Label()))
	case "y":
		if err := m.config.Clipboard(m.actionResult); err != nil {
			m.setError(fmt.Sprintf("Copy failed: %v", err))
			return m, nil
		}
		m.setInfo("Copied to clipboard.")
	case "esc", "q":
		m.stage = stageStudio
		m.setInfo("Result discarded.")
	}
	return m, nil
}

func (m *model) startExport() tea.Cmd {
	content := m.session.Content()
	if strings.TrimSpace(content) == "" {
		m.setError("Nothing to export yet.")
		return nil
	}
	req := exportRequest{
		path:     m.config.LibraryPath,
		title:    compositionTitle(content),
		content:  content,
		sources:  m.session.PaneIDs(),
		analysis: m.analysis,
	}
	if m.config.LLM != nil && m.analysis != nil {
		req.provider = m.config.LLM.Name()
	}
	m.setInfo("Exporting composition…")
	return m.jobBus.Start(jobKindExport, exportJob(req))
}

func onOff(enabled bool) string {
	if enabled {
		return "on"
	}
	return "off"
}
