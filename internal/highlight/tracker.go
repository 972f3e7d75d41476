// Package highlight records which parts of each source pane have already been
// pulled into the composition.
package highlight

import (
	"sort"
	"strings"
	"sync"
)

// Span is a consumed byte range [Start, End) of a pane's raw content.
type Span struct {
	Start      int
	End        int
	ColorIndex int
}

func (s Span) overlaps(start, end int) bool {
	return start < s.End && s.Start < end
}

// Piece is a run of pane content that is either plain or marked.
type Piece struct {
	Text       string
	Marked     bool
	ColorIndex int
}

type pane struct {
	content string
	spans   []Span
}

// Tracker keeps raw content plus consumed ranges per pane. The highlighted
// view is always derived; the raw content is never rewritten.
type Tracker struct {
	mu    sync.RWMutex
	panes map[string]*pane
}

func NewTracker() *Tracker {
	return &Tracker{panes: map[string]*pane{}}
}

// SetContent installs raw content for paneID. Consumed ranges survive only
// when the content is unchanged.
func (t *Tracker) SetContent(paneID, content string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if existing, ok := t.panes[paneID]; ok && existing.content == content {
		return
	}
	t.panes[paneID] = &pane{content: content}
}

// Remove forgets paneID.
func (t *Tracker) Remove(paneID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.panes, paneID)
}

// ResetAll drops the consumed ranges of every pane.
func (t *Tracker) ResetAll() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, p := range t.panes {
		p.spans = nil
	}
}

// Release unmarks the last consumed occurrence of text in paneID.
func (t *Tracker) Release(paneID, text string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	p, ok := t.panes[paneID]
	if !ok {
		return false
	}
	for i := len(p.spans) - 1; i >= 0; i-- {
		span := p.spans[i]
		if p.content[span.Start:span.End] == text {
			p.spans = append(p.spans[:i], p.spans[i+1:]...)
			return true
		}
	}
	return false
}

// MarkConsumed marks the first literal occurrence of text that does not
// overlap an already marked range. It reports false when no such occurrence
// exists.
func (t *Tracker) MarkConsumed(paneID, text string, colorIndex int) (Span, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	p, ok := t.panes[paneID]
	if !ok || text == "" {
		return Span{}, false
	}
	candidates := p.freeOccurrences(text)
	if len(candidates) == 0 {
		return Span{}, false
	}
	span := Span{Start: candidates[0], End: candidates[0] + len(text), ColorIndex: colorIndex}
	p.insert(span)
	return span, true
}

// MarkConsumedNear marks the free occurrence of text whose start is closest
// to offset. Ties go to the earlier occurrence.
func (t *Tracker) MarkConsumedNear(paneID, text string, colorIndex, offset int) (Span, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	p, ok := t.panes[paneID]
	if !ok || text == "" {
		return Span{}, false
	}
	candidates := p.freeOccurrences(text)
	if len(candidates) == 0 {
		return Span{}, false
	}
	best := candidates[0]
	for _, start := range candidates[1:] {
		if abs(start-offset) < abs(best-offset) {
			best = start
		}
	}
	span := Span{Start: best, End: best + len(text), ColorIndex: colorIndex}
	p.insert(span)
	return span, true
}

// Spans returns the consumed ranges of paneID sorted by start.
func (t *Tracker) Spans(paneID string) []Span {
	t.mu.RLock()
	defer t.mu.RUnlock()
	p, ok := t.panes[paneID]
	if !ok {
		return nil
	}
	return append([]Span(nil), p.spans...)
}

// Content returns the raw content of paneID.
func (t *Tracker) Content(paneID string) string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if p, ok := t.panes[paneID]; ok {
		return p.content
	}
	return ""
}

// Highlighted splits the pane content into plain and marked pieces. A pane
// without marks yields a single plain piece.
func (t *Tracker) Highlighted(paneID string) []Piece {
	t.mu.RLock()
	defer t.mu.RUnlock()
	p, ok := t.panes[paneID]
	if !ok {
		return nil
	}
	var pieces []Piece
	pos := 0
	for _, span := range p.spans {
		if span.Start > pos {
			pieces = append(pieces, Piece{Text: p.content[pos:span.Start]})
		}
		pieces = append(pieces, Piece{Text: p.content[span.Start:span.End], Marked: true, ColorIndex: span.ColorIndex})
		pos = span.End
	}
	if pos < len(p.content) || len(pieces) == 0 {
		pieces = append(pieces, Piece{Text: p.content[pos:]})
	}
	return pieces
}

// Render joins the highlighted pieces, passing marked runs through mark.
// Marked runs spanning several lines are marked line by line so line
// structure is preserved.
func (t *Tracker) Render(paneID string, mark func(text string, colorIndex int) string) string {
	pieces := t.Highlighted(paneID)
	var b strings.Builder
	for _, piece := range pieces {
		if !piece.Marked || mark == nil {
			b.WriteString(piece.Text)
			continue
		}
		for i, line := range strings.Split(piece.Text, "\n") {
			if i > 0 {
				b.WriteRune('\n')
			}
			if line != "" {
				b.WriteString(mark(line, piece.ColorIndex))
			}
		}
	}
	return b.String()
}

func (p *pane) freeOccurrences(text string) []int {
	var found []int
	pos := 0
	for pos <= len(p.content)-len(text) {
		idx := strings.Index(p.content[pos:], text)
		if idx < 0 {
			break
		}
		start := pos + idx
		end := start + len(text)
		if !p.overlapsAny(start, end) {
			found = append(found, start)
			pos = end
			continue
		}
		pos = start + 1
	}
	return found
}

func (p *pane) overlapsAny(start, end int) bool {
	for _, span := range p.spans {
		if span.overlaps(start, end) {
			return true
		}
	}
	return false
}

func (p *pane) insert(span Span) {
	p.spans = append(p.spans, span)
	sort.Slice(p.spans, func(i, j int) bool { return p.spans[i].Start < p.spans[j].Start })
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
