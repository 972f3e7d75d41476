package tui

import (
	"fmt"
	"strings"
)

type pageLayout struct {
	windowWidth       int
	windowHeight      int
	columns           int
	rows              int
	paneWidth         int
	paneHeight        int
	compositionWidth  int
	compositionHeight int
}

func newPageLayout() pageLayout {
	l := pageLayout{}
	l.Update(100, 32, 1)
	return l
}

// Update sizes the pane grid and composition panel. One or two panes sit side
// by side; three or four form a 2x2 grid.
func (l *pageLayout) Update(width, height, panes int) {
	l.windowWidth = width
	l.windowHeight = height
	if panes < 1 {
		panes = 1
	}
	l.columns, l.rows = panes, 1
	if panes > 2 {
		l.columns, l.rows = 2, 2
	}
	inner := width - horizontalPadding
	if inner < minPaneWidth*l.columns {
		inner = minPaneWidth * l.columns
	}
	const boxChrome = 2
	const paneChrome = 3
	l.paneWidth = inner/l.columns - boxChrome
	l.compositionWidth = inner - boxChrome

	const chrome = 3
	usable := height - chrome
	if usable < 16 {
		usable = 16
	}
	grid := usable * 3 / 5
	l.paneHeight = grid/l.rows - paneChrome
	if l.paneHeight < minPaneHeight {
		l.paneHeight = minPaneHeight
	}
	l.compositionHeight = usable - grid - paneChrome
	if l.compositionHeight < minPaneHeight {
		l.compositionHeight = minPaneHeight
	}
}

func joinNonEmpty(parts []string) string {
	filtered := make([]string, 0, len(parts))
	for _, part := range parts {
		if strings.TrimSpace(part) == "" {
			continue
		}
		filtered = append(filtered, part)
	}
	return strings.Join(filtered, "\n")
}

func trimmedTitle(value string, limit int) string {
	value = strings.TrimSpace(value)
	runes := []rune(value)
	if len(runes) <= limit {
		return value
	}
	return fmt.Sprintf("%s…", strings.TrimSpace(string(runes[:limit-1])))
}

func splitLinesPreserve(content string) []string {
	if content == "" {
		return []string{""}
	}
	return strings.Split(content, "\n")
}

// lineOffset returns the byte offset where line starts in content.
func lineOffset(content string, line int) int {
	offset := 0
	for i, text := range strings.Split(content, "\n") {
		if i == line {
			return offset
		}
		offset += len(text) + 1
	}
	return len(content)
}
