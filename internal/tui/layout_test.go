package tui

import "testing"

func TestPageLayoutUpdate(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name                  string
		width, height, panes  int
		columns, rows         int
		paneWidth, paneHeight int
		compWidth, compHeight int
	}{
		{name: "two side by side", width: 100, height: 40, panes: 2, columns: 2, rows: 1, paneWidth: 47, paneHeight: 19, compWidth: 96, compHeight: 12},
		{name: "grid of four", width: 100, height: 40, panes: 4, columns: 2, rows: 2, paneWidth: 47, paneHeight: 8, compWidth: 96, compHeight: 12},
		{name: "single", width: 100, height: 40, panes: 1, columns: 1, rows: 1, paneWidth: 96, paneHeight: 19, compWidth: 96, compHeight: 12},
		{name: "tiny terminal", width: 30, height: 10, panes: 3, columns: 2, rows: 2, paneWidth: 18, paneHeight: 3, compWidth: 38, compHeight: 4},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			var l pageLayout
			l.Update(tc.width, tc.height, tc.panes)
			if l.columns != tc.columns || l.rows != tc.rows {
				t.Fatalf("grid = %dx%d, want %dx%d", l.columns, l.rows, tc.columns, tc.rows)
			}
			if l.paneWidth != tc.paneWidth || l.paneHeight != tc.paneHeight {
				t.Fatalf("pane = %dx%d, want %dx%d", l.paneWidth, l.paneHeight, tc.paneWidth, tc.paneHeight)
			}
			if l.compositionWidth != tc.compWidth || l.compositionHeight != tc.compHeight {
				t.Fatalf("composition = %dx%d, want %dx%d", l.compositionWidth, l.compositionHeight, tc.compWidth, tc.compHeight)
			}
		})
	}
}

func TestLineOffset(t *testing.T) {
	t.Parallel()
	content := "one\ntwo\n\nfour"
	for line, want := range []int{0, 4, 8, 9} {
		if got := lineOffset(content, line); got != want {
			t.Fatalf("lineOffset(%d) = %d, want %d", line, got, want)
		}
	}
	if got := lineOffset(content, 10); got != len(content) {
		t.Fatalf("expected out of range line to map to the end, got %d", got)
	}
}

func TestTrimmedTitle(t *testing.T) {
	t.Parallel()
	if got := trimmedTitle("  short  ", 10); got != "short" {
		t.Fatalf("unexpected %q", got)
	}
	if got := trimmedTitle("a very long title indeed", 10); got != "a very lo…" {
		t.Fatalf("unexpected %q", got)
	}
}
