package highlight

import (
	"fmt"
	"strings"
	"testing"
)

const twiceChorus = "first chorus line here\nsecond verse\nchorus line again"

func TestMarkConsumedWalksOccurrences(t *testing.T) {
	t.Parallel()

	tr := NewTracker()
	tr.SetContent("p1", twiceChorus)

	first, ok := tr.MarkConsumed("p1", "chorus line", 1)
	if !ok || first.Start != strings.Index(twiceChorus, "chorus line") {
		t.Fatalf("first mark = %+v, %v", first, ok)
	}
	second, ok := tr.MarkConsumed("p1", "chorus line", 1)
	if !ok || second.Start != strings.LastIndex(twiceChorus, "chorus line") {
		t.Fatalf("second mark should take the next free occurrence, got %+v, %v", second, ok)
	}
	if _, ok := tr.MarkConsumed("p1", "chorus line", 1); ok {
		t.Fatal("third mark should be a no-op")
	}
	if got := len(tr.Spans("p1")); got != 2 {
		t.Fatalf("expected 2 spans, got %d", got)
	}
}

func TestMarkConsumedMissingTextIsNoop(t *testing.T) {
	t.Parallel()

	tr := NewTracker()
	tr.SetContent("p1", "nothing to see")
	if _, ok := tr.MarkConsumed("p1", "absent", 0); ok {
		t.Fatal("absent text should not mark")
	}
	if _, ok := tr.MarkConsumed("unknown", "nothing", 0); ok {
		t.Fatal("unknown pane should not mark")
	}
	pieces := tr.Highlighted("p1")
	if len(pieces) != 1 || pieces[0].Marked || pieces[0].Text != "nothing to see" {
		t.Fatalf("expected raw content fallback, got %+v", pieces)
	}
}

func TestMarkConsumedTreatsTextLiterally(t *testing.T) {
	t.Parallel()

	tr := NewTracker()
	tr.SetContent("p1", "price (x2) $5.00 [a+b]*")
	for _, text := range []string{"(x2)", "$5.00", "[a+b]*"} {
		if _, ok := tr.MarkConsumed("p1", text, 0); !ok {
			t.Fatalf("literal %q not found", text)
		}
	}
}

func TestMarkConsumedNearPrefersSelectionOffset(t *testing.T) {
	t.Parallel()

	tr := NewTracker()
	tr.SetContent("p1", twiceChorus)
	span, ok := tr.MarkConsumedNear("p1", "chorus line", 3, len(twiceChorus)-5)
	if !ok || span.Start != strings.LastIndex(twiceChorus, "chorus line") {
		t.Fatalf("expected the later occurrence, got %+v", span)
	}
	span, ok = tr.MarkConsumedNear("p1", "chorus line", 3, len(twiceChorus))
	if !ok || span.Start != strings.Index(twiceChorus, "chorus line") {
		t.Fatalf("expected the remaining earlier occurrence, got %+v", span)
	}
}

func TestRenderWrapsMarkedRuns(t *testing.T) {
	t.Parallel()

	tr := NewTracker()
	tr.SetContent("p1", "alpha beta\ngamma delta")
	tr.MarkConsumed("p1", "beta\ngamma", 2)

	got := tr.Render("p1", func(text string, color int) string {
		return fmt.Sprintf("<%d:%s>", color, text)
	})
	want := "alpha <2:beta>\n<2:gamma> delta"
	if got != want {
		t.Fatalf("render = %q, want %q", got, want)
	}
}

func TestSetContentResetsChangedPane(t *testing.T) {
	t.Parallel()

	tr := NewTracker()
	tr.SetContent("p1", "same text")
	tr.MarkConsumed("p1", "same", 0)
	tr.SetContent("p1", "same text")
	if len(tr.Spans("p1")) != 1 {
		t.Fatal("identical content should keep marks")
	}
	tr.SetContent("p1", "different text")
	if len(tr.Spans("p1")) != 0 {
		t.Fatal("changed content should drop marks")
	}

	tr.MarkConsumed("p1", "text", 0)
	tr.ResetAll()
	if len(tr.Spans("p1")) != 0 {
		t.Fatal("ResetAll should clear marks")
	}
	tr.Remove("p1")
	if tr.Content("p1") != "" || tr.Highlighted("p1") != nil {
		t.Fatal("removed pane should be gone")
	}
}

func TestReleaseUnmarksLastOccurrence(t *testing.T) {
	t.Parallel()

	tr := NewTracker()
	tr.SetContent("p1", "la la la")
	tr.MarkConsumed("p1", "la", 0)
	tr.MarkConsumed("p1", "la", 0)

	if !tr.Release("p1", "la") {
		t.Fatal("expected a span to be released")
	}
	spans := tr.Spans("p1")
	if len(spans) != 1 || spans[0].Start != 0 {
		t.Fatalf("unexpected spans %+v", spans)
	}
	if tr.Release("p1", "missing") || tr.Release("nope", "la") {
		t.Fatal("release of unknown text should report false")
	}
}
