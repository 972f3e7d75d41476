package scrollsync

import (
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/viewport"

	"github.com/csheth/versestudio/internal/sched"
)

type fakeSurface struct {
	metrics  Metrics
	blocks   []float64
	err      error
	writes   int
	onScroll func()
}

func (f *fakeSurface) Metrics() (Metrics, error) {
	if f.err != nil {
		return Metrics{}, f.err
	}
	return f.metrics, nil
}

func (f *fakeSurface) ScrollTo(top float64) error {
	if f.err != nil {
		return f.err
	}
	f.writes++
	f.metrics.ScrollTop = top
	if f.onScroll != nil {
		f.onScroll()
	}
	return nil
}

func (f *fakeSurface) Blocks() ([]float64, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.blocks, nil
}

func newTestCoordinator(t *testing.T, mode Mode) (*Coordinator, *sched.Manual) {
	t.Helper()
	clock := sched.NewManual()
	return New(Options{Mode: mode, Scheduler: clock}), clock
}

func approxEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestProportionalAlignsEveryOtherPane(t *testing.T) {
	t.Parallel()

	c, _ := newTestCoordinator(t, Proportional)
	a := &fakeSurface{metrics: Metrics{ScrollHeight: 1000, ClientHeight: 200}}
	b := &fakeSurface{metrics: Metrics{ScrollTop: 150, ScrollHeight: 500, ClientHeight: 200}}
	d := &fakeSurface{metrics: Metrics{ScrollHeight: 2400, ClientHeight: 400}}
	c.Register("a", a)
	c.Register("b", b)
	c.Register("d", d)

	if !c.OnScroll("b") {
		t.Fatal("expected propagation")
	}
	want := NormalizedPosition(b.metrics)
	for name, s := range map[string]*fakeSurface{"a": a, "d": d} {
		if got := NormalizedPosition(s.metrics); !approxEqual(got, want) {
			t.Fatalf("pane %s at %.4f, want %.4f", name, got, want)
		}
	}
	if b.writes != 0 {
		t.Fatalf("driving pane must not be written, got %d writes", b.writes)
	}
}

func TestProportionalWithoutOverflowScrollsToTop(t *testing.T) {
	t.Parallel()

	c, _ := newTestCoordinator(t, Proportional)
	short := &fakeSurface{metrics: Metrics{ScrollTop: 0, ScrollHeight: 100, ClientHeight: 300}}
	other := &fakeSurface{metrics: Metrics{ScrollTop: 90, ScrollHeight: 900, ClientHeight: 300}}
	c.Register("short", short)
	c.Register("other", other)

	c.OnScroll("short")
	if other.metrics.ScrollTop != 0 {
		t.Fatalf("expected top, got %.2f", other.metrics.ScrollTop)
	}
}

func TestProgrammaticScrollDoesNotCascade(t *testing.T) {
	t.Parallel()

	c, clock := newTestCoordinator(t, Proportional)
	a := &fakeSurface{metrics: Metrics{ScrollTop: 400, ScrollHeight: 1000, ClientHeight: 200}}
	b := &fakeSurface{metrics: Metrics{ScrollHeight: 600, ClientHeight: 200}}
	cascades := 0
	b.onScroll = func() {
		if c.OnScroll("b") {
			cascades++
		}
	}
	c.Register("a", a)
	c.Register("b", b)

	if !c.OnScroll("a") {
		t.Fatal("driving scroll should propagate")
	}
	if cascades != 0 {
		t.Fatalf("programmatic write triggered %d propagation cycles", cascades)
	}
	if a.writes != 0 {
		t.Fatalf("driving pane was rewritten %d times", a.writes)
	}
	if !c.isSuppressed() {
		t.Fatal("suppression window should still be open")
	}

	clock.Advance(DefaultSuppressionWindow)
	if c.isSuppressed() {
		t.Fatal("suppression should clear after the window")
	}
	b.onScroll = nil
	if !c.OnScroll("b") {
		t.Fatal("pane b should be able to drive once the window closed")
	}
}

func TestDrivingPaneKeepsPropagatingInsideWindow(t *testing.T) {
	t.Parallel()

	c, clock := newTestCoordinator(t, FixedLine)
	a := &fakeSurface{metrics: Metrics{ScrollTop: 48, ScrollHeight: 2000, ClientHeight: 200}}
	b := &fakeSurface{metrics: Metrics{ScrollHeight: 2000, ClientHeight: 200}}
	c.Register("a", a)
	c.Register("b", b)

	c.OnScroll("a")
	clock.Advance(30 * time.Millisecond)
	a.metrics.ScrollTop = 120
	if !c.OnScroll("a") {
		t.Fatal("same driving pane must still propagate")
	}
	if b.metrics.ScrollTop != 120 {
		t.Fatalf("b at %.0f, want 120", b.metrics.ScrollTop)
	}
	clock.Advance(30 * time.Millisecond)
	if !c.isSuppressed() {
		t.Fatal("second event should have extended the window")
	}
	clock.Advance(20 * time.Millisecond)
	if c.isSuppressed() {
		t.Fatal("window should have closed")
	}
}

func TestActiveIndicatorClears(t *testing.T) {
	t.Parallel()

	clock := sched.NewManual()
	var changes []string
	c := New(Options{Scheduler: clock, OnActiveChange: func(id string) { changes = append(changes, id) }})
	c.Register("a", &fakeSurface{metrics: Metrics{ScrollHeight: 10, ClientHeight: 5}})
	c.Register("b", &fakeSurface{metrics: Metrics{ScrollHeight: 10, ClientHeight: 5}})

	c.OnScroll("a")
	if c.Active() != "a" {
		t.Fatalf("active = %q, want a", c.Active())
	}
	clock.Advance(999 * time.Millisecond)
	if c.Active() != "a" {
		t.Fatal("indicator cleared too early")
	}
	clock.Advance(time.Millisecond)
	if c.Active() != "" {
		t.Fatalf("indicator not cleared, got %q", c.Active())
	}
	if len(changes) != 2 || changes[0] != "a" || changes[1] != "" {
		t.Fatalf("unexpected notifications: %v", changes)
	}
}

func TestDisabledCoordinatorIgnoresScroll(t *testing.T) {
	t.Parallel()

	c, _ := newTestCoordinator(t, Proportional)
	a := &fakeSurface{metrics: Metrics{ScrollTop: 100, ScrollHeight: 1000, ClientHeight: 100}}
	b := &fakeSurface{metrics: Metrics{ScrollHeight: 1000, ClientHeight: 100}}
	c.Register("a", a)
	c.Register("b", b)
	c.SetEnabled(false)

	if c.OnScroll("a") {
		t.Fatal("disabled coordinator should not propagate")
	}
	if b.writes != 0 || c.Active() != "" {
		t.Fatal("disabled coordinator touched state")
	}
	if c.OnScroll("missing") {
		t.Fatal("unknown pane should not propagate")
	}
}

func TestParagraphAnchorAlignsByOrdinal(t *testing.T) {
	t.Parallel()

	c, _ := newTestCoordinator(t, ParagraphAnchor)
	drive := &fakeSurface{
		metrics: Metrics{ScrollTop: 35, ScrollHeight: 400, ClientHeight: 50},
		blocks:  []float64{0, 10, 30, 40, 80},
	}
	long := &fakeSurface{metrics: Metrics{ScrollHeight: 400, ClientHeight: 50}, blocks: []float64{0, 20, 60, 100, 140}}
	short := &fakeSurface{metrics: Metrics{ScrollTop: 5, ScrollHeight: 400, ClientHeight: 50}, blocks: []float64{0, 20, 60}}
	c.Register("drive", drive)
	c.Register("long", long)
	c.Register("short", short)

	c.OnScroll("drive")
	if long.metrics.ScrollTop != 100 {
		t.Fatalf("long pane at %.0f, want block 3 at 100", long.metrics.ScrollTop)
	}
	if short.writes != 0 || short.metrics.ScrollTop != 5 {
		t.Fatal("pane with fewer blocks should be left alone")
	}
}

func TestParagraphAnchorDefaultsToFirstBlock(t *testing.T) {
	t.Parallel()

	c, _ := newTestCoordinator(t, ParagraphAnchor)
	drive := &fakeSurface{metrics: Metrics{ScrollTop: 500, ScrollHeight: 600, ClientHeight: 50}, blocks: []float64{0, 10}}
	other := &fakeSurface{metrics: Metrics{ScrollTop: 70, ScrollHeight: 600, ClientHeight: 50}, blocks: []float64{3, 90}}
	c.Register("drive", drive)
	c.Register("other", other)

	c.OnScroll("drive")
	if other.metrics.ScrollTop != 3 {
		t.Fatalf("expected first block, got %.0f", other.metrics.ScrollTop)
	}
}

func TestStaleSurfaceIsSkipped(t *testing.T) {
	t.Parallel()

	c, _ := newTestCoordinator(t, Proportional)
	drive := &fakeSurface{metrics: Metrics{ScrollTop: 50, ScrollHeight: 200, ClientHeight: 100}}
	stale := &fakeSurface{err: ErrDetached}
	healthy := &fakeSurface{metrics: Metrics{ScrollHeight: 300, ClientHeight: 100}}
	c.Register("drive", drive)
	c.Register("stale", stale)
	c.Register("healthy", healthy)

	if !c.OnScroll("drive") {
		t.Fatal("expected propagation despite stale pane")
	}
	if healthy.metrics.ScrollTop != 100 {
		t.Fatalf("healthy pane at %.0f, want 100", healthy.metrics.ScrollTop)
	}
}

func TestRegisterIsIdempotentAndUnregisterTolerant(t *testing.T) {
	t.Parallel()

	c, _ := newTestCoordinator(t, Proportional)
	first := &fakeSurface{}
	second := &fakeSurface{}
	c.Register("a", first)
	c.Register("a", second)
	c.Register("b", &fakeSurface{})
	if got := c.registered(); len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("unexpected registration order: %v", got)
	}
	c.Unregister("a")
	c.Unregister("a")
	c.Unregister("never")
	if got := c.registered(); len(got) != 1 || got[0] != "b" {
		t.Fatalf("unexpected panes after unregister: %v", got)
	}
}

func TestThreePaneEndToEnd(t *testing.T) {
	t.Parallel()

	c, clock := newTestCoordinator(t, Proportional)
	a := &fakeSurface{metrics: Metrics{ScrollHeight: 1200, ClientHeight: 200}}
	b := &fakeSurface{metrics: Metrics{ScrollHeight: 800, ClientHeight: 200}}
	d := &fakeSurface{metrics: Metrics{ScrollHeight: 3000, ClientHeight: 200}}
	c.Register("a", a)
	c.Register("b", b)
	c.Register("c", d)

	b.metrics.ScrollTop = 300
	c.OnScroll("b")
	for name, s := range map[string]*fakeSurface{"a": a, "c": d} {
		if got := NormalizedPosition(s.metrics); !approxEqual(got, 0.5) {
			t.Fatalf("pane %s at %.4f, want 0.5", name, got)
		}
	}

	clock.Advance(DefaultSuppressionWindow)
	c.SetMode(FixedLine)
	c.SetLineHeight(24)
	b.metrics.ScrollTop = 240
	c.OnScroll("b")
	if a.metrics.ScrollTop != 240 || d.metrics.ScrollTop != 240 {
		t.Fatalf("fixed-line positions a=%.0f c=%.0f, want 240", a.metrics.ScrollTop, d.metrics.ScrollTop)
	}
}

func TestCloseCancelsTimers(t *testing.T) {
	t.Parallel()

	c, clock := newTestCoordinator(t, Proportional)
	c.Register("a", &fakeSurface{})
	c.Register("b", &fakeSurface{})
	c.OnScroll("a")
	c.Close()
	if clock.Pending() != 0 {
		t.Fatalf("expected no pending timers, got %d", clock.Pending())
	}
	if c.Active() != "" || c.isSuppressed() {
		t.Fatal("close should reset transient state")
	}
}

func TestParseModeAndNext(t *testing.T) {
	t.Parallel()

	cases := map[string]Mode{
		"":                 Proportional,
		"percentage":       Proportional,
		"paragraph":        ParagraphAnchor,
		"fixed-line":       FixedLine,
		"paragraph-anchor": ParagraphAnchor,
	}
	for input, want := range cases {
		got, err := ParseMode(input)
		if err != nil || got != want {
			t.Fatalf("ParseMode(%q) = %v, %v", input, got, err)
		}
	}
	if _, err := ParseMode("diagonal"); err == nil {
		t.Fatal("expected error for unknown mode")
	}
	if FixedLine.Next() != Proportional || Proportional.Next() != ParagraphAnchor {
		t.Fatal("unexpected mode cycle")
	}
}

func TestViewportSurfaceReportsLines(t *testing.T) {
	t.Parallel()

	vp := viewport.New(40, 5)
	surface := NewViewportSurface(&vp)
	lines := make([]string, 0, 20)
	for i := 0; i < 10; i++ {
		lines = append(lines, "verse line", "")
	}
	surface.SetContent(strings.Join(lines, "\n"))

	m, err := surface.Metrics()
	if err != nil {
		t.Fatalf("metrics: %v", err)
	}
	if m.ScrollHeight != 20 || m.ClientHeight != 5 {
		t.Fatalf("unexpected metrics: %+v", m)
	}
	blocks, _ := surface.Blocks()
	if len(blocks) != 10 || blocks[1] != 2 {
		t.Fatalf("unexpected blocks: %v", blocks)
	}
	if err := surface.ScrollTo(7); err != nil {
		t.Fatalf("scroll: %v", err)
	}
	if vp.YOffset != 7 {
		t.Fatalf("YOffset = %d, want 7", vp.YOffset)
	}

	surface.Detach()
	if _, err := surface.Metrics(); !errors.Is(err, ErrDetached) {
		t.Fatalf("expected ErrDetached, got %v", err)
	}
}

func TestWrapBlocksSkipContinuations(t *testing.T) {
	t.Parallel()

	content := "short\n\nthis line is long enough to wrap around\nend"
	layout := Wrap(content, 12)
	wrapped, blocks := layout.Text, layout.Blocks
	if !strings.Contains(wrapped, "\n") {
		t.Fatal("expected wrapped output")
	}
	if len(blocks) != 3 {
		t.Fatalf("expected 3 blocks, got %v", blocks)
	}
	if blocks[0] != 0 || blocks[1] != 2 {
		t.Fatalf("unexpected offsets: %v", blocks)
	}
	lines := strings.Split(wrapped, "\n")
	if strings.TrimSpace(lines[int(blocks[2])]) != "end" {
		t.Fatalf("last block should point at 'end', got %q", lines[int(blocks[2])])
	}
}

func TestWrapMapsWrappedLinesToSource(t *testing.T) {
	t.Parallel()

	layout := Wrap("short\n\nthis line is long enough to wrap around\nend", 12)
	if len(layout.LineStarts) != 4 || layout.LineStarts[2] != 2 {
		t.Fatalf("unexpected line starts %v", layout.LineStarts)
	}
	last := layout.LineStarts[3]
	if layout.Lines != last+1 {
		t.Fatalf("expected %d wrapped lines, got %d", last+1, layout.Lines)
	}
	for wrapped := 2; wrapped < last; wrapped++ {
		if got := layout.SourceLine(wrapped); got != 2 {
			t.Fatalf("wrapped line %d maps to %d, want 2", wrapped, got)
		}
	}
	if layout.SourceLine(last) != 3 || layout.SourceLine(0) != 0 {
		t.Fatal("edge lines mapped incorrectly")
	}
}
