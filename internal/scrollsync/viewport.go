package scrollsync

import (
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	"github.com/muesli/reflow/wordwrap"
)

// ViewportSurface adapts a bubbles viewport to the Surface capability set.
// Offsets are measured in terminal lines.
type ViewportSurface struct {
	vp       *viewport.Model
	blocks   []float64
	detached bool
}

// NewViewportSurface wraps vp. The caller keeps ownership of the model and
// must not copy it while the surface is registered.
func NewViewportSurface(vp *viewport.Model) *ViewportSurface {
	return &ViewportSurface{vp: vp}
}

// SetContent lays out content at the viewport width and records where each
// block starts.
func (s *ViewportSurface) SetContent(content string) Layout {
	if s.vp == nil {
		return Layout{}
	}
	layout := Wrap(content, s.vp.Width)
	s.blocks = layout.Blocks
	s.vp.SetContent(layout.Text)
	return layout
}

// Detach marks the surface stale so the coordinator skips it.
func (s *ViewportSurface) Detach() {
	s.detached = true
}

func (s *ViewportSurface) Metrics() (Metrics, error) {
	if s.detached || s.vp == nil {
		return Metrics{}, ErrDetached
	}
	return Metrics{
		ScrollTop:    float64(s.vp.YOffset),
		ScrollHeight: float64(s.vp.TotalLineCount()),
		ClientHeight: float64(s.vp.Height),
	}, nil
}

func (s *ViewportSurface) ScrollTo(top float64) error {
	if s.detached || s.vp == nil {
		return ErrDetached
	}
	s.vp.SetYOffset(int(math.Round(top)))
	return nil
}

func (s *ViewportSurface) Blocks() ([]float64, error) {
	if s.detached || s.vp == nil {
		return nil, ErrDetached
	}
	return append([]float64(nil), s.blocks...), nil
}

var ansiSequence = regexp.MustCompile(`\x1b\[[0-9;]*[A-Za-z]`)

// Layout is content wrapped for a fixed width.
type Layout struct {
	Text string
	// Blocks holds the wrapped-line offset of each non-blank source line.
	Blocks []float64
	// LineStarts maps each source line to its first wrapped line.
	LineStarts []int
	Lines      int
}

// SourceLine returns the source line that wrapped line belongs to.
func (l Layout) SourceLine(wrapped int) int {
	idx := sort.SearchInts(l.LineStarts, wrapped+1) - 1
	if idx < 0 {
		return 0
	}
	return idx
}

// Wrap lays out content line by line at width. Every non-blank source line
// starts a block; continuation lines produced by wrapping do not.
func Wrap(content string, width int) Layout {
	if content == "" {
		return Layout{}
	}
	var (
		out    strings.Builder
		layout Layout
		line   int
	)
	for i, source := range strings.Split(content, "\n") {
		if i > 0 {
			out.WriteRune('\n')
		}
		layout.LineStarts = append(layout.LineStarts, line)
		if strings.TrimSpace(ansiSequence.ReplaceAllString(source, "")) != "" {
			layout.Blocks = append(layout.Blocks, float64(line))
		}
		wrapped := source
		if width > 0 {
			wrapped = wordwrap.String(source, width)
		}
		out.WriteString(wrapped)
		line += strings.Count(wrapped, "\n") + 1
	}
	layout.Text = out.String()
	layout.Lines = line
	return layout
}
