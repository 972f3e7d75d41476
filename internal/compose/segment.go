// Package compose holds the composition buffer: an ordered list of plain
// text, provenance-tagged fragments, and section markers.
package compose

import "strconv"

// SectionKind labels a structural marker.
type SectionKind string

const (
	Verse  SectionKind = "VERSE"
	Chorus SectionKind = "CHORUS"
	Bridge SectionKind = "BRIDGE"
)

// Segment is one piece of the buffer. The concrete types are PlainText,
// Fragment and SectionMarker.
type Segment interface {
	Text() string
	segment()
}

// PlainText is freely editable text.
type PlainText struct {
	Value string
}

// Fragment is text pulled from a source pane. It is atomic: it can be removed
// as a whole but never partially edited.
type Fragment struct {
	Value      string
	SourceID   string
	ColorIndex int
}

// SectionMarker renders as "[KIND n]", or "[KIND]" when Number is zero.
type SectionMarker struct {
	Kind   SectionKind
	Number int
}

func (p PlainText) Text() string { return p.Value }
func (f Fragment) Text() string  { return f.Value }

func (m SectionMarker) Text() string {
	if m.Number <= 0 {
		return "[" + string(m.Kind) + "]"
	}
	return "[" + string(m.Kind) + " " + strconv.Itoa(m.Number) + "]"
}

func (PlainText) segment()     {}
func (Fragment) segment()      {}
func (SectionMarker) segment() {}
