package compose

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
)

var (
	// ErrSegmentRange is returned when a segment index is out of bounds.
	ErrSegmentRange = errors.New("compose: segment index out of range")
	// ErrPartialFragment is returned when an edit changes only part of a
	// fragment.
	ErrPartialFragment = errors.New("compose: fragments can only be removed whole")
)

// Buffer accumulates composition text. The zero value is ready to use.
type Buffer struct {
	mu       sync.RWMutex
	segments []Segment
}

// NewBuffer returns an empty buffer.
func NewBuffer() *Buffer {
	return &Buffer{}
}

// AppendFragment appends trimmed text tagged with its source followed by a
// single space. Whitespace-only text is rejected and false is returned.
func (b *Buffer) AppendFragment(text, sourceID string, colorIndex int) bool {
	text = strings.TrimSpace(text)
	if text == "" {
		return false
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.segments = append(b.segments, Fragment{Value: text, SourceID: sourceID, ColorIndex: colorIndex})
	b.appendPlainLocked(" ")
	return true
}

// InsertSectionMarker appends a marker on its own line. With autoNumber the
// number is one more than the count of "[KIND " labels currently present, so
// it always reflects the literal content rather than a stored counter.
func (b *Buffer) InsertSectionMarker(kind SectionKind, autoNumber bool) SectionMarker {
	b.mu.Lock()
	defer b.mu.Unlock()
	marker := SectionMarker{Kind: kind}
	if autoNumber {
		marker.Number = strings.Count(b.contentLocked(), "["+string(kind)+" ") + 1
	}
	b.appendPlainLocked("\n\n")
	b.segments = append(b.segments, marker)
	b.appendPlainLocked("\n")
	return marker
}

// AppendNewline appends a single line break.
func (b *Buffer) AppendNewline() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.appendPlainLocked("\n")
}

// Content renders the buffer by concatenating every segment.
func (b *Buffer) Content() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.contentLocked()
}

// SetContent replaces the buffer with edited text. The edit is the span
// between the longest common prefix and suffix of the old and new content.
// Fragments outside that span are kept. Fragments inside it keep their
// provenance when their exact text is still present there, in order, and are
// removed whole otherwise. A fragment the edit cuts into is restored whole
// next to the inserted text. Section labels in free text become markers.
func (b *Buffer) SetContent(text string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.segments, _ = b.reconcileLocked(text)
}

// Edit is SetContent for interactive edits. An edit that cuts into a fragment
// fails with ErrPartialFragment and leaves the buffer unchanged.
func (b *Buffer) Edit(text string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	next, partial := b.reconcileLocked(text)
	if partial {
		return ErrPartialFragment
	}
	b.segments = next
	return nil
}

// Replace drops every fragment and installs text as free text.
func (b *Buffer) Replace(text string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.segments = appendParsed(nil, text)
}

// Clear drops all content and provenance.
func (b *Buffer) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.segments = nil
}

// Segments returns a copy of the segment list.
func (b *Buffer) Segments() []Segment {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]Segment(nil), b.segments...)
}

// Fragments returns every provenance-tagged fragment in order.
func (b *Buffer) Fragments() []Fragment {
	b.mu.RLock()
	defer b.mu.RUnlock()
	var out []Fragment
	for _, seg := range b.segments {
		if frag, ok := seg.(Fragment); ok {
			out = append(out, frag)
		}
	}
	return out
}

// DeleteSegment removes the segment at index as a whole.
func (b *Buffer) DeleteSegment(index int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.deleteSegmentLocked(index)
}

// DeleteLastFragment removes the most recently appended fragment.
func (b *Buffer) DeleteLastFragment() (Fragment, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := len(b.segments) - 1; i >= 0; i-- {
		if frag, ok := b.segments[i].(Fragment); ok {
			if err := b.deleteSegmentLocked(i); err != nil {
				return Fragment{}, false
			}
			return frag, true
		}
	}
	return Fragment{}, false
}

// Empty reports whether the rendered content is blank.
func (b *Buffer) Empty() bool {
	return strings.TrimSpace(b.Content()) == ""
}

func (b *Buffer) deleteSegmentLocked(index int) error {
	if index < 0 || index >= len(b.segments) {
		return fmt.Errorf("delete segment %d of %d: %w", index, len(b.segments), ErrSegmentRange)
	}
	b.segments = append(b.segments[:index], b.segments[index+1:]...)
	b.mergePlainLocked()
	return nil
}

// reconcileLocked maps text onto the current segments. The edited span is
// placed by growing the common prefix first, then the common suffix; the
// first placement that cuts no fragment wins. The second result reports a cut.
func (b *Buffer) reconcileLocked(text string) ([]Segment, bool) {
	old := b.contentLocked()
	if old == text {
		return append([]Segment(nil), b.segments...), false
	}
	prefix := commonPrefix(old, text)
	suffix := commonSuffix(old[prefix:], text[prefix:])
	next, partial := b.rebuildLocked(text, prefix, len(old)-suffix)
	if !partial {
		return next, false
	}
	suffix = commonSuffix(old, text)
	prefix = commonPrefix(old[:len(old)-suffix], text[:len(text)-suffix])
	if alt, altPartial := b.rebuildLocked(text, prefix, len(old)-suffix); !altPartial {
		return alt, false
	}
	return next, true
}

// rebuildLocked treats old[start:end] as replaced by the matching span of
// text.
func (b *Buffer) rebuildLocked(text string, start, end int) ([]Segment, bool) {
	type placed struct {
		frag Fragment
		at   int
	}
	delta := len(text) - len(b.contentLocked())
	var (
		kept        []placed
		inside      []Fragment
		left, right *Fragment
		from, to    = start, end
		pos         int
	)
	for _, seg := range b.segments {
		segStart := pos
		pos += len(seg.Text())
		frag, ok := seg.(Fragment)
		if !ok {
			continue
		}
		switch {
		case pos <= start:
			kept = append(kept, placed{frag: frag, at: segStart})
		case segStart >= end:
			kept = append(kept, placed{frag: frag, at: segStart + delta})
		case segStart < start:
			left, from = &frag, segStart
			to = max(to, pos)
		case pos > end:
			right, to = &frag, pos
		default:
			inside = append(inside, frag)
		}
	}

	var (
		next    []Segment
		pending strings.Builder
		cursor  int
	)
	push := func(frag Fragment) {
		next = appendParsed(next, pending.String())
		pending.Reset()
		next = append(next, frag)
	}
	i := 0
	for ; i < len(kept) && kept[i].at < from; i++ {
		pending.WriteString(text[cursor:kept[i].at])
		push(kept[i].frag)
		cursor = kept[i].at + len(kept[i].frag.Value)
	}
	pending.WriteString(text[cursor:from])
	if left != nil {
		push(*left)
	}
	middle := text[start : end+delta]
	local := 0
	for _, frag := range inside {
		idx := strings.Index(middle[local:], frag.Value)
		if idx < 0 {
			continue
		}
		pending.WriteString(middle[local : local+idx])
		push(frag)
		local += idx + len(frag.Value)
	}
	pending.WriteString(middle[local:])
	if right != nil {
		push(*right)
	}
	cursor = to + delta
	for ; i < len(kept); i++ {
		pending.WriteString(text[cursor:kept[i].at])
		push(kept[i].frag)
		cursor = kept[i].at + len(kept[i].frag.Value)
	}
	pending.WriteString(text[cursor:])
	return appendParsed(next, pending.String()), left != nil || right != nil
}

func commonPrefix(a, b string) int {
	n := min(len(a), len(b))
	i := 0
	for i < n && a[i] == b[i] {
		i++
	}
	return i
}

func commonSuffix(a, b string) int {
	n := min(len(a), len(b))
	i := 0
	for i < n && a[len(a)-1-i] == b[len(b)-1-i] {
		i++
	}
	return i
}

func (b *Buffer) contentLocked() string {
	var sb strings.Builder
	for _, seg := range b.segments {
		sb.WriteString(seg.Text())
	}
	return sb.String()
}

func (b *Buffer) appendPlainLocked(text string) {
	if n := len(b.segments); n > 0 {
		if last, ok := b.segments[n-1].(PlainText); ok {
			b.segments[n-1] = PlainText{Value: last.Value + text}
			return
		}
	}
	b.segments = append(b.segments, PlainText{Value: text})
}

func (b *Buffer) mergePlainLocked() {
	merged := b.segments[:0]
	for _, seg := range b.segments {
		if plain, ok := seg.(PlainText); ok {
			if plain.Value == "" {
				continue
			}
			if n := len(merged); n > 0 {
				if last, ok := merged[n-1].(PlainText); ok {
					merged[n-1] = PlainText{Value: last.Value + plain.Value}
					continue
				}
			}
		}
		merged = append(merged, seg)
	}
	b.segments = merged
}

var markerPattern = regexp.MustCompile(`\[(VERSE|CHORUS|BRIDGE)(?: ([1-9][0-9]*))?\]`)

func appendParsed(dst []Segment, text string) []Segment {
	if text == "" {
		return dst
	}
	pos := 0
	for _, loc := range markerPattern.FindAllStringSubmatchIndex(text, -1) {
		if loc[0] > pos {
			dst = appendPlain(dst, text[pos:loc[0]])
		}
		marker := SectionMarker{Kind: SectionKind(text[loc[2]:loc[3]])}
		if loc[4] >= 0 {
			n, err := strconv.Atoi(text[loc[4]:loc[5]])
			if err != nil {
				dst = appendPlain(dst, text[loc[0]:loc[1]])
				pos = loc[1]
				continue
			}
			marker.Number = n
		}
		dst = append(dst, marker)
		pos = loc[1]
	}
	if pos < len(text) {
		dst = appendPlain(dst, text[pos:])
	}
	return dst
}

func appendPlain(dst []Segment, text string) []Segment {
	if n := len(dst); n > 0 {
		if last, ok := dst[n-1].(PlainText); ok {
			dst[n-1] = PlainText{Value: last.Value + text}
			return dst
		}
	}
	return append(dst, PlainText{Value: text})
}
