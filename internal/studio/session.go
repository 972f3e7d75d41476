// Package studio ties the composition engine together into one session
// lifecycle: pane selection, synced scrolling, the composition buffer, source
// highlighting and autosave.
package studio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/csheth/versestudio/internal/compose"
	"github.com/csheth/versestudio/internal/highlight"
	"github.com/csheth/versestudio/internal/persist"
	"github.com/csheth/versestudio/internal/sched"
	"github.com/csheth/versestudio/internal/scrollsync"
)

// MaxPanes is the largest number of source panes open at once.
const MaxPanes = 4

const (
	DefaultAutosaveInterval = 30 * time.Second
	snapshotTimeout         = 5 * time.Second
	lyricSeparator          = "\n\n---\n\n"
)

var (
	ErrTooManyPanes = fmt.Errorf("at most %d versions can be selected", MaxPanes)
	ErrInactive     = errors.New("composition session is not active")
	ErrNoLyrics     = errors.New("selected versions contain no text")
	ErrNoSelection  = errors.New("select at least one version")
)

// NoticeKind classifies an advisory message.
type NoticeKind string

const (
	NoticeSuccess NoticeKind = "success"
	NoticeError   NoticeKind = "error"
)

// Notice is an advisory message for the user interface.
type Notice struct {
	Message string
	Kind    NoticeKind
}

func success(msg string) Notice { return Notice{Message: msg, Kind: NoticeSuccess} }
func failure(msg string) Notice { return Notice{Message: msg, Kind: NoticeError} }

// Pane is a source document shown next to the composition.
type Pane struct {
	ID         string
	Title      string
	Content    string
	ColorIndex int
}

// Options configures a Session. Zero values fall back to defaults.
type Options struct {
	Agent            *persist.Agent
	Scheduler        sched.Scheduler
	AutosaveInterval time.Duration
	SyncMode         scrollsync.Mode
	LineHeight       float64
	AutoNumber       bool
	Logger           *log.Logger
	// Resolve looks up a pane by id when a snapshot is restored.
	Resolve func(id string) (Pane, bool)
	// Notify receives notices raised outside a direct call, such as autosave.
	Notify func(Notice)
	// OnActiveChange forwards scroll indicator changes.
	OnActiveChange func(id string)
}

// Session is a composition session. It is either fully active or inactive.
type Session struct {
	mu sync.Mutex

	active     bool
	panes      []Pane
	autoNumber bool
	generation int

	buffer  *compose.Buffer
	tracker *highlight.Tracker
	sync    *scrollsync.Coordinator
	agent   *persist.Agent

	scheduler sched.Scheduler
	interval  time.Duration
	autosave  sched.Timer

	resolve func(string) (Pane, bool)
	notify  func(Notice)
	logger  *log.Logger
}

// New builds an inactive session.
func New(opts Options) *Session {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	scheduler := opts.Scheduler
	if scheduler == nil {
		scheduler = sched.Real{}
	}
	interval := opts.AutosaveInterval
	if interval <= 0 {
		interval = DefaultAutosaveInterval
	}
	return &Session{
		autoNumber: opts.AutoNumber,
		buffer:     compose.NewBuffer(),
		tracker:    highlight.NewTracker(),
		sync: scrollsync.New(scrollsync.Options{
			Mode:           opts.SyncMode,
			LineHeight:     opts.LineHeight,
			Scheduler:      scheduler,
			Logger:         logger,
			OnActiveChange: opts.OnActiveChange,
		}),
		agent:     opts.Agent,
		scheduler: scheduler,
		interval:  interval,
		resolve:   opts.Resolve,
		notify:    opts.Notify,
		logger:    logger,
	}
}

func (s *Session) Buffer() *compose.Buffer               { return s.buffer }
func (s *Session) Tracker() *highlight.Tracker           { return s.tracker }
func (s *Session) Coordinator() *scrollsync.Coordinator { return s.sync }

// Active reports whether the session is open.
func (s *Session) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Open activates the session. The stored snapshot is restored exactly once,
// before any other change to the buffer; a restored snapshot replaces the
// current selection with its pane list. The returned notice is empty when
// nothing was restored.
func (s *Session) Open(ctx context.Context) (Notice, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active {
		return Notice{}, false
	}
	s.active = true
	s.generation++

	snap := s.agent.Restore(ctx)
	restored := false
	var notice Notice
	if snap != nil {
		s.buffer.SetContent(snap.Content)
		notice = success("Composition restored from autosave")
		if s.resolve != nil {
			var panes []Pane
			for _, id := range snap.SelectedNotes {
				if len(panes) == MaxPanes {
					break
				}
				if pane, ok := s.resolve(id); ok {
					panes = append(panes, pane)
				}
			}
			switch {
			case len(panes) > 0:
				for _, old := range s.panes {
					s.sync.Unregister(old.ID)
				}
				s.replacePanesLocked(panes)
			case len(snap.SelectedNotes) > 0:
				notice = failure("Composition restored, but its versions are gone from the library; keeping the current selection.")
			}
		}
		restored = true
		s.logger.Printf("[studio] restored snapshot from %s", snap.SavedAt().Format(time.RFC3339))
	}
	for _, pane := range s.panes {
		s.tracker.SetContent(pane.ID, pane.Content)
	}
	s.scheduleAutosaveLocked()
	return notice, restored
}

// Close ends the session: timers are cancelled, the snapshot slot is purged
// and the selection and composition are dropped.
func (s *Session) Close(ctx context.Context) {
	s.mu.Lock()
	if !s.active {
		s.mu.Unlock()
		return
	}
	s.active = false
	s.generation++
	if s.autosave != nil {
		s.autosave.Stop()
		s.autosave = nil
	}
	for _, pane := range s.panes {
		s.sync.Unregister(pane.ID)
		s.tracker.Remove(pane.ID)
	}
	s.panes = nil
	s.buffer.Clear()
	s.mu.Unlock()

	s.sync.Close()
	s.agent.Purge(ctx)
}

// Panes returns the selected panes with their color indexes.
func (s *Session) Panes() []Pane {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Pane(nil), s.panes...)
}

// PaneIDs returns the ids of the selected panes in order.
func (s *Session) PaneIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.paneIDsLocked()
}

// Toggle selects pane or, when already selected, deselects it. Selecting a
// fifth pane fails with ErrTooManyPanes.
func (s *Session) Toggle(pane Pane) (bool, Notice) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, existing := range s.panes {
		if existing.ID == pane.ID {
			next := append(append([]Pane(nil), s.panes[:i]...), s.panes[i+1:]...)
			s.sync.Unregister(pane.ID)
			s.tracker.Remove(pane.ID)
			s.replacePanesLocked(next)
			return false, Notice{}
		}
	}
	if len(s.panes) >= MaxPanes {
		return false, failure(fmt.Sprintf("You can select at most %d versions.", MaxPanes))
	}
	s.replacePanesLocked(append(append([]Pane(nil), s.panes...), pane))
	if s.active {
		s.tracker.SetContent(pane.ID, pane.Content)
	}
	return true, Notice{}
}

// UpdatePane refreshes the content of a selected pane, for example after the
// library changed on disk.
func (s *Session) UpdatePane(pane Pane) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, existing := range s.panes {
		if existing.ID == pane.ID {
			pane.ColorIndex = existing.ColorIndex
			s.panes[i] = pane
			if s.active {
				s.tracker.SetContent(pane.ID, pane.Content)
			}
			return true
		}
	}
	return false
}

// Attach registers the scroll surface of a selected pane.
func (s *Session) Attach(paneID string, surface scrollsync.Surface) {
	s.sync.Register(paneID, surface)
}

// Scroll forwards a scroll event from paneID to the coordinator.
func (s *Session) Scroll(paneID string) bool {
	if !s.Active() {
		return false
	}
	return s.sync.OnScroll(paneID)
}

// AddSelection appends selected text from paneID to the composition and marks
// it consumed in the pane. offset, when non-negative, is the byte position of
// the selection in the pane content and picks the nearest occurrence.
func (s *Session) AddSelection(paneID, text string, offset int) Notice {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active {
		return failure("Open the composition first.")
	}
	pane, ok := s.paneLocked(paneID)
	if !ok {
		return failure("Select text in one of the open versions.")
	}
	text = strings.TrimSpace(text)
	if !s.buffer.AppendFragment(text, pane.ID, pane.ColorIndex) {
		return failure("Select some text first.")
	}
	if offset >= 0 {
		s.tracker.MarkConsumedNear(pane.ID, text, pane.ColorIndex, offset)
	} else {
		s.tracker.MarkConsumed(pane.ID, text, pane.ColorIndex)
	}
	return success("Text added to composition")
}

// InsertSection appends a section marker. Bridges are never numbered.
func (s *Session) InsertSection(kind compose.SectionKind) compose.SectionMarker {
	s.mu.Lock()
	auto := s.autoNumber && kind != compose.Bridge
	s.mu.Unlock()
	return s.buffer.InsertSectionMarker(kind, auto)
}

func (s *Session) AppendNewline() {
	s.buffer.AppendNewline()
}

// SetAutoNumber toggles automatic verse and chorus numbering.
func (s *Session) SetAutoNumber(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.autoNumber = enabled
}

func (s *Session) AutoNumber() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.autoNumber
}

func (s *Session) Content() string {
	return s.buffer.Content()
}

func (s *Session) SetContent(text string) {
	s.buffer.SetContent(text)
}

// Edit applies an interactive edit of the composition. Lines added from a
// version can be deleted but not changed; such edits are refused.
func (s *Session) Edit(text string) Notice {
	if !s.Active() {
		return failure("Open the composition first.")
	}
	if err := s.buffer.Edit(text); err != nil {
		if errors.Is(err, compose.ErrPartialFragment) {
			return failure("Lines added from a version can only be removed whole (d drops the last one).")
		}
		return failure(fmt.Sprintf("Edit failed: %v", err))
	}
	return success("Composition updated.")
}

// Replace installs text as a new composition. Every fragment is dropped and
// the source panes lose their consumed marks.
func (s *Session) Replace(text string) {
	s.buffer.Replace(text)
	s.tracker.ResetAll()
}

// RemoveLastFragment deletes the most recently added fragment as a whole and
// releases its mark in the source pane.
func (s *Session) RemoveLastFragment() Notice {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active {
		return failure("Open the composition first.")
	}
	frag, ok := s.buffer.DeleteLastFragment()
	if !ok {
		return failure("No added lines to remove.")
	}
	s.tracker.Release(frag.SourceID, frag.Value)
	return success(fmt.Sprintf("Removed %q.", clip(frag.Value, 40)))
}

func clip(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit-1]) + "…"
}

// SaveNow snapshots the composition on demand.
func (s *Session) SaveNow(ctx context.Context) Notice {
	s.mu.Lock()
	if !s.active {
		s.mu.Unlock()
		return failure("Open the composition first.")
	}
	ids := s.paneIDsLocked()
	s.mu.Unlock()

	content := s.buffer.Content()
	if strings.TrimSpace(content) == "" {
		return failure("Nothing to save yet.")
	}
	if !s.agent.Snapshot(ctx, content, ids) {
		return failure("Autosave storage unavailable; composition kept in memory.")
	}
	return success("Composition saved")
}

// CombinedLyrics joins the contents of the selected panes for analysis.
func (s *Session) CombinedLyrics() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.panes) == 0 {
		return "", ErrNoSelection
	}
	parts := make([]string, 0, len(s.panes))
	for _, pane := range s.panes {
		parts = append(parts, pane.Content)
	}
	combined := strings.Join(parts, lyricSeparator)
	if strings.TrimSpace(strings.ReplaceAll(combined, strings.TrimSpace(lyricSeparator), "")) == "" {
		return "", ErrNoLyrics
	}
	return combined, nil
}

func (s *Session) scheduleAutosaveLocked() {
	if s.autosave != nil {
		s.autosave.Stop()
	}
	generation := s.generation
	s.autosave = s.scheduler.AfterFunc(s.interval, func() {
		s.autosaveTick(generation)
	})
}

func (s *Session) autosaveTick(generation int) {
	s.mu.Lock()
	if !s.active || s.generation != generation {
		s.mu.Unlock()
		return
	}
	ids := s.paneIDsLocked()
	s.scheduleAutosaveLocked()
	notify := s.notify
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), snapshotTimeout)
	defer cancel()
	if s.agent.Snapshot(ctx, s.buffer.Content(), ids) && notify != nil {
		notify(success("Composition autosaved"))
	}
}

func (s *Session) replacePanesLocked(panes []Pane) {
	for i := range panes {
		panes[i].ColorIndex = i
	}
	s.panes = panes
}

func (s *Session) paneLocked(id string) (Pane, bool) {
	for _, pane := range s.panes {
		if pane.ID == id {
			return pane, true
		}
	}
	return Pane{}, false
}

func (s *Session) paneIDsLocked() []string {
	ids := make([]string, 0, len(s.panes))
	for _, pane := range s.panes {
		ids = append(ids, pane.ID)
	}
	return ids
}
