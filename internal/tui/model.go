package tui

import (
	"context"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/csheth/versestudio/internal/llm"
	"github.com/csheth/versestudio/internal/notes"
	"github.com/csheth/versestudio/internal/persist"
	"github.com/csheth/versestudio/internal/sched"
	"github.com/csheth/versestudio/internal/scrollsync"
	"github.com/csheth/versestudio/internal/studio"
)

// Config wires runtime options into the TUI program.
type Config struct {
	LibraryPath string
	// LibraryChanges signals that the library file changed on disk.
	LibraryChanges   <-chan struct{}
	Agent            *persist.Agent
	LLM              llm.Client
	SyncMode         scrollsync.Mode
	LineHeight       float64
	AutosaveInterval time.Duration
	AutoNumber       bool
	Logger           *log.Logger
	// Scheduler overrides the event-loop scheduler, mainly for tests.
	Scheduler sched.Scheduler
	Clipboard func(string) error
}

type model struct {
	config Config
	stage  stage
	logger *log.Logger

	session   *studio.Session
	events    chan tea.Msg
	done      chan struct{}
	closeOnce sync.Once
	jobBus    *jobBus
	jobs      map[string]jobSnapshot

	keys    keyMap
	spinner spinner.Model
	layout  pageLayout
	width   int
	height  int

	library       []notes.Note
	libraryCursor int
	libraryLoaded bool

	panes        []*paneView
	focus        int
	mode         interactionMode
	activePane   string
	composition  viewport.Model
	editor       textarea.Model
	sessionSeq   int
	actionCursor int
	action       llm.Action
	actionResult string
	actionBusy   bool
	analysis     *llm.RhymeAnalysis
	analysisBusy bool

	infoMessage     string
	errorMessage    string
	noticeID        int
	noticeScheduled int
	helpVisible     bool
}

// New returns a tea.Model ready to be mounted into a Program.
func New(config Config) tea.Model {
	logger := config.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	if config.Clipboard == nil {
		config.Clipboard = clipboard.WriteAll
	}

	spin := spinner.New()
	spin.Spinner = spinner.Dot

	comp := viewport.New(80, 10)
	comp.MouseWheelEnabled = true

	editor := textarea.New()
	editor.Placeholder = "Write your song…"
	editor.CharLimit = 0
	editor.ShowLineNumbers = false

	m := &model{
		config:      config,
		stage:       stageLibrary,
		logger:      logger,
		done:        make(chan struct{}),
		jobBus:      newJobBus(logger),
		jobs:        map[string]jobSnapshot{},
		keys:        defaultKeyMap(),
		spinner:     spin,
		layout:      newPageLayout(),
		composition: comp,
		editor:      editor,
		infoMessage: "Loading your lyric library…",
	}

	scheduler := config.Scheduler
	if scheduler == nil {
		m.events = make(chan tea.Msg, eventBuffer)
		scheduler = loopScheduler{events: m.events, done: m.done}
	}
	m.session = studio.New(studio.Options{
		Agent:            config.Agent,
		Scheduler:        scheduler,
		AutosaveInterval: config.AutosaveInterval,
		SyncMode:         config.SyncMode,
		LineHeight:       config.LineHeight,
		AutoNumber:       config.AutoNumber,
		Logger:           logger,
		Resolve:          m.resolvePane,
		Notify:           m.pushNotice,
		OnActiveChange: func(id string) {
			m.activePane = id
		},
	})
	return m
}

func (m *model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		m.jobBus.Start(jobKindLibrary, loadLibraryJob(m.config.LibraryPath)),
		waitForLibraryChange(m.config.LibraryChanges),
	}
	if m.events != nil {
		cmds = append(cmds, waitForEvent(m.events))
	}
	return tea.Batch(cmds...)
}

// Update wraps the message handlers and arms expiry for fresh notices.
func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	next, cmd := m.update(msg)
	if m.noticeID != m.noticeScheduled {
		m.noticeScheduled = m.noticeID
		id := m.noticeID
		expire := tea.Tick(noticeTTL, func(time.Time) tea.Msg {
			return noticeExpiredMsg{id: id}
		})
		cmd = tea.Batch(cmd, expire)
	}
	return next, cmd
}

func (m *model) update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		if len(m.jobs) > 0 {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil
	case jobSignalMsg:
		m.jobs[msg.Snapshot.ID] = msg.Snapshot
		if len(m.jobs) == 1 {
			return m, m.spinner.Tick
		}
		return m, nil
	case jobResultEnvelope:
		delete(m.jobs, msg.Snapshot.ID)
		if msg.Payload == nil {
			return m, nil
		}
		return m.update(msg.Payload)
	case scheduledMsg:
		msg.timer.fire(msg.fn)
		return m, waitForEvent(m.events)
	case noticeExpiredMsg:
		if msg.id == m.noticeID {
			m.infoMessage = ""
			m.errorMessage = ""
		}
		return m, nil
	case libraryChangedMsg:
		m.logger.Printf("[library] %s changed on disk", m.config.LibraryPath)
		return m, tea.Batch(
			m.jobBus.Start(jobKindLibrary, loadLibraryJob(m.config.LibraryPath)),
			waitForLibraryChange(m.config.LibraryChanges),
		)
	case libraryLoadedMsg:
		return m.handleLibraryLoaded(msg)
	case analysisResultMsg:
		if msg.session != m.sessionSeq || !m.session.Active() {
			return m, nil
		}
		m.analysisBusy = false
		if msg.err != nil {
			m.setError(fmt.Sprintf("Rhyme analysis failed: %v", msg.err))
			if m.stage == stageAnalysis {
				m.stage = stageStudio
			}
			return m, nil
		}
		analysis := msg.analysis
		m.analysis = &analysis
		m.stage = stageAnalysis
		m.setInfo("Rhyme analysis ready.")
		return m, nil
	case actionResultMsg:
		if msg.session != m.sessionSeq || !m.session.Active() {
			return m, nil
		}
		m.actionBusy = false
		if msg.err != nil {
			m.stage = stageStudio
			m.setError(fmt.Sprintf("%s failed: %v", msg.action.Label(), msg.err))
			return m, nil
		}
		m.action = msg.action
		m.actionResult = msg.text
		m.stage = stageActionResult
		return m, nil
	case exportResultMsg:
		if msg.err != nil {
			m.setError(msg.err.Error())
			return m, nil
		}
		m.setInfo(fmt.Sprintf("Exported %q to %s", msg.note.Title, m.config.LibraryPath))
		return m, m.jobBus.Start(jobKindLibrary, loadLibraryJob(m.config.LibraryPath))
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.resize()
		return m, nil
	case tea.MouseMsg:
		return m.handleMouse(msg)
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			if m.session.Active() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				m.session.SaveNow(ctx)
				cancel()
			}
			m.shutdown()
			return m, tea.Quit
		}
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *model) handleKey(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.stage {
	case stageLibrary:
		return m.handleLibraryKey(key)
	case stageStudio:
		return m.handleStudioKey(key)
	case stageEdit:
		return m.handleEditKey(key)
	case stageActions:
		return m.handleActionsKey(key)
	case stageActionResult:
		return m.handleActionResultKey(key)
	case stageAnalysis:
		switch key.String() {
		case "esc", "q", "enter":
			m.stage = stageStudio
		}
		return m, nil
	default:
		return m, nil
	}
}

func (m *model) handleLibraryLoaded(msg libraryLoadedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.setError(fmt.Sprintf("Could not load library: %v", msg.err))
		return m, nil
	}
	m.library = msg.notes
	m.libraryLoaded = true
	if visible := notes.Lyrics(m.library); m.libraryCursor >= len(visible) {
		m.libraryCursor = max(len(visible)-1, 0)
	}
	if m.session.Active() {
		for _, p := range m.panes {
			note, ok := notes.Find(m.library, p.id)
			if !ok || note.Content == p.content {
				continue
			}
			m.session.UpdatePane(paneFromNote(note))
			p.title = note.Title
			p.content = note.Content
			m.renderPane(p)
		}
		return m, nil
	}
	if m.stage == stageLibrary && m.infoMessage == "Loading your lyric library…" {
		if len(m.library) == 0 {
			m.infoMessage = fmt.Sprintf("No lyrics in %s yet. Import one with `versestudio import`.", m.config.LibraryPath)
		} else {
			m.infoMessage = "Pick up to 4 versions with space, then press enter."
		}
	}
	return m, nil
}

func (m *model) handleLibraryKey(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	visible := notes.Lyrics(m.library)
	switch key.String() {
	case "up", "k":
		if m.libraryCursor > 0 {
			m.libraryCursor--
		}
	case "down", "j":
		if m.libraryCursor < len(visible)-1 {
			m.libraryCursor++
		}
	case " ":
		if len(visible) == 0 {
			return m, nil
		}
		note := visible[m.libraryCursor]
		selected, notice := m.session.Toggle(paneFromNote(note))
		if notice.Message != "" {
			m.pushNotice(notice)
			return m, nil
		}
		if selected {
			m.setInfo(fmt.Sprintf("Selected %q (%d/%d).", note.Title, len(m.session.PaneIDs()), studio.MaxPanes))
		} else {
			m.setInfo(fmt.Sprintf("Removed %q.", note.Title))
		}
	case "enter":
		return m.openStudio()
	case "r":
		return m, m.jobBus.Start(jobKindLibrary, loadLibraryJob(m.config.LibraryPath))
	case "?":
		m.helpVisible = !m.helpVisible
	case "q", "esc":
		m.shutdown()
		return m, tea.Quit
	}
	return m, nil
}

func (m *model) openStudio() (tea.Model, tea.Cmd) {
	if len(m.session.PaneIDs()) == 0 {
		m.setError("Select at least one version to start.")
		return m, nil
	}
	m.sessionSeq++
	m.analysis = nil
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	notice, restored := m.session.Open(ctx)
	cancel()
	m.stage = stageStudio
	m.mode = modeNormal
	m.focus = 0
	m.rebuildPanes()
	m.renderComposition()
	if restored {
		m.pushNotice(notice)
	} else {
		m.setInfo("Studio open. Move with j/k, select with v, add with enter.")
	}
	return m, nil
}

func (m *model) closeStudio() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	m.session.Close(ctx)
	cancel()
	for _, p := range m.panes {
		p.surface.Detach()
	}
	m.panes = nil
	m.analysis = nil
	m.actionBusy = false
	m.analysisBusy = false
	m.activePane = ""
	m.stage = stageLibrary
	m.mode = modeNormal
	m.setInfo("Studio closed. Pick versions to start again.")
}

func (m *model) resize() {
	m.layout.Update(m.width, m.height, len(m.panes))
	for _, p := range m.panes {
		p.viewport.Width = m.layout.paneWidth
		p.viewport.Height = m.layout.paneHeight
		m.renderPane(p)
	}
	m.composition.Width = m.layout.compositionWidth
	m.composition.Height = m.layout.compositionHeight
	m.editor.SetWidth(m.layout.compositionWidth)
	m.editor.SetHeight(m.layout.compositionHeight)
	if m.session.Active() {
		m.renderComposition()
	}
}

func (m *model) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if m.stage != stageStudio {
		return m, nil
	}
	p := m.focusedPane()
	if p == nil {
		var cmd tea.Cmd
		m.composition, cmd = m.composition.Update(msg)
		return m, cmd
	}
	before := p.viewport.YOffset
	var cmd tea.Cmd
	p.viewport, cmd = p.viewport.Update(msg)
	if p.viewport.YOffset != before {
		m.session.Scroll(p.id)
	}
	return m, cmd
}

func (m *model) resolvePane(id string) (studio.Pane, bool) {
	note, ok := notes.Find(m.library, id)
	if !ok {
		return studio.Pane{}, false
	}
	return paneFromNote(note), true
}

func paneFromNote(note notes.Note) studio.Pane {
	return studio.Pane{ID: note.ID, Title: note.Title, Content: note.Content}
}

func (m *model) pushNotice(notice studio.Notice) {
	if notice.Message == "" {
		return
	}
	if notice.Kind == studio.NoticeError {
		m.setError(notice.Message)
		return
	}
	m.setInfo(notice.Message)
}

func (m *model) setInfo(message string) {
	m.infoMessage = message
	m.errorMessage = ""
	m.noticeID++
}

func (m *model) setError(message string) {
	m.errorMessage = message
	m.infoMessage = ""
	m.noticeID++
}

// shutdown releases the scheduler goroutines. Safe to call more than once.
func (m *model) shutdown() {
	m.closeOnce.Do(func() {
		close(m.done)
	})
}
