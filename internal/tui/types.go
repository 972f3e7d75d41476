package tui

import (
	"time"

	"github.com/csheth/versestudio/internal/llm"
	"github.com/csheth/versestudio/internal/notes"
)

type stage int

const (
	stageLibrary stage = iota
	stageStudio
	stageEdit
	stageActions
	stageActionResult
	stageAnalysis
)

const heroTagline = "Stitch the best lines of every draft into one song."

const (
	minPaneWidth      = 20
	minPaneHeight     = 3
	horizontalPadding = 2
	syllablePreview   = 20
	rhymePreview      = 10
	noticeTTL         = 4 * time.Second
	eventBuffer       = 64
)

type interactionMode int

const (
	modeNormal interactionMode = iota
	modeHighlight
)

type libraryLoadedMsg struct {
	notes []notes.Note
	err   error
}

type libraryChangedMsg struct{}

type analysisResultMsg struct {
	session  int
	analysis llm.RhymeAnalysis
	err      error
}

type actionResultMsg struct {
	session int
	action  llm.Action
	text    string
	err     error
}

type exportResultMsg struct {
	note notes.Note
	err  error
}

type noticeExpiredMsg struct {
	id int
}
