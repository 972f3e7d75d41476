package tui

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/csheth/versestudio/internal/llm"
	"github.com/csheth/versestudio/internal/notes"
)

const (
	analysisTimeout = 3 * time.Minute
	actionTimeout   = 2 * time.Minute
)

func loadLibraryJob(path string) jobRunner {
	return func(ctx context.Context) (tea.Msg, error) {
		loaded, err := notes.Load(path)
		if errors.Is(err, fs.ErrNotExist) {
			err = nil
		}
		return libraryLoadedMsg{notes: loaded, err: err}, err
	}
}

func rhymeAnalysisJob(session int, client llm.Client, lyrics string) jobRunner {
	return func(ctx context.Context) (tea.Msg, error) {
		ctx, cancel := context.WithTimeout(ctx, analysisTimeout)
		defer cancel()
		analysis, err := client.AnalyzeRhyme(ctx, lyrics)
		return analysisResultMsg{session: session, analysis: analysis, err: err}, err
	}
}

func quickActionJob(session int, client llm.Client, action llm.Action, selected, full string) jobRunner {
	return func(ctx context.Context) (tea.Msg, error) {
		ctx, cancel := context.WithTimeout(ctx, actionTimeout)
		defer cancel()
		text, err := client.QuickAction(ctx, action, selected, full)
		return actionResultMsg{session: session, action: action, text: text, err: err}, err
	}
}

type exportRequest struct {
	path     string
	title    string
	content  string
	sources  []string
	analysis *llm.RhymeAnalysis
	provider string
}

func exportJob(req exportRequest) jobRunner {
	return func(ctx context.Context) (tea.Msg, error) {
		note, record := notes.Composition(req.title, req.content, req.sources, time.Now())
		if req.analysis != nil {
			record.Analysis = analysisSummary(*req.analysis)
		}
		if req.provider != "" {
			record.LLM = &notes.LLMMetadata{Provider: req.provider}
		}
		if err := notes.SaveExport(req.path, note, record); err != nil {
			err = fmt.Errorf("export composition: %w", err)
			return exportResultMsg{err: err}, err
		}
		return exportResultMsg{note: note}, nil
	}
}

func analysisSummary(analysis llm.RhymeAnalysis) *notes.AnalysisSummary {
	return &notes.AnalysisSummary{
		TotalLines:   analysis.Stats.TotalLines,
		RhymedLines:  analysis.Stats.RhymedLines,
		RhymeScheme:  analysis.Stats.RhymeScheme,
		MeterPattern: analysis.Meter.Pattern,
	}
}

// compositionTitle uses the first lyric line, skipping section markers.
func compositionTitle(content string) string {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "[") {
			continue
		}
		return trimmedTitle(line, 60)
	}
	return "Untitled composition"
}
