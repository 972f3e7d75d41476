package notes

import "time"

// ExportRecord remembers which versions a composition was assembled from.
type ExportRecord struct {
	EntryType  string           `json:"entryType"`
	NoteID     string           `json:"noteId"`
	Title      string           `json:"title"`
	SourceIDs  []string         `json:"sourceIds"`
	ExportedAt time.Time        `json:"exportedAt"`
	Analysis   *AnalysisSummary `json:"analysis,omitempty"`
	LLM        *LLMMetadata     `json:"llm,omitempty"`
}

// AnalysisSummary keeps the headline figures of the last rhyme analysis.
type AnalysisSummary struct {
	TotalLines   int    `json:"totalLines"`
	RhymedLines  int    `json:"rhymedLines"`
	RhymeScheme  string `json:"rhymeScheme,omitempty"`
	MeterPattern string `json:"meterPattern,omitempty"`
}

// LLMMetadata captures the LLM provider used for the analysis.
type LLMMetadata struct {
	Provider string `json:"provider,omitempty"`
}

// Composition turns a finished composition into a lyric note plus the record
// linking it back to its source versions.
func Composition(title, content string, sources []string, now time.Time) (Note, ExportRecord) {
	note := New(title, content, TypeLyric, now)
	note.Tags = []string{"composition"}
	return note, ExportRecord{
		EntryType:  entryTypeExport,
		NoteID:     note.ID,
		Title:      note.Title,
		SourceIDs:  append([]string(nil), sources...),
		ExportedAt: now,
	}
}
