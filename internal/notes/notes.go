package notes

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

// NoteType distinguishes plain notes from lyric versions.
type NoteType string

const (
	TypeText  NoteType = "text"
	TypeLyric NoteType = "lyric"
)

// Note is one entry of the lyric library. Each lyric note is a version that
// can be opened as a source pane.
type Note struct {
	ID               string    `json:"id"`
	Title            string    `json:"title"`
	Content          string    `json:"content"`
	Type             NoteType  `json:"type,omitempty"`
	UserNotes        string    `json:"userNotes,omitempty"`
	MusicDescription string    `json:"musicDescription,omitempty"`
	Tags             []string  `json:"tags,omitempty"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// New builds a note stamped with a fresh id and the given time.
func New(title, content string, kind NoteType, now time.Time) Note {
	title = strings.TrimSpace(title)
	if title == "" {
		title = firstLine(content)
	}
	return Note{
		ID:        NewID(),
		Title:     title,
		Content:   content,
		Type:      kind,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// NewID returns a random 16 character hex id.
func NewID() string {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return fmt.Sprintf("%016x", time.Now().UnixNano())
	}
	return hex.EncodeToString(b[:])
}

func (n Note) IsLyric() bool {
	return n.Type == TypeLyric
}

// Find returns the note with id.
func Find(notes []Note, id string) (Note, bool) {
	for _, note := range notes {
		if note.ID == id {
			return note, true
		}
	}
	return Note{}, false
}

// Lyrics returns the lyric notes, or every note when none is typed as a lyric.
func Lyrics(notes []Note) []Note {
	var lyrics []Note
	for _, note := range notes {
		if note.IsLyric() {
			lyrics = append(lyrics, note)
		}
	}
	if len(lyrics) == 0 {
		return notes
	}
	return lyrics
}

func firstLine(text string) string {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "[") {
			continue
		}
		if runes := []rune(line); len(runes) > 60 {
			line = string(runes[:60])
		}
		return line
	}
	return "Untitled"
}
