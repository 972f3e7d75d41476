package notes

import (
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/ledongthuc/pdf"
)

var (
	inlineWhitespace = regexp.MustCompile(`[ \t\f\v]+`)
	blankLineRuns    = regexp.MustCompile(`\n{3,}`)
)

// ImportPDF extracts the text of a lyric sheet into a new lyric note.
func ImportPDF(path, title string, now time.Time) (Note, error) {
	file, reader, err := pdf.Open(path)
	if err != nil {
		return Note{}, fmt.Errorf("failed to open pdf: %w", err)
	}
	defer file.Close()

	content, err := reader.GetPlainText()
	if err != nil {
		return Note{}, fmt.Errorf("failed to extract pdf text: %w", err)
	}

	var builder strings.Builder
	if _, err := io.Copy(&builder, content); err != nil {
		return Note{}, err
	}
	text := normalizeLyricText(builder.String())
	if text == "" {
		return Note{}, fmt.Errorf("pdf %s contains no extractable text", path)
	}
	return New(title, text, TypeLyric, now), nil
}

// normalizeLyricText tidies extracted text while keeping line breaks, which
// carry the structure of a lyric.
func normalizeLyricText(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(inlineWhitespace.ReplaceAllString(line, " "))
	}
	text = strings.Join(lines, "\n")
	text = blankLineRuns.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}
