package llm

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

var whitespaceRe = regexp.MustCompile(`\s+`)

func clipText(text string, limit int) string {
	text = strings.TrimSpace(text)
	if limit <= 0 || len(text) <= limit {
		return text
	}
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit])
}

func buildRhymePrompt(lyrics string) string {
	return fmt.Sprintf(`You are an experienced lyricist and editor.
Analyze the rhyme and meter of the lyrics below. Versions are separated by lines containing only ---.
- stats: totalLines counts non-empty lyric lines, rhymedLines counts lines whose last word rhymes with another line, rhymeScheme is the dominant scheme such as AABB or ABAB.
- meter: pattern names the prevailing meter, syllables lists the syllable count of each line in order, suggestions gives up to 5 short tips for smoothing the rhythm.
- rhymes: one entry per rhymed line with the 1-based line number, its last word, and rhymeWith listing the words it rhymes with and the rhyme type (perfect|slant|assonance|consonance).
Return ONLY JSON formatted as {"stats":{"totalLines":0,"rhymedLines":0,"rhymeScheme":""},"meter":{"pattern":"","syllables":[0],"suggestions":[""]},"rhymes":[{"line":1,"word":"","rhymeWith":[{"word":"","type":""}]}]}.

Lyrics:
%s`, lyrics)
}

func buildActionPrompt(action Action, selected, full string) (string, error) {
	switch action {
	case ActionSummarize:
		var b strings.Builder
		b.WriteString("Summarize the following text as concisely as possible. Return ONLY the summary.\n\n")
		if full != "" {
			b.WriteString("Full lyric for context:\n")
			b.WriteString(full)
			b.WriteString("\n\n")
		}
		b.WriteString("Text to summarize:\n")
		b.WriteString(selected)
		return b.String(), nil
	case ActionFixGrammar:
		return "Fix every spelling and grammar mistake in the following text. Keep the meaning, line breaks and section labels. Return ONLY the corrected text.\n\nText to correct:\n" + selected, nil
	case ActionTranslateEN:
		return "Translate the following text into English, keeping line breaks. Return ONLY the translation.\n\nText to translate:\n" + selected, nil
	default:
		return "", fmt.Errorf("unknown action %q", action)
	}
}

func parseRhymeAnalysis(raw string) (RhymeAnalysis, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return RhymeAnalysis{}, fmt.Errorf("empty rhyme analysis response")
	}
	candidates := []string{raw}
	if start := strings.Index(raw, "{"); start >= 0 {
		if end := strings.LastIndex(raw, "}"); end > start {
			candidates = append(candidates, raw[start:end+1])
		}
	}
	for _, candidate := range candidates {
		var analysis RhymeAnalysis
		if err := json.Unmarshal([]byte(candidate), &analysis); err == nil {
			analysis = sanitizeRhymeAnalysis(analysis)
			if analysis.Stats.TotalLines > 0 || len(analysis.Rhymes) > 0 || analysis.Meter.Pattern != "" {
				return analysis, nil
			}
		}
		var wrapper struct {
			Analysis RhymeAnalysis `json:"analysis"`
		}
		if err := json.Unmarshal([]byte(candidate), &wrapper); err == nil {
			analysis := sanitizeRhymeAnalysis(wrapper.Analysis)
			if analysis.Stats.TotalLines > 0 || len(analysis.Rhymes) > 0 {
				return analysis, nil
			}
		}
	}
	return RhymeAnalysis{}, fmt.Errorf("unable to parse rhyme analysis payload")
}

func sanitizeRhymeAnalysis(a RhymeAnalysis) RhymeAnalysis {
	a.Stats.RhymeScheme = strings.TrimSpace(a.Stats.RhymeScheme)
	if a.Stats.RhymedLines > a.Stats.TotalLines && a.Stats.TotalLines > 0 {
		a.Stats.RhymedLines = a.Stats.TotalLines
	}
	a.Meter.Pattern = strings.TrimSpace(a.Meter.Pattern)
	a.Meter.Suggestions = sanitizeBullets(a.Meter.Suggestions)
	rhymes := make([]Rhyme, 0, len(a.Rhymes))
	for _, r := range a.Rhymes {
		r.Word = strings.TrimSpace(r.Word)
		if r.Word == "" || r.Line <= 0 {
			continue
		}
		pairs := r.RhymeWith[:0]
		for _, p := range r.RhymeWith {
			p.Word = strings.TrimSpace(p.Word)
			p.Type = strings.TrimSpace(p.Type)
			if p.Word != "" {
				pairs = append(pairs, p)
			}
		}
		r.RhymeWith = pairs
		rhymes = append(rhymes, r)
	}
	a.Rhymes = rhymes
	return a
}

func sanitizeBullets(items []string) []string {
	var cleaned []string
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		item = whitespaceRe.ReplaceAllString(item, " ")
		cleaned = append(cleaned, item)
	}
	return cleaned
}
