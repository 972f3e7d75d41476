package notes

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const (
	entryTypeExport = "export"
	entryTypeNote   = "note"
)

// ErrNotFound reports an id missing from the library.
var ErrNotFound = errors.New("note not found")

type entryHeader struct {
	EntryType string `json:"entryType"`
}

// Save appends notes to the library file, creating it if necessary.
func Save(path string, newNotes []Note) error {
	if len(newNotes) == 0 {
		return nil
	}
	entries := make([]json.RawMessage, 0, len(newNotes))
	for _, note := range newNotes {
		raw, err := json.Marshal(note)
		if err != nil {
			return err
		}
		entries = append(entries, raw)
	}
	return appendEntries(path, entries)
}

// SaveExport appends an exported composition note and its record in one write.
func SaveExport(path string, note Note, record ExportRecord) error {
	record.EntryType = entryTypeExport
	rawNote, err := json.Marshal(note)
	if err != nil {
		return err
	}
	rawRecord, err := json.Marshal(record)
	if err != nil {
		return err
	}
	return appendEntries(path, []json.RawMessage{rawNote, rawRecord})
}

// Update replaces the stored note with the same id and bumps UpdatedAt.
func Update(path string, note Note) error {
	entries, err := loadEntries(path)
	if err != nil {
		return err
	}
	for i, raw := range entries {
		entryType, err := detectEntryType(raw)
		if err != nil {
			return err
		}
		if entryType != entryTypeNote {
			continue
		}
		var existing Note
		if err := json.Unmarshal(raw, &existing); err != nil {
			return err
		}
		if existing.ID != note.ID {
			continue
		}
		note.CreatedAt = existing.CreatedAt
		note.UpdatedAt = time.Now()
		raw, err = json.Marshal(note)
		if err != nil {
			return err
		}
		entries[i] = raw
		return writeEntries(path, entries)
	}
	return fmt.Errorf("update %s: %w", note.ID, ErrNotFound)
}

// Load returns all stored notes from the library.
func Load(path string) ([]Note, error) {
	entries, err := loadEntries(path)
	if err != nil {
		return nil, err
	}

	notes := make([]Note, 0, len(entries))
	for _, raw := range entries {
		entryType, err := detectEntryType(raw)
		if err != nil {
			return nil, err
		}
		if entryType != entryTypeNote {
			continue
		}
		var note Note
		if err := json.Unmarshal(raw, &note); err != nil {
			return nil, err
		}
		notes = append(notes, note)
	}
	return notes, nil
}

// LoadExports returns the export records in the library.
func LoadExports(path string) ([]ExportRecord, error) {
	entries, err := loadEntries(path)
	if err != nil {
		return nil, err
	}

	records := make([]ExportRecord, 0)
	for _, raw := range entries {
		entryType, err := detectEntryType(raw)
		if err != nil {
			return nil, err
		}
		if entryType != entryTypeExport {
			continue
		}
		var record ExportRecord
		if err := json.Unmarshal(raw, &record); err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}

func appendEntries(path string, newEntries []json.RawMessage) error {
	if len(newEntries) == 0 {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	entries, err := loadEntries(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return err
		}
		entries = nil
	}
	entries = append(entries, newEntries...)
	return writeEntries(path, entries)
}

func writeEntries(path string, entries []json.RawMessage) error {
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}
	tmp := path + ".part"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func loadEntries(path string) ([]json.RawMessage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	var entries []json.RawMessage
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse library %s: %w", path, err)
	}
	return entries, nil
}

func detectEntryType(raw json.RawMessage) (string, error) {
	var header entryHeader
	if err := json.Unmarshal(raw, &header); err != nil {
		return "", err
	}
	if header.EntryType == "" {
		return entryTypeNote, nil
	}
	return header.EntryType, nil
}
