package notes

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func TestSaveAndLoadRoundTrip(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "lyrics.json")

	payload := []Note{
		{
			ID:               "v1",
			Title:            "Harbor Lights",
			Content:          "[VERSE]\nthe harbor lights are low",
			Type:             TypeLyric,
			MusicDescription: "slow 6/8, open D",
			Tags:             []string{"ballad"},
			CreatedAt:        fixedNow,
			UpdatedAt:        fixedNow,
		},
	}

	if err := Save(path, payload); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if diff := cmp.Diff(payload, got); diff != "" {
		t.Fatalf("unexpected notes payload (-want +got):\n%s", diff)
	}
}

func TestLoadSkipsExportRecords(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "lyrics.json")
	if err := Save(path, []Note{{ID: "a", Title: "A", Content: "one"}}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	note, record := Composition("", "[VERSE 1]\nnew lines here", []string{"a", "b"}, fixedNow)
	if note.Title != "new lines here" || !note.IsLyric() {
		t.Fatalf("unexpected composition note %+v", note)
	}
	if err := SaveExport(path, note, record); err != nil {
		t.Fatalf("SaveExport() error = %v", err)
	}

	notes, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(notes) != 2 || notes[1].ID != note.ID {
		t.Fatalf("expected source and exported note, got %#v", notes)
	}
	records, err := LoadExports(path)
	if err != nil {
		t.Fatalf("LoadExports() error = %v", err)
	}
	want := []string{"a", "b"}
	if len(records) != 1 || records[0].NoteID != note.ID || !cmp.Equal(records[0].SourceIDs, want) {
		t.Fatalf("unexpected export records %#v", records)
	}
}

func TestUpdateReplacesNote(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "lyrics.json")
	original := Note{ID: "a", Title: "A", Content: "one", CreatedAt: fixedNow, UpdatedAt: fixedNow}
	if err := Save(path, []Note{original, {ID: "b", Title: "B"}}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	edited := original
	edited.Content = "one, revised"
	edited.CreatedAt = time.Time{}
	if err := Update(path, edited); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	notes, _ := Load(path)
	if notes[0].Content != "one, revised" || !notes[0].CreatedAt.Equal(fixedNow) || !notes[0].UpdatedAt.After(fixedNow) {
		t.Fatalf("update not applied: %#v", notes[0])
	}
	if err := Update(path, Note{ID: "zzz"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestLoadMissingAndEmptyFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	if _, err := Load(filepath.Join(dir, "missing.json")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected ErrNotExist, got %v", err)
	}
	empty := filepath.Join(dir, "empty.json")
	if err := os.WriteFile(empty, []byte("  \n"), 0o644); err != nil {
		t.Fatal(err)
	}
	notes, err := Load(empty)
	if err != nil || len(notes) != 0 {
		t.Fatalf("empty library should load cleanly, got %v %v", notes, err)
	}
}

func TestLyricsFiltersByType(t *testing.T) {
	t.Parallel()

	all := []Note{{ID: "t", Type: TypeText}, {ID: "l", Type: TypeLyric}}
	if got := Lyrics(all); len(got) != 1 || got[0].ID != "l" {
		t.Fatalf("expected lyric only, got %#v", got)
	}
	plain := []Note{{ID: "t"}}
	if got := Lyrics(plain); len(got) != 1 {
		t.Fatalf("expected fallback to all notes, got %#v", got)
	}
	if _, ok := Find(all, "l"); !ok {
		t.Fatal("Find should locate note")
	}
}

func TestNormalizeLyricText(t *testing.T) {
	t.Parallel()

	raw := "  Verse   one\r\n\tline two \n\n\n\n\nChorus  "
	if got := normalizeLyricText(raw); got != "Verse one\nline two\n\nChorus" {
		t.Fatalf("normalizeLyricText = %q", got)
	}
}

func TestImportPDFRejectsNonPDF(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "sheet.pdf")
	if err := os.WriteFile(path, []byte("not a pdf"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := ImportPDF(path, "Sheet", fixedNow); err == nil {
		t.Fatal("expected error for invalid pdf")
	}
}

func TestWatcherSignalsLibraryWrites(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "lyrics.json")
	if err := Save(path, []Note{{ID: "a"}}); err != nil {
		t.Fatal(err)
	}
	w, err := NewWatcher(path)
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}
	if err := w.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer w.Stop()

	if err := os.WriteFile(filepath.Join(filepath.Dir(path), "other.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := Save(path, []Note{{ID: "b"}}); err != nil {
		t.Fatal(err)
	}
	select {
	case <-w.Changes():
	case <-time.After(5 * time.Second):
		t.Fatal("no change signalled")
	}
}

func TestWatcherStopClosesErrors(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "lyrics.json")
	w, err := NewWatcher(path)
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}
	if err := w.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := w.Stop(); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	select {
	case _, ok := <-w.Errors():
		if ok {
			t.Fatal("expected closed errors channel")
		}
	case <-time.After(time.Second):
		t.Fatal("errors channel left open")
	}
	if err := w.Stop(); err != nil {
		t.Fatalf("second Stop() error = %v", err)
	}
	if err := w.Start(); err == nil {
		t.Fatal("restart after Stop should fail")
	}
}
