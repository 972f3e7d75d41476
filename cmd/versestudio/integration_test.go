package main

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/csheth/versestudio/internal/tuitest"
)

func TestStudioComposesFromTwoVersions(t *testing.T) {
	t.Parallel()

	cmdDir := moduleDir(t)
	binary := buildBinary(t, cmdDir)
	work := t.TempDir()
	library := copyFixture(t, cmdDir, work)

	rec, err := tuitest.Run(context.Background(), tuitest.Config{
		Command: []string{
			binary, "--no-alt-screen",
			"--library", library,
			"--store", "memory",
			"--log-file", filepath.Join(work, "versestudio.log"),
		},
		Dir:    work,
		Env:    isolatedEnv(work),
		Width:  110,
		Height: 40,
		Steps: tuitest.Script(
			[]tuitest.Step{tuitest.Wait(time.Second)},
			tuitest.Keys(tuitest.KeySpace, "j", tuitest.KeySpace, tuitest.KeyEnter),
			[]tuitest.Step{tuitest.Wait(500 * time.Millisecond)},
			tuitest.Keys("1", "j", "v", "j", tuitest.KeyEnter, "?"),
			[]tuitest.Step{tuitest.Wait(500 * time.Millisecond)},
			tuitest.Keys(tuitest.KeyCtrlC),
		),
		Timeout:        10 * time.Second,
		AllowInterrupt: true,
	})
	if err != nil {
		t.Fatalf("run CLI: %v", err)
	}

	for _, want := range []string{"Lyric Library", "Morning draft", "Night draft", "Composition", "[VERSE 1]", "sun on the river", "Sync proportional"} {
		if !rec.Contains(want) {
			final, _ := rec.FinalFrame()
			t.Fatalf("expected %q on screen; final frame:\n%s", want, final.Plain)
		}
	}
}

func TestSnapshotCommands(t *testing.T) {
	t.Parallel()

	cmdDir := moduleDir(t)
	binary := buildBinary(t, cmdDir)
	work := t.TempDir()
	stateDir := filepath.Join(work, "state")
	snapshot := `{"content":"[VERSE 1]\nsun on the river ","selectedNotes":["morning-draft"],"timestamp":1714554000000}`
	if err := os.MkdirAll(stateDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(stateDir, "songwriter_composition_autosave.json"), []byte(snapshot), 0o644); err != nil {
		t.Fatalf("seed snapshot: %v", err)
	}

	run := func(args ...string) string {
		t.Helper()
		cmd := exec.Command(binary, append(args, "--store", "file", "--store-dsn", stateDir)...)
		cmd.Dir = work
		cmd.Env = append(os.Environ(), isolatedEnv(work)...)
		out, err := cmd.CombinedOutput()
		if err != nil {
			t.Fatalf("%v: %v\n%s", args, err, out)
		}
		return string(out)
	}

	shown := run("snapshot", "show")
	if !strings.Contains(shown, "Store:    file "+stateDir) {
		t.Fatalf("expected store location in output:\n%s", shown)
	}
	if !strings.Contains(shown, "morning-draft") || !strings.Contains(shown, "sun on the river") {
		t.Fatalf("unexpected snapshot output:\n%s", shown)
	}
	run("snapshot", "purge")
	if after := run("snapshot", "show"); !strings.Contains(after, "No autosaved composition.") {
		t.Fatalf("expected purged snapshot, got:\n%s", after)
	}
}

func TestImportRejectsInvalidPDF(t *testing.T) {
	t.Parallel()

	cmdDir := moduleDir(t)
	binary := buildBinary(t, cmdDir)
	work := t.TempDir()
	bogus := filepath.Join(work, "draft.pdf")
	if err := os.WriteFile(bogus, []byte("not a pdf"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	library := filepath.Join(work, "lyrics.json")

	cmd := exec.Command(binary, "import", bogus, "--library", library)
	cmd.Dir = work
	cmd.Env = append(os.Environ(), isolatedEnv(work)...)
	out, err := cmd.CombinedOutput()
	if err == nil {
		t.Fatalf("expected import to fail, got:\n%s", out)
	}
	if !strings.Contains(string(out), "Error:") {
		t.Fatalf("expected error output, got:\n%s", out)
	}
	if _, statErr := os.Stat(library); !os.IsNotExist(statErr) {
		t.Fatalf("library should not be created on failure")
	}
}

func moduleDir(t *testing.T) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatalf("runtime caller unavailable")
	}
	return filepath.Dir(file)
}

func buildBinary(t *testing.T, cmdDir string) string {
	t.Helper()
	tmp := t.TempDir()
	name := "versestudio-integration"
	if runtime.GOOS == "windows" {
		name += ".exe"
	}
	binPath := filepath.Join(tmp, name)
	cmd := exec.Command("go", "build", "-o", binPath, ".")
	cmd.Dir = cmdDir
	if output, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("build CLI: %v\n%s", err, output)
	}
	return binPath
}

func copyFixture(t *testing.T, cmdDir, dst string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(cmdDir, "testdata", "lyrics.json"))
	if err != nil {
		t.Fatalf("fixture missing: %v", err)
	}
	path := filepath.Join(dst, "lyrics.json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("copy fixture: %v", err)
	}
	return path
}

// isolatedEnv keeps the run away from real API keys and the user's state.
func isolatedEnv(dir string) []string {
	return []string{
		"ANTHROPIC_API_KEY=",
		"OPENAI_API_KEY=",
		"VERSESTUDIO_STATE_DIR=" + filepath.Join(dir, "state"),
		"XDG_CONFIG_HOME=" + filepath.Join(dir, "config"),
		"XDG_CACHE_HOME=" + filepath.Join(dir, "cache"),
	}
}
