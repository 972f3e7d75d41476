package tuitest

import (
	"bytes"
	"testing"
)

func TestTerminalResponderAnswersQueriesInOrder(t *testing.T) {
	t.Parallel()
	var out bytes.Buffer
	tr := newTerminalResponder(&out)

	tr.Process([]byte("Lyric Library\x1b]11;?\x07 draft \x1b[6n"))
	want := "\x1b]11;rgb:0000/0000/0000\x07\x1b[1;1R"
	if got := out.String(); got != want {
		t.Fatalf("replies = %q, want %q", got, want)
	}
}

func TestTerminalResponderJoinsSplitQuery(t *testing.T) {
	t.Parallel()
	var out bytes.Buffer
	tr := newTerminalResponder(&out)

	tr.Process([]byte("Composition\x1b]10"))
	if out.Len() != 0 {
		t.Fatalf("unexpected early reply %q", out.String())
	}
	tr.Process([]byte(";?\x1b\\"))
	if got := out.String(); got != "\x1b]10;rgb:cccc/cccc/cccc\x1b\\" {
		t.Fatalf("reply = %q", got)
	}
	tr.Process([]byte("sun on the river"))
	if got := out.String(); got != "\x1b]10;rgb:cccc/cccc/cccc\x1b\\" {
		t.Fatalf("answered query twice: %q", got)
	}
}
