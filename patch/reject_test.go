package patch

import (
	"strings"
	"testing"
)

func TestWriteRejectsUnifiedDefault(t *testing.T) {
	patch := &Patch{Format: FormatUnified, OldPath: "foo.txt", NewPath: "foo.txt"}
	hunk := &Hunk{
		OldRange: Range{Start: 1, Count: 1},
		NewRange: Range{Start: 1, Count: 1},
		Lines:    []PatchLine{del("old"), add("new")},
	}

	sink := NewMemorySink()
	if err := WriteRejects(sink, patch, []*Hunk{hunk}, RejectFormatDefault, NewlineLF); err != nil {
		t.Fatalf("WriteRejects: %v", err)
	}
	out := sink.String()
	if !strings.HasPrefix(out, "--- foo.txt\n+++ foo.txt\n") {
		t.Fatalf("unexpected reject header: %q", out)
	}
	if !strings.Contains(out, "@@ -1 +1 @@") {
		t.Errorf("expected a unified hunk header, got %q", out)
	}
}

func TestWriteRejectsContextDefaultForContextSource(t *testing.T) {
	patch := &Patch{Format: FormatContext, OldPath: "foo.txt", NewPath: "foo.txt"}
	hunk := &Hunk{
		OldRange: Range{Start: 1, Count: 1},
		NewRange: Range{Start: 1, Count: 1},
		Lines:    []PatchLine{del("old"), add("new")},
	}

	sink := NewMemorySink()
	if err := WriteRejects(sink, patch, []*Hunk{hunk}, RejectFormatDefault, NewlineLF); err != nil {
		t.Fatalf("WriteRejects: %v", err)
	}
	out := sink.String()
	if !strings.HasPrefix(out, "*** foo.txt\n--- foo.txt\n") {
		t.Fatalf("unexpected reject header: %q", out)
	}
	if !strings.Contains(out, "***************") {
		t.Errorf("expected a context hunk separator, got %q", out)
	}
}

func TestWriteRejectsNoOpWhenNothingFailed(t *testing.T) {
	patch := &Patch{Format: FormatUnified, OldPath: "foo.txt", NewPath: "foo.txt"}
	sink := NewMemorySink()
	if err := WriteRejects(sink, patch, nil, RejectFormatDefault, NewlineLF); err != nil {
		t.Fatalf("WriteRejects: %v", err)
	}
	if sink.String() != "" {
		t.Errorf("expected no output for zero failed hunks, got %q", sink.String())
	}
}

func TestRejectPath(t *testing.T) {
	if got, want := RejectPath("foo.txt"), "foo.txt.rej"; got != want {
		t.Errorf("RejectPath() = %q, want %q", got, want)
	}
}
