package patch

import (
	"strings"
	"testing"

	"github.com/spf13/afero"
)

func TestSplitLines(t *testing.T) {
	tests := map[string]struct {
		Input string
		Want  []Line
	}{
		"lfOnly": {
			Input: "a\nb\n",
			Want: []Line{
				{Content: []byte("a"), Newline: NewLineLF},
				{Content: []byte("b"), Newline: NewLineLF},
			},
		},
		"crlf": {
			Input: "a\r\nb\r\n",
			Want: []Line{
				{Content: []byte("a"), Newline: NewLineCRLF},
				{Content: []byte("b"), Newline: NewLineCRLF},
			},
		},
		"noTrailingNewline": {
			Input: "a\nb",
			Want: []Line{
				{Content: []byte("a"), Newline: NewLineLF},
				{Content: []byte("b"), Newline: NewLineNone},
			},
		},
		"empty": {
			Input: "",
			Want:  nil,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			got := splitLines([]byte(test.Input))
			if len(got) != len(test.Want) {
				t.Fatalf("got %d lines, want %d: %+v", len(got), len(test.Want), got)
			}
			for i := range got {
				if string(got[i].Content) != string(test.Want[i].Content) || got[i].Newline != test.Want[i].Newline {
					t.Errorf("line %d: got %+v, want %+v", i, got[i], test.Want[i])
				}
			}
		})
	}
}

func TestLineSourceSeek(t *testing.T) {
	src, err := NewLineSource(strings.NewReader("a\nb\nc\n"))
	if err != nil {
		t.Fatalf("NewLineSource: %v", err)
	}

	first, ok := src.Next()
	if !ok || string(first.Content) != "a" {
		t.Fatalf("first Next() = %+v, %v", first, ok)
	}

	mark := src.Pos()

	second, ok := src.Next()
	if !ok || string(second.Content) != "b" {
		t.Fatalf("second Next() = %+v, %v", second, ok)
	}

	src.Seek(mark)
	replayed, ok := src.Next()
	if !ok || string(replayed.Content) != "b" {
		t.Fatalf("after Seek, Next() = %+v, %v, want \"b\"", replayed, ok)
	}

	if peek, ok := src.PeekAt(0); !ok || string(peek.Content) != "c" {
		t.Fatalf("PeekAt(0) = %+v, %v, want \"c\"", peek, ok)
	}

	src.Next()
	if !src.AtEOF() {
		t.Fatalf("expected AtEOF after consuming all lines")
	}
	if _, ok := src.Next(); ok {
		t.Fatalf("Next() at EOF should return ok=false")
	}
}

func TestMemorySinkTruncate(t *testing.T) {
	sink := NewMemorySink()
	if _, err := sink.Write([]byte("hello world")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := sink.Truncate(5); err != nil {
		t.Fatalf("Truncate: %v", err)
	}
	if got := sink.String(); got != "hello" {
		t.Errorf("after Truncate(5), String() = %q, want %q", got, "hello")
	}
	if err := sink.Truncate(100); err == nil {
		t.Errorf("Truncate past length should error")
	}
}

func TestReadLinesMissingFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	lines, err := ReadLines(fs, "does/not/exist.txt")
	if err != nil {
		t.Fatalf("ReadLines on missing file: %v", err)
	}
	if lines != nil {
		t.Errorf("expected nil lines for a missing file, got %+v", lines)
	}
}

func TestWriteLinesNewlinePolicy(t *testing.T) {
	lines := []Line{
		{Content: []byte("a"), Newline: NewLineCRLF},
		{Content: []byte("b"), Newline: NewLineNone},
	}

	sink := NewMemorySink()
	if err := WriteLines(sink, lines, NewlineLF); err != nil {
		t.Fatalf("WriteLines: %v", err)
	}
	if got, want := sink.String(), "a\nb"; got != want {
		t.Errorf("NewlineLF output = %q, want %q", got, want)
	}

	sink = NewMemorySink()
	if err := WriteLines(sink, lines, NewlineKeep); err != nil {
		t.Fatalf("WriteLines: %v", err)
	}
	if got, want := sink.String(), "a\r\nb"; got != want {
		t.Errorf("NewlineKeep output = %q, want %q", got, want)
	}
}
