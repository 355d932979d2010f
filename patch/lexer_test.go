package patch

import (
	"reflect"
	"testing"
)

func TestStripPath(t *testing.T) {
	tests := map[string]struct {
		Path string
		S    int
		Want string
	}{
		"basename":          {Path: "a/b/c.txt", S: -1, Want: "c.txt"},
		"stripOne":          {Path: "a/b/c.txt", S: 1, Want: "b/c.txt"},
		"stripAll":          {Path: "a/b/c.txt", S: 2, Want: "c.txt"},
		"stripTooMany":      {Path: "a/b/c.txt", S: 5, Want: ""},
		"stripZero":         {Path: "a/b/c.txt", S: 0, Want: "a/b/c.txt"},
		"mixedSeparators":   {Path: `a\b/c.txt`, S: 1, Want: "b/c.txt"},
		"runOfSeparators":   {Path: "a//b/c.txt", S: 1, Want: "b/c.txt"},
		"noSeparatorsAtAll": {Path: "c.txt", S: -1, Want: "c.txt"},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			got := stripPath(test.Path, test.S)
			if got != test.Want {
				t.Errorf("stripPath(%q, %d) = %q, want %q", test.Path, test.S, got, test.Want)
			}
		})
	}
}

func TestUnquotePath(t *testing.T) {
	tests := map[string]struct {
		Input string
		Want  string
		Err   bool
	}{
		"plain":           {Input: "dir/file.txt", Want: "dir/file.txt"},
		"simpleQuoted":    {Input: `"dir/file.txt"`, Want: "dir/file.txt"},
		"escapedQuote":    {Input: `"a\"b"`, Want: `a"b`},
		"escapedBackslash": {Input: `"a\\b"`, Want: `a\b`},
		"escapedTab":      {Input: `"a\tb"`, Want: "a\tb"},
		"escapedNewline":  {Input: `"a\nb"`, Want: "a\nb"},
		"octalEscape":     {Input: `"caf\303\251"`, Want: "caf\303\251"},
		"unterminated":    {Input: `"dir/file.txt`, Err: true},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			got, err := unquotePath(test.Input)
			if test.Err {
				if err == nil {
					t.Fatalf("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != test.Want {
				t.Errorf("unquotePath(%q) = %q, want %q", test.Input, got, test.Want)
			}
		})
	}
}

func TestQuotePathRoundTrip(t *testing.T) {
	inputs := []string{
		"dir/file.txt",
		"dir with spaces/file.txt",
		"has\"quote.txt",
		"has\\backslash.txt",
		"has\ttab.txt",
		"has\nnewline.txt",
	}
	for _, in := range inputs {
		quoted := quotePath(in)
		got, err := unquotePath(quoted)
		if err != nil {
			t.Fatalf("unquotePath(quotePath(%q)) error: %v", in, err)
		}
		if got != in {
			t.Errorf("round trip mismatch: input %q, quoted %q, got %q", in, quoted, got)
		}
	}
}

func TestParsePathField(t *testing.T) {
	tests := map[string]struct {
		Value         string
		WantPath      string
		WantTimestamp string
	}{
		"tabSeparated":    {Value: "a/foo.txt\t2023-01-01 00:00:00.000000000 +0000", WantPath: "a/foo.txt", WantTimestamp: "2023-01-01 00:00:00.000000000 +0000"},
		"noTimestamp":     {Value: "a/foo.txt", WantPath: "a/foo.txt"},
		"spaceTimestamp":  {Value: "a/foo.txt 2023-01-01", WantPath: "a/foo.txt", WantTimestamp: "2023-01-01"},
		"devNull":         {Value: "/dev/null", WantPath: "/dev/null"},
		"quotedWithSpace": {Value: `"a/foo bar.txt"` + "\t2023-01-01", WantPath: "a/foo bar.txt", WantTimestamp: "2023-01-01"},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			path, timestamp := parsePathField(test.Value)
			if path != test.WantPath {
				t.Errorf("path = %q, want %q", path, test.WantPath)
			}
			if timestamp != test.WantTimestamp {
				t.Errorf("timestamp = %q, want %q", timestamp, test.WantTimestamp)
			}
		})
	}
}

func TestParseMode(t *testing.T) {
	tests := map[string]struct {
		Input string
		Want  uint16
		Ok    bool
	}{
		"regularFile": {Input: "100644", Want: 0100644, Ok: true},
		"executable":  {Input: "100755", Want: 0100755, Ok: true},
		"symlink":     {Input: "120000", Want: 0120000, Ok: true},
		"tooShort":    {Input: "1644", Ok: false},
		"nonOctal":    {Input: "10064a", Ok: false},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			got, ok := parseMode(test.Input)
			if ok != test.Ok {
				t.Fatalf("ok = %v, want %v", ok, test.Ok)
			}
			if ok && got != test.Want {
				t.Errorf("parseMode(%q) = %o, want %o", test.Input, got, test.Want)
			}
		})
	}
}

func TestParseScore(t *testing.T) {
	tests := map[string]struct {
		Input string
		Want  int
	}{
		"plain":      {Input: "88", Want: 88},
		"withPct":    {Input: "88%", Want: 88},
		"outOfRange": {Input: "9001", Want: 0},
		"notANumber": {Input: "abc", Want: 0},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			got := parseScore(test.Input)
			if got != test.Want {
				t.Errorf("parseScore(%q) = %d, want %d", test.Input, got, test.Want)
			}
		})
	}
}

func TestParseUnifiedRange(t *testing.T) {
	tests := map[string]struct {
		Line        string
		WantOld     Range
		WantNew     Range
		WantComment string
		Ok          bool
	}{
		"basic": {
			Line:    "@@ -1,3 +1,4 @@",
			WantOld: Range{Start: 1, Count: 3},
			WantNew: Range{Start: 1, Count: 4},
			Ok:      true,
		},
		"impliedCounts": {
			Line:    "@@ -5 +5 @@",
			WantOld: Range{Start: 5, Count: 1},
			WantNew: Range{Start: 5, Count: 1},
			Ok:      true,
		},
		"withComment": {
			Line:        "@@ -1,3 +1,4 @@ func main() {",
			WantOld:     Range{Start: 1, Count: 3},
			WantNew:     Range{Start: 1, Count: 4},
			WantComment: "func main() {",
			Ok:          true,
		},
		"notAHeader": {
			Line: "this is not a hunk header",
			Ok:   false,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			oldRange, newRange, comment, ok := parseUnifiedRange(test.Line)
			if ok != test.Ok {
				t.Fatalf("ok = %v, want %v", ok, test.Ok)
			}
			if !ok {
				return
			}
			if !reflect.DeepEqual(oldRange, test.WantOld) || !reflect.DeepEqual(newRange, test.WantNew) || comment != test.WantComment {
				t.Errorf("got (%+v, %+v, %q), want (%+v, %+v, %q)", oldRange, newRange, comment, test.WantOld, test.WantNew, test.WantComment)
			}
		})
	}
}

func TestParseContextRangeHeader(t *testing.T) {
	tests := map[string]struct {
		Line        string
		OpenMarker  string
		CloseMarker string
		Want        Range
		Ok          bool
	}{
		"oldSide":   {Line: "*** 1,5 ****", OpenMarker: "*** ", CloseMarker: " ****", Want: Range{Start: 1, Count: 5}, Ok: true},
		"singleLine": {Line: "*** 5 ****", OpenMarker: "*** ", CloseMarker: " ****", Want: Range{Start: 5, Count: 1}, Ok: true},
		"newSide":   {Line: "--- 1,5 ----", OpenMarker: "--- ", CloseMarker: " ----", Want: Range{Start: 1, Count: 5}, Ok: true},
		"notAMatch": {Line: "not a header", OpenMarker: "*** ", CloseMarker: " ****", Ok: false},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			got, ok := parseContextRangeHeader(test.Line, test.OpenMarker, test.CloseMarker)
			if ok != test.Ok {
				t.Fatalf("ok = %v, want %v", ok, test.Ok)
			}
			if ok && !reflect.DeepEqual(got, test.Want) {
				t.Errorf("got %+v, want %+v", got, test.Want)
			}
		})
	}
}

func TestParseNormalRange(t *testing.T) {
	tests := map[string]struct {
		Line    string
		WantOp  normalOp
		WantOld Range
		WantNew Range
		Ok      bool
	}{
		"add":    {Line: "3a4,5", WantOp: normalAdd, WantOld: Range{Start: 3, Count: 0}, WantNew: RangeFromEnd(4, 5), Ok: true},
		"delete": {Line: "3,4d2", WantOp: normalDelete, WantOld: RangeFromEnd(3, 4), WantNew: Range{Start: 2, Count: 0}, Ok: true},
		"change": {Line: "3,4c5,6", WantOp: normalChange, WantOld: RangeFromEnd(3, 4), WantNew: RangeFromEnd(5, 6), Ok: true},
		"invalidAddWithOldRange": {
			Line: "3,4a5", Ok: false,
		},
		"garbage": {Line: "not a range", Ok: false},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			op, oldRange, newRange, ok := parseNormalRange(test.Line)
			if ok != test.Ok {
				t.Fatalf("ok = %v, want %v", ok, test.Ok)
			}
			if !ok {
				return
			}
			if op != test.WantOp || !reflect.DeepEqual(oldRange, test.WantOld) || !reflect.DeepEqual(newRange, test.WantNew) {
				t.Errorf("got (%c, %+v, %+v), want (%c, %+v, %+v)", byte(op), oldRange, newRange, byte(test.WantOp), test.WantOld, test.WantNew)
			}
		})
	}
}

func TestGitDiffNames(t *testing.T) {
	tests := map[string]struct {
		Rest     string
		WantOld  string
		WantNew  string
		Ok       bool
	}{
		"plain":  {Rest: "a/dir/file.txt b/dir/file.txt", WantOld: "dir/file.txt", WantNew: "dir/file.txt", Ok: true},
		"rename": {Rest: "a/old.txt b/new.txt", WantOld: "old.txt", WantNew: "new.txt", Ok: true},
		"quoted": {Rest: `"a/has space.txt" "b/has space.txt"`, WantOld: "has space.txt", WantNew: "has space.txt", Ok: true},
		"noMarker": {Rest: "garbage", Ok: false},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			oldName, newName, ok := gitDiffNames(test.Rest)
			if ok != test.Ok {
				t.Fatalf("ok = %v, want %v", ok, test.Ok)
			}
			if !ok {
				return
			}
			if oldName != test.WantOld || newName != test.WantNew {
				t.Errorf("got (%q, %q), want (%q, %q)", oldName, newName, test.WantOld, test.WantNew)
			}
		})
	}
}
