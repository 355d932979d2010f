package patch

import "testing"

func TestFormatUnifiedRangeSpec(t *testing.T) {
	tests := map[string]struct {
		Range Range
		Want  string
	}{
		"singleLine": {Range: Range{Start: 5, Count: 1}, Want: "5"},
		"multiLine":  {Range: Range{Start: 1, Count: 3}, Want: "1,3"},
		"zeroCount":  {Range: Range{Start: 1, Count: 0}, Want: "1,0"},
	}
	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			if got := formatUnifiedRangeSpec(test.Range); got != test.Want {
				t.Errorf("formatUnifiedRangeSpec(%+v) = %q, want %q", test.Range, got, test.Want)
			}
		})
	}
}

func TestFormatContextRangeSpec(t *testing.T) {
	tests := map[string]struct {
		Range Range
		Want  string
	}{
		"multiLine":  {Range: Range{Start: 1, Count: 3}, Want: "1,3"},
		"singleLine": {Range: Range{Start: 5, Count: 1}, Want: "5"},
		"insertAfter": {Range: Range{Start: 5, Count: 0}, Want: "5,5"},
	}
	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			if got := formatContextRangeSpec(test.Range); got != test.Want {
				t.Errorf("formatContextRangeSpec(%+v) = %q, want %q", test.Range, got, test.Want)
			}
		})
	}
}

func TestFormatUnifiedHunk(t *testing.T) {
	h := &Hunk{
		OldRange: Range{Start: 1, Count: 2},
		NewRange: Range{Start: 1, Count: 3},
		Comment:  "func main() {",
		Lines: []PatchLine{
			ctx("a"),
			del("b"),
			add("B"),
			add("c"),
		},
	}
	got := formatUnifiedHunk(h)
	want := []string{"@@ -1,2 +1,3 @@ func main() {", " a", "-b", "+B", "+c"}
	if len(got) != len(want) {
		t.Fatalf("got %d lines, want %d: %+v", len(got), len(want), got)
	}
	for i := range want {
		if string(got[i].Content) != want[i] {
			t.Errorf("line %d = %q, want %q", i, got[i].Content, want[i])
		}
	}
}

func TestSplitContextBlocksChangedRunBecomesBang(t *testing.T) {
	lines := []PatchLine{ctx("a"), del("old"), add("new"), ctx("b")}
	oldItems, newItems := splitContextBlocks(lines)

	if len(oldItems) != 3 || len(newItems) != 3 {
		t.Fatalf("got %d/%d items, want 3/3", len(oldItems), len(newItems))
	}
	if oldItems[1].kind != '!' || newItems[1].kind != '!' {
		t.Errorf("paired delete/add run should be tagged '!' on both sides, got %c/%c", oldItems[1].kind, newItems[1].kind)
	}
}

func TestSplitContextBlocksPureDeleteAndAdd(t *testing.T) {
	lines := []PatchLine{del("gone"), ctx("kept"), add("arrived")}
	oldItems, newItems := splitContextBlocks(lines)

	if len(oldItems) != 2 || oldItems[0].kind != '-' {
		t.Fatalf("old side = %+v, want a '-' item then context", oldItems)
	}
	if len(newItems) != 2 || newItems[1].kind != '+' {
		t.Fatalf("new side = %+v, want context then a '+' item", newItems)
	}
}

func TestFormatContextHunk(t *testing.T) {
	h := &Hunk{
		OldRange: Range{Start: 1, Count: 2},
		NewRange: Range{Start: 1, Count: 2},
		// old and new non-context content adjacent in the same run is
		// rendered as a paired "!" block, not separate "-"/"+" blocks.
		Lines: []PatchLine{ctx("a"), del("old"), add("new")},
	}
	got := formatContextHunk(h)
	wantPrefixes := []string{"***************", "*** 1,2 ****", "  a", "! old", "--- 1,2 ----", "  a", "! new"}
	if len(got) != len(wantPrefixes) {
		t.Fatalf("got %d lines, want %d: %+v", len(got), len(wantPrefixes), got)
	}
	for i, want := range wantPrefixes {
		if string(got[i].Content) != want {
			t.Errorf("line %d = %q, want %q", i, got[i].Content, want)
		}
	}
}
