package patch

import "bytes"

// Location describes where a hunk's old-side content was found in a
// target file: the 0-based line it starts at, how far that is from the
// hunk's declared position, and how much leading/trailing context had to
// be disregarded (fuzz) to get a match.
type Location struct {
	LineNumber int64
	Offset     int64
	Fuzz       int64
}

// Found reports whether a Location actually names a position, as opposed
// to the notFound sentinel (LineNumber -1) returned when no placement was
// possible.
func (l Location) Found() bool {
	return l.LineNumber >= 0
}

// notFound is the sentinel Location for "no placement at any fuzz level".
var notFound = Location{LineNumber: -1}

// locateHunk searches target for the position that best matches hunk's
// old-side content, trying fuzz 0 first and increasing up to maxFuzz. At
// each fuzz level it disregards a number of leading and trailing
// *context* lines (never delete lines, since dropping those would
// change what the hunk removes) from the comparison, then searches the
// target for a placement. It returns the matched Location together with
// the PatchLine slice actually used (hunk.Lines with the disregarded
// edge context removed), which the applier walks to produce output.
//
// This follows locate_hunk in the original C++ implementation, adapted
// to operate on whole PatchLines (rather than separately-tracked old/new
// line arrays) so the trimmed slice returned here is exactly what gets
// applied — there is no separate bookkeeping to keep in sync.
func locateHunk(target []Line, hunk *Hunk, maxFuzz int64, ignoreWhitespace bool) (Location, []PatchLine) {
	prefixContent := leadingContextRun(hunk.Lines)
	suffixContent := trailingContextRun(hunk.Lines)
	context := prefixContent
	if suffixContent > context {
		context = suffixContent
	}

	for fuzz := int64(0); fuzz <= maxFuzz; fuzz++ {
		lead := asymmetricFuzz(fuzz, prefixContent, context)
		trail := asymmetricFuzz(fuzz, suffixContent, context)
		if lead+trail >= int64(len(hunk.Lines)) {
			// Growing fuzz only ever grows lead/trail further; once the
			// whole hunk would be disregarded, no larger fuzz can help.
			return notFound, nil
		}
		trimmed := hunk.Lines[lead : int64(len(hunk.Lines))-trail]
		want := oldSideLines(trimmed)

		expected := hunk.OldRange.Start - 1 + lead
		if hunk.OldRange.Count == 0 {
			// "start,0" names the position after line start.
			expected++
		}
		if expected < 0 {
			expected = 0
		}

		if len(want) == 0 {
			// A hunk with no context or delete lines (a pure insertion)
			// has nothing to search for; it is placed directly at its
			// declared position.
			return Location{LineNumber: clampInt64(expected, 0, int64(len(target))), Offset: 0, Fuzz: fuzz}, trimmed
		}

		if loc, ok := searchAt(target, want, expected, fuzz); ok {
			return loc, trimmed
		}
	}
	return notFound, nil
}

func clampInt64(v, lo, hi int64) int64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// leadingContextRun and trailingContextRun count the contiguous run of
// context lines at the start/end of a hunk's line list. asymmetricFuzz
// then applies prefix_fuzz = max(0, fuzz + P - C) / suffix_fuzz =
// max(0, fuzz + S - C) with C = max(P, S), so a hunk carrying unequal
// pre/post context disregards context asymmetrically instead of wasting
// fuzz budget trying to drop context that was never there. Each amount
// is capped at that side's context run (P or S), so only context lines
// are ever disregarded.
func leadingContextRun(lines []PatchLine) int64 {
	var n int64
	for _, pl := range lines {
		if pl.Op != OpContext {
			break
		}
		n++
	}
	return n
}

func trailingContextRun(lines []PatchLine) int64 {
	var n int64
	for i := len(lines) - 1; i >= 0; i-- {
		if lines[i].Op != OpContext {
			break
		}
		n++
	}
	return n
}

func asymmetricFuzz(fuzz, sideContent, context int64) int64 {
	v := fuzz + sideContent - context
	if v < 0 {
		return 0
	}
	if v > sideContent {
		return sideContent
	}
	return v
}

// oldSideLines extracts the lines a hunk expects to find in the target
// before it is applied: context and delete lines, in order.
func oldSideLines(lines []PatchLine) []Line {
	var out []Line
	for _, pl := range lines {
		if pl.Op == OpContext || pl.Op == OpDelete {
			out = append(out, pl.Line)
		}
	}
	return out
}

// searchAt scans target first forward from expected to the end, and
// only if nothing matches anywhere forward, scans backward from
// expected-1 down to the start. This (not an outward zigzag) is what
// locate_hunk in the original C++ implementation does: two separate,
// sequential loops. It biases toward the "later" of two equally good
// matches, which outward-nearest search would not: a forward match
// arbitrarily far from expected is preferred over a closer backward one.
func searchAt(target []Line, want []Line, expected, fuzz int64) (Location, bool) {
	maxLine := int64(len(target)) - int64(len(want))
	if maxLine < 0 {
		return Location{}, false
	}

	tryLine := func(candidate int64) (Location, bool) {
		if candidate < 0 || candidate > maxLine {
			return Location{}, false
		}
		if !matchesRun(target[candidate:candidate+int64(len(want))], want) {
			return Location{}, false
		}
		return Location{
			LineNumber: candidate,
			Offset:     candidate - expected,
			Fuzz:       fuzz,
		}, true
	}

	for candidate := expected; candidate <= maxLine; candidate++ {
		if loc, ok := tryLine(candidate); ok {
			return loc, true
		}
	}
	for candidate := expected - 1; candidate >= 0; candidate-- {
		if loc, ok := tryLine(candidate); ok {
			return loc, true
		}
	}
	return Location{}, false
}

func matchesRun(target, want []Line) bool {
	for i := range want {
		if !bytes.Equal(target[i].Content, want[i].Content) {
			return false
		}
	}
	return true
}

// matchesIgnoringWhitespace compares two lines ignoring differences in
// the amount (not presence) of whitespace: runs of spaces/tabs on each
// side collapse to a single comparison point, and leading/trailing
// whitespace is ignored entirely. This mirrors matches_ignoring_whitespace
// in the original C++ locator and is used as a fallback comparison when
// Options.IgnoreWhitespace is set.
func matchesIgnoringWhitespace(a, b []byte) bool {
	a = bytes.TrimSpace(a)
	b = bytes.TrimSpace(b)
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		if isSpaceByte(a[i]) && isSpaceByte(b[j]) {
			for i < len(a) && isSpaceByte(a[i]) {
				i++
			}
			for j < len(b) && isSpaceByte(b[j]) {
				j++
			}
			continue
		}
		if isSpaceByte(a[i]) != isSpaceByte(b[j]) {
			return false
		}
		if a[i] != b[j] {
			return false
		}
		i++
		j++
	}
	for i < len(a) && isSpaceByte(a[i]) {
		i++
	}
	for j < len(b) && isSpaceByte(b[j]) {
		j++
	}
	return i == len(a) && j == len(b)
}

func isSpaceByte(b byte) bool { return b == ' ' || b == '\t' }

// locateHunkIgnoringWhitespace is locateHunk's whitespace-insensitive
// twin, used when Options.IgnoreWhitespace is set. It is kept as a
// separate pass (rather than a branch inside matchesRun) because exact
// matching is always attempted first even in whitespace-insensitive mode:
// a byte-identical placement should never be passed over in favour of a
// whitespace-fuzzy one at the same fuzz level.
func locateHunkIgnoringWhitespace(target []Line, hunk *Hunk, maxFuzz int64) (Location, []PatchLine) {
	prefixContent := leadingContextRun(hunk.Lines)
	suffixContent := trailingContextRun(hunk.Lines)
	context := prefixContent
	if suffixContent > context {
		context = suffixContent
	}

	for fuzz := int64(0); fuzz <= maxFuzz; fuzz++ {
		lead := asymmetricFuzz(fuzz, prefixContent, context)
		trail := asymmetricFuzz(fuzz, suffixContent, context)
		if lead+trail >= int64(len(hunk.Lines)) {
			return notFound, nil
		}
		trimmed := hunk.Lines[lead : int64(len(hunk.Lines))-trail]
		want := oldSideLines(trimmed)
		expected := hunk.OldRange.Start - 1 + lead
		if hunk.OldRange.Count == 0 {
			expected++
		}
		if expected < 0 {
			expected = 0
		}
		if len(want) == 0 {
			return Location{LineNumber: clampInt64(expected, 0, int64(len(target))), Offset: 0, Fuzz: fuzz}, trimmed
		}
		if loc, ok := searchAtFuzzyWhitespace(target, want, expected, fuzz); ok {
			return loc, trimmed
		}
	}
	return notFound, nil
}

// searchAtFuzzyWhitespace follows the same forward-to-end,
// then-backward-to-start search order as searchAt; see its comment.
func searchAtFuzzyWhitespace(target []Line, want []Line, expected, fuzz int64) (Location, bool) {
	maxLine := int64(len(target)) - int64(len(want))
	if maxLine < 0 {
		return Location{}, false
	}
	match := func(candidate int64) bool {
		for i := range want {
			if !matchesIgnoringWhitespace(target[candidate+int64(i)].Content, want[i].Content) {
				return false
			}
		}
		return true
	}
	tryLine := func(candidate int64) (Location, bool) {
		if candidate < 0 || candidate > maxLine || !match(candidate) {
			return Location{}, false
		}
		return Location{LineNumber: candidate, Offset: candidate - expected, Fuzz: fuzz}, true
	}
	for candidate := expected; candidate <= maxLine; candidate++ {
		if loc, ok := tryLine(candidate); ok {
			return loc, true
		}
	}
	for candidate := expected - 1; candidate >= 0; candidate-- {
		if loc, ok := tryLine(candidate); ok {
			return loc, true
		}
	}
	return Location{}, false
}

// verifyPrerequisite reports whether target's content contains the
// prerequisite string anywhere. Used by the driver to honour a patch's
// "Prereq:" header before committing any hunk.
func verifyPrerequisite(target []Line, prerequisite string) bool {
	if prerequisite == "" {
		return true
	}
	for _, l := range target {
		if bytes.Contains(l.Content, []byte(prerequisite)) {
			return true
		}
	}
	return false
}
