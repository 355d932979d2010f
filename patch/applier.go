package patch

// HunkOutcome records what happened when the applier tried to place one
// hunk against a target's content.
type HunkOutcome struct {
	Hunk     *Hunk
	Location Location
	Applied  bool
}

// ApplyResult is the outcome of applying every hunk of a patch against a
// single target's content.
type ApplyResult struct {
	Lines    []Line
	Outcomes []HunkOutcome
	Failed   []*Hunk
}

// FullyApplied reports whether every hunk of the patch found a placement.
func (r *ApplyResult) FullyApplied() bool {
	return len(r.Failed) == 0
}

// LooksReversed reports whether patch appears to already be applied in
// reverse against target: its first hunk's old side is not found, but
// its new side is. This mirrors should_check_if_patch_is_reversed in the
// original C++ implementation, which also keys off the first hunk alone
// rather than re-scanning the whole patch — a deliberate cheap heuristic,
// not an exhaustive check.
func LooksReversed(target []Line, patch *Patch, maxFuzz int64) bool {
	if len(patch.Hunks) == 0 {
		return false
	}
	h := patch.Hunks[0]
	if loc, _ := locateHunk(target, h, maxFuzz, false); loc.Found() {
		return false
	}
	reversed := h.clone()
	reversed.reverse()
	loc, _ := locateHunk(target, reversed, maxFuzz, false)
	return loc.Found()
}

func locate(target []Line, hunk *Hunk, opts Options) (Location, []PatchLine) {
	if loc, trimmed := locateHunk(target, hunk, opts.MaxFuzz, false); loc.Found() {
		return loc, trimmed
	}
	if opts.IgnoreWhitespace {
		return locateHunkIgnoringWhitespace(target, hunk, opts.MaxFuzz)
	}
	return notFound, nil
}

// ApplyPatch applies every hunk of patch against target's content and
// returns the resulting lines together with a per-hunk report. A hunk
// that cannot be placed at any fuzz level is recorded in Failed and left
// out of the output entirely: the section of target it would have
// touched is passed through unchanged, exactly as if that hunk were
// absent, so the caller can write it to a reject file separately.
//
// applyReversed requests that patch be applied as if its old and new
// sides were swapped (the outcome of a LooksReversed decision being
// resolved to "reverse"); opts.ReversePatch is the unconditional -R
// flag. The two compose: requesting both cancels out.
func ApplyPatch(target []Line, patch *Patch, opts Options, applyReversed bool) (*ApplyResult, error) {
	hunks := patch.Hunks
	if opts.ReversePatch != applyReversed {
		cloned := make([]*Hunk, len(hunks))
		for i, h := range hunks {
			c := h.clone()
			c.reverse()
			cloned[i] = c
		}
		hunks = cloned
	}

	result := &ApplyResult{}
	var out []Line
	cursor := int64(0)

	for _, h := range hunks {
		loc, trimmed := locate(target, h, opts)
		if !loc.Found() {
			result.Failed = append(result.Failed, h)
			result.Outcomes = append(result.Outcomes, HunkOutcome{Hunk: h, Location: notFound})
			continue
		}

		start := loc.LineNumber
		if start < cursor {
			start = cursor
		}
		if start > int64(len(target)) {
			start = int64(len(target))
		}
		out = append(out, target[cursor:start]...)

		var consumed int64
		if opts.DefineMacro != "" {
			consumed = appendDefineHunkOutput(&out, target, start, trimmed, opts.DefineMacro)
		} else {
			consumed = appendHunkOutput(&out, target, start, trimmed)
		}
		cursor = start + consumed
		if cursor > int64(len(target)) {
			cursor = int64(len(target))
		}

		result.Outcomes = append(result.Outcomes, HunkOutcome{Hunk: h, Location: loc, Applied: true})
	}

	if cursor < int64(len(target)) {
		out = append(out, target[cursor:]...)
	}
	result.Lines = out
	return result, nil
}

// appendHunkOutput writes one hunk's contribution to out: context lines
// are copied from target (not from the hunk) so fuzzy/whitespace-relaxed
// matches never perturb unchanged content, delete lines are dropped, and
// add lines are copied from the hunk. It returns how many target lines
// the hunk consumed.
func appendHunkOutput(out *[]Line, target []Line, start int64, lines []PatchLine) int64 {
	var consumed int64
	for _, pl := range lines {
		switch pl.Op {
		case OpContext:
			*out = append(*out, target[start+consumed])
			consumed++
		case OpDelete:
			consumed++
		case OpAdd:
			*out = append(*out, pl.Line)
		}
	}
	return consumed
}

// defineState tracks which conditional-compilation block
// appendDefineHunkOutput currently has open, mirroring write_define_hunk's
// DefineState in the original C++ applier.
type defineState int

const (
	defineOutside defineState = iota
	defineInsideIfndef
	defineInsideIfdef
	defineInsideElse
)

// appendDefineHunkOutput is appendHunkOutput's -D/--ifdef counterpart. It
// walks the hunk's lines one at a time, in their original order, rather
// than grouping runs of deletes/adds first: a delete immediately
// followed by an add opens an "#ifndef MACRO / #else" block as usual,
// but a delete, then an unrelated add, then another delete (with no
// intervening context) must still see the middle add close nothing and
// the trailing delete reopen nothing — each line's effect depends only on
// which block is currently open, not on how the run was grouped.
// A context line always closes whatever block is open before it passes
// through unchanged, exactly as in appendHunkOutput.
func appendDefineHunkOutput(out *[]Line, target []Line, start int64, lines []PatchLine, macro string) int64 {
	state := defineOutside
	var consumed int64

	for _, pl := range lines {
		switch pl.Op {
		case OpContext:
			line := target[start+consumed]
			consumed++
			if state != defineOutside {
				*out = append(*out, Line{Content: []byte("#endif"), Newline: line.Newline})
				state = defineOutside
			}
			*out = append(*out, line)

		case OpAdd:
			switch state {
			case defineOutside:
				state = defineInsideIfdef
				*out = append(*out, Line{Content: []byte("#ifdef " + macro), Newline: pl.Line.Newline})
			case defineInsideIfndef:
				state = defineInsideElse
				*out = append(*out, Line{Content: []byte("#else"), Newline: pl.Line.Newline})
			}
			*out = append(*out, pl.Line)

		case OpDelete:
			line := target[start+consumed]
			consumed++
			switch state {
			case defineOutside:
				state = defineInsideIfndef
				*out = append(*out, Line{Content: []byte("#ifndef " + macro), Newline: line.Newline})
			case defineInsideIfdef:
				state = defineInsideElse
				*out = append(*out, Line{Content: []byte("#else"), Newline: line.Newline})
			}
			*out = append(*out, line)
		}
	}

	if state != defineOutside {
		nl := NewLineLF
		if len(target) > 0 {
			nl = target[len(target)-1].Newline
		}
		*out = append(*out, Line{Content: []byte("#endif"), Newline: nl})
	}

	return consumed
}
