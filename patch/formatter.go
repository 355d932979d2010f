package patch

import "fmt"

// formatUnifiedRangeSpec renders a Range the way a unified hunk header
// spells it: "start" when the count is 1, "start,count" otherwise.
func formatUnifiedRangeSpec(r Range) string {
	if r.Count == 1 {
		return fmt.Sprintf("%d", r.Start)
	}
	return fmt.Sprintf("%d,%d", r.Start, r.Count)
}

// formatContextRangeSpec renders a Range the way a context hunk header
// spells it: "start,end" (an inclusive end line, not a count).
func formatContextRangeSpec(r Range) string {
	if r.Count == 0 {
		return fmt.Sprintf("%d,%d", r.Start, r.Start)
	}
	end := r.End()
	if r.Start == end {
		return fmt.Sprintf("%d", r.Start)
	}
	return fmt.Sprintf("%d,%d", r.Start, end)
}

// formatUnifiedHunk renders a hunk as unified-diff text: a "@@ ... @@"
// header followed by its lines, each prefixed with its operation byte.
func formatUnifiedHunk(h *Hunk) []Line {
	var lines []Line
	header := fmt.Sprintf("@@ -%s +%s @@", formatUnifiedRangeSpec(h.OldRange), formatUnifiedRangeSpec(h.NewRange))
	if h.Comment != "" {
		header += " " + h.Comment
	}
	lines = append(lines, Line{Content: []byte(header), Newline: NewLineLF})
	for _, pl := range h.Lines {
		content := make([]byte, 0, len(pl.Line.Content)+1)
		content = append(content, byte(pl.Op))
		content = append(content, pl.Line.Content...)
		lines = append(lines, Line{Content: content, Newline: pl.Line.Newline})
	}
	return lines
}

// splitContextBlocks is the inverse of mergeContextBlocks: it recovers
// the old-side and new-side context-diff blocks from a hunk's merged
// line sequence, re-tagging paired delete/add runs as '!' (changed).
func splitContextBlocks(lines []PatchLine) (oldItems, newItems []contextItem) {
	i := 0
	for i < len(lines) {
		if lines[i].Op == OpContext {
			oldItems = append(oldItems, contextItem{kind: ' ', line: lines[i].Line})
			newItems = append(newItems, contextItem{kind: ' ', line: lines[i].Line})
			i++
			continue
		}

		runStart := i
		for i < len(lines) && lines[i].Op != OpContext {
			i++
		}
		run := lines[runStart:i]

		var oldRun, newRun []PatchLine
		for _, pl := range run {
			if pl.Op == OpDelete {
				oldRun = append(oldRun, pl)
			} else {
				newRun = append(newRun, pl)
			}
		}

		if len(oldRun) > 0 && len(newRun) > 0 {
			for _, pl := range oldRun {
				oldItems = append(oldItems, contextItem{kind: '!', line: pl.Line})
			}
			for _, pl := range newRun {
				newItems = append(newItems, contextItem{kind: '!', line: pl.Line})
			}
			continue
		}
		for _, pl := range oldRun {
			oldItems = append(oldItems, contextItem{kind: '-', line: pl.Line})
		}
		for _, pl := range newRun {
			newItems = append(newItems, contextItem{kind: '+', line: pl.Line})
		}
	}
	return oldItems, newItems
}

// formatContextHunk renders a hunk as context-diff text: the
// "***************" separator, the old block, then the new block.
func formatContextHunk(h *Hunk) []Line {
	var lines []Line
	lines = append(lines, Line{Content: []byte("***************"), Newline: NewLineLF})

	oldItems, newItems := splitContextBlocks(h.Lines)

	oldHeader := fmt.Sprintf("*** %s ****", formatContextRangeSpec(h.OldRange))
	lines = append(lines, Line{Content: []byte(oldHeader), Newline: NewLineLF})
	for _, it := range oldItems {
		lines = append(lines, contextOutputLine(it))
	}

	newHeader := fmt.Sprintf("--- %s ----", formatContextRangeSpec(h.NewRange))
	lines = append(lines, Line{Content: []byte(newHeader), Newline: NewLineLF})
	for _, it := range newItems {
		lines = append(lines, contextOutputLine(it))
	}

	return lines
}

func contextOutputLine(it contextItem) Line {
	content := make([]byte, 0, len(it.line.Content)+2)
	content = append(content, it.kind, ' ')
	content = append(content, it.line.Content...)
	return Line{Content: content, Newline: it.line.Newline}
}
