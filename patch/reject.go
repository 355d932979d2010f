package patch

import "fmt"

// WriteRejects writes failed's hunks to sink as a standalone reject
// file: a "--- old\n+++ new\n" (or "*** old\n--- new\n" for context
// format) header naming the patch's target paths, followed by each
// failed hunk rendered in the same dialect. format resolves
// RejectFormatDefault to unified for a unified-format (or git, whose hunks
// are unified) source patch and context for everything else, matching
// patch(1)'s own default.
func WriteRejects(sink ByteSink, patch *Patch, failed []*Hunk, format RejectFormat, policy NewlinePolicy) error {
	if len(failed) == 0 {
		return nil
	}

	useContext := format == RejectFormatContext ||
		(format == RejectFormatDefault && patch.Format != FormatUnified && patch.Format != FormatGit)

	oldPath, newPath := patch.OldPath, patch.NewPath
	if oldPath == "" {
		oldPath = newPath
	}
	if newPath == "" {
		newPath = oldPath
	}

	var out []Line
	if useContext {
		out = append(out,
			Line{Content: []byte(fmt.Sprintf("*** %s", oldPath)), Newline: NewLineLF},
			Line{Content: []byte(fmt.Sprintf("--- %s", newPath)), Newline: NewLineLF},
		)
	} else {
		out = append(out,
			Line{Content: []byte(fmt.Sprintf("--- %s", oldPath)), Newline: NewLineLF},
			Line{Content: []byte(fmt.Sprintf("+++ %s", newPath)), Newline: NewLineLF},
		)
	}

	for _, h := range failed {
		if useContext {
			out = append(out, formatContextHunk(h)...)
		} else {
			out = append(out, formatUnifiedHunk(h)...)
		}
	}

	if err := WriteLines(sink, out, policy); err != nil {
		return err
	}
	return sink.Flush()
}

// RejectPath derives the reject-file path the driver writes failed hunks
// to when the caller hasn't specified one explicitly: the target path
// with ".rej" appended.
func RejectPath(target string) string {
	return target + ".rej"
}
