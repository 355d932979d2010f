// Package patch implements the core of a patch(1)-style diff applier: a
// format-detecting parser for unified, context, normal and git-extended
// diffs, a fuzz/offset hunk locator, and an applier/driver that turns
// parsed patches into modified files, rejects and backups.
package patch

import "fmt"

// NewLine identifies the line terminator a Line was read with.
type NewLine int

const (
	// NewLineLF marks a line terminated by a bare '\n'.
	NewLineLF NewLine = iota
	// NewLineCRLF marks a line terminated by "\r\n".
	NewLineCRLF
	// NewLineNone marks the final line of a file that has no trailing
	// newline at all.
	NewLineNone
)

func (n NewLine) String() string {
	switch n {
	case NewLineLF:
		return "\n"
	case NewLineCRLF:
		return "\r\n"
	case NewLineNone:
		return ""
	default:
		return ""
	}
}

// Line is a single line of content together with the terminator it was
// read with. Content never includes the terminator bytes.
type Line struct {
	Content []byte
	Newline NewLine
}

func (l Line) String() string {
	return string(l.Content) + l.Newline.String()
}

// LineOp identifies the role a line plays within a hunk.
type LineOp byte

const (
	// OpContext lines are unchanged and appear on both sides of a hunk.
	OpContext LineOp = ' '
	// OpAdd lines appear only on the new side of a hunk.
	OpAdd LineOp = '+'
	// OpDelete lines appear only on the old side of a hunk.
	OpDelete LineOp = '-'
)

func (op LineOp) String() string {
	return string(rune(op))
}

// PatchLine is a single line of a hunk body tagged with its operation.
type PatchLine struct {
	Op   LineOp
	Line Line
}

// Range is a 1-based line range using the classical diff convention that
// Start,0 denotes a position after Start rather than at it.
type Range struct {
	Start int64
	Count int64
}

// End returns the last line number covered by the range, for formats
// (context) whose headers spell ranges as start,end rather than
// start,count.
func (r Range) End() int64 {
	if r.Count == 0 {
		return r.Start
	}
	return r.Start + r.Count - 1
}

// RangeFromEnd builds a Range from a format that spells its header as
// start,end (context diffs) rather than start,count (unified/normal).
func RangeFromEnd(start, end int64) Range {
	if end < start {
		return Range{Start: start, Count: 0}
	}
	return Range{Start: start, Count: end - start + 1}
}

// Hunk is a contiguous change block: an old-side range, a new-side range,
// and the interleaved context/add/delete lines that connect them.
type Hunk struct {
	OldRange Range
	NewRange Range
	Lines    []PatchLine

	// Comment is the free text GNU diff appends after the closing "@@" of
	// a unified hunk header (usually the enclosing function signature).
	Comment string
}

// reverse swaps the old and new sides of a hunk in place: ranges swap and
// '+'/'-' operations invert. Context lines and comments are untouched.
func (h *Hunk) reverse() {
	h.OldRange, h.NewRange = h.NewRange, h.OldRange
	for i := range h.Lines {
		switch h.Lines[i].Op {
		case OpAdd:
			h.Lines[i].Op = OpDelete
		case OpDelete:
			h.Lines[i].Op = OpAdd
		}
	}
}

// clone returns a copy of the hunk with its own Lines slice (the line
// Content bytes are shared) so the locator and reversed-patch probing in
// the applier never mutate a hunk the caller still needs.
func (h *Hunk) clone() *Hunk {
	c := &Hunk{
		OldRange: h.OldRange,
		NewRange: h.NewRange,
		Comment:  h.Comment,
		Lines:    make([]PatchLine, len(h.Lines)),
	}
	copy(c.Lines, h.Lines)
	return c
}

// Format identifies the diff dialect a Patch was parsed from.
type Format int

const (
	// FormatUnknown means the parser could not identify a format; only
	// ever set transiently while scanning, or as the end-of-stream
	// sentinel.
	FormatUnknown Format = iota
	// FormatUnified is "--- a\n+++ b\n@@ ... @@" diff -u output.
	FormatUnified
	// FormatContext is "*** a\n--- b\n***************\n..." diff -c output.
	FormatContext
	// FormatNormal is the header-less "LaR"/"LcR"/"LdR" POSIX diff form.
	FormatNormal
	// FormatGit is unified format plus "diff --git" extended headers.
	FormatGit
	// FormatEd is ed-script output. The parser never produces it; the
	// driver skips any patch carrying it without applying it.
	FormatEd
)

func (f Format) String() string {
	switch f {
	case FormatUnified:
		return "unified"
	case FormatContext:
		return "context"
	case FormatNormal:
		return "normal"
	case FormatGit:
		return "git"
	case FormatEd:
		return "ed"
	default:
		return "unknown"
	}
}

// Operation classifies what a Patch does to its target beyond editing
// content.
type Operation int

const (
	// OperationChange edits the content of an existing file in place.
	OperationChange Operation = iota
	// OperationRename moves OldPath to NewPath, optionally with content
	// changes described by Hunks.
	OperationRename
	// OperationCopy copies OldPath to NewPath, optionally with content
	// changes described by Hunks.
	OperationCopy
	// OperationDelete removes OldPath.
	OperationDelete
	// OperationAdd creates NewPath.
	OperationAdd
	// OperationBinary is a "GIT binary patch" fragment. The parser
	// recognises it but does not decode it; the driver reports it as
	// unsupported.
	OperationBinary
)

func (op Operation) String() string {
	switch op {
	case OperationRename:
		return "rename"
	case OperationCopy:
		return "copy"
	case OperationDelete:
		return "delete"
	case OperationAdd:
		return "add"
	case OperationBinary:
		return "binary"
	default:
		return "change"
	}
}

// mode type bits, from POSIX stat(2)/S_IFMT.
const (
	modeTypeMask    = 0170000
	modeTypeSymlink = 0120000
)

// IsSymlinkMode reports whether a git file mode's type bits indicate a
// symbolic link.
func IsSymlinkMode(mode uint16) bool {
	return mode&modeTypeMask == modeTypeSymlink
}

// Patch describes one file's worth of changes recovered from a diff
// stream: what kind of operation it performs, the paths and modes
// involved, and (for Change/Add/Delete/Rename/Copy with content changes)
// the hunks that carry the edits.
type Patch struct {
	Format    Format
	Operation Operation

	IndexPath    string
	Prerequisite string

	OldPath string
	NewPath string

	OldTime string
	NewTime string

	OldMode uint16
	NewMode uint16

	Hunks []*Hunk
}

// reverse swaps the old and new sides of a patch and every one of its
// hunks in place.
func (p *Patch) reverse() {
	p.OldPath, p.NewPath = p.NewPath, p.OldPath
	p.OldTime, p.NewTime = p.NewTime, p.OldTime
	p.OldMode, p.NewMode = p.NewMode, p.OldMode
	for _, h := range p.Hunks {
		h.reverse()
	}
}

func (p *Patch) String() string {
	return fmt.Sprintf("Patch{%s %s %s -> %s, %d hunks}", p.Format, p.Operation, p.OldPath, p.NewPath, len(p.Hunks))
}
