package patch

import "strings"

// HeaderInfo records bookkeeping about a parsed header for diagnostic
// reproduction: where in the stream it started, the format that was
// detected, and the text of every line the scanner discarded as noise
// (mail headers, commentary, banner text) before it found the header it
// returned.
type HeaderInfo struct {
	StartPos     int
	Format       Format
	SkippedLines []string
}

// Parser consumes a LineSource and emits Patch records. It detects the
// diff dialect while scanning header lines (spec.md §4.C) and dispatches
// hunk-body parsing to the matching format-specific routine.
type Parser struct {
	src            *LineSource
	strip          int
	formatOverride FormatOverride
}

// NewParser returns a Parser reading from src. strip configures the path
// strip rule (-1 means "basename only"); override forces a specific
// dialect instead of auto-detection unless it is FormatAuto.
func NewParser(src *LineSource, strip int, override FormatOverride) *Parser {
	return &Parser{src: src, strip: strip, formatOverride: override}
}

// IsEOF reports whether the underlying stream has been fully consumed.
func (p *Parser) IsEOF() bool {
	return p.src.AtEOF()
}

// LineNumber returns the 1-based line number the parser is currently
// positioned at, for diagnostics.
func (p *Parser) LineNumber() int {
	return p.src.LineNumber()
}

type gitHeaderFlags struct {
	isNew, isDelete, isRename, isCopy bool
}

// ParseHeader reads header lines until it can identify a patch's format
// and target paths, or until the stream is exhausted. It returns nil
// with a false needsBody and a nil error at clean end of stream. Lines
// that do not belong to any recognised header are treated as garbage:
// skipped, recorded on HeaderInfo for diagnostic echoing, and otherwise
// ignored, exactly as spec.md §4.C requires.
func (p *Parser) ParseHeader() (*Patch, *HeaderInfo, bool, error) {
	info := &HeaderInfo{StartPos: p.src.Pos()}

	tryGit := p.formatOverride == FormatAuto
	tryContext := p.formatOverride == FormatAuto || p.formatOverride == FormatOverrideContext
	tryUnified := p.formatOverride == FormatAuto || p.formatOverride == FormatOverrideUnified
	tryNormal := p.formatOverride == FormatAuto || p.formatOverride == FormatOverrideNormal

	var prereq, indexPath string

	for {
		line, ok := p.src.Peek()
		if !ok {
			return nil, info, false, nil
		}
		raw := string(line.Content)
		trimmed := strings.TrimRight(raw, "\r\n")

		if strings.HasPrefix(trimmed, "Prereq:") {
			prereq = strings.TrimSpace(trimmed[len("Prereq:"):])
			p.src.Next()
			continue
		}
		if strings.HasPrefix(trimmed, "Index:") {
			indexPath = strings.TrimSpace(trimmed[len("Index:"):])
			p.src.Next()
			continue
		}

		if tryGit && strings.HasPrefix(trimmed, "diff --git ") {
			patch, needsBody, err := p.parseGitHeader(trimmed, prereq, indexPath)
			info.Format = FormatGit
			return patch, info, needsBody, err
		}

		if tryContext && strings.HasPrefix(trimmed, "*** ") && !strings.HasPrefix(trimmed, "***************") {
			if patch, needsBody, matched, err := p.tryParseContextHeader(prereq, indexPath); matched || err != nil {
				info.Format = FormatContext
				return patch, info, needsBody, err
			}
		}

		if tryUnified && strings.HasPrefix(trimmed, "--- ") {
			if patch, needsBody, matched, err := p.tryParseUnifiedHeader(prereq, indexPath); matched || err != nil {
				info.Format = FormatUnified
				return patch, info, needsBody, err
			}
		}

		if tryNormal && looksLikeNormalRange(trimmed) {
			patch := &Patch{Format: FormatNormal, Prerequisite: prereq, IndexPath: indexPath}
			info.Format = FormatNormal
			return patch, info, true, nil
		}

		info.SkippedLines = append(info.SkippedLines, raw)
		p.src.Next()
	}
}

// ParseBody reads all hunks belonging to patch, dispatching on its
// detected format.
func (p *Parser) ParseBody(patch *Patch) error {
	switch patch.Format {
	case FormatUnified, FormatGit:
		return p.parseUnifiedBody(patch)
	case FormatContext:
		return p.parseContextBody(patch)
	case FormatNormal:
		return p.parseNormalBody(patch)
	default:
		return errParsef("cannot parse body for format %s", patch.Format)
	}
}

func classifyByPaths(patch *Patch) {
	switch {
	case patch.OldPath == "/dev/null":
		patch.Operation = OperationAdd
	case patch.NewPath == "/dev/null":
		patch.Operation = OperationDelete
	default:
		patch.Operation = OperationChange
	}
}

// parsePathHeaderLine parses a "--- ", "+++ ", or "*** " header line's
// path, honouring the strip rule. "/dev/null" is a sentinel and is never
// stripped.
func (p *Parser) parsePathHeaderLine(line, prefix string) (path, timestamp string, err error) {
	if !strings.HasPrefix(line, prefix) {
		return "", "", errParsef("expected %q line", prefix)
	}
	value := line[len(prefix):]
	raw, ts := parsePathField(value)
	if raw == "/dev/null" {
		return "/dev/null", ts, nil
	}
	return stripPath(raw, p.strip), ts, nil
}

func (p *Parser) tryParseUnifiedHeader(prereq, indexPath string) (*Patch, bool, bool, error) {
	savedPos := p.src.Pos()

	oldLine, _ := p.src.Next()
	oldPath, oldTime, err := p.parsePathHeaderLine(string(oldLine.Content), "--- ")
	if err != nil {
		p.src.Seek(savedPos)
		return nil, false, false, nil
	}

	newLine, ok := p.src.Peek()
	if !ok || !strings.HasPrefix(string(newLine.Content), "+++ ") {
		p.src.Seek(savedPos)
		return nil, false, false, nil
	}
	p.src.Next()
	newPath, newTime, err := p.parsePathHeaderLine(string(newLine.Content), "+++ ")
	if err != nil {
		p.src.Seek(savedPos)
		return nil, false, false, nil
	}

	hunkLine, ok := p.src.Peek()
	if !ok || !strings.HasPrefix(string(hunkLine.Content), "@@ -") {
		p.src.Seek(savedPos)
		return nil, false, false, nil
	}

	patch := &Patch{
		Format:       FormatUnified,
		OldPath:      oldPath,
		NewPath:      newPath,
		OldTime:      oldTime,
		NewTime:      newTime,
		Prerequisite: prereq,
		IndexPath:    indexPath,
	}
	classifyByPaths(patch)
	return patch, true, true, nil
}

func (p *Parser) tryParseContextHeader(prereq, indexPath string) (*Patch, bool, bool, error) {
	savedPos := p.src.Pos()

	oldLine, _ := p.src.Next()
	oldPath, oldTime, err := p.parsePathHeaderLine(string(oldLine.Content), "*** ")
	if err != nil {
		p.src.Seek(savedPos)
		return nil, false, false, nil
	}

	newLine, ok := p.src.Peek()
	if !ok || !strings.HasPrefix(string(newLine.Content), "--- ") {
		p.src.Seek(savedPos)
		return nil, false, false, nil
	}
	p.src.Next()
	newPath, newTime, err := p.parsePathHeaderLine(string(newLine.Content), "--- ")
	if err != nil {
		p.src.Seek(savedPos)
		return nil, false, false, nil
	}

	hunkLine, ok := p.src.Peek()
	if !ok || !strings.HasPrefix(string(hunkLine.Content), "***************") {
		p.src.Seek(savedPos)
		return nil, false, false, nil
	}

	patch := &Patch{
		Format:       FormatContext,
		OldPath:      oldPath,
		NewPath:      newPath,
		OldTime:      oldTime,
		NewTime:      newTime,
		Prerequisite: prereq,
		IndexPath:    indexPath,
	}
	classifyByPaths(patch)
	return patch, true, true, nil
}

func finalizeGitOperation(patch *Patch, flags *gitHeaderFlags) {
	switch {
	case flags.isRename:
		patch.Operation = OperationRename
	case flags.isCopy:
		patch.Operation = OperationCopy
	case flags.isDelete:
		patch.Operation = OperationDelete
		patch.NewPath = "/dev/null"
	case flags.isNew:
		patch.Operation = OperationAdd
		patch.OldPath = "/dev/null"
	default:
		patch.Operation = OperationChange
	}
}

func (p *Parser) parseGitHeader(firstLineTrimmed, prereq, indexPath string) (*Patch, bool, error) {
	p.src.Next() // consume "diff --git ..." line

	rest := strings.TrimPrefix(firstLineTrimmed, "diff --git ")
	oldName, newName, ok := gitDiffNames(rest)
	if !ok {
		return nil, false, parseErrorAt(p.src.LineNumber(), "invalid diff --git header: %s", firstLineTrimmed)
	}

	patch := &Patch{Format: FormatGit, Prerequisite: prereq, IndexPath: indexPath}
	if oldName != "" {
		patch.OldPath = stripPath(oldName, p.strip)
	}
	if newName != "" {
		patch.NewPath = stripPath(newName, p.strip)
	}

	var flags gitHeaderFlags
	for {
		line, ok := p.src.Peek()
		if !ok {
			break
		}
		text := strings.TrimRight(string(line.Content), "\r\n")
		more, err := p.parseGitExtendedLine(patch, &flags, text)
		if err != nil {
			return nil, false, err
		}
		if !more {
			break
		}
		p.src.Next()
	}

	finalizeGitOperation(patch, &flags)

	line, ok := p.src.Peek()
	if !ok {
		return patch, false, nil
	}
	text := string(line.Content)

	if strings.HasPrefix(text, "GIT binary patch") {
		p.src.Next()
		patch.Operation = OperationBinary
		p.skipBinaryBody()
		return patch, false, nil
	}

	if strings.HasPrefix(text, "--- ") {
		savedPos := p.src.Pos()
		oldLine, _ := p.src.Next()
		_, oldTime, err := p.parsePathHeaderLine(string(oldLine.Content), "--- ")
		if err == nil {
			if nl, ok2 := p.src.Peek(); ok2 && strings.HasPrefix(string(nl.Content), "+++ ") {
				p.src.Next()
				_, newTime, err2 := p.parsePathHeaderLine(string(nl.Content), "+++ ")
				if err2 == nil {
					if hl, ok3 := p.src.Peek(); ok3 && strings.HasPrefix(string(hl.Content), "@@ -") {
						patch.OldTime = oldTime
						patch.NewTime = newTime
						return patch, true, nil
					}
				}
			}
		}
		p.src.Seek(savedPos)
	}

	return patch, false, nil
}

func (p *Parser) parseGitExtendedLine(patch *Patch, flags *gitHeaderFlags, line string) (more bool, err error) {
	switch {
	case strings.HasPrefix(line, "old mode "):
		if mode, ok := parseMode(line[len("old mode "):]); ok {
			patch.OldMode = mode
		}
		return true, nil

	case strings.HasPrefix(line, "new mode "):
		if mode, ok := parseMode(line[len("new mode "):]); ok {
			patch.NewMode = mode
		}
		return true, nil

	case strings.HasPrefix(line, "deleted file mode "):
		flags.isDelete = true
		if mode, ok := parseMode(line[len("deleted file mode "):]); ok {
			patch.OldMode = mode
		}
		return true, nil

	case strings.HasPrefix(line, "new file mode "):
		flags.isNew = true
		if mode, ok := parseMode(line[len("new file mode "):]); ok {
			patch.NewMode = mode
		}
		return true, nil

	case strings.HasPrefix(line, "copy from "):
		flags.isCopy = true
		patch.OldPath = stripPath(unquoteMaybe(line[len("copy from "):]), p.strip)
		return true, nil

	case strings.HasPrefix(line, "copy to "):
		flags.isCopy = true
		patch.NewPath = stripPath(unquoteMaybe(line[len("copy to "):]), p.strip)
		return true, nil

	case strings.HasPrefix(line, "rename from "):
		flags.isRename = true
		patch.OldPath = stripPath(unquoteMaybe(line[len("rename from "):]), p.strip)
		return true, nil

	case strings.HasPrefix(line, "rename to "):
		flags.isRename = true
		patch.NewPath = stripPath(unquoteMaybe(line[len("rename to "):]), p.strip)
		return true, nil

	case strings.HasPrefix(line, "similarity index "):
		_ = parseScore(line[len("similarity index "):])
		return true, nil

	case strings.HasPrefix(line, "dissimilarity index "):
		_ = parseScore(line[len("dissimilarity index "):])
		return true, nil

	case strings.HasPrefix(line, "index "):
		return true, nil

	default:
		// Unknown line also indicates the end of the header.
		return false, nil
	}
}

func unquoteMaybe(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > 0 && s[0] == '"' {
		if u, err := unquotePath(s); err == nil {
			return u
		}
	}
	return s
}

// skipBinaryBody consumes an opaque "GIT binary patch" payload: a
// "literal N"/"delta N" line followed by base85 data lines up to a blank
// line, optionally repeated once more for the reverse patch. The data
// itself is never decoded; binary hunks are a recognised non-goal.
func (p *Parser) skipBinaryBody() {
	for i := 0; i < 2; i++ {
		line, ok := p.src.Peek()
		if !ok {
			return
		}
		text := strings.TrimRight(string(line.Content), "\r\n")
		if !strings.HasPrefix(text, "literal ") && !strings.HasPrefix(text, "delta ") {
			return
		}
		p.src.Next()
		for {
			l, ok := p.src.Peek()
			if !ok {
				return
			}
			t := strings.TrimRight(string(l.Content), "\r\n")
			p.src.Next()
			if t == "" {
				break
			}
		}
	}
}

func (p *Parser) parseUnifiedBody(patch *Patch) error {
	for {
		line, ok := p.src.Peek()
		if !ok {
			break
		}
		if !strings.HasPrefix(string(line.Content), "@@ -") {
			break
		}
		hunk, err := p.parseUnifiedHunk()
		if err != nil {
			return err
		}
		patch.Hunks = append(patch.Hunks, hunk)
	}
	if len(patch.Hunks) == 0 && patch.Operation != OperationBinary {
		return parseErrorAt(p.src.LineNumber(), "no hunks found in %s patch body", patch.Format)
	}
	return nil
}

func (p *Parser) parseUnifiedHunk() (*Hunk, error) {
	headerLine, _ := p.src.Next()
	headerLineNo := p.src.LineNumber() - 1

	oldRange, newRange, comment, ok := parseUnifiedRange(string(headerLine.Content))
	if !ok {
		return nil, parseErrorAt(headerLineNo, "invalid hunk header: %s", strings.TrimRight(string(headerLine.Content), "\r\n"))
	}
	hunk := &Hunk{OldRange: oldRange, NewRange: newRange, Comment: comment}

	wantOld := oldRange.Count
	wantNew := newRange.Count

	for wantOld > 0 || wantNew > 0 {
		line, ok := p.src.Peek()
		if !ok {
			return nil, parseErrorAt(p.src.LineNumber(), "unexpected end of file in patch")
		}
		raw := line.Content
		if len(raw) == 0 {
			return nil, parseErrorAt(p.src.LineNumber(), "malformed patch: empty hunk line")
		}

		switch raw[0] {
		case ' ', '+', '-':
			p.src.Next()
			op := LineOp(raw[0])
			content := Line{Content: append([]byte(nil), raw[1:]...), Newline: line.Newline}
			hunk.Lines = append(hunk.Lines, PatchLine{Op: op, Line: content})
			switch op {
			case OpContext:
				wantOld--
				wantNew--
			case OpDelete:
				wantOld--
			case OpAdd:
				wantNew--
			}
			if wantOld < 0 || wantNew < 0 {
				return nil, parseErrorAt(p.src.LineNumber(), "hunk contains more lines than declared at line %d", headerLineNo)
			}
		case '\\':
			p.src.Next()
			if len(hunk.Lines) > 0 {
				hunk.Lines[len(hunk.Lines)-1].Line.Newline = NewLineNone
			}
		default:
			return nil, parseErrorAt(p.src.LineNumber(), "unexpected end of file in patch")
		}
	}

	if line, ok := p.src.Peek(); ok && len(line.Content) > 0 && line.Content[0] == '\\' {
		p.src.Next()
		if len(hunk.Lines) > 0 {
			hunk.Lines[len(hunk.Lines)-1].Line.Newline = NewLineNone
		}
	}

	return hunk, nil
}

type contextItem struct {
	kind byte
	line Line
}

func countBang(items []contextItem) int {
	n := 0
	for _, it := range items {
		if it.kind == '!' {
			n++
		}
	}
	return n
}

func (p *Parser) readContextLines() []contextItem {
	var items []contextItem
	for {
		line, ok := p.src.Peek()
		if !ok {
			return items
		}
		raw := line.Content
		if len(raw) >= 1 && raw[0] == '\\' {
			p.src.Next()
			if len(items) > 0 {
				items[len(items)-1].line.Newline = NewLineNone
			}
			continue
		}
		if len(raw) < 2 {
			return items
		}
		var kind byte
		switch {
		case raw[0] == ' ' && raw[1] == ' ':
			kind = ' '
		case raw[0] == '+' && raw[1] == ' ':
			kind = '+'
		case raw[0] == '-' && raw[1] == ' ':
			kind = '-'
		case raw[0] == '!' && raw[1] == ' ':
			kind = '!'
		default:
			return items
		}
		p.src.Next()
		content := Line{Content: append([]byte(nil), raw[2:]...), Newline: line.Newline}
		items = append(items, contextItem{kind: kind, line: content})
	}
}

// mergeContextBlocks interleaves a hunk's old and new context-diff blocks
// into the single ordered line sequence spec.md's Hunk model uses,
// translating '!' runs into a '-' run immediately followed by a '+' run.
func mergeContextBlocks(oldItems, newItems []contextItem) ([]PatchLine, error) {
	var lines []PatchLine
	i, j := 0, 0
	for i < len(oldItems) || j < len(newItems) {
		if i < len(oldItems) && oldItems[i].kind == ' ' {
			if j >= len(newItems) || newItems[j].kind != ' ' {
				return nil, errParsef("context mangled in hunk")
			}
			lines = append(lines, PatchLine{Op: OpContext, Line: oldItems[i].line})
			i++
			j++
			continue
		}

		oldStart := i
		for i < len(oldItems) && oldItems[i].kind != ' ' {
			i++
		}
		for k := oldStart; k < i; k++ {
			lines = append(lines, PatchLine{Op: OpDelete, Line: oldItems[k].line})
		}

		newStart := j
		for j < len(newItems) && newItems[j].kind != ' ' {
			j++
		}
		for k := newStart; k < j; k++ {
			lines = append(lines, PatchLine{Op: OpAdd, Line: newItems[k].line})
		}

		if i == oldStart && j == newStart {
			return nil, errParsef("context mangled in hunk")
		}
	}
	return lines, nil
}

func (p *Parser) parseContextBody(patch *Patch) error {
	for {
		line, ok := p.src.Peek()
		if !ok {
			break
		}
		if !strings.HasPrefix(string(line.Content), "***************") {
			break
		}
		hunk, err := p.parseContextHunk()
		if err != nil {
			return err
		}
		patch.Hunks = append(patch.Hunks, hunk)
	}
	if len(patch.Hunks) == 0 {
		return parseErrorAt(p.src.LineNumber(), "no hunks found in context patch body")
	}
	return nil
}

func (p *Parser) parseContextHunk() (*Hunk, error) {
	p.src.Next() // "***************"

	oldHeaderLine, ok := p.src.Next()
	if !ok {
		return nil, parseErrorAt(p.src.LineNumber(), "unexpected end of file in patch")
	}
	oldHeaderLineNo := p.src.LineNumber() - 1
	oldRange, ok := parseContextRangeHeader(string(oldHeaderLine.Content), "*** ", " ****")
	if !ok {
		return nil, parseErrorAt(oldHeaderLineNo, "malformed patch at line %d: invalid old range header", oldHeaderLineNo)
	}

	oldItems := p.readContextLines()

	newHeaderLine, ok := p.src.Next()
	if !ok {
		return nil, parseErrorAt(p.src.LineNumber(), "unexpected end of file in patch")
	}
	newHeaderLineNo := p.src.LineNumber() - 1
	if !strings.HasPrefix(string(newHeaderLine.Content), "--- ") {
		return nil, parseErrorAt(newHeaderLineNo, "Premature '---' at line %d; check line numbers at line %d", newHeaderLineNo, oldHeaderLineNo)
	}
	newRange, ok := parseContextRangeHeader(string(newHeaderLine.Content), "--- ", " ----")
	if !ok {
		return nil, parseErrorAt(newHeaderLineNo, "malformed patch at line %d: invalid new range header", newHeaderLineNo)
	}

	newItems := p.readContextLines()

	if int64(len(oldItems)) != oldRange.Count {
		return nil, parseErrorAt(p.src.LineNumber(), "context mangled in hunk at line %d", oldHeaderLineNo)
	}
	if int64(len(newItems)) != newRange.Count {
		return nil, parseErrorAt(p.src.LineNumber(), "context mangled in hunk at line %d", newHeaderLineNo)
	}
	if countBang(oldItems) != countBang(newItems) {
		return nil, parseErrorAt(p.src.LineNumber(), "context mangled in hunk at line %d", oldHeaderLineNo)
	}

	lines, err := mergeContextBlocks(oldItems, newItems)
	if err != nil {
		return nil, parseErrorAt(p.src.LineNumber(), "context mangled in hunk at line %d", oldHeaderLineNo)
	}

	return &Hunk{OldRange: oldRange, NewRange: newRange, Lines: lines}, nil
}

func (p *Parser) readMarkedLines(marker byte, count int64) ([]Line, error) {
	lines := make([]Line, 0, count)
	for int64(len(lines)) < count {
		line, ok := p.src.Peek()
		if !ok {
			return nil, parseErrorAt(p.src.LineNumber(), "unexpected end of file in patch")
		}
		raw := line.Content
		if len(raw) > 0 && raw[0] == '\\' {
			p.src.Next()
			if len(lines) > 0 {
				lines[len(lines)-1].Newline = NewLineNone
			}
			continue
		}
		if len(raw) < 2 || raw[0] != marker || (raw[1] != ' ' && raw[1] != '\t') {
			return nil, parseErrorAt(p.src.LineNumber(), "'%c' followed by space or tab expected at line %d of patch", marker, p.src.LineNumber())
		}
		p.src.Next()
		content := Line{Content: append([]byte(nil), raw[2:]...), Newline: line.Newline}
		lines = append(lines, content)
	}
	return lines, nil
}

func (p *Parser) parseNormalBody(patch *Patch) error {
	for {
		line, ok := p.src.Peek()
		if !ok {
			break
		}
		if !looksLikeNormalRange(string(line.Content)) {
			break
		}
		hunk, err := p.parseNormalHunk()
		if err != nil {
			return err
		}
		patch.Hunks = append(patch.Hunks, hunk)
	}
	if len(patch.Hunks) == 0 {
		return parseErrorAt(p.src.LineNumber(), "no hunks found in normal patch body")
	}
	return nil
}

func (p *Parser) parseNormalHunk() (*Hunk, error) {
	headerLine, _ := p.src.Next()
	headerLineNo := p.src.LineNumber() - 1

	op, oldRange, newRange, ok := parseNormalRange(string(headerLine.Content))
	if !ok {
		return nil, parseErrorAt(headerLineNo, "malformed patch: invalid normal range header")
	}
	hunk := &Hunk{OldRange: oldRange, NewRange: newRange}

	switch op {
	case normalDelete:
		oldLines, err := p.readMarkedLines('<', oldRange.Count)
		if err != nil {
			return nil, err
		}
		for _, l := range oldLines {
			hunk.Lines = append(hunk.Lines, PatchLine{Op: OpDelete, Line: l})
		}

	case normalAdd:
		newLines, err := p.readMarkedLines('>', newRange.Count)
		if err != nil {
			return nil, err
		}
		for _, l := range newLines {
			hunk.Lines = append(hunk.Lines, PatchLine{Op: OpAdd, Line: l})
		}

	case normalChange:
		oldLines, err := p.readMarkedLines('<', oldRange.Count)
		if err != nil {
			return nil, err
		}
		sep, ok := p.src.Next()
		if !ok || strings.TrimRight(string(sep.Content), "\r\n") != "---" {
			return nil, parseErrorAt(p.src.LineNumber(), "Premature '---' at line %d; check line numbers at line %d", p.src.LineNumber(), headerLineNo)
		}
		newLines, err := p.readMarkedLines('>', newRange.Count)
		if err != nil {
			return nil, err
		}
		for _, l := range oldLines {
			hunk.Lines = append(hunk.Lines, PatchLine{Op: OpDelete, Line: l})
		}
		for _, l := range newLines {
			hunk.Lines = append(hunk.Lines, PatchLine{Op: OpAdd, Line: l})
		}
	}

	return hunk, nil
}
