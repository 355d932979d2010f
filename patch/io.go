package patch

import (
	"bytes"
	"io"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

// LineSource reads a byte stream line by line, classifying each line's
// terminator, and supports rewinding to a previously visited position so
// the parser can probe a line (to decide between diff formats) and back
// out if it guessed wrong.
//
// The whole stream is indexed up front: patch streams are small enough in
// practice that this is simpler and more robust than incremental
// buffering, and it gives save/restore for free.
type LineSource struct {
	lines []Line
	pos   int
}

// NewLineSource reads all of r and splits it into lines, classifying each
// line's terminator per spec: a trailing "\r\n" is CRLF, a trailing "\n"
// alone is LF, and an unterminated final line is None.
func NewLineSource(r io.Reader) (*LineSource, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "patch: reading patch stream")
	}
	return &LineSource{lines: splitLines(data)}, nil
}

func splitLines(data []byte) []Line {
	if len(data) == 0 {
		return nil
	}
	var lines []Line
	start := 0
	for i := 0; i < len(data); i++ {
		if data[i] != '\n' {
			continue
		}
		end := i
		nl := NewLineLF
		if end > start && data[end-1] == '\r' {
			end--
			nl = NewLineCRLF
		}
		content := make([]byte, end-start)
		copy(content, data[start:end])
		lines = append(lines, Line{Content: content, Newline: nl})
		start = i + 1
	}
	if start < len(data) {
		content := make([]byte, len(data)-start)
		copy(content, data[start:])
		lines = append(lines, Line{Content: content, Newline: NewLineNone})
	}
	return lines
}

// Next returns the next line and advances the cursor. ok is false once the
// stream is exhausted; further calls keep returning false without
// modifying state beyond that.
func (s *LineSource) Next() (Line, bool) {
	if s.pos >= len(s.lines) {
		return Line{}, false
	}
	l := s.lines[s.pos]
	s.pos++
	return l, true
}

// Peek returns the next line without advancing the cursor.
func (s *LineSource) Peek() (Line, bool) {
	if s.pos >= len(s.lines) {
		return Line{}, false
	}
	return s.lines[s.pos], true
}

// PeekAt returns the line offset positions ahead of the cursor (0 is the
// same as Peek) without advancing it. Used by format detection, which
// needs to look a few lines ahead before committing to a dialect.
func (s *LineSource) PeekAt(offset int) (Line, bool) {
	i := s.pos + offset
	if i < 0 || i >= len(s.lines) {
		return Line{}, false
	}
	return s.lines[i], true
}

// AtEOF reports whether the cursor has consumed every line.
func (s *LineSource) AtEOF() bool {
	return s.pos >= len(s.lines)
}

// Pos returns an opaque save point for Seek.
func (s *LineSource) Pos() int {
	return s.pos
}

// Seek restores the cursor to a position previously returned by Pos.
func (s *LineSource) Seek(pos int) {
	s.pos = pos
}

// LineNumber returns the 1-based line number of the next line to be
// returned by Next, for use in diagnostics.
func (s *LineSource) LineNumber() int {
	return s.pos + 1
}

// ByteSink is the narrow write capability the applier and driver consume
// for output files: append bytes, track position, flush and close. Two
// implementations are provided: FileSink, backed by an afero.File, and
// MemorySink, backed by an in-memory buffer, so tests never need a real
// filesystem to exercise the applier.
type ByteSink interface {
	io.Writer
	Pos() int64
	Truncate(size int64) error
	Flush() error
	Close() error
}

// FileSink adapts an afero.File to ByteSink.
type FileSink struct {
	f   afero.File
	pos int64
}

// NewFileSink wraps an already-open afero.File.
func NewFileSink(f afero.File) *FileSink {
	return &FileSink{f: f}
}

// CreateFileSink creates (or truncates) path on fs and wraps it.
func CreateFileSink(fs afero.Fs, path string) (*FileSink, error) {
	f, err := fs.Create(path)
	if err != nil {
		return nil, errors.Wrapf(err, "patch: creating %s", path)
	}
	return NewFileSink(f), nil
}

func (s *FileSink) Write(p []byte) (int, error) {
	n, err := s.f.Write(p)
	s.pos += int64(n)
	return n, err
}

// Pos returns the number of bytes written so far.
func (s *FileSink) Pos() int64 { return s.pos }

// Truncate truncates the underlying file to size bytes.
func (s *FileSink) Truncate(size int64) error { return s.f.Truncate(size) }

// Flush is a no-op for FileSink; afero.File writes are unbuffered by the
// core, matching the teacher's direct io.Writer usage.
func (s *FileSink) Flush() error { return nil }

// Close closes the underlying file.
func (s *FileSink) Close() error { return s.f.Close() }

// MemorySink is an in-memory ByteSink, used by tests.
type MemorySink struct {
	buf bytes.Buffer
}

// NewMemorySink returns an empty MemorySink.
func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

func (s *MemorySink) Write(p []byte) (int, error) { return s.buf.Write(p) }

// Pos returns the number of bytes written so far.
func (s *MemorySink) Pos() int64 { return int64(s.buf.Len()) }

// Truncate truncates the buffer to size bytes.
func (s *MemorySink) Truncate(size int64) error {
	if size < 0 || size > int64(s.buf.Len()) {
		return errors.New("patch: MemorySink.Truncate: size out of range")
	}
	b := s.buf.Bytes()[:size]
	s.buf = *bytes.NewBuffer(append([]byte(nil), b...))
	return nil
}

// Flush is a no-op for MemorySink.
func (s *MemorySink) Flush() error { return nil }

// Close is a no-op for MemorySink.
func (s *MemorySink) Close() error { return nil }

// Bytes returns the accumulated content.
func (s *MemorySink) Bytes() []byte { return s.buf.Bytes() }

// String returns the accumulated content as a string.
func (s *MemorySink) String() string { return s.buf.String() }

// ReadLines reads the entire content of path on fs and splits it into
// Lines the same way the patch parser splits its own input. A missing
// file is reported as an empty line set rather than an error so callers
// (the driver, applying an Add patch) can treat "file does not exist yet"
// uniformly.
func ReadLines(fs afero.Fs, path string) ([]Line, error) {
	exists, err := afero.Exists(fs, path)
	if err != nil {
		return nil, errors.Wrapf(err, "patch: checking %s", path)
	}
	if !exists {
		return nil, nil
	}
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, errors.Wrapf(err, "patch: reading %s", path)
	}
	return splitLines(data), nil
}

// WriteLines writes lines to sink using the requested newline policy.
func WriteLines(sink ByteSink, lines []Line, policy NewlinePolicy) error {
	for _, l := range lines {
		if err := writeLine(sink, l, policy); err != nil {
			return err
		}
	}
	return nil
}

func writeLine(sink ByteSink, l Line, policy NewlinePolicy) error {
	if _, err := sink.Write(l.Content); err != nil {
		return errors.Wrap(err, "patch: writing line content")
	}
	term := policy.terminatorFor(l.Newline)
	if term == "" {
		return nil
	}
	if _, err := sink.Write([]byte(term)); err != nil {
		return errors.Wrap(err, "patch: writing line terminator")
	}
	return nil
}
