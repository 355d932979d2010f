package patch

import "runtime"

// NewlinePolicy controls what terminator the applier writes for each
// output line.
type NewlinePolicy int

const (
	// NewlineNative emits LF on non-Windows and CRLF on Windows.
	NewlineNative NewlinePolicy = iota
	// NewlineLF forces '\n' for every terminated line.
	NewlineLF
	// NewlineCRLF forces "\r\n" for every terminated line.
	NewlineCRLF
	// NewlineKeep preserves each line's original terminator.
	NewlineKeep
)

func (p NewlinePolicy) terminatorFor(orig NewLine) string {
	switch p {
	case NewlineLF:
		if orig == NewLineNone {
			return ""
		}
		return "\n"
	case NewlineCRLF:
		if orig == NewLineNone {
			return ""
		}
		return "\r\n"
	case NewlineKeep:
		return orig.String()
	case NewlineNative:
		fallthrough
	default:
		if orig == NewLineNone {
			return ""
		}
		if runtime.GOOS == "windows" {
			return "\r\n"
		}
		return "\n"
	}
}

// RejectFormat selects the diff dialect used when writing failed hunks to
// a reject file.
type RejectFormat int

const (
	// RejectFormatDefault writes unified rejects for a unified (or git)
	// source patch and context rejects for every other format.
	RejectFormatDefault RejectFormat = iota
	// RejectFormatUnified always writes unified-style rejects.
	RejectFormatUnified
	// RejectFormatContext always writes context-style rejects.
	RejectFormatContext
)

// ReadOnlyHandling controls what the driver does when the target of a
// patch is not writable.
type ReadOnlyHandling int

const (
	// ReadOnlyWarn prints a warning, adds owner write permission, and
	// proceeds. The original mode is not restored afterwards.
	ReadOnlyWarn ReadOnlyHandling = iota
	// ReadOnlyIgnore silently proceeds as if the file were writable.
	ReadOnlyIgnore
	// ReadOnlyFail refuses to patch a read-only target.
	ReadOnlyFail
)

// FormatOverride forces the parser to interpret every patch in the
// stream as a specific format, bypassing auto-detection.
type FormatOverride int

const (
	// FormatAuto performs normal format auto-detection.
	FormatAuto FormatOverride = iota
	FormatOverrideContext
	FormatOverrideUnified
	FormatOverrideNormal
	// FormatOverrideEd rejects the stream outright: the parser tries no
	// dialect, so every line is skipped as garbage and the stream fails
	// with the "only garbage" parse error. Ed scripts are not parsed.
	FormatOverrideEd
)

// Options is the configuration the CLI layer (or any other caller)
// assembles and passes to the driver. It is the contract described in
// spec.md §6: every field here corresponds 1:1 to a documented
// command-line switch, but parsing argv into an Options value is
// explicitly the CLI layer's job, not the core's.
type Options struct {
	// FormatOverride forces a specific diff dialect instead of
	// auto-detecting.
	FormatOverride FormatOverride

	// Strip is the number of leading path components to remove from
	// parsed paths; -1 means "strip all but the basename".
	Strip int

	// MaxFuzz bounds how many leading/trailing context lines the
	// locator may disregard. Defaults to 2.
	MaxFuzz int64

	// IgnoreWhitespace relaxes line equivalence to ignore runs of
	// spaces/tabs and newline style.
	IgnoreWhitespace bool

	// ReversePatch applies every patch as if its old and new sides were
	// swapped.
	ReversePatch bool

	// IgnoreReversed suppresses the reversed-patch prompt/auto-reverse
	// entirely; a hunk that looks reversed is just applied or rejected
	// as given.
	IgnoreReversed bool

	// Force suppresses the reversed-patch check and all prompts,
	// applying hunks exactly as located.
	Force bool

	// Batch answers every prompt with its documented default instead of
	// asking.
	Batch bool

	// DryRun runs the full pipeline (including reject generation) but
	// never writes to the filesystem.
	DryRun bool

	// DefineMacro, when non-empty, requests #ifdef/#ifndef
	// materialisation of every hunk using this macro name.
	DefineMacro string

	// NewlineOutput selects the line terminator policy for written
	// files.
	NewlineOutput NewlinePolicy

	// RejectFormat selects the diff dialect for reject files.
	RejectFormat RejectFormat

	// ReadOnlyHandling controls behaviour against read-only targets.
	ReadOnlyHandling ReadOnlyHandling

	// RemoveEmptyFiles deletes a target left empty by a Delete patch
	// (and its now-empty parent directories).
	RemoveEmptyFiles bool

	// BackupIfMismatch requests a backup be taken whenever any hunk of
	// a patch fails to apply perfectly, even if SaveBackup is false.
	BackupIfMismatch bool

	// SaveBackup unconditionally requests a backup of every patched
	// file before it is overwritten.
	SaveBackup bool

	// FileToPatch overrides target selection: every patch in the
	// stream is applied to this single path instead of the guessed
	// target.
	FileToPatch string

	// OutputPath, if non-empty, redirects the patched content to a
	// single path instead of overwriting the guessed target in place.
	// "-" is not special: it names a file called "-".
	OutputPath string

	// Verbose requests a per-hunk status line even when the hunk
	// applied perfectly.
	Verbose bool
}

// DefaultOptions returns the POSIX-documented defaults.
func DefaultOptions() Options {
	return Options{
		Strip:   -1,
		MaxFuzz: 2,
	}
}
