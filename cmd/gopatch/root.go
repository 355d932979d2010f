// Package main implements the gopatch command-line tool: a cobra/pflag
// front end that translates its flags onto patch.Options and drives
// patch.Driver against the real filesystem.
package main

import (
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/groboclown/gopatch/patch"
)

// exit codes, per spec.md §7.
const (
	exitSuccess    = 0
	exitSomeFailed = 1
	exitFatal      = 2
)

type cliFlags struct {
	format           string
	strip            int
	fuzz             int64
	ignoreWhitespace bool
	reverse          bool
	ignoreReversed   bool
	force            bool
	batch            bool
	dryRun           bool
	defineMacro      string
	newlineOutput    string
	rejectFormat     string
	readOnly         string
	removeEmpty      bool
	backupIfMismatch bool
	backup           bool
	output           string
	input            string
	verbose          bool
}

func newRootCommand() *cobra.Command {
	f := &cliFlags{}

	cmd := &cobra.Command{
		Use:   "gopatch [file]",
		Short: "Apply a unified, context, or normal diff to files",
		Long: "gopatch reads a patch from standard input (or --input) and applies\n" +
			"it to the file it names, or to the positional [file] argument if given.",
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			fileToPatch := ""
			if len(args) == 1 {
				fileToPatch = args[0]
			}
			return runPatch(cmd, f, fileToPatch)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&f.format, "format", "auto", "force diff format: auto, context, unified, normal, ed")
	flags.IntVarP(&f.strip, "strip", "p", -1, "strip NUM leading path components (-1 strips all but the basename)")
	flags.Int64VarP(&f.fuzz, "fuzz", "F", 2, "maximum fuzz: leading/trailing context lines a hunk may disregard")
	flags.BoolVarP(&f.ignoreWhitespace, "ignore-whitespace", "l", false, "treat runs of whitespace as equivalent when matching")
	flags.BoolVarP(&f.reverse, "reverse", "R", false, "assume the patch was generated with old and new swapped")
	flags.BoolVar(&f.ignoreReversed, "ignore-reversed", false, "never auto-detect or prompt for a reversed patch")
	flags.BoolVarP(&f.force, "force", "f", false, "assume the patch applies as given; skip the reversed-patch check and prompts")
	flags.BoolVarP(&f.batch, "batch", "t", false, "never ask questions; answer every prompt with its documented default")
	flags.BoolVarP(&f.dryRun, "dry-run", "n", false, "do everything except actually write any file")
	flags.StringVarP(&f.defineMacro, "define", "D", "", "wrap changed lines in #ifdef/#ifndef NAME instead of applying them unconditionally")
	flags.StringVar(&f.newlineOutput, "newline-output", "native", "line terminator for written files: native, lf, crlf, keep")
	flags.StringVar(&f.rejectFormat, "reject-format", "default", "diff dialect for reject files: default, context, unified")
	flags.StringVar(&f.readOnly, "read-only", "warn", "behaviour against a read-only target: warn, ignore, fail")
	flags.BoolVarP(&f.removeEmpty, "remove-empty-files", "E", false, "remove a target left empty by a delete, and its now-empty parent directories")
	flags.BoolVar(&f.backupIfMismatch, "backup-if-mismatch", false, "back up the original file whenever any hunk fails to apply perfectly")
	flags.BoolVarP(&f.backup, "backup", "b", false, "back up every patched file before overwriting it")
	flags.StringVarP(&f.output, "output", "o", "", "write the patched content to this file instead of overwriting the target")
	flags.StringVarP(&f.input, "input", "i", "", "read the patch from this file instead of standard input")
	flags.BoolVarP(&f.verbose, "verbose", "v", false, "report every hunk, including ones that applied perfectly")

	return cmd
}

func parseFormatOverride(s string) (patch.FormatOverride, error) {
	switch strings.ToLower(s) {
	case "", "auto":
		return patch.FormatAuto, nil
	case "context":
		return patch.FormatOverrideContext, nil
	case "unified":
		return patch.FormatOverrideUnified, nil
	case "normal":
		return patch.FormatOverrideNormal, nil
	case "ed":
		return patch.FormatOverrideEd, nil
	default:
		return 0, errors.Errorf("unknown --format %q", s)
	}
}

func parseNewlinePolicy(s string) (patch.NewlinePolicy, error) {
	switch strings.ToLower(s) {
	case "", "native":
		return patch.NewlineNative, nil
	case "lf":
		return patch.NewlineLF, nil
	case "crlf":
		return patch.NewlineCRLF, nil
	case "keep":
		return patch.NewlineKeep, nil
	default:
		return 0, errors.Errorf("unknown --newline-output %q", s)
	}
}

func parseRejectFormat(s string) (patch.RejectFormat, error) {
	switch strings.ToLower(s) {
	case "", "default":
		return patch.RejectFormatDefault, nil
	case "unified":
		return patch.RejectFormatUnified, nil
	case "context":
		return patch.RejectFormatContext, nil
	default:
		return 0, errors.Errorf("unknown --reject-format %q", s)
	}
}

func parseReadOnlyHandling(s string) (patch.ReadOnlyHandling, error) {
	switch strings.ToLower(s) {
	case "", "warn":
		return patch.ReadOnlyWarn, nil
	case "ignore":
		return patch.ReadOnlyIgnore, nil
	case "fail":
		return patch.ReadOnlyFail, nil
	default:
		return 0, errors.Errorf("unknown --read-only %q", s)
	}
}

func (f *cliFlags) toOptions(fileToPatch string) (patch.Options, error) {
	opts := patch.DefaultOptions()

	format, err := parseFormatOverride(f.format)
	if err != nil {
		return opts, err
	}
	newline, err := parseNewlinePolicy(f.newlineOutput)
	if err != nil {
		return opts, err
	}
	reject, err := parseRejectFormat(f.rejectFormat)
	if err != nil {
		return opts, err
	}
	readOnly, err := parseReadOnlyHandling(f.readOnly)
	if err != nil {
		return opts, err
	}

	opts.FormatOverride = format
	opts.Strip = f.strip
	opts.MaxFuzz = f.fuzz
	opts.IgnoreWhitespace = f.ignoreWhitespace
	opts.ReversePatch = f.reverse
	opts.IgnoreReversed = f.ignoreReversed
	opts.Force = f.force
	opts.Batch = f.batch
	opts.DryRun = f.dryRun
	opts.DefineMacro = f.defineMacro
	opts.NewlineOutput = newline
	opts.RejectFormat = reject
	opts.ReadOnlyHandling = readOnly
	opts.RemoveEmptyFiles = f.removeEmpty
	opts.BackupIfMismatch = f.backupIfMismatch
	opts.SaveBackup = f.backup
	opts.FileToPatch = fileToPatch
	opts.OutputPath = f.output
	opts.Verbose = f.verbose

	return opts, nil
}

func runPatch(cmd *cobra.Command, f *cliFlags, fileToPatch string) error {
	opts, err := f.toOptions(fileToPatch)
	if err != nil {
		return &exitCodeError{code: exitFatal, err: err}
	}

	log := newLogger(cmd.ErrOrStderr(), opts.Verbose)

	var src io.Reader = cmd.InOrStdin()
	if f.input != "" {
		file, err := os.Open(f.input)
		if err != nil {
			return &exitCodeError{code: exitFatal, err: errors.Wrapf(err, "opening %s", f.input)}
		}
		defer file.Close()
		src = file
	}

	driver := patch.NewDriver(afero.NewOsFs(), opts, newTerminalPrompter(cmd.InOrStdin(), cmd.OutOrStdout()), log)

	report, err := driver.ApplyStream(src)
	if err != nil {
		return &exitCodeError{code: exitFatal, err: err}
	}

	failed := false
	for _, pr := range report.Patches {
		if pr.Skipped {
			failed = true
			continue
		}
		if !pr.Applied {
			failed = true
		}
	}
	if failed {
		return &exitCodeError{code: exitSomeFailed, err: errors.New("some hunks failed or were skipped")}
	}
	return nil
}

func newLogger(out io.Writer, verbose bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if !verbose {
		level = zerolog.WarnLevel
	}
	writer := zerolog.ConsoleWriter{Out: out, TimeFormat: "15:04:05"}
	return zerolog.New(writer).Level(level).With().Timestamp().Logger()
}

// exitCodeError carries the process exit code a failure should produce
// alongside the human-readable cause, so main can report it without
// re-deriving the taxonomy from spec.md §7.
type exitCodeError struct {
	code int
	err  error
}

func (e *exitCodeError) Error() string { return e.err.Error() }
func (e *exitCodeError) Unwrap() error { return e.err }
