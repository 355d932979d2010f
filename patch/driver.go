package patch

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
)

// PatchReport summarises what the driver did with one Patch from the
// stream.
type PatchReport struct {
	Patch      *Patch
	TargetPath string
	Applied    bool
	Reversed   bool
	Hunks      []HunkOutcome
	RejectPath string
	Skipped    bool
}

// StreamReport summarises an entire ApplyStream run.
type StreamReport struct {
	Patches     []*PatchReport
	GarbageOnly bool
}

// Driver orchestrates the parser, locator and applier against a real (or
// in-memory, via afero.MemMapFs) filesystem: for every patch in a
// stream, it resolves a target path, reads the target's current
// content, checks prerequisites, detects and handles reversed patches,
// applies hunks, and commits the result — backups, rejects, renames,
// mode changes and all.
type Driver struct {
	FS      afero.Fs
	Options Options
	Prompt  Prompter
	Log     zerolog.Logger
}

// NewDriver returns a Driver ready to process a patch stream. A nil
// Prompt falls back to BatchPrompter automatically whenever prompting
// would otherwise be required.
func NewDriver(fs afero.Fs, opts Options, prompt Prompter, log zerolog.Logger) *Driver {
	return &Driver{FS: fs, Options: opts, Prompt: prompt, Log: log}
}

func (d *Driver) prompter() Prompter {
	if d.Options.Batch || d.Prompt == nil {
		return BatchPrompter{}
	}
	return d.Prompt
}

// commitOp is a fully-resolved filesystem effect for one patch, queued
// either for immediate application or for inclusion in a DeferredWriter.
type commitOp struct {
	patch      *Patch
	targetPath string
	content    []Line
	report     *PatchReport
}

// DeferredWriter batches the filesystem effects of every patch in a
// git-format stream and commits them together once the whole stream has
// parsed successfully. A git-format stream can rename a file in one
// fragment and edit it again under its new name later in the same
// stream; committing eagerly would make the second fragment's target
// guess depend on exactly when the first fragment's rename lands on
// disk. Buffering removes that ordering hazard.
type DeferredWriter struct {
	driver *Driver
	ops    []commitOp
}

func newDeferredWriter(d *Driver) *DeferredWriter {
	return &DeferredWriter{driver: d}
}

// Add queues an operation for Commit.
func (w *DeferredWriter) Add(op commitOp) {
	w.ops = append(w.ops, op)
}

// Commit applies every queued operation in the order it was added.
func (w *DeferredWriter) Commit() error {
	for _, op := range w.ops {
		if err := w.driver.commit(op); err != nil {
			return err
		}
	}
	return nil
}

// ApplyStream parses every patch out of r and applies each one in turn.
// A non-empty stream that yields no recognisable patch header at all is
// reported as a fatal ParseError ("only garbage was found"), matching patch(1)'s
// own behaviour for a file that isn't a patch.
func (d *Driver) ApplyStream(r io.Reader) (*StreamReport, error) {
	src, err := NewLineSource(r)
	if err != nil {
		return nil, err
	}
	parser := NewParser(src, d.Options.Strip, d.Options.FormatOverride)

	report := &StreamReport{}
	var deferred *DeferredWriter
	first := true

	for {
		p, info, needsBody, err := parser.ParseHeader()
		if err != nil {
			return report, err
		}
		if p == nil {
			if first && len(info.SkippedLines) > 0 {
				report.GarbageOnly = true
				return report, errParsef("only garbage was found in the patch input")
			}
			break
		}
		first = false

		if p.Format == FormatEd {
			d.Log.Warn().Msg("ed format patches are recognised but not applied")
			report.Patches = append(report.Patches, &PatchReport{Patch: p, Skipped: true})
			continue
		}

		if needsBody {
			if err := parser.ParseBody(p); err != nil {
				return report, err
			}
		}

		if p.Operation == OperationBinary {
			d.Log.Warn().Str("path", p.NewPath).Msg("binary patch hunks are recognised but not applied")
			report.Patches = append(report.Patches, &PatchReport{Patch: p, Skipped: true})
			continue
		}

		if p.Format == FormatGit && deferred == nil && !d.Options.DryRun {
			deferred = newDeferredWriter(d)
		}

		var writer *DeferredWriter
		if p.Format == FormatGit {
			writer = deferred
		}
		pr, err := d.applyOnePatch(p, writer)
		if err != nil {
			return report, err
		}
		report.Patches = append(report.Patches, pr)
	}

	if deferred != nil {
		if err := deferred.Commit(); err != nil {
			return report, err
		}
	}

	return report, nil
}

func (d *Driver) applyOnePatch(p *Patch, deferred *DeferredWriter) (*PatchReport, error) {
	pr := &PatchReport{Patch: p}

	targetPath := d.finalTargetPath(p)
	if targetPath == "" {
		return pr, errParsef("could not determine target file for patch")
	}
	pr.TargetPath = targetPath

	readPath := d.readSourcePath(p, targetPath)
	original, err := ReadLines(d.FS, readPath)
	if err != nil {
		return pr, err
	}

	if p.Prerequisite != "" && !verifyPrerequisite(original, p.Prerequisite) && !d.Options.Force {
		return pr, newPolicyError(fmt.Sprintf("prerequisite %q not found in %s", p.Prerequisite, targetPath))
	}

	if err := d.checkReadOnly(targetPath); err != nil {
		return pr, err
	}

	applyReversed := false
	if !d.Options.Force && !d.Options.IgnoreReversed && len(p.Hunks) > 0 {
		if LooksReversed(original, p, d.Options.MaxFuzz) {
			applyReversed = d.confirmReversed()
			pr.Reversed = applyReversed
		}
	}

	result, err := ApplyPatch(original, p, d.Options, applyReversed)
	if err != nil {
		return pr, err
	}
	pr.Hunks = result.Outcomes
	for i, outcome := range result.Outcomes {
		logHunkOutcome(&d.Log, i, outcome, d.Options.Verbose)
	}
	pr.Applied = result.FullyApplied()

	mismatch := !result.FullyApplied()
	for _, outcome := range result.Outcomes {
		if outcome.Location.Fuzz != 0 || outcome.Location.Offset != 0 {
			mismatch = true
		}
	}
	if !d.Options.DryRun && (d.Options.SaveBackup || (d.Options.BackupIfMismatch && mismatch)) {
		if err := d.writeBackup(targetPath, original); err != nil {
			return pr, err
		}
	}

	if len(result.Failed) > 0 {
		pr.RejectPath = RejectPath(targetPath)
		if !d.Options.DryRun {
			sink, err := CreateFileSink(d.FS, pr.RejectPath)
			if err != nil {
				return pr, err
			}
			werr := WriteRejects(sink, p, result.Failed, d.Options.RejectFormat, d.Options.NewlineOutput)
			cerr := sink.Close()
			if werr != nil {
				return pr, werr
			}
			if cerr != nil {
				return pr, cerr
			}
		}
	}

	if d.Options.DryRun {
		return pr, nil
	}

	outputPath := targetPath
	if d.Options.OutputPath != "" {
		outputPath = d.Options.OutputPath
	}
	op := commitOp{patch: p, targetPath: outputPath, content: result.Lines, report: pr}

	if deferred != nil {
		deferred.Add(op)
	} else if err := d.commit(op); err != nil {
		return pr, err
	}

	return pr, nil
}

// finalTargetPath resolves where a patch's output ultimately belongs:
// the new name for Add/Rename/Copy, the old name for Delete, and a
// guessed (possibly prompted) path for an in-place Change.
func (d *Driver) finalTargetPath(p *Patch) string {
	if d.Options.FileToPatch != "" {
		return d.Options.FileToPatch
	}
	switch p.Operation {
	case OperationAdd, OperationRename, OperationCopy:
		return p.NewPath
	case OperationDelete:
		return p.OldPath
	default:
		return d.guessChangeTarget(p)
	}
}

func (d *Driver) guessChangeTarget(p *Patch) string {
	var candidates []string
	if p.OldPath != "" && p.OldPath != "/dev/null" {
		candidates = append(candidates, p.OldPath)
	}
	if p.NewPath != "" && p.NewPath != "/dev/null" && p.NewPath != p.OldPath {
		candidates = append(candidates, p.NewPath)
	}
	for _, c := range candidates {
		if exists, _ := afero.Exists(d.FS, c); exists {
			return c
		}
	}
	if len(candidates) == 0 {
		return ""
	}
	if !d.Options.Batch && !d.Options.Force && !d.Options.DryRun {
		answer, err := d.prompter().Ask(PromptMissingFile, fmt.Sprintf("File to patch (%s):", candidates[0]))
		if err == nil && answer != "" {
			return answer
		}
	}
	return candidates[0]
}

// readSourcePath returns the path whose current content should seed the
// apply: normally the target itself, except for Rename/Copy where the
// content still lives at the old name until the rename is committed —
// unless a previous run of this same patch already performed the
// rename, in which case the content is already at the new name.
func (d *Driver) readSourcePath(p *Patch, targetPath string) string {
	switch p.Operation {
	case OperationAdd:
		return ""
	case OperationRename, OperationCopy:
		if exists, _ := afero.Exists(d.FS, p.OldPath); exists {
			return p.OldPath
		}
		return targetPath
	default:
		return targetPath
	}
}

func (d *Driver) checkReadOnly(path string) error {
	info, err := d.FS.Stat(path)
	if err != nil {
		return nil
	}
	if info.Mode().Perm()&0200 != 0 {
		return nil
	}
	switch d.Options.ReadOnlyHandling {
	case ReadOnlyIgnore:
		return nil
	case ReadOnlyFail:
		return newApplyError(path, fmt.Errorf("target is read-only"))
	default:
		d.Log.Warn().Str("path", path).Msg("target file is read-only; adding write permission to patch it")
		if d.Options.DryRun {
			return nil
		}
		return d.FS.Chmod(path, info.Mode()|0200)
	}
}

func (d *Driver) confirmReversed() bool {
	ok, err := d.prompter().Confirm(PromptReversed, "Reversed (or previously applied) patch detected! Assume -R?")
	if err != nil {
		return PromptReversed.BatchDefault()
	}
	return ok
}

func (d *Driver) writeBackup(path string, content []Line) error {
	sink, err := CreateFileSink(d.FS, path+".orig")
	if err != nil {
		return err
	}
	if err := WriteLines(sink, content, d.Options.NewlineOutput); err != nil {
		sink.Close()
		return err
	}
	return sink.Close()
}

// commit performs the filesystem effects a single patch's outcome
// requires: a rename/copy of the underlying file, a delete, or a plain
// content write, followed by a mode change if the patch recorded one.
func (d *Driver) commit(op commitOp) error {
	p := op.patch

	switch p.Operation {
	case OperationDelete:
		// A delete is written like any other patch first: what's left
		// after removing the hunk's lines is the file's new content,
		// which is normally empty but isn't guaranteed to be.
		if err := d.writeTargetContent(op.targetPath, op.content, p.NewMode); err != nil {
			return err
		}
		if !d.Options.RemoveEmptyFiles {
			return nil
		}
		if len(op.content) != 0 {
			d.Log.Warn().Str("path", op.targetPath).
				Msg(fmt.Sprintf("Not deleting file %s as content differs from patch", op.targetPath))
			if op.report != nil {
				op.report.Applied = false
			}
			return nil
		}
		if err := d.FS.Remove(op.targetPath); err != nil && !os.IsNotExist(err) {
			return newApplyError(op.targetPath, err)
		}
		d.removeEmptyParents(filepath.Dir(op.targetPath))
		return nil

	case OperationRename:
		if exists, _ := afero.Exists(d.FS, p.OldPath); exists {
			if err := d.FS.Rename(p.OldPath, op.targetPath); err != nil {
				return newApplyError(op.targetPath, err)
			}
		} else {
			d.Log.Info().Str("path", p.NewPath).Str("from", p.OldPath).
				Msg("already renamed from old path")
		}
		return d.writeTargetContent(op.targetPath, op.content, p.NewMode)

	case OperationCopy:
		return d.writeTargetContent(op.targetPath, op.content, p.NewMode)

	default:
		if len(op.content) == 0 && d.Options.RemoveEmptyFiles {
			if err := d.FS.Remove(op.targetPath); err != nil && !os.IsNotExist(err) {
				return newApplyError(op.targetPath, err)
			}
			d.removeEmptyParents(filepath.Dir(op.targetPath))
			return nil
		}
		return d.writeTargetContent(op.targetPath, op.content, p.NewMode)
	}
}

func (d *Driver) writeTargetContent(path string, content []Line, mode uint16) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := d.FS.MkdirAll(dir, 0o755); err != nil {
			return newApplyError(path, err)
		}
	}

	if IsSymlinkMode(mode) {
		if linker, ok := d.FS.(afero.Linker); ok {
			if err := linker.SymlinkIfPossible(symlinkTarget(content), path); err == nil {
				return nil
			}
		}
		d.Log.Warn().Str("path", path).Msg("filesystem does not support symlinks; writing link target as file content")
	}

	sink, err := CreateFileSink(d.FS, path)
	if err != nil {
		return newApplyError(path, err)
	}
	if err := WriteLines(sink, content, d.Options.NewlineOutput); err != nil {
		sink.Close()
		return newApplyError(path, err)
	}
	if err := sink.Close(); err != nil {
		return newApplyError(path, err)
	}

	if mode != 0 {
		if err := d.FS.Chmod(path, os.FileMode(mode&0o777)); err != nil {
			return newApplyError(path, err)
		}
	}
	return nil
}

func symlinkTarget(content []Line) string {
	if len(content) == 0 {
		return ""
	}
	return string(content[0].Content)
}

// removeEmptyParents deletes dir and its ancestors as long as each is
// left completely empty, stopping at the first non-empty or
// unremovable directory. It implements the --remove-empty-files
// companion behaviour of cleaning up directories a delete left behind.
func (d *Driver) removeEmptyParents(dir string) {
	for dir != "." && dir != "/" && dir != "" {
		entries, err := afero.ReadDir(d.FS, dir)
		if err != nil || len(entries) > 0 {
			return
		}
		if err := d.FS.Remove(dir); err != nil {
			return
		}
		dir = filepath.Dir(dir)
	}
}
