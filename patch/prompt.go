package patch

// PromptKind identifies which question the driver is asking, so a
// Prompter can apply --batch's documented default without needing to
// parse the question text.
type PromptKind int

const (
	// PromptMissingFile asks "File to patch:" when target guessing fails.
	PromptMissingFile PromptKind = iota
	// PromptReversed asks whether a patch that looks reversed should be
	// applied in reverse.
	PromptReversed
	// PromptApplyAnyway asks whether to apply a hunk that only placed
	// with fuzz, or not at all, once already confirmed reversed-or-not.
	PromptApplyAnyway
	// PromptOverwrite asks whether to replace an existing file that a
	// patch's Add operation did not expect to find.
	PromptOverwrite
)

// BatchDefault is the answer --batch substitutes for each PromptKind
// instead of asking, per spec.md §6.
func (k PromptKind) BatchDefault() bool {
	switch k {
	case PromptReversed:
		return false // assume not reversed; apply as given
	case PromptApplyAnyway:
		return true
	case PromptOverwrite:
		return true
	default:
		return false
	}
}

// Prompter is the driver's only dependency on interactive I/O. The core
// package never touches a terminal directly; a CLI wires a real
// implementation, and tests wire a scripted one.
type Prompter interface {
	// Confirm asks a yes/no question and returns the answer. message is
	// the exact text to show the user.
	Confirm(kind PromptKind, message string) (bool, error)

	// Ask asks an open-ended question (only PromptMissingFile uses this)
	// and returns the typed response.
	Ask(kind PromptKind, message string) (string, error)
}

// BatchPrompter answers every question with its documented --batch
// default, without ever touching an I/O stream. The driver selects it
// automatically when Options.Batch is set.
type BatchPrompter struct{}

func (BatchPrompter) Confirm(kind PromptKind, _ string) (bool, error) {
	return kind.BatchDefault(), nil
}

func (BatchPrompter) Ask(_ PromptKind, _ string) (string, error) {
	return "", nil
}
