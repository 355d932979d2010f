package patch

import "testing"

func TestPromptKindBatchDefault(t *testing.T) {
	tests := map[PromptKind]bool{
		PromptMissingFile: false,
		PromptReversed:    false,
		PromptApplyAnyway: true,
		PromptOverwrite:   true,
	}
	for kind, want := range tests {
		if got := kind.BatchDefault(); got != want {
			t.Errorf("BatchDefault(%d) = %v, want %v", kind, got, want)
		}
	}
}

func TestBatchPrompter(t *testing.T) {
	var p Prompter = BatchPrompter{}

	ok, err := p.Confirm(PromptReversed, "reversed?")
	if err != nil || ok != false {
		t.Errorf("Confirm(PromptReversed) = %v, %v, want false, nil", ok, err)
	}

	ok, err = p.Confirm(PromptApplyAnyway, "apply anyway?")
	if err != nil || ok != true {
		t.Errorf("Confirm(PromptApplyAnyway) = %v, %v, want true, nil", ok, err)
	}

	answer, err := p.Ask(PromptMissingFile, "file to patch?")
	if err != nil || answer != "" {
		t.Errorf("Ask() = %q, %v, want \"\", nil", answer, err)
	}
}
