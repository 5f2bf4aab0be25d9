package dashboard

import (
	"testing"

	"github.com/charmbracelet/bubbles/help"
)

func TestHelpBindings_PerMode(t *testing.T) {
	tests := []struct {
		mode    Mode
		present string
		absent  string
	}{
		{mode: ModeBrowse, present: "q", absent: "ctrl+s"},
		{mode: ModeEdit, present: "ctrl+s", absent: "q"},
		{mode: ModeConfirm, present: "y", absent: "d"},
	}
	for _, tt := range tests {
		// Given: help bindings for the mode
		allKeys := collectKeys(HelpBindings(tt.mode).ShortHelp())

		// Then: the mode's keys are shown and others are not
		if !containsKey(allKeys, tt.present) {
			t.Errorf("mode %d help should contain %q, got %v", tt.mode, tt.present, allKeys)
		}
		if containsKey(allKeys, tt.absent) {
			t.Errorf("mode %d help should not contain %q", tt.mode, tt.absent)
		}
	}
}

// Verify our key map types satisfy help.KeyMap at compile time.
var (
	_ help.KeyMap = browseKeys{}
	_ help.KeyMap = formKeys{}
	_ help.KeyMap = confirmKeys{}
)
