package dashboard

import (
	"strings"
	"testing"
)

func TestConfirm_View(t *testing.T) {
	// Given: a confirm state for contact 2
	cs := confirmState{id: 2, name: "Ben", email: "ben@x.com"}

	// When: the view is rendered
	view := stripANSI(cs.View())

	// Then: it names the contact and shows both answers
	for _, want := range []string{"Delete contact 2?", "Ben", "ben@x.com", "[y] Yes", "[n] No"} {
		if !strings.Contains(view, want) {
			t.Errorf("view should contain %q, got:\n%s", want, view)
		}
	}
}

func TestConfirm_ViewWithoutDetails(t *testing.T) {
	// Given: a confirm state for an id not in the collection
	cs := confirmState{id: 9}

	// Then: the prompt still renders
	if view := cs.View(); !strings.Contains(view, "Delete contact 9?") {
		t.Errorf("view = %q", view)
	}
}
