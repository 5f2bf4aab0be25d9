package dashboard

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/smileynet/contactbook/internal/contact"
)

func TestList_ApplyReplacesCollection(t *testing.T) {
	// Given: a list holding one contact
	ls := newListState().apply(ContactsLoadedMsg{Contacts: []contact.Contact{ana.WithID(1)}})

	// When: a new collection arrives
	want := []contact.Contact{ana.WithID(1), ben.WithID(2)}
	ls = ls.apply(ContactsLoadedMsg{Contacts: want})

	// Then: it replaces the old one wholesale
	if diff := cmp.Diff(want, ls.Contacts()); diff != "" {
		t.Errorf("Contacts() mismatch (-want +got):\n%s", diff)
	}
	if ls.loading || ls.err != nil {
		t.Errorf("loading = %v, err = %v; want idle without error", ls.loading, ls.err)
	}
	if len(ls.table.Rows()) != 2 {
		t.Errorf("table rows = %d, want 2", len(ls.table.Rows()))
	}
}

func TestList_ApplyFailureKeepsCollection(t *testing.T) {
	// Given: a list holding two contacts
	have := []contact.Contact{ana.WithID(1), ben.WithID(2)}
	ls := newListState().apply(ContactsLoadedMsg{Contacts: have})

	// When: a reload fails
	ls = ls.apply(ContactsLoadedMsg{Err: errors.New("timeout")})

	// Then: the previous collection is kept and the error recorded
	if diff := cmp.Diff(have, ls.Contacts()); diff != "" {
		t.Errorf("Contacts() changed on failure (-want +got):\n%s", diff)
	}
	if ls.err == nil {
		t.Error("err should be recorded")
	}
}

func TestList_SelectedFollowsCursor(t *testing.T) {
	ls := newListState()
	if _, ok := ls.Selected(); ok {
		t.Error("empty list should have no selection")
	}

	ls = ls.apply(ContactsLoadedMsg{Contacts: []contact.Contact{ana.WithID(1), ben.WithID(2)}})
	ls.table.SetCursor(1)

	got, ok := ls.Selected()
	if !ok || got.Name != "Ben" {
		t.Errorf("Selected() = %+v, %v; want Ben", got, ok)
	}
}

func TestList_CursorRecoversAfterEmpty(t *testing.T) {
	// Given: a list that became empty
	ls := newListState().apply(ContactsLoadedMsg{Contacts: []contact.Contact{}})

	// When: contacts arrive again
	ls = ls.apply(ContactsLoadedMsg{Contacts: []contact.Contact{ana.WithID(4)}})

	// Then: the first row is selected
	got, ok := ls.Selected()
	if !ok || *got.ID != 4 {
		t.Errorf("Selected() = %+v, %v; want contact 4", got, ok)
	}
}

func TestList_ViewStates(t *testing.T) {
	tests := []struct {
		name string
		ls   listState
		want string
	}{
		{name: "loading", ls: newListState(), want: "Loading contacts..."},
		{
			name: "first load failed",
			ls:   newListState().apply(ContactsLoadedMsg{Err: errors.New("refused")}),
			want: "Could not load contacts: refused",
		},
		{
			name: "empty",
			ls:   newListState().apply(ContactsLoadedMsg{Contacts: []contact.Contact{}}),
			want: "No contacts yet",
		},
		{
			name: "rows",
			ls:   newListState().setSize(80, 10).apply(ContactsLoadedMsg{Contacts: []contact.Contact{ana.WithID(1)}}),
			want: "ana@x.com",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if view := tt.ls.View(); !containsPlainText(view, tt.want) {
				t.Errorf("View() should contain %q, got:\n%s", tt.want, stripANSI(view))
			}
		})
	}
}

func TestList_SelectedIsACopy(t *testing.T) {
	ls := newListState().apply(ContactsLoadedMsg{Contacts: []contact.Contact{ana.WithID(1)}})

	got, _ := ls.Selected()
	*got.ID = 99
	got.Name = "Mutated"

	again, _ := ls.Selected()
	if *again.ID != 1 || again.Name != "Ana" {
		t.Errorf("Selected() leaked internal state: %+v", again)
	}
}
