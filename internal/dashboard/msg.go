// Package dashboard implements the two-pane contact manager TUI: the contact
// table on the left, and the detail view, edit form, or delete prompt on the
// right.
package dashboard

import (
	"context"

	"github.com/smileynet/contactbook/internal/contact"
)

// Mode represents the current dashboard view mode.
type Mode int

const (
	ModeBrowse  Mode = iota // Browsing the contact table with detail pane.
	ModeEdit                // Editing a new or existing contact in the form.
	ModeConfirm             // Waiting for a yes/no answer to a delete.
)

// Outcome is how an edit session ended.
type Outcome int

const (
	Created Outcome = iota + 1
	Updated
	Cancelled
)

func (o Outcome) String() string {
	switch o {
	case Created:
		return "created"
	case Updated:
		return "updated"
	case Cancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// --- Consumer-side interfaces ---

// ContactService is the remote contact store as the dashboard sees it.
// Each call maps to exactly one request.
type ContactService interface {
	GetAll(ctx context.Context) ([]contact.Contact, error)
	Create(ctx context.Context, f contact.Fields) (contact.Contact, error)
	Update(ctx context.Context, c contact.Contact) (contact.Contact, error)
	Delete(ctx context.Context, id int64) error
}

// --- tea.Msg types ---

// ContactsLoadedMsg carries the result of a ContactService.GetAll() call.
type ContactsLoadedMsg struct {
	Contacts []contact.Contact
	Err      error
}

// SettledMsg is emitted exactly once when an edit session ends, either by a
// successful save or by cancellation. Contact is the saved contact and is
// empty for Cancelled.
type SettledMsg struct {
	Outcome Outcome
	Contact contact.Contact
}

// submitDoneMsg carries the result of a form submission.
type submitDoneMsg struct {
	Outcome Outcome
	Contact contact.Contact
	Err     error
}

// DeleteDoneMsg carries the result of a ContactService.Delete() call.
type DeleteDoneMsg struct {
	ID  int64
	Err error
}
