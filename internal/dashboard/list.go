package dashboard

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/smileynet/contactbook/internal/contact"
)

// listState holds the last fetched collection and the table that renders it.
type listState struct {
	contacts []contact.Contact
	table    table.Model
	loading  bool
	loaded   bool // at least one fetch has succeeded
	err      error
}

// newListState returns a listState in the loading state.
func newListState() listState {
	t := table.New(
		table.WithColumns(tableColumns(MinLeftWidth)),
		table.WithFocused(true),
		table.WithHeight(5),
	)
	return listState{table: t, loading: true}
}

// loadContacts returns a tea.Cmd that calls svc.GetAll() asynchronously
// and wraps the result in a ContactsLoadedMsg.
func loadContacts(ctx context.Context, svc ContactService) tea.Cmd {
	return func() tea.Msg {
		contacts, err := svc.GetAll(ctx)
		return ContactsLoadedMsg{Contacts: contacts, Err: err}
	}
}

// apply replaces the collection wholesale on success. On failure the
// previous collection is kept and the error recorded.
func (ls listState) apply(msg ContactsLoadedMsg) listState {
	ls.loading = false
	if msg.Err != nil {
		ls.err = msg.Err
		return ls
	}
	ls.err = nil
	ls.loaded = true
	ls.contacts = make([]contact.Contact, len(msg.Contacts))
	rows := make([]table.Row, len(msg.Contacts))
	for i, c := range msg.Contacts {
		ls.contacts[i] = c.Clone()
		rows[i] = table.Row{c.IDString(), c.Name, c.Email, c.Phone}
	}
	ls.table.SetRows(rows)
	if ls.table.Cursor() < 0 && len(rows) > 0 {
		ls.table.SetCursor(0)
	}
	return ls
}

// Selected returns the contact under the cursor.
func (ls listState) Selected() (contact.Contact, bool) {
	i := ls.table.Cursor()
	if i < 0 || i >= len(ls.contacts) {
		return contact.Contact{}, false
	}
	return ls.contacts[i].Clone(), true
}

// Contacts returns a copy of the current collection.
func (ls listState) Contacts() []contact.Contact {
	out := make([]contact.Contact, len(ls.contacts))
	for i, c := range ls.contacts {
		out[i] = c.Clone()
	}
	return out
}

// setSize fits the table into a pane of the given inner dimensions.
func (ls listState) setSize(width, height int) listState {
	ls.table.SetColumns(tableColumns(width))
	ls.table.SetWidth(width)
	// Title line and a blank line sit above the table.
	h := height - 2
	if h < 3 {
		h = 3
	}
	ls.table.SetHeight(h)
	return ls
}

// Update forwards navigation keys to the table.
func (ls listState) Update(msg tea.Msg) (listState, tea.Cmd) {
	var cmd tea.Cmd
	ls.table, cmd = ls.table.Update(msg)
	return ls, cmd
}

// View renders the table, or a placeholder while nothing has loaded.
func (ls listState) View() string {
	switch {
	case !ls.loaded && ls.err != nil:
		return errorStyle.Render(fmt.Sprintf("Could not load contacts: %v", ls.err))
	case !ls.loaded:
		return dimStyle.Render("Loading contacts...")
	case len(ls.contacts) == 0:
		return dimStyle.Render("No contacts yet. Press n to add one.")
	}
	return ls.table.View()
}

// tableColumns splits width between the four columns. Cell padding of the
// default table styles takes two characters per column.
func tableColumns(width int) []table.Column {
	const idWidth = 4
	avail := width - idWidth - 8
	if avail < 12 {
		avail = 12
	}
	name := avail * 3 / 10
	email := avail * 4 / 10
	phone := avail - name - email
	return []table.Column{
		{Title: "ID", Width: idWidth},
		{Title: "Name", Width: name},
		{Title: "Email", Width: email},
		{Title: "Phone", Width: phone},
	}
}
