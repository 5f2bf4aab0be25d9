package dashboard

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/smileynet/contactbook/internal/contact"
)

// formFields lists the editable fields in focus order.
var formFields = [...]contact.Field{contact.FieldName, contact.FieldEmail, contact.FieldPhone}

var fieldLabels = [...]string{"Name", "Email", "Phone"}

// formState edits one working contact: an optional id plus three text inputs.
type formState struct {
	id         *int64
	inputs     [len(formFields)]textinput.Model
	focus      int
	touched    [len(formFields)]bool
	attempted  bool // a submit was tried; show every field error
	submitting bool
	err        error

	svc    ContactService
	ctx    context.Context
	logger *zap.Logger
}

func newFormState(ctx context.Context, svc ContactService, logger *zap.Logger) formState {
	fs := formState{svc: svc, ctx: ctx, logger: logger}
	for i := range fs.inputs {
		ti := textinput.New()
		ti.Prompt = ""
		// Stored values have no length limit; Load must not clip them.
		ti.CharLimit = 0
		ti.Placeholder = strings.ToLower(fieldLabels[i])
		ti.Cursor.SetMode(cursor.CursorStatic)
		fs.inputs[i] = ti
	}
	return fs
}

// Load replaces the working contact, including its id, and focuses the
// first field.
func (fs formState) Load(c contact.Contact) formState {
	c = c.Clone()
	fs.id = c.ID
	fs.inputs[0].SetValue(c.Name)
	fs.inputs[1].SetValue(c.Email)
	fs.inputs[2].SetValue(c.Phone)
	fs.touched = [len(formFields)]bool{}
	fs.attempted = false
	fs.submitting = false
	fs.err = nil
	return fs.focusField(0)
}

// reset clears the form back to the empty contact.
func (fs formState) reset() formState {
	fs = fs.Load(contact.Contact{})
	for i := range fs.inputs {
		fs.inputs[i].Blur()
	}
	return fs
}

// Working returns the contact currently held by the form.
func (fs formState) Working() contact.Contact {
	f := fs.fields()
	c := contact.Contact{Name: f.Name, Email: f.Email, Phone: f.Phone}
	if fs.id != nil {
		c.ID = contact.NewID(*fs.id)
	}
	return c
}

func (fs formState) fields() contact.Fields {
	return contact.Fields{
		Name:  fs.inputs[0].Value(),
		Email: fs.inputs[1].Value(),
		Phone: fs.inputs[2].Value(),
	}
}

// FieldErrors reports per-field validity of the working contact.
func (fs formState) FieldErrors() contact.FieldErrors {
	return contact.Validate(fs.fields())
}

// Valid reports whether the working contact can be submitted.
func (fs formState) Valid() bool {
	return fs.FieldErrors().OK()
}

// Submitting reports whether a submission is in flight.
func (fs formState) Submitting() bool {
	return fs.submitting
}

// submit sends the working contact to the service: Update when it carries an
// id (including 0), Create otherwise. Invalid input and repeated submits while
// one is in flight are ignored.
func (fs formState) submit() (formState, tea.Cmd) {
	if fs.submitting {
		return fs, nil
	}
	fs.attempted = true
	if !fs.Valid() {
		return fs, nil
	}
	fs.submitting = true
	fs.err = nil

	working := fs.Working()
	svc, ctx := fs.svc, fs.ctx
	if working.ID != nil {
		return fs, func() tea.Msg {
			saved, err := svc.Update(ctx, working)
			return submitDoneMsg{Outcome: Updated, Contact: saved, Err: err}
		}
	}
	fields := working.Fields()
	return fs, func() tea.Msg {
		saved, err := svc.Create(ctx, fields)
		return submitDoneMsg{Outcome: Created, Contact: saved, Err: err}
	}
}

// cancel resets the form and settles the session as Cancelled.
func (fs formState) cancel() (formState, tea.Cmd) {
	return fs.reset(), settle(Cancelled, contact.Contact{})
}

func settle(o Outcome, c contact.Contact) tea.Cmd {
	return func() tea.Msg {
		return SettledMsg{Outcome: o, Contact: c}
	}
}

// Update processes messages for the form.
func (fs formState) Update(msg tea.Msg) (formState, tea.Cmd) {
	switch msg := msg.(type) {
	case submitDoneMsg:
		return fs.applySubmit(msg)

	case tea.KeyMsg:
		if fs.submitting {
			return fs, nil
		}
		return fs.handleKey(msg)
	}

	var cmd tea.Cmd
	fs.inputs[fs.focus], cmd = fs.inputs[fs.focus].Update(msg)
	return fs, cmd
}

// applySubmit settles a successful submission or records its failure. The
// input is kept on failure so the user can correct and retry.
func (fs formState) applySubmit(msg submitDoneMsg) (formState, tea.Cmd) {
	if !fs.submitting {
		fs.logger.Debug("dropping submit result for a closed form",
			zap.Stringer("outcome", msg.Outcome))
		return fs, nil
	}
	fs.submitting = false
	if msg.Err != nil {
		fs.err = msg.Err
		fs.logger.Error("saving contact failed",
			zap.Stringer("outcome", msg.Outcome),
			zap.String("id", fs.Working().IDString()),
			zap.Error(msg.Err))
		return fs, nil
	}
	fs.logger.Info("contact saved",
		zap.Stringer("outcome", msg.Outcome),
		zap.String("id", msg.Contact.IDString()))
	return fs.reset(), settle(msg.Outcome, msg.Contact)
}

func (fs formState) handleKey(msg tea.KeyMsg) (formState, tea.Cmd) {
	switch msg.String() {
	case "esc":
		return fs.cancel()
	case "ctrl+s":
		return fs.submit()
	case "tab", "down":
		return fs.focusField((fs.focus + 1) % len(fs.inputs)), nil
	case "shift+tab", "up":
		return fs.focusField((fs.focus + len(fs.inputs) - 1) % len(fs.inputs)), nil
	case "enter":
		if fs.focus == len(fs.inputs)-1 {
			return fs.submit()
		}
		return fs.focusField(fs.focus + 1), nil
	}

	before := fs.inputs[fs.focus].Value()
	var cmd tea.Cmd
	fs.inputs[fs.focus], cmd = fs.inputs[fs.focus].Update(msg)
	if fs.inputs[fs.focus].Value() != before {
		fs.touched[fs.focus] = true
	}
	return fs, cmd
}

func (fs formState) focusField(i int) formState {
	for j := range fs.inputs {
		if j == i {
			fs.inputs[j].Focus()
		} else {
			fs.inputs[j].Blur()
		}
	}
	fs.focus = i
	return fs
}

// View renders the form with inline field errors.
func (fs formState) View(width int) string {
	var b strings.Builder
	if fs.id != nil {
		fmt.Fprintf(&b, "%s\n\n", titleStyle.Render("Edit contact "+fs.Working().IDString()))
	} else {
		fmt.Fprintf(&b, "%s\n\n", titleStyle.Render("New contact"))
	}

	errs := fs.FieldErrors()
	inputWidth := width - labelStyle.GetWidth() - 4
	for i := range fs.inputs {
		ti := fs.inputs[i]
		if inputWidth > 0 {
			ti.Width = inputWidth
		}
		marker := "  "
		if i == fs.focus {
			marker = CursorMarker
		}
		fmt.Fprintf(&b, "%s%s %s\n", marker, labelStyle.Render(fieldLabels[i]), ti.View())
		if msg, bad := errs[formFields[i]]; bad && (fs.touched[i] || fs.attempted) {
			fmt.Fprintf(&b, "  %s\n", errorStyle.Render(fieldLabels[i]+" "+msg))
		}
	}

	b.WriteString("\n")
	switch {
	case fs.submitting:
		b.WriteString(dimStyle.Render("Saving..."))
	case fs.err != nil:
		b.WriteString(errorStyle.Render(fmt.Sprintf("Save failed: %v", fs.err)))
	default:
		b.WriteString(dimStyle.Render("[ctrl+s] Save   [esc] Cancel"))
	}
	return b.String()
}
