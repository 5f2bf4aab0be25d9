package dashboard

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/smileynet/contactbook/internal/contact"
)

// helpBarHeight is the number of lines reserved for the help bar at the bottom.
const helpBarHeight = 1

// statusBarHeight is the number of lines reserved for the status line.
const statusBarHeight = 1

// borderChrome is the number of lines consumed by top + bottom borders.
const borderChrome = 2

// Model is the root Bubble Tea model for the contact manager.
// It routes messages by mode between the list, the form, and the delete prompt.
type Model struct {
	mode    Mode
	width   int
	height  int
	list    listState
	form    formState
	confirm confirmState
	editing *contact.Contact // contact handed to the form, nil in browse mode
	status  string
	spinner spinner.Model
	help    help.Model

	svc    ContactService
	ctx    context.Context
	logger *zap.Logger
}

// Option configures a Model.
type Option func(*Model)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(m *Model) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithContext sets the context passed to every service call.
func WithContext(ctx context.Context) Option {
	return func(m *Model) {
		if ctx != nil {
			m.ctx = ctx
		}
	}
}

// NewModel creates a dashboard Model in browse mode, loading contacts from svc.
func NewModel(svc ContactService, opts ...Option) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot

	m := Model{
		mode:    ModeBrowse,
		list:    newListState(),
		spinner: s,
		help:    help.New(),
		svc:     svc,
		ctx:     context.Background(),
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(&m)
	}
	m.form = newFormState(m.ctx, m.svc, m.logger)
	return m
}

// Init starts the first load and the spinner.
func (m Model) Init() tea.Cmd {
	return tea.Batch(loadContacts(m.ctx, m.svc), m.spinner.Tick)
}

// Update handles incoming messages with mode-based routing.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		leftWidth, _ := PaneWidths(msg.Width)
		m.list = m.list.setSize(leftWidth-borderChrome, m.contentHeight())
		return m, nil

	case spinner.TickMsg:
		if !m.list.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case ContactsLoadedMsg:
		m.list = m.list.apply(msg)
		if msg.Err != nil {
			m.logger.Error("loading contacts failed", zap.Error(msg.Err))
			m.status = fmt.Sprintf("Reload failed: %v", msg.Err)
		} else {
			m.logger.Debug("contacts loaded", zap.Int("count", len(msg.Contacts)))
		}
		return m, nil

	case SettledMsg:
		return m.onFormSettled(msg)

	case submitDoneMsg:
		var cmd tea.Cmd
		m.form, cmd = m.form.Update(msg)
		return m, cmd

	case DeleteDoneMsg:
		return m.onDeleteDone(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	if m.mode == ModeEdit {
		var cmd tea.Cmd
		m.form, cmd = m.form.Update(msg)
		return m, cmd
	}
	return m, nil
}

// handleKey processes key messages with global and mode-specific routing.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	switch m.mode {
	case ModeEdit:
		var cmd tea.Cmd
		m.form, cmd = m.form.Update(msg)
		return m, cmd

	case ModeConfirm:
		switch msg.String() {
		case "y", "Y":
			return m.confirmDelete()
		case "n", "N", "esc":
			m.logger.Debug("delete declined", zap.Int64("id", m.confirm.id))
			m.mode = ModeBrowse
			m.status = "Delete cancelled"
		}
		return m, nil
	}

	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "n":
		return m.selectForCreate()
	case "e", "enter":
		c, ok := m.list.Selected()
		if !ok {
			m.status = "Select a contact to edit"
			return m, nil
		}
		return m.selectForEdit(c)
	case "d":
		c, _ := m.list.Selected()
		return m.requestDelete(c.ID)
	case "r":
		return m.reload()
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// reload issues one GetAll call. The response replaces the collection when it
// arrives; concurrent reloads resolve in arrival order.
func (m Model) reload() (Model, tea.Cmd) {
	m.list.loading = true
	return m, tea.Batch(loadContacts(m.ctx, m.svc), m.spinner.Tick)
}

// selectForEdit hands a copy of c to the form.
func (m Model) selectForEdit(c contact.Contact) (Model, tea.Cmd) {
	c = c.Clone()
	m.editing = &c
	m.form = m.form.Load(c)
	m.mode = ModeEdit
	m.status = ""
	return m, nil
}

// selectForCreate hands the empty contact to the form.
func (m Model) selectForCreate() (Model, tea.Cmd) {
	return m.selectForEdit(contact.Contact{})
}

// onFormSettled leaves edit mode and reloads the collection once.
func (m Model) onFormSettled(msg SettledMsg) (Model, tea.Cmd) {
	m.editing = nil
	m.mode = ModeBrowse
	switch msg.Outcome {
	case Created:
		m.status = "Created " + msg.Contact.Name
	case Updated:
		m.status = "Updated " + msg.Contact.Name
	default:
		m.status = "Edit cancelled"
	}
	return m.reload()
}

// requestDelete asks for confirmation before deleting the contact with id.
// A nil id is logged and ignored.
func (m Model) requestDelete(id *int64) (Model, tea.Cmd) {
	if id == nil {
		m.logger.Warn("delete requested for a contact without an id")
		m.status = "Select a contact to delete"
		return m, nil
	}
	cs := confirmState{id: *id}
	for _, c := range m.list.contacts {
		if c.ID != nil && *c.ID == *id {
			cs.name, cs.email = c.Name, c.Email
			break
		}
	}
	m.confirm = cs
	m.mode = ModeConfirm
	return m, nil
}

// confirmDelete issues the Delete call for the pending confirmation.
func (m Model) confirmDelete() (Model, tea.Cmd) {
	id := m.confirm.id
	m.mode = ModeBrowse
	m.status = fmt.Sprintf("Deleting contact %d...", id)
	ctx, svc := m.ctx, m.svc
	return m, func() tea.Msg {
		return DeleteDoneMsg{ID: id, Err: svc.Delete(ctx, id)}
	}
}

func (m Model) onDeleteDone(msg DeleteDoneMsg) (Model, tea.Cmd) {
	if msg.Err != nil {
		m.logger.Error("deleting contact failed", zap.Int64("id", msg.ID), zap.Error(msg.Err))
		m.status = fmt.Sprintf("Delete failed: %v", msg.Err)
		return m, nil
	}
	m.logger.Info("contact deleted", zap.Int64("id", msg.ID))
	m.status = fmt.Sprintf("Deleted contact %d", msg.ID)
	return m.reload()
}

// contentHeight returns the usable height for pane content,
// accounting for border chrome, the status line, and the help bar.
func (m Model) contentHeight() int {
	h := m.height - borderChrome - statusBarHeight - helpBarHeight
	if h < 1 {
		return 1
	}
	return h
}

// View renders the two-pane layout with status line and help bar.
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Initializing..."
	}

	leftWidth, rightWidth := PaneWidths(m.width)
	contentHeight := m.contentHeight()

	leftStyle, rightStyle := FocusedBorder(), UnfocusedBorder()
	if m.mode != ModeBrowse {
		leftStyle, rightStyle = UnfocusedBorder(), FocusedBorder()
	}
	leftStyle = leftStyle.
		Width(leftWidth - borderChrome).
		Height(contentHeight)
	rightStyle = rightStyle.
		Width(rightWidth - borderChrome).
		Height(contentHeight)

	leftPane := leftStyle.Render(m.viewLeft())
	rightPane := rightStyle.Render(m.viewRight(rightWidth - borderChrome))
	panes := lipgloss.JoinHorizontal(lipgloss.Top, leftPane, rightPane)
	helpView := m.help.View(HelpBindings(m.mode))

	return lipgloss.JoinVertical(lipgloss.Left, panes, m.viewStatus(), helpView)
}

// viewLeft renders the contact table with its title.
func (m Model) viewLeft() string {
	title := titleStyle.Render(fmt.Sprintf("Contacts (%d)", len(m.list.contacts)))
	if m.list.loading {
		title += " " + m.spinner.View()
	}
	return title + "\n\n" + m.list.View()
}

// viewRight renders the right pane content based on mode.
func (m Model) viewRight(width int) string {
	switch m.mode {
	case ModeEdit:
		return m.form.View(width)
	case ModeConfirm:
		return m.confirm.View()
	default:
		return m.viewDetail()
	}
}

// viewDetail renders the selected contact.
func (m Model) viewDetail() string {
	c, ok := m.list.Selected()
	if !ok {
		return dimStyle.Render("No contact selected")
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n\n", titleStyle.Render(c.Name))
	fmt.Fprintf(&b, "%s %s\n", labelStyle.Render("ID"), c.IDString())
	fmt.Fprintf(&b, "%s %s\n", labelStyle.Render("Email"), c.Email)
	fmt.Fprintf(&b, "%s %s\n", labelStyle.Render("Phone"), c.Phone)
	return b.String()
}

// viewStatus renders the last status message, highlighting failures.
func (m Model) viewStatus() string {
	if m.list.err != nil && m.list.loaded && m.status == "" {
		return errorStyle.Render(fmt.Sprintf("Reload failed: %v", m.list.err))
	}
	if strings.Contains(m.status, "failed") {
		return errorStyle.Render(m.status)
	}
	return dimStyle.Render(m.status)
}

// Contacts returns the collection currently shown.
func (m Model) Contacts() []contact.Contact {
	return m.list.Contacts()
}

// Mode returns the current view mode.
func (m Model) Mode() Mode {
	return m.mode
}

// Status returns the current status line text.
func (m Model) Status() string {
	return m.status
}
