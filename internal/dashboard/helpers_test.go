package dashboard

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/smileynet/contactbook/internal/contact"
)

// stripANSI removes ANSI escape sequences from a string.
func stripANSI(s string) string {
	var out []byte
	i := 0
	for i < len(s) {
		if s[i] == '\x1b' && i+1 < len(s) && s[i+1] == '[' {
			j := i + 2
			for j < len(s) && (s[j] < 'A' || s[j] > 'Z') && (s[j] < 'a' || s[j] > 'z') {
				j++
			}
			if j < len(s) {
				j++
			}
			i = j
		} else {
			out = append(out, s[i])
			i++
		}
	}
	return string(out)
}

// containsPlainText checks if s contains sub after stripping ANSI escapes.
func containsPlainText(s, sub string) bool {
	return strings.Contains(stripANSI(s), sub)
}

// execBatch executes a tea.Cmd, handling both single commands and batch
// commands. It returns all resulting messages. Spinner ticks are skipped
// to avoid infinite recursion.
func execBatch(t *testing.T, cmd tea.Cmd) []tea.Msg {
	t.Helper()
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var msgs []tea.Msg
		for _, c := range batch {
			if c != nil {
				msgs = append(msgs, execBatch(t, c)...)
			}
		}
		return msgs
	}
	if _, isTick := msg.(spinner.TickMsg); isTick {
		return nil
	}
	return []tea.Msg{msg}
}

// stubService is an in-memory ContactService that counts calls.
type stubService struct {
	mu       sync.Mutex
	contacts []contact.Contact
	nextID   int64

	getAllErr error
	createErr error
	updateErr error
	deleteErr error

	getAllCalls int
	created     []contact.Fields
	updated     []contact.Contact
	deleted     []int64
}

// newStubService seeds the stub with contacts numbered from 1.
func newStubService(fields ...contact.Fields) *stubService {
	s := &stubService{nextID: 1}
	for _, f := range fields {
		s.contacts = append(s.contacts, f.WithID(s.nextID))
		s.nextID++
	}
	return s
}

func (s *stubService) GetAll(context.Context) ([]contact.Contact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.getAllCalls++
	if s.getAllErr != nil {
		return nil, s.getAllErr
	}
	out := make([]contact.Contact, len(s.contacts))
	for i, c := range s.contacts {
		out[i] = c.Clone()
	}
	return out, nil
}

func (s *stubService) Create(_ context.Context, f contact.Fields) (contact.Contact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.created = append(s.created, f)
	if s.createErr != nil {
		return contact.Contact{}, s.createErr
	}
	c := f.WithID(s.nextID)
	s.nextID++
	s.contacts = append(s.contacts, c)
	return c.Clone(), nil
}

func (s *stubService) Update(_ context.Context, c contact.Contact) (contact.Contact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updated = append(s.updated, c.Clone())
	if s.updateErr != nil {
		return contact.Contact{}, s.updateErr
	}
	for i, existing := range s.contacts {
		if *existing.ID == *c.ID {
			s.contacts[i] = c.Clone()
			return c.Clone(), nil
		}
	}
	return contact.Contact{}, contact.ErrNotFound
}

func (s *stubService) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleted = append(s.deleted, id)
	if s.deleteErr != nil {
		return s.deleteErr
	}
	for i, c := range s.contacts {
		if *c.ID == id {
			s.contacts = append(s.contacts[:i], s.contacts[i+1:]...)
			return nil
		}
	}
	return contact.ErrNotFound
}

// calls returns how many times each operation ran.
func (s *stubService) calls() (getAll, create, update, del int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getAllCalls, len(s.created), len(s.updated), len(s.deleted)
}

var (
	ana = contact.Fields{Name: "Ana", Email: "ana@x.com", Phone: "555"}
	ben = contact.Fields{Name: "Ben", Email: "ben@x.com", Phone: "777"}
)

// keyRune builds a KeyMsg for a single printable key.
func keyRune(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

// typeText sends each rune of s to the form.
func typeText(fs formState, s string) formState {
	for _, r := range s {
		fs, _ = fs.Update(keyRune(r))
	}
	return fs
}
