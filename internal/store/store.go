// Package store implements the contact system of record behind the REST
// server: an in-memory map, a JSON file, and a SQLite database.
package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/smileynet/contactbook/internal/contact"
)

// Store persists contacts and assigns their ids.
// Get, Update, and Delete return an error wrapping contact.ErrNotFound for
// unknown ids. Create and Update reject invalid fields with
// contact.ErrValidation. List returns contacts ordered by id.
type Store interface {
	List(ctx context.Context) ([]contact.Contact, error)
	Get(ctx context.Context, id int64) (contact.Contact, error)
	Create(ctx context.Context, f contact.Fields) (contact.Contact, error)
	Update(ctx context.Context, id int64, f contact.Fields) (contact.Contact, error)
	Delete(ctx context.Context, id int64) error
	Close() error
}

// Backend names accepted by Open.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// Open returns the Store for the named backend. path is ignored by the
// memory backend.
func Open(backend, path string) (Store, error) {
	switch backend {
	case BackendMemory, "":
		return NewMemoryStore(), nil
	case BackendFile:
		return NewFileStore(path)
	case BackendSQLite:
		return OpenSQLite(path)
	default:
		return nil, fmt.Errorf("store: unknown backend %q", backend)
	}
}

// MemoryStore keeps contacts in a map guarded by a mutex. Ids start at 1.
type MemoryStore struct {
	mu       sync.Mutex
	contacts map[int64]contact.Fields
	nextID   int64
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{contacts: make(map[int64]contact.Fields), nextID: 1}
}

// List returns all contacts ordered by id.
func (s *MemoryStore) List(_ context.Context) ([]contact.Contact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return sortedContacts(s.contacts), nil
}

// Get returns the contact with the given id.
func (s *MemoryStore) Get(_ context.Context, id int64) (contact.Contact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.contacts[id]
	if !ok {
		return contact.Contact{}, notFound(id)
	}
	return f.WithID(id), nil
}

// Create validates f, assigns the next id, and stores it.
func (s *MemoryStore) Create(_ context.Context, f contact.Fields) (contact.Contact, error) {
	if err := contact.Validate(f).Err(); err != nil {
		return contact.Contact{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.contacts[id] = f
	return f.WithID(id), nil
}

// Update replaces the fields of an existing contact.
func (s *MemoryStore) Update(_ context.Context, id int64, f contact.Fields) (contact.Contact, error) {
	if err := contact.Validate(f).Err(); err != nil {
		return contact.Contact{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.contacts[id]; !ok {
		return contact.Contact{}, notFound(id)
	}
	s.contacts[id] = f
	return f.WithID(id), nil
}

// Delete removes a contact.
func (s *MemoryStore) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.contacts[id]; !ok {
		return notFound(id)
	}
	delete(s.contacts, id)
	return nil
}

// Close is a no-op for the memory backend.
func (s *MemoryStore) Close() error {
	return nil
}

func notFound(id int64) error {
	return fmt.Errorf("%w: id %d", contact.ErrNotFound, id)
}

// sortedContacts flattens an id-keyed map into a slice ordered by id.
func sortedContacts(m map[int64]contact.Fields) []contact.Contact {
	ids := make([]int64, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	out := make([]contact.Contact, len(ids))
	for i, id := range ids {
		out[i] = m[id].WithID(id)
	}
	return out
}
