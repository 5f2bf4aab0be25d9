package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/smileynet/contactbook/internal/contact"
)

// ErrInvalidPath indicates an empty or directory path was given to a file-backed store.
var ErrInvalidPath = errors.New("store: invalid path")

// fileState is the on-disk JSON document.
type fileState struct {
	NextID   int64             `json:"next_id"`
	Contacts []contact.Contact `json:"contacts"`
}

// FileStore persists contacts as a single JSON document. Every mutation
// rewrites the file through a temp file and rename.
type FileStore struct {
	mu   sync.Mutex
	path string
}

// NewFileStore creates a FileStore backed by path. The file is created on
// first write; its parent directory is created if missing.
func NewFileStore(path string) (*FileStore, error) {
	if path == "" || path == "." || path == ".." || filepath.Base(path) == string(filepath.Separator) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPath, path)
	}
	if fi, err := os.Stat(path); err == nil && fi.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", ErrInvalidPath, path)
	}
	return &FileStore{path: path}, nil
}

// List returns all contacts ordered by id.
func (s *FileStore) List(_ context.Context) ([]contact.Contact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, err := s.load()
	if err != nil {
		return nil, err
	}
	return sortedContacts(st.index()), nil
}

// Get returns the contact with the given id.
func (s *FileStore) Get(_ context.Context, id int64) (contact.Contact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, err := s.load()
	if err != nil {
		return contact.Contact{}, err
	}
	f, ok := st.index()[id]
	if !ok {
		return contact.Contact{}, notFound(id)
	}
	return f.WithID(id), nil
}

// Create validates f, assigns the next id, and writes the file.
func (s *FileStore) Create(_ context.Context, f contact.Fields) (contact.Contact, error) {
	if err := contact.Validate(f).Err(); err != nil {
		return contact.Contact{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	st, err := s.load()
	if err != nil {
		return contact.Contact{}, err
	}
	c := f.WithID(st.NextID)
	st.NextID++
	st.Contacts = append(st.Contacts, c)
	if err := s.save(st); err != nil {
		return contact.Contact{}, err
	}
	return c, nil
}

// Update replaces the fields of an existing contact.
func (s *FileStore) Update(_ context.Context, id int64, f contact.Fields) (contact.Contact, error) {
	if err := contact.Validate(f).Err(); err != nil {
		return contact.Contact{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	st, err := s.load()
	if err != nil {
		return contact.Contact{}, err
	}
	i := st.find(id)
	if i < 0 {
		return contact.Contact{}, notFound(id)
	}
	st.Contacts[i] = f.WithID(id)
	if err := s.save(st); err != nil {
		return contact.Contact{}, err
	}
	return st.Contacts[i], nil
}

// Delete removes a contact.
func (s *FileStore) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, err := s.load()
	if err != nil {
		return err
	}
	i := st.find(id)
	if i < 0 {
		return notFound(id)
	}
	st.Contacts = append(st.Contacts[:i], st.Contacts[i+1:]...)
	return s.save(st)
}

// Close is a no-op; every write is already flushed.
func (s *FileStore) Close() error {
	return nil
}

// load reads the document, returning an empty state if the file does not exist.
func (s *FileStore) load() (fileState, error) {
	st := fileState{NextID: 1}
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return st, nil
		}
		return st, fmt.Errorf("store: reading %s: %w", s.path, err)
	}
	if len(data) == 0 {
		return st, nil
	}
	if err := json.Unmarshal(data, &st); err != nil {
		return st, fmt.Errorf("store: parsing %s: %w", s.path, err)
	}
	if st.NextID < 1 {
		st.NextID = 1
	}
	return st, nil
}

// save writes the document atomically.
func (s *FileStore) save(st fileState) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("store: creating directory: %w", err)
	}

	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("store: marshaling: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("store: creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("store: writing %s: %w", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("store: writing %s: %w", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("store: replacing %s: %w", s.path, err)
	}
	return nil
}

// index maps ids to fields, skipping entries without an id.
func (st fileState) index() map[int64]contact.Fields {
	m := make(map[int64]contact.Fields, len(st.Contacts))
	for _, c := range st.Contacts {
		if c.ID != nil {
			m[*c.ID] = c.Fields()
		}
	}
	return m
}

// find returns the slice index of id, or -1.
func (st fileState) find(id int64) int {
	for i, c := range st.Contacts {
		if c.ID != nil && *c.ID == id {
			return i
		}
	}
	return -1
}
