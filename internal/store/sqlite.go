package store

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/smileynet/contactbook/internal/contact"
)

//go:embed schema.sql
var schemaSQL string

// SQLiteStore persists contacts in a SQLite database.
// AUTOINCREMENT keeps ids of deleted contacts from being reused.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite creates or opens the database at path and applies the schema.
// Use ":memory:" for a throwaway database.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: empty sqlite path", ErrInvalidPath)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("store: opening database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: connecting to database: %w", err)
	}

	// SQLite allows a single writer; one connection also keeps ":memory:"
	// databases from being split across connections.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("store: executing %q: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: applying schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// List returns all contacts ordered by id.
func (s *SQLiteStore) List(ctx context.Context) ([]contact.Contact, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, email, phone FROM contacts ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("store: listing contacts: %w", err)
	}
	defer rows.Close()

	out := []contact.Contact{}
	for rows.Next() {
		var (
			id int64
			f  contact.Fields
		)
		if err := rows.Scan(&id, &f.Name, &f.Email, &f.Phone); err != nil {
			return nil, fmt.Errorf("store: scanning contact: %w", err)
		}
		out = append(out, f.WithID(id))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: listing contacts: %w", err)
	}
	return out, nil
}

// Get returns the contact with the given id.
func (s *SQLiteStore) Get(ctx context.Context, id int64) (contact.Contact, error) {
	var f contact.Fields
	err := s.db.QueryRowContext(ctx,
		`SELECT name, email, phone FROM contacts WHERE id = ?`, id,
	).Scan(&f.Name, &f.Email, &f.Phone)
	if errors.Is(err, sql.ErrNoRows) {
		return contact.Contact{}, notFound(id)
	}
	if err != nil {
		return contact.Contact{}, fmt.Errorf("store: reading contact %d: %w", id, err)
	}
	return f.WithID(id), nil
}

// Create validates f and inserts it, returning the assigned id.
func (s *SQLiteStore) Create(ctx context.Context, f contact.Fields) (contact.Contact, error) {
	if err := contact.Validate(f).Err(); err != nil {
		return contact.Contact{}, err
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO contacts (name, email, phone) VALUES (?, ?, ?)`,
		f.Name, f.Email, f.Phone,
	)
	if err != nil {
		return contact.Contact{}, fmt.Errorf("store: inserting contact: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return contact.Contact{}, fmt.Errorf("store: reading inserted id: %w", err)
	}
	return f.WithID(id), nil
}

// Update replaces the fields of an existing contact.
func (s *SQLiteStore) Update(ctx context.Context, id int64, f contact.Fields) (contact.Contact, error) {
	if err := contact.Validate(f).Err(); err != nil {
		return contact.Contact{}, err
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE contacts SET name = ?, email = ?, phone = ? WHERE id = ?`,
		f.Name, f.Email, f.Phone, id,
	)
	if err != nil {
		return contact.Contact{}, fmt.Errorf("store: updating contact %d: %w", id, err)
	}
	if err := requireRow(res, id); err != nil {
		return contact.Contact{}, err
	}
	return f.WithID(id), nil
}

// Delete removes a contact.
func (s *SQLiteStore) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM contacts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("store: deleting contact %d: %w", id, err)
	}
	return requireRow(res, id)
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// requireRow maps a statement that touched no rows to ErrNotFound.
func requireRow(res sql.Result, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("store: reading affected rows: %w", err)
	}
	if n == 0 {
		return notFound(id)
	}
	return nil
}
