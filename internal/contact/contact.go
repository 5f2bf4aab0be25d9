// Package contact defines the Contact entity, its field validation, and the
// error taxonomy shared by the store, the server, and the HTTP client.
package contact

import (
	"errors"
	"net/mail"
	"strconv"
	"strings"
)

// Sentinel errors for caller-checkable conditions.
var (
	ErrNotFound   = errors.New("contact: not found")
	ErrValidation = errors.New("contact: invalid contact")
)

// Contact is a single address book entry. ID is nil until the store has
// persisted the contact and assigned one.
type Contact struct {
	ID    *int64 `json:"id,omitempty"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// Fields is the editable part of a Contact, used as the create payload.
type Fields struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// NewID returns a pointer to id, for building contacts with a known identity.
func NewID(id int64) *int64 {
	return &id
}

// Fields returns the editable fields of c.
func (c Contact) Fields() Fields {
	return Fields{Name: c.Name, Email: c.Email, Phone: c.Phone}
}

// HasID reports whether the store has assigned c an identity.
func (c Contact) HasID() bool {
	return c.ID != nil
}

// IDString renders the id for display, or "-" when absent.
func (c Contact) IDString() string {
	if c.ID == nil {
		return "-"
	}
	return strconv.FormatInt(*c.ID, 10)
}

// WithID builds a Contact from f carrying the given id.
func (f Fields) WithID(id int64) Contact {
	return Contact{ID: NewID(id), Name: f.Name, Email: f.Email, Phone: f.Phone}
}

// Clone returns a copy of c that does not share the id pointer.
func (c Contact) Clone() Contact {
	if c.ID != nil {
		c.ID = NewID(*c.ID)
	}
	return c
}

// Field names a single editable field.
type Field string

const (
	FieldName  Field = "name"
	FieldEmail Field = "email"
	FieldPhone Field = "phone"
)

// FieldErrors maps each invalid field to a human-readable message.
// An empty map means the fields are valid.
type FieldErrors map[Field]string

// OK reports whether no field failed validation.
func (fe FieldErrors) OK() bool {
	return len(fe) == 0
}

// Err returns nil when fe is OK, otherwise an error wrapping ErrValidation
// listing the invalid fields in a stable order.
func (fe FieldErrors) Err() error {
	if fe.OK() {
		return nil
	}
	var parts []string
	for _, f := range []Field{FieldName, FieldEmail, FieldPhone} {
		if msg, ok := fe[f]; ok {
			parts = append(parts, string(f)+" "+msg)
		}
	}
	return &ValidationError{Fields: fe, msg: strings.Join(parts, "; ")}
}

// ValidationError describes which fields were rejected.
type ValidationError struct {
	Fields FieldErrors
	msg    string
}

func (e *ValidationError) Error() string {
	return ErrValidation.Error() + ": " + e.msg
}

// Unwrap lets errors.Is match ErrValidation.
func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// Validate checks that name and phone are non-empty and email is a bare
// address with valid syntax. Whitespace-only values count as empty.
func Validate(f Fields) FieldErrors {
	errs := FieldErrors{}
	if strings.TrimSpace(f.Name) == "" {
		errs[FieldName] = "is required"
	}
	if email := strings.TrimSpace(f.Email); email == "" {
		errs[FieldEmail] = "is required"
	} else if !ValidEmail(email) {
		errs[FieldEmail] = "must be a valid email address"
	}
	if strings.TrimSpace(f.Phone) == "" {
		errs[FieldPhone] = "is required"
	}
	return errs
}

// ValidEmail reports whether s is a single address without a display name.
func ValidEmail(s string) bool {
	addr, err := mail.ParseAddress(s)
	if err != nil {
		return false
	}
	return addr.Name == "" && addr.Address == s
}
