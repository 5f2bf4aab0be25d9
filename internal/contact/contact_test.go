package contact

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		fields  Fields
		invalid []Field
	}{
		{
			name:   "all fields valid",
			fields: Fields{Name: "Ana", Email: "ana@x.com", Phone: "555"},
		},
		{
			name:    "empty form",
			fields:  Fields{},
			invalid: []Field{FieldName, FieldEmail, FieldPhone},
		},
		{
			name:    "whitespace counts as empty",
			fields:  Fields{Name: "  ", Email: "ana@x.com", Phone: "\t"},
			invalid: []Field{FieldName, FieldPhone},
		},
		{
			name:    "malformed email",
			fields:  Fields{Name: "Ana", Email: "not-an-email", Phone: "555"},
			invalid: []Field{FieldEmail},
		},
		{
			name:    "display name is not a bare address",
			fields:  Fields{Name: "Ana", Email: "Ana <ana@x.com>", Phone: "555"},
			invalid: []Field{FieldEmail},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := Validate(tt.fields)
			if len(errs) != len(tt.invalid) {
				t.Fatalf("Validate() = %v, want %d invalid fields", errs, len(tt.invalid))
			}
			for _, f := range tt.invalid {
				if _, ok := errs[f]; !ok {
					t.Errorf("field %q should be invalid, got %v", f, errs)
				}
			}
			if errs.OK() != (len(tt.invalid) == 0) {
				t.Errorf("OK() = %v, want %v", errs.OK(), len(tt.invalid) == 0)
			}
		})
	}
}

func TestFieldErrors_Err(t *testing.T) {
	// Given: a set of failed fields
	errs := Validate(Fields{Email: "bad"})

	// When: converted to an error
	err := errs.Err()

	// Then: it matches ErrValidation and names fields in a stable order
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("Err() = %v, want ErrValidation", err)
	}
	msg := err.Error()
	if strings.Index(msg, "name") > strings.Index(msg, "email") || strings.Index(msg, "email") > strings.Index(msg, "phone") {
		t.Errorf("fields out of order: %q", msg)
	}

	var ve *ValidationError
	if !errors.As(err, &ve) || len(ve.Fields) != 3 {
		t.Errorf("errors.As(ValidationError) fields = %v, want 3", ve)
	}

	if (FieldErrors{}).Err() != nil {
		t.Error("empty FieldErrors should produce nil error")
	}
}

func TestContact_JSONOmitsMissingID(t *testing.T) {
	// Given: a contact that was never persisted
	c := Contact{Name: "Ana", Email: "ana@x.com", Phone: "555"}

	// When: it is encoded
	data, err := json.Marshal(c)
	if err != nil {
		t.Fatal(err)
	}

	// Then: no id key is present
	if strings.Contains(string(data), `"id"`) {
		t.Errorf("json = %s, want no id", data)
	}

	// And: a zero id is still encoded once assigned
	data, _ = json.Marshal(Fields{Name: "Ana"}.WithID(0))
	if !strings.Contains(string(data), `"id":0`) {
		t.Errorf("json = %s, want id 0", data)
	}
}

func TestContact_CloneDoesNotShareID(t *testing.T) {
	orig := Fields{Name: "Ana"}.WithID(7)
	cp := orig.Clone()
	*cp.ID = 9

	if *orig.ID != 7 {
		t.Errorf("original id = %d, want 7", *orig.ID)
	}
}

func TestContact_IDString(t *testing.T) {
	if got := (Contact{}).IDString(); got != "-" {
		t.Errorf("IDString() = %q, want %q", got, "-")
	}
	if got := (Contact{ID: NewID(42)}).IDString(); got != "42" {
		t.Errorf("IDString() = %q, want %q", got, "42")
	}
}
