package model

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// OptionalString distinguishes "absent", "explicit null" and "value" when a
// JSON field must carry all three meanings. Set is false for absent fields
// (UnmarshalJSON is never invoked for them); Valid is false for explicit
// nulls.
type OptionalString struct {
	Set   bool
	Valid bool
	Value string
}

// NewOptional returns a present, non-null OptionalString.
func NewOptional(v string) OptionalString {
	return OptionalString{Set: true, Valid: true, Value: v}
}

// NullOptional returns a present, explicitly-null OptionalString.
func NullOptional() OptionalString {
	return OptionalString{Set: true}
}

// Pointer converts to the stored representation: nil for absent or null.
func (o OptionalString) Pointer() *string {
	if o.Set && o.Valid {
		v := o.Value
		return &v
	}
	return nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (o *OptionalString) UnmarshalJSON(b []byte) error {
	o.Set = true
	if bytes.Equal(b, []byte("null")) {
		o.Valid = false
		o.Value = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("optional string: %w", err)
	}
	o.Valid = true
	o.Value = s
	return nil
}

// MarshalJSON implements json.Marshaler. Absent fields marshal as null; the
// absent/null distinction is only meaningful on the way in.
func (o OptionalString) MarshalJSON() ([]byte, error) {
	if !o.Set || !o.Valid {
		return []byte("null"), nil
	}
	b, err := json.Marshal(o.Value)
	if err != nil {
		return nil, fmt.Errorf("optional string: %w", err)
	}
	return b, nil
}
