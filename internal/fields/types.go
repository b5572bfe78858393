package fields

import (
	"encoding/json"
	"time"
)

// LinkedValue is one value of a linked field carried by an allowed value.
type LinkedValue struct {
	ValueID string `json:"linked_value_id,omitempty"`
	Value   string `json:"linked_value"`
}

// LinkedField states that selecting the owning allowed value implies the
// given values of another field.
type LinkedField struct {
	FieldID string        `json:"linked_field_id"`
	Key     string        `json:"linked_field_key"`
	Label   string        `json:"linked_field_label"`
	Values  []LinkedValue `json:"linked_values"`
}

// AllowedValue is a single selectable value of a custom field definition.
type AllowedValue struct {
	ValueID      string        `json:"value_id,omitempty"`
	Value        string        `json:"value"`
	LinkedFields []LinkedField `json:"linked_fields,omitempty"`
}

// UnmarshalJSON accepts both the object shape and the legacy plain-string
// shape ("Sales" instead of {"value":"Sales"}).
func (a *AllowedValue) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*a = AllowedValue{Value: s}
		return nil
	}
	type plain AllowedValue
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*a = AllowedValue(p)
	return nil
}

// Definition is a user-defined custom field with its ordered allowed values.
type Definition struct {
	ID            string         `json:"id"`
	Key           string         `json:"key"`
	Label         string         `json:"label"`
	AllowedValues []AllowedValue `json:"allowed_values"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// Entry is the structured API form of one stored custom-field value.
type Entry struct {
	FieldID      string        `json:"field_id"`
	FieldKey     string        `json:"field_key"`
	FieldLabel   string        `json:"field_label"`
	Value        string        `json:"value"`
	ValueID      string        `json:"value_id,omitempty"`
	LinkedFields []LinkedField `json:"linked_fields,omitempty"`
}

// Set indexes definitions by key for resolution and conversion.
type Set map[string]*Definition

// NewSet builds a Set from a definition list. Later duplicates of a key are
// ignored; keys are unique at the persistence layer.
func NewSet(defs []Definition) Set {
	s := make(Set, len(defs))
	for i := range defs {
		d := &defs[i]
		if _, ok := s[d.Key]; !ok {
			s[d.Key] = d
		}
	}
	return s
}

// ByID returns the definition with the given id, or nil.
func (s Set) ByID(id string) *Definition {
	for _, d := range s {
		if d.ID == id {
			return d
		}
	}
	return nil
}
