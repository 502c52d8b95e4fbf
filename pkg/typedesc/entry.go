// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

package typedesc

import (
	"strings"

	"github.com/google/uuid"
)

// uidSeparator separates the type name from the formatted id in a UID.
const uidSeparator = "^"

// Entry is a materialized record: one value per fixed property, in property
// order. A nil value is a SQL NULL.
type Entry struct {
	Type   *TypeDescriptor
	UID    string
	Values []interface{}
}

// NewEntry creates an entry, coercing every value to its property type.
func NewEntry(td *TypeDescriptor, values ...interface{}) (*Entry, error) {
	if len(values) != len(td.Properties) {
		return nil, Error.New("type %q expects %d values, got %d", td.Name, len(td.Properties), len(values))
	}
	coerced := make([]interface{}, len(values))
	for i, v := range values {
		c, err := Coerce(td.Properties[i].Type, v)
		if err != nil {
			return nil, Error.New("type %q property %q: %v", td.Name, td.Properties[i].Name, err)
		}
		coerced[i] = c
	}
	entry := &Entry{Type: td, Values: coerced}
	if id := entry.ID(); id != nil {
		entry.UID = UIDFor(td, id)
	}
	return entry, nil
}

// MustEntry is NewEntry which panics on error.
func MustEntry(td *TypeDescriptor, values ...interface{}) *Entry {
	entry, err := NewEntry(td, values...)
	if err != nil {
		panic(err)
	}
	return entry
}

// TypeName returns the name of the entry type.
func (e *Entry) TypeName() string { return e.Type.Name }

// ID returns the identifier value.
func (e *Entry) ID() interface{} { return e.Values[e.Type.IDPosition()] }

// Value returns the value of the named property.
func (e *Entry) Value(name string) (interface{}, bool) {
	pos, ok := e.Type.Position(name)
	if !ok {
		return nil, false
	}
	return e.Values[pos], true
}

// EnsureUID assigns a generated identifier to entries of auto-id types that
// have none, and derives the UID.
func (e *Entry) EnsureUID() {
	idPos := e.Type.IDPosition()
	if e.Type.AutoGenerateID {
		if s, _ := e.Values[idPos].(string); s == "" {
			e.Values[idPos] = uuid.NewString()
		}
	}
	if e.Values[idPos] != nil {
		e.UID = UIDFor(e.Type, e.Values[idPos])
	}
}

// Clone returns a shallow copy with its own value slice.
func (e *Entry) Clone() *Entry {
	return &Entry{Type: e.Type, UID: e.UID, Values: append([]interface{}(nil), e.Values...)}
}

// Equal compares two entries property by property.
func (e *Entry) Equal(other *Entry) bool {
	if e == nil || other == nil {
		return e == other
	}
	if e.Type.Name != other.Type.Name || len(e.Values) != len(other.Values) {
		return false
	}
	for i := range e.Values {
		if !EqualValues(e.Values[i], other.Values[i]) {
			return false
		}
	}
	return true
}

// UIDFor derives the UID of an entry. Auto generated identifiers are their own
// UID; other UIDs embed the type name.
func UIDFor(td *TypeDescriptor, id interface{}) string {
	if td.AutoGenerateID {
		s, _ := id.(string)
		return s
	}
	return td.Name + uidSeparator + FormatValue(id)
}

// ParseUID returns the identifier embedded in uid.
func ParseUID(td *TypeDescriptor, uid string) (interface{}, error) {
	if td.AutoGenerateID {
		return uid, nil
	}
	prefix := td.Name + uidSeparator
	if !strings.HasPrefix(uid, prefix) {
		return nil, Error.New("uid %q does not belong to type %q", uid, td.Name)
	}
	return ParseValue(td.Properties[td.IDPosition()].Type, strings.TrimPrefix(uid, prefix))
}
