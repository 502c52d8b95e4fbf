// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

// Package typedesc describes the record types stored in the grid: their fixed
// properties, identifier and indexes, plus the entry and template values that
// flow through the tiered storage layer.
package typedesc

import (
	"github.com/zeebo/errs"
)

// Error is the error class for type descriptor problems.
var Error = errs.Class("typedesc")

// Property is one fixed property of a type.
type Property struct {
	Name string
	Type PropertyType
}

// Index declares a secondary index over a single property.
type Index struct {
	Property string
	Unique   bool
}

// TypeDescriptor is the immutable schema of a record type. Properties are
// ordered; an entry stores its values at the same positions.
type TypeDescriptor struct {
	Name           string
	Properties     []Property
	IDProperty     string
	AutoGenerateID bool
	Indexes        []Index

	positions map[string]int
}

// New creates a type descriptor and validates it.
func New(name, idProperty string, properties []Property, indexes ...Index) (*TypeDescriptor, error) {
	td := &TypeDescriptor{
		Name:       name,
		Properties: append([]Property(nil), properties...),
		IDProperty: idProperty,
		Indexes:    append([]Index(nil), indexes...),
	}
	if err := td.init(); err != nil {
		return nil, err
	}
	return td, nil
}

// NewAutoID creates a type descriptor whose string identifier is generated
// on insert when left empty.
func NewAutoID(name, idProperty string, properties []Property, indexes ...Index) (*TypeDescriptor, error) {
	td, err := New(name, idProperty, properties, indexes...)
	if err != nil {
		return nil, err
	}
	if td.Properties[td.IDPosition()].Type != String {
		return nil, Error.New("type %q: auto generated id %q must be a string", name, idProperty)
	}
	td.AutoGenerateID = true
	return td, nil
}

// MustNew is New which panics on error.
func MustNew(name, idProperty string, properties []Property, indexes ...Index) *TypeDescriptor {
	td, err := New(name, idProperty, properties, indexes...)
	if err != nil {
		panic(err)
	}
	return td
}

// MustNewAutoID is NewAutoID which panics on error.
func MustNewAutoID(name, idProperty string, properties []Property, indexes ...Index) *TypeDescriptor {
	td, err := NewAutoID(name, idProperty, properties, indexes...)
	if err != nil {
		panic(err)
	}
	return td
}

func (td *TypeDescriptor) init() error {
	if td.Name == "" {
		return Error.New("type name is empty")
	}
	if len(td.Properties) == 0 {
		return Error.New("type %q has no properties", td.Name)
	}
	td.positions = make(map[string]int, len(td.Properties))
	for i, p := range td.Properties {
		if p.Name == "" {
			return Error.New("type %q: property %d has no name", td.Name, i)
		}
		if _, ok := propertyTypeNames[p.Type]; !ok {
			return Error.New("type %q: property %q has invalid type", td.Name, p.Name)
		}
		if _, dup := td.positions[p.Name]; dup {
			return Error.New("type %q: duplicate property %q", td.Name, p.Name)
		}
		td.positions[p.Name] = i
	}
	if _, ok := td.positions[td.IDProperty]; !ok {
		return Error.New("type %q: id property %q is not a fixed property", td.Name, td.IDProperty)
	}
	for _, index := range td.Indexes {
		if _, ok := td.positions[index.Property]; !ok {
			return Error.New("type %q: index on unknown property %q", td.Name, index.Property)
		}
	}
	return nil
}

// Position returns the position of the named property.
func (td *TypeDescriptor) Position(name string) (int, bool) {
	pos, ok := td.positions[name]
	return pos, ok
}

// Property returns the named property.
func (td *TypeDescriptor) Property(name string) (Property, bool) {
	pos, ok := td.positions[name]
	if !ok {
		return Property{}, false
	}
	return td.Properties[pos], true
}

// IDPosition returns the position of the identifier property.
func (td *TypeDescriptor) IDPosition() int { return td.positions[td.IDProperty] }

// NumProperties returns the number of fixed properties.
func (td *TypeDescriptor) NumProperties() int { return len(td.Properties) }
