// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

// Package rdbms defines the relational disk tier.
package rdbms

import (
	"context"

	"github.com/zeebo/errs"

	"github.com/gridlabs/tieredstorage/pkg/typedesc"
)

var (
	// Error is the error class for storage failures.
	Error = errs.Class("rdbms")
	// ErrSchema is the error class for schema and configuration problems.
	// Operations failing with it must not be retried.
	ErrSchema = errs.Class("rdbms schema")
	// ErrEntryAlreadyExists is returned when inserting an existing identifier.
	ErrEntryAlreadyExists = errs.Class("entry already exists")
	// ErrEntryNotFound is returned when updating a missing entry.
	ErrEntryNotFound = errs.Class("entry not found")
)

// EntryIterator is a forward-only cursor over stored entries. The caller must
// Close it.
type EntryIterator interface {
	// Next returns the next entry, or nil when the iterator is exhausted.
	Next(ctx context.Context) (*typedesc.Entry, error)
	Close() error
}

// InternalRDBMS stores the cold tier of a space in one table per type.
// Not-found lookups return a nil entry and no error.
type InternalRDBMS interface {
	// Initialize opens the storage of a space instance and discovers the
	// tables it already holds.
	Initialize(ctx context.Context, spaceName, fullMemberName string, types typedesc.TypeManager) error
	// CreateTable creates the table and indexes of a type. Creating a known
	// type fails with ErrSchema.
	CreateTable(ctx context.Context, td *typedesc.TypeDescriptor) error
	// IsKnownType returns true when the type has a table.
	IsKnownType(name string) bool

	InsertEntry(ctx context.Context, entry *typedesc.Entry) error
	UpdateEntry(ctx context.Context, entry *typedesc.Entry) error
	RemoveEntry(ctx context.Context, entry *typedesc.Entry) (bool, error)

	// GetEntry returns the first entry matching tmpl.
	GetEntry(ctx context.Context, typeName string, tmpl *typedesc.Template) (*typedesc.Entry, error)
	GetEntryByID(ctx context.Context, typeName string, id interface{}) (*typedesc.Entry, error)
	GetEntryByUID(ctx context.Context, typeName, uid string) (*typedesc.Entry, error)
	// MakeEntriesIter returns the entries of a type matching tmpl. A nil
	// template matches every entry.
	MakeEntriesIter(ctx context.Context, typeName string, tmpl *typedesc.Template) (EntryIterator, error)

	// DiskSize returns the size of the storage files in bytes.
	DiskSize() (int64, error)
	// ShutDown closes the storage and removes its files.
	ShutDown(ctx context.Context) error
}

// EmptyIterator is an EntryIterator without entries.
type EmptyIterator struct{}

// Next implements EntryIterator.
func (EmptyIterator) Next(ctx context.Context) (*typedesc.Entry, error) { return nil, nil }

// Close implements EntryIterator.
func (EmptyIterator) Close() error { return nil }

// Collect drains and closes it.
func Collect(ctx context.Context, it EntryIterator) (_ []*typedesc.Entry, err error) {
	defer func() { err = errs.Combine(err, it.Close()) }()

	var entries []*typedesc.Entry
	for {
		entry, err := it.Next(ctx)
		if err != nil {
			return entries, err
		}
		if entry == nil {
			return entries, nil
		}
		entries = append(entries, entry)
	}
}
