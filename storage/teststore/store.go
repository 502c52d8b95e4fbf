// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

package teststore

import (
	"context"
	"sort"
	"sync"

	"github.com/gridlabs/tieredstorage/pkg/cacherule"
	"github.com/gridlabs/tieredstorage/pkg/ranges"
	"github.com/gridlabs/tieredstorage/pkg/typedesc"
	"github.com/gridlabs/tieredstorage/storage/rdbms"
	"github.com/gridlabs/tieredstorage/storage/rdbms/sqlmap"
)

// Client implements an in-memory rdbms.InternalRDBMS. Entries of a table are
// kept sorted by identifier.
type Client struct {
	mu     sync.Mutex
	Tables map[string]*Table

	CallCount struct {
		Initialize  int
		CreateTable int
		Insert      int
		Update      int
		Remove      int
		Get         int
		Iterate     int
		ShutDown    int
	}
}

// Table holds the entries of one type.
type Table struct {
	Type    *typedesc.TypeDescriptor
	Entries []*typedesc.Entry
}

var _ rdbms.InternalRDBMS = (*Client)(nil)

// New creates a new in-memory store.
func New() *Client { return &Client{Tables: map[string]*Table{}} }

// indexOf finds index of id or where it could be inserted
func (table *Table) indexOf(id interface{}) (int, bool) {
	i := sort.Search(len(table.Entries), func(k int) bool {
		c, _ := ranges.Compare(table.Entries[k].ID(), id)
		return c >= 0
	})
	if i >= len(table.Entries) {
		return i, false
	}
	return i, ranges.EqualValues(table.Entries[i].ID(), id)
}

// Calls returns the total number of calls made to the store.
func (store *Client) Calls() int {
	store.mu.Lock()
	defer store.mu.Unlock()
	c := store.CallCount
	return c.Initialize + c.CreateTable + c.Insert + c.Update + c.Remove + c.Get + c.Iterate + c.ShutDown
}

// Initialize registers the tables of every type already known to types.
func (store *Client) Initialize(ctx context.Context, spaceName, fullMemberName string, types typedesc.TypeManager) error {
	store.mu.Lock()
	defer store.mu.Unlock()
	store.CallCount.Initialize++
	for name, table := range store.Tables {
		if td, ok := types.TypeDescriptor(name); ok {
			table.Type = td
		}
	}
	return nil
}

// CreateTable creates an empty table.
func (store *Client) CreateTable(ctx context.Context, td *typedesc.TypeDescriptor) error {
	store.mu.Lock()
	defer store.mu.Unlock()
	store.CallCount.CreateTable++
	if _, ok := store.Tables[td.Name]; ok {
		return rdbms.ErrSchema.New("table %q already exists", td.Name)
	}
	for _, prop := range td.Properties {
		if prop.Type == typedesc.Object {
			return rdbms.ErrSchema.New("type %q property %q: unsupported property type %s", td.Name, prop.Name, prop.Type)
		}
	}
	store.Tables[td.Name] = &Table{Type: td}
	return nil
}

// IsKnownType returns true when the type has a table.
func (store *Client) IsKnownType(name string) bool {
	store.mu.Lock()
	defer store.mu.Unlock()
	_, ok := store.Tables[name]
	return ok
}

func (store *Client) table(name string) (*Table, error) {
	table, ok := store.Tables[name]
	if !ok {
		return nil, rdbms.ErrSchema.New("unknown type %q", name)
	}
	return table, nil
}

func (store *Client) entryTable(entry *typedesc.Entry) (*Table, error) {
	table, err := store.table(entry.TypeName())
	if err != nil {
		return nil, err
	}
	if entry.ID() == nil {
		return nil, rdbms.ErrSchema.New("entry of type %q has no id", entry.TypeName())
	}
	return table, nil
}

// storable rejects the values a relational store cannot read back unchanged.
func storable(entry *typedesc.Entry) error {
	if len(entry.Values) != len(entry.Type.Properties) {
		return rdbms.ErrSchema.New("type %q expects %d values, got %d", entry.TypeName(), len(entry.Type.Properties), len(entry.Values))
	}
	for pos, prop := range entry.Type.Properties {
		if _, err := sqlmap.BindValue(prop.Type, entry.Values[pos]); err != nil {
			return rdbms.ErrSchema.Wrap(err)
		}
	}
	return nil
}

// InsertEntry adds an entry.
func (store *Client) InsertEntry(ctx context.Context, entry *typedesc.Entry) error {
	store.mu.Lock()
	defer store.mu.Unlock()
	store.CallCount.Insert++

	table, err := store.entryTable(entry)
	if err != nil {
		return err
	}
	if err := storable(entry); err != nil {
		return err
	}
	i, found := table.indexOf(entry.ID())
	if found {
		return rdbms.ErrEntryAlreadyExists.New("%s", entry.UID)
	}
	table.Entries = append(table.Entries, nil)
	copy(table.Entries[i+1:], table.Entries[i:])
	table.Entries[i] = stored(entry)
	return nil
}

// UpdateEntry replaces an entry.
func (store *Client) UpdateEntry(ctx context.Context, entry *typedesc.Entry) error {
	store.mu.Lock()
	defer store.mu.Unlock()
	store.CallCount.Update++

	table, err := store.entryTable(entry)
	if err != nil {
		return err
	}
	if err := storable(entry); err != nil {
		return err
	}
	i, found := table.indexOf(entry.ID())
	if !found {
		return rdbms.ErrEntryNotFound.New("%s", entry.UID)
	}
	table.Entries[i] = stored(entry)
	return nil
}

// RemoveEntry deletes an entry.
func (store *Client) RemoveEntry(ctx context.Context, entry *typedesc.Entry) (bool, error) {
	store.mu.Lock()
	defer store.mu.Unlock()
	store.CallCount.Remove++

	table, err := store.entryTable(entry)
	if err != nil {
		return false, err
	}
	i, found := table.indexOf(entry.ID())
	if !found {
		return false, nil
	}
	copy(table.Entries[i:], table.Entries[i+1:])
	table.Entries = table.Entries[:len(table.Entries)-1]
	return true, nil
}

// GetEntry returns the first entry matching tmpl.
func (store *Client) GetEntry(ctx context.Context, typeName string, tmpl *typedesc.Template) (*typedesc.Entry, error) {
	store.mu.Lock()
	store.CallCount.Get++
	store.mu.Unlock()

	entries, err := store.find(typeName, tmpl)
	if err != nil || len(entries) == 0 {
		return nil, err
	}
	return entries[0], nil
}

// GetEntryByID looks up an entry by identifier.
func (store *Client) GetEntryByID(ctx context.Context, typeName string, id interface{}) (*typedesc.Entry, error) {
	store.mu.Lock()
	defer store.mu.Unlock()
	store.CallCount.Get++

	table, err := store.table(typeName)
	if err != nil {
		return nil, err
	}
	id, err = typedesc.Coerce(table.Type.Properties[table.Type.IDPosition()].Type, id)
	if err != nil {
		return nil, rdbms.ErrSchema.Wrap(err)
	}
	i, found := table.indexOf(id)
	if !found {
		return nil, nil
	}
	return table.Entries[i].Clone(), nil
}

// GetEntryByUID looks up an entry by UID.
func (store *Client) GetEntryByUID(ctx context.Context, typeName, uid string) (*typedesc.Entry, error) {
	store.mu.Lock()
	table, err := store.table(typeName)
	store.mu.Unlock()
	if err != nil {
		return nil, err
	}
	id, err := typedesc.ParseUID(table.Type, uid)
	if err != nil {
		return nil, rdbms.ErrSchema.Wrap(err)
	}
	return store.GetEntryByID(ctx, typeName, id)
}

// MakeEntriesIter returns a snapshot of the entries matching tmpl.
func (store *Client) MakeEntriesIter(ctx context.Context, typeName string, tmpl *typedesc.Template) (rdbms.EntryIterator, error) {
	store.mu.Lock()
	store.CallCount.Iterate++
	store.mu.Unlock()

	entries, err := store.find(typeName, tmpl)
	if err != nil {
		return nil, err
	}
	return &iterator{entries: entries}, nil
}

func (store *Client) find(typeName string, tmpl *typedesc.Template) ([]*typedesc.Entry, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	table, err := store.table(typeName)
	if err != nil {
		return nil, err
	}
	if tmpl != nil {
		if tmpl.Type.Name != typeName {
			return nil, rdbms.ErrSchema.New("template of type %q used for type %q", tmpl.Type.Name, typeName)
		}
		if err := supported(tmpl); err != nil {
			return nil, err
		}
	}

	var entries []*typedesc.Entry
	for _, entry := range table.Entries {
		if cacherule.MatchEntry(tmpl, entry) {
			entries = append(entries, entry.Clone())
		}
	}
	return entries, nil
}

// supported rejects the templates the relational stores cannot render.
func supported(tmpl *typedesc.Template) error {
	if tmpl.Query != nil || !tmpl.HasMatchCodes() {
		return nil
	}
	for pos := range tmpl.Values {
		switch code := tmpl.MatchCode(pos); code {
		case typedesc.IsNull, typedesc.NotNull, typedesc.Regex:
			return rdbms.ErrSchema.New("unsupported match code %s", code)
		}
	}
	return nil
}

// DiskSize returns zero.
func (store *Client) DiskSize() (int64, error) { return 0, nil }

// ShutDown drops every table.
func (store *Client) ShutDown(ctx context.Context) error {
	store.mu.Lock()
	defer store.mu.Unlock()
	store.CallCount.ShutDown++
	store.Tables = map[string]*Table{}
	return nil
}

func stored(entry *typedesc.Entry) *typedesc.Entry {
	clone := entry.Clone()
	clone.UID = typedesc.UIDFor(entry.Type, entry.ID())
	return clone
}

type iterator struct {
	entries []*typedesc.Entry
	closed  bool
}

func (it *iterator) Next(ctx context.Context) (*typedesc.Entry, error) {
	if it.closed || len(it.entries) == 0 {
		return nil, nil
	}
	entry := it.entries[0]
	it.entries = it.entries[1:]
	return entry, nil
}

func (it *iterator) Close() error {
	it.closed = true
	it.entries = nil
	return nil
}
