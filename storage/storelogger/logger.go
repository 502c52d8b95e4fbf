// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

package storelogger

import (
	"context"
	"strconv"
	"sync/atomic"

	"github.com/spacemonkeygo/monkit/v3"
	"go.uber.org/zap"

	"github.com/gridlabs/tieredstorage/pkg/typedesc"
	"github.com/gridlabs/tieredstorage/storage/rdbms"
)

var mon = monkit.Package()

var id int64

// Logger implements a zap.Logger for rdbms.InternalRDBMS
type Logger struct {
	log   *zap.Logger
	store rdbms.InternalRDBMS
}

var _ rdbms.InternalRDBMS = (*Logger)(nil)

// New creates a new Logger with log and store
func New(log *zap.Logger, store rdbms.InternalRDBMS) *Logger {
	loggerid := atomic.AddInt64(&id, 1)
	name := strconv.Itoa(int(loggerid))
	return &Logger{log.Named(name), store}
}

// Initialize opens the storage of a space instance
func (store *Logger) Initialize(ctx context.Context, spaceName, fullMemberName string, types typedesc.TypeManager) (err error) {
	defer mon.Task()(&ctx)(&err)
	store.log.Debug("Initialize", zap.String("space", spaceName), zap.String("member", fullMemberName))
	return store.store.Initialize(ctx, spaceName, fullMemberName, types)
}

// CreateTable creates the table of a type
func (store *Logger) CreateTable(ctx context.Context, td *typedesc.TypeDescriptor) (err error) {
	defer mon.Task()(&ctx)(&err)
	store.log.Debug("CreateTable", zap.String("type", td.Name), zap.Int("properties", td.NumProperties()))
	return store.store.CreateTable(ctx, td)
}

// IsKnownType returns true when the type has a table
func (store *Logger) IsKnownType(name string) bool {
	return store.store.IsKnownType(name)
}

// InsertEntry adds an entry
func (store *Logger) InsertEntry(ctx context.Context, entry *typedesc.Entry) (err error) {
	defer mon.Task()(&ctx)(&err)
	store.log.Debug("InsertEntry", zap.String("uid", entry.UID), zap.Strings("values", truncate(entry)))
	return store.store.InsertEntry(ctx, entry)
}

// UpdateEntry replaces an entry
func (store *Logger) UpdateEntry(ctx context.Context, entry *typedesc.Entry) (err error) {
	defer mon.Task()(&ctx)(&err)
	store.log.Debug("UpdateEntry", zap.String("uid", entry.UID), zap.Strings("values", truncate(entry)))
	return store.store.UpdateEntry(ctx, entry)
}

// RemoveEntry deletes an entry
func (store *Logger) RemoveEntry(ctx context.Context, entry *typedesc.Entry) (_ bool, err error) {
	defer mon.Task()(&ctx)(&err)
	removed, err := store.store.RemoveEntry(ctx, entry)
	store.log.Debug("RemoveEntry", zap.String("uid", entry.UID), zap.Bool("removed", removed))
	return removed, err
}

// GetEntry returns the first entry matching tmpl
func (store *Logger) GetEntry(ctx context.Context, typeName string, tmpl *typedesc.Template) (_ *typedesc.Entry, err error) {
	defer mon.Task()(&ctx)(&err)
	entry, err := store.store.GetEntry(ctx, typeName, tmpl)
	store.log.Debug("GetEntry", zap.String("type", typeName), zap.Bool("found", entry != nil))
	return entry, err
}

// GetEntryByID looks up an entry by identifier
func (store *Logger) GetEntryByID(ctx context.Context, typeName string, id interface{}) (_ *typedesc.Entry, err error) {
	defer mon.Task()(&ctx)(&err)
	store.log.Debug("GetEntryByID", zap.String("type", typeName), zap.String("id", typedesc.FormatValue(id)))
	return store.store.GetEntryByID(ctx, typeName, id)
}

// GetEntryByUID looks up an entry by UID
func (store *Logger) GetEntryByUID(ctx context.Context, typeName, uid string) (_ *typedesc.Entry, err error) {
	defer mon.Task()(&ctx)(&err)
	store.log.Debug("GetEntryByUID", zap.String("type", typeName), zap.String("uid", uid))
	return store.store.GetEntryByUID(ctx, typeName, uid)
}

// MakeEntriesIter returns the entries matching tmpl, logging each of them
func (store *Logger) MakeEntriesIter(ctx context.Context, typeName string, tmpl *typedesc.Template) (_ rdbms.EntryIterator, err error) {
	defer mon.Task()(&ctx)(&err)
	store.log.Debug("MakeEntriesIter", zap.String("type", typeName), zap.Bool("template", tmpl != nil))
	it, err := store.store.MakeEntriesIter(ctx, typeName, tmpl)
	if err != nil {
		return nil, err
	}
	return &iterator{log: store.log, it: it}, nil
}

// DiskSize returns the size of the storage files
func (store *Logger) DiskSize() (int64, error) {
	size, err := store.store.DiskSize()
	store.log.Debug("DiskSize", zap.Int64("bytes", size))
	return size, err
}

// ShutDown closes the store
func (store *Logger) ShutDown(ctx context.Context) (err error) {
	defer mon.Task()(&ctx)(&err)
	store.log.Debug("ShutDown")
	return store.store.ShutDown(ctx)
}

type iterator struct {
	log *zap.Logger
	it  rdbms.EntryIterator
}

func (it *iterator) Next(ctx context.Context) (*typedesc.Entry, error) {
	entry, err := it.it.Next(ctx)
	if entry != nil {
		it.log.Debug("  ", zap.String("uid", entry.UID), zap.Strings("values", truncate(entry)))
	}
	return entry, err
}

func (it *iterator) Close() error { return it.it.Close() }

func truncate(entry *typedesc.Entry) []string {
	values := make([]string, 0, len(entry.Values))
	for _, v := range entry.Values {
		s := typedesc.FormatValue(v)
		if len(s) > 10 {
			s = s[:10]
		}
		values = append(values, s)
	}
	return values
}
