// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

package rdbms

import (
	"context"
	"sync/atomic"

	"github.com/spacemonkeygo/monkit/v3"
	"go.uber.org/zap"

	"github.com/gridlabs/tieredstorage/pkg/tier"
	"github.com/gridlabs/tieredstorage/pkg/typedesc"
)

var mon = monkit.Package()

// Manager fronts an InternalRDBMS and counts disk reads and writes.
type Manager struct {
	log *zap.Logger
	db  InternalRDBMS

	readDisk  atomic.Int64
	writeDisk atomic.Int64
}

// NewManager creates a manager over db.
func NewManager(log *zap.Logger, db InternalRDBMS) *Manager {
	return &Manager{log: log.Named("rdbms"), db: db}
}

// Storage returns the managed storage.
func (m *Manager) Storage() InternalRDBMS { return m.db }

// Initialize opens the storage of a space instance.
func (m *Manager) Initialize(ctx context.Context, spaceName, fullMemberName string, types typedesc.TypeManager) (err error) {
	defer mon.Task()(&ctx)(&err)
	m.log.Info("initializing disk tier", zap.String("space", spaceName), zap.String("member", fullMemberName))
	return m.db.Initialize(ctx, spaceName, fullMemberName, types)
}

// DiskSize returns the size of the storage files in bytes.
func (m *Manager) DiskSize() (int64, error) { return m.db.DiskSize() }

// CreateTable creates the table of a type.
func (m *Manager) CreateTable(ctx context.Context, td *typedesc.TypeDescriptor) (err error) {
	defer mon.Task()(&ctx)(&err)
	return m.db.CreateTable(ctx, td)
}

// IsKnownType returns true when the type has a table.
func (m *Manager) IsKnownType(name string) bool { return m.db.IsKnownType(name) }

// InsertEntry writes a new entry to disk.
func (m *Manager) InsertEntry(ctx context.Context, entry *typedesc.Entry) (err error) {
	defer mon.Task()(&ctx)(&err)
	if err := m.db.InsertEntry(ctx, entry); err != nil {
		return err
	}
	m.countWrite()
	return nil
}

// UpdateEntry replaces an entry on disk.
func (m *Manager) UpdateEntry(ctx context.Context, entry *typedesc.Entry) (err error) {
	defer mon.Task()(&ctx)(&err)
	if err := m.db.UpdateEntry(ctx, entry); err != nil {
		return err
	}
	m.countWrite()
	return nil
}

// RemoveEntry deletes an entry from disk.
func (m *Manager) RemoveEntry(ctx context.Context, entry *typedesc.Entry) (_ bool, err error) {
	defer mon.Task()(&ctx)(&err)
	removed, err := m.db.RemoveEntry(ctx, entry)
	if err != nil {
		return false, err
	}
	if removed {
		m.countWrite()
	}
	return removed, nil
}

// GetEntry returns the first entry matching tmpl.
func (m *Manager) GetEntry(ctx context.Context, tc tier.Context, typeName string, tmpl *typedesc.Template) (_ *typedesc.Entry, err error) {
	defer mon.Task()(&ctx)(&err)
	m.countRead(tc, tmpl)
	return m.db.GetEntry(ctx, typeName, tmpl)
}

// GetEntryByID looks up an entry by identifier. tmpl is the query that caused
// the lookup and may be nil.
func (m *Manager) GetEntryByID(ctx context.Context, tc tier.Context, typeName string, id interface{}, tmpl *typedesc.Template) (_ *typedesc.Entry, err error) {
	defer mon.Task()(&ctx)(&err)
	m.countRead(tc, tmpl)
	return m.db.GetEntryByID(ctx, typeName, id)
}

// GetEntryByUID looks up an entry by UID. tmpl is the query that caused the
// lookup and may be nil.
func (m *Manager) GetEntryByUID(ctx context.Context, tc tier.Context, typeName, uid string, tmpl *typedesc.Template) (_ *typedesc.Entry, err error) {
	defer mon.Task()(&ctx)(&err)
	m.countRead(tc, tmpl)
	return m.db.GetEntryByUID(ctx, typeName, uid)
}

// MakeEntriesIter returns the entries of a type matching tmpl.
func (m *Manager) MakeEntriesIter(ctx context.Context, tc tier.Context, typeName string, tmpl *typedesc.Template) (_ EntryIterator, err error) {
	defer mon.Task()(&ctx)(&err)
	m.countRead(tc, tmpl)
	return m.db.MakeEntriesIter(ctx, typeName, tmpl)
}

// ShutDown closes the storage and removes its files.
func (m *Manager) ShutDown(ctx context.Context) (err error) {
	defer mon.Task()(&ctx)(&err)
	m.log.Info("shutting down disk tier",
		zap.Int64("disk reads", m.ReadDisk()),
		zap.Int64("disk writes", m.WriteDisk()))
	return m.db.ShutDown(ctx)
}

// ReadDisk returns the number of reads served from disk.
func (m *Manager) ReadDisk() int64 { return m.readDisk.Load() }

// WriteDisk returns the number of writes applied to disk.
func (m *Manager) WriteDisk() int64 { return m.writeDisk.Load() }

func (m *Manager) countRead(tc tier.Context, tmpl *typedesc.Template) {
	if tmpl != nil && tmpl.ReadOperation && !tc.DisableMetrics {
		m.countDiskRead()
	}
}

func (m *Manager) countDiskRead() {
	m.readDisk.Add(1)
	mon.Counter("disk_reads").Inc(1)
}

func (m *Manager) countWrite() {
	m.writeDisk.Add(1)
	mon.Counter("disk_writes").Inc(1)
}
