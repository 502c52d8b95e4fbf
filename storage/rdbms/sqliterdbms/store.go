// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

// Package sqliterdbms implements the disk tier on SQLite.
package sqliterdbms

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/spacemonkeygo/monkit/v3"
	"github.com/zeebo/errs"
	"go.uber.org/zap"

	"github.com/gridlabs/tieredstorage/pkg/typedesc"
	"github.com/gridlabs/tieredstorage/storage/rdbms"
	"github.com/gridlabs/tieredstorage/storage/rdbms/sqlmap"
)

var mon = monkit.Package()

// FilePrefix starts the name of every database file.
const FilePrefix = "sqlite_storage_"

// Config configures the SQLite store.
type Config struct {
	// Dir holds the database files.
	Dir string `mapstructure:"dir"`
	// CacheSize is the page cache size in pages.
	CacheSize int `mapstructure:"cache-size"`
	// BusyTimeout is how long a writer waits for a locked database.
	BusyTimeout time.Duration `mapstructure:"busy-timeout"`
}

// Store is an rdbms.InternalRDBMS backed by one SQLite database per space
// instance. Writes are serialized; reads run concurrently.
type Store struct {
	log    *zap.Logger
	config Config

	prefix string
	db     *sql.DB

	mu    sync.RWMutex
	known map[string]*typedesc.TypeDescriptor

	modifier sync.Mutex
}

var _ rdbms.InternalRDBMS = (*Store)(nil)

// New creates a store. Initialize opens it.
func New(log *zap.Logger, config Config) *Store {
	if config.CacheSize == 0 {
		config.CacheSize = 5000
	}
	if config.BusyTimeout == 0 {
		config.BusyTimeout = 5 * time.Second
	}
	return &Store{
		log:    log,
		config: config,
		known:  make(map[string]*typedesc.TypeDescriptor),
	}
}

// Path returns the database file, once initialized.
func (store *Store) Path() string { return store.prefix + ".db" }

// Initialize implements rdbms.InternalRDBMS.
func (store *Store) Initialize(ctx context.Context, spaceName, fullMemberName string, types typedesc.TypeManager) (err error) {
	defer mon.Task()(&ctx)(&err)
	registerDriver()

	if err := os.MkdirAll(store.config.Dir, 0755); err != nil {
		return rdbms.Error.Wrap(err)
	}
	store.prefix = filepath.Join(store.config.Dir, FilePrefix+fileName(spaceName)+"_"+fileName(fullMemberName))

	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_cache_size=%d&_busy_timeout=%d",
		store.Path(), store.config.CacheSize, store.config.BusyTimeout.Milliseconds())
	db, err := sql.Open(DriverName, dsn)
	if err != nil {
		return rdbms.Error.New("open %s: %v", store.Path(), err)
	}
	if err := db.PingContext(ctx); err != nil {
		return rdbms.Error.New("open %s: %v", store.Path(), errs.Combine(err, db.Close()))
	}
	store.db = db

	if err := store.discover(ctx, types); err != nil {
		return errs.Combine(err, db.Close())
	}
	store.log.Debug("initialized", zap.String("path", store.Path()), zap.Int("tables", len(store.known)))
	return nil
}

// discover registers the tables left by a previous run.
func (store *Store) discover(ctx context.Context, types typedesc.TypeManager) (err error) {
	rows, err := store.db.QueryContext(ctx, `SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%'`)
	if err != nil {
		return rdbms.Error.Wrap(err)
	}
	defer func() { err = errs.Combine(err, rows.Close()) }()

	store.mu.Lock()
	defer store.mu.Unlock()
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return rdbms.Error.Wrap(err)
		}
		td, ok := types.TypeDescriptor(name)
		if !ok {
			store.log.Warn("table without type", zap.String("table", name))
			continue
		}
		store.known[name] = td
	}
	return rdbms.Error.Wrap(rows.Err())
}

// CreateTable implements rdbms.InternalRDBMS.
func (store *Store) CreateTable(ctx context.Context, td *typedesc.TypeDescriptor) (err error) {
	defer mon.Task()(&ctx)(&err)

	stmts, err := sqlmap.CreateTable(td)
	if err != nil {
		return rdbms.ErrSchema.Wrap(err)
	}

	store.mu.Lock()
	defer store.mu.Unlock()
	if _, ok := store.known[td.Name]; ok {
		return rdbms.ErrSchema.New("table %q already exists", td.Name)
	}

	store.modifier.Lock()
	defer store.modifier.Unlock()

	tx, err := store.db.BeginTx(ctx, nil)
	if err != nil {
		return rdbms.Error.Wrap(err)
	}
	for _, stmt := range stmts {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return rdbms.Error.New("create table %q: %v", td.Name, errs.Combine(err, tx.Rollback()))
		}
	}
	if err := tx.Commit(); err != nil {
		return rdbms.Error.New("create table %q: %v", td.Name, err)
	}

	store.known[td.Name] = td
	store.log.Debug("created table", zap.String("type", td.Name), zap.Int("indexes", len(td.Indexes)))
	return nil
}

// IsKnownType implements rdbms.InternalRDBMS.
func (store *Store) IsKnownType(name string) bool {
	store.mu.RLock()
	defer store.mu.RUnlock()
	_, ok := store.known[name]
	return ok
}

func (store *Store) typeOf(name string) (*typedesc.TypeDescriptor, error) {
	store.mu.RLock()
	defer store.mu.RUnlock()
	td, ok := store.known[name]
	if !ok {
		return nil, rdbms.ErrSchema.New("unknown type %q", name)
	}
	return td, nil
}

func (store *Store) entryType(entry *typedesc.Entry) (*typedesc.TypeDescriptor, error) {
	td, err := store.typeOf(entry.TypeName())
	if err != nil {
		return nil, err
	}
	if entry.ID() == nil {
		return nil, rdbms.ErrSchema.New("entry of type %q has no id", td.Name)
	}
	return td, nil
}

// InsertEntry implements rdbms.InternalRDBMS.
func (store *Store) InsertEntry(ctx context.Context, entry *typedesc.Entry) (err error) {
	defer mon.Task()(&ctx)(&err)
	if _, err := store.entryType(entry); err != nil {
		return err
	}
	query, args, err := sqlmap.Insert(entry)
	if err != nil {
		return rdbms.ErrSchema.Wrap(err)
	}

	store.modifier.Lock()
	defer store.modifier.Unlock()

	if _, err := store.db.ExecContext(ctx, query, args...); err != nil {
		if isPrimaryKeyViolation(err) {
			return rdbms.ErrEntryAlreadyExists.New("%s", entry.UID)
		}
		return rdbms.Error.New("insert %s: %v", entry.UID, err)
	}
	return nil
}

// UpdateEntry implements rdbms.InternalRDBMS.
func (store *Store) UpdateEntry(ctx context.Context, entry *typedesc.Entry) (err error) {
	defer mon.Task()(&ctx)(&err)
	if _, err := store.entryType(entry); err != nil {
		return err
	}
	query, args, err := sqlmap.Update(entry)
	if err != nil {
		return rdbms.ErrSchema.Wrap(err)
	}

	store.modifier.Lock()
	defer store.modifier.Unlock()

	result, err := store.db.ExecContext(ctx, query, args...)
	if err != nil {
		return rdbms.Error.New("update %s: %v", entry.UID, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return rdbms.Error.New("update %s: %v", entry.UID, err)
	}
	if affected == 0 {
		return rdbms.ErrEntryNotFound.New("%s", entry.UID)
	}
	return nil
}

// RemoveEntry implements rdbms.InternalRDBMS.
func (store *Store) RemoveEntry(ctx context.Context, entry *typedesc.Entry) (_ bool, err error) {
	defer mon.Task()(&ctx)(&err)
	td, err := store.entryType(entry)
	if err != nil {
		return false, err
	}
	query, args, err := sqlmap.Delete(td, entry.ID())
	if err != nil {
		return false, rdbms.ErrSchema.Wrap(err)
	}

	store.modifier.Lock()
	defer store.modifier.Unlock()

	result, err := store.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, rdbms.Error.New("remove %s: %v", entry.UID, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, rdbms.Error.New("remove %s: %v", entry.UID, err)
	}
	return affected > 0, nil
}

// GetEntry implements rdbms.InternalRDBMS.
func (store *Store) GetEntry(ctx context.Context, typeName string, tmpl *typedesc.Template) (_ *typedesc.Entry, err error) {
	defer mon.Task()(&ctx)(&err)
	if tmpl != nil && tmpl.IsIDQuery() {
		return store.GetEntryByID(ctx, typeName, tmpl.Values[tmpl.Type.IDPosition()])
	}
	it, err := store.MakeEntriesIter(ctx, typeName, tmpl)
	if err != nil {
		return nil, err
	}
	defer func() { err = errs.Combine(err, it.Close()) }()
	return it.Next(ctx)
}

// GetEntryByID implements rdbms.InternalRDBMS.
func (store *Store) GetEntryByID(ctx context.Context, typeName string, id interface{}) (_ *typedesc.Entry, err error) {
	defer mon.Task()(&ctx)(&err)
	td, err := store.typeOf(typeName)
	if err != nil {
		return nil, err
	}
	query, args, err := sqlmap.SelectByID(td, id)
	if err != nil {
		return nil, rdbms.ErrSchema.Wrap(err)
	}
	it, err := store.query(ctx, td, query, args)
	if err != nil {
		return nil, err
	}
	defer func() { err = errs.Combine(err, it.Close()) }()
	return it.Next(ctx)
}

// GetEntryByUID implements rdbms.InternalRDBMS.
func (store *Store) GetEntryByUID(ctx context.Context, typeName, uid string) (_ *typedesc.Entry, err error) {
	defer mon.Task()(&ctx)(&err)
	td, err := store.typeOf(typeName)
	if err != nil {
		return nil, err
	}
	id, err := typedesc.ParseUID(td, uid)
	if err != nil {
		return nil, rdbms.ErrSchema.Wrap(err)
	}
	return store.GetEntryByID(ctx, typeName, id)
}

// MakeEntriesIter implements rdbms.InternalRDBMS.
func (store *Store) MakeEntriesIter(ctx context.Context, typeName string, tmpl *typedesc.Template) (_ rdbms.EntryIterator, err error) {
	defer mon.Task()(&ctx)(&err)
	td, err := store.typeOf(typeName)
	if err != nil {
		return nil, err
	}
	if tmpl != nil && tmpl.Type.Name != td.Name {
		return nil, rdbms.ErrSchema.New("template of type %q used for type %q", tmpl.Type.Name, td.Name)
	}
	query, args, err := sqlmap.Select(td, tmpl)
	if err != nil {
		return nil, rdbms.ErrSchema.Wrap(err)
	}
	return store.query(ctx, td, query, args)
}

func (store *Store) query(ctx context.Context, td *typedesc.TypeDescriptor, query string, args []interface{}) (*rowsIterator, error) {
	dests, values, err := sqlmap.ScanRow(td)
	if err != nil {
		return nil, rdbms.ErrSchema.Wrap(err)
	}
	rows, err := store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, rdbms.Error.New("query %s: %v", td.Name, err)
	}
	return &rowsIterator{td: td, rows: rows, dests: dests, values: values}, nil
}

// files returns the files SQLite may keep for the database.
func (store *Store) files() []string {
	if store.prefix == "" {
		return nil
	}
	path := store.Path()
	return []string{path, path + "-wal", path + "-shm", path + "-journal"}
}

// DiskSize implements rdbms.InternalRDBMS.
func (store *Store) DiskSize() (int64, error) {
	var size int64
	for _, file := range store.files() {
		info, err := os.Stat(file)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return 0, rdbms.Error.Wrap(err)
		}
		size += info.Size()
	}
	return size, nil
}

// Close releases the connection and keeps the database files for a later
// Initialize. Operations after Close fail.
func (store *Store) Close() error {
	if store.db == nil {
		return nil
	}
	return rdbms.Error.Wrap(store.db.Close())
}

// ShutDown implements rdbms.InternalRDBMS. Files that cannot be removed are
// logged and left behind.
func (store *Store) ShutDown(ctx context.Context) (err error) {
	defer mon.Task()(&ctx)(&err)
	err = store.Close()

	for _, file := range store.files() {
		if removeErr := os.Remove(file); removeErr != nil && !os.IsNotExist(removeErr) {
			store.log.Warn("failed to remove database file", zap.String("file", file), zap.Error(removeErr))
		}
	}
	return err
}

// fileName replaces characters that cannot appear in a file name.
func fileName(name string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|', ' ':
			return '_'
		}
		return r
	}, name)
}

// rowsIterator materializes one row per Next.
type rowsIterator struct {
	td     *typedesc.TypeDescriptor
	rows   *sql.Rows
	dests  []interface{}
	values func() ([]interface{}, error)
}

// Next implements rdbms.EntryIterator.
func (it *rowsIterator) Next(ctx context.Context) (*typedesc.Entry, error) {
	if !it.rows.Next() {
		return nil, rdbms.Error.Wrap(it.rows.Err())
	}
	if err := it.rows.Scan(it.dests...); err != nil {
		return nil, rdbms.Error.New("scan %s: %v", it.td.Name, err)
	}
	values, err := it.values()
	if err != nil {
		return nil, rdbms.Error.New("scan %s: %v", it.td.Name, err)
	}
	entry := &typedesc.Entry{Type: it.td, Values: values}
	if id := entry.ID(); id != nil {
		entry.UID = typedesc.UIDFor(it.td, id)
	}
	return entry, nil
}

// Close implements rdbms.EntryIterator.
func (it *rowsIterator) Close() error {
	return rdbms.Error.Wrap(it.rows.Close())
}
