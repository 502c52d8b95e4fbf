// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

// Package tiered decides for every record whether it lives in memory, on disk
// or both, and keeps the disk tier and the per-type counters in sync with
// those decisions.
package tiered

import (
	"context"
	"sync"
	"time"

	"github.com/spacemonkeygo/monkit/v3"
	"github.com/zeebo/errs"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/gridlabs/tieredstorage/pkg/cacherule"
	"github.com/gridlabs/tieredstorage/pkg/tier"
	"github.com/gridlabs/tieredstorage/pkg/tieredconfig"
	"github.com/gridlabs/tieredstorage/pkg/typedesc"
	"github.com/gridlabs/tieredstorage/storage/rdbms"
)

var (
	mon = monkit.Package()

	// Error is the error class for tiered storage.
	Error = errs.Class("tiered")
)

// Config configures the manager.
type Config struct {
	Tables tieredconfig.Config
	// Now is the clock of time rules. Defaults to time.Now.
	Now func() time.Time
}

// rule is a compiled or explicitly set cache rule. A nil predicate means the
// type has no rule.
type rule struct {
	predicate cacherule.Predicate
	// set marks rules replaced at runtime.
	set bool
}

// Manager is the tiered storage manager of a space instance.
type Manager struct {
	log     *zap.Logger
	config  Config
	types   typedesc.TypeManager
	storage *rdbms.Manager

	rules     sync.Map // string -> rule
	singleRun singleflight.Group

	counters typesMetaData
}

// NewManager creates a manager. Cache rules are compiled on first use.
func NewManager(log *zap.Logger, config Config, types typedesc.TypeManager, storage *rdbms.Manager) *Manager {
	if config.Now == nil {
		config.Now = time.Now
	}
	return &Manager{
		log:     log.Named("tiered"),
		config:  config,
		types:   types,
		storage: storage,
	}
}

// Initialize opens the disk tier of a space instance.
func (m *Manager) Initialize(ctx context.Context, spaceName, fullMemberName string) (err error) {
	defer mon.Task()(&ctx)(&err)
	return m.storage.Initialize(ctx, spaceName, fullMemberName, m.types)
}

// ShutDown closes the disk tier.
func (m *Manager) ShutDown(ctx context.Context) (err error) {
	defer mon.Task()(&ctx)(&err)
	return m.storage.ShutDown(ctx)
}

// InternalStorage returns the disk tier.
func (m *Manager) InternalStorage() *rdbms.Manager { return m.storage }

// HasCacheRule returns true when the type has a configured or explicitly set
// cache rule.
func (m *Manager) HasCacheRule(typeName string) bool {
	if v, ok := m.rules.Load(typeName); ok {
		return v.(rule).predicate != nil
	}
	_, ok := m.config.Tables.Table(typeName)
	return ok
}

// CacheRule returns the cache rule of a type, or nil when the type has none.
func (m *Manager) CacheRule(typeName string) (cacherule.Predicate, error) {
	if v, ok := m.rules.Load(typeName); ok {
		return v.(rule).predicate, nil
	}
	table, ok := m.config.Tables.Table(typeName)
	if !ok {
		return nil, nil
	}

	v, err, _ := m.singleRun.Do(typeName, func() (interface{}, error) {
		if v, ok := m.rules.Load(typeName); ok {
			return v, nil
		}
		td, ok := m.types.TypeDescriptor(typeName)
		if !ok {
			return nil, Error.New("no type descriptor for %q", typeName)
		}
		p, err := table.Compile(td, m.config.Now)
		if err != nil {
			return nil, err
		}
		v, _ := m.rules.LoadOrStore(typeName, rule{predicate: p})
		m.log.Debug("compiled cache rule", zap.String("type", typeName), zap.Stringer("rule", v.(rule).predicate))
		return v, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(rule).predicate, nil
}

// SetCacheRule replaces the cache rule of a type; nil removes it. Entries
// already stored keep their tier until they are rewritten or transitioned.
func (m *Manager) SetCacheRule(typeName string, p cacherule.Predicate) {
	m.rules.Store(typeName, rule{predicate: p, set: true})
	if p == nil {
		m.log.Info("removed cache rule", zap.String("type", typeName))
		return
	}
	m.log.Info("set cache rule", zap.String("type", typeName), zap.Stringer("rule", p))
}

// RetentionRule returns the retention of a type with a time rule.
func (m *Manager) RetentionRule(typeName string) (cacherule.Time, bool) {
	table, ok := m.config.Tables.Table(typeName)
	if !ok {
		return cacherule.Time{}, false
	}
	return table.RetentionRule(m.config.Now)
}

// IsTransient returns true when the entries of a type never reach the disk.
func (m *Manager) IsTransient(typeName string) (bool, error) {
	p, err := m.CacheRule(typeName)
	if err != nil {
		return false, err
	}
	return p != nil && cacherule.IsTransient(p), nil
}

// EntryTieredState classifies an entry.
func (m *Manager) EntryTieredState(entry *typedesc.Entry) (tier.State, error) {
	p, err := m.CacheRule(entry.TypeName())
	if err != nil {
		return tier.Unknown, err
	}
	state := classify(p, entry)
	m.log.Debug("classified entry", zap.String("type", entry.TypeName()), zap.String("uid", entry.UID), zap.Stringer("state", state))
	return state, nil
}

func classify(p cacherule.Predicate, entry *typedesc.Entry) tier.State {
	switch {
	case p == nil:
		return tier.Cold
	case !cacherule.Evaluate(p, entry):
		return tier.Cold
	case cacherule.IsTransient(p):
		return tier.Hot
	}
	return tier.HotAndCold
}

// GuessEntryTieredState returns the most likely state of an entry when only
// its type is known.
func (m *Manager) GuessEntryTieredState(typeName string) (tier.State, error) {
	p, err := m.CacheRule(typeName)
	switch {
	case err != nil:
		return tier.Unknown, err
	case p == nil:
		return tier.Cold, nil
	case cacherule.IsTransient(p):
		return tier.Hot, nil
	}
	return tier.HotAndCold, nil
}

// TemplateTier returns the tiers a query has to search.
func (m *Manager) TemplateTier(tmpl *typedesc.Template) (tier.Match, error) {
	p, err := m.CacheRule(tmpl.Type.Name)
	if err != nil {
		return 0, err
	}
	var match tier.Match
	switch {
	case p == nil:
		match = tier.MatchCold
	case cacherule.IsTransient(p):
		match = tier.MatchHot
	case tmpl.IsIDQuery():
		match = tier.MatchHotAndCold
	default:
		match = cacherule.EvaluateTemplate(p, tmpl)
	}
	m.log.Debug("template tier", zap.String("type", tmpl.Type.Name), zap.Stringer("match", match))
	return match, nil
}

// AddType prepares the disk tier for a type. Transient types have no table.
func (m *Manager) AddType(ctx context.Context, td *typedesc.TypeDescriptor) (err error) {
	defer mon.Task()(&ctx)(&err)
	transient, err := m.IsTransient(td.Name)
	if err != nil {
		return err
	}
	m.counters.register(td.Name)
	if transient || m.storage.IsKnownType(td.Name) {
		return nil
	}
	return m.storage.CreateTable(ctx, td)
}

// Insert writes a new entry to the tiers it belongs to and returns its state.
// A failed insert leaves the counters unchanged.
func (m *Manager) Insert(ctx context.Context, entry *typedesc.Entry) (_ tier.State, err error) {
	defer mon.Task()(&ctx)(&err)
	entry.EnsureUID()
	state, err := m.EntryTieredState(entry)
	if err != nil {
		return tier.Unknown, err
	}
	if state.IsCold() {
		if err := m.storage.InsertEntry(ctx, entry); err != nil {
			return tier.Unknown, err
		}
	}
	m.counters.increment(entry.TypeName(), state.IsHot())
	return state, nil
}

// Update replaces an entry and returns its new state. tc.State is the state
// of the stored entry. When unknown it is derived from the disk copy, which
// requires a rule that gives the same answer today as when the entry was
// written: time rules and rules set at runtime need tc.State.
func (m *Manager) Update(ctx context.Context, tc tier.Context, entry *typedesc.Entry) (_ tier.State, err error) {
	defer mon.Task()(&ctx)(&err)
	entry.EnsureUID()
	from, err := m.storedState(ctx, tc, entry)
	if err != nil {
		return tier.Unknown, err
	}
	to, err := m.EntryTieredState(entry)
	if err != nil {
		return tier.Unknown, err
	}
	if err := m.move(ctx, entry, from, to, true); err != nil {
		return tier.Unknown, err
	}
	m.counters.adjustRAM(entry.TypeName(), from.IsHot(), to.IsHot())
	return to, nil
}

func (m *Manager) storedState(ctx context.Context, tc tier.Context, entry *typedesc.Entry) (tier.State, error) {
	if tc.State != tier.Unknown {
		return tc.State, nil
	}
	stable, err := m.stableRule(entry.TypeName())
	if err != nil {
		return tier.Unknown, err
	}
	if !stable {
		return tier.Unknown, Error.New("stored state of %s is required", entry.UID)
	}
	transient, err := m.IsTransient(entry.TypeName())
	if err != nil {
		return tier.Unknown, err
	}
	if transient {
		return tier.Hot, nil
	}
	stored, err := m.storage.GetEntryByID(ctx, tier.Context{DisableMetrics: true}, entry.TypeName(), entry.ID(), nil)
	if err != nil {
		return tier.Unknown, err
	}
	if stored == nil {
		return tier.Unknown, rdbms.ErrEntryNotFound.New("%s", entry.UID)
	}
	return m.EntryTieredState(stored)
}

// stableRule returns true when classifying an entry again gives the state it
// was given when written.
func (m *Manager) stableRule(typeName string) (bool, error) {
	p, err := m.CacheRule(typeName)
	if err != nil {
		return false, err
	}
	if v, ok := m.rules.Load(typeName); ok && v.(rule).set {
		return false, nil
	}
	return p == nil || !cacherule.IsTimeRule(p), nil
}

// move brings the disk tier in line with an entry moving between states.
func (m *Manager) move(ctx context.Context, entry *typedesc.Entry, from, to tier.State, rewrite bool) error {
	switch {
	case from.IsCold() && to.IsCold():
		if rewrite {
			return m.storage.UpdateEntry(ctx, entry)
		}
	case to.IsCold():
		return m.storage.InsertEntry(ctx, entry)
	case from.IsCold():
		_, err := m.storage.RemoveEntry(ctx, entry)
		return err
	}
	return nil
}

// Transition re-evaluates an entry whose state was decided earlier, for
// example a hot entry of a time rule that aged out, or an entry of a type whose
// rule changed. It returns the new state.
func (m *Manager) Transition(ctx context.Context, entry *typedesc.Entry, from tier.State) (_ tier.State, err error) {
	defer mon.Task()(&ctx)(&err)
	to, err := m.EntryTieredState(entry)
	if err != nil {
		return tier.Unknown, err
	}
	if to == from {
		return to, nil
	}
	if err := m.move(ctx, entry, from, to, false); err != nil {
		return tier.Unknown, err
	}
	m.counters.adjustRAM(entry.TypeName(), from.IsHot(), to.IsHot())
	m.log.Debug("transitioned entry", zap.String("uid", entry.UID), zap.Stringer("from", from), zap.Stringer("to", to))
	return to, nil
}

// Remove deletes an entry. tc.State is the state of the stored entry; when
// unknown the entry is classified. It returns false when the disk tier did
// not hold the entry.
func (m *Manager) Remove(ctx context.Context, tc tier.Context, entry *typedesc.Entry) (_ bool, err error) {
	defer mon.Task()(&ctx)(&err)
	state := tc.State
	if state == tier.Unknown {
		state, err = m.EntryTieredState(entry)
		if err != nil {
			return false, err
		}
	}
	if state.IsCold() {
		removed, err := m.storage.RemoveEntry(ctx, entry)
		if err != nil || !removed {
			return false, err
		}
	}
	m.counters.decrement(entry.TypeName(), state.IsHot())
	return true, nil
}

// GetByID reads an entry from the disk tier. Transient types are never read
// from disk.
func (m *Manager) GetByID(ctx context.Context, tc tier.Context, typeName string, id interface{}, tmpl *typedesc.Template) (_ *typedesc.Entry, err error) {
	defer mon.Task()(&ctx)(&err)
	if transient, err := m.IsTransient(typeName); err != nil || transient {
		return nil, err
	}
	return m.storage.GetEntryByID(ctx, tc, typeName, id, tmpl)
}

// GetByUID reads an entry from the disk tier by UID.
func (m *Manager) GetByUID(ctx context.Context, tc tier.Context, typeName, uid string, tmpl *typedesc.Template) (_ *typedesc.Entry, err error) {
	defer mon.Task()(&ctx)(&err)
	if transient, err := m.IsTransient(typeName); err != nil || transient {
		return nil, err
	}
	return m.storage.GetEntryByUID(ctx, tc, typeName, uid, tmpl)
}

// ColdEntriesIter returns the disk entries matching tmpl, or an empty iterator
// when the disk tier cannot hold any.
func (m *Manager) ColdEntriesIter(ctx context.Context, tc tier.Context, tmpl *typedesc.Template) (_ rdbms.EntryIterator, err error) {
	defer mon.Task()(&ctx)(&err)
	match, err := m.TemplateTier(tmpl)
	if err != nil {
		return nil, err
	}
	if match == tier.MatchHot {
		return rdbms.EmptyIterator{}, nil
	}
	return m.storage.MakeEntriesIter(ctx, tc, tmpl.Type.Name, tmpl)
}

// InitialLoad scans the disk tier of types, counts every entry and calls fn
// with each entry and its state so hot entries can be loaded into memory.
func (m *Manager) InitialLoad(ctx context.Context, types []string, fn func(entry *typedesc.Entry, state tier.State) error) (_ int, err error) {
	defer mon.Task()(&ctx)(&err)
	it := m.storage.NewMultiTypedIterator(tier.Context{DisableMetrics: true}, types, nil)
	defer func() { err = errs.Combine(err, it.Close()) }()

	loaded := 0
	for {
		entry, err := it.Next(ctx)
		if err != nil {
			return loaded, err
		}
		if entry == nil {
			break
		}
		state, err := m.EntryTieredState(entry)
		if err != nil {
			return loaded, err
		}
		m.counters.increment(entry.TypeName(), state.IsHot())
		loaded++
		if fn != nil {
			if err := fn(entry, state); err != nil {
				return loaded, err
			}
		}
	}
	m.log.Info("initial load finished", zap.Strings("types", types), zap.Int("entries", loaded))
	return loaded, nil
}

// Counters returns the entry counts of every type.
func (m *Manager) Counters() map[string]Count { return m.counters.snapshot() }

// TotalCount returns the number of entries of a type.
func (m *Manager) TotalCount(typeName string) int64 { return m.counters.count(typeName).Total }

// RAMCount returns the number of entries of a type with a memory copy.
func (m *Manager) RAMCount(typeName string) int64 { return m.counters.count(typeName).RAM }

// ReadDisk returns the number of reads served from disk.
func (m *Manager) ReadDisk() int64 { return m.storage.ReadDisk() }

// WriteDisk returns the number of writes applied to disk.
func (m *Manager) WriteDisk() int64 { return m.storage.WriteDisk() }
