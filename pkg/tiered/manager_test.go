// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

package tiered_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/gridlabs/tieredstorage/internal/testcontext"
	"github.com/gridlabs/tieredstorage/pkg/cacherule"
	"github.com/gridlabs/tieredstorage/pkg/ranges"
	"github.com/gridlabs/tieredstorage/pkg/tier"
	"github.com/gridlabs/tieredstorage/pkg/tiered"
	"github.com/gridlabs/tieredstorage/pkg/tieredconfig"
	"github.com/gridlabs/tieredstorage/pkg/typedesc"
	"github.com/gridlabs/tieredstorage/storage/rdbms"
	"github.com/gridlabs/tieredstorage/storage/teststore"
)

var (
	now = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	orderType = typedesc.MustNew("Order", "id", []typedesc.Property{
		{Name: "id", Type: typedesc.Int64},
		{Name: "createdAt", Type: typedesc.Time},
	})
	productType = typedesc.MustNew("Product", "id", []typedesc.Property{
		{Name: "id", Type: typedesc.Int64},
		{Name: "price", Type: typedesc.Float64},
		{Name: "data", Type: typedesc.Bytes},
	})
	sessionType = typedesc.MustNew("Session", "id", []typedesc.Property{
		{Name: "id", Type: typedesc.String},
	})
	countryType = typedesc.MustNew("Country", "id", []typedesc.Property{
		{Name: "id", Type: typedesc.String},
	})
	auditType = typedesc.MustNew("Audit", "id", []typedesc.Property{
		{Name: "id", Type: typedesc.Int64},
	})
	noteType = typedesc.MustNewAutoID("Note", "id", []typedesc.Property{
		{Name: "id", Type: typedesc.String},
		{Name: "text", Type: typedesc.String},
	})

	tables = tieredconfig.Config{Tables: []tieredconfig.TableConfig{
		{Name: "Order", TimeColumn: "createdAt", Period: 24 * time.Hour, Retention: 30 * 24 * time.Hour},
		{Name: "Product", Criteria: "price > 100"},
		{Name: "Session", Transient: true},
		{Name: "Country", Criteria: "ALL"},
	}}
)

func newManager(ctx *testcontext.Context, t *testing.T) (*tiered.Manager, *teststore.Client) {
	store := teststore.New()
	registry := typedesc.NewRegistry(orderType, productType, sessionType, countryType, auditType, noteType)
	manager := tiered.NewManager(zaptest.NewLogger(t),
		tiered.Config{Tables: tables, Now: func() time.Time { return now }},
		registry, rdbms.NewManager(zaptest.NewLogger(t), store))

	require.NoError(t, manager.Initialize(ctx, "space", "space_container1:space"))
	for _, td := range []*typedesc.TypeDescriptor{orderType, productType, sessionType, countryType, auditType, noteType} {
		require.NoError(t, manager.AddType(ctx, td))
	}
	return manager, store
}

func TestCacheRules(t *testing.T) {
	ctx := testcontext.New(t)
	defer ctx.Cleanup()

	manager, store := newManager(ctx, t)

	assert.False(t, store.IsKnownType(sessionType.Name))
	assert.True(t, store.IsKnownType(orderType.Name))
	assert.True(t, store.IsKnownType(auditType.Name))

	p, err := manager.CacheRule(auditType.Name)
	require.NoError(t, err)
	assert.Nil(t, p)
	assert.False(t, manager.HasCacheRule(auditType.Name))

	p, err = manager.CacheRule(sessionType.Name)
	require.NoError(t, err)
	assert.Equal(t, cacherule.Transient{}, p)

	transient, err := manager.IsTransient(sessionType.Name)
	require.NoError(t, err)
	assert.True(t, transient)

	transient, err = manager.IsTransient(countryType.Name)
	require.NoError(t, err)
	assert.False(t, transient)

	p, err = manager.CacheRule(orderType.Name)
	require.NoError(t, err)
	assert.True(t, cacherule.IsTimeRule(p))

	retention, ok := manager.RetentionRule(orderType.Name)
	require.True(t, ok)
	assert.Equal(t, 30*24*time.Hour, retention.Period)
	_, ok = manager.RetentionRule(productType.Name)
	assert.False(t, ok)

	for name, expected := range map[string]tier.State{
		auditType.Name:   tier.Cold,
		sessionType.Name: tier.Hot,
		countryType.Name: tier.HotAndCold,
		orderType.Name:   tier.HotAndCold,
	} {
		state, err := manager.GuessEntryTieredState(name)
		require.NoError(t, err)
		assert.Equal(t, expected, state, name)
	}
}

func TestCacheRuleUnknownType(t *testing.T) {
	ctx := testcontext.New(t)
	defer ctx.Cleanup()

	manager := tiered.NewManager(zaptest.NewLogger(t), tiered.Config{Tables: tables},
		typedesc.NewRegistry(), rdbms.NewManager(zaptest.NewLogger(t), teststore.New()))

	_, err := manager.CacheRule(orderType.Name)
	require.Error(t, err)
	assert.True(t, tiered.Error.Has(err))

	p, err := manager.CacheRule(auditType.Name)
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestClassify(t *testing.T) {
	ctx := testcontext.New(t)
	defer ctx.Cleanup()

	manager, _ := newManager(ctx, t)

	for _, tc := range []struct {
		entry    *typedesc.Entry
		expected tier.State
	}{
		{typedesc.MustEntry(auditType, 1), tier.Cold},
		{typedesc.MustEntry(sessionType, "s"), tier.Hot},
		{typedesc.MustEntry(countryType, "fr"), tier.HotAndCold},
		{typedesc.MustEntry(productType, 1, 150.0, nil), tier.HotAndCold},
		{typedesc.MustEntry(productType, 2, 50.0, nil), tier.Cold},
		{typedesc.MustEntry(orderType, 1, now.Add(-time.Hour)), tier.HotAndCold},
		{typedesc.MustEntry(orderType, 2, now.Add(-25*time.Hour)), tier.Cold},
		{typedesc.MustEntry(orderType, 3, nil), tier.Cold},
	} {
		state, err := manager.EntryTieredState(tc.entry)
		require.NoError(t, err)
		assert.Equal(t, tc.expected, state, tc.entry.Values)
	}
}

func TestTemplateTier(t *testing.T) {
	ctx := testcontext.New(t)
	defer ctx.Cleanup()

	manager, _ := newManager(ctx, t)

	mustTemplate := func(td *typedesc.TypeDescriptor, values map[string]interface{}) *typedesc.Template {
		tmpl, err := typedesc.NewTemplate(td, values)
		require.NoError(t, err)
		return tmpl
	}
	byID, err := typedesc.NewIDTemplate(productType, 1)
	require.NoError(t, err)

	for _, tc := range []struct {
		name     string
		tmpl     *typedesc.Template
		expected tier.Match
	}{
		{"no rule", mustTemplate(auditType, nil), tier.MatchCold},
		{"no rule by id", mustTemplate(auditType, map[string]interface{}{"id": 1}), tier.MatchCold},
		{"transient", mustTemplate(sessionType, nil), tier.MatchHot},
		{"all", mustTemplate(countryType, nil), tier.MatchHot},
		{"by id", byID, tier.MatchHotAndCold},
		{"inside criteria", typedesc.NewQueryTemplate(productType, ranges.GreaterThan("price", 200.0)), tier.MatchHot},
		{"outside criteria", typedesc.NewQueryTemplate(productType, ranges.LessThan("price", 50.0)), tier.MatchCold},
		{"across criteria", typedesc.NewQueryTemplate(productType, ranges.GreaterThan("price", 50.0)), tier.MatchHotAndCold},
		{"recent orders", typedesc.NewQueryTemplate(orderType, ranges.GreaterThan("createdAt", now.Add(-time.Hour))), tier.MatchHot},
		{"old orders", typedesc.NewQueryTemplate(orderType, ranges.LessThan("createdAt", now.Add(-48*time.Hour))), tier.MatchCold},
	} {
		match, err := manager.TemplateTier(tc.tmpl)
		require.NoError(t, err)
		assert.Equal(t, tc.expected, match, tc.name)
	}
}

func TestTransientNeverTouchesDisk(t *testing.T) {
	ctx := testcontext.New(t)
	defer ctx.Cleanup()

	manager, store := newManager(ctx, t)
	calls := store.Calls()

	session := typedesc.MustEntry(sessionType, "s1")
	state, err := manager.Insert(ctx, session)
	require.NoError(t, err)
	assert.Equal(t, tier.Hot, state)

	state, err = manager.Update(ctx, tier.Context{}, session)
	require.NoError(t, err)
	assert.Equal(t, tier.Hot, state)

	entry, err := manager.GetByID(ctx, tier.Context{}, sessionType.Name, "s1", nil)
	require.NoError(t, err)
	assert.Nil(t, entry)

	entry, err = manager.GetByUID(ctx, tier.Context{}, sessionType.Name, session.UID, nil)
	require.NoError(t, err)
	assert.Nil(t, entry)

	tmpl, err := typedesc.NewTemplate(sessionType, nil)
	require.NoError(t, err)
	it, err := manager.ColdEntriesIter(ctx, tier.Context{}, tmpl)
	require.NoError(t, err)
	entries, err := rdbms.Collect(ctx, it)
	require.NoError(t, err)
	assert.Empty(t, entries)

	removed, err := manager.Remove(ctx, tier.Context{}, session)
	require.NoError(t, err)
	assert.True(t, removed)

	assert.Equal(t, calls, store.Calls())
	assert.Zero(t, manager.WriteDisk())
	assert.Equal(t, tiered.Count{}, manager.Counters()[sessionType.Name])
}

func TestInsertAndRemove(t *testing.T) {
	ctx := testcontext.New(t)
	defer ctx.Cleanup()

	manager, store := newManager(ctx, t)

	const inserted, removed = 10, 4
	var entries []*typedesc.Entry
	for i := int64(0); i < inserted; i++ {
		entry := typedesc.MustEntry(auditType, i)
		state, err := manager.Insert(ctx, entry)
		require.NoError(t, err)
		assert.Equal(t, tier.Cold, state)
		entries = append(entries, entry)
	}
	for _, entry := range entries[:removed] {
		ok, err := manager.Remove(ctx, tier.Context{State: tier.Cold}, entry)
		require.NoError(t, err)
		assert.True(t, ok)
	}

	assert.EqualValues(t, inserted-removed, manager.TotalCount(auditType.Name))
	assert.Zero(t, manager.RAMCount(auditType.Name))
	assert.Len(t, store.Tables[auditType.Name].Entries, inserted-removed)
	assert.EqualValues(t, inserted+removed, manager.WriteDisk())

	// failed operations leave the counters alone
	_, err := manager.Insert(ctx, typedesc.MustEntry(auditType, int64(inserted-1)))
	require.Error(t, err)
	assert.True(t, rdbms.ErrEntryAlreadyExists.Has(err))
	ok, err := manager.Remove(ctx, tier.Context{}, entries[0])
	require.NoError(t, err)
	assert.False(t, ok)
	assert.EqualValues(t, inserted-removed, manager.TotalCount(auditType.Name))

	country := typedesc.MustEntry(countryType, "fr")
	state, err := manager.Insert(ctx, country)
	require.NoError(t, err)
	assert.Equal(t, tier.HotAndCold, state)
	assert.Equal(t, tiered.Count{Total: 1, RAM: 1}, manager.Counters()[countryType.Name])

	assert.Equal(t, []string{auditType.Name, countryType.Name}, manager.TypeNames()[:2])
}

func TestRemoveUnknownCounterPanics(t *testing.T) {
	ctx := testcontext.New(t)
	defer ctx.Cleanup()

	manager := tiered.NewManager(zaptest.NewLogger(t), tiered.Config{Tables: tables},
		typedesc.NewRegistry(sessionType), rdbms.NewManager(zaptest.NewLogger(t), teststore.New()))

	assert.Panics(t, func() {
		_, _ = manager.Remove(ctx, tier.Context{State: tier.Hot}, typedesc.MustEntry(sessionType, "s"))
	})
}

func TestUpdateMovesBetweenTiers(t *testing.T) {
	ctx := testcontext.New(t)
	defer ctx.Cleanup()

	manager, store := newManager(ctx, t)
	table := store.Tables[productType.Name]

	cheap := typedesc.MustEntry(productType, 1, 10.0, nil)
	state, err := manager.Insert(ctx, cheap)
	require.NoError(t, err)
	require.Equal(t, tier.Cold, state)

	expensive := typedesc.MustEntry(productType, 1, 500.0, nil)
	state, err = manager.Update(ctx, tier.Context{State: tier.Cold}, expensive)
	require.NoError(t, err)
	assert.Equal(t, tier.HotAndCold, state)
	assert.Equal(t, tiered.Count{Total: 1, RAM: 1}, manager.Counters()[productType.Name])
	require.Len(t, table.Entries, 1)
	assert.Equal(t, 500.0, table.Entries[0].Values[1])

	// the stored state is read back from disk when the caller does not know it
	state, err = manager.Update(ctx, tier.Context{}, cheap)
	require.NoError(t, err)
	assert.Equal(t, tier.Cold, state)
	assert.Equal(t, tiered.Count{Total: 1, RAM: 0}, manager.Counters()[productType.Name])

	_, err = manager.Update(ctx, tier.Context{}, typedesc.MustEntry(productType, 2, 10.0, nil))
	require.Error(t, err)
	assert.True(t, rdbms.ErrEntryNotFound.Has(err))
}

func TestTimeRule(t *testing.T) {
	ctx := testcontext.New(t)
	defer ctx.Cleanup()

	manager, _ := newManager(ctx, t)

	recent := typedesc.MustEntry(orderType, 1, now.Add(-time.Hour))
	old := typedesc.MustEntry(orderType, 2, now.Add(-25*time.Hour))
	for _, entry := range []*typedesc.Entry{recent, old} {
		_, err := manager.Insert(ctx, entry)
		require.NoError(t, err)
	}
	assert.Equal(t, tiered.Count{Total: 2, RAM: 1}, manager.Counters()[orderType.Name])

	// every order is on disk
	tmpl, err := typedesc.NewTemplate(orderType, nil)
	require.NoError(t, err)
	it, err := manager.ColdEntriesIter(ctx, tier.Context{}, tmpl)
	require.NoError(t, err)
	entries, err := rdbms.Collect(ctx, it)
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	// a day later the recent order leaves memory
	later := tiered.NewManager(zaptest.NewLogger(t),
		tiered.Config{Tables: tables, Now: func() time.Time { return now.Add(24 * time.Hour) }},
		typedesc.NewRegistry(orderType), manager.InternalStorage())
	_, err = later.InitialLoad(ctx, []string{orderType.Name}, nil)
	require.NoError(t, err)
	assert.Equal(t, tiered.Count{Total: 2, RAM: 0}, later.Counters()[orderType.Name])

	state, err := manager.Transition(ctx, recent, tier.HotAndCold)
	require.NoError(t, err)
	assert.Equal(t, tier.HotAndCold, state)
}

func TestUpdateAgedEntry(t *testing.T) {
	ctx := testcontext.New(t)
	defer ctx.Cleanup()

	clock := now
	manager := tiered.NewManager(zaptest.NewLogger(t),
		tiered.Config{Tables: tables, Now: func() time.Time { return clock }},
		typedesc.NewRegistry(orderType), rdbms.NewManager(zaptest.NewLogger(t), teststore.New()))
	require.NoError(t, manager.Initialize(ctx, "space", "space_container1:space"))
	require.NoError(t, manager.AddType(ctx, orderType))

	state, err := manager.Insert(ctx, typedesc.MustEntry(orderType, 1, now))
	require.NoError(t, err)
	require.Equal(t, tier.HotAndCold, state)
	require.Equal(t, tiered.Count{Total: 1, RAM: 1}, manager.Counters()[orderType.Name])

	clock = now.Add(25 * time.Hour)
	updated := typedesc.MustEntry(orderType, 1, clock)

	// the disk copy no longer tells whether the entry is in memory
	_, err = manager.Update(ctx, tier.Context{}, updated)
	require.Error(t, err)
	assert.True(t, tiered.Error.Has(err))
	assert.Equal(t, tiered.Count{Total: 1, RAM: 1}, manager.Counters()[orderType.Name])

	state, err = manager.Update(ctx, tier.Context{State: tier.HotAndCold}, updated)
	require.NoError(t, err)
	assert.Equal(t, tier.HotAndCold, state)
	assert.Equal(t, tiered.Count{Total: 1, RAM: 1}, manager.Counters()[orderType.Name])
}

func TestSetCacheRule(t *testing.T) {
	ctx := testcontext.New(t)
	defer ctx.Cleanup()

	manager, store := newManager(ctx, t)

	entry := typedesc.MustEntry(auditType, 1)
	state, err := manager.Insert(ctx, entry)
	require.NoError(t, err)
	require.Equal(t, tier.Cold, state)

	manager.SetCacheRule(auditType.Name, cacherule.All{})
	assert.True(t, manager.HasCacheRule(auditType.Name))

	// stored entries keep their tier until transitioned
	assert.Zero(t, manager.RAMCount(auditType.Name))
	_, err = manager.Update(ctx, tier.Context{}, entry)
	require.Error(t, err)
	assert.True(t, tiered.Error.Has(err))
	assert.Zero(t, manager.RAMCount(auditType.Name))

	state, err = manager.Transition(ctx, entry, tier.Cold)
	require.NoError(t, err)
	assert.Equal(t, tier.HotAndCold, state)
	assert.Equal(t, tiered.Count{Total: 1, RAM: 1}, manager.Counters()[auditType.Name])
	assert.Len(t, store.Tables[auditType.Name].Entries, 1)

	manager.SetCacheRule(countryType.Name, nil)
	assert.False(t, manager.HasCacheRule(countryType.Name))
	state, err = manager.GuessEntryTieredState(countryType.Name)
	require.NoError(t, err)
	assert.Equal(t, tier.Cold, state)

	// switching to transient drops the disk copy on transition
	manager.SetCacheRule(auditType.Name, cacherule.Transient{})
	state, err = manager.Transition(ctx, entry, tier.HotAndCold)
	require.NoError(t, err)
	assert.Equal(t, tier.Hot, state)
	assert.Empty(t, store.Tables[auditType.Name].Entries)
	assert.Equal(t, tiered.Count{Total: 1, RAM: 1}, manager.Counters()[auditType.Name])
}

type hotCache map[string]*typedesc.Entry

func (cache hotCache) GetByID(typeName string, id interface{}) *typedesc.Entry {
	return cache[typeName+"/"+typedesc.FormatValue(id)]
}

func (cache hotCache) put(entry *typedesc.Entry) {
	cache[entry.TypeName()+"/"+typedesc.FormatValue(entry.ID())] = entry
}

func TestEntriesTieredMetaData(t *testing.T) {
	ctx := testcontext.New(t)
	defer ctx.Cleanup()

	manager, _ := newManager(ctx, t)
	cache := hotCache{}

	same := typedesc.MustEntry(productType, 1, 500.0, []byte{1, 2})
	differs := typedesc.MustEntry(productType, 2, 600.0, []byte{1, 2})
	cold := typedesc.MustEntry(productType, 3, 5.0, nil)
	for _, entry := range []*typedesc.Entry{same, differs, cold} {
		_, err := manager.Insert(ctx, entry)
		require.NoError(t, err)
	}
	cache.put(typedesc.MustEntry(productType, 1, 500.0, []byte{1, 2}))
	cache.put(typedesc.MustEntry(productType, 2, 600.0, []byte{3}))
	cache.put(typedesc.MustEntry(productType, 4, 700.0, nil))

	infos, err := manager.EntriesTieredMetaData(ctx, cache, productType.Name, []interface{}{int64(1), int64(2), int64(3), int64(4), int64(5)})
	require.NoError(t, err)
	assert.Equal(t, []tiered.EntryTieredMetaData{
		{ID: int64(1), State: tier.HotAndCold, IdenticalToCache: true},
		{ID: int64(2), State: tier.HotAndCold},
		{ID: int64(3), State: tier.Cold},
		{ID: int64(4), State: tier.Hot},
		{ID: int64(5), State: tier.Unknown},
	}, infos)

	note := typedesc.MustEntry(noteType, nil, "text")
	_, err = manager.Insert(ctx, note)
	require.NoError(t, err)
	infos, err = manager.EntriesTieredMetaData(ctx, nil, noteType.Name, []interface{}{note.UID})
	require.NoError(t, err)
	assert.Equal(t, tier.Cold, infos[0].State)

	_, err = manager.EntriesTieredMetaData(ctx, nil, "Missing", nil)
	require.Error(t, err)
}

func TestInitialLoad(t *testing.T) {
	ctx := testcontext.New(t)
	defer ctx.Cleanup()

	manager, _ := newManager(ctx, t)
	for i := int64(1); i <= 3; i++ {
		_, err := manager.Insert(ctx, typedesc.MustEntry(productType, i, float64(i)*60, nil))
		require.NoError(t, err)
	}
	_, err := manager.Insert(ctx, typedesc.MustEntry(countryType, "fr"))
	require.NoError(t, err)

	restarted := tiered.NewManager(zaptest.NewLogger(t), tiered.Config{Tables: tables},
		typedesc.NewRegistry(productType, countryType, sessionType), manager.InternalStorage())

	hot := map[string]tier.State{}
	loaded, err := restarted.InitialLoad(ctx, []string{sessionType.Name, productType.Name, countryType.Name},
		func(entry *typedesc.Entry, state tier.State) error {
			hot[entry.UID] = state
			return nil
		})
	require.NoError(t, err)
	assert.Equal(t, 4, loaded)
	assert.Equal(t, map[string]tier.State{
		"Product^1":  tier.Cold,
		"Product^2":  tier.HotAndCold,
		"Product^3":  tier.HotAndCold,
		"Country^fr": tier.HotAndCold,
	}, hot)
	assert.Equal(t, tiered.Count{Total: 3, RAM: 2}, restarted.Counters()[productType.Name])
	assert.Equal(t, tiered.Count{Total: 1, RAM: 1}, restarted.Counters()[countryType.Name])
	// initial loading is not a user read
	assert.Zero(t, restarted.ReadDisk())
}
