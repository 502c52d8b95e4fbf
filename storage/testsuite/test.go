// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

// Package testsuite implements tests shared by every rdbms.InternalRDBMS.
package testsuite

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridlabs/tieredstorage/internal/testcontext"
	"github.com/gridlabs/tieredstorage/pkg/typedesc"
	"github.com/gridlabs/tieredstorage/storage/rdbms"
)

// RunTests runs common rdbms.InternalRDBMS tests. newStore returns a new
// uninitialized store for every test.
func RunTests(t *testing.T, newStore func(t *testing.T) rdbms.InternalRDBMS) {
	t.Run("CRUD", func(t *testing.T) { testCRUD(t, newStore(t)) })
	t.Run("Types", func(t *testing.T) { testTypes(t, newStore(t)) })
	t.Run("Schema", func(t *testing.T) { testSchema(t, newStore(t)) })
	t.Run("Constraints", func(t *testing.T) { testConstraints(t, newStore(t)) })
	t.Run("Iterate", func(t *testing.T) { testIterate(t, newStore(t)) })
	t.Run("Query", func(t *testing.T) { testQuery(t, newStore(t)) })
	t.Run("MultiType", func(t *testing.T) { testMultiType(t, newStore(t)) })
	t.Run("Parallel", func(t *testing.T) { testParallel(t, newStore(t)) })
}

func testCRUD(t *testing.T, store rdbms.InternalRDBMS) {
	ctx := testcontext.New(t)
	defer ctx.Cleanup()

	open(ctx, t, store, productType)
	defer shutDown(ctx, t, store)

	entry := product(1, "x", 9.99)
	require.NoError(t, store.InsertEntry(ctx, entry))

	got, err := store.GetEntryByID(ctx, productType.Name, int32(1))
	require.NoError(t, err)
	requireEqualEntry(t, entry, got)

	got, err = store.GetEntryByUID(ctx, productType.Name, entry.UID)
	require.NoError(t, err)
	requireEqualEntry(t, entry, got)

	updated := product(1, "y", 19.99)
	require.NoError(t, store.UpdateEntry(ctx, updated))
	got, err = store.GetEntryByID(ctx, productType.Name, 1)
	require.NoError(t, err)
	requireEqualEntry(t, updated, got)

	removed, err := store.RemoveEntry(ctx, updated)
	require.NoError(t, err)
	assert.True(t, removed)

	got, err = store.GetEntryByID(ctx, productType.Name, 1)
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = store.GetEntryByUID(ctx, productType.Name, entry.UID)
	require.NoError(t, err)
	assert.Nil(t, got)

	removed, err = store.RemoveEntry(ctx, updated)
	require.NoError(t, err)
	assert.False(t, removed)
}

func testTypes(t *testing.T, store rdbms.InternalRDBMS) {
	ctx := testcontext.New(t)
	defer ctx.Cleanup()

	open(ctx, t, store, scalarType)
	defer shutDown(ctx, t, store)

	at := time.Date(2026, 3, 4, 5, 6, 7, 800, time.FixedZone("EST", -5*3600))
	full := scalar("full", at)

	empty := typedesc.MustEntry(scalarType, "empty", nil, nil, nil, nil, nil, nil, nil, nil, nil, nil)
	empty.EnsureUID()

	insertAll(ctx, t, store, full, empty)

	for _, expected := range []*typedesc.Entry{full, empty} {
		got, err := store.GetEntryByID(ctx, scalarType.Name, expected.ID())
		require.NoError(t, err)
		requireEqualEntry(t, expected, got)
	}

	for _, amount := range []string{"12345678901234567", "-0.000000000000001", "123456789.123456"} {
		entry := scalarAmount(amount, at, amount)
		require.NoError(t, store.InsertEntry(ctx, entry), amount)
		got, err := store.GetEntryByID(ctx, scalarType.Name, amount)
		require.NoError(t, err)
		value, _ := got.Value("amount")
		assert.True(t, decimal.RequireFromString(amount).Equal(value.(decimal.Decimal)), "%s read back as %v", amount, value)
	}

	err := store.InsertEntry(ctx, scalarAmount("lossy", at, "12345678901234567.89"))
	require.Error(t, err)
	assert.True(t, rdbms.ErrSchema.Has(err))
	got, err := store.GetEntryByID(ctx, scalarType.Name, "lossy")
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = store.GetEntryByID(ctx, scalarType.Name, "full")
	require.NoError(t, err)
	at2, _ := got.Value("at")
	assert.True(t, at.Equal(at2.(time.Time)))
	assert.Equal(t, time.UTC, at2.(time.Time).Location())
}

func testSchema(t *testing.T, store rdbms.InternalRDBMS) {
	ctx := testcontext.New(t)
	defer ctx.Cleanup()

	open(ctx, t, store, productType)
	defer shutDown(ctx, t, store)

	assert.True(t, store.IsKnownType(productType.Name))
	assert.False(t, store.IsKnownType(orderType.Name))

	err := store.CreateTable(ctx, productType)
	require.Error(t, err)
	assert.True(t, rdbms.ErrSchema.Has(err))

	err = store.CreateTable(ctx, documentType)
	require.Error(t, err)
	assert.True(t, rdbms.ErrSchema.Has(err))
	assert.False(t, store.IsKnownType(documentType.Name))

	err = store.InsertEntry(ctx, typedesc.MustEntry(orderType, 1, time.Now()))
	require.Error(t, err)
	assert.True(t, rdbms.ErrSchema.Has(err))

	_, err = store.MakeEntriesIter(ctx, orderType.Name, nil)
	require.Error(t, err)

	for _, code := range []typedesc.MatchCode{typedesc.IsNull, typedesc.NotNull, typedesc.Regex} {
		for _, v := range []interface{}{"x", nil} {
			tmpl, err := typedesc.NewTemplate(productType, nil)
			require.NoError(t, err)
			require.NoError(t, tmpl.Where("name", code, v))
			_, err = store.MakeEntriesIter(ctx, productType.Name, tmpl)
			require.Error(t, err, "%s %v", code, v)
			assert.True(t, rdbms.ErrSchema.Has(err), "%s %v", code, v)
		}
	}
}

func testConstraints(t *testing.T, store rdbms.InternalRDBMS) {
	ctx := testcontext.New(t)
	defer ctx.Cleanup()

	open(ctx, t, store, productType)
	defer shutDown(ctx, t, store)

	entry := product(7, "x", 1)
	require.NoError(t, store.InsertEntry(ctx, entry))

	err := store.InsertEntry(ctx, product(7, "other", 2))
	require.Error(t, err)
	assert.True(t, rdbms.ErrEntryAlreadyExists.Has(err))

	got, err := store.GetEntryByID(ctx, productType.Name, 7)
	require.NoError(t, err)
	requireEqualEntry(t, entry, got)

	err = store.UpdateEntry(ctx, product(8, "missing", 1))
	require.Error(t, err)
	assert.True(t, rdbms.ErrEntryNotFound.Has(err))

	noID := typedesc.MustEntry(productType, nil, "x", 1)
	require.Error(t, store.InsertEntry(ctx, noID))
}
