// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

package testsuite

import (
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/gridlabs/tieredstorage/internal/testcontext"
	"github.com/gridlabs/tieredstorage/pkg/ranges"
	"github.com/gridlabs/tieredstorage/pkg/tier"
	"github.com/gridlabs/tieredstorage/pkg/typedesc"
	"github.com/gridlabs/tieredstorage/storage/rdbms"
)

func testIterate(t *testing.T, store rdbms.InternalRDBMS) {
	ctx := testcontext.New(t)
	defer ctx.Cleanup()

	open(ctx, t, store, productType)
	defer shutDown(ctx, t, store)

	x := product(1, "x", 9.99)
	insertAll(ctx, t, store, x)

	byName, err := typedesc.NewTemplate(productType, map[string]interface{}{"name": "x"})
	require.NoError(t, err)

	entries, err := store.MakeEntriesIter(ctx, productType.Name, byName)
	require.NoError(t, err)
	found, err := rdbms.Collect(ctx, entries)
	require.NoError(t, err)
	require.Len(t, found, 1)
	requireEqualEntry(t, x, found[0])

	insertAll(ctx, t, store,
		product(2, "y", 5),
		product(3, "z", 50),
		product(4, "x", 100),
	)

	all := find(ctx, t, store, productType.Name, nil)
	assert.ElementsMatch(t, []string{"Product^1", "Product^2", "Product^3", "Product^4"}, all)

	assert.ElementsMatch(t, []string{"Product^1", "Product^4"},
		find(ctx, t, store, productType.Name, byName))

	exact, err := typedesc.NewTemplate(productType, map[string]interface{}{"name": "x", "price": 100})
	require.NoError(t, err)
	assert.Equal(t, []string{"Product^4"}, find(ctx, t, store, productType.Name, exact))

	none, err := typedesc.NewTemplate(productType, map[string]interface{}{"name": "missing"})
	require.NoError(t, err)
	assert.Empty(t, find(ctx, t, store, productType.Name, none))

	entry, err := store.GetEntry(ctx, productType.Name, none)
	require.NoError(t, err)
	assert.Nil(t, entry)

	entry, err = store.GetEntry(ctx, productType.Name, exact)
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, "Product^4", entry.UID)

	byID, err := typedesc.NewIDTemplate(productType, 3)
	require.NoError(t, err)
	entry, err = store.GetEntry(ctx, productType.Name, byID)
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, "Product^3", entry.UID)

	for _, tc := range []struct {
		code      typedesc.MatchCode
		value     interface{}
		bound     interface{}
		inclusive bool
		expected  []string
	}{
		{code: typedesc.GT, value: 9.99, expected: []string{"Product^3", "Product^4"}},
		{code: typedesc.GE, value: 9.99, expected: []string{"Product^1", "Product^3", "Product^4"}},
		{code: typedesc.LT, value: 9.99, expected: []string{"Product^2"}},
		{code: typedesc.LE, value: 50, expected: []string{"Product^1", "Product^2", "Product^3"}},
		{code: typedesc.NE, value: 50, expected: []string{"Product^1", "Product^2", "Product^4"}},
		{code: typedesc.GT, value: 5, bound: 100, expected: []string{"Product^1", "Product^3"}},
		{code: typedesc.GT, value: 5, bound: 100, inclusive: true, expected: []string{"Product^1", "Product^3", "Product^4"}},
		{code: typedesc.LE, value: 50, bound: 9.99, expected: []string{"Product^3"}},
		{code: typedesc.LE, value: 50, bound: 9.99, inclusive: true, expected: []string{"Product^1", "Product^3"}},
	} {
		tmpl, err := typedesc.NewTemplate(productType, nil)
		require.NoError(t, err)
		require.NoError(t, tmpl.Between("price", tc.code, tc.value, tc.bound, tc.inclusive))
		assert.ElementsMatch(t, tc.expected, find(ctx, t, store, productType.Name, tmpl), tc)
	}

	// closing before exhaustion releases the cursor
	it, err := store.MakeEntriesIter(ctx, productType.Name, nil)
	require.NoError(t, err)
	first, err := it.Next(ctx)
	require.NoError(t, err)
	require.NotNil(t, first)
	require.NoError(t, it.Close())

	require.NoError(t, store.InsertEntry(ctx, product(5, "w", 1)))
}

func testQuery(t *testing.T, store rdbms.InternalRDBMS) {
	ctx := testcontext.New(t)
	defer ctx.Cleanup()

	open(ctx, t, store, productType, orderType)
	defer shutDown(ctx, t, store)

	insertAll(ctx, t, store,
		product(1, "apple", 1),
		product(2, "banana", 2),
		product(3, "cherry", 30),
		product(4, "apricot", 40),
	)

	apricot, err := ranges.Regex("name", "^ap")
	require.NoError(t, err)

	for _, tc := range []struct {
		query    ranges.Query
		expected []string
	}{
		{ranges.Equal("name", "banana"), []string{"Product^2"}},
		{ranges.NotEqual("id", 2), []string{"Product^1", "Product^3", "Product^4"}},
		{ranges.In("name", "apple", "cherry", "none"), []string{"Product^1", "Product^3"}},
		{ranges.In("name"), nil},
		{ranges.Between("price", 2, 30), []string{"Product^2", "Product^3"}},
		{ranges.GreaterThan("price", 2), []string{"Product^3", "Product^4"}},
		{apricot, []string{"Product^1", "Product^4"}},
		{ranges.And{apricot, ranges.AtLeast("price", 10)}, []string{"Product^4"}},
		{ranges.Or{ranges.Equal("id", 1), ranges.LessThan("price", 3)}, []string{"Product^1", "Product^2"}},
		{ranges.And{}, []string{"Product^1", "Product^2", "Product^3", "Product^4"}},
		{ranges.Or{}, nil},
	} {
		tmpl := typedesc.NewQueryTemplate(productType, tc.query)
		assert.ElementsMatch(t, tc.expected, find(ctx, t, store, productType.Name, tmpl), tc.query)
	}

	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	insertAll(ctx, t, store,
		typedesc.MustEntry(orderType, 1, now),
		typedesc.MustEntry(orderType, 2, now.Add(-25*time.Hour)),
		typedesc.MustEntry(orderType, 3, now.Add(-time.Hour+time.Millisecond)),
	)
	recent := typedesc.NewQueryTemplate(orderType, ranges.GreaterThan("createdAt", now.Add(-time.Hour)))
	entries, err := collectEntries(ctx, t, store, orderType.Name, recent)
	require.NoError(t, err)
	ids := make([]int64, 0, len(entries))
	for _, entry := range entries {
		ids = append(ids, entry.ID().(int64))
	}
	assert.ElementsMatch(t, []int64{1, 3}, ids)

	_, err = store.MakeEntriesIter(ctx, orderType.Name, typedesc.NewQueryTemplate(productType, ranges.Equal("id", 1)))
	require.Error(t, err)
}

func testMultiType(t *testing.T, store rdbms.InternalRDBMS) {
	ctx := testcontext.New(t)
	defer ctx.Cleanup()

	open(ctx, t, store, orderType, productType)
	manager := rdbms.NewManager(zaptest.NewLogger(t), store)
	defer func() { require.NoError(t, manager.ShutDown(ctx)) }()

	insertAll(ctx, t, store,
		product(1, "a", 1),
		product(2, "b", 2),
	)

	it := manager.NewMultiTypedIterator(tier.Context{}, []string{scalarType.Name, productType.Name}, nil)
	assert.ElementsMatch(t, []string{"Product^1", "Product^2"}, collect(ctx, t, it))

	insertAll(ctx, t, store, typedesc.MustEntry(orderType, 1, time.Now()))
	it = manager.NewMultiTypedIterator(tier.Context{}, []string{productType.Name, scalarType.Name, orderType.Name}, nil)
	uids := collect(ctx, t, it)
	require.Len(t, uids, 3)
	assert.Equal(t, "Order^1", uids[2])

	tmpl, err := typedesc.NewTemplate(productType, map[string]interface{}{"name": "b"})
	require.NoError(t, err)
	it = manager.NewMultiTypedIterator(tier.Context{}, []string{orderType.Name, productType.Name}, tmpl)
	assert.Equal(t, []string{"Product^2"}, collect(ctx, t, it))

	it = manager.NewMultiTypedIterator(tier.Context{}, nil, nil)
	assert.Empty(t, collect(ctx, t, it))

	// closing in the middle of a type
	it = manager.NewMultiTypedIterator(tier.Context{}, []string{productType.Name, orderType.Name}, nil)
	entry, err := it.Next(ctx)
	require.NoError(t, err)
	require.NotNil(t, entry)
	require.NoError(t, it.Close())
	entry, err = it.Next(ctx)
	require.NoError(t, err)
	assert.Nil(t, entry)
}

func testParallel(t *testing.T, store rdbms.InternalRDBMS) {
	ctx := testcontext.New(t)
	defer ctx.Cleanup()

	open(ctx, t, store, productType)
	defer shutDown(ctx, t, store)

	const n = 20
	for i := 0; i < n; i++ {
		i := i
		ctx.Go(func() error {
			entry := product(int32(i), "item"+strconv.Itoa(i), float64(i))
			if err := store.InsertEntry(ctx, entry); err != nil {
				return err
			}
			entry.Values[2] = float64(i * 2)
			if err := store.UpdateEntry(ctx, entry); err != nil {
				return err
			}
			_, err := store.GetEntryByID(ctx, productType.Name, i)
			return err
		})
	}
	require.NoError(t, ctx.Wait())

	all := find(ctx, t, store, productType.Name, nil)
	assert.Len(t, all, n)

	tmpl, err := typedesc.NewTemplate(productType, nil)
	require.NoError(t, err)
	require.NoError(t, tmpl.Where("price", typedesc.GE, 20))
	assert.Len(t, find(ctx, t, store, productType.Name, tmpl), n/2)
}
