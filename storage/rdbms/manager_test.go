// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

package rdbms_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/gridlabs/tieredstorage/internal/testcontext"
	"github.com/gridlabs/tieredstorage/pkg/tier"
	"github.com/gridlabs/tieredstorage/pkg/typedesc"
	"github.com/gridlabs/tieredstorage/storage/rdbms"
	"github.com/gridlabs/tieredstorage/storage/teststore"
)

var (
	userType = typedesc.MustNew("User", "id", []typedesc.Property{
		{Name: "id", Type: typedesc.Int64},
		{Name: "name", Type: typedesc.String},
	})
	groupType = typedesc.MustNew("Group", "id", []typedesc.Property{
		{Name: "id", Type: typedesc.Int64},
	})
)

func newManager(ctx *testcontext.Context, t *testing.T) (*rdbms.Manager, *teststore.Client) {
	store := teststore.New()
	manager := rdbms.NewManager(zaptest.NewLogger(t), store)
	require.NoError(t, manager.Initialize(ctx, "space", "space_container1:space", typedesc.NewRegistry(userType, groupType)))
	require.NoError(t, manager.CreateTable(ctx, userType))
	return manager, store
}

func TestWriteCounter(t *testing.T) {
	ctx := testcontext.New(t)
	defer ctx.Cleanup()

	manager, _ := newManager(ctx, t)

	user := typedesc.MustEntry(userType, 1, "a")
	require.NoError(t, manager.InsertEntry(ctx, user))
	assert.EqualValues(t, 1, manager.WriteDisk())

	err := manager.InsertEntry(ctx, user)
	require.Error(t, err)
	assert.True(t, rdbms.ErrEntryAlreadyExists.Has(err))
	assert.EqualValues(t, 1, manager.WriteDisk())

	require.NoError(t, manager.UpdateEntry(ctx, typedesc.MustEntry(userType, 1, "b")))
	assert.EqualValues(t, 2, manager.WriteDisk())

	removed, err := manager.RemoveEntry(ctx, user)
	require.NoError(t, err)
	assert.True(t, removed)
	assert.EqualValues(t, 3, manager.WriteDisk())

	removed, err = manager.RemoveEntry(ctx, user)
	require.NoError(t, err)
	assert.False(t, removed)
	assert.EqualValues(t, 3, manager.WriteDisk())
	assert.Zero(t, manager.ReadDisk())
}

func TestReadCounter(t *testing.T) {
	ctx := testcontext.New(t)
	defer ctx.Cleanup()

	manager, store := newManager(ctx, t)
	require.NoError(t, manager.InsertEntry(ctx, typedesc.MustEntry(userType, 1, "a")))

	read, err := typedesc.NewIDTemplate(userType, 1)
	require.NoError(t, err)
	read.ReadOperation = true

	internal, err := typedesc.NewIDTemplate(userType, 1)
	require.NoError(t, err)

	entry, err := manager.GetEntry(ctx, tier.Context{}, userType.Name, read)
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.EqualValues(t, 1, manager.ReadDisk())

	_, err = manager.GetEntry(ctx, tier.Context{}, userType.Name, internal)
	require.NoError(t, err)
	assert.EqualValues(t, 1, manager.ReadDisk())

	_, err = manager.GetEntry(ctx, tier.Context{DisableMetrics: true}, userType.Name, read)
	require.NoError(t, err)
	assert.EqualValues(t, 1, manager.ReadDisk())

	_, err = manager.GetEntryByID(ctx, tier.Context{}, userType.Name, 1, read)
	require.NoError(t, err)
	assert.EqualValues(t, 2, manager.ReadDisk())

	_, err = manager.GetEntryByID(ctx, tier.Context{DisableMetrics: true}, userType.Name, 1, read)
	require.NoError(t, err)
	assert.EqualValues(t, 2, manager.ReadDisk())

	uid := typedesc.UIDFor(userType, int64(1))
	_, err = manager.GetEntryByUID(ctx, tier.Context{}, userType.Name, uid, nil)
	require.NoError(t, err)
	assert.EqualValues(t, 2, manager.ReadDisk())

	_, err = manager.GetEntryByUID(ctx, tier.Context{DisableMetrics: true}, userType.Name, uid, read)
	require.NoError(t, err)
	assert.EqualValues(t, 2, manager.ReadDisk())

	_, err = manager.GetEntryByUID(ctx, tier.Context{}, userType.Name, uid, read)
	require.NoError(t, err)
	assert.EqualValues(t, 3, manager.ReadDisk())

	it, err := manager.MakeEntriesIter(ctx, tier.Context{}, userType.Name, read)
	require.NoError(t, err)
	entries, err := rdbms.Collect(ctx, it)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
	assert.EqualValues(t, 4, manager.ReadDisk())

	assert.Equal(t, 8, store.CallCount.Get)
	assert.Equal(t, 1, store.CallCount.Iterate)
}

func TestMultiTypedIterator(t *testing.T) {
	ctx := testcontext.New(t)
	defer ctx.Cleanup()

	manager, store := newManager(ctx, t)
	for i := int64(1); i <= 3; i++ {
		require.NoError(t, manager.InsertEntry(ctx, typedesc.MustEntry(userType, i, "user")))
	}

	it := manager.NewMultiTypedIterator(tier.Context{}, []string{groupType.Name, userType.Name}, nil)
	entries, err := rdbms.Collect(ctx, it)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	for _, entry := range entries {
		assert.Equal(t, userType.Name, entry.TypeName())
	}
	assert.Equal(t, 1, store.CallCount.Iterate)

	// exhausted iterators stay exhausted
	entry, err := it.Next(ctx)
	require.NoError(t, err)
	assert.Nil(t, entry)

	it = manager.NewMultiTypedIterator(tier.Context{}, []string{groupType.Name}, nil)
	entry, err = it.Next(ctx)
	require.NoError(t, err)
	assert.Nil(t, entry)
	require.NoError(t, it.Close())
	assert.Equal(t, 1, store.CallCount.Iterate)
}

func TestEmptyIterator(t *testing.T) {
	ctx := testcontext.New(t)
	defer ctx.Cleanup()

	entries, err := rdbms.Collect(ctx, rdbms.EmptyIterator{})
	require.NoError(t, err)
	assert.Empty(t, entries)
}
