// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

package testsuite

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/gridlabs/tieredstorage/internal/testcontext"
	"github.com/gridlabs/tieredstorage/pkg/typedesc"
	"github.com/gridlabs/tieredstorage/storage/rdbms"
)

var (
	productType = typedesc.MustNew("Product", "id", []typedesc.Property{
		{Name: "id", Type: typedesc.Int32},
		{Name: "name", Type: typedesc.String},
		{Name: "price", Type: typedesc.Float64},
	}, typedesc.Index{Property: "name"})

	scalarType = typedesc.MustNew("Scalar", "id", []typedesc.Property{
		{Name: "id", Type: typedesc.String},
		{Name: "flag", Type: typedesc.Bool},
		{Name: "tiny", Type: typedesc.Int8},
		{Name: "small", Type: typedesc.Int16},
		{Name: "int", Type: typedesc.Int32},
		{Name: "long", Type: typedesc.Int64},
		{Name: "float", Type: typedesc.Float32},
		{Name: "double", Type: typedesc.Float64},
		{Name: "data", Type: typedesc.Bytes},
		{Name: "at", Type: typedesc.Time},
		{Name: "amount", Type: typedesc.Decimal},
	})

	orderType = typedesc.MustNew("Order", "id", []typedesc.Property{
		{Name: "id", Type: typedesc.Int64},
		{Name: "createdAt", Type: typedesc.Time},
	}, typedesc.Index{Property: "createdAt"})

	documentType = typedesc.MustNew("Document", "id", []typedesc.Property{
		{Name: "id", Type: typedesc.String},
		{Name: "body", Type: typedesc.Object},
	})
)

// types returns the type manager holding every type used by the suite.
func types() *typedesc.Registry {
	return typedesc.NewRegistry(productType, scalarType, orderType, documentType)
}

// open initializes store and creates the tables of tds.
func open(ctx *testcontext.Context, t *testing.T, store rdbms.InternalRDBMS, tds ...*typedesc.TypeDescriptor) {
	t.Helper()
	require.NoError(t, store.Initialize(ctx, "space", t.Name(), types()))
	for _, td := range tds {
		require.NoError(t, store.CreateTable(ctx, td))
	}
}

func shutDown(ctx *testcontext.Context, t *testing.T, store rdbms.InternalRDBMS) {
	t.Helper()
	require.NoError(t, store.ShutDown(ctx))
}

func product(id int32, name string, price float64) *typedesc.Entry {
	entry := typedesc.MustEntry(productType, id, name, price)
	entry.EnsureUID()
	return entry
}

func scalar(id string, at time.Time) *typedesc.Entry {
	entry := typedesc.MustEntry(scalarType, id,
		true, int8(-8), int16(1600), int32(-320000), int64(1)<<42,
		float32(1.5), 2.25, []byte{0, 1, 2, 0xff}, at, decimal.RequireFromString("12.345"))
	entry.EnsureUID()
	return entry
}

// scalarAmount is scalar with a different amount.
func scalarAmount(id string, at time.Time, amount string) *typedesc.Entry {
	entry := scalar(id, at)
	pos, _ := scalarType.Position("amount")
	entry.Values[pos] = decimal.RequireFromString(amount)
	return entry
}

func insertAll(ctx *testcontext.Context, t *testing.T, store rdbms.InternalRDBMS, entries ...*typedesc.Entry) {
	t.Helper()
	for _, entry := range entries {
		require.NoError(t, store.InsertEntry(ctx, entry), entry.UID)
	}
}

// find returns the UIDs of the entries of typeName matching tmpl.
func find(ctx *testcontext.Context, t *testing.T, store rdbms.InternalRDBMS, typeName string, tmpl *typedesc.Template) []string {
	t.Helper()
	it, err := store.MakeEntriesIter(ctx, typeName, tmpl)
	require.NoError(t, err)
	return collect(ctx, t, it)
}

func collectEntries(ctx *testcontext.Context, t *testing.T, store rdbms.InternalRDBMS, typeName string, tmpl *typedesc.Template) ([]*typedesc.Entry, error) {
	t.Helper()
	it, err := store.MakeEntriesIter(ctx, typeName, tmpl)
	require.NoError(t, err)
	return rdbms.Collect(ctx, it)
}

func collect(ctx *testcontext.Context, t *testing.T, it rdbms.EntryIterator) []string {
	t.Helper()
	entries, err := rdbms.Collect(ctx, it)
	require.NoError(t, err)
	uids := make([]string, 0, len(entries))
	for _, entry := range entries {
		uids = append(uids, entry.UID)
	}
	return uids
}

func requireEqualEntry(t *testing.T, expected, actual *typedesc.Entry) {
	t.Helper()
	require.NotNil(t, actual)
	require.Equal(t, expected.UID, actual.UID)
	for i, prop := range expected.Type.Properties {
		require.Truef(t, typedesc.EqualValues(expected.Values[i], actual.Values[i]),
			"%s: expected %#v, got %#v", prop.Name, expected.Values[i], actual.Values[i])
	}
}
