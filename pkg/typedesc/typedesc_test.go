// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

package typedesc_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridlabs/tieredstorage/pkg/ranges"
	"github.com/gridlabs/tieredstorage/pkg/typedesc"
)

var productType = typedesc.MustNew("Product", "id", []typedesc.Property{
	{Name: "id", Type: typedesc.Int64},
	{Name: "name", Type: typedesc.String},
	{Name: "price", Type: typedesc.Float64},
}, typedesc.Index{Property: "name"})

func TestDescriptor(t *testing.T) {
	pos, ok := productType.Position("price")
	require.True(t, ok)
	assert.Equal(t, 2, pos)
	assert.Equal(t, 0, productType.IDPosition())
	assert.Equal(t, 3, productType.NumProperties())

	_, ok = productType.Position("missing")
	assert.False(t, ok)

	for _, tt := range []struct {
		name  string
		id    string
		props []typedesc.Property
		index []typedesc.Index
	}{
		{"", "id", []typedesc.Property{{Name: "id", Type: typedesc.Int64}}, nil},
		{"T", "missing", []typedesc.Property{{Name: "id", Type: typedesc.Int64}}, nil},
		{"T", "id", []typedesc.Property{{Name: "id", Type: typedesc.Int64}, {Name: "id", Type: typedesc.String}}, nil},
		{"T", "id", []typedesc.Property{{Name: "id", Type: typedesc.Int64}}, []typedesc.Index{{Property: "other"}}},
	} {
		_, err := typedesc.New(tt.name, tt.id, tt.props, tt.index...)
		require.Error(t, err)
		assert.True(t, typedesc.Error.Has(err))
	}

	_, err := typedesc.NewAutoID("T", "id", []typedesc.Property{{Name: "id", Type: typedesc.Int64}})
	require.Error(t, err)
}

func TestPropertyTypeNames(t *testing.T) {
	for pt := typedesc.String; pt <= typedesc.Object; pt++ {
		parsed, err := typedesc.ParsePropertyType(pt.String())
		require.NoError(t, err)
		assert.Equal(t, pt, parsed)
	}
	parsed, err := typedesc.ParsePropertyType("Long")
	require.NoError(t, err)
	assert.Equal(t, typedesc.Int64, parsed)

	_, err = typedesc.ParsePropertyType("uuid")
	require.Error(t, err)
}

func TestCoerce(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	for _, tt := range []struct {
		pt       typedesc.PropertyType
		in       interface{}
		expected interface{}
	}{
		{typedesc.Int8, 12, int8(12)},
		{typedesc.Int16, int64(-300), int16(-300)},
		{typedesc.Int32, "42", int32(42)},
		{typedesc.Int64, float64(7), int64(7)},
		{typedesc.Float32, 1, float32(1)},
		{typedesc.Float64, "2.5", 2.5},
		{typedesc.Bool, "true", true},
		{typedesc.Time, now.UnixMilli(), time.UnixMilli(now.UnixMilli())},
		{typedesc.Time, "2026-01-02T03:04:05Z", now},
		{typedesc.Decimal, "10.25", decimal.RequireFromString("10.25")},
		{typedesc.String, nil, nil},
	} {
		v, err := typedesc.Coerce(tt.pt, tt.in)
		require.NoError(t, err, "%s %v", tt.pt, tt.in)
		assert.True(t, typedesc.EqualValues(tt.expected, v), "%s %v: %v", tt.pt, tt.in, v)
	}

	for _, tt := range []struct {
		pt typedesc.PropertyType
		in interface{}
	}{
		{typedesc.Int8, 300},
		{typedesc.Int32, 1.5},
		{typedesc.String, 1},
		{typedesc.Bytes, "abc"},
		{typedesc.Time, true},
	} {
		_, err := typedesc.Coerce(tt.pt, tt.in)
		require.Error(t, err, "%s %v", tt.pt, tt.in)
	}
}

func TestEntryAndUID(t *testing.T) {
	entry, err := typedesc.NewEntry(productType, 7, "x", 9.99)
	require.NoError(t, err)
	assert.Equal(t, int64(7), entry.ID())
	assert.Equal(t, "Product^7", entry.UID)

	id, err := typedesc.ParseUID(productType, entry.UID)
	require.NoError(t, err)
	assert.Equal(t, int64(7), id)

	_, err = typedesc.ParseUID(productType, "Order^7")
	require.Error(t, err)

	clone := entry.Clone()
	assert.True(t, clone.Equal(entry))
	clone.Values[1] = "y"
	assert.False(t, clone.Equal(entry))

	_, err = typedesc.NewEntry(productType, 1, "x")
	require.Error(t, err)

	auto, err := typedesc.NewAutoID("Session", "id", []typedesc.Property{
		{Name: "id", Type: typedesc.String},
		{Name: "data", Type: typedesc.Bytes},
	})
	require.NoError(t, err)

	session := typedesc.MustEntry(auto, nil, []byte("payload"))
	assert.Empty(t, session.UID)
	session.EnsureUID()
	_, err = uuid.Parse(session.UID)
	require.NoError(t, err)
	assert.Equal(t, session.ID(), session.UID)
}

func TestTemplates(t *testing.T) {
	tmpl, err := typedesc.NewIDTemplate(productType, 3)
	require.NoError(t, err)
	assert.True(t, tmpl.IsIDQuery())
	assert.False(t, tmpl.IsEmpty())
	assert.False(t, tmpl.HasMatchCodes())

	empty, err := typedesc.NewTemplate(productType, nil)
	require.NoError(t, err)
	assert.True(t, empty.IsEmpty())

	_, err = typedesc.NewTemplate(productType, map[string]interface{}{"missing": 1})
	require.Error(t, err)

	ext, err := typedesc.NewTemplate(productType, nil)
	require.NoError(t, err)
	require.NoError(t, ext.Between("price", typedesc.GT, 1, 10, true))
	pos, _ := productType.Position("price")
	assert.Equal(t, typedesc.GT, ext.MatchCode(pos))
	assert.Equal(t, typedesc.EQ, ext.MatchCode(0))
	bound, inclusive := ext.RangeBound(pos)
	assert.Equal(t, float64(10), bound)
	assert.True(t, inclusive)
	assert.False(t, ext.IsIDQuery())

	query := typedesc.NewQueryTemplate(productType, ranges.Equal("name", "x"))
	assert.False(t, query.IsEmpty())
	assert.False(t, query.IsIDQuery())
	assert.Equal(t, "REGEX", typedesc.Regex.String())
}

func TestRegistry(t *testing.T) {
	registry := typedesc.NewRegistry(productType)
	other := typedesc.MustNew("Order", "id", []typedesc.Property{{Name: "id", Type: typedesc.Int64}})
	require.NoError(t, registry.Register(other))
	require.NoError(t, registry.Register(other))

	dup := typedesc.MustNew("Order", "id", []typedesc.Property{{Name: "id", Type: typedesc.String}})
	require.Error(t, registry.Register(dup))

	td, ok := registry.TypeDescriptor("Order")
	require.True(t, ok)
	assert.Same(t, other, td)
	assert.Equal(t, []string{"Order", "Product"}, registry.Names())
}
