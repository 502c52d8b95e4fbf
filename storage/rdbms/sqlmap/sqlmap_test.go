// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

package sqlmap_test

import (
	"database/sql"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridlabs/tieredstorage/pkg/ranges"
	"github.com/gridlabs/tieredstorage/pkg/typedesc"
	"github.com/gridlabs/tieredstorage/storage/rdbms/sqlmap"
)

var productType = typedesc.MustNew("Product", "id", []typedesc.Property{
	{Name: "id", Type: typedesc.Int32},
	{Name: "name", Type: typedesc.String},
	{Name: "price", Type: typedesc.Float64},
	{Name: "added", Type: typedesc.Time},
}, typedesc.Index{Property: "name"}, typedesc.Index{Property: "added", Unique: true})

func TestColumnTypes(t *testing.T) {
	for pt, expected := range map[typedesc.PropertyType]string{
		typedesc.String:  "VARCHAR",
		typedesc.Bool:    "BIT",
		typedesc.Int8:    "TINYINT",
		typedesc.Int16:   "SMALLINT",
		typedesc.Int32:   "INTEGER",
		typedesc.Int64:   "BIGINT",
		typedesc.Float32: "REAL",
		typedesc.Float64: "FLOAT",
		typedesc.Bytes:   "BINARY",
		typedesc.Time:    "DATETIME",
		typedesc.Decimal: "DECIMAL",
	} {
		column, err := sqlmap.ColumnType(pt)
		require.NoError(t, err)
		assert.Equal(t, expected, column)
	}

	_, err := sqlmap.ColumnType(typedesc.Object)
	require.Error(t, err)
	assert.True(t, sqlmap.Error.Has(err))

	_, err = sqlmap.BindValue(typedesc.Object, "text")
	require.Error(t, err)
}

func TestQuoteIdent(t *testing.T) {
	assert.Equal(t, `"name"`, sqlmap.QuoteIdent("name"))
	assert.Equal(t, `"a""b"`, sqlmap.QuoteIdent(`a"b`))
}

func TestBindAndScan(t *testing.T) {
	now := time.Date(2026, 2, 3, 4, 5, 6, 7, time.FixedZone("CET", 3600))

	arg, err := sqlmap.BindValue(typedesc.Int8, int8(3))
	require.NoError(t, err)
	assert.Equal(t, int64(3), arg)

	arg, err = sqlmap.BindValue(typedesc.Float32, float32(1.5))
	require.NoError(t, err)
	assert.Equal(t, float64(1.5), arg)

	arg, err = sqlmap.BindValue(typedesc.Time, now)
	require.NoError(t, err)
	assert.Equal(t, now.UTC(), arg)

	arg, err = sqlmap.BindValue(typedesc.Decimal, decimal.RequireFromString("12.50"))
	require.NoError(t, err)
	assert.Equal(t, "12.5", arg)

	arg, err = sqlmap.BindValue(typedesc.Decimal, decimal.RequireFromString("12345678901234567"))
	require.NoError(t, err)
	assert.Equal(t, "12345678901234567", arg)

	for _, lossy := range []string{"12345678901234567.89", "0.1234567890123456789", "1e400"} {
		_, err = sqlmap.BindValue(typedesc.Decimal, decimal.RequireFromString(lossy))
		require.Error(t, err, lossy)
		assert.True(t, sqlmap.Error.Has(err), lossy)
	}

	arg, err = sqlmap.BindValue(typedesc.String, nil)
	require.NoError(t, err)
	assert.Nil(t, arg)

	dest, err := sqlmap.ScanDest(typedesc.Int16)
	require.NoError(t, err)
	*dest.(*sql.NullInt64) = sql.NullInt64{Int64: 12, Valid: true}
	v, err := sqlmap.ScanValue(typedesc.Int16, dest)
	require.NoError(t, err)
	assert.Equal(t, int16(12), v)

	dest, err = sqlmap.ScanDest(typedesc.Float32)
	require.NoError(t, err)
	*dest.(*sql.NullFloat64) = sql.NullFloat64{Float64: 2.25, Valid: true}
	v, err = sqlmap.ScanValue(typedesc.Float32, dest)
	require.NoError(t, err)
	assert.Equal(t, float32(2.25), v)

	dest, err = sqlmap.ScanDest(typedesc.String)
	require.NoError(t, err)
	v, err = sqlmap.ScanValue(typedesc.String, dest)
	require.NoError(t, err)
	assert.Nil(t, v)

	dest, err = sqlmap.ScanDest(typedesc.Bytes)
	require.NoError(t, err)
	v, err = sqlmap.ScanValue(typedesc.Bytes, dest)
	require.NoError(t, err)
	assert.Nil(t, v)

	_, err = sqlmap.ScanDest(typedesc.Object)
	require.Error(t, err)
}

func TestStatements(t *testing.T) {
	stmts, err := sqlmap.CreateTable(productType)
	require.NoError(t, err)
	assert.Equal(t, []string{
		`CREATE TABLE "Product" ("id" INTEGER, "name" VARCHAR, "price" FLOAT, "added" DATETIME, PRIMARY KEY ("id"))`,
		`CREATE INDEX "Product_name_idx" ON "Product" ("name")`,
		`CREATE UNIQUE INDEX "Product_added_idx" ON "Product" ("added")`,
	}, stmts)

	objectType := typedesc.MustNew("Doc", "id", []typedesc.Property{
		{Name: "id", Type: typedesc.String},
		{Name: "body", Type: typedesc.Object},
	})
	_, err = sqlmap.CreateTable(objectType)
	require.Error(t, err)

	added := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	entry := typedesc.MustEntry(productType, 1, "x", 9.99, added)

	query, args, err := sqlmap.Insert(entry)
	require.NoError(t, err)
	assert.Equal(t, `INSERT INTO "Product" ("id", "name", "price", "added") VALUES (?, ?, ?, ?)`, query)
	assert.Equal(t, []interface{}{int64(1), "x", 9.99, added}, args)

	query, args, err = sqlmap.Update(entry)
	require.NoError(t, err)
	assert.Equal(t, `UPDATE "Product" SET "name" = ?, "price" = ?, "added" = ? WHERE "id" = ?`, query)
	assert.Equal(t, []interface{}{"x", 9.99, added, int64(1)}, args)

	query, args, err = sqlmap.Delete(productType, int32(1))
	require.NoError(t, err)
	assert.Equal(t, `DELETE FROM "Product" WHERE "id" = ?`, query)
	assert.Equal(t, []interface{}{int64(1)}, args)

	query, args, err = sqlmap.SelectByID(productType, 1)
	require.NoError(t, err)
	assert.Equal(t, `SELECT "id", "name", "price", "added" FROM "Product" WHERE "id" = ?`, query)
	assert.Equal(t, []interface{}{int64(1)}, args)
}

func TestTemplateWhere(t *testing.T) {
	exact, err := typedesc.NewTemplate(productType, map[string]interface{}{"name": "x", "price": 9.99})
	require.NoError(t, err)
	query, args, err := sqlmap.Select(productType, exact)
	require.NoError(t, err)
	assert.Equal(t, `SELECT "id", "name", "price", "added" FROM "Product" WHERE "name" = ? AND "price" = ?`, query)
	assert.Equal(t, []interface{}{"x", 9.99}, args)

	query, args, err = sqlmap.Select(productType, nil)
	require.NoError(t, err)
	assert.Equal(t, `SELECT "id", "name", "price", "added" FROM "Product"`, query)
	assert.Empty(t, args)

	extended, err := typedesc.NewTemplate(productType, nil)
	require.NoError(t, err)
	require.NoError(t, extended.Between("price", typedesc.GT, 1, 10, false))
	require.NoError(t, extended.Where("name", typedesc.NE, "y"))
	where, err := sqlmap.TemplateWhere(extended)
	require.NoError(t, err)
	assert.Equal(t, ` WHERE "name" <> ? AND "price" > ? AND "price" < ?`, where.SQL())
	assert.Equal(t, []interface{}{"y", float64(1), float64(10)}, where.Args)

	lower, err := typedesc.NewTemplate(productType, nil)
	require.NoError(t, err)
	require.NoError(t, lower.Between("price", typedesc.LE, 10, 1, true))
	where, err = sqlmap.TemplateWhere(lower)
	require.NoError(t, err)
	assert.Equal(t, ` WHERE "price" <= ? AND "price" >= ?`, where.SQL())

	for _, code := range []typedesc.MatchCode{typedesc.IsNull, typedesc.NotNull, typedesc.Regex} {
		tmpl, err := typedesc.NewTemplate(productType, nil)
		require.NoError(t, err)
		require.NoError(t, tmpl.Where("name", code, "x"))
		_, err = sqlmap.TemplateWhere(tmpl)
		require.Error(t, err, code)
		assert.True(t, sqlmap.Error.Has(err), code)

		withoutValue, err := typedesc.NewTemplate(productType, nil)
		require.NoError(t, err)
		require.NoError(t, withoutValue.Where("name", code, nil))
		_, err = sqlmap.TemplateWhere(withoutValue)
		require.Error(t, err, code)
		assert.True(t, sqlmap.Error.Has(err), code)
	}
}

func TestQueryClause(t *testing.T) {
	re, err := ranges.Regex("name", "^x")
	require.NoError(t, err)

	cond, args, err := sqlmap.QueryClause(productType, ranges.Or{
		ranges.And{ranges.AtLeast("price", 1), ranges.In("name", "a", "b")},
		ranges.Between("price", 5, 6),
		re,
		ranges.NotEqual("id", 3),
		ranges.In("name"),
	})
	require.NoError(t, err)
	assert.Equal(t,
		`((("price" >= ?) AND "name" IN (?, ?)) OR ("price" >= ? AND "price" <= ?) OR regexp(?, "name") OR ("id" <> ?) OR 1 = 0)`,
		cond)
	assert.Equal(t, []interface{}{float64(1), "a", "b", float64(5), float64(6), "^x", int64(3)}, args)

	_, _, err = sqlmap.QueryClause(productType, ranges.Equal("missing", 1))
	require.Error(t, err)

	priceRe, err := ranges.Regex("price", "1")
	require.NoError(t, err)
	_, _, err = sqlmap.QueryClause(productType, priceRe)
	require.Error(t, err)

	tmpl := typedesc.NewQueryTemplate(productType, ranges.Equal("name", "x"))
	where, err := sqlmap.TemplateWhere(tmpl)
	require.NoError(t, err)
	assert.Equal(t, ` WHERE ("name" = ?)`, where.SQL())
}
