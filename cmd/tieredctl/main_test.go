// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/gridlabs/tieredstorage/internal/testcontext"
	"github.com/gridlabs/tieredstorage/pkg/process"
	"github.com/gridlabs/tieredstorage/pkg/tieredconfig"
	"github.com/gridlabs/tieredstorage/pkg/typedesc"
	"github.com/gridlabs/tieredstorage/storage/rdbms/sqliterdbms"
)

const testConfig = `
types:
  - name: Order
    id: id
    properties:
      - {name: id, type: int64}
      - {name: createdAt, type: time}
  - name: Product
    id: id
    properties:
      - {name: id, type: int64}
      - {name: price, type: float64}
  - name: Audit
    id: id
    properties:
      - {name: id, type: int64}
tiered-storage:
  tables:
    - name: Order
      time-column: createdAt
      period: 24h
      retention: 720h
    - name: Product
      criteria: "price > 100"
`

func run(ctx *testcontext.Context, t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	require.NoError(t, process.ExecContext(ctx, rootCmd))
	return out.String()
}

func TestCommands(t *testing.T) {
	ctx := testcontext.New(t)
	defer ctx.Cleanup()

	config := ctx.WriteFile("tiered.yaml", testConfig)

	rules := run(ctx, t, "rules", "--config", config)
	assert.Contains(t, rules, "Order: retention 720h0m0s\n")
	assert.Contains(t, rules, "Product: Product where price > 100")
	assert.Contains(t, rules, "Audit: disk only\n")

	blob := filepath.Join(ctx.Dir("blob"), "tiered.bin")
	run(ctx, t, "encode", blob, "--config", config)

	decoded := run(ctx, t, "decode", blob)
	lines := strings.Split(strings.TrimSpace(decoded), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "Order{"), lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "Product{"), lines[1])

	types, err := tieredconfig.LoadTypes(config)
	require.NoError(t, err)
	product, ok := types.TypeDescriptor("Product")
	require.True(t, ok)

	dir := ctx.Dir("storage")
	db := sqliterdbms.New(zaptest.NewLogger(t), sqliterdbms.Config{Dir: dir})
	require.NoError(t, db.Initialize(ctx, "space", "space_container1:space", types))
	require.NoError(t, db.CreateTable(ctx, product))
	require.NoError(t, db.InsertEntry(ctx, typedesc.MustEntry(product, 1, 50.0)))
	require.NoError(t, db.InsertEntry(ctx, typedesc.MustEntry(product, 2, 500.0)))
	require.NoError(t, db.Close())

	scanned := run(ctx, t, "scan", "--config", config, "--storage.dir", dir, "--storage.busy-timeout", time.Second.String())
	assert.Equal(t, "Product^1\tTIERED_COLD\tid=1 price=50\nProduct^2\tTIERED_HOT_AND_COLD\tid=2 price=500\n", scanned)
}
