// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

package tier_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gridlabs/tieredstorage/pkg/tier"
)

func TestState(t *testing.T) {
	for _, tc := range []struct {
		state     tier.State
		hot, cold bool
		name      string
	}{
		{tier.Unknown, false, false, "TIERED_UNKNOWN"},
		{tier.Hot, true, false, "TIERED_HOT"},
		{tier.Cold, false, true, "TIERED_COLD"},
		{tier.HotAndCold, true, true, "TIERED_HOT_AND_COLD"},
	} {
		assert.Equal(t, tc.hot, tc.state.IsHot(), tc.name)
		assert.Equal(t, tc.cold, tc.state.IsCold(), tc.name)
		assert.Equal(t, tc.name, tc.state.String())

		ctx := tier.Context{State: tc.state}
		assert.Equal(t, tc.hot, ctx.IsHotEntry())
		assert.Equal(t, tc.cold, ctx.IsColdEntry())
		assert.Equal(t, tc.state, ctx.EntryTieredState())
	}
}

func TestMatchAlgebra(t *testing.T) {
	hot, cold, both := tier.MatchHot, tier.MatchCold, tier.MatchHotAndCold

	for _, tc := range []struct {
		a, b    tier.Match
		and, or tier.Match
	}{
		{hot, hot, hot, hot},
		{hot, cold, hot, both},
		{hot, both, hot, both},
		{cold, cold, cold, cold},
		{cold, both, cold, both},
		{both, both, both, both},
	} {
		assert.Equal(t, tc.and, tier.And(tc.a, tc.b), "%s AND %s", tc.a, tc.b)
		assert.Equal(t, tc.and, tier.And(tc.b, tc.a), "%s AND %s", tc.b, tc.a)
		assert.Equal(t, tc.or, tier.Or(tc.a, tc.b), "%s OR %s", tc.a, tc.b)
		assert.Equal(t, tc.or, tier.Or(tc.b, tc.a), "%s OR %s", tc.b, tc.a)
	}

	assert.Equal(t, []string{"HOT", "COLD"}, both.Tiers())
	assert.Equal(t, []string{"COLD"}, cold.Tiers())
	assert.Nil(t, tier.Match(0).Tiers())
	assert.Equal(t, "MATCH_UNKNOWN", tier.Match(0).String())
}
