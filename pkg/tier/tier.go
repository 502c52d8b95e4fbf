// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

// Package tier defines where a record lives (hot memory, cold disk or both)
// and which tiers a query has to search.
package tier

// State is the tier placement of a single record.
type State int

const (
	// Unknown means the placement has not been decided yet.
	Unknown State = iota
	// Hot records live only in memory and never reach the relational store.
	Hot
	// Cold records live only in the relational store.
	Cold
	// HotAndCold records are cached in memory and persisted to disk.
	HotAndCold
)

// String implements fmt.Stringer.
func (s State) String() string {
	switch s {
	case Hot:
		return "TIERED_HOT"
	case Cold:
		return "TIERED_COLD"
	case HotAndCold:
		return "TIERED_HOT_AND_COLD"
	default:
		return "TIERED_UNKNOWN"
	}
}

// IsHot returns true when the record has a memory copy.
func (s State) IsHot() bool { return s == Hot || s == HotAndCold }

// IsCold returns true when the record has a disk copy.
func (s State) IsCold() bool { return s == Cold || s == HotAndCold }

// Match is the set of tiers a query must search.
type Match int

const (
	// MatchHot means only the memory tier can hold matching records.
	MatchHot Match = iota + 1
	// MatchCold means only the disk tier can hold matching records.
	MatchCold
	// MatchHotAndCold means both tiers must be searched.
	MatchHotAndCold
)

// String implements fmt.Stringer.
func (m Match) String() string {
	switch m {
	case MatchHot:
		return "MATCH_HOT"
	case MatchCold:
		return "MATCH_COLD"
	case MatchHotAndCold:
		return "MATCH_HOT_AND_COLD"
	default:
		return "MATCH_UNKNOWN"
	}
}

// Tiers lists the tier names a match covers, hot first.
func (m Match) Tiers() []string {
	switch m {
	case MatchHot:
		return []string{"HOT"}
	case MatchCold:
		return []string{"COLD"}
	case MatchHotAndCold:
		return []string{"HOT", "COLD"}
	default:
		return nil
	}
}

// And combines the tiers of two conjunctive conditions. A record must satisfy
// both, so a condition that only matches hot records restricts the result to
// the hot tier.
func And(a, b Match) Match {
	switch {
	case a == MatchHot || b == MatchHot:
		return MatchHot
	case a == MatchCold || b == MatchCold:
		return MatchCold
	default:
		return MatchHotAndCold
	}
}

// Or combines the tiers of two disjunctive conditions.
func Or(a, b Match) Match {
	switch {
	case a == MatchHot && b == MatchHot:
		return MatchHot
	case a == MatchCold && b == MatchCold:
		return MatchCold
	default:
		return MatchHotAndCold
	}
}

// Context carries the per-operation hints the surrounding engine knows about
// a record before the tiered layer is consulted.
type Context struct {
	// State is the known placement of the record being operated on, or
	// Unknown when the engine has no hint.
	State State
	// DisableMetrics excludes the operation from disk read accounting.
	DisableMetrics bool
}

// IsHotEntry reports whether the engine knows the record is in memory.
func (ctx Context) IsHotEntry() bool { return ctx.State.IsHot() }

// IsColdEntry reports whether the engine knows the record is on disk.
func (ctx Context) IsColdEntry() bool { return ctx.State.IsCold() }

// EntryTieredState returns the placement hint.
func (ctx Context) EntryTieredState() State { return ctx.State }
