// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

package cacherule

import (
	"strings"

	"github.com/gridlabs/tieredstorage/pkg/ranges"
	"github.com/gridlabs/tieredstorage/pkg/tier"
	"github.com/gridlabs/tieredstorage/pkg/typedesc"
)

// templateTier resolves the tiers holding the records a template matches,
// given that records satisfying criteria are in memory.
func templateTier(criteria ranges.Range, tmpl *typedesc.Template) tier.Match {
	if tmpl.Query != nil {
		return QueryTier(criteria, tmpl.Query)
	}
	pos, ok := tmpl.Type.Position(criteria.Path())
	if !ok {
		return tier.MatchHotAndCold
	}
	value := tmpl.Values[pos]
	if value == nil {
		return tier.MatchHotAndCold
	}
	if !tmpl.HasMatchCodes() || (tmpl.IsIDQuery() && tmpl.Type.IDProperty == criteria.Path()) {
		if criteria.Match(value) {
			return tier.MatchHot
		}
		return tier.MatchCold
	}
	query, ok := MatchCodeRange(tmpl, pos)
	if !ok {
		return tier.MatchHotAndCold
	}
	return RangeTier(criteria, query)
}

// MatchCodeRange converts the extended match condition on the property at pos
// into a range. ok is false for conditions that have no range form.
func MatchCodeRange(tmpl *typedesc.Template, pos int) (r ranges.Range, ok bool) {
	field := tmpl.Type.Properties[pos].Name
	value := tmpl.Values[pos]
	bound, inclusive := tmpl.RangeBound(pos)

	switch tmpl.MatchCode(pos) {
	case typedesc.EQ:
		return ranges.Equal(field, value), true
	case typedesc.NE:
		return ranges.NotEqual(field, value), true
	case typedesc.GT, typedesc.GE:
		seg := ranges.SegmentRange{Field: field, Min: value, IncludeMin: tmpl.MatchCode(pos) == typedesc.GE}
		if bound != nil {
			seg.Max, seg.IncludeMax = bound, inclusive
		}
		return seg, true
	case typedesc.LT, typedesc.LE:
		seg := ranges.SegmentRange{Field: field, Max: value, IncludeMax: tmpl.MatchCode(pos) == typedesc.LE}
		if bound != nil {
			seg.Min, seg.IncludeMin = bound, inclusive
		}
		return seg, true
	case typedesc.Regex:
		pattern, isString := value.(string)
		if !isString {
			return nil, false
		}
		re, err := ranges.Regex(field, pattern)
		if err != nil {
			return nil, false
		}
		return re, true
	}
	return nil, false
}

// QueryTier folds a custom query tree into the tiers it must search.
func QueryTier(criteria ranges.Range, query ranges.Query) tier.Match {
	switch q := query.(type) {
	case ranges.And:
		return fold(criteria, q, tier.And)
	case ranges.Or:
		return fold(criteria, q, tier.Or)
	case ranges.Range:
		if !strings.EqualFold(q.Path(), criteria.Path()) {
			return tier.MatchHotAndCold
		}
		return RangeTier(criteria, q)
	}
	return tier.MatchHotAndCold
}

func fold(criteria ranges.Range, queries []ranges.Query, combine func(a, b tier.Match) tier.Match) tier.Match {
	if len(queries) == 0 {
		return tier.MatchHotAndCold
	}
	result := QueryTier(criteria, queries[0])
	for _, q := range queries[1:] {
		result = combine(result, QueryTier(criteria, q))
	}
	return result
}

// RangeTier compares a query range with the criteria range of the same
// property. Combinations it cannot decide search both tiers.
func RangeTier(criteria, query ranges.Range) tier.Match {
	switch q := query.(type) {
	case ranges.EqualRange:
		if criteria.Match(q.Value) {
			return tier.MatchHot
		}
		return tier.MatchCold
	case ranges.InRange:
		matched := 0
		for _, v := range q.Values {
			if criteria.Match(v) {
				matched++
			}
		}
		switch {
		case matched == 0:
			return tier.MatchCold
		case matched == len(q.Values):
			return tier.MatchHot
		}
		return tier.MatchHotAndCold
	case ranges.SegmentRange:
		return segmentTier(criteria, q)
	}
	return tier.MatchHotAndCold
}

func segmentTier(criteria ranges.Range, q ranges.SegmentRange) tier.Match {
	switch c := criteria.(type) {
	case ranges.EqualRange:
		switch {
		case q.IsPoint() && ranges.EqualValues(q.Min, c.Value):
			return tier.MatchHot
		case q.Match(c.Value):
			return tier.MatchHotAndCold
		}
		return tier.MatchCold
	case ranges.SegmentRange:
		switch {
		case ranges.Disjoint(c, q):
			return tier.MatchCold
		case ranges.Contains(c, q):
			return tier.MatchHot
		}
		return tier.MatchHotAndCold
	case ranges.InRange:
		for _, v := range c.Values {
			if q.Match(v) {
				return tier.MatchHotAndCold
			}
		}
		return tier.MatchCold
	}
	return tier.MatchHotAndCold
}
