// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

package ranges

// Disjoint returns true when no value can satisfy both segments. Bounds that
// cannot be compared are treated as overlapping.
func Disjoint(a, b SegmentRange) bool {
	if below(a.Max, a.IncludeMax, b.Min, b.IncludeMin) {
		return true
	}
	return below(b.Max, b.IncludeMax, a.Min, a.IncludeMin)
}

// Contains returns true when every value of inner satisfies outer. Bounds that
// cannot be compared are treated as not contained.
func Contains(outer, inner SegmentRange) bool {
	if outer.Min != nil {
		if inner.Min == nil {
			return false
		}
		c, ok := Compare(inner.Min, outer.Min)
		if !ok || c < 0 || (c == 0 && inner.IncludeMin && !outer.IncludeMin) {
			return false
		}
	}
	if outer.Max != nil {
		if inner.Max == nil {
			return false
		}
		c, ok := Compare(inner.Max, outer.Max)
		if !ok || c > 0 || (c == 0 && inner.IncludeMax && !outer.IncludeMax) {
			return false
		}
	}
	return true
}

// Intersect returns the segment satisfied by both a and b. ok is false when the
// segments are disjoint.
func Intersect(a, b SegmentRange) (r SegmentRange, ok bool) {
	if Disjoint(a, b) {
		return SegmentRange{}, false
	}
	r = SegmentRange{Field: a.Field}
	r.Min, r.IncludeMin = tighter(a.Min, a.IncludeMin, b.Min, b.IncludeMin, 1)
	r.Max, r.IncludeMax = tighter(a.Max, a.IncludeMax, b.Max, b.IncludeMax, -1)
	return r, true
}

// below returns true when every value under the upper bound max is also under
// the lower bound min.
func below(max interface{}, includeMax bool, min interface{}, includeMin bool) bool {
	if max == nil || min == nil {
		return false
	}
	c, ok := Compare(max, min)
	if !ok {
		return false
	}
	return c < 0 || (c == 0 && !(includeMax && includeMin))
}

// tighter picks the more restrictive of two bounds. dir is 1 for lower bounds
// and -1 for upper bounds.
func tighter(a interface{}, includeA bool, b interface{}, includeB bool, dir int) (interface{}, bool) {
	switch {
	case a == nil:
		return b, includeB
	case b == nil:
		return a, includeA
	}
	c, ok := Compare(a, b)
	switch {
	case !ok:
		return a, includeA
	case c*dir > 0:
		return a, includeA
	case c*dir < 0:
		return b, includeB
	}
	return a, includeA && includeB
}
