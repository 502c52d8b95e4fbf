// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

// Package cacherule decides which records of a type belong to the memory tier.
package cacherule

import (
	"fmt"
	"time"

	"github.com/zeebo/errs"

	"github.com/gridlabs/tieredstorage/pkg/ranges"
	"github.com/gridlabs/tieredstorage/pkg/tier"
	"github.com/gridlabs/tieredstorage/pkg/typedesc"
)

// Error is the error class for cache rule evaluation.
var Error = errs.Class("cache rule")

// Predicate is a cache rule. It is one of All, Transient, Time or Criteria.
type Predicate interface {
	fmt.Stringer
	predicate()
}

// All keeps every record of a type in memory.
type All struct {
	// Transient records are never written to disk.
	Transient bool
}

// Transient keeps every record of a type in memory only.
type Transient struct{}

// Time keeps records in memory while their time column is within Period of now.
// The time column holds a time.Time or unix milliseconds as int64.
type Time struct {
	TypeName string
	Column   string
	Period   time.Duration
	// Now defaults to time.Now.
	Now func() time.Time
}

// Criteria keeps records in memory when a single property satisfies Range.
type Criteria struct {
	TypeName string
	Range    ranges.Range
}

func (All) predicate()       {}
func (Transient) predicate() {}
func (Time) predicate()      {}
func (Criteria) predicate()  {}

func (p All) String() string {
	if p.Transient {
		return "all (transient)"
	}
	return "all"
}

func (Transient) String() string { return "transient" }

func (p Time) String() string {
	return fmt.Sprintf("%s.%s newer than %s", p.TypeName, p.Column, p.Period)
}

func (p Criteria) String() string { return fmt.Sprintf("%s where %s", p.TypeName, p.Range) }

// IsTransient returns true when records matched by p are kept in memory only.
func IsTransient(p Predicate) bool {
	switch p := p.(type) {
	case All:
		return p.Transient
	case Transient:
		return true
	}
	return false
}

// IsTimeRule returns true for time based predicates.
func IsTimeRule(p Predicate) bool {
	_, ok := p.(Time)
	return ok
}

// Evaluate reports whether entry belongs to the memory tier.
func Evaluate(p Predicate, entry *typedesc.Entry) bool {
	switch p := p.(type) {
	case All, Transient:
		return true
	case Time:
		v, _ := entry.Value(p.Column)
		t, ok := TimeValue(v)
		return ok && p.now().Sub(t) < p.Period
	case Criteria:
		v, ok := entry.Value(p.Range.Path())
		return ok && p.Range.Match(v)
	}
	return false
}

// EvaluateTemplate resolves the tiers a query must search to find every
// record it matches.
func EvaluateTemplate(p Predicate, tmpl *typedesc.Template) tier.Match {
	switch p := p.(type) {
	case All, Transient:
		return tier.MatchHot
	case Time:
		r, err := p.Range(tmpl.Type)
		if err != nil {
			return tier.MatchHotAndCold
		}
		return refineTimeMatch(tmpl, templateTier(r, tmpl))
	case Criteria:
		return templateTier(p.Range, tmpl)
	}
	return tier.MatchHotAndCold
}

// refineTimeMatch narrows an ambiguous time rule match. Every record of a type
// with a time rule is on disk, so an unbounded search only needs the cold tier.
func refineTimeMatch(tmpl *typedesc.Template, m tier.Match) tier.Match {
	if m != tier.MatchHotAndCold {
		return m
	}
	switch {
	case tmpl.MemoryOnly:
		return tier.MatchHot
	case tmpl.MaxEntries > 0:
		return m
	}
	return tier.MatchCold
}

func (p Time) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now()
}

// Range returns the time rule as a segment over the time column, expressed in
// the column's property type.
func (p Time) Range(td *typedesc.TypeDescriptor) (ranges.SegmentRange, error) {
	prop, ok := td.Property(p.Column)
	if !ok {
		return ranges.SegmentRange{}, Error.New("type %q has no time column %q", td.Name, p.Column)
	}
	min := p.now().Add(-p.Period)
	switch prop.Type {
	case typedesc.Time:
		return ranges.GreaterThan(p.Column, min), nil
	case typedesc.Int64:
		return ranges.GreaterThan(p.Column, min.UnixMilli()), nil
	}
	return ranges.SegmentRange{}, Error.New("time column %q of type %q is %s", p.Column, td.Name, prop.Type)
}

// ExpirationTime returns when a record with the given time column value leaves
// the memory tier, after a grace period.
func (p Time) ExpirationTime(value interface{}, grace time.Duration) (time.Time, error) {
	if value == nil {
		return time.Time{}, Error.New("time column %q of type %q cannot be null", p.Column, p.TypeName)
	}
	t, ok := TimeValue(value)
	if !ok {
		return time.Time{}, Error.New("time column %q of type %q has unsupported value %T", p.Column, p.TypeName, value)
	}
	return t.Add(p.Period + grace), nil
}

// TimeValue converts a time column value. Integers are unix milliseconds.
func TimeValue(v interface{}) (time.Time, bool) {
	switch v := v.(type) {
	case time.Time:
		return v, true
	case int64:
		return time.UnixMilli(v), true
	case int:
		return time.UnixMilli(int64(v)), true
	case int32:
		return time.UnixMilli(int64(v)), true
	}
	return time.Time{}, false
}
