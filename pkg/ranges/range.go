// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

// Package ranges models single-property predicates (equality, segments, sets,
// regular expressions) and boolean trees over them.
package ranges

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/zeebo/errs"
)

// Error is the error class for range construction problems.
var Error = errs.Class("ranges")

// Query is a boolean tree of ranges.
type Query interface {
	query()
}

// Range is a predicate over a single property.
type Range interface {
	Query
	// Path is the property the range applies to.
	Path() string
	// Match reports whether a property value satisfies the range. Nil values
	// never match.
	Match(value interface{}) bool
	fmt.Stringer
}

// And matches when every sub query matches.
type And []Query

// Or matches when any sub query matches.
type Or []Query

func (And) query() {}
func (Or) query()  {}

// EqualRange matches values equal to Value.
type EqualRange struct {
	Field string
	Value interface{}
}

// NotEqualRange matches values different from Value.
type NotEqualRange struct {
	Field string
	Value interface{}
}

// InRange matches values equal to one of Values.
type InRange struct {
	Field  string
	Values []interface{}
}

// SegmentRange matches values between Min and Max. A nil bound is unbounded.
type SegmentRange struct {
	Field      string
	Min        interface{}
	IncludeMin bool
	Max        interface{}
	IncludeMax bool
}

// RegexRange matches strings against a regular expression.
type RegexRange struct {
	Field   string
	Pattern *regexp.Regexp
}

// Equal creates an EqualRange.
func Equal(field string, value interface{}) EqualRange { return EqualRange{Field: field, Value: value} }

// NotEqual creates a NotEqualRange.
func NotEqual(field string, value interface{}) NotEqualRange {
	return NotEqualRange{Field: field, Value: value}
}

// In creates an InRange.
func In(field string, values ...interface{}) InRange { return InRange{Field: field, Values: values} }

// GreaterThan creates a segment with an exclusive lower bound.
func GreaterThan(field string, min interface{}) SegmentRange {
	return SegmentRange{Field: field, Min: min}
}

// AtLeast creates a segment with an inclusive lower bound.
func AtLeast(field string, min interface{}) SegmentRange {
	return SegmentRange{Field: field, Min: min, IncludeMin: true}
}

// LessThan creates a segment with an exclusive upper bound.
func LessThan(field string, max interface{}) SegmentRange {
	return SegmentRange{Field: field, Max: max}
}

// AtMost creates a segment with an inclusive upper bound.
func AtMost(field string, max interface{}) SegmentRange {
	return SegmentRange{Field: field, Max: max, IncludeMax: true}
}

// Between creates a closed segment.
func Between(field string, min, max interface{}) SegmentRange {
	return SegmentRange{Field: field, Min: min, IncludeMin: true, Max: max, IncludeMax: true}
}

// Regex compiles pattern into a RegexRange.
func Regex(field, pattern string) (RegexRange, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return RegexRange{}, Error.Wrap(err)
	}
	return RegexRange{Field: field, Pattern: re}, nil
}

func (EqualRange) query()    {}
func (NotEqualRange) query() {}
func (InRange) query()       {}
func (SegmentRange) query()  {}
func (RegexRange) query()    {}

// Path implements Range.
func (r EqualRange) Path() string { return r.Field }

// Path implements Range.
func (r NotEqualRange) Path() string { return r.Field }

// Path implements Range.
func (r InRange) Path() string { return r.Field }

// Path implements Range.
func (r SegmentRange) Path() string { return r.Field }

// Path implements Range.
func (r RegexRange) Path() string { return r.Field }

// Match implements Range.
func (r EqualRange) Match(v interface{}) bool { return EqualValues(v, r.Value) }

// Match implements Range.
func (r NotEqualRange) Match(v interface{}) bool {
	c, ok := Compare(v, r.Value)
	return ok && c != 0
}

// Match implements Range.
func (r InRange) Match(v interface{}) bool {
	for _, candidate := range r.Values {
		if EqualValues(v, candidate) {
			return true
		}
	}
	return false
}

// Match implements Range.
func (r SegmentRange) Match(v interface{}) bool {
	if v == nil {
		return false
	}
	if r.Min != nil {
		c, ok := Compare(v, r.Min)
		if !ok || c < 0 || (c == 0 && !r.IncludeMin) {
			return false
		}
	}
	if r.Max != nil {
		c, ok := Compare(v, r.Max)
		if !ok || c > 0 || (c == 0 && !r.IncludeMax) {
			return false
		}
	}
	return true
}

// Match implements Range.
func (r RegexRange) Match(v interface{}) bool {
	switch x := v.(type) {
	case string:
		return r.Pattern.MatchString(x)
	case []byte:
		return r.Pattern.Match(x)
	}
	return false
}

// IsPoint returns true when the segment contains exactly one value.
func (r SegmentRange) IsPoint() bool {
	return r.Min != nil && r.Max != nil && r.IncludeMin && r.IncludeMax && EqualValues(r.Min, r.Max)
}

func (r EqualRange) String() string    { return fmt.Sprintf("%s = %v", r.Field, r.Value) }
func (r NotEqualRange) String() string { return fmt.Sprintf("%s != %v", r.Field, r.Value) }
func (r RegexRange) String() string    { return fmt.Sprintf("%s RLIKE %q", r.Field, r.Pattern.String()) }

func (r InRange) String() string {
	values := make([]string, len(r.Values))
	for i, v := range r.Values {
		values[i] = fmt.Sprint(v)
	}
	return fmt.Sprintf("%s IN (%s)", r.Field, strings.Join(values, ", "))
}

func (r SegmentRange) String() string {
	var parts []string
	if r.Min != nil {
		op := ">"
		if r.IncludeMin {
			op = ">="
		}
		parts = append(parts, fmt.Sprintf("%s %s %v", r.Field, op, r.Min))
	}
	if r.Max != nil {
		op := "<"
		if r.IncludeMax {
			op = "<="
		}
		parts = append(parts, fmt.Sprintf("%s %s %v", r.Field, op, r.Max))
	}
	if len(parts) == 0 {
		return r.Field + " IS NOT NULL"
	}
	return strings.Join(parts, " AND ")
}

// Convert rewrites every value of r with fn.
func Convert(r Range, fn func(interface{}) (interface{}, error)) (Range, error) {
	var err error
	switch x := r.(type) {
	case EqualRange:
		if x.Value, err = fn(x.Value); err != nil {
			return nil, err
		}
		return x, nil
	case NotEqualRange:
		if x.Value, err = fn(x.Value); err != nil {
			return nil, err
		}
		return x, nil
	case InRange:
		values := make([]interface{}, len(x.Values))
		for i, v := range x.Values {
			if values[i], err = fn(v); err != nil {
				return nil, err
			}
		}
		x.Values = values
		return x, nil
	case SegmentRange:
		if x.Min != nil {
			if x.Min, err = fn(x.Min); err != nil {
				return nil, err
			}
		}
		if x.Max != nil {
			if x.Max, err = fn(x.Max); err != nil {
				return nil, err
			}
		}
		return x, nil
	case RegexRange:
		return x, nil
	}
	return nil, Error.New("unsupported range %T", r)
}
