// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

package typedesc

import (
	"github.com/gridlabs/tieredstorage/pkg/ranges"
)

// MatchCode is the comparison applied to one template property.
type MatchCode int

const (
	// EQ matches equal values.
	EQ MatchCode = iota
	// NE matches different values.
	NE
	// GT matches values greater than the template value.
	GT
	// GE matches values greater than or equal to the template value.
	GE
	// LT matches values less than the template value.
	LT
	// LE matches values less than or equal to the template value.
	LE
	// IsNull matches missing values.
	IsNull
	// NotNull matches present values.
	NotNull
	// Regex matches strings against a regular expression.
	Regex
)

var matchCodeNames = [...]string{"EQ", "NE", "GT", "GE", "LT", "LE", "IS_NULL", "NOT_NULL", "REGEX"}

// String implements fmt.Stringer.
func (c MatchCode) String() string {
	if c >= 0 && int(c) < len(matchCodeNames) {
		return matchCodeNames[c]
	}
	return "UNKNOWN"
}

// Template is a query over a single type. It is one of:
//   - an exact match template: non-nil Values are ANDed with equality,
//   - an extended match template: MatchCodes gives the comparison per
//     property and RangeValues an optional second bound,
//   - a custom query: Query holds a tree of ranges and Values are ignored.
type Template struct {
	Type   *TypeDescriptor
	Values []interface{}

	MatchCodes     []MatchCode
	RangeValues    []interface{}
	RangeInclusion []bool

	Query ranges.Query

	// ReadOperation marks templates issued by reads, for disk read metrics.
	ReadOperation bool
	// MemoryOnly restricts the search to the hot tier.
	MemoryOnly bool
	// MaxEntries bounds batch operations; zero means unbounded.
	MaxEntries int
}

// NewTemplate creates an exact match template. Values are keyed by property
// name and coerced to the property types.
func NewTemplate(td *TypeDescriptor, values map[string]interface{}) (*Template, error) {
	tmpl := &Template{Type: td, Values: make([]interface{}, len(td.Properties))}
	for name, v := range values {
		if err := tmpl.set(name, v); err != nil {
			return nil, err
		}
	}
	return tmpl, nil
}

// NewQueryTemplate creates a custom query template.
func NewQueryTemplate(td *TypeDescriptor, query ranges.Query) *Template {
	return &Template{Type: td, Values: make([]interface{}, len(td.Properties)), Query: query}
}

// NewIDTemplate creates a template matching a single identifier.
func NewIDTemplate(td *TypeDescriptor, id interface{}) (*Template, error) {
	return NewTemplate(td, map[string]interface{}{td.IDProperty: id})
}

func (tmpl *Template) set(name string, v interface{}) error {
	pos, ok := tmpl.Type.Position(name)
	if !ok {
		return Error.New("type %q has no property %q", tmpl.Type.Name, name)
	}
	c, err := Coerce(tmpl.Type.Properties[pos].Type, v)
	if err != nil {
		return err
	}
	tmpl.Values[pos] = c
	return nil
}

// Where adds an extended match condition on the named property.
func (tmpl *Template) Where(name string, code MatchCode, v interface{}) error {
	return tmpl.Between(name, code, v, nil, false)
}

// Between adds an extended match condition with a second bound. For GT/GE the
// bound is an upper limit, for LT/LE a lower limit.
func (tmpl *Template) Between(name string, code MatchCode, v, bound interface{}, inclusive bool) error {
	if err := tmpl.set(name, v); err != nil {
		return err
	}
	n := len(tmpl.Type.Properties)
	if tmpl.MatchCodes == nil {
		tmpl.MatchCodes = make([]MatchCode, n)
	}
	pos, _ := tmpl.Type.Position(name)
	tmpl.MatchCodes[pos] = code
	if bound == nil {
		return nil
	}
	c, err := Coerce(tmpl.Type.Properties[pos].Type, bound)
	if err != nil {
		return err
	}
	if tmpl.RangeValues == nil {
		tmpl.RangeValues = make([]interface{}, n)
		tmpl.RangeInclusion = make([]bool, n)
	}
	tmpl.RangeValues[pos] = c
	tmpl.RangeInclusion[pos] = inclusive
	return nil
}

// MatchCode returns the comparison for the property at pos.
func (tmpl *Template) MatchCode(pos int) MatchCode {
	if tmpl.MatchCodes == nil {
		return EQ
	}
	return tmpl.MatchCodes[pos]
}

// RangeBound returns the second bound for the property at pos.
func (tmpl *Template) RangeBound(pos int) (value interface{}, inclusive bool) {
	if tmpl.RangeValues == nil {
		return nil, false
	}
	return tmpl.RangeValues[pos], tmpl.RangeInclusion[pos]
}

// HasMatchCodes returns true for extended match templates.
func (tmpl *Template) HasMatchCodes() bool { return tmpl.MatchCodes != nil }

// IsEmpty returns true when the template matches every entry of its type.
func (tmpl *Template) IsEmpty() bool {
	if tmpl.Query != nil {
		return false
	}
	for _, v := range tmpl.Values {
		if v != nil {
			return false
		}
	}
	return true
}

// IsIDQuery returns true when the template is an equality lookup on the
// identifier and nothing else.
func (tmpl *Template) IsIDQuery() bool {
	if tmpl.Query != nil {
		return false
	}
	idPos := tmpl.Type.IDPosition()
	for pos, v := range tmpl.Values {
		if (v != nil) != (pos == idPos) {
			return false
		}
	}
	return tmpl.MatchCode(idPos) == EQ
}
