// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

package sqlmap

import (
	"strings"

	"github.com/gridlabs/tieredstorage/pkg/ranges"
	"github.com/gridlabs/tieredstorage/pkg/typedesc"
)

// RegexpFunction is the SQL function evaluating regular expressions as
// regexp(pattern, value).
const RegexpFunction = "regexp"

var operators = map[typedesc.MatchCode]string{
	typedesc.EQ: "=",
	typedesc.NE: "<>",
	typedesc.GT: ">",
	typedesc.GE: ">=",
	typedesc.LT: "<",
	typedesc.LE: "<=",
}

// Operator returns the comparison operator of a match code.
func Operator(code typedesc.MatchCode) (string, error) {
	if op, ok := operators[code]; ok {
		return op, nil
	}
	return "", Error.New("unsupported match code %s", code)
}

// BoundOperator returns the operator applied to the second bound of a
// GT/GE or LT/LE condition.
func BoundOperator(code typedesc.MatchCode, inclusive bool) (string, error) {
	switch code {
	case typedesc.GT, typedesc.GE:
		if inclusive {
			return "<=", nil
		}
		return "<", nil
	case typedesc.LT, typedesc.LE:
		if inclusive {
			return ">=", nil
		}
		return ">", nil
	}
	return "", Error.New("match code %s has no second bound", code)
}

// Where is a conjunction of SQL conditions with their arguments.
type Where struct {
	Conditions []string
	Args       []interface{}
}

// add appends a condition comparing a column with a bound value.
func (w *Where) add(prop typedesc.Property, op string, v interface{}) error {
	arg, err := BindValue(prop.Type, v)
	if err != nil {
		return err
	}
	w.Conditions = append(w.Conditions, QuoteIdent(prop.Name)+" "+op+" ?")
	w.Args = append(w.Args, arg)
	return nil
}

// SQL returns the WHERE clause, or an empty string without conditions.
func (w *Where) SQL() string {
	if len(w.Conditions) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.Conditions, " AND ")
}

// TemplateWhere translates a template into conditions. A nil template
// matches everything.
func TemplateWhere(tmpl *typedesc.Template) (*Where, error) {
	w := &Where{}
	if tmpl == nil {
		return w, nil
	}
	if tmpl.Query != nil {
		cond, args, err := QueryClause(tmpl.Type, tmpl.Query)
		if err != nil {
			return nil, err
		}
		w.Conditions = append(w.Conditions, cond)
		w.Args = append(w.Args, args...)
		return w, nil
	}
	for pos, v := range tmpl.Values {
		// codes without an operator fail even when the value is nil
		code := tmpl.MatchCode(pos)
		op, err := Operator(code)
		if err != nil {
			return nil, err
		}
		if v == nil {
			continue
		}
		prop := tmpl.Type.Properties[pos]
		if err := w.add(prop, op, v); err != nil {
			return nil, err
		}
		bound, inclusive := tmpl.RangeBound(pos)
		if bound == nil {
			continue
		}
		op, err = BoundOperator(code, inclusive)
		if err != nil {
			return nil, err
		}
		if err := w.add(prop, op, bound); err != nil {
			return nil, err
		}
	}
	return w, nil
}

// QueryClause translates a custom query into a single parenthesized
// condition.
func QueryClause(td *typedesc.TypeDescriptor, query ranges.Query) (string, []interface{}, error) {
	switch q := query.(type) {
	case ranges.And:
		return compound(td, []ranges.Query(q), " AND ", "1 = 1")
	case ranges.Or:
		return compound(td, []ranges.Query(q), " OR ", "1 = 0")
	case ranges.Range:
		prop, ok := td.Property(q.Path())
		if !ok {
			return "", nil, Error.New("type %q has no property %q", td.Name, q.Path())
		}
		return RangeClause(prop, q)
	}
	return "", nil, Error.New("unsupported query %T", query)
}

func compound(td *typedesc.TypeDescriptor, queries []ranges.Query, sep, empty string) (string, []interface{}, error) {
	if len(queries) == 0 {
		return empty, nil, nil
	}
	conds := make([]string, 0, len(queries))
	var args []interface{}
	for _, sub := range queries {
		cond, subArgs, err := QueryClause(td, sub)
		if err != nil {
			return "", nil, err
		}
		conds = append(conds, cond)
		args = append(args, subArgs...)
	}
	return "(" + strings.Join(conds, sep) + ")", args, nil
}

// RangeClause translates a range over prop into a condition.
func RangeClause(prop typedesc.Property, r ranges.Range) (string, []interface{}, error) {
	w := &Where{}
	column := QuoteIdent(prop.Name)
	switch r := r.(type) {
	case ranges.EqualRange:
		if err := w.add(prop, "=", r.Value); err != nil {
			return "", nil, err
		}
	case ranges.NotEqualRange:
		if err := w.add(prop, "<>", r.Value); err != nil {
			return "", nil, err
		}
	case ranges.InRange:
		if len(r.Values) == 0 {
			return "1 = 0", nil, nil
		}
		marks := make([]string, len(r.Values))
		for i, v := range r.Values {
			arg, err := BindValue(prop.Type, v)
			if err != nil {
				return "", nil, err
			}
			marks[i] = "?"
			w.Args = append(w.Args, arg)
		}
		return column + " IN (" + strings.Join(marks, ", ") + ")", w.Args, nil
	case ranges.SegmentRange:
		if r.Min != nil {
			op := ">"
			if r.IncludeMin {
				op = ">="
			}
			if err := w.add(prop, op, r.Min); err != nil {
				return "", nil, err
			}
		}
		if r.Max != nil {
			op := "<"
			if r.IncludeMax {
				op = "<="
			}
			if err := w.add(prop, op, r.Max); err != nil {
				return "", nil, err
			}
		}
		if len(w.Conditions) == 0 {
			return column + " IS NOT NULL", nil, nil
		}
	case ranges.RegexRange:
		if prop.Type != typedesc.String {
			return "", nil, Error.New("regular expression on %s property %q", prop.Type, prop.Name)
		}
		return RegexpFunction + "(?, " + column + ")", []interface{}{r.Pattern.String()}, nil
	default:
		return "", nil, Error.New("unsupported range %T", r)
	}
	return "(" + strings.Join(w.Conditions, " AND ") + ")", w.Args, nil
}
