// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

package cacherule

import (
	"github.com/gridlabs/tieredstorage/pkg/ranges"
	"github.com/gridlabs/tieredstorage/pkg/typedesc"
)

// MatchEntry returns true when entry satisfies tmpl. A nil template matches
// every entry.
func MatchEntry(tmpl *typedesc.Template, entry *typedesc.Entry) bool {
	if tmpl == nil {
		return true
	}
	if tmpl.Type.Name != entry.TypeName() {
		return false
	}
	if tmpl.Query != nil {
		return MatchQuery(tmpl.Query, entry)
	}
	for pos, v := range tmpl.Values {
		code := tmpl.MatchCode(pos)
		switch {
		case code == typedesc.IsNull:
			if entry.Values[pos] != nil {
				return false
			}
			continue
		case code == typedesc.NotNull:
			if entry.Values[pos] == nil {
				return false
			}
			continue
		case v == nil:
			continue
		}
		r, ok := MatchCodeRange(tmpl, pos)
		if !ok || !r.Match(entry.Values[pos]) {
			return false
		}
	}
	return true
}

// MatchQuery evaluates a custom query against entry. Conditions on unknown
// properties match nothing.
func MatchQuery(query ranges.Query, entry *typedesc.Entry) bool {
	switch q := query.(type) {
	case ranges.And:
		for _, sub := range q {
			if !MatchQuery(sub, entry) {
				return false
			}
		}
		return true
	case ranges.Or:
		for _, sub := range q {
			if MatchQuery(sub, entry) {
				return true
			}
		}
		return false
	case ranges.Range:
		v, ok := entry.Value(q.Path())
		return ok && q.Match(v)
	}
	return false
}
