// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

package ranges

import (
	"strconv"
	"strings"
	"text/scanner"

	"github.com/zeebo/errs"
)

// ErrParse is the error class for malformed criteria.
var ErrParse = errs.Class("criteria parse")

// AllCriteria is the criteria keyword selecting every entry of a type.
const AllCriteria = "ALL"

// IsAll returns true when criteria selects every entry.
func IsAll(criteria string) bool {
	return strings.EqualFold(strings.TrimSpace(criteria), AllCriteria)
}

// Parse parses a criteria expression over a single property, such as
//
//	price > 10
//	age >= 18 AND age < 65
//	country IN ('NL', 'BE')
//	name RLIKE 'a.*'
//
// Comparisons joined by AND are merged into one segment. Literal values keep
// their lexical kind (int64, float64, string or bool); callers convert them to
// the property type.
func Parse(criteria string) (Range, error) {
	p := newParser(criteria)
	r, err := p.condition()
	if err != nil {
		return nil, err
	}
	for {
		tok := p.next()
		if tok == scanner.EOF {
			break
		}
		if !p.keyword(tok, "AND") {
			if p.keyword(tok, "OR") {
				return nil, ErrParse.New("only a single range is supported: OR in %q", criteria)
			}
			return nil, p.unexpected(tok)
		}
		next, err := p.condition()
		if err != nil {
			return nil, err
		}
		if r, err = merge(r, next); err != nil {
			return nil, err
		}
	}
	if p.err != nil {
		return nil, p.err
	}
	return r, nil
}

func merge(a, b Range) (Range, error) {
	if a.Path() != b.Path() {
		return nil, ErrParse.New("only a single range is supported: %q and %q", a.Path(), b.Path())
	}
	sa, okA := a.(SegmentRange)
	sb, okB := b.(SegmentRange)
	if !okA || !okB {
		return nil, ErrParse.New("only comparisons can be combined: %s AND %s", a, b)
	}
	r, ok := Intersect(sa, sb)
	if !ok {
		return nil, ErrParse.New("empty range: %s AND %s", a, b)
	}
	return r, nil
}

type parser struct {
	s   scanner.Scanner
	src string
	err error
}

func newParser(src string) *parser {
	p := &parser{src: src}
	p.s.Init(strings.NewReader(src))
	p.s.Mode = scanner.ScanIdents | scanner.ScanInts | scanner.ScanFloats | scanner.ScanStrings | scanner.SkipComments
	p.s.Error = func(s *scanner.Scanner, msg string) {
		if p.err == nil {
			p.err = ErrParse.New("%s at %s in %q", msg, s.Position, p.src)
		}
	}
	return p
}

func (p *parser) next() rune { return p.s.Scan() }

func (p *parser) keyword(tok rune, word string) bool {
	return tok == scanner.Ident && strings.EqualFold(p.s.TokenText(), word)
}

func (p *parser) unexpected(tok rune) error {
	if p.err != nil {
		return p.err
	}
	if tok == scanner.EOF {
		return ErrParse.New("unexpected end of %q", p.src)
	}
	return ErrParse.New("unexpected %q at %s in %q", p.s.TokenText(), p.s.Position, p.src)
}

func (p *parser) condition() (Range, error) {
	tok := p.next()
	if tok != scanner.Ident {
		return nil, p.unexpected(tok)
	}
	field := p.s.TokenText()
	for p.s.Peek() == '.' {
		p.s.Next()
		if tok := p.next(); tok != scanner.Ident {
			return nil, p.unexpected(tok)
		}
		field += "." + p.s.TokenText()
	}

	tok = p.next()
	switch {
	case p.keyword(tok, "IN"):
		return p.in(field)
	case p.keyword(tok, "RLIKE"), p.keyword(tok, "REGEX"):
		tok = p.next()
		pattern, ok, err := p.stringLiteral(tok)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, p.unexpected(tok)
		}
		r, err := Regex(field, pattern)
		if err != nil {
			return nil, ErrParse.Wrap(err)
		}
		return r, nil
	}

	op, err := p.operator(tok)
	if err != nil {
		return nil, err
	}
	value, err := p.literal()
	if err != nil {
		return nil, err
	}
	switch op {
	case "=", "==":
		return Equal(field, value), nil
	case "!=", "<>":
		return NotEqual(field, value), nil
	case ">":
		return GreaterThan(field, value), nil
	case ">=":
		return AtLeast(field, value), nil
	case "<":
		return LessThan(field, value), nil
	default:
		return AtMost(field, value), nil
	}
}

func (p *parser) operator(tok rune) (string, error) {
	switch tok {
	case '=', '!', '<', '>':
	default:
		return "", p.unexpected(tok)
	}
	op := string(tok)
	switch next := p.s.Peek(); {
	case next == '=':
		op += string(p.s.Next())
	case tok == '<' && next == '>':
		op += string(p.s.Next())
	}
	if op == "!" {
		return "", ErrParse.New("unexpected %q in %q", op, p.src)
	}
	return op, nil
}

func (p *parser) in(field string) (Range, error) {
	if tok := p.next(); tok != '(' {
		return nil, p.unexpected(tok)
	}
	var values []interface{}
	for {
		value, err := p.literal()
		if err != nil {
			return nil, err
		}
		values = append(values, value)
		tok := p.next()
		if tok == ')' {
			return In(field, values...), nil
		}
		if tok != ',' {
			return nil, p.unexpected(tok)
		}
	}
}

func (p *parser) literal() (interface{}, error) {
	tok := p.next()
	negative := false
	if tok == '-' {
		negative = true
		tok = p.next()
	}
	switch tok {
	case scanner.Int:
		text := p.s.TokenText()
		if negative {
			text = "-" + text
		}
		v, err := strconv.ParseInt(text, 0, 64)
		if err != nil {
			return nil, ErrParse.Wrap(err)
		}
		return v, nil
	case scanner.Float:
		v, err := strconv.ParseFloat(p.s.TokenText(), 64)
		if err != nil {
			return nil, ErrParse.Wrap(err)
		}
		if negative {
			v = -v
		}
		return v, nil
	}
	if negative {
		return nil, p.unexpected(tok)
	}
	if s, ok, err := p.stringLiteral(tok); err != nil || ok {
		return s, err
	}
	switch {
	case p.keyword(tok, "TRUE"):
		return true, nil
	case p.keyword(tok, "FALSE"):
		return false, nil
	}
	return nil, p.unexpected(tok)
}

// stringLiteral reads a single or double quoted string. Single quotes are
// escaped by doubling them.
func (p *parser) stringLiteral(tok rune) (string, bool, error) {
	switch tok {
	case scanner.String:
		s, err := strconv.Unquote(p.s.TokenText())
		if err != nil {
			return "", false, ErrParse.Wrap(err)
		}
		return s, true, nil
	case '\'':
		var b strings.Builder
		for {
			ch := p.s.Next()
			switch ch {
			case scanner.EOF:
				return "", false, ErrParse.New("unterminated string in %q", p.src)
			case '\'':
				if p.s.Peek() != '\'' {
					return b.String(), true, nil
				}
				p.s.Next()
			}
			b.WriteRune(ch)
		}
	}
	return "", false, nil
}
