package typeinfo

import (
	"strings"
	"unicode"

	"github.com/ajitpratap0/colschema/pkg/errors"
)

// TypeExpr is a parsed type expression such as `map<string, list<Line>>`.
type TypeExpr struct {
	Name string
	Args []*TypeExpr
}

func (e *TypeExpr) String() string {
	if len(e.Args) == 0 {
		return e.Name
	}
	var b strings.Builder
	b.WriteString(e.Name)
	b.WriteByte('<')
	for i, a := range e.Args {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(a.String())
	}
	b.WriteByte('>')
	return b.String()
}

// ParseTypeExpr parses `ident` or `ident<expr, ...>`.
func ParseTypeExpr(s string) (*TypeExpr, error) {
	p := &exprParser{src: s}
	e, err := p.parse()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.pos != len(p.src) {
		return nil, p.errorf("unexpected %q", p.src[p.pos:])
	}
	return e, nil
}

type exprParser struct {
	src string
	pos int
}

func (p *exprParser) parse() (*TypeExpr, error) {
	p.skipSpace()
	start := p.pos
	for p.pos < len(p.src) && isIdentRune(rune(p.src[p.pos])) {
		p.pos++
	}
	if start == p.pos {
		return nil, p.errorf("expected type name")
	}
	e := &TypeExpr{Name: p.src[start:p.pos]}

	p.skipSpace()
	if p.pos >= len(p.src) || p.src[p.pos] != '<' {
		return e, nil
	}
	p.pos++

	for {
		arg, err := p.parse()
		if err != nil {
			return nil, err
		}
		e.Args = append(e.Args, arg)

		p.skipSpace()
		if p.pos >= len(p.src) {
			return nil, p.errorf("unterminated type arguments")
		}
		switch p.src[p.pos] {
		case ',':
			p.pos++
		case '>':
			p.pos++
			return e, nil
		default:
			return nil, p.errorf("unexpected %q", p.src[p.pos])
		}
	}
}

func (p *exprParser) skipSpace() {
	for p.pos < len(p.src) && unicode.IsSpace(rune(p.src[p.pos])) {
		p.pos++
	}
}

func (p *exprParser) errorf(format string, args ...interface{}) error {
	return errors.Newf(errors.ErrorTypeValidation, format, args...).
		WithDetail("expr", p.src).
		WithDetail("offset", p.pos)
}

func isIdentRune(r rune) bool {
	return r == '_' || r == '.' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
