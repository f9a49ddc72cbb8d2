package types

import (
	"fmt"
	"reflect"
	"strings"
)

// ParseError reports a malformed identifier string.
type ParseError struct {
	Input string
	Pos   int
	Msg   string
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("types: parse %q at %d: %s", e.Input, e.Pos, e.Msg)
}

// Parse reads the canonical rendering produced by Key back into an identifier.
//
//	types.Parse("pkg.Box[pkg.Impl,?]")
//
// Base tokens are taken as-is, so import paths ("github.com/acme/x.T"),
// pointer markers ("*pkg.T") and Go composite types ("[]int",
// "map[string]int", "func(int) error") are accepted.
func Parse(s string) (TypeIdentifier, error) {
	p := &parser{in: s}
	t, err := p.typ()
	if err != nil {
		return TypeIdentifier{}, err
	}
	p.space()
	if p.pos != len(p.in) {
		return TypeIdentifier{}, p.fail("unexpected trailing input")
	}
	return t, nil
}

// MustParse is Parse that panics on error. Meant for literals in tests and wiring code.
func MustParse(s string) TypeIdentifier {
	t, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return t
}

type parser struct {
	in  string
	pos int
}

func (p *parser) fail(msg string) error {
	return &ParseError{Input: p.in, Pos: p.pos, Msg: msg}
}

func (p *parser) space() {
	for p.pos < len(p.in) && p.in[p.pos] == ' ' {
		p.pos++
	}
}

func (p *parser) typ() (TypeIdentifier, error) {
	p.space()
	start := p.pos
	p.pos = scanBase(p.in, start)
	base := strings.TrimSpace(p.in[start:p.pos])
	if base == "" {
		return TypeIdentifier{}, p.fail("missing type name")
	}
	if base == WildcardName {
		return Wildcard(), nil
	}
	if p.pos == len(p.in) || p.in[p.pos] != '[' {
		return Of(base), nil
	}
	args, err := p.args()
	if err != nil {
		return TypeIdentifier{}, err
	}
	return Of(base, args...), nil
}

// args reads "[T1,T2,...]" starting at the opening bracket.
func (p *parser) args() ([]TypeIdentifier, error) {
	p.pos++ // '['
	var out []TypeIdentifier
	for {
		a, err := p.typ()
		if err != nil {
			return nil, err
		}
		out = append(out, a)
		p.space()
		if p.pos >= len(p.in) {
			return nil, p.fail("unterminated generic list")
		}
		switch p.in[p.pos] {
		case ',':
			p.pos++
		case ']':
			p.pos++
			return out, nil
		default:
			return nil, p.fail("expected ',' or ']'")
		}
	}
}

// TypeOf returns the identifier of the Go type T.
//
// Named types are qualified with their import path; instantiated generics keep
// their type arguments as generic slots, so TypeOf[Box[Circle]]() is
// "<pkg>.Box[<pkg>.Circle]". Pointers keep a leading "*" on the base.
func TypeOf[T any]() TypeIdentifier {
	return typeOf(reflect.TypeFor[T]())
}

func typeOf(rt reflect.Type) TypeIdentifier {
	if rt.Kind() == reflect.Pointer {
		inner := typeOf(rt.Elem())
		return newIdent("*"+inner.base, inner.generics)
	}
	name := rt.Name()
	if name == "" {
		if t, err := Parse(rt.String()); err == nil {
			return t
		}
		return opaque(rt.String())
	}
	pkg := rt.PkgPath()
	i := strings.IndexByte(name, '[')
	if i < 0 {
		return Of(qualify(pkg, name))
	}
	base := qualify(pkg, name[:i])
	p := &parser{in: name, pos: i}
	args, err := p.args()
	if err != nil || p.pos != len(name) {
		// Keep the generic root as the base so the identifier still erases to it.
		return newIdent(Normalize(base), []TypeIdentifier{opaque(name[i+1 : len(name)-1])})
	}
	return Of(base, args...)
}

// opaque is an identifier whose base is kept verbatim, for reflected names the
// parser cannot split.
func opaque(s string) TypeIdentifier { return newIdent(s, nil) }

func qualify(pkg, name string) string {
	if pkg == "" {
		return name
	}
	return pkg + "." + name
}

// scanBase returns the end of the base token starting at pos. Brackets of Go
// composite types ([]T, [N]T, map[K]V) and anything inside parentheses, braces
// or quotes belong to the token. The token ends at a top-level ',' or ']', or
// at a '[' that opens a generic argument list.
func scanBase(s string, pos int) int {
	start := pos
	for pos < len(s) {
		switch s[pos] {
		case ',', ']':
			return pos
		case '[':
			if !compositeBracket(s[start:pos]) {
				return pos
			}
			pos = skipGroup(s, pos)
		case '(', '{', '"', '`':
			pos = skipGroup(s, pos)
		default:
			pos++
		}
	}
	return pos
}

// compositeBracket reports whether a '[' after prefix starts a slice, array or
// map key type rather than generic arguments.
func compositeBracket(prefix string) bool {
	prefix = strings.TrimRight(prefix, " ")
	if prefix == "" {
		return true
	}
	switch prefix[len(prefix)-1] {
	case '*', ']', ')', '-':
		return true
	}
	for _, word := range []string{"map", "chan"} {
		if rest, ok := strings.CutSuffix(prefix, word); ok && (rest == "" || !isNameByte(rest[len(rest)-1])) {
			return true
		}
	}
	return false
}

func isNameByte(c byte) bool {
	return c == '_' || c == '.' || c == '/' || c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= 0x80
}

// skipGroup returns the position just past the bracket group or quoted string
// opening at pos, or len(s) if it is never closed.
func skipGroup(s string, pos int) int {
	var open []byte
	for pos < len(s) {
		switch c := s[pos]; c {
		case '"', '`':
			pos = skipQuoted(s, pos)
			if len(open) == 0 {
				return pos
			}
			continue
		case '[':
			open = append(open, ']')
		case '(':
			open = append(open, ')')
		case '{':
			open = append(open, '}')
		case ']', ')', '}':
			if len(open) == 0 || open[len(open)-1] != c {
				return pos
			}
			open = open[:len(open)-1]
			if len(open) == 0 {
				return pos + 1
			}
		}
		pos++
	}
	return pos
}

func skipQuoted(s string, pos int) int {
	q := s[pos]
	for pos++; pos < len(s); pos++ {
		switch s[pos] {
		case '\\':
			if q == '"' {
				pos++
			}
		case q:
			return pos + 1
		}
	}
	return pos
}
