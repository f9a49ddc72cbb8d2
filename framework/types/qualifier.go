package types

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// Char is a character-valued qualifier field, kept apart from numeric rune values.
type Char rune

// Field is one name/value pair of a qualifier.
// Values are strings, Chars, bools, numbers or TypeIdentifiers. Numbers of
// different Go types are different values.
type Field struct {
	Name  string
	Value any
}

// QualifierType is a named discriminator with ordered fields, used to tell apart
// several providers of the same type.
//
//	types.NewQualifier("Region", types.Field{Name: "value", Value: "eu"})
//	types.Named("primaryDB")
//
// Two qualifiers are equal iff their names and all fields (in order) match.
type QualifierType struct {
	name   string
	fields []Field
	key    string
}

// NamedQualifier is the name of the qualifier built by Named.
const NamedQualifier = "Named"

// NewQualifier builds a qualifier.
func NewQualifier(name string, fields ...Field) QualifierType {
	fs := slices.Clone(fields)
	var b strings.Builder
	b.WriteString(name)
	b.WriteByte('(')
	for i, f := range fs {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(f.Name)
		b.WriteByte('=')
		b.WriteString(formatValue(f.Value))
	}
	b.WriteByte(')')
	return QualifierType{name: name, fields: fs, key: b.String()}
}

// Named is shorthand for NewQualifier("Named", Field{"value", value}).
func Named(value string) QualifierType {
	return NewQualifier(NamedQualifier, Field{Name: "value", Value: value})
}

func formatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return "nil"
	case string:
		return strconv.Quote(x)
	case Char:
		return strconv.QuoteRune(rune(x))
	case TypeIdentifier:
		return "type:" + x.Key()
	case int:
		return strconv.Itoa(x)
	case bool:
		return strconv.FormatBool(x)
	default:
		// Other kinds carry their Go type, so 1, 1.0 and uint8(1) stay distinct.
		return fmt.Sprintf("%T(%v)", x, x)
	}
}

// Name returns the qualifier name.
func (q QualifierType) Name() string { return q.name }

// Fields returns a copy of the fields in declaration order.
func (q QualifierType) Fields() []Field { return slices.Clone(q.fields) }

// Field returns the value of the named field.
func (q QualifierType) Field(name string) (any, bool) {
	for _, f := range q.fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return nil, false
}

// Key returns the canonical rendering used as a map key.
func (q QualifierType) Key() string { return q.key }

// String implements fmt.Stringer.
func (q QualifierType) String() string { return "@" + q.key }

// Equal reports whether q and other have the same name and fields.
func (q QualifierType) Equal(other QualifierType) bool { return q.key == other.key }

// IsZero reports whether q is the zero qualifier.
func (q QualifierType) IsZero() bool { return q.name == "" }
