package types

import (
	"fmt"
	"slices"
	"strings"
)

// WildcardName is the base token of an unresolved generic slot.
const WildcardName = "?"

// TypeIdentifier is the structural identity of a (possibly generic) type:
// a base token plus an ordered list of generic arguments.
//
// Identifiers are immutable values. Two identifiers with the same base and the
// same generic arguments (recursively) are equal, and Key returns the same
// string for both, so Key is what maps are keyed on.
//
//	box := types.Of("shapes.Box", types.Of("shapes.Circle"))
//	box.Key()      // "shapes.Box[shapes.Circle]"
//	box.Erasure()  // shapes.Box
type TypeIdentifier struct {
	base     string
	generics []TypeIdentifier
	key      string
}

// Of builds an identifier from a base token and its generic arguments.
// Builtin aliases and boxed spellings of the base are folded first (see Normalize).
//
// Of panics if base is not a single type name, e.g. "a,b" or "Box[A]": generic
// arguments are passed as generics, never spelled into the base.
func Of(base string, generics ...TypeIdentifier) TypeIdentifier {
	base = Normalize(base)
	if scanBase(base, 0) != len(base) {
		panic(fmt.Sprintf("types: %q is not a single type name", base))
	}
	return newIdent(base, generics)
}

func newIdent(base string, generics []TypeIdentifier) TypeIdentifier {
	args := slices.Clone(generics)
	return TypeIdentifier{base: base, generics: args, key: render(base, args)}
}

// Wildcard returns the identifier of an unresolved generic slot.
// A wildcard slot in a query is satisfied by any argument.
func Wildcard() TypeIdentifier {
	return TypeIdentifier{base: WildcardName, key: WildcardName}
}

func render(base string, args []TypeIdentifier) string {
	if len(args) == 0 {
		return base
	}
	var b strings.Builder
	b.WriteString(base)
	b.WriteByte('[')
	for i, a := range args {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(a.key)
	}
	b.WriteByte(']')
	return b.String()
}

// Base returns the base token without generic arguments.
func (t TypeIdentifier) Base() string { return t.base }

// Generics returns a copy of the generic arguments.
func (t TypeIdentifier) Generics() []TypeIdentifier { return slices.Clone(t.generics) }

// Key returns the canonical rendering, e.g. "pkg.Box[pkg.Impl]".
func (t TypeIdentifier) Key() string { return t.key }

// String implements fmt.Stringer.
func (t TypeIdentifier) String() string { return t.key }

// IsZero reports whether t is the zero identifier.
func (t TypeIdentifier) IsZero() bool { return t.base == "" }

// IsWildcard reports whether t is an unresolved slot.
func (t TypeIdentifier) IsWildcard() bool { return t.base == WildcardName }

// Equal reports structural equality.
func (t TypeIdentifier) Equal(other TypeIdentifier) bool { return t.key == other.key }

// Erasure returns t without its generic arguments.
func (t TypeIdentifier) Erasure() TypeIdentifier {
	if len(t.generics) == 0 {
		return t
	}
	return TypeIdentifier{base: t.base, key: t.base}
}

// WillErase reports whether t carries at least one concrete generic argument,
// i.e. whether erasing it loses information that has to be tracked separately.
func (t TypeIdentifier) WillErase() bool {
	for _, g := range t.generics {
		if !g.IsWildcard() {
			return true
		}
	}
	return false
}

// IsInstanceOf reports whether a value of type t satisfies a query for other.
//
// The base of t must be other's base or a subtype of it (per h). When other has
// generic arguments, every slot must be satisfied positionally by the matching
// slot of t under the same rule; wildcard slots of other always match.
//
//	aa := types.Of("Box", types.Of("ImplementationAA"))
//	aa.IsInstanceOf(types.Of("Box", types.Of("Interface")), h)  // true if AA <: Interface
//	aa.IsInstanceOf(types.Of("Box"), h)                         // true
func (t TypeIdentifier) IsInstanceOf(other TypeIdentifier, h Hierarchy) bool {
	if other.IsWildcard() {
		return true
	}
	if !IsSubtype(h, t.base, other.base) {
		return false
	}
	if len(other.generics) == 0 {
		return true
	}
	if len(t.generics) != len(other.generics) {
		return false
	}
	for i, slot := range other.generics {
		if !t.generics[i].IsInstanceOf(slot, h) {
			return false
		}
	}
	return true
}
