package container

import (
	"fmt"

	"github.com/km-arc/go-inject/framework/types"
)

// ── Provider contract ────────────────────────────────────────────────────────

// Provider describes one registrable factory.
//
// Descriptors are produced outside the container (generated registration code,
// the providers package, hand-written structs) and handed to it exactly once.
// They must not change after registration; Get may be called many times.
//
//	type clockProvider struct{ container.BaseProvider }
//
//	func (clockProvider) Type() types.TypeIdentifier { return types.TypeOf[Clock]() }
//	func (clockProvider) Get(*container.Container, types.TypeIdentifier) (any, bool) {
//	    return SystemClock{}, true
//	}
type Provider interface {
	// Type is the root type the provider is indexed under.
	Type() types.TypeIdentifier

	// AdditionalWireTypes are further identifiers to index the same provider under,
	// e.g. implemented interfaces or a narrower generic specialisation.
	AdditionalWireTypes() []types.TypeIdentifier

	// Qualifiers distinguish this provider from others of the same type.
	Qualifiers() []types.QualifierType

	// Primary marks the default choice among unqualified candidates.
	Primary() bool

	// Order sorts providers ascending; ties keep discovery order.
	Order() int

	// Condition defers registration until it matches. Nil means unconditional.
	Condition() Condition

	// Get produces the instance for the queried type. false means the
	// provider has nothing to offer right now, which is not an error.
	Get(c *Container, concrete types.TypeIdentifier) (any, bool)
}

// BaseProvider is an embeddable struct with the defaults of every optional
// part of Provider. Embed it and implement Type and Get.
type BaseProvider struct{}

func (BaseProvider) AdditionalWireTypes() []types.TypeIdentifier { return nil }
func (BaseProvider) Qualifiers() []types.QualifierType          { return nil }
func (BaseProvider) Primary() bool                              { return false }
func (BaseProvider) Order() int                                 { return 0 }
func (BaseProvider) Condition() Condition                       { return nil }

// Describe returns the name a provider is reported under in errors and logs:
// its String method if it has one, otherwise its Go type and root type.
func Describe(p Provider) string {
	if p == nil {
		return "<nil>"
	}
	if s, ok := p.(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprintf("%T(%s)", p, p.Type().Key())
}

// ── Source ───────────────────────────────────────────────────────────────────

// Source enumerates the providers available at startup. The container never
// discovers providers itself; it only iterates what a Source hands it.
type Source interface {
	All() []Provider
}

// StaticSource is a fixed list of providers in discovery order.
type StaticSource []Provider

// All implements Source.
func (s StaticSource) All() []Provider { return s }

// registration is one accepted provider. Its pointer is the identity used to
// de-duplicate a provider indexed under several wire types.
type registration struct {
	provider Provider
	seq      uint64
	name     string
}

// wireTypes returns the root type followed by the additional wire types, de-duplicated.
func wireTypes(p Provider) []types.TypeIdentifier {
	seen := make(map[string]bool)
	var out []types.TypeIdentifier
	add := func(t types.TypeIdentifier) {
		if t.IsZero() || seen[t.Key()] {
			return
		}
		seen[t.Key()] = true
		out = append(out, t)
	}
	add(p.Type())
	for _, t := range p.AdditionalWireTypes() {
		add(t)
	}
	return out
}

// selfProvider binds the container to its own type.
type selfProvider struct {
	BaseProvider
	c *Container
}

func (p selfProvider) Type() types.TypeIdentifier { return ContainerType }
func (p selfProvider) String() string            { return "container" }

func (p selfProvider) Get(*Container, types.TypeIdentifier) (any, bool) { return p.c, true }
