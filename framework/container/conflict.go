package container

import (
	"fmt"
	"slices"

	"github.com/km-arc/go-inject/framework/types"
)

// Resolver names accepted by ResolverByName.
const (
	ResolverStrict   = "strict"
	ResolverStandard = "standard"
	ResolverOrder    = "order"
)

// ConflictResolver picks exactly one provider out of several ambiguous candidates.
//
// Candidates arrive in registration order. Implementations must be
// deterministic for a given input and either return one of the candidates or
// an error, typically built with BuildError.
type ConflictResolver interface {
	Name() string
	Find(candidates []Provider, expected types.TypeIdentifier) (Provider, error)
}

// BuildError composes the AmbiguousResolutionError for r, listing every
// candidate and how many of them were still tied.
func BuildError(r ConflictResolver, candidates []Provider, matched int, expected types.TypeIdentifier) error {
	names := make([]string, len(candidates))
	for i, p := range candidates {
		names[i] = Describe(p)
	}
	name := "<nil>"
	if r != nil {
		name = r.Name()
	}
	return &AmbiguousResolutionError{Resolver: name, Expected: expected, Candidates: names, Matched: matched}
}

// ResolverByName returns the named strategy. h is used by the standard
// resolver to compare declared types.
func ResolverByName(name string, h types.Hierarchy) (ConflictResolver, error) {
	switch name {
	case ResolverStrict:
		return StrictResolver{}, nil
	case ResolverStandard, "":
		return StandardResolver{Hierarchy: h}, nil
	case ResolverOrder:
		return OrderResolver{}, nil
	default:
		return nil, fmt.Errorf("container: unknown conflict resolver %q", name)
	}
}

// ── strict ───────────────────────────────────────────────────────────────────

// StrictResolver refuses to choose: it only succeeds when exactly one candidate is given.
type StrictResolver struct{}

func (StrictResolver) Name() string { return ResolverStrict }

func (r StrictResolver) Find(candidates []Provider, expected types.TypeIdentifier) (Provider, error) {
	if len(candidates) == 1 {
		return candidates[0], nil
	}
	return nil, BuildError(r, candidates, len(candidates), expected)
}

// ── standard ─────────────────────────────────────────────────────────────────

// StandardResolver narrows the candidates step by step and always ends with one:
//
//  1. a candidate whose declared type equals the query wins outright; several
//     exact matches continue with just those,
//  2. candidates whose declared type is a strict supertype of another
//     candidate's type are dropped (narrowest type wins),
//  3. the lowest Order wins,
//  4. the earliest registration wins.
//
// It only fails when given no candidates.
type StandardResolver struct {
	Hierarchy types.Hierarchy
}

func (StandardResolver) Name() string { return ResolverStandard }

func (r StandardResolver) Find(candidates []Provider, expected types.TypeIdentifier) (Provider, error) {
	if len(candidates) == 0 {
		return nil, BuildError(r, candidates, 0, expected)
	}

	set := filter(candidates, func(p Provider) bool { return p.Type().Equal(expected) })
	if len(set) == 1 {
		return set[0], nil
	}
	if len(set) == 0 {
		set = candidates
	}

	pool := set
	set = filter(pool, func(p Provider) bool {
		return !slices.ContainsFunc(pool, func(o Provider) bool {
			return !o.Type().Equal(p.Type()) && o.Type().IsInstanceOf(p.Type(), r.Hierarchy)
		})
	})
	if len(set) == 0 {
		// Mutually declared subtypes; fall back to the full set.
		set = candidates
	}

	return lowestOrder(set)[0], nil
}

// ── order ────────────────────────────────────────────────────────────────────

// OrderResolver picks the candidate with the lowest Order and fails on a tie.
type OrderResolver struct{}

func (OrderResolver) Name() string { return ResolverOrder }

func (r OrderResolver) Find(candidates []Provider, expected types.TypeIdentifier) (Provider, error) {
	best := lowestOrder(candidates)
	if len(best) != 1 {
		return nil, BuildError(r, candidates, len(best), expected)
	}
	return best[0], nil
}

// ── helpers ──────────────────────────────────────────────────────────────────

func filter(ps []Provider, keep func(Provider) bool) []Provider {
	var out []Provider
	for _, p := range ps {
		if keep(p) {
			out = append(out, p)
		}
	}
	return out
}

// lowestOrder returns the candidates sharing the minimum Order, in input order.
func lowestOrder(ps []Provider) []Provider {
	var out []Provider
	for _, p := range ps {
		switch {
		case len(out) == 0 || p.Order() < out[0].Order():
			out = []Provider{p}
		case p.Order() == out[0].Order():
			out = append(out, p)
		}
	}
	return out
}
