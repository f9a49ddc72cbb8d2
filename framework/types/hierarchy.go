package types

import (
	"slices"
	"sync"
)

// Hierarchy answers subtype questions between base tokens.
//
// Go has no runtime class hierarchy to consult, so "ImplementationAA is an
// Interface" has to be declared. Universe is the in-memory implementation.
type Hierarchy interface {
	IsSubtype(sub, super string) bool
}

// IsSubtype reports whether sub is super, or super is the empty interface, or
// h declares sub below super. A nil h only accepts the first two cases.
func IsSubtype(h Hierarchy, sub, super string) bool {
	if sub == super || super == AnyName {
		return true
	}
	if h == nil {
		return false
	}
	return h.IsSubtype(sub, super)
}

// Universe is a concurrency-safe, transitive Hierarchy.
//
//	u := types.NewUniverse().
//	    Declare("shapes.Circle", "shapes.Shape").
//	    Declare("shapes.Shape", "fmt.Stringer")
//	u.IsSubtype("shapes.Circle", "fmt.Stringer") // true
type Universe struct {
	mu     sync.RWMutex
	supers map[string][]string
}

// NewUniverse returns an empty Universe.
func NewUniverse() *Universe {
	return &Universe{supers: make(map[string][]string)}
}

// Declare records sub as a direct subtype of each of supers and returns u for chaining.
func (u *Universe) Declare(sub string, supers ...string) *Universe {
	u.mu.Lock()
	defer u.mu.Unlock()
	sub = Normalize(sub)
	for _, s := range supers {
		s = Normalize(s)
		if s == sub || slices.Contains(u.supers[sub], s) {
			continue
		}
		u.supers[sub] = append(u.supers[sub], s)
	}
	return u
}

// DeclareOf records Sub below Super using their reflected identifiers.
func DeclareOf[Sub, Super any](u *Universe) *Universe {
	return u.Declare(TypeOf[Sub]().Base(), TypeOf[Super]().Base())
}

// IsSubtype implements Hierarchy with a breadth-first walk over declarations.
func (u *Universe) IsSubtype(sub, super string) bool {
	sub, super = Normalize(sub), Normalize(super)
	if sub == super || super == AnyName {
		return true
	}
	u.mu.RLock()
	defer u.mu.RUnlock()

	seen := map[string]bool{sub: true}
	queue := []string{sub}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, s := range u.supers[cur] {
			if s == super {
				return true
			}
			if !seen[s] {
				seen[s] = true
				queue = append(queue, s)
			}
		}
	}
	return false
}

// Supertypes returns every declared ancestor of sub in breadth-first order.
func (u *Universe) Supertypes(sub string) []string {
	u.mu.RLock()
	defer u.mu.RUnlock()

	var out []string
	seen := map[string]bool{Normalize(sub): true}
	queue := []string{Normalize(sub)}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, s := range u.supers[cur] {
			if !seen[s] {
				seen[s] = true
				out = append(out, s)
				queue = append(queue, s)
			}
		}
	}
	return out
}
