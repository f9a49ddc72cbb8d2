package container

import (
	"fmt"

	"github.com/km-arc/go-inject/framework/types"
)

// ── Generics helpers ──────────────────────────────────────────────────────────

// Resolve returns the instance for T's identifier, type-asserted.
//
//	// Instead of: v, err := c.Require(types.TypeOf[*Mailer]()); m := v.(*Mailer)
//	// Write:      m, err := container.Resolve[*Mailer](c)
func Resolve[T any](c *Container) (T, error) {
	return ResolveAs[T](c, types.TypeOf[T]())
}

// ResolveAs is Resolve against an explicit identifier, for generic queries the
// Go type cannot express (e.g. a Box[Shape] answered by a Box[Circle]).
func ResolveAs[T any](c *Container, t types.TypeIdentifier) (T, error) {
	v, err := c.Require(t)
	if err != nil {
		var zero T
		return zero, err
	}
	return cast[T](t, v)
}

// Lookup is the optional form of Resolve: ok is false when nothing applies.
func Lookup[T any](c *Container) (T, bool, error) {
	var zero T
	t := types.TypeOf[T]()
	v, ok, err := c.Get(t)
	if err != nil || !ok {
		return zero, false, err
	}
	typed, err := cast[T](t, v)
	return typed, err == nil, err
}

// ResolveNamed returns the instance registered for T under types.Named(name).
func ResolveNamed[T any](c *Container, name string) (T, error) {
	var zero T
	t, q := types.TypeOf[T](), types.Named(name)
	v, ok, err := c.GetQualified(t, q)
	if err != nil {
		return zero, err
	}
	if !ok {
		return zero, &NotFoundError{Type: t, Qualifier: q}
	}
	return cast[T](t, v)
}

// ResolveAll returns every instance available for T.
func ResolveAll[T any](c *Container) ([]T, error) {
	t := types.TypeOf[T]()
	vs, err := c.GetAll(t)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(vs))
	for _, v := range vs {
		typed, err := cast[T](t, v)
		if err != nil {
			return nil, err
		}
		out = append(out, typed)
	}
	return out, nil
}

// MustResolve is Resolve that panics, for wiring code where a missing
// dependency is a programming error.
func MustResolve[T any](c *Container) T {
	v, err := Resolve[T](c)
	if err != nil {
		panic(fmt.Sprintf("container: MustResolve[%s]: %v", types.TypeOf[T]().Key(), err))
	}
	return v
}

func cast[T any](t types.TypeIdentifier, v any) (T, error) {
	typed, ok := v.(T)
	if !ok {
		var zero T
		return zero, &WrongTypeError{Type: t, Got: fmt.Sprintf("%T", v)}
	}
	return typed, nil
}
