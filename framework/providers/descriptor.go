package providers

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/km-arc/go-inject/framework/container"
	"github.com/km-arc/go-inject/framework/types"
)

// FactoryFunc builds an instance. Returning nil means "absent": the container
// treats the provider as having nothing to offer for this query.
type FactoryFunc func(c *container.Container) any

// Descriptor is the container.Provider built by Instance, Factory and
// Singleton. It is immutable once registered.
type Descriptor struct {
	name    string
	typ     types.TypeIdentifier
	wires   []types.TypeIdentifier
	quals   []types.QualifierType
	primary bool
	order   int
	cond    container.Condition

	factory FactoryFunc
	shared  bool

	mu    sync.Mutex
	done  bool
	value any
}

var _ container.Provider = (*Descriptor)(nil)

// Option customises a Descriptor.
type Option func(*Descriptor)

// Named qualifies the descriptor with types.Named(name).
func Named(name string) Option { return Qualified(types.Named(name)) }

// Qualified adds qualifiers.
func Qualified(qs ...types.QualifierType) Option {
	return func(d *Descriptor) { d.quals = append(d.quals, qs...) }
}

// Primary marks the descriptor as the primary provider of its type.
func Primary() Option { return func(d *Descriptor) { d.primary = true } }

// Order sets the ordering hint; lower sorts first.
func Order(n int) Option { return func(d *Descriptor) { d.order = n } }

// When makes the descriptor conditional.
func When(c container.Condition) Option { return func(d *Descriptor) { d.cond = c } }

// As also indexes the descriptor under additional wire types, e.g. the
// interfaces the instance satisfies.
func As(ts ...types.TypeIdentifier) Option {
	return func(d *Descriptor) { d.wires = append(d.wires, ts...) }
}

// Called sets the name used in errors and logs.
func Called(name string) Option { return func(d *Descriptor) { d.name = name } }

func build(t types.TypeIdentifier, factory FactoryFunc, shared bool, opts []Option) *Descriptor {
	d := &Descriptor{typ: t, factory: factory, shared: shared}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Instance registers a pre-built value.
//
//	providers.Instance(types.TypeOf[*Config](), cfg)
func Instance(t types.TypeIdentifier, v any, opts ...Option) *Descriptor {
	d := build(t, nil, true, opts)
	d.done, d.value = true, v
	return d
}

// Factory registers a factory called on every resolution.
func Factory(t types.TypeIdentifier, fn FactoryFunc, opts ...Option) *Descriptor {
	return build(t, fn, false, opts)
}

// Singleton registers a factory whose result is cached after first
// resolution. The factory must not resolve its own type.
//
//	providers.Singleton(types.TypeOf[*Cache](), func(c *container.Container) any {
//	    return cache.New(container.MustResolve[*config.Config](c))
//	})
func Singleton(t types.TypeIdentifier, fn FactoryFunc, opts ...Option) *Descriptor {
	return build(t, fn, true, opts)
}

// InstanceOf is Instance keyed by T.
func InstanceOf[T any](v T, opts ...Option) *Descriptor {
	return Instance(types.TypeOf[T](), v, opts...)
}

// FactoryOf is Factory keyed by T.
func FactoryOf[T any](fn func(c *container.Container) T, opts ...Option) *Descriptor {
	return Factory(types.TypeOf[T](), func(c *container.Container) any { return fn(c) }, opts...)
}

// SingletonOf is Singleton keyed by T.
func SingletonOf[T any](fn func(c *container.Container) T, opts ...Option) *Descriptor {
	return Singleton(types.TypeOf[T](), func(c *container.Container) any { return fn(c) }, opts...)
}

func (d *Descriptor) Type() types.TypeIdentifier                  { return d.typ }
func (d *Descriptor) AdditionalWireTypes() []types.TypeIdentifier { return d.wires }
func (d *Descriptor) Qualifiers() []types.QualifierType           { return d.quals }
func (d *Descriptor) Primary() bool                               { return d.primary }
func (d *Descriptor) Order() int                                  { return d.order }
func (d *Descriptor) Condition() container.Condition              { return d.cond }

// String names the descriptor in errors: its Called name, or its type and qualifiers.
func (d *Descriptor) String() string {
	if d.name != "" {
		return d.name
	}
	if len(d.quals) > 0 {
		return fmt.Sprintf("%s%v", d.typ.Key(), d.quals)
	}
	return d.typ.Key()
}

// Get implements container.Provider.
func (d *Descriptor) Get(c *container.Container, _ types.TypeIdentifier) (any, bool) {
	if !d.shared {
		v := d.factory(c)
		return v, !isNil(v)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.done {
		d.value, d.done = d.factory(c), true
	}
	return d.value, !isNil(d.value)
}

// isNil also treats typed nil pointers from FactoryOf as absent.
func isNil(v any) bool {
	if v == nil {
		return true
	}
	switch rv := reflect.ValueOf(v); rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}
