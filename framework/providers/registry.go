package providers

import (
	"context"
	"fmt"
	"reflect"
	"slices"
	"sync"

	"github.com/km-arc/go-inject/framework/container"
)

// ── Module ────────────────────────────────────────────────────────────────────

// Module groups related providers, the way a service provider groups its bindings.
//
//	type MailModule struct{ Host string }
//
//	func (m *MailModule) Providers() []container.Provider {
//	    return []container.Provider{
//	        providers.SingletonOf(func(c *container.Container) *Mailer { return NewMailer(m.Host) }),
//	    }
//	}
type Module interface {
	Providers() []container.Provider
}

// Booter is implemented by modules that need the loaded container, e.g. to
// start background work with resolved dependencies.
type Booter interface {
	Boot(c *container.Container) error
}

// ── Registry ──────────────────────────────────────────────────────────────────

// Registry is the manual provider source: it collects descriptors and modules
// in declaration order and hands them to container.Load. The same pointer is
// only ever added once.
type Registry struct {
	mu         sync.Mutex
	modules    []Module
	providers  []container.Provider
	registered map[any]bool
	app        *container.Container
}

var _ container.Source = (*Registry)(nil)

// NewRegistry creates a registry holding ps.
func NewRegistry(ps ...container.Provider) *Registry {
	r := &Registry{registered: make(map[any]bool)}
	r.add(ps)
	return r
}

// Add appends providers. Pointers already added are skipped. After Boot, the
// new providers are applied to the booted container, so conditional ones are
// only registered if their condition matches.
func (r *Registry) Add(ps ...container.Provider) error {
	r.mu.Lock()
	fresh := r.add(ps)
	app := r.app
	r.mu.Unlock()

	if app == nil || len(fresh) == 0 {
		return nil
	}
	if _, err := app.Apply(context.Background(), fresh...); err != nil {
		return fmt.Errorf("providers: add: %w", err)
	}
	return nil
}

// add records ps and returns the ones not seen before.
func (r *Registry) add(ps []container.Provider) []container.Provider {
	var fresh []container.Provider
	for _, p := range ps {
		if r.seen(p) {
			continue
		}
		r.providers = append(r.providers, p)
		fresh = append(fresh, p)
	}
	return fresh
}

// seen records v and reports whether it was already recorded. Only pointers
// have an identity; other values are never de-duplicated.
func (r *Registry) seen(v any) bool {
	if v == nil || reflect.ValueOf(v).Kind() != reflect.Pointer {
		return false
	}
	if r.registered[v] {
		return true
	}
	r.registered[v] = true
	return false
}

// Register adds a module's providers. Registering the same module twice is a
// no-op. After Boot, the providers are applied to the booted container (a
// conditional provider whose condition does not match is left out) and the
// module is booted immediately.
func (r *Registry) Register(m Module) error {
	r.mu.Lock()
	if r.seen(m) {
		r.mu.Unlock()
		return nil
	}
	r.modules = append(r.modules, m)
	fresh := r.add(m.Providers())
	app := r.app
	r.mu.Unlock()

	if app == nil {
		return nil
	}
	if _, err := app.Apply(context.Background(), fresh...); err != nil {
		return fmt.Errorf("providers: register %T: %w", m, err)
	}
	return boot(app, m)
}

// All implements container.Source.
func (r *Registry) All() []container.Provider {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.providers)
}

// Boot calls Boot on every module implementing Booter, in registration order.
// Must be called after the container is loaded; later calls are no-ops.
func (r *Registry) Boot(c *container.Container) error {
	r.mu.Lock()
	if r.app != nil {
		r.mu.Unlock()
		return nil
	}
	r.app = c
	modules := slices.Clone(r.modules)
	r.mu.Unlock()

	for _, m := range modules {
		if err := boot(c, m); err != nil {
			return err
		}
	}
	return nil
}

func boot(c *container.Container, m Module) error {
	b, ok := m.(Booter)
	if !ok {
		return nil
	}
	if err := b.Boot(c); err != nil {
		return fmt.Errorf("providers: boot %T: %w", m, err)
	}
	return nil
}

// Booted returns true if Boot() has been called.
func (r *Registry) Booted() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.app != nil
}

// Modules returns the registered modules in registration order.
func (r *Registry) Modules() []Module {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.modules)
}
