package container

import (
	"os"
	"slices"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/go-logr/logr"
	"github.com/google/uuid"

	"github.com/km-arc/go-inject/framework/types"
)

// ── Reference types ───────────────────────────────────────────────────────────

var (
	// ContainerType is the type the container binds itself under.
	ContainerType = types.TypeOf[*Container]()

	// BeanType and ProviderType are reference types: they name the container's
	// own bookkeeping, not something a provider produces, so queries for them
	// fail with ErrInvalidQuery.
	BeanType     = types.TypeOf[*Bean]()
	ProviderType = types.TypeOf[Provider]()
)

// IsReferenceType reports whether t names a Bean or Provider wrapper.
func IsReferenceType(t types.TypeIdentifier) bool {
	base := strings.TrimPrefix(t.Erasure().Key(), "*")
	return base == strings.TrimPrefix(BeanType.Key(), "*") || base == ProviderType.Key()
}

// ── Container ─────────────────────────────────────────────────────────────────

// PropertySource looks up configuration properties for OnProperty conditions.
type PropertySource func(key string) (string, bool)

// Container maps erased types to Beans and owns the load lifecycle.
//
// One sync.RWMutex guards all state: queries share it, Register, Load and
// Clear take it exclusively. Provider factories are called outside the lock so
// they may resolve their own dependencies from the container.
type Container struct {
	mu    sync.RWMutex
	state atomic.Int32

	id    string
	beans map[string]*Bean

	seq           uint64
	registrations int
	applied       int
	rounds        int
	loadErr       error

	source     Source
	resolver   ConflictResolver
	hierarchy  types.Hierarchy
	log        logr.Logger
	recorder   Recorder
	threshold  int
	properties PropertySource
}

// Option configures a Container.
type Option func(*Container)

// WithSource sets the providers Load registers.
func WithSource(s Source) Option {
	return func(c *Container) { c.source = s }
}

// WithResolver sets the conflict resolver used on ambiguous queries.
func WithResolver(r ConflictResolver) Option {
	return func(c *Container) { c.resolver = r }
}

// WithHierarchy sets the subtype declarations used for generic matching.
func WithHierarchy(h types.Hierarchy) Option {
	return func(c *Container) { c.hierarchy = h }
}

// WithLogger sets the logger for registration and load diagnostics.
func WithLogger(l logr.Logger) Option {
	return func(c *Container) { c.log = l }
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(c *Container) { c.recorder = r }
}

// WithRoundThreshold sets the number of conditional rounds at which Load
// reports a diagnostic. Zero disables it.
func WithRoundThreshold(n int) Option {
	return func(c *Container) { c.threshold = n }
}

// WithProperties sets where OnProperty conditions read from. Defaults to the environment.
func WithProperties(p PropertySource) Option {
	return func(c *Container) { c.properties = p }
}

// DefaultRoundThreshold is the round count at which Load warns by default.
const DefaultRoundThreshold = 5

// New creates a container. It is bound to itself under ContainerType.
//
//	c := container.New(
//	    container.WithSource(registry),
//	    container.WithResolver(container.StrictResolver{}),
//	    container.WithLogger(log),
//	)
func New(opts ...Option) *Container {
	c := &Container{
		id:         uuid.NewString(),
		beans:      make(map[string]*Bean),
		hierarchy:  types.NewUniverse(),
		log:        logr.Discard(),
		recorder:   nopRecorder{},
		threshold:  DefaultRoundThreshold,
		properties: os.LookupEnv,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.resolver == nil {
		c.resolver = StandardResolver{Hierarchy: c.hierarchy}
	}
	c.log = c.log.WithValues("container", c.id)
	c.bindSelf()
	return c
}

func (c *Container) bindSelf() {
	_ = c.registerLocked(selfProvider{c: c})
}

// ID returns the container's instance id, as used in its log lines.
func (c *Container) ID() string { return c.id }

// Hierarchy returns the subtype declarations the container matches with.
func (c *Container) Hierarchy() types.Hierarchy { return c.hierarchy }

// Resolver returns the active conflict resolver.
func (c *Container) Resolver() ConflictResolver { return c.resolver }

// ── Registration ──────────────────────────────────────────────────────────────

// Register adds one provider. It is valid before, during and after Load.
// A conflict leaves every Bean as it was.
func (c *Container) Register(p Provider) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.registerLocked(p)
}

// RegisterAll adds providers in order, stopping at the first error.
func (c *Container) RegisterAll(ps ...Provider) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, p := range ps {
		if err := c.registerLocked(p); err != nil {
			return err
		}
	}
	return nil
}

// registerLocked is the internal registration helper (must hold mu.Lock).
func (c *Container) registerLocked(p Provider) error {
	if p == nil {
		return ErrNilProvider
	}
	reg := &registration{provider: p, seq: c.seq + 1, name: Describe(p)}
	wires := wireTypes(p)

	// Validate against every target Bean before touching any of them.
	for _, w := range wires {
		if b, ok := c.beans[w.Erasure().Key()]; ok {
			if err := b.check(reg, w); err != nil {
				return err
			}
		}
	}

	c.seq++
	for _, w := range wires {
		c.beanFor(w.Erasure()).add(reg, w)
	}
	c.registrations++
	c.recorder.RecordRegistration(p.Type())
	c.log.V(2).Info("provider registered", "provider", reg.name, "type", p.Type().Key(), "wires", len(wires))
	return nil
}

func (c *Container) beanFor(erased types.TypeIdentifier) *Bean {
	b, ok := c.beans[erased.Key()]
	if !ok {
		b = newBean(&c.mu, erased, c.hierarchy)
		c.beans[erased.Key()] = b
	}
	return b
}

// ── Access ────────────────────────────────────────────────────────────────────

// Access returns the Bean for t's erasure.
func (c *Container) Access(t types.TypeIdentifier) (*Bean, bool, error) {
	if IsReferenceType(t) {
		return nil, false, &InvalidQueryError{Type: t}
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	b, ok := c.beans[t.Erasure().Key()]
	return b, ok, nil
}

// AccessOrCreate returns the Bean for t's erasure, creating an empty one if needed.
func (c *Container) AccessOrCreate(t types.TypeIdentifier) (*Bean, error) {
	if IsReferenceType(t) {
		return nil, &InvalidQueryError{Type: t}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.beanFor(t.Erasure()), nil
}

// Beans returns a snapshot of all Beans sorted by type.
func (c *Container) Beans() []*Bean {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*Bean, 0, len(c.beans))
	for _, b := range c.beans {
		out = append(out, b)
	}
	slices.SortFunc(out, func(x, y *Bean) int { return strings.Compare(x.typ.Key(), y.typ.Key()) })
	return out
}

// ── Resolution ────────────────────────────────────────────────────────────────

// provider resolves the single provider for t under the read lock.
func (c *Container) provider(t types.TypeIdentifier) (Provider, error) {
	if IsReferenceType(t) {
		c.recorder.RecordResolution(OutcomeInvalid)
		return nil, &InvalidQueryError{Type: t}
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	b, ok := c.beans[t.Erasure().Key()]
	if !ok {
		return nil, nil
	}
	p, err := b.get(t, c.resolver)
	if err != nil {
		c.recorder.RecordResolution(OutcomeAmbiguous)
	}
	return p, err
}

// Get resolves the instance for t. ok is false when nothing applies.
//
//	v, ok, err := c.Get(types.Of("shapes.Box", types.Of("shapes.Circle")))
func (c *Container) Get(t types.TypeIdentifier) (any, bool, error) {
	p, err := c.provider(t)
	if err != nil || p == nil {
		if p == nil && err == nil {
			c.recorder.RecordResolution(OutcomeAbsent)
		}
		return nil, false, err
	}
	return c.instance(p, t)
}

// Require is Get for callers that cannot continue without an instance:
// absence is reported as a NotFoundError.
func (c *Container) Require(t types.TypeIdentifier) (any, error) {
	v, ok, err := c.Get(t)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &NotFoundError{Type: t}
	}
	return v, nil
}

// GetQualified resolves the instance registered for t under q.
func (c *Container) GetQualified(t types.TypeIdentifier, q types.QualifierType) (any, bool, error) {
	if IsReferenceType(t) {
		c.recorder.RecordResolution(OutcomeInvalid)
		return nil, false, &InvalidQueryError{Type: t}
	}
	c.mu.RLock()
	var p Provider
	if b, ok := c.beans[t.Erasure().Key()]; ok {
		p, _ = b.getQualified(q)
	}
	c.mu.RUnlock()

	if p == nil {
		c.recorder.RecordResolution(OutcomeAbsent)
		return nil, false, nil
	}
	return c.instance(p, t)
}

// GetAll resolves every instance available for t, in provider order.
// Providers that produce nothing are skipped.
func (c *Container) GetAll(t types.TypeIdentifier) ([]any, error) {
	if IsReferenceType(t) {
		c.recorder.RecordResolution(OutcomeInvalid)
		return nil, &InvalidQueryError{Type: t}
	}
	c.mu.RLock()
	var ps []Provider
	if b, ok := c.beans[t.Erasure().Key()]; ok {
		ps = b.all(t)
	}
	c.mu.RUnlock()

	out := make([]any, 0, len(ps))
	for _, p := range ps {
		if v, ok := p.Get(c, t); ok {
			out = append(out, v)
		}
	}
	return out, nil
}

func (c *Container) instance(p Provider, t types.TypeIdentifier) (any, bool, error) {
	v, ok := p.Get(c, t)
	if !ok {
		c.recorder.RecordResolution(OutcomeAbsent)
		return nil, false, nil
	}
	c.recorder.RecordResolution(OutcomeFound)
	return v, true, nil
}

// ── View ──────────────────────────────────────────────────────────────────────

// Contains reports whether at least one provider satisfies t.
func (c *Container) Contains(t types.TypeIdentifier) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return stateView{c}.Contains(t)
}

// ContainsQualified reports whether a provider is registered for t under q.
func (c *Container) ContainsQualified(t types.TypeIdentifier, q types.QualifierType) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return stateView{c}.ContainsQualified(t, q)
}

// Property looks up a configuration property.
func (c *Container) Property(key string) (string, bool) {
	return c.properties(key)
}

// stateView reads container state without locking; the caller holds the lock.
type stateView struct{ c *Container }

func (v stateView) Contains(t types.TypeIdentifier) bool {
	b, ok := v.c.beans[t.Erasure().Key()]
	return ok && len(b.all(t)) > 0
}

func (v stateView) ContainsQualified(t types.TypeIdentifier, q types.QualifierType) bool {
	b, ok := v.c.beans[t.Erasure().Key()]
	if !ok {
		return false
	}
	_, ok = b.getQualified(q)
	return ok
}

func (v stateView) Property(key string) (string, bool) { return v.c.properties(key) }

// ── Lifecycle helpers ─────────────────────────────────────────────────────────

// Clear empties the container and resets it to Unloaded. Instances already
// handed out are unaffected. The container is re-bound to itself.
func (c *Container) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.beans = make(map[string]*Bean)
	c.registrations = 0
	c.applied = 0
	c.rounds = 0
	c.loadErr = nil
	c.state.Store(int32(Unloaded))
	c.bindSelf()
	c.log.V(1).Info("container cleared")
}

// Stats is a snapshot of the container's bookkeeping.
type Stats struct {
	ID            string    `json:"id"`
	State         LoadState `json:"state"`
	Beans         int       `json:"beans"`
	Registrations int       `json:"registrations"`
	Applied       int       `json:"applied"`
	Rounds        int       `json:"rounds"`
}

// Stats returns the current counters.
func (c *Container) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Stats{
		ID:            c.id,
		State:         c.State(),
		Beans:         len(c.beans),
		Registrations: c.registrations,
		Applied:       c.applied,
		Rounds:        c.rounds,
	}
}
