package container

import (
	"cmp"
	"slices"
	"sync"

	"github.com/km-arc/go-inject/framework/types"
)

// binding is one registration indexed under one wire type.
type binding struct {
	reg  *registration
	wire types.TypeIdentifier
}

// partition tracks the providers of one concrete generic specialisation.
type partition struct {
	typ      types.TypeIdentifier
	primary  *binding
	bindings []*binding
}

// Bean is the set of providers registered for one erased root type.
//
// Providers are split into an optional primary, unqualified providers,
// qualified providers (one per qualifier) and typed partitions holding the
// providers of concrete generic specialisations such as Box[Circle]. Each
// partition has its own primary slot.
//
// Beans belong to their container. The exported methods are read-only and
// take the container's read lock.
type Bean struct {
	mu  *sync.RWMutex
	typ types.TypeIdentifier
	h   types.Hierarchy

	primary     *binding
	unqualified []*binding

	qualified  map[string]*binding
	qualifiers []types.QualifierType

	partitions    map[string]*partition
	partitionKeys []string
}

func newBean(mu *sync.RWMutex, typ types.TypeIdentifier, h types.Hierarchy) *Bean {
	return &Bean{
		mu:         mu,
		typ:        typ,
		h:          h,
		qualified:  make(map[string]*binding),
		partitions: make(map[string]*partition),
	}
}

// ── Registration (container holds the write lock) ─────────────────────────────

// check reports the conflict registering reg under wire would cause, without mutating b.
func (b *Bean) check(reg *registration, wire types.TypeIdentifier) error {
	p := reg.provider
	for _, q := range p.Qualifiers() {
		if cur, ok := b.qualified[q.Key()]; ok && cur.reg != reg {
			return &DuplicateQualifierError{Type: b.typ, Qualifier: q, Existing: cur.reg.name, Incoming: reg.name}
		}
	}
	if !p.Primary() {
		return nil
	}
	slot, scope := b.primary, scopeBean
	if wire.WillErase() {
		slot, scope = nil, "partition "+wire.Key()
		if part, ok := b.partitions[wire.Key()]; ok {
			slot = part.primary
		}
	}
	if slot != nil && slot.reg != reg {
		return &DuplicatePrimaryError{Type: b.typ, Scope: scope, Existing: slot.reg.name, Incoming: reg.name}
	}
	return nil
}

// add registers reg under wire. check must have passed.
func (b *Bean) add(reg *registration, wire types.TypeIdentifier) {
	p := reg.provider
	bd := &binding{reg: reg, wire: wire}

	quals := p.Qualifiers()
	for _, q := range quals {
		if _, ok := b.qualified[q.Key()]; ok {
			continue
		}
		b.qualified[q.Key()] = bd
		b.qualifiers = append(b.qualifiers, q)
	}

	switch {
	case p.Primary() && wire.WillErase():
		if part := b.partition(wire); part.primary == nil {
			part.primary = bd
		}
	case p.Primary():
		if b.primary == nil {
			b.primary = bd
		}
	case len(quals) > 0:
	case wire.WillErase():
		part := b.partition(wire)
		if !hasReg(part.bindings, reg) {
			part.bindings = append(part.bindings, bd)
		}
	default:
		if !hasReg(b.unqualified, reg) {
			b.unqualified = append(b.unqualified, bd)
		}
	}
}

func (b *Bean) partition(wire types.TypeIdentifier) *partition {
	part, ok := b.partitions[wire.Key()]
	if !ok {
		part = &partition{typ: wire}
		b.partitions[wire.Key()] = part
		b.partitionKeys = append(b.partitionKeys, wire.Key())
	}
	return part
}

func hasReg(bs []*binding, reg *registration) bool {
	return slices.ContainsFunc(bs, func(bd *binding) bool { return bd.reg == reg })
}

// ── Resolution (caller holds at least the read lock) ──────────────────────────

// get picks the single provider answering expected, or nil when there is none.
func (b *Bean) get(expected types.TypeIdentifier, r ConflictResolver) (Provider, error) {
	if b.primary != nil {
		return b.primary.reg.provider, nil
	}

	if expected.WillErase() {
		var prims, rest []*binding
		for _, part := range b.relevant(expected) {
			if part.primary != nil {
				prims = append(prims, part.primary)
			}
			rest = append(rest, part.bindings...)
		}
		if p, ok, err := b.pick(prims, expected, r); ok || err != nil {
			return p, err
		}
		if p, ok, err := b.pick(rest, expected, r); ok || err != nil {
			return p, err
		}
	}

	if len(b.unqualified) == 1 {
		return b.unqualified[0].reg.provider, nil
	}

	p, _, err := b.pick(b.candidates(expected), expected, r)
	return p, err
}

// pick reduces bindings to one provider, in registration order, asking r when
// more than one distinct registration remains.
func (b *Bean) pick(bs []*binding, expected types.TypeIdentifier, r ConflictResolver) (Provider, bool, error) {
	regs := distinct(bs)
	switch len(regs) {
	case 0:
		return nil, false, nil
	case 1:
		return regs[0].provider, true, nil
	}
	if r == nil {
		r = StrictResolver{}
	}
	ps := make([]Provider, len(regs))
	for i, reg := range regs {
		ps[i] = reg.provider
	}
	p, err := r.Find(ps, expected)
	if err != nil {
		return nil, false, err
	}
	if p == nil {
		return nil, false, BuildError(r, ps, 0, expected)
	}
	return p, true, nil
}

// candidates is the union of qualified, unqualified and relevant partition providers.
func (b *Bean) candidates(expected types.TypeIdentifier) []*binding {
	var out []*binding
	for _, q := range b.qualifiers {
		if bd := b.qualified[q.Key()]; b.compatible(bd.wire, expected) {
			out = append(out, bd)
		}
	}
	out = append(out, b.unqualified...)
	for _, part := range b.relevant(expected) {
		if part.primary != nil {
			out = append(out, part.primary)
		}
		out = append(out, part.bindings...)
	}
	return out
}

// relevant returns the partitions whose type satisfies expected, in creation order.
func (b *Bean) relevant(expected types.TypeIdentifier) []*partition {
	var out []*partition
	for _, k := range b.partitionKeys {
		if part := b.partitions[k]; part.typ.IsInstanceOf(expected, b.h) {
			out = append(out, part)
		}
	}
	return out
}

// compatible reports whether a provider wired as wire can answer expected.
// Raw wire types answer every specialisation of the Bean.
func (b *Bean) compatible(wire, expected types.TypeIdentifier) bool {
	return !wire.WillErase() || wire.IsInstanceOf(expected, b.h)
}

func (b *Bean) getQualified(q types.QualifierType) (Provider, bool) {
	bd, ok := b.qualified[q.Key()]
	if !ok {
		return nil, false
	}
	return bd.reg.provider, true
}

// bindings returns every binding of b.
func (b *Bean) bindings() []*binding {
	var out []*binding
	if b.primary != nil {
		out = append(out, b.primary)
	}
	for _, q := range b.qualifiers {
		out = append(out, b.qualified[q.Key()])
	}
	out = append(out, b.unqualified...)
	for _, k := range b.partitionKeys {
		part := b.partitions[k]
		if part.primary != nil {
			out = append(out, part.primary)
		}
		out = append(out, part.bindings...)
	}
	return out
}

// all returns the distinct providers compatible with concrete (every provider
// when concrete is zero), sorted by Order then registration.
func (b *Bean) all(concrete types.TypeIdentifier) []Provider {
	bs := b.bindings()
	if !concrete.IsZero() {
		bs = slices.DeleteFunc(bs, func(bd *binding) bool { return !b.compatible(bd.wire, concrete) })
	}
	regs := distinct(bs)
	slices.SortStableFunc(regs, func(x, y *registration) int {
		return cmp.Compare(x.provider.Order(), y.provider.Order())
	})
	out := make([]Provider, len(regs))
	for i, reg := range regs {
		out[i] = reg.provider
	}
	return out
}

// distinct de-duplicates bindings by registration and sorts by registration order.
func distinct(bs []*binding) []*registration {
	seen := make(map[*registration]bool, len(bs))
	var regs []*registration
	for _, bd := range bs {
		if !seen[bd.reg] {
			seen[bd.reg] = true
			regs = append(regs, bd.reg)
		}
	}
	slices.SortFunc(regs, func(x, y *registration) int { return cmp.Compare(x.seq, y.seq) })
	return regs
}

// ── Read-only API ─────────────────────────────────────────────────────────────

// Type returns the erased root type of the Bean.
func (b *Bean) Type() types.TypeIdentifier { return b.typ }

// Get resolves the single provider for expected, consulting r on ambiguity.
// ok is false when no provider applies.
func (b *Bean) Get(expected types.TypeIdentifier, r ConflictResolver) (p Provider, ok bool, err error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	p, err = b.get(expected, r)
	return p, p != nil, err
}

// GetQualified returns the provider registered under q.
func (b *Bean) GetQualified(q types.QualifierType) (Provider, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.getQualified(q)
}

// GetAll returns every distinct provider of the Bean.
func (b *Bean) GetAll() []Provider {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.all(types.TypeIdentifier{})
}

// GetAllOf returns the distinct providers able to answer concrete.
func (b *Bean) GetAllOf(concrete types.TypeIdentifier) []Provider {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.all(concrete)
}

// Primary returns the whole-Bean primary provider.
func (b *Bean) Primary() (Provider, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.primary == nil {
		return nil, false
	}
	return b.primary.reg.provider, true
}

// Unqualified returns the unqualified, non-primary providers in registration order.
func (b *Bean) Unqualified() []Provider {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]Provider, len(b.unqualified))
	for i, bd := range b.unqualified {
		out[i] = bd.reg.provider
	}
	return out
}

// Qualifiers returns the registered qualifiers in registration order.
func (b *Bean) Qualifiers() []types.QualifierType {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return slices.Clone(b.qualifiers)
}

// Partitions returns the concrete generic types the Bean is partitioned by.
func (b *Bean) Partitions() []types.TypeIdentifier {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]types.TypeIdentifier, len(b.partitionKeys))
	for i, k := range b.partitionKeys {
		out[i] = b.partitions[k].typ
	}
	return out
}

// PartitionPrimary returns the primary of the partition for t.
func (b *Bean) PartitionPrimary(t types.TypeIdentifier) (Provider, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	part, ok := b.partitions[t.Key()]
	if !ok || part.primary == nil {
		return nil, false
	}
	return part.primary.reg.provider, true
}

// Len returns the number of distinct providers.
func (b *Bean) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(distinct(b.bindings()))
}
