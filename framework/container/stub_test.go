package container_test

import (
	"sync"

	"github.com/go-logr/logr"
	"github.com/go-logr/logr/funcr"

	"github.com/km-arc/go-inject/framework/container"
	"github.com/km-arc/go-inject/framework/types"
)

// ── stub providers ────────────────────────────────────────────────────────────

// stub is a configurable provider; it produces its own name unless value is set.
type stub struct {
	container.BaseProvider
	name    string
	typ     types.TypeIdentifier
	wires   []types.TypeIdentifier
	quals   []types.QualifierType
	primary bool
	order   int
	cond    container.Condition
	value   any
	absent  bool
}

func newStub(name, typ string, opts ...func(*stub)) *stub {
	return typedStub(name, types.MustParse(typ), opts...)
}

func typedStub(name string, typ types.TypeIdentifier, opts ...func(*stub)) *stub {
	s := &stub{name: name, typ: typ}
	for _, o := range opts {
		o(s)
	}
	return s
}

func primary(s *stub) { s.primary = true }

func qualified(qs ...types.QualifierType) func(*stub) {
	return func(s *stub) { s.quals = append(s.quals, qs...) }
}

func wiredAs(ts ...string) func(*stub) {
	return func(s *stub) {
		for _, t := range ts {
			s.wires = append(s.wires, types.MustParse(t))
		}
	}
}

func ordered(n int) func(*stub) { return func(s *stub) { s.order = n } }

func when(c container.Condition) func(*stub) { return func(s *stub) { s.cond = c } }

func valued(v any) func(*stub) { return func(s *stub) { s.value = v } }

func absent(s *stub) { s.absent = true }

func (s *stub) Type() types.TypeIdentifier                  { return s.typ }
func (s *stub) AdditionalWireTypes() []types.TypeIdentifier { return s.wires }
func (s *stub) Qualifiers() []types.QualifierType           { return s.quals }
func (s *stub) Primary() bool                               { return s.primary }
func (s *stub) Order() int                                  { return s.order }
func (s *stub) Condition() container.Condition              { return s.cond }
func (s *stub) String() string                              { return s.name }

func (s *stub) Get(*container.Container, types.TypeIdentifier) (any, bool) {
	if s.absent {
		return nil, false
	}
	if s.value != nil {
		return s.value, true
	}
	return s.name, true
}

// ── helpers ───────────────────────────────────────────────────────────────────

func id(s string) types.TypeIdentifier { return types.MustParse(s) }

func boxHierarchy() *types.Universe {
	return types.NewUniverse().
		Declare("ImplementationAA", "Interface").
		Declare("ImplementationBB", "Interface")
}

// logSink collects funcr output lines.
type logSink struct {
	mu    sync.Mutex
	lines []string
}

func (s *logSink) logger(verbosity int) logr.Logger {
	return funcr.New(func(prefix, args string) {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.lines = append(s.lines, args)
	}, funcr.Options{Verbosity: verbosity})
}

func (s *logSink) all() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.lines...)
}
