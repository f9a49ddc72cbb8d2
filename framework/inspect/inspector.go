// Package inspect serves a read-only JSON view of a container over HTTP.
//
//	GET /beans            every Bean with its providers
//	GET /beans/{type}     one Bean, {type} being a type key such as Box[Circle]
//	GET /resolve/{type}   the provider an unqualified query for {type} picks
//	GET /stats            load state and counters
//	GET /metrics          Prometheus exposition, when a gatherer is configured
//
// Type keys contain slashes for package paths; they are matched as the whole
// path tail and may be URL-escaped.
package inspect

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/go-logr/logr"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/km-arc/go-inject/framework/container"
	"github.com/km-arc/go-inject/framework/types"
)

// Server is the inspector's http.Handler.
type Server struct {
	c        *container.Container
	log      logr.Logger
	gatherer prometheus.Gatherer
	router   *Router
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(l logr.Logger) Option { return func(s *Server) { s.log = l } }

// WithGatherer exposes the gatherer's metrics on /metrics.
func WithGatherer(g prometheus.Gatherer) Option { return func(s *Server) { s.gatherer = g } }

// New builds the inspector for c.
func New(c *container.Container, opts ...Option) *Server {
	s := &Server{c: c, log: logr.Discard()}
	for _, opt := range opts {
		opt(s)
	}

	r := NewRouter(s.log)
	r.Get("/beans", s.beans)
	r.Get("/beans/*", s.bean)
	r.Get("/resolve/*", s.resolve)
	r.Get("/stats", s.stats)
	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) { NewResponse(w).NotFound() })
	s.router = r
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { s.router.ServeHTTP(w, r) }

// Serve listens on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.ServeListener(ctx, ln)
}

// ServeListener is Serve on an existing listener.
func (s *Server) ServeListener(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{Handler: s, ReadHeaderTimeout: 5 * time.Second}
	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ln) }()
	s.log.Info("inspector listening", "addr", ln.Addr().String())

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

// ── Views ─────────────────────────────────────────────────────────────────────

// BeanView is the JSON rendering of a Bean.
type BeanView struct {
	Type        string            `json:"type"`
	Primary     string            `json:"primary,omitempty"`
	Unqualified []string          `json:"unqualified"`
	Qualified   map[string]string `json:"qualified"`
	Partitions  []PartitionView   `json:"partitions"`
	Providers   []ProviderView    `json:"providers"`
}

// PartitionView is one typed partition of a Bean.
type PartitionView struct {
	Type    string `json:"type"`
	Primary string `json:"primary,omitempty"`
}

// ProviderView describes one provider.
type ProviderView struct {
	Name        string   `json:"name"`
	Type        string   `json:"type"`
	Order       int      `json:"order"`
	Primary     bool     `json:"primary"`
	Conditional bool     `json:"conditional"`
	Qualifiers  []string `json:"qualifiers,omitempty"`
}

func viewProvider(p container.Provider) ProviderView {
	v := ProviderView{
		Name:        container.Describe(p),
		Type:        p.Type().Key(),
		Order:       p.Order(),
		Primary:     p.Primary(),
		Conditional: p.Condition() != nil,
	}
	for _, q := range p.Qualifiers() {
		v.Qualifiers = append(v.Qualifiers, q.String())
	}
	return v
}

func viewBean(b *container.Bean) BeanView {
	v := BeanView{
		Type:        b.Type().Key(),
		Unqualified: []string{},
		Qualified:   map[string]string{},
		Partitions:  []PartitionView{},
	}
	if p, ok := b.Primary(); ok {
		v.Primary = container.Describe(p)
	}
	for _, p := range b.Unqualified() {
		v.Unqualified = append(v.Unqualified, container.Describe(p))
	}
	for _, q := range b.Qualifiers() {
		if p, ok := b.GetQualified(q); ok {
			v.Qualified[q.String()] = container.Describe(p)
		}
	}
	for _, t := range b.Partitions() {
		pv := PartitionView{Type: t.Key()}
		if p, ok := b.PartitionPrimary(t); ok {
			pv.Primary = container.Describe(p)
		}
		v.Partitions = append(v.Partitions, pv)
	}
	for _, p := range b.GetAll() {
		v.Providers = append(v.Providers, viewProvider(p))
	}
	return v
}

// ── Handlers ──────────────────────────────────────────────────────────────────

func (s *Server) beans(w http.ResponseWriter, _ *http.Request) {
	beans := s.c.Beans()
	out := make([]BeanView, 0, len(beans))
	for _, b := range beans {
		out = append(out, viewBean(b))
	}
	NewResponse(w).Success(out)
}

// lookup parses the type in the path tail and finds its Bean, writing the
// error response itself when it cannot.
func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (types.TypeIdentifier, *container.Bean, bool) {
	res := NewResponse(w)
	t, err := types.Parse(Tail(r))
	if err != nil {
		res.BadRequest(err.Error())
		return t, nil, false
	}
	b, ok, err := s.c.Access(t)
	if err != nil {
		res.BadRequest(err.Error())
		return t, nil, false
	}
	if !ok {
		res.NotFound("No bean for " + t.Key() + ".")
		return t, nil, false
	}
	return t, b, true
}

func (s *Server) bean(w http.ResponseWriter, r *http.Request) {
	if _, b, ok := s.lookup(w, r); ok {
		NewResponse(w).Success(viewBean(b))
	}
}

func (s *Server) resolve(w http.ResponseWriter, r *http.Request) {
	t, b, ok := s.lookup(w, r)
	if !ok {
		return
	}
	res := NewResponse(w)
	p, ok, err := b.Get(t, s.c.Resolver())
	var amb *container.AmbiguousResolutionError
	switch {
	case errors.As(err, &amb):
		res.Conflict(err.Error(), amb.Candidates)
	case err != nil:
		res.Error(http.StatusInternalServerError, err.Error())
	case !ok:
		res.NotFound("No provider answers " + t.Key() + ".")
	default:
		res.Success(map[string]any{
			"query":    t.Key(),
			"resolver": s.c.Resolver().Name(),
			"provider": viewProvider(p),
		})
	}
}

func (s *Server) stats(w http.ResponseWriter, _ *http.Request) {
	NewResponse(w).Success(s.c.Stats())
}
