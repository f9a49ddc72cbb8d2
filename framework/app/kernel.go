package app

import (
	"context"
	"fmt"
	"os"

	"github.com/go-logr/logr"
	"github.com/go-logr/logr/funcr"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/km-arc/go-inject/framework/config"
	"github.com/km-arc/go-inject/framework/container"
	"github.com/km-arc/go-inject/framework/inspect"
	"github.com/km-arc/go-inject/framework/metrics"
	"github.com/km-arc/go-inject/framework/providers"
	"github.com/km-arc/go-inject/framework/types"
)

// Application is the top-level application container. It embeds the
// container so user code can call app.Register(), app.Get() and friends
// directly, and owns the config, logger and metrics the container runs with.
type Application struct {
	*container.Container
	Config    *config.Config
	Log       logr.Logger
	Metrics   *metrics.Recorder
	Providers *providers.Registry
	Types     *types.Universe

	gatherer prometheus.Gatherer
}

type settings struct {
	envFiles   []string
	configFile string
	logger     *logr.Logger
	registry   *prometheus.Registry
	universe   *types.Universe
}

// Option configures New.
type Option func(*settings)

// WithEnvFiles sets the .env files to load. Default: ".env".
func WithEnvFiles(files ...string) Option { return func(s *settings) { s.envFiles = files } }

// WithConfigFile overlays a YAML file onto the environment configuration.
func WithConfigFile(path string) Option { return func(s *settings) { s.configFile = path } }

// WithLogger replaces the default funcr logger writing to stderr.
func WithLogger(l logr.Logger) Option { return func(s *settings) { s.logger = &l } }

// WithRegistry sets the Prometheus registry. Default: a fresh registry.
func WithRegistry(r *prometheus.Registry) Option { return func(s *settings) { s.registry = r } }

// WithTypes sets the subtype declarations used for generic matching.
func WithTypes(u *types.Universe) Option { return func(s *settings) { s.universe = u } }

// New creates the application: config → logger → metrics → container, with
// the framework modules registered (config, logger, metrics, inspector).
// Providers are not loaded until Boot.
func New(opts ...Option) (*Application, error) {
	s := &settings{}
	for _, opt := range opts {
		opt(s)
	}

	cfg := config.Load(s.envFiles...)
	if s.configFile != "" {
		if err := cfg.LoadFile(s.configFile); err != nil {
			return nil, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log := newLogger(cfg)
	if s.logger != nil {
		log = *s.logger
	}

	reg := s.registry
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	rec := metrics.NewRecorder(&metrics.Config{Registry: reg})

	universe := s.universe
	if universe == nil {
		universe = types.NewUniverse()
	}
	resolver, err := container.ResolverByName(cfg.Container.Resolver, universe)
	if err != nil {
		return nil, err
	}

	registry := providers.NewRegistry()
	c := container.New(
		container.WithSource(registry),
		container.WithResolver(resolver),
		container.WithHierarchy(universe),
		container.WithLogger(log.WithName("container")),
		container.WithRecorder(rec),
		container.WithRoundThreshold(cfg.Container.RoundThreshold),
		container.WithProperties(cfg.Property),
	)

	app := &Application{
		Container: c,
		Config:    cfg,
		Log:       log,
		Metrics:   rec,
		Providers: registry,
		Types:     universe,
		gatherer:  reg,
	}

	// Framework modules
	for _, m := range []providers.Module{
		&providers.ConfigModule{Config: cfg},
		&providers.LoggingModule{Logger: log},
		&providers.MetricsModule{Recorder: rec, Gatherer: reg},
		&providers.InspectorModule{},
	} {
		if err := registry.Register(m); err != nil {
			return nil, err
		}
	}
	return app, nil
}

// newLogger builds the default funcr logger at the configured verbosity.
func newLogger(cfg *config.Config) logr.Logger {
	return funcr.New(func(prefix, args string) {
		if prefix != "" {
			fmt.Fprintf(os.Stderr, "%s: %s\n", prefix, args)
			return
		}
		fmt.Fprintln(os.Stderr, args)
	}, funcr.Options{
		Verbosity:    cfg.Container.LogVerbosity,
		LogTimestamp: !cfg.App.Debug,
	}).WithName(cfg.App.Name)
}

// Register adds a module to the application.
func (a *Application) Register(m providers.Module) error {
	return a.Providers.Register(m)
}

// Add adds individual providers to the application. After Boot they are
// applied to the loaded container straight away.
func (a *Application) Add(ps ...container.Provider) error {
	return a.Providers.Add(ps...)
}

// Boot loads the container and boots the modules. Safe to call more than once.
func (a *Application) Boot(ctx context.Context) error {
	res, err := a.Load(logr.NewContext(ctx, a.Log.WithName("container")))
	if err != nil {
		return err
	}
	if res.ThresholdExceeded {
		a.Log.V(1).Info("boot needed many conditional rounds", "rounds", res.Rounds)
	}
	return a.Providers.Boot(a.Container)
}

// Run boots the application (if needed) and serves the inspector when it is
// enabled, until ctx is cancelled.
func (a *Application) Run(ctx context.Context) error {
	if !a.Providers.Booted() {
		if err := a.Boot(ctx); err != nil {
			return err
		}
	}
	a.Log.Info("application running", "env", a.Config.App.Env, "beans", a.Stats().Beans)

	srv, ok, err := container.Lookup[*inspect.Server](a.Container)
	if err != nil {
		return err
	}
	if !ok {
		<-ctx.Done()
		return nil
	}
	return srv.Serve(ctx, a.Config.Inspector.Addr)
}

// Gatherer returns the registry the container metrics are registered with.
func (a *Application) Gatherer() prometheus.Gatherer { return a.gatherer }

// Environment returns APP_ENV value.
func (a *Application) Environment() string { return a.Config.App.Env }
func (a *Application) IsLocal() bool       { return a.Environment() == "local" }
func (a *Application) IsProduction() bool  { return a.Environment() == "production" }
func (a *Application) IsTesting() bool     { return a.Environment() == "testing" }
func (a *Application) IsDebug() bool       { return a.Config.App.Debug }
func (a *Application) Version() string     { return "0.1.0" }
