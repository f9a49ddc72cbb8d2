package providers

import (
	"net/http"

	"github.com/go-logr/logr"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/km-arc/go-inject/framework/config"
	"github.com/km-arc/go-inject/framework/container"
	"github.com/km-arc/go-inject/framework/inspect"
	"github.com/km-arc/go-inject/framework/metrics"
	"github.com/km-arc/go-inject/framework/types"
)

// Order of the framework modules' providers; application providers default to 0.
const FrameworkOrder = -100

// ── ConfigModule ──────────────────────────────────────────────────────────────

// ConfigModule publishes the application configuration.
//
// Provides:
//   - *config.Config  (Config if set, otherwise loaded from EnvFiles on first use)
type ConfigModule struct {
	Config   *config.Config
	EnvFiles []string
}

func (m *ConfigModule) Providers() []container.Provider {
	if m.Config != nil {
		return []container.Provider{
			InstanceOf(m.Config, Called("config"), Order(FrameworkOrder)),
		}
	}
	envFiles := m.EnvFiles
	return []container.Provider{
		SingletonOf(func(*container.Container) *config.Config {
			return config.Load(envFiles...)
		}, Called("config"), Order(FrameworkOrder)),
	}
}

// ── LoggingModule ─────────────────────────────────────────────────────────────

// LoggingModule publishes the application logger.
//
// Provides:
//   - logr.Logger
type LoggingModule struct {
	Logger logr.Logger
}

func (m *LoggingModule) Providers() []container.Provider {
	return []container.Provider{
		InstanceOf(m.Logger, Called("logger"), Order(FrameworkOrder)),
	}
}

// ── MetricsModule ─────────────────────────────────────────────────────────────

// MetricsModule publishes the container metrics recorder and the gatherer
// the inspector exposes on /metrics.
//
// Provides:
//   - *metrics.Recorder
//   - prometheus.Gatherer
type MetricsModule struct {
	Recorder *metrics.Recorder
	Gatherer prometheus.Gatherer
}

func (m *MetricsModule) Providers() []container.Provider {
	var ps []container.Provider
	if m.Recorder != nil {
		ps = append(ps, InstanceOf(m.Recorder, Called("metrics"), Order(FrameworkOrder)))
	}
	if m.Gatherer != nil {
		ps = append(ps, InstanceOf(m.Gatherer, Called("gatherer"), Order(FrameworkOrder)))
	}
	return ps
}

// ── InspectorModule ───────────────────────────────────────────────────────────

// InspectorModule registers the HTTP inspector when INJECT_INSPECTOR_ENABLED
// is "true" and a logger is available. It picks up a prometheus.Gatherer if
// one is registered.
//
// Provides (conditionally):
//   - *inspect.Server, also wired as http.Handler
type InspectorModule struct{}

// InspectorCondition gates the inspector.
func InspectorCondition() container.Condition {
	return container.All(
		container.OnProperty(config.EnvInspectorEnabled, "true"),
		container.OnBean(types.TypeOf[logr.Logger]()),
	)
}

func (m *InspectorModule) Providers() []container.Provider {
	return []container.Provider{
		SingletonOf(func(c *container.Container) *inspect.Server {
			opts := []inspect.Option{}
			if log, ok, _ := container.Lookup[logr.Logger](c); ok {
				opts = append(opts, inspect.WithLogger(log.WithName("inspector")))
			}
			if g, ok, _ := container.Lookup[prometheus.Gatherer](c); ok {
				opts = append(opts, inspect.WithGatherer(g))
			}
			return inspect.New(c, opts...)
		},
			Called("inspector"),
			Order(FrameworkOrder),
			As(types.TypeOf[http.Handler]()),
			When(InspectorCondition()),
		),
	}
}
