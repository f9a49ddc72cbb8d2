package app_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-logr/logr"
	"github.com/go-logr/logr/funcr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/km-arc/go-inject/framework/app"
	"github.com/km-arc/go-inject/framework/config"
	"github.com/km-arc/go-inject/framework/container"
	"github.com/km-arc/go-inject/framework/inspect"
	"github.com/km-arc/go-inject/framework/metrics"
	"github.com/km-arc/go-inject/framework/providers"
	"github.com/km-arc/go-inject/framework/types"
)

type captured struct {
	mu    sync.Mutex
	lines []string
}

func (c *captured) logger() logr.Logger {
	return funcr.New(func(_, args string) {
		c.mu.Lock()
		defer c.mu.Unlock()
		c.lines = append(c.lines, args)
	}, funcr.Options{Verbosity: 1})
}

func (c *captured) text() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return strings.Join(c.lines, "\n")
}

func newApp(t *testing.T, opts ...app.Option) (*app.Application, *captured) {
	t.Helper()
	var logs captured
	base := []app.Option{app.WithEnvFiles("testdata/empty.env"), app.WithLogger(logs.logger())}
	a, err := app.New(append(base, opts...)...)
	require.NoError(t, err)
	return a, &logs
}

// ── New ──────────────────────────────────────────────────────────────────────

func TestNew_PublishesFrameworkBeans(t *testing.T) {
	a, _ := newApp(t)
	require.NoError(t, a.Boot(context.Background()))

	cfg, err := container.Resolve[*config.Config](a.Container)
	require.NoError(t, err)
	assert.Same(t, a.Config, cfg)

	_, err = container.Resolve[logr.Logger](a.Container)
	require.NoError(t, err)

	rec, err := container.Resolve[*metrics.Recorder](a.Container)
	require.NoError(t, err)
	assert.Same(t, a.Metrics, rec)

	_, ok, err := container.Lookup[*inspect.Server](a.Container)
	require.NoError(t, err)
	assert.False(t, ok, "inspector is off by default")
}

func TestNew_ResolverFromConfig(t *testing.T) {
	t.Setenv(config.EnvResolver, "strict")
	a, _ := newApp(t)
	assert.Equal(t, container.ResolverStrict, a.Resolver().Name())
}

func TestNew_InvalidConfig(t *testing.T) {
	t.Setenv(config.EnvResolver, "random")
	_, err := app.New(app.WithEnvFiles("testdata/empty.env"))

	var bag *config.Errors
	require.ErrorAs(t, err, &bag)
	assert.NotEmpty(t, bag.First(config.EnvResolver))
}

func TestNew_ConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "inject.yaml")
	require.NoError(t, os.WriteFile(path, []byte("container:\n  resolver: order\n  round_threshold: 1\n"), 0o600))

	a, _ := newApp(t, app.WithConfigFile(path))
	assert.Equal(t, container.ResolverOrder, a.Resolver().Name())
	assert.Equal(t, 1, a.Config.Container.RoundThreshold)

	_, err := app.New(app.WithEnvFiles("testdata/empty.env"), app.WithConfigFile(filepath.Join(t.TempDir(), "missing.yaml")))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

// ── Boot ─────────────────────────────────────────────────────────────────────

type greeter struct{ name string }

type greetModule struct{ booted bool }

func (m *greetModule) Providers() []container.Provider {
	return []container.Provider{
		providers.SingletonOf(func(c *container.Container) *greeter {
			cfg := container.MustResolve[*config.Config](c)
			return &greeter{name: cfg.App.Name}
		}),
	}
}

func (m *greetModule) Boot(c *container.Container) error {
	_, err := container.Resolve[*greeter](c)
	m.booted = err == nil
	return err
}

func TestBoot_UserModules(t *testing.T) {
	t.Setenv(config.EnvAppName, "Kernel")
	a, logs := newApp(t, app.WithTypes(types.NewUniverse().Declare("Circle", "Shape")))

	m := &greetModule{}
	require.NoError(t, a.Register(m))
	require.NoError(t, a.Add(providers.Instance(types.Of("Box", types.Of("Circle")), "round box")))

	require.NoError(t, a.Boot(context.Background()))
	require.NoError(t, a.Boot(context.Background()), "second boot is a no-op")
	assert.True(t, m.booted)

	g, err := container.Resolve[*greeter](a.Container)
	require.NoError(t, err)
	assert.Equal(t, "Kernel", g.name)

	v, err := a.Require(types.Of("Box", types.Of("Shape")))
	require.NoError(t, err)
	assert.Equal(t, "round box", v)

	assert.Contains(t, logs.text(), "container loaded")
}

// ── Run ──────────────────────────────────────────────────────────────────────

func TestRun_WithoutInspector(t *testing.T) {
	a, logs := newApp(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, a.Run(ctx))
	assert.True(t, a.Providers.Booted())
	assert.Contains(t, logs.text(), "application running")
}

func TestRun_ServesInspector(t *testing.T) {
	t.Setenv(config.EnvInspectorEnabled, "true")
	t.Setenv(config.EnvInspectorAddr, "127.0.0.1:0")
	a, logs := newApp(t)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	require.NoError(t, a.Run(ctx))
	assert.Contains(t, logs.text(), "inspector listening")
}

func TestEnvironmentHelpers(t *testing.T) {
	t.Setenv(config.EnvAppEnv, "testing")
	a, _ := newApp(t)

	assert.True(t, a.IsTesting())
	assert.False(t, a.IsLocal())
	assert.False(t, a.IsProduction())
	assert.False(t, a.IsDebug())
	assert.NotEmpty(t, a.Version())
	assert.NotNil(t, a.Gatherer())
}

func TestRegister_AfterBootHonoursConditions(t *testing.T) {
	a, _ := newApp(t)
	require.NoError(t, a.Boot(context.Background()))

	require.NoError(t, a.Register(&providers.InspectorModule{}))
	_, ok, err := container.Lookup[*inspect.Server](a.Container)
	require.NoError(t, err)
	assert.False(t, ok, "a late inspector module stays off while the inspector is disabled")
}
