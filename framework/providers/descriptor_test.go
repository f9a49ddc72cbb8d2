package providers_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/km-arc/go-inject/framework/container"
	"github.com/km-arc/go-inject/framework/providers"
	"github.com/km-arc/go-inject/framework/types"
)

type shape interface{ Area() float64 }

type circle struct{ r float64 }

func (c *circle) Area() float64 { return 3 * c.r * c.r }

// ── Options ──────────────────────────────────────────────────────────────────

func TestDescriptor_Options(t *testing.T) {
	cond := container.Never()
	d := providers.Instance(types.Of("Circle"), "c",
		providers.Named("round"),
		providers.Primary(),
		providers.Order(7),
		providers.When(cond),
		providers.As(types.Of("Shape")),
	)

	assert.Equal(t, "Circle", d.Type().Key())
	assert.Equal(t, []types.QualifierType{types.Named("round")}, d.Qualifiers())
	assert.True(t, d.Primary())
	assert.Equal(t, 7, d.Order())
	assert.NotNil(t, d.Condition())
	require.Len(t, d.AdditionalWireTypes(), 1)
	assert.Equal(t, "Shape", d.AdditionalWireTypes()[0].Key())
}

func TestDescriptor_String(t *testing.T) {
	assert.Equal(t, "Circle", providers.Instance(types.Of("Circle"), 1).String())
	assert.Equal(t, "mine", providers.Instance(types.Of("Circle"), 1, providers.Called("mine")).String())
	assert.Equal(t, `Circle[@Named(value="x")]`, providers.Instance(types.Of("Circle"), 1, providers.Named("x")).String())
}

// ── Lifetimes ────────────────────────────────────────────────────────────────

func TestFactory_CalledEveryTime(t *testing.T) {
	var calls atomic.Int32
	c := container.New()
	require.NoError(t, c.Register(providers.FactoryOf(func(*container.Container) *circle {
		calls.Add(1)
		return &circle{r: 1}
	})))

	a := container.MustResolve[*circle](c)
	b := container.MustResolve[*circle](c)
	assert.NotSame(t, a, b)
	assert.Equal(t, int32(2), calls.Load())
}

func TestSingleton_CachedOnce(t *testing.T) {
	var calls atomic.Int32
	c := container.New()
	require.NoError(t, c.Register(providers.SingletonOf(func(*container.Container) *circle {
		calls.Add(1)
		return &circle{r: 2}
	})))

	var wg sync.WaitGroup
	got := make([]*circle, 16)
	for i := range got {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got[i] = container.MustResolve[*circle](c)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	for _, g := range got {
		assert.Same(t, got[0], g)
	}
}

func TestFactory_NilIsAbsent(t *testing.T) {
	c := container.New()
	require.NoError(t, c.RegisterAll(
		providers.FactoryOf(func(*container.Container) *circle { return nil }),
		providers.Factory(types.Of("Nothing"), func(*container.Container) any { return nil }),
	))

	_, ok, err := container.Lookup[*circle](c)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = c.Require(types.Of("Nothing"))
	assert.ErrorIs(t, err, container.ErrNotFound)
}

// TestFactory_ResolvesDependencies verifies factories may query the container.
func TestFactory_ResolvesDependencies(t *testing.T) {
	c := container.New()
	require.NoError(t, c.RegisterAll(
		providers.InstanceOf(2.0, providers.Named("radius")),
		providers.SingletonOf(func(c *container.Container) *circle {
			r, err := container.ResolveNamed[float64](c, "radius")
			if err != nil {
				return nil
			}
			return &circle{r: r}
		}, providers.As(types.TypeOf[shape]())),
	))

	s, err := container.Resolve[shape](c)
	require.NoError(t, err)
	assert.Equal(t, 12.0, s.Area())
}

func TestDescriptor_ConditionalThroughLoad(t *testing.T) {
	src := providers.NewRegistry(
		providers.InstanceOf(&circle{r: 1}),
		providers.Instance(types.Of("Fallback"), "fb", providers.When(container.OnMissingBean(types.TypeOf[*circle]()))),
		providers.Instance(types.Of("Extra"), "ex", providers.When(container.OnBean(types.TypeOf[*circle]()))),
	)
	c := container.New(container.WithSource(src))

	res, err := c.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Applied)
	assert.Equal(t, 1, res.Unapplied)
	assert.True(t, c.Contains(types.Of("Extra")))
	assert.False(t, c.Contains(types.Of("Fallback")))
}
