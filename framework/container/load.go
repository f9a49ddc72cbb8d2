package container

import (
	"cmp"
	"context"
	"slices"
	"time"

	"github.com/go-logr/logr"
)

// LoadState is the container's lifecycle flag.
type LoadState int32

const (
	// Unloaded is the initial state, and the state after Clear.
	Unloaded LoadState = iota
	// Loading is held while Load runs, and kept after a failed Load.
	Loading
	// Loaded is terminal until Clear.
	Loaded
)

func (s LoadState) String() string {
	switch s {
	case Unloaded:
		return "unloaded"
	case Loading:
		return "loading"
	case Loaded:
		return "loaded"
	default:
		return "unknown"
	}
}

// MarshalText renders the state by name in JSON.
func (s LoadState) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// State returns the current lifecycle state.
func (c *Container) State() LoadState { return LoadState(c.state.Load()) }

// LoadResult describes what one Load call did. Calls that found the container
// already loaded, or lost the race to another caller, return the zero result.
type LoadResult struct {
	Duration time.Duration
	// Registered counts unconditional providers.
	Registered int
	// Applied counts conditional providers whose condition matched.
	Applied int
	// Rounds counts passes over the pending conditional providers.
	Rounds int
	// Unapplied counts conditional providers that never matched.
	Unapplied int
	// ThresholdExceeded is set when Rounds reached the configured threshold.
	ThresholdExceeded bool
}

// Load registers every provider of the source exactly once.
//
// Unconditional providers are registered first, by ascending Order. The
// conditional ones are then retried in rounds: each round evaluates the
// pending conditions in Order against the current state, registers those that
// match, and another round starts while the previous one applied something.
// Providers whose condition never matches stay unregistered.
//
// Concurrent callers collapse into one execution; the others block until it
// finishes and get the zero LoadResult. A failed Load keeps what it registered,
// stays in the Loading state and returns the same error until Clear.
//
// Diagnostics go to the logger in ctx (logr.NewContext) if there is one,
// otherwise to the container's logger.
func (c *Container) Load(ctx context.Context) (LoadResult, error) {
	if c.State() == Loaded {
		return LoadResult{}, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.State() {
	case Loaded:
		return LoadResult{}, nil
	case Loading:
		return LoadResult{}, c.loadErr
	}
	c.state.Store(int32(Loading))

	log := c.logger(ctx)
	start := time.Now()
	res, err := c.load(log)
	res.Duration = time.Since(start)
	c.applied += res.Applied
	c.rounds += res.Rounds
	if err != nil {
		c.loadErr = err
		log.Error(err, "container load failed", "registered", res.Registered, "applied", res.Applied, "rounds", res.Rounds)
		return res, err
	}

	c.state.Store(int32(Loaded))
	c.recorder.RecordLoad(res)
	log.V(1).Info("container loaded",
		"registered", res.Registered,
		"applied", res.Applied,
		"unapplied", res.Unapplied,
		"rounds", res.Rounds,
		"duration", res.Duration)
	return res, nil
}

func (c *Container) logger(ctx context.Context) logr.Logger {
	if ctx != nil {
		if l, err := logr.FromContext(ctx); err == nil {
			return l.WithValues("container", c.id)
		}
	}
	return c.log
}

func byOrder(a, b Provider) int { return cmp.Compare(a.Order(), b.Order()) }

// load runs the registration algorithm (must hold mu.Lock).
func (c *Container) load(log logr.Logger) (LoadResult, error) {
	if c.source == nil {
		return LoadResult{}, nil
	}
	return c.apply(c.source.All(), log)
}

// Apply registers a batch of providers into the container at any point of its
// lifecycle, with the same rules Load applies to its source: unconditional
// providers first by Order, then conditional ones in rounds against the
// current state. Providers whose condition never matches are not registered
// and are counted in Unapplied. It stops at the first error, keeping what was
// registered before it; the load state is left untouched.
func (c *Container) Apply(ctx context.Context, ps ...Provider) (LoadResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	log := c.logger(ctx)
	start := time.Now()
	res, err := c.apply(ps, log)
	res.Duration = time.Since(start)
	c.applied += res.Applied
	c.rounds += res.Rounds
	if err != nil {
		return res, err
	}
	log.V(1).Info("providers applied",
		"registered", res.Registered,
		"applied", res.Applied,
		"unapplied", res.Unapplied)
	return res, nil
}

// apply registers ps (must hold mu.Lock).
func (c *Container) apply(ps []Provider, log logr.Logger) (LoadResult, error) {
	var res LoadResult
	var unconditional, pending []Provider
	for _, p := range ps {
		switch {
		case p == nil:
			return res, ErrNilProvider
		case p.Condition() == nil:
			unconditional = append(unconditional, p)
		default:
			pending = append(pending, p)
		}
	}

	slices.SortStableFunc(unconditional, byOrder)
	for _, p := range unconditional {
		if err := c.registerLocked(p); err != nil {
			return res, err
		}
		res.Registered++
	}

	view := stateView{c}
	for len(pending) > 0 {
		slices.SortStableFunc(pending, byOrder)
		res.Rounds++

		applied := 0
		var next []Provider
		for _, p := range pending {
			ok, err := p.Condition().Matches(view)
			if err != nil {
				return res, &ConditionError{Provider: Describe(p), Err: err}
			}
			if !ok {
				next = append(next, p)
				continue
			}
			if err := c.registerLocked(p); err != nil {
				return res, err
			}
			applied++
			log.V(1).Info("conditional provider applied", "provider", Describe(p), "round", res.Rounds)
		}

		res.Applied += applied
		pending = next
		if applied == 0 {
			break
		}
	}
	res.Unapplied = len(pending)

	if c.threshold > 0 && res.Rounds >= c.threshold {
		res.ThresholdExceeded = true
		c.recorder.RecordRoundThresholdExceeded(res.Rounds)
		log.Info("conditional providers needed many rounds, consider ordering conditions so their dependencies sort first",
			"rounds", res.Rounds, "threshold", c.threshold, "applied", res.Applied)
	}
	return res, nil
}
