package breaker

import (
	"errors"
	"time"
)

// Scope controls how many CircuitBreaker instances a Registry creates for
// one decorated service.
type Scope int

const (
	// ScopeService: one breaker for the whole service, shared by every method.
	ScopeService Scope = iota
	// ScopePerMethod: one breaker per "service#method" pair, created lazily.
	ScopePerMethod
)

func (s Scope) String() string {
	switch s {
	case ScopeService:
		return "SERVICE"
	case ScopePerMethod:
		return "PER_METHOD"
	default:
		return "UNKNOWN"
	}
}

// CircuitBreakerConfig is a validated configuration bundle. Construct one
// via NewConfigBuilder; the zero value is not valid.
type CircuitBreakerConfig struct {
	RemoteServiceName       string
	Scope                   Scope
	FailureRateThreshold    float64
	MinimumRequestThreshold uint64
	TrialRequestInterval    time.Duration
	CircuitOpenWindow       time.Duration
	CounterSlidingWindow    time.Duration
	CounterUpdateInterval   time.Duration
	FailureFilter           FailureFilter
	Clock                   Clock
}

// Package-recommended defaults.
const (
	DefaultFailureRateThreshold    = 0.8
	DefaultMinimumRequestThreshold = 10
	DefaultTrialRequestInterval    = 3 * time.Second
	DefaultCircuitOpenWindow       = 10 * time.Second
	DefaultCounterSlidingWindow    = 20 * time.Second
	DefaultCounterUpdateInterval   = 1 * time.Second
)

// ConfigBuilder builds a CircuitBreakerConfig with fluent setters,
// starting from the package's recommended defaults. Build() validates
// every invariant and returns an error rather than panicking, since
// configuration here may come from parsed, caller-controlled input
// (see the config package) rather than only from compiled-in call sites.
type ConfigBuilder struct {
	cfg CircuitBreakerConfig
}

// NewConfigBuilder starts a builder for the named remote service,
// pre-populated with the package defaults.
func NewConfigBuilder(remoteServiceName string) *ConfigBuilder {
	return &ConfigBuilder{cfg: CircuitBreakerConfig{
		RemoteServiceName:       remoteServiceName,
		Scope:                   ScopeService,
		FailureRateThreshold:    DefaultFailureRateThreshold,
		MinimumRequestThreshold: DefaultMinimumRequestThreshold,
		TrialRequestInterval:    DefaultTrialRequestInterval,
		CircuitOpenWindow:       DefaultCircuitOpenWindow,
		CounterSlidingWindow:    DefaultCounterSlidingWindow,
		CounterUpdateInterval:   DefaultCounterUpdateInterval,
		FailureFilter:           AcceptAllFilter,
		Clock:                   SystemClock{},
	}}
}

func (b *ConfigBuilder) WithScope(s Scope) *ConfigBuilder {
	b.cfg.Scope = s
	return b
}

func (b *ConfigBuilder) WithFailureRateThreshold(v float64) *ConfigBuilder {
	b.cfg.FailureRateThreshold = v
	return b
}

func (b *ConfigBuilder) WithMinimumRequestThreshold(v uint64) *ConfigBuilder {
	b.cfg.MinimumRequestThreshold = v
	return b
}

func (b *ConfigBuilder) WithTrialRequestInterval(d time.Duration) *ConfigBuilder {
	b.cfg.TrialRequestInterval = d
	return b
}

func (b *ConfigBuilder) WithCircuitOpenWindow(d time.Duration) *ConfigBuilder {
	b.cfg.CircuitOpenWindow = d
	return b
}

func (b *ConfigBuilder) WithCounterSlidingWindow(d time.Duration) *ConfigBuilder {
	b.cfg.CounterSlidingWindow = d
	return b
}

func (b *ConfigBuilder) WithCounterUpdateInterval(d time.Duration) *ConfigBuilder {
	b.cfg.CounterUpdateInterval = d
	return b
}

func (b *ConfigBuilder) WithFailureFilter(f FailureFilter) *ConfigBuilder {
	b.cfg.FailureFilter = f
	return b
}

func (b *ConfigBuilder) WithClock(c Clock) *ConfigBuilder {
	b.cfg.Clock = c
	return b
}

// Build validates the accumulated configuration and returns it, or an
// invalid-argument error describing the first violated invariant.
func (b *ConfigBuilder) Build() (*CircuitBreakerConfig, error) {
	cfg := b.cfg

	if cfg.RemoteServiceName == "" {
		return nil, errors.New("armory: RemoteServiceName must be non-empty")
	}
	if cfg.Scope != ScopeService && cfg.Scope != ScopePerMethod {
		return nil, errors.New("armory: Scope must be ScopeService or ScopePerMethod")
	}
	if cfg.FailureRateThreshold <= 0 || cfg.FailureRateThreshold > 1 {
		return nil, errors.New("armory: FailureRateThreshold must be in (0, 1]")
	}
	if cfg.TrialRequestInterval <= 0 {
		return nil, errors.New("armory: TrialRequestInterval must be > 0")
	}
	if cfg.CircuitOpenWindow <= 0 {
		return nil, errors.New("armory: CircuitOpenWindow must be > 0")
	}
	if cfg.CounterSlidingWindow <= 0 {
		return nil, errors.New("armory: CounterSlidingWindow must be > 0")
	}
	if cfg.CounterUpdateInterval <= 0 {
		return nil, errors.New("armory: CounterUpdateInterval must be > 0")
	}
	if cfg.CounterSlidingWindow <= cfg.CounterUpdateInterval {
		return nil, errors.New("armory: CounterSlidingWindow must be > CounterUpdateInterval")
	}
	if cfg.FailureFilter == nil {
		cfg.FailureFilter = AcceptAllFilter
	}
	if cfg.Clock == nil {
		cfg.Clock = SystemClock{}
	}

	return &cfg, nil
}
