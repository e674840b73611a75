package breaker

import (
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CircuitBreaker is a three-state (CLOSED/OPEN/HALF_OPEN) breaker built
// over a single atomic pointer to an immutable breakerState, exposing
// three non-blocking operations: CanRequest, OnSuccess, OnFailure.
// Readers always see a consistent snapshot; transitions replace the
// pointer via CAS and never mutate a published state in place.
//
// Do not construct directly; use New.
type CircuitBreaker struct {
	serviceName string // bare remote service name, for FailFastException
	key         string // registry lookup/log identifier; == serviceName unless ScopePerMethod
	config      CircuitBreakerConfig
	clock       Clock
	log         *zap.SugaredLogger

	current atomic.Pointer[breakerState]
}

// New creates a CircuitBreaker in CLOSED state with a fresh counter. log
// may be nil, in which case transitions are logged to a no-op sink.
func New(cfg CircuitBreakerConfig, log *zap.SugaredLogger) *CircuitBreaker {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	clock := cfg.Clock
	if clock == nil {
		clock = SystemClock{}
	}

	cb := &CircuitBreaker{
		serviceName: cfg.RemoteServiceName,
		key:         cfg.RemoteServiceName,
		config:      cfg,
		clock:       clock,
		log:         log,
	}
	cb.current.Store(newClosedState(clock, cfg.CounterSlidingWindow.Milliseconds(), cfg.CounterUpdateInterval.Milliseconds()))
	return cb
}

// Name returns the configured remote service name. Under ScopePerMethod
// this is the bare service name, not the registry's "service#method"
// lookup key (see setKey).
func (cb *CircuitBreaker) Name() string {
	return cb.serviceName
}

// setKey overrides the identifier used for logging and Registry lookups,
// independent of the bare service name Name() reports. Used by Registry
// to install the "service#method" composite key under ScopePerMethod.
func (cb *CircuitBreaker) setKey(key string) {
	cb.key = key
}

// State returns the current circuit state. Point-in-time: may change
// immediately after this call returns.
func (cb *CircuitBreaker) State() CircuitState {
	return cb.current.Load().kind
}

// BreakerSnapshot is a read-only view of the breaker's current state,
// used by the metrics package and by callers that just want to observe,
// not drive, the state machine.
type BreakerSnapshot struct {
	State CircuitState
	Count EventCount
}

// Snapshot returns a read-only view of the current state and its counts.
func (cb *CircuitBreaker) Snapshot() BreakerSnapshot {
	s := cb.current.Load()
	return BreakerSnapshot{State: s.kind, Count: s.counter.GetCount()}
}

// CanRequest reports whether the caller may proceed. In CLOSED, always
// true. In OPEN or HALF_OPEN, true only for the caller that wins the race
// to admit the next probe once the current state's timeout has elapsed;
// every other concurrent caller sees false.
func (cb *CircuitBreaker) CanRequest() bool {
	s := cb.current.Load()

	switch s.kind {
	case ClosedState:
		return true
	case OpenState, HalfOpenState:
		now := cb.clock.CurrentMillis()
		if !s.timedOut(now) {
			return false
		}
		next := newHalfOpenState(cb.clock, cb.config.TrialRequestInterval.Milliseconds(), uuid.NewString())
		if cb.current.CompareAndSwap(s, next) {
			cb.logTransition(s.kind, next)
			return true
		}
		// Lost the CAS; the winning caller is the admitted probe. Do not
		// retry within this call.
		return false
	default:
		return false
	}
}

// OnSuccess reports a successful outcome.
func (cb *CircuitBreaker) OnSuccess() {
	s := cb.current.Load()

	switch s.kind {
	case ClosedState:
		s.counter.OnSuccess()
	case HalfOpenState:
		next := newClosedState(cb.clock, cb.config.CounterSlidingWindow.Milliseconds(), cb.config.CounterUpdateInterval.Milliseconds())
		if cb.current.CompareAndSwap(s, next) {
			cb.logTransition(s.kind, next)
		}
	case OpenState:
		// ignored
	}
}

// OnFailure reports a failed outcome.
func (cb *CircuitBreaker) OnFailure() {
	s := cb.current.Load()

	switch s.kind {
	case ClosedState:
		s.counter.OnFailure()
		count := s.counter.GetCount()
		if cb.config.MinimumRequestThreshold <= count.Total() && cb.config.FailureRateThreshold < count.FailureRate() {
			next := newOpenState(cb.clock, cb.config.CircuitOpenWindow.Milliseconds())
			if cb.current.CompareAndSwap(s, next) {
				cb.logTransitionWithCount(s.kind, next, count)
			}
		}
	case HalfOpenState:
		next := newOpenState(cb.clock, cb.config.CircuitOpenWindow.Milliseconds())
		if cb.current.CompareAndSwap(s, next) {
			cb.logTransition(s.kind, next)
		}
	case OpenState:
		// ignored
	}
}

// logTransition emits the single required Info line for a transition
// landing on a state with no associated count (every transition except
// CLOSED->OPEN, which carries the triggering counts).
func (cb *CircuitBreaker) logTransition(from CircuitState, to *breakerState) {
	cb.log.Infow(fmt.Sprintf("name:%s state:%s fail:- total:-", cb.key, to.kind),
		"breaker", cb.key, "from", from.String(), "to", to.kind.String(), "probeID", to.probeID)
}

func (cb *CircuitBreaker) logTransitionWithCount(from CircuitState, to *breakerState, count EventCount) {
	cb.log.Infow(fmt.Sprintf("name:%s state:%s fail:%d total:%d", cb.key, to.kind, count.Failure, count.Total()),
		"breaker", cb.key, "from", from.String(), "to", to.kind.String(),
		"fail", count.Failure, "total", count.Total())
}
