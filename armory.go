// Package armory provides a client-side circuit breaker that protects a
// caller from cascading failures when talking to a remote service.
//
// # Overview
//
// When the remote service's observed failure rate over a recent sliding
// time window exceeds a threshold, the breaker trips and fails calls
// fast locally instead of letting them queue up against an unresponsive
// dependency. The breaker periodically admits a single probe request to
// detect recovery before returning to normal operation.
//
// # Circuit States
//
// The breaker operates in three states:
//
//   - CLOSED: normal operation; requests pass through and outcomes are
//     counted by a concurrent sliding-window counter.
//   - OPEN: tripped; requests fail fast with a FailFastException until
//     the configured open window elapses.
//   - HALF_OPEN: probationary; exactly one probe request is admitted per
//     trial interval to test for recovery.
//
// # Quick Start
//
//	cfg, err := armory.NewConfigBuilder("user-service").
//		WithFailureRateThreshold(0.5).
//		WithMinimumRequestThreshold(10).
//		Build()
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	decorate := armory.Decorate(*cfg, nil)
//	protected := decorate(myInvoker)
//
//	future, err := protected.Invoke(ctx, "user-service", nil, "GetUser", codec, userID)
//
// # Scoping
//
// A CircuitBreakerConfig's Scope controls how many breakers a decorator
// creates: ScopeService shares one breaker across every method on the
// service; ScopePerMethod creates (and caches) one breaker per method,
// so a failing method can trip independently of its siblings.
//
// # Thread Safety
//
// CanRequest, OnSuccess, and OnFailure are all non-blocking and safe for
// concurrent use. State transitions are serialized with compare-and-swap
// over a single atomic pointer to an immutable state snapshot; there is
// no lock in the hot path.
package armory

import (
	"go.uber.org/zap"

	"github.com/vnykmshr/armory/internal/breaker"
)

// Core Types

// CircuitBreaker implements the three-state circuit breaker described in
// the package doc. See internal/breaker for the implementation.
type CircuitBreaker = breaker.CircuitBreaker

// CircuitState is one of ClosedState, OpenState, HalfOpenState.
type CircuitState = breaker.CircuitState

// EventCount is an immutable (success, failure) pair with derived
// Total() and FailureRate().
type EventCount = breaker.EventCount

// EventCounter is the abstraction a breaker reports outcomes to.
type EventCounter = breaker.EventCounter

// FailureFilter decides whether an observed cause should count toward
// tripping the circuit.
type FailureFilter = breaker.FailureFilter

// FailureFilterFunc adapts a function to a FailureFilter.
type FailureFilterFunc = breaker.FailureFilterFunc

// Scope controls how many breakers a decorator creates per service.
type Scope = breaker.Scope

// CircuitBreakerConfig is a validated configuration bundle. Build one
// with NewConfigBuilder.
type CircuitBreakerConfig = breaker.CircuitBreakerConfig

// ConfigBuilder builds a CircuitBreakerConfig with fluent setters.
type ConfigBuilder = breaker.ConfigBuilder

// Clock is a pluggable millisecond time source.
type Clock = breaker.Clock

// BreakerSnapshot is a read-only view of a breaker's current state and counts.
type BreakerSnapshot = breaker.BreakerSnapshot

// Registry maps a lookup key (service, or service#method under
// ScopePerMethod) to a CircuitBreaker, creating entries on first use.
type Registry = breaker.Registry

// State Constants

const (
	// ClosedState indicates normal operation.
	ClosedState = breaker.ClosedState
	// OpenState indicates the circuit has tripped.
	OpenState = breaker.OpenState
	// HalfOpenState indicates the circuit is probing for recovery.
	HalfOpenState = breaker.HalfOpenState

	// ScopeService: one breaker shared by every method of the service.
	ScopeService = breaker.ScopeService
	// ScopePerMethod: one breaker per "service#method" pair.
	ScopePerMethod = breaker.ScopePerMethod
)

// EventCountZero is the well-known (0, 0) EventCount.
var EventCountZero = breaker.EventCountZero

// NewRegistry creates a Registry for the given validated config. log may
// be nil for a silent breaker.
var NewRegistry = breaker.NewRegistry

// AcceptAllFilter is the default FailureFilter: every cause counts.
var AcceptAllFilter = breaker.AcceptAllFilter

// NoOpCounter is the EventCounter used while OPEN/HALF_OPEN.
var NoOpCounter = breaker.NoOpCounter

// SystemClock is the default wall-clock Clock.
type SystemClock = breaker.SystemClock

// ManualClock is a test Clock that only advances when told to.
type ManualClock = breaker.ManualClock

// NewManualClock creates a ManualClock pinned at startMillis.
var NewManualClock = breaker.NewManualClock

// Constructors

// NewConfigBuilder starts a builder for remoteServiceName, pre-populated
// with spec-recommended defaults (FailureRateThreshold 0.8,
// MinimumRequestThreshold 10, TrialRequestInterval 3s, CircuitOpenWindow
// 10s, CounterSlidingWindow 20s, CounterUpdateInterval 1s, ScopeService,
// AcceptAllFilter).
var NewConfigBuilder = breaker.NewConfigBuilder

// New creates a standalone CircuitBreaker in CLOSED state from a
// validated config. Most callers should prefer Decorate, which also
// manages the Registry and the FailFastException fail-fast path; New is
// exposed for callers that want to drive CanRequest/OnSuccess/OnFailure
// directly. log may be nil, in which case transitions are not logged.
func New(cfg CircuitBreakerConfig, log *zap.SugaredLogger) *CircuitBreaker {
	return breaker.New(cfg, log)
}
