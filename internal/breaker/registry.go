package breaker

import (
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

// Registry maps a lookup key to a CircuitBreaker per the configured
// Scope: the service name itself (ScopeService) or "service#method"
// (ScopePerMethod). Entries are created on first use and never evicted.
// Get is on the decorator's hot path, so lookup for an already-created
// breaker never takes a lock.
type Registry struct {
	cfg CircuitBreakerConfig
	log *zap.SugaredLogger

	singleton atomic.Pointer[CircuitBreaker] // ScopeService
	methods   sync.Map                       // ScopePerMethod: string -> *CircuitBreaker
}

// NewRegistry creates a registry for the given validated config.
func NewRegistry(cfg CircuitBreakerConfig, log *zap.SugaredLogger) *Registry {
	return &Registry{cfg: cfg, log: log}
}

// Get resolves the CircuitBreaker for method, creating it on first use.
// Exactly one instance is ever installed per key, even under concurrent
// first-use races: a losing candidate is simply discarded.
func (r *Registry) Get(method string) *CircuitBreaker {
	if r.cfg.Scope == ScopeService {
		return r.getOrCreateServiceBreaker()
	}
	return r.getOrCreateMethodBreaker(method)
}

func (r *Registry) getOrCreateServiceBreaker() *CircuitBreaker {
	if cb := r.singleton.Load(); cb != nil {
		return cb
	}
	candidate := New(r.cfg, r.log)
	if r.singleton.CompareAndSwap(nil, candidate) {
		return candidate
	}
	return r.singleton.Load()
}

func (r *Registry) getOrCreateMethodBreaker(method string) *CircuitBreaker {
	key := fmt.Sprintf("%s#%s", r.cfg.RemoteServiceName, method)

	if v, ok := r.methods.Load(key); ok {
		return v.(*CircuitBreaker)
	}

	candidate := New(r.cfg, r.log)
	candidate.setKey(key)

	actual, _ := r.methods.LoadOrStore(key, candidate)
	return actual.(*CircuitBreaker)
}
