package armory

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/vnykmshr/armory/internal/breaker"
)

// Outcome is how a Future reports completion. Success is the normal
// case (Result populated, Cause nil). A failure completion normally
// carries a non-nil Cause, but a failure completion with a nil Cause
// still counts toward tripping the circuit — it is not silently
// dropped.
type Outcome struct {
	Success bool
	Result  any
	Cause   error
}

// Future is the minimal shape of an asynchronous completion this package
// needs: the ability to attach a read-only observer. The real
// request/response future type lives in the RPC layer, out of scope for
// this package — Future is the narrow interface that layer must satisfy
// for the decorator to work.
type Future interface {
	// OnComplete registers an observer called exactly once, when the
	// future completes. Registering an observer must never alter the
	// outcome seen by the original caller or by any other observer.
	OnComplete(func(Outcome))
}

// Codec is the out-of-scope request codec collaborator. PrepareRequest
// is invoked only on the fail-fast path, so callers relying on a
// codec-initiated side effect (e.g. recording a synthetic request)
// still see it even when the breaker short-circuits the call.
type Codec interface {
	PrepareRequest(method string, args any, failed Future)
}

// Invoker is the out-of-scope RPC/transport collaborator this decorator
// wraps. endpoint and options are opaque to this package; it only needs
// method (for PER_METHOD scoping) and the Codec (for the fail-fast path).
type Invoker interface {
	Invoke(ctx context.Context, endpoint string, options any, method string, codec Codec, args any) (Future, error)
}

// localFuture is a Future backed by a small observer list, used both as
// the decorator's fail-fast completion and as the paired local future
// that forwards a delegate's outcome verbatim. It is the one place in
// this package that takes a lock: an external-collaborator shim, not
// part of the breaker's non-blocking hot path.
type localFuture struct {
	mu        sync.Mutex
	completed bool
	outcome   Outcome
	observers []func(Outcome)
}

func newLocalFuture() *localFuture {
	return &localFuture{}
}

// OnComplete implements Future.
func (f *localFuture) OnComplete(observer func(Outcome)) {
	f.mu.Lock()
	if f.completed {
		outcome := f.outcome
		f.mu.Unlock()
		observer(outcome)
		return
	}
	f.observers = append(f.observers, observer)
	f.mu.Unlock()
}

// complete fulfils the future exactly once, notifying every registered
// observer with the identical outcome.
func (f *localFuture) complete(outcome Outcome) {
	f.mu.Lock()
	if f.completed {
		f.mu.Unlock()
		return
	}
	f.completed = true
	f.outcome = outcome
	observers := f.observers
	f.mu.Unlock()

	for _, observer := range observers {
		observer(outcome)
	}
}

// decoratedInvoker wraps a delegate Invoker with circuit breaker
// protection.
type decoratedInvoker struct {
	delegate Invoker
	registry *Registry
	filter   FailureFilter
}

// Decorate returns a factory that wraps any Invoker with circuit breaker
// protection scoped by cfg.Scope. log may be nil for a silent breaker.
//
// For each call, the decorator resolves a breaker from the registry
// (one per service, or one per service#method under ScopePerMethod),
// consults CanRequest, and either fails fast with a FailFastException or
// forwards to the delegate and attaches a completion observer that feeds
// the outcome back into OnSuccess/OnFailure.
func Decorate(cfg CircuitBreakerConfig, log *zap.SugaredLogger) func(Invoker) Invoker {
	registry := breaker.NewRegistry(cfg, log)
	filter := cfg.FailureFilter
	if filter == nil {
		filter = AcceptAllFilter
	}

	return func(delegate Invoker) Invoker {
		return &decoratedInvoker{delegate: delegate, registry: registry, filter: filter}
	}
}

// Invoke implements Invoker.
func (d *decoratedInvoker) Invoke(ctx context.Context, endpoint string, options any, method string, codec Codec, args any) (Future, error) {
	cb := d.registry.Get(method)

	if !cb.CanRequest() {
		failed := newLocalFuture()
		if codec != nil {
			codec.PrepareRequest(method, args, failed)
		}
		failed.complete(Outcome{Success: false, Cause: &FailFastException{
			RemoteServiceName: cb.Name(),
			MethodName:        method,
		}})
		return failed, nil
	}

	delegateFuture, err := d.delegate.Invoke(ctx, endpoint, options, method, codec, args)
	if err != nil {
		return nil, err
	}

	// Forward the delegate's outcome verbatim through a paired local
	// future, so attaching our observer never mutates what the original
	// caller sees.
	forwarded := newLocalFuture()
	delegateFuture.OnComplete(func(outcome Outcome) {
		switch {
		case outcome.Success:
			cb.OnSuccess()
		case outcome.Cause == nil || d.filter.ShouldDealWith(outcome.Cause):
			cb.OnFailure()
		}
		forwarded.complete(outcome)
	})

	return forwarded, nil
}
