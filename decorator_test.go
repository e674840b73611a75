package armory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFuture struct {
	observer func(Outcome)
}

func (f *fakeFuture) OnComplete(observer func(Outcome)) {
	f.observer = observer
}

func (f *fakeFuture) complete(o Outcome) {
	if f.observer != nil {
		f.observer(o)
	}
}

type fakeInvoker struct {
	future     *fakeFuture
	err        error
	calls      int
	lastMethod string
}

func (f *fakeInvoker) Invoke(ctx context.Context, endpoint string, options any, method string, codec Codec, args any) (Future, error) {
	f.calls++
	f.lastMethod = method
	if f.err != nil {
		return nil, f.err
	}
	return f.future, nil
}

type fakeCodec struct {
	prepared bool
}

func (c *fakeCodec) PrepareRequest(method string, args any, failed Future) {
	c.prepared = true
}

func testDecorateConfig(t *testing.T, clock Clock, filter FailureFilter) CircuitBreakerConfig {
	t.Helper()
	b := NewConfigBuilder("billing-service").
		WithFailureRateThreshold(0.5).
		WithMinimumRequestThreshold(2).
		WithTrialRequestInterval(time.Second).
		WithCircuitOpenWindow(time.Second).
		WithCounterSlidingWindow(20 * time.Second).
		WithCounterUpdateInterval(time.Second).
		WithClock(clock)
	if filter != nil {
		b.WithFailureFilter(filter)
	}
	cfg, err := b.Build()
	require.NoError(t, err)
	return *cfg
}

func TestDecorateForwardsSuccessAndCountsIt(t *testing.T) {
	clock := NewManualClock(0)
	delegate := &fakeInvoker{future: &fakeFuture{}}
	protected := Decorate(testDecorateConfig(t, clock, nil), nil)(delegate)

	future, err := protected.Invoke(context.Background(), "ep", nil, "Charge", nil, nil)
	require.NoError(t, err)

	var got Outcome
	future.OnComplete(func(o Outcome) { got = o })
	delegate.future.complete(Outcome{Success: true, Result: "ok"})

	assert.True(t, got.Success)
	assert.Equal(t, "ok", got.Result)
}

func TestDecorateFailFastWhenBreakerOpen(t *testing.T) {
	clock := NewManualClock(0)
	delegate := &fakeInvoker{future: &fakeFuture{}}
	decorate := Decorate(testDecorateConfig(t, clock, nil), nil)
	protected := decorate(delegate)

	// Trip the breaker via failures through the decorator itself. The third
	// failure, after a clock advance, rotates the breaker's active bucket and
	// publishes the snapshot the trip check reads.
	for i := 0; i < 3; i++ {
		if i == 2 {
			clock.Advance(time.Second) // == CounterUpdateInterval
		}
		delegateFuture := &fakeFuture{}
		delegate.future = delegateFuture
		_, err := protected.Invoke(context.Background(), "ep", nil, "Charge", nil, nil)
		require.NoError(t, err)
		delegateFuture.complete(Outcome{Success: false, Cause: errors.New("boom")})
	}

	codec := &fakeCodec{}
	calls := delegate.calls
	future, err := protected.Invoke(context.Background(), "ep", nil, "Charge", codec, nil)
	require.NoError(t, err)
	assert.Equal(t, calls, delegate.calls, "delegate should not have been called while the breaker is open")
	assert.True(t, codec.prepared, "Codec.PrepareRequest must be invoked on the fail-fast path")

	var got Outcome
	future.OnComplete(func(o Outcome) { got = o })
	assert.False(t, got.Success, "fail-fast completion must report failure")

	var ffe *FailFastException
	require.ErrorAs(t, got.Cause, &ffe, "fail-fast completion must carry a *FailFastException")
	assert.Equal(t, "Charge", ffe.MethodName)
}

func TestDecorateFailureFilterExcludesCause(t *testing.T) {
	clock := NewManualClock(0)
	ignoreNotFound := FailureFilterFunc(func(cause error) bool {
		return cause.Error() != "not found"
	})
	delegate := &fakeInvoker{future: &fakeFuture{}}
	protected := Decorate(testDecorateConfig(t, clock, ignoreNotFound), nil)(delegate)

	// Three "not found" failures, the last after a bucket rotation, must not
	// count toward tripping.
	for i := 0; i < 3; i++ {
		if i == 2 {
			clock.Advance(time.Second) // == CounterUpdateInterval
		}
		_, err := protected.Invoke(context.Background(), "ep", nil, "Lookup", nil, nil)
		require.NoError(t, err)
		delegate.future.complete(Outcome{Success: false, Cause: errors.New("not found")})
		delegate.future = &fakeFuture{}
	}

	future, err := protected.Invoke(context.Background(), "ep", nil, "Lookup", nil, nil)
	require.NoError(t, err)
	var got Outcome
	future.OnComplete(func(o Outcome) { got = o })
	delegate.future.complete(Outcome{Success: false, Cause: errors.New("not found")})
	assert.False(t, got.Success, "this probe should still reach the delegate and report its own outcome")
	assert.EqualError(t, got.Cause, "not found", "the outcome must be the delegate's, not a fail-fast")
}

func TestDecorateNilCauseStillCountsAsFailure(t *testing.T) {
	clock := NewManualClock(0)
	delegate := &fakeInvoker{future: &fakeFuture{}}
	protected := Decorate(testDecorateConfig(t, clock, nil), nil)(delegate)

	for i := 0; i < 3; i++ {
		if i == 2 {
			clock.Advance(time.Second) // == CounterUpdateInterval
		}
		_, err := protected.Invoke(context.Background(), "ep", nil, "Charge", nil, nil)
		require.NoError(t, err)
		delegate.future.complete(Outcome{Success: false, Cause: nil})
		delegate.future = &fakeFuture{}
	}

	codec := &fakeCodec{}
	_, err := protected.Invoke(context.Background(), "ep", nil, "Charge", codec, nil)
	require.NoError(t, err)
	assert.True(t, codec.prepared, "breaker should have tripped from nil-cause failures, expected fail-fast path")
}

func TestDecoratePropagatesDelegateInvokeError(t *testing.T) {
	clock := NewManualClock(0)
	delegate := &fakeInvoker{err: errors.New("connection refused")}
	protected := Decorate(testDecorateConfig(t, clock, nil), nil)(delegate)

	_, err := protected.Invoke(context.Background(), "ep", nil, "Charge", nil, nil)
	assert.Error(t, err, "expected the delegate's Invoke error to propagate")
}

func TestFailFastExceptionError(t *testing.T) {
	err := &FailFastException{RemoteServiceName: "billing-service", MethodName: "Charge"}
	assert.Equal(t, "armory: circuit open for billing-service#Charge, failing fast", err.Error())
}
