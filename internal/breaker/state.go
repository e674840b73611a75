package breaker

// breakerState is the immutable snapshot backing a CircuitBreaker: a
// tuple of (kind, counter, startMillis, timeoutMillis), plus probeID, set
// only while kind == HalfOpenState and only on the single admitted probe.
// It appears in the log line of the transition that admits the probe;
// the log line of the probe's outcome and the metrics do not carry it.
//
// State objects are never mutated. Transitions replace the breaker's
// single current *breakerState reference via compare-and-swap.
type breakerState struct {
	kind          CircuitState
	counter       EventCounter
	startMillis   int64
	timeoutMillis int64
	probeID       string
}

func newClosedState(clock Clock, windowMillis, updateIntervalMillis int64) *breakerState {
	return &breakerState{
		kind:          ClosedState,
		counter:       NewSlidingWindowCounter(clock, windowMillis, updateIntervalMillis),
		startMillis:   clock.CurrentMillis(),
		timeoutMillis: 0,
	}
}

func newOpenState(clock Clock, timeoutMillis int64) *breakerState {
	return &breakerState{
		kind:          OpenState,
		counter:       NoOpCounter,
		startMillis:   clock.CurrentMillis(),
		timeoutMillis: timeoutMillis,
	}
}

func newHalfOpenState(clock Clock, timeoutMillis int64, probeID string) *breakerState {
	return &breakerState{
		kind:          HalfOpenState,
		counter:       NoOpCounter,
		startMillis:   clock.CurrentMillis(),
		timeoutMillis: timeoutMillis,
		probeID:       probeID,
	}
}

// timedOut reports whether this state's timeout has elapsed as of now.
// CLOSED states have timeoutMillis == 0 and never time out.
func (s *breakerState) timedOut(now int64) bool {
	return s.timeoutMillis > 0 && s.startMillis+s.timeoutMillis <= now
}
