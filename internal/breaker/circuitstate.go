package breaker

// CircuitState is the tagged variant over a breaker's three possible
// modes.
type CircuitState int32

const (
	// ClosedState: normal operation, requests pass, outcomes counted.
	ClosedState CircuitState = iota
	// OpenState: tripped, requests fail-fast until the open window elapses.
	OpenState
	// HalfOpenState: probationary, one probe at a time is admitted.
	HalfOpenState
)

func (s CircuitState) String() string {
	switch s {
	case ClosedState:
		return "CLOSED"
	case OpenState:
		return "OPEN"
	case HalfOpenState:
		return "HALF_OPEN"
	default:
		return "UNKNOWN"
	}
}
