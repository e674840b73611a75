package armory

import "fmt"

// FailFastException is the sentinel failure surfaced when a call is
// short-circuited because its breaker refused CanRequest. It is the only
// error type this subsystem generates at runtime, and is recoverable by
// the caller, e.g. via a fallback path.
type FailFastException struct {
	RemoteServiceName string
	MethodName        string
}

func (e *FailFastException) Error() string {
	return fmt.Sprintf("armory: circuit open for %s#%s, failing fast", e.RemoteServiceName, e.MethodName)
}
