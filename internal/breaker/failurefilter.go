package breaker

// FailureFilter decides whether an observed failure cause should count
// toward the breaker's trip decision. Implementers may choose to ignore
// application-level errors (e.g. 404-equivalents) so they never count
// toward tripping.
//
// A nil cause is treated as "count it": ShouldDealWith is not even
// consulted for a nil cause by the decorator (see decorator.go) — a
// failure completion with no specific cause object still counts toward
// tripping, rather than being silently ignored; see DESIGN.md.
type FailureFilter interface {
	ShouldDealWith(cause error) bool
}

// acceptAllFilter is the default FailureFilter: every cause counts.
type acceptAllFilter struct{}

func (acceptAllFilter) ShouldDealWith(error) bool { return true }

// AcceptAllFilter is the default FailureFilter, accepting every cause.
var AcceptAllFilter FailureFilter = acceptAllFilter{}

// FailureFilterFunc adapts a plain function to a FailureFilter.
type FailureFilterFunc func(cause error) bool

// ShouldDealWith implements FailureFilter.
func (f FailureFilterFunc) ShouldDealWith(cause error) bool { return f(cause) }
