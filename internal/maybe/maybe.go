// Package maybe holds the result type used wherever an upstream value is
// allowed to be missing. A missing value is an expected outcome, so it is
// returned as data instead of as an error.
package maybe

// Value is either a present value of T or an absence. An absence may carry
// the reason it happened, which callers can surface on the diagnostic stream.
type Value[T any] struct {
	value   T
	present bool
	reason  error
}

// Some wraps a present value.
func Some[T any](v T) Value[T] {
	return Value[T]{value: v, present: true}
}

// None is an absence without a reason, used for data-shape gaps such as an
// empty candidate list.
func None[T any]() Value[T] {
	return Value[T]{}
}

// Failed is an absence caused by err.
func Failed[T any](err error) Value[T] {
	return Value[T]{reason: err}
}

// Get returns the value and whether it is present.
func (v Value[T]) Get() (T, bool) {
	return v.value, v.present
}

func (v Value[T]) Present() bool {
	return v.present
}

// Reason is nil for present values and for plain absences.
func (v Value[T]) Reason() error {
	return v.reason
}

// OrElse returns the value if present, otherwise fallback.
func (v Value[T]) OrElse(fallback T) T {
	if v.present {
		return v.value
	}
	return fallback
}
