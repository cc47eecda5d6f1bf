// Package outcome carries results of best-effort operations that can
// degrade to a fallback value instead of failing.
package outcome

// Result is either a success or a degraded value with the cause that forced
// the fallback. Hard failures are reported as plain errors, never as a Result.
type Result[T any] struct {
	Value T
	Cause error
}

func Success[T any](v T) Result[T] {
	return Result[T]{Value: v}
}

func Degraded[T any](v T, cause error) Result[T] {
	return Result[T]{Value: v, Cause: cause}
}

func (r Result[T]) IsDegraded() bool {
	return r.Cause != nil
}
