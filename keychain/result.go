package keychain

// Result is the outcome of an operation, for callers that would rather
// inspect a value than branch on a returned error at the call site.
type Result[T any] struct {
	value T
	err   error
}

// Success wraps v.
func Success[T any](v T) Result[T] { return Result[T]{value: v} }

// Failure wraps err.
func Failure[T any](err error) Result[T] { return Result[T]{err: err} }

func resultOf[T any](v T, err error) Result[T] {
	if err != nil {
		return Failure[T](err)
	}
	return Success(v)
}

// OK reports whether the operation succeeded.
func (r Result[T]) OK() bool { return r.err == nil }

// Value returns the value, which is the zero value on failure.
func (r Result[T]) Value() T { return r.value }

// Err returns the failure, or nil.
func (r Result[T]) Err() error { return r.err }

// Unwrap returns the value and the error in the usual Go shape.
func (r Result[T]) Unwrap() (T, error) { return r.value, r.err }

// GetResult is Get returning a Result.
func GetResult[T any](kc *Keychain, key Key[T]) Result[T] {
	return resultOf(Get(kc, key))
}

// GetOrResult is GetOr returning a Result.
func GetOrResult[T any](kc *Keychain, key Key[T], def T) Result[T] {
	return resultOf(GetOr(kc, key, def))
}

// SetResult is Set returning a Result.
func SetResult[T any](kc *Keychain, key Key[T], value T) Result[struct{}] {
	return resultOf(struct{}{}, Set(kc, key, value))
}

// RemoveResult is Remove returning a Result.
func RemoveResult[T any](kc *Keychain, key Key[T]) Result[struct{}] {
	return resultOf(struct{}{}, Remove(kc, key))
}

// RemoveAllResult is RemoveAll returning a Result.
func (kc *Keychain) RemoveAllResult() Result[struct{}] {
	return resultOf(struct{}{}, kc.RemoveAll())
}
