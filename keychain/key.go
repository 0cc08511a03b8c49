package keychain

import "time"

// Key is a typed item descriptor. Keys are values: declare them once as
// package-level variables and share them freely.
//
//	var (
//		Username = keychain.StringKey("username")
//		Age      = keychain.IntKey("age").WithDefault(18)
//	)
type Key[T any] struct {
	name       string
	bridge     Bridge[T]
	def        T
	hasDefault bool
	attrs      Attributes
}

// NewKey declares a key stored with bridge.
func NewKey[T any](name string, bridge Bridge[T]) Key[T] {
	return Key[T]{name: name, bridge: bridge}
}

// WithDefault returns a copy of k that reads as v when no item is stored.
func (k Key[T]) WithDefault(v T) Key[T] {
	k.def = v
	k.hasDefault = true
	return k
}

// WithAttributes returns a copy of k whose set attributes override the
// Keychain's for this key.
func (k Key[T]) WithAttributes(attrs Attributes) Key[T] {
	k.attrs = attrs
	return k
}

// Name returns the account name the key is stored under.
func (k Key[T]) Name() string { return k.name }

// Default returns the key's default value, if it has one.
func (k Key[T]) Default() (T, bool) { return k.def, k.hasDefault }

// From looks the key up in kc and returns the outcome as a Result.
func (k Key[T]) From(kc *Keychain) Result[T] {
	return GetResult(kc, k)
}

// attributes resolves the item attributes for k under kc.
func (k Key[T]) attributes(kc *Keychain) Attributes {
	return k.bridge.Attributes().merge(kc.attrs).merge(k.attrs)
}

// StringKey returns a key storing a UTF-8 string.
func StringKey(name string) Key[string] { return NewKey(name, String) }

// BytesKey returns a key storing raw bytes unchanged.
func BytesKey(name string) Key[[]byte] { return NewKey(name, Bytes) }

// IntKey returns a key storing an int.
func IntKey(name string) Key[int] { return NewKey(name, Int) }

// Int64Key returns a key storing an int64.
func Int64Key(name string) Key[int64] { return NewKey(name, Int64) }

// Float64Key returns a key storing a float64.
func Float64Key(name string) Key[float64] { return NewKey(name, Float64) }

// BoolKey returns a key storing a bool.
func BoolKey(name string) Key[bool] { return NewKey(name, Bool) }

// DurationKey returns a key storing a time.Duration.
func DurationKey(name string) Key[time.Duration] { return NewKey(name, Duration) }

// TimeKey returns a key storing a time.Time.
func TimeKey(name string) Key[time.Time] { return NewKey(name, Time) }

// JSONKey returns a key storing T encoded as JSON.
func JSONKey[T any](name string) Key[T] { return NewKey(name, JSON[T]()) }
