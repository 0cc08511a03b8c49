//go:build !darwin

package backend

// Native is unavailable outside of macOS.
type Native struct {
	unsupported
}

// NewNative reports StatusUnimplemented on non-darwin platforms.
func NewNative() (*Native, error) {
	return nil, StatusUnimplemented
}

type unsupported struct{}

func (unsupported) Add(Query) error { return StatusUnimplemented }
func (unsupported) Update(Query, Query) error { return StatusUnimplemented }
func (unsupported) Match(Query) ([]Query, error) { return nil, StatusUnimplemented }
func (unsupported) Delete(Query) error { return StatusUnimplemented }
