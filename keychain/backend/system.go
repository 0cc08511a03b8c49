package backend

// NewSystem returns the platform's credential store: the macOS Keychain on
// darwin, the OS keyring everywhere else.
func NewSystem() Backend {
	if native, err := NewNative(); err == nil {
		return native
	}
	return NewOSKeyring()
}
