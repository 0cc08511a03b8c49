package backend

import (
	"encoding/base64"
	"errors"

	"github.com/zalando/go-keyring"
)

// OSKeyring stores items in the platform keyring through zalando/go-keyring:
// Secret Service on Linux, Credential Manager on Windows and the security
// tool on macOS. Each scope becomes a keyring service and each account a
// keyring user; payloads are base64 envelopes since the library stores
// strings.
//
// The platform keyrings cannot enumerate a service, so Match and Delete
// without an account fall back to StatusUnimplemented, except for Delete
// of a whole scope.
type OSKeyring struct {
	*flat
}

// NewOSKeyring creates a backend over the platform keyring.
func NewOSKeyring() *OSKeyring {
	return &OSKeyring{flat: newFlat(osKeyringStore{})}
}

type osKeyringStore struct{}

func (osKeyringStore) load(scope, account string) ([]byte, error) {
	s, err := keyring.Get(scope, account)
	if err != nil {
		return nil, keyringStatus(err)
	}
	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, StatusDecode
	}
	return data, nil
}

func (osKeyringStore) save(scope, account string, data []byte) error {
	return keyringStatus(keyring.Set(scope, account, base64.StdEncoding.EncodeToString(data)))
}

func (osKeyringStore) erase(scope, account string) error {
	return keyringStatus(keyring.Delete(scope, account))
}

func (osKeyringStore) accounts(string) ([]string, error) {
	return nil, StatusUnimplemented
}

func (osKeyringStore) eraseScope(scope string) error {
	return keyringStatus(keyring.DeleteAll(scope))
}

// keyringStatus converts go-keyring errors to store errors.
func keyringStatus(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, keyring.ErrNotFound):
		return errNoEntry
	case errors.Is(err, keyring.ErrUnsupportedPlatform):
		return StatusUnimplemented
	case errors.Is(err, keyring.ErrSetDataTooBig):
		return StatusParam
	}
	return StatusAuthFailed
}
