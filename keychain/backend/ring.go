package backend

import (
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/99designs/keyring"
)

// Ring stores items in a 99designs/keyring keyring. Any of its backends can
// be used (encrypted file, pass, kwallet, keyctl, secret-service, keychain,
// wincred); the file backend is the usual choice on headless hosts.
//
// All scopes share the one keyring and are separated by key prefix.
type Ring struct {
	*flat
}

// NewRing wraps an already opened keyring.
func NewRing(kr keyring.Keyring) *Ring {
	return &Ring{flat: newFlat(ringStore{kr: kr})}
}

// OpenRing opens a keyring from cfg and wraps it.
func OpenRing(cfg keyring.Config) (*Ring, error) {
	kr, err := keyring.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("opening keyring %q: %w", cfg.ServiceName, err)
	}
	return NewRing(kr), nil
}

// OpenFileRing opens an encrypted file keyring in dir.
func OpenFileRing(service, dir, passphrase string) (*Ring, error) {
	return OpenRing(keyring.Config{
		ServiceName:      service,
		AllowedBackends:  []keyring.BackendType{keyring.FileBackend},
		FileDir:          dir,
		FilePasswordFunc: keyring.FixedStringPrompt(passphrase),
	})
}

type ringStore struct {
	kr keyring.Keyring
}

// ringKey joins a scope and an account into one keyring key. Scopes hold
// no raw '#' (see scopeOf) and the account is escaped, so the split is
// unambiguous.
func ringKey(scope, account string) string {
	return scope + "#" + url.PathEscape(account)
}

func (s ringStore) load(scope, account string) ([]byte, error) {
	item, err := s.kr.Get(ringKey(scope, account))
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return nil, errNoEntry
	}
	if err != nil {
		return nil, StatusAuthFailed
	}
	return item.Data, nil
}

func (s ringStore) save(scope, account string, data []byte) error {
	err := s.kr.Set(keyring.Item{
		Key:         ringKey(scope, account),
		Data:        data,
		Label:       account,
		Description: "typedkeychain item",
	})
	if err != nil {
		return StatusAuthFailed
	}
	return nil
}

func (s ringStore) erase(scope, account string) error {
	err := s.kr.Remove(ringKey(scope, account))
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return errNoEntry
	}
	if err != nil {
		return StatusAuthFailed
	}
	return nil
}

func (s ringStore) accounts(scope string) ([]string, error) {
	keys, err := s.kr.Keys()
	if err != nil {
		return nil, StatusAuthFailed
	}
	prefix := scope + "#"
	var out []string
	for _, k := range keys {
		escaped, ok := strings.CutPrefix(k, prefix)
		if !ok {
			continue
		}
		account, err := url.PathUnescape(escaped)
		if err != nil {
			continue
		}
		out = append(out, account)
	}
	sort.Strings(out)
	return out, nil
}
