package keychain

import (
	"errors"
	"fmt"

	"github.com/benaskins/typedkeychain/keychain/backend"
)

// Set stores value under key, replacing any existing item.
func Set[T any](kc *Keychain, key Key[T], value T) error {
	data, err := key.bridge.Encode(value)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", key.name, err)
	}
	err = kc.upsert(key.name, key.attributes(kc), data)
	kc.logger.Debug("set", "key", key.name, "error", err)
	if err != nil {
		return fmt.Errorf("setting %s: %w", key.name, err)
	}
	return nil
}

// upsert updates the item in place, inserting it if it does not exist. An
// insert that loses a race to a concurrent writer falls back to one more
// update so the last write wins. If that update still matches nothing, the
// item exists in a form this query cannot reach (for example stored with a
// different sync setting) and the duplicate is reported.
func (kc *Keychain) upsert(account string, attrs Attributes, data []byte) error {
	match, change := kc.updateQueries(account, attrs, data)
	err := kc.backend.Update(match, change)
	if !errors.Is(err, backend.StatusItemNotFound) {
		return mapStatus("set", err)
	}
	err = kc.backend.Add(kc.buildQuery(opInsert, account, attrs, data))
	if !errors.Is(err, backend.StatusDuplicateItem) {
		return mapStatus("set", err)
	}
	err = kc.backend.Update(match, change)
	if errors.Is(err, backend.StatusItemNotFound) {
		return &StatusError{Op: "set", Code: backend.StatusDuplicateItem}
	}
	return mapStatus("set", err)
}

// Get returns the value stored under key. If nothing is stored it returns
// the key's default, or ErrNotFound if the key has none.
func Get[T any](kc *Keychain, key Key[T]) (T, error) {
	v, ok, err := fetch(kc, key)
	if err != nil || ok {
		return v, err
	}
	if def, has := key.Default(); has {
		return def, nil
	}
	return v, fmt.Errorf("%w: %s", ErrNotFound, key.name)
}

// GetOr is Get with a call-site default that replaces the key's own default
// for this call. Decode and backend failures are still returned.
func GetOr[T any](kc *Keychain, key Key[T], def T) (T, error) {
	v, ok, err := fetch(kc, key)
	if err != nil {
		return v, err
	}
	if !ok {
		return def, nil
	}
	return v, nil
}

// fetch reads and decodes key. ok is false when nothing is stored.
func fetch[T any](kc *Keychain, key Key[T]) (v T, ok bool, err error) {
	results, err := kc.backend.Match(kc.buildQuery(opFetch, key.name, key.attributes(kc), nil))
	err = mapStatus("get", err)
	kc.logger.Debug("get", "key", key.name, "error", err)
	if errors.Is(err, ErrNotFound) || (err == nil && len(results) == 0) {
		return v, false, nil
	}
	if err != nil {
		return v, false, fmt.Errorf("getting %s: %w", key.name, err)
	}
	v, ok, err = key.bridge.Decode(results[0].Data())
	if err != nil {
		return v, false, fmt.Errorf("%w: %s: %w", ErrUnexpectedData, key.name, err)
	}
	return v, ok, nil
}

// Remove deletes the item stored under key. Removing a key that was never
// set is not an error.
func Remove[T any](kc *Keychain, key Key[T]) error {
	err := mapStatus("remove", kc.backend.Delete(kc.buildQuery(opDelete, key.name, key.attributes(kc), nil)))
	if errors.Is(err, ErrNotFound) {
		err = nil
	}
	kc.logger.Debug("remove", "key", key.name, "error", err)
	if err != nil {
		return fmt.Errorf("removing %s: %w", key.name, err)
	}
	return nil
}
