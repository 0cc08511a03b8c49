package keychain

import (
	"errors"
	"fmt"

	"github.com/benaskins/typedkeychain/keychain/backend"
)

var (
	// ErrNotFound is returned when no value exists for a key and no default
	// was supplied.
	ErrNotFound = errors.New("no value found for key")

	// ErrUnexpectedData is returned when a stored payload cannot be decoded
	// as the key's type.
	ErrUnexpectedData = errors.New("unexpected data for key")

	// ErrInvalidIdentity is returned by the constructors for an empty service
	// or a server URL without a host.
	ErrInvalidIdentity = errors.New("invalid keychain identity")
)

// StatusError is a backend failure other than "item not found".
type StatusError struct {
	Op   string
	Code backend.Status
	// Err is set when the backend failed with something other than a Status.
	Err error
}

func (e *StatusError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("keychain %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("keychain %s: %v", e.Op, e.Code)
}

func (e *StatusError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return e.Code
}

// statusInternal is reported for backend errors that carry no status code.
const statusInternal backend.Status = -2070

// mapStatus converts a backend result into nil, ErrNotFound or *StatusError.
func mapStatus(op string, err error) error {
	if err == nil {
		return nil
	}
	var code backend.Status
	if !errors.As(err, &code) {
		return &StatusError{Op: op, Code: statusInternal, Err: err}
	}
	switch code {
	case backend.StatusSuccess:
		return nil
	case backend.StatusItemNotFound:
		return ErrNotFound
	}
	return &StatusError{Op: op, Code: code}
}

// Status returns the backend status code carried by err, or false if err
// is not a backend failure.
func Status(err error) (backend.Status, bool) {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code, true
	}
	return 0, false
}
