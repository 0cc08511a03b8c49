package keychain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/benaskins/typedkeychain/keychain/backend"
)

func TestMapStatus(t *testing.T) {
	t.Parallel()

	if err := mapStatus("get", nil); err != nil {
		t.Errorf("nil: got %v", err)
	}
	if err := mapStatus("get", backend.StatusSuccess); err != nil {
		t.Errorf("success: got %v", err)
	}
	if err := mapStatus("get", backend.StatusItemNotFound); !errors.Is(err, ErrNotFound) {
		t.Errorf("not found: got %v", err)
	}

	err := mapStatus("set", fmt.Errorf("wrapped: %w", backend.StatusInteractionNotAllowed))
	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("expected *StatusError, got %T", err)
	}
	if se.Code != backend.StatusInteractionNotAllowed {
		t.Errorf("Code = %d, want %d", se.Code, backend.StatusInteractionNotAllowed)
	}
	if se.Op != "set" {
		t.Errorf("Op = %q", se.Op)
	}
	if !errors.Is(err, backend.StatusInteractionNotAllowed) {
		t.Error("expected StatusError to unwrap to its code")
	}
}

func TestMapStatusForeignError(t *testing.T) {
	t.Parallel()
	cause := errors.New("dbus down")

	err := mapStatus("get", cause)
	if !errors.Is(err, cause) {
		t.Errorf("expected cause preserved, got %v", err)
	}
	code, ok := Status(err)
	if !ok || code != statusInternal {
		t.Errorf("Status = %d, %v", code, ok)
	}
}

func TestStatusOfNonBackendError(t *testing.T) {
	t.Parallel()
	if _, ok := Status(ErrNotFound); ok {
		t.Error("ErrNotFound is not a status failure")
	}
}
