package backend

import (
	"errors"
	"testing"

	"github.com/zalando/go-keyring"
)

// go-keyring's mock provider is process-global, so these tests do not run
// in parallel.

func TestOSKeyringRoundTrip(t *testing.T) {
	keyring.MockInit()
	k := NewOSKeyring()

	if err := k.Add(genericItem("svc", "token", "hello")); err != nil {
		t.Fatalf("Add: %v", err)
	}
	results, err := k.Match(fetchQuery("svc", "token"))
	if err != nil {
		t.Fatalf("Match: %v", err)
	}
	if string(results[0].Data()) != "hello" {
		t.Errorf("expected 'hello', got %q", results[0].Data())
	}

	match := Query{AttrClass: ClassGenericPassword, AttrService: "svc", AttrAccount: "token"}
	if err := k.Update(match, Query{AttrData: []byte("updated")}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	results, _ = k.Match(fetchQuery("svc", "token"))
	if string(results[0].Data()) != "updated" {
		t.Errorf("expected 'updated', got %q", results[0].Data())
	}

	if err := k.Delete(match); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := k.Match(fetchQuery("svc", "token")); !errors.Is(err, StatusItemNotFound) {
		t.Errorf("expected StatusItemNotFound after delete, got %v", err)
	}
}

func TestOSKeyringCannotList(t *testing.T) {
	keyring.MockInit()
	k := NewOSKeyring()
	k.Add(genericItem("svc", "token", "x"))

	_, err := k.Match(Query{AttrClass: ClassGenericPassword, AttrService: "svc", MatchLimit: MatchAll})
	if !errors.Is(err, StatusUnimplemented) {
		t.Errorf("expected StatusUnimplemented for listing, got %v", err)
	}
}

func TestOSKeyringDeleteScope(t *testing.T) {
	keyring.MockInit()
	k := NewOSKeyring()
	k.Add(genericItem("svc", "a", "1"))
	k.Add(genericItem("other", "a", "2"))

	if err := k.Delete(Query{AttrClass: ClassGenericPassword, AttrService: "svc"}); err != nil {
		t.Fatalf("Delete scope: %v", err)
	}
	if _, err := k.Match(fetchQuery("svc", "a")); !errors.Is(err, StatusItemNotFound) {
		t.Errorf("expected svc emptied, got %v", err)
	}
	if _, err := k.Match(fetchQuery("other", "a")); err != nil {
		t.Errorf("other scope should survive, got %v", err)
	}

	filtered := Query{AttrClass: ClassGenericPassword, AttrService: "other", AttrAccessGroup: "grp"}
	if err := k.Delete(filtered); !errors.Is(err, StatusUnimplemented) {
		t.Errorf("filtered scope delete should be refused, got %v", err)
	}
}

func TestOSKeyringBackendError(t *testing.T) {
	keyring.MockInitWithError(errors.New("locked"))
	k := NewOSKeyring()

	if err := k.Add(genericItem("svc", "token", "x")); !errors.Is(err, StatusAuthFailed) {
		t.Errorf("expected StatusAuthFailed, got %v", err)
	}
}
