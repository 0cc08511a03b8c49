package backend

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func genericItem(service, account, data string) Query {
	return Query{
		AttrClass:   ClassGenericPassword,
		AttrService: service,
		AttrAccount: account,
		AttrData:    []byte(data),
	}
}

func fetchQuery(service, account string) Query {
	return Query{
		AttrClass:   ClassGenericPassword,
		AttrService: service,
		AttrAccount: account,
		ReturnData:  true,
		MatchLimit:  MatchOne,
	}
}

func TestAddAndMatch(t *testing.T) {
	t.Parallel()
	m := NewMemory()

	if err := m.Add(genericItem("svc", "token", "hello")); err != nil {
		t.Fatalf("Add: %v", err)
	}
	results, err := m.Match(fetchQuery("svc", "token"))
	if err != nil {
		t.Fatalf("Match: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if string(results[0].Data()) != "hello" {
		t.Errorf("expected 'hello', got %q", results[0].Data())
	}
	if results[0].String(AttrAccount) != "token" {
		t.Errorf("expected account 'token', got %q", results[0].String(AttrAccount))
	}
}

func TestAddDuplicate(t *testing.T) {
	t.Parallel()
	m := NewMemory()

	m.Add(genericItem("svc", "token", "a"))
	if err := m.Add(genericItem("svc", "token", "b")); !errors.Is(err, StatusDuplicateItem) {
		t.Errorf("expected StatusDuplicateItem, got %v", err)
	}
}

func TestMatchNotFound(t *testing.T) {
	t.Parallel()
	m := NewMemory()

	if _, err := m.Match(fetchQuery("svc", "missing")); !errors.Is(err, StatusItemNotFound) {
		t.Errorf("expected StatusItemNotFound, got %v", err)
	}
}

func TestMatchWithoutIdentity(t *testing.T) {
	t.Parallel()
	m := NewMemory()

	if _, err := m.Match(Query{AttrClass: ClassGenericPassword}); !errors.Is(err, StatusParam) {
		t.Errorf("expected StatusParam, got %v", err)
	}
	if err := m.Add(Query{AttrClass: "cert", AttrAccount: "x"}); !errors.Is(err, StatusParam) {
		t.Errorf("expected StatusParam for unknown class, got %v", err)
	}
}

func TestMatchOmitsDataUnlessAsked(t *testing.T) {
	t.Parallel()
	m := NewMemory()
	m.Add(genericItem("svc", "token", "secret"))

	q := fetchQuery("svc", "token")
	delete(q, ReturnData)
	results, err := m.Match(q)
	if err != nil {
		t.Fatalf("Match: %v", err)
	}
	if _, ok := results[0][AttrData]; ok {
		t.Error("payload returned without ReturnData")
	}
}

func TestUpdate(t *testing.T) {
	t.Parallel()
	m := NewMemory()
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return base }
	m.Add(genericItem("svc", "token", "old"))

	m.now = func() time.Time { return base.Add(time.Hour) }
	match := Query{AttrClass: ClassGenericPassword, AttrService: "svc", AttrAccount: "token"}
	if err := m.Update(match, Query{AttrData: []byte("new"), AttrLabel: "L"}); err != nil {
		t.Fatalf("Update: %v", err)
	}

	results, _ := m.Match(fetchQuery("svc", "token"))
	got := results[0]
	if string(got.Data()) != "new" {
		t.Errorf("expected 'new', got %q", got.Data())
	}
	if got.String(AttrLabel) != "L" {
		t.Errorf("expected label L, got %q", got.String(AttrLabel))
	}
	if created, _ := got[AttrCreated].(time.Time); !created.Equal(base) {
		t.Errorf("created = %v, want %v", created, base)
	}
	if modified, _ := got[AttrModified].(time.Time); !modified.Equal(base.Add(time.Hour)) {
		t.Errorf("modified = %v, want %v", modified, base.Add(time.Hour))
	}
}

func TestUpdateMissing(t *testing.T) {
	t.Parallel()
	m := NewMemory()

	match := Query{AttrClass: ClassGenericPassword, AttrService: "svc", AttrAccount: "token"}
	if err := m.Update(match, Query{AttrData: []byte("x")}); !errors.Is(err, StatusItemNotFound) {
		t.Errorf("expected StatusItemNotFound, got %v", err)
	}
}

func TestUpdateRejectsIdentityChange(t *testing.T) {
	t.Parallel()
	m := NewMemory()
	m.Add(genericItem("svc", "token", "x"))

	match := Query{AttrClass: ClassGenericPassword, AttrService: "svc", AttrAccount: "token"}
	if err := m.Update(match, Query{AttrAccount: "other"}); !errors.Is(err, StatusParam) {
		t.Errorf("expected StatusParam, got %v", err)
	}
}

func TestAttributeFilter(t *testing.T) {
	t.Parallel()
	m := NewMemory()
	item := genericItem("svc", "token", "x")
	item[AttrAccessGroup] = "group-a"
	m.Add(item)

	q := fetchQuery("svc", "token")
	q[AttrAccessGroup] = "group-b"
	if _, err := m.Match(q); !errors.Is(err, StatusItemNotFound) {
		t.Errorf("expected access group to filter, got %v", err)
	}
	q[AttrAccessGroup] = "group-a"
	if _, err := m.Match(q); err != nil {
		t.Errorf("expected match for group-a, got %v", err)
	}
}

func TestSynchronizableVisibility(t *testing.T) {
	t.Parallel()
	m := NewMemory()
	item := genericItem("svc", "synced", "x")
	item[AttrSynchronizable] = true
	m.Add(item)

	if _, err := m.Match(fetchQuery("svc", "synced")); !errors.Is(err, StatusItemNotFound) {
		t.Errorf("synced item should be hidden from plain queries, got %v", err)
	}
	q := fetchQuery("svc", "synced")
	q[AttrSynchronizable] = SynchronizableAny
	if _, err := m.Match(q); err != nil {
		t.Errorf("expected match with SynchronizableAny, got %v", err)
	}
}

func TestMatchAllAndDeleteScope(t *testing.T) {
	t.Parallel()
	m := NewMemory()
	m.Add(genericItem("svc", "b", "1"))
	m.Add(genericItem("svc", "a", "2"))
	m.Add(genericItem("other", "a", "3"))

	list := Query{AttrClass: ClassGenericPassword, AttrService: "svc", MatchLimit: MatchAll}
	results, err := m.Match(list)
	if err != nil {
		t.Fatalf("Match: %v", err)
	}
	var accounts []string
	for _, r := range results {
		accounts = append(accounts, r.String(AttrAccount))
	}
	if diff := cmp.Diff([]string{"a", "b"}, accounts); diff != "" {
		t.Errorf("accounts mismatch (-want +got):\n%s", diff)
	}

	if err := m.Delete(Query{AttrClass: ClassGenericPassword, AttrService: "svc"}); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := m.Match(list); !errors.Is(err, StatusItemNotFound) {
		t.Errorf("expected scope emptied, got %v", err)
	}
	if _, err := m.Match(fetchQuery("other", "a")); err != nil {
		t.Errorf("other scope should survive, got %v", err)
	}
}

func TestDeleteMissing(t *testing.T) {
	t.Parallel()
	m := NewMemory()

	q := Query{AttrClass: ClassGenericPassword, AttrService: "svc", AttrAccount: "gone"}
	if err := m.Delete(q); !errors.Is(err, StatusItemNotFound) {
		t.Errorf("expected StatusItemNotFound, got %v", err)
	}
}

func TestInternetScopes(t *testing.T) {
	t.Parallel()
	m := NewMemory()
	inet := func(port int32) Query {
		return Query{
			AttrClass:    ClassInternetPassword,
			AttrServer:   "example.com",
			AttrProtocol: "htps",
			AttrPort:     port,
			AttrAccount:  "alice",
		}
	}

	a := inet(443)
	a[AttrData] = []byte("443")
	m.Add(a)
	b := inet(8443)
	b[AttrData] = []byte("8443")
	m.Add(b)

	q := inet(8443)
	q[ReturnData] = true
	results, err := m.Match(q)
	if err != nil {
		t.Fatalf("Match: %v", err)
	}
	if string(results[0].Data()) != "8443" {
		t.Errorf("expected port-scoped item, got %q", results[0].Data())
	}
}

func TestStatusError(t *testing.T) {
	t.Parallel()
	if got := StatusItemNotFound.Error(); got != "the item cannot be found (OSStatus -25300)" {
		t.Errorf("Error() = %q", got)
	}
	if got := Status(-1).Error(); got != "OSStatus -1" {
		t.Errorf("Error() = %q", got)
	}
}

func TestScopeEscapesSeparators(t *testing.T) {
	t.Parallel()
	a, _ := scopeOf(Query{AttrClass: ClassInternetPassword, AttrServer: "example.com|htps"})
	b, _ := scopeOf(Query{AttrClass: ClassInternetPassword, AttrServer: "example.com", AttrProtocol: "htps"})
	if a == b {
		t.Errorf("distinct identities share scope %q", a)
	}
	if strings.Contains(a, "#") {
		t.Errorf("scope %q contains a raw '#'", a)
	}
	c, _ := scopeOf(Query{AttrClass: ClassGenericPassword, AttrService: "svc#x"})
	if strings.Contains(c, "#") {
		t.Errorf("scope %q contains a raw '#'", c)
	}
}
