package backend

import (
	"encoding/json"
	"errors"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"
)

// errNoEntry is returned by a flatStore when (scope, account) holds nothing.
var errNoEntry = errors.New("no entry")

// flatStore is a store that only understands (scope, account) -> bytes, the
// shape of most cross-platform keyring libraries.
type flatStore interface {
	load(scope, account string) ([]byte, error)
	save(scope, account string, data []byte) error
	erase(scope, account string) error
	// accounts lists the accounts stored under scope, or returns
	// StatusUnimplemented if the store cannot enumerate.
	accounts(scope string) ([]string, error)
}

// scopeEraser is implemented by flat stores that can drop a whole scope
// without enumerating it.
type scopeEraser interface {
	eraseScope(scope string) error
}

// identity attributes per class, in scope order.
var identityAttrs = map[string][]string{
	ClassGenericPassword:  {AttrService},
	ClassInternetPassword: {AttrServer, AttrProtocol, AttrPort, AttrPath, AttrSecurityDomain, AttrAuthType},
}

// control attributes never filter and are never stored.
var controlAttrs = map[string]bool{
	AttrData:         true,
	ReturnData:       true,
	ReturnAttributes: true,
	MatchLimit:       true,
}

// envelope is what a flat store persists for one item.
type envelope struct {
	Strings  map[string]string `json:"strings,omitempty"`
	Ints     map[string]int32  `json:"ints,omitempty"`
	Bools    map[string]bool   `json:"bools,omitempty"`
	Data     []byte            `json:"data,omitempty"`
	Created  time.Time         `json:"created"`
	Modified time.Time         `json:"modified"`
}

func (e *envelope) set(name string, v any) {
	switch v := v.(type) {
	case string:
		if e.Strings == nil {
			e.Strings = make(map[string]string)
		}
		e.Strings[name] = v
	case int32:
		if e.Ints == nil {
			e.Ints = make(map[string]int32)
		}
		e.Ints[name] = v
	case int:
		e.set(name, int32(v))
	case bool:
		if e.Bools == nil {
			e.Bools = make(map[string]bool)
		}
		e.Bools[name] = v
	}
}

func (e *envelope) get(name string) (any, bool) {
	if v, ok := e.Strings[name]; ok {
		return v, true
	}
	if v, ok := e.Ints[name]; ok {
		return v, true
	}
	if v, ok := e.Bools[name]; ok {
		return v, true
	}
	return nil, false
}

// matches reports whether every filtering attribute of q equals the item's.
func (e *envelope) matches(q Query) bool {
	for name, want := range q {
		if controlAttrs[name] {
			continue
		}
		if name == AttrSynchronizable {
			if want == SynchronizableAny {
				continue
			}
		}
		got, ok := e.get(name)
		if !ok {
			return false
		}
		if n, isInt := want.(int); isInt {
			want = int32(n)
		}
		if got != want {
			return false
		}
	}
	// An item stored as synchronizable is only visible to queries that ask
	// for it explicitly.
	if _, asked := q[AttrSynchronizable]; !asked && e.Bools[AttrSynchronizable] {
		return false
	}
	return true
}

func (e *envelope) result(withData bool) Query {
	r := make(Query, len(e.Strings)+len(e.Ints)+len(e.Bools)+3)
	for k, v := range e.Strings {
		r[k] = v
	}
	for k, v := range e.Ints {
		r[k] = v
	}
	for k, v := range e.Bools {
		r[k] = v
	}
	r[AttrCreated] = e.Created
	r[AttrModified] = e.Modified
	if withData {
		r[AttrData] = slices.Clone(e.Data)
	}
	return r
}

// flat adapts a flatStore to the Backend contract.
type flat struct {
	mu    sync.Mutex
	store flatStore
	now   func() time.Time
}

func newFlat(store flatStore) *flat {
	return &flat{store: store, now: time.Now}
}

// scopeOf derives the storage scope from the class and identity attributes.
// Each identity part is path-escaped, so the scope never contains a raw
// separator and distinct identities never share a scope.
func scopeOf(q Query) (string, error) {
	class := q.String(AttrClass)
	attrs, ok := identityAttrs[class]
	if !ok {
		return "", StatusParam
	}
	parts := []string{class}
	for _, name := range attrs {
		switch v := q[name].(type) {
		case string:
			parts = append(parts, url.PathEscape(v))
		case int32:
			parts = append(parts, strconv.Itoa(int(v)))
		case int:
			parts = append(parts, strconv.Itoa(v))
		default:
			parts = append(parts, "")
		}
	}
	if parts[1] == "" {
		// service or server is required to scope a flat store
		return "", StatusParam
	}
	return strings.Join(parts, "|"), nil
}

type candidate struct {
	account string
	env     *envelope
}

func (f *flat) read(scope, account string) (*envelope, error) {
	raw, err := f.store.load(scope, account)
	if err != nil {
		return nil, err
	}
	env := &envelope{}
	if err := json.Unmarshal(raw, env); err != nil {
		return nil, StatusDecode
	}
	return env, nil
}

func (f *flat) write(scope, account string, env *envelope) error {
	raw, err := json.Marshal(env)
	if err != nil {
		return StatusParam
	}
	return f.store.save(scope, account, raw)
}

// candidates returns the stored items under scope matched by q.
func (f *flat) candidates(scope string, q Query) ([]candidate, error) {
	var accounts []string
	if account, ok := q[AttrAccount].(string); ok {
		accounts = []string{account}
	} else {
		listed, err := f.store.accounts(scope)
		if err != nil {
			return nil, err
		}
		accounts = listed
	}

	var out []candidate
	for _, account := range accounts {
		env, err := f.read(scope, account)
		if errors.Is(err, errNoEntry) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if env.matches(q) {
			out = append(out, candidate{account: account, env: env})
		}
	}
	return out, nil
}

func (f *flat) Add(q Query) error {
	scope, err := scopeOf(q)
	if err != nil {
		return err
	}
	account := q.String(AttrAccount)

	f.mu.Lock()
	defer f.mu.Unlock()

	if _, err := f.read(scope, account); err == nil {
		return StatusDuplicateItem
	} else if !errors.Is(err, errNoEntry) {
		return err
	}

	now := f.now().UTC()
	env := &envelope{Data: slices.Clone(q.Data()), Created: now, Modified: now}
	for name, v := range q {
		if !controlAttrs[name] {
			env.set(name, v)
		}
	}
	// account is part of the identity even when empty
	env.set(AttrAccount, account)
	return f.write(scope, account, env)
}

func (f *flat) Update(q Query, attrs Query) error {
	scope, err := scopeOf(q)
	if err != nil {
		return err
	}
	for _, name := range append([]string{AttrClass, AttrAccount}, identityAttrs[q.String(AttrClass)]...) {
		if _, ok := attrs[name]; ok {
			return StatusParam
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	found, err := f.candidates(scope, q)
	if err != nil {
		return err
	}
	if len(found) == 0 {
		return StatusItemNotFound
	}
	now := f.now().UTC()
	for _, c := range found {
		for name, v := range attrs {
			switch {
			case name == AttrData:
				c.env.Data = slices.Clone(attrs.Data())
			case !controlAttrs[name]:
				c.env.set(name, v)
			}
		}
		c.env.Modified = now
		if err := f.write(scope, c.account, c.env); err != nil {
			return err
		}
	}
	return nil
}

func (f *flat) Match(q Query) ([]Query, error) {
	scope, err := scopeOf(q)
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	found, err := f.candidates(scope, q)
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, StatusItemNotFound
	}
	slices.SortFunc(found, func(a, b candidate) int { return strings.Compare(a.account, b.account) })
	if q[MatchLimit] != MatchAll {
		found = found[:1]
	}
	withData := q.Bool(ReturnData)
	out := make([]Query, 0, len(found))
	for _, c := range found {
		out = append(out, c.env.result(withData))
	}
	return out, nil
}

func (f *flat) Delete(q Query) error {
	scope, err := scopeOf(q)
	if err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	found, err := f.candidates(scope, q)
	if errors.Is(err, StatusUnimplemented) {
		return f.eraseScope(scope, q)
	}
	if err != nil {
		return err
	}
	if len(found) == 0 {
		return StatusItemNotFound
	}
	for _, c := range found {
		if err := f.store.erase(scope, c.account); err != nil && !errors.Is(err, errNoEntry) {
			return err
		}
	}
	return nil
}

// eraseScope drops a whole scope for stores that cannot enumerate. It is
// only safe when q filters on nothing beyond the scope itself.
func (f *flat) eraseScope(scope string, q Query) error {
	eraser, ok := f.store.(scopeEraser)
	if !ok {
		return StatusUnimplemented
	}
	allowed := map[string]bool{AttrClass: true}
	for _, name := range identityAttrs[q.String(AttrClass)] {
		allowed[name] = true
	}
	for name, v := range q {
		if controlAttrs[name] || allowed[name] {
			continue
		}
		if name == AttrSynchronizable && v == SynchronizableAny {
			continue
		}
		return StatusUnimplemented
	}
	return eraser.eraseScope(scope)
}
