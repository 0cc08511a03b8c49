//go:build darwin

package backend

import (
	"errors"

	gokeychain "github.com/keybase/go-keychain"
)

// Native is a Backend over the macOS Keychain Services API.
//
// Invisible and negative flags are not forwarded: go-keychain exposes no
// setter for boolean attributes. An internet item that shares its account
// with a more specific item (same server, plus a port or path) cannot be
// changed or read on its own and reports StatusDuplicateItem.
type Native struct{}

// NewNative returns the macOS Keychain backend.
func NewNative() (*Native, error) {
	return &Native{}, nil
}

func (Native) Add(q Query) error {
	item, err := toItem(q)
	if err != nil {
		return err
	}
	return nativeStatus(gokeychain.AddItem(item))
}

func (Native) Update(q Query, attrs Query) error {
	if err := reachOnlyExact(q); err != nil {
		return err
	}
	query, err := toItem(q)
	if err != nil {
		return err
	}
	update, err := toItem(attrs)
	if err != nil {
		return err
	}
	return nativeStatus(gokeychain.UpdateItem(query, update))
}

func (Native) Match(q Query) ([]Query, error) {
	if q.String(AttrClass) != ClassInternetPassword {
		return match(q)
	}
	exact, _, err := reachInternet(q)
	if err != nil {
		return nil, err
	}
	if len(exact) == 0 {
		return nil, StatusItemNotFound
	}
	if !q.Bool(ReturnData) {
		if q[MatchLimit] != MatchAll {
			exact = exact[:1]
		}
		return exact, nil
	}
	results, err := match(q)
	if err != nil {
		return nil, err
	}
	out := results[:0]
	for _, r := range results {
		if sameInternetIdentity(q, r) {
			out = append(out, r)
		}
	}
	if len(out) == 0 {
		// the fetch landed on a more specific item sharing the account
		return nil, StatusDuplicateItem
	}
	return out, nil
}

func (Native) Delete(q Query) error {
	if q.String(AttrClass) != ClassInternetPassword {
		return deleteItem(q)
	}
	if err := reachOnlyExact(q); err != nil {
		return err
	}
	if _, ok := q[AttrAccount]; ok {
		return deleteItem(q)
	}
	// clear account by account so no wildcard reaches past the scope
	exact, _, _ := reachInternet(q)
	seen := make(map[string]bool)
	for _, r := range exact {
		account := r.String(AttrAccount)
		if seen[account] {
			continue
		}
		seen[account] = true
		one := q.Clone()
		one[AttrAccount] = account
		if err := deleteItem(one); err != nil && !errors.Is(err, StatusItemNotFound) {
			return err
		}
	}
	return nil
}

func match(q Query) ([]Query, error) {
	item, err := toItem(q)
	if err != nil {
		return nil, err
	}
	item.SetReturnAttributes(true)
	results, err := gokeychain.QueryItem(item)
	if err != nil {
		return nil, nativeStatus(err)
	}
	if len(results) == 0 {
		return nil, StatusItemNotFound
	}
	out := make([]Query, 0, len(results))
	for _, r := range results {
		out = append(out, fromResult(q.String(AttrClass), r, q.Bool(ReturnData)))
	}
	return out, nil
}

func deleteItem(q Query) error {
	item, err := toItem(q)
	if err != nil {
		return err
	}
	return nativeStatus(gokeychain.DeleteItem(item))
}

// go-keychain drops empty strings and zero ports, so the Keychain matches an
// unset internet identity attribute as a wildcard. Internet queries are
// narrowed here by comparing what each reached item actually carries. The
// security domain is not returned by lookups and cannot be compared.
var comparedInternetAttrs = []string{AttrServer, AttrProtocol, AttrPort, AttrPath, AttrAuthType}

// sameInternetIdentity reports whether r carries exactly the identity named
// by q, with an attribute absent from q meaning empty.
func sameInternetIdentity(q, r Query) bool {
	for _, name := range comparedInternetAttrs {
		if name == AttrPort {
			if q.Int32(name) != r.Int32(name) {
				return false
			}
			continue
		}
		if q.String(name) != r.String(name) {
			return false
		}
	}
	return true
}

// reachInternet lists the attributes of every item q reaches and keeps the
// ones with exactly q's identity. shadowed reports that a more specific item
// shares an account with one of them, so no native query can address the
// exact item alone.
func reachInternet(q Query) (exact []Query, shadowed bool, err error) {
	wide := q.Clone()
	delete(wide, AttrData)
	delete(wide, ReturnData)
	wide[MatchLimit] = MatchAll
	reached, err := match(wide)
	if errors.Is(err, StatusItemNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	accounts := make(map[string]bool)
	var others []string
	for _, r := range reached {
		if sameInternetIdentity(q, r) {
			exact = append(exact, r)
			accounts[r.String(AttrAccount)] = true
		} else {
			others = append(others, r.String(AttrAccount))
		}
	}
	for _, account := range others {
		// an empty account is itself unset in a query and reaches every account
		if accounts[account] || accounts[""] {
			shadowed = true
		}
	}
	return exact, shadowed, nil
}

// reachOnlyExact fails unless every internet item q would change has exactly
// q's identity. Generic queries always pass.
func reachOnlyExact(q Query) error {
	if q.String(AttrClass) != ClassInternetPassword {
		return nil
	}
	exact, shadowed, err := reachInternet(q)
	switch {
	case err != nil:
		return err
	case len(exact) == 0:
		return StatusItemNotFound
	case shadowed:
		return StatusDuplicateItem
	}
	return nil
}

var accessibleByName = map[string]gokeychain.Accessible{
	"ak":   gokeychain.AccessibleWhenUnlocked,
	"ck":   gokeychain.AccessibleAfterFirstUnlock,
	"dk":   gokeychain.AccessibleAlways,
	"akpu": gokeychain.AccessibleWhenPasscodeSetThisDeviceOnly,
	"aku":  gokeychain.AccessibleWhenUnlockedThisDeviceOnly,
	"cku":  gokeychain.AccessibleAfterFirstUnlockThisDeviceOnly,
	"dku":  gokeychain.AccessibleAccessibleAlwaysThisDeviceOnly,
}

func toItem(q Query) (gokeychain.Item, error) {
	item := gokeychain.NewItem()
	for name, v := range q {
		switch name {
		case AttrClass:
			switch v {
			case ClassGenericPassword:
				item.SetSecClass(gokeychain.SecClassGenericPassword)
			case ClassInternetPassword:
				item.SetSecClass(gokeychain.SecClassInternetPassword)
			default:
				return item, StatusParam
			}
		case AttrService:
			item.SetService(q.String(name))
		case AttrServer:
			item.SetServer(q.String(name))
		case AttrProtocol:
			item.SetProtocol(q.String(name))
		case AttrAuthType:
			item.SetAuthenticationType(q.String(name))
		case AttrPort:
			item.SetPort(q.Int32(name))
		case AttrPath:
			item.SetPath(q.String(name))
		case AttrSecurityDomain:
			item.SetString(AttrSecurityDomain, q.String(name))
		case AttrAccount:
			item.SetAccount(q.String(name))
		case AttrAccessGroup:
			item.SetAccessGroup(q.String(name))
		case AttrLabel:
			item.SetLabel(q.String(name))
		case AttrDescription:
			item.SetDescription(q.String(name))
		case AttrComment:
			item.SetComment(q.String(name))
		case AttrAccessible:
			accessible, ok := accessibleByName[q.String(name)]
			if !ok {
				return item, StatusParam
			}
			item.SetAccessible(accessible)
		case AttrSynchronizable:
			switch v {
			case SynchronizableAny:
				item.SetSynchronizable(gokeychain.SynchronizableAny)
			case true:
				item.SetSynchronizable(gokeychain.SynchronizableYes)
			case false:
				item.SetSynchronizable(gokeychain.SynchronizableNo)
			}
		case AttrData:
			item.SetData(q.Data())
		case ReturnData:
			item.SetReturnData(q.Bool(name))
		case MatchLimit:
			if v == MatchAll {
				item.SetMatchLimit(gokeychain.MatchLimitAll)
			} else {
				item.SetMatchLimit(gokeychain.MatchLimitOne)
			}
		}
	}
	return item, nil
}

func fromResult(class string, r gokeychain.QueryResult, withData bool) Query {
	out := Query{AttrClass: class, AttrAccount: r.Account}
	put := func(name, v string) {
		if v != "" {
			out[name] = v
		}
	}
	put(AttrService, r.Service)
	put(AttrServer, r.Server)
	put(AttrProtocol, r.Protocol)
	put(AttrAuthType, r.AuthenticationType)
	put(AttrPath, r.Path)
	put(AttrAccessGroup, r.AccessGroup)
	put(AttrLabel, r.Label)
	put(AttrDescription, r.Description)
	put(AttrComment, r.Comment)
	if r.Port != 0 {
		out[AttrPort] = r.Port
	}
	out[AttrCreated] = r.CreationDate
	out[AttrModified] = r.ModificationDate
	if withData {
		out[AttrData] = r.Data
	}
	return out
}

func nativeStatus(err error) error {
	if err == nil {
		return nil
	}
	var kerr gokeychain.Error
	if errors.As(err, &kerr) {
		return Status(int32(kerr))
	}
	return StatusParam
}
