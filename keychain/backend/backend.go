// Package backend defines the query/response contract between the typed
// keychain facade and a secure credential store, plus the stores that
// implement it.
//
// A Query is a flat attribute dictionary keyed by the Security framework's
// wire names (kSecClass is "class", kSecAttrService is "svce", and so on),
// so a query built once can be handed to the macOS Keychain or to one of the
// portable stores without translation at the call site.
package backend

import (
	"fmt"
	"maps"
)

// Attribute names.
const (
	AttrClass          = "class"
	AttrService        = "svce"
	AttrServer         = "srvr"
	AttrProtocol       = "ptcl"
	AttrPort           = "port"
	AttrPath           = "path"
	AttrSecurityDomain = "sdmn"
	AttrAuthType       = "atyp"
	AttrAccount        = "acct"
	AttrAccessGroup    = "agrp"
	AttrAccessible     = "pdmn"
	AttrSynchronizable = "sync"
	AttrLabel          = "labl"
	AttrComment        = "icmt"
	AttrDescription    = "desc"
	AttrInvisible      = "invi"
	AttrNegative       = "nega"
	AttrCreated        = "cdat"
	AttrModified       = "mdat"

	// AttrData carries the payload on insert/update and in match results.
	AttrData = "v_Data"

	ReturnData       = "r_Data"
	ReturnAttributes = "r_Attributes"
	MatchLimit       = "m_Limit"
)

// Item classes.
const (
	ClassGenericPassword  = "genp"
	ClassInternetPassword = "inet"
)

// Match limits.
const (
	MatchOne = "m_LimitOne"
	MatchAll = "m_LimitAll"
)

// SynchronizableAny matches both synchronizable and local items.
const SynchronizableAny = "syna"

// Query is a transient attribute dictionary sent to a Backend.
type Query map[string]any

// Clone returns a shallow copy of q.
func (q Query) Clone() Query {
	return maps.Clone(q)
}

// String returns the named attribute, or "" if it is absent or not a string.
func (q Query) String(name string) string {
	s, _ := q[name].(string)
	return s
}

// Int32 returns the named attribute, or 0 if it is absent.
func (q Query) Int32(name string) int32 {
	switch v := q[name].(type) {
	case int32:
		return v
	case int:
		return int32(v)
	}
	return 0
}

// Bool returns the named attribute, or false if it is absent.
func (q Query) Bool(name string) bool {
	b, _ := q[name].(bool)
	return b
}

// Data returns the payload attribute.
func (q Query) Data() []byte {
	b, _ := q[AttrData].([]byte)
	return b
}

// Backend is a secure credential store reachable through attribute queries.
//
// Failures are reported as Status values so callers can branch on the code.
type Backend interface {
	// Add inserts a new item described by q, including its payload.
	Add(q Query) error
	// Update applies attrs to every item matched by q.
	Update(q Query, attrs Query) error
	// Match returns the items matched by q. With MatchOne at most one
	// result is returned. Payloads are included only if q asks for them.
	Match(q Query) ([]Query, error)
	// Delete removes every item matched by q.
	Delete(q Query) error
}

// Status is a backend result code.
type Status int32

const (
	StatusSuccess               Status = 0
	StatusUnimplemented         Status = -4
	StatusParam                 Status = -50
	StatusAuthFailed            Status = -25293
	StatusDuplicateItem         Status = -25299
	StatusItemNotFound          Status = -25300
	StatusInteractionNotAllowed Status = -25308
	StatusDecode                Status = -26275
)

var statusText = map[Status]string{
	StatusSuccess:               "success",
	StatusUnimplemented:         "function or operation not implemented",
	StatusParam:                 "one or more parameters passed to the function were not valid",
	StatusAuthFailed:            "authorization or authentication failed",
	StatusDuplicateItem:         "the item already exists",
	StatusItemNotFound:          "the item cannot be found",
	StatusInteractionNotAllowed: "user interaction is not allowed",
	StatusDecode:                "unable to decode the provided data",
}

func (s Status) Error() string {
	if text, ok := statusText[s]; ok {
		return fmt.Sprintf("%s (OSStatus %d)", text, int32(s))
	}
	return fmt.Sprintf("OSStatus %d", int32(s))
}
