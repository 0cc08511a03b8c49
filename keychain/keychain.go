// Package keychain is a typed facade over a secure credential store.
//
// Callers declare typed keys once and read and write values through a
// Keychain without building attribute queries by hand:
//
//	var Token = keychain.StringKey("api-token")
//
//	kc, err := keychain.NewGeneric(backend.NewSystem(), "com.example.app")
//	...
//	err = keychain.Set(kc, Token, "s3cr3t")
//	token, err := keychain.Get(kc, Token)
//
// A Keychain is either a generic-password keychain identified by a service
// name, or an internet-password keychain identified by a server. Items are
// stored as the account attribute under that identity; payload conversion is
// the job of the key's Bridge. Nothing is cached: every call is one round
// trip to the backend.
package keychain

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/benaskins/typedkeychain/keychain/backend"
)

type itemClass int

const (
	classGeneric itemClass = iota
	classInternet
)

type server struct {
	host           string
	protocol       Protocol
	port           int32
	path           string
	authType       AuthenticationType
	securityDomain string
}

// Keychain is an immutable view of one identity in a backend.
type Keychain struct {
	backend backend.Backend
	class   itemClass
	service string
	server  server
	attrs   Attributes
	logger  *slog.Logger
}

// Option configures a Keychain at construction.
type Option func(*Keychain)

// WithAccessGroup stores and looks up items in the named keychain access
// group, letting apps that share the group see the same items.
func WithAccessGroup(group string) Option {
	return func(kc *Keychain) { kc.attrs.AccessGroup = group }
}

// WithAccessibility sets when items may be read, such as only while the
// device is unlocked.
func WithAccessibility(a Accessibility) Option {
	return func(kc *Keychain) { kc.attrs.Accessibility = a }
}

// WithSynchronizable marks items as synced (or explicitly not synced) to
// the user's other devices.
func WithSynchronizable(sync bool) Option {
	return func(kc *Keychain) {
		if sync {
			kc.attrs.Synchronizable = SyncYes
		} else {
			kc.attrs.Synchronizable = SyncNo
		}
	}
}

// WithLabel sets the user-visible label shown in Keychain Access.
func WithLabel(label string) Option {
	return func(kc *Keychain) { kc.attrs.Label = label }
}

// WithComment attaches a free-form comment to stored items.
func WithComment(comment string) Option {
	return func(kc *Keychain) { kc.attrs.Comment = comment }
}

// WithDescription sets the item kind description (e.g. "API token").
func WithDescription(description string) Option {
	return func(kc *Keychain) { kc.attrs.Description = description }
}

// WithInvisible hides stored items from Keychain Access.
func WithInvisible() Option {
	return func(kc *Keychain) { kc.attrs.Invisible = true }
}

// WithNegative marks stored items as placeholders that carry no valid
// password.
func WithNegative() Option {
	return func(kc *Keychain) { kc.attrs.Negative = true }
}

// WithAttributes applies every set field of attrs.
func WithAttributes(attrs Attributes) Option {
	return func(kc *Keychain) { kc.attrs = kc.attrs.merge(attrs) }
}

// WithAuthenticationType sets the authentication type of an internet
// keychain. Generic keychains ignore it.
func WithAuthenticationType(t AuthenticationType) Option {
	return func(kc *Keychain) { kc.server.authType = t }
}

// WithSecurityDomain sets the security domain of an internet keychain.
// Generic keychains ignore it.
func WithSecurityDomain(domain string) Option {
	return func(kc *Keychain) { kc.server.securityDomain = domain }
}

// WithLogger sets the logger for operation traces. Defaults to slog.Default.
func WithLogger(logger *slog.Logger) Option {
	return func(kc *Keychain) { kc.logger = logger }
}

// NewGeneric returns a generic-password Keychain for service.
func NewGeneric(b backend.Backend, service string, opts ...Option) (*Keychain, error) {
	if service == "" {
		return nil, fmt.Errorf("%w: empty service", ErrInvalidIdentity)
	}
	kc := &Keychain{backend: b, class: classGeneric, service: service}
	return kc.apply(opts), nil
}

// NewInternet returns an internet-password Keychain for the server in
// rawURL. The scheme selects the protocol attribute; host, port and path
// map to their attributes.
func NewInternet(b backend.Backend, rawURL string, opts ...Option) (*Keychain, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidIdentity, err)
	}
	host := u.Hostname()
	if host == "" {
		return nil, fmt.Errorf("%w: no host in %q", ErrInvalidIdentity, rawURL)
	}
	protocol, ok := protocolByScheme[strings.ToLower(u.Scheme)]
	if !ok {
		return nil, fmt.Errorf("%w: unsupported scheme %q", ErrInvalidIdentity, u.Scheme)
	}
	srv := server{host: host, protocol: protocol, path: u.Path}
	if p := u.Port(); p != "" {
		port, err := strconv.ParseUint(p, 10, 16)
		if err != nil {
			return nil, fmt.Errorf("%w: port %q", ErrInvalidIdentity, p)
		}
		srv.port = int32(port)
	}
	kc := &Keychain{backend: b, class: classInternet, server: srv}
	return kc.apply(opts), nil
}

func (kc *Keychain) apply(opts []Option) *Keychain {
	for _, opt := range opts {
		opt(kc)
	}
	if kc.logger == nil {
		kc.logger = slog.Default()
	}
	kc.logger = kc.logger.With("component", "keychain", "identity", kc.String())
	return kc
}

// String describes the Keychain's identity.
func (kc *Keychain) String() string {
	if kc.class == classInternet {
		s := fmt.Sprintf("internet-password server=%s protocol=%q", kc.server.host, strings.TrimSpace(string(kc.server.protocol)))
		if kc.server.port != 0 {
			s += fmt.Sprintf(" port=%d", kc.server.port)
		}
		if kc.server.path != "" {
			s += " path=" + kc.server.path
		}
		return s
	}
	return "generic-password service=" + kc.service
}

// Attributes returns the Keychain's configured item attributes.
func (kc *Keychain) Attributes() Attributes { return kc.attrs }

// RemoveAll deletes every item under this Keychain's identity. Items of
// other services or servers in the same backend are untouched.
func (kc *Keychain) RemoveAll() error {
	err := mapStatus("remove all", kc.backend.Delete(kc.buildQuery(opDeleteAll, "", kc.attrs, nil)))
	if errors.Is(err, ErrNotFound) {
		err = nil
	}
	kc.logger.Debug("remove all", "error", err)
	return err
}

// Keys returns the sorted account names stored under this identity.
func (kc *Keychain) Keys() ([]string, error) {
	results, err := kc.backend.Match(kc.buildQuery(opList, "", kc.attrs, nil))
	err = mapStatus("list", err)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(results))
	for _, r := range results {
		keys = append(keys, r.String(backend.AttrAccount))
	}
	sort.Strings(keys)
	return keys, nil
}

// Contains reports whether an item named name exists, without reading its
// payload.
func (kc *Keychain) Contains(name string) (bool, error) {
	q := kc.buildQuery(opFetch, name, kc.attrs, nil)
	delete(q, backend.ReturnData)
	_, err := kc.backend.Match(q)
	err = mapStatus("contains", err)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
