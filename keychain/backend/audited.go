package backend

import (
	"errors"

	"github.com/benaskins/typedkeychain/internal/audit"
)

// Audited wraps a Backend and records every operation that reached an item
// to an audit log.
// Payloads never reach the log.
type Audited struct {
	inner Backend
	audit *audit.Logger
	actor string // "cli" or "library"
}

// NewAudited wraps inner with audit logging.
func NewAudited(inner Backend, auditLog *audit.Logger, actor string) *Audited {
	return &Audited{inner: inner, audit: auditLog, actor: actor}
}

func (a *Audited) Add(q Query) error {
	err := a.inner.Add(q)
	a.log(audit.ActionItemWrite, q, err)
	return err
}

func (a *Audited) Update(q Query, attrs Query) error {
	err := a.inner.Update(q, attrs)
	a.log(audit.ActionItemWrite, q, err)
	return err
}

func (a *Audited) Match(q Query) ([]Query, error) {
	results, err := a.inner.Match(q)
	// attribute-only lookups (listing, presence checks) read no secret
	if q.Bool(ReturnData) {
		a.log(audit.ActionItemRead, q, err)
	}
	return results, err
}

func (a *Audited) Delete(q Query) error {
	err := a.inner.Delete(q)
	action := audit.ActionItemDelete
	if _, ok := q[AttrAccount]; !ok {
		action = audit.ActionItemClear
	}
	a.log(action, q, err)
	return err
}

// log records the outcome of an operation. Operations that matched no item
// touched nothing and leave no entry: the update half of a first-time set
// and a read of a missing key are not accesses.
func (a *Audited) log(action audit.Action, q Query, err error) {
	if errors.Is(err, StatusItemNotFound) {
		return
	}
	entry := audit.Entry{
		Action: action,
		Key:    q.String(AttrAccount),
		Scope:  q.String(AttrService),
		Actor:  a.actor,
	}
	if entry.Scope == "" {
		entry.Scope = q.String(AttrServer)
	}
	if err != nil {
		entry.Error = err.Error()
	}
	// best-effort; a failed audit write never fails the operation
	a.audit.Log(entry)
}
