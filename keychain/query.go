package keychain

import "github.com/benaskins/typedkeychain/keychain/backend"

type operation int

const (
	opFetch operation = iota
	opInsert
	opUpdate
	opDelete
	// opDeleteAll and opList cover every item under the identity.
	opDeleteAll
	opList
)

// identityQuery holds the class tag and the attributes that discriminate
// this Keychain's items. Generic and internet attribute sets never mix.
func (kc *Keychain) identityQuery() backend.Query {
	q := backend.Query{}
	switch kc.class {
	case classInternet:
		q[backend.AttrClass] = backend.ClassInternetPassword
		q[backend.AttrServer] = kc.server.host
		if kc.server.protocol != "" {
			q[backend.AttrProtocol] = string(kc.server.protocol)
		}
		if kc.server.port != 0 {
			q[backend.AttrPort] = kc.server.port
		}
		if kc.server.path != "" {
			q[backend.AttrPath] = kc.server.path
		}
		if kc.server.securityDomain != "" {
			q[backend.AttrSecurityDomain] = kc.server.securityDomain
		}
		if kc.server.authType != "" {
			q[backend.AttrAuthType] = string(kc.server.authType)
		}
	default:
		q[backend.AttrClass] = backend.ClassGenericPassword
		q[backend.AttrService] = kc.service
	}
	return q
}

// buildQuery assembles the query for op on the item named account. account
// is ignored by opDeleteAll and opList. For opUpdate the result is the match
// half of the update; see updateQueries. payload is attached for opInsert.
func (kc *Keychain) buildQuery(op operation, account string, attrs Attributes, payload []byte) backend.Query {
	q := kc.identityQuery()

	if attrs.AccessGroup != "" {
		q[backend.AttrAccessGroup] = attrs.AccessGroup
	}

	switch op {
	case opInsert:
		switch attrs.Synchronizable {
		case SyncYes:
			q[backend.AttrSynchronizable] = true
		case SyncNo:
			q[backend.AttrSynchronizable] = false
		}
		writable(q, attrs)
	case opDeleteAll, opList:
		// keys may override sync, so whole-identity queries cover both
		q[backend.AttrSynchronizable] = backend.SynchronizableAny
	default:
		if attrs.Synchronizable == SyncYes {
			q[backend.AttrSynchronizable] = backend.SynchronizableAny
		}
	}

	if op != opDeleteAll && op != opList {
		q[backend.AttrAccount] = account
	}

	switch op {
	case opFetch:
		q[backend.ReturnData] = true
		q[backend.MatchLimit] = backend.MatchOne
	case opList:
		q[backend.ReturnAttributes] = true
		q[backend.MatchLimit] = backend.MatchAll
	case opInsert:
		q[backend.AttrData] = payload
	}
	return q
}

// writable adds the attributes that only make sense on stored items.
func writable(q backend.Query, attrs Attributes) {
	if attrs.Accessibility != "" {
		q[backend.AttrAccessible] = string(attrs.Accessibility)
	}
	if attrs.Label != "" {
		q[backend.AttrLabel] = attrs.Label
	}
	if attrs.Comment != "" {
		q[backend.AttrComment] = attrs.Comment
	}
	if attrs.Description != "" {
		q[backend.AttrDescription] = attrs.Description
	}
	if attrs.Invisible {
		q[backend.AttrInvisible] = true
	}
	if attrs.Negative {
		q[backend.AttrNegative] = true
	}
}

// updateQueries splits an update into the match query and the changes the
// backend applies to the matched item.
func (kc *Keychain) updateQueries(account string, attrs Attributes, payload []byte) (match, change backend.Query) {
	match = kc.buildQuery(opUpdate, account, attrs, nil)
	change = backend.Query{backend.AttrData: payload}
	writable(change, attrs)
	return match, change
}
