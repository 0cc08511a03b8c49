package backend

import (
	"slices"
	"sort"
	"sync"
)

// Memory is an in-process Backend. Items do not survive the process; it is
// meant for tests and for platforms without a credential store.
type Memory struct {
	*flat
}

// NewMemory creates an empty in-memory backend.
func NewMemory() *Memory {
	return &Memory{flat: newFlat(&memoryStore{scopes: make(map[string]map[string][]byte)})}
}

type memoryStore struct {
	mu     sync.RWMutex
	scopes map[string]map[string][]byte
}

func (s *memoryStore) load(scope, account string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.scopes[scope][account]
	if !ok {
		return nil, errNoEntry
	}
	return slices.Clone(data), nil
}

func (s *memoryStore) save(scope, account string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	accounts, ok := s.scopes[scope]
	if !ok {
		accounts = make(map[string][]byte)
		s.scopes[scope] = accounts
	}
	accounts[account] = slices.Clone(data)
	return nil
}

func (s *memoryStore) erase(scope, account string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.scopes[scope], account)
	if len(s.scopes[scope]) == 0 {
		delete(s.scopes, scope)
	}
	return nil
}

func (s *memoryStore) accounts(scope string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.scopes[scope]))
	for k := range s.scopes[scope] {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}
