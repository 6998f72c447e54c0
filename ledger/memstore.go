package ledger

import (
	"sync"
)

// MemStore is an in-memory Store for tests and ephemeral runs.
type MemStore struct {
	mu       sync.RWMutex
	accounts map[string][]byte
}

// Compile-time interface check.
var _ Store = (*MemStore)(nil)

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{accounts: make(map[string][]byte)}
}

// View runs fn against a read-only view of the committed accounts.
func (s *MemStore) View(fn func(Tx) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(&kvTx{kv: &memKV{base: s.accounts}})
}

// Update runs fn against a private overlay and merges it on success.
func (s *MemStore) Update(fn func(Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	overlay := &memKV{base: s.accounts, dirty: make(map[string][]byte), rw: true}
	if err := fn(&kvTx{kv: overlay}); err != nil {
		return err
	}
	for k, v := range overlay.dirty {
		s.accounts[k] = v
	}
	return nil
}

// Close drops all accounts.
func (s *MemStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts = make(map[string][]byte)
	return nil
}

// memKV reads through a dirty overlay to the committed map.
type memKV struct {
	base  map[string][]byte
	dirty map[string][]byte
	rw    bool
}

func (m *memKV) get(key []byte) ([]byte, bool, error) {
	if v, ok := m.dirty[string(key)]; ok {
		return v, true, nil
	}
	v, ok := m.base[string(key)]
	return v, ok, nil
}

func (m *memKV) put(key, value []byte) error {
	m.dirty[string(key)] = append([]byte(nil), value...)
	return nil
}

func (m *memKV) writable() bool { return m.rw }
