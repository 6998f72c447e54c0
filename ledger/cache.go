package ledger

import (
	"fmt"
	"sync"

	"github.com/gagliardetto/solana-go"
	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheSize is the number of decoded accounts kept by CachedStore
// when no size is configured.
const DefaultCacheSize = 4096

// CachedStore keeps recently read accounts in an LRU in front of another
// Store. Writes reach the cache only after the wrapped Update has committed,
// and readers are excluded while a writer is active, so a View never mixes
// cached post-commit state with pre-commit state from the backend.
//
// The CachedStore must be the only writer of the wrapped store. Writes made
// through another handle, including another process sharing the same files,
// are not seen and cached accounts go stale, also inside Update.
type CachedStore struct {
	mu    sync.RWMutex
	inner Store
	cache *lru.Cache[solana.PublicKey, []byte]
}

// Compile-time interface check.
var _ Store = (*CachedStore)(nil)

// NewCachedStore wraps inner with an LRU of size entries.
func NewCachedStore(inner Store, size int) (*CachedStore, error) {
	if inner == nil {
		return nil, fmt.Errorf("%w: inner store", ErrNilParam)
	}
	if size <= 0 {
		size = DefaultCacheSize
	}
	cache, err := lru.New[solana.PublicKey, []byte](size)
	if err != nil {
		return nil, fmt.Errorf("ledger: create cache: %w", err)
	}
	return &CachedStore{inner: inner, cache: cache}, nil
}

// View runs fn with reads served from the cache where possible.
func (s *CachedStore) View(fn func(Tx) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.inner.View(func(tx Tx) error {
		return fn(&cachedTx{inner: tx, cache: s.cache})
	})
}

// Update runs fn against the wrapped store and publishes its writes to the
// cache once committed.
func (s *CachedStore) Update(fn func(Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	dirty := make(map[solana.PublicKey][]byte)
	err := s.inner.Update(func(tx Tx) error {
		clear(dirty)
		return fn(&cachedTx{inner: tx, cache: s.cache, dirty: dirty})
	})
	if err != nil {
		return err
	}
	for addr, raw := range dirty {
		s.cache.Add(addr, raw)
	}
	return nil
}

// Close purges the cache and closes the wrapped store.
func (s *CachedStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache.Purge()
	return s.inner.Close()
}

// Len reports the number of cached accounts.
func (s *CachedStore) Len() int { return s.cache.Len() }

type cachedTx struct {
	inner Tx
	cache *lru.Cache[solana.PublicKey, []byte]
	dirty map[solana.PublicKey][]byte
}

func (t *cachedTx) Get(addr solana.PublicKey) (*Account, error) {
	if raw, ok := t.dirty[addr]; ok {
		return decodeAccount(raw)
	}
	if raw, ok := t.cache.Get(addr); ok {
		return decodeAccount(raw)
	}
	acct, err := t.inner.Get(addr)
	if err != nil {
		return nil, err
	}
	// Only committed state is read here, so it is safe to cache even if the
	// surrounding update later fails.
	if t.dirty == nil {
		t.cache.Add(addr, encodeAccount(acct))
	}
	return acct, nil
}

func (t *cachedTx) Create(addr solana.PublicKey, acct *Account) error {
	if err := t.inner.Create(addr, acct); err != nil {
		return err
	}
	t.remember(addr, acct)
	return nil
}

func (t *cachedTx) Put(addr solana.PublicKey, acct *Account) error {
	if err := t.inner.Put(addr, acct); err != nil {
		return err
	}
	t.remember(addr, acct)
	return nil
}

func (t *cachedTx) remember(addr solana.PublicKey, acct *Account) {
	if t.dirty != nil {
		t.dirty[addr] = encodeAccount(acct)
	}
}
