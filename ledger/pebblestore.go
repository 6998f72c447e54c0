package ledger

import (
	"errors"
	"fmt"
	"sync"

	"github.com/cockroachdb/pebble"
)

var pebbleAccountPrefix = []byte("acct/")

// PebbleStore persists accounts in pebble. Pebble has no multi-key
// transactions, so writers are serialised with a mutex and stage their
// changes in an indexed batch that is committed atomically.
type PebbleStore struct {
	mu sync.Mutex
	db *pebble.DB
}

// Compile-time interface check.
var _ Store = (*PebbleStore)(nil)

// OpenPebbleStore opens or creates a pebble database in dir.
func OpenPebbleStore(dir string) (*PebbleStore, error) {
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("ledger: open pebble: %w", err)
	}
	return &PebbleStore{db: db}, nil
}

// View runs fn against a snapshot.
func (s *PebbleStore) View(fn func(Tx) error) error {
	snap := s.db.NewSnapshot()
	defer snap.Close()
	return fn(&kvTx{kv: &pebbleReadKV{r: snap}, prefix: pebbleAccountPrefix})
}

// Update runs fn against an indexed batch and commits it with fsync.
func (s *PebbleStore) Update(fn func(Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	batch := s.db.NewIndexedBatch()
	defer batch.Close()

	if err := fn(&kvTx{kv: &pebbleBatchKV{batch: batch}, prefix: pebbleAccountPrefix}); err != nil {
		return err
	}
	if err := batch.Commit(pebble.Sync); err != nil {
		return fmt.Errorf("pebblestore: commit: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *PebbleStore) Close() error { return s.db.Close() }

func pebbleGet(r pebble.Reader, key []byte) ([]byte, bool, error) {
	v, closer, err := r.Get(key)
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("pebblestore: get: %w", err)
	}
	defer closer.Close()
	return append([]byte(nil), v...), true, nil
}

type pebbleReadKV struct {
	r pebble.Reader
}

func (k *pebbleReadKV) get(key []byte) ([]byte, bool, error) { return pebbleGet(k.r, key) }

func (k *pebbleReadKV) put([]byte, []byte) error { return ErrReadOnly }

func (k *pebbleReadKV) writable() bool { return false }

type pebbleBatchKV struct {
	batch *pebble.Batch
}

func (k *pebbleBatchKV) get(key []byte) ([]byte, bool, error) { return pebbleGet(k.batch, key) }

func (k *pebbleBatchKV) put(key, value []byte) error {
	if err := k.batch.Set(key, value, nil); err != nil {
		return fmt.Errorf("pebblestore: set: %w", err)
	}
	return nil
}

func (k *pebbleBatchKV) writable() bool { return true }
