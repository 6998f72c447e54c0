package ledger

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"
)

var bucketAccounts = []byte("accounts")

// boltLockTimeout bounds the wait for the file lock held by another process.
const boltLockTimeout = 2 * time.Second

// BoltStore persists accounts in a bbolt database. bbolt allows a single
// writer at a time, which is the serialisation the pool instructions rely on.
type BoltStore struct {
	db *bbolt.DB
}

// Compile-time interface check.
var _ Store = (*BoltStore)(nil)

// OpenBoltStore opens or creates the bbolt database at dbPath.
// The parent directory is created if it does not exist.
func OpenBoltStore(dbPath string) (*BoltStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0700); err != nil {
		return nil, fmt.Errorf("ledger: create directory: %w", err)
	}
	db, err := bbolt.Open(dbPath, 0600, &bbolt.Options{Timeout: boltLockTimeout})
	if err != nil {
		return nil, fmt.Errorf("ledger: open bolt db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(bucketAccounts); err != nil {
			return fmt.Errorf("ledger: create bucket %q: %w", bucketAccounts, err)
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ledger: create buckets: %w", err)
	}

	return &BoltStore{db: db}, nil
}

// View runs fn in a bbolt read transaction.
func (s *BoltStore) View(fn func(Tx) error) error {
	return s.db.View(func(tx *bbolt.Tx) error {
		return fn(&kvTx{kv: &boltKV{b: tx.Bucket(bucketAccounts), rw: false}})
	})
}

// Update runs fn in a bbolt read-write transaction.
func (s *BoltStore) Update(fn func(Tx) error) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return fn(&kvTx{kv: &boltKV{b: tx.Bucket(bucketAccounts), rw: true}})
	})
}

// Close closes the underlying database.
func (s *BoltStore) Close() error { return s.db.Close() }

type boltKV struct {
	b  *bbolt.Bucket
	rw bool
}

func (k *boltKV) get(key []byte) ([]byte, bool, error) {
	v := k.b.Get(key)
	if v == nil {
		return nil, false, nil
	}
	return v, true, nil
}

func (k *boltKV) put(key, value []byte) error {
	if err := k.b.Put(key, value); err != nil {
		return fmt.Errorf("boltstore: put account: %w", err)
	}
	return nil
}

func (k *boltKV) writable() bool { return k.rw }
