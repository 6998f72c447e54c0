package ledger

import (
	"errors"
	"fmt"

	"github.com/syndtr/goleveldb/leveldb"
)

var levelAccountPrefix = []byte("acct/")

// LevelStore persists accounts in goleveldb. Updates run inside a leveldb
// transaction, which blocks other writers until it is committed or discarded.
type LevelStore struct {
	db *leveldb.DB
}

// Compile-time interface check.
var _ Store = (*LevelStore)(nil)

// OpenLevelStore opens or creates a LevelDB database in dir.
func OpenLevelStore(dir string) (*LevelStore, error) {
	db, err := leveldb.OpenFile(dir, nil)
	if err != nil {
		return nil, fmt.Errorf("ledger: open leveldb: %w", err)
	}
	return &LevelStore{db: db}, nil
}

// View runs fn against a point-in-time snapshot.
func (s *LevelStore) View(fn func(Tx) error) error {
	snap, err := s.db.GetSnapshot()
	if err != nil {
		return fmt.Errorf("levelstore: snapshot: %w", err)
	}
	defer snap.Release()
	return fn(&kvTx{kv: &levelSnapKV{snap: snap}, prefix: levelAccountPrefix})
}

// Update runs fn inside a leveldb transaction.
func (s *LevelStore) Update(fn func(Tx) error) error {
	tr, err := s.db.OpenTransaction()
	if err != nil {
		return fmt.Errorf("levelstore: open transaction: %w", err)
	}
	if err := fn(&kvTx{kv: &levelTxKV{tr: tr}, prefix: levelAccountPrefix}); err != nil {
		tr.Discard()
		return err
	}
	if err := tr.Commit(); err != nil {
		return fmt.Errorf("levelstore: commit: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *LevelStore) Close() error { return s.db.Close() }

type levelSnapKV struct {
	snap *leveldb.Snapshot
}

func (k *levelSnapKV) get(key []byte) ([]byte, bool, error) {
	v, err := k.snap.Get(key, nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("levelstore: get: %w", err)
	}
	return v, true, nil
}

func (k *levelSnapKV) put([]byte, []byte) error { return ErrReadOnly }

func (k *levelSnapKV) writable() bool { return false }

type levelTxKV struct {
	tr *leveldb.Transaction
}

func (k *levelTxKV) get(key []byte) ([]byte, bool, error) {
	v, err := k.tr.Get(key, nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("levelstore: get: %w", err)
	}
	return v, true, nil
}

func (k *levelTxKV) put(key, value []byte) error {
	if err := k.tr.Put(key, value, nil); err != nil {
		return fmt.Errorf("levelstore: put: %w", err)
	}
	return nil
}

func (k *levelTxKV) writable() bool { return true }
