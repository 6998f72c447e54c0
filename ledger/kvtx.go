package ledger

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// kv is the minimal byte-level surface a backend exposes inside a transaction.
type kv interface {
	get(key []byte) ([]byte, bool, error)
	put(key, value []byte) error
	writable() bool
}

// kvTx implements Tx on top of a backend kv.
type kvTx struct {
	kv     kv
	prefix []byte
}

func (t *kvTx) key(addr solana.PublicKey) []byte {
	k := make([]byte, 0, len(t.prefix)+len(addr))
	k = append(k, t.prefix...)
	return append(k, addr[:]...)
}

func (t *kvTx) Get(addr solana.PublicKey) (*Account, error) {
	raw, ok, err := t.kv.get(t.key(addr))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrAccountNotFound, addr)
	}
	return decodeAccount(raw)
}

func (t *kvTx) Create(addr solana.PublicKey, acct *Account) error {
	if acct == nil {
		return fmt.Errorf("%w: account", ErrNilParam)
	}
	if !t.kv.writable() {
		return ErrReadOnly
	}
	k := t.key(addr)
	_, ok, err := t.kv.get(k)
	if err != nil {
		return err
	}
	if ok {
		return fmt.Errorf("%w: %s", ErrAccountExists, addr)
	}
	return t.kv.put(k, encodeAccount(acct))
}

func (t *kvTx) Put(addr solana.PublicKey, acct *Account) error {
	if acct == nil {
		return fmt.Errorf("%w: account", ErrNilParam)
	}
	if !t.kv.writable() {
		return ErrReadOnly
	}
	return t.kv.put(t.key(addr), encodeAccount(acct))
}
