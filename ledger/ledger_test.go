package ledger

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeAddr(seed byte) solana.PublicKey {
	var k solana.PublicKey
	for i := range k {
		k[i] = seed
	}
	return k
}

// backends returns one fresh store per supported backend.
func backends(t *testing.T) map[string]Store {
	t.Helper()
	dir := t.TempDir()

	bolt, err := OpenBoltStore(filepath.Join(dir, "bolt", "ledger.db"))
	require.NoError(t, err)
	level, err := OpenLevelStore(filepath.Join(dir, "leveldb"))
	require.NoError(t, err)
	peb, err := OpenPebbleStore(filepath.Join(dir, "pebble"))
	require.NoError(t, err)
	cached, err := NewCachedStore(NewMemStore(), 8)
	require.NoError(t, err)

	stores := map[string]Store{
		"memory":  NewMemStore(),
		"bolt":    bolt,
		"leveldb": level,
		"pebble":  peb,
		"cached":  cached,
	}
	t.Cleanup(func() {
		for _, s := range stores {
			_ = s.Close()
		}
	})
	return stores
}

func TestStore_CreateGet(t *testing.T) {
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			addr := makeAddr(0x01)
			err := store.Update(func(tx Tx) error {
				return tx.Create(addr, &Account{Lamports: 42, Data: []byte{1, 2, 3}})
			})
			require.NoError(t, err)

			err = store.View(func(tx Tx) error {
				acct, err := tx.Get(addr)
				require.NoError(t, err)
				assert.Equal(t, uint64(42), acct.Lamports)
				assert.Equal(t, []byte{1, 2, 3}, acct.Data)
				return nil
			})
			require.NoError(t, err)
		})
	}
}

func TestStore_CreateTwiceFails(t *testing.T) {
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			addr := makeAddr(0x02)
			require.NoError(t, store.Update(func(tx Tx) error {
				return tx.Create(addr, &Account{Lamports: 1})
			}))

			err := store.Update(func(tx Tx) error {
				return tx.Create(addr, &Account{Lamports: 2})
			})
			assert.ErrorIs(t, err, ErrAccountExists)

			require.NoError(t, store.View(func(tx Tx) error {
				bal, err := Balance(tx, addr)
				require.NoError(t, err)
				assert.Equal(t, uint64(1), bal)
				return nil
			}))
		})
	}
}

func TestStore_CreateTwiceInSameTxFails(t *testing.T) {
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			addr := makeAddr(0x03)
			err := store.Update(func(tx Tx) error {
				if err := tx.Create(addr, &Account{}); err != nil {
					return err
				}
				return tx.Create(addr, &Account{})
			})
			assert.ErrorIs(t, err, ErrAccountExists)

			require.NoError(t, store.View(func(tx Tx) error {
				ok, err := Exists(tx, addr)
				require.NoError(t, err)
				assert.False(t, ok, "failed update must not leave the first create behind")
				return nil
			}))
		})
	}
}

func TestStore_UpdateRollsBackOnError(t *testing.T) {
	boom := errors.New("boom")
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			a, b := makeAddr(0x10), makeAddr(0x11)
			require.NoError(t, store.Update(func(tx Tx) error {
				return Credit(tx, a, 100)
			}))

			err := store.Update(func(tx Tx) error {
				if err := Transfer(tx, a, b, 60); err != nil {
					return err
				}
				return boom
			})
			assert.ErrorIs(t, err, boom)

			require.NoError(t, store.View(func(tx Tx) error {
				balA, err := Balance(tx, a)
				require.NoError(t, err)
				balB, err := Balance(tx, b)
				require.NoError(t, err)
				assert.Equal(t, uint64(100), balA)
				assert.Equal(t, uint64(0), balB)
				return nil
			}))
		})
	}
}

func TestStore_ViewIsReadOnly(t *testing.T) {
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			err := store.View(func(tx Tx) error {
				return tx.Put(makeAddr(0x20), &Account{Lamports: 1})
			})
			assert.ErrorIs(t, err, ErrReadOnly)
		})
	}
}

func TestStore_GetMissing(t *testing.T) {
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			err := store.View(func(tx Tx) error {
				_, err := tx.Get(makeAddr(0x30))
				return err
			})
			assert.ErrorIs(t, err, ErrAccountNotFound)
		})
	}
}

func TestTransfer(t *testing.T) {
	store := NewMemStore()
	a, b := makeAddr(0x01), makeAddr(0x02)
	require.NoError(t, store.Update(func(tx Tx) error { return Credit(tx, a, 500) }))

	require.NoError(t, store.Update(func(tx Tx) error { return Transfer(tx, a, b, 200) }))

	err := store.Update(func(tx Tx) error { return Transfer(tx, a, b, 301) })
	assert.ErrorIs(t, err, ErrInsufficientFunds)

	err = store.Update(func(tx Tx) error { return Transfer(tx, makeAddr(0x09), b, 1) })
	assert.ErrorIs(t, err, ErrInsufficientFunds)

	require.NoError(t, store.View(func(tx Tx) error {
		balA, _ := Balance(tx, a)
		balB, _ := Balance(tx, b)
		assert.Equal(t, uint64(300), balA)
		assert.Equal(t, uint64(200), balB)
		return nil
	}))
}

func TestTransfer_SelfIsNoop(t *testing.T) {
	store := NewMemStore()
	a := makeAddr(0x01)
	require.NoError(t, store.Update(func(tx Tx) error { return Credit(tx, a, 10) }))
	require.NoError(t, store.Update(func(tx Tx) error { return Transfer(tx, a, a, 10) }))
	require.NoError(t, store.View(func(tx Tx) error {
		bal, _ := Balance(tx, a)
		assert.Equal(t, uint64(10), bal)
		return nil
	}))
}

func TestCredit_Overflow(t *testing.T) {
	store := NewMemStore()
	a := makeAddr(0x01)
	require.NoError(t, store.Update(func(tx Tx) error { return Credit(tx, a, ^uint64(0)) }))
	err := store.Update(func(tx Tx) error { return Credit(tx, a, 1) })
	assert.ErrorIs(t, err, ErrBalanceOverflow)
}

func TestDebit(t *testing.T) {
	store := NewMemStore()
	a := makeAddr(0x01)
	require.NoError(t, store.Update(func(tx Tx) error { return Credit(tx, a, 10) }))
	require.NoError(t, store.Update(func(tx Tx) error { return Debit(tx, a, 4) }))
	err := store.Update(func(tx Tx) error { return Debit(tx, a, 7) })
	assert.ErrorIs(t, err, ErrInsufficientFunds)

	err = store.Update(func(tx Tx) error { return Debit(tx, makeAddr(0x09), 0) })
	assert.ErrorIs(t, err, ErrInsufficientFunds, "a missing account cannot be debited")
}

func TestTransfer_SelfRequiresFunds(t *testing.T) {
	store := NewMemStore()
	a := makeAddr(0x01)
	require.NoError(t, store.Update(func(tx Tx) error { return Credit(tx, a, 10) }))
	err := store.Update(func(tx Tx) error { return Transfer(tx, a, a, 11) })
	assert.ErrorIs(t, err, ErrInsufficientFunds)
}

func TestEncodeDecodeAccount(t *testing.T) {
	acct := &Account{Lamports: 0x0102030405060708, Data: []byte("data")}
	raw := encodeAccount(acct)
	assert.Len(t, raw, 8+4)
	assert.Equal(t, byte(0x08), raw[0], "lamports are little-endian")

	got, err := decodeAccount(raw)
	require.NoError(t, err)
	assert.Equal(t, acct, got)

	_, err = decodeAccount([]byte{1, 2})
	assert.ErrorIs(t, err, ErrInvalidAccountData)
}

func TestCachedStore_PublishesOnlyCommitted(t *testing.T) {
	inner := NewMemStore()
	store, err := NewCachedStore(inner, 4)
	require.NoError(t, err)
	a := makeAddr(0x01)

	_ = store.Update(func(tx Tx) error {
		if err := Credit(tx, a, 5); err != nil {
			return err
		}
		return errors.New("abort")
	})
	assert.Equal(t, 0, store.Len())

	require.NoError(t, store.Update(func(tx Tx) error { return Credit(tx, a, 7) }))
	assert.Equal(t, 1, store.Len())

	require.NoError(t, store.View(func(tx Tx) error {
		bal, err := Balance(tx, a)
		require.NoError(t, err)
		assert.Equal(t, uint64(7), bal)
		return nil
	}))
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()
	for _, backend := range Backends {
		t.Run(backend, func(t *testing.T) {
			store, err := Open(backend, filepath.Join(dir, backend), 0)
			require.NoError(t, err)
			require.NoError(t, store.Close())
		})
	}

	s, err := Open(BackendMemory, dir, 16)
	require.NoError(t, err)
	_, ok := s.(*CachedStore)
	assert.True(t, ok)

	s, err = Open(BackendMemory, dir, 0)
	require.NoError(t, err)
	_, ok = s.(*CachedStore)
	assert.False(t, ok, "a zero cache size opens the backend directly")

	_, err = Open("redis", dir, 0)
	assert.ErrorIs(t, err, ErrUnknownBackend)
}
