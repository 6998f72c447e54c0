// Package ledger stores lamport-holding accounts keyed by address.
//
// Every state change happens inside Store.Update: the closure either returns
// nil and all of its writes become visible together, or returns an error and
// none of them do. Backends serialise writers, so a closure always sees a
// consistent pre-image of every account it reads.
package ledger

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math/bits"

	"github.com/gagliardetto/solana-go"
)

// accountHeaderSize is the encoded size of the lamport balance.
const accountHeaderSize = 8

// Account is a single addressable ledger entry.
type Account struct {
	Lamports uint64
	Data     []byte
}

// Clone returns a deep copy of the account.
func (a *Account) Clone() *Account {
	if a == nil {
		return nil
	}
	clone := &Account{Lamports: a.Lamports}
	if a.Data != nil {
		clone.Data = append([]byte(nil), a.Data...)
	}
	return clone
}

// Tx is a view over the ledger inside a single transaction.
type Tx interface {
	// Get returns the account at addr or ErrAccountNotFound.
	Get(addr solana.PublicKey) (*Account, error)

	// Create stores a new account and fails with ErrAccountExists if one is
	// already present at addr.
	Create(addr solana.PublicKey, acct *Account) error

	// Put stores acct at addr, replacing any existing account.
	Put(addr solana.PublicKey, acct *Account) error
}

// Store is a transactional account store.
type Store interface {
	// View runs fn in a read-only transaction.
	View(fn func(Tx) error) error

	// Update runs fn in a read-write transaction. Writes are committed only
	// if fn returns nil.
	Update(fn func(Tx) error) error

	// Close releases the underlying resources.
	Close() error
}

// Exists reports whether an account is stored at addr.
func Exists(tx Tx, addr solana.PublicKey) (bool, error) {
	_, err := tx.Get(addr)
	switch {
	case err == nil:
		return true, nil
	case isNotFound(err):
		return false, nil
	default:
		return false, err
	}
}

// Balance returns the lamports held at addr; a missing account holds zero.
func Balance(tx Tx, addr solana.PublicKey) (uint64, error) {
	acct, err := tx.Get(addr)
	if err != nil {
		if isNotFound(err) {
			return 0, nil
		}
		return 0, err
	}
	return acct.Lamports, nil
}

// Credit adds lamports to addr, creating a data-less account if needed.
func Credit(tx Tx, addr solana.PublicKey, lamports uint64) error {
	acct, err := tx.Get(addr)
	if err != nil {
		if !isNotFound(err) {
			return err
		}
		acct = &Account{}
	}
	sum, carry := bits.Add64(acct.Lamports, lamports, 0)
	if carry != 0 {
		return fmt.Errorf("%w: %s", ErrBalanceOverflow, addr)
	}
	acct.Lamports = sum
	return tx.Put(addr, acct)
}

// Transfer moves lamports from one account to another. The destination is
// created as a data-less account if it does not exist yet. The source must
// exist and hold lamports even when the transfer is to itself or empty.
func Transfer(tx Tx, from, to solana.PublicKey, lamports uint64) error {
	if err := Debit(tx, from, lamports); err != nil {
		return err
	}
	if lamports == 0 {
		return nil
	}
	return Credit(tx, to, lamports)
}

// Debit removes lamports from addr.
func Debit(tx Tx, addr solana.PublicKey, lamports uint64) error {
	acct, err := tx.Get(addr)
	if err != nil {
		if isNotFound(err) {
			return fmt.Errorf("%w: %s has no account", ErrInsufficientFunds, addr)
		}
		return err
	}
	if acct.Lamports < lamports {
		return fmt.Errorf("%w: %s holds %d, needs %d", ErrInsufficientFunds, addr, acct.Lamports, lamports)
	}
	if lamports == 0 {
		return nil
	}
	acct.Lamports -= lamports
	return tx.Put(addr, acct)
}

func isNotFound(err error) bool {
	return errors.Is(err, ErrAccountNotFound)
}

// encodeAccount lays an account out as LE8(lamports) || data.
func encodeAccount(acct *Account) []byte {
	buf := make([]byte, accountHeaderSize+len(acct.Data))
	binary.LittleEndian.PutUint64(buf[:accountHeaderSize], acct.Lamports)
	copy(buf[accountHeaderSize:], acct.Data)
	return buf
}

// decodeAccount copies raw into a fresh Account; raw may be backend-owned memory.
func decodeAccount(raw []byte) (*Account, error) {
	if len(raw) < accountHeaderSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrInvalidAccountData, len(raw))
	}
	acct := &Account{Lamports: binary.LittleEndian.Uint64(raw[:accountHeaderSize])}
	if len(raw) > accountHeaderSize {
		acct.Data = append([]byte(nil), raw[accountHeaderSize:]...)
	}
	return acct, nil
}
