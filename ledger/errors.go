package ledger

import "errors"

var (
	// ErrAccountNotFound indicates no account exists at the address.
	ErrAccountNotFound = errors.New("ledger: account not found")

	// ErrAccountExists indicates an account already exists at the address.
	ErrAccountExists = errors.New("ledger: account already exists")

	// ErrInsufficientFunds indicates the source balance cannot cover a debit.
	ErrInsufficientFunds = errors.New("ledger: insufficient funds")

	// ErrBalanceOverflow indicates a credit would overflow a 64-bit balance.
	ErrBalanceOverflow = errors.New("ledger: balance overflow")

	// ErrReadOnly indicates a write was attempted inside a read-only transaction.
	ErrReadOnly = errors.New("ledger: transaction is read-only")

	// ErrInvalidAccountData indicates a stored account could not be decoded.
	ErrInvalidAccountData = errors.New("ledger: invalid account data")

	// ErrNilParam indicates a required parameter was nil.
	ErrNilParam = errors.New("ledger: nil parameter")

	// ErrUnknownBackend indicates the configured storage backend is not supported.
	ErrUnknownBackend = errors.New("ledger: unknown backend")
)
