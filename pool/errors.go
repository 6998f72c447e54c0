package pool

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by the engine for a rejected instruction
// matches exactly one of these with errors.Is.
var (
	// ErrValidation marks bad caller input. Retrying with corrected input may succeed.
	ErrValidation = errors.New("pool: validation error")

	// ErrCapacity marks a pool that is full, expired or in the wrong phase.
	ErrCapacity = errors.New("pool: capacity error")

	// ErrDuplicate marks a record that already exists or an action already taken.
	ErrDuplicate = errors.New("pool: duplicate error")

	// ErrArithmetic marks a counter or amount that would overflow.
	ErrArithmetic = errors.New("pool: arithmetic error")
)

var (
	ErrInvalidFeeBasisPoints    = fmt.Errorf("%w: fee basis points out of range", ErrValidation)
	ErrInvalidMinDeposit        = fmt.Errorf("%w: minimum deposit must be positive", ErrValidation)
	ErrInvalidEndTime           = fmt.Errorf("%w: end time must be in the future", ErrValidation)
	ErrInvalidPrizeDistribution = fmt.Errorf("%w: invalid prize distribution", ErrValidation)
	ErrInsufficientDeposit      = fmt.Errorf("%w: deposit below pool minimum", ErrValidation)
	ErrInsufficientFunds        = fmt.Errorf("%w: insufficient funds", ErrValidation)
	ErrInvalidIdentity          = fmt.Errorf("%w: invalid identity", ErrValidation)
	ErrNotAppointed             = fmt.Errorf("%w: global state not initialised", ErrValidation)
	ErrPoolNotFound             = fmt.Errorf("%w: pool not found", ErrValidation)
	ErrParticipantNotFound      = fmt.Errorf("%w: participant not found", ErrValidation)
	ErrUnauthorized             = fmt.Errorf("%w: signer is not the authority", ErrValidation)
	ErrSettlementMismatch       = fmt.Errorf("%w: standings do not match pool participants", ErrValidation)
	ErrNothingToClaim           = fmt.Errorf("%w: no prize to claim", ErrValidation)

	ErrPoolNotOpen       = fmt.Errorf("%w: pool is not open", ErrCapacity)
	ErrPoolExpired       = fmt.Errorf("%w: pool end time has passed", ErrCapacity)
	ErrPoolFull          = fmt.Errorf("%w: pool is full", ErrCapacity)
	ErrPoolNotInProgress = fmt.Errorf("%w: pool is not in progress", ErrCapacity)
	ErrPoolNotCompleted  = fmt.Errorf("%w: pool is not completed", ErrCapacity)

	ErrAlreadyAppointed = fmt.Errorf("%w: global state already initialised", ErrDuplicate)
	ErrAlreadyJoined    = fmt.Errorf("%w: identity already joined this pool", ErrDuplicate)
	ErrAlreadyClaimed   = fmt.Errorf("%w: prize already claimed", ErrDuplicate)

	ErrCounterOverflow = fmt.Errorf("%w: pool counter overflow", ErrArithmetic)
	ErrAmountOverflow  = fmt.Errorf("%w: amount overflow", ErrArithmetic)

	// ErrInvalidRecord indicates stored bytes that do not decode as the expected record.
	ErrInvalidRecord = errors.New("pool: invalid record data")
)

// Kind returns the name of the error kind err belongs to, or "internal" when
// it is not one of the engine's rejection kinds.
func Kind(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrCapacity):
		return "capacity"
	case errors.Is(err, ErrDuplicate):
		return "duplicate"
	case errors.Is(err, ErrArithmetic):
		return "arithmetic"
	default:
		return "internal"
	}
}

var errNilStore = errors.New("pool: store not configured")
