package payout

import "errors"

var (
	// ErrInvalidBasisPoints indicates a fee rate above 10000 basis points.
	ErrInvalidBasisPoints = errors.New("payout: fee basis points out of range")

	// ErrNoEntries indicates an empty prize distribution.
	ErrNoEntries = errors.New("payout: empty prize distribution")

	// ErrDistributionOverflow indicates the percentages add up to more than 100.
	ErrDistributionOverflow = errors.New("payout: prize distribution exceeds 100 percent")

	// ErrAmountOverflow indicates a result that does not fit in 64 bits.
	ErrAmountOverflow = errors.New("payout: amount overflows uint64")

	// ErrConservationViolation indicates prizes and fee do not add up to the pooled total.
	ErrConservationViolation = errors.New("payout: prizes plus fee do not equal total")
)
