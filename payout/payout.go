// Package payout computes protocol fees and prize splits for a settled pool.
//
// Intermediate products are carried in 256-bit integers so that
// total*basis_points can never wrap, whatever the pooled total.
package payout

import (
	"fmt"

	"github.com/holiman/uint256"
)

const (
	// MaxBasisPoints is 100% expressed in basis points.
	MaxBasisPoints = 10_000

	// PercentDenominator is the denominator of a prize distribution entry.
	PercentDenominator = 100
)

var (
	bpsDenominator     = uint256.NewInt(MaxBasisPoints)
	percentDenominator = uint256.NewInt(PercentDenominator)
)

// Split is the result of dividing a pooled total between ranked places and
// the protocol.
type Split struct {
	Total       uint64   // pooled deposits
	ProtocolFee uint64   // floor(Total * bps / 10000)
	Prizes      []uint64 // per place, floor(net * pct / 100)
	Remainder   uint64   // net left over after flooring and unallocated percent
}

// Net returns the amount available for prizes.
func (s Split) Net() uint64 { return s.Total - s.ProtocolFee }

// FeeAmount returns what accrues to the protocol: the fee plus any remainder.
func (s Split) FeeAmount() uint64 { return s.ProtocolFee + s.Remainder }

// PrizeTotal returns the sum of all prizes.
func (s Split) PrizeTotal() uint64 {
	var sum uint64
	for _, p := range s.Prizes {
		sum += p
	}
	return sum
}

// ValidateBasisPoints rejects fee rates above 100%.
func ValidateBasisPoints(bps uint16) error {
	if bps > MaxBasisPoints {
		return fmt.Errorf("%w: %d", ErrInvalidBasisPoints, bps)
	}
	return nil
}

// ValidateDistribution checks that a percentage schedule is non-empty and
// allocates at most 100 percent.
func ValidateDistribution(distribution []uint8) error {
	if len(distribution) == 0 {
		return ErrNoEntries
	}
	sum := PercentSum(distribution)
	if sum > PercentDenominator {
		return fmt.Errorf("%w: sum=%d", ErrDistributionOverflow, sum)
	}
	return nil
}

// PercentSum adds up a distribution without overflowing uint8.
func PercentSum(distribution []uint8) uint {
	var sum uint
	for _, pct := range distribution {
		sum += uint(pct)
	}
	return sum
}

// Fee returns floor(total * bps / 10000).
func Fee(total uint64, bps uint16) (uint64, error) {
	if err := ValidateBasisPoints(bps); err != nil {
		return 0, err
	}
	return mulDiv(total, uint64(bps), bpsDenominator)
}

// Compute divides total between the places of distribution after deducting
// the protocol fee. Place i receives floor(net * distribution[i] / 100).
func Compute(total uint64, bps uint16, distribution []uint8) (Split, error) {
	if err := ValidateDistribution(distribution); err != nil {
		return Split{}, err
	}
	fee, err := Fee(total, bps)
	if err != nil {
		return Split{}, err
	}

	split := Split{
		Total:       total,
		ProtocolFee: fee,
		Prizes:      make([]uint64, len(distribution)),
	}
	net := total - fee
	var allocated uint64
	for i, pct := range distribution {
		prize, err := mulDiv(net, uint64(pct), percentDenominator)
		if err != nil {
			return Split{}, fmt.Errorf("place %d: %w", i, err)
		}
		split.Prizes[i] = prize
		allocated += prize
	}
	split.Remainder = net - allocated
	return split, nil
}

// Validate checks that s conserves total: every prize plus the fee amount
// equals the pooled deposits.
func Validate(s Split, total uint64) error {
	sum := new(uint256.Int).SetUint64(s.ProtocolFee)
	sum.Add(sum, uint256.NewInt(s.Remainder))
	for _, p := range s.Prizes {
		sum.Add(sum, uint256.NewInt(p))
	}
	if !sum.IsUint64() || sum.Uint64() != total || s.Total != total {
		return fmt.Errorf("%w: got=%s want=%d", ErrConservationViolation, sum.Dec(), total)
	}
	return nil
}

func mulDiv(a, b uint64, denom *uint256.Int) (uint64, error) {
	x := new(uint256.Int).Mul(uint256.NewInt(a), uint256.NewInt(b))
	x.Div(x, denom)
	if !x.IsUint64() {
		return 0, ErrAmountOverflow
	}
	return x.Uint64(), nil
}
