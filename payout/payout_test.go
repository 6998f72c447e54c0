package payout

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFee(t *testing.T) {
	tests := []struct {
		name  string
		total uint64
		bps   uint16
		want  uint64
	}{
		{"zero rate", 4_000_000_000, 0, 0},
		{"2.5 percent", 4_000_000_000, 250, 100_000_000},
		{"full rate", 1234, 10_000, 1234},
		{"floors", 999, 250, 24},
		{"max total", math.MaxUint64, 10_000, math.MaxUint64},
		{"max total half", math.MaxUint64, 5_000, math.MaxUint64 / 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Fee(tt.total, tt.bps)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFee_InvalidBasisPoints(t *testing.T) {
	_, err := Fee(100, 10_001)
	assert.ErrorIs(t, err, ErrInvalidBasisPoints)
}

func TestCompute(t *testing.T) {
	split, err := Compute(4_000_000_000, 250, []uint8{30, 30, 20, 10})
	require.NoError(t, err)

	assert.Equal(t, uint64(100_000_000), split.ProtocolFee)
	assert.Equal(t, uint64(3_900_000_000), split.Net())
	assert.Equal(t, []uint64{1_170_000_000, 1_170_000_000, 780_000_000, 390_000_000}, split.Prizes)
	assert.Equal(t, uint64(390_000_000), split.Remainder, "unallocated 10 percent")
	assert.Equal(t, uint64(490_000_000), split.FeeAmount())
	require.NoError(t, Validate(split, 4_000_000_000))
}

func TestCompute_RoundingGoesToFee(t *testing.T) {
	split, err := Compute(1001, 0, []uint8{34, 33, 33})
	require.NoError(t, err)

	assert.Equal(t, []uint64{340, 330, 330}, split.Prizes)
	assert.Equal(t, uint64(1), split.FeeAmount())
	assert.Equal(t, uint64(1000), split.PrizeTotal())
	require.NoError(t, Validate(split, 1001))
}

func TestCompute_Conserves(t *testing.T) {
	totals := []uint64{0, 1, 7, 1_000, 123_456_789, math.MaxUint64}
	rates := []uint16{0, 1, 250, 9_999, 10_000}
	dists := [][]uint8{{100}, {25, 25, 25, 25}, {30, 30, 20, 10}, {1, 1, 1, 1}, {0, 0, 0, 0}}

	for _, total := range totals {
		for _, bps := range rates {
			for _, dist := range dists {
				split, err := Compute(total, bps, dist)
				require.NoError(t, err)
				assert.NoError(t, Validate(split, total), "total=%d bps=%d dist=%v", total, bps, dist)
			}
		}
	}
}

func TestCompute_Errors(t *testing.T) {
	tests := []struct {
		name string
		bps  uint16
		dist []uint8
		want error
	}{
		{"empty distribution", 0, nil, ErrNoEntries},
		{"over 100 percent", 0, []uint8{50, 50, 1}, ErrDistributionOverflow},
		{"uint8 wrap is caught", 0, []uint8{200, 100}, ErrDistributionOverflow},
		{"bad rate", 10_001, []uint8{100}, ErrInvalidBasisPoints},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Compute(1000, tt.bps, tt.dist)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestValidate_Mismatch(t *testing.T) {
	split := Split{Total: 100, ProtocolFee: 10, Prizes: []uint64{50, 50}}
	assert.ErrorIs(t, Validate(split, 100), ErrConservationViolation)

	split = Split{Total: 100, ProtocolFee: 10, Prizes: []uint64{math.MaxUint64, 1}}
	assert.ErrorIs(t, Validate(split, 100), ErrConservationViolation)
}
