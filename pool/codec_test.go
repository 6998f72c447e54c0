package pool

import (
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/binary"
	"encoding/json"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// makeKey returns the ed25519 public key of a seed filled with seed.
func makeKey(seed byte) solana.PublicKey {
	s := make([]byte, ed25519.SeedSize)
	for i := range s {
		s[i] = seed
	}
	pub := ed25519.NewKeyFromSeed(s).Public().(ed25519.PublicKey)
	return solana.PublicKeyFromBytes(pub)
}

func TestDiscriminators(t *testing.T) {
	tests := []struct {
		name string
		got  [8]byte
	}{
		{"GlobalState", globalStateDiscriminator},
		{"Pool", poolDiscriminator},
		{"Participant", participantDiscriminator},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sum := sha256.Sum256([]byte("account:" + tt.name))
			assert.Equal(t, sum[:8], tt.got[:])
		})
	}
}

func TestGlobalState_Layout(t *testing.T) {
	g := &GlobalState{
		Authority:      makeKey(0xA1),
		Treasury:       makeKey(0xB2),
		FeeBasisPoints: 250,
		PoolCount:      7,
		Bump:           254,
	}
	data, err := g.MarshalBinary()
	require.NoError(t, err)
	require.Len(t, data, GlobalStateSize)

	assert.Equal(t, globalStateDiscriminator[:], data[:8])
	assert.Equal(t, g.Authority[:], data[8:40])
	assert.Equal(t, g.Treasury[:], data[40:72])
	assert.Equal(t, uint16(250), binary.LittleEndian.Uint16(data[72:74]))
	assert.Equal(t, uint64(7), binary.LittleEndian.Uint64(data[74:82]))
	assert.Equal(t, byte(254), data[82])

	var got GlobalState
	require.NoError(t, got.UnmarshalBinary(data))
	assert.Equal(t, *g, got)
}

func TestPool_RoundTrip(t *testing.T) {
	p := &Pool{
		PoolID:            3,
		Creator:           makeKey(0x01),
		Status:            StatusInProgress,
		MinDeposit:        1000,
		MaxPlayers:        MaxPlayers,
		CurrentPlayers:    2,
		TotalAmount:       5000,
		EndTime:           -1,
		PrizeDistribution: []uint8{30, 30, 20, 10},
		FeeAmount:         0,
		PlayerAccounts:    []solana.PublicKey{makeKey(0x10), makeKey(0x11), {}, {}},
		Bump:              253,
		VaultBump:         252,
	}
	data, err := p.MarshalBinary()
	require.NoError(t, err)
	require.Len(t, data, PoolSize)

	// prize_distribution is a Borsh Vec<u8>: u32 length then the bytes.
	off := 8 + 8 + 32 + 1 + 8 + 1 + 1 + 8 + 8
	assert.Equal(t, uint32(4), binary.LittleEndian.Uint32(data[off:off+4]))
	assert.Equal(t, []byte{30, 30, 20, 10}, data[off+4:off+8])

	var got Pool
	require.NoError(t, got.UnmarshalBinary(data))
	assert.Equal(t, *p, got)
}

func TestParticipant_RoundTrip(t *testing.T) {
	p := &Participant{
		Player:        makeKey(0x42),
		PoolID:        9,
		DepositAmount: 1_000_000_000,
		HasClaimed:    true,
		Rank:          2,
		PrizeAmount:   780_000_000,
		Bump:          255,
	}
	data, err := p.MarshalBinary()
	require.NoError(t, err)
	require.Len(t, data, ParticipantSize)

	var got Participant
	require.NoError(t, got.UnmarshalBinary(data))
	assert.Equal(t, *p, got)
}

func TestDecode_Errors(t *testing.T) {
	g := &GlobalState{Authority: makeKey(1), Treasury: makeKey(2)}
	data, err := g.MarshalBinary()
	require.NoError(t, err)

	t.Run("wrong record type", func(t *testing.T) {
		var p Pool
		assert.ErrorIs(t, p.UnmarshalBinary(data), ErrInvalidRecord)
	})
	t.Run("truncated", func(t *testing.T) {
		var got GlobalState
		assert.ErrorIs(t, got.UnmarshalBinary(data[:40]), ErrInvalidRecord)
	})
	t.Run("too short for discriminator", func(t *testing.T) {
		var got GlobalState
		assert.ErrorIs(t, got.UnmarshalBinary([]byte{1, 2, 3}), ErrInvalidRecord)
	})
	t.Run("oversized vector", func(t *testing.T) {
		p := &Pool{PrizeDistribution: make([]uint8, MaxPlayers+1), PlayerAccounts: make([]solana.PublicKey, MaxPlayers)}
		raw, err := p.MarshalBinary()
		require.NoError(t, err)
		var got Pool
		assert.ErrorIs(t, got.UnmarshalBinary(raw), ErrInvalidRecord)
	})
}

func TestStatus_Text(t *testing.T) {
	for _, s := range []Status{StatusOpen, StatusInProgress, StatusCompleted} {
		text, err := s.MarshalText()
		require.NoError(t, err)
		var got Status
		require.NoError(t, got.UnmarshalText(text))
		assert.Equal(t, s, got)
	}
	assert.Equal(t, "status(9)", Status(9).String())

	var s Status
	assert.Error(t, s.UnmarshalText([]byte("settling")))
}

func TestPool_MarshalJSON(t *testing.T) {
	p := Pool{
		PoolID:            7,
		Status:            StatusInProgress,
		MaxPlayers:        MaxPlayers,
		PrizeDistribution: []uint8{30, 30, 20, 10},
		PlayerAccounts:    make([]solana.PublicKey, MaxPlayers),
	}
	raw, err := json.Marshal(&p)
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, "in_progress", got["status"])
	assert.Equal(t, []any{30.0, 30.0, 20.0, 10.0}, got["prize_distribution"])
	assert.Equal(t, 7.0, got["pool_id"])
}

func TestMinimumBalance(t *testing.T) {
	assert.Equal(t, uint64(890_880), MinimumBalance(0))
	assert.Equal(t, uint64((128+PoolSize)*6960), MinimumBalance(PoolSize))
}
