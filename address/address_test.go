package address

import (
	"crypto/sha256"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeIdentity(seed byte) solana.PublicKey {
	var k solana.PublicKey
	for i := range k {
		k[i] = seed
	}
	return k
}

func TestPoolIDSeed_LittleEndian(t *testing.T) {
	assert.Equal(t, []byte{0, 0, 0, 0, 0, 0, 0, 0}, PoolIDSeed(0))
	assert.Equal(t, []byte{1, 0, 0, 0, 0, 0, 0, 0}, PoolIDSeed(1))
	assert.Equal(t, []byte{0x02, 0x01, 0, 0, 0, 0, 0, 0}, PoolIDSeed(0x0102))
	assert.Equal(t, []byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff}, PoolIDSeed(^uint64(0)))
}

func TestNewDeriver_DefaultProgramID(t *testing.T) {
	d := NewDeriver(solana.PublicKey{})
	assert.Equal(t, DefaultProgramID, d.ProgramID())

	custom := makeIdentity(0x42)
	assert.Equal(t, custom, NewDeriver(custom).ProgramID())
}

func TestDeriver_MatchesFindProgramAddress(t *testing.T) {
	d := NewDeriver(DefaultProgramID)
	player := makeIdentity(0xAA)

	tests := []struct {
		name  string
		got   func() (Derived, error)
		seeds [][]byte
	}{
		{"global state", d.GlobalState, [][]byte{[]byte("global-state")}},
		{"pool 0", func() (Derived, error) { return d.Pool(0) }, [][]byte{[]byte("pool"), PoolIDSeed(0)}},
		{"pool 7", func() (Derived, error) { return d.Pool(7) }, [][]byte{[]byte("pool"), PoolIDSeed(7)}},
		{"vault 0", func() (Derived, error) { return d.Vault(0) }, [][]byte{[]byte("pool-vault"), PoolIDSeed(0)}},
		{"player", func() (Derived, error) { return d.Player(3, player) }, [][]byte{[]byte("player"), PoolIDSeed(3), player[:]}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.got()
			require.NoError(t, err)

			want, bump, err := solana.FindProgramAddress(tt.seeds, DefaultProgramID)
			require.NoError(t, err)
			assert.Equal(t, want, got.Address)
			assert.Equal(t, bump, got.Bump)
			assert.NotZero(t, got.Bump)
		})
	}
}

func TestDeriver_Distinct(t *testing.T) {
	d := NewDeriver(DefaultProgramID)
	a := makeIdentity(0x01)
	b := makeIdentity(0x02)

	seen := make(map[solana.PublicKey]string)
	add := func(name string, got Derived, err error) {
		t.Helper()
		require.NoError(t, err)
		prev, dup := seen[got.Address]
		require.False(t, dup, "%s collides with %s", name, prev)
		seen[got.Address] = name
	}

	g, err := d.GlobalState()
	add("global", g, err)
	for id := uint64(0); id < 3; id++ {
		p, err := d.Pool(id)
		add("pool", p, err)
		v, err := d.Vault(id)
		add("vault", v, err)
		pa, err := d.Player(id, a)
		add("player a", pa, err)
		pb, err := d.Player(id, b)
		add("player b", pb, err)
	}
	assert.Len(t, seen, 1+3*4)
}

func TestDeriver_ProgramIDChangesAddresses(t *testing.T) {
	other := solana.PublicKeyFromBytes(func() []byte { h := sha256.Sum256([]byte("other")); return h[:] }())

	a, err := NewDeriver(DefaultProgramID).Pool(0)
	require.NoError(t, err)
	b, err := NewDeriver(other).Pool(0)
	require.NoError(t, err)
	assert.NotEqual(t, a.Address, b.Address)
}

func TestDeriver_PlayerZeroIdentity(t *testing.T) {
	_, err := NewDeriver(DefaultProgramID).Player(0, solana.PublicKey{})
	assert.ErrorIs(t, err, ErrZeroIdentity)
}

func TestDeriver_Deterministic(t *testing.T) {
	d := NewDeriver(DefaultProgramID)
	p1, err := d.Player(9, makeIdentity(0x33))
	require.NoError(t, err)
	p2, err := d.Player(9, makeIdentity(0x33))
	require.NoError(t, err)
	assert.Equal(t, p1, p2)
}
