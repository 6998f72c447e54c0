// Package address derives the deterministic account addresses used by the
// pool escrow program.
//
// Every record lives at a program-derived address (PDA) computed from a fixed
// namespace tag and, where applicable, the pool identifier and participant
// identity:
//
//	global state  ["global-state"]
//	pool          ["pool",       LE8(pool_id)]
//	vault         ["pool-vault", LE8(pool_id)]
//	participant   ["player",     LE8(pool_id), identity]
//
// The participant address is what makes a second join by the same identity
// collide with the first one at the storage layer.
package address

import (
	"encoding/binary"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// Namespace tags used as the first seed of every derivation.
const (
	SeedGlobalState = "global-state"
	SeedPool        = "pool"
	SeedVault       = "pool-vault"
	SeedPlayer      = "player"
)

// DefaultProgramID is the program id the addresses are derived under when
// none is configured.
var DefaultProgramID = solana.MustPublicKeyFromBase58("8p5UVzYajicbUbJdhZZrL9QfCXW5sNdYLxP3CcFbkvfa")

// Derived is a derived address together with the bump seed that made it
// fall off the ed25519 curve.
type Derived struct {
	Address solana.PublicKey
	Bump    uint8
}

// Deriver computes record addresses for one program id.
type Deriver struct {
	programID solana.PublicKey
}

// NewDeriver returns a Deriver for programID. A zero program id selects
// DefaultProgramID.
func NewDeriver(programID solana.PublicKey) *Deriver {
	if programID.IsZero() {
		programID = DefaultProgramID
	}
	return &Deriver{programID: programID}
}

// ProgramID returns the program id addresses are derived under.
func (d *Deriver) ProgramID() solana.PublicKey { return d.programID }

// PoolIDSeed encodes a pool identifier as the 8-byte little-endian seed.
func PoolIDSeed(poolID uint64) []byte {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, poolID)
	return b
}

// GlobalState derives the singleton registry address.
func (d *Deriver) GlobalState() (Derived, error) {
	return d.find([]byte(SeedGlobalState))
}

// Pool derives the pool record address for poolID.
func (d *Deriver) Pool(poolID uint64) (Derived, error) {
	return d.find([]byte(SeedPool), PoolIDSeed(poolID))
}

// Vault derives the custody account address for poolID.
func (d *Deriver) Vault(poolID uint64) (Derived, error) {
	return d.find([]byte(SeedVault), PoolIDSeed(poolID))
}

// Player derives the participant record address for identity in poolID.
func (d *Deriver) Player(poolID uint64, identity solana.PublicKey) (Derived, error) {
	if identity.IsZero() {
		return Derived{}, ErrZeroIdentity
	}
	return d.find([]byte(SeedPlayer), PoolIDSeed(poolID), identity[:])
}

func (d *Deriver) find(seeds ...[]byte) (Derived, error) {
	addr, bump, err := solana.FindProgramAddress(seeds, d.programID)
	if err != nil {
		return Derived{}, fmt.Errorf("%w: %w", ErrNoBump, err)
	}
	// A bump of zero would mean the search space was exhausted.
	if bump == 0 {
		return Derived{}, ErrNoBump
	}
	return Derived{Address: addr, Bump: bump}, nil
}
