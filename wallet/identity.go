package wallet

import (
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/gagliardetto/solana-go"
	"golang.org/x/crypto/hkdf"
)

// IdentitySalt is the HKDF salt for identity derivation.
const IdentitySalt = "poolescrow-identity"

// MinSeedLen is the shortest seed a Wallet accepts.
const MinSeedLen = 16

// Wallet derives signing identities from a seed.
type Wallet struct {
	seed []byte
}

// NewWallet returns a wallet over seed. The seed is copied.
func NewWallet(seed []byte) (*Wallet, error) {
	if len(seed) < MinSeedLen {
		return nil, ErrInvalidSeed
	}
	return &Wallet{seed: append([]byte(nil), seed...)}, nil
}

// FromMnemonic is NewWallet over the BIP39 seed of mnemonic.
func FromMnemonic(mnemonic, passphrase string) (*Wallet, error) {
	seed, err := SeedFromMnemonic(mnemonic, passphrase)
	if err != nil {
		return nil, err
	}
	return NewWallet(seed)
}

// Identity returns the private key of identity index.
func (w *Wallet) Identity(index uint32) (solana.PrivateKey, error) {
	var info [4]byte
	binary.LittleEndian.PutUint32(info[:], index)

	keySeed := make([]byte, ed25519.SeedSize)
	r := hkdf.New(sha256.New, w.seed, []byte(IdentitySalt), info[:])
	if _, err := io.ReadFull(r, keySeed); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDerivationFailed, err)
	}
	return solana.PrivateKey(ed25519.NewKeyFromSeed(keySeed)), nil
}

// PublicKey returns the public key of identity index.
func (w *Wallet) PublicKey(index uint32) (solana.PublicKey, error) {
	key, err := w.Identity(index)
	if err != nil {
		return solana.PublicKey{}, err
	}
	return key.PublicKey(), nil
}
