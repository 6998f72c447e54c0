// Package wallet manages the signing identities of a pool escrow operator.
//
// A single BIP39 mnemonic seeds every identity. Identity i is the ed25519 key
// whose 32-byte seed is
//
//	HKDF-SHA256(ikm = bip39_seed, salt = "poolescrow-identity", info = LE4(i))
//
// and the BIP39 seed itself is kept on disk encrypted with Argon2id and
// AES-256-GCM.
package wallet

import (
	"fmt"

	"github.com/bsv-blockchain/go-sdk/compat/bip39"
)

const (
	// Mnemonic entropy sizes.
	Mnemonic12Words = 128
	Mnemonic24Words = 256
)

// GenerateMnemonic creates a BIP39 mnemonic from entropyBits of randomness
// drawn from crypto/rand. 128 bits give 12 words and 256 bits give 24 words;
// any other size returns ErrInvalidEntropy.
func GenerateMnemonic(entropyBits int) (string, error) {
	if entropyBits != Mnemonic12Words && entropyBits != Mnemonic24Words {
		return "", ErrInvalidEntropy
	}
	entropy, err := bip39.NewEntropy(entropyBits)
	if err != nil {
		return "", fmt.Errorf("wallet: generate entropy: %w", err)
	}
	mnemonic, err := bip39.NewMnemonic(entropy)
	if err != nil {
		return "", fmt.Errorf("wallet: generate mnemonic: %w", err)
	}
	return mnemonic, nil
}

// ValidateMnemonic reports whether mnemonic is valid BIP39: every word is in
// the English wordlist and the trailing checksum bits match.
func ValidateMnemonic(mnemonic string) bool {
	return bip39.IsMnemonicValid(mnemonic)
}

// SeedFromMnemonic returns the 64-byte BIP39 seed of mnemonic and an optional
// passphrase:
//
//	seed = PBKDF2-HMAC-SHA512(mnemonic, "mnemonic"+passphrase, 2048, 64)
//
// The empty passphrase is a valid input and yields a different seed from any
// non-empty one. Keystores created by CreateKeystore use the empty
// passphrase; the keystore passphrase protects the sealed seed instead.
func SeedFromMnemonic(mnemonic, passphrase string) ([]byte, error) {
	if !ValidateMnemonic(mnemonic) {
		return nil, ErrInvalidMnemonic
	}
	seed, err := bip39.NewSeedWithErrorChecking(mnemonic, passphrase)
	if err != nil {
		return nil, fmt.Errorf("wallet: derive seed: %w", err)
	}
	return seed, nil
}
