package wallet

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"fmt"

	"golang.org/x/crypto/argon2"
)

// Argon2id parameters for seed encryption. Changing any of them makes
// existing keystores unreadable.
const (
	Argon2Time        = 3
	Argon2Memory      = 64 * 1024 // KiB
	Argon2Parallelism = 4
	Argon2KeyLen      = 32 // AES-256
)

// Sealed seed layout:
//
//	salt(16B) || nonce(12B) || AES-256-GCM(key, nonce, seed || checksum(4B))
//
// where key = Argon2id(passphrase, salt) and checksum = SHA256(seed)[:4].
// The GCM tag (16B) follows the ciphertext.
const (
	SaltLen     = 16
	NonceLen    = 12
	ChecksumLen = 4
)

// seedChecksum returns SHA256(seed)[:ChecksumLen].
func seedChecksum(seed []byte) []byte {
	sum := sha256.Sum256(seed)
	return sum[:ChecksumLen]
}

// seedCipher stretches passphrase with Argon2id over salt and returns the
// AES-256-GCM cipher keyed by the result.
func seedCipher(passphrase string, salt []byte) (cipher.AEAD, error) {
	key := argon2.IDKey([]byte(passphrase), salt, Argon2Time, Argon2Memory, Argon2Parallelism, Argon2KeyLen)
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

// EncryptSeed seals seed under passphrase with Argon2id + AES-256-GCM.
//
// A fresh random salt and nonce are drawn for every call, so sealing the same
// seed twice yields different output. The 4-byte checksum sealed next to the
// seed lets DecryptSeed tell a corrupted plaintext from a wrong passphrase.
// An empty passphrase is accepted and still goes through Argon2id.
func EncryptSeed(seed []byte, passphrase string) ([]byte, error) {
	if len(seed) == 0 {
		return nil, ErrInvalidSeed
	}

	// salt and nonce are the output prefix; the ciphertext is appended to it.
	out := make([]byte, SaltLen+NonceLen, SaltLen+NonceLen+len(seed)+ChecksumLen+16)
	if _, err := rand.Read(out); err != nil {
		return nil, fmt.Errorf("wallet: read random: %w", err)
	}
	salt, nonce := out[:SaltLen], out[SaltLen:]

	aead, err := seedCipher(passphrase, salt)
	if err != nil {
		return nil, fmt.Errorf("wallet: init cipher: %w", err)
	}

	// plaintext = seed || SHA256(seed)[:4]
	plaintext := make([]byte, 0, len(seed)+ChecksumLen)
	plaintext = append(plaintext, seed...)
	plaintext = append(plaintext, seedChecksum(seed)...)

	return aead.Seal(out, nonce, plaintext, nil), nil
}

// DecryptSeed opens a seed sealed by EncryptSeed.
//
// It splits salt and nonce off the front, derives the key with the same
// Argon2id parameters, opens the GCM ciphertext and finally checks the seed
// checksum. A wrong passphrase or a tampered file fails GCM authentication
// and returns ErrDecryptionFailed; a plaintext whose checksum does not match
// returns ErrChecksumMismatch.
func DecryptSeed(sealed []byte, passphrase string) ([]byte, error) {
	// At minimum: salt + nonce + a checksum worth of ciphertext.
	if len(sealed) < SaltLen+NonceLen+ChecksumLen {
		return nil, ErrDecryptionFailed
	}
	salt := sealed[:SaltLen]
	nonce := sealed[SaltLen : SaltLen+NonceLen]
	ciphertext := sealed[SaltLen+NonceLen:]

	aead, err := seedCipher(passphrase, salt)
	if err != nil {
		return nil, ErrDecryptionFailed
	}
	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil || len(plaintext) <= ChecksumLen {
		return nil, ErrDecryptionFailed
	}

	// Split seed || checksum and verify.
	seed := plaintext[:len(plaintext)-ChecksumLen]
	if subtle.ConstantTimeCompare(plaintext[len(seed):], seedChecksum(seed)) != 1 {
		return nil, ErrChecksumMismatch
	}
	return seed, nil
}
