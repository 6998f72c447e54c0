package wallet

import "errors"

var (
	// ErrInvalidMnemonic indicates the mnemonic fails BIP39 validation.
	ErrInvalidMnemonic = errors.New("wallet: invalid BIP39 mnemonic")

	// ErrInvalidEntropy indicates entropy bits is not 128 or 256.
	ErrInvalidEntropy = errors.New("wallet: entropy bits must be 128 or 256")

	// ErrInvalidSeed indicates the seed is empty or too short.
	ErrInvalidSeed = errors.New("wallet: invalid seed")

	// ErrDecryptionFailed indicates a wrong passphrase or corrupted keystore.
	ErrDecryptionFailed = errors.New("wallet: seed decryption failed (wrong passphrase or corrupted data)")

	// ErrChecksumMismatch indicates the decrypted seed does not match its checksum.
	ErrChecksumMismatch = errors.New("wallet: seed checksum mismatch")

	// ErrDerivationFailed indicates identity key derivation failed.
	ErrDerivationFailed = errors.New("wallet: key derivation failed")

	// ErrKeystoreExists indicates a keystore file is already present.
	ErrKeystoreExists = errors.New("wallet: keystore already exists")

	// ErrUnsupportedVersion indicates a keystore written by an unknown format version.
	ErrUnsupportedVersion = errors.New("wallet: unsupported keystore version")

	// ErrLabelNotFound indicates no identity carries the requested label.
	ErrLabelNotFound = errors.New("wallet: identity label not found")

	// ErrLabelExists indicates the label is already assigned.
	ErrLabelExists = errors.New("wallet: identity label already exists")
)
