package wallet

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/gagliardetto/solana-go"
)

// KeystoreVersion is the current keystore file format.
const KeystoreVersion = 1

// keystoreFile is the on-disk JSON form. Seed holds the sealed BIP39 seed.
type keystoreFile struct {
	Version   int               `json:"version"`
	Seed      []byte            `json:"seed"`
	NextIndex uint32            `json:"next_index"`
	Labels    map[string]uint32 `json:"labels"`
}

// Keystore is an opened keystore file: a wallet plus the labels assigned to
// its identities.
type Keystore struct {
	path   string
	file   keystoreFile
	wallet *Wallet
}

// LabeledIdentity is an identity index with its label and public key.
type LabeledIdentity struct {
	Label     string           `json:"label"`
	Index     uint32           `json:"index"`
	PublicKey solana.PublicKey `json:"public_key"`
}

// CreateKeystore seals the seed of mnemonic under passphrase and writes a new
// keystore at path. An existing file is never overwritten.
func CreateKeystore(path, mnemonic, passphrase string) (*Keystore, error) {
	if _, err := os.Stat(path); err == nil {
		return nil, fmt.Errorf("%w: %s", ErrKeystoreExists, path)
	}
	seed, err := SeedFromMnemonic(mnemonic, "")
	if err != nil {
		return nil, err
	}
	w, err := NewWallet(seed)
	if err != nil {
		return nil, err
	}
	sealed, err := EncryptSeed(seed, passphrase)
	if err != nil {
		return nil, err
	}
	ks := &Keystore{
		path:   path,
		file:   keystoreFile{Version: KeystoreVersion, Seed: sealed, Labels: map[string]uint32{}},
		wallet: w,
	}
	if err := ks.Save(); err != nil {
		return nil, err
	}
	return ks, nil
}

// OpenKeystore reads the keystore at path and unseals it with passphrase.
func OpenKeystore(path, passphrase string) (*Keystore, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("wallet: read keystore: %w", err)
	}
	var file keystoreFile
	if err := json.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("wallet: parse keystore: %w", err)
	}
	if file.Version != KeystoreVersion {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, file.Version)
	}
	seed, err := DecryptSeed(file.Seed, passphrase)
	if err != nil {
		return nil, err
	}
	w, err := NewWallet(seed)
	if err != nil {
		return nil, err
	}
	if file.Labels == nil {
		file.Labels = map[string]uint32{}
	}
	return &Keystore{path: path, file: file, wallet: w}, nil
}

// Save writes the keystore back to its file with owner-only permissions.
func (ks *Keystore) Save() error {
	raw, err := json.MarshalIndent(ks.file, "", "  ")
	if err != nil {
		return fmt.Errorf("wallet: encode keystore: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(ks.path), 0o700); err != nil {
		return fmt.Errorf("wallet: create keystore dir: %w", err)
	}
	tmp := ks.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return fmt.Errorf("wallet: write keystore: %w", err)
	}
	if err := os.Rename(tmp, ks.path); err != nil {
		return errors.Join(fmt.Errorf("wallet: replace keystore: %w", err), os.Remove(tmp))
	}
	return nil
}

// Path returns the keystore file path.
func (ks *Keystore) Path() string { return ks.path }

// Wallet returns the unsealed wallet.
func (ks *Keystore) Wallet() *Wallet { return ks.wallet }

// NewIdentity assigns the next unused index to label and persists the
// keystore.
func (ks *Keystore) NewIdentity(label string) (LabeledIdentity, error) {
	if _, ok := ks.file.Labels[label]; ok {
		return LabeledIdentity{}, fmt.Errorf("%w: %q", ErrLabelExists, label)
	}
	index := ks.file.NextIndex
	pub, err := ks.wallet.PublicKey(index)
	if err != nil {
		return LabeledIdentity{}, err
	}
	ks.file.Labels[label] = index
	ks.file.NextIndex++
	if err := ks.Save(); err != nil {
		delete(ks.file.Labels, label)
		ks.file.NextIndex--
		return LabeledIdentity{}, err
	}
	return LabeledIdentity{Label: label, Index: index, PublicKey: pub}, nil
}

// Signer returns the private key labelled label.
func (ks *Keystore) Signer(label string) (solana.PrivateKey, error) {
	index, ok := ks.file.Labels[label]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrLabelNotFound, label)
	}
	return ks.wallet.Identity(index)
}

// Identities lists every labelled identity ordered by index.
func (ks *Keystore) Identities() ([]LabeledIdentity, error) {
	out := make([]LabeledIdentity, 0, len(ks.file.Labels))
	for label, index := range ks.file.Labels {
		pub, err := ks.wallet.PublicKey(index)
		if err != nil {
			return nil, err
		}
		out = append(out, LabeledIdentity{Label: label, Index: index, PublicKey: pub})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out, nil
}
