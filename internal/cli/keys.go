package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/bitfsorg/poolescrow-go/wallet"
)

var errNoPassphrase = errors.New("keystore passphrase not set (export " + PassphraseEnv + ")")

func passphrase() (string, error) {
	p := os.Getenv(PassphraseEnv)
	if p == "" {
		return "", errNoPassphrase
	}
	return p, nil
}

// openKeystore unseals the keystore once per invocation.
func (a *app) openKeystore() (*wallet.Keystore, error) {
	if a.keystore != nil {
		return a.keystore, nil
	}
	p, err := passphrase()
	if err != nil {
		return nil, err
	}
	ks, err := wallet.OpenKeystore(a.cfg.KeystorePath(), p)
	if err != nil {
		return nil, err
	}
	a.keystore = ks
	return ks, nil
}

// initKeystore creates the keystore from mnemonic, generating one when empty.
// It returns the mnemonic only when it was generated.
func (a *app) initKeystore(mnemonic string) (*wallet.Keystore, string, error) {
	p, err := passphrase()
	if err != nil {
		return nil, "", err
	}
	generated := ""
	if mnemonic == "" {
		mnemonic, err = wallet.GenerateMnemonic(wallet.Mnemonic24Words)
		if err != nil {
			return nil, "", err
		}
		generated = mnemonic
	}
	ks, err := wallet.CreateKeystore(a.cfg.KeystorePath(), mnemonic, p)
	if err != nil {
		return nil, "", err
	}
	a.keystore = ks
	return ks, generated, nil
}

func newKeysCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keys",
		Short: "Manage signing identities in the encrypted keystore",
	}
	cmd.AddCommand(newKeysInitCommand(a), newKeysNewCommand(a), newKeysListCommand(a), newKeysShowCommand(a))
	return cmd
}

func newKeysInitCommand(a *app) *cobra.Command {
	var mnemonic string
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create the keystore from a new or supplied mnemonic",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ks, generated, err := a.initKeystore(mnemonic)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), struct {
				Keystore string `json:"keystore"`
				Mnemonic string `json:"mnemonic,omitempty"`
			}{ks.Path(), generated})
		},
	}
	cmd.Flags().StringVar(&mnemonic, "mnemonic", "", "restore from this BIP39 mnemonic instead of generating one")
	return cmd
}

func newKeysNewCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "new <label>",
		Short: "Derive the next identity and label it",
		Long: `Derive the next unused identity from the keystore seed and store it under
label. The keystore is created with a fresh mnemonic on first use; the
mnemonic is printed once and never stored in clear.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var generated string
			ks, err := a.openKeystore()
			if errors.Is(err, os.ErrNotExist) {
				ks, generated, err = a.initKeystore("")
			}
			if err != nil {
				return err
			}
			id, err := ks.NewIdentity(args[0])
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), struct {
				wallet.LabeledIdentity
				Mnemonic string `json:"mnemonic,omitempty"`
			}{id, generated})
		},
	}
}

func newKeysListCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List labelled identities",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ks, err := a.openKeystore()
			if err != nil {
				return err
			}
			ids, err := ks.Identities()
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), ids)
		},
	}
}

func newKeysShowCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <label>",
		Short: "Show the public key of one identity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ks, err := a.openKeystore()
			if err != nil {
				return err
			}
			ids, err := ks.Identities()
			if err != nil {
				return err
			}
			for _, id := range ids {
				if id.Label == args[0] {
					return writeJSON(cmd.OutOrStdout(), id)
				}
			}
			return fmt.Errorf("%w: %q", wallet.ErrLabelNotFound, args[0])
		},
	}
}
