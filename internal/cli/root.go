// Package cli implements the poolctl command tree.
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/gagliardetto/solana-go"
	"github.com/spf13/cobra"

	"github.com/bitfsorg/poolescrow-go/address"
	"github.com/bitfsorg/poolescrow-go/config"
	"github.com/bitfsorg/poolescrow-go/ledger"
	"github.com/bitfsorg/poolescrow-go/logging"
	"github.com/bitfsorg/poolescrow-go/pool"
	"github.com/bitfsorg/poolescrow-go/treasury"
	"github.com/bitfsorg/poolescrow-go/wallet"
)

// PassphraseEnv names the environment variable holding the keystore passphrase.
const PassphraseEnv = "POOLESCROW_PASSPHRASE"

// Version is reported by --version.
var Version = "0.1.0-dev"

// app carries state shared by every subcommand of one invocation.
type app struct {
	configFile string
	dataDir    string

	cfg       config.Config
	logger    *slog.Logger
	logCloser io.Closer
	keystore  *wallet.Keystore
}

// NewRootCommand builds the poolctl command tree.
func NewRootCommand() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "poolctl",
		Short: "poolctl - pooled-deposit escrow operator tool",
		Long: `poolctl drives a pooled-deposit escrow ledger: appoint the registry,
create pools, join them with deposits, settle completed pools and claim prizes.
Output is JSON on stdout; logs go to stderr or the configured log file.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if a.logCloser != nil {
				return a.logCloser.Close()
			}
			return nil
		},
	}

	root.PersistentFlags().StringVar(&a.configFile, "config", "", "configuration file path (default <data-dir>/config.toml)")
	root.PersistentFlags().StringVar(&a.dataDir, "data-dir", "", "data directory (default ~/.poolescrow)")

	root.AddCommand(
		newConfigCommand(a),
		newKeysCommand(a),
		newAirdropCommand(a),
		newAppointCommand(a),
		newCreateCommand(a),
		newJoinCommand(a),
		newSettleCommand(a),
		newClaimCommand(a),
		newShowCommand(a),
		newExporterCommand(a),
	)
	return root
}

// Execute runs the root command with ctx.
func Execute(ctx context.Context) error {
	return NewRootCommand().ExecuteContext(ctx)
}

// load resolves the configuration and builds the logger.
func (a *app) load(cmd *cobra.Command) error {
	path := a.configFile
	if path == "" {
		dir := a.dataDir
		if dir == "" {
			dir = config.DefaultDataDir()
		}
		if _, err := os.Stat(config.ConfigPath(dir)); err == nil {
			path = config.ConfigPath(dir)
		}
	}

	cfg, err := config.LoadConfig(path)
	if err != nil {
		return err
	}
	if a.dataDir != "" {
		cfg.DataDir = a.dataDir
	}
	a.cfg = cfg

	logger, closer, err := logging.New(logging.Options{
		Level:  cfg.LogLevel,
		File:   cfg.LogFile,
		Stderr: cmd.ErrOrStderr(),
	})
	if err != nil {
		return err
	}
	a.logger = logger
	a.logCloser = closer
	return nil
}

// openEngine opens the configured ledger and returns an engine over it. The
// caller closes the returned store.
func (a *app) openEngine() (*pool.Engine, ledger.Store, error) {
	if err := os.MkdirAll(a.cfg.DataDir, 0o700); err != nil {
		return nil, nil, fmt.Errorf("create data dir: %w", err)
	}
	store, err := ledger.Open(a.cfg.Backend, a.cfg.DataDir, a.cfg.CacheSize)
	if err != nil {
		return nil, nil, err
	}
	programID, err := solana.PublicKeyFromBase58(a.cfg.ProgramID)
	if err != nil {
		_ = store.Close()
		return nil, nil, fmt.Errorf("%w: %w", config.ErrInvalidProgramID, err)
	}
	engine, err := pool.NewEngine(store,
		pool.WithLogger(a.logger),
		pool.WithDeriver(address.NewDeriver(programID)),
		pool.WithPrizeTotal(a.cfg.PrizeTotal),
		pool.WithRentExemption(a.cfg.RentExempt),
		pool.WithEmitter(pool.EmitterFunc(a.logEvent)),
	)
	if err != nil {
		_ = store.Close()
		return nil, nil, err
	}
	return engine, store, nil
}

// withEngine runs fn against a freshly opened engine and closes the store.
func (a *app) withEngine(fn func(*pool.Engine) error) (err error) {
	engine, store, err := a.openEngine()
	if err != nil {
		return err
	}
	defer func() {
		if cerr := store.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close ledger: %w", cerr)
		}
	}()
	return fn(engine)
}

func (a *app) logEvent(evt pool.Event) {
	attrs := make([]any, 0, 2+2*len(evt.Attributes))
	attrs = append(attrs, "type", evt.Type)
	for k, v := range evt.Attributes {
		attrs = append(attrs, k, v)
	}
	a.logger.Info("event", attrs...)
}

// resolver returns the DNS resolver used for dns: treasury references.
func (a *app) resolver() treasury.Resolver {
	if a.cfg.DNSSEC {
		return treasury.NewDNSSECResolver(a.cfg.DNSUpstream)
	}
	return treasury.SystemResolver{}
}

// resolveAddress accepts a base58 public key or a keystore label.
func (a *app) resolveAddress(arg string) (solana.PublicKey, error) {
	if pk, err := solana.PublicKeyFromBase58(arg); err == nil {
		return pk, nil
	}
	ks, err := a.openKeystore()
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("resolve %q: %w", arg, err)
	}
	signer, err := ks.Signer(arg)
	if err != nil {
		return solana.PublicKey{}, err
	}
	return signer.PublicKey(), nil
}

// signer returns the public key of the keystore identity labelled label.
func (a *app) signer(label string) (solana.PublicKey, error) {
	ks, err := a.openKeystore()
	if err != nil {
		return solana.PublicKey{}, err
	}
	key, err := ks.Signer(label)
	if err != nil {
		return solana.PublicKey{}, err
	}
	return key.PublicKey(), nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// instructionError annotates engine failures with their error kind.
func instructionError(name string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	return fmt.Errorf("%s rejected (%s): %w", name, pool.Kind(err), err)
}
