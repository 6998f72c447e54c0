package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/spf13/cobra"

	"github.com/bitfsorg/poolescrow-go/pool"
	"github.com/bitfsorg/poolescrow-go/treasury"
)

const defaultKey = "default"

func addKeyFlag(cmd *cobra.Command, key *string) {
	cmd.Flags().StringVar(key, "key", defaultKey, "keystore label of the signing identity")
}

func parsePoolID(s string) (uint64, error) {
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid pool id %q: %w", s, err)
	}
	return id, nil
}

// parseDistribution parses a comma separated list of percentages.
func parseDistribution(s string) ([]uint8, error) {
	parts := strings.Split(s, ",")
	out := make([]uint8, 0, len(parts))
	for _, part := range parts {
		v, err := strconv.ParseUint(strings.TrimSpace(part), 10, 8)
		if err != nil {
			return nil, fmt.Errorf("invalid prize share %q: %w", part, err)
		}
		out = append(out, uint8(v))
	}
	return out, nil
}

func newAirdropCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "airdrop <address|label> <lamports>",
		Short: "Credit lamports to an account from the local faucet",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, err := a.resolveAddress(args[0])
			if err != nil {
				return err
			}
			lamports, err := strconv.ParseUint(args[1], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid lamports %q: %w", args[1], err)
			}
			return a.withEngine(func(e *pool.Engine) error {
				ctx := cmd.Context()
				if err := e.Airdrop(ctx, addr, lamports); err != nil {
					return instructionError("airdrop", err)
				}
				bal, err := e.Balance(ctx, addr)
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), struct {
					Address solana.PublicKey `json:"address"`
					Balance uint64           `json:"balance"`
				}{addr, bal})
			})
		},
	}
}

func newAppointCommand(a *app) *cobra.Command {
	var (
		key     string
		feeBps  uint16
		treaRef string
	)
	cmd := &cobra.Command{
		Use:   "appoint",
		Short: "Create the global registry with the signer as authority",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			authority, err := a.signer(key)
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
			treasuryKey, err := treasury.Parse(ctx, a.resolver(), treaRef)
			cancel()
			if err != nil {
				return err
			}
			return a.withEngine(func(e *pool.Engine) error {
				g, err := e.Appoint(cmd.Context(), authority, treasuryKey, feeBps)
				if err != nil {
					return instructionError("appoint", err)
				}
				return writeJSON(cmd.OutOrStdout(), struct {
					Address solana.PublicKey `json:"address"`
					*pool.GlobalState
				}{e.GlobalStateAddress(), g})
			})
		},
	}
	addKeyFlag(cmd, &key)
	cmd.Flags().Uint16Var(&feeBps, "fee-bps", 0, "protocol fee in basis points (0-10000)")
	cmd.Flags().StringVar(&treaRef, "treasury", "", "treasury key as base58 or dns:<domain>")
	_ = cmd.MarkFlagRequired("treasury")
	return cmd
}

func newCreateCommand(a *app) *cobra.Command {
	var (
		key        string
		minDeposit uint64
		endIn      time.Duration
		endTime    int64
		prize      string
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a pool with the next pool id",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			creator, err := a.signer(key)
			if err != nil {
				return err
			}
			dist, err := parseDistribution(prize)
			if err != nil {
				return err
			}
			end := endTime
			if cmd.Flags().Changed("end-in") {
				end = time.Now().Add(endIn).Unix()
			}
			params := pool.CreatePoolParams{
				MinDeposit:        minDeposit,
				EndTime:           end,
				PrizeDistribution: dist,
			}
			return a.withEngine(func(e *pool.Engine) error {
				p, err := e.CreatePool(cmd.Context(), creator, params)
				if err != nil {
					return instructionError("create", err)
				}
				return writeJSON(cmd.OutOrStdout(), p)
			})
		},
	}
	addKeyFlag(cmd, &key)
	cmd.Flags().Uint64Var(&minDeposit, "min-deposit", 0, "minimum deposit in lamports")
	cmd.Flags().DurationVar(&endIn, "end-in", 0, "pool closes this long from now")
	cmd.Flags().Int64Var(&endTime, "end-time", 0, "pool closes at this unix time")
	cmd.Flags().StringVar(&prize, "prize", "30,30,20,10", "prize shares in percent, first place first")
	cmd.MarkFlagsOneRequired("end-in", "end-time")
	cmd.MarkFlagsMutuallyExclusive("end-in", "end-time")
	_ = cmd.MarkFlagRequired("min-deposit")
	return cmd
}

func newJoinCommand(a *app) *cobra.Command {
	var (
		key     string
		deposit uint64
	)
	cmd := &cobra.Command{
		Use:   "join <pool-id>",
		Short: "Deposit into an open pool",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parsePoolID(args[0])
			if err != nil {
				return err
			}
			player, err := a.signer(key)
			if err != nil {
				return err
			}
			return a.withEngine(func(e *pool.Engine) error {
				p, err := e.JoinPool(cmd.Context(), player, id, deposit)
				if err != nil {
					return instructionError("join", err)
				}
				return writeJSON(cmd.OutOrStdout(), p)
			})
		},
	}
	addKeyFlag(cmd, &key)
	cmd.Flags().Uint64Var(&deposit, "deposit", 0, "deposit in lamports")
	_ = cmd.MarkFlagRequired("deposit")
	return cmd
}

func newSettleCommand(a *app) *cobra.Command {
	var key string
	cmd := &cobra.Command{
		Use:   "settle <pool-id> <address|label>...",
		Short: "Record final standings of a full pool, first place first",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parsePoolID(args[0])
			if err != nil {
				return err
			}
			authority, err := a.signer(key)
			if err != nil {
				return err
			}
			standings := make([]solana.PublicKey, 0, len(args)-1)
			for _, arg := range args[1:] {
				pk, err := a.resolveAddress(arg)
				if err != nil {
					return err
				}
				standings = append(standings, pk)
			}
			return a.withEngine(func(e *pool.Engine) error {
				p, err := e.Settle(cmd.Context(), authority, id, standings)
				if err != nil {
					return instructionError("settle", err)
				}
				return writeJSON(cmd.OutOrStdout(), p)
			})
		},
	}
	addKeyFlag(cmd, &key)
	return cmd
}

func newClaimCommand(a *app) *cobra.Command {
	var key string
	cmd := &cobra.Command{
		Use:   "claim <pool-id>",
		Short: "Withdraw the signer's prize from a settled pool",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parsePoolID(args[0])
			if err != nil {
				return err
			}
			player, err := a.signer(key)
			if err != nil {
				return err
			}
			return a.withEngine(func(e *pool.Engine) error {
				p, err := e.Claim(cmd.Context(), player, id)
				if err != nil {
					return instructionError("claim", err)
				}
				return writeJSON(cmd.OutOrStdout(), p)
			})
		},
	}
	addKeyFlag(cmd, &key)
	return cmd
}
