package cli

import (
	"github.com/gagliardetto/solana-go"
	"github.com/spf13/cobra"

	"github.com/bitfsorg/poolescrow-go/pool"
)

func newShowCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Read registry, pool and account state",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "registry",
		Short: "Show the global registry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withEngine(func(e *pool.Engine) error {
				g, err := e.GlobalState(cmd.Context())
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), struct {
					Address solana.PublicKey `json:"address"`
					*pool.GlobalState
				}{e.GlobalStateAddress(), g})
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "pools",
		Short: "List every pool",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withEngine(func(e *pool.Engine) error {
				pools, err := e.Pools(cmd.Context())
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), pools)
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "pool <pool-id>",
		Short: "Show one pool with its vault balance and participants",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parsePoolID(args[0])
			if err != nil {
				return err
			}
			return a.withEngine(func(e *pool.Engine) error {
				ctx := cmd.Context()
				p, err := e.Pool(ctx, id)
				if err != nil {
					return err
				}
				vault, err := e.VaultBalance(ctx, id)
				if err != nil {
					return err
				}
				participants, err := e.Participants(ctx, id)
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), struct {
					Pool         *pool.Pool          `json:"pool"`
					VaultBalance uint64              `json:"vault_balance"`
					Participants []*pool.Participant `json:"participants"`
				}{p, vault, participants})
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "participant <pool-id> <address|label>",
		Short: "Show one participant record",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parsePoolID(args[0])
			if err != nil {
				return err
			}
			player, err := a.resolveAddress(args[1])
			if err != nil {
				return err
			}
			return a.withEngine(func(e *pool.Engine) error {
				p, err := e.Participant(cmd.Context(), id, player)
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), p)
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "balance <address|label>",
		Short: "Show the lamport balance of an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, err := a.resolveAddress(args[0])
			if err != nil {
				return err
			}
			return a.withEngine(func(e *pool.Engine) error {
				bal, err := e.Balance(cmd.Context(), addr)
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), struct {
					Address solana.PublicKey `json:"address"`
					Balance uint64           `json:"balance"`
				}{addr, bal})
			})
		},
	})

	return cmd
}
