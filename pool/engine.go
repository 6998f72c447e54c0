// Package pool implements the pooled-deposit escrow: a global registry, pools
// that fill up to a fixed capacity, and per-participant records, all kept as
// separately addressed accounts in a ledger.Store.
//
// Every instruction runs inside a single store update, so a rejected
// instruction leaves the registry, pool, participant and vault accounts
// exactly as they were.
package pool

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/bits"
	"slices"
	"time"

	"github.com/gagliardetto/solana-go"

	"github.com/bitfsorg/poolescrow-go/address"
	"github.com/bitfsorg/poolescrow-go/ledger"
	"github.com/bitfsorg/poolescrow-go/payout"
)

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger used for instruction outcomes.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithEmitter sets the receiver of committed events.
func WithEmitter(em Emitter) Option {
	return func(e *Engine) {
		if em != nil {
			e.emitter = em
		}
	}
}

// WithNowFunc overrides the unix-seconds clock.
func WithNowFunc(now func() int64) Option {
	return func(e *Engine) {
		if now != nil {
			e.nowFn = now
		}
	}
}

// WithPrizeTotal requires every prize distribution to sum to exactly total
// percent. Zero disables the check.
func WithPrizeTotal(total uint) Option {
	return func(e *Engine) { e.prizeTotal = total }
}

// WithRentExemption controls whether account creation charges the payer the
// rent-exempt minimum. Enabled by default.
func WithRentExemption(enabled bool) Option {
	return func(e *Engine) { e.chargeRent = enabled }
}

// WithDeriver sets the address deriver, and with it the program id.
func WithDeriver(d *address.Deriver) Option {
	return func(e *Engine) {
		if d != nil {
			e.derive = d
		}
	}
}

// Engine executes pool instructions against a ledger.Store.
type Engine struct {
	store      ledger.Store
	derive     *address.Deriver
	global     address.Derived
	logger     *slog.Logger
	emitter    Emitter
	nowFn      func() int64
	prizeTotal uint
	chargeRent bool
}

// NewEngine returns an engine over store.
func NewEngine(store ledger.Store, opts ...Option) (*Engine, error) {
	if store == nil {
		return nil, errNilStore
	}
	e := &Engine{
		store:      store,
		derive:     address.NewDeriver(solana.PublicKey{}),
		logger:     slog.New(slog.DiscardHandler),
		emitter:    noopEmitter{},
		nowFn:      func() int64 { return time.Now().Unix() },
		chargeRent: true,
	}
	for _, opt := range opts {
		opt(e)
	}
	global, err := e.derive.GlobalState()
	if err != nil {
		return nil, fmt.Errorf("pool: derive global state: %w", err)
	}
	e.global = global
	return e, nil
}

// Deriver returns the address deriver the engine uses.
func (e *Engine) Deriver() *address.Deriver { return e.derive }

// GlobalStateAddress returns the registry account address.
func (e *Engine) GlobalStateAddress() solana.PublicKey { return e.global.Address }

func (e *Engine) now() int64 { return e.nowFn() }

// Appoint creates the global registry with authority as its owner. It
// succeeds once per store.
func (e *Engine) Appoint(ctx context.Context, authority, treasury solana.PublicKey, feeBasisPoints uint16) (*GlobalState, error) {
	const instruction = "appoint"
	state := &GlobalState{
		Authority:      authority,
		Treasury:       treasury,
		FeeBasisPoints: feeBasisPoints,
		Bump:           e.global.Bump,
	}
	err := e.run(ctx, instruction, func(tx ledger.Tx) error {
		if !isIdentity(authority) || treasury.IsZero() {
			return ErrInvalidIdentity
		}
		if err := payout.ValidateBasisPoints(feeBasisPoints); err != nil {
			return fmt.Errorf("%w: %d", ErrInvalidFeeBasisPoints, feeBasisPoints)
		}
		err := e.createRecord(tx, authority, e.global.Address, state)
		if errors.Is(err, ledger.ErrAccountExists) {
			return ErrAlreadyAppointed
		}
		return err
	}, "authority", authority)
	if err != nil {
		return nil, err
	}

	e.logger.Info("global state appointed",
		"authority", authority, "treasury", treasury, "fee_basis_points", feeBasisPoints)
	e.emitter.Emit(appointedEvent(state))
	return state, nil
}

// CreatePool opens a new pool under the next identifier from the registry
// counter. The counter is only advanced once the pool account exists.
func (e *Engine) CreatePool(ctx context.Context, creator solana.PublicKey, params CreatePoolParams) (*Pool, error) {
	const instruction = "create_pool"
	var (
		created *Pool
		addr    solana.PublicKey
	)
	err := e.run(ctx, instruction, func(tx ledger.Tx) error {
		if !isIdentity(creator) {
			return ErrInvalidIdentity
		}
		if err := e.validatePoolParams(params); err != nil {
			return err
		}

		global, err := e.loadGlobal(tx)
		if err != nil {
			return err
		}
		id := global.PoolCount
		next, carry := bits.Add64(id, 1, 0)
		if carry != 0 {
			return ErrCounterOverflow
		}

		poolAddr, err := e.derive.Pool(id)
		if err != nil {
			return err
		}
		vault, err := e.derive.Vault(id)
		if err != nil {
			return err
		}
		p := &Pool{
			PoolID:            id,
			Creator:           creator,
			Status:            StatusOpen,
			MinDeposit:        params.MinDeposit,
			MaxPlayers:        MaxPlayers,
			EndTime:           params.EndTime,
			PrizeDistribution: slices.Clone(params.PrizeDistribution),
			PlayerAccounts:    make([]solana.PublicKey, MaxPlayers),
			Bump:              poolAddr.Bump,
			VaultBump:         vault.Bump,
		}
		if err := e.createRecord(tx, creator, poolAddr.Address, p); err != nil {
			return err
		}

		global.PoolCount = next
		if err := e.putRecord(tx, e.global.Address, global); err != nil {
			return err
		}
		created, addr = p, poolAddr.Address
		return nil
	}, "creator", creator)
	if err != nil {
		return nil, err
	}

	e.logger.Info("pool created", "pool_id", created.PoolID, "address", addr, "creator", creator)
	e.emitter.Emit(createdEvent(created, addr))
	return created, nil
}

func (e *Engine) validatePoolParams(params CreatePoolParams) error {
	if params.MinDeposit == 0 {
		return ErrInvalidMinDeposit
	}
	if now := e.now(); params.EndTime <= now {
		return fmt.Errorf("%w: end_time=%d now=%d", ErrInvalidEndTime, params.EndTime, now)
	}
	if len(params.PrizeDistribution) != MaxPlayers {
		return fmt.Errorf("%w: %d places, want %d", ErrInvalidPrizeDistribution, len(params.PrizeDistribution), MaxPlayers)
	}
	if err := payout.ValidateDistribution(params.PrizeDistribution); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidPrizeDistribution, err)
	}
	if e.prizeTotal > 0 {
		if sum := payout.PercentSum(params.PrizeDistribution); sum != e.prizeTotal {
			return fmt.Errorf("%w: sums to %d, want %d", ErrInvalidPrizeDistribution, sum, e.prizeTotal)
		}
	}
	return nil
}

// JoinPool records player's deposit in pool poolID. The deposit moves from
// player to the pool vault, the participant record is created and the pool
// aggregates are updated together; the join that takes the last slot also
// moves the pool to StatusInProgress.
func (e *Engine) JoinPool(ctx context.Context, player solana.PublicKey, poolID, depositAmount uint64) (*Participant, error) {
	const instruction = "join_pool"
	var (
		joined *Participant
		pool   *Pool
		slot   uint8
	)
	err := e.run(ctx, instruction, func(tx ledger.Tx) error {
		poolAddr, vault, playerAddr, err := e.joinAddresses(poolID, player)
		if err != nil {
			return err
		}
		p, err := e.loadPool(tx, poolAddr, poolID)
		if err != nil {
			return err
		}
		if p.Status != StatusOpen {
			return fmt.Errorf("%w: status %s", ErrPoolNotOpen, p.Status)
		}
		if now := e.now(); now > p.EndTime {
			return fmt.Errorf("%w: end_time=%d now=%d", ErrPoolExpired, p.EndTime, now)
		}
		if p.IsFull() {
			return ErrPoolFull
		}
		if int(p.CurrentPlayers) >= len(p.PlayerAccounts) {
			return fmt.Errorf("%w: %d player slots", ErrInvalidRecord, len(p.PlayerAccounts))
		}
		if depositAmount < p.MinDeposit {
			return fmt.Errorf("%w: %d < %d", ErrInsufficientDeposit, depositAmount, p.MinDeposit)
		}

		rec := &Participant{
			Player:        player,
			PoolID:        poolID,
			DepositAmount: depositAmount,
			Bump:          playerAddr.Bump,
		}
		if err := e.createRecord(tx, player, playerAddr.Address, rec); err != nil {
			if errors.Is(err, ledger.ErrAccountExists) {
				return ErrAlreadyJoined
			}
			return err
		}

		total, carry := bits.Add64(p.TotalAmount, depositAmount, 0)
		if carry != 0 {
			return ErrAmountOverflow
		}
		if err := ledger.Transfer(tx, player, vault, depositAmount); err != nil {
			return fundsErr(err)
		}

		slot = p.CurrentPlayers
		p.PlayerAccounts[slot] = playerAddr.Address
		p.CurrentPlayers++
		p.TotalAmount = total
		if p.IsFull() {
			p.Status = StatusInProgress
		}
		if err := e.putRecord(tx, poolAddr, p); err != nil {
			return err
		}
		joined, pool = rec, p
		return nil
	}, "pool_id", poolID, "player", player)
	if err != nil {
		return nil, err
	}

	e.logger.Info("pool joined",
		"pool_id", poolID, "player", player, "deposit", depositAmount, "slot", slot)
	e.emitter.Emit(joinedEvent(joined, slot))
	if pool.Status == StatusInProgress {
		e.logger.Info("pool filled", "pool_id", poolID, "total_amount", pool.TotalAmount)
		e.emitter.Emit(filledEvent(pool))
	}
	return joined, nil
}

// isIdentity reports whether key can belong to a signer. Program-derived
// addresses are off the ed25519 curve and own no private key.
func isIdentity(key solana.PublicKey) bool {
	return !key.IsZero() && key.IsOnCurve()
}

// joinAddresses derives the pool, vault and participant addresses for
// (poolID, player).
func (e *Engine) joinAddresses(poolID uint64, player solana.PublicKey) (solana.PublicKey, solana.PublicKey, address.Derived, error) {
	if !isIdentity(player) {
		return solana.PublicKey{}, solana.PublicKey{}, address.Derived{}, ErrInvalidIdentity
	}
	poolAddr, err := e.derive.Pool(poolID)
	if err != nil {
		return solana.PublicKey{}, solana.PublicKey{}, address.Derived{}, err
	}
	vault, err := e.derive.Vault(poolID)
	if err != nil {
		return solana.PublicKey{}, solana.PublicKey{}, address.Derived{}, err
	}
	playerAddr, err := e.derive.Player(poolID, player)
	if err != nil {
		return solana.PublicKey{}, solana.PublicKey{}, address.Derived{}, err
	}
	return poolAddr.Address, vault.Address, playerAddr, nil
}

// Settle ranks the participants of a full pool and completes it. standings
// lists the joined identities from first place down; place i is paid the
// prize_distribution[i] share of the pool net of the protocol fee. Rounding
// leftovers and unallocated percent accrue to the pool fee. Only the
// registry authority may settle.
func (e *Engine) Settle(ctx context.Context, authority solana.PublicKey, poolID uint64, standings []solana.PublicKey) (*Pool, error) {
	const instruction = "settle"
	var settled *Pool
	err := e.run(ctx, instruction, func(tx ledger.Tx) error {
		poolAddr, err := e.derive.Pool(poolID)
		if err != nil {
			return err
		}
		global, err := e.loadGlobal(tx)
		if err != nil {
			return err
		}
		if global.Authority != authority {
			return ErrUnauthorized
		}
		p, err := e.loadPool(tx, poolAddr.Address, poolID)
		if err != nil {
			return err
		}
		if p.Status != StatusInProgress {
			return fmt.Errorf("%w: status %s", ErrPoolNotInProgress, p.Status)
		}

		joined := p.Joined()
		if len(standings) != len(joined) || len(standings) != len(p.PrizeDistribution) {
			return fmt.Errorf("%w: %d standings for %d participants", ErrSettlementMismatch, len(standings), len(joined))
		}
		split, err := payout.Compute(p.TotalAmount, global.FeeBasisPoints, p.PrizeDistribution)
		if err != nil {
			return payoutErr(err)
		}
		if err := payout.Validate(split, p.TotalAmount); err != nil {
			return fmt.Errorf("%w: %w", ErrAmountOverflow, err)
		}

		pending := make(map[solana.PublicKey]bool, len(joined))
		for _, acct := range joined {
			pending[acct] = true
		}
		for i, identity := range standings {
			derived, err := e.derive.Player(poolID, identity)
			if err != nil {
				return fmt.Errorf("%w: place %d: %w", ErrSettlementMismatch, i, err)
			}
			if !pending[derived.Address] {
				return fmt.Errorf("%w: place %d: %s", ErrSettlementMismatch, i, identity)
			}
			delete(pending, derived.Address)

			part, err := e.loadParticipant(tx, derived.Address)
			if err != nil {
				return err
			}
			part.Rank = uint8(i)
			part.PrizeAmount = split.Prizes[i]
			if err := e.putRecord(tx, derived.Address, part); err != nil {
				return err
			}
		}

		p.FeeAmount = split.FeeAmount()
		p.Status = StatusCompleted
		if err := e.putRecord(tx, poolAddr.Address, p); err != nil {
			return err
		}
		settled = p
		return nil
	}, "pool_id", poolID, "authority", authority)
	if err != nil {
		return nil, err
	}

	e.logger.Info("pool settled", "pool_id", poolID, "fee_amount", settled.FeeAmount)
	e.emitter.Emit(settledEvent(settled))
	return settled, nil
}

// Claim pays player's prize from the vault of a completed pool. A prize can
// be claimed once.
func (e *Engine) Claim(ctx context.Context, player solana.PublicKey, poolID uint64) (*Participant, error) {
	const instruction = "claim"
	var claimed *Participant
	err := e.run(ctx, instruction, func(tx ledger.Tx) error {
		poolAddr, vault, playerAddr, err := e.joinAddresses(poolID, player)
		if err != nil {
			return err
		}
		p, err := e.loadPool(tx, poolAddr, poolID)
		if err != nil {
			return err
		}
		if p.Status != StatusCompleted {
			return fmt.Errorf("%w: status %s", ErrPoolNotCompleted, p.Status)
		}
		part, err := e.loadParticipant(tx, playerAddr.Address)
		if err != nil {
			return err
		}
		if part.HasClaimed {
			return ErrAlreadyClaimed
		}
		if part.PrizeAmount == 0 {
			return ErrNothingToClaim
		}
		if err := ledger.Transfer(tx, vault, player, part.PrizeAmount); err != nil {
			return fundsErr(err)
		}
		part.HasClaimed = true
		if err := e.putRecord(tx, playerAddr.Address, part); err != nil {
			return err
		}
		claimed = part
		return nil
	}, "pool_id", poolID, "player", player)
	if err != nil {
		return nil, err
	}

	e.logger.Info("prize claimed", "pool_id", poolID, "player", player, "amount", claimed.PrizeAmount)
	e.emitter.Emit(claimedEvent(claimed))
	return claimed, nil
}

// Airdrop credits lamports to addr. It stands in for a faucet on local
// ledgers. Program-derived addresses (vaults and records) cannot receive
// airdrops.
func (e *Engine) Airdrop(ctx context.Context, addr solana.PublicKey, lamports uint64) error {
	err := e.run(ctx, "airdrop", func(tx ledger.Tx) error {
		if !isIdentity(addr) {
			return ErrInvalidIdentity
		}
		return fundsErr(ledger.Credit(tx, addr, lamports))
	}, "address", addr)
	if err != nil {
		return err
	}
	e.logger.Debug("airdrop", "address", addr, "lamports", lamports)
	return nil
}

// run executes fn in one store update and logs a rejection.
func (e *Engine) run(ctx context.Context, instruction string, fn func(ledger.Tx) error, attrs ...any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := e.store.Update(fn)
	if err != nil {
		e.logger.Debug("instruction rejected",
			append([]any{"instruction", instruction, "kind", Kind(err), "err", err}, attrs...)...)
	}
	return err
}

func (e *Engine) loadGlobal(tx ledger.Tx) (*GlobalState, error) {
	g := new(GlobalState)
	if err := getRecord(tx, e.global.Address, g); err != nil {
		if errors.Is(err, ledger.ErrAccountNotFound) {
			return nil, ErrNotAppointed
		}
		return nil, err
	}
	return g, nil
}

func (e *Engine) loadPool(tx ledger.Tx, addr solana.PublicKey, id uint64) (*Pool, error) {
	p := new(Pool)
	if err := getRecord(tx, addr, p); err != nil {
		if errors.Is(err, ledger.ErrAccountNotFound) {
			return nil, fmt.Errorf("%w: %d", ErrPoolNotFound, id)
		}
		return nil, err
	}
	return p, nil
}

func (e *Engine) loadParticipant(tx ledger.Tx, addr solana.PublicKey) (*Participant, error) {
	p := new(Participant)
	if err := getRecord(tx, addr, p); err != nil {
		if errors.Is(err, ledger.ErrAccountNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrParticipantNotFound, addr)
		}
		return nil, err
	}
	return p, nil
}

type binaryRecord interface {
	MarshalBinary() ([]byte, error)
	UnmarshalBinary([]byte) error
}

func getRecord(tx ledger.Tx, addr solana.PublicKey, r binaryRecord) error {
	acct, err := tx.Get(addr)
	if err != nil {
		return err
	}
	return r.UnmarshalBinary(acct.Data)
}

// putRecord rewrites the data of an existing account, keeping its balance.
func (e *Engine) putRecord(tx ledger.Tx, addr solana.PublicKey, r binaryRecord) error {
	acct, err := tx.Get(addr)
	if err != nil {
		return err
	}
	data, err := r.MarshalBinary()
	if err != nil {
		return err
	}
	acct.Data = data
	return tx.Put(addr, acct)
}

// createRecord creates a new account at addr holding r. With rent enabled
// the payer funds the account's rent-exempt minimum.
func (e *Engine) createRecord(tx ledger.Tx, payer, addr solana.PublicKey, r binaryRecord) error {
	data, err := r.MarshalBinary()
	if err != nil {
		return err
	}
	if err := tx.Create(addr, &ledger.Account{Data: data}); err != nil {
		return err
	}
	if !e.chargeRent {
		return nil
	}
	return fundsErr(ledger.Transfer(tx, payer, addr, MinimumBalance(len(data))))
}

func fundsErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ledger.ErrInsufficientFunds):
		return fmt.Errorf("%w: %w", ErrInsufficientFunds, err)
	case errors.Is(err, ledger.ErrBalanceOverflow):
		return fmt.Errorf("%w: %w", ErrAmountOverflow, err)
	default:
		return err
	}
}

func payoutErr(err error) error {
	switch {
	case errors.Is(err, payout.ErrInvalidBasisPoints):
		return fmt.Errorf("%w: %w", ErrInvalidFeeBasisPoints, err)
	case errors.Is(err, payout.ErrAmountOverflow):
		return fmt.Errorf("%w: %w", ErrAmountOverflow, err)
	default:
		return fmt.Errorf("%w: %w", ErrInvalidPrizeDistribution, err)
	}
}
