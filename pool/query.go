package pool

import (
	"context"

	"github.com/gagliardetto/solana-go"

	"github.com/bitfsorg/poolescrow-go/ledger"
)

func (e *Engine) view(ctx context.Context, fn func(ledger.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return e.store.View(fn)
}

// GlobalState returns the registry record.
func (e *Engine) GlobalState(ctx context.Context) (*GlobalState, error) {
	var g *GlobalState
	err := e.view(ctx, func(tx ledger.Tx) (err error) {
		g, err = e.loadGlobal(tx)
		return err
	})
	return g, err
}

// Pool returns the record of pool id.
func (e *Engine) Pool(ctx context.Context, id uint64) (*Pool, error) {
	addr, err := e.derive.Pool(id)
	if err != nil {
		return nil, err
	}
	var p *Pool
	err = e.view(ctx, func(tx ledger.Tx) (err error) {
		p, err = e.loadPool(tx, addr.Address, id)
		return err
	})
	return p, err
}

// Participant returns the record of identity in pool id.
func (e *Engine) Participant(ctx context.Context, id uint64, identity solana.PublicKey) (*Participant, error) {
	if identity.IsZero() {
		return nil, ErrInvalidIdentity
	}
	addr, err := e.derive.Player(id, identity)
	if err != nil {
		return nil, err
	}
	var p *Participant
	err = e.view(ctx, func(tx ledger.Tx) (err error) {
		p, err = e.loadParticipant(tx, addr.Address)
		return err
	})
	return p, err
}

// Participants returns the records of everyone who joined pool id, in join
// order.
func (e *Engine) Participants(ctx context.Context, id uint64) ([]*Participant, error) {
	addr, err := e.derive.Pool(id)
	if err != nil {
		return nil, err
	}
	var out []*Participant
	err = e.view(ctx, func(tx ledger.Tx) error {
		p, err := e.loadPool(tx, addr.Address, id)
		if err != nil {
			return err
		}
		for _, acct := range p.Joined() {
			part, err := e.loadParticipant(tx, acct)
			if err != nil {
				return err
			}
			out = append(out, part)
		}
		return nil
	})
	return out, err
}

// Pools returns every pool created so far, ordered by id.
func (e *Engine) Pools(ctx context.Context) ([]*Pool, error) {
	var out []*Pool
	err := e.view(ctx, func(tx ledger.Tx) error {
		g, err := e.loadGlobal(tx)
		if err != nil {
			return err
		}
		out = make([]*Pool, 0, g.PoolCount)
		for id := uint64(0); id < g.PoolCount; id++ {
			addr, err := e.derive.Pool(id)
			if err != nil {
				return err
			}
			p, err := e.loadPool(tx, addr.Address, id)
			if err != nil {
				return err
			}
			out = append(out, p)
		}
		return nil
	})
	return out, err
}

// VaultBalance returns the lamports held by the vault of pool id.
func (e *Engine) VaultBalance(ctx context.Context, id uint64) (uint64, error) {
	addr, err := e.derive.Vault(id)
	if err != nil {
		return 0, err
	}
	return e.Balance(ctx, addr.Address)
}

// Balance returns the lamports held by addr; unknown accounts hold zero.
func (e *Engine) Balance(ctx context.Context, addr solana.PublicKey) (uint64, error) {
	var bal uint64
	err := e.view(ctx, func(tx ledger.Tx) (err error) {
		bal, err = ledger.Balance(tx, addr)
		return err
	})
	return bal, err
}

// IsAppointed reports whether the registry account exists.
func (e *Engine) IsAppointed(ctx context.Context) (bool, error) {
	var ok bool
	err := e.view(ctx, func(tx ledger.Tx) (err error) {
		ok, err = ledger.Exists(tx, e.global.Address)
		return err
	})
	return ok, err
}
