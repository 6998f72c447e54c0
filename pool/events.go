package pool

import (
	"strconv"

	"github.com/gagliardetto/solana-go"
)

// Event types emitted after an instruction commits.
const (
	EventAppointed = "pool.appointed"
	EventCreated   = "pool.created"
	EventJoined    = "pool.joined"
	EventFilled    = "pool.filled"
	EventSettled   = "pool.settled"
	EventClaimed   = "pool.claimed"
)

// Event is a committed state change.
type Event struct {
	Type       string
	Attributes map[string]string
}

// Emitter receives events. Emit must not block for long; it runs on the
// caller's goroutine after the store transaction has committed.
type Emitter interface {
	Emit(Event)
}

// EmitterFunc adapts a function to the Emitter interface.
type EmitterFunc func(Event)

// Emit calls f(evt).
func (f EmitterFunc) Emit(evt Event) { f(evt) }

type noopEmitter struct{}

func (noopEmitter) Emit(Event) {}

func appointedEvent(g *GlobalState) Event {
	return Event{Type: EventAppointed, Attributes: map[string]string{
		"authority":        g.Authority.String(),
		"treasury":         g.Treasury.String(),
		"fee_basis_points": strconv.FormatUint(uint64(g.FeeBasisPoints), 10),
	}}
}

func createdEvent(p *Pool, addr solana.PublicKey) Event {
	return Event{Type: EventCreated, Attributes: map[string]string{
		"pool_id":     formatID(p.PoolID),
		"address":     addr.String(),
		"creator":     p.Creator.String(),
		"min_deposit": strconv.FormatUint(p.MinDeposit, 10),
		"end_time":    strconv.FormatInt(p.EndTime, 10),
	}}
}

func joinedEvent(p *Participant, slot uint8) Event {
	return Event{Type: EventJoined, Attributes: map[string]string{
		"pool_id": formatID(p.PoolID),
		"player":  p.Player.String(),
		"deposit": strconv.FormatUint(p.DepositAmount, 10),
		"slot":    strconv.FormatUint(uint64(slot), 10),
	}}
}

func filledEvent(p *Pool) Event {
	return Event{Type: EventFilled, Attributes: map[string]string{
		"pool_id":      formatID(p.PoolID),
		"total_amount": strconv.FormatUint(p.TotalAmount, 10),
	}}
}

func settledEvent(p *Pool) Event {
	return Event{Type: EventSettled, Attributes: map[string]string{
		"pool_id":    formatID(p.PoolID),
		"fee_amount": strconv.FormatUint(p.FeeAmount, 10),
	}}
}

func claimedEvent(p *Participant) Event {
	return Event{Type: EventClaimed, Attributes: map[string]string{
		"pool_id": formatID(p.PoolID),
		"player":  p.Player.String(),
		"amount":  strconv.FormatUint(p.PrizeAmount, 10),
	}}
}

func formatID(id uint64) string { return strconv.FormatUint(id, 10) }
