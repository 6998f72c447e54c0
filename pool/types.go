package pool

import (
	"encoding/json"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

const (
	// MaxPlayers is the fixed capacity of every pool.
	MaxPlayers = 4

	// MaxFeeBasisPoints is a 100% protocol fee.
	MaxFeeBasisPoints = 10_000
)

// Status is the lifecycle state of a pool. It only ever moves forward:
// Open -> InProgress -> Completed.
type Status uint8

const (
	StatusOpen Status = iota
	StatusInProgress
	StatusCompleted
)

var statusNames = [...]string{"open", "in_progress", "completed"}

func (s Status) String() string {
	if int(s) < len(statusNames) {
		return statusNames[s]
	}
	return fmt.Sprintf("status(%d)", uint8(s))
}

// MarshalText implements encoding.TextMarshaler.
func (s Status) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Status) UnmarshalText(text []byte) error {
	for i, name := range statusNames {
		if name == string(text) {
			*s = Status(i)
			return nil
		}
	}
	return fmt.Errorf("pool: unknown status %q", text)
}

// GlobalState is the singleton protocol configuration and pool counter.
type GlobalState struct {
	Authority      solana.PublicKey `json:"authority"`
	Treasury       solana.PublicKey `json:"treasury"`
	FeeBasisPoints uint16           `json:"fee_basis_points"`
	PoolCount      uint64           `json:"pool_count"`
	Bump           uint8            `json:"bump"`
}

// Pool is the per-pool record. PlayerAccounts always has MaxPlayers slots;
// slots past CurrentPlayers hold the zero key.
type Pool struct {
	PoolID            uint64             `json:"pool_id"`
	Creator           solana.PublicKey   `json:"creator"`
	Status            Status             `json:"status"`
	MinDeposit        uint64             `json:"min_deposit"`
	MaxPlayers        uint8              `json:"max_players"`
	CurrentPlayers    uint8              `json:"current_players"`
	TotalAmount       uint64             `json:"total_amount"`
	EndTime           int64              `json:"end_time"`
	PrizeDistribution []uint8            `json:"prize_distribution"`
	FeeAmount         uint64             `json:"fee_amount"`
	PlayerAccounts    []solana.PublicKey `json:"player_accounts"`
	Bump              uint8              `json:"bump"`
	VaultBump         uint8              `json:"vault_bump"`
}

// MarshalJSON renders PrizeDistribution as numbers rather than base64.
func (p Pool) MarshalJSON() ([]byte, error) {
	type plain Pool
	shares := make([]uint16, len(p.PrizeDistribution))
	for i, v := range p.PrizeDistribution {
		shares[i] = uint16(v)
	}
	return json.Marshal(struct {
		plain
		PrizeDistribution []uint16 `json:"prize_distribution"`
	}{plain(p), shares})
}

// IsFull reports whether every slot is taken.
func (p *Pool) IsFull() bool { return p.CurrentPlayers >= p.MaxPlayers }

// Joined returns the participant record addresses of the filled slots in
// join order.
func (p *Pool) Joined() []solana.PublicKey {
	out := make([]solana.PublicKey, 0, p.CurrentPlayers)
	for _, acct := range p.PlayerAccounts {
		if !acct.IsZero() {
			out = append(out, acct)
		}
	}
	return out
}

// Participant is the per-(pool, identity) record created on join.
//
// Rank is an index into the pool's PrizeDistribution, so 0 is both the
// initial value and first place. Whether a participant has been ranked
// follows from the pool being StatusCompleted, never from Rank itself.
type Participant struct {
	Player        solana.PublicKey `json:"player"`
	PoolID        uint64           `json:"pool_id"`
	DepositAmount uint64           `json:"deposit_amount"`
	HasClaimed    bool             `json:"has_claimed"`
	Rank          uint8            `json:"rank"`
	PrizeAmount   uint64           `json:"prize_amount"`
	Bump          uint8            `json:"bump"`
}

// CreatePoolParams are the caller-supplied inputs of CreatePool.
type CreatePoolParams struct {
	MinDeposit        uint64
	EndTime           int64
	PrizeDistribution []uint8
}
