package pool

import (
	"bytes"
	"encoding/binary"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

// Records are stored Anchor style: an 8-byte account discriminator followed
// by the Borsh encoding of the fields in declaration order.
var (
	globalStateDiscriminator = bin.SighashTypeID(bin.SIGHASH_ACCOUNT_NAMESPACE, "GlobalState")
	poolDiscriminator        = bin.SighashTypeID(bin.SIGHASH_ACCOUNT_NAMESPACE, "Pool")
	participantDiscriminator = bin.SighashTypeID(bin.SIGHASH_ACCOUNT_NAMESPACE, "Participant")
)

// Encoded sizes including the discriminator.
const (
	discriminatorSize = 8
	GlobalStateSize   = discriminatorSize + 32 + 32 + 2 + 8 + 1
	PoolSize          = discriminatorSize + 8 + 32 + 1 + 8 + 1 + 1 + 8 + 8 + (4 + MaxPlayers) + 8 + (4 + 32*MaxPlayers) + 1 + 1
	ParticipantSize   = discriminatorSize + 32 + 8 + 8 + 1 + 1 + 8 + 1
)

var le = binary.LittleEndian

type record interface {
	bin.BinaryMarshaler
	bin.BinaryUnmarshaler
}

func encodeRecord(disc bin.TypeID, r record) ([]byte, error) {
	buf := new(bytes.Buffer)
	enc := bin.NewBorshEncoder(buf)
	if err := enc.WriteBytes(disc[:], false); err != nil {
		return nil, err
	}
	if err := r.MarshalWithEncoder(enc); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeRecord(disc bin.TypeID, data []byte, r record) error {
	if len(data) < discriminatorSize {
		return fmt.Errorf("%w: %d bytes", ErrInvalidRecord, len(data))
	}
	if !bytes.Equal(data[:discriminatorSize], disc[:]) {
		return fmt.Errorf("%w: discriminator mismatch", ErrInvalidRecord)
	}
	if err := r.UnmarshalWithDecoder(bin.NewBorshDecoder(data[discriminatorSize:])); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidRecord, err)
	}
	return nil
}

func writeKey(enc *bin.Encoder, key solana.PublicKey) error {
	return enc.WriteBytes(key[:], false)
}

func readKey(dec *bin.Decoder) (solana.PublicKey, error) {
	raw, err := dec.ReadNBytes(solana.PublicKeyLength)
	if err != nil {
		return solana.PublicKey{}, err
	}
	return solana.PublicKeyFromBytes(raw), nil
}

// MarshalBinary returns the stored account data of g.
func (g *GlobalState) MarshalBinary() ([]byte, error) {
	return encodeRecord(globalStateDiscriminator, g)
}

// UnmarshalBinary decodes stored account data into g.
func (g *GlobalState) UnmarshalBinary(data []byte) error {
	return decodeRecord(globalStateDiscriminator, data, g)
}

func (g *GlobalState) MarshalWithEncoder(enc *bin.Encoder) error {
	if err := writeKey(enc, g.Authority); err != nil {
		return err
	}
	if err := writeKey(enc, g.Treasury); err != nil {
		return err
	}
	if err := enc.WriteUint16(g.FeeBasisPoints, le); err != nil {
		return err
	}
	if err := enc.WriteUint64(g.PoolCount, le); err != nil {
		return err
	}
	return enc.WriteUint8(g.Bump)
}

func (g *GlobalState) UnmarshalWithDecoder(dec *bin.Decoder) (err error) {
	if g.Authority, err = readKey(dec); err != nil {
		return err
	}
	if g.Treasury, err = readKey(dec); err != nil {
		return err
	}
	if g.FeeBasisPoints, err = dec.ReadUint16(le); err != nil {
		return err
	}
	if g.PoolCount, err = dec.ReadUint64(le); err != nil {
		return err
	}
	g.Bump, err = dec.ReadUint8()
	return err
}

// MarshalBinary returns the stored account data of p.
func (p *Pool) MarshalBinary() ([]byte, error) {
	return encodeRecord(poolDiscriminator, p)
}

// UnmarshalBinary decodes stored account data into p.
func (p *Pool) UnmarshalBinary(data []byte) error {
	return decodeRecord(poolDiscriminator, data, p)
}

func (p *Pool) MarshalWithEncoder(enc *bin.Encoder) error {
	if err := enc.WriteUint64(p.PoolID, le); err != nil {
		return err
	}
	if err := writeKey(enc, p.Creator); err != nil {
		return err
	}
	if err := enc.WriteUint8(uint8(p.Status)); err != nil {
		return err
	}
	if err := enc.WriteUint64(p.MinDeposit, le); err != nil {
		return err
	}
	if err := enc.WriteUint8(p.MaxPlayers); err != nil {
		return err
	}
	if err := enc.WriteUint8(p.CurrentPlayers); err != nil {
		return err
	}
	if err := enc.WriteUint64(p.TotalAmount, le); err != nil {
		return err
	}
	if err := enc.WriteInt64(p.EndTime, le); err != nil {
		return err
	}
	if err := enc.WriteUint32(uint32(len(p.PrizeDistribution)), le); err != nil {
		return err
	}
	if err := enc.WriteBytes(p.PrizeDistribution, false); err != nil {
		return err
	}
	if err := enc.WriteUint64(p.FeeAmount, le); err != nil {
		return err
	}
	if err := enc.WriteUint32(uint32(len(p.PlayerAccounts)), le); err != nil {
		return err
	}
	for _, acct := range p.PlayerAccounts {
		if err := writeKey(enc, acct); err != nil {
			return err
		}
	}
	if err := enc.WriteUint8(p.Bump); err != nil {
		return err
	}
	return enc.WriteUint8(p.VaultBump)
}

func (p *Pool) UnmarshalWithDecoder(dec *bin.Decoder) (err error) {
	if p.PoolID, err = dec.ReadUint64(le); err != nil {
		return err
	}
	if p.Creator, err = readKey(dec); err != nil {
		return err
	}
	status, err := dec.ReadUint8()
	if err != nil {
		return err
	}
	if status > uint8(StatusCompleted) {
		return fmt.Errorf("unknown status %d", status)
	}
	p.Status = Status(status)
	if p.MinDeposit, err = dec.ReadUint64(le); err != nil {
		return err
	}
	if p.MaxPlayers, err = dec.ReadUint8(); err != nil {
		return err
	}
	if p.CurrentPlayers, err = dec.ReadUint8(); err != nil {
		return err
	}
	if p.TotalAmount, err = dec.ReadUint64(le); err != nil {
		return err
	}
	if p.EndTime, err = dec.ReadInt64(le); err != nil {
		return err
	}
	n, err := readLen(dec, MaxPlayers)
	if err != nil {
		return err
	}
	if p.PrizeDistribution, err = dec.ReadNBytes(n); err != nil {
		return err
	}
	if p.FeeAmount, err = dec.ReadUint64(le); err != nil {
		return err
	}
	if n, err = readLen(dec, MaxPlayers); err != nil {
		return err
	}
	p.PlayerAccounts = make([]solana.PublicKey, n)
	for i := range p.PlayerAccounts {
		if p.PlayerAccounts[i], err = readKey(dec); err != nil {
			return err
		}
	}
	if p.Bump, err = dec.ReadUint8(); err != nil {
		return err
	}
	p.VaultBump, err = dec.ReadUint8()
	return err
}

func readLen(dec *bin.Decoder, max int) (int, error) {
	n, err := dec.ReadUint32(le)
	if err != nil {
		return 0, err
	}
	if int(n) > max {
		return 0, fmt.Errorf("vector length %d exceeds %d", n, max)
	}
	return int(n), nil
}

// MarshalBinary returns the stored account data of p.
func (p *Participant) MarshalBinary() ([]byte, error) {
	return encodeRecord(participantDiscriminator, p)
}

// UnmarshalBinary decodes stored account data into p.
func (p *Participant) UnmarshalBinary(data []byte) error {
	return decodeRecord(participantDiscriminator, data, p)
}

func (p *Participant) MarshalWithEncoder(enc *bin.Encoder) error {
	if err := writeKey(enc, p.Player); err != nil {
		return err
	}
	if err := enc.WriteUint64(p.PoolID, le); err != nil {
		return err
	}
	if err := enc.WriteUint64(p.DepositAmount, le); err != nil {
		return err
	}
	if err := enc.WriteBool(p.HasClaimed); err != nil {
		return err
	}
	if err := enc.WriteUint8(p.Rank); err != nil {
		return err
	}
	if err := enc.WriteUint64(p.PrizeAmount, le); err != nil {
		return err
	}
	return enc.WriteUint8(p.Bump)
}

func (p *Participant) UnmarshalWithDecoder(dec *bin.Decoder) (err error) {
	if p.Player, err = readKey(dec); err != nil {
		return err
	}
	if p.PoolID, err = dec.ReadUint64(le); err != nil {
		return err
	}
	if p.DepositAmount, err = dec.ReadUint64(le); err != nil {
		return err
	}
	if p.HasClaimed, err = dec.ReadBool(); err != nil {
		return err
	}
	if p.Rank, err = dec.ReadUint8(); err != nil {
		return err
	}
	if p.PrizeAmount, err = dec.ReadUint64(le); err != nil {
		return err
	}
	p.Bump, err = dec.ReadUint8()
	return err
}
