package domain

import (
	"math/big"

	"github.com/tonkeeper/tongo"
	"github.com/tonkeeper/tongo/boc"
)

const (
	OpcodeTextComment    = uint32(0x00000000)
	OpcodeJettonTransfer = uint32(0x0f8a7ea5)
	OpcodeJettonBurn     = uint32(0x595f07bc)

	OpcodeWhalesDeposit  = uint32(0x7bcd1fef)
	OpcodeWhalesWithdraw = uint32(0xda803efd)
	OpcodeLiquidDeposit  = uint32(0x47d54391)

	// Default send mode: sender pays fees, ignore action errors.
	SendModeDefault = uint8(3)
)

// TransferMessage is one internal message of a transfer. The attached amount
// is nanotons regardless of the asset; jetton amounts travel inside Payload.
type TransferMessage struct {
	Dest      tongo.AccountID
	Amount    *big.Int
	Bounce    bool
	Mode      uint8
	StateInit *boc.Cell
	Payload   *boc.Cell
}

// ToCell serializes the message with an int_msg_info header. Fees, created_lt
// and created_at are left zero, the validators fill them in.
func (m TransferMessage) ToCell() (*boc.Cell, error) {
	c := boc.NewCell()
	if err := c.WriteBit(false); err != nil { // int_msg_info$0
		return nil, err
	}
	if err := c.WriteBit(true); err != nil { // ihr_disabled
		return nil, err
	}
	if err := c.WriteBit(m.Bounce); err != nil {
		return nil, err
	}
	if err := c.WriteBit(false); err != nil { // bounced
		return nil, err
	}
	if err := c.WriteUint(0, 2); err != nil { // src: addr_none
		return nil, err
	}
	if err := writeAddress(c, m.Dest); err != nil {
		return nil, err
	}
	if err := writeCoins(c, m.Amount); err != nil {
		return nil, err
	}
	if err := c.WriteBit(false); err != nil { // no extra currencies
		return nil, err
	}
	if err := writeCoins(c, big.NewInt(0)); err != nil { // ihr_fee
		return nil, err
	}
	if err := writeCoins(c, big.NewInt(0)); err != nil { // fwd_fee
		return nil, err
	}
	if err := c.WriteUint(0, 64); err != nil { // created_lt
		return nil, err
	}
	if err := c.WriteUint(0, 32); err != nil { // created_at
		return nil, err
	}

	if m.StateInit != nil {
		if err := c.WriteBit(true); err != nil {
			return nil, err
		}
		if err := c.WriteBit(true); err != nil { // init as reference
			return nil, err
		}
		if err := c.AddRef(m.StateInit); err != nil {
			return nil, err
		}
	} else if err := c.WriteBit(false); err != nil {
		return nil, err
	}

	if m.Payload != nil {
		if err := c.WriteBit(true); err != nil { // body as reference
			return nil, err
		}
		if err := c.AddRef(m.Payload); err != nil {
			return nil, err
		}
	} else if err := c.WriteBit(false); err != nil {
		return nil, err
	}

	return c, nil
}

func writeAddress(c *boc.Cell, accid tongo.AccountID) error {
	if err := c.WriteUint(2, 2); err != nil { // addr_std$10
		return err
	}
	if err := c.WriteBit(false); err != nil { // no anycast
		return err
	}
	if err := c.WriteUint(uint64(uint32(accid.Workchain))&0xff, 8); err != nil {
		return err
	}
	return c.WriteBytes(accid.Address[:])
}

// writeCoins encodes a VarUInteger16: a 4-bit byte length and the big-endian
// value. Negative amounts never reach this point.
func writeCoins(c *boc.Cell, value *big.Int) error {
	if value == nil || value.Sign() < 0 {
		return ErrorInvalidAmount
	}
	bytes := value.Bytes()
	if err := c.WriteUint(uint64(len(bytes)), 4); err != nil {
		return err
	}
	if len(bytes) == 0 {
		return nil
	}
	return c.WriteBytes(bytes)
}

//---------------------------------
// Payload cells

// CommentPayload encodes a text comment as an opcode-0 snake of cells.
func CommentPayload(comment string) (*boc.Cell, error) {
	if comment == "" {
		return nil, nil
	}
	c := boc.NewCell()
	if err := c.WriteUint(uint64(OpcodeTextComment), 32); err != nil {
		return nil, err
	}
	if err := writeSnakeBytes(c, []byte(comment), 123); err != nil {
		return nil, ErrorInvalidComment
	}
	return c, nil
}

func writeSnakeBytes(c *boc.Cell, data []byte, capacity int) error {
	n := len(data)
	if n > capacity {
		n = capacity
	}
	if err := c.WriteBytes(data[:n]); err != nil {
		return err
	}
	data = data[n:]
	if len(data) == 0 {
		return nil
	}

	next := boc.NewCell()
	if err := writeSnakeBytes(next, data, 127); err != nil {
		return err
	}
	return c.AddRef(next)
}

// JettonTransferPayload builds the transfer body carried to the sender's
// jetton wallet contract. The jetton amount travels here, never in the
// attached nanotons.
func JettonTransferPayload(queryId uint64, amount *big.Int, dest tongo.AccountID,
	responseDest tongo.AccountID, forwardAmount *big.Int, comment string) (*boc.Cell, error) {

	c := boc.NewCell()
	if err := c.WriteUint(uint64(OpcodeJettonTransfer), 32); err != nil {
		return nil, err
	}
	if err := c.WriteUint(queryId, 64); err != nil {
		return nil, err
	}
	if err := writeCoins(c, amount); err != nil {
		return nil, err
	}
	if err := writeAddress(c, dest); err != nil {
		return nil, err
	}
	if err := writeAddress(c, responseDest); err != nil {
		return nil, err
	}
	if err := c.WriteBit(false); err != nil { // no custom payload
		return nil, err
	}
	if err := writeCoins(c, forwardAmount); err != nil {
		return nil, err
	}

	forward, err := CommentPayload(comment)
	if err != nil {
		return nil, err
	}
	if forward != nil {
		if err := c.WriteBit(true); err != nil { // forward payload as reference
			return nil, err
		}
		if err := c.AddRef(forward); err != nil {
			return nil, err
		}
	} else if err := c.WriteBit(false); err != nil {
		return nil, err
	}

	return c, nil
}

// StakeDepositPayload builds the per-implementation deposit body.
func StakeDepositPayload(kind string, queryId uint64) (*boc.Cell, error) {
	switch kind {
	case PoolKindWhales:
		c := boc.NewCell()
		if err := c.WriteUint(uint64(OpcodeWhalesDeposit), 32); err != nil {
			return nil, err
		}
		if err := c.WriteUint(queryId, 64); err != nil {
			return nil, err
		}
		if err := writeCoins(c, big.NewInt(100000)); err != nil { // gas limit
			return nil, err
		}
		return c, nil

	case PoolKindTF:
		return CommentPayload("d")

	case PoolKindLiquidTF:
		c := boc.NewCell()
		if err := c.WriteUint(uint64(OpcodeLiquidDeposit), 32); err != nil {
			return nil, err
		}
		if err := c.WriteUint(queryId, 64); err != nil {
			return nil, err
		}
		return c, nil
	}
	return nil, ErrorUnknownPoolKind
}

// StakeWithdrawPayload builds the per-implementation withdraw body. For
// liquid-tf the withdraw is a burn of the pool jetton for the given amount.
func StakeWithdrawPayload(kind string, queryId uint64, amount *big.Int, responseDest tongo.AccountID) (*boc.Cell, error) {
	switch kind {
	case PoolKindWhales:
		c := boc.NewCell()
		if err := c.WriteUint(uint64(OpcodeWhalesWithdraw), 32); err != nil {
			return nil, err
		}
		if err := c.WriteUint(queryId, 64); err != nil {
			return nil, err
		}
		if err := writeCoins(c, big.NewInt(100000)); err != nil { // gas limit
			return nil, err
		}
		if err := writeCoins(c, amount); err != nil {
			return nil, err
		}
		return c, nil

	case PoolKindTF:
		return CommentPayload("w")

	case PoolKindLiquidTF:
		c := boc.NewCell()
		if err := c.WriteUint(uint64(OpcodeJettonBurn), 32); err != nil {
			return nil, err
		}
		if err := c.WriteUint(queryId, 64); err != nil {
			return nil, err
		}
		if err := writeCoins(c, amount); err != nil {
			return nil, err
		}
		if err := writeAddress(c, responseDest); err != nil {
			return nil, err
		}
		if err := c.WriteBit(false); err != nil { // no custom payload
			return nil, err
		}
		return c, nil
	}
	return nil, ErrorUnknownPoolKind
}
