package domain

import (
	"encoding/base64"
	"math/big"

	"github.com/tonkeeper/tongo"
	"github.com/tonkeeper/tongo/boc"
)

const (
	DefaultSubwalletId = uint32(698983191)

	// Wallet v4 fits at most four outgoing messages per external message.
	MaxMessagesPerTransfer = 4
)

// UnsignedEnvelope is a complete transfer awaiting a signature: the sender's
// current seqno, the validity deadline and the ordered message list.
type UnsignedEnvelope struct {
	Sender      tongo.AccountID
	SubwalletId uint32
	Seqno       uint32
	ValidUntil  int64
	Messages    []TransferMessage
}

func (e *UnsignedEnvelope) payloadInto(c *boc.Cell) error {
	if err := c.WriteUint(uint64(e.SubwalletId), 32); err != nil {
		return err
	}
	if err := c.WriteUint(uint64(uint32(e.ValidUntil)), 32); err != nil {
		return err
	}
	if err := c.WriteUint(uint64(e.Seqno), 32); err != nil {
		return err
	}
	if err := c.WriteUint(0, 8); err != nil { // op: plain send
		return err
	}

	for _, m := range e.Messages {
		if err := c.WriteUint(uint64(m.Mode), 8); err != nil {
			return err
		}
		msgCell, err := m.ToCell()
		if err != nil {
			return err
		}
		if err := c.AddRef(msgCell); err != nil {
			return err
		}
	}
	return nil
}

// SigningHash is the digest the signer variants operate on: the hash of the
// wallet contract's signing payload.
func (e *UnsignedEnvelope) SigningHash() ([]byte, error) {
	if len(e.Messages) == 0 {
		return nil, ErrorNoMessages
	}
	if len(e.Messages) > MaxMessagesPerTransfer {
		return nil, ErrorTooManyMessages
	}

	c := boc.NewCell()
	if err := e.payloadInto(c); err != nil {
		return nil, err
	}
	return c.Hash()
}

// SignedTransaction is a sealed external message ready for broadcast.
type SignedTransaction struct {
	Boc        []byte
	Seqno      uint32
	ValidUntil int64
	// Sealed with the zero-key emulation signer; must never reach the chain.
	ForEmulation bool
}

func (t *SignedTransaction) Base64() string {
	return base64.StdEncoding.EncodeToString(t.Boc)
}

// SealExternal wraps the signed payload into the external message accepted by
// the wallet contract and serializes it to a BOC.
func (e *UnsignedEnvelope) SealExternal(signature []byte) ([]byte, error) {
	body := boc.NewCell()
	if err := body.WriteBytes(signature); err != nil {
		return nil, err
	}
	if err := e.payloadInto(body); err != nil {
		return nil, err
	}

	ext := boc.NewCell()
	if err := ext.WriteUint(2, 2); err != nil { // ext_in_msg_info$10
		return nil, err
	}
	if err := ext.WriteUint(0, 2); err != nil { // src: addr_none
		return nil, err
	}
	if err := writeAddress(ext, e.Sender); err != nil {
		return nil, err
	}
	if err := writeCoins(ext, big.NewInt(0)); err != nil { // import fee
		return nil, err
	}
	if err := ext.WriteBit(false); err != nil { // no state init
		return nil, err
	}
	if err := ext.WriteBit(true); err != nil { // body as reference
		return nil, err
	}
	if err := ext.AddRef(body); err != nil {
		return nil, err
	}

	return ext.ToBoc()
}
