package domain

import (
	"crypto/ed25519"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tonkeeper/tongo/boc"
)

func testEnvelope(t *testing.T, count int) *UnsignedEnvelope {
	messages := make([]TransferMessage, count)
	for i := range messages {
		messages[i] = TransferMessage{
			Dest:   testAccountId(byte(i + 1)),
			Amount: big.NewInt(int64(i+1) * 1_000_000),
			Bounce: true,
			Mode:   SendModeDefault,
		}
	}
	return &UnsignedEnvelope{
		Sender:      testAccountId(0xaa),
		SubwalletId: DefaultSubwalletId,
		Seqno:       12,
		ValidUntil:  1_700_000_000,
		Messages:    messages,
	}
}

func TestSigningHashMessageCount(t *testing.T) {
	_, err := testEnvelope(t, 0).SigningHash()
	assert.ErrorIs(t, err, ErrorNoMessages)

	_, err = testEnvelope(t, MaxMessagesPerTransfer+1).SigningHash()
	assert.ErrorIs(t, err, ErrorTooManyMessages)

	digest, err := testEnvelope(t, MaxMessagesPerTransfer).SigningHash()
	require.NoError(t, err)
	assert.Len(t, digest, 32)
}

func TestSigningHashDependsOnContent(t *testing.T) {
	a := testEnvelope(t, 1)
	b := testEnvelope(t, 1)
	b.Seqno++

	hashA, err := a.SigningHash()
	require.NoError(t, err)
	hashB, err := b.SigningHash()
	require.NoError(t, err)
	assert.NotEqual(t, hashA, hashB)
}

func TestSealExternal(t *testing.T) {
	envelope := testEnvelope(t, 2)

	key := ed25519.NewKeyFromSeed(make([]byte, ed25519.SeedSize))
	digest, err := envelope.SigningHash()
	require.NoError(t, err)
	signature := ed25519.Sign(key, digest)

	sealed, err := envelope.SealExternal(signature)
	require.NoError(t, err)

	cells, err := boc.DeserializeBoc(sealed)
	require.NoError(t, err)
	require.Len(t, cells, 1)
	ext := cells[0]

	tag, err := ext.ReadUint(2)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), tag) // ext_in_msg_info$10

	src, err := ext.ReadUint(2)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), src) // addr_none

	destTag, err := ext.ReadUint(2)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), destTag) // addr_std$10

	require.Equal(t, 1, ext.RefsSize())
	body, err := ext.NextRef()
	require.NoError(t, err)

	bodySignature, err := body.ReadBytes(ed25519.SignatureSize)
	require.NoError(t, err)
	assert.Equal(t, signature, bodySignature)

	subwallet, err := body.ReadUint(32)
	require.NoError(t, err)
	assert.Equal(t, uint64(DefaultSubwalletId), subwallet)

	validUntil, err := body.ReadUint(32)
	require.NoError(t, err)
	assert.Equal(t, uint64(uint32(envelope.ValidUntil)), validUntil)

	seqno, err := body.ReadUint(32)
	require.NoError(t, err)
	assert.Equal(t, uint64(envelope.Seqno), seqno)

	op, err := body.ReadUint(8)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), op)

	assert.Equal(t, len(envelope.Messages), body.RefsSize())
}

func TestSignedTransactionBase64(t *testing.T) {
	transaction := SignedTransaction{Boc: []byte{0x01, 0x02}}
	assert.Equal(t, "AQI=", transaction.Base64())
}
