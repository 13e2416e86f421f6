package usecase

import (
	"context"
	"math/big"
	"testing"
	"time"

	"bridge/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Full confirmation flow: build, estimate, gate, sign and broadcast.
func TestConfirmAndSendTransfer(t *testing.T) {
	builder := testBuilder()
	broadcaster := &fakeBroadcaster{}
	signing := NewSignInteractor(builder, &fakeSeqnoFetcher{seqno: 11}, broadcaster, 5*time.Minute)
	fee := NewFeeInteractor(signing, &fakeEmulator{fee: big.NewInt(10_000_000)})

	wallet, key := signingWallet(t)
	balance := big.NewInt(5_000_000_000) // 5 TON

	messages, err := builder.BuildNativeTransfer(testAccountId(0x90), big.NewInt(1_000_000_000), "rent", true)
	require.NoError(t, err)

	ticket := fee.BeginEstimation()
	estimate, err := fee.Estimate(context.Background(), wallet, messages, balance, nil, "")
	require.NoError(t, err)
	require.True(t, fee.CommitEstimation(ticket, *estimate))
	require.Equal(t, SendableReady, fee.CheckSendable(messages, balance))
	require.NoError(t, fee.RequireSendable(messages, balance))

	// the blob sent for emulation never reaches the broadcaster
	assert.Empty(t, broadcaster.sent)

	transaction, err := signing.SignAndSend(context.Background(), wallet, domain.LocalKeySigner{PrivateKey: key}, messages)
	require.NoError(t, err)
	require.Len(t, broadcaster.sent, 1)
	assert.False(t, transaction.ForEmulation)

	// the emulation blob and the broadcast blob are distinct: different
	// seqno-independent signatures from different keys
	emulated, err := signing.Sign(context.Background(), wallet, domain.EmulationSigner{}, messages)
	require.NoError(t, err)
	assert.NotEqual(t, emulated.Boc, transaction.Boc)
}

// An amount the balance cannot cover stops at the gate; nothing is signed
// or broadcast.
func TestInsufficientFundsStopsBeforeSubmission(t *testing.T) {
	builder := testBuilder()
	broadcaster := &fakeBroadcaster{}
	signing := NewSignInteractor(builder, &fakeSeqnoFetcher{seqno: 11}, broadcaster, 5*time.Minute)
	fee := NewFeeInteractor(signing, &fakeEmulator{fee: big.NewInt(10_000_000)})

	wallet, _ := signingWallet(t)
	balance := big.NewInt(5_000_000_000) // 5 TON

	messages, err := builder.BuildNativeTransfer(testAccountId(0x90), big.NewInt(10_000_000_000), "", true)
	require.NoError(t, err)

	ticket := fee.BeginEstimation()
	estimate, err := fee.Estimate(context.Background(), wallet, messages, balance, nil, "")
	require.NoError(t, err)
	assert.True(t, estimate.InsufficientFunds)
	require.True(t, fee.CommitEstimation(ticket, *estimate))

	assert.Equal(t, SendableInsufficientFunds, fee.CheckSendable(messages, balance))
	assert.ErrorIs(t, fee.RequireSendable(messages, balance), domain.ErrorInsufficientFunds)
	assert.Empty(t, broadcaster.sent)
}
