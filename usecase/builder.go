package usecase

import (
	"encoding/base64"
	"fmt"
	"math/big"

	"bridge/domain"

	"github.com/shopspring/decimal"
	"github.com/tonkeeper/tongo"
	"github.com/tonkeeper/tongo/boc"
)

var (
	// Fixed gas attached to the jetton wallet contract; the user amount
	// travels inside the payload.
	JettonTransferGas = big.NewInt(64000000)
	// One nanoton forwarded to the recipient to trigger a notification.
	JettonForwardAmount = big.NewInt(1)
	// Gas attached to staking operations when the pool declares no fee.
	StakeOperationGas = big.NewInt(200000000)
)

// RechargeMethod describes one way of paying for a gas-sponsorship top-up:
// the asset, its exchange rate against the sponsored unit and the receiving
// account.
type RechargeMethod struct {
	Asset        domain.Asset
	Rate         decimal.Decimal
	Receiver     tongo.AccountID
	JettonWallet *tongo.AccountID
}

// BuilderInteractor is the pure construction layer: same inputs, same
// messages, no network access.
type BuilderInteractor struct {
	batteryMaxInputAmount *big.Int
	batteryBootstrapMin   *big.Int
}

func NewBuilderInteractor(batteryMaxInputAmount *big.Int, batteryBootstrapMin *big.Int) *BuilderInteractor {
	interactor := &BuilderInteractor{
		batteryMaxInputAmount: batteryMaxInputAmount,
		batteryBootstrapMin:   batteryBootstrapMin,
	}
	return interactor
}

// BuildNativeTransfer produces the single message of a plain coin transfer.
func (interactor *BuilderInteractor) BuildNativeTransfer(dest tongo.AccountID,
	amount *big.Int, comment string, bounce bool) ([]domain.TransferMessage, error) {

	if amount == nil || amount.Sign() <= 0 {
		return nil, domain.ErrorInvalidAmount
	}

	payload, err := domain.CommentPayload(comment)
	if err != nil {
		return nil, err
	}

	return []domain.TransferMessage{{
		Dest:    dest,
		Amount:  new(big.Int).Set(amount),
		Bounce:  bounce,
		Mode:    domain.SendModeDefault,
		Payload: payload,
	}}, nil
}

// BuildJettonTransfer wraps the token amount into the transfer body for the
// sender's jetton wallet contract. The attached value is the fixed gas
// amount, and the message goes to the jetton wallet, not the recipient.
func (interactor *BuilderInteractor) BuildJettonTransfer(jettonWallet tongo.AccountID,
	recipient tongo.AccountID, responseDest tongo.AccountID,
	amount *big.Int, queryId uint64, comment string) ([]domain.TransferMessage, error) {

	if amount == nil || amount.Sign() <= 0 {
		return nil, domain.ErrorInvalidAmount
	}

	payload, err := domain.JettonTransferPayload(queryId, amount, recipient, responseDest, JettonForwardAmount, comment)
	if err != nil {
		return nil, err
	}

	return []domain.TransferMessage{{
		Dest:    jettonWallet,
		Amount:  new(big.Int).Set(JettonTransferGas),
		Bounce:  true,
		Mode:    domain.SendModeDefault,
		Payload: payload,
	}}, nil
}

// BuildStakeDeposit applies the pool kind's fee policy and builds the
// deposit message.
func (interactor *BuilderInteractor) BuildStakeDeposit(pool domain.StakingPool,
	amount *big.Int, isMax bool, queryId uint64) ([]domain.TransferMessage, error) {

	if amount == nil || amount.Sign() <= 0 {
		return nil, domain.ErrorInvalidAmount
	}

	total, err := pool.DepositAmount(amount, isMax)
	if err != nil {
		return nil, err
	}

	payload, err := domain.StakeDepositPayload(pool.Kind, queryId)
	if err != nil {
		return nil, err
	}

	return []domain.TransferMessage{{
		Dest:    pool.Address,
		Amount:  total,
		Bounce:  true,
		Mode:    domain.SendModeDefault,
		Payload: payload,
	}}, nil
}

// BuildStakeWithdraw builds the withdraw message; the attached value only
// covers the pool's processing fee, the stake comes back on its own.
func (interactor *BuilderInteractor) BuildStakeWithdraw(pool domain.StakingPool,
	responseDest tongo.AccountID, amount *big.Int, isMax bool, queryId uint64) ([]domain.TransferMessage, error) {

	requested, err := pool.WithdrawAmount(amount, isMax)
	if err != nil {
		return nil, err
	}
	if requested.Sign() == 0 && !(pool.Kind == domain.PoolKindWhales && isMax) {
		return nil, domain.ErrorInvalidAmount
	}

	payload, err := domain.StakeWithdrawPayload(pool.Kind, queryId, requested, responseDest)
	if err != nil {
		return nil, err
	}

	attached := StakeOperationGas
	if pool.WithdrawalFee != nil && pool.WithdrawalFee.Sign() > 0 {
		attached = pool.WithdrawalFee
	}

	return []domain.TransferMessage{{
		Dest:    pool.Address,
		Amount:  new(big.Int).Set(attached),
		Bounce:  true,
		Mode:    domain.SendModeDefault,
		Payload: payload,
	}}, nil
}

// MaxRechargeInput is the ceiling divided by the method's rate, floored to
// the asset's base units.
func (interactor *BuilderInteractor) MaxRechargeInput(method RechargeMethod) (*big.Int, error) {
	if method.Rate.Sign() <= 0 {
		return nil, domain.ErrorRateNotAvailable
	}
	ceiling := decimal.NewFromBigInt(interactor.batteryMaxInputAmount, 0)
	return ceiling.Div(method.Rate).Floor().BigInt(), nil
}

// BuildRecharge builds the sponsorship top-up. An amount above the ceiling
// is a validation error, not a clamp and not a log line. forceRelay reports
// whether the transfer must go through the sponsor's broadcaster because the
// sponsorship balance is below the bootstrap minimum.
func (interactor *BuilderInteractor) BuildRecharge(method RechargeMethod,
	responseDest tongo.AccountID, amount *big.Int, queryId uint64,
	sponsorBalance *big.Int) (messages []domain.TransferMessage, forceRelay bool, err error) {

	if amount == nil || amount.Sign() <= 0 {
		return nil, false, domain.ErrorInvalidAmount
	}

	maxInput, err := interactor.MaxRechargeInput(method)
	if err != nil {
		return nil, false, err
	}
	if amount.Cmp(maxInput) > 0 {
		return nil, false, fmt.Errorf("%w: %v exceeds %v %v",
			domain.ErrorAmountExceedsLimit, amount, maxInput, method.Asset.Symbol)
	}

	forceRelay = sponsorBalance != nil && sponsorBalance.Cmp(interactor.batteryBootstrapMin) < 0

	if method.Asset.IsNative() {
		messages, err = interactor.BuildNativeTransfer(method.Receiver, amount, "", true)
		return messages, forceRelay, err
	}

	if method.JettonWallet == nil {
		return nil, false, fmt.Errorf("recharge method %v has no jetton wallet", method.Asset.Symbol)
	}
	messages, err = interactor.BuildJettonTransfer(*method.JettonWallet, method.Receiver, responseDest, amount, queryId, "")
	return messages, forceRelay, err
}

// TransferFromAppMessage converts one message of a sendTransaction request
// into builder form.
func (interactor *BuilderInteractor) TransferFromAppMessage(m domain.AppRequestMessage) (*domain.TransferMessage, error) {
	address, err := tongo.ParseAddress(m.Address)
	if err != nil {
		return nil, err
	}

	amount, ok := new(big.Int).SetString(m.Amount, 10)
	if !ok || amount.Sign() < 0 {
		return nil, domain.ErrorInvalidAmount
	}

	message := domain.TransferMessage{
		Dest:   address.ID,
		Amount: amount,
		Bounce: true,
		Mode:   domain.SendModeDefault,
	}

	if m.Payload != "" {
		cell, err := decodeSingleCell(m.Payload)
		if err != nil {
			return nil, err
		}
		message.Payload = cell
	}
	if m.StateInit != "" {
		cell, err := decodeSingleCell(m.StateInit)
		if err != nil {
			return nil, err
		}
		message.StateInit = cell
		message.Bounce = false
	}

	return &message, nil
}

// BuildEnvelope assembles the unsigned transfer around the message list.
func (interactor *BuilderInteractor) BuildEnvelope(wallet domain.WalletIdentity,
	messages []domain.TransferMessage, seqno uint32, validUntil int64) (*domain.UnsignedEnvelope, error) {

	if len(messages) == 0 {
		return nil, domain.ErrorNoMessages
	}
	if len(messages) > domain.MaxMessagesPerTransfer {
		return nil, domain.ErrorTooManyMessages
	}

	return &domain.UnsignedEnvelope{
		Sender:      wallet.AccountId,
		SubwalletId: domain.DefaultSubwalletId,
		Seqno:       seqno,
		ValidUntil:  validUntil,
		Messages:    messages,
	}, nil
}

func decodeSingleCell(encoded string) (*boc.Cell, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, err
	}
	cells, err := boc.DeserializeBoc(raw)
	if err != nil || len(cells) == 0 {
		return nil, domain.ErrorInvalidPayload
	}
	return cells[0], nil
}
