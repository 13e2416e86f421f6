package usecase

import (
	"context"
	"log"
	"math/big"
	"sync"

	"bridge/domain"
	"bridge/domain/util"
	"bridge/interface/exporter"

	"github.com/shopspring/decimal"
)

const (
	SendableReady             = "ready"
	SendableInsufficientFunds = "insufficient_funds"
	SendableFeeNotYetKnown    = "fee_not_yet_known"
)

// FeeEmulator runs a sealed blob through trace emulation; implemented by
// relay.ApiClient.
type FeeEmulator interface {
	EmulateFee(ctx context.Context, signedBoc []byte) (*big.Int, error)
}

// FeeEstimate is the published result of one estimation round. Converted is
// empty when no fiat rate was available at estimation time.
type FeeEstimate struct {
	Fee               *big.Int
	Converted         string
	InsufficientFunds bool
}

// FeeInteractor produces fee estimates by signing the draft with the
// zero-key emulation signer and running it through the emulator. Rounds are
// numbered so that a slow early estimate can never overwrite a newer one
// after the user edits the draft.
type FeeInteractor struct {
	signing  *SignInteractor
	emulator FeeEmulator

	mu         sync.Mutex
	generation uint64
	published  uint64
	estimate   *FeeEstimate
}

func NewFeeInteractor(signing *SignInteractor, emulator FeeEmulator) *FeeInteractor {
	interactor := &FeeInteractor{
		signing:  signing,
		emulator: emulator,
	}
	return interactor
}

// BeginEstimation invalidates any in-flight round and returns the ticket the
// caller must commit with.
func (interactor *FeeInteractor) BeginEstimation() uint64 {
	interactor.mu.Lock()
	defer interactor.mu.Unlock()
	interactor.generation++
	interactor.estimate = nil
	return interactor.generation
}

// CommitEstimation publishes a round's result. Stale tickets are dropped.
func (interactor *FeeInteractor) CommitEstimation(ticket uint64, estimate FeeEstimate) bool {
	interactor.mu.Lock()
	defer interactor.mu.Unlock()
	if ticket != interactor.generation {
		return false
	}
	interactor.published = ticket
	interactor.estimate = &estimate
	return true
}

// Current returns the published estimate of the latest round, or nil while
// the round is still running.
func (interactor *FeeInteractor) Current() *FeeEstimate {
	interactor.mu.Lock()
	defer interactor.mu.Unlock()
	if interactor.estimate == nil || interactor.published != interactor.generation {
		return nil
	}
	copied := *interactor.estimate
	return &copied
}

// Estimate seals the draft with the emulation signer, runs it through the
// emulator and derives the estimate. The balance check happens here so the
// confirmation screen only ever reads a finished verdict.
func (interactor *FeeInteractor) Estimate(ctx context.Context,
	wallet domain.WalletIdentity,
	messages []domain.TransferMessage,
	balance *big.Int,
	rate *decimal.Decimal,
	rateSymbol string) (*FeeEstimate, error) {

	transaction, err := interactor.signing.Sign(ctx, wallet, domain.EmulationSigner{}, messages)
	if err != nil {
		return nil, err
	}

	fee, err := interactor.emulator.EmulateFee(ctx, transaction.Boc)
	if err != nil {
		exporter.IncEmulationFailures()
		log.Printf("🟡 fee emulation failed [wallet: %v] - %v\n", wallet.Address(), err.Error())
		return nil, err
	}

	log.Printf("estimated fee [wallet: %v] - %v\n", wallet.Address(), util.NanoToTonString(fee))

	estimate := FeeEstimate{Fee: fee}
	if rate != nil && rate.Sign() > 0 {
		converted := domain.TonAsset.DisplayValue(fee).Mul(*rate)
		estimate.Converted = converted.StringFixed(2) + " " + rateSymbol
	}

	required := new(big.Int).Add(totalAmount(messages), fee)
	if balance != nil && balance.Cmp(required) < 0 {
		estimate.InsufficientFunds = true
	}

	return &estimate, nil
}

// CheckSendable is the gate in front of the send button. The boundary case
// where the balance covers amount plus fee exactly is sendable.
func (interactor *FeeInteractor) CheckSendable(messages []domain.TransferMessage, balance *big.Int) string {
	estimate := interactor.Current()
	if estimate == nil || estimate.Fee == nil {
		return SendableFeeNotYetKnown
	}

	required := new(big.Int).Add(totalAmount(messages), estimate.Fee)
	if balance == nil || balance.Cmp(required) < 0 {
		return SendableInsufficientFunds
	}
	return SendableReady
}

// RequireSendable is the error form of CheckSendable, used right before
// handing the draft to the signing pipeline.
func (interactor *FeeInteractor) RequireSendable(messages []domain.TransferMessage, balance *big.Int) error {
	switch interactor.CheckSendable(messages, balance) {
	case SendableReady:
		return nil
	case SendableInsufficientFunds:
		return domain.ErrorInsufficientFunds
	default:
		return domain.ErrorFeeNotKnown
	}
}

func totalAmount(messages []domain.TransferMessage) *big.Int {
	total := big.NewInt(0)
	for _, m := range messages {
		if m.Amount != nil {
			total.Add(total, m.Amount)
		}
	}
	return total
}
