package usecase

import (
	"context"
	"log"
	"sync"
	"time"

	"bridge/domain"
	"bridge/interface/exporter"

	"github.com/google/uuid"
	"github.com/tonkeeper/tongo"
)

// SeqnoFetcher reads the current seqno of a wallet contract; implemented by
// liteapi.Client.
type SeqnoFetcher interface {
	GetSeqno(ctx context.Context, account tongo.AccountID) (uint32, error)
}

// Broadcaster submits a sealed external message; implemented by
// relay.ApiClient.
type Broadcaster interface {
	SendBoc(ctx context.Context, boc []byte) error
}

// SignInteractor runs the full signing pipeline: fetch seqno, stamp the
// deadline, sign, seal and optionally broadcast. Per-wallet locking keeps
// concurrent transfers from the same wallet from racing on the seqno.
type SignInteractor struct {
	builder     *BuilderInteractor
	seqnoSource SeqnoFetcher
	broadcaster Broadcaster
	messageTtl  time.Duration

	mu        sync.Mutex
	locks     map[string]*sync.Mutex
	observers map[uuid.UUID]func(domain.SignedTransaction)
}

func NewSignInteractor(builder *BuilderInteractor,
	seqnoSource SeqnoFetcher,
	broadcaster Broadcaster,
	messageTtl time.Duration) *SignInteractor {
	interactor := &SignInteractor{
		builder:     builder,
		seqnoSource: seqnoSource,
		broadcaster: broadcaster,
		messageTtl:  messageTtl,
		locks:       make(map[string]*sync.Mutex),
		observers:   make(map[uuid.UUID]func(domain.SignedTransaction)),
	}
	return interactor
}

// AddObserver registers a callback fired after every successful broadcast.
func (interactor *SignInteractor) AddObserver(observer func(domain.SignedTransaction)) Subscription {
	id := uuid.New()

	interactor.mu.Lock()
	interactor.observers[id] = observer
	interactor.mu.Unlock()

	return Subscription{cancel: func() {
		interactor.mu.Lock()
		delete(interactor.observers, id)
		interactor.mu.Unlock()
	}}
}

func (interactor *SignInteractor) walletLock(address string) *sync.Mutex {
	interactor.mu.Lock()
	defer interactor.mu.Unlock()

	lock, ok := interactor.locks[address]
	if !ok {
		lock = &sync.Mutex{}
		interactor.locks[address] = lock
	}
	return lock
}

// Sign seals the message list into a broadcastable external message. The
// seqno is fetched fresh on every call, never cached, so a retry after a
// failed broadcast picks up the chain's current state.
func (interactor *SignInteractor) Sign(ctx context.Context,
	wallet domain.WalletIdentity,
	signer domain.Signer,
	messages []domain.TransferMessage) (*domain.SignedTransaction, error) {

	if !wallet.CanSign() && !signer.ForEmulation() {
		return nil, domain.ErrorWatchOnlyWallet
	}

	lock := interactor.walletLock(wallet.Address())
	lock.Lock()
	defer lock.Unlock()

	seqno, err := interactor.seqnoSource.GetSeqno(ctx, wallet.AccountId)
	if err != nil {
		log.Printf("🔴 fetching seqno [wallet: %v] - %v\n", wallet.Address(), err.Error())
		return nil, err
	}

	validUntil := time.Now().Add(interactor.messageTtl).Unix()

	envelope, err := interactor.builder.BuildEnvelope(wallet, messages, seqno, validUntil)
	if err != nil {
		return nil, err
	}

	digest, err := envelope.SigningHash()
	if err != nil {
		return nil, err
	}

	signature, err := signer.Sign(ctx, digest)
	if err != nil {
		return nil, err
	}

	sealed, err := envelope.SealExternal(signature)
	if err != nil {
		return nil, err
	}

	return &domain.SignedTransaction{
		Boc:          sealed,
		Seqno:        seqno,
		ValidUntil:   validUntil,
		ForEmulation: signer.ForEmulation(),
	}, nil
}

// Send broadcasts a previously sealed transaction. Emulation blobs are
// refused outright.
func (interactor *SignInteractor) Send(ctx context.Context, transaction domain.SignedTransaction) error {
	if transaction.ForEmulation {
		return domain.ErrorSigningRejected
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := interactor.broadcaster.SendBoc(ctx, transaction.Boc); err != nil {
		exporter.IncErrorCount()
		log.Printf("🔴 broadcasting transaction [seqno: %v] - %v\n", transaction.Seqno, err.Error())
		return err
	}

	exporter.IncSentTransactions()
	log.Printf("sent transaction [seqno: %v, valid until: %v]\n",
		transaction.Seqno, time.Unix(transaction.ValidUntil, 0).UTC().Format(time.RFC3339))

	interactor.mu.Lock()
	observers := make([]func(domain.SignedTransaction), 0, len(interactor.observers))
	for _, observer := range interactor.observers {
		observers = append(observers, observer)
	}
	interactor.mu.Unlock()

	for _, observer := range observers {
		observer(transaction)
	}
	return nil
}

// SignAndSend is the common path of the confirmation flow.
func (interactor *SignInteractor) SignAndSend(ctx context.Context,
	wallet domain.WalletIdentity,
	signer domain.Signer,
	messages []domain.TransferMessage) (*domain.SignedTransaction, error) {

	transaction, err := interactor.Sign(ctx, wallet, signer, messages)
	if err != nil {
		return nil, err
	}
	if err := interactor.Send(ctx, *transaction); err != nil {
		return nil, err
	}
	return transaction, nil
}
