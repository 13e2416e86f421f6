package usecase

import (
	"context"
	"encoding/json"
	"log"
	"math/rand"
	"sync"
	"time"

	"bridge/domain"
	"bridge/interface/exporter"

	"github.com/google/uuid"
)

const (
	BridgeStateIdle         = "idle"
	BridgeStateConnecting   = "connecting"
	BridgeStateStreaming    = "streaming"
	BridgeStateReconnecting = "reconnecting"
)

// EventStream is the relay subscription boundary; implemented by relay.Client.
type EventStream interface {
	Subscribe(ctx context.Context, clientIds []string, lastEventId string, handle func(domain.BridgeEvent)) error
}

// Checkpoint persists the last processed relay event id; implemented by
// MemoInteractor.
type Checkpoint interface {
	GetLastEventId() (string, error)
	SetLastEventId(eventId string) error
}

// Subscription undoes one AddObserver registration.
type Subscription struct {
	cancel func()
}

func (s Subscription) Cancel() {
	if s.cancel != nil {
		s.cancel()
	}
}

// BridgeInteractor owns the long-lived relay subscription: it decodes,
// decrypts and dispatches inbound app requests and carries the reconnect
// policy. There is one instance per process.
type BridgeInteractor struct {
	stream     EventStream
	registry   *RegistryInteractor
	checkpoint Checkpoint

	minDelay time.Duration
	maxDelay time.Duration

	mu        sync.Mutex
	state     string
	cancel    context.CancelFunc
	done      chan struct{}
	wallets   map[string]domain.WalletIdentity
	observers map[uuid.UUID]func(domain.AppRequestEvent)
}

func NewBridgeInteractor(stream EventStream,
	registry *RegistryInteractor,
	checkpoint Checkpoint,
	minDelay time.Duration,
	maxDelay time.Duration) *BridgeInteractor {
	if minDelay <= 0 {
		minDelay = time.Second
	}
	if maxDelay < minDelay {
		maxDelay = minDelay
	}
	interactor := &BridgeInteractor{
		stream:     stream,
		registry:   registry,
		checkpoint: checkpoint,
		minDelay:   minDelay,
		maxDelay:   maxDelay,
		state:      BridgeStateIdle,
		wallets:    make(map[string]domain.WalletIdentity),
		observers:  make(map[uuid.UUID]func(domain.AppRequestEvent)),
	}
	return interactor
}

// SetWallets replaces the wallet set the stream resolves event owners
// against. Takes effect on the next delivered event.
func (interactor *BridgeInteractor) SetWallets(wallets []domain.WalletIdentity) {
	next := make(map[string]domain.WalletIdentity, len(wallets))
	for _, w := range wallets {
		next[w.Address()] = w
	}

	interactor.mu.Lock()
	interactor.wallets = next
	interactor.mu.Unlock()
}

func (interactor *BridgeInteractor) AddObserver(observer func(domain.AppRequestEvent)) Subscription {
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

func (interactor *BridgeInteractor) State() string {
	interactor.mu.Lock()
	defer interactor.mu.Unlock()
	return interactor.state
}

// Start launches the subscription loop. Calling it while already running is
// a no-op.
func (interactor *BridgeInteractor) Start() {
	interactor.mu.Lock()
	if interactor.cancel != nil {
		interactor.mu.Unlock()
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	interactor.cancel = cancel
	interactor.done = make(chan struct{})
	interactor.state = BridgeStateConnecting
	done := interactor.done
	interactor.mu.Unlock()

	go func() {
		defer close(done)
		interactor.run(ctx)
	}()
}

// Stop cancels the in-flight connection and waits for the loop to exit. Safe
// to call from any state, including before Start.
func (interactor *BridgeInteractor) Stop() {
	interactor.mu.Lock()
	cancel := interactor.cancel
	done := interactor.done
	interactor.cancel = nil
	interactor.done = nil
	interactor.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done

	interactor.mu.Lock()
	interactor.state = BridgeStateIdle
	interactor.mu.Unlock()
}

func (interactor *BridgeInteractor) run(ctx context.Context) {
	delay := interactor.minDelay
	changes := interactor.registry.Changes()

	for {
		// A stale change signal is irrelevant once the id set below is
		// read fresh.
		select {
		case <-changes:
		default:
		}

		clientIds := interactor.registry.OurClientIds()
		lastEventId, err := interactor.checkpoint.GetLastEventId()
		if err != nil {
			log.Printf("🔴 reading bridge checkpoint - %v\n", err.Error())
		}

		if len(clientIds) > 0 {
			interactor.setState(BridgeStateStreaming)
			openedAt := time.Now()

			// A registry mutation during a healthy stream must tear the
			// subscription down so the next one carries the new id set.
			subCtx, subCancel := context.WithCancel(ctx)
			refreshed := make(chan struct{})
			go func() {
				select {
				case <-subCtx.Done():
				case <-changes:
					close(refreshed)
					subCancel()
				}
			}()

			err = interactor.stream.Subscribe(subCtx, clientIds, lastEventId, interactor.handleEvent)
			subCancel()
			if ctx.Err() != nil {
				interactor.setState(BridgeStateIdle)
				return
			}

			select {
			case <-refreshed:
				log.Printf("session set changed, resubscribing\n")
				delay = interactor.minDelay
				continue
			default:
			}
			log.Printf("🟡 bridge stream ended - %v\n", err)

			// A connection that survived for a while earns a fresh
			// backoff window.
			if time.Since(openedAt) > time.Minute {
				delay = interactor.minDelay
			}
		}

		interactor.setState(BridgeStateReconnecting)
		exporter.IncReconnectCount()

		jittered := delay/2 + time.Duration(rand.Int63n(int64(delay)/2+1))
		select {
		case <-ctx.Done():
			interactor.setState(BridgeStateIdle)
			return
		case <-changes:
			// A session appeared or disappeared while waiting: connect
			// now with the fresh id set.
			delay = interactor.minDelay
			continue
		case <-time.After(jittered):
		}

		delay *= 2
		if delay > interactor.maxDelay {
			delay = interactor.maxDelay
		}
	}
}

func (interactor *BridgeInteractor) setState(state string) {
	interactor.mu.Lock()
	interactor.state = state
	interactor.mu.Unlock()
}

// handleEvent checkpoints the event id first, then decrypts and dispatches.
// A poison event is therefore never redelivered after a crash; relay-side
// at-least-once delivery still means observers must tolerate duplicate
// request ids.
func (interactor *BridgeInteractor) handleEvent(event domain.BridgeEvent) {
	if event.ServerId != "" {
		if err := interactor.checkpoint.SetLastEventId(event.ServerId); err != nil {
			log.Printf("🔴 persisting bridge checkpoint - %v\n", err.Error())
		}
	}

	app, ok := interactor.registry.FindByPeer(event.From)
	if !ok {
		log.Printf("🟡 bridge event from unknown client id, dropped\n")
		return
	}

	peerKey, err := app.PeerPublicKey()
	if err != nil {
		exporter.IncDecryptFailures()
		log.Printf("🔴 parsing peer key [origin: %v] - %v\n", app.OriginHost(), err.Error())
		return
	}

	plaintext, err := app.SessionKeys.Decrypt(event.Ciphertext, peerKey)
	if err != nil {
		exporter.IncDecryptFailures()
		log.Printf("🔴 decrypting bridge event [origin: %v] - %v\n", app.OriginHost(), err.Error())
		return
	}

	request := domain.AppRequest{}
	if err := json.Unmarshal(plaintext, &request); err != nil {
		exporter.IncDecryptFailures()
		log.Printf("🔴 decoding app request [origin: %v] - %v\n", app.OriginHost(), err.Error())
		return
	}

	interactor.mu.Lock()
	wallet, walletKnown := interactor.wallets[app.WalletAddress]
	observers := make([]func(domain.AppRequestEvent), 0, len(interactor.observers))
	for _, observer := range interactor.observers {
		observers = append(observers, observer)
	}
	interactor.mu.Unlock()

	if !walletKnown {
		log.Printf("🟡 bridge event for unknown wallet %v, dropped\n", app.WalletAddress)
		return
	}

	exporter.IncEventCount()
	for _, observer := range observers {
		observer(domain.AppRequestEvent{Request: request, Wallet: wallet, App: *app})
	}
}
