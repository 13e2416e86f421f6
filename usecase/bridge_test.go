package usecase

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"bridge/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCheckpoint struct {
	mu          sync.Mutex
	lastEventId string
}

func (c *fakeCheckpoint) GetLastEventId() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastEventId, nil
}

func (c *fakeCheckpoint) SetLastEventId(eventId string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastEventId = eventId
	return nil
}

// fakeStream blocks until the context is cancelled, so Start/Stop tests see a
// stable "streaming" phase. Every Subscribe call records the id set it was
// given.
type fakeStream struct {
	mu    sync.Mutex
	calls [][]string
}

func (s *fakeStream) Subscribe(ctx context.Context, clientIds []string, lastEventId string, handle func(domain.BridgeEvent)) error {
	s.mu.Lock()
	s.calls = append(s.calls, append([]string{}, clientIds...))
	s.mu.Unlock()

	<-ctx.Done()
	return ctx.Err()
}

func (s *fakeStream) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

func (s *fakeStream) call(i int) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[i]
}

func bridgeWithApp(t *testing.T) (*BridgeInteractor, domain.WalletIdentity, domain.ConnectedApp, *domain.SessionKeyPair, *fakeCheckpoint) {
	t.Helper()

	registry := NewRegistryInteractor(newFakeAppStore())
	wallet := testWallet(t, 0x01)
	app, peer := testApp(t, wallet, "https://app.example.com/manifest.json")
	require.NoError(t, registry.Add(app))

	checkpoint := &fakeCheckpoint{}
	interactor := NewBridgeInteractor(&fakeStream{}, registry, checkpoint, time.Millisecond, 10*time.Millisecond)
	interactor.SetWallets([]domain.WalletIdentity{wallet})
	return interactor, wallet, app, peer, checkpoint
}

func sealedEvent(t *testing.T, app domain.ConnectedApp, peer *domain.SessionKeyPair, serverId string, request domain.AppRequest) domain.BridgeEvent {
	t.Helper()

	plaintext, err := json.Marshal(request)
	require.NoError(t, err)
	ciphertext, err := peer.Encrypt(plaintext, app.SessionKeys.Public)
	require.NoError(t, err)

	return domain.BridgeEvent{
		From:       peer.ClientId(),
		ServerId:   serverId,
		Ciphertext: ciphertext,
	}
}

func TestBridgeStartStop(t *testing.T) {
	interactor, _, _, _, _ := bridgeWithApp(t)

	assert.Equal(t, BridgeStateIdle, interactor.State())

	interactor.Start()
	interactor.Start() // second start is a no-op

	interactor.Stop()
	assert.Equal(t, BridgeStateIdle, interactor.State())

	// stop without a running loop is safe too
	interactor.Stop()
}

func TestBridgeDispatchesDecryptedRequest(t *testing.T) {
	interactor, wallet, app, peer, checkpoint := bridgeWithApp(t)

	received := make([]domain.AppRequestEvent, 0, 1)
	subscription := interactor.AddObserver(func(event domain.AppRequestEvent) {
		received = append(received, event)
	})
	defer subscription.Cancel()

	request := domain.AppRequest{Id: "9", Method: domain.AppMethodSendTransaction}
	interactor.handleEvent(sealedEvent(t, app, peer, "41", request))

	require.Len(t, received, 1)
	assert.Equal(t, request, received[0].Request)
	assert.Equal(t, wallet.Address(), received[0].Wallet.Address())
	assert.Equal(t, app.ClientId, received[0].App.ClientId)

	lastEventId, err := checkpoint.GetLastEventId()
	require.NoError(t, err)
	assert.Equal(t, "41", lastEventId)
}

func TestBridgeCheckpointsBeforeDecryption(t *testing.T) {
	interactor, _, app, peer, checkpoint := bridgeWithApp(t)

	var called bool
	subscription := interactor.AddObserver(func(domain.AppRequestEvent) { called = true })
	defer subscription.Cancel()

	// garbage ciphertext from a known peer: dropped, but still checkpointed
	event := sealedEvent(t, app, peer, "42", domain.AppRequest{Id: "1"})
	event.Ciphertext = []byte("not a sealed box, definitely")
	interactor.handleEvent(event)

	assert.False(t, called)
	lastEventId, err := checkpoint.GetLastEventId()
	require.NoError(t, err)
	assert.Equal(t, "42", lastEventId)
}

func TestBridgeDropsUnknownPeer(t *testing.T) {
	interactor, _, _, _, _ := bridgeWithApp(t)

	var called bool
	subscription := interactor.AddObserver(func(domain.AppRequestEvent) { called = true })
	defer subscription.Cancel()

	stranger, err := domain.GenerateSessionKeyPair()
	require.NoError(t, err)
	interactor.handleEvent(domain.BridgeEvent{
		From:       stranger.ClientId(),
		ServerId:   "43",
		Ciphertext: []byte("whatever"),
	})

	assert.False(t, called)
}

func TestBridgeResubscribesWhenSessionAdded(t *testing.T) {
	registry := NewRegistryInteractor(newFakeAppStore())
	wallet := testWallet(t, 0x01)
	first, _ := testApp(t, wallet, "https://first.example.com/manifest.json")
	require.NoError(t, registry.Add(first))

	stream := &fakeStream{}
	interactor := NewBridgeInteractor(stream, registry, &fakeCheckpoint{}, time.Millisecond, 10*time.Millisecond)
	interactor.SetWallets([]domain.WalletIdentity{wallet})

	interactor.Start()
	defer interactor.Stop()

	require.Eventually(t, func() bool { return stream.callCount() == 1 }, time.Second, time.Millisecond)
	assert.Equal(t, []string{first.SessionKeys.ClientId()}, stream.call(0))

	// a connect completing mid-stream tears the subscription down and the
	// replacement carries both client ids
	second, _ := testApp(t, wallet, "https://second.example.com/manifest.json")
	require.NoError(t, registry.Add(second))

	require.Eventually(t, func() bool { return stream.callCount() >= 2 }, time.Second, time.Millisecond)
	assert.ElementsMatch(t,
		[]string{first.SessionKeys.ClientId(), second.SessionKeys.ClientId()},
		stream.call(1))
}

func TestBridgeWakesFromEmptySetWhenSessionAdded(t *testing.T) {
	registry := NewRegistryInteractor(newFakeAppStore())
	wallet := testWallet(t, 0x01)

	stream := &fakeStream{}
	// long max delay: only the change signal can wake the loop in time
	interactor := NewBridgeInteractor(stream, registry, &fakeCheckpoint{}, time.Minute, time.Minute)
	interactor.SetWallets([]domain.WalletIdentity{wallet})

	interactor.Start()
	defer interactor.Stop()

	app, _ := testApp(t, wallet, "https://app.example.com/manifest.json")
	require.NoError(t, registry.Add(app))

	require.Eventually(t, func() bool { return stream.callCount() >= 1 }, time.Second, time.Millisecond)
	assert.Equal(t, []string{app.SessionKeys.ClientId()}, stream.call(0))
}

func TestBridgeToleratesDuplicateServerEventId(t *testing.T) {
	interactor, _, app, peer, checkpoint := bridgeWithApp(t)

	var seen []string
	subscription := interactor.AddObserver(func(event domain.AppRequestEvent) {
		seen = append(seen, event.Request.Id)
	})
	defer subscription.Cancel()

	event := sealedEvent(t, app, peer, "77", domain.AppRequest{Id: "dup"})
	interactor.handleEvent(event)
	interactor.handleEvent(event)

	// the relay is at-least-once: the request surfaces twice with the
	// same id, deduplication is the consumer's job
	assert.Equal(t, []string{"dup", "dup"}, seen)
	lastEventId, err := checkpoint.GetLastEventId()
	require.NoError(t, err)
	assert.Equal(t, "77", lastEventId)
}

func TestBridgeObserverCancel(t *testing.T) {
	interactor, _, app, peer, _ := bridgeWithApp(t)

	var calls int
	subscription := interactor.AddObserver(func(domain.AppRequestEvent) { calls++ })

	interactor.handleEvent(sealedEvent(t, app, peer, "1", domain.AppRequest{Id: "1"}))
	subscription.Cancel()
	interactor.handleEvent(sealedEvent(t, app, peer, "2", domain.AppRequest{Id: "2"}))

	assert.Equal(t, 1, calls)
}
