package usecase

import (
	"context"
	"crypto/ed25519"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"bridge/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sentMessage struct {
	From       string
	To         string
	Ciphertext []byte
}

type fakeSender struct {
	messages []sentMessage
	fail     bool
}

func (s *fakeSender) SendMessage(ctx context.Context, from string, to string, ttl time.Duration, ciphertext []byte) error {
	if s.fail {
		return fmt.Errorf("relay unavailable")
	}
	s.messages = append(s.messages, sentMessage{From: from, To: to, Ciphertext: ciphertext})
	return nil
}

func negotiatorFixture(t *testing.T) (*NegotiatorInteractor, *RegistryInteractor, *fakeSender) {
	t.Helper()
	registry := NewRegistryInteractor(newFakeAppStore())
	sender := &fakeSender{}
	device := domain.DeviceInfo{Platform: "linux", AppName: "bridge", MaxProtocolVersion: 2}
	interactor := NewNegotiatorInteractor(registry, sender, device, 5*time.Minute, "mainnet")
	return interactor, registry, sender
}

func openSent(t *testing.T, peer *domain.SessionKeyPair, message sentMessage) []byte {
	t.Helper()
	walletKey, err := domain.ParseClientId(message.From)
	require.NoError(t, err)
	plaintext, err := peer.Decrypt(message.Ciphertext, walletKey)
	require.NoError(t, err)
	return plaintext
}

func TestConnect(t *testing.T) {
	interactor, registry, sender := negotiatorFixture(t)
	wallet, key := signingWallet(t)
	peer, err := domain.GenerateSessionKeyPair()
	require.NoError(t, err)

	manifest := domain.AppManifest{Url: "https://app.example.com/manifest.json", Name: "Test App"}
	app, err := interactor.Connect(context.Background(), wallet, domain.LocalKeySigner{PrivateKey: key},
		ConnectParameters{ClientId: peer.ClientId()}, manifest)
	require.NoError(t, err)

	// the session is persisted and indexed by origin
	found, ok := registry.FindByOrigin(wallet, "app.example.com")
	require.True(t, ok)
	assert.Equal(t, app.ClientId, found.ClientId)

	// the dApp can open the reply with its own keys
	require.Len(t, sender.messages, 1)
	assert.Equal(t, peer.ClientId(), sender.messages[0].To)
	plaintext := openSent(t, peer, sender.messages[0])

	var event domain.WalletEvent
	require.NoError(t, json.Unmarshal(plaintext, &event))
	assert.Equal(t, "connect", event.Event)
}

func TestConnectWithProof(t *testing.T) {
	interactor, _, sender := negotiatorFixture(t)
	wallet, key := signingWallet(t)
	peer, err := domain.GenerateSessionKeyPair()
	require.NoError(t, err)

	manifest := domain.AppManifest{Url: "https://app.example.com/manifest.json", Name: "Test App"}
	_, err = interactor.Connect(context.Background(), wallet, domain.LocalKeySigner{PrivateKey: key},
		ConnectParameters{ClientId: peer.ClientId(), RequestProof: true, ProofPayload: "nonce-123"}, manifest)
	require.NoError(t, err)

	plaintext := openSent(t, peer, sender.messages[0])
	decoded := struct {
		Payload domain.ConnectSuccessPayload `json:"payload"`
	}{}
	require.NoError(t, json.Unmarshal(plaintext, &decoded))
	require.Len(t, decoded.Payload.Items, 2)

	proofItem := decoded.Payload.Items[1]
	require.NotNil(t, proofItem.Proof)
	assert.Equal(t, "nonce-123", proofItem.Proof.Payload)
	assert.Equal(t, "app.example.com", proofItem.Proof.Domain.Value)

	// the signature covers the documented digest layout
	digest := proofDigest(wallet, "app.example.com", proofItem.Proof.Timestamp, "nonce-123")
	signature, err := base64.StdEncoding.DecodeString(proofItem.Proof.Signature)
	require.NoError(t, err)
	assert.True(t, ed25519.Verify(wallet.PublicKey, digest, signature))
}

func TestConnectRelayFailureLeavesNoSession(t *testing.T) {
	interactor, registry, sender := negotiatorFixture(t)
	wallet, key := signingWallet(t)
	peer, err := domain.GenerateSessionKeyPair()
	require.NoError(t, err)
	sender.fail = true

	manifest := domain.AppManifest{Url: "https://app.example.com/manifest.json"}
	_, err = interactor.Connect(context.Background(), wallet, domain.LocalKeySigner{PrivateKey: key},
		ConnectParameters{ClientId: peer.ClientId()}, manifest)
	assert.ErrorIs(t, err, domain.ErrorUnknownFailure)

	_, ok := registry.FindByOrigin(wallet, "app.example.com")
	assert.False(t, ok)
}

func TestConnectRejectsBadClientId(t *testing.T) {
	interactor, _, _ := negotiatorFixture(t)
	wallet, key := signingWallet(t)

	_, err := interactor.Connect(context.Background(), wallet, domain.LocalKeySigner{PrivateKey: key},
		ConnectParameters{ClientId: "zz"}, domain.AppManifest{Url: "https://a.example.com"})
	assert.ErrorIs(t, err, domain.ErrorUnknownSession)
}

func TestReconnectUsesStoredSession(t *testing.T) {
	interactor, registry, sender := negotiatorFixture(t)
	wallet := testWallet(t, 0x01)
	app, peer := testApp(t, wallet, "https://app.example.com/manifest.json")
	require.NoError(t, registry.Add(app))

	require.NoError(t, interactor.Reconnect(context.Background(), wallet, "app.example.com"))

	require.Len(t, sender.messages, 1)
	assert.Equal(t, app.SessionKeys.ClientId(), sender.messages[0].From)

	plaintext := openSent(t, peer, sender.messages[0])
	decoded := struct {
		Event   string                       `json:"event"`
		Payload domain.ConnectSuccessPayload `json:"payload"`
	}{}
	require.NoError(t, json.Unmarshal(plaintext, &decoded))
	assert.Equal(t, "connect", decoded.Event)
	// no proof on reconnect
	require.Len(t, decoded.Payload.Items, 1)
	assert.Equal(t, "ton_addr", decoded.Payload.Items[0].Name)
}

func TestReconnectUnknownOrigin(t *testing.T) {
	interactor, _, _ := negotiatorFixture(t)
	wallet := testWallet(t, 0x01)

	err := interactor.Reconnect(context.Background(), wallet, "nowhere.example.com")
	assert.ErrorIs(t, err, domain.ErrorUnknownApp)
}

func TestDisconnectRemovesSessionDespiteRelayFailure(t *testing.T) {
	interactor, registry, sender := negotiatorFixture(t)
	wallet := testWallet(t, 0x01)
	app, _ := testApp(t, wallet, "https://app.example.com/manifest.json")
	require.NoError(t, registry.Add(app))

	sender.fail = true
	require.NoError(t, interactor.Disconnect(context.Background(), wallet, "app.example.com"))

	_, ok := registry.FindByOrigin(wallet, "app.example.com")
	assert.False(t, ok)
}

func TestSendResponse(t *testing.T) {
	interactor, registry, sender := negotiatorFixture(t)
	wallet := testWallet(t, 0x01)
	app, peer := testApp(t, wallet, "https://app.example.com/manifest.json")
	require.NoError(t, registry.Add(app))

	response := domain.SuccessResponse("17", "te6cc-result")
	require.NoError(t, interactor.SendResponse(context.Background(), app, response))

	plaintext := openSent(t, peer, sender.messages[0])
	var decoded domain.AppResponse
	require.NoError(t, json.Unmarshal(plaintext, &decoded))
	assert.Equal(t, "17", decoded.Id)
	assert.Equal(t, "te6cc-result", decoded.Result)
}
