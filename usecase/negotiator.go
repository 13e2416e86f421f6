package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"bridge/domain"
)

const (
	tonProofPrefix   = "ton-proof-item-v2/"
	tonConnectPrefix = "ton-connect"

	connectItemAddress = "ton_addr"
	connectItemProof   = "ton_proof"
)

// MessageSender is the outbound half of the relay boundary; implemented by
// relay.Client.
type MessageSender interface {
	SendMessage(ctx context.Context, from string, to string, ttl time.Duration, ciphertext []byte) error
}

// ConnectParameters is what a dApp supplies when initiating a connection.
type ConnectParameters struct {
	ClientId     string
	ProofPayload string
	RequestProof bool
}

// NegotiatorInteractor performs the connect, reconnect and disconnect
// handshakes and persists the resulting sessions.
type NegotiatorInteractor struct {
	registry   *RegistryInteractor
	sender     MessageSender
	device     domain.DeviceInfo
	messageTtl time.Duration
	network    string
}

func NewNegotiatorInteractor(registry *RegistryInteractor,
	sender MessageSender,
	device domain.DeviceInfo,
	messageTtl time.Duration,
	network string) *NegotiatorInteractor {
	interactor := &NegotiatorInteractor{
		registry:   registry,
		sender:     sender,
		device:     device,
		messageTtl: messageTtl,
		network:    network,
	}
	return interactor
}

// Connect builds the success payload binding the wallet to the requesting
// manifest, seals it for the requester and sends it. The session is persisted
// only after the relay acknowledged, so a failed handshake leaves nothing
// behind.
func (interactor *NegotiatorInteractor) Connect(ctx context.Context,
	wallet domain.WalletIdentity,
	signer domain.Signer,
	params ConnectParameters,
	manifest domain.AppManifest) (*domain.ConnectedApp, error) {

	peerKey, err := domain.ParseClientId(params.ClientId)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrorUnknownSession, err)
	}

	keys, err := domain.GenerateSessionKeyPair()
	if err != nil {
		return nil, err
	}

	items := []domain.ConnectItemReply{interactor.addressItem(wallet)}
	if params.RequestProof {
		proof, err := interactor.buildProof(ctx, wallet, signer, manifest, params.ProofPayload)
		if err != nil {
			return nil, err
		}
		items = append(items, domain.ConnectItemReply{Name: connectItemProof, Proof: proof})
	}

	event := domain.WalletEvent{
		Event: "connect",
		Id:    time.Now().UnixMilli(),
		Payload: domain.ConnectSuccessPayload{
			Items:  items,
			Device: interactor.device,
		},
	}

	if err := interactor.seal(ctx, keys, peerKey, params.ClientId, event); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrorUnknownFailure, err)
	}

	app := domain.ConnectedApp{
		WalletAddress: wallet.Address(),
		Manifest:      manifest,
		ClientId:      params.ClientId,
		SessionKeys:   *keys,
		CreateTime:    time.Now(),
	}
	if err := interactor.registry.Add(app); err != nil {
		return nil, err
	}

	log.Printf("connected app [origin: %v, wallet: %v]\n", app.OriginHost(), wallet.Address())
	return &app, nil
}

// Reconnect answers a dApp that already holds a session: the stored keys are
// reused and no proof is produced.
func (interactor *NegotiatorInteractor) Reconnect(ctx context.Context,
	wallet domain.WalletIdentity, originHost string) error {

	app, ok := interactor.registry.FindByOrigin(wallet, originHost)
	if !ok {
		return domain.ErrorUnknownApp
	}

	peerKey, err := app.PeerPublicKey()
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrorUnknownSession, err)
	}

	event := domain.WalletEvent{
		Event: "connect",
		Id:    time.Now().UnixMilli(),
		Payload: domain.ConnectSuccessPayload{
			Items:  []domain.ConnectItemReply{interactor.addressItem(wallet)},
			Device: interactor.device,
		},
	}

	if err := interactor.seal(ctx, &app.SessionKeys, peerKey, app.ClientId, event); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrorUnknownFailure, err)
	}
	return nil
}

// Disconnect notifies the dApp best-effort and removes the session locally
// regardless of the relay's answer.
func (interactor *NegotiatorInteractor) Disconnect(ctx context.Context,
	wallet domain.WalletIdentity, originHost string) error {

	app, ok := interactor.registry.FindByOrigin(wallet, originHost)
	if !ok {
		return domain.ErrorUnknownApp
	}

	peerKey, err := app.PeerPublicKey()
	if err == nil {
		event := domain.WalletEvent{
			Event:   "disconnect",
			Id:      time.Now().UnixMilli(),
			Payload: struct{}{},
		}
		if err := interactor.seal(ctx, &app.SessionKeys, peerKey, app.ClientId, event); err != nil {
			log.Printf("🟡 disconnect notice not delivered [origin: %v] - %v\n", originHost, err.Error())
		}
	}

	return interactor.registry.Remove(wallet, originHost)
}

// SendResponse seals an app response for an established session, used to
// answer sendTransaction requests from the confirmation flow.
func (interactor *NegotiatorInteractor) SendResponse(ctx context.Context,
	app domain.ConnectedApp, response domain.AppResponse) error {

	peerKey, err := app.PeerPublicKey()
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrorUnknownSession, err)
	}
	return interactor.seal(ctx, &app.SessionKeys, peerKey, app.ClientId, response)
}

func (interactor *NegotiatorInteractor) seal(ctx context.Context,
	keys *domain.SessionKeyPair, peerKey [32]byte, peerClientId string, payload interface{}) error {

	plaintext, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	ciphertext, err := keys.Encrypt(plaintext, peerKey)
	if err != nil {
		return err
	}

	return interactor.sender.SendMessage(ctx, keys.ClientId(), peerClientId, interactor.messageTtl, ciphertext)
}

func (interactor *NegotiatorInteractor) addressItem(wallet domain.WalletIdentity) domain.ConnectItemReply {
	return domain.ConnectItemReply{
		Name:      connectItemAddress,
		Address:   wallet.RawAddress(),
		Network:   interactor.network,
		PublicKey: hex.EncodeToString(wallet.PublicKey),
	}
}

// buildProof signs the ton-proof message binding the wallet address to the
// requesting app's domain and payload.
func (interactor *NegotiatorInteractor) buildProof(ctx context.Context,
	wallet domain.WalletIdentity,
	signer domain.Signer,
	manifest domain.AppManifest,
	payload string) (*domain.TonProof, error) {

	host := manifest.OriginHost()
	timestamp := uint64(time.Now().Unix())

	digest := proofDigest(wallet, host, timestamp, payload)
	signature, err := signer.Sign(ctx, digest)
	if err != nil {
		return nil, err
	}

	return &domain.TonProof{
		Timestamp: timestamp,
		Domain: domain.TonProofDomain{
			LengthBytes: uint32(len(host)),
			Value:       host,
		},
		Signature: base64.StdEncoding.EncodeToString(signature),
		Payload:   payload,
	}, nil
}

func proofDigest(wallet domain.WalletIdentity, host string, timestamp uint64, payload string) []byte {
	wc := make([]byte, 4)
	binary.BigEndian.PutUint32(wc, uint32(wallet.AccountId.Workchain))

	ts := make([]byte, 8)
	binary.LittleEndian.PutUint64(ts, timestamp)

	dl := make([]byte, 4)
	binary.LittleEndian.PutUint32(dl, uint32(len(host)))

	m := []byte(tonProofPrefix)
	m = append(m, wc...)
	m = append(m, wallet.AccountId.Address[:]...)
	m = append(m, dl...)
	m = append(m, []byte(host)...)
	m = append(m, ts...)
	m = append(m, []byte(payload)...)
	messageHash := sha256.Sum256(m)

	full := []byte{0xff, 0xff}
	full = append(full, []byte(tonConnectPrefix)...)
	full = append(full, messageHash[:]...)
	digest := sha256.Sum256(full)
	return digest[:]
}
