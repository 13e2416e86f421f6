package domain

import (
	"crypto/rand"
	"encoding/hex"

	"golang.org/x/crypto/nacl/box"
)

const sessionNonceSize = 24

// SessionKeyPair is the per-connection X25519 key pair. The hex of the public
// half is the client id the relay routes by. Payloads are sealed with NaCl
// box; the random nonce is prefixed to the ciphertext, so decryption depends
// only on the ciphertext, the peer public key and our secret key.
type SessionKeyPair struct {
	Public [32]byte `json:"public"`
	Secret [32]byte `json:"secret"`
}

func GenerateSessionKeyPair() (*SessionKeyPair, error) {
	pub, priv, err := box.GenerateKey(rand.Reader)
	if err != nil {
		return nil, ErrorKeyGeneration
	}
	return &SessionKeyPair{Public: *pub, Secret: *priv}, nil
}

func (kp *SessionKeyPair) ClientId() string {
	return hex.EncodeToString(kp.Public[:])
}

func (kp *SessionKeyPair) Encrypt(plaintext []byte, peerPublic [32]byte) ([]byte, error) {
	var nonce [sessionNonceSize]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return nil, err
	}

	return box.Seal(nonce[:], plaintext, &nonce, &peerPublic, &kp.Secret), nil
}

func (kp *SessionKeyPair) Decrypt(ciphertext []byte, peerPublic [32]byte) ([]byte, error) {
	if len(ciphertext) <= sessionNonceSize {
		return nil, ErrorDecryptionFailed
	}

	var nonce [sessionNonceSize]byte
	copy(nonce[:], ciphertext[:sessionNonceSize])

	plaintext, ok := box.Open(nil, ciphertext[sessionNonceSize:], &nonce, &peerPublic, &kp.Secret)
	if !ok {
		return nil, ErrorDecryptionFailed
	}
	return plaintext, nil
}

// ParseClientId decodes the hex form of a peer public key, as it appears in
// the 'from' field of bridge events and in connect requests.
func ParseClientId(clientId string) ([32]byte, error) {
	var key [32]byte
	raw, err := hex.DecodeString(clientId)
	if err != nil || len(raw) != 32 {
		return key, ErrorInvalidPeerKey
	}
	copy(key[:], raw)
	return key, nil
}
