package domain

import (
	"context"
	"crypto/ed25519"
	"errors"
	"time"
)

// Signer produces an ed25519 signature over an envelope digest. Variants:
// an in-process key, an external device/approval with caller-supplied
// timeout, and the zero-key emulation signer used only for fee estimation.
type Signer interface {
	Sign(ctx context.Context, digest []byte) ([]byte, error)
	ForEmulation() bool
}

//---------------------------------

type LocalKeySigner struct {
	PrivateKey ed25519.PrivateKey
}

func (s LocalKeySigner) Sign(ctx context.Context, digest []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, ErrorSigningCancelled
	}
	return ed25519.Sign(s.PrivateKey, digest), nil
}

func (s LocalKeySigner) ForEmulation() bool {
	return false
}

//---------------------------------

// ExternalSigner delegates to an out-of-process signing function (hardware
// device, remote approval). Cancellation and timeout both abort the wait and
// report as ErrorSigningCancelled, there is no partial result to keep.
type ExternalSigner struct {
	Timeout  time.Duration
	Delegate func(ctx context.Context, digest []byte) ([]byte, error)
}

func (s ExternalSigner) Sign(ctx context.Context, digest []byte) ([]byte, error) {
	if s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}

	signature, err := s.Delegate(ctx, digest)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, ErrorSigningCancelled
		}
		return nil, err
	}
	return signature, nil
}

func (s ExternalSigner) ForEmulation() bool {
	return false
}

//---------------------------------

// EmulationSigner signs with the well-known all-zero seed. The resulting
// signature is invalid on chain and must never be submitted for real.
type EmulationSigner struct{}

func (s EmulationSigner) Sign(ctx context.Context, digest []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, ErrorSigningCancelled
	}
	key := ed25519.NewKeyFromSeed(make([]byte, ed25519.SeedSize))
	return ed25519.Sign(key, digest), nil
}

func (s EmulationSigner) ForEmulation() bool {
	return true
}
