package domain

import (
	"crypto/ed25519"

	"github.com/tonkeeper/tongo"
)

const (
	WalletKindRegular   = "regular"
	WalletKindWatchOnly = "watch-only"
	WalletKindHardware  = "hardware"
	WalletKindLockup    = "lockup"
)

// WalletIdentity describes one wallet account the bridge acts for. The kind
// decides which signer variants are permitted; watch-only wallets have none.
type WalletIdentity struct {
	AccountId tongo.AccountID
	PublicKey ed25519.PublicKey
	Kind      string
	Testnet   bool
}

func (w WalletIdentity) Address() string {
	return w.AccountId.ToHuman(true, w.Testnet)
}

func (w WalletIdentity) RawAddress() string {
	return w.AccountId.ToRaw()
}

func (w WalletIdentity) CanSign() bool {
	return w.Kind == WalletKindRegular || w.Kind == WalletKindHardware || w.Kind == WalletKindLockup
}
