package domain

import "fmt"

var (
	ErrorKeyGeneration    = fmt.Errorf("failed to generate session key pair")
	ErrorInvalidPeerKey   = fmt.Errorf("peer public key must be 32 bytes of hex")
	ErrorDecryptionFailed = fmt.Errorf("failed to decrypt bridge payload")

	ErrorUnknownApp     = fmt.Errorf("no connected app for the given origin")
	ErrorUnknownSession = fmt.Errorf("no session for the given client id")
	ErrorUnknownFailure = fmt.Errorf("connection handshake failed")

	ErrorWatchOnlyWallet  = fmt.Errorf("watch-only wallet cannot sign")
	ErrorSigningRejected  = fmt.Errorf("signing rejected")
	ErrorSigningCancelled = fmt.Errorf("signing cancelled")

	ErrorEmulationFailed    = fmt.Errorf("fee emulation failed")
	ErrorFeeNotKnown        = fmt.Errorf("fee estimate is not available yet")
	ErrorInsufficientFunds  = fmt.Errorf("balance is not enough to cover amount and fee")
	ErrorAmountExceedsLimit = fmt.Errorf("amount exceeds the allowed maximum")
	ErrorInvalidComment     = fmt.Errorf("comment cannot be encoded")
	ErrorInvalidAmount      = fmt.Errorf("amount must be a positive integer")

	ErrorInvalidPayload   = fmt.Errorf("payload is not a valid cell")
	ErrorNoMessages       = fmt.Errorf("transfer must contain at least one message")
	ErrorTooManyMessages  = fmt.Errorf("transfer contains more messages than the wallet contract allows")
	ErrorUnknownPoolKind  = fmt.Errorf("unknown staking pool implementation")
	ErrorRateNotAvailable = fmt.Errorf("no exchange rate is available")
)
