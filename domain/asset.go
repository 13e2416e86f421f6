package domain

import (
	"math/big"

	"github.com/shopspring/decimal"
	"github.com/tonkeeper/tongo"
)

// Asset identifies what is being transferred: the native coin or a jetton.
// Amounts are always unsigned big integers scaled by FractionDigits.
type Asset struct {
	Symbol         string
	FractionDigits int32
	// Jetton master contract; nil for the native asset.
	JettonMaster *tongo.AccountID
}

var TonAsset = Asset{Symbol: "TON", FractionDigits: 9}

func (a Asset) IsNative() bool {
	return a.JettonMaster == nil
}

// BaseUnits scales a user-entered decimal value into the asset's integer base
// units. Values with more precision than the asset carries, or non-positive
// values, are rejected rather than rounded.
func (a Asset) BaseUnits(value decimal.Decimal) (*big.Int, error) {
	shifted := value.Shift(a.FractionDigits)
	if !shifted.IsInteger() || shifted.Sign() <= 0 {
		return nil, ErrorInvalidAmount
	}
	return shifted.BigInt(), nil
}

// DisplayValue is the inverse of BaseUnits.
func (a Asset) DisplayValue(units *big.Int) decimal.Decimal {
	return decimal.NewFromBigInt(units, 0).Shift(-a.FractionDigits)
}
