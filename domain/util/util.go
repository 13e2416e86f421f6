package util

import (
	"fmt"
	"math/big"

	"github.com/dustin/go-humanize"
)

func NanoToTonString(nano *big.Int) string {
	value, _ := new(big.Float).Quo(new(big.Float).SetInt(nano), big.NewFloat(1e9)).Float64()
	return fmt.Sprintf("%v Ton", humanize.Commaf(value))
}

func NanoString(nano *big.Int) string {
	return fmt.Sprintf("%v Nano", humanize.BigComma(new(big.Int).Set(nano)))
}
