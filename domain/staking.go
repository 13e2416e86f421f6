package domain

import (
	"math/big"

	"github.com/shopspring/decimal"
	"github.com/tonkeeper/tongo"
)

const (
	PoolKindWhales   = "whales"
	PoolKindTF       = "tf"
	PoolKindLiquidTF = "liquid-tf"
)

// StakingPool is read-only reference data, refreshed from the network and
// never mutated by this core.
type StakingPool struct {
	Address       tongo.AccountID
	Kind          string
	Apy           decimal.Decimal
	MinStake      *big.Int
	WithdrawalFee *big.Int
}

// poolPolicy collects the per-implementation branching that deposit and
// withdraw would otherwise re-derive separately.
type poolPolicy struct {
	// The withdrawal fee is attached to deposits up front so a later
	// withdraw needs no extra top-up.
	addFeeOnDeposit bool
	// A zero withdraw amount means "withdraw everything".
	zeroMeansAll bool
}

var poolPolicies = map[string]poolPolicy{
	PoolKindWhales:   {addFeeOnDeposit: false, zeroMeansAll: true},
	PoolKindTF:       {addFeeOnDeposit: false, zeroMeansAll: false},
	PoolKindLiquidTF: {addFeeOnDeposit: true, zeroMeansAll: false},
}

func KnownPoolKind(kind string) bool {
	_, ok := poolPolicies[kind]
	return ok
}

// DepositAmount returns the on-chain amount for a deposit of the user-entered
// value. When the user picked the maximum balance the fee is not added, the
// funds already on chain must cover it.
func (p StakingPool) DepositAmount(amount *big.Int, isMax bool) (*big.Int, error) {
	policy, ok := poolPolicies[p.Kind]
	if !ok {
		return nil, ErrorUnknownPoolKind
	}

	result := new(big.Int).Set(amount)
	if policy.addFeeOnDeposit && !isMax && p.WithdrawalFee != nil {
		result.Add(result, p.WithdrawalFee)
	}
	return result, nil
}

// WithdrawAmount returns the amount to request back from the pool.
func (p StakingPool) WithdrawAmount(amount *big.Int, isMax bool) (*big.Int, error) {
	policy, ok := poolPolicies[p.Kind]
	if !ok {
		return nil, ErrorUnknownPoolKind
	}

	if policy.zeroMeansAll && isMax {
		return big.NewInt(0), nil
	}
	return new(big.Int).Set(amount), nil
}
