package domain

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPool(kind string) StakingPool {
	return StakingPool{
		Address:       testAccountId(0x55),
		Kind:          kind,
		MinStake:      big.NewInt(1_000_000_000),
		WithdrawalFee: big.NewInt(200_000_000),
	}
}

func TestDepositAmount(t *testing.T) {
	amount := big.NewInt(5_000_000_000)

	// whales and tf pools charge nothing extra on deposit
	for _, kind := range []string{PoolKindWhales, PoolKindTF} {
		total, err := testPool(kind).DepositAmount(amount, false)
		require.NoError(t, err)
		assert.Equal(t, amount, total, kind)
	}

	// liquid-tf pre-pays the withdrawal fee
	total, err := testPool(PoolKindLiquidTF).DepositAmount(amount, false)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(5_200_000_000), total)

	// but not when the user stakes the whole balance
	total, err = testPool(PoolKindLiquidTF).DepositAmount(amount, true)
	require.NoError(t, err)
	assert.Equal(t, amount, total)

	_, err = testPool("unknown").DepositAmount(amount, false)
	assert.ErrorIs(t, err, ErrorUnknownPoolKind)
}

func TestDepositAmountDoesNotMutateInput(t *testing.T) {
	amount := big.NewInt(5_000_000_000)
	_, err := testPool(PoolKindLiquidTF).DepositAmount(amount, false)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(5_000_000_000), amount)
}

func TestWithdrawAmount(t *testing.T) {
	amount := big.NewInt(3_000_000_000)

	// whales pools treat zero as "everything"
	requested, err := testPool(PoolKindWhales).WithdrawAmount(amount, true)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(0), requested)

	requested, err = testPool(PoolKindWhales).WithdrawAmount(amount, false)
	require.NoError(t, err)
	assert.Equal(t, amount, requested)

	// the others pass the amount through even for a full withdrawal
	for _, kind := range []string{PoolKindTF, PoolKindLiquidTF} {
		requested, err = testPool(kind).WithdrawAmount(amount, true)
		require.NoError(t, err)
		assert.Equal(t, amount, requested, kind)
	}

	_, err = testPool("unknown").WithdrawAmount(amount, false)
	assert.ErrorIs(t, err, ErrorUnknownPoolKind)
}
