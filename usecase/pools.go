package usecase

import (
	"context"
	"log"
	"math/big"
	"sync"
	"sync/atomic"

	"bridge/domain"

	"github.com/tonkeeper/tongo"
	"github.com/tonkeeper/tongo/liteapi"
	"github.com/tonkeeper/tongo/tlb"
)

// Fallbacks used until the first successful on-chain refresh.
var (
	DefaultMinStake      = big.NewInt(1_000_000_000)
	DefaultWithdrawalFee = big.NewInt(200_000_000)
)

// PoolsInteractor keeps the staking pool list fresh: the address/kind/apy
// triple comes from configuration, min stake and withdrawal fee are read from
// the pool contracts. Readers get an immutable snapshot.
type PoolsInteractor struct {
	client *liteapi.Client

	mu       sync.Mutex
	snapshot atomic.Pointer[[]domain.StakingPool]
}

func NewPoolsInteractor(client *liteapi.Client, pools []domain.StakingPool) *PoolsInteractor {
	interactor := &PoolsInteractor{
		client: client,
	}

	seeded := make([]domain.StakingPool, len(pools))
	copy(seeded, pools)
	for i := range seeded {
		if seeded[i].MinStake == nil {
			seeded[i].MinStake = DefaultMinStake
		}
		if seeded[i].WithdrawalFee == nil {
			seeded[i].WithdrawalFee = DefaultWithdrawalFee
		}
	}
	interactor.snapshot.Store(&seeded)
	return interactor
}

// Pools returns the current snapshot. The slice is shared, callers must not
// mutate it.
func (interactor *PoolsInteractor) Pools() []domain.StakingPool {
	return *interactor.snapshot.Load()
}

// Find locates a pool by address.
func (interactor *PoolsInteractor) Find(address tongo.AccountID) (*domain.StakingPool, bool) {
	for _, pool := range interactor.Pools() {
		if pool.Address == address {
			found := pool
			return &found, true
		}
	}
	return nil, false
}

// Refresh re-reads the contract parameters of every pool. A pool whose
// get-method fails keeps its previous values, the rest still update.
func (interactor *PoolsInteractor) Refresh(ctx context.Context) {
	interactor.mu.Lock()
	defer interactor.mu.Unlock()

	current := interactor.Pools()
	next := make([]domain.StakingPool, len(current))
	copy(next, current)

	for i := range next {
		if err := interactor.refreshPool(ctx, &next[i]); err != nil {
			log.Printf("🟡 refreshing pool [address: %v] - %v\n", next[i].Address.ToRaw(), err.Error())
		}
	}

	interactor.snapshot.Store(&next)
}

func (interactor *PoolsInteractor) refreshPool(ctx context.Context, pool *domain.StakingPool) error {
	switch pool.Kind {
	case domain.PoolKindWhales:
		return interactor.refreshWhalesPool(ctx, pool)
	case domain.PoolKindTF:
		// The nominator contract exposes no parameter get-method; the
		// minimum is fixed by its code.
		return nil
	case domain.PoolKindLiquidTF:
		return interactor.refreshLiquidPool(ctx, pool)
	default:
		return domain.ErrorUnknownPoolKind
	}
}

// refreshWhalesPool reads get_params: enabled, updates_enabled, min_stake,
// deposit_fee, withdraw_fee, pool_fee, receipt_price.
func (interactor *PoolsInteractor) refreshWhalesPool(ctx context.Context, pool *domain.StakingPool) error {
	code, stack, err := interactor.client.RunSmcMethod(ctx, pool.Address, "get_params", tlb.VmStack{})
	if err != nil {
		return err
	}
	if code != 0 && code != 1 {
		return domain.ErrorUnknownPoolKind
	}

	if len(stack) < 7 ||
		stack[2].SumType != "VmStkTinyInt" ||
		stack[3].SumType != "VmStkTinyInt" ||
		stack[4].SumType != "VmStkTinyInt" ||
		stack[6].SumType != "VmStkTinyInt" {
		return domain.ErrorUnknownPoolKind
	}

	minStake := big.NewInt(stack[2].VmStkTinyInt)
	depositFee := big.NewInt(stack[3].VmStkTinyInt)
	withdrawFee := big.NewInt(stack[4].VmStkTinyInt)
	receiptPrice := big.NewInt(stack[6].VmStkTinyInt)

	// Depositors must cover the fees on top of the advertised minimum.
	pool.MinStake = new(big.Int).Add(minStake, new(big.Int).Add(depositFee, receiptPrice))
	pool.WithdrawalFee = new(big.Int).Add(withdrawFee, receiptPrice)
	return nil
}

// refreshLiquidPool reads get_pool_full_data; only the first two values are
// needed: min stake and the fixed operation fee.
func (interactor *PoolsInteractor) refreshLiquidPool(ctx context.Context, pool *domain.StakingPool) error {
	code, stack, err := interactor.client.RunSmcMethod(ctx, pool.Address, "get_pool_full_data", tlb.VmStack{})
	if err != nil {
		return err
	}
	if code != 0 && code != 1 {
		return domain.ErrorUnknownPoolKind
	}

	if len(stack) < 2 ||
		stack[0].SumType != "VmStkTinyInt" ||
		stack[1].SumType != "VmStkTinyInt" {
		return domain.ErrorUnknownPoolKind
	}

	pool.MinStake = big.NewInt(stack[0].VmStkTinyInt)
	pool.WithdrawalFee = big.NewInt(stack[1].VmStkTinyInt)
	return nil
}
