package pool

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// DepositPool is the external pool holding collateral deposits. The oracle
// and registry read it; they never write it.
type DepositPool interface {
	// NodeDelegatorQueue returns the ordered list of node delegators.
	NodeDelegatorQueue(ctx context.Context) ([]common.Address, error)
	// TotalAssetDeposits returns the amount of asset currently deposited
	// across the pool, in the asset's smallest unit.
	TotalAssetDeposits(ctx context.Context, asset common.Address) (*big.Int, error)
}

// Strategy is a yield destination reporting its own balance view per node.
type Strategy interface {
	UserUnderlyingView(ctx context.Context, node common.Address) (*big.Int, error)
}

// StrategyResolver materialises a Strategy handle from its address.
// Implementations never return nil.
type StrategyResolver interface {
	StrategyAt(addr common.Address) Strategy
}
