package feeds

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// PriceFeed returns an asset's current exchange rate against the base unit,
// in 18-decimal fixed point. One feed serves one asset; the oracle keeps the
// binding.
type PriceFeed interface {
	AssetPrice(ctx context.Context, asset common.Address) (*big.Int, error)
}

// StaticFeed reports a fixed rate for every asset. Useful for assets pegged
// to the base unit and for tests.
type StaticFeed struct {
	Rate *big.Int
}

func NewStaticFeed(rate *big.Int) *StaticFeed {
	return &StaticFeed{Rate: new(big.Int).Set(rate)}
}

func (f *StaticFeed) AssetPrice(ctx context.Context, asset common.Address) (*big.Int, error) {
	return new(big.Int).Set(f.Rate), nil
}
