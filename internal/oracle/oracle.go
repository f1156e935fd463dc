package oracle

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"lrtcore/internal/events"
	"lrtcore/internal/feeds"
	"lrtcore/internal/pool"
	"lrtcore/internal/roles"
)

type roleChecker interface {
	Check(role roles.Role, account common.Address) error
}

// AssetList supplies the ordered supported-asset snapshot walked on every
// refresh.
type AssetList interface {
	SupportedAssets() []common.Address
}

// SupplySource reports the receipt token's live total supply.
type SupplySource interface {
	TotalSupply(ctx context.Context) (*big.Int, error)
}

// unitPrice is 1.0 in 18-decimal fixed point, the bootstrap price while
// receipt-token supply is zero.
var unitPrice = new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)

// UnitPrice returns 1.0 in the oracle's fixed-point representation.
func UnitPrice() *big.Int {
	return new(big.Int).Set(unitPrice)
}

// Oracle computes the receipt-token price from pooled collateral value. All
// external reads happen fresh on every refresh; nothing is cached between
// calls.
type Oracle struct {
	mu      sync.RWMutex
	auth    roleChecker
	assets  AssetList
	pool    pool.DepositPool
	supply  SupplySource
	emitter events.Emitter

	feeds          map[common.Address]feeds.PriceFeed
	price          *big.Int
	deviationLimit uint64
}

func New(auth roleChecker, assets AssetList, depositPool pool.DepositPool, supply SupplySource, emitter events.Emitter) *Oracle {
	if emitter == nil {
		emitter = events.NoopEmitter{}
	}
	return &Oracle{
		auth:    auth,
		assets:  assets,
		pool:    depositPool,
		supply:  supply,
		emitter: emitter,
		feeds:   make(map[common.Address]feeds.PriceFeed),
		price:   UnitPrice(),
	}
}

// BindPriceFeed binds a feed adapter to an asset. Last writer wins; no
// history is retained and no staleness check is performed.
func (o *Oracle) BindPriceFeed(caller, asset common.Address, feed feeds.PriceFeed) error {
	if err := o.auth.Check(roles.RoleOracleAdmin, caller); err != nil {
		return err
	}
	if feed == nil {
		return ErrInvalidFeed
	}

	o.mu.Lock()
	previous := o.feeds[asset]
	o.feeds[asset] = feed
	o.mu.Unlock()

	o.emitter.Emit(events.New("price_feed_bound", map[string]string{
		"asset":    asset.Hex(),
		"replaced": fmt.Sprintf("%t", previous != nil),
	}))
	return nil
}

// SetDeviationLimit stores the percentage threshold verbatim. Zero disables
// the guard.
func (o *Oracle) SetDeviationLimit(caller common.Address, pct uint64) error {
	if err := o.auth.Check(roles.RoleOracleAdmin, caller); err != nil {
		return err
	}
	o.mu.Lock()
	o.deviationLimit = pct
	o.mu.Unlock()
	return nil
}

// DeviationLimit returns the configured threshold.
func (o *Oracle) DeviationLimit() uint64 {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.deviationLimit
}

// AssetPrice returns the asset's live exchange rate through its bound feed.
func (o *Oracle) AssetPrice(ctx context.Context, asset common.Address) (*big.Int, error) {
	o.mu.RLock()
	feed, ok := o.feeds[asset]
	o.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrAssetFeedNotBound, asset.Hex())
	}
	return feed.AssetPrice(ctx, asset)
}

// Price returns the last committed receipt-token price.
func (o *Oracle) Price() *big.Int {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return new(big.Int).Set(o.price)
}

// RefreshPrice recomputes the receipt-token price: sum of per-asset
// deposited amount times exchange rate over the supported list in order,
// floor-divided by total supply. With zero supply the price is pinned to the
// unit value. A committed price moving beyond the deviation limit relative
// to the previous price fails the whole call with no state change. Callable
// by anyone.
func (o *Oracle) RefreshPrice(ctx context.Context) (*big.Int, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	supply, err := o.supply.TotalSupply(ctx)
	if err != nil {
		return nil, fmt.Errorf("total supply: %w", err)
	}

	if supply.Sign() == 0 {
		o.price = UnitPrice()
		o.emitter.Emit(events.New("price_updated", map[string]string{
			"price":  o.price.String(),
			"supply": "0",
		}))
		return new(big.Int).Set(o.price), nil
	}

	totalValue := new(big.Int)
	for _, asset := range o.assets.SupportedAssets() {
		feed, ok := o.feeds[asset]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrAssetFeedNotBound, asset.Hex())
		}
		rate, err := feed.AssetPrice(ctx, asset)
		if err != nil {
			return nil, fmt.Errorf("asset price %s: %w", asset.Hex(), err)
		}
		deposits, err := o.pool.TotalAssetDeposits(ctx, asset)
		if err != nil {
			return nil, fmt.Errorf("asset deposits %s: %w", asset.Hex(), err)
		}
		totalValue.Add(totalValue, new(big.Int).Mul(deposits, rate))
	}

	newPrice := new(big.Int).Quo(totalValue, supply)

	if err := o.checkDeviationLocked(newPrice); err != nil {
		return nil, err
	}

	previous := o.price
	o.price = newPrice

	o.emitter.Emit(events.New("price_updated", map[string]string{
		"price":          newPrice.String(),
		"previous_price": previous.String(),
		"supply":         supply.String(),
	}))
	return new(big.Int).Set(newPrice), nil
}

// checkDeviationLocked applies the relative-change guard against the
// previous committed price: |new - old| * 100 / old, floor division, must
// not exceed the limit.
func (o *Oracle) checkDeviationLocked(newPrice *big.Int) error {
	if o.deviationLimit == 0 || o.price.Sign() == 0 {
		return nil
	}

	diff := new(big.Int).Sub(newPrice, o.price)
	diff.Abs(diff)
	pct := diff.Mul(diff, big.NewInt(100))
	pct.Quo(pct, o.price)

	if pct.Cmp(new(big.Int).SetUint64(o.deviationLimit)) > 0 {
		return fmt.Errorf("%w: change %s%% over limit %d%%", ErrPriceExceedsDeviationLimit, pct.String(), o.deviationLimit)
	}
	return nil
}
