package oracle

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"lrtcore/internal/feeds"
	"lrtcore/internal/pool"
	"lrtcore/internal/roles"
)

var (
	admin   = common.HexToAddress("0x0000000000000000000000000000000000000c01")
	oradmin = common.HexToAddress("0x0000000000000000000000000000000000000c02")
	rando   = common.HexToAddress("0x0000000000000000000000000000000000000c03")

	assetA = common.HexToAddress("0x00000000000000000000000000000000000000f1")
	assetB = common.HexToAddress("0x00000000000000000000000000000000000000f2")
)

type staticAssets []common.Address

func (s staticAssets) SupportedAssets() []common.Address { return s }

type supplyStub struct {
	value *big.Int
}

func (s *supplyStub) TotalSupply(ctx context.Context) (*big.Int, error) {
	return new(big.Int).Set(s.value), nil
}

type errFeed struct{}

func (errFeed) AssetPrice(ctx context.Context, asset common.Address) (*big.Int, error) {
	return nil, fmt.Errorf("feed offline")
}

func e18(n int64) *big.Int {
	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)
	return new(big.Int).Mul(big.NewInt(n), scale)
}

func newTestOracle(t *testing.T, assets staticAssets, supply *supplyStub) (*Oracle, *pool.MemoryPool) {
	t.Helper()
	auth := roles.NewAuthority(admin)
	if err := auth.Grant(admin, roles.RoleOracleAdmin, oradmin); err != nil {
		t.Fatalf("grant oracle admin: %v", err)
	}
	memPool := pool.NewMemoryPool()
	return New(auth, assets, memPool, supply, nil), memPool
}

func TestBootstrapPrice(t *testing.T) {
	orc, memPool := newTestOracle(t, staticAssets{assetA}, &supplyStub{value: big.NewInt(0)})
	ctx := context.Background()

	// Registry and feed contents are irrelevant while supply is zero; no
	// feed is even bound here.
	memPool.SetAssetDeposits(assetA, e18(1_000_000))

	for i := 0; i < 3; i++ {
		price, err := orc.RefreshPrice(ctx)
		if err != nil {
			t.Fatalf("refresh %d failed: %v", i, err)
		}
		if price.Cmp(UnitPrice()) != 0 {
			t.Fatalf("bootstrap price = %s, want %s", price, UnitPrice())
		}
	}
}

func TestAggregationWorkedExample(t *testing.T) {
	// 100 units deposited at rate 1.05, supply 50: price = 2.1.
	supply := &supplyStub{value: e18(50)}
	orc, memPool := newTestOracle(t, staticAssets{assetA}, supply)
	ctx := context.Background()

	memPool.SetAssetDeposits(assetA, e18(100))
	rate := new(big.Int).Mul(big.NewInt(105), new(big.Int).Exp(big.NewInt(10), big.NewInt(16), nil))
	if err := orc.BindPriceFeed(oradmin, assetA, feeds.NewStaticFeed(rate)); err != nil {
		t.Fatalf("bind feed: %v", err)
	}

	price, err := orc.RefreshPrice(ctx)
	if err != nil {
		t.Fatalf("refresh failed: %v", err)
	}
	want := new(big.Int).Mul(big.NewInt(21), new(big.Int).Exp(big.NewInt(10), big.NewInt(17), nil))
	if price.Cmp(want) != 0 {
		t.Fatalf("price = %s, want %s", price, want)
	}
	if orc.Price().Cmp(want) != 0 {
		t.Fatalf("committed price = %s, want %s", orc.Price(), want)
	}
}

func TestAggregationFloorDivision(t *testing.T) {
	// Scale-agnostic check: (3*7 + 5*11) / 7 = 76/7 floors to 10.
	supply := &supplyStub{value: big.NewInt(7)}
	orc, memPool := newTestOracle(t, staticAssets{assetA, assetB}, supply)
	ctx := context.Background()

	memPool.SetAssetDeposits(assetA, big.NewInt(3))
	memPool.SetAssetDeposits(assetB, big.NewInt(5))
	if err := orc.BindPriceFeed(oradmin, assetA, feeds.NewStaticFeed(big.NewInt(7))); err != nil {
		t.Fatalf("bind feed: %v", err)
	}
	if err := orc.BindPriceFeed(oradmin, assetB, feeds.NewStaticFeed(big.NewInt(11))); err != nil {
		t.Fatalf("bind feed: %v", err)
	}

	price, err := orc.RefreshPrice(ctx)
	if err != nil {
		t.Fatalf("refresh failed: %v", err)
	}
	if price.Cmp(big.NewInt(10)) != 0 {
		t.Fatalf("price = %s, want 10", price)
	}
}

func TestDeviationGuard(t *testing.T) {
	supply := &supplyStub{value: big.NewInt(100)}
	orc, memPool := newTestOracle(t, staticAssets{assetA}, supply)
	ctx := context.Background()

	if err := orc.SetDeviationLimit(oradmin, 10); err != nil {
		t.Fatalf("set deviation limit: %v", err)
	}
	if err := orc.BindPriceFeed(oradmin, assetA, feeds.NewStaticFeed(UnitPrice())); err != nil {
		t.Fatalf("bind feed: %v", err)
	}

	// Previous price is the unit value. A 10% move is the boundary: allowed.
	memPool.SetAssetDeposits(assetA, big.NewInt(110))
	price, err := orc.RefreshPrice(ctx)
	if err != nil {
		t.Fatalf("10%% move should pass: %v", err)
	}
	want := new(big.Int).Quo(new(big.Int).Mul(big.NewInt(110), UnitPrice()), big.NewInt(100))
	if price.Cmp(want) != 0 {
		t.Fatalf("price = %s, want %s", price, want)
	}

	// From 1.1 a jump to 1.3 is ~18%: rejected, price untouched.
	memPool.SetAssetDeposits(assetA, big.NewInt(130))
	if _, err := orc.RefreshPrice(ctx); !errors.Is(err, ErrPriceExceedsDeviationLimit) {
		t.Fatalf("expected ErrPriceExceedsDeviationLimit, got %v", err)
	}
	if orc.Price().Cmp(want) != 0 {
		t.Fatalf("rejected refresh must leave price unchanged, got %s", orc.Price())
	}

	// Disabling the guard lets the same move through.
	if err := orc.SetDeviationLimit(oradmin, 0); err != nil {
		t.Fatalf("set deviation limit: %v", err)
	}
	if _, err := orc.RefreshPrice(ctx); err != nil {
		t.Fatalf("refresh with disabled guard failed: %v", err)
	}
}

func TestRefreshFailsWithoutFeed(t *testing.T) {
	supply := &supplyStub{value: e18(1)}
	orc, memPool := newTestOracle(t, staticAssets{assetA, assetB}, supply)
	ctx := context.Background()

	memPool.SetAssetDeposits(assetA, e18(1))
	memPool.SetAssetDeposits(assetB, e18(1))
	if err := orc.BindPriceFeed(oradmin, assetA, feeds.NewStaticFeed(UnitPrice())); err != nil {
		t.Fatalf("bind feed: %v", err)
	}

	before := orc.Price()
	if _, err := orc.RefreshPrice(ctx); !errors.Is(err, ErrAssetFeedNotBound) {
		t.Fatalf("expected ErrAssetFeedNotBound, got %v", err)
	}
	if orc.Price().Cmp(before) != 0 {
		t.Fatalf("failed refresh must leave price unchanged")
	}
}

func TestRefreshAtomicOnFeedError(t *testing.T) {
	supply := &supplyStub{value: e18(1)}
	orc, memPool := newTestOracle(t, staticAssets{assetA}, supply)
	ctx := context.Background()

	memPool.SetAssetDeposits(assetA, e18(1))
	if err := orc.BindPriceFeed(oradmin, assetA, errFeed{}); err != nil {
		t.Fatalf("bind feed: %v", err)
	}

	before := orc.Price()
	if _, err := orc.RefreshPrice(ctx); err == nil {
		t.Fatalf("expected feed error")
	}
	if orc.Price().Cmp(before) != 0 {
		t.Fatalf("failed refresh must leave price unchanged")
	}
}

func TestZeroSupplyPinsUnitPrice(t *testing.T) {
	supply := &supplyStub{value: big.NewInt(100)}
	orc, memPool := newTestOracle(t, staticAssets{assetA}, supply)
	ctx := context.Background()

	memPool.SetAssetDeposits(assetA, big.NewInt(300))
	if err := orc.BindPriceFeed(oradmin, assetA, feeds.NewStaticFeed(UnitPrice())); err != nil {
		t.Fatalf("bind feed: %v", err)
	}
	if _, err := orc.RefreshPrice(ctx); err != nil {
		t.Fatalf("refresh failed: %v", err)
	}
	if orc.Price().Cmp(UnitPrice()) == 0 {
		t.Fatalf("steady price should have moved off the unit value")
	}

	// Supply driven back to zero: the next refresh re-checks supply live
	// and pins the unit price again.
	supply.value = big.NewInt(0)
	price, err := orc.RefreshPrice(ctx)
	if err != nil {
		t.Fatalf("refresh failed: %v", err)
	}
	if price.Cmp(UnitPrice()) != 0 {
		t.Fatalf("price = %s, want unit", price)
	}
}

func TestAssetPricePassthrough(t *testing.T) {
	orc, _ := newTestOracle(t, staticAssets{assetA}, &supplyStub{value: big.NewInt(0)})
	ctx := context.Background()

	if _, err := orc.AssetPrice(ctx, assetA); !errors.Is(err, ErrAssetFeedNotBound) {
		t.Fatalf("expected ErrAssetFeedNotBound, got %v", err)
	}

	rate := e18(2)
	if err := orc.BindPriceFeed(oradmin, assetA, feeds.NewStaticFeed(rate)); err != nil {
		t.Fatalf("bind feed: %v", err)
	}
	got, err := orc.AssetPrice(ctx, assetA)
	if err != nil {
		t.Fatalf("asset price: %v", err)
	}
	if got.Cmp(rate) != 0 {
		t.Fatalf("rate = %s, want %s", got, rate)
	}
}

func TestOracleAdminGates(t *testing.T) {
	orc, _ := newTestOracle(t, staticAssets{}, &supplyStub{value: big.NewInt(0)})

	if err := orc.BindPriceFeed(rando, assetA, feeds.NewStaticFeed(UnitPrice())); !errors.Is(err, roles.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if err := orc.SetDeviationLimit(rando, 5); !errors.Is(err, roles.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if err := orc.BindPriceFeed(oradmin, assetA, nil); !errors.Is(err, ErrInvalidFeed) {
		t.Fatalf("expected ErrInvalidFeed, got %v", err)
	}
}
