package refresher

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"go.uber.org/zap"

	"lrtcore/internal/oracle"
	"lrtcore/internal/storage/postgres"
)

// RunConfig holds runtime settings for the refresh loop.
type RunConfig struct {
	// Interval between refreshes. Zero runs a single refresh and exits.
	Interval     time.Duration
	MaxRetries   int
	RetryBackoff time.Duration
	StateName    string
}

// Runner drives periodic oracle price refreshes, persisting committed
// prices when a store is configured.
type Runner struct {
	cfg    RunConfig
	oracle *oracle.Oracle
	supply oracle.SupplySource
	store  *postgres.Store
	logger *zap.Logger
}

// NewRunner builds a Runner with its dependencies. The store may be nil.
func NewRunner(cfg RunConfig, orc *oracle.Oracle, supply oracle.SupplySource, store *postgres.Store, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.StateName == "" {
		cfg.StateName = "refresher"
	}
	return &Runner{cfg: cfg, oracle: orc, supply: supply, store: store, logger: logger}
}

// Run executes the refresh loop until the context is cancelled. With a zero
// interval it performs exactly one refresh.
func (r *Runner) Run(ctx context.Context) error {
	if r.oracle == nil {
		return fmt.Errorf("oracle is nil")
	}

	if err := r.refreshOnce(ctx); err != nil {
		return err
	}
	if r.cfg.Interval == 0 {
		return nil
	}

	ticker := time.NewTicker(r.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := r.refreshOnce(ctx); err != nil {
				return err
			}
		}
	}
}

func (r *Runner) refreshOnce(ctx context.Context) error {
	start := time.Now().UTC()

	committed, err := r.refreshWithRetry(ctx)
	if err != nil {
		if errors.Is(err, oracle.ErrPriceExceedsDeviationLimit) {
			// Retrying would recompute the same rejected price; keep the
			// previous price and wait for the next tick.
			r.logger.Warn("price refresh rejected", zap.Error(err))
			return nil
		}
		return fmt.Errorf("refresh price: %w", err)
	}

	r.logger.Info("price refreshed",
		zap.String("price", committed.String()),
		zap.Duration("took", time.Since(start)),
	)

	if r.store == nil {
		return nil
	}

	snap := postgres.PriceSnapshot{
		Price:       committed.String(),
		RefreshedAt: start,
	}
	if r.supply != nil {
		if supply, err := r.supply.TotalSupply(ctx); err == nil {
			snap.Supply = supply.String()
		}
	}
	if err := r.store.InsertPriceSnapshot(ctx, snap); err != nil {
		return fmt.Errorf("persist snapshot: %w", err)
	}
	if err := r.store.SaveState(ctx, r.cfg.StateName, uint64(start.Unix())); err != nil {
		return fmt.Errorf("save state: %w", err)
	}
	return nil
}

func (r *Runner) refreshWithRetry(ctx context.Context) (*big.Int, error) {
	var price *big.Int
	err := withRetry(ctx, r.cfg.MaxRetries, r.cfg.RetryBackoff, func(ctx context.Context) error {
		var err error
		price, err = r.oracle.RefreshPrice(ctx)
		if err != nil {
			if errors.Is(err, oracle.ErrPriceExceedsDeviationLimit) {
				return permanent(err)
			}
			r.logger.Warn("refresh attempt failed", zap.Error(err))
		}
		return err
	})
	return price, err
}
