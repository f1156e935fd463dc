package main

import (
	"context"
	"fmt"
	"math/big"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"lrtcore/internal/chain"
	"lrtcore/internal/config"
	"lrtcore/internal/events"
	"lrtcore/internal/feeds"
	"lrtcore/internal/oracle"
	"lrtcore/internal/pool"
	"lrtcore/internal/refresher"
	"lrtcore/internal/registry"
	"lrtcore/internal/roles"
	"lrtcore/internal/storage/postgres"
	"lrtcore/internal/token"
)

func runRefresh(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.RPCURL == "" {
		return fmt.Errorf("rpc url is required")
	}
	operator, err := parseAddress(cfg.Operator, "operator")
	if err != nil {
		return err
	}
	poolAddr, err := parseAddress(cfg.DepositPool, "deposit-pool")
	if err != nil {
		return err
	}
	tokenAddr, err := parseAddress(cfg.ReceiptToken, "receipt-token")
	if err != nil {
		return err
	}
	bindings, err := parseBindings(cfg.Assets)
	if err != nil {
		return err
	}
	if len(bindings) == 0 {
		return fmt.Errorf("at least one asset=feed pair is required")
	}
	ceiling, ok := new(big.Int).SetString(cfg.DepositCeiling, 10)
	if !ok || ceiling.Sign() < 0 {
		return fmt.Errorf("invalid deposit ceiling: %s", cfg.DepositCeiling)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	chainClient, err := chain.NewClient(ctx, cfg.RPCURL)
	if err != nil {
		return fmt.Errorf("connect rpc: %w", err)
	}
	defer chainClient.Close()

	var emitter events.Emitter = events.ZapEmitter{Logger: logger}
	if cfg.AuditLog != "" {
		emitter = events.Multi(emitter, events.NewJSONLSink(cfg.AuditLog))
	}

	auth := roles.NewAuthority(operator)
	for _, role := range []roles.Role{roles.RoleManager, roles.RoleOracleAdmin} {
		if err := auth.Grant(operator, role, operator); err != nil {
			return fmt.Errorf("grant %s: %w", role, err)
		}
	}

	depositPool := pool.NewOnchainPool(chainClient, poolAddr)
	resolver := pool.NewOnchainResolver(chainClient)
	reg := registry.New(auth, depositPool, resolver, emitter)
	supply := token.NewOnchainSupply(chainClient, tokenAddr)
	orc := oracle.New(auth, reg, depositPool, supply, emitter)

	if err := orc.SetDeviationLimit(operator, cfg.DeviationLimit); err != nil {
		return err
	}
	for _, binding := range bindings {
		if err := reg.AddSupportedAsset(operator, binding.asset, ceiling); err != nil {
			return fmt.Errorf("add asset %s: %w", binding.asset.Hex(), err)
		}
		feed := feeds.NewOnchainFeed(chainClient, binding.feed)
		if err := orc.BindPriceFeed(operator, binding.asset, feed); err != nil {
			return fmt.Errorf("bind feed for %s: %w", binding.asset.Hex(), err)
		}
	}

	var store *postgres.Store
	if cfg.PGDSN != "" {
		store, err = postgres.NewStore(ctx, cfg.PGDSN)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer store.Close()

		rows := make([]postgres.AssetRow, 0, len(bindings))
		for i, binding := range bindings {
			rows = append(rows, postgres.AssetRow{
				Asset:          binding.asset.Hex(),
				DepositCeiling: ceiling.String(),
				Position:       i,
			})
		}
		if err := store.UpsertSupportedAssets(ctx, rows); err != nil {
			return fmt.Errorf("persist assets: %w", err)
		}
	}

	logger.Info("refresh start",
		zap.String("rpc", cfg.RPCURL),
		zap.String("deposit_pool", poolAddr.Hex()),
		zap.String("receipt_token", tokenAddr.Hex()),
		zap.Int("assets", len(bindings)),
		zap.Uint64("deviation_limit", cfg.DeviationLimit),
		zap.Duration("interval", cfg.Interval),
		zap.String("pg_dsn", redactDSN(cfg.PGDSN)),
	)

	runner := refresher.NewRunner(refresher.RunConfig{
		Interval:     cfg.Interval,
		MaxRetries:   cfg.MaxRetries,
		RetryBackoff: cfg.RetryBackoff,
	}, orc, supply, store, logger)

	return runner.Run(ctx)
}

type assetBinding struct {
	asset common.Address
	feed  common.Address
}

// parseBindings parses asset=feed pairs, preserving input order.
func parseBindings(pairs []string) ([]assetBinding, error) {
	out := make([]assetBinding, 0, len(pairs))
	seen := make(map[common.Address]struct{})
	for _, pair := range pairs {
		parts := strings.SplitN(pair, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid asset pair %q, want asset=feed", pair)
		}
		asset, err := parseAddress(parts[0], "asset")
		if err != nil {
			return nil, err
		}
		feed, err := parseAddress(parts[1], "feed")
		if err != nil {
			return nil, err
		}
		if _, ok := seen[asset]; ok {
			return nil, fmt.Errorf("duplicate asset %s", asset.Hex())
		}
		seen[asset] = struct{}{}
		out = append(out, assetBinding{asset: asset, feed: feed})
	}
	return out, nil
}

func parseAddress(input, name string) (common.Address, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return common.Address{}, fmt.Errorf("%s address is required", name)
	}
	if !common.IsHexAddress(input) {
		return common.Address{}, fmt.Errorf("invalid %s address: %s", name, input)
	}
	return common.HexToAddress(input), nil
}

func redactDSN(dsn string) string {
	if dsn == "" {
		return dsn
	}
	return "***"
}
