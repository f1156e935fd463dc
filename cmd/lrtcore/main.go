package main

import (
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	root := &cobra.Command{
		Use:          "lrtcore",
		Short:        "Liquid-restaking accounting core",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	refreshCmd := &cobra.Command{
		Use:   "refresh",
		Short: "Refresh the receipt-token price against live feeds",
		RunE:  runRefresh,
	}

	refreshCmd.Flags().String("rpc", "", "Ethereum RPC URL")
	refreshCmd.Flags().String("operator", "", "operator address (seeded as default admin)")
	refreshCmd.Flags().String("deposit-pool", "", "deposit pool contract address")
	refreshCmd.Flags().String("receipt-token", "", "receipt token contract address")
	refreshCmd.Flags().StringSlice("asset", nil, "asset=feed address pairs (comma-separated)")
	refreshCmd.Flags().String("deposit-ceiling", "0", "deposit ceiling applied to configured assets")
	refreshCmd.Flags().Uint64("deviation-limit", 0, "max price change per refresh in percent (0 disables)")
	refreshCmd.Flags().Duration("interval", 0, "refresh interval, 0 runs once")
	refreshCmd.Flags().String("pg-dsn", "", "Postgres DSN for snapshots (optional)")
	refreshCmd.Flags().String("audit-log", "", "JSONL audit event path (optional)")
	refreshCmd.Flags().Int("max-retries", 5, "maximum retry attempts per refresh")
	refreshCmd.Flags().Duration("retry-backoff", 500*time.Millisecond, "initial retry backoff")
	refreshCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(refreshCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
