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
		Use:          "feed",
		Short:        "Subscan event feed",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	fetchCmd := &cobra.Command{
		Use:   "fetch",
		Short: "Fetch events from the explorer and write them to a sink",
		RunE:  runFetch,
	}

	fetchCmd.Flags().String("network", "", "network identifier, e.g. kilt ('none' disables the explorer)")
	fetchCmd.Flags().String("api-key", "", "explorer API key")
	fetchCmd.Flags().String("rpc", "", "node RPC URL")
	fetchCmd.Flags().String("module", "", "pallet name, e.g. ctype")
	fetchCmd.Flags().String("event", "", "event kind, e.g. CTypeCreated")
	fetchCmd.Flags().Uint64("from", 0, "start block")
	fetchCmd.Flags().Int("page-size", 100, "events per page (provider max 100)")
	fetchCmd.Flags().Uint64("range-size", 100_000, "blocks per list query")
	fetchCmd.Flags().Duration("rate-delay", time.Second, "fixed wait between provider calls")
	fetchCmd.Flags().String("out", "./data/events.jsonl", "output JSONL path")
	fetchCmd.Flags().String("pg-dsn", "", "Postgres DSN (overrides the JSONL sink)")
	fetchCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(fetchCmd)

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
