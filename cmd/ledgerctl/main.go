package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dalemusser/donationhub/internal/app/bootstrap"
	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// errDrift makes verify exit non-zero without printing usage.
var errDrift = errors.New("ledger drift detected")

var (
	mongoURI      string
	mongoDatabase string
	verbose       bool
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if !errors.Is(err, errDrift) {
			fmt.Fprintln(os.Stderr, err)
		}
		stop()
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "ledgerctl",
	Short:         "DonationHub ledger maintenance",
	Long:          "ledgerctl checks and repairs the per-case received counters against the donations ledger.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&mongoURI, "mongo-uri", envOr("DONATIONHUB_MONGO_URI", "mongodb://localhost:27017"), "MongoDB connection URI")
	rootCmd.PersistentFlags().StringVar(&mongoDatabase, "mongo-database", envOr("DONATIONHUB_MONGO_DATABASE", "donation_db"), "MongoDB database name")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log at debug level")

	rootCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(reconcileCmd)
	rootCmd.AddCommand(auditCmd)
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func newLogger() *zap.Logger {
	cfg := zap.NewProductionConfig()
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	logger, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

// withDB opens the database named by the persistent flags, runs fn, and
// disconnects.
func withDB(ctx context.Context, fn func(db *mongo.Database, logger *zap.Logger) error) error {
	logger := newLogger()
	defer func() { _ = logger.Sync() }()

	appCfg := bootstrap.AppConfig{MongoURI: mongoURI, MongoDatabase: mongoDatabase}
	deps, err := bootstrap.ConnectDB(ctx, nil, appCfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = bootstrap.Shutdown(context.Background(), nil, appCfg, deps, logger) }()

	return fn(deps.MongoDatabase, logger)
}
