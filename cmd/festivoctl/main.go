// Command festivoctl runs operator tasks against a Festivo database.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/dalemusser/festivo/internal/app/membership"
	"github.com/dalemusser/festivo/internal/app/system/metrics"
	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

const programName = "festivoctl"

var globalFlags = struct {
	mongoURI string
	database string
	txMode   string
	timeout  time.Duration
	debug    bool
}{}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func newLogger() *zap.Logger {
	cfg := zap.NewProductionConfig()
	if globalFlags.debug {
		cfg = zap.NewDevelopmentConfig()
	}
	logger, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger.Named(programName)
}

// env bundles what every database-backed command needs.
type env struct {
	ctx    context.Context
	cancel context.CancelFunc
	client *mongo.Client
	db     *mongo.Database
	engine *membership.Engine
	log    *zap.Logger
}

func (e *env) Close() {
	_ = e.client.Disconnect(context.Background())
	e.cancel()
	_ = e.log.Sync()
}

func connect(cmd *cobra.Command) (*env, error) {
	mode, err := membership.ParseTxMode(globalFlags.txMode)
	if err != nil {
		return nil, err
	}
	log := newLogger()
	ctx, cancel := context.WithTimeout(cmd.Context(), globalFlags.timeout)

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(globalFlags.mongoURI))
	if err != nil {
		cancel()
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	db := client.Database(globalFlags.database)
	m := metrics.New()
	repo := membership.NewMongoRepo(db, mode, m, log)
	return &env{
		ctx:    ctx,
		cancel: cancel,
		client: client,
		db:     db,
		engine: membership.New(repo, nil, m, log),
		log:    log,
	}, nil
}

func main() {
	rootCmd := &cobra.Command{
		Use:           programName,
		Short:         "Operator tasks for the Festivo backend",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&globalFlags.mongoURI, "mongo-uri", envOr("FESTIVO_MONGO_URI", "mongodb://localhost:27017"), "MongoDB connection URI")
	pf.StringVar(&globalFlags.database, "database", envOr("FESTIVO_MONGO_DATABASE", "festivo"), "MongoDB database name")
	pf.StringVar(&globalFlags.txMode, "tx-mode", envOr("FESTIVO_MEMBERSHIP_TX_MODE", "auto"), "membership writes: auto, txn or compensate")
	pf.DurationVar(&globalFlags.timeout, "timeout", 2*time.Minute, "overall deadline for the command")
	pf.BoolVarP(&globalFlags.debug, "debug", "D", false, "enable debug logging")

	rootCmd.AddCommand(
		seedCommand(),
		assignRoleCommand(),
		tokenCommand(),
		reconcileCommand(),
	)

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", programName, err)
		os.Exit(1)
	}
}
