// Command indexer runs the Merkle accumulator service: it appends
// deposited commitments, serves inclusion proofs to wallets, and
// broadcasts new roots over a websocket hub for relays and UIs that
// would rather subscribe than poll.
package main

import (
	"context"
	"log"

	"go.uber.org/zap"

	"github.com/rawblock/cloak-pool/internal/config"
	"github.com/rawblock/cloak-pool/internal/indexer"
	"github.com/rawblock/cloak-pool/internal/wsbus"
	"github.com/rawblock/cloak-pool/pkg/primitives"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("starting cloak-pool indexer")

	cfg, err := config.LoadIndexer()
	if err != nil {
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	ctx := context.Background()

	store, err := indexer.Connect(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		logger.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer store.Close()

	if err := store.InitSchema(ctx); err != nil {
		logger.Fatal("failed to initialize schema", zap.Error(err))
	}

	tree, err := indexer.NewTree(cfg.TreeHeight, primitives.Hash32{})
	if err != nil {
		logger.Fatal("failed to build merkle tree", zap.Error(err))
	}

	artifacts := indexer.NewArtifactStore()
	if err := artifacts.LoadFile("verifying-key", "artifacts/withdraw.vk"); err != nil {
		logger.Warn("verifying key artifact not loaded, serving will 404", zap.Error(err))
	}
	if err := artifacts.LoadFile("program-image", "artifacts/withdraw.prog"); err != nil {
		logger.Warn("program image artifact not loaded, serving will 404", zap.Error(err))
	}

	wsHub := wsbus.NewHub(logger)
	go wsHub.Run()

	handler := indexer.NewHandler(tree, store, artifacts, wsHub, logger)
	router := indexer.SetupRouter(handler, wsHub, indexer.RouterConfig{
		AuthToken:      cfg.AuthToken,
		RateLimitRPM:   cfg.RateLimitRPM,
		RateLimitBurst: cfg.RateLimitBurst,
	}, logger)

	logger.Info("indexer listening", zap.String("port", cfg.Port), zap.Uint32("tree_height", cfg.TreeHeight))
	if err := router.Run(":" + cfg.Port); err != nil {
		logger.Fatal("server exited", zap.Error(err))
	}
}
