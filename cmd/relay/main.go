// Command relay ingests withdraw/unstake/swap jobs, maintains the
// local nullifier index, and drives confirmed jobs to the host ledger
// on a slot-windowed schedule. It is the only component in this
// system that sustains liveness under load.
package main

import (
	"context"
	"crypto/rand"
	"flag"
	"log"
	"time"

	"go.uber.org/zap"

	"github.com/rawblock/cloak-pool/internal/config"
	"github.com/rawblock/cloak-pool/internal/ledgerrpc"
	"github.com/rawblock/cloak-pool/internal/relay"
	"github.com/rawblock/cloak-pool/pkg/primitives"
	"github.com/rawblock/cloak-pool/pkg/scramble"
)

func main() {
	recoverSwaps := flag.Bool("recover-swaps", false, "scan stuck swap jobs, resubmit or refund, then exit")
	flag.Parse()

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("starting cloak-pool relay")

	cfg, err := config.LoadRelay()
	if err != nil {
		logger.Fatal("failed to load configuration", zap.Error(err))
	}
	if *recoverSwaps {
		cfg.RecoverSwaps = true
	}

	ctx := context.Background()

	store, err := relay.Connect(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		logger.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer store.Close()

	if err := store.InitSchema(ctx); err != nil {
		logger.Fatal("failed to initialize schema", zap.Error(err))
	}

	client := ledgerrpc.New(ledgerrpc.Config{Endpoint: cfg.LedgerRPCURL, Timeout: 15 * time.Second})
	submitter := relay.NewSubmitter(client, cfg.SubmitMaxRetries, logger)

	if cfg.RecoverSwaps {
		if err := relay.RecoverStuckSwaps(ctx, store, client, submitter, logger); err != nil {
			logger.Fatal("swap recovery pass failed", zap.Error(err))
		}
		logger.Info("swap recovery pass finished, exiting")
		return
	}

	var minerAuthority scramble.Pubkey
	if cfg.MinerAuthority != "" {
		copy(minerAuthority[:], []byte(cfg.MinerAuthority))
	} else {
		_, _ = rand.Read(minerAuthority[:])
	}

	registry := scramble.NewRegistry(scramble.RegistryConfig{
		Admin:               minerAuthority,
		CurrentDifficulty:   primitives.Hash32{0x00, 0x00, 0x0F},
		TargetIntervalSlots: 150,
		FeeShareBps:         1000,
		RevealWindow:        150,
		ClaimWindow:         1500,
		MaxK:                5,
		MinDifficulty:       primitives.Hash32{0x00, 0x00, 0x00, 0x01},
		MaxDifficulty:       primitives.Hash32{0xFF, 0xFF, 0xFF, 0xFF},
	})

	slotHashSource := &liveSlotHashes{client: client}
	claims := relay.NewClaimManager(registry, slotHashSource, minerAuthority, logger)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	currentSlot := func() uint64 { return slotHashSource.latest() }
	go slotHashSource.Run(ctx, logger)
	go claims.Run(ctx, currentSlot)

	processor := relay.NewProcessor(store, client, submitter, claims, logger)
	scheduler := relay.NewScheduler(store, client.GetSlot, processor.Process, logger)
	go scheduler.Run(ctx)

	handler := relay.NewHandler(store, claims, logger)
	router := relay.SetupRouter(handler, relay.RouterConfig{
		AuthToken:      cfg.AuthToken,
		RateLimitRPM:   cfg.RateLimitRPM,
		RateLimitBurst: cfg.RateLimitBurst,
	}, logger)

	logger.Info("relay listening", zap.String("port", cfg.Port))
	if err := router.Run(":" + cfg.Port); err != nil {
		logger.Fatal("server exited", zap.Error(err))
	}
}

// liveSlotHashes polls the host ledger for the current slot and its
// recent-slot-hashes window, caching both for the claim manager so it
// doesn't make its own RPC round trip per iteration. The scheduler
// queries the slot through the client directly.
type liveSlotHashes struct {
	client *ledgerrpc.Client
	slot   uint64
	hashes map[uint64]primitives.Hash32
}

func (l *liveSlotHashes) Run(ctx context.Context, logger *zap.Logger) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	l.hashes = make(map[uint64]primitives.Hash32)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			slot, err := l.client.GetSlot(ctx)
			if err != nil {
				logger.Warn("failed to refresh current slot", zap.Error(err))
				continue
			}
			l.slot = slot

			recent, err := l.client.GetRecentSlotHashes(ctx)
			if err != nil {
				logger.Warn("failed to refresh recent slot hashes", zap.Error(err))
				continue
			}
			for _, rsh := range recent {
				var h primitives.Hash32
				copy(h[:], []byte(rsh.Hash))
				l.hashes[rsh.Slot] = h
			}
		}
	}
}

func (l *liveSlotHashes) latest() uint64 {
	return l.slot
}

func (l *liveSlotHashes) SlotHash(slot uint64) (primitives.Hash32, bool) {
	h, ok := l.hashes[slot]
	return h, ok
}
