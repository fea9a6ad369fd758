package relay

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"github.com/rawblock/cloak-pool/pkg/primitives"
	"github.com/rawblock/cloak-pool/pkg/scramble"
)

// WildcardBatchHash is the zero hash, meaning "consumable against any
// batch_hash" — the claim manager's default mining target, since the
// relay rarely knows in advance which batch a claim will back.
var WildcardBatchHash primitives.Hash32

// LowWaterMark is the minimum count of ready (revealed, unexpired,
// unexhausted) claims the manager tries to keep in the pool per miner
// authority before mining more in the background.
const LowWaterMark = 2

// MiningTimeout bounds how long a single MineClaim attempt searches
// the nonce space before giving up and retrying on the next tick.
const MiningTimeout = 5 * time.Second

// ClaimManager mines, reveals and pools scramble-registry claims so
// withdraw jobs can attach a ready claim instead of blocking on a
// fresh proof-of-work search.
type ClaimManager struct {
	registry       *scramble.Registry
	slotHashes     scramble.RecentSlotHashes
	minerAuthority scramble.Pubkey
	pool           *gocache.Cache
	log            *zap.Logger
}

// NewClaimManager constructs a manager backed by an in-memory pool
// with no default expiration; claim readiness is tracked by the
// registry's own slot-based expiry instead of a cache TTL.
func NewClaimManager(registry *scramble.Registry, slotHashes scramble.RecentSlotHashes, minerAuthority scramble.Pubkey, log *zap.Logger) *ClaimManager {
	return &ClaimManager{
		registry:       registry,
		slotHashes:     slotHashes,
		minerAuthority: minerAuthority,
		pool:           gocache.New(gocache.NoExpiration, 10*time.Minute),
		log:            log,
	}
}

// Run mines and replenishes the claim pool on a timer until ctx is
// canceled. It is the relay's one CPU-bound background task and must
// be cancellable at any loop iteration boundary.
func (m *ClaimManager) Run(ctx context.Context, currentSlot func() uint64) {
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if m.poolSize() >= LowWaterMark {
				continue
			}
			if err := m.mineAndReveal(ctx, currentSlot()); err != nil {
				m.log.Warn("claim mining attempt failed", zap.Error(err))
			}
		}
	}
}

func (m *ClaimManager) poolSize() int {
	return m.pool.ItemCount()
}

// Acquire pops one usable claim for withdrawBatchHash from the pool,
// preferring an exact match over a wildcard claim. Returns false if
// none are available; the caller should fall back to a plain (no
// claim) withdraw.
func (m *ClaimManager) Acquire(withdrawBatchHash primitives.Hash32) (scramble.Pubkey, primitives.Hash32, uint64, bool) {
	wildcardKey := ""
	var wildcard claimPoolEntry
	for key, item := range m.pool.Items() {
		entry := item.Object.(claimPoolEntry)
		if entry.batchHash == withdrawBatchHash {
			m.pool.Delete(key)
			return entry.minerAuthority, entry.batchHash, entry.slot, true
		}
		if entry.batchHash == WildcardBatchHash && wildcardKey == "" {
			wildcardKey, wildcard = key, entry
		}
	}
	if wildcardKey != "" {
		m.pool.Delete(wildcardKey)
		return wildcard.minerAuthority, wildcard.batchHash, wildcard.slot, true
	}
	return scramble.Pubkey{}, primitives.Hash32{}, 0, false
}

type claimPoolEntry struct {
	minerAuthority scramble.Pubkey
	batchHash      primitives.Hash32
	slot           uint64
}

func (m *ClaimManager) mineAndReveal(ctx context.Context, currentSlot uint64) error {
	slot := currentSlot
	slotHash, ok := m.slotHashes.SlotHash(slot)
	if !ok {
		return fmt.Errorf("relay: no recent slot hash for slot %d", slot)
	}

	difficulty := m.registry.CurrentDifficulty
	nonceLo, nonceHi, proofHash, found := searchNonce(ctx, slot, slotHash, m.minerAuthority, WildcardBatchHash, difficulty, MiningTimeout)
	if !found {
		return fmt.Errorf("relay: mining timed out before finding a solution below current difficulty")
	}

	claim, err := m.registry.MineClaim(scramble.MineRequest{
		MinerAuthority: m.minerAuthority,
		Slot:           slot,
		SlotHash:       slotHash,
		BatchHash:      WildcardBatchHash,
		NonceLo:        nonceLo,
		NonceHi:        nonceHi,
		ProofHash:      proofHash,
		MaxConsumes:    1,
		CurrentSlot:    currentSlot,
	}, m.slotHashes)
	if err != nil {
		return fmt.Errorf("relay: MineClaim: %w", err)
	}

	if _, err := m.registry.RevealClaim(m.minerAuthority, claim.BatchHash, claim.Slot, currentSlot); err != nil {
		return fmt.Errorf("relay: RevealClaim: %w", err)
	}

	key := fmt.Sprintf("%x-%d", claim.MinerAuthority[:], claim.Slot)
	m.pool.Set(key, claimPoolEntry{minerAuthority: claim.MinerAuthority, batchHash: claim.BatchHash, slot: claim.Slot}, gocache.NoExpiration)
	m.log.Info("claim mined and revealed", zap.Uint64("slot", claim.Slot))
	return nil
}

// searchNonce brute-forces the low 64 bits of the 128-bit nonce
// (random start, unit stride; the high half stays zero) until it finds
// a proof_hash below difficulty or the timeout elapses.
func searchNonce(ctx context.Context, slot uint64, slotHash primitives.Hash32, miner, batchHash primitives.Hash32, difficulty primitives.Hash32, timeout time.Duration) (lo, hi uint64, proofHash primitives.Hash32, found bool) {
	deadline := time.Now().Add(timeout)

	var seed [8]byte
	_, _ = rand.Read(seed[:])
	nonceLo := binary.LittleEndian.Uint64(seed[:])

	for time.Now().Before(deadline) {
		select {
		case <-ctx.Done():
			return 0, 0, primitives.Hash32{}, false
		default:
		}

		ph := scramble.ProofHash(slot, slotHash, miner, batchHash, nonceLo, 0)
		if primitives.U256Lt(ph, difficulty) {
			return nonceLo, 0, ph, true
		}
		nonceLo++
	}
	return 0, 0, primitives.Hash32{}, false
}
