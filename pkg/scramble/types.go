package scramble

import (
	"sync"

	"github.com/rawblock/cloak-pool/pkg/primitives"
)

// Hash32 and Pubkey mirror the shield-pool's aliases; the two packages
// never import one another's concrete types, only shieldpool.ClaimConsumer.
type Hash32 = primitives.Hash32
type Pubkey = Hash32

// ClaimStatus is a claim's position in the mine/reveal/consume state
// machine. Expired is derived (computed from slot comparisons), never
// written explicitly, but is exposed here so callers can read a
// claim's effective status without re-deriving it.
type ClaimStatus int

const (
	StatusMined ClaimStatus = iota
	StatusRevealed
	StatusConsumed
	StatusExpired
)

func (s ClaimStatus) String() string {
	switch s {
	case StatusMined:
		return "Mined"
	case StatusRevealed:
		return "Revealed"
	case StatusConsumed:
		return "Consumed"
	case StatusExpired:
		return "Expired"
	default:
		return "Unknown"
	}
}

// Miner is the per-authority PDA tracking lifetime mining activity.
type Miner struct {
	Authority        Pubkey
	TotalMined       uint64
	TotalConsumed    uint64
	RegisteredAtSlot uint64
}

// Claim is one PDA keyed by (miner_authority, batch_hash, slot).
type Claim struct {
	MinerAuthority Pubkey
	BatchHash      Hash32
	Slot           uint64
	SlotHash       Hash32
	NonceLo        uint64
	NonceHi        uint64
	ProofHash      Hash32
	MinedAtSlot    uint64
	RevealedAtSlot uint64
	ConsumedCount  uint16
	MaxConsumes    uint16
	ExpiresAtSlot  uint64
	status         ClaimStatus
}

// claimKey is the Claim PDA's derivation seed, minus the literal
// "claim" prefix the host program would hash in.
type claimKey struct {
	MinerAuthority Pubkey
	BatchHash      Hash32
	Slot           uint64
}

// Registry is the scramble-registry singleton: PoW difficulty state
// plus the miner and claim tables. One Registry is created per
// deployment.
type Registry struct {
	mu sync.Mutex

	Admin               Pubkey
	CurrentDifficulty   Hash32
	LastRetargetSlot    uint64
	SolutionsObserved   uint64
	TargetIntervalSlots uint64
	FeeShareBps         uint16
	RevealWindow        uint64
	ClaimWindow         uint64
	MaxK                uint16
	MinDifficulty       Hash32
	MaxDifficulty       Hash32
	TotalClaims         uint64
	ActiveClaims        uint64

	miners map[Pubkey]*Miner
	claims map[claimKey]*Claim
}

// RegistryConfig seeds a new Registry's tunable parameters.
type RegistryConfig struct {
	Admin               Pubkey
	CurrentDifficulty   Hash32
	TargetIntervalSlots uint64
	FeeShareBps         uint16
	RevealWindow        uint64
	ClaimWindow         uint64
	MaxK                uint16
	MinDifficulty       Hash32
	MaxDifficulty       Hash32
}

// NewRegistry constructs a Registry from cfg.
func NewRegistry(cfg RegistryConfig) *Registry {
	return &Registry{
		Admin:               cfg.Admin,
		CurrentDifficulty:   cfg.CurrentDifficulty,
		TargetIntervalSlots: cfg.TargetIntervalSlots,
		FeeShareBps:         cfg.FeeShareBps,
		RevealWindow:        cfg.RevealWindow,
		ClaimWindow:         cfg.ClaimWindow,
		MaxK:                cfg.MaxK,
		MinDifficulty:       cfg.MinDifficulty,
		MaxDifficulty:       cfg.MaxDifficulty,
		miners:              make(map[Pubkey]*Miner),
		claims:              make(map[claimKey]*Claim),
	}
}

func (r *Registry) minerLocked(authority Pubkey, currentSlot uint64) *Miner {
	m, ok := r.miners[authority]
	if !ok {
		m = &Miner{Authority: authority, RegisteredAtSlot: currentSlot}
		r.miners[authority] = m
	}
	return m
}

// Miner returns a copy of the named miner's stats, if any.
func (r *Registry) Miner(authority Pubkey) (Miner, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.miners[authority]
	if !ok {
		return Miner{}, false
	}
	return *m, true
}

// Claim returns a copy of the claim for (authority, batchHash, slot),
// with its status resolved against currentSlot.
func (r *Registry) Claim(authority Pubkey, batchHash Hash32, slot, currentSlot uint64) (Claim, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.claims[claimKey{MinerAuthority: authority, BatchHash: batchHash, Slot: slot}]
	if !ok {
		return Claim{}, false
	}
	out := *c
	out.status = effectiveStatus(c, currentSlot, r.RevealWindow)
	return out, true
}

// effectiveStatus derives Expired from the raw stored fields without
// mutating the claim: Mined claims expire after reveal_window slots
// unrevealed; Revealed claims expire after expires_at_slot.
func effectiveStatus(c *Claim, currentSlot, revealWindow uint64) ClaimStatus {
	switch c.status {
	case StatusMined:
		if currentSlot > c.MinedAtSlot && currentSlot-c.MinedAtSlot > revealWindow {
			return StatusExpired
		}
		return StatusMined
	case StatusRevealed:
		if currentSlot > c.ExpiresAtSlot {
			return StatusExpired
		}
		return StatusRevealed
	default:
		return c.status
	}
}
