package scramble

import "github.com/rawblock/cloak-pool/pkg/primitives"

// RecentSlotHashes is the host's recent-slot-hashes sysvar, narrowed
// to the one lookup MineClaim needs.
type RecentSlotHashes interface {
	SlotHash(slot uint64) (Hash32, bool)
}

// MaxSlotAge is the retained-range bound checked against
// current_slot - slot.
const MaxSlotAge = 300

// MineRequest is the decoded MineClaim instruction data.
type MineRequest struct {
	MinerAuthority Pubkey
	Slot           uint64
	SlotHash       Hash32
	BatchHash      Hash32
	NonceLo        uint64
	NonceHi        uint64
	ProofHash      Hash32
	MaxConsumes    uint16
	CurrentSlot    uint64
}

// MineClaim validates a submitted PoW solution and creates (or would
// create; this registry does not allow re-mining an existing key,
// matching the PDA's create-if-absent semantics) the Claim PDA in the
// Mined state. slotHashes is consulted to confirm req.SlotHash is
// actually the host's recorded hash for req.Slot, the same check the
// on-chain program makes against its recent-slot-hashes sysvar before
// trusting a caller-supplied slot_hash as PoW preimage material.
func (r *Registry) MineClaim(req MineRequest, slotHashes RecentSlotHashes) (*Claim, error) {
	if req.CurrentSlot < req.Slot || req.CurrentSlot-req.Slot > MaxSlotAge {
		return nil, ErrSlotTooOld
	}

	want, ok := slotHashes.SlotHash(req.Slot)
	if !ok || want != req.SlotHash {
		return nil, ErrSlotHashMismatch
	}

	wantProofHash := ProofHash(req.Slot, req.SlotHash, req.MinerAuthority, req.BatchHash, req.NonceLo, req.NonceHi)
	if wantProofHash != req.ProofHash {
		return nil, ErrInvalidProofHash
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if !primitives.U256Lt(req.ProofHash, r.CurrentDifficulty) {
		return nil, ErrDifficultyNotMet
	}
	if req.MaxConsumes == 0 || req.MaxConsumes > r.MaxK {
		return nil, ErrMaxConsumesInvalid
	}

	key := claimKey{MinerAuthority: req.MinerAuthority, BatchHash: req.BatchHash, Slot: req.Slot}
	if _, exists := r.claims[key]; exists {
		return nil, ErrClaimNotFound // a real PDA create would fail with AccountAlreadyInitialized; reuse of (authority,batch,slot) is not a supported re-mine path
	}

	claim := &Claim{
		MinerAuthority: req.MinerAuthority,
		BatchHash:      req.BatchHash,
		Slot:           req.Slot,
		SlotHash:       req.SlotHash,
		NonceLo:        req.NonceLo,
		NonceHi:        req.NonceHi,
		ProofHash:      req.ProofHash,
		MinedAtSlot:    req.CurrentSlot,
		MaxConsumes:    req.MaxConsumes,
		status:         StatusMined,
	}
	r.claims[key] = claim

	r.SolutionsObserved++
	r.TotalClaims++
	r.ActiveClaims++
	r.maybeRetarget(req.CurrentSlot)

	miner := r.minerLocked(req.MinerAuthority, req.CurrentSlot)
	miner.TotalMined++

	out := *claim
	return &out, nil
}
