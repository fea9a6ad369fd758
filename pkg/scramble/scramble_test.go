package scramble

import "testing"

func hashOf(b byte) Hash32 {
	var h Hash32
	for i := range h {
		h[i] = b
	}
	return h
}

// fakeSlotHashes is a fixed recent-slot-hashes table for tests, standing
// in for the host's sysvar.
type fakeSlotHashes map[uint64]Hash32

func (f fakeSlotHashes) SlotHash(slot uint64) (Hash32, bool) {
	h, ok := f[slot]
	return h, ok
}

func easyDifficulty() Hash32 {
	// 0x00FF...FF: top byte zero, every subsequent byte 0xFF. Any
	// proof_hash whose first byte is 0x00 satisfies u256_lt against
	// this target.
	d := hashOf(0xFF)
	d[0] = 0x00
	return d
}

func mineValidSolution(t *testing.T, slot uint64, slotHash, miner, batchHash Hash32, difficulty Hash32) (nonceLo uint64, proofHash Hash32) {
	t.Helper()
	for nonce := uint64(0); nonce < 1_000_000; nonce++ {
		ph := ProofHash(slot, slotHash, miner, batchHash, nonce, 0)
		if ph[0] == 0x00 {
			return nonce, ph
		}
	}
	t.Fatalf("failed to find a solution under the easy difficulty within the search budget")
	return 0, Hash32{}
}

func newTestRegistry() *Registry {
	return NewRegistry(RegistryConfig{
		Admin:               hashOf(0xAA),
		CurrentDifficulty:   easyDifficulty(),
		TargetIntervalSlots: 1_000_000, // effectively disable retargeting mid-test
		FeeShareBps:         1000,
		RevealWindow:        10,
		ClaimWindow:         100,
		MaxK:                5,
		MinDifficulty:       hashOf(0x00),
		MaxDifficulty:       hashOf(0xFF),
	})
}

// TestScrambleHappyPathMineRevealConsume: mine, reveal within the
// window, then consume with a 10% fee share to the miner.
func TestScrambleHappyPathMineRevealConsume(t *testing.T) {
	r := newTestRegistry()
	miner := hashOf(0x11)
	slot := uint64(1000)
	slotHash := hashOf(0x22)
	batchHash := Hash32{} // wildcard

	nonce, proofHash := mineValidSolution(t, slot, slotHash, miner, batchHash, r.CurrentDifficulty)

	claim, err := r.MineClaim(MineRequest{
		MinerAuthority: miner,
		Slot:           slot,
		SlotHash:       slotHash,
		BatchHash:      batchHash,
		NonceLo:        nonce,
		ProofHash:      proofHash,
		MaxConsumes:    1,
		CurrentSlot:    slot,
	}, fakeSlotHashes{slot: slotHash})
	if err != nil {
		t.Fatalf("MineClaim: %v", err)
	}
	if claim.status != StatusMined {
		t.Fatalf("expected status Mined, got %v", claim.status)
	}

	revealSlot := slot + 5
	revealed, err := r.RevealClaim(miner, batchHash, slot, revealSlot)
	if err != nil {
		t.Fatalf("RevealClaim: %v", err)
	}
	if revealed.status != StatusRevealed {
		t.Fatalf("expected status Revealed, got %v", revealed.status)
	}

	expectedFee := uint64(7_500_000)
	consumeSlot := revealSlot + 1
	minerAuthority, minerShare, err := r.Consume(batchHash, expectedFee, consumeSlot)
	if err != nil {
		t.Fatalf("Consume: %v", err)
	}
	if minerAuthority != miner {
		t.Fatalf("expected miner authority %x, got %x", miner, minerAuthority)
	}
	wantShare := expectedFee * 1000 / 10_000
	if minerShare != wantShare {
		t.Fatalf("expected miner share %d, got %d", wantShare, minerShare)
	}

	final, ok := r.Claim(miner, batchHash, slot, consumeSlot)
	if !ok {
		t.Fatalf("expected claim to still exist after consumption")
	}
	if final.status != StatusConsumed {
		t.Fatalf("expected status Consumed after reaching max_consumes, got %v", final.status)
	}
	if r.ActiveClaims != 0 {
		t.Fatalf("expected active_claims decremented to 0, got %d", r.ActiveClaims)
	}
}

// TestScrambleRevealAfterWindowExpires: reveal attempted at
// mined_at+11 (window is 10) fails, and any subsequent consume against
// that claim also fails.
func TestScrambleRevealAfterWindowExpires(t *testing.T) {
	r := newTestRegistry()
	miner := hashOf(0x11)
	slot := uint64(2000)
	slotHash := hashOf(0x33)
	batchHash := Hash32{}

	nonce, proofHash := mineValidSolution(t, slot, slotHash, miner, batchHash, r.CurrentDifficulty)
	if _, err := r.MineClaim(MineRequest{
		MinerAuthority: miner,
		Slot:           slot,
		SlotHash:       slotHash,
		BatchHash:      batchHash,
		NonceLo:        nonce,
		ProofHash:      proofHash,
		MaxConsumes:    1,
		CurrentSlot:    slot,
	}, fakeSlotHashes{slot: slotHash}); err != nil {
		t.Fatalf("MineClaim: %v", err)
	}

	lateSlot := slot + 11
	if _, err := r.RevealClaim(miner, batchHash, slot, lateSlot); err != ErrClaimExpired {
		t.Fatalf("expected ErrClaimExpired, got %v", err)
	}

	if _, _, err := r.Consume(batchHash, 7_500_000, lateSlot); err != ErrClaimNotFound {
		t.Fatalf("expected Consume to find no usable claim, got %v", err)
	}
}

func TestMineClaimRejectsStaleProofHash(t *testing.T) {
	r := newTestRegistry()
	miner := hashOf(0x11)
	slot := uint64(1000)
	slotHash := hashOf(0x22)

	_, err := r.MineClaim(MineRequest{
		MinerAuthority: miner,
		Slot:           slot,
		SlotHash:       slotHash,
		BatchHash:      Hash32{},
		NonceLo:        0,
		ProofHash:      hashOf(0x01), // does not match the recomputed hash
		MaxConsumes:    1,
		CurrentSlot:    slot,
	}, fakeSlotHashes{slot: slotHash})
	if err != ErrInvalidProofHash {
		t.Fatalf("expected ErrInvalidProofHash, got %v", err)
	}
}

func TestMineClaimRejectsSlotTooOld(t *testing.T) {
	r := newTestRegistry()
	_, err := r.MineClaim(MineRequest{
		MinerAuthority: hashOf(0x11),
		Slot:           100,
		CurrentSlot:    100 + MaxSlotAge + 1,
		MaxConsumes:    1,
	}, fakeSlotHashes{})
	if err != ErrSlotTooOld {
		t.Fatalf("expected ErrSlotTooOld, got %v", err)
	}
}

func TestMineClaimRejectsSlotHashMismatch(t *testing.T) {
	r := newTestRegistry()
	miner := hashOf(0x11)
	slot := uint64(1000)
	slotHash := hashOf(0x22)
	batchHash := Hash32{}

	nonce, proofHash := mineValidSolution(t, slot, slotHash, miner, batchHash, r.CurrentDifficulty)

	// The host's recent-slot-hashes table disagrees with the
	// caller-supplied slot_hash for this slot.
	_, err := r.MineClaim(MineRequest{
		MinerAuthority: miner,
		Slot:           slot,
		SlotHash:       slotHash,
		BatchHash:      batchHash,
		NonceLo:        nonce,
		ProofHash:      proofHash,
		MaxConsumes:    1,
		CurrentSlot:    slot,
	}, fakeSlotHashes{slot: hashOf(0x99)})
	if err != ErrSlotHashMismatch {
		t.Fatalf("expected ErrSlotHashMismatch, got %v", err)
	}

	// Also rejected when the slot has no recorded hash at all.
	_, err = r.MineClaim(MineRequest{
		MinerAuthority: miner,
		Slot:           slot,
		SlotHash:       slotHash,
		BatchHash:      batchHash,
		NonceLo:        nonce,
		ProofHash:      proofHash,
		MaxConsumes:    1,
		CurrentSlot:    slot,
	}, fakeSlotHashes{})
	if err != ErrSlotHashMismatch {
		t.Fatalf("expected ErrSlotHashMismatch for an absent slot, got %v", err)
	}
}

func TestMineClaimRejectsDifficultyNotMet(t *testing.T) {
	r := newTestRegistry()
	r.CurrentDifficulty = hashOf(0x00) // impossible target: nothing is strictly less than all-zero

	miner := hashOf(0x11)
	slot := uint64(1000)
	slotHash := hashOf(0x22)
	batchHash := Hash32{}
	proofHash := ProofHash(slot, slotHash, miner, batchHash, 0, 0)

	_, err := r.MineClaim(MineRequest{
		MinerAuthority: miner,
		Slot:           slot,
		SlotHash:       slotHash,
		BatchHash:      batchHash,
		NonceLo:        0,
		ProofHash:      proofHash,
		MaxConsumes:    1,
		CurrentSlot:    slot,
	}, fakeSlotHashes{slot: slotHash})
	if err != ErrDifficultyNotMet {
		t.Fatalf("expected ErrDifficultyNotMet, got %v", err)
	}
}

func TestConsumeRejectsExhaustedClaim(t *testing.T) {
	r := newTestRegistry()
	miner := hashOf(0x11)
	slot := uint64(1000)
	slotHash := hashOf(0x22)
	batchHash := Hash32{}

	nonce, proofHash := mineValidSolution(t, slot, slotHash, miner, batchHash, r.CurrentDifficulty)
	if _, err := r.MineClaim(MineRequest{
		MinerAuthority: miner, Slot: slot, SlotHash: slotHash, BatchHash: batchHash,
		NonceLo: nonce, ProofHash: proofHash, MaxConsumes: 1, CurrentSlot: slot,
	}, fakeSlotHashes{slot: slotHash}); err != nil {
		t.Fatalf("MineClaim: %v", err)
	}
	if _, err := r.RevealClaim(miner, batchHash, slot, slot+1); err != nil {
		t.Fatalf("RevealClaim: %v", err)
	}
	if _, _, err := r.Consume(batchHash, 1000, slot+2); err != nil {
		t.Fatalf("first Consume: %v", err)
	}
	if _, _, err := r.Consume(batchHash, 1000, slot+3); err != ErrClaimNotFound {
		t.Fatalf("expected the exhausted claim to no longer be offered, got %v", err)
	}
}
