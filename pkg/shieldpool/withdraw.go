package shieldpool

import "github.com/rawblock/cloak-pool/pkg/primitives"

// PublicInputs is the 104-byte public-input tuple bound to a withdraw
// proof: root(32) || nullifier(32) || outputs_hash(32) || amount(8).
type PublicInputs struct {
	Root        Hash32
	Nullifier   Hash32
	OutputsHash Hash32
	Amount      uint64
}

// WithdrawRequest is the decoded form of the withdraw instruction data
// for a single recipient. BatchHash is nil unless the extended
// (PoW-gated) instruction form was used.
type WithdrawRequest struct {
	ProofBytes      []byte
	Public          PublicInputs
	Recipient       Pubkey
	RecipientAmount uint64
	BatchHash       *Hash32
	CurrentSlot     uint64
}

// WithdrawResult reports the value movement a successful Withdraw
// performed, for callers that want to assert on it without re-reading
// account state.
type WithdrawResult struct {
	RecipientAmount uint64
	TotalFee        uint64
	MinerShare      uint64
	MinerAuthority  Pubkey
}

// Withdraw verifies the proof and root freshness, binds the
// outputs_hash, checks conservation, then marks the nullifier spent
// and moves value out of the pool to the recipient (and, for the
// PoW-gated instruction form, to the claiming miner). Account
// writability is assumed enforced by the caller's account resolution
// before this function is invoked — there is no account model to
// check against in this pure state-machine form.
func (sp *ShieldPool) Withdraw(req WithdrawRequest) (*WithdrawResult, error) {
	totalFee, err := sp.verifyWithdrawCommon(req.ProofBytes, req.Public, req.Recipient, req.RecipientAmount)
	if err != nil {
		return nil, err
	}

	// Step 7: pool must hold enough to cover the full amount.
	if sp.Pool.Balance() < req.Public.Amount {
		return nil, ErrInsufficientLamports
	}

	// Step 8: append the nullifier before moving funds (fail-closed on
	// write ordering).
	if err := sp.Nullifiers.Add(req.Public.Nullifier); err != nil {
		return nil, err
	}

	// Step 9: value movement.
	sp.Pool.mu.Lock()
	if err := sp.Pool.debit(req.Public.Amount); err != nil {
		sp.Pool.mu.Unlock()
		return nil, err
	}
	sp.Pool.mu.Unlock()
	sp.Recipients.Credit(req.Recipient, req.RecipientAmount)
	sp.Treasury.credit(totalFee)

	result := &WithdrawResult{RecipientAmount: req.RecipientAmount, TotalFee: totalFee}

	if req.BatchHash != nil {
		minerAuthority, minerShare, err := sp.Claims.Consume(*req.BatchHash, totalFee, req.CurrentSlot)
		if err != nil {
			return nil, err
		}
		if minerShare > 0 {
			sp.Treasury.mu.Lock()
			sp.Treasury.Lamports -= minerShare
			sp.Treasury.mu.Unlock()
			sp.Recipients.Credit(minerAuthority, minerShare)
		}
		result.MinerShare = minerShare
		result.MinerAuthority = minerAuthority
	}

	return result, nil
}

// verifyWithdrawCommon runs proof verification, root freshness,
// double-spend, outputs_hash binding and conservation checks shared by
// Withdraw and BatchWithdraw (per leg). WithdrawSwap does not call it;
// it makes its own checks against the swap-flavored outputs_hash.
func (sp *ShieldPool) verifyWithdrawCommon(proofBytes []byte, pub PublicInputs, recipient Pubkey, recipientAmount uint64) (totalFee uint64, err error) {
	// Step 2: proof verification. Callers that already verified a
	// bundled proof covering multiple legs (BatchWithdraw) pass a nil
	// proofBytes to skip a redundant per-leg check.
	if sp.Verifier != nil && proofBytes != nil {
		packed := packPublicInputs(pub)
		if err := sp.Verifier.Verify(proofBytes, packed, WithdrawVkeyHash); err != nil {
			return 0, ErrProofInvalid
		}
	}

	// Step 3: root freshness.
	if !sp.Roots.Contains(pub.Root) {
		return 0, ErrRootNotFound
	}

	// Step 4: double-spend guard (checked again, authoritatively, at
	// Add() time — this early check lets callers fail fast without a
	// wasted value-movement attempt).
	if sp.Nullifiers.Contains(pub.Nullifier) {
		return 0, ErrDoubleSpend
	}

	// Step 5: outputs_hash binding.
	wantOutputsHash := primitives.OutputsHashSingle(recipient, recipientAmount)
	if wantOutputsHash != pub.OutputsHash {
		return 0, ErrInvalidOutputsHash
	}

	// Step 6: conservation.
	if recipientAmount > pub.Amount {
		return 0, ErrInvalidAmount
	}
	totalFee = pub.Amount - recipientAmount
	expectedFee := primitives.Fee(pub.Amount)
	if totalFee != expectedFee {
		return 0, ErrConservation
	}

	return totalFee, nil
}

// packPublicInputs serializes the public-input tuple into the
// 104-byte wire layout for the verifier: root || nullifier ||
// outputs_hash || amount_LE.
func packPublicInputs(pub PublicInputs) []byte {
	out := make([]byte, 0, 104)
	out = append(out, pub.Root[:]...)
	out = append(out, pub.Nullifier[:]...)
	out = append(out, pub.OutputsHash[:]...)
	out = append(out, primitives.LE8(pub.Amount)...)
	return out
}
