package scramble

// RevealClaim transitions a Mined claim to Revealed only within
// reveal_window slots of mining. Outside the window the claim is
// already Expired (derived), so the reveal fails.
func (r *Registry) RevealClaim(authority Pubkey, batchHash Hash32, slot, currentSlot uint64) (*Claim, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := claimKey{MinerAuthority: authority, BatchHash: batchHash, Slot: slot}
	claim, ok := r.claims[key]
	if !ok {
		return nil, ErrClaimNotFound
	}

	status := effectiveStatus(claim, currentSlot, r.RevealWindow)
	if status == StatusExpired {
		return nil, ErrClaimExpired
	}
	if status != StatusMined {
		return nil, ErrClaimNotMined
	}

	claim.status = StatusRevealed
	claim.RevealedAtSlot = currentSlot
	claim.ExpiresAtSlot = currentSlot + r.ClaimWindow

	r.maybeRetarget(currentSlot)

	out := *claim
	return &out, nil
}
