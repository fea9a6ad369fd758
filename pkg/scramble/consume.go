package scramble

// Consume implements shieldpool.ClaimConsumer: it is the scramble
// side of the CPI a Withdraw makes when its instruction data carries
// a trailing batch_hash. It finds a Revealed, unexpired claim whose
// batch_hash is either batchHash or the all-zero wildcard, with
// remaining consume capacity, and consumes one use of it.
func (r *Registry) Consume(batchHash Hash32, expectedFee uint64, currentSlot uint64) (minerAuthority Pubkey, minerShare uint64, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for key, claim := range r.claims {
		if key.BatchHash != batchHash && key.BatchHash != (Hash32{}) {
			continue
		}
		status := effectiveStatus(claim, currentSlot, r.RevealWindow)
		if status != StatusRevealed {
			continue
		}
		if claim.ConsumedCount >= claim.MaxConsumes {
			continue
		}
		r.consumeLocked(claim)
		share := expectedFee * uint64(r.FeeShareBps) / 10_000
		return claim.MinerAuthority, share, nil
	}

	return Pubkey{}, 0, ErrClaimNotFound
}

// consumeLocked increments a claim's consumed_count, transitioning it
// to Consumed and decrementing active_claims once max_consumes is
// reached. Caller holds r.mu.
func (r *Registry) consumeLocked(claim *Claim) {
	claim.ConsumedCount++
	if claim.ConsumedCount >= claim.MaxConsumes {
		claim.status = StatusConsumed
		if r.ActiveClaims > 0 {
			r.ActiveClaims--
		}
	}
	if m, ok := r.miners[claim.MinerAuthority]; ok {
		m.TotalConsumed++
	}
}
