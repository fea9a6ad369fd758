package shieldpool

// ClaimConsumer is the shield-pool's view of the scramble-registry's
// ConsumeClaim instruction. It models what would be a cross-program
// invocation on-chain: the pool presents a batch hash and the fee it
// computed for this withdraw, and the registry either consumes one
// use of a matching revealed claim and reports which miner authority
// to credit, or reports that no usable claim exists.
//
// scramble.Registry implements this interface; wiring a concrete
// instance into a ShieldPool is how a deployment turns on PoW-gated
// withdrawals (extended instruction forms that carry a trailing
// batch_hash).
type ClaimConsumer interface {
	Consume(batchHash Hash32, expectedFee uint64, currentSlot uint64) (minerAuthority Pubkey, minerShare uint64, err error)
}

// noClaimConsumer is used when a ShieldPool is constructed without PoW
// gating; extended (batch_hash-bearing) withdraw forms fail instead of
// silently skipping the consumption step.
type noClaimConsumer struct{}

func (noClaimConsumer) Consume(Hash32, uint64, uint64) (Pubkey, uint64, error) {
	return Pubkey{}, 0, ErrNoClaimConsumer
}
