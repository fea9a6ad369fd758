package shieldpool

// Deposit credits amount into the pool and appends commitment to the
// queue, treated as one atomic unit: the caller must not observe
// partial state if either half fails. Because CommitmentQueue.Append
// is checked first and is the only failable half once the pool accepts
// the transfer, doing the append before crediting the pool satisfies
// that requirement without needing a two-phase rollback.
func (sp *ShieldPool) Deposit(amount uint64, commitment Hash32) (leafIndex uint32, err error) {
	leafIndex, err = sp.Commitments.Append(commitment)
	if err != nil {
		return 0, err
	}
	sp.Pool.mu.Lock()
	sp.Pool.credit(amount)
	sp.Pool.mu.Unlock()
	return leafIndex, nil
}

// AdminPushRoot pushes a new root into the ring; only the pool's
// configured admin authority may call it.
func (sp *ShieldPool) AdminPushRoot(signer Pubkey, root Hash32) error {
	return sp.Roots.Push(signer, root)
}
