package shieldpool

import "github.com/rawblock/cloak-pool/pkg/primitives"

// UnstakeRequest is the decoded form of the UnstakeToPool instruction
// data. Public inputs are repurposed relative to a normal withdraw:
// Commitment, StakeAccountHash, a zero32 field (unused here), and
// Amount.
type UnstakeRequest struct {
	ProofBytes        []byte
	Commitment        Hash32
	StakeAccountHash  Hash32
	Amount            uint64
	StakeAccount      Pubkey
	WithdrawAuthority Pubkey
}

// UnstakeResult reports the commitment pushed into the root ring. It
// carries no leaf index: the commitment gets one only when the indexer
// reconciles it.
type UnstakeResult struct {
	Commitment Hash32
}

// UnstakeToPool unstakes a deactivated stake account directly into the
// pool, emitting a new commitment that is pushed straight into the
// root ring as a degenerate root: the indexer reconciles it into the
// tree later via /admin/reconcile-leaf rather than requiring a second
// circuit to prove tree membership for a value that never went
// through Deposit.
func (sp *ShieldPool) UnstakeToPool(req UnstakeRequest) (*UnstakeResult, error) {
	// (i) H(stake_account) == stake_account_hash.
	if primitives.H(req.StakeAccount[:]) != req.StakeAccountHash {
		return nil, ErrStakeHashMismatch
	}

	// (ii) proof verification. The public inputs are repurposed as
	// commitment || stake_account_hash || zero32 || amount, so they
	// are packed the same way a PublicInputs tuple would be, with
	// OutputsHash standing in for stake_account_hash and Nullifier
	// standing in for the unused zero32 field.
	if sp.Verifier != nil {
		pub := PublicInputs{
			Root:        req.Commitment,
			Nullifier:   Hash32{},
			OutputsHash: req.StakeAccountHash,
			Amount:      req.Amount,
		}
		packed := packPublicInputs(pub)
		if err := sp.Verifier.Verify(req.ProofBytes, packed, WithdrawVkeyHash); err != nil {
			return nil, ErrProofInvalid
		}
	}

	// (iii) the host's stake-withdraw CPI from stake_account to the
	// pool. There is no real host ledger here; the value simply lands
	// in the pool's balance as Deposit does.
	sp.Pool.mu.Lock()
	sp.Pool.credit(req.Amount)
	sp.Pool.mu.Unlock()

	// (iv) push commitment into the root ring as a degenerate root.
	if err := sp.Roots.Push(sp.Pool.Admin, req.Commitment); err != nil {
		return nil, err
	}

	return &UnstakeResult{Commitment: req.Commitment}, nil
}
