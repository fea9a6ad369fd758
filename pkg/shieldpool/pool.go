package shieldpool

import "sync"

// ShieldPool wires together one asset's Pool, CommitmentQueue,
// RootsRing, NullifierShard and Treasury plus the pluggable proof
// verifier and (optional) scramble-registry claim consumer. One
// instance exists per asset (native or per-mint), mirroring the
// account PDA seed layout documented alongside each instruction.
type ShieldPool struct {
	Pool        *Pool
	Commitments *CommitmentQueue
	Roots       *RootsRing
	Nullifiers  *NullifierShard
	Treasury    *Treasury
	Recipients  *Ledger
	Verifier    ProofVerifier
	Claims      ClaimConsumer

	swapsMu sync.Mutex
	swaps   map[Hash32]*SwapState
}

// New constructs a ShieldPool for the given mint and admin authority.
// A nil verifier or claims consumer uses permissive/no-op defaults
// suitable only for tests that do not exercise proof verification or
// PoW gating.
func New(mint, admin Pubkey, verifier ProofVerifier, claims ClaimConsumer) *ShieldPool {
	if claims == nil {
		claims = noClaimConsumer{}
	}
	return &ShieldPool{
		Pool:        NewPool(mint, admin),
		Commitments: NewCommitmentQueue(),
		Roots:       NewRootsRing(admin),
		Nullifiers:  NewNullifierShard(),
		Treasury:    &Treasury{},
		Recipients:  NewLedger(),
		Verifier:    verifier,
		Claims:      claims,
		swaps:       make(map[Hash32]*SwapState),
	}
}
