package shieldpool

import (
	"sync"

	"github.com/rawblock/cloak-pool/pkg/primitives"
)

// Hash32 is the 32-byte digest type used for commitments, nullifiers
// and roots throughout the pool.
type Hash32 = primitives.Hash32

// Pubkey is a 32-byte account identifier on the host ledger.
type Pubkey = Hash32

// RootsRingSize is N, the number of most-recently-admitted
// accumulator roots retained by the ring.
const RootsRingSize = 64

// Pool holds the escrowed value and flavor for one asset. Mint and
// Admin are fixed at construction; Lamports changes with every value
// movement.
type Pool struct {
	mu sync.Mutex

	Mint     Pubkey // zero = native asset
	Lamports uint64
	Admin    Pubkey
}

// NewPool constructs a Pool for the given mint (zero Pubkey = native).
func NewPool(mint, admin Pubkey) *Pool {
	return &Pool{Mint: mint, Admin: admin}
}

func (p *Pool) Balance() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.Lamports
}

// credit/debit are unexported: all value movement goes through the
// instruction handlers of this package (deposit.go, withdraw.go,
// batch_withdraw.go, withdraw_swap.go, unstake.go).
func (p *Pool) credit(amount uint64) { p.Lamports += amount }
func (p *Pool) debit(amount uint64) error {
	if p.Lamports < amount {
		return ErrInsufficientLamports
	}
	p.Lamports -= amount
	return nil
}

// Treasury accumulates withdraw fees.
type Treasury struct {
	mu       sync.Mutex
	Lamports uint64
}

func (t *Treasury) credit(amount uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.Lamports += amount
}

// debit reverses a credit applied by an earlier leg of a batch that
// later failed. Unexported; the treasury otherwise only ever grows.
func (t *Treasury) debit(amount uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.Lamports -= amount
}

func (t *Treasury) Balance() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.Lamports
}

// CommitmentQueue is the append-only log of commitments accepted by
// Deposit. Order of append defines leaf_index.
type CommitmentQueue struct {
	mu          sync.Mutex
	commitments []Hash32
	index       map[Hash32]struct{}
}

func NewCommitmentQueue() *CommitmentQueue {
	return &CommitmentQueue{index: make(map[Hash32]struct{})}
}

func (q *CommitmentQueue) Contains(c Hash32) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	_, ok := q.index[c]
	return ok
}

// Append adds a new commitment and returns its leaf_index. Fails with
// ErrCommitmentAlreadyExists on duplicates.
func (q *CommitmentQueue) Append(c Hash32) (uint32, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if _, ok := q.index[c]; ok {
		return 0, ErrCommitmentAlreadyExists
	}
	leafIndex := uint32(len(q.commitments))
	q.commitments = append(q.commitments, c)
	q.index[c] = struct{}{}
	return leafIndex, nil
}

func (q *CommitmentQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.commitments)
}

// RootsRing is a bounded FIFO ring of the N most recently admitted
// accumulator roots.
type RootsRing struct {
	mu    sync.Mutex
	head  uint64
	roots [RootsRingSize]Hash32
	admin Pubkey
}

func NewRootsRing(admin Pubkey) *RootsRing {
	return &RootsRing{admin: admin}
}

// Push writes root at slot head+1 mod N and advances head. Only the
// configured admin authority may push.
func (r *RootsRing) Push(signer Pubkey, root Hash32) error {
	if signer != r.admin {
		return ErrUnauthorized
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.head++
	r.roots[r.head%RootsRingSize] = root
	return nil
}

// Contains scans the ring for root.
func (r *RootsRing) Contains(root Hash32) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.roots {
		if existing == root {
			return true
		}
	}
	return false
}

// Head returns the current head counter, for tests and diagnostics.
func (r *RootsRing) Head() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.head
}

// NullifierShard is the append-only set of consumed nullifiers.
type NullifierShard struct {
	mu          sync.Mutex
	nullifiers  []Hash32
	index       map[Hash32]struct{}
}

func NewNullifierShard() *NullifierShard {
	return &NullifierShard{index: make(map[Hash32]struct{})}
}

func (s *NullifierShard) Contains(nf Hash32) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.index[nf]
	return ok
}

// Add appends nf, failing with ErrDoubleSpend if already present.
func (s *NullifierShard) Add(nf Hash32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.index[nf]; ok {
		return ErrDoubleSpend
	}
	s.nullifiers = append(s.nullifiers, nf)
	s.index[nf] = struct{}{}
	return nil
}

func (s *NullifierShard) Count() uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return uint32(len(s.nullifiers))
}

// remove is used only to roll back a tentative Add when a later leg
// of a batch withdraw fails. It is unexported and intended for use
// only from within a single goroutine holding no other locks on this
// shard.
func (s *NullifierShard) remove(nf Hash32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.index[nf]; !ok {
		return
	}
	delete(s.index, nf)
	for i, existing := range s.nullifiers {
		if existing == nf {
			s.nullifiers = append(s.nullifiers[:i], s.nullifiers[i+1:]...)
			break
		}
	}
}

// SwapState is the transient per-swap escrow record keyed by
// nullifier.
type SwapState struct {
	Nullifier       Hash32
	SolAmount       uint64
	OutputMint      Pubkey
	RecipientATA    Pubkey
	MinOutputAmount uint64
	CreatedSlot     uint64
	TimeoutSlot     uint64
}

// SwapTimeoutSlots is the number of slots after WithdrawSwap before
// the refund path unblocks.
const SwapTimeoutSlots = 200
