// Package indexer maintains the off-chain Merkle accumulator of
// shielded-pool commitments and serves inclusion proofs to wallets so
// they can build withdraw proofs against a root the pool has
// admitted.
package indexer

import (
	"fmt"
	"sync"

	"github.com/rawblock/cloak-pool/pkg/primitives"
)

// MaxHeight bounds configured tree height to keep proof arrays and
// zero-value tables a sane size.
const MaxHeight = 32

// Tree is an incremental, fixed-height Merkle tree. Only the path
// from a newly appended leaf to the root is recomputed; the zero
// subtree at every level is precomputed once at construction.
//
// Tree is safe for concurrent use: readers share a read lock and
// Append takes the write lock, so appends are serialized by the tree
// itself, mirroring the single-writer-per-instruction model the tree's
// source-of-truth programs use on-chain.
type Tree struct {
	mu            sync.RWMutex
	height        uint32
	zero          []primitives.Hash32 // zero[l] is the zero hash at level l, zero[0] is the empty-leaf value
	filledSubtree []primitives.Hash32 // filledSubtree[l] is the rightmost non-zero node written at level l
	root          primitives.Hash32
	nextLeafIndex uint64
	leaves        map[uint64]primitives.Hash32
}

// NewTree builds an empty tree of the given height with the given
// zero leaf value. height must be in (0, MaxHeight].
func NewTree(height uint32, zeroLeaf primitives.Hash32) (*Tree, error) {
	if height == 0 || height > MaxHeight {
		return nil, fmt.Errorf("indexer: tree height %d out of range (1..%d)", height, MaxHeight)
	}

	zero := make([]primitives.Hash32, height+1)
	zero[0] = zeroLeaf
	for l := uint32(1); l <= height; l++ {
		zero[l] = primitives.H(zero[l-1][:], zero[l-1][:])
	}

	t := &Tree{
		height:        height,
		zero:          zero,
		filledSubtree: make([]primitives.Hash32, height),
		root:          zero[height],
		leaves:        make(map[uint64]primitives.Hash32),
	}
	return t, nil
}

// Height returns the configured tree height.
func (t *Tree) Height() uint32 {
	return t.height
}

// Size returns the number of leaves appended so far.
func (t *Tree) Size() uint64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.nextLeafIndex
}

// Root returns the tree's current root.
func (t *Tree) Root() primitives.Hash32 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.root
}

// Capacity is the maximum number of leaves this tree can hold.
func (t *Tree) Capacity() uint64 {
	return uint64(1) << t.height
}

// Append inserts leaf at the next available index, updates the path
// to the root and returns the assigned index along with the changed
// internal nodes (level -> new hash at that level's position on the
// path), for the caller to persist one row per changed node.
func (t *Tree) Append(leaf primitives.Hash32) (uint64, map[uint32]primitives.Hash32, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.nextLeafIndex >= t.Capacity() {
		return 0, nil, fmt.Errorf("indexer: tree at capacity (%d leaves)", t.Capacity())
	}

	index := t.nextLeafIndex
	t.leaves[index] = leaf

	changed := make(map[uint32]primitives.Hash32, t.height)
	cur := leaf
	idx := index
	for level := uint32(0); level < t.height; level++ {
		var sib primitives.Hash32
		if idx%2 == 0 {
			t.filledSubtree[level] = cur
			sib = t.zero[level]
			cur = primitives.H(cur[:], sib[:])
		} else {
			sib = t.filledSubtree[level]
			cur = primitives.H(sib[:], cur[:])
		}
		idx /= 2
		changed[level+1] = cur
	}
	t.root = cur
	t.nextLeafIndex++
	return index, changed, nil
}

// Proof returns the sibling path and current root for leaf index i.
func (t *Tree) Proof(i uint64) ([]primitives.Hash32, primitives.Hash32, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if i >= t.nextLeafIndex {
		return nil, primitives.Hash32{}, fmt.Errorf("%w: leaf index %d (tree size %d)", ErrLeafOutOfRange, i, t.nextLeafIndex)
	}

	// Recompute every level's node set from the leaves we have, since
	// filledSubtree only tracks the rightmost frontier and can't answer
	// an arbitrary historical proof on its own.
	levelNodes := make([]primitives.Hash32, t.nextLeafIndex)
	for idx, leaf := range t.leaves {
		levelNodes[idx] = leaf
	}

	siblings := make([]primitives.Hash32, t.height)
	idx := i
	size := t.nextLeafIndex
	for level := uint32(0); level < t.height; level++ {
		sibIdx := idx ^ 1
		if sibIdx < size {
			siblings[level] = levelNodes[sibIdx]
		} else {
			siblings[level] = t.zero[level]
		}

		next := make([]primitives.Hash32, (size+1)/2)
		for p := uint64(0); p*2 < size; p++ {
			left := levelNodes[p*2]
			var right primitives.Hash32
			if p*2+1 < size {
				right = levelNodes[p*2+1]
			} else {
				right = t.zero[level]
			}
			next[p] = primitives.H(left[:], right[:])
		}
		levelNodes = next
		size = (size + 1) / 2
		idx /= 2
	}

	return siblings, t.root, nil
}

// Leaf returns the commitment stored at index i, if any.
func (t *Tree) Leaf(i uint64) (primitives.Hash32, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	leaf, ok := t.leaves[i]
	return leaf, ok
}
