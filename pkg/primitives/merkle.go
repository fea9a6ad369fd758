package primitives

// MerkleParent computes the parent node of cur and sib given the
// index bit at this level: 0 means cur is the left child, 1 means cur
// is the right child. Any other byte value invalidates the path.
func MerkleParent(cur, sib Hash32, indexBit byte) (Hash32, bool) {
	switch indexBit {
	case 0:
		return H(cur[:], sib[:]), true
	case 1:
		return H(sib[:], cur[:]), true
	default:
		return Hash32{}, false
	}
}

// VerifyMerklePath recomputes the root from a leaf, its sibling path
// and the leaf index (interpreted as lsb-first bits, one per level),
// and reports whether it matches root.
func VerifyMerklePath(leaf Hash32, siblings []Hash32, index uint64, root Hash32) bool {
	cur := leaf
	for level, sib := range siblings {
		bit := byte((index >> uint(level)) & 1)
		parent, ok := MerkleParent(cur, sib, bit)
		if !ok {
			return false
		}
		cur = parent
	}
	return cur == root
}

// ComputeMerkleRoot recomputes the root for a leaf given its sibling
// path and index, without comparing against an expected value.
func ComputeMerkleRoot(leaf Hash32, siblings []Hash32, index uint64) (Hash32, bool) {
	cur := leaf
	for level, sib := range siblings {
		bit := byte((index >> uint(level)) & 1)
		parent, ok := MerkleParent(cur, sib, bit)
		if !ok {
			return Hash32{}, false
		}
		cur = parent
	}
	return cur, true
}
