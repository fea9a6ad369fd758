package primitives

import "testing"

func buildPath(leaves []Hash32, index int) (Hash32, []Hash32, Hash32) {
	level := append([]Hash32(nil), leaves...)
	var siblings []Hash32
	idx := index
	for len(level) > 1 {
		var next []Hash32
		for i := 0; i < len(level); i += 2 {
			l, r := level[i], level[i+1]
			if i == (idx &^ 1) {
				if idx%2 == 0 {
					siblings = append(siblings, r)
				} else {
					siblings = append(siblings, l)
				}
			}
			next = append(next, H(l[:], r[:]))
		}
		level = next
		idx /= 2
	}
	return leaves[index], siblings, level[0]
}

func TestMerklePathVerifiesAndDetectsTampering(t *testing.T) {
	leaves := make([]Hash32, 8)
	for i := range leaves {
		leaves[i] = H([]byte{byte(i)})
	}

	for idx := range leaves {
		leaf, siblings, root := buildPath(leaves, idx)
		if !VerifyMerklePath(leaf, siblings, uint64(idx), root) {
			t.Fatalf("path for leaf %d did not verify against its own root", idx)
		}

		if len(siblings) > 0 {
			tampered := append([]Hash32(nil), siblings...)
			tampered[0][0] ^= 0xFF
			if VerifyMerklePath(leaf, tampered, uint64(idx), root) {
				t.Fatalf("flipping a sibling byte should invalidate the path (leaf %d)", idx)
			}
		}

		if VerifyMerklePath(leaf, siblings, uint64(idx)^1, root) {
			t.Fatalf("flipping the index bit should invalidate the path (leaf %d)", idx)
		}
	}
}

func TestMerkleParentRejectsNonBinaryIndexByte(t *testing.T) {
	var a, b Hash32
	if _, ok := MerkleParent(a, b, 2); ok {
		t.Fatalf("index byte 2 should invalidate the path")
	}
}
