package indexer

import (
	"testing"

	"github.com/rawblock/cloak-pool/pkg/primitives"
)

func leafOf(b byte) primitives.Hash32 {
	var h primitives.Hash32
	for i := range h {
		h[i] = b
	}
	return h
}

func TestAppendAndProofRoundTrips(t *testing.T) {
	tree, err := NewTree(4, primitives.Hash32{})
	if err != nil {
		t.Fatalf("NewTree: %v", err)
	}

	leaves := []primitives.Hash32{leafOf(1), leafOf(2), leafOf(3), leafOf(4), leafOf(5)}
	for i, leaf := range leaves {
		idx, _, err := tree.Append(leaf)
		if err != nil {
			t.Fatalf("Append(%d): %v", i, err)
		}
		if idx != uint64(i) {
			t.Fatalf("Append(%d) returned index %d, want %d", i, idx, i)
		}
	}

	root := tree.Root()
	for i, leaf := range leaves {
		siblings, proofRoot, err := tree.Proof(uint64(i))
		if err != nil {
			t.Fatalf("Proof(%d): %v", i, err)
		}
		if proofRoot != root {
			t.Fatalf("Proof(%d) root mismatch", i)
		}
		if !primitives.VerifyMerklePath(leaf, siblings, uint64(i), root) {
			t.Fatalf("VerifyMerklePath failed for leaf %d", i)
		}
	}
}

func TestProofRejectsOutOfRangeIndex(t *testing.T) {
	tree, _ := NewTree(4, primitives.Hash32{})
	tree.Append(leafOf(1))

	if _, _, err := tree.Proof(5); err == nil {
		t.Fatal("Proof(5) on a 1-leaf tree should fail")
	}
}

func TestAppendRejectsPastCapacity(t *testing.T) {
	tree, _ := NewTree(1, primitives.Hash32{})
	if _, _, err := tree.Append(leafOf(1)); err != nil {
		t.Fatalf("first append: %v", err)
	}
	if _, _, err := tree.Append(leafOf(2)); err != nil {
		t.Fatalf("second append: %v", err)
	}
	if _, _, err := tree.Append(leafOf(3)); err == nil {
		t.Fatal("append past capacity should fail")
	}
}

func TestRootChangesDeterministicallyWithSameLeaves(t *testing.T) {
	t1, _ := NewTree(3, primitives.Hash32{})
	t2, _ := NewTree(3, primitives.Hash32{})

	for _, b := range []byte{0x0A, 0x0B, 0x0C} {
		if _, _, err := t1.Append(leafOf(b)); err != nil {
			t.Fatal(err)
		}
		if _, _, err := t2.Append(leafOf(b)); err != nil {
			t.Fatal(err)
		}
	}
	if t1.Root() != t2.Root() {
		t.Fatal("identical leaf sequences produced different roots")
	}
}
