package primitives

import "testing"

func TestCommitmentAndNullifierDeterministic(t *testing.T) {
	var sk, r Hash32
	for i := range sk {
		sk[i] = 0x11
	}
	for i := range r {
		r[i] = 0x22
	}
	amount := uint64(1_000_000_000)

	c1 := Commitment(amount, r, sk)
	c2 := Commitment(amount, r, sk)
	if c1 != c2 {
		t.Fatalf("commitment is not deterministic: %x vs %x", c1, c2)
	}

	nf1 := Nullifier(sk, 0)
	nf2 := Nullifier(sk, 0)
	if nf1 != nf2 {
		t.Fatalf("nullifier is not deterministic: %x vs %x", nf1, nf2)
	}

	if amt2 := Commitment(amount+1, r, sk); amt2 == c1 {
		t.Fatalf("commitment did not change when amount changed")
	}
	if nf3 := Nullifier(sk, 1); nf3 == nf1 {
		t.Fatalf("nullifier did not change when leaf_index changed")
	}
}

func TestOutputsHashBinding(t *testing.T) {
	var a, b Hash32
	a[0] = 1
	b[0] = 2

	h1 := OutputsHashSingle(a, 100)
	h2 := OutputsHashSingle(a, 101)
	if h1 == h2 {
		t.Fatalf("outputs_hash did not change when amount changed")
	}

	h3 := OutputsHashSingle(b, 100)
	if h1 == h3 {
		t.Fatalf("outputs_hash did not change when recipient changed")
	}
}

func TestOutputsHashOrderDependence(t *testing.T) {
	var mint, ata Hash32
	mint[0], ata[0] = 1, 2

	orderA := OutputsHashSwap(mint, ata, 0, 0)
	orderB := OutputsHashSwap(ata, mint, 0, 0)
	if orderA == orderB {
		t.Fatalf("outputs_hash(a,b) should not equal outputs_hash(b,a) with overwhelming probability")
	}
}

func TestS1DepositWithdrawVectors(t *testing.T) {
	var sk, r, recipient Hash32
	for i := range sk {
		sk[i] = 0x11
	}
	for i := range r {
		r[i] = 0x22
	}
	for i := range recipient {
		recipient[i] = 0x01
	}
	amount := uint64(1_000_000_000)

	pk := PkSpend(sk)
	commitment := Commitment(amount, r, sk)
	wantCommitment := H(LE8(amount), r[:], pk[:])
	if commitment != wantCommitment {
		t.Fatalf("commitment mismatch")
	}

	nf := Nullifier(sk, 0)

	fee := Fee(amount)
	if fee != 7_500_000 {
		t.Fatalf("Fee(%d) = %d, want 7_500_000", amount, fee)
	}
	recipientAmount := amount - fee
	if recipientAmount != 992_500_000 {
		t.Fatalf("recipientAmount = %d, want 992_500_000", recipientAmount)
	}

	outputsHash := OutputsHashSingle(recipient, recipientAmount)
	if outputsHash != H(recipient[:], LE8(recipientAmount)) {
		t.Fatalf("outputs_hash mismatch")
	}

	_ = nf // nullifier is exercised by pkg/shieldpool's Withdraw tests
}
