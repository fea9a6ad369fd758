package shieldpool

import (
	"testing"

	"github.com/rawblock/cloak-pool/pkg/primitives"
)

// legFixture deposits amount under a fresh commitment and returns the
// leg plus the nullifier that Withdraw/BatchWithdraw would consume.
func legFixture(t *testing.T, sp *ShieldPool, root Hash32, skSeed byte, amount uint64, recipientSeed byte) (BatchWithdrawLeg, Hash32) {
	t.Helper()
	skSpend := hashOf(skSeed)
	r := hashOf(skSeed + 1)
	commitment := primitives.Commitment(amount, r, skSpend)
	leafIndex, err := sp.Deposit(amount, commitment)
	if err != nil {
		t.Fatalf("Deposit: %v", err)
	}
	nullifier := primitives.Nullifier(skSpend, leafIndex)
	recipient := hashOf(recipientSeed)
	fee := primitives.Fee(amount)
	recipientAmount := amount - fee
	outputsHash := primitives.OutputsHashSingle(recipient, recipientAmount)
	return BatchWithdrawLeg{
		Public:          PublicInputs{Root: root, Nullifier: nullifier, OutputsHash: outputsHash, Amount: amount},
		Recipient:       recipient,
		RecipientAmount: recipientAmount,
	}, nullifier
}

func TestBatchWithdrawHappyPath(t *testing.T) {
	admin := hashOf(0xAA)
	sp := New(Hash32{}, admin, acceptAllVerifier(), nil)
	root := hashOf(0x10)
	if err := sp.AdminPushRoot(admin, root); err != nil {
		t.Fatalf("AdminPushRoot: %v", err)
	}

	leg1, _ := legFixture(t, sp, root, 0x01, 1_000_000_000, 0x41)
	leg2, _ := legFixture(t, sp, root, 0x05, 2_000_000_000, 0x42)

	results, err := sp.BatchWithdraw([]byte{0x01}, []BatchWithdrawLeg{leg1, leg2})
	if err != nil {
		t.Fatalf("BatchWithdraw: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if sp.Nullifiers.Count() != 2 {
		t.Fatalf("expected 2 nullifiers recorded, got %d", sp.Nullifiers.Count())
	}
}

// TestBatchWithdrawRollsBackOnSecondLegFailure: a batch where the
// second leg reuses an already-spent nullifier must fail as a whole,
// and the first leg's nullifier must not remain.
func TestBatchWithdrawRollsBackOnSecondLegFailure(t *testing.T) {
	admin := hashOf(0xAA)
	sp := New(Hash32{}, admin, acceptAllVerifier(), nil)
	root := hashOf(0x10)
	if err := sp.AdminPushRoot(admin, root); err != nil {
		t.Fatalf("AdminPushRoot: %v", err)
	}

	leg1, nf1 := legFixture(t, sp, root, 0x01, 1_000_000_000, 0x41)
	leg2, _ := legFixture(t, sp, root, 0x05, 2_000_000_000, 0x42)
	// Force leg2 to carry a nullifier already present in the shard by
	// pre-spending it outside the batch.
	if err := sp.Nullifiers.Add(leg2.Public.Nullifier); err != nil {
		t.Fatalf("seed pre-spent nullifier: %v", err)
	}

	poolBefore := sp.Pool.Balance()
	_, err := sp.BatchWithdraw([]byte{0x01}, []BatchWithdrawLeg{leg1, leg2})
	if err != ErrDoubleSpend {
		t.Fatalf("expected ErrDoubleSpend, got %v", err)
	}
	if sp.Nullifiers.Contains(nf1) {
		t.Fatalf("leg1's nullifier should have been rolled back")
	}
	if sp.Pool.Balance() != poolBefore {
		t.Fatalf("pool balance changed despite rolled-back batch: before=%d after=%d", poolBefore, sp.Pool.Balance())
	}
}

func TestDecodeBatchWithdrawCount(t *testing.T) {
	cases := []struct {
		name    string
		dataLen int
		wantN   int
		wantErr bool
	}{
		{"one leg", proofBundleLen + 104 + 1 + 41, 1, false},
		{"three legs", proofBundleLen + 3*104 + 1 + 3*41, 3, false},
		{"zero legs invalid", proofBundleLen + 1, 0, true},
		{"misaligned", proofBundleLen + 104 + 1 + 40, 0, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			n, err := DecodeBatchWithdrawCount(tc.dataLen)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error, got n=%d", n)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if n != tc.wantN {
				t.Fatalf("expected N=%d, got %d", tc.wantN, n)
			}
		})
	}
}
