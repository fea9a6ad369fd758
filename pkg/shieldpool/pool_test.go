package shieldpool

import (
	"testing"

	"github.com/rawblock/cloak-pool/pkg/primitives"
)

func hashOf(b byte) Hash32 {
	var h Hash32
	for i := range h {
		h[i] = b
	}
	return h
}

func acceptAllVerifier() ProofVerifier {
	return VerifierFunc(func(proofBytes, publicInputs []byte, vkeyHash [32]byte) error {
		return nil
	})
}

// withdrawFixture builds a pool with one deposit and a pushed root,
// returning the pool plus the values a caller would submit to Withdraw.
func withdrawFixture(t *testing.T) (*ShieldPool, PublicInputs, Pubkey, uint64) {
	t.Helper()
	admin := hashOf(0xAA)
	sp := New(Hash32{}, admin, acceptAllVerifier(), nil)

	skSpend := hashOf(0x11)
	r := hashOf(0x22)
	amount := uint64(1_000_000_000)
	pkSpend := primitives.PkSpend(skSpend)
	commitment := primitives.Commitment(amount, r, skSpend)

	leafIndex, err := sp.Deposit(amount, commitment)
	if err != nil {
		t.Fatalf("Deposit: %v", err)
	}
	if leafIndex != 0 {
		t.Fatalf("expected leaf_index 0, got %d", leafIndex)
	}
	_ = pkSpend

	root := hashOf(0x33) // stands in for the indexer-computed root over this single leaf
	if err := sp.AdminPushRoot(admin, root); err != nil {
		t.Fatalf("AdminPushRoot: %v", err)
	}

	nullifier := primitives.Nullifier(skSpend, leafIndex)
	recipient := hashOf(0x01)
	fee := primitives.Fee(amount)
	recipientAmount := amount - fee
	outputsHash := primitives.OutputsHashSingle(recipient, recipientAmount)

	pub := PublicInputs{Root: root, Nullifier: nullifier, OutputsHash: outputsHash, Amount: amount}
	return sp, pub, recipient, recipientAmount
}

func TestWithdrawCreditsAndDebitsCorrectly(t *testing.T) {
	sp, pub, recipient, recipientAmount := withdrawFixture(t)

	result, err := sp.Withdraw(WithdrawRequest{
		ProofBytes:      []byte{0x01},
		Public:          pub,
		Recipient:       recipient,
		RecipientAmount: recipientAmount,
	})
	if err != nil {
		t.Fatalf("Withdraw: %v", err)
	}
	if result.RecipientAmount != 992_500_000 {
		t.Fatalf("expected recipient amount 992500000, got %d", result.RecipientAmount)
	}
	if result.TotalFee != 7_500_000 {
		t.Fatalf("expected fee 7500000, got %d", result.TotalFee)
	}
	if sp.Pool.Balance() != 0 {
		t.Fatalf("expected pool drained to 0, got %d", sp.Pool.Balance())
	}
	if sp.Treasury.Balance() != 7_500_000 {
		t.Fatalf("expected treasury 7500000, got %d", sp.Treasury.Balance())
	}
	if got := sp.Recipients.Balance(recipient); got != 992_500_000 {
		t.Fatalf("expected recipient balance 992500000, got %d", got)
	}
}

// TestWithdrawRejectsRepeatedNullifier: repeating a successful
// withdraw's nullifier must fail without touching balances.
func TestWithdrawRejectsRepeatedNullifier(t *testing.T) {
	sp, pub, recipient, recipientAmount := withdrawFixture(t)

	req := WithdrawRequest{ProofBytes: []byte{0x01}, Public: pub, Recipient: recipient, RecipientAmount: recipientAmount}
	if _, err := sp.Withdraw(req); err != nil {
		t.Fatalf("first Withdraw: %v", err)
	}

	poolBefore := sp.Pool.Balance()
	treasuryBefore := sp.Treasury.Balance()
	recipientBefore := sp.Recipients.Balance(recipient)

	_, err := sp.Withdraw(req)
	if err == nil {
		t.Fatalf("expected second Withdraw to fail with double-spend")
	}
	if err != ErrDoubleSpend {
		t.Fatalf("expected ErrDoubleSpend, got %v", err)
	}
	if sp.Pool.Balance() != poolBefore || sp.Treasury.Balance() != treasuryBefore || sp.Recipients.Balance(recipient) != recipientBefore {
		t.Fatalf("balances changed on rejected double-spend")
	}
}

// TestWithdrawRejectsEvictedRoot: once a root has been evicted from
// the ring by 64 newer pushes, a withdraw against it fails with
// RootNotFound.
func TestWithdrawRejectsEvictedRoot(t *testing.T) {
	sp, pub, recipient, recipientAmount := withdrawFixture(t)
	admin := sp.Pool.Admin

	for i := 0; i < 65; i++ {
		if err := sp.AdminPushRoot(admin, hashOf(byte(i+100))); err != nil {
			t.Fatalf("push unrelated root %d: %v", i, err)
		}
	}

	_, err := sp.Withdraw(WithdrawRequest{ProofBytes: []byte{0x01}, Public: pub, Recipient: recipient, RecipientAmount: recipientAmount})
	if err != ErrRootNotFound {
		t.Fatalf("expected ErrRootNotFound, got %v", err)
	}
}

func TestWithdrawRejectsBadOutputsHash(t *testing.T) {
	sp, pub, recipient, recipientAmount := withdrawFixture(t)
	pub.OutputsHash = hashOf(0xFF)

	_, err := sp.Withdraw(WithdrawRequest{ProofBytes: []byte{0x01}, Public: pub, Recipient: recipient, RecipientAmount: recipientAmount})
	if err != ErrInvalidOutputsHash {
		t.Fatalf("expected ErrInvalidOutputsHash, got %v", err)
	}
}

func TestWithdrawRejectsWrongFee(t *testing.T) {
	sp, pub, recipient, _ := withdrawFixture(t)
	wrongAmount := uint64(999_999_999) // does not satisfy amount - fee(amount) = wrongAmount
	pub.OutputsHash = primitives.OutputsHashSingle(recipient, wrongAmount)

	_, err := sp.Withdraw(WithdrawRequest{ProofBytes: []byte{0x01}, Public: pub, Recipient: recipient, RecipientAmount: wrongAmount})
	if err != ErrConservation {
		t.Fatalf("expected ErrConservation, got %v", err)
	}
}

func TestDepositRejectsDuplicateCommitment(t *testing.T) {
	admin := hashOf(0xAA)
	sp := New(Hash32{}, admin, acceptAllVerifier(), nil)
	commitment := hashOf(0x55)

	if _, err := sp.Deposit(100, commitment); err != nil {
		t.Fatalf("first Deposit: %v", err)
	}
	if _, err := sp.Deposit(100, commitment); err != ErrCommitmentAlreadyExists {
		t.Fatalf("expected ErrCommitmentAlreadyExists, got %v", err)
	}
}

func TestAdminPushRootRejectsNonAdmin(t *testing.T) {
	admin := hashOf(0xAA)
	sp := New(Hash32{}, admin, acceptAllVerifier(), nil)
	if err := sp.AdminPushRoot(hashOf(0xBB), hashOf(0x01)); err != ErrUnauthorized {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}
