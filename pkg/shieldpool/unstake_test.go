package shieldpool

import (
	"testing"

	"github.com/rawblock/cloak-pool/pkg/primitives"
)

func TestUnstakeToPoolPushesDegenerateRoot(t *testing.T) {
	admin := hashOf(0xAA)
	sp := New(Hash32{}, admin, acceptAllVerifier(), nil)

	stakeAccount := hashOf(0x77)
	commitment := hashOf(0x88)
	req := UnstakeRequest{
		ProofBytes:        []byte{0x01},
		Commitment:        commitment,
		StakeAccountHash:  primitives.H(stakeAccount[:]),
		Amount:            5_000_000_000,
		StakeAccount:      stakeAccount,
		WithdrawAuthority: hashOf(0x33),
	}

	result, err := sp.UnstakeToPool(req)
	if err != nil {
		t.Fatalf("UnstakeToPool: %v", err)
	}
	if result.Commitment != commitment {
		t.Fatalf("expected returned commitment to match input")
	}
	if sp.Pool.Balance() != req.Amount {
		t.Fatalf("expected pool credited by %d, got %d", req.Amount, sp.Pool.Balance())
	}
	if !sp.Roots.Contains(commitment) {
		t.Fatalf("expected commitment pushed into the root ring")
	}
}

func TestUnstakeToPoolRejectsStakeHashMismatch(t *testing.T) {
	admin := hashOf(0xAA)
	sp := New(Hash32{}, admin, acceptAllVerifier(), nil)

	req := UnstakeRequest{
		ProofBytes:       []byte{0x01},
		Commitment:       hashOf(0x88),
		StakeAccountHash: hashOf(0xFF), // does not match H(stake account)
		Amount:           1,
		StakeAccount:     hashOf(0x77),
	}

	_, err := sp.UnstakeToPool(req)
	if err != ErrStakeHashMismatch {
		t.Fatalf("expected ErrStakeHashMismatch, got %v", err)
	}
	if sp.Pool.Balance() != 0 {
		t.Fatalf("expected pool untouched on rejected unstake")
	}
}
