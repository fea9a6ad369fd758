package relay

import (
	"testing"

	"github.com/rawblock/cloak-pool/pkg/primitives"
)

func TestValidateWithdrawRequestEnforcesConservation(t *testing.T) {
	outputs := []Output{{Recipient: primitives.Hash32{1}, Amount: 900}}
	if err := ValidateWithdrawRequest(outputs, 0, 1000, 100, []byte{1}); err != nil {
		t.Fatalf("expected valid request, got %v", err)
	}
	if err := ValidateWithdrawRequest(outputs, 0, 1000, 50, []byte{1}); err == nil {
		t.Fatal("expected conservation mismatch to fail")
	}
}

func TestValidateWithdrawRequestRejectsTooManyOutputs(t *testing.T) {
	outputs := make([]Output, MaxOutputs+1)
	for i := range outputs {
		outputs[i] = Output{Recipient: primitives.Hash32{byte(i)}, Amount: 1}
	}
	if err := ValidateWithdrawRequest(outputs, 0, uint64(len(outputs)), 0, []byte{1}); err == nil {
		t.Fatal("expected too-many-outputs to fail")
	}
}

func TestValidateWithdrawRequestRejectsZeroAmountOutput(t *testing.T) {
	outputs := []Output{{Recipient: primitives.Hash32{1}, Amount: 0}}
	if err := ValidateWithdrawRequest(outputs, 0, 100, 100, []byte{1}); err == nil {
		t.Fatal("expected zero-amount output to fail")
	}
}

func TestValidateWithdrawRequestRejectsExcessiveFeeBps(t *testing.T) {
	outputs := []Output{{Recipient: primitives.Hash32{1}, Amount: 900}}
	if err := ValidateWithdrawRequest(outputs, MaxFeeBps+1, 1000, 100, []byte{1}); err == nil {
		t.Fatal("expected fee_bps over max to fail")
	}
}

func TestExtractNullifierReadsSecondFieldOfPublicInputs(t *testing.T) {
	root := primitives.Hash32{0xAA}
	nullifier := primitives.Hash32{0xBB}
	outputsHash := primitives.Hash32{0xCC}
	amount := primitives.LE8(12345)

	publicInputs := append(append(append(append([]byte{}, root[:]...), nullifier[:]...), outputsHash[:]...), amount...)

	got, err := ExtractNullifier(publicInputs)
	if err != nil {
		t.Fatalf("ExtractNullifier: %v", err)
	}
	if got != nullifier {
		t.Fatalf("ExtractNullifier = %x, want %x", got, nullifier)
	}
}

func TestExtractNullifierRejectsShortInput(t *testing.T) {
	if _, err := ExtractNullifier(make([]byte, 40)); err == nil {
		t.Fatal("expected short public_inputs to fail")
	}
}
