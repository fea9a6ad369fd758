package relay

import (
	"fmt"

	"github.com/rawblock/cloak-pool/pkg/primitives"
)

// MinFeeBps and MaxFeeBps bound the variable fee a caller may request
// on a withdraw or batch-withdraw job; ValidateWithdrawRequest rejects
// a fee_bps above MaxFeeBps before the request reaches the nullifier
// index.
const (
	MinFeeBps = 0
	MaxFeeBps = 1000
)

// ValidateWithdrawRequest checks an ingested withdraw/batch-withdraw
// job against the conservation and shape rules the host ledger would
// itself enforce, so malformed requests fail fast at the HTTP layer
// instead of burning a submission attempt.
func ValidateWithdrawRequest(outputs []Output, feeBps uint32, amount, fee uint64, publicInputs []byte) error {
	if len(outputs) == 0 {
		return fmt.Errorf("relay: validation: at least one output required")
	}
	if len(outputs) > MaxOutputs {
		return fmt.Errorf("relay: validation: %d outputs exceeds max %d", len(outputs), MaxOutputs)
	}
	if feeBps > MaxFeeBps {
		return fmt.Errorf("relay: validation: fee_bps %d exceeds max %d", feeBps, MaxFeeBps)
	}

	var sum uint64
	for i, o := range outputs {
		if o.Amount == 0 {
			return fmt.Errorf("relay: validation: output %d has zero amount", i)
		}
		sum += o.Amount
	}
	if sum+fee != amount {
		return fmt.Errorf("relay: validation: sum(outputs)=%d + fee=%d != amount=%d", sum, fee, amount)
	}

	if len(publicInputs) == 0 {
		return fmt.Errorf("relay: validation: public_inputs is empty")
	}
	return nil
}

// ExtractNullifier pulls the 32-byte nullifier out of a public-inputs
// blob laid out root(32) || nullifier(32) || outputs_hash(32) ||
// amount(8), matching pkg/shieldpool's PublicInputs encoding.
func ExtractNullifier(publicInputs []byte) (primitives.Hash32, error) {
	const nullifierOffset = 32
	if len(publicInputs) < nullifierOffset+32 {
		return primitives.Hash32{}, fmt.Errorf("relay: validation: public_inputs too short for nullifier")
	}
	var n primitives.Hash32
	copy(n[:], publicInputs[nullifierOffset:nullifierOffset+32])
	return n, nil
}
