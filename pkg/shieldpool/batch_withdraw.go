package shieldpool

import (
	"encoding/binary"
	"fmt"
)

const (
	proofBundleLen   = 260
	publicValuesLen  = 104
	legHeaderLen     = 1  // num_w
	legFixedBodyLen  = 41 // recipient(32) + amount(8) = 40, plus num_outputs(1) = 41
)

// BatchWithdrawLeg is one decoded leg of a BatchWithdraw instruction:
// a public-input tuple plus its single recipient/amount.
type BatchWithdrawLeg struct {
	Public          PublicInputs
	Recipient       Pubkey
	RecipientAmount uint64
}

// DecodeBatchWithdrawCount recovers N, the number of legs, from the
// total instruction data length: N is the unique positive integer
// satisfying len == 260 + N*104 + 1 + N*41.
func DecodeBatchWithdrawCount(dataLen int) (int, error) {
	// len - 260 - 1 == N*(104+41) == N*145
	remaining := dataLen - proofBundleLen - legHeaderLen
	if remaining <= 0 || remaining%(publicValuesLen+legFixedBodyLen) != 0 {
		return 0, fmt.Errorf("%w: length %d does not decode to an integer leg count", ErrInvalidInstructionData, dataLen)
	}
	n := remaining / (publicValuesLen + legFixedBodyLen)
	if n <= 0 {
		return 0, fmt.Errorf("%w: decoded leg count %d is not positive", ErrInvalidInstructionData, n)
	}
	return n, nil
}

// DecodeBatchWithdrawData parses the raw instruction data into a proof
// bundle and N legs, re-deriving and cross-checking num_w from byte
// 260+N*104 against the length-derived leg count.
func DecodeBatchWithdrawData(data []byte) (proofBytes []byte, legs []BatchWithdrawLeg, err error) {
	n, err := DecodeBatchWithdrawCount(len(data))
	if err != nil {
		return nil, nil, err
	}

	proofBytes = data[0:proofBundleLen]
	publicValuesStart := proofBundleLen
	publicValuesEnd := publicValuesStart + n*publicValuesLen
	numWOffset := publicValuesEnd
	declaredN := data[numWOffset]
	if int(declaredN) != n {
		return nil, nil, fmt.Errorf("%w: declared num_w=%d does not match length-derived N=%d", ErrInvalidInstructionData, declaredN, n)
	}

	legsStart := numWOffset + 1
	legs = make([]BatchWithdrawLeg, n)
	for i := 0; i < n; i++ {
		pubOff := publicValuesStart + i*publicValuesLen
		var pub PublicInputs
		copy(pub.Root[:], data[pubOff:pubOff+32])
		copy(pub.Nullifier[:], data[pubOff+32:pubOff+64])
		copy(pub.OutputsHash[:], data[pubOff+64:pubOff+96])
		pub.Amount = binary.LittleEndian.Uint64(data[pubOff+96 : pubOff+104])

		legOff := legsStart + i*legFixedBodyLen
		numOutputs := data[legOff]
		if numOutputs != 1 {
			return nil, nil, fmt.Errorf("%w: leg %d has num_outputs=%d, only single-recipient legs are supported", ErrInvalidInstructionData, i, numOutputs)
		}
		var recipient Pubkey
		copy(recipient[:], data[legOff+1:legOff+33])
		amount := binary.LittleEndian.Uint64(data[legOff+33 : legOff+41])

		legs[i] = BatchWithdrawLeg{Public: pub, Recipient: recipient, RecipientAmount: amount}
	}

	return proofBytes, legs, nil
}

// batchLegUndo is everything BatchWithdraw must reverse for one
// already-applied leg if a later leg in the same batch fails. A real
// on-chain instruction gets this atomicity for free from whole-
// transaction rollback; here it has to be tracked and reversed by
// hand, one leg at a time, in the opposite order it was applied.
type batchLegUndo struct {
	nullifier       Hash32
	poolAmount      uint64
	recipient       Pubkey
	recipientAmount uint64
	fee             uint64
}

// BatchWithdraw covers all legs with a single verifier call, but each
// leg is re-checked individually for root freshness, double-spend,
// outputs_hash binding and conservation. Every value movement a leg
// applies — nullifier append, pool debit, recipient credit, treasury
// credit — is transactional: if any later leg fails, all of them are
// unwound in reverse so a failed batch leaves no trace.
func (sp *ShieldPool) BatchWithdraw(proofBytes []byte, legs []BatchWithdrawLeg) ([]*WithdrawResult, error) {
	if sp.Verifier != nil {
		// One verifier call covers the whole bundle; pack all public
		// inputs back-to-back as the circuit expects.
		packed := make([]byte, 0, len(legs)*publicValuesLen)
		for _, leg := range legs {
			packed = append(packed, packPublicInputs(leg.Public)...)
		}
		if err := sp.Verifier.Verify(proofBytes, packed, WithdrawVkeyHash); err != nil {
			return nil, ErrProofInvalid
		}
	}

	var applied []batchLegUndo
	rollback := func() {
		for i := len(applied) - 1; i >= 0; i-- {
			u := applied[i]
			sp.Treasury.debit(u.fee)
			sp.Recipients.debit(u.recipient, u.recipientAmount)
			sp.Pool.mu.Lock()
			sp.Pool.credit(u.poolAmount)
			sp.Pool.mu.Unlock()
			sp.Nullifiers.remove(u.nullifier)
		}
	}

	results := make([]*WithdrawResult, 0, len(legs))
	for _, leg := range legs {
		totalFee, err := sp.verifyWithdrawCommon(nil, leg.Public, leg.Recipient, leg.RecipientAmount)
		if err != nil {
			rollback()
			return nil, err
		}
		if sp.Pool.Balance() < leg.Public.Amount {
			rollback()
			return nil, ErrInsufficientLamports
		}
		if err := sp.Nullifiers.Add(leg.Public.Nullifier); err != nil {
			rollback()
			return nil, err
		}

		sp.Pool.mu.Lock()
		if err := sp.Pool.debit(leg.Public.Amount); err != nil {
			sp.Pool.mu.Unlock()
			sp.Nullifiers.remove(leg.Public.Nullifier)
			rollback()
			return nil, err
		}
		sp.Pool.mu.Unlock()
		sp.Recipients.Credit(leg.Recipient, leg.RecipientAmount)
		sp.Treasury.credit(totalFee)

		applied = append(applied, batchLegUndo{
			nullifier:       leg.Public.Nullifier,
			poolAmount:      leg.Public.Amount,
			recipient:       leg.Recipient,
			recipientAmount: leg.RecipientAmount,
			fee:             totalFee,
		})
		results = append(results, &WithdrawResult{RecipientAmount: leg.RecipientAmount, TotalFee: totalFee})
	}

	return results, nil
}
