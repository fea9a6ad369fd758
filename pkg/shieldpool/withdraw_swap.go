package shieldpool

import (
	"encoding/binary"

	"github.com/rawblock/cloak-pool/pkg/primitives"
)

// WithdrawSwapRequest is the decoded form of the WithdrawSwap
// instruction data, escrow phase.
type WithdrawSwapRequest struct {
	ProofBytes      []byte
	Public          PublicInputs
	OutputMint      Pubkey
	RecipientATA    Pubkey
	MinOutputAmount uint64
	CurrentSlot     uint64
}

// WithdrawSwap runs the standard checks (with the swap-flavored
// outputs_hash), marks the nullifier consumed, creates a SwapState
// keyed by nullifier, and routes amount-variable_fee lamports pool ->
// treasury -> SwapState, with the treasury keeping variable_fee.
func (sp *ShieldPool) WithdrawSwap(req WithdrawSwapRequest) (*SwapState, error) {
	publicAmount := req.Public.Amount
	wantOutputsHash := primitives.OutputsHashSwap(req.OutputMint, req.RecipientATA, req.MinOutputAmount, publicAmount)

	if sp.Verifier != nil {
		packed := packPublicInputs(req.Public)
		if err := sp.Verifier.Verify(req.ProofBytes, packed, WithdrawVkeyHash); err != nil {
			return nil, ErrProofInvalid
		}
	}
	if !sp.Roots.Contains(req.Public.Root) {
		return nil, ErrRootNotFound
	}
	if sp.Nullifiers.Contains(req.Public.Nullifier) {
		return nil, ErrDoubleSpend
	}
	if wantOutputsHash != req.Public.OutputsHash {
		return nil, ErrInvalidOutputsHash
	}
	variableFee := publicAmount * primitives.FeeBpsNumerator / primitives.FeeBpsDenominator
	if variableFee > publicAmount {
		return nil, ErrConservation
	}
	if sp.Pool.Balance() < publicAmount {
		return nil, ErrInsufficientLamports
	}

	if err := sp.Nullifiers.Add(req.Public.Nullifier); err != nil {
		return nil, err
	}

	sp.Pool.mu.Lock()
	if err := sp.Pool.debit(publicAmount); err != nil {
		sp.Pool.mu.Unlock()
		return nil, err
	}
	sp.Pool.mu.Unlock()

	sp.Treasury.credit(variableFee)
	escrowed := publicAmount - variableFee

	state := &SwapState{
		Nullifier:       req.Public.Nullifier,
		SolAmount:       escrowed,
		OutputMint:      req.OutputMint,
		RecipientATA:    req.RecipientATA,
		MinOutputAmount: req.MinOutputAmount,
		CreatedSlot:     req.CurrentSlot,
		TimeoutSlot:     req.CurrentSlot + SwapTimeoutSlots,
	}

	sp.swapsMu.Lock()
	sp.swaps[req.Public.Nullifier] = state
	sp.swapsMu.Unlock()

	return state, nil
}

// TokenAccountHolding is the minimal parsed view of a host-ledger
// token account needed by ExecuteSwap: the token amount lives at
// bytes 64..72 of the standard token account layout.
type TokenAccountHolding struct {
	Amount uint64
}

// ParseTokenAccountAmount extracts the amount field from a standard
// token account's raw data bytes.
func ParseTokenAccountAmount(data []byte) (uint64, bool) {
	if len(data) < 72 {
		return 0, false
	}
	return binary.LittleEndian.Uint64(data[64:72]), true
}

// ExecuteSwap is the custodial closing path: it verifies the
// SwapState for nullifier exists, checks the recipient ATA now holds
// at least min_output_amount of the output mint, and closes the
// SwapState, crediting its rent/remaining lamports to the caller.
func (sp *ShieldPool) ExecuteSwap(nullifier Hash32, caller Pubkey, recipientATAHolding uint64) error {
	sp.swapsMu.Lock()
	state, ok := sp.swaps[nullifier]
	if ok {
		delete(sp.swaps, nullifier)
	}
	sp.swapsMu.Unlock()
	if !ok {
		return ErrSwapNotFound
	}

	if recipientATAHolding < state.MinOutputAmount {
		return ErrSwapSlippage
	}

	sp.Recipients.Credit(caller, state.SolAmount) // closing drains the escrowed lamports to the caller
	return nil
}

// ExecuteSwapViaOrca is the atomic closing path: the SwapState PDA
// would sign for itself to drive the swap CPI and the output lands
// directly in recipient_ata. The CPI to the external swap venue is out
// of scope; this method performs the bookkeeping half (closing
// SwapState) once the caller reports the CPI succeeded.
func (sp *ShieldPool) ExecuteSwapViaOrca(nullifier Hash32, cpiSucceeded bool) error {
	sp.swapsMu.Lock()
	_, ok := sp.swaps[nullifier]
	if ok && cpiSucceeded {
		delete(sp.swaps, nullifier)
	}
	sp.swapsMu.Unlock()
	if !ok {
		return ErrSwapNotFound
	}
	if !cpiSucceeded {
		return ErrSwapSlippage
	}
	return nil
}

// RefundSwap is the timeout path: if currentSlot has passed the
// SwapState's timeout_slot, any caller may close it and return the
// escrowed amount to the treasury, which keeps custody of pool-owned
// escrow rather than crediting a new recipient.
func (sp *ShieldPool) RefundSwap(nullifier Hash32, currentSlot uint64) (uint64, error) {
	sp.swapsMu.Lock()
	state, ok := sp.swaps[nullifier]
	if ok {
		if currentSlot <= state.TimeoutSlot {
			sp.swapsMu.Unlock()
			return 0, ErrSwapNotTimedOut
		}
		delete(sp.swaps, nullifier)
	}
	sp.swapsMu.Unlock()
	if !ok {
		return 0, ErrSwapNotFound
	}

	sp.Treasury.credit(state.SolAmount)
	return state.SolAmount, nil
}

// GetSwapState returns the in-flight swap for nullifier, if any.
func (sp *ShieldPool) GetSwapState(nullifier Hash32) (*SwapState, bool) {
	sp.swapsMu.Lock()
	defer sp.swapsMu.Unlock()
	state, ok := sp.swaps[nullifier]
	return state, ok
}
