package shieldpool

import "errors"

// Sentinel errors, grouped by error-class bucket. Callers wrap these
// with fmt.Errorf("...: %w", Err...) to attach context; callers test
// with errors.Is against these values.
var (
	// Validation
	ErrInvalidInstructionData = errors.New("shieldpool: invalid instruction data")
	ErrInvalidAmount          = errors.New("shieldpool: invalid amount")

	// NotFound
	ErrRootNotFound = errors.New("shieldpool: root not found in ring")
	ErrSwapNotFound = errors.New("shieldpool: swap state not found")

	// Conflict / DoubleSpend
	ErrCommitmentAlreadyExists = errors.New("shieldpool: commitment already exists")
	ErrDoubleSpend             = errors.New("shieldpool: nullifier already spent")

	// Authorization
	ErrUnauthorized = errors.New("shieldpool: unauthorized signer")

	// Crypto
	ErrProofInvalid       = errors.New("shieldpool: proof verification failed")
	ErrInvalidOutputsHash = errors.New("shieldpool: outputs_hash mismatch")

	// Conservation
	ErrConservation = errors.New("shieldpool: sum(outputs) + fee != amount")

	// Economic
	ErrInsufficientLamports = errors.New("shieldpool: insufficient pool lamports")
	ErrSwapSlippage         = errors.New("shieldpool: swap output below minimum")

	// Swap lifecycle
	ErrSwapNotTimedOut = errors.New("shieldpool: swap has not reached timeout_slot")
	ErrSwapTimedOut    = errors.New("shieldpool: swap past timeout_slot")

	// Stake reconciliation
	ErrStakeHashMismatch = errors.New("shieldpool: H(stake_account) != stake_account_hash")

	// PoW gating
	ErrNoClaimConsumer = errors.New("shieldpool: no scramble-registry claim consumer configured")
)
