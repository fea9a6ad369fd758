package scramble

import "errors"

var (
	ErrSlotTooOld         = errors.New("scramble: slot outside retained range")
	ErrSlotHashMismatch   = errors.New("scramble: slot_hash does not match recent-slot-hashes entry")
	ErrInvalidProofHash   = errors.New("scramble: proof_hash does not match recomputed hash")
	ErrDifficultyNotMet   = errors.New("scramble: proof_hash is not below current_difficulty")
	ErrMaxConsumesInvalid = errors.New("scramble: max_consumes out of range")
	ErrClaimNotFound      = errors.New("scramble: claim not found")
	ErrClaimExpired       = errors.New("scramble: claim has expired")
	ErrClaimNotMined      = errors.New("scramble: claim is not in Mined state")
	ErrUnauthorized       = errors.New("scramble: unauthorized caller")
)
