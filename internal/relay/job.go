// Package relay ingests withdraw/unstake/swap requests, holds the
// local nullifier index that is the primary guard against double
// submission, and drives proof-ready jobs to the host ledger on a
// slot-windowed schedule.
package relay

import (
	"time"

	"github.com/rawblock/cloak-pool/pkg/primitives"
)

// Status is a job's position in the ingestion/processing state
// machine. Ingestion writes Queued; the scheduler writes Processing
// or Failed; a processor writes Completed.
type Status string

const (
	StatusQueued     Status = "Queued"
	StatusProcessing Status = "Processing"
	StatusCompleted  Status = "Completed"
	StatusFailed     Status = "Failed"
)

// Kind distinguishes the four transaction shapes the relay builds.
type Kind string

const (
	KindWithdraw      Kind = "withdraw"
	KindBatchWithdraw Kind = "batch_withdraw"
	KindWithdrawSwap  Kind = "withdraw_swap"
	KindUnstake       Kind = "unstake"
)

// SwapPhase tracks a withdraw_swap job through its two transactions so
// a crash mid-swap resumes at the correct step instead of re-running
// WithdrawSwap against an already-spent nullifier.
type SwapPhase string

const (
	SwapPhaseNone             SwapPhase = ""
	SwapPhaseAwaitingWithdraw SwapPhase = "awaiting_withdraw_confirm"
	SwapPhaseAwaitingExecute  SwapPhase = "awaiting_execute_confirm"
	SwapPhaseDone             SwapPhase = "done"
)

// Output is one recipient leg of a (batch-)withdraw job.
type Output struct {
	Recipient primitives.Hash32
	Amount    uint64
}

// Job is one unit of relay work: a withdraw, batch-withdraw, swap or
// unstake request moving through ingestion, scheduling and
// submission.
type Job struct {
	ID            string
	Kind          Kind
	Status        Status
	Outputs       []Output
	FeeBps        uint32
	PublicInputs  []byte
	ProofBytes    []byte
	Nullifier     primitives.Hash32
	RetryCount    int
	LastError     string
	SwapPhase     SwapPhase
	WithdrawSig   string
	ExecuteSig    string
	TimeoutSlot   uint64
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// MaxRetries bounds how many times a Transient failure requeues a job
// before it is marked Failed for good.
const MaxRetries = 8

// MaxOutputs caps the number of recipients a single (batch-)withdraw
// job may carry.
const MaxOutputs = 10
