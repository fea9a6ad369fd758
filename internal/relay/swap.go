package relay

import (
	"context"
	"encoding/base64"

	"go.uber.org/zap"
)

// processSwap drives a withdraw_swap job through its two on-chain
// transactions, advancing SwapPhase after each confirmation so a
// crash resumes at the correct step instead of resubmitting
// WithdrawSwap against an already-spent nullifier.
func (p *Processor) processSwap(ctx context.Context, job *Job) {
	switch job.SwapPhase {
	case SwapPhaseNone, "":
		job.SwapPhase = SwapPhaseAwaitingWithdraw
		fallthrough
	case SwapPhaseAwaitingWithdraw:
		p.submitWithdrawLeg(ctx, job)
	case SwapPhaseAwaitingExecute:
		p.submitExecuteLeg(ctx, job)
	case SwapPhaseDone:
		job.Status = StatusCompleted
		_ = p.store.UpdateJob(ctx, job)
	}
}

func (p *Processor) submitWithdrawLeg(ctx context.Context, job *Job) {
	job.Status = StatusProcessing
	_ = p.store.UpdateJob(ctx, job)

	if err := p.preflight(job); err != nil {
		p.fail(ctx, job, err)
		return
	}

	jitterSleep(ctx, DefaultBlockTime)

	payload := append([]byte("withdraw_swap"), job.PublicInputs...)
	payload = append(payload, job.ProofBytes...)
	encodedTx := base64.StdEncoding.EncodeToString(payload)

	sig, outcome, err := p.submitter.Submit(ctx, encodedTx)
	switch outcome {
	case OutcomeCompleted:
		job.WithdrawSig = sig
		job.SwapPhase = SwapPhaseAwaitingExecute
		_ = p.store.UpdateJob(ctx, job)
		p.submitExecuteLeg(ctx, job)
	case OutcomeFailed:
		p.fail(ctx, job, err)
	case OutcomeRetry:
		p.requeue(ctx, job, err)
	}
}

// submitExecuteLeg composes and submits the closer transaction
// (ExecuteSwap / ExecuteSwapViaOrca). The off-chain swap composition
// itself belongs to a route-quoting component outside this relay's
// scope; here the closer transaction is built directly from the
// escrowed state the WithdrawSwap confirmation already established.
func (p *Processor) submitExecuteLeg(ctx context.Context, job *Job) {
	if job.WithdrawSig == "" {
		p.log.Warn("execute leg reached with no withdraw signature recorded", zap.String("job_id", job.ID))
		job.SwapPhase = SwapPhaseAwaitingWithdraw
		_ = p.store.UpdateJob(ctx, job)
		return
	}

	payload := append([]byte("execute_swap"), job.Nullifier[:]...)
	encodedTx := base64.StdEncoding.EncodeToString(payload)

	sig, outcome, err := p.submitter.Submit(ctx, encodedTx)
	switch outcome {
	case OutcomeCompleted:
		job.ExecuteSig = sig
		job.SwapPhase = SwapPhaseDone
		job.Status = StatusCompleted
		_ = p.store.UpdateJob(ctx, job)
	case OutcomeFailed:
		p.fail(ctx, job, err)
	case OutcomeRetry:
		p.requeue(ctx, job, err)
	}
}
