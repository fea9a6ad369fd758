package relay

import (
	"context"
	"encoding/base64"
	"encoding/binary"
	"encoding/hex"
	"fmt"

	"go.uber.org/zap"

	"github.com/rawblock/cloak-pool/internal/ledgerrpc"
	"github.com/rawblock/cloak-pool/pkg/primitives"
)

// Processor builds and submits a transaction for a single job,
// classifying the outcome and updating the job row accordingly.
type Processor struct {
	store     *Store
	client    *ledgerrpc.Client
	submitter *Submitter
	claims    *ClaimManager
	log       *zap.Logger
}

func NewProcessor(store *Store, client *ledgerrpc.Client, submitter *Submitter, claims *ClaimManager, log *zap.Logger) *Processor {
	return &Processor{store: store, client: client, submitter: submitter, claims: claims, log: log}
}

// Process runs one job through the builder/submission pipeline. It is
// the function a Scheduler window invokes per buffered job.
func (p *Processor) Process(ctx context.Context, job *Job) {
	if len(job.ProofBytes) == 0 {
		p.log.Debug("job awaiting proof, requeueing", zap.String("job_id", job.ID))
		return
	}

	if job.Kind == KindWithdrawSwap {
		p.processSwap(ctx, job)
		return
	}

	job.Status = StatusProcessing
	if err := p.store.UpdateJob(ctx, job); err != nil {
		p.log.Error("failed to mark job processing", zap.Error(err))
		return
	}

	if job.Kind != KindUnstake {
		if err := p.preflight(job); err != nil {
			p.fail(ctx, job, err)
			return
		}
	}

	exists, err := p.client.AccountExists(ctx, hex.EncodeToString(job.Nullifier[:]))
	if err == nil && exists {
		job.Status = StatusCompleted
		_ = p.store.UpdateJob(ctx, job)
		return
	}

	jitterSleep(ctx, DefaultBlockTime)

	encodedTx, err := p.build(job)
	if err != nil {
		p.fail(ctx, job, err)
		return
	}

	sig, outcome, err := p.submitter.Submit(ctx, encodedTx)
	switch outcome {
	case OutcomeCompleted:
		job.WithdrawSig = sig
		job.Status = StatusCompleted
		_ = p.store.UpdateJob(ctx, job)
	case OutcomeFailed:
		if IsAlreadyProcessed(err) {
			job.Status = StatusCompleted
			_ = p.store.UpdateJob(ctx, job)
			return
		}
		p.fail(ctx, job, err)
	case OutcomeRetry:
		p.requeue(ctx, job, err)
	}
}

func (p *Processor) fail(ctx context.Context, job *Job, err error) {
	job.Status = StatusFailed
	job.LastError = err.Error()
	if updErr := p.store.UpdateJob(ctx, job); updErr != nil {
		p.log.Error("failed to persist job failure", zap.Error(updErr))
	}
}

func (p *Processor) requeue(ctx context.Context, job *Job, err error) {
	job.RetryCount++
	job.LastError = err.Error()
	if job.RetryCount >= MaxRetries {
		job.Status = StatusFailed
	} else {
		job.Status = StatusQueued
	}
	if updErr := p.store.UpdateJob(ctx, job); updErr != nil {
		p.log.Error("failed to persist job retry", zap.Error(updErr))
	}
}

// preflight recomputes outputs_hash from the job's recipients and
// amounts, compares it against public_inputs, verifies conservation,
// and cross-checks the nullifier carried in public_inputs against the
// one the store indexed the job under.
func (p *Processor) preflight(job *Job) error {
	recomputedNullifier, err := ExtractNullifier(job.PublicInputs)
	if err != nil {
		return fmt.Errorf("relay: preflight: %w", err)
	}
	if recomputedNullifier != job.Nullifier {
		return fmt.Errorf("relay: preflight: nullifier mismatch between job and public_inputs")
	}

	var sum uint64
	for _, o := range job.Outputs {
		sum += o.Amount
	}
	if len(job.Outputs) > 0 {
		const amountOffset = 96
		if len(job.PublicInputs) < amountOffset+8 {
			return fmt.Errorf("relay: preflight: public_inputs too short for amount")
		}
		amount := binary.LittleEndian.Uint64(job.PublicInputs[amountOffset : amountOffset+8])
		if sum+primitives.Fee(amount) != amount {
			return fmt.Errorf("relay: preflight: sum(outputs)=%d + fee=%d != amount=%d", sum, primitives.Fee(amount), amount)
		}
	}

	var outputsHash primitives.Hash32
	if len(job.Outputs) == 1 {
		outputsHash = primitives.OutputsHashSingle(job.Outputs[0].Recipient, job.Outputs[0].Amount)
	} else {
		// Batch legs each carry their own outputs_hash inside the
		// encoded proof bundle; the aggregate conservation check here
		// is the cross-leg sum, not a single recomputed hash.
		return nil
	}

	const outputsHashOffset = 64
	if len(job.PublicInputs) < outputsHashOffset+32 {
		return fmt.Errorf("relay: preflight: public_inputs too short for outputs_hash")
	}
	var claimedHash primitives.Hash32
	copy(claimedHash[:], job.PublicInputs[outputsHashOffset:outputsHashOffset+32])
	if claimedHash != outputsHash {
		return fmt.Errorf("relay: preflight: outputs_hash mismatch")
	}
	return nil
}

// build assembles the base64-encoded transaction payload for
// submission. There is no real transaction-signing surface available
// off-chain in this simulated deployment, so the "transaction" is the
// job's own public inputs and proof, framed the way a signed
// transaction envelope would be, with an attached claim when the
// claim manager has one ready.
func (p *Processor) build(job *Job) (string, error) {
	payload := make([]byte, 0, len(job.PublicInputs)+len(job.ProofBytes)+64)
	payload = append(payload, byte(len(job.Kind)))
	payload = append(payload, job.Kind...)
	payload = append(payload, job.PublicInputs...)
	payload = append(payload, job.ProofBytes...)

	if p.claims != nil && job.Kind == KindWithdraw {
		if _, batchHash, _, ok := p.claims.Acquire(primitives.Hash32{}); ok {
			payload = append(payload, batchHash[:]...)
		}
	}

	return base64.StdEncoding.EncodeToString(payload), nil
}
