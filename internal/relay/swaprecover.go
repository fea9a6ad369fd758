package relay

import (
	"context"
	"encoding/base64"
	"fmt"

	"go.uber.org/zap"

	"github.com/rawblock/cloak-pool/internal/ledgerrpc"
)

// RecoverStuckSwaps scans jobs stuck mid-swap (SwapPhase neither empty
// nor Done) and either resubmits the closer transaction or, past the
// SwapState's timeout_slot, drives the refund path. This folds the
// original standalone check_swap_state/complete_swap recovery
// utilities into one method reachable from the relay's own binary
// with a -recover-swaps flag, instead of a second entrypoint.
func RecoverStuckSwaps(ctx context.Context, store *Store, client *ledgerrpc.Client, submitter *Submitter, log *zap.Logger) error {
	stuck, err := store.ListByStatus(ctx, StatusProcessing, MaxBatchSize)
	if err != nil {
		return fmt.Errorf("relay: recover swaps: list stuck jobs: %w", err)
	}

	currentSlot, err := client.GetSlot(ctx)
	if err != nil {
		return fmt.Errorf("relay: recover swaps: get slot: %w", err)
	}

	recovered := 0
	for _, job := range stuck {
		if job.Kind != KindWithdrawSwap || job.SwapPhase == SwapPhaseNone || job.SwapPhase == SwapPhaseDone {
			continue
		}

		if job.TimeoutSlot != 0 && currentSlot > job.TimeoutSlot {
			log.Info("swap past timeout_slot, routing to refund", zap.String("job_id", job.ID), zap.Uint64("timeout_slot", job.TimeoutSlot))
			payload := append([]byte("refund_swap"), job.Nullifier[:]...)
			encodedTx := encodeForSubmit(payload)
			if _, outcome, err := submitter.Submit(ctx, encodedTx); err != nil && outcome != OutcomeCompleted {
				log.Warn("refund submission failed", zap.String("job_id", job.ID), zap.Error(err))
				continue
			}
			job.Status = StatusFailed
			job.LastError = "swap timed out, refunded to treasury"
			_ = store.UpdateJob(ctx, job)
			recovered++
			continue
		}

		switch job.SwapPhase {
		case SwapPhaseAwaitingWithdraw:
			job.Status = StatusQueued
			_ = store.UpdateJob(ctx, job)
		case SwapPhaseAwaitingExecute:
			payload := append([]byte("execute_swap"), job.Nullifier[:]...)
			encodedTx := encodeForSubmit(payload)
			sig, outcome, err := submitter.Submit(ctx, encodedTx)
			if outcome == OutcomeCompleted {
				job.ExecuteSig = sig
				job.SwapPhase = SwapPhaseDone
				job.Status = StatusCompleted
				_ = store.UpdateJob(ctx, job)
				recovered++
			} else if err != nil {
				log.Warn("execute leg recovery resubmission failed", zap.String("job_id", job.ID), zap.Error(err))
			}
		}
	}

	log.Info("swap recovery pass complete", zap.Int("jobs_recovered", recovered), zap.Int("jobs_scanned", len(stuck)))
	return nil
}

func encodeForSubmit(payload []byte) string {
	return base64.StdEncoding.EncodeToString(payload)
}
