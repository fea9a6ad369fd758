package relay

import (
	"context"
	"crypto/rand"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/rawblock/cloak-pool/internal/ledgerrpc"
)

// jitterSleep sleeps a uniform random 0..=3 block times to break
// submission-time linkability between jobs processed in the same
// window.
func jitterSleep(ctx context.Context, blockTime time.Duration) {
	var b [1]byte
	_, _ = rand.Read(b[:])
	n := time.Duration(b[0]%4) * blockTime
	select {
	case <-ctx.Done():
	case <-time.After(n):
	}
}

// DefaultBlockTime matches the host's nominal slot duration.
const DefaultBlockTime = 400 * time.Millisecond

// ConfirmTimeout bounds how long the submitter polls for signature
// confirmation before classifying the submission as Transient.
const ConfirmTimeout = 30 * time.Second

// Outcome classifies a submission attempt's result for the job
// status-machine transition.
type Outcome int

const (
	OutcomeCompleted Outcome = iota // success, or idempotent "already processed"
	OutcomeFailed                  // terminal: account/proof-shape error, no retry
	OutcomeRetry                    // transient: requeue with backoff
)

// Submitter sends a built transaction to the host ledger, polls for
// confirmation, and classifies the outcome per the error taxonomy.
type Submitter struct {
	client     *ledgerrpc.Client
	maxRetries int
	log        *zap.Logger
}

func NewSubmitter(client *ledgerrpc.Client, maxRetries int, log *zap.Logger) *Submitter {
	return &Submitter{client: client, maxRetries: maxRetries, log: log}
}

// Submit sends encodedTx, retrying transient failures with exponential
// backoff whose intervals carry the backoff library's default ±50%
// randomization (not full jitter), and polls for confirmation via the
// host's signature-status sysvar.
func (s *Submitter) Submit(ctx context.Context, encodedTx string) (signature string, outcome Outcome, err error) {
	boff := backoff.NewExponentialBackOff()
	boff.InitialInterval = 250 * time.Millisecond
	boff.MaxInterval = 10 * time.Second
	boff.MaxElapsedTime = 0 // bounded below by maxRetries, not wall-clock
	withCtx := backoff.WithContext(boff, ctx)

	attempt := 0
	operation := func() error {
		attempt++
		sig, sendErr := s.client.SendTransaction(ctx, encodedTx)
		if sendErr == nil {
			signature = sig
			return nil
		}
		if isTerminalError(sendErr) {
			err = sendErr
			return backoff.Permanent(sendErr)
		}
		if attempt > s.maxRetries {
			err = fmt.Errorf("relay: submit: exceeded %d retries: %w", s.maxRetries, sendErr)
			return backoff.Permanent(err)
		}
		s.log.Warn("transient submit failure, retrying", zap.Int("attempt", attempt), zap.Error(sendErr))
		return sendErr
	}

	if retryErr := backoff.Retry(operation, withCtx); retryErr != nil {
		// backoff.Retry unwraps a Permanent error before returning it,
		// so classify the returned error itself.
		if isTerminalError(retryErr) {
			return "", OutcomeFailed, retryErr
		}
		return "", OutcomeRetry, retryErr
	}

	confirmed, confirmErr := s.awaitConfirmation(ctx, signature)
	if confirmErr != nil {
		return signature, OutcomeRetry, confirmErr
	}
	if !confirmed {
		return signature, OutcomeRetry, fmt.Errorf("relay: confirmation timed out for %s", signature)
	}
	return signature, OutcomeCompleted, nil
}

func asPermanent(err error, target **backoff.PermanentError) bool {
	if pe, ok := err.(*backoff.PermanentError); ok {
		*target = pe
		return true
	}
	return false
}

func (s *Submitter) awaitConfirmation(ctx context.Context, signature string) (bool, error) {
	deadline := time.Now().Add(ConfirmTimeout)
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for time.Now().Before(deadline) {
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-ticker.C:
		}

		statuses, err := s.client.GetSignatureStatuses(ctx, []string{signature})
		if err != nil {
			return false, err
		}
		if len(statuses) > 0 && statuses[0] != nil {
			st := statuses[0]
			if st.Err != nil {
				return false, fmt.Errorf("relay: transaction %s failed on-chain: %v", signature, st.Err)
			}
			if st.ConfirmationStatus == "confirmed" || st.ConfirmationStatus == "finalized" {
				return true, nil
			}
		}
	}
	return false, nil
}

// isTerminalError classifies account/proof-shape errors (and
// already-processed duplicates, which are idempotent successes) as
// not worth retrying.
func isTerminalError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	terminalSubstrings := []string{"invalid account", "already in use", "proof", "doublespend", "already processed"}
	for _, sub := range terminalSubstrings {
		if strings.Contains(msg, sub) {
			return true
		}
	}
	return false
}

// IsAlreadyProcessed reports whether err represents the idempotent
// "another path already consumed this nullifier" case, which the
// caller should treat as success rather than failure.
func IsAlreadyProcessed(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "already processed") || strings.Contains(msg, "doublespend")
}
