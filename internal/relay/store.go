package relay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/rawblock/cloak-pool/pkg/primitives"
)

var ErrDuplicateNullifier = errors.New("relay: nullifier already queued")
var ErrJobNotFound = errors.New("relay: job not found")

// Store is the relay's job table plus the in-memory nullifier index
// that makes ingestion synchronous with respect to local double-spend
// detection: a nullifier is reserved in nullSeen the instant a job is
// accepted, before the database round-trip completes.
type Store struct {
	pool *pgxpool.Pool
	log  *zap.Logger

	mu       sync.Mutex
	nullSeen map[primitives.Hash32]string // nullifier -> job id
}

func Connect(ctx context.Context, connStr string, log *zap.Logger) (*Store, error) {
	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("relay: connect to postgres: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		return nil, fmt.Errorf("relay: ping postgres: %w", err)
	}
	log.Info("connected to postgres")
	return &Store{pool: pool, log: log, nullSeen: make(map[primitives.Hash32]string)}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

func (s *Store) InitSchema(ctx context.Context) error {
	schemaBytes, err := os.ReadFile("internal/relay/schema.sql")
	if err != nil {
		return fmt.Errorf("relay: read schema file: %w", err)
	}
	if _, err := s.pool.Exec(ctx, string(schemaBytes)); err != nil {
		return fmt.Errorf("relay: execute schema: %w", err)
	}

	rows, err := s.pool.Query(ctx, `SELECT nullifier, id FROM jobs`)
	if err != nil {
		return fmt.Errorf("relay: warm nullifier index: %w", err)
	}
	defer rows.Close()
	s.mu.Lock()
	for rows.Next() {
		var nullBytes []byte
		var id string
		if err := rows.Scan(&nullBytes, &id); err != nil {
			s.mu.Unlock()
			return fmt.Errorf("relay: scan nullifier row: %w", err)
		}
		var n primitives.Hash32
		copy(n[:], nullBytes)
		s.nullSeen[n] = id
	}
	s.mu.Unlock()

	s.log.Info("relay schema initialized", zap.Int("warm_nullifiers", len(s.nullSeen)))
	return nil
}

// InsertJob reserves job.Nullifier in the in-memory index and
// persists the job row in a single transaction. Returns
// ErrDuplicateNullifier if the nullifier is already queued.
func (s *Store) InsertJob(ctx context.Context, job *Job) error {
	s.mu.Lock()
	if _, exists := s.nullSeen[job.Nullifier]; exists {
		s.mu.Unlock()
		return ErrDuplicateNullifier
	}
	s.nullSeen[job.Nullifier] = job.ID
	s.mu.Unlock()

	if err := s.persistInsert(ctx, job); err != nil {
		s.mu.Lock()
		delete(s.nullSeen, job.Nullifier)
		s.mu.Unlock()
		return err
	}
	return nil
}

func (s *Store) persistInsert(ctx context.Context, job *Job) error {
	outputsJSON, err := json.Marshal(job.Outputs)
	if err != nil {
		return fmt.Errorf("relay: marshal outputs: %w", err)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("relay: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx,
		`INSERT INTO jobs (id, kind, status, outputs, fee_bps, public_inputs, proof_bytes, nullifier,
		                   retry_count, last_error, swap_phase, timeout_slot)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
		job.ID, string(job.Kind), string(job.Status), outputsJSON, job.FeeBps,
		job.PublicInputs, job.ProofBytes, job.Nullifier[:], job.RetryCount, job.LastError,
		string(job.SwapPhase), job.TimeoutSlot,
	)
	if err != nil {
		return fmt.Errorf("relay: insert job: %w", err)
	}

	if _, err := tx.Exec(ctx,
		`INSERT INTO nullifier_index (nullifier, job_id) VALUES ($1, $2)`,
		job.Nullifier[:], job.ID,
	); err != nil {
		return fmt.Errorf("relay: insert nullifier index: %w", err)
	}

	return tx.Commit(ctx)
}

// UpdateJob persists a job's mutable fields after a status-machine
// transition. Row mutations are single-statement, matching the
// status-machine invariant that only one stage writes a given field.
func (s *Store) UpdateJob(ctx context.Context, job *Job) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE jobs SET status=$2, proof_bytes=$3, retry_count=$4, last_error=$5,
		                 swap_phase=$6, withdraw_sig=$7, execute_sig=$8, updated_at=NOW()
		 WHERE id=$1`,
		job.ID, string(job.Status), job.ProofBytes, job.RetryCount, job.LastError,
		string(job.SwapPhase), job.WithdrawSig, job.ExecuteSig,
	)
	if err != nil {
		return fmt.Errorf("relay: update job: %w", err)
	}
	return nil
}

func (s *Store) GetJob(ctx context.Context, id string) (*Job, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, kind, status, outputs, fee_bps, public_inputs, proof_bytes, nullifier,
		        retry_count, last_error, swap_phase, withdraw_sig, execute_sig, timeout_slot, created_at, updated_at
		 FROM jobs WHERE id=$1`, id)
	job, err := scanJob(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrJobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("relay: get job: %w", err)
	}
	return job, nil
}

// ListByStatus returns up to limit jobs in status, oldest first, for
// the background collector to refill the in-memory processing buffer.
func (s *Store) ListByStatus(ctx context.Context, status Status, limit int) ([]*Job, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, kind, status, outputs, fee_bps, public_inputs, proof_bytes, nullifier,
		        retry_count, last_error, swap_phase, withdraw_sig, execute_sig, timeout_slot, created_at, updated_at
		 FROM jobs WHERE status=$1 ORDER BY created_at ASC LIMIT $2`,
		string(status), limit)
	if err != nil {
		return nil, fmt.Errorf("relay: list by status: %w", err)
	}
	defer rows.Close()

	var out []*Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("relay: scan job: %w", err)
		}
		out = append(out, job)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanJob(row rowScanner) (*Job, error) {
	var job Job
	var kind, status, swapPhase string
	var outputsJSON []byte
	var nullBytes []byte

	if err := row.Scan(
		&job.ID, &kind, &status, &outputsJSON, &job.FeeBps, &job.PublicInputs, &job.ProofBytes,
		&nullBytes, &job.RetryCount, &job.LastError, &swapPhase, &job.WithdrawSig, &job.ExecuteSig,
		&job.TimeoutSlot, &job.CreatedAt, &job.UpdatedAt,
	); err != nil {
		return nil, err
	}

	job.Kind = Kind(kind)
	job.Status = Status(status)
	job.SwapPhase = SwapPhase(swapPhase)
	copy(job.Nullifier[:], nullBytes)
	if err := json.Unmarshal(outputsJSON, &job.Outputs); err != nil {
		return nil, fmt.Errorf("relay: unmarshal outputs: %w", err)
	}
	return &job, nil
}
