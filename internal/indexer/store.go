package indexer

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/rawblock/cloak-pool/pkg/primitives"
)

// Store persists leaves and changed Merkle path nodes to Postgres:
// one transactional write per accepted request, with ON CONFLICT
// guarding the dedupe invariant.
type Store struct {
	pool *pgxpool.Pool
	log  *zap.Logger
}

// Connect opens a pgxpool connection and pings it, failing fast if the
// database is unreachable at startup.
func Connect(ctx context.Context, connStr string, log *zap.Logger) (*Store, error) {
	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("indexer: connect to postgres: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		return nil, fmt.Errorf("indexer: ping postgres: %w", err)
	}
	log.Info("connected to postgres")
	return &Store{pool: pool, log: log}, nil
}

// Close releases the connection pool.
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// InitSchema loads and executes schema.sql relative to the process
// working directory.
func (s *Store) InitSchema(ctx context.Context) error {
	schemaBytes, err := os.ReadFile("internal/indexer/schema.sql")
	if err != nil {
		return fmt.Errorf("indexer: read schema file: %w", err)
	}
	if _, err := s.pool.Exec(ctx, string(schemaBytes)); err != nil {
		return fmt.Errorf("indexer: execute schema: %w", err)
	}
	s.log.Info("indexer schema initialized")
	return nil
}

// NoteRow is one entry returned by the notes range query.
type NoteRow struct {
	Index        uint64
	Commitment   primitives.Hash32
	TxSignature  string
}

// InsertLeaf records a newly appended leaf and its changed path nodes
// in a single transaction. Returns ErrCommitmentExists if the
// commitment was already indexed.
func (s *Store) InsertLeaf(ctx context.Context, index uint64, commitment primitives.Hash32, encryptedOutput []byte, txSignature string, slot uint64, pathNodes map[uint32]primitives.Hash32) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("indexer: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx,
		`INSERT INTO leaves (leaf_index, commitment, encrypted_output, tx_signature, slot)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (commitment) DO NOTHING`,
		index, commitment[:], encryptedOutput, txSignature, slot,
	)
	if err != nil {
		return fmt.Errorf("indexer: insert leaf: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrCommitmentExists
	}

	for level, hash := range pathNodes {
		idx := index >> level
		_, err := tx.Exec(ctx,
			`INSERT INTO merkle_nodes (level, idx, hash) VALUES ($1, $2, $3)
			 ON CONFLICT (level, idx) DO UPDATE SET hash = EXCLUDED.hash`,
			level, idx, hash[:],
		)
		if err != nil {
			return fmt.Errorf("indexer: upsert merkle node: %w", err)
		}
	}

	if _, err := tx.Exec(ctx,
		`INSERT INTO metadata (key, value) VALUES ('next_leaf_index', $1)
		 ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value`,
		fmt.Sprintf("%d", index+1),
	); err != nil {
		return fmt.Errorf("indexer: update next_leaf_index: %w", err)
	}

	return tx.Commit(ctx)
}

// NotesRange returns leaves in [start, end) ordered by index.
func (s *Store) NotesRange(ctx context.Context, start, end uint64) ([]NoteRow, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT leaf_index, commitment, tx_signature FROM leaves
		 WHERE leaf_index >= $1 AND leaf_index < $2 ORDER BY leaf_index ASC`,
		start, end,
	)
	if err != nil {
		return nil, fmt.Errorf("indexer: query notes range: %w", err)
	}
	defer rows.Close()

	var out []NoteRow
	for rows.Next() {
		var idx uint64
		var commitment []byte
		var sig *string
		if err := rows.Scan(&idx, &commitment, &sig); err != nil {
			return nil, fmt.Errorf("indexer: scan note row: %w", err)
		}
		var row NoteRow
		row.Index = idx
		copy(row.Commitment[:], commitment)
		if sig != nil {
			row.TxSignature = *sig
		}
		out = append(out, row)
	}
	if out == nil {
		out = []NoteRow{}
	}
	return out, nil
}

// RecordPushedRoot logs a root the admin pushed on-chain, for audit.
// Nothing in this package reads the recorded roots back.
func (s *Store) RecordPushedRoot(ctx context.Context, root primitives.Hash32, treeSize uint64) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO pushed_roots (root, tree_size) VALUES ($1, $2) ON CONFLICT (root) DO NOTHING`,
		root[:], treeSize,
	)
	if err != nil {
		return fmt.Errorf("indexer: record pushed root: %w", err)
	}
	return nil
}
