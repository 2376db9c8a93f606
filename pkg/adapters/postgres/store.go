package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aretw0/weave/pkg/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store implements ports.CheckpointStore using PostgreSQL via pgx.
// One row per run; Save upserts, so the latest checkpoint wins.
type Store struct {
	db *pgxpool.Pool
}

// New creates a Store backed by the given pgx connection pool.
func New(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

// Connect opens a pool for dsn and makes sure the schema exists.
func Connect(ctx context.Context, dsn string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: connect: %w", err)
	}
	s := New(pool)
	if err := s.CreateSchema(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: create schema: %w", err)
	}
	return s, nil
}

// Save upserts the checkpoint of a run.
func (s *Store) Save(ctx context.Context, runID string, cp *domain.Checkpoint) error {
	state, err := json.Marshal(cp.State)
	if err != nil {
		return fmt.Errorf("postgres: marshal state: %w", err)
	}
	updatedAt := cp.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}

	_, err = s.db.Exec(ctx, `
		INSERT INTO weave_checkpoints (run_id, graph, node, next, label, step, status, state, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (run_id) DO UPDATE SET
			graph = EXCLUDED.graph,
			node = EXCLUDED.node,
			next = EXCLUDED.next,
			label = EXCLUDED.label,
			step = EXCLUDED.step,
			status = EXCLUDED.status,
			state = EXCLUDED.state,
			updated_at = EXCLUDED.updated_at`,
		runID, cp.Graph, cp.Node, cp.Next, cp.Label, cp.Step, string(cp.Status), state, updatedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: save checkpoint %s: %w", runID, err)
	}
	return nil
}

// Load retrieves the checkpoint of a run.
func (s *Store) Load(ctx context.Context, runID string) (*domain.Checkpoint, error) {
	var (
		cp     domain.Checkpoint
		status string
		state  []byte
	)
	err := s.db.QueryRow(ctx, `
		SELECT run_id, graph, node, next, label, step, status, state, updated_at
		FROM weave_checkpoints WHERE run_id = $1`, runID,
	).Scan(&cp.RunID, &cp.Graph, &cp.Node, &cp.Next, &cp.Label, &cp.Step, &status, &state, &cp.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrCheckpointNotFound
		}
		return nil, fmt.Errorf("postgres: load checkpoint %s: %w", runID, err)
	}

	cp.Status = domain.RunStatus(status)
	if err := json.Unmarshal(state, &cp.State); err != nil {
		return nil, fmt.Errorf("postgres: unmarshal state: %w", err)
	}
	return &cp, nil
}

// Delete removes the checkpoint of a run.
func (s *Store) Delete(ctx context.Context, runID string) error {
	if _, err := s.db.Exec(ctx, `DELETE FROM weave_checkpoints WHERE run_id = $1`, runID); err != nil {
		return fmt.Errorf("postgres: delete checkpoint %s: %w", runID, err)
	}
	return nil
}

// List returns run ids ordered by last update, newest first.
func (s *Store) List(ctx context.Context) ([]string, error) {
	rows, err := s.db.Query(ctx, `SELECT run_id FROM weave_checkpoints ORDER BY updated_at DESC, run_id`)
	if err != nil {
		return nil, fmt.Errorf("postgres: list checkpoints: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("postgres: scan run ids: %w", err)
	}
	return ids, nil
}

// Close releases the connection pool.
func (s *Store) Close() error {
	s.db.Close()
	return nil
}
