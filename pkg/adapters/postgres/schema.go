package postgres

import "context"

const schemaSQL = `
CREATE TABLE IF NOT EXISTS weave_checkpoints (
    run_id     TEXT PRIMARY KEY,
    graph      TEXT NOT NULL DEFAULT '',
    node       TEXT NOT NULL DEFAULT '',
    next       TEXT NOT NULL DEFAULT '',
    label      TEXT NOT NULL DEFAULT '',
    step       INTEGER NOT NULL DEFAULT 0,
    status     TEXT NOT NULL DEFAULT 'running',
    state      JSONB NOT NULL DEFAULT '{}',
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_weave_checkpoints_graph ON weave_checkpoints(graph);
CREATE INDEX IF NOT EXISTS idx_weave_checkpoints_updated ON weave_checkpoints(updated_at);
`

// CreateSchema creates the weave_checkpoints table if it doesn't exist.
func (s *Store) CreateSchema(ctx context.Context) error {
	_, err := s.db.Exec(ctx, schemaSQL)
	return err
}

// DropSchema drops the weave_checkpoints table.
func (s *Store) DropSchema(ctx context.Context) error {
	_, err := s.db.Exec(ctx, `DROP TABLE IF EXISTS weave_checkpoints;`)
	return err
}
