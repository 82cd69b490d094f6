package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mindweave/mindweave/backend-go/internal/document"
)

const schema = `
CREATE TABLE IF NOT EXISTS mind_maps (
	id          TEXT PRIMARY KEY,
	name        TEXT NOT NULL DEFAULT '',
	node_count  INTEGER NOT NULL DEFAULT 0,
	document    JSONB NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS mind_maps_updated_at_idx ON mind_maps (updated_at DESC);
`

// NewPool connects to PostgreSQL and verifies the connection.
func NewPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

// Postgres stores each map as one JSONB row.
type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

// Migrate creates the table if it does not exist.
func (p *Postgres) Migrate(ctx context.Context) error {
	if _, err := p.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

func (p *Postgres) Load(ctx context.Context, id string) (*document.Document, error) {
	var data []byte
	err := p.pool.QueryRow(ctx, `SELECT document FROM mind_maps WHERE id = $1`, id).Scan(&data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("load %s: %w", id, err)
	}
	doc, _, err := document.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", id, err)
	}
	return doc, nil
}

func (p *Postgres) Save(ctx context.Context, doc *document.Document) error {
	if doc == nil || doc.ID == "" {
		return fmt.Errorf("save: %w: missing id", document.ErrInvalid)
	}
	data, err := doc.Marshal()
	if err != nil {
		return fmt.Errorf("save %s: %w", doc.ID, err)
	}
	err = p.pool.QueryRow(ctx, `
		INSERT INTO mind_maps (id, name, node_count, document)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE
		SET name = EXCLUDED.name,
		    node_count = EXCLUDED.node_count,
		    document = EXCLUDED.document,
		    updated_at = now()
		RETURNING updated_at`,
		doc.ID, doc.ProjectName, summarize(doc).Nodes, data,
	).Scan(&doc.UpdatedAt)
	if err != nil {
		return fmt.Errorf("save %s: %w", doc.ID, err)
	}
	return nil
}

func (p *Postgres) Delete(ctx context.Context, id string) error {
	tag, err := p.pool.Exec(ctx, `DELETE FROM mind_maps WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

func (p *Postgres) List(ctx context.Context) ([]Summary, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT id, name, node_count, updated_at
		FROM mind_maps
		ORDER BY updated_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("list maps: %w", err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Summary, error) {
		var s Summary
		err := row.Scan(&s.ID, &s.Name, &s.Nodes, &s.UpdatedAt)
		return s, err
	})
	if err != nil {
		return nil, fmt.Errorf("list maps: %w", err)
	}
	return out, nil
}
