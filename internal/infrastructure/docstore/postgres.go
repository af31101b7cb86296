package docstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS remote_documents (
	user_id    TEXT        NOT NULL,
	collection TEXT        NOT NULL,
	id         TEXT        NOT NULL,
	partition  TEXT        NOT NULL,
	body       JSONB       NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (user_id, collection, id)
);
CREATE INDEX IF NOT EXISTS remote_documents_partition ON remote_documents (user_id, collection, partition);
`

// Postgres is a Store backed by a single JSONB table.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres wraps a connection pool.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

// Migrate creates the document table when missing.
func (p *Postgres) Migrate(ctx context.Context) error {
	if _, err := p.pool.Exec(ctx, postgresSchema); err != nil {
		return fmt.Errorf("create remote_documents: %w", err)
	}
	return nil
}

func (p *Postgres) Put(ctx context.Context, userID, collection string, doc Document) (bool, error) {
	const q = `
INSERT INTO remote_documents (user_id, collection, id, partition, body, updated_at)
VALUES ($1, $2, $3, $4, $5, now())
ON CONFLICT (user_id, collection, id)
DO UPDATE SET partition = EXCLUDED.partition, body = EXCLUDED.body, updated_at = now()
RETURNING (xmax = 0)`
	var inserted bool
	if err := p.pool.QueryRow(ctx, q, userID, collection, doc.ID, doc.Partition, []byte(doc.Body)).Scan(&inserted); err != nil {
		return false, fmt.Errorf("put document %s: %w", doc.ID, err)
	}
	return inserted, nil
}

func (p *Postgres) Get(ctx context.Context, userID, collection, id string) (Document, error) {
	const q = `SELECT id, partition, body, updated_at FROM remote_documents WHERE user_id = $1 AND collection = $2 AND id = $3`
	var doc Document
	err := p.pool.QueryRow(ctx, q, userID, collection, id).Scan(&doc.ID, &doc.Partition, &doc.Body, &doc.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Document{}, ErrNotFound
		}
		return Document{}, fmt.Errorf("get document %s: %w", id, err)
	}
	return doc, nil
}

func (p *Postgres) List(ctx context.Context, userID, collection, partition string) ([]Document, error) {
	const q = `SELECT id, partition, body, updated_at FROM remote_documents WHERE user_id = $1 AND collection = $2 AND partition = $3 ORDER BY id`
	rows, err := p.pool.Query(ctx, q, userID, collection, partition)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	docs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Document, error) {
		var doc Document
		err := row.Scan(&doc.ID, &doc.Partition, &doc.Body, &doc.UpdatedAt)
		return doc, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan documents: %w", err)
	}
	return docs, nil
}

func (p *Postgres) Delete(ctx context.Context, userID, collection, id string) error {
	tag, err := p.pool.Exec(ctx, `DELETE FROM remote_documents WHERE user_id = $1 AND collection = $2 AND id = $3`, userID, collection, id)
	if err != nil {
		return fmt.Errorf("delete document %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *Postgres) DeletePartition(ctx context.Context, userID, collection, partition string) (int, error) {
	tag, err := p.pool.Exec(ctx, `DELETE FROM remote_documents WHERE user_id = $1 AND collection = $2 AND partition = $3`, userID, collection, partition)
	if err != nil {
		return 0, fmt.Errorf("delete partition %s: %w", partition, err)
	}
	return int(tag.RowsAffected()), nil
}
