package vectorindex

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// pgQuerier implements Querier on a pgx connection pool.
type pgQuerier struct {
	pool *pgxpool.Pool
}

// NewPgQuerier wraps a pgx pool as a Querier. The pool must have pgvector
// types registered (see app.Setup).
func NewPgQuerier(pool *pgxpool.Pool) Querier {
	return &pgQuerier{pool: pool}
}

func (q *pgQuerier) UpsertPage(ctx context.Context, id, namespace string, embedding pgvector.Vector, metadata []byte) error {
	_, err := q.pool.Exec(ctx, `
		INSERT INTO pages (id, namespace, embedding, metadata)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET
			namespace = EXCLUDED.namespace,
			embedding = EXCLUDED.embedding,
			metadata = EXCLUDED.metadata,
			updated_at = now()
	`, id, namespace, embedding, metadata)
	if err != nil {
		return fmt.Errorf("upserting page: %w", err)
	}
	return nil
}

func (q *pgQuerier) SearchPages(ctx context.Context, namespace string, embedding pgvector.Vector, limit int) ([]pageRow, error) {
	rows, err := q.pool.Query(ctx, `
		SELECT id, 1 - (embedding <=> $1) AS similarity, metadata
		FROM pages
		WHERE namespace = $2
		ORDER BY embedding <=> $1
		LIMIT $3
	`, embedding, namespace, limit)
	if err != nil {
		return nil, fmt.Errorf("querying pages: %w", err)
	}
	defer rows.Close()

	var out []pageRow
	for rows.Next() {
		var row pageRow
		if err := rows.Scan(&row.ID, &row.Score, &row.Metadata); err != nil {
			return nil, fmt.Errorf("scanning page row: %w", err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating page rows: %w", err)
	}
	return out, nil
}

func (q *pgQuerier) CountByNamespace(ctx context.Context) (map[string]int, error) {
	rows, err := q.pool.Query(ctx, `
		SELECT namespace, count(*) FROM pages GROUP BY namespace
	`)
	if err != nil {
		return nil, fmt.Errorf("counting pages: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var ns string
		var count int
		if err := rows.Scan(&ns, &count); err != nil {
			return nil, fmt.Errorf("scanning count row: %w", err)
		}
		counts[ns] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating count rows: %w", err)
	}
	return counts, nil
}

func (q *pgQuerier) ListMetadataByNamespace(ctx context.Context, namespace string) ([][]byte, error) {
	rows, err := q.pool.Query(ctx, `
		SELECT metadata FROM pages WHERE namespace = $1
	`, namespace)
	if err != nil {
		return nil, fmt.Errorf("listing metadata: %w", err)
	}
	defer rows.Close()

	var out [][]byte
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scanning metadata row: %w", err)
		}
		out = append(out, raw)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating metadata rows: %w", err)
	}
	return out, nil
}

func (q *pgQuerier) DeleteByDocument(ctx context.Context, namespace, document string) (int64, error) {
	tag, err := q.pool.Exec(ctx, `
		DELETE FROM pages WHERE namespace = $1 AND metadata ->> 'document' = $2
	`, namespace, document)
	if err != nil {
		return 0, fmt.Errorf("deleting pages: %w", err)
	}
	return tag.RowsAffected(), nil
}
