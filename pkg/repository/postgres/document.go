package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/m-mizutani/goerr/v2"
	"github.com/pgvector/pgvector-go"
	"github.com/secmon-lab/ariadne/pkg/domain/model"
)

type documentRepository struct {
	pool *pgxpool.Pool
}

func (r *documentRepository) collectionID(ctx context.Context, tx pgx.Tx, name string) (uuid.UUID, error) {
	var id uuid.UUID
	_, err := tx.Exec(ctx,
		`INSERT INTO langchain_pg_collection (uuid, name, cmetadata) VALUES ($1, $2, '{}'::jsonb) ON CONFLICT (name) DO NOTHING`,
		uuid.New(), name,
	)
	if err != nil {
		return id, goerr.Wrap(err, "failed to create collection", goerr.V("collection", name))
	}
	if err := tx.QueryRow(ctx, `SELECT uuid FROM langchain_pg_collection WHERE name = $1`, name).Scan(&id); err != nil {
		return id, goerr.Wrap(err, "failed to get collection", goerr.V("collection", name))
	}
	return id, nil
}

func (r *documentRepository) Add(ctx context.Context, collection string, docs []*model.Document) error {
	if collection == "" {
		return goerr.New("collection name is required")
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return goerr.Wrap(err, "failed to begin transaction")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	collectionID, err := r.collectionID(ctx, tx, collection)
	if err != nil {
		return err
	}

	batch := &pgx.Batch{}
	for _, d := range docs {
		id := d.ID
		if id == "" {
			id = uuid.New().String()
		}
		metadata := d.Metadata
		if metadata == nil {
			metadata = map[string]string{}
		}
		batch.Queue(
			`INSERT INTO langchain_pg_embedding (id, collection_id, embedding, document, cmetadata) VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (id) DO UPDATE SET embedding = EXCLUDED.embedding, document = EXCLUDED.document, cmetadata = EXCLUDED.cmetadata`,
			id, collectionID, pgvector.NewVector(d.Embedding), d.Content, metadata,
		)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return goerr.Wrap(err, "failed to insert documents", goerr.V("collection", collection), goerr.V("count", len(docs)))
	}

	if err := tx.Commit(ctx); err != nil {
		return goerr.Wrap(err, "failed to commit documents", goerr.V("collection", collection))
	}
	return nil
}

func (r *documentRepository) FindNearest(ctx context.Context, collection string, embedding []float32, limit int) ([]*model.Document, error) {
	if limit <= 0 {
		return []*model.Document{}, nil
	}

	rows, err := r.pool.Query(ctx, `
		SELECT e.id, e.document, e.cmetadata, e.embedding, 1 - (e.embedding <=> $1) AS score
		FROM langchain_pg_embedding e
		JOIN langchain_pg_collection c ON e.collection_id = c.uuid
		WHERE c.name = $2
		ORDER BY e.embedding <=> $1
		LIMIT $3`,
		pgvector.NewVector(embedding), collection, limit,
	)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to query documents", goerr.V("collection", collection))
	}
	defer rows.Close()

	docs := make([]*model.Document, 0, limit)
	for rows.Next() {
		var (
			d        model.Document
			content  *string
			metadata map[string]any
			vec      pgvector.Vector
		)
		if err := rows.Scan(&d.ID, &content, &metadata, &vec, &d.Score); err != nil {
			return nil, goerr.Wrap(err, "failed to scan document", goerr.V("collection", collection))
		}
		if content != nil {
			d.Content = *content
		}
		d.Embedding = vec.Slice()
		d.Metadata = make(map[string]string, len(metadata))
		for k, v := range metadata {
			if s, ok := v.(string); ok {
				d.Metadata[k] = s
			} else {
				d.Metadata[k] = fmt.Sprint(v)
			}
		}
		docs = append(docs, &d)
	}
	if err := rows.Err(); err != nil {
		return nil, goerr.Wrap(err, "error iterating documents", goerr.V("collection", collection))
	}

	return docs, nil
}
