package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"sort"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/ariadne/pkg/domain/model"
)

type documentRepository struct {
	db *sql.DB
}

func (r *documentRepository) Add(ctx context.Context, collection string, docs []*model.Document) error {
	if collection == "" {
		return goerr.New("collection name is required")
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return goerr.Wrap(err, "failed to begin transaction")
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO documents (id, collection, content, metadata, embedding) VALUES (?, ?, ?, ?, ?)
ON CONFLICT (id) DO UPDATE SET collection = excluded.collection, content = excluded.content, metadata = excluded.metadata, embedding = excluded.embedding`)
	if err != nil {
		return goerr.Wrap(err, "failed to prepare document insert")
	}
	defer stmt.Close()

	for _, d := range docs {
		id := d.ID
		if id == "" {
			id = uuid.New().String()
		}
		metadata := d.Metadata
		if metadata == nil {
			metadata = map[string]string{}
		}
		raw, err := json.Marshal(metadata)
		if err != nil {
			return goerr.Wrap(err, "failed to marshal document metadata", goerr.V("id", id))
		}
		if _, err := stmt.ExecContext(ctx, id, collection, d.Content, string(raw), encodeEmbedding(d.Embedding)); err != nil {
			return goerr.Wrap(err, "failed to insert document", goerr.V("id", id), goerr.V("collection", collection))
		}
	}

	if err := tx.Commit(); err != nil {
		return goerr.Wrap(err, "failed to commit documents", goerr.V("collection", collection))
	}
	return nil
}

func (r *documentRepository) FindNearest(ctx context.Context, collection string, embedding []float32, limit int) ([]*model.Document, error) {
	if limit <= 0 {
		return []*model.Document{}, nil
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, content, metadata, embedding FROM documents WHERE collection = ? AND embedding IS NOT NULL ORDER BY seq`,
		collection,
	)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to query documents", goerr.V("collection", collection))
	}
	defer rows.Close()

	var candidates []*model.Document
	for rows.Next() {
		var (
			d        model.Document
			metadata string
			vec      []byte
		)
		if err := rows.Scan(&d.ID, &d.Content, &metadata, &vec); err != nil {
			return nil, goerr.Wrap(err, "failed to scan document", goerr.V("collection", collection))
		}
		if err := json.Unmarshal([]byte(metadata), &d.Metadata); err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal document metadata", goerr.V("id", d.ID))
		}
		d.Embedding = decodeEmbedding(vec)
		d.Score = model.CosineSimilarity(embedding, d.Embedding)
		candidates = append(candidates, &d)
	}
	if err := rows.Err(); err != nil {
		return nil, goerr.Wrap(err, "error iterating documents", goerr.V("collection", collection))
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})
	if limit < len(candidates) {
		candidates = candidates[:limit]
	}
	if candidates == nil {
		candidates = []*model.Document{}
	}
	return candidates, nil
}
