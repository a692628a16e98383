package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/m-mizutani/goerr/v2"
	"github.com/pgvector/pgvector-go"
	"github.com/secmon-lab/ariadne/pkg/domain/model"
)

const metadataName = "location"

var (
	locationSelect = fmt.Sprintf(`SELECT %s, embedding FROM location`, strings.Join(model.LocationColumns, ", "))
	locationUpsert = buildLocationUpsert()
)

// buildLocationUpsert inserts by name. An empty id ($1) keeps the stored one, or takes
// the generated fallback ($%d) for new rows.
func buildLocationUpsert() string {
	cols := model.LocationColumns
	placeholders := make([]string, len(cols))
	updates := make([]string, 0, len(cols))
	for i, col := range cols {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		if col == "id" || col == "name" {
			continue
		}
		updates = append(updates, fmt.Sprintf("%s = EXCLUDED.%s", col, col))
	}
	fallback := len(cols) + 2
	placeholders[0] = fmt.Sprintf("COALESCE(NULLIF($1, ''), $%d)", fallback)

	return fmt.Sprintf(`INSERT INTO location (%s, embedding) VALUES (%s, $%d)
ON CONFLICT (name) DO UPDATE SET id = CASE WHEN $1 = '' THEN location.id ELSE $1 END, %s, embedding = EXCLUDED.embedding
RETURNING id`,
		strings.Join(cols, ", "),
		strings.Join(placeholders, ", "),
		len(cols)+1,
		strings.Join(updates, ", "))
}

type locationRepository struct {
	pool *pgxpool.Pool
}

func scanLocation(row pgx.Row) (*model.Location, error) {
	values := make([]string, len(model.LocationColumns))
	dest := make([]any, 0, len(values)+1)
	for i := range values {
		dest = append(dest, &values[i])
	}
	var embedding *pgvector.Vector
	dest = append(dest, &embedding)

	if err := row.Scan(dest...); err != nil {
		return nil, err
	}

	loc := &model.Location{}
	for i, col := range model.LocationColumns {
		loc.SetValue(col, values[i])
	}
	if embedding != nil {
		loc.Embedding = embedding.Slice()
	}
	return loc, nil
}

func (r *locationRepository) Put(ctx context.Context, loc *model.Location) (*model.Location, error) {
	if err := loc.Validate(); err != nil {
		return nil, goerr.Wrap(err, "invalid location")
	}

	args := make([]any, 0, len(model.LocationColumns)+2)
	for _, col := range model.LocationColumns {
		v, _ := loc.Value(col)
		args = append(args, v)
	}
	var embedding *pgvector.Vector
	if len(loc.Embedding) > 0 {
		v := pgvector.NewVector(loc.Embedding)
		embedding = &v
	}
	args = append(args, embedding, uuid.New().String())

	stored := loc.Copy()
	if err := r.pool.QueryRow(ctx, locationUpsert, args...).Scan(&stored.ID); err != nil {
		return nil, goerr.Wrap(err, "failed to put location", goerr.V("name", loc.Name))
	}
	return stored, nil
}

func (r *locationRepository) GetByName(ctx context.Context, name string) (*model.Location, error) {
	loc, err := scanLocation(r.pool.QueryRow(ctx, locationSelect+` WHERE name = $1`, name))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, goerr.Wrap(ErrNotFound, "location not found", goerr.V("name", name))
		}
		return nil, goerr.Wrap(err, "failed to get location", goerr.V("name", name))
	}
	return loc, nil
}

func (r *locationRepository) List(ctx context.Context) ([]*model.Location, error) {
	rows, err := r.pool.Query(ctx, locationSelect+` ORDER BY seq`)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to query locations")
	}
	defer rows.Close()

	locations := make([]*model.Location, 0)
	for rows.Next() {
		loc, err := scanLocation(rows)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to scan location")
		}
		locations = append(locations, loc)
	}
	if err := rows.Err(); err != nil {
		return nil, goerr.Wrap(err, "error iterating locations")
	}

	return locations, nil
}

func (r *locationRepository) GetMetadata(ctx context.Context) (*model.IngestionMetadata, error) {
	var meta model.IngestionMetadata
	err := r.pool.QueryRow(ctx,
		`SELECT revision, completed_at, count FROM ingestion_metadata WHERE name = $1`, metadataName,
	).Scan(&meta.Revision, &meta.CompletedAt, &meta.Count)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &model.IngestionMetadata{}, nil
		}
		return nil, goerr.Wrap(err, "failed to get ingestion metadata")
	}
	meta.CompletedAt = meta.CompletedAt.UTC()
	return &meta, nil
}

func (r *locationRepository) SaveMetadata(ctx context.Context, meta *model.IngestionMetadata) error {
	completedAt := meta.CompletedAt
	if completedAt.IsZero() {
		completedAt = time.Now().UTC()
	}
	_, err := r.pool.Exec(ctx,
		`INSERT INTO ingestion_metadata (name, revision, completed_at, count) VALUES ($1, $2, $3, $4)
ON CONFLICT (name) DO UPDATE SET revision = EXCLUDED.revision, completed_at = EXCLUDED.completed_at, count = EXCLUDED.count`,
		metadataName, meta.Revision, completedAt, meta.Count,
	)
	if err != nil {
		return goerr.Wrap(err, "failed to save ingestion metadata")
	}
	return nil
}
