package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/ariadne/pkg/domain/model"
)

const metadataName = "location"

var (
	locationSelect = fmt.Sprintf(`SELECT %s, embedding FROM location`, strings.Join(model.LocationColumns, ", "))
	locationUpsert = buildLocationUpsert()
)

// buildLocationUpsert inserts by name; on conflict the stored id is kept unless a new one is given.
// Parameters are the location columns in order, then embedding, then a generated id for new rows.
func buildLocationUpsert() string {
	cols := model.LocationColumns
	placeholders := make([]string, len(cols))
	updates := make([]string, 0, len(cols))
	for i, col := range cols {
		placeholders[i] = fmt.Sprintf("?%d", i+1)
		if col == "id" || col == "name" {
			continue
		}
		updates = append(updates, fmt.Sprintf("%s = excluded.%s", col, col))
	}
	placeholders[0] = fmt.Sprintf("COALESCE(NULLIF(?1, ''), ?%d)", len(cols)+2)

	return fmt.Sprintf(`INSERT INTO location (%s, embedding) VALUES (%s, ?%d)
ON CONFLICT (name) DO UPDATE SET id = CASE WHEN ?1 = '' THEN location.id ELSE ?1 END, %s, embedding = excluded.embedding
RETURNING id`,
		strings.Join(cols, ", "),
		strings.Join(placeholders, ", "),
		len(cols)+1,
		strings.Join(updates, ", "))
}

type locationRepository struct {
	db *sql.DB
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLocation(row rowScanner) (*model.Location, error) {
	values := make([]string, len(model.LocationColumns))
	dest := make([]any, 0, len(values)+1)
	for i := range values {
		dest = append(dest, &values[i])
	}
	var embedding []byte
	dest = append(dest, &embedding)

	if err := row.Scan(dest...); err != nil {
		return nil, err
	}

	loc := &model.Location{Embedding: decodeEmbedding(embedding)}
	for i, col := range model.LocationColumns {
		loc.SetValue(col, values[i])
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
	args = append(args, encodeEmbedding(loc.Embedding), uuid.New().String())

	stored := loc.Copy()
	if err := r.db.QueryRowContext(ctx, locationUpsert, args...).Scan(&stored.ID); err != nil {
		return nil, goerr.Wrap(err, "failed to put location", goerr.V("name", loc.Name))
	}
	return stored, nil
}

func (r *locationRepository) GetByName(ctx context.Context, name string) (*model.Location, error) {
	loc, err := scanLocation(r.db.QueryRowContext(ctx, locationSelect+` WHERE name = ?`, name))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, goerr.Wrap(ErrNotFound, "location not found", goerr.V("name", name))
		}
		return nil, goerr.Wrap(err, "failed to get location", goerr.V("name", name))
	}
	return loc, nil
}

func (r *locationRepository) List(ctx context.Context) ([]*model.Location, error) {
	rows, err := r.db.QueryContext(ctx, locationSelect+` ORDER BY seq`)
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
	var (
		meta        model.IngestionMetadata
		completedAt int64
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT revision, completed_at, count FROM ingestion_metadata WHERE name = ?`, metadataName,
	).Scan(&meta.Revision, &completedAt, &meta.Count)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &model.IngestionMetadata{}, nil
		}
		return nil, goerr.Wrap(err, "failed to get ingestion metadata")
	}
	meta.CompletedAt = time.Unix(0, completedAt).UTC()
	return &meta, nil
}

func (r *locationRepository) SaveMetadata(ctx context.Context, meta *model.IngestionMetadata) error {
	completedAt := meta.CompletedAt
	if completedAt.IsZero() {
		completedAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO ingestion_metadata (name, revision, completed_at, count) VALUES (?, ?, ?, ?)
ON CONFLICT (name) DO UPDATE SET revision = excluded.revision, completed_at = excluded.completed_at, count = excluded.count`,
		metadataName, meta.Revision, completedAt.UnixNano(), meta.Count,
	)
	if err != nil {
		return goerr.Wrap(err, "failed to save ingestion metadata")
	}
	return nil
}
