package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/m-mizutani/goerr/v2"
	pgxvec "github.com/pgvector/pgvector-go/pgx"
	"github.com/secmon-lab/ariadne/pkg/domain/interfaces"
	"github.com/secmon-lab/ariadne/pkg/domain/model"
)

// ErrNotFound is returned (wrapped) when a lookup has no result
var ErrNotFound = interfaces.ErrNotFound

// Postgres stores conversations, locations and dense collections in PostgreSQL with pgvector.
// Table layouts of message_store and langchain_pg_* follow the LangChain conventions so existing
// data can be served as is.
type Postgres struct {
	pool         *pgxpool.Pool
	conversation *conversationRepository
	location     *locationRepository
	document     *documentRepository
}

var _ interfaces.Repository = &Postgres{}

// New connects to dsn. The vector extension must already exist; run Migrate first.
func New(ctx context.Context, dsn string) (*Postgres, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to parse postgres DSN")
	}
	cfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return pgxvec.RegisterTypes(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create postgres pool")
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, goerr.Wrap(err, "failed to ping postgres")
	}

	return &Postgres{
		pool:         pool,
		conversation: &conversationRepository{pool: pool},
		location:     &locationRepository{pool: pool},
		document:     &documentRepository{pool: pool},
	}, nil
}

func (p *Postgres) Conversation() interfaces.ConversationRepository {
	return p.conversation
}

func (p *Postgres) Location() interfaces.LocationRepository {
	return p.location
}

func (p *Postgres) Document() interfaces.DocumentRepository {
	return p.document
}

func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}

// Schema returns the DDL statements applied by Migrate, in order
func Schema() []string {
	return []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		`CREATE TABLE IF NOT EXISTS message_store (
			id BIGSERIAL PRIMARY KEY,
			session_id TEXT NOT NULL,
			message JSONB NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS message_store_session_id_idx ON message_store (session_id, id)`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS location (
			seq BIGSERIAL,
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL UNIQUE,
			address TEXT NOT NULL DEFAULT '',
			city TEXT NOT NULL DEFAULT '',
			state TEXT NOT NULL DEFAULT '',
			country TEXT NOT NULL DEFAULT '',
			zip_code TEXT NOT NULL DEFAULT '',
			latitude TEXT NOT NULL DEFAULT '',
			longitude TEXT NOT NULL DEFAULT '',
			description TEXT NOT NULL DEFAULT '',
			phone TEXT NOT NULL DEFAULT '',
			sunday_hours TEXT NOT NULL DEFAULT '',
			monday_hours TEXT NOT NULL DEFAULT '',
			tuesday_hours TEXT NOT NULL DEFAULT '',
			wednesday_hours TEXT NOT NULL DEFAULT '',
			thursday_hours TEXT NOT NULL DEFAULT '',
			friday_hours TEXT NOT NULL DEFAULT '',
			saturday_hours TEXT NOT NULL DEFAULT '',
			rating TEXT NOT NULL DEFAULT '',
			address_link TEXT NOT NULL DEFAULT '',
			website TEXT NOT NULL DEFAULT '',
			resource_type TEXT NOT NULL DEFAULT '',
			county TEXT NOT NULL DEFAULT '',
			embedding vector(%d)
		)`, model.EmbeddingDimension),
		`CREATE TABLE IF NOT EXISTS ingestion_metadata (
			name TEXT PRIMARY KEY,
			revision TEXT NOT NULL,
			completed_at TIMESTAMPTZ NOT NULL,
			count INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS langchain_pg_collection (
			uuid UUID PRIMARY KEY,
			name VARCHAR NOT NULL UNIQUE,
			cmetadata JSONB
		)`,
		`CREATE TABLE IF NOT EXISTS langchain_pg_embedding (
			id VARCHAR PRIMARY KEY,
			collection_id UUID REFERENCES langchain_pg_collection (uuid) ON DELETE CASCADE,
			embedding vector,
			document VARCHAR,
			cmetadata JSONB
		)`,
	}
}

// Migrate applies Schema over a plain connection, before vector types can be registered.
func Migrate(ctx context.Context, dsn string) error {
	conn, err := pgx.Connect(ctx, dsn)
	if err != nil {
		return goerr.Wrap(err, "failed to connect to postgres")
	}
	defer conn.Close(ctx)

	for _, stmt := range Schema() {
		if _, err := conn.Exec(ctx, stmt); err != nil {
			return goerr.Wrap(err, "failed to apply schema", goerr.V("statement", stmt))
		}
	}
	return nil
}
