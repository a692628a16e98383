package sqlite

import (
	"context"
	"database/sql"
	"encoding/binary"
	"math"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/ariadne/pkg/domain/interfaces"
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned (wrapped) when a lookup has no result
var ErrNotFound = interfaces.ErrNotFound

// SQLite is a single-file backend for local deployments. Vector search is an exact scan in process.
type SQLite struct {
	db           *sql.DB
	conversation *conversationRepository
	location     *locationRepository
	document     *documentRepository
}

var _ interfaces.Repository = &SQLite{}

// New opens (or creates) the database at path and applies the schema
func New(ctx context.Context, path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open sqlite database", goerr.V("path", path))
	}
	// One writer at a time; appends are serialized by the pool.
	db.SetMaxOpenConns(1)

	if err := Migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &SQLite{
		db:           db,
		conversation: &conversationRepository{db: db},
		location:     &locationRepository{db: db},
		document:     &documentRepository{db: db},
	}, nil
}

func (s *SQLite) Conversation() interfaces.ConversationRepository {
	return s.conversation
}

func (s *SQLite) Location() interfaces.LocationRepository {
	return s.location
}

func (s *SQLite) Document() interfaces.DocumentRepository {
	return s.document
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS message_store (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL,
		message TEXT NOT NULL,
		created_at INTEGER NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS message_store_session_id_idx ON message_store (session_id, id)`,
	`CREATE TABLE IF NOT EXISTS location (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL UNIQUE,
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
		embedding BLOB
	)`,
	`CREATE TABLE IF NOT EXISTS ingestion_metadata (
		name TEXT PRIMARY KEY,
		revision TEXT NOT NULL,
		completed_at INTEGER NOT NULL,
		count INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS documents (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL UNIQUE,
		collection TEXT NOT NULL,
		content TEXT NOT NULL,
		metadata TEXT NOT NULL,
		embedding BLOB
	)`,
	`CREATE INDEX IF NOT EXISTS documents_collection_idx ON documents (collection)`,
}

// Schema returns the DDL statements applied by Migrate, in order
func Schema() []string {
	return append([]string(nil), schema...)
}

// Migrate applies the schema. Every statement is idempotent.
func Migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return goerr.Wrap(err, "failed to apply schema", goerr.V("statement", stmt))
		}
	}
	return nil
}

func encodeEmbedding(v []float32) []byte {
	if len(v) == 0 {
		return nil
	}
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

func decodeEmbedding(data []byte) []float32 {
	if len(data) == 0 {
		return nil
	}
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}
