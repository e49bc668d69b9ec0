package sessionstore

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// QB is the query builder with PostgreSQL placeholder format.
var QB = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// ErrNotFound is returned when no autosaved session exists for an id.
var ErrNotFound = errors.New("session snapshot not found")

// Snapshot is one autosaved form session: the serialized session state plus
// enough identity to resume it.
type Snapshot struct {
	ID         uuid.UUID       `json:"id"`
	Mode       string          `json:"mode"`
	PropertyID int64           `json:"property_id"`
	IsDraft    bool            `json:"is_draft"`
	Payload    json.RawMessage `json:"payload"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// Store persists session snapshots so an interrupted editing session can be
// resumed. Autosave is optional; the service runs without it when no
// database is configured.
type Store struct {
	pool *pgxpool.Pool
}

// New creates a session store.
// Returns error if pool is nil.
func New(pool *pgxpool.Pool) (*Store, error) {
	if pool == nil {
		return nil, errors.New("database pool is required")
	}
	return &Store{pool: pool}, nil
}

// Migrate brings the schema up to date.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	goose.SetBaseFS(migrationsFS)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set migration dialect: %w", err)
	}
	db := stdlib.OpenDBFromPool(pool)
	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

// Save upserts a snapshot.
func (s *Store) Save(ctx context.Context, snap *Snapshot) error {
	query, args, err := QB.
		Insert("form_sessions").
		Columns("id", "mode", "property_id", "is_draft", "payload", "updated_at").
		Values(snap.ID, snap.Mode, snap.PropertyID, snap.IsDraft, snap.Payload, sq.Expr("now()")).
		Suffix("ON CONFLICT (id) DO UPDATE SET payload = EXCLUDED.payload, updated_at = now()").
		ToSql()
	if err != nil {
		return fmt.Errorf("build save query: %w", err)
	}
	if _, err := s.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("save session snapshot: %w", err)
	}
	return nil
}

// Load returns the snapshot for id, or ErrNotFound.
func (s *Store) Load(ctx context.Context, id uuid.UUID) (*Snapshot, error) {
	query, args, err := QB.
		Select("id", "mode", "property_id", "is_draft", "payload", "updated_at").
		From("form_sessions").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build load query: %w", err)
	}

	var snap Snapshot
	err = s.pool.QueryRow(ctx, query, args...).Scan(
		&snap.ID,
		&snap.Mode,
		&snap.PropertyID,
		&snap.IsDraft,
		&snap.Payload,
		&snap.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load session snapshot: %w", err)
	}
	return &snap, nil
}

// Delete removes the snapshot for id. Deleting a missing snapshot is not an
// error; teardown runs it unconditionally.
func (s *Store) Delete(ctx context.Context, id uuid.UUID) error {
	query, args, err := QB.
		Delete("form_sessions").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete query: %w", err)
	}
	if _, err := s.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("delete session snapshot: %w", err)
	}
	return nil
}
