package store

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"github.com/artpar/rollout/internal/core/timeline"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// =============================================================================
// SQLiteStore
// =============================================================================

// SQLiteStore implements Store using SQLite. The timeline aggregate is
// persisted as a JSON snapshot with name/status/version promoted into
// indexed columns for search.
type SQLiteStore struct {
	db *sqlx.DB
}

// NewSQLiteStore creates a new SQLite store and runs migrations.
func NewSQLiteStore(dsn string) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite3", dsn+"?_foreign_keys=on")
	if err != nil {
		return nil, NewStoreError("NewSQLiteStore", "", "failed to open database", ErrConnectionFailed)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, NewStoreError("NewSQLiteStore", "", "failed to ping database", ErrConnectionFailed)
	}

	if err := runMigrations(db.DB); err != nil {
		db.Close()
		return nil, NewStoreError("NewSQLiteStore", "", err.Error(), ErrMigrationFailed)
	}

	return &SQLiteStore{db: db}, nil
}

// runMigrations runs database migrations using embedded SQL files.
func runMigrations(db *sql.DB) error {
	driver, err := sqlite3.WithInstance(db, &sqlite3.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to create migration source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "sqlite3", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// =============================================================================
// Row Mapping
// =============================================================================

// timelineRow represents a timeline row in the database.
type timelineRow struct {
	ID        string `db:"id"`
	Name      string `db:"name"`
	Status    string `db:"status"`
	Version   int    `db:"version"`
	Snapshot  string `db:"snapshot"`
	CreatedAt string `db:"created_at"`
	UpdatedAt string `db:"updated_at"`
}

func (r timelineRow) toTimeline() (*timeline.Timeline, error) {
	var t timeline.Timeline
	if err := json.Unmarshal([]byte(r.Snapshot), &t); err != nil {
		return nil, NewStoreError("toTimeline", r.ID, "failed to decode snapshot", ErrInvalidData)
	}
	return &t, nil
}

// =============================================================================
// Timeline Operations
// =============================================================================

// SaveTimeline inserts or replaces the timeline snapshot.
func (s *SQLiteStore) SaveTimeline(ctx context.Context, t *timeline.Timeline) error {
	snapshot, err := json.Marshal(t)
	if err != nil {
		return NewStoreError("SaveTimeline", t.ID, "failed to encode snapshot", ErrInvalidData)
	}

	query := `
		INSERT INTO timelines (id, name, status, version, snapshot, created_at, updated_at)
		VALUES (:id, :name, :status, :version, :snapshot, :created_at, :updated_at)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			status = excluded.status,
			version = excluded.version,
			snapshot = excluded.snapshot,
			updated_at = excluded.updated_at`

	row := timelineRow{
		ID:        t.ID,
		Name:      t.Name,
		Status:    string(t.Status),
		Version:   t.Version,
		Snapshot:  string(snapshot),
		CreatedAt: t.CreatedAt.Format(timeFormat),
		UpdatedAt: t.UpdatedAt.Format(timeFormat),
	}

	if _, err := s.db.NamedExecContext(ctx, query, row); err != nil {
		return NewStoreError("SaveTimeline", t.ID, err.Error(), err)
	}
	return nil
}

// GetTimeline loads a timeline snapshot by ID.
func (s *SQLiteStore) GetTimeline(ctx context.Context, id string) (*timeline.Timeline, error) {
	var row timelineRow
	err := s.db.GetContext(ctx, &row, `SELECT * FROM timelines WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, NewStoreError("GetTimeline", id, "not found", ErrNotFound)
	}
	if err != nil {
		return nil, NewStoreError("GetTimeline", id, err.Error(), err)
	}
	return row.toTimeline()
}

// ListTimelines returns all timelines ordered by creation time.
func (s *SQLiteStore) ListTimelines(ctx context.Context, opts ListOptions) ([]*timeline.Timeline, error) {
	opts = opts.Normalize()
	return s.selectTimelines(ctx, "ListTimelines",
		`SELECT * FROM timelines ORDER BY created_at LIMIT ? OFFSET ?`,
		opts.Limit, opts.Offset)
}

// DeleteTimeline removes a timeline by ID.
func (s *SQLiteStore) DeleteTimeline(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM timelines WHERE id = ?`, id)
	if err != nil {
		return NewStoreError("DeleteTimeline", id, err.Error(), err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return NewStoreError("DeleteTimeline", id, err.Error(), err)
	}
	if affected == 0 {
		return NewStoreError("DeleteTimeline", id, "not found", ErrNotFound)
	}
	return nil
}

// SearchByName returns timelines whose name contains the query,
// case-insensitively.
func (s *SQLiteStore) SearchByName(ctx context.Context, query string, opts ListOptions) ([]*timeline.Timeline, error) {
	opts = opts.Normalize()
	return s.selectTimelines(ctx, "SearchByName",
		`SELECT * FROM timelines WHERE name LIKE ? ORDER BY created_at LIMIT ? OFFSET ?`,
		"%"+query+"%", opts.Limit, opts.Offset)
}

// ListByStatus returns timelines with the given status.
func (s *SQLiteStore) ListByStatus(ctx context.Context, status timeline.TimelineStatus, opts ListOptions) ([]*timeline.Timeline, error) {
	opts = opts.Normalize()
	return s.selectTimelines(ctx, "ListByStatus",
		`SELECT * FROM timelines WHERE status = ? ORDER BY created_at LIMIT ? OFFSET ?`,
		string(status), opts.Limit, opts.Offset)
}

func (s *SQLiteStore) selectTimelines(ctx context.Context, op, query string, args ...any) ([]*timeline.Timeline, error) {
	var rows []timelineRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, NewStoreError(op, "", err.Error(), err)
	}

	timelines := make([]*timeline.Timeline, 0, len(rows))
	for _, row := range rows {
		t, err := row.toTimeline()
		if err != nil {
			return nil, err
		}
		timelines = append(timelines, t)
	}
	return timelines, nil
}

// timeFormat is the SQLite text timestamp layout.
const timeFormat = "2006-01-02T15:04:05.999999999Z07:00"
