package session

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Migration is one ordered schema change. Statements are kept per dialect
// since MySQL rejects multi-statement execs and some SQLite-only syntax.
type Migration struct {
	Version     int
	Description string
	SQLite      []string
	MySQL       []string
}

// migrations is the ordered list of all schema migrations
var migrations = []Migration{
	{
		Version:     1,
		Description: "Sessions table",
		SQLite: []string{
			`CREATE TABLE IF NOT EXISTS sessions (
    id TEXT PRIMARY KEY,
    email TEXT,
    builder_name TEXT,
    phone TEXT,
    answers TEXT,
    report TEXT,
    overall_score INTEGER,
    score_color TEXT,
    document_url TEXT,
    converted BOOLEAN,
    converted_at TIMESTAMP,
    created_at TIMESTAMP NOT NULL,
    updated_at TIMESTAMP NOT NULL
)`,
			`CREATE INDEX IF NOT EXISTS idx_sessions_email ON sessions(email)`,
			`CREATE INDEX IF NOT EXISTS idx_sessions_created ON sessions(created_at DESC)`,
		},
		MySQL: []string{
			`CREATE TABLE IF NOT EXISTS sessions (
    id VARCHAR(64) NOT NULL PRIMARY KEY,
    email VARCHAR(320) NULL,
    builder_name VARCHAR(255) NULL,
    phone VARCHAR(32) NULL,
    answers MEDIUMTEXT NULL,
    report MEDIUMTEXT NULL,
    overall_score INT NULL,
    score_color VARCHAR(16) NULL,
    document_url TEXT NULL,
    converted BOOLEAN NULL,
    converted_at DATETIME(6) NULL,
    created_at DATETIME(6) NOT NULL,
    updated_at DATETIME(6) NOT NULL,
    INDEX idx_sessions_email (email),
    INDEX idx_sessions_created (created_at)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
		},
	},
	{
		Version:     2,
		Description: "Delivery event history",
		SQLite: []string{
			`CREATE TABLE IF NOT EXISTS session_events (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    session_id TEXT NOT NULL,
    kind TEXT NOT NULL,
    detail TEXT,
    created_at TIMESTAMP NOT NULL
)`,
			`CREATE INDEX IF NOT EXISTS idx_session_events_session ON session_events(session_id, id)`,
		},
		MySQL: []string{
			`CREATE TABLE IF NOT EXISTS session_events (
    id BIGINT NOT NULL AUTO_INCREMENT PRIMARY KEY,
    session_id VARCHAR(64) NOT NULL,
    kind VARCHAR(32) NOT NULL,
    detail TEXT NULL,
    created_at DATETIME(6) NOT NULL,
    INDEX idx_session_events_session (session_id, id)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
		},
	},
}

// MigrationVersion is a record of an applied migration
type MigrationVersion struct {
	Version   int
	AppliedAt time.Time
}

func (m Migration) statements(d dialect) []string {
	if d == dialectMySQL {
		return m.MySQL
	}
	return m.SQLite
}

// ApplyMigrations applies all pending migrations in one serializable transaction.
// MySQL commits DDL implicitly, so there each statement is durable on its own.
func (s *SQLStore) ApplyMigrations(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return fmt.Errorf("begin migration transaction: %w", err)
	}
	defer tx.Rollback() // no-op if committed

	if _, err := tx.ExecContext(ctx, s.dialect.schemaVersionDDL()); err != nil {
		return fmt.Errorf("create schema_version table: %w", err)
	}

	applied, err := appliedVersions(ctx, tx)
	if err != nil {
		return fmt.Errorf("get applied versions: %w", err)
	}
	done := make(map[int]bool, len(applied))
	for _, v := range applied {
		done[v.Version] = true
	}

	for _, m := range migrations {
		if done[m.Version] {
			continue
		}
		for _, stmt := range m.statements(s.dialect) {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("apply migration %d (%s): %w", m.Version, m.Description, err)
			}
		}
		if _, err := tx.ExecContext(ctx, s.dialect.recordVersionSQL(), m.Version, time.Now().UTC()); err != nil {
			return fmt.Errorf("record migration %d: %w", m.Version, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit migrations: %w", err)
	}
	return nil
}

// AppliedVersions returns the applied migrations in version order.
func (s *SQLStore) AppliedVersions(ctx context.Context) ([]*MigrationVersion, error) {
	return appliedVersions(ctx, s.db)
}

// LatestVersion returns the highest applied migration version, or 0.
func (s *SQLStore) LatestVersion(ctx context.Context) (int, error) {
	var version int
	err := s.db.QueryRowContext(ctx, `SELECT COALESCE(MAX(version), 0) FROM schema_version`).Scan(&version)
	if err != nil {
		return 0, fmt.Errorf("query latest version: %w", err)
	}
	return version, nil
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func appliedVersions(ctx context.Context, q querier) ([]*MigrationVersion, error) {
	rows, err := q.QueryContext(ctx, `SELECT version, applied_at FROM schema_version ORDER BY version ASC`)
	if err != nil {
		return nil, fmt.Errorf("query schema versions: %w", err)
	}
	defer rows.Close()

	var versions []*MigrationVersion
	for rows.Next() {
		v := &MigrationVersion{}
		if err := rows.Scan(&v.Version, &v.AppliedAt); err != nil {
			return nil, fmt.Errorf("scan version: %w", err)
		}
		versions = append(versions, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate versions: %w", err)
	}
	return versions, nil
}
