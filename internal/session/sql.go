package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	_ "github.com/mattn/go-sqlite3"

	"github.com/harrison/labourcheck/internal/models"
)

type dialect string

const (
	dialectSQLite dialect = "sqlite3"
	dialectMySQL  dialect = "mysql"
)

func (d dialect) schemaVersionDDL() string {
	if d == dialectMySQL {
		return `CREATE TABLE IF NOT EXISTS schema_version (
    version INT NOT NULL PRIMARY KEY,
    applied_at DATETIME(6) NOT NULL
)`
	}
	return `CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY,
    applied_at TIMESTAMP NOT NULL
)`
}

func (d dialect) recordVersionSQL() string {
	if d == dialectMySQL {
		return `INSERT IGNORE INTO schema_version (version, applied_at) VALUES (?, ?)`
	}
	return `INSERT OR IGNORE INTO schema_version (version, applied_at) VALUES (?, ?)`
}

// mergedColumns are overwritten only when the incoming value is not NULL.
var mergedColumns = []string{
	"email", "builder_name", "phone", "answers", "report",
	"overall_score", "score_color", "document_url", "converted", "converted_at",
}

func (d dialect) upsertSQL() string {
	cols := append([]string{"id"}, mergedColumns...)
	cols = append(cols, "created_at", "updated_at")
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", ")

	var sets []string
	for _, c := range mergedColumns {
		if d == dialectMySQL {
			sets = append(sets, fmt.Sprintf("%s = COALESCE(VALUES(%s), %s)", c, c, c))
		} else {
			sets = append(sets, fmt.Sprintf("%s = COALESCE(excluded.%s, sessions.%s)", c, c, c))
		}
	}
	if d == dialectMySQL {
		sets = append(sets, "updated_at = VALUES(updated_at)")
		return fmt.Sprintf("INSERT INTO sessions (%s) VALUES (%s) ON DUPLICATE KEY UPDATE %s",
			strings.Join(cols, ", "), placeholders, strings.Join(sets, ", "))
	}
	sets = append(sets, "updated_at = excluded.updated_at")
	return fmt.Sprintf("INSERT INTO sessions (%s) VALUES (%s) ON CONFLICT(id) DO UPDATE SET %s",
		strings.Join(cols, ", "), placeholders, strings.Join(sets, ", "))
}

const selectSessionColumns = `SELECT id, email, builder_name, phone, answers, report, overall_score,
    score_color, document_url, converted, converted_at, created_at, updated_at FROM sessions`

// SQLStore is a Repository backed by SQLite or MySQL.
type SQLStore struct {
	db      *sql.DB
	dialect dialect
	dsn     string
	now     func() time.Time
}

// Open opens a store for driver ("sqlite3" or "mysql") and applies pending migrations.
// For sqlite3 the dsn is a file path or ":memory:".
func Open(driver, dsn string) (*SQLStore, error) {
	switch dialect(driver) {
	case dialectSQLite:
		return openSQLite(dsn)
	case dialectMySQL:
		return openMySQL(dsn)
	default:
		return nil, fmt.Errorf("unsupported session store driver %q", driver)
	}
}

func openSQLite(path string) (*SQLStore, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if path == ":memory:" {
		// Each connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	}

	pragmas := []string{
		"PRAGMA busy_timeout=5000", // Must be first
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
	}
	for _, pragma := range pragmas {
		if err := execWithRetry(db, pragma, 5, 10*time.Millisecond); err != nil {
			db.Close()
			return nil, fmt.Errorf("set %s: %w", pragma, err)
		}
	}

	return initStore(db, dialectSQLite, path)
}

func openMySQL(dsn string) (*SQLStore, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse mysql dsn: %w", err)
	}
	cfg.ParseTime = true
	cfg.Loc = time.UTC

	db, err := sql.Open("mysql", cfg.FormatDSN())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping mysql: %w", err)
	}

	return initStore(db, dialectMySQL, cfg.Addr+"/"+cfg.DBName)
}

func initStore(db *sql.DB, d dialect, dsn string) (*SQLStore, error) {
	s := &SQLStore{
		db:      db,
		dialect: d,
		dsn:     dsn,
		now:     func() time.Time { return time.Now().UTC() },
	}
	if err := s.ApplyMigrations(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return s, nil
}

// execWithRetry executes a statement with exponential backoff on SQLite lock errors.
func execWithRetry(db *sql.DB, stmt string, maxRetries int, baseDelay time.Duration) error {
	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		_, err := db.Exec(stmt)
		if err == nil {
			return nil
		}
		if !strings.Contains(err.Error(), "database is locked") {
			return err
		}
		lastErr = err
		time.Sleep(baseDelay * time.Duration(1<<attempt))
	}
	return lastErr
}

// Driver returns the SQL driver name.
func (s *SQLStore) Driver() string {
	return string(s.dialect)
}

// Close implements Repository.
func (s *SQLStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Get implements Repository.
func (s *SQLStore) Get(ctx context.Context, id string) (*models.Session, error) {
	row := s.db.QueryRowContext(ctx, selectSessionColumns+` WHERE id = ?`, id)
	sess, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get session %s: %w", id, models.ErrSessionNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get session %s: %w", id, err)
	}
	return sess, nil
}

// GetByEmail implements Repository.
func (s *SQLStore) GetByEmail(ctx context.Context, email string) (*models.Session, error) {
	row := s.db.QueryRowContext(ctx,
		selectSessionColumns+` WHERE email = ? ORDER BY updated_at DESC, created_at DESC LIMIT 1`,
		NormalizeEmail(email))
	sess, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get session by email: %w", models.ErrSessionNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get session by email: %w", err)
	}
	return sess, nil
}

// Upsert implements Repository.
func (s *SQLStore) Upsert(ctx context.Context, id string, update models.SessionUpdate) (*models.Session, error) {
	if id == "" {
		return nil, fmt.Errorf("upsert session: id is required")
	}
	args, err := upsertArgs(id, normalizeUpdate(update), s.now())
	if err != nil {
		return nil, fmt.Errorf("upsert session %s: %w", id, err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin upsert: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, s.dialect.upsertSQL(), args...); err != nil {
		return nil, fmt.Errorf("upsert session %s: %w", id, err)
	}
	sess, err := scanSession(tx.QueryRowContext(ctx, selectSessionColumns+` WHERE id = ?`, id))
	if err != nil {
		return nil, fmt.Errorf("reload session %s: %w", id, err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit upsert: %w", err)
	}
	return sess, nil
}

// List implements Repository.
func (s *SQLStore) List(ctx context.Context, opts ListOptions) ([]*models.Session, error) {
	query := selectSessionColumns
	var where []string
	if opts.CompletedOnly {
		where = append(where, "report IS NOT NULL")
	}
	if opts.ConvertedOnly {
		where = append(where, "converted = ?")
	}
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC, id DESC"

	var args []any
	if opts.ConvertedOnly {
		args = append(args, true)
	}
	if opts.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, opts.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var out []*models.Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		out = append(out, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return out, nil
}

// RecordEvent implements Repository.
func (s *SQLStore) RecordEvent(ctx context.Context, sessionID string, kind EventKind, detail string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO session_events (session_id, kind, detail, created_at) VALUES (?, ?, ?, ?)`,
		sessionID, string(kind), nullString(detail), s.now())
	if err != nil {
		return fmt.Errorf("record %s event for %s: %w", kind, sessionID, err)
	}
	return nil
}

// Events implements Repository.
func (s *SQLStore) Events(ctx context.Context, sessionID string) ([]Event, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, session_id, kind, detail, created_at FROM session_events WHERE session_id = ? ORDER BY id ASC`,
		sessionID)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var e Event
		var kind string
		var detail sql.NullString
		if err := rows.Scan(&e.ID, &e.SessionID, &kind, &detail, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		e.Kind = EventKind(kind)
		e.Detail = detail.String
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return out, nil
}

// upsertArgs lays out the upsert parameters. Absent fields become NULL so COALESCE keeps the stored value.
func upsertArgs(id string, u models.SessionUpdate, now time.Time) ([]any, error) {
	var answers, report, overall, color any
	if u.Answers != nil {
		data, err := json.Marshal(u.Answers)
		if err != nil {
			return nil, fmt.Errorf("encode answers: %w", err)
		}
		answers = string(data)
	}
	if u.Report != nil {
		data, err := json.Marshal(u.Report)
		if err != nil {
			return nil, fmt.Errorf("encode report: %w", err)
		}
		report = string(data)
		overall = u.Report.OverallScore
		color = string(u.Report.ScoreColor)
	}

	var converted, convertedAt any
	if u.Converted != nil {
		converted = *u.Converted
	}
	if u.ConvertedAt != nil {
		convertedAt = u.ConvertedAt.UTC()
	}

	return []any{
		id,
		ptrString(u.Email),
		ptrString(u.BuilderName),
		ptrString(u.Phone),
		answers,
		report,
		overall,
		color,
		ptrString(u.DocumentURL),
		converted,
		convertedAt,
		now,
		now,
	}, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*models.Session, error) {
	var sess models.Session
	var email, builder, phone, answers, report, color, docURL sql.NullString
	var overall sql.NullInt64
	var converted sql.NullBool
	var convertedAt sql.NullTime
	err := row.Scan(&sess.ID, &email, &builder, &phone, &answers, &report, &overall,
		&color, &docURL, &converted, &convertedAt, &sess.CreatedAt, &sess.UpdatedAt)
	if err != nil {
		return nil, err
	}

	sess.Email = email.String
	sess.BuilderName = builder.String
	sess.Phone = phone.String
	sess.OverallScore = int(overall.Int64)
	sess.ScoreColor = models.Color(color.String)
	sess.DocumentURL = docURL.String
	sess.Converted = converted.Bool
	if convertedAt.Valid {
		t := convertedAt.Time.UTC()
		sess.ConvertedAt = &t
	}
	sess.CreatedAt = sess.CreatedAt.UTC()
	sess.UpdatedAt = sess.UpdatedAt.UTC()

	if answers.Valid && answers.String != "" {
		if err := json.Unmarshal([]byte(answers.String), &sess.Answers); err != nil {
			return nil, fmt.Errorf("decode answers: %w", err)
		}
	}
	if report.Valid && report.String != "" {
		var r models.Report
		if err := json.Unmarshal([]byte(report.String), &r); err != nil {
			return nil, fmt.Errorf("decode report: %w", err)
		}
		sess.Report = &r
	}
	return &sess, nil
}

func ptrString(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
