package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	sqlitedrv "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"telegram-random-image/internal/domain"
	"telegram-random-image/internal/domain/model"
	"telegram-random-image/internal/domain/ports/repository"
	"telegram-random-image/internal/infra/metrics"
)

var _ repository.ImageRepository = (*SQLiteImageRepo)(nil)

// timeLayout matches SQLite's CURRENT_TIMESTAMP so rows written by older
// tooling parse the same way.
const timeLayout = "2006-01-02 15:04:05"

// SQLiteImageRepo keeps the catalog in a single SQLite file.
type SQLiteImageRepo struct {
	db *sql.DB
}

// NewSQLiteImageRepo opens (or creates) the database at path, creates the
// parent directory when needed and ensures the schema.
func NewSQLiteImageRepo(ctx context.Context, path string) (*SQLiteImageRepo, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	// Pragmas go in the DSN so every pooled connection gets them. WAL lets the
	// bot read while the admin CLI writes; busy_timeout makes writers wait
	// instead of failing with SQLITE_BUSY.
	db, err := sql.Open("sqlite", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(4)

	r := &SQLiteImageRepo{db: db}
	if err := r.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return r, nil
}

// BusyTimeout is how long a connection waits on a locked database.
const BusyTimeout = 5 * time.Second

func dsn(path string) string {
	return fmt.Sprintf("%s?_pragma=busy_timeout(%d)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)",
		path, BusyTimeout.Milliseconds())
}

func (r *SQLiteImageRepo) Close() error {
	return r.db.Close()
}

// Ping reports whether the database file is reachable.
func (r *SQLiteImageRepo) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// ReportPoolStats publishes the database/sql pool gauges.
func (r *SQLiteImageRepo) ReportPoolStats() {
	st := r.db.Stats()
	metrics.SetDBPoolStats(int32(st.OpenConnections), int32(st.Idle), int32(st.InUse))
}

func (r *SQLiteImageRepo) EnsureSchema(ctx context.Context) error {
	const q = `
CREATE TABLE IF NOT EXISTS images (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    filename TEXT NOT NULL,
    category TEXT NOT NULL DEFAULT 'general',
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_images_filename ON images(filename);
CREATE INDEX IF NOT EXISTS idx_images_category ON images(category);
`
	if _, err := r.db.ExecContext(ctx, q); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

func (r *SQLiteImageRepo) Insert(ctx context.Context, filename, category string) (*model.ImageRecord, error) {
	rec, err := model.NewImageRecord(filename, category)
	if err != nil {
		return nil, err
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO images (filename, category, created_at) VALUES (?, ?, ?)`,
		rec.Filename, rec.Category, rec.CreatedAt.Format(timeLayout),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domain.ErrAlreadyExists
		}
		return nil, fmt.Errorf("insert image: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("insert image id: %w", err)
	}
	rec.ID = id
	return rec, nil
}

func (r *SQLiteImageRepo) DeleteByID(ctx context.Context, id int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM images WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete image: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete image rows: %w", err)
	}
	return n > 0, nil
}

func (r *SQLiteImageRepo) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM images`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count images: %w", err)
	}
	return n, nil
}

func (r *SQLiteImageRepo) ListAll(ctx context.Context) ([]*model.ImageRecord, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, filename, category, created_at FROM images ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list images: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var out []*model.ImageRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *SQLiteImageRepo) DistinctCategories(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT DISTINCT category FROM images WHERE category IS NOT NULL ORDER BY category`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var out []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return []string{model.DefaultCategory}, nil
	}
	return out, nil
}

func (r *SQLiteImageRepo) CountByCategory(ctx context.Context) ([]model.CategoryCount, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT category, COUNT(*) FROM images GROUP BY category ORDER BY category`)
	if err != nil {
		return nil, fmt.Errorf("count by category: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var out []model.CategoryCount
	for rows.Next() {
		var cc model.CategoryCount
		if err := rows.Scan(&cc.Category, &cc.Count); err != nil {
			return nil, err
		}
		out = append(out, cc)
	}
	return out, rows.Err()
}

func (r *SQLiteImageRepo) Random(ctx context.Context, category string) (*model.ImageRecord, error) {
	var row *sql.Row
	if c := repository.CategoryFilter(category); c != "" {
		row = r.db.QueryRowContext(ctx,
			`SELECT id, filename, category, created_at FROM images WHERE category = ? ORDER BY RANDOM() LIMIT 1`, c)
	} else {
		row = r.db.QueryRowContext(ctx,
			`SELECT id, filename, category, created_at FROM images ORDER BY RANDOM() LIMIT 1`)
	}
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("random image: %w", err)
	}
	return rec, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(s scanner) (*model.ImageRecord, error) {
	var (
		rec     model.ImageRecord
		created sql.NullString
	)
	if err := s.Scan(&rec.ID, &rec.Filename, &rec.Category, &created); err != nil {
		return nil, err
	}
	if created.Valid {
		rec.CreatedAt = parseTime(created.String)
	}
	return &rec, nil
}

// parseTime accepts SQLite's CURRENT_TIMESTAMP text and the RFC3339 form the
// driver produces when it hands back a time value.
func parseTime(s string) time.Time {
	for _, layout := range []string{timeLayout, time.RFC3339Nano, "2006-01-02T15:04:05Z07:00", "2006-01-02 15:04:05.999999999-07:00"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

func isUniqueViolation(err error) bool {
	var se *sqlitedrv.Error
	if errors.As(err, &se) {
		return se.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
	}
	return false
}
