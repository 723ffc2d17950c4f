package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"telegram-random-image/internal/domain"
	"telegram-random-image/internal/domain/model"
	"telegram-random-image/internal/domain/ports/repository"
)

var _ repository.ImageRepository = (*PostgresImageRepo)(nil)

const uniqueViolation = "23505"

type PostgresImageRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresImageRepo(pool *pgxpool.Pool) *PostgresImageRepo {
	return &PostgresImageRepo{pool: pool}
}

func (r *PostgresImageRepo) EnsureSchema(ctx context.Context) error {
	const q = `
CREATE TABLE IF NOT EXISTS images (
  id BIGSERIAL PRIMARY KEY,
  filename TEXT NOT NULL UNIQUE,
  category TEXT NOT NULL DEFAULT 'general',
  created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_images_category ON images(category);
`
	if _, err := r.pool.Exec(ctx, q); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

func (r *PostgresImageRepo) Insert(ctx context.Context, filename, category string) (*model.ImageRecord, error) {
	rec, err := model.NewImageRecord(filename, category)
	if err != nil {
		return nil, err
	}
	const q = `
INSERT INTO images (filename, category, created_at)
VALUES ($1, $2, $3)
RETURNING id;
`
	if err := r.pool.QueryRow(ctx, q, rec.Filename, rec.Category, rec.CreatedAt).Scan(&rec.ID); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, domain.ErrAlreadyExists
		}
		return nil, fmt.Errorf("insert image: %w", err)
	}
	return rec, nil
}

func (r *PostgresImageRepo) DeleteByID(ctx context.Context, id int64) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM images WHERE id=$1;`, id)
	if err != nil {
		return false, fmt.Errorf("delete image: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *PostgresImageRepo) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM images;`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count images: %w", err)
	}
	return n, nil
}

func (r *PostgresImageRepo) ListAll(ctx context.Context) ([]*model.ImageRecord, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, filename, category, created_at FROM images ORDER BY id;`)
	if err != nil {
		return nil, fmt.Errorf("list images: %w", err)
	}
	defer rows.Close()

	var out []*model.ImageRecord
	for rows.Next() {
		var rec model.ImageRecord
		if err := rows.Scan(&rec.ID, &rec.Filename, &rec.Category, &rec.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &rec)
	}
	return out, rows.Err()
}

func (r *PostgresImageRepo) DistinctCategories(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT DISTINCT category FROM images ORDER BY category;`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

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

func (r *PostgresImageRepo) CountByCategory(ctx context.Context) ([]model.CategoryCount, error) {
	rows, err := r.pool.Query(ctx, `SELECT category, COUNT(*) FROM images GROUP BY category ORDER BY category;`)
	if err != nil {
		return nil, fmt.Errorf("count by category: %w", err)
	}
	defer rows.Close()

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

func (r *PostgresImageRepo) Random(ctx context.Context, category string) (*model.ImageRecord, error) {
	var row pgx.Row
	if c := repository.CategoryFilter(category); c != "" {
		row = r.pool.QueryRow(ctx, `SELECT id, filename, category, created_at FROM images WHERE category=$1 ORDER BY random() LIMIT 1;`, c)
	} else {
		row = r.pool.QueryRow(ctx, `SELECT id, filename, category, created_at FROM images ORDER BY random() LIMIT 1;`)
	}
	var rec model.ImageRecord
	if err := row.Scan(&rec.ID, &rec.Filename, &rec.Category, &rec.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("random image: %w", err)
	}
	return &rec, nil
}
