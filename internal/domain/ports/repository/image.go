package repository

import (
	"context"

	"telegram-random-image/internal/domain/model"
)

// -----------------------------
// Image catalog
// -----------------------------

// ImageRepository is the catalog store. Every method is a single statement;
// implementations acquire and release their connection per call.
type ImageRepository interface {
	// EnsureSchema creates the catalog table if absent. Safe to call repeatedly.
	EnsureSchema(ctx context.Context) error
	// Insert returns domain.ErrAlreadyExists when the filename is taken.
	Insert(ctx context.Context, filename, category string) (*model.ImageRecord, error)
	DeleteByID(ctx context.Context, id int64) (bool, error)
	Count(ctx context.Context) (int, error)
	ListAll(ctx context.Context) ([]*model.ImageRecord, error)
	// DistinctCategories falls back to []string{model.DefaultCategory} on an empty catalog.
	DistinctCategories(ctx context.Context) ([]string, error)
	CountByCategory(ctx context.Context) ([]model.CategoryCount, error)
	// Random returns nil, nil when no record qualifies. An empty category or
	// "all" disables the filter.
	Random(ctx context.Context, category string) (*model.ImageRecord, error)
}

// AllCategories is the filter value that disables category filtering.
const AllCategories = "all"

// CategoryFilter reports the category to filter on, or "" for none.
func CategoryFilter(category string) string {
	if category == AllCategories {
		return ""
	}
	return category
}
