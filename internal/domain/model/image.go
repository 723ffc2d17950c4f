package model

import (
	"strings"
	"time"

	"telegram-random-image/internal/domain"
)

// DefaultCategory is applied at write time when no category is given.
const DefaultCategory = "general"

// ImageRecord describes one catalogued image. The file itself lives in the
// images directory under Filename.
type ImageRecord struct {
	ID        int64
	Filename  string
	Category  string
	CreatedAt time.Time
}

func (r *ImageRecord) IsZero() bool { return r == nil || r.ID == 0 }

// NewImageRecord validates input and applies the category default. The
// filename is kept exactly as it appears on disk; only a blank one is
// rejected. ID is left zero; the store assigns it.
func NewImageRecord(filename, category string) (*ImageRecord, error) {
	if strings.TrimSpace(filename) == "" {
		return nil, domain.ErrInvalidArgument
	}
	return &ImageRecord{
		Filename:  filename,
		Category:  NormalizeCategory(category),
		CreatedAt: time.Now().UTC().Truncate(time.Second),
	}, nil
}

// NormalizeCategory trims the label and falls back to DefaultCategory.
func NormalizeCategory(category string) string {
	category = strings.TrimSpace(category)
	if category == "" {
		return DefaultCategory
	}
	return category
}

// CategoryCount is one row of the per-category breakdown.
type CategoryCount struct {
	Category string
	Count    int
}
