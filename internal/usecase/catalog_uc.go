package usecase

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"telegram-random-image/internal/domain"
	"telegram-random-image/internal/domain/model"
	"telegram-random-image/internal/domain/ports/repository"
	"telegram-random-image/internal/infra/metrics"
)

// Compile-time check
var _ CatalogUseCase = (*catalogUC)(nil)

// ImagePatterns is the import allow-list, matched case-sensitively against
// base filenames in this order.
var ImagePatterns = []string{"*.jpg", "*.jpeg", "*.png", "*.gif", "*.webp"}

type ImportResult struct {
	Added     int
	Skipped   int
	Directory string
}

type Stats struct {
	Total      int
	ByCategory []model.CategoryCount
}

// CatalogUseCase holds the administrative operations over the catalog.
type CatalogUseCase interface {
	Import(ctx context.Context, dir, category string) (ImportResult, error)
	ImportFile(ctx context.Context, path, category string) (bool, error)
	Stats(ctx context.Context) (Stats, error)
	List(ctx context.Context) ([]*model.ImageRecord, error)
	Delete(ctx context.Context, id int64) error
}

type catalogUC struct {
	repo repository.ImageRepository
	log  *zerolog.Logger
}

func NewCatalogUseCase(repo repository.ImageRepository, logger *zerolog.Logger) *catalogUC {
	return &catalogUC{repo: repo, log: logger}
}

// Import scans dir (non-recursively) and registers every allow-listed file by
// its base name. Files already in the catalog are skipped.
func (c *catalogUC) Import(ctx context.Context, dir, category string) (ImportResult, error) {
	res := ImportResult{Directory: dir}

	info, err := os.Stat(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return res, fmt.Errorf("%w: %s", domain.ErrDirectoryNotFound, dir)
		}
		return res, fmt.Errorf("stat %s: %w", dir, err)
	}
	if !info.IsDir() {
		return res, fmt.Errorf("%w: %s is not a directory", domain.ErrDirectoryNotFound, dir)
	}

	category = model.NormalizeCategory(category)
	for _, pattern := range ImagePatterns {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return res, fmt.Errorf("glob %s: %w", pattern, err)
		}
		for _, path := range matches {
			name := filepath.Base(path)
			_, err := c.repo.Insert(ctx, name, category)
			switch {
			case err == nil:
				res.Added++
				metrics.IncCatalogImport("added")
				c.log.Debug().Str("filename", name).Str("category", category).Msg("image added")
			case errors.Is(err, domain.ErrAlreadyExists):
				res.Skipped++
				metrics.IncCatalogImport("skipped")
				c.log.Info().Str("filename", name).Msg("image already in catalog, skipped")
			default:
				metrics.IncCatalogImport("error")
				return res, fmt.Errorf("import %s: %w", name, err)
			}
		}
	}
	return res, nil
}

// ImportFile registers a single file. It reports false for names outside the
// allow-list and for files already in the catalog.
func (c *catalogUC) ImportFile(ctx context.Context, path, category string) (bool, error) {
	name := filepath.Base(path)
	if !IsImageName(name) {
		return false, nil
	}
	_, err := c.repo.Insert(ctx, name, model.NormalizeCategory(category))
	if errors.Is(err, domain.ErrAlreadyExists) {
		metrics.IncCatalogImport("skipped")
		return false, nil
	}
	if err != nil {
		metrics.IncCatalogImport("error")
		return false, fmt.Errorf("import %s: %w", name, err)
	}
	metrics.IncCatalogImport("added")
	return true, nil
}

func (c *catalogUC) Stats(ctx context.Context) (Stats, error) {
	total, err := c.repo.Count(ctx)
	if err != nil {
		return Stats{}, err
	}
	by, err := c.repo.CountByCategory(ctx)
	if err != nil {
		return Stats{}, err
	}
	return Stats{Total: total, ByCategory: by}, nil
}

func (c *catalogUC) List(ctx context.Context) ([]*model.ImageRecord, error) {
	return c.repo.ListAll(ctx)
}

func (c *catalogUC) Delete(ctx context.Context, id int64) error {
	ok, err := c.repo.DeleteByID(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrNotFound
	}
	c.log.Info().Int64("id", id).Msg("image deleted")
	return nil
}

// IsImageName reports whether a base filename matches the import allow-list.
func IsImageName(name string) bool {
	for _, p := range ImagePatterns {
		if ok, _ := filepath.Match(p, name); ok {
			return true
		}
	}
	return false
}
