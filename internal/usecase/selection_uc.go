package usecase

import (
	"context"

	"github.com/rs/zerolog"

	"telegram-random-image/internal/domain/model"
	"telegram-random-image/internal/domain/ports/repository"
)

// Compile-time check
var _ SelectionUseCase = (*selectionUC)(nil)

// SelectionUseCase is the read-only side used by the bot and the health server.
type SelectionUseCase interface {
	// Random returns nil when no image qualifies.
	Random(ctx context.Context, category string) (*model.ImageRecord, error)
	Count(ctx context.Context) (int, error)
	Categories(ctx context.Context) ([]string, error)
}

type selectionUC struct {
	repo repository.ImageRepository
	log  *zerolog.Logger
}

func NewSelectionUseCase(repo repository.ImageRepository, logger *zerolog.Logger) *selectionUC {
	return &selectionUC{repo: repo, log: logger}
}

func (s *selectionUC) Random(ctx context.Context, category string) (*model.ImageRecord, error) {
	rec, err := s.repo.Random(ctx, category)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		s.log.Debug().Str("category", category).Msg("no image qualifies")
	}
	return rec, nil
}

func (s *selectionUC) Count(ctx context.Context) (int, error) {
	return s.repo.Count(ctx)
}

func (s *selectionUC) Categories(ctx context.Context) ([]string, error) {
	return s.repo.DistinctCategories(ctx)
}
