package application

import (
	"context"

	"telegram-random-image/internal/domain/model"
	"telegram-random-image/internal/domain/ports/adapter"
)

// ---- small interfaces to decouple the facade from concrete structs ----
// These describe the minimal surface that the facade needs so tests can pass
// light-weight mocks.

type SelectionUseCaseIface interface {
	Random(ctx context.Context, category string) (*model.ImageRecord, error)
	Count(ctx context.Context) (int, error)
	Categories(ctx context.Context) ([]string, error)
}

// PhotoLoader returns an error matching os.ErrNotExist when the file is gone.
type PhotoLoader interface {
	Load(name string) (*adapter.Photo, error)
}

type Translator interface {
	T(key string, args ...interface{}) string
}
