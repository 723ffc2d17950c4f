// File: internal/usecase/mocks_test.go
package usecase_test

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"telegram-random-image/internal/domain"
	"telegram-random-image/internal/domain/model"
	"telegram-random-image/internal/domain/ports/repository"
)

func newTestLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

var _ repository.ImageRepository = (*memImageRepo)(nil)

// memImageRepo is a small in-memory catalog used by unit tests. Setting a
// *Func field overrides the in-memory behaviour for that method.
type memImageRepo struct {
	mu     sync.Mutex
	nextID int64
	rows   []*model.ImageRecord

	InsertFunc func(ctx context.Context, filename, category string) (*model.ImageRecord, error)
	CountFunc  func(ctx context.Context) (int, error)
	RandomFunc func(ctx context.Context, category string) (*model.ImageRecord, error)
}

func newMemImageRepo() *memImageRepo {
	return &memImageRepo{}
}

func (m *memImageRepo) EnsureSchema(ctx context.Context) error { return nil }

func (m *memImageRepo) Insert(ctx context.Context, filename, category string) (*model.ImageRecord, error) {
	if m.InsertFunc != nil {
		return m.InsertFunc(ctx, filename, category)
	}
	rec, err := model.NewImageRecord(filename, category)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.rows {
		if r.Filename == rec.Filename {
			return nil, domain.ErrAlreadyExists
		}
	}
	m.nextID++
	rec.ID = m.nextID
	rec.CreatedAt = time.Now().UTC()
	m.rows = append(m.rows, rec)
	return rec, nil
}

func (m *memImageRepo) DeleteByID(ctx context.Context, id int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, r := range m.rows {
		if r.ID == id {
			m.rows = append(m.rows[:i], m.rows[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (m *memImageRepo) Count(ctx context.Context) (int, error) {
	if m.CountFunc != nil {
		return m.CountFunc(ctx)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows), nil
}

func (m *memImageRepo) ListAll(ctx context.Context) ([]*model.ImageRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*model.ImageRecord(nil), m.rows...), nil
}

func (m *memImageRepo) DistinctCategories(ctx context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	set := map[string]bool{}
	for _, r := range m.rows {
		set[r.Category] = true
	}
	if len(set) == 0 {
		return []string{model.DefaultCategory}, nil
	}
	out := make([]string, 0, len(set))
	for c := range set {
		out = append(out, c)
	}
	sort.Strings(out)
	return out, nil
}

func (m *memImageRepo) CountByCategory(ctx context.Context) ([]model.CategoryCount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	counts := map[string]int{}
	for _, r := range m.rows {
		counts[r.Category]++
	}
	out := make([]model.CategoryCount, 0, len(counts))
	for c, n := range counts {
		out = append(out, model.CategoryCount{Category: c, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Category < out[j].Category })
	return out, nil
}

func (m *memImageRepo) Random(ctx context.Context, category string) (*model.ImageRecord, error) {
	if m.RandomFunc != nil {
		return m.RandomFunc(ctx, category)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	filter := repository.CategoryFilter(category)
	for _, r := range m.rows {
		if filter == "" || r.Category == filter {
			return r, nil
		}
	}
	return nil, nil
}
