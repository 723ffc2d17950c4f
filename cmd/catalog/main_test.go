//go:build !integration

package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"telegram-random-image/internal/infra/db/sqlite"
	"telegram-random-image/internal/infra/logging"
	"telegram-random-image/internal/usecase"
)

type fixture struct {
	uc     usecase.CatalogUseCase
	images string
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	dir := t.TempDir()
	repo, err := sqlite.NewSQLiteImageRepo(context.Background(), filepath.Join(dir, "images.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })

	images := filepath.Join(dir, "images")
	require.NoError(t, os.Mkdir(images, 0o755))
	return fixture{uc: usecase.NewCatalogUseCase(repo, logging.Nop()), images: images}
}

func (f fixture) run(t *testing.T, args ...string) (int, string) {
	t.Helper()
	var out bytes.Buffer
	code := run(context.Background(), args, &out, f.uc, f.images, logging.Nop())
	return code, out.String()
}

func TestCLI_AddStatsListDelete(t *testing.T) {
	f := newFixture(t)
	for _, n := range []string{"a.jpg", "b.png", "skip.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(f.images, n), []byte("x"), 0o644))
	}

	code, out := f.run(t, "list")
	require.Equal(t, 0, code)
	require.Contains(t, out, "the catalog is empty")

	code, out = f.run(t, "add", "nature")
	require.Equal(t, 0, code)
	require.Contains(t, out, "added:   2")
	require.Contains(t, out, "skipped: 0")
	require.Contains(t, out, f.images)

	code, out = f.run(t, "add")
	require.Equal(t, 0, code)
	require.Contains(t, out, "added:   0")
	require.Contains(t, out, "skipped: 2")

	code, out = f.run(t, "stats")
	require.Equal(t, 0, code)
	require.Contains(t, out, "total images: 2")
	require.Contains(t, out, "• nature: 2")

	code, out = f.run(t, "list")
	require.Equal(t, 0, code)
	require.Contains(t, out, "1. a.jpg (nature) - ")
	require.Contains(t, out, "2. b.png (nature) - ")

	code, out = f.run(t, "delete", "1")
	require.Equal(t, 0, code)
	require.Contains(t, out, "image 1 deleted")

	code, out = f.run(t, "delete", "1")
	require.Equal(t, 1, code)
	require.Contains(t, out, "image 1 not found")

	code, out = f.run(t)
	require.Equal(t, 0, code)
	statsAt := strings.Index(out, "Catalog statistics")
	listAt := strings.Index(out, "2. b.png")
	require.True(t, statsAt >= 0 && listAt > statsAt, "stats must precede the listing:\n%s", out)
}

func TestCLI_Errors(t *testing.T) {
	f := newFixture(t)

	code, out := f.run(t, "add")
	require.Equal(t, 0, code, out)

	require.NoError(t, os.Remove(f.images))
	code, out = f.run(t, "add")
	require.Equal(t, 1, code)
	require.Contains(t, out, "does not exist")

	code, out = f.run(t, "delete")
	require.Equal(t, 2, code)
	require.Contains(t, out, "usage:")

	code, out = f.run(t, "delete", "abc")
	require.Equal(t, 2, code)
	require.Contains(t, out, "invalid id")

	code, out = f.run(t, "frobnicate")
	require.Equal(t, 2, code)
	require.Contains(t, out, `unknown command "frobnicate"`)
}
