//go:build !integration

package media

import (
	"bytes"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/require"

	"telegram-random-image/internal/infra/logging"
)

func savePNG(t *testing.T, dir, name string, w, h int) []byte {
	t.Helper()
	img := imaging.New(w, h, color.NRGBA{R: 200, G: 80, B: 40, A: 255})
	path := filepath.Join(dir, name)
	require.NoError(t, imaging.Save(img, path))
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	return b
}

func TestLoader_SmallPhotoIsUntouched(t *testing.T) {
	dir := t.TempDir()
	want := savePNG(t, dir, "a.png", 40, 30)

	l := NewLoader(dir, logging.Nop())
	photo, err := l.Load("a.png")
	require.NoError(t, err)
	require.Equal(t, "a.png", photo.Name)
	require.Equal(t, want, photo.Bytes)
}

func TestLoader_MissingFile(t *testing.T) {
	l := NewLoader(t.TempDir(), logging.Nop())
	_, err := l.Load("gone.jpg")
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoader_PathStaysInsideDir(t *testing.T) {
	l := NewLoader("/srv/images", logging.Nop())
	require.Equal(t, filepath.Join("/srv/images", "passwd"), l.Path("../../etc/passwd"))
}

func TestLoader_DownscalesOversizedDimensions(t *testing.T) {
	dir := t.TempDir()
	savePNG(t, dir, "wide.png", 300, 100)

	l := NewLoader(dir, logging.Nop())
	l.maxDimSum = 200

	photo, err := l.Load("wide.png")
	require.NoError(t, err)
	require.Equal(t, "wide.jpg", photo.Name)

	cfg, format, err := image.DecodeConfig(bytes.NewReader(photo.Bytes))
	require.NoError(t, err)
	require.Equal(t, "jpeg", format)
	require.LessOrEqual(t, cfg.Width+cfg.Height, 200)
	require.InDelta(t, 3.0, float64(cfg.Width)/float64(cfg.Height), 0.1)
}

func TestLoader_UndecodableOversizedFileIsSentAsIs(t *testing.T) {
	dir := t.TempDir()
	raw := bytes.Repeat([]byte("not an image"), 20)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.jpg"), raw, 0o644))

	l := NewLoader(dir, logging.Nop())
	l.maxBytes = 16

	photo, err := l.Load("broken.jpg")
	require.NoError(t, err)
	require.Equal(t, "broken.jpg", photo.Name)
	require.Equal(t, raw, photo.Bytes)
}
