package media

import (
	"bytes"
	"fmt"
	"image"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/rs/zerolog"
	_ "golang.org/x/image/webp"

	"telegram-random-image/internal/domain/ports/adapter"
)

// Telegram rejects photos above these bounds.
const (
	MaxPhotoBytes   = 10 << 20
	MaxPhotoDimSum  = 10000
	downscaleJPEGQ  = 85
	maxShrinkPasses = 3
)

// Loader reads catalogued files from the images directory and makes sure
// they fit Telegram's photo limits.
type Loader struct {
	dir       string
	maxBytes  int64
	maxDimSum int
	log       *zerolog.Logger
}

func NewLoader(dir string, logger *zerolog.Logger) *Loader {
	return &Loader{dir: dir, maxBytes: MaxPhotoBytes, maxDimSum: MaxPhotoDimSum, log: logger}
}

// Path resolves a catalog filename inside the images directory.
func (l *Loader) Path(name string) string {
	return filepath.Join(l.dir, filepath.Base(name))
}

// Load returns the photo payload. A file that is gone from disk yields an
// error matching os.ErrNotExist.
func (l *Loader) Load(name string) (*adapter.Photo, error) {
	path := l.Path(name)
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	photo := &adapter.Photo{Name: filepath.Base(name), Bytes: b}

	if !l.oversized(b) {
		return photo, nil
	}
	out, err := l.shrink(b)
	if err != nil {
		// upload as-is and let Telegram decide
		l.log.Warn().Err(err).Str("filename", photo.Name).Msg("could not downscale oversized photo")
		return photo, nil
	}
	l.log.Debug().Str("filename", photo.Name).Int("from", len(b)).Int("to", len(out)).Msg("photo downscaled")
	photo.Bytes = out
	photo.Name = strings.TrimSuffix(photo.Name, filepath.Ext(photo.Name)) + ".jpg"
	return photo, nil
}

func (l *Loader) oversized(b []byte) bool {
	if int64(len(b)) > l.maxBytes {
		return true
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(b))
	if err != nil {
		return false
	}
	return cfg.Width+cfg.Height > l.maxDimSum
}

func (l *Loader) shrink(b []byte) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(b), imaging.AutoOrientation(true))
	if err != nil {
		return nil, err
	}

	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	if sum := w + h; sum > l.maxDimSum {
		scale := float64(l.maxDimSum) / float64(sum)
		img = imaging.Resize(img, scaled(w, scale), scaled(h, scale), imaging.Lanczos)
	}

	var buf bytes.Buffer
	for pass := 0; ; pass++ {
		buf.Reset()
		if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(downscaleJPEGQ)); err != nil {
			return nil, err
		}
		if int64(buf.Len()) <= l.maxBytes || pass == maxShrinkPasses {
			break
		}
		img = imaging.Resize(img, scaled(img.Bounds().Dx(), 0.8), 0, imaging.Lanczos)
	}
	return buf.Bytes(), nil
}

func scaled(n int, f float64) int {
	return int(math.Max(1, math.Floor(float64(n)*f)))
}
