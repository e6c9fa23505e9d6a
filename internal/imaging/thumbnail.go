package imaging

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"

	"github.com/chai2010/webp"
	"github.com/disintegration/gift"
	"github.com/rocknbirra/galleryctl/internal/layout"
)

// DefaultThumbnailQuality is the WEBP quality used for gallery thumbnails.
const DefaultThumbnailQuality = 85

// Thumb describes a generated (or reused) thumbnail.
type Thumb struct {
	Path   string
	Width  int
	Height int
	Reused bool
}

// Thumbnail writes a WEBP of src scaled to height into dir, named after
// the source with a .webp extension. An existing file at that path is
// reused as is; the source is not compared against it.
func Thumbnail(src, dir string, height, quality int) (*Thumb, error) {
	if quality <= 0 {
		quality = DefaultThumbnailQuality
	}

	srcW, srcH, err := Dimensions(src)
	if err != nil {
		return nil, err
	}
	width := int(math.Round(float64(height) * float64(srcW) / float64(srcH)))

	thumb := &Thumb{
		Path:   filepath.Join(dir, layout.ThumbnailName(src)),
		Width:  width,
		Height: height,
	}

	if _, err := os.Stat(thumb.Path); err == nil {
		slog.Debug("Thumbnail already exists", "path", thumb.Path)
		thumb.Reused = true
		return thumb, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to stat thumbnail: %w", err)
	}

	img, err := Open(src)
	if err != nil {
		return nil, err
	}
	// Shrink only, never enlarge small sources.
	if srcH > height || srcW > width {
		img = apply(img, gift.Resize(width, height, gift.LanczosResampling))
	}

	f, err := os.Create(thumb.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to create thumbnail: %w", err)
	}
	if err := webp.Encode(f, img, &webp.Options{Quality: float32(quality)}); err != nil {
		f.Close()
		os.Remove(thumb.Path)
		return nil, fmt.Errorf("failed to encode thumbnail %s: %w", thumb.Path, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(thumb.Path)
		return nil, fmt.Errorf("failed to write thumbnail %s: %w", thumb.Path, err)
	}

	slog.Info("Saved thumbnail", "path", thumb.Path)
	return thumb, nil
}
