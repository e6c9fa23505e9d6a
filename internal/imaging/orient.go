package imaging

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"github.com/disintegration/gift"
	"github.com/rwcarlsen/goexif/exif"
)

// ReadOrientation returns the EXIF orientation tag of an encoded image,
// or 1 when the image carries no usable tag.
func ReadOrientation(data []byte) int {
	x, err := exif.Decode(bytes.NewReader(data))
	if err != nil {
		return 1
	}
	tag, err := x.Get(exif.Orientation)
	if err != nil || tag == nil {
		return 1
	}
	o, err := tag.Int(0)
	if err != nil || o < 1 || o > 8 {
		return 1
	}
	return o
}

// ApplyOrientation transforms img so its pixels match the intended
// visual orientation for the given EXIF tag value.
func ApplyOrientation(img image.Image, orientation int) image.Image {
	var filter gift.Filter
	switch orientation {
	case 2:
		filter = gift.FlipHorizontal()
	case 3:
		filter = gift.Rotate180()
	case 4:
		filter = gift.FlipVertical()
	case 5:
		filter = gift.Transpose()
	case 6:
		filter = gift.Rotate270()
	case 7:
		filter = gift.Transverse()
	case 8:
		filter = gift.Rotate90()
	default:
		return img
	}
	return apply(img, filter)
}

// swapsAxes reports whether the orientation turns width into height.
func swapsAxes(orientation int) bool {
	return orientation >= 5 && orientation <= 8
}

func apply(img image.Image, filters ...gift.Filter) *image.NRGBA {
	g := gift.New(filters...)
	dst := image.NewNRGBA(g.Bounds(img.Bounds()))
	g.Draw(dst, img)
	return dst
}

// Open decodes the image at path with its EXIF orientation applied.
func Open(path string) (image.Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return ApplyOrientation(img, ReadOrientation(data)), nil
}

// Dimensions returns the orientation-corrected size of the image at path
// without decoding its pixels.
func Dimensions(path string) (int, int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to read image: %w", err)
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	if swapsAxes(ReadOrientation(data)) {
		return cfg.Height, cfg.Width, nil
	}
	return cfg.Width, cfg.Height, nil
}
