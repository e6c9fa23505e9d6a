package imaging

import (
	"fmt"
	"image"
	"image/jpeg"
	"os"

	"golang.org/x/image/draw"
)

const (
	watermarkQuality = 95
	landscapeScale   = 0.25
	portraitScale    = 0.33
)

// Watermarker stamps a logo at the bottom center of photos.
type Watermarker struct {
	Logo         image.Image
	MarginBottom int
}

// NewWatermarker loads the logo at logoPath.
func NewWatermarker(logoPath string, marginBottom int) (*Watermarker, error) {
	logo, err := LoadLogo(logoPath)
	if err != nil {
		return nil, err
	}
	return &Watermarker{Logo: logo, MarginBottom: marginBottom}, nil
}

// LoadLogo decodes the logo and converts it to NRGBA so its alpha
// channel survives scaling.
func LoadLogo(path string) (*image.NRGBA, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open logo: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode logo %s: %w", path, err)
	}
	if nrgba, ok := img.(*image.NRGBA); ok {
		return nrgba, nil
	}
	return apply(img), nil
}

// Placement is the size and position of the logo on a photo.
type Placement struct {
	Width  int
	Height int
	X      int
	Y      int
}

// Rect returns the destination rectangle of the logo.
func (p Placement) Rect() image.Rectangle {
	return image.Rect(p.X, p.Y, p.X+p.Width, p.Y+p.Height)
}

// Place computes where a logo of logoW x logoH goes on a w x h photo.
// Landscape photos get a logo 25% of their width, portrait ones 33%.
func Place(w, h, logoW, logoH, marginBottom int) Placement {
	scale := portraitScale
	if w > h {
		scale = landscapeScale
	}
	wmW := max(int(float64(w)*scale), 1)
	aspect := float64(logoW) / float64(logoH)
	wmH := max(int(float64(wmW)/aspect), 1)

	return Placement{
		Width:  wmW,
		Height: wmH,
		X:      (w - wmW) / 2,
		Y:      h - wmH - marginBottom,
	}
}

// Render composites the logo over an opaque copy of img and returns the
// result.
func (wm *Watermarker) Render(img image.Image) (image.Image, Placement) {
	bounds := img.Bounds()
	logoBounds := wm.Logo.Bounds()
	p := Place(bounds.Dx(), bounds.Dy(), logoBounds.Dx(), logoBounds.Dy(), wm.MarginBottom)

	logo := image.NewNRGBA(image.Rect(0, 0, p.Width, p.Height))
	draw.CatmullRom.Scale(logo, logo.Bounds(), wm.Logo, logoBounds, draw.Src, nil)

	dst := opaque(img)
	draw.Draw(dst, p.Rect(), logo, image.Point{}, draw.Over)

	return dst, p
}

// opaque copies img into an NRGBA with full alpha everywhere. Transparent
// pixels keep their stored colour instead of turning black.
func opaque(img image.Image) *image.NRGBA {
	b := img.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	if src, ok := img.(*image.NRGBA); ok {
		row := b.Dx() * 4
		for y := 0; y < b.Dy(); y++ {
			off := src.PixOffset(b.Min.X, b.Min.Y+y)
			copy(dst.Pix[y*dst.Stride:y*dst.Stride+row], src.Pix[off:off+row])
		}
	} else {
		draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	}
	for i := 3; i < len(dst.Pix); i += 4 {
		dst.Pix[i] = 0xff
	}
	return dst
}

// Apply watermarks the photo at src and writes it to dst as JPEG.
func (wm *Watermarker) Apply(src, dst string) error {
	img, err := Open(src)
	if err != nil {
		return err
	}

	out, _ := wm.Render(img)

	f, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dst, err)
	}
	if err := jpeg.Encode(f, out, &jpeg.Options{Quality: watermarkQuality}); err != nil {
		f.Close()
		os.Remove(dst)
		return fmt.Errorf("failed to encode %s: %w", dst, err)
	}
	return f.Close()
}
