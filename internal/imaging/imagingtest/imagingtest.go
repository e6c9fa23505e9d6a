// Package imagingtest builds small photo fixtures for tests.
package imagingtest

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"testing"
)

// Solid returns a w x h image filled with c.
func Solid(w, h int, c color.Color) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

// JPEG encodes img and, when orientation is non-zero, embeds an EXIF
// APP1 segment carrying that orientation tag.
func JPEG(t testing.TB, img image.Image, orientation int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 95}); err != nil {
		t.Fatalf("failed to encode jpeg: %v", err)
	}
	data := buf.Bytes()
	if orientation == 0 {
		return data
	}

	out := append([]byte{}, data[:2]...)
	out = append(out, exifSegment(orientation)...)
	return append(out, data[2:]...)
}

// PNG encodes img as PNG.
func PNG(t testing.TB, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode png: %v", err)
	}
	return buf.Bytes()
}

// Write stores data at path.
func Write(t testing.TB, path string, data []byte) {
	t.Helper()
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}

// exifSegment is a minimal little-endian TIFF block holding IFD0 with a
// single Orientation (0x0112) SHORT entry.
func exifSegment(orientation int) []byte {
	le := binary.LittleEndian
	var tiff bytes.Buffer
	tiff.WriteString("II")
	binary.Write(&tiff, le, uint16(42))
	binary.Write(&tiff, le, uint32(8))
	binary.Write(&tiff, le, uint16(1))
	binary.Write(&tiff, le, uint16(0x0112))
	binary.Write(&tiff, le, uint16(3))
	binary.Write(&tiff, le, uint32(1))
	binary.Write(&tiff, le, uint16(orientation))
	binary.Write(&tiff, le, uint16(0))
	binary.Write(&tiff, le, uint32(0))

	payload := append([]byte("Exif\x00\x00"), tiff.Bytes()...)
	size := len(payload) + 2
	seg := []byte{0xFF, 0xE1, byte(size >> 8), byte(size)}
	return append(seg, payload...)
}
