package layout

import (
	"fmt"
	"net/url"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// DateFormat is the DD-MM-YY form used for gallery dates.
const DateFormat = "02-01-06"

// Thumbnail heights rendered for every gallery.
const (
	SmallHeight = 406
	LargeHeight = 768
)

// Layout maps a gallery date and title onto the generated file tree
// for a single publication year.
type Layout struct {
	ImagesRoot string
	Year       int
}

// New returns a Layout rooted at imagesRoot for the given year.
func New(imagesRoot string, year int) Layout {
	if imagesRoot == "" {
		imagesRoot = "images"
	}
	return Layout{ImagesRoot: imagesRoot, Year: year}
}

// DateDir is the output root handed to the gallery generator.
func (l Layout) DateDir(date string) string {
	return filepath.Join(l.ImagesRoot, strconv.Itoa(l.Year), date)
}

func (l Layout) GalleryDir(date, title string) string {
	return filepath.Join(l.DateDir(date), title)
}

func (l Layout) ThumbDir(date, title string, height int) string {
	return filepath.Join(l.GalleryDir(date, title), ThumbDirName(height))
}

// ThumbDirs returns both thumbnail directories of a gallery.
func (l Layout) ThumbDirs(date, title string) []string {
	return []string{
		l.ThumbDir(date, title, SmallHeight),
		l.ThumbDir(date, title, LargeHeight),
	}
}

// GalleryHref is the link written into the index page for a gallery.
func (l Layout) GalleryHref(date, title string) string {
	return l.href(date, title, "gallery.html")
}

// CoverHref points at the 406px thumbnail of the cover image.
func (l Layout) CoverHref(date, title, cover string) string {
	return l.href(date, title, ThumbDirName(SmallHeight), ThumbnailName(cover))
}

func (l Layout) href(date, title string, rest ...string) string {
	segments := []string{filepath.ToSlash(l.ImagesRoot), strconv.Itoa(l.Year), date, title}
	segments = append(segments, rest...)
	for i, s := range segments {
		if i == 0 {
			continue
		}
		segments[i] = url.PathEscape(s)
	}
	return path.Join(segments...)
}

// YearMarker is the comment that groups index cards by year.
func (l Layout) YearMarker() string {
	return fmt.Sprintf("<!-- %d -->", l.Year)
}

func ThumbDirName(height int) string {
	return fmt.Sprintf("%dpx", height)
}

// ThumbnailName swaps the extension of a photo filename for .webp.
func ThumbnailName(filename string) string {
	base := filepath.Base(filename)
	return strings.TrimSuffix(base, filepath.Ext(base)) + ".webp"
}

// IsImage reports whether name carries a supported photo extension.
func IsImage(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".jpg", ".jpeg", ".png":
		return true
	}
	return false
}

// ParseDate validates a DD-MM-YY gallery date.
func ParseDate(date string) (time.Time, error) {
	t, err := time.Parse(DateFormat, date)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected DD-MM-YY: %w", date, err)
	}
	return t, nil
}

// YearOf returns the four digit year of a DD-MM-YY date.
func YearOf(date string) (int, error) {
	t, err := ParseDate(date)
	if err != nil {
		return 0, err
	}
	return t.Year(), nil
}

// DisplayDate renders a gallery date the way index cards show it.
func DisplayDate(date string) string {
	return strings.ReplaceAll(date, "-", "/")
}
