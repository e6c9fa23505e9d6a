package gallery

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/rocknbirra/galleryctl/internal/imaging"
	"github.com/rocknbirra/galleryctl/internal/layout"
)

//go:embed templates/gallery.html
var templateFS embed.FS

var pageTemplate = template.Must(template.ParseFS(templateFS, "templates/gallery.html"))

// Request describes one gallery page to build.
type Request struct {
	ImageDir  string // source photos
	OutputDir string // the page lands in OutputDir/Title
	Title     string
	RepoURL   string // download prefix for original photos
}

// Item is one photo on the page.
type Item struct {
	Filename    string
	SmallSrc    string
	LargeSrc    string
	LargeWidth  int
	LargeHeight int
	DownloadURL string
}

// Page is the generated gallery.
type Page struct {
	Path    string
	Items   []Item
	Skipped []string
}

// Generator renders gallery pages with 406px and 768px WEBP thumbnails.
type Generator struct {
	Quality int
	// IndexPath is the index page the back link points to. Empty means
	// the site root Photos.html.
	IndexPath string
}

// Generate builds thumbnails for every photo in req.ImageDir and writes
// gallery.html. Photos that fail to process are logged and left out.
func (g *Generator) Generate(req Request) (*Page, error) {
	if req.Title == "" {
		return nil, fmt.Errorf("gallery title is required")
	}

	titleDir := filepath.Join(req.OutputDir, req.Title)
	smallDir := filepath.Join(titleDir, layout.ThumbDirName(layout.SmallHeight))
	largeDir := filepath.Join(titleDir, layout.ThumbDirName(layout.LargeHeight))
	for _, dir := range []string{smallDir, largeDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}

	entries, err := os.ReadDir(req.ImageDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read image directory: %w", err)
	}

	page := &Page{Path: filepath.Join(titleDir, "gallery.html")}
	for _, entry := range entries {
		if entry.IsDir() || !layout.IsImage(entry.Name()) {
			continue
		}
		src := filepath.Join(req.ImageDir, entry.Name())
		slog.Info("Processing image", "path", src)

		item, err := g.item(src, smallDir, largeDir, req.RepoURL)
		if err != nil {
			slog.Error("Error processing image", "path", src, "error", err)
			page.Skipped = append(page.Skipped, entry.Name())
			continue
		}
		page.Items = append(page.Items, *item)
	}

	html, err := g.render(req.Title, titleDir, page.Items)
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(page.Path, html, 0644); err != nil {
		return nil, fmt.Errorf("failed to write gallery: %w", err)
	}

	slog.Info("HTML gallery created", "path", page.Path, "items", len(page.Items), "skipped", len(page.Skipped))
	return page, nil
}

func (g *Generator) item(src, smallDir, largeDir, repoURL string) (*Item, error) {
	small, err := imaging.Thumbnail(src, smallDir, layout.SmallHeight, g.Quality)
	if err != nil {
		return nil, err
	}
	large, err := imaging.Thumbnail(src, largeDir, layout.LargeHeight, g.Quality)
	if err != nil {
		return nil, err
	}

	name := filepath.Base(src)
	return &Item{
		Filename:    name,
		SmallSrc:    path.Join(layout.ThumbDirName(layout.SmallHeight), filepath.Base(small.Path)),
		LargeSrc:    path.Join(layout.ThumbDirName(layout.LargeHeight), filepath.Base(large.Path)),
		LargeWidth:  large.Width,
		LargeHeight: large.Height,
		DownloadURL: strings.TrimSuffix(repoURL, "/") + "/" + name,
	}, nil
}

func (g *Generator) render(title, titleDir string, items []Item) ([]byte, error) {
	var buf bytes.Buffer
	err := pageTemplate.Execute(&buf, struct {
		Title     string
		IndexHref string
		Items     []Item
	}{
		Title:     title,
		IndexHref: g.indexHref(titleDir),
		Items:     items,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to render gallery: %w", err)
	}
	return buf.Bytes(), nil
}

// indexHref links back to the index page relative to the gallery directory.
func (g *Generator) indexHref(titleDir string) string {
	if g.IndexPath == "" {
		return "/Photos.html"
	}
	rel, err := filepath.Rel(titleDir, g.IndexPath)
	if err != nil {
		return "/" + filepath.Base(g.IndexPath)
	}
	return filepath.ToSlash(rel)
}
