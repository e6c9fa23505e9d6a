package gallery

import (
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rocknbirra/galleryctl/internal/imaging/imagingtest"
)

func writePhotos(t *testing.T, dir string) {
	t.Helper()
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	imagingtest.Write(t, filepath.Join(dir, "a.jpg"), imagingtest.JPEG(t, imagingtest.Solid(1200, 800, color.NRGBA{R: 200, A: 255}), 0))
	imagingtest.Write(t, filepath.Join(dir, "b.png"), imagingtest.PNG(t, imagingtest.Solid(800, 1200, color.NRGBA{G: 200, A: 255})))
	imagingtest.Write(t, filepath.Join(dir, "broken.jpg"), []byte("not a photo"))
	imagingtest.Write(t, filepath.Join(dir, "notes.txt"), []byte("skip me"))
}

func TestGenerate(t *testing.T) {
	root := t.TempDir()
	imageDir := filepath.Join(root, "mirror", "14-06-25")
	outputDir := filepath.Join(root, "images", "2025", "14-06-25")
	writePhotos(t, imageDir)

	g := &Generator{IndexPath: filepath.Join(root, "Photos.html")}
	page, err := g.Generate(Request{
		ImageDir:  imageDir,
		OutputDir: outputDir,
		Title:     "Live",
		RepoURL:   "https://raw.githubusercontent.com/RocknBirra/RocknBirra-Foto2025/main/14-06-25/",
	})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if page.Path != filepath.Join(outputDir, "Live", "gallery.html") {
		t.Errorf("Unexpected page path %s", page.Path)
	}
	if len(page.Items) != 2 {
		t.Fatalf("Expected 2 items, got %d", len(page.Items))
	}
	if len(page.Skipped) != 1 || page.Skipped[0] != "broken.jpg" {
		t.Errorf("Expected broken.jpg skipped, got %v", page.Skipped)
	}

	a := page.Items[0]
	if a.SmallSrc != "406px/a.webp" || a.LargeSrc != "768px/a.webp" {
		t.Errorf("Unexpected thumbnail paths %s %s", a.SmallSrc, a.LargeSrc)
	}
	if a.LargeWidth != 1152 || a.LargeHeight != 768 {
		t.Errorf("Expected 1152x768, got %dx%d", a.LargeWidth, a.LargeHeight)
	}
	if a.DownloadURL != "https://raw.githubusercontent.com/RocknBirra/RocknBirra-Foto2025/main/14-06-25/a.jpg" {
		t.Errorf("Unexpected download URL %s", a.DownloadURL)
	}

	for _, p := range []string{"406px/a.webp", "768px/a.webp", "406px/b.webp", "768px/b.webp"} {
		if _, err := os.Stat(filepath.Join(outputDir, "Live", p)); err != nil {
			t.Errorf("Expected thumbnail %s: %v", p, err)
		}
	}

	data, err := os.ReadFile(page.Path)
	if err != nil {
		t.Fatal(err)
	}
	html := string(data)
	if n := strings.Count(html, `class="gallery-item"`); n != 2 {
		t.Errorf("Expected 2 gallery items in page, got %d", n)
	}
	for _, want := range []string{
		`data-lg-size="1152-768"`,
		`data-src="./768px/a.webp"`,
		`src="./406px/b.webp"`,
		`href="../../../../Photos.html"`,
		"jquery.justifiedGallery.min.js",
		"lightgallery.min.js",
		"<h1>Live</h1>",
	} {
		if !strings.Contains(html, want) {
			t.Errorf("Expected page to contain %s", want)
		}
	}
	if strings.Contains(html, "broken") {
		t.Error("Expected broken photo to be left out")
	}
}

func TestGenerateEscapesTitle(t *testing.T) {
	root := t.TempDir()
	imageDir := filepath.Join(root, "in")
	if err := os.MkdirAll(imageDir, 0755); err != nil {
		t.Fatal(err)
	}

	page, err := (&Generator{}).Generate(Request{ImageDir: imageDir, OutputDir: root, Title: "Rock & <Birra>"})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	data, _ := os.ReadFile(page.Path)
	if !strings.Contains(string(data), "<h1>Rock &amp; &lt;Birra&gt;</h1>") {
		t.Error("Expected title to be HTML escaped")
	}
	if !strings.Contains(string(data), `href="/Photos.html"`) {
		t.Error("Expected default back link")
	}
}

func TestGenerateErrors(t *testing.T) {
	root := t.TempDir()
	if _, err := (&Generator{}).Generate(Request{ImageDir: filepath.Join(root, "missing"), OutputDir: root, Title: "x"}); err == nil {
		t.Error("Expected error for missing image directory")
	}
	if _, err := (&Generator{}).Generate(Request{ImageDir: root, OutputDir: root}); err == nil {
		t.Error("Expected error for empty title")
	}
}
