package index

import (
	"fmt"
	"html"
	"log/slog"
	"os"
	"path"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rocknbirra/galleryctl/internal/layout"
)

const containerTag = `<div class="container">`

// Updater adds gallery cards to the Photos.html index page.
type Updater struct {
	Path   string
	Layout layout.Layout
}

// Card is the data rendered into one index entry.
type Card struct {
	Href     string
	CoverURL string
	Date     string
	Title    string
}

// Insert adds a card for the gallery unless the index already links to
// it. It reports whether the document was changed.
func (u *Updater) Insert(date, title, cover string) (bool, error) {
	data, err := os.ReadFile(u.Path)
	if err != nil {
		return false, fmt.Errorf("failed to read index page: %w", err)
	}
	content := string(data)

	card := Card{
		Href:     u.Layout.GalleryHref(date, title),
		CoverURL: u.Layout.CoverHref(date, title, cover),
		Date:     layout.DisplayDate(date),
		Title:    title,
	}

	exists, err := u.linked(content, card.Href, u.legacyHref(date))
	if err != nil {
		return false, err
	}
	if exists {
		slog.Info("Index entry already exists, skipping update", "href", card.Href)
		return false, nil
	}

	updated, err := insertCard(content, u.Layout.YearMarker(), card.Render())
	if err != nil {
		return false, fmt.Errorf("%s: %w", u.Path, err)
	}
	if err := os.WriteFile(u.Path, []byte(updated), 0644); err != nil {
		return false, fmt.Errorf("failed to write index page: %w", err)
	}

	slog.Info("Index page updated", "path", u.Path, "href", card.Href)
	return true, nil
}

// legacyHref is the link format written before galleries got a title
// directory; such entries also count as present.
func (u *Updater) legacyHref(date string) string {
	return path.Join(u.Layout.ImagesRoot, strconv.Itoa(u.Layout.Year), date, "gallery.html")
}

// linked reports whether any anchor in the document points at one of hrefs.
func (u *Updater) linked(content string, hrefs ...string) (bool, error) {
	// Raw match first; the parser may drop anchors from broken markup.
	for _, want := range hrefs {
		if strings.Contains(content, `href="`+want+`"`) {
			return true, nil
		}
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return false, fmt.Errorf("failed to parse index page: %w", err)
	}

	found := false
	doc.Find("a[href]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		href, _ := s.Attr("href")
		for _, want := range hrefs {
			if href == want {
				found = true
			}
		}
		return !found
	})
	return found, nil
}

// Render returns the card markup.
func (c Card) Render() string {
	return fmt.Sprintf(`<div class="home-buttons">
            <div class="card">
                <a class="albums" href="%s" style="--background-image-url: url(%s);">
                    <h2 class="album-title">%s <br> %s </h2>
                </a>
            </div>
        </div>`,
		html.EscapeString(c.Href),
		html.EscapeString(c.CoverURL),
		html.EscapeString(c.Date),
		html.EscapeString(c.Title))
}

// insertCard places card right after the year marker, or opens a new
// year section at the top of the container.
func insertCard(content, marker, card string) (string, error) {
	if i := strings.Index(content, marker); i >= 0 {
		pos := i + len(marker)
		return content[:pos] + "\n        " + card + content[pos:], nil
	}

	i := strings.Index(content, containerTag)
	if i < 0 {
		return "", fmt.Errorf("no %s marker or %s element to insert into", marker, containerTag)
	}
	pos := i + len(containerTag)
	return content[:pos] + "\n        " + marker + "\n        " + card + content[pos:], nil
}
