package publishcmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/rocknbirra/galleryctl/internal/config"
	"github.com/rocknbirra/galleryctl/internal/gallery"
	"github.com/rocknbirra/galleryctl/internal/imaging"
	"github.com/rocknbirra/galleryctl/internal/index"
	"github.com/rocknbirra/galleryctl/internal/layout"
	"github.com/rocknbirra/galleryctl/internal/pipeline"
	"github.com/rocknbirra/galleryctl/internal/report"
)

// loadConfig reads the file named by the persistent --config flag. A
// missing file is only tolerated when the flag was left at its default.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path := "config.json"
	explicit := false
	if f := cmd.Flag("config"); f != nil {
		path = f.Value.String()
		explicit = f.Changed
	}
	return readConfig(path, explicit)
}

func readConfig(path string, explicit bool) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err == nil {
		return cfg, nil
	}
	if !explicit && errors.Is(err, fs.ErrNotExist) {
		slog.Debug("No config file, using defaults", "path", path)
		return config.Default(), nil
	}
	return nil, err
}

// resolveYear returns flagYear when set, otherwise the year of date.
func resolveYear(flagYear int, date string) (int, error) {
	if flagYear > 0 {
		if _, err := layout.ParseDate(date); err != nil {
			return 0, err
		}
		return flagYear, nil
	}
	return layout.YearOf(date)
}

func executePublish(ctx context.Context, cfg *config.Config, year int, inputDir, date, title, cover, reportPath string) error {
	p, err := pipeline.New(cfg, year)
	if err != nil {
		return err
	}

	res, runErr := p.Run(ctx, pipeline.Request{
		InputDir: inputDir,
		Date:     date,
		Title:    title,
		Cover:    cover,
	})

	if reportPath != "" {
		if err := report.Save(reportPath, report.Build(res, runErr, time.Now())); err != nil {
			slog.Error("Failed to save report", "path", reportPath, "error", err)
		} else {
			fmt.Printf("Report saved to %s\n", reportPath)
		}
	}

	if runErr != nil {
		return runErr
	}

	fmt.Printf("Published %s (%s) to %s\n", title, layout.DisplayDate(date), res.Repo)
	fmt.Printf("  uploaded: %d, deleted: %d, photos: %d\n", len(res.Sync.Uploaded), len(res.Sync.Deleted), len(res.Sync.Final))
	fmt.Printf("  gallery:  %s (%d items)\n", res.Gallery.Path, len(res.Gallery.Items))
	if res.IndexUpdated {
		fmt.Printf("  index:    card added to %s\n", cfg.PhotosHTMLPath)
	} else {
		fmt.Printf("  index:    %s already links to this gallery\n", cfg.PhotosHTMLPath)
	}
	return nil
}

func executeSync(ctx context.Context, cfg *config.Config, year int, inputDir, date, title string) error {
	p, err := pipeline.New(cfg, year)
	if err != nil {
		return err
	}

	res, err := p.Reconcile(ctx, pipeline.Request{InputDir: inputDir, Date: date, Title: title})
	if err != nil {
		return err
	}

	fmt.Printf("Synced %s/%s\n", p.Repo, date)
	fmt.Printf("  uploaded: %d, deleted: %d, unchanged: %d\n", len(res.Uploaded), len(res.Deleted), len(res.Plan.Unchanged))
	if n := len(res.FailedDelete) + len(res.FailedMark) + len(res.FailedUpload); n > 0 {
		fmt.Printf("  failed:   %d\n", n)
	}
	return nil
}

func executeGallery(imageDir, outputDir, title, repoURL, indexPath string, quality int) error {
	g := &gallery.Generator{Quality: quality, IndexPath: indexPath}
	page, err := g.Generate(gallery.Request{
		ImageDir:  imageDir,
		OutputDir: outputDir,
		Title:     title,
		RepoURL:   repoURL,
	})
	if err != nil {
		return err
	}

	fmt.Printf("Gallery written to %s (%d items", page.Path, len(page.Items))
	if len(page.Skipped) > 0 {
		fmt.Printf(", %d skipped", len(page.Skipped))
	}
	fmt.Println(")")
	return nil
}

func executeIndex(cfg *config.Config, year int, date, title, cover string) error {
	u := &index.Updater{Path: cfg.PhotosHTMLPath, Layout: layout.New(cfg.ImagesRoot, year)}
	added, err := u.Insert(date, title, cover)
	if err != nil {
		return err
	}
	if added {
		fmt.Printf("Added %s to %s\n", u.Layout.GalleryHref(date, title), cfg.PhotosHTMLPath)
	} else {
		fmt.Printf("%s already links to %s\n", cfg.PhotosHTMLPath, u.Layout.GalleryHref(date, title))
	}
	return nil
}

func executeWatermark(cfg *config.Config, input, output string) error {
	wm, err := imaging.NewWatermarker(cfg.WatermarkLogoPath, cfg.MarginBottom)
	if err != nil {
		return err
	}
	if err := wm.Apply(input, output); err != nil {
		return err
	}
	fmt.Printf("Watermarked %s -> %s\n", input, output)
	return nil
}
