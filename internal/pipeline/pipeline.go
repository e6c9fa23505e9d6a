package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/rocknbirra/galleryctl/internal/config"
	"github.com/rocknbirra/galleryctl/internal/gallery"
	"github.com/rocknbirra/galleryctl/internal/imaging"
	"github.com/rocknbirra/galleryctl/internal/index"
	"github.com/rocknbirra/galleryctl/internal/layout"
	"github.com/rocknbirra/galleryctl/internal/mirror"
	"github.com/rocknbirra/galleryctl/internal/photorepo"
	"github.com/rocknbirra/galleryctl/internal/syncer"
)

// Stages, in execution order.
const (
	StageSync    = "sync"
	StageMirror  = "mirror"
	StageGallery = "gallery"
	StageIndex   = "index"
)

// ErrNoFiles is returned when the input directory holds no photos.
var ErrNoFiles = errors.New("no files available")

// StageError tells which stage stopped the pipeline.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s stage failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// Remote is the photo repository API used by the pipeline.
type Remote interface {
	syncer.Remote
	CreateRepository(ctx context.Context, name, description string) error
	RawBaseURL(repo, dir string) string
}

// Mirror provides the local working copy of the photo repository.
type Mirror interface {
	Sync(ctx context.Context, repo string) (string, error)
	WaitForImages(ctx context.Context, repo, date string) (string, error)
}

// Pipeline publishes one dated gallery end to end.
type Pipeline struct {
	Repo        string
	Layout      layout.Layout
	Remote      Remote
	Watermarker syncer.Watermarker
	Mirror      Mirror
	Gallery     *gallery.Generator
	Index       *index.Updater
	TempRoot    string
}

// Request names the gallery to publish.
type Request struct {
	InputDir string
	Date     string
	Title    string
	Cover    string
}

// Result collects what each stage produced.
type Result struct {
	Date         string
	Title        string
	Year         int
	Repo         string
	Stage        string
	Sync         *syncer.Result
	ImageDir     string
	Gallery      *gallery.Page
	IndexUpdated bool
}

// New wires a Pipeline from configuration for the given publication year.
func New(cfg *config.Config, year int) (*Pipeline, error) {
	wm, err := imaging.NewWatermarker(cfg.WatermarkLogoPath, cfg.MarginBottom)
	if err != nil {
		return nil, err
	}
	client, err := photorepo.NewClient(photorepo.Options{
		Owner:   cfg.GitHubUsername,
		Token:   cfg.GitHubToken,
		Branch:  cfg.PhotoRepoBranch,
		BaseURL: cfg.GitHubAPIURL,
	})
	if err != nil {
		return nil, err
	}

	l := layout.New(cfg.ImagesRoot, year)
	return &Pipeline{
		Repo:        cfg.RepoName(year),
		Layout:      l,
		Remote:      client,
		Watermarker: wm,
		Mirror: &mirror.Mirror{
			Root:     cfg.MirrorRoot,
			Token:    cfg.GitHubToken,
			Attempts: cfg.MirrorAttempts,
			Delay:    time.Duration(cfg.MirrorDelay),
			CloneURL: client.CloneURL,
		},
		Gallery: &gallery.Generator{IndexPath: cfg.PhotosHTMLPath},
		Index:   &index.Updater{Path: cfg.PhotosHTMLPath, Layout: l},
	}, nil
}

// Run executes the stages in order and stops at the first failure.
// The returned Result is populated up to the failing stage.
func (p *Pipeline) Run(ctx context.Context, req Request) (*Result, error) {
	slog.Info("Starting", "date", req.Date, "title", req.Title, "repo", p.Repo)
	res := &Result{Date: req.Date, Title: req.Title, Year: p.Layout.Year, Repo: p.Repo}

	res.Stage = StageSync
	syncRes, err := p.Reconcile(ctx, req)
	res.Sync = syncRes
	if err != nil {
		return res, &StageError{Stage: StageSync, Err: err}
	}
	slog.Info("Sync complete", "deleted", len(syncRes.Deleted), "uploaded", len(syncRes.Uploaded), "total", len(syncRes.Final))
	if len(syncRes.Final) == 0 {
		return res, &StageError{Stage: StageSync, Err: ErrNoFiles}
	}
	if req.Cover != "" && !slices.Contains(syncRes.Final, req.Cover) {
		slog.Warn("Cover image is not among the gallery photos", "cover", req.Cover)
	}

	res.Stage = StageMirror
	if _, err := p.Mirror.Sync(ctx, p.Repo); err != nil {
		return res, &StageError{Stage: StageMirror, Err: err}
	}
	imageDir, err := p.Mirror.WaitForImages(ctx, p.Repo, req.Date)
	if err != nil {
		return res, &StageError{Stage: StageMirror, Err: err}
	}
	res.ImageDir = imageDir

	res.Stage = StageGallery
	page, err := p.Gallery.Generate(gallery.Request{
		ImageDir:  imageDir,
		OutputDir: p.Layout.DateDir(req.Date),
		Title:     req.Title,
		RepoURL:   p.Remote.RawBaseURL(p.Repo, req.Date),
	})
	if err != nil {
		return res, &StageError{Stage: StageGallery, Err: err}
	}
	res.Gallery = page

	res.Stage = StageIndex
	updated, err := p.Index.Insert(req.Date, req.Title, req.Cover)
	if err != nil {
		return res, &StageError{Stage: StageIndex, Err: err}
	}
	res.IndexUpdated = updated

	slog.Info("Complete", "date", req.Date, "gallery", page.Path)
	return res, nil
}

// Reconcile makes sure the photo repository exists and mirrors
// req.InputDir into its dated directory.
func (p *Pipeline) Reconcile(ctx context.Context, req Request) (*syncer.Result, error) {
	desc := fmt.Sprintf("Photo gallery for %d", p.Layout.Year)
	if err := p.Remote.CreateRepository(ctx, p.Repo, desc); err != nil {
		// Listing and uploads report their own failures.
		slog.Warn("Unable to create repository", "repo", p.Repo, "error", err)
	}

	r := &syncer.Reconciler{Remote: p.Remote, Watermarker: p.Watermarker, TempRoot: p.TempRoot}
	return r.Run(ctx, syncer.Request{
		InputDir:  req.InputDir,
		Repo:      p.Repo,
		Date:      req.Date,
		ThumbDirs: p.Layout.ThumbDirs(req.Date, req.Title),
	})
}
