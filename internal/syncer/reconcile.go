package syncer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/rocknbirra/galleryctl/internal/layout"
	"github.com/rocknbirra/galleryctl/internal/photorepo"
)

// Remote is the subset of the photo repository API the reconciler needs.
type Remote interface {
	ListDirectory(ctx context.Context, repo, dir string) (map[string]string, error)
	UploadFile(ctx context.Context, repo, dir, name string, content []byte) error
	DeleteFile(ctx context.Context, repo, dir, name, sha string) error
}

// Watermarker renders a watermarked copy of src at dst.
type Watermarker interface {
	Apply(src, dst string) error
}

// Reconciler makes a dated remote directory match a local photo folder.
type Reconciler struct {
	Remote      Remote
	Watermarker Watermarker
	// TempRoot is where the scratch directory for watermarked copies is
	// created. Empty means os.TempDir().
	TempRoot string
}

// Request describes one reconciliation.
type Request struct {
	InputDir string
	Repo     string
	Date     string
	// ThumbDirs hold derived thumbnails that must go when their photo
	// is removed remotely.
	ThumbDirs []string
}

// Result reports what a reconciliation did.
type Result struct {
	Plan          Plan     `yaml:"-"`
	Deleted       []string `yaml:"deleted"`
	Uploaded      []string `yaml:"uploaded"`
	FailedDelete  []string `yaml:"failed_delete,omitempty"`
	FailedMark    []string `yaml:"failed_watermark,omitempty"`
	FailedUpload  []string `yaml:"failed_upload,omitempty"`
	ThumbsRemoved int      `yaml:"thumbnails_removed"`
	Final         []string `yaml:"final"`
}

// Run executes the reconciliation. Per-file failures are logged and
// recorded in the Result; only an unreadable input directory or a
// failure to create scratch space is returned as an error.
func (r *Reconciler) Run(ctx context.Context, req Request) (*Result, error) {
	local, err := LocalFiles(req.InputDir)
	if err != nil {
		return nil, err
	}

	remote, err := r.Remote.ListDirectory(ctx, req.Repo, req.Date)
	switch {
	case errors.Is(err, photorepo.ErrNotFound):
		slog.Debug("Remote directory does not exist yet", "repo", req.Repo, "dir", req.Date)
		remote = map[string]string{}
	case err != nil:
		slog.Warn("Unable to list remote files, assuming none", "repo", req.Repo, "dir", req.Date, "error", err)
		remote = map[string]string{}
	}

	plan := NewPlan(local, remote)
	slog.Info("Sync plan",
		"remote", len(remote),
		"local", len(local),
		"delete", len(plan.ToDelete),
		"upload", len(plan.ToUpload),
		"unchanged", len(plan.Unchanged))

	result := &Result{Plan: plan, Final: local}

	for _, name := range plan.ToDelete {
		if err := r.Remote.DeleteFile(ctx, req.Repo, req.Date, name, remote[name]); err != nil {
			slog.Warn("Failed to delete remote file", "file", name, "error", err)
			result.FailedDelete = append(result.FailedDelete, name)
			continue
		}
		result.Deleted = append(result.Deleted, name)
		result.ThumbsRemoved += removeThumbnails(req.ThumbDirs, name)
		slog.Info("Deleted remote file", "file", name)
	}

	if len(plan.ToUpload) == 0 {
		return result, nil
	}

	tempDir, err := os.MkdirTemp(r.TempRoot, "watermarked_"+req.Date+"_")
	if err != nil {
		return result, fmt.Errorf("failed to create temp directory: %w", err)
	}
	defer os.RemoveAll(tempDir)

	type queued struct{ name, path string }
	var queue []queued
	for _, name := range plan.ToUpload {
		dst := filepath.Join(tempDir, name)
		if err := r.Watermarker.Apply(filepath.Join(req.InputDir, name), dst); err != nil {
			slog.Warn("Failed to watermark photo", "file", name, "error", err)
			result.FailedMark = append(result.FailedMark, name)
			continue
		}
		queue = append(queue, queued{name: name, path: dst})
	}

	slog.Info("Uploading files", "count", len(queue))
	for _, q := range queue {
		content, err := os.ReadFile(q.path)
		if err == nil {
			err = r.Remote.UploadFile(ctx, req.Repo, req.Date, q.name, content)
		}
		if err != nil {
			slog.Warn("Failed to upload file", "file", q.name, "error", err)
			result.FailedUpload = append(result.FailedUpload, q.name)
			continue
		}
		result.Uploaded = append(result.Uploaded, q.name)
		slog.Info("Uploaded file", "file", q.name)
	}

	return result, nil
}

// removeThumbnails deletes the .webp derivatives of name and returns
// how many were removed.
func removeThumbnails(dirs []string, name string) int {
	removed := 0
	thumb := layout.ThumbnailName(name)
	for _, dir := range dirs {
		p := filepath.Join(dir, thumb)
		err := os.Remove(p)
		switch {
		case err == nil:
			removed++
		case !errors.Is(err, os.ErrNotExist):
			slog.Warn("Failed to delete local thumbnail", "path", p, "error", err)
		}
	}
	return removed
}
