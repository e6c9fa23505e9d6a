package mirror

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/transport"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/rocknbirra/galleryctl/internal/layout"
)

// Mirror keeps local git working copies of photo repositories so the
// gallery generator can read what was pushed remotely.
type Mirror struct {
	Root     string
	Token    string
	Attempts int
	Delay    time.Duration
	// CloneURL maps a repository name to its clone address.
	CloneURL func(repo string) string
}

// Dir is the working copy location of repo.
func (m *Mirror) Dir(repo string) string {
	return filepath.Join(m.Root, repo)
}

// Sync pulls the working copy of repo, cloning it first if needed.
// Failures are logged and leave an (possibly empty) directory behind,
// so callers always get a usable path.
func (m *Mirror) Sync(ctx context.Context, repo string) (string, error) {
	dir := m.Dir(repo)
	if err := m.Pull(ctx, dir, repo); err != nil {
		slog.Warn("Unable to sync local mirror", "repo", repo, "dir", dir, "error", err)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("failed to create mirror directory: %w", err)
		}
	}
	return dir, nil
}

// Pull updates dir from origin, or clones repo into it when dir is not
// a git repository yet.
func (m *Mirror) Pull(ctx context.Context, dir, repo string) error {
	r, err := git.PlainOpen(dir)
	if errors.Is(err, git.ErrRepositoryNotExists) {
		return m.clone(ctx, dir, repo)
	}
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", dir, err)
	}

	wt, err := r.Worktree()
	if err != nil {
		return fmt.Errorf("failed to open worktree: %w", err)
	}
	err = wt.PullContext(ctx, &git.PullOptions{RemoteName: "origin", Auth: m.auth()})
	if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		return fmt.Errorf("failed to pull %s: %w", repo, err)
	}
	slog.Debug("Pulled mirror", "repo", repo, "dir", dir)
	return nil
}

func (m *Mirror) clone(ctx context.Context, dir, repo string) error {
	if m.CloneURL == nil {
		return fmt.Errorf("no clone URL for %s", repo)
	}
	url := m.CloneURL(repo)
	if _, err := git.PlainCloneContext(ctx, dir, false, &git.CloneOptions{URL: url, Auth: m.auth()}); err != nil {
		return fmt.Errorf("failed to clone %s: %w", url, err)
	}
	slog.Info("Cloned mirror", "repo", repo, "dir", dir)
	return nil
}

func (m *Mirror) auth() transport.AuthMethod {
	if m.Token == "" {
		return nil
	}
	return &githttp.BasicAuth{Username: "x-access-token", Password: m.Token}
}

// Puller refreshes a working copy.
type Puller interface {
	Pull(ctx context.Context, dir, repo string) error
}

// WaitForImages polls dir/date until it holds at least one photo,
// pulling again between checks. After the last attempt the image
// directory is returned whether or not photos showed up.
func WaitForImages(ctx context.Context, p Puller, dir, repo, date string, attempts int, delay time.Duration) (string, error) {
	imageDir := filepath.Join(dir, date)
	if attempts < 1 {
		attempts = 1
	}

	for attempt := 1; attempt <= attempts; attempt++ {
		if n := countImages(imageDir); n > 0 {
			slog.Info("Mirror has photos", "dir", imageDir, "count", n)
			return imageDir, nil
		}
		slog.Debug("Waiting for photos in mirror", "dir", imageDir, "attempt", attempt)

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(delay):
		}
		if err := p.Pull(ctx, dir, repo); err != nil {
			slog.Debug("Pull failed while waiting", "repo", repo, "error", err)
		}
	}

	slog.Warn("No photos appeared in mirror", "dir", imageDir, "attempts", attempts)
	return imageDir, nil
}

// WaitForImages polls the mirror of repo using the configured attempts
// and delay.
func (m *Mirror) WaitForImages(ctx context.Context, repo, date string) (string, error) {
	return WaitForImages(ctx, m, m.Dir(repo), repo, date, m.Attempts, m.Delay)
}

func countImages(dir string) int {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0
	}
	n := 0
	for _, entry := range entries {
		if !entry.IsDir() && layout.IsImage(entry.Name()) {
			n++
		}
	}
	return n
}
