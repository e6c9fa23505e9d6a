package photorepo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/google/go-github/v66/github"
)

// DefaultBranch is the branch new repositories start with. Writes to it
// leave the branch out so the server picks the repository default.
const DefaultBranch = "main"

// Client talks to the GitHub contents API of one account's photo repositories.
type Client struct {
	Owner  string
	Branch string
	gh     *github.Client
}

// Options configures a Client.
type Options struct {
	Owner   string
	Token   string
	Branch  string
	BaseURL string // empty for api.github.com
}

// NewClient creates a client authenticated with opts.Token.
func NewClient(opts Options) (*Client, error) {
	gh := github.NewClient(&http.Client{Timeout: 60 * time.Second})
	if opts.Token != "" {
		gh = gh.WithAuthToken(opts.Token)
	}
	if opts.BaseURL != "" {
		base, err := url.Parse(strings.TrimSuffix(opts.BaseURL, "/") + "/")
		if err != nil {
			return nil, fmt.Errorf("invalid GitHub API URL: %w", err)
		}
		gh.BaseURL = base
	}

	branch := opts.Branch
	if branch == "" {
		branch = DefaultBranch
	}
	return &Client{Owner: opts.Owner, Branch: branch, gh: gh}, nil
}

// CreateRepository creates a public repository. A repository that
// already exists counts as success.
func (c *Client) CreateRepository(ctx context.Context, name, description string) error {
	_, resp, err := c.gh.Repositories.Create(ctx, "", &github.Repository{
		Name:        github.String(name),
		Description: github.String(description),
		Private:     github.Bool(false),
	})
	err = classify("create repository "+name, resp, err)
	if errors.Is(err, ErrAlreadyExists) {
		slog.Debug("Repository already exists", "repo", name)
		return nil
	}
	return err
}

// ListDirectory returns filename -> content sha for the files directly
// under dir. Subdirectories are ignored.
func (c *Client) ListDirectory(ctx context.Context, repo, dir string) (map[string]string, error) {
	_, entries, resp, err := c.gh.Repositories.GetContents(ctx, c.Owner, repo, dir, nil)
	if err := classify("list "+repo+"/"+dir, resp, err); err != nil {
		return nil, err
	}

	files := make(map[string]string, len(entries))
	for _, entry := range entries {
		if entry.GetType() != "file" {
			continue
		}
		files[entry.GetName()] = entry.GetSHA()
	}
	return files, nil
}

// UploadFile creates dir/name with the given content.
func (c *Client) UploadFile(ctx context.Context, repo, dir, name string, content []byte) error {
	_, resp, err := c.gh.Repositories.CreateFile(ctx, c.Owner, repo, path.Join(dir, name), &github.RepositoryContentFileOptions{
		Message: github.String("Add " + name),
		Content: content,
		Branch:  c.branchRef(),
	})
	return classify("upload "+name, resp, err)
}

// DeleteFile removes dir/name. sha must be the blob sha from a listing.
func (c *Client) DeleteFile(ctx context.Context, repo, dir, name, sha string) error {
	if sha == "" {
		return fmt.Errorf("delete %s: content sha is required", name)
	}
	_, resp, err := c.gh.Repositories.DeleteFile(ctx, c.Owner, repo, path.Join(dir, name), &github.RepositoryContentFileOptions{
		Message: github.String("Remove " + name),
		SHA:     github.String(sha),
		Branch:  c.branchRef(),
	})
	return classify("delete "+name, resp, err)
}

func (c *Client) branchRef() *string {
	if c.Branch == DefaultBranch {
		return nil
	}
	return github.String(c.Branch)
}

// RawBaseURL is the download prefix for files under dir.
func (c *Client) RawBaseURL(repo, dir string) string {
	return fmt.Sprintf("https://raw.githubusercontent.com/%s/%s/%s/%s", c.Owner, repo, c.Branch, dir)
}

// CloneURL is the https clone address of repo.
func (c *Client) CloneURL(repo string) string {
	return fmt.Sprintf("https://github.com/%s/%s.git", c.Owner, repo)
}
