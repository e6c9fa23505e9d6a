package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the publishing settings read from config.json.
type Config struct {
	GitHubToken       string   `yaml:"github_token"`
	GitHubUsername    string   `yaml:"github_username"`
	GitHubAPIURL      string   `yaml:"github_api_url"`
	WatermarkLogoPath string   `yaml:"watermark_logo_path"`
	MarginBottom      int      `yaml:"margin_bottom"`
	PhotoRepoTemplate string   `yaml:"photo_repo_template"`
	PhotoRepoBranch   string   `yaml:"photo_repo_branch"`
	MirrorRoot        string   `yaml:"mirror_root"`
	ImagesRoot        string   `yaml:"images_root"`
	PhotosHTMLPath    string   `yaml:"photos_html_path"`
	MirrorAttempts    int      `yaml:"mirror_attempts"`
	MirrorDelay       Duration `yaml:"mirror_delay"`

	// Gallery generation runs in-process now; the key is still accepted
	// so older config files keep loading.
	GalleryScriptPath string `yaml:"gallery_script_path"`
}

// Duration is read from a Go duration string such as "2s" or "1500ms".
// A bare number counts as seconds.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	switch value.ShortTag() {
	case "!!int", "!!float":
		var secs float64
		if err := value.Decode(&secs); err != nil {
			return err
		}
		*d = Duration(secs * float64(time.Second))
		return nil
	}

	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// Load reads a JSON or YAML config file and fills in defaults.
// An empty github_token falls back to the GITHUB_TOKEN environment variable.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := newConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	cfg.setDefaults()
	return cfg, nil
}

// Default returns a Config populated only with defaults.
func Default() *Config {
	cfg := newConfig()
	cfg.setDefaults()
	return cfg
}

// newConfig presets the numeric settings, where zero is a valid value,
// so only keys present in the file override them.
func newConfig() *Config {
	return &Config{
		MarginBottom:   30,
		MirrorAttempts: 3,
		MirrorDelay:    Duration(2 * time.Second),
	}
}

func (c *Config) setDefaults() {
	if c.GitHubToken == "" {
		c.GitHubToken = os.Getenv("GITHUB_TOKEN")
	}
	if c.GitHubUsername == "" {
		c.GitHubUsername = "RocknBirra"
	}
	if c.WatermarkLogoPath == "" {
		c.WatermarkLogoPath = "assets/logo.png"
	}
	if c.PhotoRepoTemplate == "" {
		c.PhotoRepoTemplate = "RocknBirra-Foto{year}"
	}
	if c.PhotoRepoBranch == "" {
		c.PhotoRepoBranch = "main"
	}
	if c.MirrorRoot == "" {
		c.MirrorRoot = ".."
	}
	if c.ImagesRoot == "" {
		c.ImagesRoot = "images"
	}
	if c.PhotosHTMLPath == "" {
		c.PhotosHTMLPath = "Photos.html"
	}
}

// RepoName expands photo_repo_template for the given year.
func (c *Config) RepoName(year int) string {
	return strings.ReplaceAll(c.PhotoRepoTemplate, "{year}", strconv.Itoa(year))
}
