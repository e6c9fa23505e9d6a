package report

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rocknbirra/galleryctl/internal/pipeline"
	"gopkg.in/yaml.v3"
)

// RunReport is the YAML record of one publish run.
type RunReport struct {
	Date         string   `yaml:"date"`
	Title        string   `yaml:"title"`
	Year         int      `yaml:"year"`
	Repository   string   `yaml:"repository"`
	Timestamp    string   `yaml:"timestamp"`
	Success      bool     `yaml:"success"`
	FailedStage  string   `yaml:"failedstage,omitempty"`
	Error        string   `yaml:"error,omitempty"`
	Uploaded     []string `yaml:"uploaded"`
	Deleted      []string `yaml:"deleted"`
	Failed       []string `yaml:"failed,omitempty"`
	Photos       []string `yaml:"photos"`
	GalleryPath  string   `yaml:"gallerypath,omitempty"`
	GalleryItems int      `yaml:"galleryitems"`
	Skipped      []string `yaml:"skipped,omitempty"`
	IndexUpdated bool     `yaml:"indexupdated"`
}

// Build summarises a pipeline result. runErr is the error Run returned.
func Build(res *pipeline.Result, runErr error, now time.Time) RunReport {
	r := RunReport{
		Date:         res.Date,
		Title:        res.Title,
		Year:         res.Year,
		Repository:   res.Repo,
		Timestamp:    now.Format("2006-01-02_15-04-05"),
		Success:      runErr == nil,
		IndexUpdated: res.IndexUpdated,
	}
	if runErr != nil {
		r.FailedStage = res.Stage
		r.Error = runErr.Error()
	}
	if s := res.Sync; s != nil {
		r.Uploaded = s.Uploaded
		r.Deleted = s.Deleted
		r.Photos = s.Final
		r.Failed = append(r.Failed, s.FailedDelete...)
		r.Failed = append(r.Failed, s.FailedMark...)
		r.Failed = append(r.Failed, s.FailedUpload...)
	}
	if g := res.Gallery; g != nil {
		r.GalleryPath = filepath.ToSlash(g.Path)
		r.GalleryItems = len(g.Items)
		r.Skipped = g.Skipped
	}
	return r
}

// Save writes the report to path as YAML.
func Save(path string, r RunReport) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create report directory: %w", err)
		}
	}

	data, err := yaml.Marshal(&r)
	if err != nil {
		return fmt.Errorf("failed to marshal YAML: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write YAML file: %w", err)
	}
	return nil
}
