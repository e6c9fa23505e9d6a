package syncer

import (
	"fmt"
	"os"
	"sort"

	"github.com/rocknbirra/galleryctl/internal/layout"
)

// Plan is the set of changes that makes a remote directory mirror a
// local one. The three lists are disjoint and sorted.
type Plan struct {
	ToDelete  []string
	ToUpload  []string
	Unchanged []string
}

// NewPlan diffs local filenames against a remote listing. Names are
// compared exactly, so files that differ only in case are distinct.
func NewPlan(local []string, remote map[string]string) Plan {
	localSet := make(map[string]bool, len(local))
	for _, name := range local {
		localSet[name] = true
	}

	var p Plan
	for name := range localSet {
		if _, ok := remote[name]; ok {
			p.Unchanged = append(p.Unchanged, name)
		} else {
			p.ToUpload = append(p.ToUpload, name)
		}
	}
	for name := range remote {
		if !localSet[name] {
			p.ToDelete = append(p.ToDelete, name)
		}
	}

	sort.Strings(p.ToDelete)
	sort.Strings(p.ToUpload)
	sort.Strings(p.Unchanged)
	return p
}

// LocalFiles lists the photo filenames in dir, sorted.
func LocalFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read input directory: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if !entry.IsDir() && layout.IsImage(entry.Name()) {
			names = append(names, entry.Name())
		}
	}
	return names, nil
}
