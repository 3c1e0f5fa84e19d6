package codice

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/sosodev/duration"
)

// Clean removes the generated files of dataset name: its normalized and
// kmeans artifacts, its digest file and its reports. The raw CSV is kept.
// It returns the paths that were removed.
func (p *Pipeline) Clean(name string) ([]string, error) {
	paths, err := p.Resolver.Resolve(name)
	if err != nil {
		return nil, err
	}

	candidates := []string{
		paths.Normalized,
		paths.KMeans,
		p.DigestPath(name),
		filepath.Join(p.Config.ReportsDir, name+"_report.md"),
		filepath.Join(p.Config.ReportsDir, name+"_report.html"),
	}

	var removed []string
	for _, path := range candidates {
		err := os.Remove(path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return removed, fmt.Errorf("failed to remove %s: %w", path, err)
		}
		removed = append(removed, path)
	}
	return removed, nil
}

// RetentionCutoff parses an ISO 8601 duration such as "P30D" or "PT12H"
// and returns now minus that duration.
func RetentionCutoff(iso string, now time.Time) (time.Time, error) {
	d, err := duration.Parse(iso)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid retention %q: %w", iso, err)
	}
	td := d.ToTimeDuration()
	if td <= 0 {
		return time.Time{}, fmt.Errorf("invalid retention %q: must be positive", iso)
	}
	return now.Add(-td), nil
}
