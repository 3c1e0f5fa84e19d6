package codice

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Environment names reported by Resolver.
const (
	EnvContainer = "docker"
	EnvLocal     = "local"
)

// DatasetPaths are the three artifact locations of one dataset.
type DatasetPaths struct {
	Raw        string
	Normalized string
	KMeans     string
	Env        string
}

// Resolver maps dataset names to file locations. The container layout is
// used when the dataset's raw file exists under ContainerRoot; otherwise
// the local layout under LocalRoot is used and its directory is created.
//
// Both layouts are <root>/datasets/<name>/<name>_{raw.csv,normalized.json,kmeans.json}.
type Resolver struct {
	ContainerRoot string
	LocalRoot     string
}

// NewResolver returns a Resolver for cfg.
func NewResolver(cfg *Config) Resolver {
	return Resolver{ContainerRoot: cfg.ContainerRoot, LocalRoot: cfg.LocalRoot}
}

// Resolve returns the paths of dataset name.
func (r Resolver) Resolve(name string) (DatasetPaths, error) {
	if err := ValidateDatasetName(name); err != nil {
		return DatasetPaths{}, err
	}

	if r.ContainerRoot != "" {
		paths := layout(r.ContainerRoot, name, EnvContainer)
		if Exists(paths.Raw) {
			return paths, nil
		}
	}

	paths := layout(r.LocalRoot, name, EnvLocal)
	if err := os.MkdirAll(filepath.Dir(paths.Raw), 0755); err != nil {
		return DatasetPaths{}, fmt.Errorf("failed to create dataset directory: %w", err)
	}
	return paths, nil
}

func layout(root, name, env string) DatasetPaths {
	dir := filepath.Join(root, "datasets", name)
	return DatasetPaths{
		Raw:        filepath.Join(dir, name+"_raw.csv"),
		Normalized: filepath.Join(dir, name+"_normalized.json"),
		KMeans:     filepath.Join(dir, name+"_kmeans.json"),
		Env:        env,
	}
}

// Exists reports whether path names an existing regular file.
func Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// ValidateDatasetName rejects names that would escape the datasets directory.
func ValidateDatasetName(name string) error {
	switch {
	case name == "", name == ".", name == "..":
		return fmt.Errorf("%w %q", ErrInvalidDataset, name)
	case strings.ContainsAny(name, `/\`):
		return fmt.Errorf("%w %q: contains a path separator", ErrInvalidDataset, name)
	}
	return nil
}
