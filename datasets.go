package codice

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// GoldenHashes are the recorded SHA-256 digests (uppercase hex) of a
// dataset's known-good artifacts.
type GoldenHashes struct {
	Normalized string `yaml:"normalized"`
	KMeans     string `yaml:"kmeans"`
}

// DatasetConfig describes one dataset the pipeline knows about.
type DatasetConfig struct {
	Name   string       `yaml:"name"`
	K      int          `yaml:"k"`
	Golden GoldenHashes `yaml:"golden"`
}

// DefaultDatasets is the registry used when no datasets file exists.
var DefaultDatasets = []DatasetConfig{
	{
		Name: "iris",
		K:    3,
		Golden: GoldenHashes{
			Normalized: "EF28EA082C882A3F9379A57E05C929D76E98899E151A6746B07D8D899644372F",
			KMeans:     "DA96D0505BCB1A5A2B826CEB1AA7C34073CB88CB29AE1236006FA4B0F0D74C46",
		},
	},
	{
		Name: "wine",
		K:    3,
		Golden: GoldenHashes{
			Normalized: "D4F52AAA1D5F294A3F647DF3198E765D619099888140C96E582663968DCE5756",
			KMeans:     "8A0B046DD9813282FC108DDA0EA94A0D18F7E7B9E9910A74D8FFBC13EDB6B921",
		},
	},
}

type datasetsFile struct {
	Datasets []DatasetConfig `yaml:"datasets"`
}

// LoadDatasets reads the dataset registry from path. A missing file yields
// DefaultDatasets. Datasets without k get defaultK.
func LoadDatasets(path string, defaultK int) ([]DatasetConfig, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return withDefaultK(DefaultDatasets, defaultK), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read datasets file: %w", err)
	}

	var file datasetsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse datasets file %s: %w", path, err)
	}

	seen := make(map[string]bool, len(file.Datasets))
	for i := range file.Datasets {
		ds := &file.Datasets[i]
		ds.Name = strings.TrimSpace(ds.Name)
		if err := ValidateDatasetName(ds.Name); err != nil {
			return nil, fmt.Errorf("datasets file %s, entry %d: %w", path, i+1, err)
		}
		if seen[ds.Name] {
			return nil, fmt.Errorf("datasets file %s: duplicate dataset %q", path, ds.Name)
		}
		seen[ds.Name] = true
		if ds.K < 0 {
			return nil, fmt.Errorf("datasets file %s: dataset %q has negative k", path, ds.Name)
		}
		ds.Golden.Normalized = strings.ToUpper(strings.TrimSpace(ds.Golden.Normalized))
		ds.Golden.KMeans = strings.ToUpper(strings.TrimSpace(ds.Golden.KMeans))
	}
	return withDefaultK(file.Datasets, defaultK), nil
}

func withDefaultK(datasets []DatasetConfig, defaultK int) []DatasetConfig {
	out := make([]DatasetConfig, len(datasets))
	for i, ds := range datasets {
		if ds.K == 0 {
			ds.K = defaultK
		}
		out[i] = ds
	}
	return out
}

// FindDataset returns the registry entry called name.
func FindDataset(datasets []DatasetConfig, name string) (DatasetConfig, error) {
	for _, ds := range datasets {
		if strings.EqualFold(ds.Name, name) {
			return ds, nil
		}
	}
	return DatasetConfig{}, fmt.Errorf("%w %q (available: %s)", ErrUnknownDataset, name, datasetNames(datasets))
}

func datasetNames(datasets []DatasetConfig) string {
	names := make([]string, len(datasets))
	for i, ds := range datasets {
		names[i] = ds.Name
	}
	return strings.Join(names, ", ")
}
